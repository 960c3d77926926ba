package service

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func mp4Box(name string, body []byte) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(8+len(body)))
	buf.WriteString(name)
	buf.Write(body)
	return buf.Bytes()
}

// mvhdBody builds a version 0 movie header with the given timescale and duration.
func mvhdBody(timescale, duration uint32) []byte {
	body := make([]byte, 20)
	binary.BigEndian.PutUint32(body[12:16], timescale)
	binary.BigEndian.PutUint32(body[16:20], duration)
	return body
}

func TestProbeMP4Duration(t *testing.T) {
	ftyp := mp4Box("ftyp", []byte("M4A \x00\x00\x00\x00"))
	moov := mp4Box("moov", mp4Box("mvhd", mvhdBody(1000, 45500)))
	buf := append(ftyp, moov...)

	seconds, ok := probeMP4Duration(buf)
	if !ok {
		t.Fatal("expected mvhd to be found")
	}
	if seconds != 45.5 {
		t.Errorf("duration = %v, want 45.5", seconds)
	}
}

func TestProbeMP4ZeroTimescale(t *testing.T) {
	moov := mp4Box("moov", mp4Box("mvhd", mvhdBody(0, 1000)))
	if _, ok := probeMP4Duration(moov); ok {
		t.Error("zero timescale must not produce a duration")
	}
}

func TestProbeMP4Version1(t *testing.T) {
	body := make([]byte, 32)
	body[0] = 1
	binary.BigEndian.PutUint32(body[20:24], 600)
	binary.BigEndian.PutUint64(body[24:32], 600*90)
	moov := mp4Box("moov", mp4Box("mvhd", body))

	seconds, ok := probeMP4Duration(moov)
	if !ok || seconds != 90 {
		t.Errorf("duration = %v (ok=%v), want 90", seconds, ok)
	}
}

func TestProbeMP3Duration(t *testing.T) {
	// One MPEG-1 Layer III header at 128 kbit/s followed by frame data.
	frame := []byte{0xff, 0xfb, 0x90, 0x00}
	audio := append(frame, make([]byte, 128*1000/8*10-4)...) // 10 seconds at CBR

	seconds, ok := probeMP3Duration(audio)
	if !ok {
		t.Fatal("expected a frame header to be found")
	}
	if seconds != 10 {
		t.Errorf("duration = %v, want 10", seconds)
	}
}

func TestProbeMP3SkipsID3Tag(t *testing.T) {
	// ID3v2 header declaring a 100 byte tag, then a frame at 320 kbit/s.
	tag := append([]byte("ID3\x04\x00\x00\x00\x00\x00\x64"), make([]byte, 100)...)
	frame := []byte{0xff, 0xfb, 0xe0, 0x00}
	audio := append(tag, append(frame, make([]byte, 320*1000/8-4)...)...)

	seconds, ok := probeMP3Duration(audio)
	if !ok {
		t.Fatal("expected a frame header after the ID3 tag")
	}
	if seconds != 1 {
		t.Errorf("duration = %v, want 1", seconds)
	}
}

func TestProbeMP3Garbage(t *testing.T) {
	if _, ok := probeMP3Duration(bytes.Repeat([]byte{0x00}, 512)); ok {
		t.Error("garbage must not produce a duration")
	}
}

func TestProbeWAVTruncated(t *testing.T) {
	if _, ok := probeWAVDuration([]byte("RIFF")); ok {
		t.Error("truncated header must not produce a duration")
	}
}

func TestProbeVideoDimensionsEmptyTkhd(t *testing.T) {
	// A size-8 tkhd box has an empty body; the walk must bail out, not panic.
	moov := mp4Box("moov", mp4Box("trak", mp4Box("tkhd", nil)))
	if _, _, ok := probeVideoDimensions(moov); ok {
		t.Error("empty track header must not produce dimensions")
	}
}

func TestProbeVideoDimensions(t *testing.T) {
	tkhd := make([]byte, 92)
	binary.BigEndian.PutUint32(tkhd[84:88], 1280<<16)
	binary.BigEndian.PutUint32(tkhd[88:92], 720<<16)
	moov := mp4Box("moov", mp4Box("trak", mp4Box("tkhd", tkhd)))

	w, h, ok := probeVideoDimensions(moov)
	if !ok {
		t.Fatal("expected tkhd to be found")
	}
	if w != 1280 || h != 720 {
		t.Errorf("dimensions = %dx%d, want 1280x720", w, h)
	}
}
