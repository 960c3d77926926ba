package service

import (
	"bytes"
	"encoding/binary"
	"strings"
)

// Duration probing for the container formats the intake accepts. These read
// fixed binary headers only; a buffer that defeats the probe is not rejected
// for it — the duration rule simply cannot fire without a measurement.

func probeDuration(buf []byte, mime string) (float64, bool) {
	switch {
	case strings.Contains(mime, "wav") || bytes.HasPrefix(buf, []byte("RIFF")):
		return probeWAVDuration(buf)
	case mime == "video/mp4" || mime == "audio/mp4" || mime == "video/quicktime":
		return probeMP4Duration(buf)
	case mime == "audio/mpeg":
		return probeMP3Duration(buf)
	}
	return 0, false
}

// probeWAVDuration reads the RIFF chunk list: duration is the data chunk
// size divided by the byte rate from the fmt chunk.
func probeWAVDuration(buf []byte) (float64, bool) {
	if len(buf) < 44 || !bytes.HasPrefix(buf, []byte("RIFF")) || string(buf[8:12]) != "WAVE" {
		return 0, false
	}

	var byteRate uint32
	var dataSize uint32
	offset := 12
	for offset+8 <= len(buf) {
		chunkID := string(buf[offset : offset+4])
		chunkSize := binary.LittleEndian.Uint32(buf[offset+4 : offset+8])
		body := offset + 8

		switch chunkID {
		case "fmt ":
			if body+16 <= len(buf) {
				// fmt layout: format(2) channels(2) sampleRate(4) byteRate(4) ...
				byteRate = binary.LittleEndian.Uint32(buf[body+8 : body+12])
			}
		case "data":
			dataSize = chunkSize
		}

		if byteRate > 0 && dataSize > 0 {
			return float64(dataSize) / float64(byteRate), true
		}

		// Чанки выровнены по 2 байта.
		offset = body + int(chunkSize)
		if chunkSize%2 == 1 {
			offset++
		}
	}
	return 0, false
}

// probeMP4Duration walks the top-level box list to moov/mvhd and reads
// timescale + duration.
func probeMP4Duration(buf []byte) (float64, bool) {
	moov, ok := findBox(buf, "moov")
	if !ok {
		return 0, false
	}
	mvhd, ok := findBox(moov, "mvhd")
	if !ok || len(mvhd) < 20 {
		return 0, false
	}

	version := mvhd[0]
	if version == 1 {
		if len(mvhd) < 32 {
			return 0, false
		}
		timescale := binary.BigEndian.Uint32(mvhd[20:24])
		duration := binary.BigEndian.Uint64(mvhd[24:32])
		if timescale == 0 {
			return 0, false
		}
		return float64(duration) / float64(timescale), true
	}

	timescale := binary.BigEndian.Uint32(mvhd[12:16])
	duration := binary.BigEndian.Uint32(mvhd[16:20])
	if timescale == 0 {
		return 0, false
	}
	return float64(duration) / float64(timescale), true
}

// findBox scans a box list and returns the body of the first box with the
// given type.
func findBox(buf []byte, boxType string) ([]byte, bool) {
	offset := 0
	for offset+8 <= len(buf) {
		size := int(binary.BigEndian.Uint32(buf[offset : offset+4]))
		name := string(buf[offset+4 : offset+8])
		if size < 8 {
			return nil, false
		}
		end := offset + size
		if end > len(buf) {
			end = len(buf)
		}
		if name == boxType {
			return buf[offset+8 : end], true
		}
		offset += size
	}
	return nil, false
}

// MPEG-1 Layer III bitrates, kbit/s, indexed by the frame-header bitrate field.
var mp3Bitrates = [16]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0}

// probeMP3Duration estimates duration from the first frame header assuming
// constant bitrate. Good enough for a ceiling check on citizen voice notes.
func probeMP3Duration(buf []byte) (float64, bool) {
	audio := buf

	// ID3v2 tag: 10-byte header with a syncsafe size.
	if bytes.HasPrefix(buf, []byte("ID3")) && len(buf) > 10 {
		tagSize := int(buf[6]&0x7f)<<21 | int(buf[7]&0x7f)<<14 | int(buf[8]&0x7f)<<7 | int(buf[9]&0x7f)
		if 10+tagSize < len(buf) {
			audio = buf[10+tagSize:]
		}
	}

	for i := 0; i+4 <= len(audio); i++ {
		if audio[i] != 0xff || audio[i+1]&0xe0 != 0xe0 {
			continue
		}
		versionBits := (audio[i+1] >> 3) & 0x03
		layerBits := (audio[i+1] >> 1) & 0x03
		if versionBits != 0x03 || layerBits != 0x01 {
			// Только MPEG-1 Layer III.
			continue
		}
		bitrateIndex := (audio[i+2] >> 4) & 0x0f
		kbps := mp3Bitrates[bitrateIndex]
		if kbps == 0 {
			continue
		}
		return float64(len(audio)-i) * 8 / float64(kbps*1000), true
	}
	return 0, false
}

// probeVideoDimensions extracts width/height from an MP4 track header when
// present. WebM and MOV variants without a parseable tkhd are skipped.
func probeVideoDimensions(buf []byte) (int, int, bool) {
	moov, ok := findBox(buf, "moov")
	if !ok {
		return 0, 0, false
	}
	trak, ok := findBox(moov, "trak")
	if !ok {
		return 0, 0, false
	}
	tkhd, ok := findBox(trak, "tkhd")
	if !ok || len(tkhd) == 0 {
		return 0, 0, false
	}

	// Width/height are 16.16 fixed point at the end of the tkhd body.
	need := 84
	if tkhd[0] == 1 {
		need = 96
	}
	if len(tkhd) < need+8 {
		return 0, 0, false
	}
	width := int(binary.BigEndian.Uint32(tkhd[need:need+4]) >> 16)
	height := int(binary.BigEndian.Uint32(tkhd[need+4:need+8]) >> 16)
	if width == 0 || height == 0 {
		return 0, 0, false
	}
	return width, height, true
}
