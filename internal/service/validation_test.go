package service

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"image"
	"image/png"
	"strings"
	"testing"

	"citywatch/alertmedia/internal/model"

	"gorm.io/gorm"
)

func activeAlert() *model.Alert {
	return &model.Alert{
		Model:    gorm.Model{ID: 1},
		Title:    "Missing person near central station",
		Category: model.CategoryMissingPerson,
		Status:   model.AlertStatusActive,
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("failed to encode test png: %v", err)
	}
	return buf.Bytes()
}

// wavBytes builds a minimal RIFF/WAVE buffer whose declared data size yields
// the requested duration at the given byte rate.
func wavBytes(t *testing.T, byteRate, dataSize uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate/2))
	binary.Write(&buf, binary.LittleEndian, byteRate)
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, dataSize)
	return buf.Bytes()
}

func hasCode(errs ValidationErrors, code string) bool {
	for _, e := range errs {
		if e.Code == code {
			return true
		}
	}
	return false
}

func TestValidateIntentAccepted(t *testing.T) {
	errs := ValidateIntent(model.MediaKindImage, "scene.jpg", "image/jpeg", 1024, activeAlert())
	if errs.Any() {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidateIntentCollectsAllErrors(t *testing.T) {
	// Oversized, wrong type and wrong extension must all come back at once.
	errs := ValidateIntent(model.MediaKindImage, "report.pdf", "application/pdf", maxUploadSize+1, activeAlert())
	if len(errs) != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", len(errs), errs)
	}
	for _, code := range []string{"size_exceeded", "content_type_not_allowed", "extension_not_allowed"} {
		if !hasCode(errs, code) {
			t.Errorf("missing error code %q in %v", code, errs)
		}
	}
}

func TestValidateIntentUnknownKind(t *testing.T) {
	errs := ValidateIntent("document", "scan.pdf", "application/pdf", 100, activeAlert())
	if !hasCode(errs, "invalid_kind") {
		t.Fatalf("expected invalid_kind, got %v", errs)
	}
}

func TestValidateIntentMissingAlert(t *testing.T) {
	errs := ValidateIntent(model.MediaKindImage, "scene.jpg", "image/jpeg", 1024, nil)
	if !hasCode(errs, "alert_not_found") {
		t.Fatalf("expected alert_not_found, got %v", errs)
	}
}

func TestValidateIntentResolvedAlertRejectsMedia(t *testing.T) {
	alert := activeAlert()
	alert.Status = model.AlertStatusResolved

	errs := ValidateIntent(model.MediaKindImage, "scene.jpg", "image/jpeg", 1024, alert)
	if !hasCode(errs, "alert_not_accepting_media") {
		t.Fatalf("expected alert_not_accepting_media, got %v", errs)
	}
}

func TestValidateIntentLargeAudioWithinLimit(t *testing.T) {
	// 4 MiB voice recording is under the uniform 5 MiB ceiling.
	errs := ValidateIntent(model.MediaKindAudio, "note.mp3", "audio/mpeg", 4<<20, activeAlert())
	if errs.Any() {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidateBytesEmptyBody(t *testing.T) {
	_, errs := ValidateBytes(nil, model.MediaKindImage, "image/png", "")
	if !hasCode(errs, "empty_file") {
		t.Fatalf("expected empty_file, got %v", errs)
	}
}

func TestValidateBytesImageDimensions(t *testing.T) {
	body := pngBytes(t, 640, 480)

	meta, errs := ValidateBytes(body, model.MediaKindImage, "image/png", "")
	if errs.Any() {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if meta.ActualMime != "image/png" {
		t.Errorf("ActualMime = %q, want image/png", meta.ActualMime)
	}
	if meta.Width == nil || *meta.Width != 640 || meta.Height == nil || *meta.Height != 480 {
		t.Errorf("dimensions = %v x %v, want 640 x 480", meta.Width, meta.Height)
	}
}

func TestValidateBytesChecksum(t *testing.T) {
	body := pngBytes(t, 8, 8)
	sum := sha256.Sum256(body)
	good := hex.EncodeToString(sum[:])

	meta, errs := ValidateBytes(body, model.MediaKindImage, "image/png", strings.ToUpper(good))
	if errs.Any() {
		t.Fatalf("case-insensitive checksum match failed: %v", errs)
	}
	if meta.Checksum != good {
		t.Errorf("Checksum = %q, want %q", meta.Checksum, good)
	}

	_, errs = ValidateBytes(body, model.MediaKindImage, "image/png", strings.Repeat("0", 64))
	if !hasCode(errs, "checksum_mismatch") {
		t.Fatalf("expected checksum_mismatch, got %v", errs)
	}
}

func TestValidateBytesMimeMismatch(t *testing.T) {
	// PNG bytes presented as an audio reservation.
	_, errs := ValidateBytes(pngBytes(t, 8, 8), model.MediaKindAudio, "audio/mpeg", "")
	if !hasCode(errs, "mime_mismatch") {
		t.Fatalf("expected mime_mismatch, got %v", errs)
	}
}

func TestValidateBytesAudioDurationCeiling(t *testing.T) {
	// 44100 B/s byte rate; data size picks the duration.
	ok := wavBytes(t, 44100, 44100*30) // 30 seconds
	meta, errs := ValidateBytes(ok, model.MediaKindAudio, "audio/wav", "")
	if errs.Any() {
		t.Fatalf("expected 30s clip accepted, got %v", errs)
	}
	if meta.DurationSeconds == nil || *meta.DurationSeconds != 30 {
		t.Errorf("DurationSeconds = %v, want 30", meta.DurationSeconds)
	}

	long := wavBytes(t, 44100, 44100*360) // 6 minutes
	_, errs = ValidateBytes(long, model.MediaKindAudio, "audio/wav", "")
	if !hasCode(errs, "duration_exceeded") {
		t.Fatalf("expected duration_exceeded for 6 minute clip, got %v", errs)
	}
}

func TestValidateBytesVideoDurationCeiling(t *testing.T) {
	// Crafted MP4: no sniffable signature, so the declared type is kept and
	// the movie header supplies the duration.
	short := mp4Box("moov", mp4Box("mvhd", mvhdBody(1000, 45000)))
	meta, errs := ValidateBytes(short, model.MediaKindVideo, "video/mp4", "")
	if errs.Any() {
		t.Fatalf("expected 45s video accepted, got %v", errs)
	}
	if meta.DurationSeconds == nil || *meta.DurationSeconds != 45 {
		t.Errorf("DurationSeconds = %v, want 45", meta.DurationSeconds)
	}

	long := mp4Box("moov", mp4Box("mvhd", mvhdBody(1000, 90000)))
	_, errs = ValidateBytes(long, model.MediaKindVideo, "video/mp4", "")
	if !hasCode(errs, "duration_exceeded") {
		t.Fatalf("expected duration_exceeded for 90s video, got %v", errs)
	}
}

func TestValidateBytesVideoWithEmptyHeaders(t *testing.T) {
	// Degenerate client buffer: empty track header boxes must be skipped
	// without crashing the transfer path.
	buf := mp4Box("moov", mp4Box("trak", mp4Box("tkhd", nil)))
	meta, errs := ValidateBytes(buf, model.MediaKindVideo, "video/mp4", "")
	if errs.Any() {
		t.Fatalf("expected acceptance without measurements, got %v", errs)
	}
	if meta.Width != nil || meta.Height != nil {
		t.Errorf("dimensions = %v x %v, want none", meta.Width, meta.Height)
	}
}

func TestValidateBytesSizeCeiling(t *testing.T) {
	body := make([]byte, maxUploadSize+1)
	copy(body, pngBytes(t, 4, 4))

	_, errs := ValidateBytes(body, model.MediaKindImage, "image/png", "")
	if !hasCode(errs, "size_exceeded") {
		t.Fatalf("expected size_exceeded, got %v", errs)
	}
}

func TestSniffInconclusiveKeepsDeclared(t *testing.T) {
	// Raw MP3 frames carry no sniffable signature; the declared type stands.
	frame := []byte{0xff, 0xfb, 0x90, 0x00}
	body := append(frame, make([]byte, 600)...)

	if got := sniffMime(body, "audio/MPEG"); got != "audio/mpeg" {
		t.Errorf("sniffMime = %q, want audio/mpeg", got)
	}
}

func TestMimeCompatibleM4A(t *testing.T) {
	// M4A audio sits in an MP4 container.
	if !mimeCompatible(model.MediaKindAudio, "video/mp4") {
		t.Error("video/mp4 must be accepted for audio reservations")
	}
	if mimeCompatible(model.MediaKindVideo, "audio/mpeg") {
		t.Error("audio/mpeg must not be accepted for video reservations")
	}
}
