package service

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"net/http"
	"path/filepath"
	"strings"

	"citywatch/alertmedia/internal/model"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// maxUploadSize is the uniform per-file ceiling for every media kind.
const maxUploadSize = 5 << 20 // 5 MiB

const (
	maxAudioDurationSeconds = 300.0 // 5 minutes
	maxVideoDurationSeconds = 60.0  // citizen clips are short; much stricter than audio
)

// kindRule holds every per-kind validation rule in one place, looked up by
// kind, so a rule change touches one table entry instead of scattered branches.
type kindRule struct {
	maxSizeBytes       int64
	allowedMimes       map[string]bool
	allowedExtensions  map[string]bool
	maxDurationSeconds float64 // 0 means no duration rule
}

var kindRules = map[model.MediaKind]kindRule{
	model.MediaKindImage: {
		maxSizeBytes: maxUploadSize,
		allowedMimes: map[string]bool{
			"image/jpeg": true,
			"image/png":  true,
			"image/webp": true,
		},
		allowedExtensions: map[string]bool{
			".jpg":  true,
			".jpeg": true,
			".png":  true,
			".webp": true,
		},
	},
	model.MediaKindAudio: {
		maxSizeBytes: maxUploadSize,
		allowedMimes: map[string]bool{
			"audio/mpeg":  true,
			"audio/mp4":   true,
			"audio/wav":   true,
			"audio/x-wav": true,
			"audio/wave":  true,
			"audio/ogg":   true,
		},
		allowedExtensions: map[string]bool{
			".mp3": true,
			".m4a": true,
			".wav": true,
			".ogg": true,
		},
		maxDurationSeconds: maxAudioDurationSeconds,
	},
	model.MediaKindVideo: {
		maxSizeBytes: maxUploadSize,
		allowedMimes: map[string]bool{
			"video/mp4":       true,
			"video/webm":      true,
			"video/quicktime": true,
		},
		allowedExtensions: map[string]bool{
			".mp4":  true,
			".webm": true,
			".mov":  true,
		},
		maxDurationSeconds: maxVideoDurationSeconds,
	},
}

// ExtractedMetadata is what ValidateBytes learns about an accepted buffer.
type ExtractedMetadata struct {
	ActualMime      string
	Checksum        string
	Width           *int
	Height          *int
	DurationSeconds *float64
}

// ValidateIntent checks a reservation before any bytes exist. All problems
// are collected and returned together, never short-circuited. The alert is
// passed in by the caller (nil when it does not exist) so the function stays
// free of side effects.
func ValidateIntent(kind model.MediaKind, filename, contentType string, sizeBytes int64, alert *model.Alert) ValidationErrors {
	var errs ValidationErrors

	rule, known := kindRules[kind]
	if !known {
		errs = append(errs, ValidationError{
			Field:   "kind",
			Code:    "invalid_kind",
			Message: fmt.Sprintf("unknown media kind %q", kind),
		})
		// Без правила дальнейшие проверки по типу бессмысленны.
		return append(errs, validateOwner(alert)...)
	}

	if sizeBytes <= 0 {
		errs = append(errs, ValidationError{
			Field:   "size",
			Code:    "empty_file",
			Message: "declared size must be positive",
		})
	} else if sizeBytes > rule.maxSizeBytes {
		errs = append(errs, ValidationError{
			Field:   "size",
			Code:    "size_exceeded",
			Message: fmt.Sprintf("declared size %d exceeds limit %d", sizeBytes, rule.maxSizeBytes),
		})
	}

	if !rule.allowedMimes[strings.ToLower(contentType)] {
		errs = append(errs, ValidationError{
			Field:   "content_type",
			Code:    "content_type_not_allowed",
			Message: fmt.Sprintf("content type %q is not allowed for %s", contentType, kind),
		})
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !rule.allowedExtensions[ext] {
		errs = append(errs, ValidationError{
			Field:   "filename",
			Code:    "extension_not_allowed",
			Message: fmt.Sprintf("extension %q is not allowed for %s", ext, kind),
		})
	}

	return append(errs, validateOwner(alert)...)
}

func validateOwner(alert *model.Alert) ValidationErrors {
	if alert == nil {
		return ValidationErrors{{
			Field:   "alert_id",
			Code:    "alert_not_found",
			Message: "owning alert does not exist",
		}}
	}
	if !alert.AcceptsMedia() {
		return ValidationErrors{{
			Field:   "alert_id",
			Code:    "alert_not_accepting_media",
			Message: fmt.Sprintf("alert in status %q does not accept new media", alert.Status),
		}}
	}
	return nil
}

// ValidateBytes checks received bytes before they are persisted: checksum
// recompute and match, magic-byte re-sniff against the declared type family,
// duration ceilings for audio/video and dimension probing for images.
// A declared checksum of "" means "not declared" and skips the match.
func ValidateBytes(buf []byte, kind model.MediaKind, declaredContentType, declaredChecksum string) (ExtractedMetadata, ValidationErrors) {
	var errs ValidationErrors
	meta := ExtractedMetadata{}

	if len(buf) == 0 {
		return meta, ValidationErrors{{
			Field:   "body",
			Code:    "empty_file",
			Message: "received zero bytes",
		}}
	}

	rule, known := kindRules[kind]
	if !known {
		return meta, ValidationErrors{{
			Field:   "kind",
			Code:    "invalid_kind",
			Message: fmt.Sprintf("unknown media kind %q", kind),
		}}
	}

	if int64(len(buf)) > rule.maxSizeBytes {
		errs = append(errs, ValidationError{
			Field:   "body",
			Code:    "size_exceeded",
			Message: fmt.Sprintf("received %d bytes, limit is %d", len(buf), rule.maxSizeBytes),
		})
	}

	sum := sha256.Sum256(buf)
	meta.Checksum = hex.EncodeToString(sum[:])
	if declaredChecksum != "" && !strings.EqualFold(declaredChecksum, meta.Checksum) {
		errs = append(errs, ValidationError{
			Field:   "checksum",
			Code:    "checksum_mismatch",
			Message: "received bytes do not match the declared checksum",
		})
	}

	meta.ActualMime = sniffMime(buf, declaredContentType)
	if !mimeCompatible(kind, meta.ActualMime) {
		errs = append(errs, ValidationError{
			Field:   "content_type",
			Code:    "mime_mismatch",
			Message: fmt.Sprintf("detected type %q is not compatible with %s", meta.ActualMime, kind),
		})
	}

	switch kind {
	case model.MediaKindImage:
		cfg, _, err := image.DecodeConfig(bytes.NewReader(buf))
		if err != nil {
			errs = append(errs, ValidationError{
				Field:   "body",
				Code:    "unreadable_image",
				Message: "image dimensions could not be decoded",
			})
		} else {
			w, h := cfg.Width, cfg.Height
			meta.Width, meta.Height = &w, &h
		}
	case model.MediaKindAudio, model.MediaKindVideo:
		if seconds, ok := probeDuration(buf, meta.ActualMime); ok {
			meta.DurationSeconds = &seconds
			if seconds > rule.maxDurationSeconds {
				errs = append(errs, ValidationError{
					Field:   "body",
					Code:    "duration_exceeded",
					Message: fmt.Sprintf("duration %.1fs exceeds limit %.0fs", seconds, rule.maxDurationSeconds),
				})
			}
		}
		if kind == model.MediaKindVideo {
			if w, h, ok := probeVideoDimensions(buf); ok {
				meta.Width, meta.Height = &w, &h
			}
		}
	}

	if errs.Any() {
		return meta, errs
	}
	return meta, nil
}

// sniffMime re-derives the type from magic bytes instead of trusting the
// client. DetectContentType falling back to application/octet-stream is
// treated as inconclusive and the declared type is kept; encodings like raw
// MP3 frames are valid but carry no sniffable signature.
func sniffMime(buf []byte, declared string) string {
	n := len(buf)
	if n > 512 {
		n = 512
	}
	sniffed := http.DetectContentType(buf[:n])
	if idx := strings.Index(sniffed, ";"); idx >= 0 {
		sniffed = sniffed[:idx]
	}
	if sniffed == "application/octet-stream" && declared != "" {
		return strings.ToLower(declared)
	}
	return sniffed
}

func mimeCompatible(kind model.MediaKind, mime string) bool {
	switch kind {
	case model.MediaKindImage:
		return strings.HasPrefix(mime, "image/")
	case model.MediaKindAudio:
		// M4A audio sits in an MP4 container and sniffs as video/mp4.
		return strings.HasPrefix(mime, "audio/") ||
			mime == "video/mp4" ||
			mime == "application/ogg"
	case model.MediaKindVideo:
		return strings.HasPrefix(mime, "video/")
	}
	return false
}
