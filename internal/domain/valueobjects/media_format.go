package valueobjects

import (
	"path/filepath"
	"strings"
)

// MediaKind classifies an uploaded payload by how it reaches the canonical format
type MediaKind string

const (
	MediaKindCanonical MediaKind = "canonical"
	MediaKindAudio     MediaKind = "audio"
	MediaKindVideo     MediaKind = "video"
)

// String returns the string representation
func (k MediaKind) String() string {
	return string(k)
}

// CanonicalExtension is the extension every stored sound carries.
const CanonicalExtension = "mp3"

// MediaFormat is a detected upload format
type MediaFormat struct {
	Extension string
	Kind      MediaKind
}

// NeedsTranscode reports whether the payload must be converted before storage
func (f MediaFormat) NeedsTranscode() bool {
	return f.Kind != MediaKindCanonical
}

// NeedsDurationCheck reports whether the payload must be probed for duration
func (f MediaFormat) NeedsDurationCheck() bool {
	return f.Kind == MediaKindVideo
}

var knownFormats = map[string]MediaKind{
	"mp3": MediaKindCanonical,

	"wav":  MediaKindAudio,
	"ogg":  MediaKindAudio,
	"oga":  MediaKindAudio,
	"opus": MediaKindAudio,
	"flac": MediaKindAudio,
	"m4a":  MediaKindAudio,
	"aac":  MediaKindAudio,

	"mp4":  MediaKindVideo,
	"mov":  MediaKindVideo,
	"webm": MediaKindVideo,
	"mkv":  MediaKindVideo,
	"avi":  MediaKindVideo,
}

// DetectFormat classifies a payload from its hint, either a filename or a
// bare extension such as "mp3". The second return value is false when the
// extension is unknown.
func DetectFormat(hint string) (MediaFormat, bool) {
	ext := strings.TrimPrefix(filepath.Ext(hint), ".")
	if !strings.Contains(hint, ".") {
		ext = strings.TrimSpace(hint)
	}
	ext = strings.ToLower(ext)
	kind, ok := knownFormats[ext]
	if !ok {
		return MediaFormat{Extension: ext}, false
	}
	return MediaFormat{Extension: ext, Kind: kind}, true
}
