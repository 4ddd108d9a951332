package valueobjects

import "testing"

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		hint          string
		kind          MediaKind
		ok            bool
		ext           string
		durationCheck bool
		convert       bool
	}{
		{hint: "airhorn.mp3", kind: MediaKindCanonical, ok: true, ext: "mp3"},
		{hint: "AIRHORN.MP3", kind: MediaKindCanonical, ok: true, ext: "mp3"},
		{hint: "clip.wav", kind: MediaKindAudio, ok: true, ext: "wav", convert: true},
		{hint: "voice.opus", kind: MediaKindAudio, ok: true, ext: "opus", convert: true},
		{hint: "meme.mp4", kind: MediaKindVideo, ok: true, ext: "mp4", durationCheck: true, convert: true},
		{hint: "meme.tar.webm", kind: MediaKindVideo, ok: true, ext: "webm", durationCheck: true, convert: true},
		{hint: "notes.txt", ok: false, ext: "txt"},
		{hint: "mp3", kind: MediaKindCanonical, ok: true, ext: "mp3"},
		{hint: "MP4", kind: MediaKindVideo, ok: true, ext: "mp4", durationCheck: true, convert: true},
		{hint: "clip.mp3", kind: MediaKindCanonical, ok: true, ext: "mp3"},
		{hint: "trailingdot.", ok: false, ext: ""},
		{hint: "noextension", ok: false, ext: "noextension"},
		{hint: "", ok: false, ext: ""},
	}

	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			format, ok := DetectFormat(tt.hint)
			if ok != tt.ok {
				t.Fatalf("DetectFormat(%q) ok = %v, expected %v", tt.hint, ok, tt.ok)
			}
			if format.Extension != tt.ext {
				t.Errorf("extension = %q, expected %q", format.Extension, tt.ext)
			}
			if !ok {
				return
			}
			if format.Kind != tt.kind {
				t.Errorf("kind = %q, expected %q", format.Kind, tt.kind)
			}
			if format.NeedsDurationCheck() != tt.durationCheck {
				t.Errorf("NeedsDurationCheck = %v, expected %v", format.NeedsDurationCheck(), tt.durationCheck)
			}
			if format.NeedsTranscode() != tt.convert {
				t.Errorf("NeedsTranscode = %v, expected %v", format.NeedsTranscode(), tt.convert)
			}
		})
	}
}
