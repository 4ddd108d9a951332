package validation

import (
	stderrors "errors"
	"regexp"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/errors"
)

func TestSecureFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Spaces become underscores", input: "Air Horn", expected: "Air_Horn"},
		{name: "Runs of whitespace collapse", input: "  sad   trombone\t", expected: "sad_trombone"},
		{name: "Path traversal is flattened", input: "../../etc/passwd", expected: "etc_passwd"},
		{name: "Backslashes are separators", input: `a\b`, expected: "a_b"},
		{name: "Accents are folded", input: "café olé", expected: "cafe_ole"},
		{name: "Punctuation is dropped", input: "wow!!! (loud)", expected: "wow_loud"},
		{name: "All punctuation sanitizes to empty", input: "!!!???", expected: ""},
		{name: "Non-latin sanitizes to empty", input: "音效", expected: ""},
		{name: "Leading dots trimmed", input: ".hidden", expected: "hidden"},
		{name: "Dashes and dots kept", input: "v1.2-final", expected: "v1.2-final"},
		{name: "Windows device names are prefixed", input: "con", expected: "_con"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SecureFilename(tt.input)
			if result != tt.expected {
				t.Errorf("SecureFilename(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSecureFilenameProperties(t *testing.T) {
	safe := regexp.MustCompile(`^[A-Za-z0-9_.-]*$`)

	rapid.Check(t, func(t *rapid.T) {
		input := rapid.String().Draw(t, "input")

		slug := SecureFilename(input)
		if !safe.MatchString(slug) {
			t.Fatalf("slug %q contains unsafe characters", slug)
		}
		if slug != SecureFilename(input) {
			t.Fatalf("slug for %q is not deterministic", input)
		}
		if len(slug) > 0 && (slug[0] == '.' || slug[len(slug)-1] == '.') {
			t.Fatalf("slug %q has leading or trailing dot", slug)
		}
	})
}

func TestValidateSoundName(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		expectedName string
		expectedSlug string
		wantErr      bool
	}{
		{name: "Valid name is trimmed", input: "  Air Horn  ", expectedName: "Air Horn", expectedSlug: "Air_Horn"},
		{name: "Empty name", input: "   ", wantErr: true},
		{name: "Null bytes only", input: "\x00\x00", wantErr: true},
		{name: "Sanitizes to empty", input: "***", wantErr: true},
		{name: "Too long", input: strings.Repeat("a", MaxSoundNameLength+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, slug, err := ValidateSoundName(tt.input)
			if tt.wantErr {
				if !stderrors.Is(err, errors.ErrInvalidName) {
					t.Errorf("expected ErrInvalidName, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if name != tt.expectedName || slug != tt.expectedSlug {
				t.Errorf("got (%q, %q), expected (%q, %q)", name, slug, tt.expectedName, tt.expectedSlug)
			}
		})
	}
}

func TestTruncateString(t *testing.T) {
	if got := TruncateString("short", 10); got != "short" {
		t.Errorf("expected unchanged string, got %q", got)
	}
	if got := TruncateString("a long sound name here", 12); got != "a long..." {
		t.Errorf("expected word-boundary truncation, got %q", got)
	}
}
