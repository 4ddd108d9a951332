package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/vuongmanhnghia/discord-soundboard-bot/internal/errors"
)

// MaxSoundNameLength matches the Discord limit for autocomplete choice names.
const MaxSoundNameLength = 100

var (
	filenameStripPattern = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

	windowsDeviceNames = map[string]struct{}{
		"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
		"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {}, "COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
		"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {}, "LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
	}
)

// SanitizeInput sanitizes user input by removing potentially dangerous characters
func SanitizeInput(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	return strings.TrimSpace(input)
}

// SecureFilename derives a filesystem-safe slug from a display name.
//
// The name is NFKD-normalized and reduced to ASCII, path separators and runs
// of whitespace become a single underscore, anything outside [A-Za-z0-9_.-]
// is dropped and leading/trailing dots and underscores are trimmed. The
// result is deterministic and may be empty.
func SecureFilename(name string) string {
	decomposed := norm.NFKD.String(name)

	var ascii strings.Builder
	ascii.Grow(len(decomposed))
	for _, r := range decomposed {
		if r <= unicode.MaxASCII {
			ascii.WriteRune(r)
		}
	}

	s := strings.NewReplacer("/", " ", "\\", " ").Replace(ascii.String())
	s = strings.Join(strings.Fields(s), "_")
	s = filenameStripPattern.ReplaceAllString(s, "")
	s = strings.Trim(s, "._")

	if s != "" {
		base := strings.ToUpper(strings.SplitN(s, ".", 2)[0])
		if _, reserved := windowsDeviceNames[base]; reserved {
			s = "_" + s
		}
	}
	return s
}

// ValidateSoundName trims name and returns it together with its slug.
func ValidateSoundName(name string) (string, string, error) {
	name = SanitizeInput(name)

	if name == "" {
		return "", "", fmt.Errorf("%w: name cannot be empty", errors.ErrInvalidName)
	}

	if len([]rune(name)) > MaxSoundNameLength {
		return "", "", fmt.Errorf("%w: name too long (max %d characters)", errors.ErrInvalidName, MaxSoundNameLength)
	}

	slug := SecureFilename(name)
	if slug == "" {
		return "", "", fmt.Errorf("%w: name has no filesystem-safe characters", errors.ErrInvalidName)
	}

	return name, slug, nil
}

// TruncateString safely truncates a string to max length
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}

	// Try to truncate at word boundary
	if maxLen > 3 {
		s = s[:maxLen-3]
		if idx := strings.LastIndexAny(s, " \t\n"); idx > 0 {
			s = s[:idx]
		}
		return s + "..."
	}

	return s[:maxLen]
}
