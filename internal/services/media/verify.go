package media

import (
	"errors"
	"fmt"
	"time"

	"github.com/gopxl/beep/v2/mp3"
	"github.com/spf13/afero"
)

// ErrInvalidAudio is returned when a file is not a playable MP3
var ErrInvalidAudio = errors.New("not a playable mp3")

// Verifier checks that a canonical audio file is playable
type Verifier interface {
	Verify(path string) (time.Duration, error)
}

// MP3Verifier decodes MP3 headers with beep to confirm a file is playable
type MP3Verifier struct {
	fs afero.Fs
}

// NewMP3Verifier creates a verifier reading from fs
func NewMP3Verifier(fs afero.Fs) *MP3Verifier {
	return &MP3Verifier{fs: fs}
}

// Verify returns the decoded duration of the MP3 at path. Empty, truncated
// and non-MP3 files fail with ErrInvalidAudio.
func (v *MP3Verifier) Verify(path string) (time.Duration, error) {
	info, err := v.fs.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAudio, err)
	}
	if info.Size() == 0 {
		return 0, fmt.Errorf("%w: empty file", ErrInvalidAudio)
	}

	file, err := v.fs.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAudio, err)
	}

	// The streamer owns file from here on.
	streamer, format, err := mp3.Decode(file)
	if err != nil {
		file.Close()
		return 0, fmt.Errorf("%w: %v", ErrInvalidAudio, err)
	}
	defer streamer.Close()

	samples := streamer.Len()
	if samples <= 0 {
		return 0, fmt.Errorf("%w: no audio frames", ErrInvalidAudio)
	}

	return format.SampleRate.D(samples), nil
}
