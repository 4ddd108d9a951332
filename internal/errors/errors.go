package errors

import (
	"errors"
)

// Common error types for better error handling
var (
	// Ingestion errors
	ErrInvalidName        = errors.New("invalid sound name")
	ErrDuplicateName      = errors.New("sound name already exists")
	ErrUnsupportedFormat  = errors.New("unsupported media format")
	ErrDurationExceeded   = errors.New("media duration exceeds limit")
	ErrTranscodeFailed    = errors.New("transcode failed")
	ErrFileTooLarge       = errors.New("upload exceeds size limit")
	ErrStorageUnavailable = errors.New("catalog storage unavailable")

	// ErrNameConflict is the catalog-level conflict reported by Append.
	ErrNameConflict = errors.New("catalog entry conflicts with existing entry")

	// Playback errors
	ErrSoundNotFound  = errors.New("sound not found")
	ErrNotInVoice     = errors.New("caller is not in a voice channel")
	ErrAlreadyPlaying = errors.New("already playing")
	ErrNotConnected   = errors.New("not connected to voice channel")
	ErrConnectFailed  = errors.New("failed to connect to voice channel")

	// Web form errors
	ErrRateLimited = errors.New("too many uploads")
)

// UserError wraps an error with a user-friendly message
type UserError struct {
	Err     error
	Message string
}

func (e *UserError) Error() string {
	return e.Err.Error()
}

func (e *UserError) Unwrap() error {
	return e.Err
}

func (e *UserError) UserMessage() string {
	return e.Message
}

// NewUserError creates a new user error
func NewUserError(err error, message string) *UserError {
	return &UserError{
		Err:     err,
		Message: message,
	}
}

// GetUserMessage extracts a user-friendly message from err. The result never
// contains paths or wrapped internal detail.
func GetUserMessage(err error) string {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage()
	}

	switch {
	case errors.Is(err, ErrInvalidName):
		return "Please provide a valid name for the sound."
	case errors.Is(err, ErrDuplicateName), errors.Is(err, ErrNameConflict):
		return "A sound with this name already exists."
	case errors.Is(err, ErrUnsupportedFormat):
		return "Please upload an MP3 file or a supported audio/video file."
	case errors.Is(err, ErrDurationExceeded):
		return "That video is too long for a sound clip."
	case errors.Is(err, ErrTranscodeFailed):
		return "Could not convert that file to audio. Is it a valid media file?"
	case errors.Is(err, ErrFileTooLarge):
		return "That file is too large."
	case errors.Is(err, ErrStorageUnavailable):
		return "The sound library is unavailable right now. Please try again later."
	case errors.Is(err, ErrSoundNotFound):
		return "Sound not found."
	case errors.Is(err, ErrNotInVoice):
		return "You need to be in a voice channel to use this command."
	case errors.Is(err, ErrAlreadyPlaying):
		return "I'm already playing a sound, please wait until it finishes."
	case errors.Is(err, ErrNotConnected):
		return "I am not in any voice channel."
	case errors.Is(err, ErrConnectFailed):
		return "I couldn't join your voice channel."
	case errors.Is(err, ErrRateLimited):
		return "Too many uploads, slow down a little."
	default:
		return "An error occurred. Please try again later."
	}
}
