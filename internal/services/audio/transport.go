package audio

import "context"

// Dialer opens voice connections
type Dialer interface {
	Join(ctx context.Context, guildID, channelID string) (Conn, error)
}

// Conn is a live voice connection owned by one playback session
type Conn interface {
	ChannelID() string
	// Play starts streaming the file at path and returns once audio is flowing.
	Play(path string) (Stream, error)
	Disconnect() error
}

// Stream is one clip being sent to a voice connection
type Stream interface {
	// Done is closed when the clip finishes, fails or is stopped.
	Done() <-chan struct{}
	// Err reports why the stream ended; nil for normal completion or Stop.
	Err() error
	Stop()
}
