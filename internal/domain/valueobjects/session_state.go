package valueobjects

// SessionState represents the lifecycle state of a guild playback session
type SessionState string

const (
	SessionStateDisconnected     SessionState = "disconnected"
	SessionStateConnectedIdle    SessionState = "connected_idle"
	SessionStateConnectedPlaying SessionState = "connected_playing"
)

// String returns the string representation
func (s SessionState) String() string {
	return string(s)
}

// IsConnected reports whether a voice connection is held in this state
func (s SessionState) IsConnected() bool {
	return s == SessionStateConnectedIdle || s == SessionStateConnectedPlaying
}
