package valueobjects

// JoinReason records why the bot entered a voice channel
type JoinReason string

const (
	// JoinReasonExplicit is set by the join command; the bot stays until asked to leave.
	JoinReasonExplicit JoinReason = "explicit"
	// JoinReasonImplicit is set when play had to connect; the bot leaves after the clip.
	JoinReasonImplicit JoinReason = "implicit"
)

// String returns the string representation
func (r JoinReason) String() string {
	return string(r)
}
