package types

// SubtitleCue is one subtitle display unit.
type SubtitleCue struct {
	// Sequence is 1-based and contiguous.
	Sequence int `json:"sequence"`

	// Start and End are seconds from the start of the video, End > Start.
	Start float64 `json:"start"`
	End   float64 `json:"end"`

	// Text is the displayed phrase.
	Text string `json:"text"`
}
