package types

// Scene is one narrative unit of a project: narration and dialogue text plus
// a visual description used to acquire its image.
type Scene struct {
	// Index is 1-based and contiguous within a project.
	Index int `json:"scene_number"`

	// NarrationText is the voice-over script for this scene. May be empty.
	NarrationText string `json:"voice_over"`

	// DialogueText is on-screen character dialogue. May be empty.
	DialogueText string `json:"dialogue"`

	// VisualDescription is the prompt driving image acquisition.
	VisualDescription string `json:"visual_prompt"`

	// ImageRef is the resolved image location, empty until acquired.
	ImageRef string `json:"generated_image_url,omitempty"`
}

// NarrationAudio describes a synthesized narration track.
type NarrationAudio struct {
	// SourceText is the authoritative transcript the audio was rendered from.
	SourceText string `json:"source_text"`

	// Duration is the measured audio length in seconds.
	Duration float64 `json:"duration"`

	// Location is the stored audio reference.
	Location string `json:"location"`
}

// SceneWindow is one scene's on-screen time span.
type SceneWindow struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// End returns the exclusive end time of the window.
func (w SceneWindow) End() float64 { return w.Start + w.Duration }

// Timeline is the reconciled set of per-scene windows covering the full
// output duration. Windows are contiguous, ordered, and sum to TotalDuration.
type Timeline struct {
	TotalDuration float64       `json:"total_duration"`
	Windows       []SceneWindow `json:"windows"`
}
