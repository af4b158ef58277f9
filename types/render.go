package types

import "time"

// RenderStatus is the lifecycle state of one render orchestration.
type RenderStatus string

const (
	StatusPending           RenderStatus = "pending"
	StatusAcquiringMedia    RenderStatus = "acquiring_media"
	StatusSynthesizingAudio RenderStatus = "synthesizing_audio"
	StatusRendering         RenderStatus = "rendering"
	StatusCompleted         RenderStatus = "completed"
	StatusFailed            RenderStatus = "failed"
)

// Terminal reports whether the status can no longer change.
func (s RenderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// statusRank orders the non-failed lifecycle for monotonic advancement.
var statusRank = map[RenderStatus]int{
	StatusPending:           0,
	StatusAcquiringMedia:    1,
	StatusSynthesizingAudio: 2,
	StatusRendering:         3,
	StatusCompleted:         4,
}

// Rank returns the position of a status in the forward lifecycle.
// StatusFailed is absorbing and has no rank.
func (s RenderStatus) Rank() (int, bool) {
	r, ok := statusRank[s]
	return r, ok
}

// RenderResult is the observable outcome of one render orchestration.
// A re-run creates a new RenderResult rather than mutating a terminal one.
type RenderResult struct {
	ID          string       `json:"id"`
	Status      RenderStatus `json:"status"`
	ArtifactURL string       `json:"artifact_url,omitempty"`
	ErrorDetail string       `json:"error_detail,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// ZoomRange bounds the zoom applied to a scene image across its window.
type ZoomRange struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
}

// Overlay places one scene image on the background for a time window.
// Width and Height are the pre-probed overlay dimensions in output pixels.
type Overlay struct {
	ImagePath string      `json:"image_path"`
	Window    SceneWindow `json:"window"`
	Zoom      ZoomRange   `json:"zoom"`
	Width     int         `json:"width"`
	Height    int         `json:"height"`
}

// OutputSpec describes the rendered file.
type OutputSpec struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	FPS    int    `json:"fps"`
}

// RenderJob is the fully-specified composition request handed to the
// external renderer. Immutable once compiled.
type RenderJob struct {
	// BackgroundPath is a looping media source; empty means a solid
	// BackgroundColor still is used instead.
	BackgroundPath  string `json:"background_path,omitempty"`
	BackgroundColor string `json:"background_color,omitempty"`

	// Overlays are ordered by scene.
	Overlays []Overlay `json:"overlays"`

	// SubtitlePath, if set, is burned onto the background layer.
	SubtitlePath string `json:"subtitle_path,omitempty"`

	// AudioPath, if set, is muxed in; AudioDuration extends the output
	// when it exceeds the visual timeline.
	AudioPath     string  `json:"audio_path,omitempty"`
	AudioDuration float64 `json:"audio_duration,omitempty"`

	Timeline Timeline   `json:"timeline"`
	Output   OutputSpec `json:"output"`
}

// RenderRequest is the payload that starts one render orchestration,
// arriving over HTTP or the message queue.
type RenderRequest struct {
	ProjectID       string  `json:"project_id"`
	Title           string  `json:"title"`
	Scenes          []Scene `json:"scenes"`
	Duration        float64 `json:"duration"`
	BackgroundStyle string  `json:"background_style"`
	Language        string  `json:"language"`
	VoiceSpeed      float64 `json:"voice_speed"`
}

// RenderResponse acknowledges an accepted render request.
type RenderResponse struct {
	RenderID string       `json:"render_id"`
	Status   RenderStatus `json:"status"`
}
