package config

import "time"

// Video Output Constants
const (
	// VideoWidth is the output video width (9:16 vertical)
	VideoWidth = 1080

	// VideoHeight is the output video height (9:16 vertical)
	VideoHeight = 1920

	// VideoFPS is the output frame rate
	VideoFPS = 24

	// VideoCodec is the video encoding codec
	VideoCodec = "libx264"

	// AudioCodec is the audio encoding codec
	AudioCodec = "aac"

	// AudioBitrate is the audio quality bitrate
	AudioBitrate = "192k"

	// VideoPreset is the ffmpeg encoding speed preset
	VideoPreset = "medium"
)

// Scene Overlay Constants
const (
	// OverlayHeightFraction is the share of frame height a scene image occupies
	OverlayHeightFraction = 0.6

	// OverlayTopMargin is the vertical offset of scene images from the top of frame
	OverlayTopMargin = 64

	// ZoomStart and ZoomCeiling bound the slow zoom applied to each scene image
	ZoomStart   = 1.0
	ZoomCeiling = 1.15
)

// Subtitle Constants
const (
	// SubtitleMaxPhraseLen is the display-length budget before a sentence is
	// re-split on commas and conjunctions
	SubtitleMaxPhraseLen = 50

	// SubtitleStartOffset delays the first cue slightly past zero
	SubtitleStartOffset = 0.1

	// SubtitleEndPadding is reserved at the end of the usable window
	SubtitleEndPadding = 0.0

	// SubtitleMinDuration is the floor for the usable subtitle window
	SubtitleMinDuration = 1.0
)

// Image Acquisition Constants
const (
	// PromptMaxLen is the longest prompt passed to a provider as-is
	PromptMaxLen = 180

	// PromptTruncateLen is the budget a too-long prompt is cut down to
	PromptTruncateLen = 160

	// PromptStyleSuffix is appended to truncated prompts
	PromptStyleSuffix = "... vertical, cinematic"

	// ImageWidth and ImageHeight are the requested generation dimensions
	ImageWidth  = 768
	ImageHeight = 1024

	// ImageMaxRetries is the per-provider attempt budget
	ImageMaxRetries = 2

	// ModelWarmupDelay is the single wait applied when a provider reports
	// its model is still loading
	ModelWarmupDelay = 10 * time.Second
)

// Processing Constants
const (
	// MaxConcurrentImageFetches bounds parallel per-scene acquisitions
	MaxConcurrentImageFetches = 3

	// DefaultNominalDuration is used when a request carries no duration
	DefaultNominalDuration = 30.0

	// RenderTimeout is the hard wall-clock budget for one renderer run
	RenderTimeout = 10 * time.Minute

	// DiagnosticMaxLen caps renderer stderr retained on failure
	DiagnosticMaxLen = 4000
)

// Speech Constants
const (
	// DefaultLanguage is the narration language when none is requested
	DefaultLanguage = "ru"

	// MinTempo and MaxTempo bound post-synthesis speed adjustment
	MinTempo = 0.5
	MaxTempo = 2.0
)

// BackgroundVideos maps a requested style to a looping background source.
var BackgroundVideos = map[string]string{
	"minecraft": "assets/backgrounds/minecraft.mp4",
	"subway":    "assets/backgrounds/subway.mp4",
	"abstract":  "assets/backgrounds/abstract.mp4",
}

// BackgroundFallbackColor is the solid color used when no background video exists.
const BackgroundFallbackColor = "black"
