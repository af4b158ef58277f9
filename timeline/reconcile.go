// Package timeline recomputes per-scene time windows once the real
// narration length is known.
package timeline

import (
	"log"

	"storyreel/types"
)

// Reconcile derives the timeline for sceneCount scenes. When the actual
// narration-audio duration is known it always overrides the nominal target;
// otherwise the nominal duration is used and the degradation is logged.
// Every scene receives an equal share, windows assigned in scene order from
// zero with no gaps or overlap.
func Reconcile(sceneCount int, nominalDuration float64, actualAudioDuration *float64) types.Timeline {
	total := nominalDuration
	if actualAudioDuration != nil && *actualAudioDuration > 0 {
		total = *actualAudioDuration
	} else if actualAudioDuration == nil {
		log.Printf("[timeline] actual audio duration unknown, falling back to nominal %.2fs", nominalDuration)
	}

	if sceneCount <= 0 || total <= 0 {
		return types.Timeline{}
	}

	// Windows are cut at exact fractional boundaries so durations sum to
	// the total without accumulating float drift.
	windows := make([]types.SceneWindow, 0, sceneCount)
	prev := 0.0
	for i := 1; i <= sceneCount; i++ {
		boundary := total * float64(i) / float64(sceneCount)
		windows = append(windows, types.SceneWindow{
			Start:    prev,
			Duration: boundary - prev,
		})
		prev = boundary
	}

	return types.Timeline{
		TotalDuration: total,
		Windows:       windows,
	}
}
