package subtitles

import (
	"storyreel/config"
	"storyreel/types"
)

// AllocateUniform assigns each phrase an equal share of the usable duration,
// starting at startOffset. Deterministic for identical inputs.
func AllocateUniform(phrases []string, totalDuration, startOffset float64) []types.SubtitleCue {
	if len(phrases) == 0 {
		return nil
	}

	usable := totalDuration - startOffset - config.SubtitleEndPadding
	if usable < config.SubtitleMinDuration {
		usable = config.SubtitleMinDuration
	}
	share := usable / float64(len(phrases))

	cues := make([]types.SubtitleCue, 0, len(phrases))
	for i, phrase := range phrases {
		cues = append(cues, types.SubtitleCue{
			Sequence: i + 1,
			Start:    startOffset + float64(i)*share,
			End:      startOffset + float64(i+1)*share,
			Text:     phrase,
		})
	}
	return cues
}

// AllocateFromRecognition takes timing from speech recognition but text from
// the authoritative script: the script is re-segmented into phrases and the
// phrases are distributed across the total recognized duration in proportion
// to their length. This avoids displaying recognition mistakes while keeping
// plausible timing; it is not word-accurate alignment.
//
// Returns nil when recognition produced no usable segments, in which case
// the caller falls back to uniform allocation.
func AllocateFromRecognition(segments []types.ASRSegment, authoritativeText string) []types.SubtitleCue {
	if len(segments) == 0 {
		return nil
	}
	total := segments[len(segments)-1].End
	if total <= 0 {
		return nil
	}

	phrases := Segment(authoritativeText)
	if len(phrases) == 0 {
		return nil
	}

	weightSum := 0
	for _, p := range phrases {
		weightSum += len([]rune(p))
	}
	if weightSum == 0 {
		return nil
	}

	cues := make([]types.SubtitleCue, 0, len(phrases))
	elapsed := 0
	start := 0.0
	for i, phrase := range phrases {
		elapsed += len([]rune(phrase))
		end := total * float64(elapsed) / float64(weightSum)
		cues = append(cues, types.SubtitleCue{
			Sequence: i + 1,
			Start:    start,
			End:      end,
			Text:     phrase,
		})
		start = end
	}
	return cues
}
