package render

import (
	"encoding/json"
	"fmt"
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

// ProbeDuration measures a media file's duration in seconds.
func ProbeDuration(path string) (float64, error) {
	raw, err := ffmpeg.Probe(path)
	if err != nil {
		return 0, fmt.Errorf("probe %s: %w", path, err)
	}
	return parseProbeDuration(raw)
}

func parseProbeDuration(raw string) (float64, error) {
	var pr probeResult
	if err := json.Unmarshal([]byte(raw), &pr); err != nil {
		return 0, fmt.Errorf("parse probe output: %w", err)
	}
	dur, err := strconv.ParseFloat(pr.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse probed duration %q: %w", pr.Format.Duration, err)
	}
	if dur <= 0 {
		return 0, fmt.Errorf("probed non-positive duration %.3f", dur)
	}
	return dur, nil
}

// ProbeImageSize reads an image's pixel dimensions.
func ProbeImageSize(path string) (int, int, error) {
	raw, err := ffmpeg.Probe(path)
	if err != nil {
		return 0, 0, fmt.Errorf("probe %s: %w", path, err)
	}
	return parseProbeImageSize(raw)
}

func parseProbeImageSize(raw string) (int, int, error) {
	var pr probeResult
	if err := json.Unmarshal([]byte(raw), &pr); err != nil {
		return 0, 0, fmt.Errorf("parse probe output: %w", err)
	}
	for _, s := range pr.Streams {
		if s.CodecType == "video" && s.Width > 0 && s.Height > 0 {
			return s.Width, s.Height, nil
		}
	}
	return 0, 0, fmt.Errorf("no video stream with dimensions found")
}
