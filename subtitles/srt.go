package subtitles

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"storyreel/types"
)

// utf8BOM guarantees correct non-ASCII glyph rendering in the renderer's
// subtitle-burn filter.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FormatTimestamp converts seconds to the SRT time format HH:MM:SS,mmm.
func FormatTimestamp(seconds float64) string {
	totalMillis := int64(math.Round(seconds * 1000))
	hours := totalMillis / 3600000
	minutes := (totalMillis % 3600000) / 60000
	secs := (totalMillis % 60000) / 1000
	millis := totalMillis % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// WriteSRT writes cues as sequential numbered SRT blocks.
func WriteSRT(w io.Writer, cues []types.SubtitleCue) error {
	for i, cue := range cues {
		if _, err := fmt.Fprintf(w, "%d\n%s --> %s\n%s\n\n",
			i+1,
			FormatTimestamp(cue.Start),
			FormatTimestamp(cue.End),
			cue.Text,
		); err != nil {
			return err
		}
	}
	return nil
}

// RenderSRT returns the SRT document as a string.
func RenderSRT(cues []types.SubtitleCue) string {
	var b strings.Builder
	_ = WriteSRT(&b, cues)
	return b.String()
}

// WriteSRTFile writes the SRT document to path, prefixed with a UTF-8 BOM
// when withBOM is set.
func WriteSRTFile(path string, cues []types.SubtitleCue, withBOM bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if withBOM {
		if _, err := f.Write(utf8BOM); err != nil {
			return err
		}
	}
	if err := WriteSRT(f, cues); err != nil {
		return err
	}
	return f.Close()
}

// ParseSRT reads sequential SRT blocks back into cues. A leading UTF-8 BOM
// is tolerated. Blocks missing a timing line are skipped.
func ParseSRT(r io.Reader) ([]types.SubtitleCue, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	content := strings.TrimPrefix(string(data), string(utf8BOM))

	var cues []types.SubtitleCue
	for _, block := range strings.Split(strings.TrimSpace(content), "\n\n") {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 3 {
			continue
		}

		start, end, err := parseTimingLine(lines[1])
		if err != nil {
			continue
		}

		cues = append(cues, types.SubtitleCue{
			Sequence: len(cues) + 1,
			Start:    start,
			End:      end,
			Text:     strings.Join(lines[2:], "\n"),
		})
	}
	return cues, nil
}

func parseTimingLine(line string) (float64, float64, error) {
	parts := strings.Split(line, " --> ")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid timing line: %q", line)
	}
	start, err := ParseTimestamp(parts[0])
	if err != nil {
		return 0, 0, err
	}
	end, err := ParseTimestamp(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// ParseTimestamp converts HH:MM:SS,mmm to seconds.
func ParseTimestamp(s string) (float64, error) {
	var hours, minutes, secs, millis int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d:%d:%d,%d", &hours, &minutes, &secs, &millis); err != nil {
		return 0, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return float64(hours)*3600 + float64(minutes)*60 + float64(secs) + float64(millis)/1000, nil
}
