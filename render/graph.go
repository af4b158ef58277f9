// Package render compiles a reconciled timeline into a single ffmpeg
// invocation and executes it: looping background, timed scene overlays with
// a slow zoom, burned-in subtitles, and a muxed narration track.
package render

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"storyreel/config"
	"storyreel/types"
)

// subtitleStyle anchors burned subtitles near the bottom of frame.
const subtitleStyle = "FontName=Arial," +
	"FontSize=40," +
	"PrimaryColour=&H00FFFFFF," +
	"OutlineColour=&H00000000," +
	"BorderStyle=3," +
	"Outline=2," +
	"Shadow=0," +
	"Alignment=2," +
	"MarginV=60"

// CompileGraph builds the complete composition as one renderer invocation.
// Pure: identical jobs compile to identical argument lists. Subtitles are
// burned onto the background before scene overlays are applied, so scene
// images never occlude subtitle text; overlay order matches scene order.
func CompileGraph(job types.RenderJob) CommandSpec {
	outDur := job.Timeline.TotalDuration
	// The visual track may run under the audio but never truncates it.
	if job.AudioPath != "" && job.AudioDuration > outDur {
		outDur = job.AudioDuration
	}

	bg := backgroundStream(job, outDur)

	if job.SubtitlePath != "" {
		bg = bg.Filter("subtitles", ffmpeg.Args{escapeFilterPath(job.SubtitlePath)},
			ffmpeg.KwArgs{"force_style": subtitleStyle})
	}

	composed := bg
	for _, ov := range job.Overlays {
		composed = composed.Overlay(overlayStream(ov, job.Output.FPS), "", ffmpeg.KwArgs{
			"x":      "(W-w)/2",
			"y":      strconv.Itoa(config.OverlayTopMargin),
			"enable": fmt.Sprintf("between(t,%s,%s)", formatSeconds(ov.Window.Start), formatSeconds(ov.Window.End())),
		})
	}

	outKw := ffmpeg.KwArgs{
		"c:v":     config.VideoCodec,
		"preset":  config.VideoPreset,
		"pix_fmt": "yuv420p",
		"r":       job.Output.FPS,
		"t":       formatSeconds(outDur),
	}

	streams := []*ffmpeg.Stream{composed}
	if job.AudioPath != "" {
		streams = append(streams, ffmpeg.Input(job.AudioPath))
		outKw["c:a"] = config.AudioCodec
		outKw["b:a"] = config.AudioBitrate
	}

	args := ffmpeg.Output(streams, job.Output.Path, outKw).OverWriteOutput().GetArgs()
	return CommandSpec{Binary: "ffmpeg", Args: args}
}

// backgroundStream loops the provided media source cropped to the target
// aspect ratio, or synthesizes a solid-color source of the same duration.
func backgroundStream(job types.RenderJob, outDur float64) *ffmpeg.Stream {
	if job.BackgroundPath != "" {
		return ffmpeg.Input(job.BackgroundPath, ffmpeg.KwArgs{
			"stream_loop": -1,
			"t":           formatSeconds(outDur),
		}).
			Filter("crop", ffmpeg.Args{"ih*9/16:ih"}).
			Filter("scale", ffmpeg.Args{fmt.Sprintf("%d:%d", job.Output.Width, job.Output.Height)})
	}

	color := job.BackgroundColor
	if color == "" {
		color = config.BackgroundFallbackColor
	}
	src := fmt.Sprintf("color=c=%s:s=%dx%d:r=%d:d=%s",
		color, job.Output.Width, job.Output.Height, job.Output.FPS, formatSeconds(outDur))
	return ffmpeg.Input(src, ffmpeg.KwArgs{"f": "lavfi"})
}

// overlayStream turns one still image into a timed clip with a monotonic
// zoom across its window, shifted to start at the window's offset.
func overlayStream(ov types.Overlay, fps int) *ffmpeg.Stream {
	frames := int(ov.Window.Duration * float64(fps))

	return ffmpeg.Input(ov.ImagePath, ffmpeg.KwArgs{
		"loop":      1,
		"framerate": fps,
		"t":         formatSeconds(ov.Window.Duration),
	}).
		Filter("scale", ffmpeg.Args{fmt.Sprintf("%d:%d", ov.Width, ov.Height)}).
		Filter("zoompan", ffmpeg.Args{}, ffmpeg.KwArgs{
			"z":   zoomExpr(ov.Zoom.From, ov.Zoom.To, frames),
			"x":   "iw/2-(iw/zoom/2)",
			"y":   "ih/2-(ih/zoom/2)",
			"d":   1,
			"s":   fmt.Sprintf("%dx%d", ov.Width, ov.Height),
			"fps": fps,
		}).
		Filter("setpts", ffmpeg.Args{fmt.Sprintf("PTS-STARTPTS+%s/TB", formatSeconds(ov.Window.Start))})
}

// zoomExpr interpolates the zoom from `from` at the first frame to `to` at
// the last, strictly increasing and clamped at the ceiling if the window is
// unexpectedly extended.
func zoomExpr(from, to float64, frames int) string {
	if frames < 2 {
		frames = 2
	}
	step := (to - from) / float64(frames-1)
	return fmt.Sprintf("min(%s+%s*on,%s)",
		strconv.FormatFloat(from, 'f', 4, 64),
		strconv.FormatFloat(step, 'f', 6, 64),
		strconv.FormatFloat(to, 'f', 4, 64))
}

// OverlaySize scales probed image dimensions to occupy a fixed fraction of
// frame height while preserving aspect ratio. Dimensions are kept even for
// the encoder.
func OverlaySize(imgWidth, imgHeight, frameHeight int) (int, int) {
	if imgWidth <= 0 || imgHeight <= 0 {
		imgWidth, imgHeight = config.ImageWidth, config.ImageHeight
	}
	h := int(float64(frameHeight) * config.OverlayHeightFraction)
	w := h * imgWidth / imgHeight
	if w%2 != 0 {
		w++
	}
	if h%2 != 0 {
		h++
	}
	return w, h
}

// escapeFilterPath makes a filesystem path safe inside a filter argument.
func escapeFilterPath(path string) string {
	return strings.ReplaceAll(filepath.ToSlash(path), ":", "\\:")
}

// formatSeconds renders seconds with fixed precision so compiled argument
// lists are byte-stable.
func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
