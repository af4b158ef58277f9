package orchestrator

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"storyreel/config"
	"storyreel/render"
	"storyreel/status"
	"storyreel/subtitles"
	"storyreel/timeline"
	"storyreel/types"
)

// ImageAcquirer resolves a visual prompt to a fetchable image URL.
type ImageAcquirer interface {
	Acquire(ctx context.Context, prompt string) string
}

// Synthesizer turns narration text into an audio file on disk.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string, speed float64, outPath string) error
}

// Transcriber recovers word timing from synthesized narration.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, langHint string) (*types.Transcription, error)
}

// ArtifactStore persists rendered media and serves previously stored files.
type ArtifactStore interface {
	PutFile(ctx context.Context, key, localPath, contentType string) (string, error)
	Download(ctx context.Context, url, destPath string) error
}

// CommandRunner executes a compiled render command.
type CommandRunner interface {
	Run(ctx context.Context, spec render.CommandSpec) error
}

// Orchestrator drives a render request through media acquisition, narration
// synthesis, subtitle generation and the final ffmpeg render.
type Orchestrator struct {
	status    status.Store
	images    ImageAcquirer
	tts       Synthesizer
	asr       Transcriber // nil when no recognition backend is configured
	artifacts ArtifactStore
	runner    CommandRunner
	publisher *Publisher // nil when publishing is not configured

	// probe hooks, replaceable in tests
	probeDuration  func(path string) (float64, error)
	probeImageSize func(path string) (int, int, error)
}

func New(st status.Store, images ImageAcquirer, tts Synthesizer, asr Transcriber, artifacts ArtifactStore, runner CommandRunner, publisher *Publisher) *Orchestrator {
	return &Orchestrator{
		status:         st,
		images:         images,
		tts:            tts,
		asr:            asr,
		artifacts:      artifacts,
		runner:         runner,
		publisher:      publisher,
		probeDuration:  render.ProbeDuration,
		probeImageSize: render.ProbeImageSize,
	}
}

// StartRender records a new pending render and kicks off the pipeline in the
// background. Each call produces a fresh RenderResult, re-runs never touch a
// previous record.
func (o *Orchestrator) StartRender(req types.RenderRequest) (*types.RenderResult, error) {
	if len(req.Scenes) == 0 {
		return nil, fmt.Errorf("render request needs at least one scene")
	}

	now := time.Now().UTC()
	res := &types.RenderResult{
		ID:        uuid.NewString(),
		Status:    types.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.status.Create(context.Background(), res); err != nil {
		return nil, fmt.Errorf("failed to create render record: %w", err)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), config.RenderTimeout)
		defer cancel()
		if err := o.run(ctx, res.ID, req); err != nil {
			log.Printf("[%s] render failed: %v", res.ID, err)
			if ferr := o.status.Fail(context.Background(), res.ID, err.Error()); ferr != nil {
				log.Printf("[%s] failed to record failure: %v", res.ID, ferr)
			}
		}
	}()

	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, id string, req types.RenderRequest) error {
	dir, err := os.MkdirTemp("", "render-"+id)
	if err != nil {
		return fmt.Errorf("failed to create work dir: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			log.Printf("[%s] failed to clean up %s: %v", id, dir, rmErr)
		}
	}()

	lang := req.Language
	if lang == "" {
		lang = config.DefaultLanguage
	}
	nominal := req.Duration
	if nominal <= 0 {
		nominal = config.GetEnvFloat("DEFAULT_DURATION", config.DefaultNominalDuration)
	}

	// Step 1: resolve scene imagery.
	if err := o.status.Advance(ctx, id, types.StatusAcquiringMedia); err != nil {
		return err
	}
	o.acquireImages(ctx, id, req.Scenes)

	// Step 2: synthesize narration and derive subtitles.
	if err := o.status.Advance(ctx, id, types.StatusSynthesizingAudio); err != nil {
		return err
	}
	narration := narrationText(req.Scenes)
	audioPath := filepath.Join(dir, "narration.mp3")
	if err := o.tts.Synthesize(ctx, narration, lang, req.VoiceSpeed, audioPath); err != nil {
		return fmt.Errorf("narration synthesis failed: %w", err)
	}

	var actual *float64
	audioDuration := nominal
	if d, err := o.probeDuration(audioPath); err != nil {
		log.Printf("[%s] could not probe narration duration, using nominal %.1fs: %v", id, nominal, err)
	} else {
		actual = &d
		audioDuration = d
	}

	audioURL, err := o.artifacts.PutFile(ctx, "audio/"+id+".mp3", audioPath, "audio/mpeg")
	if err != nil {
		log.Printf("[%s] could not store narration audio: %v", id, err)
	}
	track := types.NarrationAudio{SourceText: narration, Duration: audioDuration, Location: audioURL}
	log.Printf("[%s] narration ready: %.2fs at %s", id, track.Duration, track.Location)

	cues := o.buildSubtitles(ctx, id, narration, audioPath, lang, audioDuration)
	subtitlePath := filepath.Join(dir, "subtitles.srt")
	if err := subtitles.WriteSRTFile(subtitlePath, cues, true); err != nil {
		return fmt.Errorf("failed to write subtitles: %w", err)
	}

	// Step 3: lay the scenes onto the timeline and render.
	if err := o.status.Advance(ctx, id, types.StatusRendering); err != nil {
		return err
	}
	tl := timeline.Reconcile(len(req.Scenes), nominal, actual)
	overlays := o.buildOverlays(ctx, id, dir, req.Scenes, tl)

	outputPath := filepath.Join(dir, "output.mp4")
	job := types.RenderJob{
		Overlays:      overlays,
		SubtitlePath:  subtitlePath,
		AudioPath:     audioPath,
		AudioDuration: audioDuration,
		Timeline:      tl,
		Output: types.OutputSpec{
			Path:   outputPath,
			Width:  config.VideoWidth,
			Height: config.VideoHeight,
			FPS:    config.VideoFPS,
		},
	}
	job.BackgroundPath, job.BackgroundColor = resolveBackground(req.BackgroundStyle)

	spec := render.CompileGraph(job)
	if err := o.runner.Run(ctx, spec); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	// Step 4: publish the artifact.
	videoURL, err := o.artifacts.PutFile(ctx, "videos/"+id+".mp4", outputPath, "video/mp4")
	if err != nil {
		return fmt.Errorf("failed to store rendered video: %w", err)
	}
	if err := o.status.Complete(ctx, id, videoURL); err != nil {
		return err
	}
	log.Printf("[%s] render complete: %s", id, videoURL)

	if o.publisher != nil {
		if videoID, perr := o.publisher.Publish(outputPath, req.Title); perr != nil {
			log.Printf("[%s] publish skipped: %v", id, perr)
		} else {
			log.Printf("[%s] published as %s", id, videoID)
		}
	}
	return nil
}

// acquireImages resolves every scene's visual prompt concurrently, bounded by
// MaxConcurrentImageFetches. Acquire never fails, it degrades to fallbacks.
func (o *Orchestrator) acquireImages(ctx context.Context, id string, scenes []types.Scene) {
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, config.MaxConcurrentImageFetches)
	for i := range scenes {
		wg.Add(1)
		go func(scene *types.Scene) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()
			scene.ImageRef = o.images.Acquire(ctx, scene.VisualDescription)
			log.Printf("[%s] scene %d image: %s", id, scene.Index, scene.ImageRef)
		}(&scenes[i])
	}
	wg.Wait()
}

// buildSubtitles prefers recognition-backed timing and falls back to uniform
// allocation over the narration duration.
func (o *Orchestrator) buildSubtitles(ctx context.Context, id, narration, audioPath, lang string, audioDuration float64) []types.SubtitleCue {
	if o.asr != nil {
		tr, err := o.asr.Transcribe(ctx, audioPath, lang)
		if err != nil {
			log.Printf("[%s] transcription failed, falling back to uniform timing: %v", id, err)
		} else if cues := subtitles.AllocateFromRecognition(tr.Segments, narration); cues != nil {
			return cues
		}
	}
	phrases := subtitles.Segment(narration)
	return subtitles.AllocateUniform(phrases, audioDuration, config.SubtitleStartOffset)
}

// buildOverlays downloads each scene image, measures it and sizes the overlay
// to the frame. A scene whose image cannot be fetched is skipped, the
// background still covers its window.
func (o *Orchestrator) buildOverlays(ctx context.Context, id, dir string, scenes []types.Scene, tl types.Timeline) []types.Overlay {
	overlays := make([]types.Overlay, 0, len(scenes))
	for i, scene := range scenes {
		if scene.ImageRef == "" {
			continue
		}
		localPath := filepath.Join(dir, fmt.Sprintf("scene_%d%s", i, imageExt(scene.ImageRef)))
		if err := o.artifacts.Download(ctx, scene.ImageRef, localPath); err != nil {
			log.Printf("[%s] scene %d image download failed, skipping overlay: %v", id, scene.Index, err)
			continue
		}
		imgW, imgH, err := o.probeImageSize(localPath)
		if err != nil {
			log.Printf("[%s] scene %d image probe failed, skipping overlay: %v", id, scene.Index, err)
			continue
		}
		w, h := render.OverlaySize(imgW, imgH, config.VideoHeight)
		overlays = append(overlays, types.Overlay{
			ImagePath: localPath,
			Window:    tl.Windows[i],
			Zoom:      types.ZoomRange{From: config.ZoomStart, To: config.ZoomCeiling},
			Width:     w,
			Height:    h,
		})
	}
	return overlays
}

func narrationText(scenes []types.Scene) string {
	parts := make([]string, 0, len(scenes))
	for _, s := range scenes {
		if t := strings.TrimSpace(s.NarrationText); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// resolveBackground maps a style name to a local looping clip, degrading to a
// solid color when the style is unknown or the clip is missing on disk.
func resolveBackground(style string) (string, string) {
	if style != "" {
		if clip, ok := config.BackgroundVideos[style]; ok {
			if _, err := os.Stat(clip); err == nil {
				return clip, ""
			}
			log.Printf("background clip %s missing, using solid color", clip)
		} else {
			log.Printf("unknown background style %q, using solid color", style)
		}
	}
	return "", config.BackgroundFallbackColor
}

func imageExt(url string) string {
	ext := strings.ToLower(path.Ext(url))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp":
		return ext
	}
	return ".jpg"
}
