package orchestrator

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"storyreel/render"
	"storyreel/status"
	"storyreel/types"
)

type fakeImages struct {
	prompts []string
}

func (f *fakeImages) Acquire(_ context.Context, prompt string) string {
	f.prompts = append(f.prompts, prompt)
	return "https://img.example.com/generated.jpg"
}

type fakeTTS struct {
	text string
	err  error
}

func (f *fakeTTS) Synthesize(_ context.Context, text, lang string, speed float64, outPath string) error {
	if f.err != nil {
		return f.err
	}
	f.text = text
	return os.WriteFile(outPath, []byte("mp3"), 0o644)
}

type fakeASR struct {
	segments []types.ASRSegment
	err      error
}

func (f *fakeASR) Transcribe(_ context.Context, audioPath, langHint string) (*types.Transcription, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &types.Transcription{Segments: f.segments}, nil
}

type fakeArtifacts struct {
	putKeys     []string
	downloadErr error
}

func (f *fakeArtifacts) PutFile(_ context.Context, key, localPath, contentType string) (string, error) {
	f.putKeys = append(f.putKeys, key)
	return "https://bucket.example.com/" + key, nil
}

func (f *fakeArtifacts) Download(_ context.Context, url, destPath string) error {
	if f.downloadErr != nil {
		return f.downloadErr
	}
	return os.WriteFile(destPath, []byte("img"), 0o644)
}

type fakeRunner struct {
	spec render.CommandSpec
	err  error
	runs int
}

func (f *fakeRunner) Run(_ context.Context, spec render.CommandSpec) error {
	f.runs++
	f.spec = spec
	return f.err
}

func sampleRequest() types.RenderRequest {
	return types.RenderRequest{
		ProjectID: "proj-1",
		Title:     "The Tale",
		Duration:  30,
		Language:  "ru",
		Scenes: []types.Scene{
			{Index: 1, NarrationText: "Жил-был царь.", VisualDescription: "an old king on a throne"},
			{Index: 2, NarrationText: "Он правил мудро.", VisualDescription: "a peaceful kingdom"},
		},
	}
}

func newTestOrchestrator(st status.Store, images *fakeImages, tts *fakeTTS, asr Transcriber, artifacts *fakeArtifacts, runner *fakeRunner) *Orchestrator {
	o := New(st, images, tts, asr, artifacts, runner, nil)
	o.probeDuration = func(string) (float64, error) { return 12.0, nil }
	o.probeImageSize = func(string) (int, int, error) { return 768, 1024, nil }
	return o
}

func TestRunCompletesAndStoresArtifact(t *testing.T) {
	st := status.NewMemoryStore()
	images := &fakeImages{}
	tts := &fakeTTS{}
	artifacts := &fakeArtifacts{}
	runner := &fakeRunner{}
	o := newTestOrchestrator(st, images, tts, nil, artifacts, runner)

	res := &types.RenderResult{ID: "r1", Status: types.StatusPending}
	if err := st.Create(context.Background(), res); err != nil {
		t.Fatal(err)
	}
	if err := o.run(context.Background(), "r1", sampleRequest()); err != nil {
		t.Fatal(err)
	}

	final, err := st.Get(context.Background(), "r1")
	if err != nil {
		t.Fatal(err)
	}
	if final.Status != types.StatusCompleted {
		t.Errorf("status = %s", final.Status)
	}
	if final.ArtifactURL != "https://bucket.example.com/videos/r1.mp4" {
		t.Errorf("artifact = %q", final.ArtifactURL)
	}

	if len(images.prompts) != 2 {
		t.Errorf("acquired %d images, want 2", len(images.prompts))
	}
	if tts.text != "Жил-был царь. Он правил мудро." {
		t.Errorf("narration = %q", tts.text)
	}
	if runner.runs != 1 {
		t.Errorf("renderer ran %d times", runner.runs)
	}
}

func TestRunRenderFailureMarksFailed(t *testing.T) {
	st := status.NewMemoryStore()
	runner := &fakeRunner{err: &render.Diagnostic{Stderr: "No such filter: zoompan"}}
	o := newTestOrchestrator(st, &fakeImages{}, &fakeTTS{}, nil, &fakeArtifacts{}, runner)

	st.Create(context.Background(), &types.RenderResult{ID: "r1", Status: types.StatusPending})
	err := o.run(context.Background(), "r1", sampleRequest())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "zoompan") {
		t.Errorf("diagnostic lost: %v", err)
	}
}

func TestRunSynthesisFailureStopsPipeline(t *testing.T) {
	st := status.NewMemoryStore()
	runner := &fakeRunner{}
	o := newTestOrchestrator(st, &fakeImages{}, &fakeTTS{err: errors.New("tts unreachable")}, nil, &fakeArtifacts{}, runner)

	st.Create(context.Background(), &types.RenderResult{ID: "r1", Status: types.StatusPending})
	if err := o.run(context.Background(), "r1", sampleRequest()); err == nil {
		t.Fatal("expected error")
	}
	if runner.runs != 0 {
		t.Error("renderer ran after synthesis failure")
	}
}

func TestRunSkipsOverlayWhenImageDownloadFails(t *testing.T) {
	st := status.NewMemoryStore()
	artifacts := &fakeArtifacts{downloadErr: errors.New("connection refused")}
	runner := &fakeRunner{}
	o := newTestOrchestrator(st, &fakeImages{}, &fakeTTS{}, nil, artifacts, runner)

	st.Create(context.Background(), &types.RenderResult{ID: "r1", Status: types.StatusPending})
	if err := o.run(context.Background(), "r1", sampleRequest()); err != nil {
		t.Fatal(err)
	}
	// No overlay inputs, yet the render still completes over the background.
	joined := strings.Join(runner.spec.Args, " ")
	if strings.Contains(joined, "zoompan") {
		t.Errorf("unexpected overlay in args:\n%s", joined)
	}
	final, _ := st.Get(context.Background(), "r1")
	if final.Status != types.StatusCompleted {
		t.Errorf("status = %s", final.Status)
	}
}

func TestRunUsesRecognitionTiming(t *testing.T) {
	st := status.NewMemoryStore()
	asr := &fakeASR{segments: []types.ASRSegment{{Start: 0, End: 12.0, Text: "whatever"}}}
	o := newTestOrchestrator(st, &fakeImages{}, &fakeTTS{}, asr, &fakeArtifacts{}, &fakeRunner{})

	st.Create(context.Background(), &types.RenderResult{ID: "r1", Status: types.StatusPending})
	if err := o.run(context.Background(), "r1", sampleRequest()); err != nil {
		t.Fatal(err)
	}
}

func TestRunTranscriptionFailureFallsBackToUniform(t *testing.T) {
	st := status.NewMemoryStore()
	asr := &fakeASR{err: errors.New("whisper down")}
	o := newTestOrchestrator(st, &fakeImages{}, &fakeTTS{}, asr, &fakeArtifacts{}, &fakeRunner{})

	st.Create(context.Background(), &types.RenderResult{ID: "r1", Status: types.StatusPending})
	if err := o.run(context.Background(), "r1", sampleRequest()); err != nil {
		t.Fatal(err)
	}
	final, _ := st.Get(context.Background(), "r1")
	if final.Status != types.StatusCompleted {
		t.Errorf("status = %s", final.Status)
	}
}

func TestStartRenderRejectsEmptyScript(t *testing.T) {
	o := newTestOrchestrator(status.NewMemoryStore(), &fakeImages{}, &fakeTTS{}, nil, &fakeArtifacts{}, &fakeRunner{})
	if _, err := o.StartRender(types.RenderRequest{}); err == nil {
		t.Error("expected error for empty scene list")
	}
}

func TestNarrationTextJoinsScenes(t *testing.T) {
	scenes := []types.Scene{
		{NarrationText: "  First part. "},
		{NarrationText: ""},
		{NarrationText: "Second part."},
	}
	if got := narrationText(scenes); got != "First part. Second part." {
		t.Errorf("got %q", got)
	}
}

func TestResolveBackgroundUnknownStyle(t *testing.T) {
	path, color := resolveBackground("nonexistent-style")
	if path != "" || color == "" {
		t.Errorf("expected solid color fallback, got path=%q color=%q", path, color)
	}
	path, color = resolveBackground("")
	if path != "" || color == "" {
		t.Errorf("expected solid color for empty style, got path=%q color=%q", path, color)
	}
}
