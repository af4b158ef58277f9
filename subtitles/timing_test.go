package subtitles

import (
	"math"
	"testing"

	"storyreel/types"
)

func TestAllocateUniformTwoPhrasesOverTenSeconds(t *testing.T) {
	cues := AllocateUniform([]string{"First phrase.", "Second phrase."}, 10.0, 0.1)
	if len(cues) != 2 {
		t.Fatalf("got %d cues", len(cues))
	}

	checks := []struct {
		start, end float64
	}{
		{0.1, 5.05},
		{5.05, 10.0},
	}
	for i, want := range checks {
		if math.Abs(cues[i].Start-want.start) > 1e-9 || math.Abs(cues[i].End-want.end) > 1e-9 {
			t.Errorf("cue %d: got [%v, %v], want [%v, %v]", i, cues[i].Start, cues[i].End, want.start, want.end)
		}
	}
}

func TestAllocateUniformContiguous(t *testing.T) {
	phrases := []string{"a", "b", "c", "d", "e"}
	cues := AllocateUniform(phrases, 33.7, 0.1)
	for i := 1; i < len(cues); i++ {
		if cues[i].Start != cues[i-1].End {
			t.Errorf("gap between cue %d and %d: %v vs %v", i-1, i, cues[i-1].End, cues[i].Start)
		}
	}
}

func TestAllocateUniformDeterministic(t *testing.T) {
	phrases := []string{"one", "two", "three"}
	a := RenderSRT(AllocateUniform(phrases, 12.34, 0.1))
	b := RenderSRT(AllocateUniform(phrases, 12.34, 0.1))
	if a != b {
		t.Error("identical inputs produced different SRT output")
	}
}

func TestAllocateUniformShortAudioFloor(t *testing.T) {
	cues := AllocateUniform([]string{"only"}, 0.3, 0.1)
	if len(cues) != 1 {
		t.Fatalf("got %d cues", len(cues))
	}
	if d := cues[0].End - cues[0].Start; d < 1.0 {
		t.Errorf("cue shorter than minimum: %v", d)
	}
}

func TestAllocateUniformEmpty(t *testing.T) {
	if cues := AllocateUniform(nil, 10, 0.1); cues != nil {
		t.Errorf("expected nil, got %v", cues)
	}
}

func TestAllocateFromRecognitionProportional(t *testing.T) {
	segments := []types.ASRSegment{
		{Start: 0, End: 4.0, Text: "misheard text"},
		{Start: 4.0, End: 10.0, Text: "more misheard text"},
	}
	script := "Short one. This second sentence is quite a bit longer."
	cues := AllocateFromRecognition(segments, script)
	if cues == nil {
		t.Fatal("expected cues")
	}
	if len(cues) != 2 {
		t.Fatalf("got %d cues: %v", len(cues), cues)
	}

	// Text comes from the script, never from recognition.
	if cues[0].Text != "Short one." {
		t.Errorf("got %q", cues[0].Text)
	}
	// Timing is contiguous from zero and ends at the recognized total.
	if cues[0].Start != 0 {
		t.Errorf("first cue starts at %v", cues[0].Start)
	}
	if cues[1].Start != cues[0].End {
		t.Errorf("cues not contiguous: %v vs %v", cues[0].End, cues[1].Start)
	}
	if math.Abs(cues[1].End-10.0) > 1e-9 {
		t.Errorf("last cue ends at %v, want 10", cues[1].End)
	}
	// The longer phrase gets the longer window.
	if d0, d1 := cues[0].End-cues[0].Start, cues[1].End-cues[1].Start; d0 >= d1 {
		t.Errorf("expected shorter phrase to get less time: %v vs %v", d0, d1)
	}
}

func TestAllocateFromRecognitionNoSegments(t *testing.T) {
	if cues := AllocateFromRecognition(nil, "Some text."); cues != nil {
		t.Errorf("expected nil, got %v", cues)
	}
	zero := []types.ASRSegment{{Start: 0, End: 0, Text: "x"}}
	if cues := AllocateFromRecognition(zero, "Some text."); cues != nil {
		t.Errorf("expected nil for zero duration, got %v", cues)
	}
}
