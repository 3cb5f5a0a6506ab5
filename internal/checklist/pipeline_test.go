package checklist

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/cboiteux2765/AIDoorGuard/pkg/provider/suggest"
	suggestmock "github.com/cboiteux2765/AIDoorGuard/pkg/provider/suggest/mock"
)

func newTestPipeline(t *testing.T, opts ...PipelineOption) *Pipeline {
	t.Helper()
	catalog := DefaultCatalog()
	return NewPipeline(catalog, NewMatcher(catalog), NewSession(), opts...)
}

func TestRunResult(t *testing.T) {
	t.Parallel()

	pl := newTestPipeline(t)
	res := pl.Run(context.Background(), "I am going to the gym")

	if res.Mode != ModeResult {
		t.Fatalf("mode = %q, want result", res.Mode)
	}
	if res.Transcript != "I am going to the gym" {
		t.Errorf("transcript = %q", res.Transcript)
	}
	want := []string{"keys", "wallet", "phone", "ID", "water bottle", "towel", "headphones", "gym shoes", "deodorant"}
	if !slices.Equal(res.Items, want) {
		t.Errorf("items = %v, want %v", res.Items, want)
	}
}

func TestRunUnknownDestination(t *testing.T) {
	t.Parallel()

	pl := newTestPipeline(t)
	res := pl.Run(context.Background(), "leaving for the park")

	if res.Mode != ModeResult {
		t.Fatalf("mode = %q, want result", res.Mode)
	}
	want := []string{"keys", "wallet", "phone", "ID"}
	if !slices.Equal(res.Items, want) {
		t.Errorf("items = %v, want essentials only", res.Items)
	}
}

func TestRunEmptyTranscript(t *testing.T) {
	t.Parallel()

	pl := newTestPipeline(t)
	for _, raw := range []string{"", "   "} {
		res := pl.Run(context.Background(), raw)
		if res.Mode != ModeError || res.Message != "No transcript" {
			t.Errorf("Run(%q) = %+v, want error mode", raw, res)
		}
		if res.Items == nil || len(res.Items) != 0 {
			t.Errorf("Run(%q) items = %v, want empty non-nil", raw, res.Items)
		}
	}
}

func TestRunCancel(t *testing.T) {
	t.Parallel()

	pl := newTestPipeline(t)
	res := pl.Run(context.Background(), "Cancel that, please")

	if res.Mode != ModeCommand || res.Message != "Cancelled" {
		t.Fatalf("got %+v, want cancelled command", res)
	}
	if len(res.Items) != 0 {
		t.Errorf("items = %v, want empty", res.Items)
	}
}

func TestRunRepeat(t *testing.T) {
	t.Parallel()

	pl := newTestPipeline(t)

	first := pl.Run(context.Background(), "off to the gym")
	res := pl.Run(context.Background(), "repeat that")

	if res.Mode != ModeCommand || res.Message != "Repeat" {
		t.Fatalf("got %+v, want repeat command", res)
	}
	if !slices.Equal(res.Items, first.Items) {
		t.Errorf("repeat items = %v, want %v", res.Items, first.Items)
	}
}

func TestRunRepeatSurvivesCancel(t *testing.T) {
	t.Parallel()

	pl := newTestPipeline(t)

	first := pl.Run(context.Background(), "off to the gym")
	pl.Run(context.Background(), "stop")
	res := pl.Run(context.Background(), "repeat")

	if !slices.Equal(res.Items, first.Items) {
		t.Errorf("repeat after cancel = %v, want %v", res.Items, first.Items)
	}
}

func TestRunRepeatWithEmptySession(t *testing.T) {
	t.Parallel()

	pl := newTestPipeline(t)
	res := pl.Run(context.Background(), "repeat")

	if res.Mode != ModeCommand {
		t.Fatalf("mode = %q, want command", res.Mode)
	}
	if res.Items == nil || len(res.Items) != 0 {
		t.Errorf("items = %v, want empty non-nil", res.Items)
	}
}

func TestOverlayReplacesBuiltin(t *testing.T) {
	t.Parallel()

	sm := &suggestmock.Provider{Items: []string{"umbrella", "rain jacket"}}
	pl := newTestPipeline(t, WithSuggester(sm))

	res := pl.Run(context.Background(), "going to the gym")
	want := []string{"keys", "wallet", "phone", "ID", "umbrella", "rain jacket"}
	if !slices.Equal(res.Items, want) {
		t.Errorf("items = %v, want overlay %v", res.Items, want)
	}
	if !slices.Contains(sm.Transcripts, "going to the gym") {
		t.Errorf("suggester never saw the transcript: %v", sm.Transcripts)
	}
}

func TestOverlayErrorKeepsBuiltin(t *testing.T) {
	t.Parallel()

	sm := &suggestmock.Provider{Err: errors.New("quota exceeded")}
	pl := newTestPipeline(t, WithSuggester(sm))

	res := pl.Run(context.Background(), "going to the gym")
	if !slices.Contains(res.Items, "towel") {
		t.Errorf("items = %v, want builtin gym list", res.Items)
	}
}

func TestOverlayAllRejectedKeepsBuiltin(t *testing.T) {
	t.Parallel()

	sm := &suggestmock.Provider{Items: []string{"You should definitely bring a towel today."}}
	pl := newTestPipeline(t, WithSuggester(sm))

	res := pl.Run(context.Background(), "going to the gym")
	if !slices.Contains(res.Items, "towel") {
		t.Errorf("items = %v, want builtin gym list", res.Items)
	}
}

func TestOverlayRepeatEchoesOverlay(t *testing.T) {
	t.Parallel()

	var p suggest.Provider = &suggestmock.Provider{Items: []string{"umbrella"}}
	pl := newTestPipeline(t, WithSuggester(p))

	first := pl.Run(context.Background(), "going to the gym")
	res := pl.Run(context.Background(), "repeat")
	if !slices.Equal(res.Items, first.Items) {
		t.Errorf("repeat = %v, want %v", res.Items, first.Items)
	}
}
