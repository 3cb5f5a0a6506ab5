package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	embedmock "github.com/cboiteux2765/AIDoorGuard/pkg/provider/embeddings/mock"
	sttmock "github.com/cboiteux2765/AIDoorGuard/pkg/provider/stt/mock"
	suggestmock "github.com/cboiteux2765/AIDoorGuard/pkg/provider/suggest/mock"
)

func TestGuardSTTPassthrough(t *testing.T) {
	t.Parallel()

	inner := &sttmock.Provider{
		TranscribeFunc: func(_ context.Context, _ []byte, _ string) (string, error) {
			return "going to the gym", nil
		},
	}
	g := GuardSTT(inner, CircuitBreakerConfig{})

	got, err := g.Transcribe(context.Background(), []byte("audio"), "clip.webm")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got != "going to the gym" {
		t.Errorf("transcript = %q", got)
	}
}

func TestGuardSTTTrips(t *testing.T) {
	t.Parallel()

	calls := 0
	inner := &sttmock.Provider{
		TranscribeFunc: func(_ context.Context, _ []byte, _ string) (string, error) {
			calls++
			return "", errors.New("api down")
		},
	}
	g := GuardSTT(inner, CircuitBreakerConfig{MaxFailures: 2, ResetTimeout: time.Minute})

	for range 2 {
		if _, err := g.Transcribe(context.Background(), nil, "a"); err == nil {
			t.Fatal("expected error")
		}
	}

	// Tripped: the backend must not see further calls.
	_, err := g.Transcribe(context.Background(), nil, "a")
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}
	if calls != 2 {
		t.Errorf("backend calls = %d, want 2", calls)
	}
}

func TestGuardSuggestTrips(t *testing.T) {
	t.Parallel()

	inner := &suggestmock.Provider{Err: errors.New("quota exceeded")}
	g := GuardSuggest(inner, CircuitBreakerConfig{MaxFailures: 1, ResetTimeout: time.Minute})

	if _, err := g.Suggest(context.Background(), "gym"); err == nil {
		t.Fatal("expected error")
	}
	if _, err := g.Suggest(context.Background(), "gym"); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}
	if len(inner.Transcripts) != 1 {
		t.Errorf("backend calls = %d, want 1", len(inner.Transcripts))
	}
}

func TestGuardEmbeddings(t *testing.T) {
	t.Parallel()

	inner := &embedmock.Provider{
		Dims:    3,
		Vectors: map[string][]float32{"gym": {1, 0, 0}},
	}
	g := GuardEmbeddings(inner, CircuitBreakerConfig{MaxFailures: 1, ResetTimeout: time.Minute})

	if g.Dimensions() != 3 {
		t.Errorf("Dimensions() = %d", g.Dimensions())
	}
	vec, err := g.Embed(context.Background(), "gym")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 3 || vec[0] != 1 {
		t.Errorf("vector = %v", vec)
	}

	inner.Err = errors.New("connection refused")
	if _, err := g.EmbedBatch(context.Background(), []string{"work"}); err == nil {
		t.Fatal("expected error")
	}
	if _, err := g.Embed(context.Background(), "gym"); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}
}
