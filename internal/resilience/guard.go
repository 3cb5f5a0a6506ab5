package resilience

import (
	"context"

	"github.com/cboiteux2765/AIDoorGuard/pkg/provider/embeddings"
	"github.com/cboiteux2765/AIDoorGuard/pkg/provider/stt"
	"github.com/cboiteux2765/AIDoorGuard/pkg/provider/suggest"
)

// sttGuard wraps an stt.Provider with a circuit breaker.
type sttGuard struct {
	inner stt.Provider
	cb    *CircuitBreaker
}

// GuardSTT wraps p with a circuit breaker so repeated transcription failures
// trip the breaker and later uploads fail fast with [ErrCircuitOpen].
func GuardSTT(p stt.Provider, cfg CircuitBreakerConfig) stt.Provider {
	if cfg.Name == "" {
		cfg.Name = "stt"
	}
	return &sttGuard{inner: p, cb: NewCircuitBreaker(cfg)}
}

func (g *sttGuard) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	var out string
	err := g.cb.Execute(func() error {
		var err error
		out, err = g.inner.Transcribe(ctx, audio, filename)
		return err
	})
	return out, err
}

// suggestGuard wraps a suggest.Provider with a circuit breaker.
type suggestGuard struct {
	inner suggest.Provider
	cb    *CircuitBreaker
}

// GuardSuggest wraps p with a circuit breaker. The checklist pipeline treats
// suggestion failures, [ErrCircuitOpen] included, as "keep the builtin
// list", so a tripped breaker just means checklists without the generative
// overlay for a while.
func GuardSuggest(p suggest.Provider, cfg CircuitBreakerConfig) suggest.Provider {
	if cfg.Name == "" {
		cfg.Name = "suggest"
	}
	return &suggestGuard{inner: p, cb: NewCircuitBreaker(cfg)}
}

func (g *suggestGuard) Suggest(ctx context.Context, transcript string) ([]string, error) {
	var out []string
	err := g.cb.Execute(func() error {
		var err error
		out, err = g.inner.Suggest(ctx, transcript)
		return err
	})
	return out, err
}

// embeddingsGuard wraps an embeddings.Provider with a circuit breaker.
// Dimensions and ModelID pass through; only the network calls are guarded.
type embeddingsGuard struct {
	inner embeddings.Provider
	cb    *CircuitBreaker
}

// GuardEmbeddings wraps p with a circuit breaker. With the breaker open the
// matcher skips its semantic stage immediately instead of burning the embed
// timeout on every transcript.
func GuardEmbeddings(p embeddings.Provider, cfg CircuitBreakerConfig) embeddings.Provider {
	if cfg.Name == "" {
		cfg.Name = "embeddings"
	}
	return &embeddingsGuard{inner: p, cb: NewCircuitBreaker(cfg)}
}

func (g *embeddingsGuard) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := g.cb.Execute(func() error {
		var err error
		out, err = g.inner.Embed(ctx, text)
		return err
	})
	return out, err
}

func (g *embeddingsGuard) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := g.cb.Execute(func() error {
		var err error
		out, err = g.inner.EmbedBatch(ctx, texts)
		return err
	})
	return out, err
}

func (g *embeddingsGuard) Dimensions() int { return g.inner.Dimensions() }

func (g *embeddingsGuard) ModelID() string { return g.inner.ModelID() }
