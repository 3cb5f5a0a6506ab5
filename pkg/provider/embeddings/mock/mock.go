// Package mock provides an in-memory embeddings.Provider for tests.
//
// Vectors lets a test assign fixed embeddings per text, so similarity
// outcomes in the matcher are fully deterministic without a live model.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/cboiteux2765/AIDoorGuard/pkg/provider/embeddings"
)

var _ embeddings.Provider = (*Provider)(nil)

// Provider is a mock implementation of embeddings.Provider.
type Provider struct {
	mu sync.Mutex

	// Vectors maps input text to the vector returned for it. Texts with no
	// entry get the zero vector of length Dims.
	Vectors map[string][]float32

	// Dims is the dimension reported by Dimensions and used for zero vectors.
	Dims int

	// Err, if non-nil, is returned from Embed and EmbedBatch.
	Err error

	// Calls records every text submitted, across both Embed and EmbedBatch.
	Calls []string
}

// Embed returns the configured vector for text.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch returns the configured vector for each text in order.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, texts...)
	if p.Err != nil {
		return nil, p.Err
	}
	result := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := p.Vectors[t]; ok {
			result[i] = v
			continue
		}
		result[i] = make([]float32, p.Dims)
	}
	return result, nil
}

// Dimensions returns Dims.
func (p *Provider) Dimensions() int { return p.Dims }

// ModelID identifies the mock in logs.
func (p *Provider) ModelID() string { return fmt.Sprintf("mock-embed-%dd", p.Dims) }
