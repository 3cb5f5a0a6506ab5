// Package mock provides an in-memory suggest.Provider for tests.
package mock

import (
	"context"
	"errors"
	"sync"

	"github.com/cboiteux2765/AIDoorGuard/pkg/provider/suggest"
)

var _ suggest.Provider = (*Provider)(nil)

// Provider is a configurable mock. Set SuggestFunc for per-call behavior, or
// Items/Err for a fixed response.
type Provider struct {
	mu sync.Mutex

	SuggestFunc func(ctx context.Context, transcript string) ([]string, error)
	Items       []string
	Err         error

	// Transcripts records every transcript submitted, in order.
	Transcripts []string
}

func (p *Provider) Suggest(ctx context.Context, transcript string) ([]string, error) {
	p.mu.Lock()
	p.Transcripts = append(p.Transcripts, transcript)
	p.mu.Unlock()

	if p.SuggestFunc != nil {
		return p.SuggestFunc(ctx, transcript)
	}
	if p.Err != nil {
		return nil, p.Err
	}
	if p.Items == nil && p.Err == nil && p.SuggestFunc == nil {
		return nil, errors.New("mock: no response configured")
	}
	return p.Items, nil
}
