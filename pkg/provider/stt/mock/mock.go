// Package mock provides an in-memory stt.Provider for tests.
package mock

import (
	"context"
	"errors"

	"github.com/cboiteux2765/AIDoorGuard/pkg/provider/stt"
)

var _ stt.Provider = (*Provider)(nil)

// Provider is a configurable mock. Set TranscribeFunc to control behavior;
// unset it and calls return an error.
type Provider struct {
	TranscribeFunc func(ctx context.Context, audio []byte, filename string) (string, error)
}

func (p *Provider) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if p.TranscribeFunc == nil {
		return "", errors.New("mock: TranscribeFunc not set")
	}
	return p.TranscribeFunc(ctx, audio, filename)
}
