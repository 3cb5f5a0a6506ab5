package checklist

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/cboiteux2765/AIDoorGuard/internal/observe"
	"github.com/cboiteux2765/AIDoorGuard/pkg/provider/suggest"
)

const defaultSuggestTimeout = 10 * time.Second

// Mode classifies a pipeline result.
type Mode string

const (
	// ModeResult is a normal destination inference with a checklist.
	ModeResult Mode = "result"

	// ModeCommand means the transcript was a voice command (cancel, repeat)
	// and short-circuited the inference flow.
	ModeCommand Mode = "command"

	// ModeError means no usable transcript was available.
	ModeError Mode = "error"
)

// Result is the outcome of one transcript submission. It is always
// well-formed: Items is never nil and Mode is always set.
type Result struct {
	Transcript string   `json:"transcript"`
	Items      []string `json:"items"`
	Mode       Mode     `json:"mode"`
	Message    string   `json:"message"`
}

// PipelineOption is a functional option for configuring a [Pipeline].
type PipelineOption func(*Pipeline)

// WithSuggester attaches a generative suggestion provider. When nil (the
// default) the overlay step is skipped and checklists come from the builtin
// catalog alone.
func WithSuggester(p suggest.Provider) PipelineOption {
	return func(pl *Pipeline) {
		pl.suggester = p
	}
}

// WithSuggestTimeout bounds each suggestion provider call. On timeout the
// overlay is disabled for that run. Default: 10s.
func WithSuggestTimeout(d time.Duration) PipelineOption {
	return func(pl *Pipeline) {
		pl.suggestTimeout = d
	}
}

// WithMetrics attaches pipeline metrics. When nil, nothing is recorded.
func WithMetrics(m *observe.Metrics) PipelineOption {
	return func(pl *Pipeline) {
		pl.metrics = m
	}
}

// Pipeline orchestrates one transcript submission end to end: command
// detection, destination matching, catalog resolution, and the optional
// generative overlay. Run never returns an error; every failure path
// degrades to a well-formed [Result].
//
// Pipeline is safe for concurrent use; the only mutable state it touches is
// the injected [Session] slot and the matcher's build-once embedding cache.
type Pipeline struct {
	catalog *Catalog
	matcher *Matcher
	session *Session

	suggester      suggest.Provider
	suggestTimeout time.Duration
	metrics        *observe.Metrics
}

// NewPipeline wires a Pipeline from its three mandatory collaborators plus
// options. catalog and matcher must share the same tables; session holds the
// last-result slot the "repeat" command reads back.
func NewPipeline(catalog *Catalog, matcher *Matcher, session *Session, opts ...PipelineOption) *Pipeline {
	pl := &Pipeline{
		catalog:        catalog,
		matcher:        matcher,
		session:        session,
		suggestTimeout: defaultSuggestTimeout,
	}
	for _, o := range opts {
		o(pl)
	}
	return pl
}

// Run processes one transcript and returns its ChecklistResult.
//
// Flow: an empty transcript reports an error; "cancel"/"stop" and "repeat"
// short-circuit as commands; anything else is normalised, matched to a
// destination, and resolved against the catalog. When a suggester is
// configured, its sanitised non-empty output replaces the builtin list:
// the generative overlay wins whenever it succeeds. Result and cancel paths
// update the session slot for a later "repeat".
func (pl *Pipeline) Run(ctx context.Context, transcript string) Result {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return pl.done(ctx, Result{Items: []string{}, Mode: ModeError, Message: "No transcript"})
	}

	lowered := strings.ToLower(transcript)

	if strings.Contains(lowered, "cancel") || strings.Contains(lowered, "stop") {
		pl.session.SetTranscript(transcript)
		return pl.done(ctx, Result{Transcript: transcript, Items: []string{}, Mode: ModeCommand, Message: "Cancelled"})
	}

	if strings.Contains(lowered, "repeat") {
		return pl.done(ctx, Result{Transcript: transcript, Items: pl.session.Items(), Mode: ModeCommand, Message: "Repeat"})
	}

	norm := Normalize(transcript)
	key, matchStage := pl.matcher.Match(ctx, norm)
	items := pl.catalog.Resolve(key)

	observe.Logger(ctx).Debug("destination matched",
		"key", string(key),
		"stage", string(matchStage),
		"known", pl.catalog.Known(key),
	)
	if pl.metrics != nil {
		pl.metrics.MatchStage.Add(ctx, 1,
			metric.WithAttributes(attribute.String("stage", string(matchStage))))
	}

	if overlay := pl.overlay(ctx, transcript); len(overlay) > 0 {
		items = overlay
	}

	pl.session.Set(transcript, items)
	return pl.done(ctx, Result{Transcript: transcript, Items: items, Mode: ModeResult})
}

// overlay asks the suggestion provider for candidate items and sanitises
// them. It returns nil, meaning keep the builtin list, when no provider is
// configured, the call fails, or nothing survives sanitisation.
func (pl *Pipeline) overlay(ctx context.Context, transcript string) []string {
	if pl.suggester == nil {
		return nil
	}

	sctx, cancel := context.WithTimeout(ctx, pl.suggestTimeout)
	defer cancel()

	start := time.Now()
	candidates, err := pl.suggester.Suggest(sctx, transcript)
	if pl.metrics != nil {
		pl.metrics.SuggestDuration.Record(ctx, time.Since(start).Seconds())
	}
	if err != nil {
		observe.Logger(ctx).Warn("suggestion provider failed; keeping builtin list", "err", err)
		return nil
	}
	return pl.catalog.Sanitize(candidates)
}

// done records run metrics and returns r unchanged.
func (pl *Pipeline) done(ctx context.Context, r Result) Result {
	if pl.metrics != nil {
		pl.metrics.ChecklistRuns.Add(ctx, 1,
			metric.WithAttributes(attribute.String("mode", string(r.Mode))))
	}
	return r
}
