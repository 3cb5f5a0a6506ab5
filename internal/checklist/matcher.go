package checklist

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/antzucaro/matchr"

	"github.com/cboiteux2765/AIDoorGuard/pkg/provider/embeddings"
)

const (
	defaultEmbedThreshold = 0.60
	defaultFuzzyThreshold = 0.75
	defaultEmbedTimeout   = 5 * time.Second
)

// Stage names the cascade rung that produced a match. Exposed so callers can
// log and count which strategy fired, and so tests can assert stage priority.
type Stage string

const (
	StageEmbedding Stage = "embedding"
	StageSubstring Stage = "substring"
	StageSynonym   Stage = "synonym"
	StageFuzzy     Stage = "fuzzy"
	StageFallback  Stage = "fallback"
)

// MatcherOption is a functional option for configuring a [Matcher].
type MatcherOption func(*Matcher)

// WithEmbeddings attaches an embeddings provider, enabling the semantic
// similarity stage. When nil (the default) the stage is skipped entirely;
// this is a degradation, not an error.
func WithEmbeddings(p embeddings.Provider) MatcherOption {
	return func(m *Matcher) {
		m.embedder = p
	}
}

// WithEmbedThreshold sets the minimum cosine similarity required for the
// embedding stage to accept its best candidate. Default: 0.60.
func WithEmbedThreshold(threshold float64) MatcherOption {
	return func(m *Matcher) {
		m.embedThreshold = threshold
	}
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score required for the
// fuzzy stage to accept its best (token, key) pair. Default: 0.75.
func WithFuzzyThreshold(threshold float64) MatcherOption {
	return func(m *Matcher) {
		m.fuzzyThreshold = threshold
	}
}

// WithEmbedTimeout bounds each embedding provider call. On timeout the stage
// is skipped for that invocation. Default: 5s.
func WithEmbedTimeout(d time.Duration) MatcherOption {
	return func(m *Matcher) {
		m.embedTimeout = d
	}
}

// Matcher maps normalised transcripts to destination keys using an ordered
// cascade of strategies: embedding similarity, substring, synonym, fuzzy
// similarity, and a last-token fallback. The first stage to produce a
// confident result wins.
//
// Match never fails. Provider errors are absorbed and the cascade continues
// with the next stage; the worst case is a fallback token or [Unknown].
// Given identical tables and cache state the result is deterministic: ties
// within a stage are resolved by the catalog's declared key order.
//
// Matcher is safe for concurrent use. The embedding pool cache is built at
// most once; concurrent first-time callers block on a mutex and the redundant
// builders observe the completed cache.
type Matcher struct {
	catalog *Catalog
	stages  []stage

	embedder       embeddings.Provider
	embedThreshold float64
	fuzzyThreshold float64
	embedTimeout   time.Duration

	// poolMu guards the one-time construction of pools.
	poolMu sync.Mutex
	pools  map[DestinationKey][][]float32
}

// stage pairs a cascade rung's name with its strategy function. A strategy
// returns (key, true) on a confident match and (Unknown, false) to pass the
// input down the cascade.
type stage struct {
	name  Stage
	match func(ctx context.Context, n Normalized) (DestinationKey, bool)
}

// NewMatcher constructs a Matcher over catalog with the supplied options.
func NewMatcher(catalog *Catalog, opts ...MatcherOption) *Matcher {
	m := &Matcher{
		catalog:        catalog,
		embedThreshold: defaultEmbedThreshold,
		fuzzyThreshold: defaultFuzzyThreshold,
		embedTimeout:   defaultEmbedTimeout,
	}
	for _, o := range opts {
		o(m)
	}
	m.stages = []stage{
		{StageEmbedding, m.matchEmbedding},
		{StageSubstring, m.matchSubstring},
		{StageSynonym, m.matchSynonym},
		{StageFuzzy, m.matchFuzzy},
	}
	return m
}

// Match runs the cascade over n and returns the winning key together with the
// stage that produced it. When no stage matches, the fallback returns the
// last token of the input, which may not be a catalog key ([Catalog.Resolve]
// handles that), or [Unknown] for token-less input.
func (m *Matcher) Match(ctx context.Context, n Normalized) (DestinationKey, Stage) {
	for _, s := range m.stages {
		if key, ok := s.match(ctx, n); ok {
			return key, s.name
		}
	}
	if len(n.Tokens) == 0 {
		return Unknown, StageFallback
	}
	return DestinationKey(n.Tokens[len(n.Tokens)-1]), StageFallback
}

// ─── Stage 1: embedding similarity ───────────────────────────────────────────

// matchEmbedding embeds the full input text and compares it against every
// key's pool (key name + synonyms) by cosine similarity. Skipped when no
// provider is configured or any provider call fails.
func (m *Matcher) matchEmbedding(ctx context.Context, n Normalized) (DestinationKey, bool) {
	if m.embedder == nil || n.Text == "" {
		return Unknown, false
	}

	pools, err := m.poolVectors(ctx)
	if err != nil {
		slog.Debug("embedding stage unavailable", "err", err)
		return Unknown, false
	}

	ectx, cancel := context.WithTimeout(ctx, m.embedTimeout)
	defer cancel()
	query, err := m.embedder.Embed(ectx, n.Text)
	if err != nil || len(query) == 0 {
		slog.Debug("embedding stage skipped", "err", err)
		return Unknown, false
	}

	var best DestinationKey
	bestScore := -1.0
	for _, key := range m.catalog.keys {
		for _, vec := range pools[key] {
			if score := cosine(query, vec); score > bestScore {
				bestScore = score
				best = key
			}
		}
	}
	if bestScore >= m.embedThreshold {
		return best, true
	}
	return Unknown, false
}

// poolVectors returns the per-key embedding pools, building them on first
// use. A failed build leaves the cache empty so a later call can retry;
// values are deterministic for a given provider, so redundant concurrent
// builds would agree and last-writer-wins is safe; the mutex simply
// serialises them.
func (m *Matcher) poolVectors(ctx context.Context) (map[DestinationKey][][]float32, error) {
	m.poolMu.Lock()
	defer m.poolMu.Unlock()
	if m.pools != nil {
		return m.pools, nil
	}

	// Flatten every key's pool texts into a single batch call, remembering
	// each key's span in the batch.
	var texts []string
	type span struct {
		key        DestinationKey
		start, end int
	}
	spans := make([]span, 0, len(m.catalog.keys))
	for _, key := range m.catalog.keys {
		start := len(texts)
		texts = append(texts, string(key))
		texts = append(texts, m.catalog.synonyms[key]...)
		spans = append(spans, span{key: key, start: start, end: len(texts)})
	}

	bctx, cancel := context.WithTimeout(ctx, m.embedTimeout)
	defer cancel()
	vectors, err := m.embedder.EmbedBatch(bctx, texts)
	if err != nil {
		return nil, err
	}

	pools := make(map[DestinationKey][][]float32, len(spans))
	for _, sp := range spans {
		pools[sp.key] = vectors[sp.start:sp.end]
	}
	m.pools = pools
	return pools, nil
}

// cosine returns the cosine similarity dot(a,b)/(|a||b|) of two vectors, or 0
// when either vector is empty or has zero norm.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// ─── Stage 2: substring ──────────────────────────────────────────────────────

// matchSubstring returns the first key (in declared order) whose literal name
// appears anywhere in the full lowered text.
func (m *Matcher) matchSubstring(_ context.Context, n Normalized) (DestinationKey, bool) {
	for _, key := range m.catalog.keys {
		if strings.Contains(n.Text, string(key)) {
			return key, true
		}
	}
	return Unknown, false
}

// ─── Stage 3: synonym ────────────────────────────────────────────────────────

// matchSynonym returns the first key with an alias that appears as a whole
// token in the input, or whose space-stripped form appears as a substring of
// the full text, which catches run-together mis-hearings of multi-word aliases.
func (m *Matcher) matchSynonym(_ context.Context, n Normalized) (DestinationKey, bool) {
	tokens := make(map[string]struct{}, len(n.Tokens))
	for _, t := range n.Tokens {
		tokens[t] = struct{}{}
	}
	for _, key := range m.catalog.keys {
		for _, alias := range m.catalog.synonyms[key] {
			alias = strings.ToLower(strings.TrimSpace(alias))
			if alias == "" {
				continue
			}
			if _, ok := tokens[alias]; ok {
				return key, true
			}
			if joined := strings.ReplaceAll(alias, " ", ""); strings.Contains(n.Text, joined) {
				return key, true
			}
		}
	}
	return Unknown, false
}

// ─── Stage 4: fuzzy similarity ───────────────────────────────────────────────

// matchFuzzy scores every token against every key name with Jaro-Winkler and
// accepts the single best pair when it clears the threshold. A strictly
// greater score is required to displace the incumbent, so ties keep the
// first-encountered (declared-order) key.
func (m *Matcher) matchFuzzy(_ context.Context, n Normalized) (DestinationKey, bool) {
	var best DestinationKey
	bestScore := 0.0
	for _, tok := range n.Tokens {
		for _, key := range m.catalog.keys {
			if score := matchr.JaroWinkler(tok, string(key), false); score > bestScore {
				bestScore = score
				best = key
			}
		}
	}
	if bestScore >= m.fuzzyThreshold {
		return best, true
	}
	return Unknown, false
}
