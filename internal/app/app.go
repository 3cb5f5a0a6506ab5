// Package app wires all door-assistant subsystems into a running service.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves until the context is cancelled, and Shutdown tears
// everything down in order.
//
// For testing, inject doubles via functional options (WithBroker,
// WithMetrics, etc.). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/cboiteux2765/AIDoorGuard/internal/checklist"
	"github.com/cboiteux2765/AIDoorGuard/internal/config"
	"github.com/cboiteux2765/AIDoorGuard/internal/event"
	"github.com/cboiteux2765/AIDoorGuard/internal/health"
	"github.com/cboiteux2765/AIDoorGuard/internal/httpapi"
	"github.com/cboiteux2765/AIDoorGuard/internal/observe"
	"github.com/cboiteux2765/AIDoorGuard/internal/resilience"
	"github.com/cboiteux2765/AIDoorGuard/internal/watch"
	"github.com/cboiteux2765/AIDoorGuard/pkg/provider/embeddings"
	"github.com/cboiteux2765/AIDoorGuard/pkg/provider/stt"
	"github.com/cboiteux2765/AIDoorGuard/pkg/provider/suggest"
)

// Providers holds one interface value per provider slot. Nil means the
// provider is not configured. Populated by main.go via the config registry.
type Providers struct {
	STT        stt.Provider
	Embeddings embeddings.Provider
	Suggest    suggest.Provider
}

// App owns all subsystem lifetimes: the checklist pipeline, the event broker,
// the serial watcher, the HTTP server, and the optional config reloader.
type App struct {
	cfg       *config.Config
	providers *Providers

	// Subsystems initialised in New and torn down in Shutdown.
	metrics  *observe.Metrics
	broker   *event.Broker
	session  *checklist.Session
	runner   *hotRunner
	watcher  *watch.SerialWatcher
	server   *httpapi.Server
	reloader *config.Watcher

	configPath string
	logLevel   *slog.LevelVar
	checkers   []health.Checker

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithBroker injects an event broker instead of creating one.
func WithBroker(b *event.Broker) Option {
	return func(a *App) { a.broker = b }
}

// WithMetrics injects application metrics. When not provided, New uses the
// globally registered meter provider via observe.DefaultMetrics.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithConfigFile enables hot-reload: the file at path is polled for changes
// and checklist edits are applied to the running pipeline without a restart.
// Provider and server changes still require a restart.
func WithConfigFile(path string) Option {
	return func(a *App) { a.configPath = path }
}

// WithLogLevelVar hands the app the level var backing the process logger so
// that log_level changes in the config file take effect on reload.
func WithLogLevelVar(v *slog.LevelVar) Option {
	return func(a *App) { a.logLevel = v }
}

// WithHealthCheckers adds readiness checks to the /readyz endpoint.
func WithHealthCheckers(checkers ...health.Checker) Option {
	return func(a *App) { a.checkers = append(a.checkers, checkers...) }
}

// ─── Hot-swappable pipeline ──────────────────────────────────────────────────

// hotRunner adapts the checklist pipeline to httpapi.Runner behind an atomic
// pointer so a config reload can swap in a rebuilt pipeline mid-flight.
type hotRunner struct {
	pipeline atomic.Pointer[checklist.Pipeline]
}

func (h *hotRunner) Run(ctx context.Context, transcript string) checklist.Result {
	return h.pipeline.Load().Run(ctx, transcript)
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together. The providers struct
// comes from main.go (populated via the config registry). Use Option functions
// to inject test doubles for any subsystem.
func New(_ context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers == nil {
		providers = &Providers{}
	}
	a := &App{
		cfg:       cfg,
		providers: providers,
		session:   checklist.NewSession(),
		runner:    &hotRunner{},
	}
	for _, o := range opts {
		o(a)
	}

	// ── 1. Provider guards ───────────────────────────────────────────────
	// Circuit breakers make a dead backend fail fast instead of adding its
	// full timeout to every door exit.
	if providers.STT != nil {
		providers.STT = resilience.GuardSTT(providers.STT, resilience.CircuitBreakerConfig{Name: "stt"})
	}
	if providers.Embeddings != nil {
		providers.Embeddings = resilience.GuardEmbeddings(providers.Embeddings, resilience.CircuitBreakerConfig{Name: "embeddings"})
	}
	if providers.Suggest != nil {
		providers.Suggest = resilience.GuardSuggest(providers.Suggest, resilience.CircuitBreakerConfig{Name: "suggest"})
	}

	// ── 2. Metrics ───────────────────────────────────────────────────────
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	// ── 3. Event broker ──────────────────────────────────────────────────
	if a.broker == nil {
		a.broker = event.NewBroker()
	}

	// ── 4. Checklist pipeline ────────────────────────────────────────────
	a.runner.pipeline.Store(a.buildPipeline(cfg))

	// ── 5. Serial watcher ────────────────────────────────────────────────
	if port := cfg.Watch.Serial.Port; port != "" {
		a.watcher = watch.NewSerialWatcher(port, a.broker,
			watch.WithBaudRate(cfg.Watch.Serial.Baud),
			watch.WithMetrics(a.metrics),
		)
	} else {
		slog.Info("no serial port configured, leave-signal watching disabled")
	}

	// ── 6. HTTP server ───────────────────────────────────────────────────
	addr := cfg.Server.ListenAddr
	if addr == "" {
		addr = ":8000"
	}
	srv, err := httpapi.NewServer(addr, a.runner, a.broker,
		httpapi.WithSTT(providers.STT),
		httpapi.WithMetrics(a.metrics),
		httpapi.WithHealth(health.New(a.checkers...)),
	)
	if err != nil {
		return nil, fmt.Errorf("app: build http server: %w", err)
	}
	if tls := cfg.Server.TLS; tls != nil {
		srv.UseTLS(tls.CertFile, tls.KeyFile)
	}
	a.server = srv

	// ── 7. Config hot-reload ─────────────────────────────────────────────
	if a.configPath != "" {
		reloader, err := config.NewWatcher(a.configPath, a.onConfigChange)
		if err != nil {
			return nil, fmt.Errorf("app: config watcher: %w", err)
		}
		a.reloader = reloader
		a.closers = append(a.closers, func() error {
			reloader.Stop()
			return nil
		})
	}

	return a, nil
}

// buildPipeline assembles catalog, matcher, and pipeline from the checklist
// section of cfg. The session slot is shared across rebuilds so "repeat"
// survives a config reload.
func (a *App) buildPipeline(cfg *config.Config) *checklist.Pipeline {
	catalog := catalogFromConfig(cfg.Checklist)

	var matcherOpts []checklist.MatcherOption
	if a.providers.Embeddings != nil {
		matcherOpts = append(matcherOpts, checklist.WithEmbeddings(a.providers.Embeddings))
	}
	matcher := checklist.NewMatcher(catalog, matcherOpts...)

	return checklist.NewPipeline(catalog, matcher, a.session,
		checklist.WithSuggester(a.providers.Suggest),
		checklist.WithMetrics(a.metrics),
	)
}

// catalogFromConfig converts the checklist config section into a catalog.
// An entirely empty section selects the builtin household catalog.
func catalogFromConfig(cc config.ChecklistConfig) *checklist.Catalog {
	if len(cc.Essentials) == 0 && len(cc.Destinations) == 0 {
		return checklist.DefaultCatalog()
	}

	dests := make([]checklist.Destination, 0, len(cc.Destinations))
	for _, d := range cc.Destinations {
		dests = append(dests, checklist.Destination{
			Key:      checklist.DestinationKey(d.Key),
			Synonyms: d.Synonyms,
			Items:    d.Items,
		})
	}

	// Nil essentials selects the defaults (keys, wallet, phone, ID).
	var essentials []string
	if len(cc.Essentials) > 0 {
		essentials = cc.Essentials
	}
	return checklist.NewCatalog(essentials, dests)
}

// onConfigChange applies the safely-reloadable parts of a config edit to the
// running app and logs what still needs a restart.
func (a *App) onConfigChange(old, new *config.Config) {
	d := config.Diff(old, new)

	if d.LogLevelChanged && a.logLevel != nil {
		a.logLevel.Set(slogLevel(d.NewLogLevel))
		slog.Info("log level changed", "level", d.NewLogLevel)
	}

	if d.ChecklistChanged {
		a.cfg = new
		a.runner.pipeline.Store(a.buildPipeline(new))
		slog.Info("checklist catalog reloaded", "destinations", len(d.DestinationChanges))
	}

	if providersEdited(old.Providers, new.Providers) ||
		old.Server.ListenAddr != new.Server.ListenAddr || old.Watch != new.Watch {
		slog.Warn("provider, server, or watch settings changed; restart required to apply")
	}
}

// providersEdited reports whether any provider selection changed. Option maps
// are not compared; switching a provider's name or endpoint is what matters.
func providersEdited(old, new config.ProvidersConfig) bool {
	entryEdited := func(a, b config.ProviderEntry) bool {
		return a.Name != b.Name || a.APIKey != b.APIKey || a.BaseURL != b.BaseURL || a.Model != b.Model
	}
	return entryEdited(old.STT, new.STT) ||
		entryEdited(old.Embeddings, new.Embeddings) ||
		entryEdited(old.Suggest, new.Suggest)
}

// slogLevel maps a config log level to its slog equivalent.
func slogLevel(l config.LogLevel) slog.Level {
	switch l {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run starts the HTTP server and, when configured, the serial watcher, and
// blocks until ctx is cancelled or the server fails. The serial watcher never
// fails the group; a missing sensor must not take down the API.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.server.Run(ctx)
	})
	if a.watcher != nil {
		g.Go(func() error {
			return a.watcher.Run(ctx)
		})
	}

	slog.Info("app running",
		"addr", a.cfg.Server.ListenAddr,
		"serial", a.cfg.Watch.Serial.Port,
		"stt", a.providers.STT != nil,
		"embeddings", a.providers.Embeddings != nil,
		"suggest", a.providers.Suggest != nil,
	)
	return g.Wait()
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown tears down all subsystems in order. It respects the context
// deadline: if ctx expires before all closers finish, remaining closers are
// skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
