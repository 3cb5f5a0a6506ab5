// Package httpapi exposes the door assistant over HTTP: audio upload and
// checklist generation, leave-event streaming (SSE and WebSocket), the
// embedded browser client, Prometheus metrics, and health probes.
package httpapi

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cboiteux2765/AIDoorGuard/internal/checklist"
	"github.com/cboiteux2765/AIDoorGuard/internal/event"
	"github.com/cboiteux2765/AIDoorGuard/internal/health"
	"github.com/cboiteux2765/AIDoorGuard/internal/observe"
	"github.com/cboiteux2765/AIDoorGuard/pkg/provider/stt"
)

//go:embed static
var staticFS embed.FS

const (
	// maxUploadBytes caps the audio clip size. A minute of 16-bit 48 kHz
	// mono WAV is under 6 MiB; anything bigger is not a door-side clip.
	maxUploadBytes = 16 << 20

	defaultTranscribeTimeout = 30 * time.Second
	heartbeatInterval        = 15 * time.Second
)

// Runner produces a checklist result for a transcript. *checklist.Pipeline
// satisfies it; the app layer wraps it to allow config hot-reload.
type Runner interface {
	Run(ctx context.Context, transcript string) checklist.Result
}

// Option is a functional option for Server.
type Option func(*Server)

// WithSTT sets the speech-to-text provider. Without one, audio uploads
// return an error result.
func WithSTT(p stt.Provider) Option {
	return func(s *Server) { s.stt = p }
}

// WithMetrics attaches server metrics. When nil, nothing is recorded.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithHealth registers the given health handler's probe routes.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) { s.health = h }
}

// WithTranscribeTimeout bounds a single transcription call. Default: 30s.
func WithTranscribeTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.transcribeTimeout = d
		}
	}
}

// Server is the HTTP front of the door assistant.
type Server struct {
	addr     string
	runner   Runner
	broker   *event.Broker
	stt      stt.Provider
	metrics  *observe.Metrics
	health   *health.Handler
	tlsCert  string
	tlsKey   string
	handler  http.Handler
	httpSrv  *http.Server

	transcribeTimeout time.Duration
}

// NewServer builds the HTTP server and its routes. runner and broker must be
// non-nil.
func NewServer(addr string, runner Runner, broker *event.Broker, opts ...Option) (*Server, error) {
	if runner == nil {
		return nil, errors.New("httpapi: runner must not be nil")
	}
	if broker == nil {
		return nil, errors.New("httpapi: broker must not be nil")
	}

	s := &Server{
		addr:              addr,
		runner:            runner,
		broker:            broker,
		transcribeTimeout: defaultTranscribeTimeout,
	}
	for _, o := range opts {
		o(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /audio_suggest", s.handleAudioSuggest)
	mux.HandleFunc("GET /events/stream", s.handleEventStream)
	mux.HandleFunc("GET /events/ws", s.handleEventWS)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /{$}", s.handleIndex)
	if s.health != nil {
		s.health.Register(mux)
	}

	if s.metrics != nil {
		s.handler = observe.Middleware(s.metrics)(mux)
	} else {
		s.handler = mux
	}
	return s, nil
}

// UseTLS makes Run serve HTTPS with the given certificate pair.
func (s *Server) UseTLS(certFile, keyFile string) {
	s.tlsCert = certFile
	s.tlsKey = keyFile
}

// Handler returns the root handler, middleware included. Exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if s.tlsCert != "" {
			err = s.httpSrv.ListenAndServeTLS(s.tlsCert, s.tlsKey)
		} else {
			err = s.httpSrv.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("httpapi: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(shutdownCtx)
}

// ── Handlers ─────────────────────────────────────────────────────────────────

// handleAudioSuggest accepts a multipart upload with an "audio" file part,
// transcribes it, and runs the checklist pipeline. Pipeline-level failures
// (no provider, transcription error) come back as 200 responses with an
// error-mode result so the client can show the message; only malformed
// requests get a 4xx.
func (s *Server) handleAudioSuggest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("audio")
	if err != nil {
		http.Error(w, `{"error":"multipart field 'audio' is required"}`, http.StatusBadRequest)
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, `{"error":"failed to read audio upload"}`, http.StatusBadRequest)
		return
	}

	if s.stt == nil {
		writeJSON(w, http.StatusOK, checklist.Result{
			Transcript: "",
			Items:      []string{},
			Mode:       checklist.ModeError,
			Message:    "Speech-to-text is not configured. Set providers.stt and restart the server.",
		})
		return
	}

	tctx, cancel := context.WithTimeout(ctx, s.transcribeTimeout)
	start := time.Now()
	transcript, err := s.stt.Transcribe(tctx, audio, header.Filename)
	cancel()
	if s.metrics != nil {
		s.metrics.TranscribeDuration.Record(ctx, time.Since(start).Seconds())
	}
	if err != nil {
		observe.Logger(ctx).Warn("transcription failed", "err", err, "filename", header.Filename)
		writeJSON(w, http.StatusOK, checklist.Result{
			Transcript: "",
			Items:      []string{},
			Mode:       checklist.ModeError,
			Message:    "Transcription failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, s.runner.Run(ctx, transcript))
}

// handleEventStream serves leave events as server-sent events. Heartbeat
// comments keep intermediaries from closing the idle connection.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	id, ch := s.broker.Subscribe()
	defer s.broker.Unsubscribe(id)
	s.trackSubscriber(ctx, 1)
	defer s.trackSubscriber(ctx, -1)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ":\n\n")
			flusher.Flush()
		case ev, open := <-ch:
			if !open {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				observe.Logger(ctx).Error("marshal event", "err", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

// handleEventWS serves leave events over a WebSocket, one JSON object per
// message. Useful for clients behind proxies that buffer SSE.
func (s *Server) handleEventWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		observe.Logger(r.Context()).Warn("websocket accept failed", "err", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	id, ch := s.broker.Subscribe()
	defer s.broker.Unsubscribe(id)
	s.trackSubscriber(ctx, 1)
	defer s.trackSubscriber(ctx, -1)

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "server shutting down")
			return
		case ev, open := <-ch:
			if !open {
				conn.Close(websocket.StatusNormalClosure, "stream closed")
				return
			}
			wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(wctx, conn, ev)
			cancel()
			if err != nil {
				observe.Logger(ctx).Debug("websocket write failed, dropping client", "err", err)
				return
			}
		}
	}
}

// handleIndex serves the embedded browser client.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "client not bundled", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func (s *Server) trackSubscriber(ctx context.Context, delta int64) {
	if s.metrics != nil {
		s.metrics.EventSubscribers.Add(ctx, delta)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encode response"}`, http.StatusInternalServerError)
	}
}
