package watch

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"go.bug.st/serial"

	"github.com/cboiteux2765/AIDoorGuard/internal/event"
)

// fakePort plays back a fixed set of frames and then reports EOF. Only the
// methods the watcher actually uses are implemented; the embedded interface
// panics on anything else.
type fakePort struct {
	serial.Port
	r         io.Reader
	closeOnce sync.Once
	closed    chan struct{}
}

func newFakePort(frames string) *fakePort {
	return &fakePort{
		r:      strings.NewReader(frames),
		closed: make(chan struct{}),
	}
}

func (p *fakePort) Read(b []byte) (int, error) {
	select {
	case <-p.closed:
		return 0, io.EOF
	default:
	}
	return p.r.Read(b)
}

func (p *fakePort) Close() error {
	p.closeOnce.Do(func() { close(p.closed) })
	return nil
}

func TestHandleLine(t *testing.T) {
	t.Parallel()

	broker := event.NewBroker()
	_, ch := broker.Subscribe()
	w := NewSerialWatcher("/dev/null", broker)

	ctx := context.Background()
	w.handleLine(ctx, "boot: sensor v1.3")
	w.handleLine(ctx, "")
	w.handleLine(ctx, "  EVENT:LEAVING  ")

	select {
	case ev := <-ch:
		if ev.Type != event.TypeLeaving {
			t.Errorf("event type = %q, want %q", ev.Type, event.TypeLeaving)
		}
		if ev.TS <= 0 {
			t.Errorf("event TS = %f, want > 0", ev.TS)
		}
	default:
		t.Fatal("no event published for leaving frame")
	}

	select {
	case ev := <-ch:
		t.Fatalf("unexpected extra event %+v", ev)
	default:
	}
}

func TestRunPublishesAndReconnects(t *testing.T) {
	t.Parallel()

	broker := event.NewBroker()
	_, ch := broker.Subscribe()

	w := NewSerialWatcher("/dev/ttyUSB0", broker, WithReconnectDelay(5*time.Millisecond))

	var mu sync.Mutex
	opens := 0
	w.open = func() (serial.Port, error) {
		mu.Lock()
		defer mu.Unlock()
		opens++
		if opens == 1 {
			return newFakePort("garbage\nEVENT:LEAVING\n"), nil
		}
		return nil, errors.New("device gone")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case ev := <-ch:
		if ev.Type != event.TypeLeaving {
			t.Errorf("event type = %q, want %q", ev.Type, event.TypeLeaving)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for leave event")
	}

	// Give the watcher a moment to hit the failing reopen path.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	if opens < 2 {
		t.Errorf("open attempts = %d, want at least 2 (reconnect)", opens)
	}
}

func TestRunStopsWhileWaitingForPort(t *testing.T) {
	t.Parallel()

	w := NewSerialWatcher("/dev/ttyUSB0", event.NewBroker(), WithReconnectDelay(time.Hour))
	w.open = func() (serial.Port, error) { return nil, errors.New("no such device") }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
