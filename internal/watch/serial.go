// Package watch connects the physical leave sensor to the event broker.
//
// The reference sensor is a microcontroller by the front door that prints one
// frame per detection on its USB serial port. Other sources (GPIO, MQTT) can
// publish to the broker directly; this package only deals with serial.
package watch

import (
	"bufio"
	"context"
	"strings"
	"time"

	"go.bug.st/serial"

	"github.com/cboiteux2765/AIDoorGuard/internal/event"
	"github.com/cboiteux2765/AIDoorGuard/internal/observe"
)

// leavingFrame is the line the sensor firmware prints when it detects
// someone heading for the door.
const leavingFrame = "EVENT:LEAVING"

const (
	defaultBaudRate       = 115200
	defaultReconnectDelay = 3 * time.Second
)

// SerialOption is a functional option for SerialWatcher.
type SerialOption func(*SerialWatcher)

// WithBaudRate overrides the serial baud rate. Default: 115200.
func WithBaudRate(baud int) SerialOption {
	return func(w *SerialWatcher) {
		if baud > 0 {
			w.mode.BaudRate = baud
		}
	}
}

// WithReconnectDelay sets the wait between reconnect attempts after the port
// fails to open or drops. Default: 3s.
func WithReconnectDelay(d time.Duration) SerialOption {
	return func(w *SerialWatcher) {
		if d > 0 {
			w.reconnectDelay = d
		}
	}
}

// WithMetrics attaches watcher metrics. When nil, nothing is recorded.
func WithMetrics(m *observe.Metrics) SerialOption {
	return func(w *SerialWatcher) {
		w.metrics = m
	}
}

// SerialWatcher reads sensor frames from a serial port and publishes leave
// events to the broker. It keeps retrying when the port is absent, so the
// service starts fine before the sensor is plugged in.
type SerialWatcher struct {
	port           string
	mode           serial.Mode
	reconnectDelay time.Duration
	broker         *event.Broker
	metrics        *observe.Metrics

	// open is swapped out in tests.
	open func() (serial.Port, error)
}

// NewSerialWatcher creates a watcher for the named port (e.g. "/dev/ttyUSB0",
// "COM5").
func NewSerialWatcher(port string, broker *event.Broker, opts ...SerialOption) *SerialWatcher {
	w := &SerialWatcher{
		port:           port,
		mode:           serial.Mode{BaudRate: defaultBaudRate},
		reconnectDelay: defaultReconnectDelay,
		broker:         broker,
	}
	w.open = func() (serial.Port, error) {
		return serial.Open(w.port, &w.mode)
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Run opens the port and consumes frames until ctx is cancelled. Open
// failures and dropped connections are logged and retried after the
// reconnect delay. Run always returns nil; a missing sensor must not take
// down the rest of the service.
func (w *SerialWatcher) Run(ctx context.Context) error {
	log := observe.Logger(ctx).With("port", w.port)

	for {
		if ctx.Err() != nil {
			return nil
		}

		port, err := w.open()
		if err != nil {
			log.Warn("serial port unavailable, retrying", "err", err, "delay", w.reconnectDelay)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(w.reconnectDelay):
			}
			continue
		}

		log.Info("serial port opened", "baud", w.mode.BaudRate)
		w.consume(ctx, port)

		if ctx.Err() != nil {
			return nil
		}
		log.Warn("serial connection lost, reconnecting", "delay", w.reconnectDelay)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.reconnectDelay):
		}
	}
}

// consume reads lines from the open port until it errors or ctx is
// cancelled. The port is closed on return; a goroutine closes it early on
// cancellation to unblock the reader.
func (w *SerialWatcher) consume(ctx context.Context, port serial.Port) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			port.Close()
		case <-done:
		}
	}()
	defer port.Close()

	scanner := bufio.NewScanner(port)
	for scanner.Scan() {
		w.handleLine(ctx, scanner.Text())
	}
}

// handleLine processes one frame from the sensor. Unknown frames are logged
// at debug level and ignored, which lets the firmware print boot banners and
// diagnostics on the same port.
func (w *SerialWatcher) handleLine(ctx context.Context, line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if line != leavingFrame {
		observe.Logger(ctx).Debug("ignoring unknown sensor frame", "frame", line)
		return
	}

	ev := event.Leaving(time.Now())
	delivered := w.broker.Publish(ev)
	if w.metrics != nil {
		w.metrics.LeaveEvents.Add(ctx, 1)
	}
	observe.Logger(ctx).Info("leave event published", "subscribers", delivered)
}
