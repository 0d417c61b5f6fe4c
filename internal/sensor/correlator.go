package sensor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/finehaze/sds011/internal/bus"
	"github.com/finehaze/sds011/internal/protocol"
	"github.com/finehaze/sds011/internal/transport"
)

// correlator pairs outbound commands with the inbound frames that answer
// them. One command is in flight at a time; concurrent callers queue on
// the mutex. The subscription is taken before the first write so an
// answer arriving between write and wait cannot be lost.
type correlator struct {
	tr    transport.Transport
	bus   *bus.Bus
	log   *zap.Logger
	done  <-chan struct{}
	fatal func() error

	mu sync.Mutex

	// after is time.After unless a test injects its own clock.
	after func(time.Duration) <-chan time.Time
}

func newCorrelator(tr transport.Transport, b *bus.Bus, log *zap.Logger, done <-chan struct{}, fatal func() error) *correlator {
	return &correlator{
		tr:    tr,
		bus:   b,
		log:   log,
		done:  done,
		fatal: fatal,
		after: time.After,
	}
}

// sendAndWait writes cmd and waits for a frame accepted by match,
// retrying with a fresh timeout window on each attempt. Frames that do
// not match (measurements, acks for other devices) are skipped without
// consuming the attempt's window.
func (c *correlator) sendAndWait(ctx context.Context, cmd protocol.Command, match func(protocol.Frame) bool, timeout time.Duration, attempts int) (protocol.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub := c.bus.SubscribeFrames()
	defer c.bus.Unsubscribe(sub)

	encoded := cmd.Encode()
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := c.sessionError(); err != nil {
			return protocol.Frame{}, err
		}

		if err := c.tr.Write(encoded); err != nil {
			return protocol.Frame{}, NewTransportError("serial write failed", err)
		}
		c.log.Debug("command sent",
			zap.Uint8("subtype", cmd.Subtype),
			zap.Int("attempt", attempt),
		)

		deadline := c.after(timeout)
	wait:
		for {
			select {
			case <-ctx.Done():
				return protocol.Frame{}, ctx.Err()
			case <-c.done:
				return protocol.Frame{}, c.sessionError()
			case msg, ok := <-sub:
				if !ok {
					return protocol.Frame{}, c.sessionError()
				}
				f, ok := msg.(protocol.Frame)
				if !ok {
					continue
				}
				if match(f) {
					return f, nil
				}
			case <-deadline:
				break wait
			}
		}
	}

	return protocol.Frame{}, NewTimeoutError(
		fmt.Sprintf("no reply to command 0x%02x after %d attempts", cmd.Subtype, attempts))
}

// sessionError reports why the session is unusable, preferring the
// reader's fatal error over a generic closed error.
func (c *correlator) sessionError() error {
	select {
	case <-c.done:
		if err := c.fatal(); err != nil {
			return err
		}
		return NewClosedError("session is closed")
	default:
		return nil
	}
}
