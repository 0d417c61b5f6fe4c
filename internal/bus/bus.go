// Package bus decouples the reader goroutine from frame consumers. The
// reader publishes every validated frame; command correlation and
// measurement watchers subscribe independently.
package bus

import (
	"sync"

	"go.uber.org/zap"

	"github.com/cskr/pubsub"

	"github.com/finehaze/sds011/internal/protocol"
)

// TopicFrames carries every inbound frame in stream order.
const TopicFrames = "frames"

// subscriberBuffer bounds each subscription channel. A subscriber that
// falls this far behind starts losing the newest frames.
const subscriberBuffer = 128

// Bus is a shutdown-safe wrapper around cskr/pubsub. The underlying
// PubSub blocks forever on any operation after Shutdown, so every method
// checks the closed flag under the mutex first.
type Bus struct {
	mu     sync.Mutex
	closed bool
	ps     *pubsub.PubSub
	log    *zap.Logger
}

// New returns a running bus.
func New(log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		ps:  pubsub.New(subscriberBuffer),
		log: log,
	}
}

// PublishFrame delivers f to current subscribers without blocking.
// Frames for subscribers with full buffers are dropped. Publishing on a
// closed bus is a no-op.
func (b *Bus) PublishFrame(f protocol.Frame) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.ps.TryPub(f, TopicFrames)
}

// SubscribeFrames returns a channel of inbound frames. The channel is
// closed when the bus shuts down. Subscribing to a closed bus returns an
// already-closed channel.
func (b *Bus) SubscribeFrames() chan any {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		ch := make(chan any)
		close(ch)
		return ch
	}
	b.log.Debug("bus subscribe", zap.String("topic", TopicFrames))
	return b.ps.Sub(TopicFrames)
}

// Unsubscribe detaches ch and drains it. No-op on a closed bus, where
// shutdown already closed every subscription.
func (b *Bus) Unsubscribe(ch chan any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.ps.Unsub(ch, TopicFrames)
}

// Close shuts the bus down and closes all subscription channels.
// Idempotent.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.ps.Shutdown()
}
