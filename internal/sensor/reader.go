package sensor

import (
	"time"

	"go.uber.org/zap"

	"github.com/finehaze/sds011/internal/logging"
	"github.com/finehaze/sds011/internal/protocol"
)

// readChunkSize comfortably covers several 10-byte frames per poll at
// 9600 baud.
const readChunkSize = 64

// readLoop is the single goroutine that touches the transport's read
// side. It recovers frame boundaries from the byte stream and publishes
// every validated frame onto the bus. A read error ends the session
// unless a close is already in progress.
func (s *Session) readLoop() {
	defer close(s.readerDone)

	scanner := protocol.NewScanner()
	buf := make([]byte, readChunkSize)

	for {
		n, err := s.tr.Read(buf)
		if err != nil {
			if s.closed.Load() {
				return
			}
			s.fail(NewTransportError("serial read failed", err))
			return
		}
		if n == 0 {
			// Read timeout expired with no data.
			if s.closed.Load() {
				return
			}
			continue
		}
		logging.LogRawBytes("serial read", buf[:n])

		for _, f := range scanner.Feed(buf[:n]) {
			f.ReceivedAt = time.Now()
			s.log.Debug("frame received",
				zap.Stringer("kind", f.Kind),
				zap.Uint16("device_id", f.DeviceID),
			)
			s.bus.PublishFrame(f)
		}
	}
}
