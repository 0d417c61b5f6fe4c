package sensor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/finehaze/sds011/internal/bus"
	"github.com/finehaze/sds011/internal/protocol"
	"github.com/finehaze/sds011/internal/transport"
)

const (
	// DefaultTimeout is the per-attempt reply window.
	DefaultTimeout = 500 * time.Millisecond

	// DefaultAttempts is how many times a command is sent before the
	// operation fails with a timeout.
	DefaultAttempts = 5
)

// Options configures a Session. The zero value targets all devices with
// the default retry budget.
type Options struct {
	// Timeout is the per-attempt reply window. Zero means DefaultTimeout.
	Timeout time.Duration

	// Attempts is the retry budget per operation. Zero means
	// DefaultAttempts.
	Attempts int

	// TargetID addresses commands to one device. Nil broadcasts, which
	// keeps 0x0000 usable as a real device id.
	TargetID *uint16

	// StrictDeviceID rejects replies from devices other than TargetID.
	// Has no effect when TargetID is nil or the broadcast address.
	StrictDeviceID bool

	// Logger for session internals. Nil means no logging.
	Logger *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Attempts <= 0 {
		o.Attempts = DefaultAttempts
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Session is an open connection to one sensor. All methods are safe for
// concurrent use; commands are serialized internally.
type Session struct {
	tr   transport.Transport
	bus  *bus.Bus
	corr *correlator
	log  *zap.Logger
	opts Options

	// target is the resolved command address: *opts.TargetID, or the
	// broadcast id when none was given.
	target uint16

	cfgMu sync.RWMutex
	cfg   DeviceConfig

	done       chan struct{}
	doneOnce   sync.Once
	readerDone chan struct{}
	closeOnce  sync.Once
	closed     atomic.Bool

	fatalMu  sync.Mutex
	fatalErr error
}

// Open connects to the sensor on a serial port and starts the session.
func Open(portName string, baudRate int, opts Options) (*Session, error) {
	if baudRate <= 0 {
		baudRate = transport.DefaultBaudRate
	}
	tr := transport.NewSerial(portName, baudRate)
	if err := tr.Connect(); err != nil {
		return nil, NewTransportError("connect failed", err)
	}
	return New(tr, opts), nil
}

// New starts a session over an already-connected transport. The session
// takes ownership of the transport and closes it on Close.
func New(tr transport.Transport, opts Options) *Session {
	opts = opts.withDefaults()

	s := &Session{
		tr:         tr,
		log:        opts.Logger,
		opts:       opts,
		target:     protocol.BroadcastID,
		done:       make(chan struct{}),
		readerDone: make(chan struct{}),
	}
	if opts.TargetID != nil {
		s.target = *opts.TargetID
	}
	s.bus = bus.New(opts.Logger)
	s.corr = newCorrelator(tr, s.bus, opts.Logger, s.done, s.Err)

	go s.readLoop()
	return s
}

// Close stops the reader, closes the transport, and releases all Watch
// subscribers. Idempotent.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		err = s.tr.Close()
		<-s.readerDone
		s.signalDone()
		s.bus.Close()
	})
	return err
}

// Err reports the fatal error that ended the session, if any. Nil while
// the session is healthy or after a clean Close.
func (s *Session) Err() error {
	s.fatalMu.Lock()
	defer s.fatalMu.Unlock()
	return s.fatalErr
}

// Config returns a snapshot of the last known device state. Fields are
// populated as operations complete.
func (s *Session) Config() DeviceConfig {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// fail records the reader's fatal error and tears the session down.
func (s *Session) fail(err error) {
	s.fatalMu.Lock()
	if s.fatalErr == nil {
		s.fatalErr = err
	}
	s.fatalMu.Unlock()

	s.log.Error("session failed", zap.Error(err))
	s.signalDone()
	s.bus.Close()
}

func (s *Session) signalDone() {
	s.doneOnce.Do(func() { close(s.done) })
}

// deviceMatch reports whether a reply from the given device id is
// acceptable under the session's addressing options.
func (s *Session) deviceMatch(id uint16) bool {
	if !s.strictTarget() {
		return true
	}
	return id == s.target
}

// strictTarget reports whether replies must carry the configured target
// id. Broadcast sessions accept any responder.
func (s *Session) strictTarget() bool {
	return s.opts.StrictDeviceID && s.opts.TargetID != nil && s.target != protocol.BroadcastID
}

// ackMatcher accepts the ack frame answering a command of the given
// subtype.
func (s *Session) ackMatcher(subtype byte) func(protocol.Frame) bool {
	return func(f protocol.Frame) bool {
		return f.Kind == protocol.KindAck && f.Subtype() == subtype && s.deviceMatch(f.DeviceID)
	}
}

func (s *Session) send(ctx context.Context, cmd protocol.Command, match func(protocol.Frame) bool) (protocol.Frame, error) {
	return s.corr.sendAndWait(ctx, cmd, match, s.opts.Timeout, s.opts.Attempts)
}

func (s *Session) updateConfig(update func(*DeviceConfig)) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	update(&s.cfg)
}

// QueryMeasurement asks the sensor for its current reading. The answer
// is a measurement data frame, not an ack.
func (s *Session) QueryMeasurement(ctx context.Context) (Measurement, error) {
	match := func(f protocol.Frame) bool {
		return f.Kind == protocol.KindData && s.deviceMatch(f.DeviceID)
	}
	f, err := s.send(ctx, protocol.QueryCommand(s.target), match)
	if err != nil {
		return Measurement{}, fmt.Errorf("query measurement: %w", err)
	}
	m, err := measurementFromFrame(f)
	if err != nil {
		return Measurement{}, fmt.Errorf("query measurement: %w", err)
	}
	s.updateConfig(func(c *DeviceConfig) { c.DeviceID = m.DeviceID })
	return m, nil
}

// SetReportingMode switches the sensor between active push and
// query-only reporting.
func (s *Session) SetReportingMode(ctx context.Context, mode ReportingMode) error {
	cmd := protocol.ReportingModeCommand(true, byte(mode), s.target)
	f, err := s.send(ctx, cmd, s.ackMatcher(protocol.SubtypeReportingMode))
	if err != nil {
		return fmt.Errorf("set reporting mode: %w", err)
	}
	ack, err := protocol.ParseModeAck(f)
	if err != nil {
		return fmt.Errorf("set reporting mode: %w", err)
	}
	s.updateConfig(func(c *DeviceConfig) {
		c.ReportingMode = ReportingMode(ack.Value)
		c.DeviceID = ack.DeviceID
	})
	return nil
}

// QueryReportingMode reads the current reporting mode without changing
// it.
func (s *Session) QueryReportingMode(ctx context.Context) (ReportingMode, error) {
	cmd := protocol.ReportingModeCommand(false, 0, s.target)
	f, err := s.send(ctx, cmd, s.ackMatcher(protocol.SubtypeReportingMode))
	if err != nil {
		return 0, fmt.Errorf("query reporting mode: %w", err)
	}
	ack, err := protocol.ParseModeAck(f)
	if err != nil {
		return 0, fmt.Errorf("query reporting mode: %w", err)
	}
	mode := ReportingMode(ack.Value)
	s.updateConfig(func(c *DeviceConfig) {
		c.ReportingMode = mode
		c.DeviceID = ack.DeviceID
	})
	return mode, nil
}

// SetWorkMode wakes the sensor or puts it to sleep.
func (s *Session) SetWorkMode(ctx context.Context, mode WorkMode) error {
	cmd := protocol.WorkModeCommand(true, byte(mode), s.target)
	f, err := s.send(ctx, cmd, s.ackMatcher(protocol.SubtypeWorkMode))
	if err != nil {
		return fmt.Errorf("set work mode: %w", err)
	}
	ack, err := protocol.ParseModeAck(f)
	if err != nil {
		return fmt.Errorf("set work mode: %w", err)
	}
	s.updateConfig(func(c *DeviceConfig) {
		c.WorkMode = WorkMode(ack.Value)
		c.DeviceID = ack.DeviceID
	})
	return nil
}

// QueryWorkMode reads the current work mode without changing it.
func (s *Session) QueryWorkMode(ctx context.Context) (WorkMode, error) {
	cmd := protocol.WorkModeCommand(false, 0, s.target)
	f, err := s.send(ctx, cmd, s.ackMatcher(protocol.SubtypeWorkMode))
	if err != nil {
		return 0, fmt.Errorf("query work mode: %w", err)
	}
	ack, err := protocol.ParseModeAck(f)
	if err != nil {
		return 0, fmt.Errorf("query work mode: %w", err)
	}
	mode := WorkMode(ack.Value)
	s.updateConfig(func(c *DeviceConfig) {
		c.WorkMode = mode
		c.DeviceID = ack.DeviceID
	})
	return mode, nil
}

// SetWorkingPeriod sets the measurement duty cycle in minutes, 0 to 30.
// The range is validated before anything is written to the device.
func (s *Session) SetWorkingPeriod(ctx context.Context, minutes int) error {
	period, err := NewWorkingPeriod(minutes)
	if err != nil {
		return fmt.Errorf("set working period: %w", err)
	}

	cmd := protocol.WorkingPeriodCommand(true, byte(period), s.target)
	f, err := s.send(ctx, cmd, s.ackMatcher(protocol.SubtypeWorkingPeriod))
	if err != nil {
		return fmt.Errorf("set working period: %w", err)
	}
	ack, err := protocol.ParsePeriodAck(f)
	if err != nil {
		return fmt.Errorf("set working period: %w", err)
	}
	s.updateConfig(func(c *DeviceConfig) {
		c.WorkingPeriod = WorkingPeriod(ack.Period)
		c.DeviceID = ack.DeviceID
	})
	return nil
}

// QueryWorkingPeriod reads the current duty cycle without changing it.
func (s *Session) QueryWorkingPeriod(ctx context.Context) (WorkingPeriod, error) {
	cmd := protocol.WorkingPeriodCommand(false, 0, s.target)
	f, err := s.send(ctx, cmd, s.ackMatcher(protocol.SubtypeWorkingPeriod))
	if err != nil {
		return 0, fmt.Errorf("query working period: %w", err)
	}
	ack, err := protocol.ParsePeriodAck(f)
	if err != nil {
		return 0, fmt.Errorf("query working period: %w", err)
	}
	period := WorkingPeriod(ack.Period)
	s.updateConfig(func(c *DeviceConfig) {
		c.WorkingPeriod = period
		c.DeviceID = ack.DeviceID
	})
	return period, nil
}

// GetInfo fetches the firmware version and returns the session's
// accumulated device state.
func (s *Session) GetInfo(ctx context.Context) (DeviceConfig, error) {
	cmd := protocol.FirmwareVersionCommand(s.target)
	f, err := s.send(ctx, cmd, s.ackMatcher(protocol.SubtypeFirmwareVersion))
	if err != nil {
		return DeviceConfig{}, fmt.Errorf("get info: %w", err)
	}
	ack, err := protocol.ParseFirmwareAck(f)
	if err != nil {
		return DeviceConfig{}, fmt.Errorf("get info: %w", err)
	}
	s.updateConfig(func(c *DeviceConfig) {
		c.Firmware = FirmwareVersion{Year: ack.Year, Month: ack.Month, Day: ack.Day}
		c.DeviceID = ack.DeviceID
	})
	return s.Config(), nil
}

// SetDeviceID reassigns the sensor's device id. The ack carries the new
// id, so in strict mode the matcher accepts the new id rather than the
// session target.
func (s *Session) SetDeviceID(ctx context.Context, newID uint16) error {
	match := func(f protocol.Frame) bool {
		if f.Kind != protocol.KindAck || f.Subtype() != protocol.SubtypeSetDeviceID {
			return false
		}
		if s.strictTarget() {
			return f.DeviceID == newID
		}
		return true
	}

	cmd := protocol.SetDeviceIDCommand(newID, s.target)
	f, err := s.send(ctx, cmd, match)
	if err != nil {
		return fmt.Errorf("set device id: %w", err)
	}
	ack, err := protocol.ParseDeviceIDAck(f)
	if err != nil {
		return fmt.Errorf("set device id: %w", err)
	}
	s.updateConfig(func(c *DeviceConfig) { c.DeviceID = ack.DeviceID })
	return nil
}

// Watch streams measurements as they arrive, both active reports and
// query replies. The channel closes when ctx is cancelled or the session
// ends.
func (s *Session) Watch(ctx context.Context) <-chan Measurement {
	out := make(chan Measurement)
	sub := s.bus.SubscribeFrames()

	go func() {
		defer close(out)
		defer s.bus.Unsubscribe(sub)

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			case msg, ok := <-sub:
				if !ok {
					return
				}
				f, ok := msg.(protocol.Frame)
				if !ok || f.Kind != protocol.KindData || !s.deviceMatch(f.DeviceID) {
					continue
				}
				m, err := measurementFromFrame(f)
				if err != nil {
					continue
				}
				select {
				case out <- m:
				case <-ctx.Done():
					return
				case <-s.done:
					return
				}
			}
		}
	}()

	return out
}
