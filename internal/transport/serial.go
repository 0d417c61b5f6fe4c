package transport

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate is the fixed rate the SDS011 speaks.
const DefaultBaudRate = 9600

// The read timeout keeps reader loops responsive to shutdown. An expired
// timeout surfaces as a zero-byte read, not an error.
const defaultReadTimeout = 300 * time.Millisecond

// Serial is a Transport over a local serial port.
type Serial struct {
	portName string
	baudRate int

	mu      sync.Mutex
	port    serial.Port
	writeMu sync.Mutex
}

// NewSerial returns an unconnected serial transport for the given port.
func NewSerial(portName string, baudRate int) *Serial {
	return &Serial{
		portName: portName,
		baudRate: baudRate,
	}
}

// PortName returns the configured device path.
func (t *Serial) PortName() string {
	return t.portName
}

// Connect opens the port with 8N1 framing. Connecting an already
// connected transport is a no-op.
func (t *Serial) Connect() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port != nil {
		return nil
	}
	if t.portName == "" {
		return errors.New("serial port is empty")
	}
	if t.baudRate <= 0 {
		return fmt.Errorf("invalid serial baud rate: %d", t.baudRate)
	}

	port, err := serial.Open(t.portName, &serial.Mode{
		BaudRate: t.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return fmt.Errorf("open serial port %q: %w", t.portName, err)
	}
	if err := port.SetReadTimeout(defaultReadTimeout); err != nil {
		_ = port.Close()
		return fmt.Errorf("set serial read timeout: %w", err)
	}
	t.port = port

	return nil
}

// Read reads whatever bytes are available, up to len(p). Returns (0, nil)
// when the read timeout expires without data.
func (t *Serial) Read(p []byte) (int, error) {
	port, err := t.currentPort()
	if err != nil {
		return 0, err
	}
	return port.Read(p)
}

// Write delivers the whole buffer to the port.
func (t *Serial) Write(p []byte) error {
	port, err := t.currentPort()
	if err != nil {
		return err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	return writeFull(port, p)
}

// Close closes the port. Closing an unconnected transport is a no-op.
func (t *Serial) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	return err
}

func (t *Serial) currentPort() (serial.Port, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return nil, errors.New("transport is not connected")
	}
	return t.port, nil
}

func writeFull(port serial.Port, buf []byte) error {
	written := 0
	for written < len(buf) {
		n, err := port.Write(buf[written:])
		if err != nil {
			return fmt.Errorf("write serial: %w", err)
		}
		if n == 0 {
			continue
		}
		written += n
	}
	return nil
}
