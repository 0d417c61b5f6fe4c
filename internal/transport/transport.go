// Package transport provides the byte-level link to a sensor. A transport
// carries raw duplex bytes only; frame boundaries are recovered upstream
// by the protocol scanner.
package transport

// Transport is a raw duplex byte link. Read may return (0, nil) when the
// underlying link has a read timeout and no bytes arrived, so callers
// must treat a zero-byte read as a normal poll result. Write must either
// deliver the whole buffer or return an error.
type Transport interface {
	Read(p []byte) (int, error)
	Write(p []byte) error
	Close() error
}
