package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// Kind classifies a validated inbound frame.
type Kind uint8

const (
	// KindData is a measurement frame. Active reports and query replies
	// are byte-identical on the wire, so both decode to this kind.
	KindData Kind = iota

	// KindAck is a command acknowledgement/info frame.
	KindAck
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindAck:
		return "ack"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Frame is one complete, checksum-valid inbound protocol message. Frames
// are immutable values: a byte window that fails validation never
// materializes as a Frame, and consumers share frames without locking.
type Frame struct {
	// Kind discriminates measurement data from command acks
	Kind Kind

	// Payload holds the six checksum-covered bytes; the last two are
	// the device id
	Payload [PayloadSize]byte

	// DeviceID is the reporting device's 2-byte identifier
	DeviceID uint16

	// ReceivedAt is stamped by the reader task on arrival. It is zero
	// for frames decoded outside a live session.
	ReceivedAt time.Time
}

// Subtype returns the echoed command subtype of an ack frame. For data
// frames the value is the low PM2.5 byte and is meaningless.
func (f Frame) Subtype() byte {
	return f.Payload[0]
}

// String returns a debug representation of the frame.
func (f Frame) String() string {
	return fmt.Sprintf("Frame{kind=%s, payload=% 02x, device=0x%04x}",
		f.Kind, f.Payload[:], f.DeviceID)
}

// Decode errors. ErrNeedMoreData means the window ends before the frame
// does; ErrInvalidFrame means the window cannot begin a valid frame and
// the caller should advance. Neither is ever surfaced past the scanner.
var (
	ErrNeedMoreData = errors.New("need more data")
	ErrInvalidFrame = errors.New("invalid frame")
)

// Decode parses the frame at the start of window and returns it together
// with the number of bytes consumed. The window must begin at a head
// marker; a short window yields ErrNeedMoreData, anything malformed yields
// an error wrapping ErrInvalidFrame. Corrupted frames are reported, never
// repaired: a checksum mismatch always discards the frame.
func Decode(window []byte) (Frame, int, error) {
	if len(window) == 0 {
		return Frame{}, 0, ErrNeedMoreData
	}
	if window[0] != Head {
		return Frame{}, 0, fmt.Errorf("%w: bad head byte 0x%02x", ErrInvalidFrame, window[0])
	}
	if len(window) < 2 {
		return Frame{}, 0, ErrNeedMoreData
	}

	var kind Kind
	switch window[1] {
	case CmdData:
		kind = KindData
	case CmdAck:
		kind = KindAck
	default:
		return Frame{}, 0, fmt.Errorf("%w: unknown discriminator 0x%02x", ErrInvalidFrame, window[1])
	}

	if len(window) < FrameSize {
		return Frame{}, 0, ErrNeedMoreData
	}
	if window[FrameSize-1] != Tail {
		return Frame{}, 0, fmt.Errorf("%w: bad tail byte 0x%02x", ErrInvalidFrame, window[FrameSize-1])
	}
	if sum := Checksum(window[2 : 2+PayloadSize]); sum != window[FrameSize-2] {
		return Frame{}, 0, fmt.Errorf("%w: checksum mismatch: computed 0x%02x, received 0x%02x",
			ErrInvalidFrame, sum, window[FrameSize-2])
	}

	f := Frame{Kind: kind}
	copy(f.Payload[:], window[2:2+PayloadSize])
	f.DeviceID = binary.BigEndian.Uint16(window[6:8])
	return f, FrameSize, nil
}
