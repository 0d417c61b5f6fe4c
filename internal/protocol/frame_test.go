package protocol

import (
	"bytes"
	"errors"
	"testing"
)

// buildFrame assembles a checksum-correct inbound frame from its parts.
func buildFrame(cmd byte, payload [PayloadSize]byte) []byte {
	frame := make([]byte, FrameSize)
	frame[0] = Head
	frame[1] = cmd
	copy(frame[2:8], payload[:])
	frame[8] = Checksum(payload[:])
	frame[9] = Tail
	return frame
}

func dataFrameBytes(pm25, pm10, device uint16) []byte {
	var p [PayloadSize]byte
	p[0] = byte(pm25)
	p[1] = byte(pm25 >> 8)
	p[2] = byte(pm10)
	p[3] = byte(pm10 >> 8)
	p[4] = byte(device >> 8)
	p[5] = byte(device)
	return buildFrame(CmdData, p)
}

func ackFrameBytes(subtype, b1, b2, b3 byte, device uint16) []byte {
	var p [PayloadSize]byte
	p[0] = subtype
	p[1] = b1
	p[2] = b2
	p[3] = b3
	p[4] = byte(device >> 8)
	p[5] = byte(device)
	return buildFrame(CmdAck, p)
}

func TestDecodeDataFrame(t *testing.T) {
	// PM2.5 = 6.0 µg/m³, PM10 = 8.0 µg/m³, device 0xABAD.
	// Checksum = 0x3C + 0x50 + 0xAB + 0xAD = 0x1E4 & 0xFF = 0xE4.
	window := []byte{0xAA, 0xC0, 0x3C, 0x00, 0x50, 0x00, 0xAB, 0xAD, 0xE4, 0xAB}

	if got := buildFrame(CmdData, [PayloadSize]byte{0x3C, 0x00, 0x50, 0x00, 0xAB, 0xAD}); !bytes.Equal(got, window) {
		t.Fatalf("hand-computed frame = % 02x, want % 02x", window, got)
	}

	f, n, err := Decode(window)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if n != FrameSize {
		t.Errorf("consumed = %d, want %d", n, FrameSize)
	}
	if f.Kind != KindData {
		t.Errorf("kind = %s, want data", f.Kind)
	}
	if f.DeviceID != 0xABAD {
		t.Errorf("device = 0x%04x, want 0xABAD", f.DeviceID)
	}

	r, err := ParseReading(f)
	if err != nil {
		t.Fatalf("ParseReading() error = %v", err)
	}
	if r.PM25Raw != 60 {
		t.Errorf("pm25 raw = %d, want 60", r.PM25Raw)
	}
	if r.PM10Raw != 80 {
		t.Errorf("pm10 raw = %d, want 80", r.PM10Raw)
	}
}

func TestDecodeErrors(t *testing.T) {
	valid := dataFrameBytes(60, 80, 0xABAD)

	tests := []struct {
		name    string
		window  []byte
		wantErr error
	}{
		{"empty window", nil, ErrNeedMoreData},
		{"head only", []byte{Head}, ErrNeedMoreData},
		{"partial frame", valid[:7], ErrNeedMoreData},
		{"one byte short", valid[:FrameSize-1], ErrNeedMoreData},
		{"bad head", []byte{0x42, 0xC0}, ErrInvalidFrame},
		{"unknown discriminator", []byte{Head, 0xB4}, ErrInvalidFrame},
		{
			"bad tail",
			func() []byte {
				w := bytes.Clone(valid)
				w[FrameSize-1] = 0x00
				return w
			}(),
			ErrInvalidFrame,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, n, err := Decode(tt.window)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Decode() error = %v, want %v", err, tt.wantErr)
			}
			if n != 0 {
				t.Errorf("consumed = %d, want 0", n)
			}
		})
	}
}

// Flipping any single checksum-covered byte (or the checksum itself) must
// reject the frame rather than produce a different valid one.
func TestDecodeChecksumRejection(t *testing.T) {
	valid := ackFrameBytes(SubtypeWorkingPeriod, 0x01, 10, 0x00, 0xABCD)

	for i := 2; i <= FrameSize-2; i++ {
		corrupted := bytes.Clone(valid)
		corrupted[i] ^= 0x01

		_, _, err := Decode(corrupted)
		if !errors.Is(err, ErrInvalidFrame) {
			t.Errorf("byte %d flipped: Decode() error = %v, want ErrInvalidFrame", i, err)
		}
	}
}

func TestDecodeAckFrame(t *testing.T) {
	window := ackFrameBytes(SubtypeReportingMode, 0x01, 0x01, 0x00, 0x1234)

	f, _, err := Decode(window)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if f.Kind != KindAck {
		t.Errorf("kind = %s, want ack", f.Kind)
	}
	if f.Subtype() != SubtypeReportingMode {
		t.Errorf("subtype = 0x%02x, want 0x%02x", f.Subtype(), SubtypeReportingMode)
	}
	if f.DeviceID != 0x1234 {
		t.Errorf("device = 0x%04x, want 0x1234", f.DeviceID)
	}
}
