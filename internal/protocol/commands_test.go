package protocol

import (
	"bytes"
	"testing"
)

// Golden frame from the device datasheet: query command broadcast to any
// device. Checksum = 0x04 + 0xFF + 0xFF = 0x202 & 0xFF = 0x02.
var goldenQueryFrame = []byte{
	0xAA, 0xB4, 0x04,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF,
	0x02, 0xAB,
}

func TestQueryCommandGolden(t *testing.T) {
	got := QueryCommand(BroadcastID).Encode()
	if !bytes.Equal(got, goldenQueryFrame) {
		t.Errorf("QueryCommand bytes =\n% 02x, want\n% 02x", got, goldenQueryFrame)
	}
}

func TestCommandEncoding(t *testing.T) {
	tests := []struct {
		name        string
		cmd         Command
		wantSubtype byte
		wantData    []byte // leading data bytes to verify, rest must be zero padded
		wantTarget  [2]byte
	}{
		{
			name:        "set reporting mode active",
			cmd:         ReportingModeCommand(true, 0x00, BroadcastID),
			wantSubtype: SubtypeReportingMode,
			wantData:    []byte{0x01, 0x00},
			wantTarget:  [2]byte{0xFF, 0xFF},
		},
		{
			name:        "query reporting mode",
			cmd:         ReportingModeCommand(false, 0x00, BroadcastID),
			wantSubtype: SubtypeReportingMode,
			wantData:    []byte{0x00, 0x00},
			wantTarget:  [2]byte{0xFF, 0xFF},
		},
		{
			name:        "set work mode sleep",
			cmd:         WorkModeCommand(true, 0x00, 0xABCD),
			wantSubtype: SubtypeWorkMode,
			wantData:    []byte{0x01, 0x00},
			wantTarget:  [2]byte{0xAB, 0xCD},
		},
		{
			name:        "set working period 30",
			cmd:         WorkingPeriodCommand(true, 30, BroadcastID),
			wantSubtype: SubtypeWorkingPeriod,
			wantData:    []byte{0x01, 0x1E},
			wantTarget:  [2]byte{0xFF, 0xFF},
		},
		{
			name:        "firmware version",
			cmd:         FirmwareVersionCommand(BroadcastID),
			wantSubtype: SubtypeFirmwareVersion,
			wantData:    []byte{0x00},
			wantTarget:  [2]byte{0xFF, 0xFF},
		},
		{
			name:        "set device id",
			cmd:         SetDeviceIDCommand(0xBEEF, BroadcastID),
			wantSubtype: SubtypeSetDeviceID,
			wantData:    []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0xBE, 0xEF},
			wantTarget:  [2]byte{0xFF, 0xFF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := tt.cmd.Encode()

			if len(frame) != CommandSize {
				t.Fatalf("len = %d, want %d", len(frame), CommandSize)
			}
			if frame[0] != Head || frame[18] != Tail {
				t.Errorf("delimiters = 0x%02x/0x%02x, want 0x%02x/0x%02x",
					frame[0], frame[18], Head, Tail)
			}
			if frame[1] != CmdRequest {
				t.Errorf("command marker = 0x%02x, want 0x%02x", frame[1], CmdRequest)
			}
			if frame[2] != tt.wantSubtype {
				t.Errorf("subtype = 0x%02x, want 0x%02x", frame[2], tt.wantSubtype)
			}
			if !bytes.Equal(frame[3:3+len(tt.wantData)], tt.wantData) {
				t.Errorf("data = % 02x, want % 02x", frame[3:3+len(tt.wantData)], tt.wantData)
			}
			for i := 3 + len(tt.wantData); i < 15; i++ {
				if frame[i] != 0x00 {
					t.Errorf("data byte %d = 0x%02x, want zero padding", i, frame[i])
				}
			}
			if frame[15] != tt.wantTarget[0] || frame[16] != tt.wantTarget[1] {
				t.Errorf("target = 0x%02x%02x, want 0x%02x%02x",
					frame[15], frame[16], tt.wantTarget[0], tt.wantTarget[1])
			}
			if sum := Checksum(frame[2:17]); frame[17] != sum {
				t.Errorf("checksum = 0x%02x, want 0x%02x", frame[17], sum)
			}
		})
	}
}

// Every command's expected ack must round-trip back to the logical fields
// that produced the command.
func TestAckRoundTrip(t *testing.T) {
	t.Run("reporting mode", func(t *testing.T) {
		f, _, err := Decode(ackFrameBytes(SubtypeReportingMode, 0x01, 0x01, 0x00, 0xABCD))
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		ack, err := ParseModeAck(f)
		if err != nil {
			t.Fatalf("ParseModeAck() error = %v", err)
		}
		if ack.Query {
			t.Error("Query = true, want false")
		}
		if ack.Value != 0x01 {
			t.Errorf("Value = 0x%02x, want 0x01", ack.Value)
		}
		if ack.DeviceID != 0xABCD {
			t.Errorf("DeviceID = 0x%04x, want 0xABCD", ack.DeviceID)
		}
	})

	t.Run("working period query form", func(t *testing.T) {
		f, _, err := Decode(ackFrameBytes(SubtypeWorkingPeriod, 0x00, 15, 0x00, 0x1111))
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		ack, err := ParsePeriodAck(f)
		if err != nil {
			t.Fatalf("ParsePeriodAck() error = %v", err)
		}
		if !ack.Query {
			t.Error("Query = false, want true")
		}
		if ack.Period != 15 {
			t.Errorf("Period = %d, want 15", ack.Period)
		}
	})

	t.Run("firmware version", func(t *testing.T) {
		f, _, err := Decode(ackFrameBytes(SubtypeFirmwareVersion, 18, 11, 16, 0xA160))
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		ack, err := ParseFirmwareAck(f)
		if err != nil {
			t.Fatalf("ParseFirmwareAck() error = %v", err)
		}
		if ack.Year != 18 || ack.Month != 11 || ack.Day != 16 {
			t.Errorf("version = %d-%d-%d, want 18-11-16", ack.Year, ack.Month, ack.Day)
		}
		if ack.DeviceID != 0xA160 {
			t.Errorf("DeviceID = 0x%04x, want 0xA160", ack.DeviceID)
		}
	})

	t.Run("set device id", func(t *testing.T) {
		f, _, err := Decode(ackFrameBytes(SubtypeSetDeviceID, 0x00, 0x00, 0x00, 0xBEEF))
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		ack, err := ParseDeviceIDAck(f)
		if err != nil {
			t.Fatalf("ParseDeviceIDAck() error = %v", err)
		}
		if ack.DeviceID != 0xBEEF {
			t.Errorf("DeviceID = 0x%04x, want 0xBEEF", ack.DeviceID)
		}
	})

	t.Run("wrong kind rejected", func(t *testing.T) {
		f, _, err := Decode(dataFrameBytes(60, 80, 0xABAD))
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if _, err := ParseModeAck(f); err == nil {
			t.Error("ParseModeAck() on data frame: want error")
		}
		if _, err := ParseFirmwareAck(f); err == nil {
			t.Error("ParseFirmwareAck() on data frame: want error")
		}
	})

	t.Run("wrong subtype rejected", func(t *testing.T) {
		f, _, err := Decode(ackFrameBytes(SubtypeWorkingPeriod, 0x01, 10, 0x00, 0x1111))
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if _, err := ParseFirmwareAck(f); err == nil {
			t.Error("ParseFirmwareAck() on period ack: want error")
		}
	})
}
