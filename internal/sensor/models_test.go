package sensor

import (
	"testing"
	"time"

	"github.com/finehaze/sds011/internal/protocol"
)

func TestParseReportingMode(t *testing.T) {
	tests := []struct {
		in      string
		want    ReportingMode
		wantErr bool
	}{
		{"active", ReportingActive, false},
		{"Query", ReportingQuery, false},
		{"ACTIVE", ReportingActive, false},
		{"passive", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseReportingMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseReportingMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseReportingMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if err != nil && !IsInvalidArgument(err) {
			t.Errorf("ParseReportingMode(%q) error type = %v, want invalid argument", tt.in, err)
		}
	}
}

func TestParseWorkMode(t *testing.T) {
	tests := []struct {
		in      string
		want    WorkMode
		wantErr bool
	}{
		{"work", WorkWorking, false},
		{"on", WorkWorking, false},
		{"sleep", WorkSleeping, false},
		{"off", WorkSleeping, false},
		{"standby", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseWorkMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseWorkMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseWorkMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewWorkingPeriod(t *testing.T) {
	for _, minutes := range []int{0, 1, 15, 30} {
		p, err := NewWorkingPeriod(minutes)
		if err != nil {
			t.Errorf("NewWorkingPeriod(%d) error = %v", minutes, err)
			continue
		}
		if int(p) != minutes {
			t.Errorf("NewWorkingPeriod(%d) = %d", minutes, p)
		}
	}

	for _, minutes := range []int{-1, 31, 255, 1000} {
		if _, err := NewWorkingPeriod(minutes); !IsInvalidArgument(err) {
			t.Errorf("NewWorkingPeriod(%d) error = %v, want invalid argument", minutes, err)
		}
	}
}

func TestFirmwareVersionString(t *testing.T) {
	v := FirmwareVersion{Year: 18, Month: 11, Day: 16}
	if got := v.String(); got != "2018-11-16" {
		t.Errorf("String() = %q, want 2018-11-16", got)
	}

	v = FirmwareVersion{Year: 9, Month: 1, Day: 5}
	if got := v.String(); got != "2009-01-05" {
		t.Errorf("String() = %q, want 2009-01-05", got)
	}
}

func TestMeasurementFromFrame(t *testing.T) {
	at := time.Now()
	f := protocol.Frame{
		Kind:       protocol.KindData,
		Payload:    [protocol.PayloadSize]byte{0x3C, 0x00, 0x50, 0x00, 0xAB, 0xAD},
		DeviceID:   0xABAD,
		ReceivedAt: at,
	}

	m, err := measurementFromFrame(f)
	if err != nil {
		t.Fatalf("measurementFromFrame() error = %v", err)
	}
	if m.PM25 != 6.0 {
		t.Errorf("PM25 = %v, want 6.0", m.PM25)
	}
	if m.PM10 != 8.0 {
		t.Errorf("PM10 = %v, want 8.0", m.PM10)
	}
	if m.DeviceID != 0xABAD {
		t.Errorf("DeviceID = 0x%04x, want 0xABAD", m.DeviceID)
	}
	if !m.At.Equal(at) {
		t.Errorf("At = %v, want %v", m.At, at)
	}
}
