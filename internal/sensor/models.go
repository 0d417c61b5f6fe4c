package sensor

import (
	"fmt"
	"strings"
	"time"

	"github.com/finehaze/sds011/internal/protocol"
)

// ReportingMode controls whether the sensor pushes measurements on its
// own schedule or only answers explicit queries.
type ReportingMode byte

const (
	ReportingActive ReportingMode = 0x00
	ReportingQuery  ReportingMode = 0x01
)

func (m ReportingMode) String() string {
	switch m {
	case ReportingActive:
		return "active"
	case ReportingQuery:
		return "query"
	default:
		return fmt.Sprintf("ReportingMode(0x%02x)", byte(m))
	}
}

// ParseReportingMode converts a user-facing mode name to its wire value.
func ParseReportingMode(s string) (ReportingMode, error) {
	switch strings.ToLower(s) {
	case "active":
		return ReportingActive, nil
	case "query":
		return ReportingQuery, nil
	default:
		return 0, NewInvalidArgumentError(fmt.Sprintf("unknown reporting mode %q (want active or query)", s))
	}
}

// WorkMode controls whether the fan and laser are running.
type WorkMode byte

const (
	WorkSleeping WorkMode = 0x00
	WorkWorking  WorkMode = 0x01
)

func (m WorkMode) String() string {
	switch m {
	case WorkSleeping:
		return "sleep"
	case WorkWorking:
		return "work"
	default:
		return fmt.Sprintf("WorkMode(0x%02x)", byte(m))
	}
}

// ParseWorkMode converts a user-facing work mode name to its wire value.
func ParseWorkMode(s string) (WorkMode, error) {
	switch strings.ToLower(s) {
	case "work", "on":
		return WorkWorking, nil
	case "sleep", "off":
		return WorkSleeping, nil
	default:
		return 0, NewInvalidArgumentError(fmt.Sprintf("unknown work mode %q (want work or sleep)", s))
	}
}

// WorkingPeriodMax is the longest duty cycle the device accepts, in
// minutes. Zero means continuous measurement.
const WorkingPeriodMax = 30

// WorkingPeriod is the measurement duty cycle in minutes. At n > 0 the
// sensor sleeps and wakes to measure every n minutes.
type WorkingPeriod uint8

// NewWorkingPeriod validates the device's accepted range of 0 to 30
// minutes.
func NewWorkingPeriod(minutes int) (WorkingPeriod, error) {
	if minutes < 0 || minutes > WorkingPeriodMax {
		return 0, NewInvalidArgumentError(
			fmt.Sprintf("working period %d out of range (0 to %d minutes)", minutes, WorkingPeriodMax))
	}
	return WorkingPeriod(minutes), nil
}

func (p WorkingPeriod) String() string {
	if p == 0 {
		return "continuous"
	}
	return fmt.Sprintf("every %d min", uint8(p))
}

// FirmwareVersion is the device firmware release date. Year is 2000-based
// on the wire; the struct keeps the wire value.
type FirmwareVersion struct {
	Year  uint8
	Month uint8
	Day   uint8
}

func (v FirmwareVersion) String() string {
	return fmt.Sprintf("20%02d-%02d-%02d", v.Year, v.Month, v.Day)
}

// Measurement is one particulate reading in µg/m³.
type Measurement struct {
	PM25     float64
	PM10     float64
	DeviceID uint16
	At       time.Time
}

func measurementFromFrame(f protocol.Frame) (Measurement, error) {
	r, err := protocol.ParseReading(f)
	if err != nil {
		return Measurement{}, err
	}
	return Measurement{
		PM25:     float64(r.PM25Raw) / 10.0,
		PM10:     float64(r.PM10Raw) / 10.0,
		DeviceID: r.DeviceID,
		At:       f.ReceivedAt,
	}, nil
}

// DeviceConfig is the last known device state, updated from acks as
// operations complete.
type DeviceConfig struct {
	ReportingMode ReportingMode
	WorkMode      WorkMode
	WorkingPeriod WorkingPeriod
	Firmware      FirmwareVersion
	DeviceID      uint16
}
