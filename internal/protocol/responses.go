package protocol

import (
	"encoding/binary"
	"fmt"
)

// Reading is the decoded content of a measurement data frame. Raw values
// are tenths of µg/m³ as carried on the wire.
type Reading struct {
	PM25Raw  uint16
	PM10Raw  uint16
	DeviceID uint16
}

// ParseReading extracts the measurement carried by a KindData frame.
func ParseReading(f Frame) (Reading, error) {
	if f.Kind != KindData {
		return Reading{}, fmt.Errorf("cannot parse %s frame as reading", f.Kind)
	}
	return Reading{
		PM25Raw:  binary.LittleEndian.Uint16(f.Payload[0:2]),
		PM10Raw:  binary.LittleEndian.Uint16(f.Payload[2:4]),
		DeviceID: f.DeviceID,
	}, nil
}

// ModeAck is the decoded content of a reporting-mode or work-mode ack.
type ModeAck struct {
	// Query is true when the ack answers the query form of the command
	Query bool

	// Value is the acknowledged mode in wire encoding
	Value byte

	DeviceID uint16
}

// ParseModeAck extracts a reporting-mode (0x02) or work-mode (0x06) ack.
func ParseModeAck(f Frame) (ModeAck, error) {
	if err := requireAck(f, SubtypeReportingMode, SubtypeWorkMode); err != nil {
		return ModeAck{}, err
	}
	return ModeAck{
		Query:    f.Payload[1] == flagQuery,
		Value:    f.Payload[2],
		DeviceID: f.DeviceID,
	}, nil
}

// PeriodAck is the decoded content of a working-period ack.
type PeriodAck struct {
	Query    bool
	Period   byte
	DeviceID uint16
}

// ParsePeriodAck extracts a working-period (0x08) ack.
func ParsePeriodAck(f Frame) (PeriodAck, error) {
	if err := requireAck(f, SubtypeWorkingPeriod); err != nil {
		return PeriodAck{}, err
	}
	return PeriodAck{
		Query:    f.Payload[1] == flagQuery,
		Period:   f.Payload[2],
		DeviceID: f.DeviceID,
	}, nil
}

// FirmwareAck is the decoded content of a firmware-version ack. The year
// is 2000-based, matching the device's date coding.
type FirmwareAck struct {
	Year     byte
	Month    byte
	Day      byte
	DeviceID uint16
}

// ParseFirmwareAck extracts a firmware-version (0x07) ack.
func ParseFirmwareAck(f Frame) (FirmwareAck, error) {
	if err := requireAck(f, SubtypeFirmwareVersion); err != nil {
		return FirmwareAck{}, err
	}
	return FirmwareAck{
		Year:     f.Payload[1],
		Month:    f.Payload[2],
		Day:      f.Payload[3],
		DeviceID: f.DeviceID,
	}, nil
}

// DeviceIDAck is the decoded content of a set-device-id ack. DeviceID is
// the newly assigned identifier.
type DeviceIDAck struct {
	DeviceID uint16
}

// ParseDeviceIDAck extracts a set-device-id (0x05) ack.
func ParseDeviceIDAck(f Frame) (DeviceIDAck, error) {
	if err := requireAck(f, SubtypeSetDeviceID); err != nil {
		return DeviceIDAck{}, err
	}
	return DeviceIDAck{DeviceID: f.DeviceID}, nil
}

func requireAck(f Frame, subtypes ...byte) error {
	if f.Kind != KindAck {
		return fmt.Errorf("cannot parse %s frame as ack", f.Kind)
	}
	for _, st := range subtypes {
		if f.Subtype() == st {
			return nil
		}
	}
	return fmt.Errorf("unexpected ack subtype 0x%02x", f.Subtype())
}
