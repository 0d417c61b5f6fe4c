package protocol

import "encoding/binary"

// Flag bytes selecting between the query and set forms of a command.
const (
	flagQuery = 0x00
	flagSet   = 0x01
)

// Command is a logical host-to-device command. The zero value is not
// useful; construct commands with the builder functions below.
type Command struct {
	// Subtype selects the operation
	Subtype byte

	// Data is the zero-padded data section
	Data [CommandDataSize]byte

	// Target addresses the command; BroadcastID reaches any device
	Target uint16
}

// Encode serializes the command into its fixed 19-byte wire form.
func (c Command) Encode() []byte {
	frame := make([]byte, CommandSize)
	frame[0] = Head
	frame[1] = CmdRequest
	frame[2] = c.Subtype
	copy(frame[3:3+CommandDataSize], c.Data[:])
	binary.BigEndian.PutUint16(frame[15:17], c.Target)
	frame[17] = Checksum(frame[2:17])
	frame[18] = Tail
	return frame
}

// QueryCommand requests a single measurement. The device answers with a
// CmdData frame, not an ack.
func QueryCommand(target uint16) Command {
	return Command{Subtype: SubtypeQueryData, Target: target}
}

// ReportingModeCommand queries (set=false) or sets the reporting mode.
// mode is the wire encoding: 0x00 active, 0x01 query.
func ReportingModeCommand(set bool, mode byte, target uint16) Command {
	c := Command{Subtype: SubtypeReportingMode, Target: target}
	c.Data[0] = setFlag(set)
	if set {
		c.Data[1] = mode
	}
	return c
}

// WorkModeCommand queries (set=false) or sets the sleep/work state.
// mode is the wire encoding: 0x00 sleep, 0x01 work.
func WorkModeCommand(set bool, mode byte, target uint16) Command {
	c := Command{Subtype: SubtypeWorkMode, Target: target}
	c.Data[0] = setFlag(set)
	if set {
		c.Data[1] = mode
	}
	return c
}

// WorkingPeriodCommand queries (set=false) or sets the working period in
// minutes; 0 selects continuous per-second reporting.
func WorkingPeriodCommand(set bool, period byte, target uint16) Command {
	c := Command{Subtype: SubtypeWorkingPeriod, Target: target}
	c.Data[0] = setFlag(set)
	if set {
		c.Data[1] = period
	}
	return c
}

// FirmwareVersionCommand requests the date-coded firmware version.
func FirmwareVersionCommand(target uint16) Command {
	return Command{Subtype: SubtypeFirmwareVersion, Target: target}
}

// SetDeviceIDCommand assigns a new device id. The new id occupies the last
// two data bytes; the ack echoes it as the responding id.
func SetDeviceIDCommand(newID, target uint16) Command {
	c := Command{Subtype: SubtypeSetDeviceID, Target: target}
	binary.BigEndian.PutUint16(c.Data[10:12], newID)
	return c
}

func setFlag(set bool) byte {
	if set {
		return flagSet
	}
	return flagQuery
}
