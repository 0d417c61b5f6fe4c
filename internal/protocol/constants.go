package protocol

// Frame delimiters shared by every SDS011 frame, inbound and outbound.
const (
	// Head is the frame start marker
	Head = 0xAA

	// Tail is the frame end marker
	Tail = 0xAB
)

// Frame discriminators (byte 1).
const (
	// CmdData marks a measurement data frame: an unsolicited active
	// report or the reply to a query-data command
	CmdData = 0xC0

	// CmdAck marks a command acknowledgement/info frame; the first
	// payload byte echoes the subtype being acknowledged
	CmdAck = 0xC5

	// CmdRequest marks every host-to-device command; commands are
	// differentiated by their subtype byte, not the discriminator
	CmdRequest = 0xB4
)

// Command subtypes (byte 2 of an outbound frame, echoed in ack frames).
const (
	// SubtypeReportingMode queries or sets active vs. query reporting
	SubtypeReportingMode = 0x02

	// SubtypeQueryData requests a single measurement; answered with a
	// CmdData frame rather than an ack
	SubtypeQueryData = 0x04

	// SubtypeSetDeviceID assigns a new 2-byte device id
	SubtypeSetDeviceID = 0x05

	// SubtypeWorkMode queries or sets the work/sleep state
	SubtypeWorkMode = 0x06

	// SubtypeFirmwareVersion requests the date-coded firmware version
	SubtypeFirmwareVersion = 0x07

	// SubtypeWorkingPeriod queries or sets the minutes between wake
	// cycles (0 = continuous)
	SubtypeWorkingPeriod = 0x08
)

// Frame sizes, fixed by the device family.
const (
	// FrameSize is the size of every inbound frame
	FrameSize = 10

	// CommandSize is the size of every outbound command frame
	CommandSize = 19

	// PayloadSize is the number of checksum-covered bytes in an
	// inbound frame
	PayloadSize = 6

	// CommandDataSize is the zero-padded data section of a command
	CommandDataSize = 12
)

// BroadcastID addresses a command to any device on the link. Replies to a
// broadcast command carry the responding device's real id.
const BroadcastID = 0xFFFF

// Checksum computes the protocol checksum over the given bytes: the low
// byte of their arithmetic sum. For inbound frames the covered range is the
// six payload bytes; for outbound frames it is subtype, data, and target id.
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}
