// Package protocol implements the SDS011 binary wire protocol.
//
// This package handles decoding, validation, and construction of the frames
// used by the Nova Fitness SDS011 particulate matter sensor family. All
// functions are stateless and safe for concurrent use except Scanner, which
// accumulates a byte stream and must be confined to one goroutine.
//
// # Frame Layout
//
// Every frame the sensor sends is exactly 10 bytes:
//
//	[0]    0xAA     head marker
//	[1]    cmd      0xC0 (measurement data) or 0xC5 (command ack)
//	[2-7]  payload  six data bytes, last two are the device id
//	[8]    checksum low byte of the sum of bytes 2-7
//	[9]    0xAB     tail marker
//
// Measurement frames carry PM2.5 and PM10 as little-endian uint16 in tenths
// of µg/m³. Ack frames echo the command subtype in the first payload byte.
//
// Every frame the host sends is exactly 19 bytes:
//
//	[0]     0xAA     head marker
//	[1]     0xB4     command marker
//	[2]     subtype  command selector
//	[3-14]  data     twelve bytes, zero padded
//	[15-16] target   device id, 0xFFFF broadcasts to any device
//	[17]    checksum low byte of the sum of bytes 2-16
//	[18]    0xAB     tail marker
//
// # Stream Recovery
//
// The serial link drops and garbles bytes routinely, especially while
// active reporting overlaps with command traffic. Scanner resynchronizes
// after corruption by discarding a single byte at a time, so a spurious
// 0xAA inside a damaged frame can never desync the stream permanently.
// Invalid frames are dropped at this layer and never surface to callers.
package protocol
