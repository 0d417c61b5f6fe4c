// Package sensor implements the device session for an SDS011 particulate
// matter sensor. A Session owns the transport, runs a background reader
// that publishes validated frames onto an internal bus, and exposes the
// device operations (query, reporting mode, work mode, working period,
// device id, firmware version) as blocking request/response calls with
// retry. Unsolicited measurements stream through Watch.
package sensor
