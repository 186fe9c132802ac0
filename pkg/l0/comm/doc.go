// Package comm provides L0 protocol support.
package comm

// L0 protocol is the fixed-frame "free protocol" spoken by ZDT closed-loop
// stepper drivers on a shared RS-485 bus. The host is the only master and
// every exchange is a single request followed by at most one response.
//
// A frame is
//
//	addr, code, payload..., 0x6B
//
// where addr selects one motor on the bus, code is the command and the
// trailing byte is a fixed checksum constant rather than a computed sum.
// Multi-byte payload fields are big-endian. Responses echo addr and code,
// so a reply can be matched to its request without sequence numbers.
//
// Transfer errors are only detected by length, echo and checksum checks.
// There is no retransmission at this layer.
//
// Producer: host (this package)
// Consumer: motor firmware
