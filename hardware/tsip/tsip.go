// Package tsip implements the Trimble Standard Interface Protocol engine
// for Thunderbolt GPS disciplined oscillators: DLE/ETX frame extraction,
// report packet decoding into a live receiver state, and a staleness
// monitor deriving the connected flag.
//
// Wire format: frames are delimited as DLE <payload> DLE ETX, all report
// payloads use big-endian fixed-width layouts. There is no length prefix;
// each recognized packet id implies its expected frame length.
package tsip

import "time"

const (
	// frame delimiters
	DLE = 0x10 // escape marker, also frame start
	ETX = 0x03 // frame end, after DLE

	// FrameCapacity bounds a single unescaped frame. The longest report
	// this device emits (0x58 GPS system data) stays well under it.
	FrameCapacity = 256

	DefaultPollDelay      = 20 * time.Millisecond
	DefaultMonitorPeriod  = 1 * time.Second
	DefaultStaleThreshold = 5 * time.Second
)

// EnablePackets is the broadcast-mask command (0x8E-A5) that switches on
// the primary/secondary timing reports, sent once after the port opens.
// Bytes are pre-framed: DLE 8E A5 <mask> DLE ETX.
var EnablePackets = []byte{0x10, 0x8e, 0xa5, 0x00, 0x45, 0x00, 0x00, 0x10, 0x03}
