// Package protocol implements the power monitor's serial wire format.
//
// A capture stream looks like this:
//
//	FF FF FF                  preamble, three consecutive marker bytes
//	"boot ...\n" ... "start\n"  ASCII header lines, the last contains "start"
//	HH LL HH LL ...           2-byte big-endian codes until the link dies
//
// Codes 0x0000-0xFFEF are measurement samples, 0xFFF0 and 0xFFF1 report the
// digital input going low and high, and 0xFFF2-0xFFFF are invalid. The
// firmware guarantees that no two consecutive 0xFF bytes appear after the
// preamble, so the preamble is unambiguous.
//
// Synchronize, SkipHeader and Decoder are the three stages a reader runs in
// order. All of them are single-goroutine and hold no locks.
package protocol
