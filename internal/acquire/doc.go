// Package acquire runs an acquisition session: a producer that decodes the
// device stream into measurements, a consumer that hands them to a sink, and
// a supervisor that races the two and stops whichever outlives the other.
//
// The producer and consumer communicate only through a bounded channel of
// protocol.Measurement. The producer is its sole sender and closes it on
// return.
package acquire
