// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"encoding/binary"
	"io"
	"net/http"
	"net/http/httptest"
)

// LocalRequest creates a test HTTP request that appears to come from
// localhost, which tsweb debug routes require.
func LocalRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.RemoteAddr = "127.0.0.1:12345"
	return req
}

// Stream builds device byte streams in the power monitor wire format.
type Stream struct {
	buf []byte
}

// NewStream returns an empty stream builder.
func NewStream() *Stream {
	return &Stream{}
}

// Raw appends arbitrary bytes.
func (s *Stream) Raw(b ...byte) *Stream {
	s.buf = append(s.buf, b...)
	return s
}

// Preamble appends the three marker bytes.
func (s *Stream) Preamble() *Stream {
	return s.Raw(0xff, 0xff, 0xff)
}

// Line appends text followed by '\n'.
func (s *Stream) Line(text string) *Stream {
	s.buf = append(s.buf, text...)
	s.buf = append(s.buf, '\n')
	return s
}

// Codes appends each code as a 2-byte big-endian unit.
func (s *Stream) Codes(codes ...uint16) *Stream {
	for _, c := range codes {
		s.buf = binary.BigEndian.AppendUint16(s.buf, c)
	}
	return s
}

// Bytes returns a copy of the built stream.
func (s *Stream) Bytes() []byte {
	return append([]byte(nil), s.buf...)
}

// Capture returns the canonical stream used across tests: preamble, a boot
// line, the start line, then the given codes.
func Capture(codes ...uint16) []byte {
	return NewStream().Preamble().Line("boot").Line("start").Codes(codes...).Bytes()
}
