// Package serialport provides the byte-stream source for the acquisition
// pipeline: a serial device opened with go.bug.st/serial, wrapped with the
// blocking read primitives the protocol layer needs.
package serialport

import (
	"bufio"
	"io"
	"sync"
)

// Source is a buffered byte stream over a serial port. It is owned by a
// single reader goroutine; only Close may be called concurrently.
type Source struct {
	port      SerialPorter
	r         *bufio.Reader
	closeOnce sync.Once
	closeErr  error
}

// NewSource wraps an already configured port.
func NewSource(port SerialPorter) *Source {
	return &Source{
		port: port,
		r:    bufio.NewReader(portReader{port}),
	}
}

// portReader maps raw port reads onto IOError. go.bug.st/serial signals an
// expired read timeout with (0, nil).
type portReader struct {
	port SerialPorter
}

func (p portReader) Read(b []byte) (int, error) {
	n, err := p.port.Read(b)
	if err != nil {
		return n, &IOError{Kind: KindDevice, Err: err}
	}
	if n == 0 && len(b) > 0 {
		return 0, &IOError{Kind: KindTimeout}
	}
	return n, nil
}

// ReadByte reads a single byte.
func (s *Source) ReadByte() (byte, error) {
	return s.r.ReadByte()
}

// ReadExact fills buf completely, suspending until len(buf) bytes have
// arrived or a read fails.
func (s *Source) ReadExact(buf []byte) error {
	_, err := io.ReadFull(s.r, buf)
	return err
}

// ReadLine reads up to and including the next '\n' and returns it as text.
// A partially read line is discarded on error.
func (s *Source) ReadLine() (string, error) {
	line, err := s.r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return line, nil
}

// Close closes the underlying port, which unblocks a pending read. It is safe
// to call more than once and from another goroutine.
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.port.Close()
	})
	return s.closeErr
}
