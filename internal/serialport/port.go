package serialport

import (
	"io"
	"time"

	"go.bug.st/serial"
)

// SerialPorter defines the minimal interface needed for a serial port.
// This abstraction enables unit testing without real serial hardware.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}

// TimeoutSerialPorter extends SerialPorter with timeout capabilities.
// go.bug.st/serial ports implement it; a read that times out returns (0, nil).
type TimeoutSerialPorter interface {
	SerialPorter
	// SetReadTimeout sets the read timeout for the serial port.
	SetReadTimeout(timeout time.Duration) error
}

// Opener opens the device at path with the given mode. It allows the real
// go.bug.st/serial opener to be swapped out in tests.
type Opener func(path string, mode *serial.Mode) (SerialPorter, error)

// SystemOpener opens a real serial device with go.bug.st/serial.
func SystemOpener(path string, mode *serial.Mode) (SerialPorter, error) {
	return serial.Open(path, mode)
}
