package serialport

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout matches read failures caused by the per-read timeout elapsing.
	ErrTimeout = errors.New("serial read timed out")
	// ErrDevice matches read failures reported by the device or driver.
	ErrDevice = errors.New("serial device error")
)

// Kind classifies an IOError.
type Kind int

const (
	// KindTimeout means no byte arrived within the read timeout.
	KindTimeout Kind = iota + 1
	// KindDevice means the underlying read failed, including EOF and reads
	// on a closed port.
	KindDevice
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindDevice:
		return "device"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IOError is returned by every Source read primitive. It is fatal to the
// acquisition session; reads are never retried.
type IOError struct {
	Kind Kind
	Err  error
}

func (e *IOError) Error() string {
	if e.Kind == KindTimeout {
		return ErrTimeout.Error()
	}
	return fmt.Sprintf("%v: %v", ErrDevice, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrTimeout) and errors.Is(err, ErrDevice) match.
func (e *IOError) Is(target error) bool {
	switch target {
	case ErrTimeout:
		return e.Kind == KindTimeout
	case ErrDevice:
		return e.Kind == KindDevice
	}
	return false
}

// OpenError reports a device that could not be opened or configured.
type OpenError struct {
	Path     string
	BaudRate int
	Err      error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("failed to open serial device %s at %d baud: %v", e.Path, e.BaudRate, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }
