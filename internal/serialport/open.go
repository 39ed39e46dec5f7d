package serialport

import "github.com/banshee-data/powerlog/internal/monitoring"

// Open opens the serial device at path and returns a Source ready for
// reading. Any failure is reported as *OpenError.
func Open(path string, opts PortOptions) (*Source, error) {
	return OpenWith(SystemOpener, path, opts)
}

// OpenWith is Open with an injectable opener.
func OpenWith(open Opener, path string, opts PortOptions) (*Source, error) {
	normalized, err := opts.Normalize()
	if err != nil {
		return nil, &OpenError{Path: path, BaudRate: opts.BaudRate, Err: err}
	}
	mode, err := normalized.SerialMode()
	if err != nil {
		return nil, &OpenError{Path: path, BaudRate: normalized.BaudRate, Err: err}
	}

	port, err := open(path, mode)
	if err != nil {
		return nil, &OpenError{Path: path, BaudRate: normalized.BaudRate, Err: err}
	}

	if tp, ok := port.(TimeoutSerialPorter); ok {
		if err := tp.SetReadTimeout(normalized.timeout()); err != nil {
			port.Close()
			return nil, &OpenError{Path: path, BaudRate: normalized.BaudRate, Err: err}
		}
	} else {
		monitoring.Logf("serial port %s does not support read timeouts", path)
	}

	monitoring.Logf("opened %s at %d baud (%d%s%d, read timeout %v)",
		path, normalized.BaudRate, normalized.DataBits, normalized.Parity, normalized.StopBits, normalized.ReadTimeout)
	return NewSource(port), nil
}
