//go:build windows

package serialport

// DefaultDevice is the device opened when none is given on the command line.
const DefaultDevice = "COM3"
