package serial

import (
	"errors"
	"io"
)

// ErrTimeout is returned by Read when no byte arrived within the read
// timeout. The port stays usable.
var ErrTimeout = errors.New("serial read timeout")

// Port represents a serial port interface
// This abstraction allows for different implementations:
// - Native serial (using github.com/tarm/serial)
// - In-memory pipes (simulator and tests)
type Port interface {
	io.ReadWriteCloser

	// Flush discards data received but not yet read
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate, one of the rates the OSD console supports
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns the configuration matching the OSD factory settings
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        57600, // uart_baudrate default
		ReadTimeout: 100,   // 100ms read timeout
	}
}

// pipePort adapts an io.ReadWriteCloser such as net.Conn to Port
type pipePort struct {
	io.ReadWriteCloser
}

// Wrap turns rw into a Port whose Flush is a no-op
func Wrap(rw io.ReadWriteCloser) Port {
	if p, ok := rw.(Port); ok {
		return p
	}
	return pipePort{rw}
}

func (pipePort) Flush() error {
	return nil
}
