// Package uart implements the interrupt-driven serial transport of the OSD:
// a receive and a transmit ring shared between the foreground loop and the
// UART interrupt handlers.
package uart

import (
	"errors"
	"sync/atomic"

	"osdcon/core"
)

// Status bits returned in the high byte of Receive.
const (
	FrameError     = 0x1000 // framing error reported by the UART
	OverrunError   = 0x0800 // data overrun reported by the UART
	ParityError    = 0x0400 // parity error reported by the UART
	BufferOverflow = 0x0200 // receive ring overflow
	NoData         = 0x0100 // no receive data available

	statusMask = 0xff00
)

var (
	ErrUnsupportedBaud = errors.New("unsupported baud rate")
	ErrNoLine          = errors.New("uart line not configured")
)

// Line is the hardware side of a UART, implemented by target code.
type Line interface {
	// SetBaud programs the line rate.
	SetBaud(baud Baud) error

	// Transmit places one byte into the transmit data register.
	// Called from the transmit-ready interrupt only.
	Transmit(b byte)

	// EnableTxInterrupt switches the transmit-ready interrupt source.
	EnableTxInterrupt(enable bool)
}

// UART is a duplex byte channel. Send and Receive belong to the foreground
// loop, HandleRx and HandleTxReady to interrupt context.
type UART struct {
	line    Line
	rx      Ring
	tx      Ring
	rxError atomic.Uint32
}

// New creates a UART bound to line. Init must be called before use.
func New(line Line) *UART {
	return &UART{line: line}
}

// Init configures the line rate and clears both rings.
// Only rates from the Bitrates table are accepted.
func (u *UART) Init(baud Baud) error {
	if u.line == nil {
		return ErrNoLine
	}
	if !baud.Valid() {
		return ErrUnsupportedBaud
	}
	state := core.DisableInterrupts()
	defer core.RestoreInterrupts(state)

	u.rx.Reset()
	u.tx.Reset()
	u.rxError.Store(0)
	return u.line.SetBaud(baud)
}

// Send queues b for transmission. When the transmit ring is full it
// busy-waits until the interrupt handler has drained a slot; output is
// never dropped.
func (u *UART) Send(b byte) {
	for u.tx.Full() {
		core.Relax()
	}
	u.tx.Put(b)
	u.line.EnableTxInterrupt(true)
}

// SendString queues every byte of s.
func (u *UART) SendString(s string) {
	for i := 0; i < len(s); i++ {
		u.Send(s[i])
	}
}

// Write implements io.Writer on top of Send.
func (u *UART) Write(p []byte) (int, error) {
	for _, b := range p {
		u.Send(b)
	}
	return len(p), nil
}

// Receive returns the next received byte in the low 8 bits, OR'd with any
// error status recorded since the previous delivered byte. When the receive
// ring is empty it returns NoData.
func (u *UART) Receive() uint16 {
	b, ok := u.rx.Get()
	if !ok {
		return NoData
	}
	status := uint16(u.rxError.Swap(0))
	if u.rx.TakeOverflow() {
		status |= BufferOverflow
	}
	return status | uint16(b)
}

// Buffered returns the number of received bytes waiting in the ring.
func (u *UART) Buffered() int {
	return u.rx.Len()
}

// Pending returns the number of bytes waiting to be transmitted.
func (u *UART) Pending() int {
	return u.tx.Len()
}

// HandleRx is the receive interrupt entry point. errs carries the
// FrameError/OverrunError/ParityError bits latched by the hardware for this
// byte. When the ring is full the new byte is discarded and older data is
// kept.
func (u *UART) HandleRx(b byte, errs uint16) {
	errs &= FrameError | OverrunError | ParityError
	if errs != 0 {
		u.rxError.Or(uint32(errs))
		core.RecordEvent(core.EvtRxError, uint32(errs), uint32(b))
	}
	if !u.rx.Put(b) {
		core.RecordEvent(core.EvtRxOverflow, uint32(u.rx.Len()), uint32(b))
	}
}

// HandleTxReady is the transmit-ready interrupt entry point. It transmits
// the next queued byte, or disables the interrupt source when nothing is
// queued. It reports whether a byte was transmitted.
func (u *UART) HandleTxReady() bool {
	b, ok := u.tx.Get()
	if !ok {
		u.line.EnableTxInterrupt(false)
		return false
	}
	u.line.Transmit(b)
	return true
}

// HasData reports whether v, as returned by Receive, carries a byte.
func HasData(v uint16) bool {
	return v&NoData == 0
}

// Clean reports whether v carries a byte and no error status.
func Clean(v uint16) bool {
	return v&statusMask == 0
}
