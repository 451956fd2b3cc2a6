//go:build rp2040

package main

import (
	"machine"

	"osdcon/core"
	"osdcon/uart"
)

// uartLine implements uart.Line on a machine.UART. The machine driver owns
// the UART interrupt and its own receive buffer, so the pump goroutine plays
// the receive and transmit-ready interrupts of uart.UART.
type uartLine struct {
	hw   *machine.UART
	u    *uart.UART
	txOn bool
}

func (l *uartLine) SetBaud(baud uart.Baud) error {
	l.hw.SetBaudRate(uint32(baud))
	return nil
}

func (l *uartLine) Transmit(b byte) {
	l.hw.WriteByte(b)
}

func (l *uartLine) EnableTxInterrupt(enable bool) {
	l.txOn = enable
}

// pump moves bytes between the machine driver and the rings. The machine
// driver does not report line errors, so none are passed on.
func (l *uartLine) pump() {
	for {
		for l.hw.Buffered() > 0 {
			b, err := l.hw.ReadByte()
			if err != nil {
				break
			}
			l.u.HandleRx(b, 0)
		}
		if l.txOn {
			for l.u.HandleTxReady() {
			}
		}
		core.Relax()
	}
}
