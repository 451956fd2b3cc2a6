package sim

import (
	"context"
	"time"

	"osdcon/uart"
)

// idlePoll is slept between empty polls while the console waits for input,
// so a waiting console does not keep a host CPU busy.
const idlePoll = 200 * time.Microsecond

// consolePort is the console's view of the UART. Once ctx is cancelled the
// next poll powers the board off by unwinding to Run.
type consolePort struct {
	u   *uart.UART
	ctx context.Context
}

func (p *consolePort) Send(b byte) {
	for p.u.Pending() == uart.BufferSize {
		p.checkPower()
		time.Sleep(idlePoll)
	}
	p.u.Send(b)
}

func (p *consolePort) Receive() uint16 {
	v := p.u.Receive()
	if uart.HasData(v) {
		return v
	}
	p.checkPower()
	time.Sleep(idlePoll)
	return v
}

func (p *consolePort) checkPower() {
	if p.ctx != nil && p.ctx.Err() != nil {
		panic(powerOff{})
	}
}
