// Package console implements the line-oriented command console that runs
// over the OSD serial port.
package console

import (
	"fmt"

	"osdcon/core"
)

const (
	LineSize = 64 // input line capacity
	MaxArgs  = 8  // tokens kept per line, the rest is ignored

	Eol    = "\r\n"
	Prompt = Eol + "> "

	bell      = 0x07
	backspace = 0x08
	del       = 0x7f
)

// Port is the byte transport the console runs over. Receive returns a byte
// in the low 8 bits, or status bits in the high 8 bits.
type Port interface {
	Send(b byte)
	Receive() uint16
}

// Console is one console session. It is not safe for concurrent use; the
// foreground loop owns it for as long as Run does not return.
type Console struct {
	port     Port
	commands []Command

	line    [LineSize]byte
	length  int
	args    [MaxArgs][2]uint8 // start and end offset of each token in line
	argc    int
	prevCR  bool
	running bool
}

// New creates a console over port dispatching to commands.
func New(port Port, commands []Command) *Console {
	return &Console{port: port, commands: commands}
}

// Commands returns the command table.
func (c *Console) Commands() []Command {
	return c.commands
}

// Run shows a prompt, reads a line and dispatches it, until a handler calls
// Stop. The running flag is only checked between lines.
func (c *Console) Run() {
	c.running = true
	core.RecordEvent(core.EvtConsoleRun, 0, 0)
	for c.running {
		c.Print(Prompt)
		c.readLine()
		c.process()
	}
	core.RecordEvent(core.EvtConsoleStop, 0, 0)
}

// Stop ends Run after the current handler returns.
func (c *Console) Stop() {
	c.running = false
}

// Running reports whether Run is active.
func (c *Console) Running() bool {
	return c.running
}

// Execute runs line as if it had been typed, without echo.
func (c *Console) Execute(line string) {
	c.length = copy(c.line[:], line)
	c.process()
}

func (c *Console) process() {
	c.tokenize()
	if c.argc == 0 {
		return
	}
	if !c.Dispatch(c.Argument(0)) {
		c.Print("Invalid command")
	}
}

// readLine collects one line with echo and backspace editing. CR and LF
// both terminate the line; an LF right after a CR is swallowed.
func (c *Console) readLine() {
	c.length = 0
	for {
		b := c.ReadRaw()

		switch {
		case b == '\r' || b == '\n':
			c.prevCR = b == '\r'
			c.Print(Eol)
			return
		case b == backspace || b == del:
			if c.length > 0 {
				c.length--
				c.Print("\b \b")
			}
		case b == '\t' || (b >= ' ' && b < del):
			if c.length == LineSize {
				c.port.Send(bell)
				continue
			}
			c.line[c.length] = b
			c.length++
			c.port.Send(b)
		}
	}
}

// tokenize splits the line buffer in place on blanks.
func (c *Console) tokenize() {
	c.argc = 0
	i := 0
	for i < c.length && c.argc < MaxArgs {
		for i < c.length && isBlank(c.line[i]) {
			i++
		}
		if i == c.length {
			break
		}
		start := i
		for i < c.length && !isBlank(c.line[i]) {
			i++
		}
		c.args[c.argc] = [2]uint8{uint8(start), uint8(i)}
		c.argc++
	}
}

func isBlank(b byte) bool {
	return b == ' ' || b == '\t'
}

// Argument returns token n of the current line (token 0 is the command
// name) as a view into the line buffer, or nil when the line has fewer
// tokens. The view is only valid until the next line is read.
func (c *Console) Argument(n int) []byte {
	if n < 0 || n >= c.argc {
		return nil
	}
	a := c.args[n]
	return c.line[a[0]:a[1]:a[1]]
}

// Argc returns the number of tokens of the current line.
func (c *Console) Argc() int {
	return c.argc
}

// ReadRaw blocks until a byte without error status is received. It
// busy-waits: nothing else in the foreground loop runs meanwhile, which is
// what raw transfers such as font upload rely on. An LF directly following
// a CR line terminator belongs to the terminator and is dropped.
func (c *Console) ReadRaw() byte {
	for {
		b := c.receive()
		if c.prevCR {
			c.prevCR = false
			if b == '\n' {
				continue
			}
		}
		return b
	}
}

func (c *Console) receive() byte {
	for {
		v := c.port.Receive()
		if v&0xff00 == 0 {
			return byte(v)
		}
		core.Relax()
	}
}

// PendingCR marks the last byte consumed as a CR terminator, so a following
// LF is dropped. Used when a CR is consumed outside of the console, such as
// the keypress that opens it.
func (c *Console) PendingCR() {
	c.prevCR = true
}

// Send transmits one byte.
func (c *Console) Send(b byte) {
	c.port.Send(b)
}

// Print transmits s.
func (c *Console) Print(s string) {
	for i := 0; i < len(s); i++ {
		c.port.Send(s[i])
	}
}

// Printf formats and transmits.
func (c *Console) Printf(format string, args ...any) {
	fmt.Fprintf(c, format, args...)
}

// Eol transmits a line terminator.
func (c *Console) Eol() {
	c.Print(Eol)
}

// Write implements io.Writer.
func (c *Console) Write(p []byte) (int, error) {
	for _, b := range p {
		c.port.Send(b)
	}
	return len(p), nil
}
