package sim

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osdcon/console"
	"osdcon/core"
	"osdcon/eeprom"
	"osdcon/max7456"
	"osdcon/settings"
	"osdcon/uart"
)

// term is the host end of the simulated serial line.
type term struct {
	t    *testing.T
	conn net.Conn
	buf  []byte
}

func (r *term) send(s string) {
	r.t.Helper()
	_, err := r.conn.Write([]byte(s))
	require.NoError(r.t, err)
}

// expect reads until want and returns everything up to and including it.
func (r *term) expect(want string) string {
	r.t.Helper()
	require.NoError(r.t, r.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	chunk := make([]byte, 256)
	for {
		if i := bytes.Index(r.buf, []byte(want)); i >= 0 {
			out := string(r.buf[:i+len(want)])
			r.buf = r.buf[i+len(want):]
			return out
		}
		n, err := r.conn.Read(chunk)
		r.buf = append(r.buf, chunk[:n]...)
		require.NoError(r.t, err, "waiting for %q, got %q", want, r.buf)
	}
}

type board struct {
	fw     *Firmware
	emu    *max7456.Emulator
	term   *term
	cancel context.CancelFunc
	done   chan error
}

func boot(t *testing.T, mem *eeprom.Memory) *board {
	t.Helper()
	dev, host := net.Pipe()
	stream := uart.NewStream(dev)
	stream.Backpressure = true
	emu := max7456.NewEmulator()

	fw, err := New(Hardware{Line: stream, EEPROM: mem, Bus: emu})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	b := &board{
		fw:     fw,
		emu:    emu,
		term:   &term{t: t, conn: host},
		cancel: cancel,
		done:   make(chan error, 1),
	}
	go stream.Serve(ctx)
	go func() { b.done <- fw.Run(ctx) }()
	t.Cleanup(func() {
		b.stop()
		host.Close()
	})
	return b
}

func (b *board) stop() error {
	b.cancel()
	select {
	case err := <-b.done:
		b.done <- err
		return err
	case <-time.After(5 * time.Second):
		return errors.New("firmware did not stop")
	}
}

func TestBootBlankEEPROMStartsConsole(t *testing.T) {
	mem := eeprom.NewMemory(eeprom.Size)
	b := boot(t, mem)

	b.term.expect(console.Prompt)
	b.term.send("opt g callsign\r")
	b.term.expect("opt g callsign" + console.Eol)
	out := b.term.expect(console.Prompt)
	assert.Equal(t, "0x00a\t(str:8@)\tcallsign\t= OSD"+console.Prompt, out)
}

func TestExitAndReenterConsole(t *testing.T) {
	b := boot(t, eeprom.NewMemory(eeprom.Size))
	b.term.expect(console.Prompt)

	b.term.send("exit\r\n")
	b.term.expect("exit" + console.Eol)

	// the LF after exit must not reopen the console
	b.term.send("\r")
	b.term.expect(console.Prompt)
	b.term.send("info\r")
	assert.Contains(t, b.term.expect(console.Prompt), "VERSION: 0019")
}

func TestCRLFOpensConsoleOnce(t *testing.T) {
	b := boot(t, eeprom.NewMemory(eeprom.Size))
	b.term.expect(console.Prompt)
	b.term.send("exit\r\n")
	b.term.expect("exit" + console.Eol)

	b.term.send("\r\n")
	assert.Equal(t, console.Prompt, b.term.expect(console.Prompt))
	b.term.send("info\r")
	out := b.term.expect(console.Prompt)
	assert.True(t, strings.HasPrefix(out, "info"+console.Eol+"VERSION: "), "got %q", out)
}

func TestRebootRunsBootAgain(t *testing.T) {
	b := boot(t, eeprom.NewMemory(eeprom.Size))
	b.term.expect(console.Prompt)

	b.term.send("reboot\r")
	b.term.expect("reboot" + console.Eol)
	b.term.expect(console.Prompt)
	assert.Equal(t, 1, b.fw.Resets())
}

// debugLog collects firmware debug lines.
type debugLog struct {
	mu    sync.Mutex
	lines []string
}

func (l *debugLog) write(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, msg)
}

func (l *debugLog) text() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.lines, "\n")
}

func TestRebootDumpsEventsWhenDebugging(t *testing.T) {
	log := &debugLog{}
	core.SetDebugWriter(log.write)
	core.SetDebugEnabled(true)
	t.Cleanup(func() {
		core.SetDebugEnabled(false)
		core.SetDebugWriter(nil)
	})

	b := boot(t, eeprom.NewMemory(eeprom.Size))
	b.term.expect(console.Prompt)
	b.term.send("reboot\r")
	b.term.expect("reboot" + console.Eol)
	b.term.expect(console.Prompt)

	out := log.text()
	assert.Contains(t, out, "[FW] watchdog reset, rebooting")
	assert.Contains(t, out, "[EVENT] === Event Ring Dump ===")
	assert.Contains(t, out, " REBOOT ")
}

func TestCancelStopsFirmware(t *testing.T) {
	b := boot(t, eeprom.NewMemory(eeprom.Size))
	b.term.expect(console.Prompt)
	assert.ErrorIs(t, b.stop(), context.Canceled)
}

func TestPanelsDrawnOutsideConsole(t *testing.T) {
	mem := eeprom.NewMemory(eeprom.Size)
	store, err := settings.NewDefault(mem)
	require.NoError(t, err)
	store.Reset()
	require.NoError(t, store.WriteBool("console_on_boot", false))
	require.NoError(t, store.WriteStr(settings.OptCallsign, "FPV"))

	b := boot(t, mem)
	row := uint8(max7456.RowsPAL - 2)
	assert.Eventually(t, func() bool {
		return b.emu.At(1, row) == 'F' && b.emu.At(2, row) == 'P' && b.emu.At(3, row) == 'V'
	}, 5*time.Second, 10*time.Millisecond)
	assert.True(t, b.emu.OSDEnabled())
}
