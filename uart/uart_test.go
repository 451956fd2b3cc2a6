package uart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osdcon/core"
)

// fakeLine records what the UART does to the hardware.
type fakeLine struct {
	baud Baud
	sent []byte
	txOn bool
}

func (l *fakeLine) SetBaud(b Baud) error      { l.baud = b; return nil }
func (l *fakeLine) Transmit(b byte)           { l.sent = append(l.sent, b) }
func (l *fakeLine) EnableTxInterrupt(on bool) { l.txOn = on }

func newTestUART(t *testing.T) (*UART, *fakeLine) {
	t.Helper()
	line := &fakeLine{}
	u := New(line)
	require.NoError(t, u.Init(Baud57600))
	return u, line
}

func TestInitRejectsUnsupportedBaud(t *testing.T) {
	u := New(&fakeLine{})
	for _, b := range []Baud{0, 300, 4800, 57601, 230400} {
		assert.ErrorIs(t, u.Init(b), ErrUnsupportedBaud, "baud %d", b)
	}
	assert.ErrorIs(t, New(nil).Init(Baud9600), ErrNoLine)
}

func TestInitProgramsLine(t *testing.T) {
	u, line := newTestUART(t)
	assert.Equal(t, Baud57600, line.baud)
	assert.Equal(t, uint16(NoData), u.Receive())
}

func TestReceiveNoData(t *testing.T) {
	u, _ := newTestUART(t)
	v := u.Receive()
	assert.False(t, HasData(v))
	assert.Equal(t, uint16(NoData), v)
}

func TestReceiveOrder(t *testing.T) {
	u, _ := newTestUART(t)
	for _, b := range []byte("abc") {
		u.HandleRx(b, 0)
	}
	assert.Equal(t, 3, u.Buffered())
	for _, want := range []byte("abc") {
		v := u.Receive()
		assert.True(t, Clean(v))
		assert.Equal(t, uint16(want), v)
	}
	assert.Equal(t, uint16(NoData), u.Receive())
}

func TestReceiveErrorBitsReportedOnce(t *testing.T) {
	core.ClearEvents()
	u, _ := newTestUART(t)
	u.HandleRx('x', FrameError)
	u.HandleRx('y', ParityError|NoData) // NoData is not a hardware bit
	u.HandleRx('z', 0)

	v := u.Receive()
	assert.Equal(t, uint16(FrameError|ParityError|'x'), v)
	assert.True(t, HasData(v))
	assert.False(t, Clean(v))

	assert.Equal(t, uint16('y'), u.Receive())
	assert.Equal(t, uint16('z'), u.Receive())
	assert.Equal(t, 2, core.EventCount(core.EvtRxError))
}

func TestReceiveOverflowDropsNewest(t *testing.T) {
	core.ClearEvents()
	u, _ := newTestUART(t)
	for i := 0; i < BufferSize; i++ {
		u.HandleRx(byte(i), 0)
	}
	u.HandleRx(0xAA, 0)
	assert.Equal(t, 1, core.EventCount(core.EvtRxOverflow))

	first := u.Receive()
	assert.Equal(t, uint16(BufferOverflow), first&statusMask)
	assert.Equal(t, uint16(0), first&0xff)
	for i := 1; i < BufferSize; i++ {
		assert.Equal(t, uint16(i), u.Receive())
	}
	assert.Equal(t, uint16(NoData), u.Receive())
}

func TestSendDrainsThroughInterrupt(t *testing.T) {
	u, line := newTestUART(t)
	u.SendString("hello")
	assert.True(t, line.txOn)
	assert.Equal(t, 5, u.Pending())

	for u.HandleTxReady() {
	}
	assert.Equal(t, "hello", string(line.sent))
	assert.False(t, line.txOn, "interrupt should be disabled once the ring is empty")
	assert.Equal(t, 0, u.Pending())
}

func TestWrite(t *testing.T) {
	u, line := newTestUART(t)
	n, err := u.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	for u.HandleTxReady() {
	}
	assert.Equal(t, []byte{1, 2, 3}, line.sent)
}

func TestBaudFromIndex(t *testing.T) {
	tests := []struct {
		index, def uint8
		want       Baud
	}{
		{0, 3, Baud9600},
		{3, 0, Baud57600},
		{4, 0, Baud115200},
		{5, 3, Baud57600},
		{200, 4, Baud115200},
		{9, 9, Baud9600},
	}
	for _, tt := range tests {
		if got := BaudFromIndex(tt.index, tt.def); got != tt.want {
			t.Errorf("BaudFromIndex(%d, %d): expected %d, got %d", tt.index, tt.def, tt.want, got)
		}
	}
}

func TestDivisor(t *testing.T) {
	// ATmega328P datasheet values for a 16 MHz clock
	assert.Equal(t, uint16(103), Baud9600.Divisor(16000000))
	assert.Equal(t, uint16(16), Baud57600.Divisor(16000000))
	assert.Equal(t, uint16(8), Baud115200.Divisor(16000000))
}
