package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osdcon/console"
	"osdcon/core"
	"osdcon/eeprom"
	"osdcon/font"
	"osdcon/max7456"
	"osdcon/settings"
)

// port replays input bytes and collects output.
type port struct {
	in  []byte
	out bytes.Buffer
}

func (p *port) Send(b byte) {
	p.out.WriteByte(b)
}

func (p *port) Receive() uint16 {
	if len(p.in) == 0 {
		return 0x0100
	}
	b := p.in[0]
	p.in = p.in[1:]
	return uint16(b)
}

type rebooted struct{}

type fakeWatchdog struct {
	timeout uint32
}

// Arm unwinds the handler's spin loop.
func (w *fakeWatchdog) Arm(timeoutMs uint32) error {
	w.timeout = timeoutMs
	panic(rebooted{})
}

type harness struct {
	port *port
	mem  *eeprom.Memory
	emu  *max7456.Emulator
	dev  *Device
	con  *console.Console
	wdt  *fakeWatchdog
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{port: &port{}, mem: eeprom.NewMemory(eeprom.Size), emu: max7456.NewEmulator(), wdt: &fakeWatchdog{}}
	store, err := settings.NewDefault(h.mem)
	require.NoError(t, err)
	store.Reset()

	osd := max7456.New(h.emu, nil)
	require.NoError(t, osd.Configure(max7456.Config{Mode: max7456.PAL}))

	h.dev = &Device{
		Settings: store,
		Chip:     osd,
		Screen:   osd,
		Version:  core.Version,
		Modules:  core.TelemetryModules,
		Panels:   core.NameList{"Alt", "Speed"},
		Watchdog: h.wdt,
	}
	h.con = console.New(h.port, Table(h.dev))
	return h
}

// exec runs line and returns everything it printed.
func (h *harness) exec(line string) string {
	h.port.out.Reset()
	h.con.Execute(line)
	return h.port.out.String()
}

func TestTableOrder(t *testing.T) {
	h := newHarness(t)
	var names []string
	for _, c := range h.con.Commands() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"font", "reset", "eeprom", "opt", "info", "help", "exit", "reboot"}, names)
}

func TestOptSetThenGet(t *testing.T) {
	h := newHarness(t)

	out := h.exec("opt s beep_enabled 0")
	assert.True(t, strings.HasSuffix(out, "beep_enabled\t= 0"), "got %q", out)

	out = h.exec("opt s beep_enabled 1")
	assert.True(t, strings.HasSuffix(out, "= 1"), "got %q", out)

	out = h.exec("OPT G BEEP_ENABLED")
	assert.Equal(t, "0x026\t(bool:1@)\tbeep_enabled\t= 1", out)
}

func TestOptSetString(t *testing.T) {
	h := newHarness(t)
	out := h.exec("opt s callsign LONGCALLSIGN")
	assert.True(t, strings.HasSuffix(out, "callsign\t= LONGCALL"), "got %q", out)
}

func TestOptErrors(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		line, want string
	}{
		{"opt", "Args: l - list, g - get, s - set"},
		{"opt x", "Args: l - list, g - get, s - set"},
		{"opt g", "Args: <name>"},
		{"opt s beep_enabled", "Args: <name> <value>"},
		{"opt g nothing", "Unknown option"},
		{"opt s nothing 1", "Unknown option"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, h.exec(tt.line), "line %q", tt.line)
	}
}

func TestOptList(t *testing.T) {
	h := newHarness(t)
	out := h.exec("o l")
	lines := strings.Split(strings.TrimSuffix(out, console.Eol), console.Eol)
	count := 0
	for _, s := range h.dev.Settings.Sections() {
		count += len(s.Options)
	}
	assert.Len(t, lines, count)
	assert.Equal(t, "0x000\t(byte:1@)\tuart_baudrate\t= 3", lines[0])
}

func TestReset(t *testing.T) {
	h := newHarness(t)
	h.exec("opt s bat_cells 9")
	out := h.exec("reset")
	assert.Equal(t, "Reset to defaults... Done.\r\n", out)
	assert.True(t, strings.HasSuffix(h.exec("opt g bat_cells"), "= 3"))
}

func TestEEPROMDump(t *testing.T) {
	mem := eeprom.NewMemory(32)
	mem.Fill(0xAB)
	store, err := settings.New(mem, nil)
	require.NoError(t, err)

	p := &port{}
	c := console.New(p, Table(&Device{Settings: store}))
	c.Execute("eeprom d")

	row := strings.Repeat("ab ", 16) + "\r\n"
	assert.Equal(t, "0000: "+row+"0010: "+row, p.out.String())
}

func TestEEPROMReadWrite(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, h.mem.Bytes(), []byte(h.exec("eeprom r")))

	image := make([]byte, eeprom.Size)
	for i := range image {
		image[i] = byte(i * 3)
	}
	h.port.in = append([]byte(nil), image...)
	assert.Empty(t, h.exec("eeprom w"))
	assert.Equal(t, image, h.mem.Bytes())
	assert.Empty(t, h.port.in)
}

func TestEEPROMWriteAfterCRLF(t *testing.T) {
	h := newHarness(t)

	image := make([]byte, eeprom.Size)
	for i := range image {
		image[i] = byte(i * 7)
	}
	h.port.in = []byte("eeprom w\r\n" + string(image) + "\rexit\r")
	h.con.Run()

	assert.Equal(t, image, h.mem.Bytes())
	assert.Empty(t, h.port.in)
}

func TestEEPROMWriteLeadingLF(t *testing.T) {
	h := newHarness(t)

	image := make([]byte, eeprom.Size)
	image[0] = '\n'
	image[1] = 0x42
	h.port.in = []byte("eeprom w\r\n" + string(image) + "\rexit\r")
	h.con.Run()

	assert.Equal(t, image, h.mem.Bytes())
}

func TestEEPROMUsage(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "Args: d - dump, r - read, w - write", h.exec("eeprom"))
	assert.Equal(t, "Args: d - dump, r - read, w - write", h.exec("eeprom q"))
}

func TestInfo(t *testing.T) {
	h := newHarness(t)
	want := "VERSION: 0019\r\n" +
		"MODULES: ADC UAVTalk MAVLink \r\n" +
		"PANELS:\r\n" +
		"000: Alt\r\n" +
		"001: Speed\r\n"
	assert.Equal(t, want, h.exec("info"))
}

func TestHelp(t *testing.T) {
	h := newHarness(t)
	out := h.exec("help")
	lines := strings.Split(strings.TrimSuffix(out, "\r\n"), "\r\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "font - Upload and download mcm-file", lines[0])
	assert.Equal(t, "reboot - Reboot OSD", lines[7])
}

func TestPrefixDispatch(t *testing.T) {
	h := newHarness(t)
	// "e" is eeprom, not exit
	assert.Equal(t, "Args: d - dump, r - read, w - write", h.exec("e"))
	// "re" is reset, not reboot
	assert.Equal(t, "Reset to defaults... Done.\r\n", h.exec("re"))
	assert.Equal(t, "Invalid command", h.exec("bogus"))
}

func TestFontUsage(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "Args: u - upload, d - download", h.exec("font"))
	assert.Equal(t, "Args: u - upload, d - download", h.exec("font x"))
}

func TestFontDownloadZeroChip(t *testing.T) {
	h := newHarness(t)
	out := h.exec("font d")

	require.True(t, strings.HasPrefix(out, font.Header))
	lines := strings.Split(strings.TrimSuffix(out[len(font.Header):], "\r\n"), "\r\n")
	require.Len(t, lines, 16384)
	for _, l := range lines {
		if l != "00000000" {
			t.Fatalf("Expected all-zero font, got line %q", l)
		}
	}
	// the character table is shown on screen
	assert.Equal(t, uint8(0x7F), h.emu.At(7+15, 7))
}

func TestFontUploadThenDownload(t *testing.T) {
	h := newHarness(t)

	var src font.Table
	for c := range src {
		for i := 0; i < font.GlyphDataSize; i++ {
			src[c][i] = byte(c ^ i)
		}
	}
	var mcm bytes.Buffer
	require.NoError(t, font.Encode(&mcm, &src))

	h.port.in = mcm.Bytes()
	out := h.exec("font u")
	assert.Equal(t, "Send MCM-file\r\nDone.\r\n", out)
	assert.Empty(t, h.port.in)
	assert.Equal(t, font.GlyphCount, h.emu.NVMWrites)
	require.NoError(t, h.emu.Err)

	assert.Equal(t, mcm.String(), h.exec("font d"))
}

func TestFontUploadAfterCRLF(t *testing.T) {
	h := newHarness(t)

	var src font.Table
	for c := range src {
		for i := 0; i < font.GlyphDataSize; i++ {
			src[c][i] = byte(c*3 + i)
		}
	}
	var mcm bytes.Buffer
	require.NoError(t, font.Encode(&mcm, &src))

	h.port.in = []byte("font u\r\n" + mcm.String() + "\rexit\r")
	h.con.Run()
	assert.Empty(t, h.port.in)
	require.NoError(t, h.emu.Err)

	glyph := h.emu.Glyph(0)
	assert.Equal(t, src[0][:4], glyph[:4])
	assert.Equal(t, mcm.String(), h.exec("font d"))
}

func TestExit(t *testing.T) {
	h := newHarness(t)
	h.port.in = []byte("opt s beep_enabled 0\r\nex\r\n")
	h.con.Run()
	assert.False(t, h.con.Running())

	opt, ok := h.dev.Settings.Lookup(settings.OptBeepEnabled)
	require.True(t, ok)
	assert.False(t, h.dev.Settings.ReadBool(opt))
}

func TestReboot(t *testing.T) {
	h := newHarness(t)
	core.ClearEvents()
	assert.PanicsWithValue(t, rebooted{}, func() { h.con.Execute("reboot") })
	assert.Equal(t, uint32(RebootTimeoutMs), h.wdt.timeout)
	assert.Equal(t, 1, core.EventCount(core.EvtReboot))
}
