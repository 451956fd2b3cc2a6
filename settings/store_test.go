package settings

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osdcon/eeprom"
)

func newTestStore(t *testing.T) (*Store, *eeprom.Memory) {
	t.Helper()
	mem := eeprom.NewMemory(eeprom.Size)
	s, err := NewDefault(mem)
	require.NoError(t, err)
	return s, mem
}

func TestDefaultLayoutIsContiguous(t *testing.T) {
	next := uint16(0)
	for _, sec := range DefaultSections() {
		for _, opt := range sec.Options {
			assert.Equal(t, next, opt.Addr, "option %s", opt.Name)
			if w := opt.Type.Width(); w != 0 {
				assert.Equal(t, w, opt.Size, "option %s", opt.Name)
			}
			next += uint16(opt.Size)
		}
	}
	assert.LessOrEqual(t, int(next), eeprom.Size)
}

func TestDescriptorsCannotBeModified(t *testing.T) {
	s, _ := newTestStore(t)

	opt, ok := s.Lookup(OptCallsign)
	require.True(t, ok)
	opt.Addr = 0
	opt.Default = Str("X")
	s.Sections()[0].Options[0].Name = "renamed"
	DefaultSections()[0].Options[0].Default = U8(9)

	again, ok := s.Lookup(OptCallsign)
	require.True(t, ok)
	assert.NotEqual(t, uint16(0), again.Addr)
	assert.Equal(t, Str("OSD"), again.Default)
	_, ok = s.Lookup(OptUARTBaudrate)
	assert.True(t, ok)
	assert.Equal(t, U8(3), DefaultSections()[0].Options[0].Default)

	other, _ := newTestStore(t)
	fresh, _ := other.Lookup(OptCallsign)
	assert.Equal(t, Str("OSD"), fresh.Default)
}

func TestNewRejectsLayoutThatDoesNotFit(t *testing.T) {
	_, err := New(eeprom.NewMemory(16), DefaultSections())
	assert.ErrorIs(t, err, ErrLayout)
}

func TestNewRejectsBadDescriptors(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"zero size", Option{Name: "a", Type: TypeStr, Default: Str("")}},
		{"wrong width", Option{Name: "a", Type: TypeU16, Size: 1, Default: U16(0)}},
		{"long string", Option{Name: "a", Type: TypeStr, Size: MaxStrSize + 1, Default: Str("")}},
		{"default type", Option{Name: "a", Type: TypeU8, Size: 1, Default: Bool(false)}},
		{"no default", Option{Name: "a", Type: TypeU8, Size: 1}},
	}
	for _, tt := range tests {
		_, err := New(eeprom.NewMemory(64), []Section{{Name: "s", Options: []Option{tt.opt}}})
		if err == nil {
			t.Errorf("%s: expected layout error", tt.name)
		}
	}
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	s, _ := newTestStore(t)
	opt, ok := s.Lookup("BEEP_Enabled")
	require.True(t, ok)
	assert.Equal(t, OptBeepEnabled, opt.Name)

	_, ok = s.Lookup("beep")
	assert.False(t, ok, "lookup must not prefix match")
}

func TestTypedRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	lookup := func(name string) *Option {
		opt, ok := s.Lookup(name)
		require.True(t, ok, name)
		return opt
	}

	require.NoError(t, s.WriteBool(OptBeepEnabled, false))
	assert.False(t, s.ReadBool(lookup(OptBeepEnabled)))

	require.NoError(t, s.WriteU8("bat_cells", 6))
	assert.Equal(t, uint8(6), s.ReadU8(lookup("bat_cells")))

	require.NoError(t, s.WriteU16("osd_switch_time", 65535))
	assert.Equal(t, uint16(65535), s.ReadU16(lookup("osd_switch_time")))

	require.NoError(t, s.WriteU32("bat_capacity", 4000000000))
	assert.Equal(t, uint32(4000000000), s.ReadU32(lookup("bat_capacity")))

	require.NoError(t, s.WriteF32("bat_cell_min", 3.25))
	assert.Equal(t, float32(3.25), s.ReadF32(lookup("bat_cell_min")))

	require.NoError(t, s.WriteStr(OptCallsign, "N0CALL"))
	assert.Equal(t, "N0CALL", s.ReadStr(lookup(OptCallsign)))
}

func TestWriteLittleEndian(t *testing.T) {
	s, mem := newTestStore(t)
	opt, _ := s.Lookup("osd_switch_time")
	require.NoError(t, s.WriteU16(opt.Name, 0x1234))
	assert.Equal(t, byte(0x34), mem.Load(opt.Addr))
	assert.Equal(t, byte(0x12), mem.Load(opt.Addr+1))
}

func TestWriteStrTruncatesAndPads(t *testing.T) {
	s, mem := newTestStore(t)
	opt, _ := s.Lookup(OptCallsign)

	require.NoError(t, s.WriteStr(OptCallsign, "ABCDEFGHIJKL"))
	assert.Equal(t, "ABCDEFGH", s.ReadStr(opt))
	// the neighbour after the string is untouched
	next, _ := s.Lookup("tlm_module")
	assert.Equal(t, byte(eeprom.Erased), mem.Load(next.Addr))

	require.NoError(t, s.WriteStr(OptCallsign, "AB"))
	assert.Equal(t, "AB", s.ReadStr(opt))
	for i := uint16(2); i < uint16(opt.Size); i++ {
		assert.Equal(t, byte(0), mem.Load(opt.Addr+i))
	}
}

func TestWriteErrors(t *testing.T) {
	s, _ := newTestStore(t)
	assert.ErrorIs(t, s.WriteU8("no_such_option", 1), ErrUnknownOption)
	assert.ErrorIs(t, s.WriteU8(OptBeepEnabled, 1), ErrTypeMismatch)
	assert.ErrorIs(t, s.Write(OptBeepEnabled, nil), ErrTypeMismatch)
}

func TestReadUsesRecordedType(t *testing.T) {
	s, _ := newTestStore(t)
	opt, _ := s.Lookup("bat_capacity")
	// typed accessor of the wrong type yields the zero value
	assert.Equal(t, uint8(0), s.ReadU8(opt))
	assert.Equal(t, U32(0xffffffff), s.Read(opt))
}

func TestResetIsDeterministic(t *testing.T) {
	s, mem := newTestStore(t)
	s.Reset()
	first := append([]byte(nil), mem.Bytes()...)

	require.NoError(t, s.WriteStr(OptCallsign, "XYZ"))
	require.NoError(t, s.WriteF32("bat_cell_max", 9))
	s.Reset()
	assert.Equal(t, first, mem.Bytes())

	for _, sec := range s.Sections() {
		for i := range sec.Options {
			opt := &sec.Options[i]
			assert.Equal(t, opt.Default, s.Read(opt), "option %s", opt.Name)
		}
	}
}

func TestResetSkipsUnchangedCells(t *testing.T) {
	s, mem := newTestStore(t)
	s.Reset()
	writes := mem.Writes()
	s.Reset()
	assert.Equal(t, writes, mem.Writes())
}

func TestSetParsesText(t *testing.T) {
	s, _ := newTestStore(t)
	tests := []struct {
		name, text, want string
	}{
		{OptBeepEnabled, "1", "1"},
		{OptBeepEnabled, "0", "0"},
		{OptBeepEnabled, "yes", "0"},
		{"bat_cells", "12abc", "12"},
		{"bat_cells", "257", "1"},
		{"bat_cells", "-1", "255"},
		{"osd_switch_time", "  500", "500"},
		{"bat_capacity", "x", "0"},
		{"bat_cell_max", "4.35", "4.3500"},
		{"bat_cell_max", "-2.5e1V", "-25.0000"},
		{"bat_cell_max", "volts", "0.0000"},
		{OptCallsign, "FPV", "FPV"},
	}
	for _, tt := range tests {
		opt, err := s.Set(tt.name, tt.text)
		require.NoError(t, err)
		if got := Format(s.Read(opt)); got != tt.want {
			t.Errorf("Set %s %q: expected %q, got %q", tt.name, tt.text, tt.want, got)
		}
	}

	_, err := s.Set("nope", "1")
	assert.ErrorIs(t, err, ErrUnknownOption)
}

func TestDescribe(t *testing.T) {
	s, _ := newTestStore(t)
	s.Reset()

	opt, _ := s.Lookup(OptBeepEnabled)
	assert.Equal(t, "0x026\t(bool:1@)\tbeep_enabled\t= 1", s.Describe(opt))

	opt, _ = s.Lookup("bat_cell_max")
	assert.Equal(t, "0x01e\t(float:4@)\tbat_cell_max\t= 4.2000", s.Describe(opt))

	opt, _ = s.Lookup(OptCallsign)
	assert.Equal(t, "0x00a\t(str:8@)\tcallsign\t= OSD", s.Describe(opt))
}

func TestList(t *testing.T) {
	s, _ := newTestStore(t)
	s.Reset()

	var buf bytes.Buffer
	require.NoError(t, s.List(&buf, "\r\n"))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\r\n"), "\r\n")
	count := 0
	for _, sec := range s.Sections() {
		count += len(sec.Options)
	}
	require.Len(t, lines, count)
	assert.Equal(t, "0x000\t(byte:1@)\tuart_baudrate\t= 3", lines[0])
	assert.True(t, strings.HasSuffix(lines[len(lines)-1], "beep_enabled\t= 1"))
}

func TestBlank(t *testing.T) {
	s, _ := newTestStore(t)
	assert.True(t, s.Blank())
	require.NoError(t, s.WriteU8("bat_cells", 4))
	assert.False(t, s.Blank())
}
