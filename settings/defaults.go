package settings

import "osdcon/eeprom"

// Option names referenced by firmware code.
const (
	OptUARTBaudrate = "uart_baudrate"
	OptVideoMode    = "video_mode"
	OptBeepEnabled  = "beep_enabled"
	OptCallsign     = "callsign"
)

// defaultSections is the compiled-in option table. Addresses are assigned
// contiguously from 0 in declaration order, so appending options keeps
// existing EEPROM contents valid; reordering does not.
var defaultSections = Layout(0,
	Section{Name: "console", Options: []Option{
		{Name: OptUARTBaudrate, Type: TypeU8, Default: U8(3)},
		{Name: "console_on_boot", Type: TypeBool, Default: Bool(true)},
	}},
	Section{Name: "video", Options: []Option{
		{Name: OptVideoMode, Type: TypeU8, Default: U8(0)},
		{Name: "video_brightness", Type: TypeU8, Default: U8(0)},
		{Name: "video_h_offset", Type: TypeU8, Default: U8(32)},
		{Name: "video_v_offset", Type: TypeU8, Default: U8(16)},
	}},
	Section{Name: "osd", Options: []Option{
		{Name: "osd_screens", Type: TypeU8, Default: U8(2)},
		{Name: "osd_switch_time", Type: TypeU16, Default: U16(3000)},
		{Name: "osd_units_metric", Type: TypeBool, Default: Bool(true)},
		{Name: OptCallsign, Type: TypeStr, Size: 8, Default: Str("OSD")},
	}},
	Section{Name: "telemetry", Options: []Option{
		{Name: "tlm_module", Type: TypeU8, Default: U8(0)},
		{Name: "tlm_timeout", Type: TypeU16, Default: U16(2000)},
		{Name: "home_alt_offset", Type: TypeF32, Default: F32(0)},
	}},
	Section{Name: "battery", Options: []Option{
		{Name: "bat_cells", Type: TypeU8, Default: U8(3)},
		{Name: "bat_cell_min", Type: TypeF32, Default: F32(3.4)},
		{Name: "bat_cell_max", Type: TypeF32, Default: F32(4.2)},
		{Name: "bat_capacity", Type: TypeU32, Default: U32(2200)},
		{Name: OptBeepEnabled, Type: TypeBool, Default: Bool(true)},
	}},
)

// DefaultSections returns a copy of the compiled-in option table.
func DefaultSections() []Section {
	return cloneSections(defaultSections)
}

// NewDefault creates a Store over mem with the compiled-in option table.
func NewDefault(mem eeprom.Storage) (*Store, error) {
	return New(mem, defaultSections)
}
