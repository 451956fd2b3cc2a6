package core

// Version is the firmware version reported by the console, printed as four
// decimal digits.
const Version uint16 = 19

// Names is a read-only registry of named items addressed by index. The
// telemetry module list and the OSD panel list are exposed this way.
type Names interface {
	Count() int
	Name(i int) string
}

// NameList is a compiled-in Names table.
type NameList []string

// Count implements Names.
func (l NameList) Count() int {
	return len(l)
}

// Name implements Names. Out of range indices yield an empty name.
func (l NameList) Name(i int) string {
	if i < 0 || i >= len(l) {
		return ""
	}
	return l[i]
}

// Telemetry modules linked into this build.
var TelemetryModules = NameList{
	"ADC",
	"UAVTalk",
	"MAVLink",
}

// OSD panels linked into this build, in panel id order.
var Panels = NameList{
	"StableAlt",
	"Climb",
	"FlightMode",
	"ArmedFlag",
	"ConState",
	"FlightTime",
	"Roll",
	"Pitch",
	"GPS",
	"Lat",
	"Lon",
	"Horizon",
	"Throttle",
	"GroundSpeed",
	"BatVoltage",
	"BatCurrent",
	"BatConsumed",
	"RSSIFlag",
	"HomeDistance",
	"HomeDirection",
	"CallSign",
	"Temperature",
	"RSSI",
	"Compass",
}

// Watchdog arms a hardware reset.
type Watchdog interface {
	// Arm starts the watchdog with the given timeout in milliseconds.
	Arm(timeoutMs uint32) error
}
