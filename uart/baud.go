package uart

// Baud is a serial line rate in bits per second.
type Baud uint32

// Supported line rates.
const (
	Baud9600   Baud = 9600
	Baud19200  Baud = 19200
	Baud38400  Baud = 38400
	Baud57600  Baud = 57600
	Baud115200 Baud = 115200
)

// Bitrates is the table of supported rates, indexed by the persisted
// baud rate setting.
var Bitrates = [...]Baud{Baud9600, Baud19200, Baud38400, Baud57600, Baud115200}

// Valid reports whether b is one of the Bitrates.
func (b Baud) Valid() bool {
	for _, r := range Bitrates {
		if r == b {
			return true
		}
	}
	return false
}

// BaudFromIndex maps a persisted baud index to its rate. An index outside
// the table falls back to def, and a bad def falls back to the first entry.
func BaudFromIndex(index, def uint8) Baud {
	if int(index) < len(Bitrates) {
		return Bitrates[index]
	}
	if int(def) < len(Bitrates) {
		return Bitrates[def]
	}
	return Bitrates[0]
}

// Divisor returns the UBRR value for clock at normal speed, rounded to the
// nearest rate.
func (b Baud) Divisor(clock uint32) uint16 {
	return uint16((uint64(clock)+8*uint64(b))/(16*uint64(b)) - 1)
}
