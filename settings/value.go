package settings

import (
	"encoding/binary"
	"math"
	"strconv"
)

// Type tags the representation of an option in the backing store.
type Type uint8

const (
	TypeBool Type = iota
	TypeU8
	TypeU16
	TypeU32
	TypeF32
	TypeStr
)

// MaxStrSize is the largest FixedStr option.
const MaxStrSize = 16

var typeNames = [...]string{"bool", "byte", "word", "dword", "float", "str"}

// String returns the type name used in option listings.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "?"
}

// Width returns the byte width of fixed-size types and 0 for TypeStr.
func (t Type) Width() uint8 {
	switch t {
	case TypeBool, TypeU8:
		return 1
	case TypeU16:
		return 2
	case TypeU32, TypeF32:
		return 4
	}
	return 0
}

// Value is an option value. The concrete types are Bool, U8, U16, U32, F32
// and Str; encode and decode below are the only place backing-store bytes
// are interpreted.
type Value interface {
	Type() Type
}

type (
	Bool bool
	U8   uint8
	U16  uint16
	U32  uint32
	F32  float32
	Str  string
)

func (Bool) Type() Type { return TypeBool }
func (U8) Type() Type   { return TypeU8 }
func (U16) Type() Type  { return TypeU16 }
func (U32) Type() Type  { return TypeU32 }
func (F32) Type() Type  { return TypeF32 }
func (Str) Type() Type  { return TypeStr }

// decode interprets the raw cells of an option. len(raw) == opt.Size.
func decode(t Type, raw []byte) Value {
	switch t {
	case TypeBool:
		return Bool(raw[0] != 0)
	case TypeU8:
		return U8(raw[0])
	case TypeU16:
		return U16(binary.LittleEndian.Uint16(raw))
	case TypeU32:
		return U32(binary.LittleEndian.Uint32(raw))
	case TypeF32:
		return F32(math.Float32frombits(binary.LittleEndian.Uint32(raw)))
	case TypeStr:
		n := 0
		for n < len(raw) && raw[n] != 0 {
			n++
		}
		return Str(raw[:n])
	}
	panic("settings: unknown option type " + strconv.Itoa(int(t)))
}

// encode renders v into raw, which has the option's size. Strings longer
// than the option are truncated, shorter ones NUL padded.
func encode(v Value, raw []byte) {
	switch v := v.(type) {
	case Bool:
		if v {
			raw[0] = 1
		} else {
			raw[0] = 0
		}
	case U8:
		raw[0] = byte(v)
	case U16:
		binary.LittleEndian.PutUint16(raw, uint16(v))
	case U32:
		binary.LittleEndian.PutUint32(raw, uint32(v))
	case F32:
		binary.LittleEndian.PutUint32(raw, math.Float32bits(float32(v)))
	case Str:
		n := copy(raw, v)
		for i := n; i < len(raw); i++ {
			raw[i] = 0
		}
	default:
		panic("settings: unknown value type")
	}
}

// Format renders v the way the console prints it: booleans and unsigned
// integers as unsigned decimal, floats with four fractional digits,
// strings raw.
func Format(v Value) string {
	switch v := v.(type) {
	case Bool:
		if v {
			return "1"
		}
		return "0"
	case U8:
		return strconv.FormatUint(uint64(v), 10)
	case U16:
		return strconv.FormatUint(uint64(v), 10)
	case U32:
		return strconv.FormatUint(uint64(v), 10)
	case F32:
		return strconv.FormatFloat(float64(v), 'f', 4, 32)
	case Str:
		return string(v)
	}
	return ""
}

// Parse converts console text to a value of type t. Parsing is best effort
// in the manner of atoi/atol/atof: leading whitespace is skipped, the
// longest numeric prefix is used and anything unparsable yields zero.
// Integers wrap to the width of t.
func Parse(t Type, text string) Value {
	switch t {
	case TypeBool:
		return Bool(atol(text) != 0)
	case TypeU8:
		return U8(atol(text))
	case TypeU16:
		return U16(atol(text))
	case TypeU32:
		return U32(atol(text))
	case TypeF32:
		return F32(atof(text))
	case TypeStr:
		return Str(text)
	}
	return nil
}

func skipSpace(s string) string {
	i := 0
	for i < len(s) && (s[i] == ' ' || (s[i] >= '\t' && s[i] <= '\r')) {
		i++
	}
	return s[i:]
}

// atol parses an optionally signed decimal prefix, wrapping at 32 bits.
func atol(s string) int32 {
	s = skipSpace(s)
	neg := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	var n uint32
	for i := 0; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		n = n*10 + uint32(s[i]-'0')
	}
	if neg {
		n = -n
	}
	return int32(n)
}

// atof parses the longest floating point prefix of s.
func atof(s string) float32 {
	s = skipSpace(s)
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	end := i
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && s[j] >= '0' && s[j] <= '9' {
			for j < len(s) && s[j] >= '0' && s[j] <= '9' {
				j++
			}
			end = j
		}
	}
	// out of range input yields ±Inf or 0 along with the error
	f, _ := strconv.ParseFloat(s[:end], 32)
	return float32(f)
}
