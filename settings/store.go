// Package settings maps a compiled-in table of typed option descriptors onto
// the EEPROM and gives generic access to them by name.
package settings

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"osdcon/core"
	"osdcon/eeprom"
)

var (
	ErrUnknownOption = errors.New("unknown option")
	ErrTypeMismatch  = errors.New("option type mismatch")
	ErrLayout        = errors.New("invalid option layout")
)

// Option describes one persisted setting. Descriptors are built once and
// never change; only the cells they reference do.
type Option struct {
	Name    string
	Addr    uint16
	Type    Type
	Size    uint8
	Default Value
}

// Section is a named, ordered group of options.
type Section struct {
	Name    string
	Options []Option
}

// Store gives typed access to the options of its sections.
type Store struct {
	mem      eeprom.Storage
	sections []Section
}

// New creates a Store over mem. The sections must fit mem and every
// option's size and default must agree with its type. The Store keeps its
// own copy of the table.
func New(mem eeprom.Storage, sections []Section) (*Store, error) {
	sections = cloneSections(sections)
	for s := range sections {
		for i := range sections[s].Options {
			opt := &sections[s].Options[i]
			if err := opt.check(); err != nil {
				return nil, err
			}
			if int(opt.Addr)+int(opt.Size) > mem.Len() {
				return nil, fmt.Errorf("%w: %s does not fit in %d bytes", ErrLayout, opt.Name, mem.Len())
			}
		}
	}
	return &Store{mem: mem, sections: sections}, nil
}

func (o *Option) check() error {
	if o.Size == 0 {
		return fmt.Errorf("%w: %s has zero size", ErrLayout, o.Name)
	}
	if w := o.Type.Width(); w != 0 && w != o.Size {
		return fmt.Errorf("%w: %s is %s but %d bytes wide", ErrLayout, o.Name, o.Type, o.Size)
	}
	if o.Type == TypeStr && o.Size > MaxStrSize {
		return fmt.Errorf("%w: %s exceeds %d bytes", ErrLayout, o.Name, MaxStrSize)
	}
	if o.Default == nil || o.Default.Type() != o.Type {
		return fmt.Errorf("%w: %s default does not match %s", ErrLayout, o.Name, o.Type)
	}
	return nil
}

// Layout assigns consecutive addresses starting at base to every option in
// declaration order and fills in the size of fixed-width types.
func Layout(base uint16, sections ...Section) []Section {
	addr := base
	for s := range sections {
		for i := range sections[s].Options {
			opt := &sections[s].Options[i]
			if w := opt.Type.Width(); w != 0 {
				opt.Size = w
			}
			opt.Addr = addr
			addr += uint16(opt.Size)
		}
	}
	return sections
}

// Sections returns a copy of the option table.
func (s *Store) Sections() []Section {
	return cloneSections(s.sections)
}

func cloneSections(sections []Section) []Section {
	out := make([]Section, len(sections))
	for i, sec := range sections {
		out[i] = Section{Name: sec.Name, Options: append([]Option(nil), sec.Options...)}
	}
	return out
}

// Storage returns the backing store.
func (s *Store) Storage() eeprom.Storage {
	return s.mem
}

// Lookup finds an option by case-insensitive name. The descriptor
// returned is a copy.
func (s *Store) Lookup(name string) (*Option, bool) {
	for i := range s.sections {
		opts := s.sections[i].Options
		for j := range opts {
			if strings.EqualFold(opts[j].Name, name) {
				opt := opts[j]
				return &opt, true
			}
		}
	}
	return nil, false
}

// Read decodes the current value of opt.
func (s *Store) Read(opt *Option) Value {
	var raw [MaxStrSize]byte
	cells := raw[:opt.Size]
	for i := range cells {
		cells[i] = s.mem.Load(opt.Addr + uint16(i))
	}
	return decode(opt.Type, cells)
}

// Write stores v into the option called name. v must have the option's
// type; strings are truncated to the option size.
func (s *Store) Write(name string, v Value) error {
	opt, ok := s.Lookup(name)
	if !ok {
		return ErrUnknownOption
	}
	return s.store(opt, v)
}

func (s *Store) store(opt *Option, v Value) error {
	if v == nil || v.Type() != opt.Type {
		return ErrTypeMismatch
	}
	var raw [MaxStrSize]byte
	cells := raw[:opt.Size]
	encode(v, cells)
	for i, b := range cells {
		s.mem.Update(opt.Addr+uint16(i), b)
	}
	return nil
}

// Set parses text for the option called name and stores it. Malformed
// numbers store the type's zero value.
func (s *Store) Set(name, text string) (*Option, error) {
	opt, ok := s.Lookup(name)
	if !ok {
		return nil, ErrUnknownOption
	}
	return opt, s.store(opt, Parse(opt.Type, text))
}

// Reset writes every option's default, in declaration order. An
// interrupted reset leaves a mix of old and new values.
func (s *Store) Reset() {
	for i := range s.sections {
		opts := s.sections[i].Options
		for j := range opts {
			// check() in New guarantees the default type
			_ = s.store(&opts[j], opts[j].Default)
		}
	}
	core.RecordEvent(core.EvtSettings, 0, 0)
}

// Blank reports whether every option cell still holds the erased value,
// i.e. the EEPROM has never been written.
func (s *Store) Blank() bool {
	for i := range s.sections {
		opts := s.sections[i].Options
		for j := range opts {
			for k := uint16(0); k < uint16(opts[j].Size); k++ {
				if s.mem.Load(opts[j].Addr+k) != eeprom.Erased {
					return false
				}
			}
		}
	}
	return true
}

// Describe renders the listing line of opt with its current value.
func (s *Store) Describe(opt *Option) string {
	return DescribeValue(opt, s.Read(opt))
}

// DescribeValue renders a listing line:
// <addr>\t(<type>:<size>@)\t<name>\t= <value>
// The address is always printed with three hex digits, as in 0x026.
func DescribeValue(opt *Option, v Value) string {
	return fmt.Sprintf("0x%03x\t(%s:%d@)\t%s\t= %s", opt.Addr, opt.Type, opt.Size, opt.Name, Format(v))
}

// List writes the listing line of every option, each terminated by eol.
func (s *Store) List(w io.Writer, eol string) error {
	for i := range s.sections {
		opts := s.sections[i].Options
		for j := range opts {
			if _, err := io.WriteString(w, s.Describe(&opts[j])+eol); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadBool returns a Bool option; other types read as false.
func (s *Store) ReadBool(opt *Option) bool {
	v, _ := s.Read(opt).(Bool)
	return bool(v)
}

// ReadU8 returns a U8 option.
func (s *Store) ReadU8(opt *Option) uint8 {
	v, _ := s.Read(opt).(U8)
	return uint8(v)
}

// ReadU16 returns a U16 option.
func (s *Store) ReadU16(opt *Option) uint16 {
	v, _ := s.Read(opt).(U16)
	return uint16(v)
}

// ReadU32 returns a U32 option.
func (s *Store) ReadU32(opt *Option) uint32 {
	v, _ := s.Read(opt).(U32)
	return uint32(v)
}

// ReadF32 returns an F32 option.
func (s *Store) ReadF32(opt *Option) float32 {
	v, _ := s.Read(opt).(F32)
	return float32(v)
}

// ReadStr returns a Str option.
func (s *Store) ReadStr(opt *Option) string {
	v, _ := s.Read(opt).(Str)
	return string(v)
}

func (s *Store) WriteBool(name string, v bool) error {
	return s.Write(name, Bool(v))
}

func (s *Store) WriteU8(name string, v uint8) error {
	return s.Write(name, U8(v))
}

func (s *Store) WriteU16(name string, v uint16) error {
	return s.Write(name, U16(v))
}

func (s *Store) WriteU32(name string, v uint32) error {
	return s.Write(name, U32(v))
}

func (s *Store) WriteF32(name string, v float32) error {
	return s.Write(name, F32(v))
}

// WriteStr stores v truncated to the option size.
func (s *Store) WriteStr(name string, v string) error {
	return s.Write(name, Str(v))
}
