// Package layout parses, validates and resolves memory.x style descriptors
// that split an nRF52 address space between a SoftDevice and the application.
package layout

import (
	"fmt"
)

// Names of the regions the symbol defaults are derived from.
const (
	Flash = "FLASH"
	RAM   = "RAM"
)

// Region is one named, contiguous address range declared in a MEMORY block.
type Region struct {
	Name   string
	Origin uint64
	Length uint64
	// Attrs is the optional ld attribute list, e.g. "rx".
	Attrs string
}

// End returns the first address past the region.
func (r Region) End() uint64 {
	return r.Origin + r.Length
}

// Contains reports whether addr lies in [Origin, End).
func (r Region) Contains(addr uint64) bool {
	return addr >= r.Origin && addr < r.End()
}

func (r Region) overlaps(start, end uint64) bool {
	return r.Origin < end && start < r.End()
}

func (r Region) String() string {
	return fmt.Sprintf("%s[0x%08x, 0x%08x)", r.Name, r.Origin, r.End())
}

// Layout is a parsed descriptor. Unset symbol overrides are nil.
type Layout struct {
	Regions []Region

	StackStart *uint64
	TextStart  *uint64
	HeapSize   *uint64
}

// Region returns the region declared with name.
func (l Layout) Region(name string) (Region, bool) {
	for _, r := range l.Regions {
		if r.Name == name {
			return r, true
		}
	}
	return Region{}, false
}

// RegionFor returns the region containing addr. Addresses in gaps between
// regions, such as the SoftDevice range, yield an error wrapping ErrNotFound.
func (l Layout) RegionFor(addr uint64) (Region, error) {
	for _, r := range l.Regions {
		if r.Contains(addr) {
			return r, nil
		}
	}
	return Region{}, fmt.Errorf("address 0x%08x: %w", addr, ErrNotFound)
}

// Span is a physical address range of a target device.
type Span struct {
	Label string
	Start uint64
	End   uint64
}

func (s Span) covers(r Region) bool {
	return r.Origin >= s.Start && r.End() <= s.End
}

// Target describes the device a layout is linked for.
type Target interface {
	// Memory returns the physical flash and RAM ranges.
	Memory() []Span
	// Reserved returns ranges owned by the SoftDevice or a bootloader.
	Reserved() []Span
	// VectorTableSize is the size in bytes of the table at ORIGIN(FLASH).
	VectorTableSize() uint64
}

func u64(v uint64) *uint64 {
	return &v
}
