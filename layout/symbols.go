package layout

import (
	"errors"
	"fmt"
	"io"
)

var errNoDefault = errors.New("no override and no region to derive a default from")

// Symbols are the linker symbols derived from a layout.
type Symbols struct {
	StackStart uint64
	TextStart  uint64
	HeapSize   uint64
}

// ResolveSymbols fills in the symbols l leaves unset: the stack starts at
// the end of RAM, text follows the vector table of t and the heap is empty.
// t must not be nil.
func ResolveSymbols(l Layout, t Target) (Symbols, error) {
	if t == nil {
		return Symbols{}, ErrNoTarget
	}
	var s Symbols
	if l.StackStart != nil {
		s.StackStart = *l.StackStart
	} else {
		ram, ok := l.Region(RAM)
		if !ok {
			return Symbols{}, fmt.Errorf("%s: %w", symStackStart, errNoDefault)
		}
		s.StackStart = ram.End()
	}
	if l.TextStart != nil {
		s.TextStart = *l.TextStart
	} else {
		flash, ok := l.Region(Flash)
		if !ok {
			return Symbols{}, fmt.Errorf("%s: %w", symText, errNoDefault)
		}
		s.TextStart = flash.Origin + t.VectorTableSize()
	}
	if l.HeapSize != nil {
		s.HeapSize = *l.HeapSize
	}
	return s, nil
}

// WriteScript writes s as linker script assignments.
func (s Symbols) WriteScript(w io.Writer) error {
	_, err := fmt.Fprintf(w, "PROVIDE(%s = 0x%08x);\nPROVIDE(%s = 0x%08x);\nPROVIDE(%s = %#x);\n",
		symStackStart, s.StackStart,
		symText, s.TextStart,
		symHeapSize, s.HeapSize)
	return err
}

// Resolved is the record handed to the linker: the regions of a validated
// layout and its resolved symbols.
type Resolved struct {
	Regions []Region
	Symbols Symbols
}

// Resolve validates l against t and resolves its symbols.
func Resolve(l Layout, t Target) (*Resolved, error) {
	if err := Validate(l, t); err != nil {
		return nil, err
	}
	s, err := ResolveSymbols(l, t)
	if err != nil {
		return nil, err
	}
	regions := make([]Region, len(l.Regions))
	copy(regions, l.Regions)
	return &Resolved{Regions: regions, Symbols: s}, nil
}
