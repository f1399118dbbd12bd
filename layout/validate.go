package layout

import (
	"errors"
	"fmt"
	"sort"
)

// Validate checks l against the memory of t, which must not be nil. All
// problems found are returned joined; use HasKind or errors.As to inspect
// them.
func Validate(l Layout, t Target) error {
	if t == nil {
		return ErrNoTarget
	}
	var errs []error
	errs = append(errs, checkOverlap(l.Regions)...)
	errs = append(errs, checkBounds(l.Regions, t)...)
	errs = append(errs, checkSymbols(l, t)...)
	return errors.Join(errs...)
}

// checkOverlap sorts by origin and sweeps, comparing each region with the
// one reaching furthest so far. Regions sharing an origin always overlap.
func checkOverlap(regions []Region) []error {
	if len(regions) < 2 {
		return nil
	}
	sorted := make([]Region, len(regions))
	copy(sorted, regions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Origin < sorted[j].Origin
	})

	var errs []error
	reach := sorted[0]
	for _, r := range sorted[1:] {
		if r.Origin == reach.Origin || r.Origin < reach.End() {
			errs = append(errs, &ValidationError{
				Kind:    Overlap,
				Regions: []string{reach.Name, r.Name},
				Detail:  fmt.Sprintf("%v intersects %v", r, reach),
			})
		}
		if r.End() > reach.End() {
			reach = r
		}
	}
	return errs
}

func checkBounds(regions []Region, t Target) []error {
	var errs []error
	mem := t.Memory()
	for _, r := range regions {
		inside := false
		for _, s := range mem {
			if s.covers(r) {
				inside = true
				break
			}
		}
		if !inside {
			errs = append(errs, &ValidationError{
				Kind:    OutOfDeviceBounds,
				Regions: []string{r.Name},
				Detail:  fmt.Sprintf("%v is not backed by device memory", r),
			})
		}
		for _, s := range t.Reserved() {
			if r.overlaps(s.Start, s.End) {
				errs = append(errs, &ValidationError{
					Kind:    Reserved,
					Regions: []string{r.Name},
					Detail:  fmt.Sprintf("%v intersects %s [0x%08x, 0x%08x)", r, s.Label, s.Start, s.End),
				})
			}
		}
	}
	return errs
}

func checkSymbols(l Layout, t Target) []error {
	var errs []error
	flash, hasFlash := l.Region(Flash)
	ram, hasRAM := l.Region(RAM)
	if !hasFlash {
		errs = append(errs, &ValidationError{Kind: MissingRegion, Regions: []string{Flash}})
	}
	if !hasRAM {
		errs = append(errs, &ValidationError{Kind: MissingRegion, Regions: []string{RAM}})
	}
	// The stack is full descending: the first push lands at StackStart-1.
	if hasRAM && l.StackStart != nil {
		if v := *l.StackStart; v <= ram.Origin || v > ram.End() {
			errs = append(errs, &ValidationError{
				Kind:    SymbolOutOfRange,
				Regions: []string{symStackStart},
				Detail:  fmt.Sprintf("0x%08x is outside %v", v, ram),
			})
		}
	}
	if hasRAM && l.HeapSize != nil && *l.HeapSize > ram.Length {
		errs = append(errs, &ValidationError{
			Kind:    SymbolOutOfRange,
			Regions: []string{symHeapSize},
			Detail:  fmt.Sprintf("%d bytes exceeds %v", *l.HeapSize, ram),
		})
	}
	if hasFlash && l.TextStart != nil && !flash.Contains(*l.TextStart) {
		errs = append(errs, &ValidationError{
			Kind:    SymbolOutOfRange,
			Regions: []string{symText},
			Detail:  fmt.Sprintf("0x%08x is outside %v", *l.TextStart, flash),
		})
	}
	// The default text start follows the vector table.
	if hasFlash && l.TextStart == nil && flash.Length <= t.VectorTableSize() {
		errs = append(errs, &ValidationError{
			Kind:    SymbolOutOfRange,
			Regions: []string{symText},
			Detail:  fmt.Sprintf("%d byte vector table leaves no text in %v", t.VectorTableSize(), flash),
		})
	}
	return errs
}
