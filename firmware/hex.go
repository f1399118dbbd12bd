// Package firmware checks application images against a memory layout.
package firmware

import (
	"errors"
	"fmt"
	"io"

	"github.com/marcinbor85/gohex"
	"github.com/q0jt/nrf-layout/layout"
)

// Segment is one contiguous data block of an image.
type Segment struct {
	Address uint32
	Size    uint32
	// Region is empty when the segment starts outside every region.
	Region string
	Err    error
}

// Report lists the segments of an image and where they landed.
type Report struct {
	Segments []Segment
}

// Err returns the problems found, joined, or nil.
func (r *Report) Err() error {
	var errs []error
	for _, s := range r.Segments {
		if s.Err != nil {
			errs = append(errs, s.Err)
		}
	}
	return errors.Join(errs...)
}

// Bytes returns the bytes of the image placed in region.
func (r *Report) Bytes(region string) uint64 {
	var n uint64
	for _, s := range r.Segments {
		if s.Region == region {
			n += uint64(s.Size)
		}
	}
	return n
}

// CheckHex maps every data segment of an Intel HEX image to the region of
// l that holds it.
func CheckHex(r io.Reader, l layout.Layout) (*Report, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return nil, err
	}
	return check(mem, l), nil
}

func check(mem *gohex.Memory, l layout.Layout) *Report {
	report := &Report{}
	for _, segment := range mem.GetDataSegments() {
		s := Segment{Address: segment.Address, Size: uint32(len(segment.Data))}
		start := uint64(s.Address)
		end := start + uint64(s.Size)
		region, err := l.RegionFor(start)
		switch {
		case err != nil:
			s.Err = fmt.Errorf("segment [0x%08x, 0x%08x): %w", start, end, err)
		case end > region.End():
			s.Region = region.Name
			s.Err = fmt.Errorf("segment [0x%08x, 0x%08x) runs past %v", start, end, region)
		default:
			s.Region = region.Name
		}
		report.Segments = append(report.Segments, s)
	}
	return report
}
