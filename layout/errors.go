package layout

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when an address lies outside every region.
var ErrNotFound = errors.New("address not mapped to any region")

// ErrNoTarget is returned when a layout is checked without a target device.
var ErrNoTarget = errors.New("no target device")

// ParseError reports malformed descriptor input.
type ParseError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("memory.x:%d:%d: %s", e.Line, e.Col, e.Msg)
}

// Kind classifies a ValidationError.
type Kind int

const (
	Overlap Kind = iota + 1
	OutOfDeviceBounds
	Reserved
	MissingRegion
	SymbolOutOfRange
)

func (k Kind) String() string {
	switch k {
	case Overlap:
		return "overlap"
	case OutOfDeviceBounds:
		return "out of device bounds"
	case Reserved:
		return "reserved"
	case MissingRegion:
		return "missing region"
	case SymbolOutOfRange:
		return "symbol out of range"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ValidationError reports a layout that parsed but cannot be linked.
type ValidationError struct {
	Kind Kind
	// Regions names the regions or symbols involved.
	Regions []string
	Detail  string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if len(e.Regions) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(e.Regions, ", "))
		b.WriteString(")")
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

// HasKind reports whether err, or any error joined into it, is a
// ValidationError of kind k.
func HasKind(err error, k Kind) bool {
	if err == nil {
		return false
	}
	var ve *ValidationError
	if errors.As(err, &ve) && ve.Kind == k {
		return true
	}
	switch x := err.(type) {
	case interface{ Unwrap() []error }:
		for _, e := range x.Unwrap() {
			if HasKind(e, k) {
				return true
			}
		}
	case interface{ Unwrap() error }:
		return HasKind(x.Unwrap(), k)
	}
	return false
}
