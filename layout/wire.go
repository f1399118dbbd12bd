package layout

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the binary record. The layout matches
//
//	message Region { string name = 1; uint64 origin = 2; uint64 length = 3; string attrs = 4; }
//	message Resolved { repeated Region regions = 1; uint64 stack_start = 2; uint64 text_start = 3; uint64 heap_size = 4; }
const (
	fieldRegions    protowire.Number = 1
	fieldStackStart protowire.Number = 2
	fieldTextStart  protowire.Number = 3
	fieldHeapSize   protowire.Number = 4

	fieldRegionName   protowire.Number = 1
	fieldRegionOrigin protowire.Number = 2
	fieldRegionLength protowire.Number = 3
	fieldRegionAttrs  protowire.Number = 4
)

var errWireType = errors.New("unexpected wire type")

// MarshalBinary encodes r in protobuf wire format.
func (r *Resolved) MarshalBinary() ([]byte, error) {
	var b []byte
	for _, reg := range r.Regions {
		b = protowire.AppendTag(b, fieldRegions, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalRegion(reg))
	}
	b = appendUint(b, fieldStackStart, r.Symbols.StackStart)
	b = appendUint(b, fieldTextStart, r.Symbols.TextStart)
	b = appendUint(b, fieldHeapSize, r.Symbols.HeapSize)
	return b, nil
}

func appendUint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func marshalRegion(r Region) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldRegionName, protowire.BytesType)
	b = protowire.AppendString(b, r.Name)
	b = appendUint(b, fieldRegionOrigin, r.Origin)
	b = appendUint(b, fieldRegionLength, r.Length)
	if r.Attrs != "" {
		b = protowire.AppendTag(b, fieldRegionAttrs, protowire.BytesType)
		b = protowire.AppendString(b, r.Attrs)
	}
	return b
}

// UnmarshalBinary decodes a record written by MarshalBinary. Unknown fields
// are skipped.
func (r *Resolved) UnmarshalBinary(b []byte) error {
	var out Resolved
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldRegions && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			reg, err := unmarshalRegion(v)
			if err != nil {
				return 0, err
			}
			out.Regions = append(out.Regions, reg)
			return n, nil
		case num == fieldStackStart:
			return consumeUint(typ, b, &out.Symbols.StackStart)
		case num == fieldTextStart:
			return consumeUint(typ, b, &out.Symbols.TextStart)
		case num == fieldHeapSize:
			return consumeUint(typ, b, &out.Symbols.HeapSize)
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err != nil {
		return fmt.Errorf("layout record: %w", err)
	}
	*r = out
	return nil
}

func unmarshalRegion(b []byte) (Region, error) {
	var reg Region
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldRegionName && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			reg.Name = v
			return n, nil
		case num == fieldRegionOrigin:
			return consumeUint(typ, b, &reg.Origin)
		case num == fieldRegionLength:
			return consumeUint(typ, b, &reg.Length)
		case num == fieldRegionAttrs && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			reg.Attrs = v
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return reg, err
}

func consumeUint(typ protowire.Type, b []byte, dst *uint64) (int, error) {
	if typ != protowire.VarintType {
		return 0, errWireType
	}
	v, n := protowire.ConsumeVarint(b)
	*dst = v
	return n, nil
}

// consumeFields walks the fields of one message. fn consumes a field value
// and returns its length, or a negative protowire error code.
func consumeFields(b []byte, fn func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		m, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if m < 0 {
			return protowire.ParseError(m)
		}
		b = b[m:]
	}
	return nil
}
