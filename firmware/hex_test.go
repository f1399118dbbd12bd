package firmware

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/marcinbor85/gohex"
	"github.com/q0jt/nrf-layout/layout"
)

var nrf52840S140 = layout.Layout{
	Regions: []layout.Region{
		{Name: layout.Flash, Origin: 0x00026000, Length: 796 * 1024},
		{Name: layout.RAM, Origin: 0x20004000, Length: 46 * 1024},
	},
}

func appHex(t *testing.T, segments map[uint32]int) *bytes.Buffer {
	t.Helper()
	mem := gohex.NewMemory()
	for addr, size := range segments {
		if err := mem.AddBinary(addr, bytes.Repeat([]byte{0xA5}, size)); err != nil {
			t.Fatalf("AddBinary(%#x): %v", addr, err)
		}
	}
	var buf bytes.Buffer
	if err := mem.DumpIntelHex(&buf, 16); err != nil {
		t.Fatalf("DumpIntelHex: %v", err)
	}
	return &buf
}

func TestCheckHex(t *testing.T) {
	for _, test := range []struct {
		desc      string
		segments  map[uint32]int
		wantFlash uint64
		wantErr   bool
		notFound  bool
	}{
		{
			desc:      "fits",
			segments:  map[uint32]int{0x26000: 0x400, 0x30000: 0x100},
			wantFlash: 0x500,
		}, {
			desc:     "inside softdevice",
			segments: map[uint32]int{0x1000: 0x100, 0x26000: 0x400},
			wantErr:  true,
			notFound: true,
		}, {
			desc:     "uicr",
			segments: map[uint32]int{0x26000: 0x400, 0x10001014: 4},
			wantErr:  true,
			notFound: true,
		}, {
			desc:     "runs past flash",
			segments: map[uint32]int{0xECF00: 0x200},
			wantErr:  true,
		},
	} {
		t.Run(test.desc, func(t *testing.T) {
			report, err := CheckHex(appHex(t, test.segments), nrf52840S140)
			if err != nil {
				t.Fatalf("CheckHex: %v", err)
			}
			if got, want := len(report.Segments), len(test.segments); got != want {
				t.Errorf("CheckHex found %d segments, want %d", got, want)
			}
			err = report.Err()
			if gotErr := err != nil; gotErr != test.wantErr {
				t.Fatalf("Report.Err = %v, want error %t", err, test.wantErr)
			}
			if got := errors.Is(err, layout.ErrNotFound); got != test.notFound {
				t.Errorf("errors.Is(%v, ErrNotFound) = %t, want %t", err, got, test.notFound)
			}
			if !test.wantErr {
				if got := report.Bytes(layout.Flash); got != test.wantFlash {
					t.Errorf("Bytes(FLASH) = %#x, want %#x", got, test.wantFlash)
				}
			}
		})
	}
}

func TestCheckHexMalformed(t *testing.T) {
	if _, err := CheckHex(strings.NewReader(":0000000"), nrf52840S140); err == nil {
		t.Error("CheckHex accepted malformed hex")
	}
}
