package layout_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/q0jt/nrf-layout/layout"
)

const nrf52840S140 = `MEMORY
{
  /* NOTE 1 K = 1 KiBi = 1024 bytes */
  /* These values correspond to the nRF52840 with Softdevices S140 6.1.1 */
  FLASH : ORIGIN = 0x00026000, LENGTH = 796K
  RAM : ORIGIN = 0x20004000, LENGTH = 46K
}

/* This is where the call stack will be allocated. */
/* The stack is of the full descending type. */
/* You may want to use this variable to locate the call stack and static
   variables in different memory regions. Below is shown the default value */
/* _stack_start = ORIGIN(RAM) + LENGTH(RAM); */

/* You can use this symbol to customize the location of the .text section */
/* If omitted the .text section will be placed right after the .vector_table
   section */
/* This is required only on microcontrollers that store some configuration right
   after the vector table */
/* _stext = ORIGIN(FLASH) + 0x400; */

/* Size of the heap (in bytes) */
/* _heap_size = 1024; */
`

func u64(v uint64) *uint64 {
	return &v
}

func TestParse(t *testing.T) {
	for _, test := range []struct {
		desc string
		src  string
		want layout.Layout
	}{
		{
			desc: "softdevice layout",
			src:  nrf52840S140,
			want: layout.Layout{
				Regions: []layout.Region{
					{Name: "FLASH", Origin: 0x00026000, Length: 796 * 1024},
					{Name: "RAM", Origin: 0x20004000, Length: 46 * 1024},
				},
			},
		}, {
			desc: "overrides",
			src: `MEMORY {
  FLASH : ORIGIN = 0x00026000, LENGTH = 796K
  RAM : ORIGIN = 0x20004000, LENGTH = 46K
}
_stack_start = ORIGIN(RAM) + LENGTH(RAM) - 1K;
PROVIDE(_stext = ORIGIN(FLASH) + 0x400);
_heap_size = 2 * (512 + 512);
`,
			want: layout.Layout{
				Regions: []layout.Region{
					{Name: "FLASH", Origin: 0x00026000, Length: 796 * 1024},
					{Name: "RAM", Origin: 0x20004000, Length: 46 * 1024},
				},
				StackStart: u64(0x2000F400),
				TextStart:  u64(0x00026400),
				HeapSize:   u64(2048),
			},
		}, {
			desc: "attributes and short keywords",
			src: `MEMORY
{
  FLASH (rx) : org = 0x1000, len = 1M
  RAM (rwx!x) : o = 0x20000000, l = 0x2000
  RAM2 : ORIGIN = ORIGIN(RAM) + LENGTH(RAM), LENGTH = 100
}`,
			want: layout.Layout{
				Regions: []layout.Region{
					{Name: "FLASH", Origin: 0x1000, Length: 1 << 20, Attrs: "rx"},
					{Name: "RAM", Origin: 0x20000000, Length: 0x2000, Attrs: "rwx!x"},
					{Name: "RAM2", Origin: 0x20002000, Length: 100},
				},
			},
		}, {
			desc: "assignment before memory",
			src: `_stack_start = ORIGIN(RAM) + 0x100;
MEMORY { RAM : ORIGIN = 0x20000000, LENGTH = 4K }`,
			want: layout.Layout{
				Regions:    []layout.Region{{Name: "RAM", Origin: 0x20000000, Length: 4096}},
				StackStart: u64(0x20000100),
			},
		},
	} {
		t.Run(test.desc, func(t *testing.T) {
			got, err := layout.ParseString(test.src)
			if err != nil {
				t.Fatalf("ParseString: %v", err)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("ParseString diff (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, test := range []struct {
		desc    string
		src     string
		wantMsg string
	}{
		{
			desc:    "non-numeric origin",
			src:     "MEMORY { FLASH : ORIGIN = foo, LENGTH = 1K }",
			wantMsg: "non-numeric ORIGIN",
		}, {
			desc:    "non-numeric length",
			src:     "MEMORY { FLASH : ORIGIN = 0, LENGTH = , }",
			wantMsg: "non-numeric LENGTH",
		}, {
			desc:    "bad literal",
			src:     "MEMORY { FLASH : ORIGIN = 0xZZ, LENGTH = 1K }",
			wantMsg: "invalid number",
		}, {
			desc:    "duplicate region",
			src:     "MEMORY {\n  RAM : ORIGIN = 0x20000000, LENGTH = 1K\n  RAM : ORIGIN = 0x20001000, LENGTH = 1K\n}",
			wantMsg: `duplicate region "RAM"`,
		}, {
			desc:    "zero length",
			src:     "MEMORY { RAM : ORIGIN = 0x20000000, LENGTH = 0 }",
			wantMsg: "zero length",
		}, {
			desc:    "no memory block",
			src:     "_heap_size = 0;",
			wantMsg: "no MEMORY block",
		}, {
			desc:    "two memory blocks",
			src:     "MEMORY { } MEMORY { }",
			wantMsg: "duplicate MEMORY block",
		}, {
			desc:    "unterminated memory block",
			src:     "MEMORY { RAM : ORIGIN = 0x20000000, LENGTH = 1K",
			wantMsg: "unterminated MEMORY block",
		}, {
			desc:    "unknown symbol",
			src:     "MEMORY { } _estack = 0x20000000;",
			wantMsg: `unsupported symbol "_estack"`,
		}, {
			desc:    "duplicate assignment",
			src:     "MEMORY { } _heap_size = 1;\n_heap_size = 2;",
			wantMsg: "already assigned at line 1",
		}, {
			desc:    "unknown region",
			src:     "MEMORY { RAM : ORIGIN = 0x20000000, LENGTH = 1K } _stack_start = ORIGIN(ROM);",
			wantMsg: `unknown region "ROM"`,
		}, {
			desc:    "underflow",
			src:     "MEMORY { } _heap_size = 1 - 2;",
			wantMsg: "out of 64-bit range",
		}, {
			desc:    "missing semicolon",
			src:     "MEMORY { } _heap_size = 1",
			wantMsg: `expected ";"`,
		}, {
			desc:    "unterminated comment",
			src:     "MEMORY { } /* _heap_size = 1;",
			wantMsg: "unterminated comment",
		},
	} {
		t.Run(test.desc, func(t *testing.T) {
			_, err := layout.ParseString(test.src)
			var pe *layout.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("ParseString err = %v, want ParseError", err)
			}
			if !strings.Contains(pe.Msg, test.wantMsg) {
				t.Errorf("ParseString err = %q, want message containing %q", pe.Msg, test.wantMsg)
			}
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	src := "MEMORY\n{\n  RAM : ORIGIN = 0x20000000, LENGTH = 1K\n  RAM : ORIGIN = 0x20001000, LENGTH = 1K\n}\n"
	_, err := layout.ParseString(src)
	var pe *layout.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("ParseString err = %v, want ParseError", err)
	}
	if pe.Line != 4 || pe.Col != 3 {
		t.Errorf("ParseError at %d:%d, want 4:3", pe.Line, pe.Col)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	for _, test := range []struct {
		desc string
		l    layout.Layout
	}{
		{
			desc: "no overrides",
			l: layout.Layout{
				Regions: []layout.Region{
					{Name: "FLASH", Origin: 0x00026000, Length: 796 * 1024},
					{Name: "RAM", Origin: 0x20004000, Length: 46 * 1024},
				},
			},
		}, {
			desc: "all overrides",
			l: layout.Layout{
				Regions: []layout.Region{
					{Name: "FLASH", Origin: 0x1000, Length: 1 << 20, Attrs: "rx"},
					{Name: "RAM", Origin: 0x20000000, Length: 100, Attrs: "rw!x"},
				},
				StackStart: u64(0x20000060),
				TextStart:  u64(0x1400),
				HeapSize:   u64(0),
			},
		}, {
			desc: "empty",
			l:    layout.Layout{},
		},
	} {
		t.Run(test.desc, func(t *testing.T) {
			var b strings.Builder
			if err := layout.Format(&b, test.l); err != nil {
				t.Fatalf("Format: %v", err)
			}
			got, err := layout.ParseString(b.String())
			if err != nil {
				t.Fatalf("ParseString(%q): %v", b.String(), err)
			}
			if diff := cmp.Diff(test.l, got); diff != "" {
				t.Errorf("round trip diff (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	l, err := layout.ParseString(nrf52840S140)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	var b strings.Builder
	if err := layout.Format(&b, l); err != nil {
		t.Fatalf("Format: %v", err)
	}
	want := `MEMORY
{
  FLASH : ORIGIN = 0x00026000, LENGTH = 796K
  RAM : ORIGIN = 0x20004000, LENGTH = 46K
}
`
	if got := b.String(); got != want {
		t.Errorf("Format = %q, want %q", got, want)
	}
}
