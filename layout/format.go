package layout

import (
	"bufio"
	"fmt"
	"io"
)

// Format writes l in the syntax accepted by Parse.
func Format(w io.Writer, l Layout) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "MEMORY")
	fmt.Fprintln(bw, "{")
	for _, r := range l.Regions {
		fmt.Fprintf(bw, "  %s", r.Name)
		if r.Attrs != "" {
			fmt.Fprintf(bw, " (%s)", r.Attrs)
		}
		fmt.Fprintf(bw, " : ORIGIN = 0x%08X, LENGTH = %s\n", r.Origin, formatSize(r.Length))
	}
	fmt.Fprintln(bw, "}")

	syms := []struct {
		name string
		v    *uint64
	}{
		{symStackStart, l.StackStart},
		{symText, l.TextStart},
		{symHeapSize, l.HeapSize},
	}
	first := true
	for _, s := range syms {
		if s.v == nil {
			continue
		}
		if first {
			fmt.Fprintln(bw)
			first = false
		}
		fmt.Fprintf(bw, "%s = 0x%08X;\n", s.name, *s.v)
	}
	return bw.Flush()
}

func formatSize(n uint64) string {
	switch {
	case n%(1<<20) == 0:
		return fmt.Sprintf("%dM", n>>20)
	case n%(1<<10) == 0:
		return fmt.Sprintf("%dK", n>>10)
	}
	return fmt.Sprintf("%d", n)
}
