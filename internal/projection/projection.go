// internal/projection/projection.go

// Package projection decides which attributes become tabular columns.
package projection

import (
	mapset "github.com/deckarep/golang-set/v2"

	"seqfile/internal/seq"
)

// DerivesFromRecord reports whether fields asks for the column set to be
// taken from the first record: an empty list, or the description key alone.
func DerivesFromRecord(fields []string) bool {
	return len(fields) == 0 || (len(fields) == 1 && fields[0] == seq.KeyFullName)
}

// Columns fixes the column list for an output stream.
//
// When fields is authoritative it is used verbatim (duplicates removed,
// first occurrence wins) and exclude does not apply. Otherwise the columns
// are first's attribute keys in insertion order, minus the keys in exclude.
func Columns(fields []string, first *seq.Attributes, exclude mapset.Set[string]) []string {
	src := fields
	derived := DerivesFromRecord(fields)
	if derived {
		src = first.Keys()
	}
	seen := mapset.NewThreadUnsafeSetWithSize[string](len(src))
	cols := make([]string, 0, len(src))
	for _, k := range src {
		if derived && exclude != nil && exclude.Contains(k) {
			continue
		}
		if !seen.Add(k) {
			continue
		}
		cols = append(cols, k)
	}
	return cols
}

// Row renders one cell per column; missing attributes render empty.
func Row(cols []string, attrs *seq.Attributes) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = attrs.Render(c)
	}
	return out
}
