// internal/seq/record.go

// Package seq holds the in-memory record passed between readers,
// processing stages and writers.
package seq

// Record is one title + optional comments + residue data unit.
type Record struct {
	Name        string
	Description string
	Attrs       *Attributes
	Residues    []byte

	// Aligned is the output-ready payload. A nil Aligned means the record
	// has not been through an alignment stage.
	Aligned []byte
}

func NewRecord(name string) *Record {
	return &Record{Name: name, Attrs: NewAttributes()}
}

// SetDescription sets the description and mirrors it into the
// KeyFullName attribute. An empty description leaves the attributes alone.
func (r *Record) SetDescription(desc string) {
	r.Description = desc
	if desc != "" {
		r.Attrs.Set(KeyFullName, String(desc))
	}
}

// FullName returns the KeyFullName attribute, or Description when the
// attribute is missing.
func (r *Record) FullName() string {
	if v, ok := r.Attrs.Get(KeyFullName); ok {
		return v.String()
	}
	return r.Description
}

// HasPayload reports whether the record carries an output-ready payload.
func (r *Record) HasPayload() bool { return r != nil && r.Aligned != nil }

// Identity returns the numeric identity score attribute (0 if absent).
func (r *Record) Identity() float64 {
	v, _ := r.Attrs.Get(KeyIdentity)
	return v.AsFloat()
}

func isGap(c byte) bool { return c == '-' || c == '.' }

// Rendered returns the aligned payload for output.
//
// With dashForGap every gap is written as '-'. Otherwise leading and
// trailing gap runs (unknown data) are written as '.' and interior gaps
// (indels) as '-'. asDNA writes U as T; otherwise T is written as U.
func (r *Record) Rendered(dashForGap, asDNA bool) string {
	src := r.Aligned
	out := make([]byte, len(src))

	first, last := 0, len(src)-1
	if !dashForGap {
		for first < len(src) && isGap(src[first]) {
			first++
		}
		for last >= first && isGap(src[last]) {
			last--
		}
	}

	for i, c := range src {
		switch {
		case isGap(c):
			if !dashForGap && (i < first || i > last) {
				c = '.'
			} else {
				c = '-'
			}
		case asDNA && c == 'U':
			c = 'T'
		case asDNA && c == 'u':
			c = 't'
		case !asDNA && c == 'T':
			c = 'U'
		case !asDNA && c == 't':
			c = 'u'
		}
		out[i] = c
	}
	return string(out)
}
