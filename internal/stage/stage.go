// internal/stage/stage.go

// Package stage holds the per-record processing steps that run between a
// reader and its sinks.
package stage

import (
	"bytes"

	"seqfile/internal/seq"
)

// Func transforms one record. Returning a nil record drops it; a non-nil
// error aborts the run.
type Func func(*seq.Record) (*seq.Record, error)

// Align fills the output-ready payload with the upper-cased residues. It is
// the identity alignment used when no aligner is configured; a record that
// already carries a payload is left alone.
func Align() Func {
	return func(r *seq.Record) (*seq.Record, error) {
		if r.Aligned == nil {
			r.Aligned = bytes.ToUpper(r.Residues)
			if r.Aligned == nil {
				r.Aligned = []byte{}
			}
		}
		return r, nil
	}
}

// MinLength drops records with fewer than n residues (gaps not counted).
func MinLength(n int) Func {
	return func(r *seq.Record) (*seq.Record, error) {
		count := 0
		for _, c := range r.Residues {
			if c != '-' && c != '.' {
				count++
			}
		}
		if count < n {
			return nil, nil
		}
		return r, nil
	}
}

// Chain applies fns in order and stops at the first drop or error.
func Chain(fns ...Func) Func {
	return func(r *seq.Record) (*seq.Record, error) {
		var err error
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			r, err = fn(r)
			if err != nil || r == nil {
				return nil, err
			}
		}
		return r, nil
	}
}
