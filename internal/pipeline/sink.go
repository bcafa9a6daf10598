// internal/pipeline/sink.go
package pipeline

import (
	"seqfile/internal/fasta"
	"seqfile/internal/seq"
)

// Source is the minimal capability the pipeline needs from a reader.
// *fasta.Reader satisfies it.
type Source interface {
	Next() (*seq.Record, error)
	Stats() fasta.ReadStats
}

// Sink consumes records. *fasta.Writer and *table.Writer satisfy it.
// Sinks are written from a single goroutine.
type Sink interface {
	Write(*seq.Record) error
}

// statser is implemented by sinks that count written and excluded records.
type statser interface {
	Stats() fasta.WriteStats
}
