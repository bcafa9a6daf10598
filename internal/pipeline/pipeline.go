// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"seqfile/internal/fasta"
	"seqfile/internal/seq"
	"seqfile/internal/stage"
)

// Summary counts what a run did.
type Summary struct {
	Processed int // records returned by the reader
	Skipped   int // records dropped by parse errors
	Dropped   int // records dropped by a stage
	Written   int // records written by record sinks
	Excluded  int // records refused by record sinks
}

// Add accumulates o into s.
func (s *Summary) Add(o Summary) {
	s.Processed += o.Processed
	s.Skipped += o.Skipped
	s.Dropped += o.Dropped
	s.Written += o.Written
	s.Excluded += o.Excluded
}

func (s Summary) String() string {
	return fmt.Sprintf("processed=%d skipped=%d dropped=%d written=%d excluded=%d",
		s.Processed, s.Skipped, s.Dropped, s.Written, s.Excluded)
}

// Run pulls every record from src, applies stages in order and hands the
// survivors to each sink. A sink refusing an unaligned record is not fatal.
// It returns the first other error, including context cancellation.
// Sinks are neither flushed nor closed.
func Run(ctx context.Context, src Source, stages []stage.Func, sinks []Sink) (Summary, error) {
	var sum Summary
	fn := stage.Chain(stages...)
	before := sinkStats(sinks)

	err := func() error {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			rec, err := src.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			if err := deliver(fn, rec, sinks, &sum); err != nil {
				return err
			}
		}
	}()

	st := src.Stats()
	sum.Processed = st.Records
	sum.Skipped = st.Skipped
	after := sinkStats(sinks)
	sum.Written = after.Written - before.Written
	sum.Excluded = after.Excluded - before.Excluded
	return sum, err
}

// RunFile opens path restricted to cfg.Block and runs it through Run.
func RunFile(ctx context.Context, path string, cfg fasta.ReaderConfig, stages []stage.Func, sinks []Sink) (Summary, error) {
	r, err := fasta.Open(path, cfg)
	if err != nil {
		return Summary{}, err
	}
	sum, err := Run(ctx, r, stages, sinks)
	if cerr := r.Close(); err == nil {
		err = cerr
	}
	return sum, err
}

// deliver applies fn to rec and writes the result to every sink.
func deliver(fn stage.Func, rec *seq.Record, sinks []Sink, sum *Summary) error {
	out, err := fn(rec)
	if err != nil {
		return fmt.Errorf("sequence %q: %w", rec.Name, err)
	}
	if out == nil {
		sum.Dropped++
		return nil
	}
	return write(out, sinks)
}

func write(rec *seq.Record, sinks []Sink) error {
	for _, s := range sinks {
		if err := s.Write(rec); err != nil && !errors.Is(err, fasta.ErrUnaligned) {
			return err
		}
	}
	return nil
}

func sinkStats(sinks []Sink) fasta.WriteStats {
	var total fasta.WriteStats
	for _, s := range sinks {
		if st, ok := s.(statser); ok {
			ws := st.Stats()
			total.Written += ws.Written
			total.Excluded += ws.Excluded
		}
	}
	return total
}
