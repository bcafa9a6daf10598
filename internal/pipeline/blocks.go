// internal/pipeline/blocks.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"seqfile/internal/fasta"
	"seqfile/internal/logging"
	"seqfile/internal/partition"
	"seqfile/internal/seq"
	"seqfile/internal/stage"
	"seqfile/internal/stream"
)

// blockBacklog bounds how far a block reader may run ahead of the merger.
const blockBacklog = 256

type blockResult struct {
	out   chan *seq.Record
	stats fasta.ReadStats
	drops int
}

// RunBlocks splits path into blocks of cfg.Block.Size bytes and reads them
// concurrently, at most jobs at a time. Stages run inside the block
// readers; sinks are written from the calling goroutine in block order, so
// the output is identical to a single sequential pass.
func RunBlocks(ctx context.Context, path string, cfg fasta.ReaderConfig, jobs int, stages []stage.Func, sinks []Sink) (Summary, error) {
	if !cfg.Block.Active() {
		return RunFile(ctx, path, cfg, stages, sinks)
	}
	if jobs < 1 {
		jobs = 1
	}
	size, err := stream.Size(path)
	if err != nil {
		return Summary{}, err
	}
	blocks := partition.Plan(size, cfg.Block.Size)
	log := logging.OrDiscard(cfg.Logger)
	log.Debug("partitioned input",
		slog.String("input", path),
		slog.Int64("bytes", size),
		slog.Int("blocks", len(blocks)),
		slog.Int("jobs", jobs),
	)

	fn := stage.Chain(stages...)
	results := make([]*blockResult, len(blocks))
	for i := range results {
		results[i] = &blockResult{out: make(chan *seq.Record, blockBacklog)}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	// The launcher is separate from the merger: g.Go blocks once jobs
	// readers are running, and those readers need the merger to drain them.
	launched := make(chan struct{})
	go func() {
		defer close(launched)
		for i, b := range blocks {
			res := results[i]
			bcfg := cfg
			bcfg.Block = b
			g.Go(func() error {
				defer close(res.out)
				if gctx.Err() != nil {
					return gctx.Err()
				}
				return readBlock(gctx, path, bcfg, fn, res)
			})
		}
	}()

	var sum Summary
	before := sinkStats(sinks)
	var merr error
	for _, res := range results {
		for rec := range res.out {
			if merr != nil {
				continue
			}
			if err := write(rec, sinks); err != nil {
				merr = err
			}
		}
		if merr != nil || gctx.Err() != nil {
			break
		}
		sum.Processed += res.stats.Records
		sum.Skipped += res.stats.Skipped
		sum.Dropped += res.drops
	}

	if merr != nil {
		// Readers still waiting on their channels give up on cancellation.
		cancel()
	}
	<-launched
	gerr := g.Wait()

	after := sinkStats(sinks)
	sum.Written = after.Written - before.Written
	sum.Excluded = after.Excluded - before.Excluded

	switch {
	case merr != nil:
		return sum, merr
	case gerr != nil:
		return sum, gerr
	}
	return sum, nil
}

func readBlock(ctx context.Context, path string, cfg fasta.ReaderConfig, fn stage.Func, res *blockResult) error {
	r, err := fasta.Open(path, cfg)
	if err != nil {
		return err
	}
	defer r.Close()
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		out, err := fn(rec)
		if err != nil {
			return fmt.Errorf("%s: sequence %q: %w", cfg.Block, rec.Name, err)
		}
		if out == nil {
			res.drops++
			continue
		}
		select {
		case res.out <- out:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	res.stats = r.Stats()
	return nil
}
