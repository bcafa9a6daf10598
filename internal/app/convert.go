// internal/app/convert.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"seqfile/internal/cliutil"
	"seqfile/internal/pipeline"
	"seqfile/internal/runutil"
	"seqfile/internal/telemetry"
	"seqfile/internal/writers"
)

func newConvertCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert [flags] FILE...",
		Short: "Read records, apply stages and write them out",
		Long: `Reads every FILE (- for stdin; gzip, zstd and lz4 are detected) and
writes the records in the record format, with attributes embedded as
selected by --meta-fmt, and optionally an attribute table (--csv-out).

Records with characters outside --alphabet are reported and skipped.`,
		Example: `  seqfile convert -o out.fa --meta-fmt comment in.fa.gz
  seqfile convert --csv-out attrs.csv --fields score,family in.fa
  seqfile convert --fasta-block 100000000 --all-blocks --jobs 8 big.fa`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usagef("convert needs at least one input FILE")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.convert(cmd, args)
		},
	}
	addRecordFlags(cmd.Flags())
	return cmd
}

func (e *env) convert(cmd *cobra.Command, args []string) (err error) {
	files, err := cliutil.ExpandPositionals(args)
	if err != nil {
		return usageError{err}
	}
	cfg, log, closeLog, err := e.load(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeLog(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if cfg.Log.Metrics {
		col := telemetry.Install()
		defer func() {
			logCounters(cmd.Context(), log, col)
			if serr := col.Shutdown(context.WithoutCancel(cmd.Context())); serr != nil && err == nil {
				err = serr
			}
		}()
	}

	stdin := slices.Contains(files, "-")
	block, allBlocks, warns := runutil.ValidateBlocks(stdin, cfg.Input.Block, cfg.Input.Index, cfg.Input.AllBlocks)
	for _, w := range warns {
		log.Warn(w)
	}
	jobs := runutil.EffectiveJobs(cfg.Input.Jobs)
	rc := cfg.ReaderConfig(log)
	rc.Block = block
	stages := cfg.StageFuncs()

	sinks, err := writers.OpenAll(cfg, writers.Env{Stdout: e.stdout, Logger: log})
	if err != nil {
		return err
	}
	psinks := make([]pipeline.Sink, len(sinks))
	for i, s := range sinks {
		psinks[i] = s
	}

	var total pipeline.Summary
	runErr := func() error {
		for _, f := range files {
			var (
				sum pipeline.Summary
				err error
			)
			if allBlocks && f != "-" {
				sum, err = pipeline.RunBlocks(cmd.Context(), f, rc, jobs, stages, psinks)
			} else {
				sum, err = pipeline.RunFile(cmd.Context(), f, rc, stages, psinks)
			}
			total.Add(sum)
			if err != nil {
				return fmt.Errorf("%s: %w", f, err)
			}
			log.Debug("input done", slog.String("input", f), slog.String("summary", sum.String()))
		}
		return nil
	}()

	var result *multierror.Error
	if runErr != nil {
		result = multierror.Append(result, runErr)
	}
	if cerr := writers.CloseAll(sinks); cerr != nil {
		result = multierror.Append(result, cerr)
	}

	log.Info("conversion finished",
		slog.Int("inputs", len(files)),
		slog.Int("processed", total.Processed),
		slog.Int("skipped", total.Skipped),
		slog.Int("dropped", total.Dropped),
		slog.Int("written", total.Written),
		slog.Int("excluded", total.Excluded),
	)
	if runErr != nil && len(result.Errors) == 1 {
		return runErr
	}
	return result.ErrorOrNil()
}

// logCounters reports the collected record counters in one line.
func logCounters(ctx context.Context, log *slog.Logger, col *telemetry.Collector) {
	counts, err := col.Counts(context.WithoutCancel(ctx))
	if err != nil {
		log.Warn("collecting record counters failed", slog.Any("error", err))
		return
	}
	log.Info("record counters",
		slog.Int64("read", counts[telemetry.RecordsRead]),
		slog.Int64("skipped", counts[telemetry.RecordsSkipped]),
		slog.Int64("written", counts[telemetry.RecordsWritten]),
		slog.Int64("excluded", counts[telemetry.RecordsExcluded]),
	)
}
