// internal/app/partitions.go
package app

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"seqfile/internal/fasta"
	"seqfile/internal/partition"
	"seqfile/internal/stream"
)

func newPartitionsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "partitions FILE --fasta-block N",
		Short: "List the blocks of a file and the records each one owns",
		Long: `Splits FILE into blocks of --fasta-block bytes and reads every block the
way 'convert --fasta-idx' would. Prints one tab-separated row per block:
index, start offset, end offset, records, skipped.`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usagef("partitions needs exactly one FILE")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.partitions(cmd, args[0])
		},
	}
	fs := cmd.Flags()
	fs.Int64("fasta-block", 0, "block size in bytes")
	fs.String("alphabet", "", "accepted sequence characters (default: all codes and gaps)")
	return cmd
}

func (e *env) partitions(cmd *cobra.Command, path string) (err error) {
	cfg, log, closeLog, err := e.load(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeLog(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if cfg.Input.Block <= 0 {
		return usagef("partitions needs --fasta-block > 0")
	}

	size, err := stream.Size(path)
	if err != nil {
		return err
	}
	out := bufio.NewWriter(e.stdout)
	_, _ = fmt.Fprintln(out, "block\tstart\tend\trecords\tskipped")
	for _, b := range partition.Plan(size, cfg.Input.Block) {
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		rc := cfg.ReaderConfig(log)
		rc.Block = b
		st, err := countBlock(path, rc)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "%d\t%d\t%d\t%d\t%d\n", b.Index, b.StartOffset(), min(b.EndOffset(), size), st.Records, st.Skipped)
	}
	return out.Flush()
}

func countBlock(path string, rc fasta.ReaderConfig) (fasta.ReadStats, error) {
	r, err := fasta.Open(path, rc)
	if err != nil {
		return fasta.ReadStats{}, err
	}
	defer r.Close()
	for {
		if _, err := r.Next(); err != nil {
			if errors.Is(err, io.EOF) {
				return r.Stats(), nil
			}
			return fasta.ReadStats{}, err
		}
	}
}
