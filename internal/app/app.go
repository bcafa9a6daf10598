// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"seqfile/internal/config"
	"seqfile/internal/logging"
	"seqfile/internal/seq"
	"seqfile/internal/version"
	"seqfile/internal/writers"
)

// Exit codes.
const (
	ExitOK        = 0
	ExitUsage     = 2
	ExitRuntime   = 3
	ExitInterrupt = 130
)

// usageError marks bad command lines.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

// env is shared by the commands of one invocation.
type env struct {
	stdout, stderr io.Writer
	configPath     string
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:           "seqfile",
		Short:         "Read, filter and re-serialize annotated sequence files",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(e.stdout)
	root.SetErr(e.stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError{err} })

	pf := root.PersistentFlags()
	pf.StringVar(&e.configPath, "config", "", "configuration file (YAML, TOML or JSON)")
	pf.String("log-json", "", "also write JSON diagnostics to this file")
	pf.BoolP("quiet", "q", false, "only report errors")
	pf.Bool("debug", false, "debug logging")
	pf.Bool("metrics", false, "collect record counters and log them when done")

	root.AddCommand(newConvertCmd(e), newPartitionsCmd(e), newConfigCmd(e))
	return root
}

// addRecordFlags registers the reader, writer and stage flags.
func addRecordFlags(fs *pflag.FlagSet) {
	fs.StringP("out", "o", "-", "record output file (- for stdout; .gz/.zst/.lz4 compress)")
	fs.String("meta-fmt", "none", "where attributes go: none, header, comment or csv")
	fs.Int("line-length", 0, "wrap sequence lines at this width (0 = no wrap)")
	fs.Float64("min-idty", 0, "exclude records whose identity is below this")
	fs.Bool("fasta-write-dna", false, "write T instead of U")
	fs.Bool("fasta-write-dots", false, "write leading and trailing gaps as '.'")
	fs.String("csv-out", "", "also write an attribute table to this file")
	fs.StringSlice("fields", nil, "table columns (default: attributes of the first record)")
	fs.Bool("csv-crlf", false, "end table rows with CRLF")
	fs.String("alphabet", seq.DefaultAlphabet, "accepted sequence characters")
	fs.Int64("fasta-block", 0, "partition the input into blocks of this many bytes")
	fs.Int64("fasta-idx", 0, "index of the block to read")
	fs.Bool("all-blocks", false, "read every block concurrently, output in input order")
	fs.Int("jobs", 0, "concurrent block readers with --all-blocks (0 = one per CPU)")
	fs.Int("min-length", 0, "drop records with fewer residues")
	fs.Bool("no-align", false, "do not fill the output payload from the residues")
}

// load builds the configuration and the logger for a command.
func (e *env) load(cmd *cobra.Command) (config.Config, *slog.Logger, func() error, error) {
	cfg, err := config.Load(cmd.Flags(), e.configPath)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	log, closeLog, err := logging.New(logging.Options{
		Stderr:   e.stderr,
		JSONPath: cfg.Log.JSONPath,
		Quiet:    cfg.Log.Quiet,
		Debug:    cfg.Log.Debug,
	})
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	return cfg, log.With(slog.String("cmd", cmd.Name())), closeLog, nil
}

// exitCode maps a command error to the process exit code.
func exitCode(ctx context.Context, err error) int {
	var uerr usageError
	switch {
	case err == nil:
		if ctx.Err() != nil {
			return ExitInterrupt
		}
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitInterrupt
	case writers.IsBrokenPipe(err):
		return ExitOK
	case errors.As(err, &uerr), errors.Is(err, config.ErrConfiguration):
		return ExitUsage
	case strings.HasPrefix(err.Error(), "unknown command"),
		strings.HasPrefix(err.Error(), "unknown flag"):
		return ExitUsage
	}
	return ExitRuntime
}

// RunContext executes one command line and returns the exit code.
func RunContext(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	e := &env{stdout: stdout, stderr: stderr}
	root := newRootCmd(e)
	root.SetArgs(argv)
	err := root.ExecuteContext(ctx)
	code := exitCode(ctx, err)
	if err != nil && code != ExitOK && code != ExitInterrupt {
		_, _ = fmt.Fprintln(stderr, "error:", err)
		if code == ExitUsage {
			_, _ = fmt.Fprintln(stderr, "run 'seqfile --help' for usage")
		}
	}
	return code
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}
