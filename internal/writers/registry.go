// internal/writers/registry.go
package writers

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/hashicorp/go-multierror"

	"seqfile/internal/config"
	"seqfile/internal/fasta"
	"seqfile/internal/seq"
	"seqfile/internal/table"
)

const (
	FormatFASTA = "fasta"
	FormatCSV   = "csv"
)

// Sink is an opened output.
type Sink interface {
	Write(*seq.Record) error
	Close() error
}

// Env carries what a factory needs besides the configuration. Stdout
// receives output written to "-"; nil selects os.Stdout.
type Env struct {
	Stdout io.Writer
	Logger *slog.Logger
}

// stdout returns the writer for "-", or nil to let the sink open os.Stdout.
func (e Env) stdout(path string) io.WriteCloser {
	if path != "-" || e.Stdout == nil {
		return nil
	}
	return nopWriteCloser{e.Stdout}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// Factory opens a sink of one format at path.
type Factory func(path string, cfg config.Config, env Env) (Sink, error)

// Sink registry (format → constructor). Register in init() blocks.
var Sinks = map[string]Factory{}

// Register adds or replaces (last wins) the factory for format.
func Register(format string, fn Factory) { Sinks[format] = fn }

// Formats lists the registered formats in sorted order.
func Formats() []string { return slices.Sorted(maps.Keys(Sinks)) }

// Open dispatches to the factory registered for format.
func Open(format, path string, cfg config.Config, env Env) (Sink, error) {
	fn, ok := Sinks[format]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q (no writer registered)", format)
	}
	return fn(path, cfg, env)
}

// OpenAll opens the record sink at output.path and, when table.path is
// set, a table sink. On failure every sink already opened is closed.
func OpenAll(cfg config.Config, env Env) ([]Sink, error) {
	type target struct{ format, path string }
	targets := []target{{FormatFASTA, cfg.Output.Path}}
	if cfg.Table.Path != "" {
		targets = append(targets, target{FormatCSV, cfg.Table.Path})
	}

	var sinks []Sink
	for _, t := range targets {
		s, err := Open(t.format, t.path, cfg, env)
		if err != nil {
			if cerr := CloseAll(sinks); cerr != nil {
				err = multierror.Append(err, cerr)
			}
			return nil, err
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}

// CloseAll closes every sink and reports all failures.
func CloseAll(sinks []Sink) error {
	var result *multierror.Error
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func init() {
	Register(FormatFASTA, func(path string, cfg config.Config, env Env) (Sink, error) {
		wc := cfg.WriterConfig(env.Logger)
		if out := env.stdout(path); out != nil {
			if wc.Meta == fasta.MetaCSV {
				return nil, fmt.Errorf("%w: meta-fmt csv needs a named output file", config.ErrConfiguration)
			}
			return fasta.NewWriter(out, nil, wc), nil
		}
		w, err := fasta.Create(path, wc)
		if err != nil {
			return nil, err
		}
		return w, nil
	})
	Register(FormatCSV, func(path string, cfg config.Config, env Env) (Sink, error) {
		tc := cfg.TableConfig(env.Logger)
		if out := env.stdout(path); out != nil {
			return table.NewWriter(out, tc), nil
		}
		w, err := table.Create(path, tc)
		if err != nil {
			return nil, err
		}
		return w, nil
	})
}
