// internal/table/table.go

// Package table writes records as comma-delimited rows: a header of
// "name" plus one column per attribute, then one row per record.
package table

import (
	"bufio"
	"errors"
	"io"
	"log/slog"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hashicorp/go-multierror"

	"seqfile/internal/logging"
	"seqfile/internal/projection"
	"seqfile/internal/quote"
	"seqfile/internal/seq"
	"seqfile/internal/stream"
	"seqfile/internal/telemetry"
)

const nameColumn = "name"

// Config is fixed for the lifetime of a Writer.
type Config struct {
	// Fields selects columns. Empty (or only seq.KeyFullName) derives them
	// from the first record written.
	Fields  []string
	LineEnd quote.LineEnd
	Exclude mapset.Set[string] // keys never used as columns; may be nil
	Logger  *slog.Logger
}

// Writer is a streaming table writer. The column set is fixed by the first
// Write. It is not safe for concurrent use.
type Writer struct {
	out  io.WriteCloser
	bw   *bufio.Writer
	cfg  Config
	log  *slog.Logger
	cols []string
	rows int
	buf  []byte
	row  []string
}

// Create opens path ("-" for stdout; .gz/.zst/.lz4 compress).
func Create(path string, cfg Config) (*Writer, error) {
	out, err := stream.Create(path)
	if err != nil {
		return nil, err
	}
	w := NewWriter(out, cfg)
	w.log = w.log.With(slog.String("output", path))
	return w, nil
}

func NewWriter(out io.WriteCloser, cfg Config) *Writer {
	return &Writer{
		out: out,
		bw:  bufio.NewWriterSize(out, 64*1024),
		cfg: cfg,
		log: logging.OrDiscard(cfg.Logger),
	}
}

// Columns returns the fixed column list, or nil before the first Write.
func (w *Writer) Columns() []string { return w.cols }

// Rows returns the number of data rows written.
func (w *Writer) Rows() int { return w.rows }

// Write emits the header on first use, then one row for rec.
func (w *Writer) Write(rec *seq.Record) error {
	if rec == nil {
		return errors.New("table writer: nil record")
	}
	b := w.buf[:0]
	if w.cols == nil {
		w.cols = projection.Columns(w.cfg.Fields, rec.Attrs, w.cfg.Exclude)
		w.row = make([]string, 0, len(w.cols)+1)
		hdr := append([]string{nameColumn}, w.cols...)
		b = quote.AppendRow(b, hdr, w.cfg.LineEnd)
		w.log.Debug("table columns fixed", slog.Any("columns", w.cols))
	}
	w.row = append(w.row[:0], rec.Name)
	w.row = append(w.row, projection.Row(w.cols, rec.Attrs)...)
	b = quote.AppendRow(b, w.row, w.cfg.LineEnd)
	w.buf = b

	if _, err := w.bw.Write(b); err != nil {
		return err
	}
	w.rows++
	telemetry.RecordWritten("table.writer")
	return nil
}

func (w *Writer) Flush() error { return w.bw.Flush() }

// Close flushes and closes the output.
func (w *Writer) Close() error {
	var result *multierror.Error
	if err := w.bw.Flush(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := w.out.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	w.log.Debug("table closed", slog.Int("rows", w.rows))
	return result.ErrorOrNil()
}
