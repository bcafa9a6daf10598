// internal/fasta/writer.go
package fasta

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hashicorp/go-multierror"

	"seqfile/internal/logging"
	"seqfile/internal/quote"
	"seqfile/internal/seq"
	"seqfile/internal/stream"
	"seqfile/internal/table"
	"seqfile/internal/telemetry"
)

// MetaMode selects where a writer puts a record's attributes.
type MetaMode int

const (
	MetaNone    MetaMode = iota // title line only
	MetaHeader                  // [key=value] tokens on the title line
	MetaComment                 // one "; key=value" line per attribute
	MetaCSV                     // companion <out>.csv table
)

// ErrUnknownMetaMode is returned by ParseMetaMode.
var ErrUnknownMetaMode = errors.New("must be one of 'none', 'header', 'comment' or 'csv'")

// ErrUnaligned is returned by Writer.Write for a record without an
// output-ready payload. The record is counted as excluded; the stream
// remains usable.
var ErrUnaligned = errors.New("record was not aligned")

func (m MetaMode) String() string {
	switch m {
	case MetaNone:
		return "none"
	case MetaHeader:
		return "header"
	case MetaComment:
		return "comment"
	case MetaCSV:
		return "csv"
	default:
		return fmt.Sprintf("[UNKNOWN!] (value=%d)", int(m))
	}
}

// ParseMetaMode accepts none, header, comment or csv (any case).
func ParseMetaMode(s string) (MetaMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return MetaNone, nil
	case "header":
		return MetaHeader, nil
	case "comment":
		return MetaComment, nil
	case "csv":
		return MetaCSV, nil
	}
	return MetaNone, fmt.Errorf("meta-fmt %q: %w", s, ErrUnknownMetaMode)
}

// MarshalText lets MetaMode appear in YAML/JSON config dumps.
func (m MetaMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *MetaMode) UnmarshalText(b []byte) error {
	v, err := ParseMetaMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

var (
	// headerOmit never appear as [key=value] tokens; the description is
	// already part of the title.
	headerOmit = mapset.NewSet(seq.KeyFamily, seq.KeyFullName)
	// internalOmit never appear in comment or companion output.
	internalOmit = mapset.NewSet(seq.KeyFamily)
)

// WriterConfig is fixed for the lifetime of a Writer.
type WriterConfig struct {
	Meta        MetaMode
	LineLength  int     // wrap payload; 0 writes one line
	MinIdentity float64 // exclude records whose identity is below this
	DNA         bool    // write T instead of U
	Dots        bool    // write terminal gaps as '.'
	Logger      *slog.Logger
}

// WriteStats are the counters of a Writer.
type WriteStats struct {
	Written  int
	Excluded int
}

// Writer re-serializes records in the record format. It is not safe for
// concurrent use.
type Writer struct {
	path  string
	out   io.WriteCloser
	bw    *bufio.Writer
	table *table.Writer // MetaCSV only
	cfg   WriterConfig
	log   *slog.Logger
	stats WriteStats
	buf   []byte
}

// CompanionPath names the attribute table written next to path in csv mode.
func CompanionPath(path string) string { return path + ".csv" }

// Create opens path ("-" for stdout) and, in csv mode, CompanionPath(path).
func Create(path string, cfg WriterConfig) (*Writer, error) {
	if cfg.Meta == MetaCSV && path == "-" {
		return nil, errors.New("meta-fmt csv needs a named output file for its companion table")
	}
	out, err := stream.Create(path)
	if err != nil {
		return nil, err
	}
	var companion io.WriteCloser
	if cfg.Meta == MetaCSV {
		companion, err = stream.Create(CompanionPath(path))
		if err != nil {
			_ = out.Close()
			return nil, err
		}
	}
	w := NewWriter(out, companion, cfg)
	w.path = path
	w.log = w.log.With(slog.String("output", path))
	return w, nil
}

// NewWriter writes records to out. companion receives the attribute table
// in csv mode and is ignored otherwise; both are closed by Close.
func NewWriter(out io.WriteCloser, companion io.WriteCloser, cfg WriterConfig) *Writer {
	w := &Writer{
		out: out,
		bw:  bufio.NewWriterSize(out, 64*1024),
		cfg: cfg,
		log: logging.OrDiscard(cfg.Logger),
	}
	if cfg.Meta == MetaCSV && companion != nil {
		w.table = table.NewWriter(companion, table.Config{
			LineEnd: quote.CRLF,
			Exclude: internalOmit,
		})
	}
	return w
}

// Write appends one record. A record without an aligned payload yields an
// error matching ErrUnaligned; a record below MinIdentity is silently
// excluded. Both are counted and logged.
func (w *Writer) Write(rec *seq.Record) error {
	if rec == nil {
		return errors.New("fasta writer: nil record")
	}
	if !rec.HasPayload() {
		w.exclude()
		w.log.Warn("sequence was not aligned, nothing to write", slog.String("name", rec.Name))
		return fmt.Errorf("%w: %s", ErrUnaligned, rec.Name)
	}
	if idty := rec.Identity(); w.cfg.MinIdentity > idty {
		w.exclude()
		w.log.Warn("sequence below identity threshold, excluded",
			slog.String("name", rec.Name),
			slog.Float64("identity", idty),
			slog.Float64("min", w.cfg.MinIdentity),
		)
		return nil
	}

	b := w.buf[:0]
	b = append(b, sigilTitle)
	b = append(b, rec.Name...)
	if desc := rec.FullName(); desc != "" {
		b = append(b, ' ')
		b = append(b, desc...)
	}

	switch w.cfg.Meta {
	case MetaNone, MetaCSV:
		b = append(b, '\n')
	case MetaHeader:
		for k, v := range rec.Attrs.All() {
			if headerOmit.Contains(k) {
				continue
			}
			b = append(b, " ["...)
			b = append(b, quote.Encode(k)...)
			b = append(b, '=')
			b = append(b, quote.Encode(v.String())...)
			b = append(b, ']')
		}
		b = append(b, '\n')
	case MetaComment:
		b = append(b, '\n')
		for k, v := range rec.Attrs.All() {
			if internalOmit.Contains(k) {
				continue
			}
			b = append(b, sigilComment, ' ')
			b = append(b, quote.Encode(k)...)
			b = append(b, '=')
			b = append(b, quote.Encode(v.String())...)
			b = append(b, '\n')
		}
	default:
		return fmt.Errorf("unknown meta-fmt output option %v", w.cfg.Meta)
	}

	payload := rec.Rendered(!w.cfg.Dots, w.cfg.DNA)
	if n := w.cfg.LineLength; n > 0 {
		for i := 0; i < len(payload); i += n {
			end := min(i+n, len(payload))
			b = append(b, payload[i:end]...)
			b = append(b, '\n')
		}
	} else {
		b = append(b, payload...)
		b = append(b, '\n')
	}
	w.buf = b

	if _, err := w.bw.Write(b); err != nil {
		return err
	}
	if w.table != nil {
		if err := w.table.Write(rec); err != nil {
			return fmt.Errorf("companion table: %w", err)
		}
	}
	w.stats.Written++
	telemetry.RecordWritten("fasta.writer")
	return nil
}

func (w *Writer) exclude() {
	w.stats.Excluded++
	telemetry.RecordExcluded("fasta.writer")
}

// Stats returns the current counters.
func (w *Writer) Stats() WriteStats { return w.stats }

// Flush pushes buffered output to the underlying streams.
func (w *Writer) Flush() error {
	if err := w.bw.Flush(); err != nil {
		return err
	}
	if w.table != nil {
		return w.table.Flush()
	}
	return nil
}

// Close flushes and closes the output and the companion table, then logs
// the final counters.
func (w *Writer) Close() error {
	var result *multierror.Error
	if err := w.bw.Flush(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := w.out.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if w.table != nil {
		if err := w.table.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	w.log.Info("output closed",
		slog.Int("exported", w.stats.Written),
		slog.Int("excluded", w.stats.Excluded),
	)
	return result.ErrorOrNil()
}
