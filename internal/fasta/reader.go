// internal/fasta/reader.go
package fasta

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"seqfile/internal/logging"
	"seqfile/internal/partition"
	"seqfile/internal/quote"
	"seqfile/internal/seq"
	"seqfile/internal/stream"
	"seqfile/internal/telemetry"
)

const (
	sigilTitle   = '>'
	sigilComment = ';'
	readBufSize  = 64 * 1024
)

// ReaderConfig is fixed for the lifetime of a Reader.
type ReaderConfig struct {
	Alphabet seq.Alphabet    // zero value selects seq.DefaultAlphabet
	Block    partition.Block // zero value reads the whole stream
	Logger   *slog.Logger

	// OnParseError, if set, sees every record dropped by the reader.
	OnParseError func(*ParseError)
}

// ParseError describes a record that was dropped. The stream continues.
type ParseError struct {
	Ordinal int // 1-based record number within this reader
	Name    string
	Line    int
	Char    byte // 0 when the record has no name
	Text    string
}

func (e *ParseError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("line %d (sequence %d): title line has no name", e.Line, e.Ordinal)
	}
	return fmt.Sprintf("line %d (sequence %d, %q) contains invalid character %q", e.Line, e.Ordinal, e.Name, e.Char)
}

// ReadStats are the diagnostic counters of a Reader.
type ReadStats struct {
	Records int // records returned
	Skipped int // records dropped by parse errors
	Lines   int // lines consumed
}

// Reader streams records from one input, optionally restricted to one
// partition block. It is not safe for concurrent use.
type Reader struct {
	path string
	src  io.Closer
	br   *bufio.Reader
	cfg  ReaderConfig
	log  *slog.Logger

	pos    int64 // offset in the (decompressed) stream
	lineno int
	seqno  int
	stats  ReadStats
	done   bool
	closed bool
}

// Open opens path ("-" for stdin) and positions the reader at the start of
// cfg.Block. The returned error is a *stream.OpenError when the file cannot be
// opened.
func Open(path string, cfg ReaderConfig) (*Reader, error) {
	src, err := stream.Open(path)
	if err != nil {
		return nil, err
	}
	r := newReader(path, cfg)
	r.src = src
	if err := r.position(src, src.Seeker); err != nil {
		_ = src.Close()
		return nil, &stream.OpenError{Op: "reading", Path: path, Err: err}
	}
	return r, nil
}

// NewReader reads records from rd. If rd is an io.Seeker it is used to
// reach the block start; otherwise the leading bytes are discarded.
func NewReader(rd io.Reader, cfg ReaderConfig) (*Reader, error) {
	r := newReader("", cfg)
	seeker, _ := rd.(io.Seeker)
	if err := r.position(rd, seeker); err != nil {
		return nil, err
	}
	return r, nil
}

func newReader(path string, cfg ReaderConfig) *Reader {
	if cfg.Alphabet.IsZero() {
		cfg.Alphabet = seq.NewAlphabet("")
	}
	log := logging.OrDiscard(cfg.Logger).With(slog.String("input", path))
	if cfg.Block.Active() {
		log = log.With(slog.Int64("block", cfg.Block.Index))
	}
	return &Reader{path: path, cfg: cfg, log: log}
}

func (r *Reader) position(rd io.Reader, seeker io.Seeker) error {
	off := int64(0)
	if r.cfg.Block.Active() {
		off = r.cfg.Block.StartOffset()
	}
	if off > 0 {
		if seeker != nil {
			if _, err := seeker.Seek(off, io.SeekStart); err != nil {
				return fmt.Errorf("seek to block start %d: %w", off, err)
			}
		} else if _, err := io.CopyN(io.Discard, rd, off); err != nil {
			if !errors.Is(err, io.EOF) {
				return fmt.Errorf("skip to block start %d: %w", off, err)
			}
			r.done = true
		}
		r.pos = off
	}
	r.br = bufio.NewReaderSize(rd, readBufSize)
	if off > 0 && !r.done {
		// The line we landed in belongs to the previous block, even when it
		// starts exactly at the offset.
		if err := r.skipLine(); err != nil {
			if !errors.Is(err, io.EOF) {
				return err
			}
			r.done = true
		}
	}
	r.log.Debug("input opened", slog.String("block", r.cfg.Block.String()), slog.Int64("offset", r.pos))
	return nil
}

// Next returns the next record, or io.EOF at the end of the stream or
// block. Records with invalid data are reported and skipped.
func (r *Reader) Next() (*seq.Record, error) {
	for !r.done {
		rec, err := r.readRecord()
		if err == nil {
			r.stats.Records++
			telemetry.RecordRead("fasta.reader")
			return rec, nil
		}
		var perr *ParseError
		if !errors.As(err, &perr) {
			return nil, err
		}
		r.stats.Skipped++
		telemetry.RecordSkipped("fasta.reader")
		r.log.Warn("skipping sequence",
			slog.Int("line", perr.Line),
			slog.Int("sequence", perr.Ordinal),
			slog.String("name", perr.Name),
			slog.String("char", string(perr.Char)),
			slog.String("text", perr.Text),
			slog.String("error", perr.Error()),
		)
		if r.cfg.OnParseError != nil {
			r.cfg.OnParseError(perr)
		}
	}
	return nil, io.EOF
}

// Records iterates the remaining records. Iteration stops after the first
// non-EOF error, which is yielded once.
func (r *Reader) Records() iter.Seq2[*seq.Record, error] {
	return func(yield func(*seq.Record, error) bool) {
		for {
			rec, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}

// Stats returns the current counters.
func (r *Reader) Stats() ReadStats {
	s := r.stats
	s.Lines = r.lineno
	return s
}

// Close releases the input and logs the final counters.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	st := r.Stats()
	r.log.Info("input closed",
		slog.Int("sequences", st.Records),
		slog.Int("skipped", st.Skipped),
		slog.Int("lines", st.Lines),
	)
	if r.src != nil {
		return r.src.Close()
	}
	return nil
}

func (r *Reader) readRecord() (*seq.Record, error) {
	for {
		c, err := r.peek()
		if err != nil {
			return nil, r.stop(err)
		}
		if c == sigilTitle {
			break
		}
		if err := r.skipLine(); err != nil {
			return nil, r.stop(err)
		}
		r.lineno++
	}
	// A record that started inside the block is always finished, so the
	// boundary is only checked at a title line.
	if r.cfg.Block.Active() && r.cfg.Block.PastBoundary(r.pos) {
		r.done = true
		return nil, io.EOF
	}

	title, err := r.readLine()
	if err != nil {
		return nil, r.stop(err)
	}
	r.seqno++
	r.lineno++
	rec := parseTitle(title)
	if rec.Name == "" {
		perr := &ParseError{Ordinal: r.seqno, Line: r.lineno, Text: string(title)}
		return nil, r.discard(perr)
	}

	for {
		c, err := r.peek()
		if err != nil || c != sigilComment {
			break
		}
		line, err := r.readLine()
		if err != nil {
			break
		}
		r.lineno++
		parseComment(rec, line)
	}

	for {
		c, err := r.peek()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if c == sigilTitle {
			break
		}
		line, err := r.readLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		r.lineno++
		for _, ch := range line {
			if ch == ' ' || ch == '\t' || ch == '\r' {
				continue
			}
			if !r.cfg.Alphabet.Contains(ch) {
				perr := &ParseError{Ordinal: r.seqno, Name: rec.Name, Line: r.lineno, Char: ch, Text: string(line)}
				return nil, r.discard(perr)
			}
			rec.Residues = append(rec.Residues, ch)
		}
	}
	return rec, nil
}

// discard drops the rest of the current record and returns perr, or the
// I/O error that stopped it.
func (r *Reader) discard(perr *ParseError) error {
	for {
		c, err := r.peek()
		if errors.Is(err, io.EOF) {
			return perr
		}
		if err != nil {
			return err
		}
		if c == sigilTitle {
			return perr
		}
		if err := r.skipLine(); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		r.lineno++
	}
}

func (r *Reader) stop(err error) error {
	if errors.Is(err, io.EOF) {
		r.done = true
		return io.EOF
	}
	return err
}

func (r *Reader) peek() (byte, error) {
	b, err := r.br.Peek(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// readLine returns the next line without its terminator. A final line
// without a newline is returned with a nil error.
func (r *Reader) readLine() ([]byte, error) {
	var line []byte
	for {
		chunk, err := r.br.ReadSlice('\n')
		r.pos += int64(len(chunk))
		line = append(line, chunk...)
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
			return nil, err
		}
		break
	}
	line = bytes.TrimSuffix(line, []byte{'\n'})
	line = bytes.TrimSuffix(line, []byte{'\r'})
	return line, nil
}

func (r *Reader) skipLine() error {
	n := 0
	for {
		chunk, err := r.br.ReadSlice('\n')
		r.pos += int64(len(chunk))
		n += len(chunk)
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil && !(errors.Is(err, io.EOF) && n > 0) {
			return err
		}
		return nil
	}
}

// parseTitle splits ">name description" at the first space.
func parseTitle(line []byte) *seq.Record {
	body := line[1:]
	name, desc := body, []byte(nil)
	if i := bytes.IndexByte(body, ' '); i >= 0 {
		name, desc = body[:i], body[i+1:]
	}
	rec := seq.NewRecord(string(name))
	rec.SetDescription(string(desc))
	return rec
}

// parseComment stores "; key=value" as an attribute. The split is at the
// first '=' outside double quotes; comments without one are ignored.
func parseComment(rec *seq.Record, line []byte) {
	body := line[1:]
	eq := -1
	inQuote := false
	for i, c := range body {
		if c == '"' {
			inQuote = !inQuote
		} else if c == '=' && !inQuote {
			eq = i
			break
		}
	}
	if eq < 0 {
		return
	}
	key := quote.DecodeLenient(string(bytes.TrimSpace(body[:eq])))
	if key == "" {
		return
	}
	val := quote.DecodeLenient(string(bytes.TrimSpace(body[eq+1:])))
	rec.Attrs.Set(key, seq.String(val))
}
