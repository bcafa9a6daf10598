// internal/stream/stream.go

// Package stream opens and creates byte streams for the record readers
// and writers, handling stdin/stdout ("-") and transparent compression.
package stream

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// OpenError reports a stream that could not be opened. It is fatal to the
// component being constructed.
type OpenError struct {
	Op   string // "reading" or "writing"
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("unable to open file %q for %s: %v", e.Path, e.Op, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// Codec is a stream compression format.
type Codec int

const (
	CodecNone Codec = iota
	CodecGzip
	CodecZstd
	CodecLZ4
)

func (c Codec) String() string {
	switch c {
	case CodecGzip:
		return "gzip"
	case CodecZstd:
		return "zstd"
	case CodecLZ4:
		return "lz4"
	default:
		return "none"
	}
}

var (
	magicGzip = []byte{0x1f, 0x8b}
	magicZstd = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicLZ4  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// CodecForPath picks a codec from the file name suffix.
func CodecForPath(path string) Codec {
	switch {
	case strings.HasSuffix(path, ".gz"):
		return CodecGzip
	case strings.HasSuffix(path, ".zst"):
		return CodecZstd
	case strings.HasSuffix(path, ".lz4"):
		return CodecLZ4
	default:
		return CodecNone
	}
}

func sniff(sig []byte) Codec {
	switch {
	case bytes.HasPrefix(sig, magicGzip):
		return CodecGzip
	case bytes.HasPrefix(sig, magicZstd):
		return CodecZstd
	case bytes.HasPrefix(sig, magicLZ4):
		return CodecLZ4
	default:
		return CodecNone
	}
}

// multiCloser closes every closer in order and reports all failures.
type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var result *multierror.Error
	for _, c := range m {
		if err := c.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Source is an opened input stream. Seeker is set only for plain files,
// where an offset can be reached with a seek instead of a skip.
type Source struct {
	io.Reader
	Seeker  io.Seeker
	Codec   Codec
	closers multiCloser
}

func (s *Source) Close() error { return s.closers.Close() }

// Open opens path for reading. "-" is stdin, which is never closed.
// Compression is detected by magic number, then by suffix.
func Open(path string) (*Source, error) {
	if path == "-" {
		br := bufio.NewReader(os.Stdin)
		sig, _ := br.Peek(4)
		codec := sniff(sig)
		r, closers, err := decompress(br, codec)
		if err != nil {
			return nil, &OpenError{Op: "reading", Path: path, Err: err}
		}
		return &Source{Reader: r, Codec: codec, closers: closers}, nil
	}

	fh, err := os.Open(path)
	if err != nil {
		return nil, &OpenError{Op: "reading", Path: path, Err: err}
	}
	var sig [4]byte
	n, _ := io.ReadFull(fh, sig[:])
	if _, err := fh.Seek(0, io.SeekStart); err != nil {
		_ = fh.Close()
		return nil, &OpenError{Op: "reading", Path: path, Err: err}
	}
	codec := sniff(sig[:n])
	if codec == CodecNone {
		codec = CodecForPath(path)
	}
	if codec == CodecNone {
		return &Source{Reader: fh, Seeker: fh, closers: multiCloser{fh}}, nil
	}
	r, closers, err := decompress(fh, codec)
	if err != nil {
		_ = fh.Close()
		return nil, &OpenError{Op: "reading", Path: path, Err: err}
	}
	return &Source{Reader: r, Codec: codec, closers: append(closers, fh)}, nil
}

// Size returns the length of the decompressed content of path. Plain
// files are measured with stat; compressed files are read through once.
func Size(path string) (int64, error) {
	if path == "-" {
		return 0, &OpenError{Op: "measuring", Path: path, Err: errors.New("standard input has no size")}
	}
	src, err := Open(path)
	if err != nil {
		return 0, err
	}
	defer src.Close()
	if fh, ok := src.Seeker.(*os.File); ok {
		fi, err := fh.Stat()
		if err != nil {
			return 0, &OpenError{Op: "measuring", Path: path, Err: err}
		}
		return fi.Size(), nil
	}
	n, err := io.Copy(io.Discard, src)
	if err != nil {
		return 0, &OpenError{Op: "measuring", Path: path, Err: err}
	}
	return n, nil
}

func decompress(r io.Reader, codec Codec) (io.Reader, multiCloser, error) {
	switch codec {
	case CodecGzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return gr, multiCloser{gr}, nil
	case CodecZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		rc := zr.IOReadCloser()
		return rc, multiCloser{rc}, nil
	case CodecLZ4:
		return lz4.NewReader(r), nil, nil
	default:
		return r, nil, nil
	}
}

// sink is an opened output stream; Close flushes any compressor before
// closing the file.
type sink struct {
	io.Writer
	closers multiCloser
}

func (s *sink) Close() error { return s.closers.Close() }

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// Create opens path for writing. "-" is stdout, which is never
// closed. A .gz, .zst or .lz4 suffix compresses the output.
func Create(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	fh, err := os.Create(path)
	if err != nil {
		return nil, &OpenError{Op: "writing", Path: path, Err: err}
	}
	switch CodecForPath(path) {
	case CodecGzip:
		gw := gzip.NewWriter(fh)
		return &sink{Writer: gw, closers: multiCloser{gw, fh}}, nil
	case CodecZstd:
		zw, err := zstd.NewWriter(fh)
		if err != nil {
			_ = fh.Close()
			return nil, &OpenError{Op: "writing", Path: path, Err: err}
		}
		return &sink{Writer: zw, closers: multiCloser{zw, fh}}, nil
	case CodecLZ4:
		lw := lz4.NewWriter(fh)
		return &sink{Writer: lw, closers: multiCloser{lw, fh}}, nil
	default:
		return fh, nil
	}
}
