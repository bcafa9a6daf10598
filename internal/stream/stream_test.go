package stream

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const plain = ">seq1\nACGT\n>seq2\nNNnn\n"

func roundTrip(t *testing.T, name string) (Codec, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	w, err := Create(path)
	require.NoError(t, err)
	_, err = io.WriteString(w, plain)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	src, err := Open(path)
	require.NoError(t, err)
	defer src.Close()
	data, err := io.ReadAll(src)
	require.NoError(t, err)
	return src.Codec, string(data)
}

func TestRoundTripCodecs(t *testing.T) {
	tests := []struct {
		name  string
		codec Codec
	}{
		{"x.fa", CodecNone},
		{"x.fa.gz", CodecGzip},
		{"x.fa.zst", CodecZstd},
		{"x.fa.lz4", CodecLZ4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			codec, data := roundTrip(t, tc.name)
			assert.Equal(t, tc.codec, codec)
			assert.Equal(t, plain, data)
		})
	}
}

func TestPlainFileIsSeekable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.fa")
	require.NoError(t, os.WriteFile(path, []byte(plain), 0o644))
	src, err := Open(path)
	require.NoError(t, err)
	defer src.Close()
	assert.NotNil(t, src.Seeker)
}

func TestGzipDetectedByMagic(t *testing.T) {
	dir := t.TempDir()
	gz := filepath.Join(dir, "x.fa.gz")
	w, err := Create(gz)
	require.NoError(t, err)
	_, _ = io.WriteString(w, plain)
	require.NoError(t, w.Close())

	renamed := filepath.Join(dir, "x.fa")
	require.NoError(t, os.Rename(gz, renamed))
	src, err := Open(renamed)
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, CodecGzip, src.Codec)
	assert.Nil(t, src.Seeker)
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.fa"))
	var oe *OpenError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, "reading", oe.Op)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "for reading")
}

func TestCreateMissingDir(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "no", "x.fa"))
	var oe *OpenError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, "writing", oe.Op)
}

func TestCodecForPath(t *testing.T) {
	assert.Equal(t, CodecGzip, CodecForPath("a.fasta.gz"))
	assert.Equal(t, CodecZstd, CodecForPath("a.zst"))
	assert.Equal(t, CodecLZ4, CodecForPath("a.lz4"))
	assert.Equal(t, CodecNone, CodecForPath("a.fasta"))
	assert.Equal(t, "gzip", CodecGzip.String())
}

type failCloser struct{ err error }

func (f failCloser) Close() error { return f.err }

func TestMultiCloserCollectsErrors(t *testing.T) {
	e1, e2 := errors.New("one"), errors.New("two")
	err := multiCloser{failCloser{e1}, failCloser{nil}, failCloser{e2}}.Close()
	require.Error(t, err)
	assert.ErrorIs(t, err, e1)
	assert.ErrorIs(t, err, e2)
	assert.NoError(t, multiCloser{failCloser{nil}}.Close())
}

func TestSize(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"x.fa", "x.fa.gz", "x.fa.zst"} {
		path := filepath.Join(dir, name)
		w, err := Create(path)
		require.NoError(t, err)
		_, _ = io.WriteString(w, plain)
		require.NoError(t, w.Close())

		n, err := Size(path)
		require.NoError(t, err, name)
		assert.Equal(t, int64(len(plain)), n, name)
	}

	_, err := Size("-")
	assert.Error(t, err)
}
