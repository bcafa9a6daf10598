package writers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seqfile/internal/config"
	"seqfile/internal/seq"
)

func TestFormats(t *testing.T) {
	assert.Equal(t, []string{FormatCSV, FormatFASTA}, Formats())
}

func TestUnknownFormatError(t *testing.T) {
	_, err := Open("nope-format", "-", config.Default(), Env{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestOpenAll(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Output.Path = filepath.Join(dir, "out.fa")
	cfg.Table.Path = filepath.Join(dir, "out.tsv")

	sinks, err := OpenAll(cfg, Env{})
	require.NoError(t, err)
	require.Len(t, sinks, 2)

	rec := seq.NewRecord("s1")
	rec.Attrs.Set("k", seq.String("v"))
	rec.Aligned = []byte("ACGU")
	for _, s := range sinks {
		require.NoError(t, s.Write(rec))
	}
	require.NoError(t, CloseAll(sinks))

	data, err := os.ReadFile(cfg.Output.Path)
	require.NoError(t, err)
	assert.Equal(t, ">s1\nACGU\n", string(data))
	data, err = os.ReadFile(cfg.Table.Path)
	require.NoError(t, err)
	assert.Equal(t, "name,k\ns1,v\n", string(data))
}

func TestOpenAllClosesOnFailure(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Output.Path = filepath.Join(dir, "out.fa")
	cfg.Table.Path = filepath.Join(dir, "missing", "out.csv")

	_, err := OpenAll(cfg, Env{})
	require.Error(t, err)
	_, statErr := os.Stat(cfg.Output.Path)
	assert.NoError(t, statErr, "record output was created before the failure")
}

func TestStdoutRedirect(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	cfg.Output.MetaFmt = "header"
	s, err := Open(FormatFASTA, "-", cfg, Env{Stdout: &buf})
	require.NoError(t, err)
	rec := seq.NewRecord("s1")
	rec.Attrs.Set("k", seq.String("v"))
	rec.Aligned = []byte("AC")
	require.NoError(t, s.Write(rec))
	require.NoError(t, s.Close())
	assert.Equal(t, ">s1 [k=v]\nAC\n", buf.String())

	cfg.Output.MetaFmt = "csv"
	_, err = Open(FormatFASTA, "-", cfg, Env{Stdout: &buf})
	assert.ErrorIs(t, err, config.ErrConfiguration)
}

type failCloser struct{ err error }

func (failCloser) Write(*seq.Record) error { return nil }
func (f failCloser) Close() error           { return f.err }

func TestCloseAll(t *testing.T) {
	e1, e2 := errors.New("one"), errors.New("two")
	err := CloseAll([]Sink{failCloser{e1}, failCloser{}, failCloser{e2}})
	assert.ErrorIs(t, err, e1)
	assert.ErrorIs(t, err, e2)
	assert.NoError(t, CloseAll(nil))
}

func TestIsBrokenPipe(t *testing.T) {
	assert.True(t, IsBrokenPipe(syscall.EPIPE))
	assert.True(t, IsBrokenPipe(fmt.Errorf("write: %w", io.ErrClosedPipe)))
	assert.False(t, IsBrokenPipe(nil))
	assert.False(t, IsBrokenPipe(io.EOF))
}
