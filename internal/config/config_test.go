package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seqfile/internal/fasta"
	"seqfile/internal/partition"
	"seqfile/internal/quote"
	"seqfile/internal/seq"
)

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("meta-fmt", "none", "")
	fs.StringP("out", "o", "-", "")
	fs.Int("line-length", 0, "")
	fs.Float64("min-idty", 0, "")
	fs.Int64("fasta-block", 0, "")
	fs.Int64("fasta-idx", 0, "")
	fs.StringSlice("fields", nil, "")
	fs.Bool("csv-crlf", false, "")
	fs.Bool("unrelated", false, "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, fasta.MetaNone, cfg.Meta())
	assert.Len(t, cfg.StageFuncs(), 1)
}

func TestLoadFlags(t *testing.T) {
	fs := testFlags(t,
		"--meta-fmt", "comment",
		"-o", "out.fa",
		"--line-length", "60",
		"--min-idty", "92.5",
		"--fasta-block", "1000",
		"--fasta-idx", "3",
		"--fields", "a,b",
		"--unrelated",
	)
	cfg, err := Load(fs, "")
	require.NoError(t, err)
	assert.Equal(t, fasta.MetaComment, cfg.Meta())
	assert.Equal(t, "out.fa", cfg.Output.Path)
	assert.Equal(t, 60, cfg.Output.LineLength)
	assert.Equal(t, 92.5, cfg.Output.MinIdentity)
	assert.Equal(t, int64(1000), cfg.Input.Block)
	assert.Equal(t, int64(3), cfg.Input.Index)
	assert.Equal(t, []string{"a", "b"}, cfg.Table.Fields)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SEQFILE_OUTPUT_META_FMT", "header")
	t.Setenv("SEQFILE_OUTPUT_LINE_LENGTH", "70")
	t.Setenv("SEQFILE_TABLE_FIELDS", "x,y")

	cfg, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, fasta.MetaHeader, cfg.Meta())
	assert.Equal(t, 70, cfg.Output.LineLength)
	assert.Equal(t, []string{"x", "y"}, cfg.Table.Fields)
}

func TestLoadFlagBeatsEnv(t *testing.T) {
	t.Setenv("SEQFILE_OUTPUT_META_FMT", "header")
	cfg, err := Load(testFlags(t, "--meta-fmt", "comment"), "")
	require.NoError(t, err)
	assert.Equal(t, fasta.MetaComment, cfg.Meta())

	// an unchanged flag does not hide the environment
	cfg, err = Load(testFlags(t), "")
	require.NoError(t, err)
	assert.Equal(t, fasta.MetaHeader, cfg.Meta())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seqfile.yaml")
	data := "output:\n  meta_fmt: csv\n  path: result.fa\n  dots: true\ninput:\n  alphabet: ACGU\n  jobs: 4\ntable:\n  crlf: true\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(testFlags(t, "--line-length", "10"), path)
	require.NoError(t, err)
	assert.Equal(t, fasta.MetaCSV, cfg.Meta())
	assert.True(t, cfg.Output.Dots)
	assert.Equal(t, "ACGU", cfg.Input.Alphabet)
	assert.Equal(t, 4, cfg.Input.Jobs)
	assert.Equal(t, 10, cfg.Output.LineLength)
	assert.Equal(t, quote.CRLF, cfg.TableConfig(nil).LineEnd)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(nil, filepath.Join(t.TempDir(), "none.yaml"))
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"unknown meta", func(c *Config) { c.Output.MetaFmt = "json" }},
		{"csv to stdout", func(c *Config) { c.Output.MetaFmt = "csv" }},
		{"negative line length", func(c *Config) { c.Output.LineLength = -1 }},
		{"negative identity", func(c *Config) { c.Output.MinIdentity = -0.5 }},
		{"negative block", func(c *Config) { c.Input.Block = -1 }},
		{"negative index", func(c *Config) { c.Input.Index = -1 }},
		{"negative jobs", func(c *Config) { c.Input.Jobs = -1 }},
		{"negative min length", func(c *Config) { c.Stages.MinLength = -1 }},
		{"same outputs", func(c *Config) { c.Output.Path = "x"; c.Table.Path = "x" }},
		{"companion clash", func(c *Config) {
			c.Output.MetaFmt = "csv"
			c.Output.Path = "out.fa"
			c.Table.Path = "out.fa.csv"
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mod(&c)
			assert.ErrorIs(t, c.Validate(), ErrConfiguration)
		})
	}
	assert.NoError(t, Default().Validate())

	ok := Default()
	ok.Output.Path = "out.fa"
	ok.Table.Path = "out.fa.csv"
	assert.NoError(t, ok.Validate(), "no companion without meta-fmt csv")
	ok.Output.MetaFmt = "csv"
	ok.Table.Path = "attrs.csv"
	assert.NoError(t, ok.Validate())
}

func TestBuilders(t *testing.T) {
	c := Default()
	c.Input.Alphabet = "AC"
	c.Input.Block = 100
	c.Input.Index = 2
	c.Output.MetaFmt = "header"
	c.Output.LineLength = 60
	c.Output.DNA = true
	c.Table.Fields = []string{"k"}
	c.Stages.MinLength = 5
	c.Stages.NoAlign = true

	rc := c.ReaderConfig(nil)
	assert.Equal(t, partition.Block{Size: 100, Index: 2}, rc.Block)
	assert.True(t, rc.Alphabet.Contains('C'))
	assert.False(t, rc.Alphabet.Contains('G'))

	wc := c.WriterConfig(nil)
	assert.Equal(t, fasta.MetaHeader, wc.Meta)
	assert.Equal(t, 60, wc.LineLength)
	assert.True(t, wc.DNA)

	tc := c.TableConfig(nil)
	assert.Equal(t, []string{"k"}, tc.Fields)
	assert.Equal(t, quote.LF, tc.LineEnd)
	assert.True(t, tc.Exclude.Contains(seq.KeyFamily))

	assert.Len(t, c.StageFuncs(), 1)
}
