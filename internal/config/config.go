// internal/config/config.go

// Package config builds the immutable run configuration from defaults, an
// optional config file, SEQFILE_* environment variables and command-line
// flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"seqfile/internal/fasta"
	"seqfile/internal/partition"
	"seqfile/internal/quote"
	"seqfile/internal/seq"
	"seqfile/internal/stage"
	"seqfile/internal/table"
)

// EnvPrefix prefixes every environment variable. The dot in a key becomes
// an underscore: "output.meta_fmt" is SEQFILE_OUTPUT_META_FMT.
const EnvPrefix = "SEQFILE"

// ErrConfiguration marks every error caused by an invalid setting.
var ErrConfiguration = errors.New("invalid configuration")

// Config aggregates the settings of one run. It is built once by Load and
// passed by value.
type Config struct {
	Input  InputConfig  `mapstructure:"input" yaml:"input"`
	Output OutputConfig `mapstructure:"output" yaml:"output"`
	Table  TableConfig  `mapstructure:"table" yaml:"table"`
	Stages StagesConfig `mapstructure:"stages" yaml:"stages"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

type InputConfig struct {
	Alphabet  string `mapstructure:"alphabet" yaml:"alphabet"`
	Block     int64  `mapstructure:"block" yaml:"block"`
	Index     int64  `mapstructure:"index" yaml:"index"`
	AllBlocks bool   `mapstructure:"all_blocks" yaml:"all_blocks"`
	Jobs      int    `mapstructure:"jobs" yaml:"jobs"`
}

type OutputConfig struct {
	Path        string  `mapstructure:"path" yaml:"path"`
	MetaFmt     string  `mapstructure:"meta_fmt" yaml:"meta_fmt"`
	LineLength  int     `mapstructure:"line_length" yaml:"line_length"`
	MinIdentity float64 `mapstructure:"min_idty" yaml:"min_idty"`
	DNA         bool    `mapstructure:"dna" yaml:"dna"`
	Dots        bool    `mapstructure:"dots" yaml:"dots"`
}

type TableConfig struct {
	Path   string   `mapstructure:"path" yaml:"path"`
	Fields []string `mapstructure:"fields" yaml:"fields"`
	CRLF   bool     `mapstructure:"crlf" yaml:"crlf"`
}

type StagesConfig struct {
	NoAlign   bool `mapstructure:"no_align" yaml:"no_align"`
	MinLength int  `mapstructure:"min_length" yaml:"min_length"`
}

type LogConfig struct {
	JSONPath string `mapstructure:"json" yaml:"json"`
	Quiet    bool   `mapstructure:"quiet" yaml:"quiet"`
	Debug    bool   `mapstructure:"debug" yaml:"debug"`
	Metrics  bool   `mapstructure:"metrics" yaml:"metrics"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Input:  InputConfig{Alphabet: seq.DefaultAlphabet},
		Output: OutputConfig{Path: "-", MetaFmt: fasta.MetaNone.String()},
	}
}

// FlagKeys maps command-line flag names to configuration keys.
var FlagKeys = map[string]string{
	"alphabet":         "input.alphabet",
	"fasta-block":      "input.block",
	"fasta-idx":        "input.index",
	"all-blocks":       "input.all_blocks",
	"jobs":             "input.jobs",
	"out":              "output.path",
	"meta-fmt":         "output.meta_fmt",
	"line-length":      "output.line_length",
	"min-idty":         "output.min_idty",
	"fasta-write-dna":  "output.dna",
	"fasta-write-dots": "output.dots",
	"csv-out":          "table.path",
	"fields":           "table.fields",
	"csv-crlf":         "table.crlf",
	"no-align":         "stages.no_align",
	"min-length":       "stages.min_length",
	"log-json":         "log.json",
	"quiet":            "log.quiet",
	"debug":            "log.debug",
	"metrics":          "log.metrics",
}

// Load reads configuration from file (if not empty), the environment and
// flags (may be nil). Flags not present in FlagKeys are ignored. The result
// is validated.
func Load(flags *pflag.FlagSet, file string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("%w: reading %s: %v", ErrConfiguration, file, err)
		}
	}
	if flags != nil {
		for name, key := range FlagKeys {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
				}
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(append([]string(nil), parts...), tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}

// Validate reports the first invalid setting, wrapped in ErrConfiguration.
func (c Config) Validate() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{ErrConfiguration}, args...)...)
	}
	mode, err := fasta.ParseMetaMode(c.Output.MetaFmt)
	if err != nil {
		return bad("%v", err)
	}
	if mode == fasta.MetaCSV && (c.Output.Path == "" || c.Output.Path == "-") {
		return bad("meta-fmt csv needs --out, the table is written next to it")
	}
	if c.Output.LineLength < 0 {
		return bad("line-length must be ≥ 0 (got %d)", c.Output.LineLength)
	}
	if c.Output.MinIdentity < 0 {
		return bad("min-idty must be ≥ 0 (got %g)", c.Output.MinIdentity)
	}
	if err := (partition.Block{Size: c.Input.Block, Index: c.Input.Index}).Validate(); err != nil {
		return bad("%v", err)
	}
	if c.Input.Jobs < 0 {
		return bad("jobs must be ≥ 0 (got %d)", c.Input.Jobs)
	}
	if c.Stages.MinLength < 0 {
		return bad("min-length must be ≥ 0 (got %d)", c.Stages.MinLength)
	}
	if c.Output.Path != "" && c.Output.Path != "-" && c.Output.Path == c.Table.Path {
		return bad("--out and --csv-out name the same file %q", c.Table.Path)
	}
	if mode == fasta.MetaCSV && c.Table.Path == fasta.CompanionPath(c.Output.Path) {
		return bad("--csv-out %q is already written by meta-fmt csv", c.Table.Path)
	}
	return nil
}

// Meta returns the parsed metadata mode. Validate has already accepted it.
func (c Config) Meta() fasta.MetaMode {
	m, _ := fasta.ParseMetaMode(c.Output.MetaFmt)
	return m
}

// ReaderConfig builds the reader settings. The block is the one named by
// input.block and input.index.
func (c Config) ReaderConfig(log *slog.Logger) fasta.ReaderConfig {
	return fasta.ReaderConfig{
		Alphabet: seq.NewAlphabet(c.Input.Alphabet),
		Block:    partition.Block{Size: c.Input.Block, Index: c.Input.Index},
		Logger:   log,
	}
}

func (c Config) WriterConfig(log *slog.Logger) fasta.WriterConfig {
	return fasta.WriterConfig{
		Meta:        c.Meta(),
		LineLength:  c.Output.LineLength,
		MinIdentity: c.Output.MinIdentity,
		DNA:         c.Output.DNA,
		Dots:        c.Output.Dots,
		Logger:      log,
	}
}

func (c Config) TableConfig(log *slog.Logger) table.Config {
	end := quote.LF
	if c.Table.CRLF {
		end = quote.CRLF
	}
	return table.Config{
		Fields:  c.Table.Fields,
		LineEnd: end,
		Exclude: mapset.NewSet(seq.KeyFamily),
		Logger:  log,
	}
}

// StageFuncs returns the processing stages in the order they run.
func (c Config) StageFuncs() []stage.Func {
	var out []stage.Func
	if c.Stages.MinLength > 0 {
		out = append(out, stage.MinLength(c.Stages.MinLength))
	}
	if !c.Stages.NoAlign {
		out = append(out, stage.Align())
	}
	return out
}
