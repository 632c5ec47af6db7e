// Package config assembles jsonl-gen options from built-in defaults, a
// defaults file, environment variables and command line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/tckz/go-jsonl-gen/internal/failure"
	"github.com/tckz/go-jsonl-gen/internal/naming"
)

const (
	EnvPrefix = "JSONLGEN_"
	// DefaultFile is read when present; a missing file is not an error.
	DefaultFile = "default.env"
)

const DefaultSchema = `{"date": "timestamp:", "name": "str:rand", "type": "str:['client', 'partner', 'government']", "age": "int:rand(1, 90)"}`

type Options struct {
	Path    string
	Count   int
	File    string
	Prefix  string
	Schema  string
	Lines   int
	Clear   bool
	Workers int

	Verbose    bool
	Version    bool
	ConfigFile string
}

func Defaults() Options {
	return Options{
		Path:       "./output",
		Count:      1,
		File:       "data",
		Prefix:     string(naming.Count),
		Schema:     DefaultSchema,
		Lines:      100,
		Workers:    1,
		ConfigFile: DefaultFile,
	}
}

// Flag names that may also come from the defaults file or the environment,
// as FLAG -> JSONLGEN_FLAG.
var overridable = []string{"path", "count", "file", "prefix", "schema", "lines", "clear", "multiprocessing", "verbose"}

func envKey(flagName string) string {
	return EnvPrefix + strings.ToUpper(flagName)
}

func newFlagSet(name string, opts *Options) *flag.FlagSet {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.StringVar(&opts.Path, "path", opts.Path, "directory where output files are saved")
	flags.IntVar(&opts.Count, "count", opts.Count, "number of files to generate; 0 prints to the console")
	flags.StringVar(&opts.File, "file", opts.File, "base file name; with a prefix the name becomes file_prefix.jsonl")
	flags.StringVar(&opts.Prefix, "prefix", opts.Prefix, "file name suffix when more than one file is generated (count, random, uuid)")
	flags.StringVar(&opts.Schema, "schema", opts.Schema, "schema as inline json or path to a .json file")
	flags.IntVar(&opts.Lines, "lines", opts.Lines, "number of lines per file")
	flags.BoolVar(&opts.Clear, "clear", opts.Clear, "remove files matching the base name from path before generating")
	flags.IntVarP(&opts.Workers, "multiprocessing", "m", opts.Workers, "number of workers writing files")
	flags.BoolVar(&opts.Verbose, "verbose", opts.Verbose, "enable debug logging")
	flags.BoolVar(&opts.Version, "version", opts.Version, "show version")
	flags.StringVar(&opts.ConfigFile, "config", opts.ConfigFile, "defaults file in KEY=VALUE form (or set "+envKey("config")+")")
	return flags
}

// Load parses args. getenv is usually os.Getenv.
func Load(name string, args []string, getenv func(string) string) (Options, error) {
	opts := Defaults()
	flags := newFlagSet(name, &opts)
	if err := flags.Parse(args); err != nil {
		return opts, err
	}

	changed := make(map[string]bool)
	flags.Visit(func(f *flag.Flag) { changed[f.Name] = true })

	if !changed["config"] {
		if v := getenv(envKey("config")); v != "" {
			opts.ConfigFile = v
		}
	}
	fileValues, err := readDefaultsFile(opts.ConfigFile, changed["config"] || getenv(envKey("config")) != "")
	if err != nil {
		return opts, err
	}

	for _, src := range []func(string) string{
		func(k string) string { return fileValues[k] },
		getenv,
	} {
		for _, flagName := range overridable {
			if changed[flagName] {
				continue
			}
			key := envKey(flagName)
			v := src(key)
			if v == "" {
				continue
			}
			if err := flags.Set(flagName, v); err != nil {
				return opts, fmt.Errorf("%s: %w", key, err)
			}
		}
	}
	return opts, nil
}

func readDefaultsFile(path string, required bool) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("godotenv.Read: %w", err)
	}
	return values, nil
}

func (o Options) Validate() error {
	if o.Count < 0 {
		return failure.New(failure.Count, "Files", 0)
	}
	if o.Workers < 1 {
		return failure.New(failure.Count, "Process", 1)
	}
	if o.Lines < 1 {
		return failure.New(failure.Count, "Lines", 1)
	}
	if _, err := naming.ParseMode(o.Prefix); err != nil {
		return fmt.Errorf("--prefix: %w", err)
	}
	return nil
}

func (o Options) Naming() naming.Mode {
	m, _ := naming.ParseMode(o.Prefix)
	return m
}

// EffectiveWorkers caps the requested workers at the CPU count.
func (o Options) EffectiveWorkers() int {
	return min(o.Workers, runtime.NumCPU())
}
