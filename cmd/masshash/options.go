package main

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/pflag"

	masshash "github.com/mattkeenan/masshash/pkg"
)

// options holds the raw command-line flags.
type options struct {
	workers    int
	algorithm  string
	format     string
	save       string
	against    string
	maxSize    string
	ignoreFile string
	configPath string
	overrides  []string
	verbose    int
	debug      string
	relative   bool
	help       bool
}

func newFlagSet(command string, opts *options, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("masshash "+command, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SortFlags = false

	fs.IntVarP(&opts.workers, "workers", "j", 0, "number of hash workers")
	fs.StringVarP(&opts.algorithm, "algorithm", "a", "", "hash algorithm")
	fs.StringVarP(&opts.format, "format", "f", "", "output format")
	fs.StringVar(&opts.save, "save", "", "save the index as a snapshot")
	if command == "verify" {
		fs.StringVar(&opts.against, "against", "", "snapshot to verify against")
	}
	fs.StringVar(&opts.maxSize, "max-size", "", "skip files larger than this")
	fs.StringVar(&opts.ignoreFile, "ignore-file", "", "regex ignore file")
	fs.StringVarP(&opts.configPath, "config", "c", "", "config file")
	fs.StringArrayVarP(&opts.overrides, "option", "o", nil, "config override key:value")
	fs.CountVarP(&opts.verbose, "verbose", "v", "increase verbosity")
	fs.StringVar(&opts.debug, "debug", "", "comma-separated debug flags")
	fs.BoolVar(&opts.relative, "relative", false, "record paths relative to their root")
	fs.BoolVarP(&opts.help, "help", "h", false, "show help")
	return fs
}

// settings is the effective configuration: config file, then -o overrides,
// then explicit flags.
type settings struct {
	algorithm         *masshash.HashAlgorithm
	algorithmExplicit bool
	format            string
	workers           int
	maxSize           int64
	verbose           int
	debug             masshash.DebugFlags
}

func resolveSettings(fs *pflag.FlagSet, opts *options) (*settings, error) {
	cfg, err := masshash.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyOverrides(opts.overrides); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Path(), err)
	}
	all := cfg.GetAllConfig()

	algorithmName := all.Hash.Default
	s := &settings{
		format:  strings.ToLower(all.Output.Format),
		workers: all.Performance.HashWorkers,
		verbose: all.Verbose.Level,
		debug:   masshash.ParseDebugFlags(all.Verbose.Debug),
	}
	maxSize := all.Performance.MaxSize

	if fs.Changed("algorithm") {
		algorithmName = opts.algorithm
		s.algorithmExplicit = true
	} else {
		s.algorithmExplicit = hasOverride(opts.overrides, "default")
	}
	if fs.Changed("format") {
		if err := masshash.ValidateOutputFormat(opts.format); err != nil {
			return nil, err
		}
		s.format = strings.ToLower(opts.format)
	}
	if fs.Changed("workers") {
		s.workers = opts.workers
	}
	if fs.Changed("max-size") {
		maxSize = opts.maxSize
	}
	if fs.Changed("verbose") {
		s.verbose = opts.verbose
	}
	if fs.Changed("debug") {
		s.debug = masshash.ParseDebugFlags(opts.debug)
	}

	s.algorithm, err = masshash.GetHashAlgorithm(algorithmName)
	if err != nil {
		return nil, err
	}
	// A configured 0 means one worker per CPU. An explicit --workers value
	// goes to the hasher as given and is clamped there with a warning.
	if s.workers == 0 && !fs.Changed("workers") {
		s.workers = runtime.NumCPU()
	}
	if maxSize != "" {
		if s.maxSize, err = masshash.ParseHumanSize(maxSize); err != nil {
			return nil, fmt.Errorf("invalid --max-size: %w", err)
		}
	}
	return s, nil
}

func hasOverride(overrides []string, key string) bool {
	for _, o := range overrides {
		if k, _, ok := strings.Cut(o, ":"); ok && strings.TrimSpace(k) == key {
			return true
		}
	}
	return false
}
