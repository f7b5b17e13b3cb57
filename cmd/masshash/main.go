package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	masshash "github.com/mattkeenan/masshash/pkg"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// Exit codes.
const (
	exitOK          = 0
	exitFailure     = 1
	exitUsage       = 2
	exitInterrupted = 130
)

func main() {
	ctx, stop := withSignalCancel(context.Background(), os.Stderr)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout *os.File, stderr io.Writer) int {
	if len(args) < 1 {
		showUsage(stderr)
		return exitUsage
	}

	switch args[0] {
	case "--help", "-h", "help":
		showHelp(stdout)
		return exitOK
	case "--version":
		fmt.Fprintf(stdout, "masshash %s\n", version)
		return exitOK
	case "hash", "dupes", "verify":
	default:
		fmt.Fprintf(stderr, "masshash: unknown command '%s'\n", args[0])
		showUsage(stderr)
		return exitUsage
	}

	command := args[0]
	opts := &options{}
	fs := newFlagSet(command, opts, stderr)
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			showHelp(stdout)
			return exitOK
		}
		return exitUsage
	}
	if opts.help {
		showHelp(stdout)
		return exitOK
	}

	roots := fs.Args()
	if len(roots) == 0 {
		fmt.Fprintf(stderr, "masshash %s: no paths given\n", command)
		return exitUsage
	}
	if opts.relative && len(roots) > 1 {
		fmt.Fprintf(stderr, "masshash %s: --relative takes a single PATH, got %d\n", command, len(roots))
		return exitUsage
	}
	if command == "verify" && opts.against == "" {
		fmt.Fprintf(stderr, "masshash verify: --against SNAPSHOT is required\n")
		return exitUsage
	}

	s, err := resolveSettings(fs, opts)
	if err != nil {
		fmt.Fprintf(stderr, "masshash %s: %v\n", command, err)
		return exitUsage
	}

	logFormat := "json"
	if f, ok := stderr.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		logFormat = "text"
	}
	logger := masshash.NewLogger(stderr, s.verbose, logFormat).With("command", command)
	if len(s.debug) > 0 {
		logger.Debug("debug flags enabled", "flags", s.debug.String())
	}

	cmd := &commandRun{
		name:     command,
		opts:     opts,
		settings: s,
		logger:   logger,
		stdout:   stdout,
		stderr:   stderr,
	}

	switch command {
	case "hash":
		err = cmd.hash(ctx, roots)
	case "dupes":
		err = cmd.dupes(ctx, roots)
	case "verify":
		err = cmd.verify(ctx, roots)
	}
	return cmd.exitCode(err)
}

// commandRun carries everything one command invocation needs.
type commandRun struct {
	name     string
	opts     *options
	settings *settings
	logger   *slog.Logger
	stdout   *os.File
	stderr   io.Writer
}

func (c *commandRun) exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errInterrupted), errors.Is(err, context.Canceled):
		fmt.Fprintf(c.stderr, "masshash %s: interrupted\n", c.name)
		return exitInterrupted
	default:
		fmt.Fprintf(c.stderr, "masshash %s: %v\n", c.name, err)
		return exitFailure
	}
}

// buildIndex walks roots and hashes everything found. The walker is
// returned so indexed paths can be mapped back to files.
func (c *commandRun) buildIndex(ctx context.Context, roots []string) (*masshash.Index, *walker, error) {
	walk, err := newWalker(roots, c.opts.ignoreFile, c.logger)
	if err != nil {
		return nil, nil, err
	}

	hashOpts := masshash.Options{
		Workers:   c.settings.workers,
		Filter:    masshash.MaxSizeFilter(c.settings.maxSize),
		Algorithm: c.settings.algorithm,
		Logger:    c.logger,
		Debug:     c.settings.debug,
	}
	if c.opts.relative {
		hashOpts.OnBlob = walk.relativize
	}

	idx, err := masshash.NewHasher(hashOpts).Hash(ctx, walk.paths())
	if err != nil {
		return nil, nil, err
	}

	if c.opts.save != "" {
		if err := masshash.SaveSnapshot(c.opts.save, idx, c.settings.algorithm.Name); err != nil {
			return nil, nil, err
		}
		c.logger.Info("snapshot saved", "path", c.opts.save, "files", idx.Len())
	}
	return idx, walk, nil
}

func (c *commandRun) hash(ctx context.Context, roots []string) error {
	idx, _, err := c.buildIndex(ctx, roots)
	if err != nil {
		return err
	}
	return writeIndex(c.stdout, idx, c.settings.format)
}

func (c *commandRun) dupes(ctx context.Context, roots []string) error {
	idx, walk, err := c.buildIndex(ctx, roots)
	if err != nil {
		return err
	}
	groups := idx.Duplicates()
	size := statSize
	if c.opts.relative {
		size = func(path string) (int64, bool) { return statSize(walk.resolve(path)) }
	}
	c.logger.Info("duplicate search complete",
		"groups", len(groups),
		"wasted", masshash.FormatHumanSize(masshash.WastedBytes(groups, size)))
	return writeDuplicates(c.stdout, groups, c.settings.format)
}

func (c *commandRun) verify(ctx context.Context, roots []string) error {
	expected, algorithmName, err := masshash.OpenSnapshot(c.opts.against)
	if err != nil {
		return err
	}
	recorded, err := masshash.GetHashAlgorithm(algorithmName)
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", c.opts.against, err)
	}
	if c.settings.algorithmExplicit && c.settings.algorithm.Name != recorded.Name {
		return fmt.Errorf("snapshot %s was hashed with %s, not %s", c.opts.against, recorded.Name, c.settings.algorithm.Name)
	}
	c.settings.algorithm = recorded

	current, _, err := c.buildIndex(ctx, roots)
	if err != nil {
		return err
	}
	if err := masshash.VerifyIndex(ctx, current, expected); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "OK: %d files match %s\n", current.Len(), c.opts.against)
	return nil
}

func statSize(path string) (int64, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	return info.Size(), true
}

func showUsage(w io.Writer) {
	fmt.Fprintf(w, "Usage: masshash <hash|dupes|verify> [flags] PATH...\n")
	fmt.Fprintf(w, "Try 'masshash --help' for more information.\n")
}

func showHelp(w io.Writer) {
	fmt.Fprintf(w, "masshash - parallel content hashing and duplicate detection\n\n")
	fmt.Fprintf(w, "Usage: masshash <command> [flags] PATH...\n\n")

	fmt.Fprintf(w, "COMMANDS:\n")
	fmt.Fprintf(w, "  hash              Print every file with its content hash\n")
	fmt.Fprintf(w, "  dupes             Print groups of files with identical content\n")
	fmt.Fprintf(w, "  verify            Compare files against a saved snapshot\n\n")

	fmt.Fprintf(w, "FLAGS:\n")
	fmt.Fprintf(w, "  -j, --workers N       Hash workers, clamped to 1..%d (default: one per CPU)\n", runtime.NumCPU())
	fmt.Fprintf(w, "  -a, --algorithm NAME  sha1, sha256, sha512, blake3 or xxh3 (default: sha1)\n")
	fmt.Fprintf(w, "  -f, --format FORMAT   human, fdupes, json, yaml or tree (default: human)\n")
	fmt.Fprintf(w, "      --save FILE       Save the index as a snapshot (.zst/.lz4 compress)\n")
	fmt.Fprintf(w, "      --against FILE    Snapshot to verify against (verify only)\n")
	fmt.Fprintf(w, "      --max-size SIZE   Skip files larger than SIZE (e.g. 512K, 2G)\n")
	fmt.Fprintf(w, "      --ignore-file F   Regex ignore file (default: PATH/%s)\n", masshash.DefaultIgnoreName)
	fmt.Fprintf(w, "      --relative        Record paths relative to PATH (single PATH only)\n")
	fmt.Fprintf(w, "  -c, --config FILE     Config file (default: %s)\n", masshash.DefaultConfigName)
	fmt.Fprintf(w, "  -o, --option K:V      Override a config value (repeatable)\n")
	fmt.Fprintf(w, "  -v, --verbose         Increase verbosity (repeatable)\n")
	fmt.Fprintf(w, "      --debug FLAGS     Debug flags: worker, file\n")
	fmt.Fprintf(w, "  -h, --help            Show this help\n\n")

	fmt.Fprintf(w, "EXIT STATUS:\n")
	fmt.Fprintf(w, "  0 success, 1 failure or verification mismatch, 2 usage error, 130 interrupted\n")
}
