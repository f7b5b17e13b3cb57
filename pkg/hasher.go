package masshash

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"time"
)

var (
	// ErrNoFiles is returned when no regular file survives filtering. The
	// hasher reports it before any worker is started.
	ErrNoFiles = errors.New("no files to hash")

	// ErrPanic marks a worker failure caused by a recovered panic.
	ErrPanic = errors.New("panic in hashing worker")
)

// Options configures a Hasher. The zero value hashes every regular file
// with SHA-1 on all available CPUs.
type Options struct {
	// Workers is the requested number of concurrent workers. Values
	// outside [1, runtime.NumCPU()] are clamped, with a warning.
	Workers int

	// Filter, if set, must return true for a path to be hashed. Paths
	// that are not regular files are always skipped.
	Filter func(path string) bool

	// OnBlob, if set, is called for every file with the path it will be
	// indexed under and its Blob, before the Blob's data is dropped. It
	// may rewrite *path. Returning an error fails the whole batch. OnBlob
	// runs concurrently on different workers and must only touch the
	// path and Blob it is given.
	OnBlob func(path *string, blob *Blob) error

	// Algorithm defaults to SHA-1.
	Algorithm *HashAlgorithm

	// Logger receives warnings and progress; nil discards.
	Logger *slog.Logger

	// Debug enables extra tracing: "worker" logs each chunk, "file" logs
	// each file.
	Debug DebugFlags

	// ReadFile reads a whole file; nil uses the package reader.
	ReadFile func(path string) ([]byte, error)
}

// WorkerError is returned when a worker fails. It names the worker and the
// path it was processing.
type WorkerError struct {
	Worker int
	Path   string
	Err    error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("hashing worker %d failed on %s: %v", e.Worker, e.Path, e.Err)
}

func (e *WorkerError) Unwrap() error {
	return e.Err
}

// Hasher hashes batches of files in parallel and groups them by content.
// A Hasher holds only configuration and may be reused, including
// concurrently.
type Hasher struct {
	workers   int
	filter    func(string) bool
	onBlob    func(*string, *Blob) error
	algorithm *HashAlgorithm
	logger    *slog.Logger
	debug     DebugFlags
	readFile  func(string) ([]byte, error)
}

// NewHasher validates opts and returns a Hasher. An out-of-range worker
// count is corrected and logged, never rejected.
func NewHasher(opts Options) *Hasher {
	h := &Hasher{
		filter:    opts.Filter,
		onBlob:    opts.OnBlob,
		algorithm: opts.Algorithm,
		logger:    opts.Logger,
		debug:     opts.Debug,
		readFile:  opts.ReadFile,
	}
	if h.logger == nil {
		h.logger = slog.New(slog.DiscardHandler)
	}
	if h.algorithm == nil {
		h.algorithm = sha1Algorithm
	}
	if h.readFile == nil {
		h.readFile = readFile
	}

	workers, clamped := ClampWorkers(opts.Workers)
	if clamped {
		h.logger.Warn("requested worker count out of range, adjusting",
			"requested", opts.Workers,
			"available", runtime.NumCPU(),
			"using", workers)
	}
	h.workers = workers
	return h
}

// ClampWorkers clamps a requested worker count into [1, runtime.NumCPU()]
// and reports whether it had to be changed.
func ClampWorkers(requested int) (int, bool) {
	available := runtime.NumCPU()
	switch {
	case requested < 1:
		return 1, true
	case requested > available:
		return available, true
	default:
		return requested, false
	}
}

// Workers returns the effective worker count.
func (h *Hasher) Workers() int {
	return h.workers
}

// HashPaths is Hash over a slice.
func (h *Hasher) HashPaths(ctx context.Context, paths []string) (*Index, error) {
	return h.Hash(ctx, slices.Values(paths))
}

// Hash filters paths, hashes every remaining regular file and returns the
// files grouped by content hash. Either every file is indexed or an error
// is returned; a partial index is never produced. The first worker failure
// cancels the others. Cancelling ctx aborts the batch the same way.
func (h *Hasher) Hash(ctx context.Context, paths iter.Seq[string]) (*Index, error) {
	files := h.collect(paths)
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	chunks := chunk(files, h.workers)
	h.logger.Debug("hashing files",
		"files", len(files),
		"workers", len(chunks),
		"algorithm", h.algorithm.Name)

	buckets, err := h.run(ctx, chunks)
	if err != nil {
		return nil, err
	}

	idx, err := mergeBuckets(buckets, len(files))
	if err != nil {
		return nil, err
	}

	h.logger.Info("hash calculation complete",
		"files", idx.Len(),
		"hashes", idx.HashCount(),
		"duration", time.Since(start))
	return idx, nil
}

// collect applies the filter and the regular-file check, keeping input
// order.
func (h *Hasher) collect(paths iter.Seq[string]) []string {
	var files []string
	for path := range paths {
		if h.filter != nil && !h.filter(path) {
			continue
		}
		if !isRegularFile(path) {
			continue
		}
		files = append(files, path)
	}
	return files
}

// chunk splits files into contiguous slices of ceil(n/workers) entries; the
// last one may be shorter.
func chunk(files []string, workers int) [][]string {
	size := (len(files) + workers - 1) / workers
	chunks := make([][]string, 0, workers)
	for start := 0; start < len(files); start += size {
		chunks = append(chunks, files[start:min(start+size, len(files))])
	}
	return chunks
}

// bucket is one worker's result: paths grouped by hash, unsorted.
type bucket map[string][]string

// run starts one worker per chunk and waits for all of them. On the first
// failure the shared context is cancelled and no bucket is returned.
func (h *Hasher) run(ctx context.Context, chunks [][]string) ([]bucket, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	buckets := make([]bucket, len(chunks))
	var wg sync.WaitGroup
	for i, files := range chunks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local, err := h.work(ctx, i, files)
			if err != nil {
				cancel(err)
				return
			}
			buckets[i] = local
		}()
	}
	wg.Wait()

	if err := context.Cause(ctx); err != nil {
		h.logger.Error("hashing aborted", "error", err)
		return nil, err
	}
	return buckets, nil
}

// work hashes one chunk sequentially into a local bucket. Nothing in here
// is shared with other workers.
func (h *Hasher) work(ctx context.Context, worker int, files []string) (local bucket, err error) {
	if h.debug.Enabled("worker") {
		h.logger.Debug("worker started", "worker", worker, "files", len(files))
	}

	current := ""
	defer func() {
		if r := recover(); r != nil {
			err = &WorkerError{Worker: worker, Path: current, Err: fmt.Errorf("%w: %v", ErrPanic, r)}
		}
	}()

	local = make(bucket)
	for _, file := range files {
		if ctx.Err() != nil {
			return nil, context.Cause(ctx)
		}
		current = file

		path, hash, err := h.hashOne(file)
		if err != nil {
			return nil, &WorkerError{Worker: worker, Path: file, Err: err}
		}
		local[hash] = append(local[hash], path)

		if h.debug.Enabled("file") {
			h.logger.Log(ctx, LevelTrace, "hashed file", "worker", worker, "path", path, "hash", hash)
		}
	}

	if h.debug.Enabled("worker") {
		h.logger.Debug("worker finished", "worker", worker, "hashes", len(local))
	}
	return local, nil
}

// hashOne reads and hashes a file, runs the callback and drops the data.
// It returns the (possibly rewritten) path and the hash.
func (h *Hasher) hashOne(file string) (string, string, error) {
	data, err := h.readFile(file)
	if err != nil {
		return "", "", err
	}
	if data == nil {
		data = []byte{}
	}
	blob := h.algorithm.blobOwning(data)

	path := file
	if h.onBlob != nil {
		if err := h.onBlob(&path, blob); err != nil {
			return "", "", err
		}
	}

	hashOnly, _ := blob.DropData()
	return path, hashOnly.Hash(), nil
}

// mergeBuckets flattens the worker results, sorts them once and loads them
// into an Index. A path reported under two hashes is an error.
func mergeBuckets(buckets []bucket, sizeHint int) (*Index, error) {
	entries := make([]indexEntry, 0, sizeHint)
	for _, local := range buckets {
		for hash, paths := range local {
			for _, path := range paths {
				entries = append(entries, indexEntry{Hash: hash, Path: path})
			}
		}
	}
	entries = sortEntries(entries)

	seen := make(map[string]string, len(entries))
	for _, entry := range entries {
		if other, ok := seen[entry.Path]; ok {
			return nil, fmt.Errorf("%w: %s hashed to both %s and %s", ErrPathConflict, entry.Path, other, entry.Hash)
		}
		seen[entry.Path] = entry.Hash
	}

	return buildIndex(entries), nil
}
