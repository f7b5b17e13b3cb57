package main

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	masshash "github.com/mattkeenan/masshash/pkg"
)

var errStopWalk = errors.New("stop walk")

// walkRoot is one PATH argument with its ignore patterns. ignore is nil for
// a plain file argument.
type walkRoot struct {
	path   string
	isDir  bool
	ignore *masshash.IgnoreManager
}

// walker turns the PATH arguments into the candidate path sequence handed
// to the hasher.
type walker struct {
	roots  []walkRoot
	logger *slog.Logger
}

// newWalker resolves roots and loads their ignore patterns. ignoreFile, if
// set, replaces the per-root default ignore file.
func newWalker(paths []string, ignoreFile string, logger *slog.Logger) (*walker, error) {
	w := &walker{logger: logger}
	for _, path := range paths {
		path = filepath.Clean(path)
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", path, err)
		}

		root := walkRoot{path: path, isDir: info.IsDir()}
		if root.isDir {
			if ignoreFile != "" {
				root.ignore = masshash.NewIgnoreManager(ignoreFile)
			} else {
				root.ignore = masshash.IgnoreManagerForRoot(path)
			}
			if err := root.ignore.LoadIgnorePatterns(); err != nil {
				return nil, fmt.Errorf("%s: %w", root.ignore.GetIgnoreFilePath(), err)
			}
		}
		w.roots = append(w.roots, root)
	}
	return w, nil
}

// paths yields every non-directory entry under the roots, in walk order.
// Unreadable entries are logged and skipped; the hasher drops anything that
// is not a regular file.
func (w *walker) paths() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, root := range w.roots {
			if !root.isDir {
				if !yield(root.path) {
					return
				}
				continue
			}
			err := filepath.WalkDir(root.path, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					w.logger.Warn("skipping unreadable path", "path", path, "error", err)
					if d != nil && d.IsDir() {
						return fs.SkipDir
					}
					return nil
				}
				rel, relErr := filepath.Rel(root.path, path)
				if relErr != nil {
					return nil
				}
				if d.IsDir() {
					if rel != "." && root.ignore.ShouldIgnore(rel+"/") {
						return fs.SkipDir
					}
					return nil
				}
				if root.ignore.ShouldIgnore(rel) {
					return nil
				}
				if !yield(path) {
					return errStopWalk
				}
				return nil
			})
			if errors.Is(err, errStopWalk) {
				return
			}
		}
	}
}

// relativize rewrites a path to be relative to the root it was found
// under. A file given directly as an argument keeps only its base name.
// Paths from different roots could collide, so callers use it with a
// single root only.
func (w *walker) relativize(path *string, _ *masshash.Blob) error {
	for _, root := range w.roots {
		if !root.isDir {
			if *path == root.path {
				*path = filepath.Base(root.path)
				return nil
			}
			continue
		}
		rel, err := filepath.Rel(root.path, *path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		*path = rel
		return nil
	}
	return nil
}

// resolve maps a path produced by relativize back to the file it names.
// Absolute paths are returned unchanged.
func (w *walker) resolve(path string) string {
	if filepath.IsAbs(path) || len(w.roots) != 1 {
		return path
	}
	root := w.roots[0]
	if !root.isDir {
		return root.path
	}
	return filepath.Join(root.path, path)
}
