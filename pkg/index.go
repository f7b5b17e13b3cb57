package masshash

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	zcsl "github.com/mattkeenan/zerocopyskiplist"
)

// ErrPathConflict is returned when a path would be filed under two
// different hashes.
var ErrPathConflict = errors.New("path already indexed under a different hash")

// Index maps content hashes to the set of paths holding that content.
// Iteration is ordered by hash, then by path. An Index is safe for
// concurrent use; every read and write takes its lock.
type Index struct {
	mu      sync.RWMutex
	entries *skiplistWrapper
	byPath  map[string]string   // path -> hash
	byHash  map[string][]string // hash -> sorted paths
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		entries: newSkiplistWrapper(indexMaxLevels),
		byPath:  make(map[string]string),
		byHash:  make(map[string][]string),
	}
}

// buildIndex loads entries that are already sorted and free of duplicates.
func buildIndex(sorted []indexEntry) *Index {
	idx := NewIndex()
	for _, entry := range sorted {
		idx.entries.Insert(entry, MergedContext)
		idx.byPath[entry.Path] = entry.Hash
		idx.byHash[entry.Hash] = append(idx.byHash[entry.Hash], entry.Path)
	}
	return idx
}

// Len returns the number of indexed paths.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.entries.Length()
}

// HashCount returns the number of distinct hashes.
func (idx *Index) HashCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.byHash)
}

// Hashes returns the distinct hashes in ascending order.
func (idx *Index) Hashes() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	hashes := make([]string, 0, len(idx.byHash))
	idx.entries.ForEach(func(entry *indexEntry, context string) bool {
		if len(hashes) == 0 || hashes[len(hashes)-1] != entry.Hash {
			hashes = append(hashes, entry.Hash)
		}
		return true
	})
	return hashes
}

// Paths returns the paths filed under id, in ascending order.
func (idx *Index) Paths(id Identity) []string {
	return idx.PathsForHash(id.Hash())
}

// PathsForHash returns the paths filed under hash, in ascending order.
func (idx *Index) PathsForHash(hash string) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return slices.Clone(idx.byHash[hash])
}

// HashFor returns the hash a path is filed under.
func (idx *Index) HashFor(path string) (HashOnly, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	hash, ok := idx.byPath[path]
	return HashOnly{hash: hash}, ok
}

// Contains reports whether path is filed under id.
func (idx *Index) Contains(id Identity, path string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.entries.Contains(id.Hash(), path)
}

// ForEach calls fn for each hash with its sorted paths, in hash order, until
// fn returns false. The index is read-locked for the duration, so fn must
// not modify it.
func (idx *Index) ForEach(fn func(hash string, paths []string) bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var (
		current string
		paths   []string
		stopped bool
	)
	idx.entries.ForEach(func(entry *indexEntry, context string) bool {
		if paths != nil && entry.Hash != current {
			if !fn(current, paths) {
				stopped = true
				return false
			}
			paths = nil
		}
		current = entry.Hash
		paths = append(paths, entry.Path)
		return true
	})
	if !stopped && paths != nil {
		fn(current, paths)
	}
}

// Put files path under id. A path already filed under a different hash is
// rejected with ErrPathConflict; Remove it first to move it.
func (idx *Index) Put(id Identity, path string) error {
	hash := id.Hash()

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if existing, ok := idx.byPath[path]; ok {
		if existing == hash {
			return nil
		}
		return fmt.Errorf("%w: %s is under %s, not %s", ErrPathConflict, path, existing, hash)
	}
	idx.entries.Insert(indexEntry{Hash: hash, Path: path}, CallerContext)
	idx.byPath[path] = hash
	idx.addPath(hash, path)
	return nil
}

// Remove drops path from the index and reports whether it was present.
func (idx *Index) Remove(path string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	hash, ok := idx.byPath[path]
	if !ok {
		return false
	}
	idx.entries.Delete(hash, path)
	delete(idx.byPath, path)
	paths := idx.byHash[hash]
	if i, found := slices.BinarySearch(paths, path); found {
		paths = slices.Delete(paths, i, i+1)
	}
	if len(paths) == 0 {
		delete(idx.byHash, hash)
	} else {
		idx.byHash[hash] = paths
	}
	return true
}

// Merge adds every entry of other to idx. Nothing is added if any path of
// other is filed under a different hash in idx.
func (idx *Index) Merge(other *Index) error {
	if other == nil || other == idx {
		return nil
	}

	other.mu.RLock()
	incoming := other.entries.Copy()
	incomingPaths := make(map[string]string, len(other.byPath))
	for path, hash := range other.byPath {
		incomingPaths[path] = hash
	}
	other.mu.RUnlock()

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for path, hash := range incomingPaths {
		if existing, ok := idx.byPath[path]; ok && existing != hash {
			return fmt.Errorf("%w: %s is under %s, not %s", ErrPathConflict, path, existing, hash)
		}
	}
	if err := idx.entries.Merge(incoming, zcsl.MergeOurs); err != nil {
		return fmt.Errorf("failed to merge index: %w", err)
	}
	for path, hash := range incomingPaths {
		if _, ok := idx.byPath[path]; !ok {
			idx.byPath[path] = hash
			idx.addPath(hash, path)
		}
	}
	return nil
}

// addPath inserts path into the sorted path list of hash.
func (idx *Index) addPath(hash, path string) {
	paths := idx.byHash[hash]
	i, _ := slices.BinarySearch(paths, path)
	idx.byHash[hash] = slices.Insert(paths, i, path)
}

// Entries returns every (hash, path) pair in index order.
func (idx *Index) Entries() []Entry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]Entry, 0, idx.entries.Length())
	idx.entries.ForEach(func(entry *indexEntry, context string) bool {
		out = append(out, Entry{Hash: entry.Hash, Path: entry.Path})
		return true
	})
	return out
}

// Entry is one indexed path and the hash of its content.
type Entry struct {
	Hash string `json:"hash" yaml:"hash" cbor:"1,keyasint"`
	Path string `json:"path" yaml:"path" cbor:"2,keyasint"`
}

// sortEntries sorts by hash then path and removes repeated pairs.
func sortEntries(entries []indexEntry) []indexEntry {
	slices.SortFunc(entries, compareEntries)
	return slices.CompactFunc(entries, func(a, b indexEntry) bool {
		return a == b
	})
}
