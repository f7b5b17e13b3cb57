package masshash

import (
	"strings"

	zcsl "github.com/mattkeenan/zerocopyskiplist"
)

// indexEntry is one (hash, path) pair stored in the index skiplist.
type indexEntry struct {
	Hash string
	Path string
}

// entryKey joins hash and path so a single string orders the skiplist.
// Paths may contain any byte except NUL, so the separator is unambiguous.
func entryKey(hash, path string) string {
	return hash + keySeparator + path
}

func splitEntryKey(key string) (hash, path string) {
	hash, path, _ = strings.Cut(key, keySeparator)
	return hash, path
}

// compareEntryKeys orders by hash first, then by path, independent of
// digest length.
func compareEntryKeys(a, b string) int {
	hashA, pathA := splitEntryKey(a)
	hashB, pathB := splitEntryKey(b)
	if c := strings.Compare(hashA, hashB); c != 0 {
		return c
	}
	return strings.Compare(pathA, pathB)
}

func compareEntries(a, b indexEntry) int {
	if c := strings.Compare(a.Hash, b.Hash); c != 0 {
		return c
	}
	return strings.Compare(a.Path, b.Path)
}

// skiplistWrapper wraps the generic zerocopyskiplist with the index's key
// scheme. It is not safe for concurrent use; Index provides the locking.
type skiplistWrapper struct {
	skiplist *zcsl.ZeroCopySkiplist[indexEntry, string, string]
}

func newSkiplistWrapper(maxLevels int) *skiplistWrapper {
	if maxLevels < 8 {
		maxLevels = 16
	}

	getKeyFromItem := func(entry *indexEntry) string {
		return entryKey(entry.Hash, entry.Path)
	}

	getItemSize := func(entry *indexEntry) int {
		return len(entry.Hash) + len(entry.Path)
	}

	skiplist := zcsl.MakeZeroCopySkiplist[indexEntry, string, string](
		maxLevels,
		getKeyFromItem,
		getItemSize,
		compareEntryKeys,
	)

	return &skiplistWrapper{skiplist: skiplist}
}

// Insert adds an entry with the given context. It returns false when the
// same (hash, path) pair is already present.
func (sw *skiplistWrapper) Insert(entry indexEntry, context string) bool {
	return sw.skiplist.Insert(&entry, context)
}

// Contains reports whether the (hash, path) pair is present.
func (sw *skiplistWrapper) Contains(hash, path string) bool {
	itemPtr, _ := sw.skiplist.Find(entryKey(hash, path))
	return itemPtr != nil
}

// Delete removes the (hash, path) pair.
func (sw *skiplistWrapper) Delete(hash, path string) bool {
	return sw.skiplist.Delete(entryKey(hash, path))
}

// ForEach iterates through all entries in sorted order
func (sw *skiplistWrapper) ForEach(callback func(entry *indexEntry, context string) bool) {
	for current := sw.skiplist.First(); current != nil; current = current.Next() {
		if !callback(current.Item(), current.Context()) {
			break
		}
	}
}

// Length returns the number of entries in the skiplist
func (sw *skiplistWrapper) Length() int {
	return sw.skiplist.Length()
}

// Copy creates a copy of the skiplist structure
func (sw *skiplistWrapper) Copy() *skiplistWrapper {
	return &skiplistWrapper{skiplist: sw.skiplist.Copy()}
}

// Merge merges another skiplist into this skiplist
func (sw *skiplistWrapper) Merge(other *skiplistWrapper, strategy zcsl.MergeStrategy) error {
	if other == nil {
		return nil
	}
	return sw.skiplist.Merge(other.skiplist, strategy)
}
