package masshash

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
)

func TestIndex_PutAndLookup(t *testing.T) {
	idx := NewIndex()

	if err := idx.Put(HashOf("bb"), "z"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := idx.Put(HashOf("aa"), "y"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := idx.Put(HashOf("bb"), "a"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if idx.Len() != 3 {
		t.Errorf("Expected 3 paths, got %d", idx.Len())
	}
	if idx.HashCount() != 2 {
		t.Errorf("Expected 2 hashes, got %d", idx.HashCount())
	}
	if got := idx.Hashes(); !slices.Equal(got, []string{"aa", "bb"}) {
		t.Errorf("Expected hashes [aa bb], got %v", got)
	}
	if got := idx.PathsForHash("bb"); !slices.Equal(got, []string{"a", "z"}) {
		t.Errorf("Expected paths [a z], got %v", got)
	}
	if got := idx.Paths(HashOf("missing")); got != nil {
		t.Errorf("Expected no paths for unknown hash, got %v", got)
	}
	if !idx.Contains(HashOf("aa"), "y") {
		t.Error("Expected index to contain aa/y")
	}
	if idx.Contains(HashOf("aa"), "z") {
		t.Error("Expected index not to contain aa/z")
	}

	hash, ok := idx.HashFor("z")
	if !ok || hash.Hash() != "bb" {
		t.Errorf("Expected z under bb, got %q (%v)", hash.Hash(), ok)
	}
}

func TestIndex_PutConflict(t *testing.T) {
	idx := NewIndex()
	if err := idx.Put(HashOf("aa"), "p"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Same pair again is a no-op.
	if err := idx.Put(HashOf("aa"), "p"); err != nil {
		t.Errorf("Expected repeated Put to succeed, got %v", err)
	}
	if idx.Len() != 1 {
		t.Errorf("Expected 1 path after repeated Put, got %d", idx.Len())
	}

	if err := idx.Put(HashOf("bb"), "p"); !errors.Is(err, ErrPathConflict) {
		t.Errorf("Expected ErrPathConflict, got %v", err)
	}
}

func TestIndex_Remove(t *testing.T) {
	idx := NewIndex()
	idx.Put(HashOf("aa"), "p1")
	idx.Put(HashOf("aa"), "p2")

	if !idx.Remove("p1") {
		t.Error("Expected Remove to report the path as present")
	}
	if idx.Remove("p1") {
		t.Error("Expected second Remove to report the path as absent")
	}
	if idx.HashCount() != 1 || idx.Len() != 1 {
		t.Errorf("Expected 1 hash and 1 path, got %d and %d", idx.HashCount(), idx.Len())
	}

	idx.Remove("p2")
	if idx.HashCount() != 0 || idx.Len() != 0 {
		t.Errorf("Expected empty index, got %d hashes and %d paths", idx.HashCount(), idx.Len())
	}

	// A removed path can be filed under a new hash.
	if err := idx.Put(HashOf("bb"), "p1"); err != nil {
		t.Errorf("Expected Put after Remove to succeed, got %v", err)
	}
}

func TestIndex_Merge(t *testing.T) {
	left := NewIndex()
	left.Put(HashOf("aa"), "a")
	left.Put(HashOf("bb"), "b")

	right := NewIndex()
	right.Put(HashOf("aa"), "a")
	right.Put(HashOf("aa"), "c")
	right.Put(HashOf("cc"), "d")

	if err := left.Merge(right); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	want := []Entry{{"aa", "a"}, {"aa", "c"}, {"bb", "b"}, {"cc", "d"}}
	if got := left.Entries(); !slices.Equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if left.HashCount() != 3 {
		t.Errorf("Expected 3 hashes, got %d", left.HashCount())
	}
	if right.Len() != 3 {
		t.Errorf("Expected merge source to be untouched, got %d paths", right.Len())
	}
}

func TestIndex_MergeConflict(t *testing.T) {
	left := NewIndex()
	left.Put(HashOf("aa"), "a")

	right := NewIndex()
	right.Put(HashOf("bb"), "a")
	right.Put(HashOf("cc"), "other")

	if err := left.Merge(right); !errors.Is(err, ErrPathConflict) {
		t.Fatalf("Expected ErrPathConflict, got %v", err)
	}
	if left.Len() != 1 {
		t.Errorf("Expected failed merge to leave the index unchanged, got %d paths", left.Len())
	}
}

func TestIndex_ForEachStops(t *testing.T) {
	idx := NewIndex()
	for i := 0; i < 5; i++ {
		idx.Put(HashOf(fmt.Sprintf("h%d", i)), fmt.Sprintf("p%d", i))
	}

	var seen []string
	idx.ForEach(func(hash string, paths []string) bool {
		seen = append(seen, hash)
		return len(seen) < 2
	})
	if !slices.Equal(seen, []string{"h0", "h1"}) {
		t.Errorf("Expected ForEach to stop after h1, got %v", seen)
	}
}

func TestIndex_ConcurrentReads(t *testing.T) {
	idx := NewIndex()
	for i := 0; i < 200; i++ {
		idx.Put(HashOf(fmt.Sprintf("%03d", i%20)), fmt.Sprintf("path%03d", i))
	}

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				if n := len(idx.PathsForHash("007")); n != 10 {
					errs <- fmt.Sprintf("Expected 10 paths, got %d", n)
					return
				}
				if idx.HashCount() != 20 {
					errs <- fmt.Sprintf("Expected 20 hashes, got %d", idx.HashCount())
					return
				}
				if len(idx.Duplicates()) != 20 {
					errs <- "Expected 20 duplicate groups"
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Error(msg)
	}
}

func TestBuildIndex(t *testing.T) {
	entries := sortEntries([]indexEntry{
		{Hash: "bb", Path: "x"},
		{Hash: "aa", Path: "y"},
		{Hash: "bb", Path: "a"},
		{Hash: "aa", Path: "y"},
	})
	if len(entries) != 3 {
		t.Fatalf("Expected duplicates to be compacted to 3 entries, got %d", len(entries))
	}

	idx := buildIndex(entries)
	want := []Entry{{"aa", "y"}, {"bb", "a"}, {"bb", "x"}}
	if got := idx.Entries(); !slices.Equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestIndex_PathsForHashTracksUpdates(t *testing.T) {
	var entries []indexEntry
	for i := 0; i < 200; i++ {
		entries = append(entries, indexEntry{Hash: fmt.Sprintf("h%03d", i%20), Path: fmt.Sprintf("p%03d", i)})
	}
	idx := buildIndex(sortEntries(entries))

	got := idx.PathsForHash("h019")
	if len(got) != 10 || !slices.IsSorted(got) || got[0] != "p019" {
		t.Fatalf("Expected 10 sorted paths starting at p019, got %v", got)
	}

	// The returned slice is a copy.
	got[0] = "changed"
	if idx.PathsForHash("h019")[0] != "p019" {
		t.Error("Expected PathsForHash to return a copy")
	}

	if err := idx.Put(HashOf("h019"), "a-first"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if !idx.Remove("p039") {
		t.Fatal("Expected p039 to be removed")
	}
	got = idx.PathsForHash("h019")
	if len(got) != 10 || got[0] != "a-first" || slices.Contains(got, "p039") {
		t.Errorf("Expected paths to follow Put and Remove, got %v", got)
	}

	for _, p := range idx.PathsForHash("h000") {
		idx.Remove(p)
	}
	if idx.PathsForHash("h000") != nil || idx.HashCount() != 19 {
		t.Errorf("Expected h000 to be gone, got %v with %d hashes", idx.PathsForHash("h000"), idx.HashCount())
	}
}
