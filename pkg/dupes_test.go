package masshash

import (
	"context"
	"slices"
	"testing"
)

func TestDuplicates(t *testing.T) {
	idx := NewIndex()
	idx.Put(HashOf("bb"), "dir/file3.txt")
	idx.Put(HashOf("bb"), "file1.txt")
	idx.Put(HashOf("aa"), "unique.txt")
	idx.Put(HashOf("cc"), "x")
	idx.Put(HashOf("cc"), "y")

	groups := idx.Duplicates()
	if len(groups) != 2 {
		t.Fatalf("Expected 2 duplicate groups, got %d", len(groups))
	}

	if groups[0].Hash != "bb" {
		t.Errorf("Expected first group hash 'bb', got '%s'", groups[0].Hash)
	}
	if groups[0].Count != 2 {
		t.Errorf("Expected count 2, got %d", groups[0].Count)
	}
	if !slices.Equal(groups[0].Files, []string{"dir/file3.txt", "file1.txt"}) {
		t.Errorf("Expected sorted files, got %v", groups[0].Files)
	}
	if groups[1].Hash != "cc" {
		t.Errorf("Expected second group hash 'cc', got '%s'", groups[1].Hash)
	}
}

func TestDuplicates_None(t *testing.T) {
	idx := NewIndex()
	idx.Put(HashOf("aa"), "a")
	idx.Put(HashOf("bb"), "b")

	if groups := idx.Duplicates(); len(groups) != 0 {
		t.Errorf("Expected no duplicate groups, got %v", groups)
	}
	if groups := idx.Groups(); len(groups) != 2 {
		t.Errorf("Expected 2 groups, got %d", len(groups))
	}
}

func TestFindDuplicates(t *testing.T) {
	dir := t.TempDir()
	paths := writeFiles(t, dir, map[string]string{
		"one.txt":    "duplicate content",
		"two.txt":    "duplicate content",
		"sub/three":  "duplicate content",
		"unique.txt": "unique",
		"empty1":     "",
		"sub/empty2": "",
	}, "one.txt", "two.txt", "sub/three", "unique.txt", "empty1", "sub/empty2")

	groups, err := FindDuplicates(context.Background(), paths, Options{Workers: 3})
	if err != nil {
		t.Fatalf("FindDuplicates failed: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("Expected 2 duplicate groups, got %d", len(groups))
	}

	counts := map[string]int{}
	for _, g := range groups {
		counts[g.Hash] = g.Count
	}
	if counts[sha1Algorithm.Digest([]byte("duplicate content"))] != 3 {
		t.Errorf("Expected 3 copies of the duplicate content, got %v", counts)
	}
	if counts[sha1Algorithm.Digest([]byte{})] != 2 {
		t.Errorf("Expected 2 empty files, got %v", counts)
	}
}

func TestWastedBytes(t *testing.T) {
	groups := []DuplicateGroup{
		{Hash: "aa", Files: []string{"a1", "a2", "a3"}, Count: 3},
		{Hash: "bb", Files: []string{"b1"}, Count: 1},
		{Hash: "cc", Files: []string{"c1", "gone"}, Count: 2},
	}
	sizes := map[string]int64{"a1": 10, "a2": 10, "a3": 10, "b1": 99, "c1": 5}

	got := WastedBytes(groups, func(path string) (int64, bool) {
		n, ok := sizes[path]
		return n, ok
	})
	if got != 20 {
		t.Errorf("Expected 20 wasted bytes, got %d", got)
	}
}
