package main

import (
	"bytes"
	"strings"
	"testing"

	masshash "github.com/mattkeenan/masshash/pkg"
)

var testGroups = []masshash.DuplicateGroup{
	{Hash: "aa", Files: []string{"x/1", "x/2"}, Count: 2},
	{Hash: "bb", Files: []string{"y", "z", "zz"}, Count: 3},
}

func joinLines(lines [][]byte) string {
	var b strings.Builder
	for _, line := range lines {
		b.Write(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func TestGroupLines(t *testing.T) {
	got := joinLines(groupLines(testGroups))
	want := "aa (2 files)\n  x/1\n  x/2\n\nbb (3 files)\n  y\n  z\n  zz\n"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestFdupesLines(t *testing.T) {
	got := joinLines(fdupesLines(testGroups))
	want := "x/1\nx/2\n\ny\nz\nzz\n\n"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestIndexLines(t *testing.T) {
	idx := masshash.NewIndex()
	idx.Put(masshash.HashOf("bb"), "b")
	idx.Put(masshash.HashOf("aa"), "a")

	got := joinLines(indexLines(idx))
	if got != "aa  a\nbb  b\n" {
		t.Errorf("Unexpected index lines %q", got)
	}
}

func TestRenderTree(t *testing.T) {
	out := renderTree("2 duplicate groups", testGroups)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if lines[0] != "2 duplicate groups" {
		t.Errorf("Expected root label first, got %q", lines[0])
	}
	// Root, two hash nodes and five files.
	if len(lines) != 8 {
		t.Errorf("Expected 8 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(out, "aa") || !strings.Contains(out, "zz") {
		t.Errorf("Expected hashes and files in tree, got:\n%s", out)
	}
}

func TestWriteJSONAndYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, testGroups); err != nil {
		t.Fatalf("writeJSON failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"hash": "aa"`) {
		t.Errorf("Expected JSON hash field, got %s", buf.String())
	}

	buf.Reset()
	if err := writeYAML(&buf, testGroups); err != nil {
		t.Fatalf("writeYAML failed: %v", err)
	}
	if !strings.Contains(buf.String(), "- hash: aa") {
		t.Errorf("Expected YAML hash field, got %s", buf.String())
	}
}
