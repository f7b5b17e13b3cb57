package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/disiqueira/gotree/v3"
	"gopkg.in/yaml.v3"

	masshash "github.com/mattkeenan/masshash/pkg"
)

// writeIndex prints every indexed file in the requested format.
func writeIndex(out *os.File, idx *masshash.Index, format string) error {
	switch format {
	case "human":
		_, err := masshash.WriteLines(out, indexLines(idx))
		return err
	case "fdupes":
		_, err := masshash.WriteLines(out, fdupesLines(idx.Groups()))
		return err
	case "json":
		return writeJSON(out, idx.Entries())
	case "yaml":
		return writeYAML(out, idx.Entries())
	case "tree":
		return writeTree(out, fmt.Sprintf("%d files, %d hashes", idx.Len(), idx.HashCount()), idx.Groups())
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// writeDuplicates prints duplicate groups in the requested format.
func writeDuplicates(out *os.File, groups []masshash.DuplicateGroup, format string) error {
	if groups == nil {
		groups = []masshash.DuplicateGroup{}
	}
	switch format {
	case "human":
		_, err := masshash.WriteLines(out, groupLines(groups))
		return err
	case "fdupes":
		_, err := masshash.WriteLines(out, fdupesLines(groups))
		return err
	case "json":
		return writeJSON(out, groups)
	case "yaml":
		return writeYAML(out, groups)
	case "tree":
		return writeTree(out, fmt.Sprintf("%d duplicate groups", len(groups)), groups)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// indexLines renders one "hash  path" line per file, like sha1sum.
func indexLines(idx *masshash.Index) [][]byte {
	entries := idx.Entries()
	lines := make([][]byte, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, []byte(e.Hash+"  "+e.Path))
	}
	return lines
}

// groupLines renders each group as a header followed by indented paths,
// with a blank line between groups.
func groupLines(groups []masshash.DuplicateGroup) [][]byte {
	var lines [][]byte
	for i, group := range groups {
		if i > 0 {
			lines = append(lines, nil)
		}
		lines = append(lines, fmt.Appendf(nil, "%s (%d files)", group.Hash, group.Count))
		for _, file := range group.Files {
			lines = append(lines, []byte("  "+file))
		}
	}
	return lines
}

// fdupesLines renders groups the way fdupes does: one path per line, each
// group followed by a blank line.
func fdupesLines(groups []masshash.DuplicateGroup) [][]byte {
	var lines [][]byte
	for _, group := range groups {
		for _, file := range group.Files {
			lines = append(lines, []byte(file))
		}
		lines = append(lines, nil)
	}
	return lines
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

// renderTree draws each group as a hash node with its files as leaves.
func renderTree(label string, groups []masshash.DuplicateGroup) string {
	tree := gotree.New(label)
	for _, group := range groups {
		node := tree.Add(group.Hash)
		for _, file := range group.Files {
			node.Add(file)
		}
	}
	return tree.Print()
}

func writeTree(w io.Writer, label string, groups []masshash.DuplicateGroup) error {
	_, err := io.WriteString(w, renderTree(label, groups))
	return err
}
