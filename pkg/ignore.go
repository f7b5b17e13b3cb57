package masshash

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

// DefaultIgnoreName is the ignore file looked up in each scanned root.
const DefaultIgnoreName = ".masshashignore"

const ignoreFileHeader = `# masshash ignore patterns
#
# One Go regular expression per line, matched against slash-separated
# paths relative to the scanned directory. Directories are matched with a
# trailing slash. Lines starting with # are comments.
#
#   \.git/
#   \.tmp$

`

// IgnoreManager holds the regex ignore patterns for one scanned root.
type IgnoreManager struct {
	ignorePath string
	patterns   []*regexp.Regexp
	loaded     bool
}

// NewIgnoreManager returns a manager backed by ignorePath. The file need
// not exist.
func NewIgnoreManager(ignorePath string) *IgnoreManager {
	return &IgnoreManager{ignorePath: ignorePath}
}

// IgnoreManagerForRoot returns a manager for the default ignore file in root.
func IgnoreManagerForRoot(root string) *IgnoreManager {
	return NewIgnoreManager(filepath.Join(root, DefaultIgnoreName))
}

// LoadIgnorePatterns reads the ignore file once. A missing file leaves the
// manager with no patterns; a bad expression fails the whole load.
func (im *IgnoreManager) LoadIgnorePatterns() error {
	if im.loaded {
		return nil
	}

	file, err := os.Open(im.ignorePath)
	if errors.Is(err, fs.ErrNotExist) {
		im.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open ignore file: %w", err)
	}
	defer file.Close()

	patterns, err := parseIgnorePatterns(file)
	if err != nil {
		return err
	}
	im.patterns = append(im.patterns, patterns...)
	im.loaded = true
	return nil
}

// parseIgnorePatterns compiles one expression per non-blank, non-comment
// line.
func parseIgnorePatterns(r io.Reader) ([]*regexp.Regexp, error) {
	var patterns []*regexp.Regexp
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || text[0] == '#' {
			continue
		}
		re, err := regexp.Compile(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid pattern %q: %w", line, text, err)
		}
		patterns = append(patterns, re)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ignore file: %w", err)
	}
	return patterns, nil
}

// ShouldIgnore reports whether any pattern matches relativePath. Only
// patterns already loaded or added are consulted.
func (im *IgnoreManager) ShouldIgnore(relativePath string) bool {
	slashed := filepath.ToSlash(relativePath)
	return slices.ContainsFunc(im.patterns, func(re *regexp.Regexp) bool {
		return re.MatchString(slashed)
	})
}

// AddPattern compiles and appends one pattern.
func (im *IgnoreManager) AddPattern(expr string) error {
	re, err := regexp.Compile(expr)
	if err != nil {
		return fmt.Errorf("invalid pattern %q: %w", expr, err)
	}
	im.patterns = append(im.patterns, re)
	return nil
}

// SaveIgnorePatterns rewrites the ignore file with a comment header and the
// current patterns.
func (im *IgnoreManager) SaveIgnorePatterns() error {
	var b strings.Builder
	b.WriteString(ignoreFileHeader)
	for _, re := range im.patterns {
		b.WriteString(re.String())
		b.WriteByte('\n')
	}

	file, err := os.Create(im.ignorePath)
	if err != nil {
		return fmt.Errorf("failed to create ignore file: %w", err)
	}
	defer file.Close()
	if _, err := io.WriteString(file, b.String()); err != nil {
		return fmt.Errorf("failed to write ignore file: %w", err)
	}
	return file.Sync()
}

// GetPatterns returns the active patterns.
func (im *IgnoreManager) GetPatterns() []*regexp.Regexp {
	return im.patterns
}

func (im *IgnoreManager) HasPatterns() bool {
	return len(im.patterns) > 0
}

// FilterIgnoredPaths returns the paths no pattern matches, in order.
func (im *IgnoreManager) FilterIgnoredPaths(paths []string) []string {
	if !im.HasPatterns() {
		return paths
	}
	return slices.DeleteFunc(slices.Clone(paths), im.ShouldIgnore)
}

// GetIgnoreFilePath returns the path to the ignore file
func (im *IgnoreManager) GetIgnoreFilePath() string {
	return im.ignorePath
}
