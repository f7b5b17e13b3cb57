//go:build !linux

package masshash

import (
	"bufio"
	"fmt"
	"os"
)

// WriteLines writes each line followed by a newline to f.
func WriteLines(f *os.File, lines [][]byte) (int, error) {
	w := bufio.NewWriter(f)
	written := 0
	for _, line := range lines {
		n, _ := w.Write(line)
		written += n
		if err := w.WriteByte('\n'); err == nil {
			written++
		}
	}
	if err := w.Flush(); err != nil {
		return written, fmt.Errorf("failed to write lines: %w", err)
	}
	return written, nil
}
