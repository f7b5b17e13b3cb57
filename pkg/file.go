package masshash

import (
	"fmt"
	"io"
	"os"
)

// readFile reads a whole file for hashing. It mirrors os.ReadFile but gives
// the platform a chance to tune read-ahead for a single sequential pass, and
// always returns a non-nil slice so empty files hash like any other input.
func readFile(filePath string) ([]byte, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file %s: %w", filePath, err)
	}

	adviseSequential(file)

	size := info.Size()
	if size < 0 || int64(int(size)) != size {
		return nil, fmt.Errorf("file %s is too large to read into memory", filePath)
	}

	// One extra byte so a file that grew since Stat is still read to EOF
	// without an immediate reallocation.
	data := make([]byte, 0, int(size)+1)
	for {
		n, err := file.Read(data[len(data):cap(data)])
		data = data[:len(data)+n]
		if err == io.EOF {
			return data, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read from file %s: %w", filePath, err)
		}
		if len(data) == cap(data) {
			data = append(data, 0)[:len(data)]
		}
	}
}

// isRegularFile follows symlinks, so a link to a regular file counts.
func isRegularFile(filePath string) bool {
	info, err := os.Stat(filePath)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

func fileSize(filePath string) (int64, bool) {
	info, err := os.Stat(filePath)
	if err != nil {
		return 0, false
	}
	return info.Size(), true
}
