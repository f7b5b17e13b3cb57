package masshash

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// BenchmarkConfig defines the parameters for performance benchmarks
type BenchmarkConfig struct {
	TotalFiles    int   // Total number of files to generate
	LargeFiles    int   // Number of large files
	LargeFileSize int64 // Size of large files in bytes
	SmallFileSize int64 // Size of small files in bytes
	FilesPerDir   int   // Files per directory
	DuplicateMod  int   // Every DuplicateMod-th small file repeats earlier content
}

var (
	// Small benchmark for development/CI
	SmallBenchConfig = BenchmarkConfig{
		TotalFiles:    1000,
		LargeFiles:    20,
		LargeFileSize: 1024 * 1024, // 1MB
		SmallFileSize: 4 * 1024,    // 4KB
		FilesPerDir:   50,
		DuplicateMod:  10,
	}

	// Medium benchmark, roughly the size of a large game asset tree
	MediumBenchConfig = BenchmarkConfig{
		TotalFiles:    50000,
		LargeFiles:    500,
		LargeFileSize: 4 * 1024 * 1024, // 4MB
		SmallFileSize: 8 * 1024,        // 8KB
		FilesPerDir:   200,
		DuplicateMod:  25,
	}
)

// generateDeterministicData creates deterministic file content based on seed
func generateDeterministicData(size int64, seed int64) []byte {
	data := make([]byte, size)
	for i := int64(0); i < size; i++ {
		// Linear congruential generator
		seed = (seed*1103515245 + 12345) & 0x7fffffff
		data[i] = byte(seed >> 16)
	}
	return data
}

// createBenchmarkDataset writes the dataset and returns the file paths.
func createBenchmarkDataset(rootDir string, config BenchmarkConfig) ([]string, int64, error) {
	paths := make([]string, 0, config.TotalFiles)
	var totalSize int64
	largeInterval := config.TotalFiles / max(config.LargeFiles, 1)

	for i := 0; i < config.TotalFiles; i++ {
		dir := filepath.Join(rootDir, fmt.Sprintf("dir%04d", i/config.FilesPerDir))
		if i%config.FilesPerDir == 0 {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, 0, fmt.Errorf("failed to create dir %s: %w", dir, err)
			}
		}

		size := config.SmallFileSize
		seed := int64(i*12345 + 67890)
		switch {
		case config.LargeFiles > 0 && i%largeInterval == 0:
			size = config.LargeFileSize
			seed += 999999
		case config.DuplicateMod > 0 && i%config.DuplicateMod == 1:
			seed = 67890 // same content as every other duplicate
		}

		path := filepath.Join(dir, fmt.Sprintf("file_%06d.dat", i))
		if err := os.WriteFile(path, generateDeterministicData(size, seed), 0644); err != nil {
			return nil, 0, fmt.Errorf("failed to write file %s: %w", path, err)
		}
		paths = append(paths, path)
		totalSize += size
	}
	return paths, totalSize, nil
}

func BenchmarkHashSmall(b *testing.B) {
	benchmarkHash(b, SmallBenchConfig, "sha1")
}

func BenchmarkHashMedium(b *testing.B) {
	if testing.Short() {
		b.Skip("Skipping medium benchmark in short mode")
	}
	benchmarkHash(b, MediumBenchConfig, "sha1")
}

func BenchmarkHashAlgorithms(b *testing.B) {
	for _, name := range []string{"sha1", "sha256", "blake3", "xxh3"} {
		b.Run(name, func(b *testing.B) {
			benchmarkHash(b, SmallBenchConfig, name)
		})
	}
}

func benchmarkHash(b *testing.B, config BenchmarkConfig, algorithm string) {
	b.StopTimer()
	paths, totalSize, err := createBenchmarkDataset(b.TempDir(), config)
	if err != nil {
		b.Fatalf("Failed to create benchmark dataset: %v", err)
	}
	alg, err := GetHashAlgorithm(algorithm)
	if err != nil {
		b.Fatal(err)
	}
	h := NewHasher(Options{Workers: runtime.NumCPU(), Algorithm: alg})
	b.SetBytes(totalSize)
	b.StartTimer()

	for i := 0; i < b.N; i++ {
		idx, err := h.HashPaths(context.Background(), paths)
		if err != nil {
			b.Fatalf("HashPaths failed: %v", err)
		}
		if idx.Len() != config.TotalFiles {
			b.Fatalf("Expected %d files, got %d", config.TotalFiles, idx.Len())
		}
	}
}

func BenchmarkEncodeIndex(b *testing.B) {
	idx := NewIndex()
	for i := 0; i < 100000; i++ {
		idx.Put(HashOf(sha1Algorithm.Digest([]byte{byte(i % 251), byte(i % 241)})), fmt.Sprintf("dir%03d/file%06d", i%500, i))
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if err := EncodeIndex(io.Discard, idx, "sha1"); err != nil {
			b.Fatal(err)
		}
	}
}
