package masshash

import "context"

// HashFiles hashes paths with a one-off Hasher built from opts.
func HashFiles(ctx context.Context, paths []string, opts Options) (*Index, error) {
	return NewHasher(opts).HashPaths(ctx, paths)
}

// FindDuplicates hashes paths and returns only the duplicate groups.
func FindDuplicates(ctx context.Context, paths []string, opts Options) ([]DuplicateGroup, error) {
	idx, err := HashFiles(ctx, paths, opts)
	if err != nil {
		return nil, err
	}
	return idx.Duplicates(), nil
}

// MaxSizeFilter returns a filter accepting files no larger than maxSize
// bytes. A non-positive maxSize accepts everything. Files that cannot be
// stat'ed are passed through so the hasher reports them.
func MaxSizeFilter(maxSize int64) func(path string) bool {
	if maxSize <= 0 {
		return func(string) bool { return true }
	}
	return func(path string) bool {
		size, ok := fileSize(path)
		return !ok || size <= maxSize
	}
}

// AllFilters combines filters; a path must pass every non-nil one.
func AllFilters(filters ...func(path string) bool) func(path string) bool {
	return func(path string) bool {
		for _, f := range filters {
			if f != nil && !f(path) {
				return false
			}
		}
		return true
	}
}
