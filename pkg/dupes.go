package masshash

// DuplicateGroup represents a group of files with the same hash
type DuplicateGroup struct {
	Hash  string   `json:"hash" yaml:"hash"`
	Files []string `json:"files" yaml:"files"`
	Count int      `json:"count" yaml:"count"`
}

// Duplicates returns the groups of two or more paths sharing a hash, in
// hash order with each group's files in path order.
func (idx *Index) Duplicates() []DuplicateGroup {
	var result []DuplicateGroup
	idx.ForEach(func(hash string, paths []string) bool {
		if len(paths) > 1 {
			result = append(result, DuplicateGroup{
				Hash:  hash,
				Files: paths,
				Count: len(paths),
			})
		}
		return true
	})
	return result
}

// Groups returns every hash with its files, duplicated or not.
func (idx *Index) Groups() []DuplicateGroup {
	result := make([]DuplicateGroup, 0, idx.HashCount())
	idx.ForEach(func(hash string, paths []string) bool {
		result = append(result, DuplicateGroup{
			Hash:  hash,
			Files: paths,
			Count: len(paths),
		})
		return true
	})
	return result
}

// WastedBytes sums, for each duplicate group, the size of every copy beyond
// the first, using size to look up file sizes. Paths size cannot resolve
// are skipped.
func WastedBytes(groups []DuplicateGroup, size func(path string) (int64, bool)) int64 {
	var total int64
	for _, group := range groups {
		if len(group.Files) < 2 {
			continue
		}
		for _, path := range group.Files[1:] {
			if n, ok := size(path); ok {
				total += n
			}
		}
	}
	return total
}
