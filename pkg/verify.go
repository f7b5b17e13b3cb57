package masshash

import (
	"context"
	"fmt"
	"maps"
	"slices"
)

// VerifyAll verifies every identity and reports all failures at once. A
// HashOnly cannot be verified and counts as a failure. Nil identities are
// ignored.
func VerifyAll(ids ...Identity) error {
	var (
		errs    []error
		checked int
	)
	for _, id := range ids {
		if id == nil {
			continue
		}
		checked++
		if err := id.Verify(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return IntegrityErrorFrom(fmt.Sprintf("%d of %d identities failed verification", len(errs), checked), errs...)
}

// VerifyIndex compares a freshly built index against an expected one and
// returns a single IntegrityError listing every path whose hash changed,
// every expected path that is gone and every path that was not expected.
// Problems are ordered by path. It returns nil when both indexes agree.
func VerifyIndex(ctx context.Context, current, expected *Index) error {
	want := pathMap(expected)
	have := pathMap(current)

	paths := make([]string, 0, len(want)+len(have))
	for path := range want {
		paths = append(paths, path)
	}
	for path := range have {
		if _, ok := want[path]; !ok {
			paths = append(paths, path)
		}
	}
	slices.Sort(paths)

	var problems []Problem
	for i, path := range paths {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		wantHash, expectedOK := want[path]
		haveHash, currentOK := have[path]
		switch {
		case expectedOK && currentOK:
			if wantHash != haveHash {
				problems = append(problems, HashMismatch{Path: path, Expected: wantHash, Actual: haveHash})
			}
		case expectedOK:
			problems = append(problems, MissingFile{Path: path, Hash: wantHash})
		default:
			problems = append(problems, UnexpectedFile{Path: path, Hash: haveHash})
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return NewIntegrityError(fmt.Sprintf("index verification found %d problems", len(problems)), nil, problems...)
}

func pathMap(idx *Index) map[string]string {
	if idx == nil {
		return nil
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return maps.Clone(idx.byPath)
}
