// Package masshash hashes large batches of files in parallel and groups the
// paths by content, producing a deterministic hash to paths index.
//
// # Core API
//
// The main entry point is Hasher, configured through Options:
//
//	h := masshash.NewHasher(masshash.Options{Workers: 8})
//	idx, err := h.HashPaths(ctx, paths)
//	if err != nil {
//		return err
//	}
//	for _, group := range idx.Duplicates() {
//		fmt.Printf("Hash %s: %v\n", group.Hash, group.Files)
//	}
//
// A batch either succeeds completely or fails with the first worker error;
// a partial index is never returned.
//
// # Content identities
//
// Blob holds data together with its digest and HashOnly holds the digest
// alone. Both implement Identity and compare by hash only:
//
//	blob, err := masshash.NewVerifiedBlob(data, "a94a8fe5ccb19ba61c4c0873d391e987982fbbd3")
//
// # Integrity errors
//
// IntegrityError aggregates many Problems, such as the HashMismatch,
// MissingFile and UnexpectedFile reports of VerifyIndex, into one error
// whose message lists at most MaxRenderedProblems of them.
//
// # Snapshots
//
// EncodeIndex and DecodeIndex store an index as deterministic CBOR.
// SaveSnapshot and OpenSnapshot add zstd or LZ4 compression chosen by file
// suffix.
package masshash
