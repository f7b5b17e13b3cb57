package masshash

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNilData is returned when a Blob is constructed from a nil slice.
	ErrNilData = errors.New("blob data cannot be nil")

	// ErrDataUnavailable is returned when data is requested from an
	// identity whose data has been dropped.
	ErrDataUnavailable = errors.New("blob data unavailable: data was dropped")

	// ErrAlreadyDropped is returned when DropData is called on an
	// identity that no longer holds data.
	ErrAlreadyDropped = errors.New("blob data already dropped")
)

// Identity is the content identity of a piece of data: its hex digest and,
// while it is still held, the data itself. Identities compare and order by
// hash alone, so a Blob and the HashOnly it was reduced to are
// interchangeable as index keys.
//
// The two implementations are *Blob (data present) and HashOnly (data
// dropped).
type Identity interface {
	// Hash returns the lowercase hex digest.
	Hash() string
	// Data returns the content, or ErrDataUnavailable once dropped.
	Data() ([]byte, error)
	// Verify recomputes the digest of the held data.
	Verify() error
	// DropData returns the data-less form of this identity.
	DropData() (HashOnly, error)
	// HasData reports whether the identity still holds its content.
	HasData() bool
}

// Equal reports whether two identities have the same hash.
func Equal(a, b Identity) bool {
	return a.Hash() == b.Hash()
}

// Compare orders identities by hash string.
func Compare(a, b Identity) int {
	return strings.Compare(a.Hash(), b.Hash())
}

// Blob is an identity that still holds the bytes it was computed from.
// Blobs are created per file by the hasher and reduced to HashOnly once
// the per-file callback has run.
type Blob struct {
	data      []byte
	hash      string
	algorithm *HashAlgorithm
}

// NewBlob hashes data with the default algorithm.
func NewBlob(data []byte) (*Blob, error) {
	return sha1Algorithm.NewBlob(data)
}

// NewVerifiedBlob hashes data with the default algorithm and checks the
// result against expectedHash.
func NewVerifiedBlob(data []byte, expectedHash string) (*Blob, error) {
	return sha1Algorithm.NewVerifiedBlob(data, expectedHash)
}

// BlobFromFile reads and hashes a file with the default algorithm.
func BlobFromFile(filePath string) (*Blob, error) {
	return sha1Algorithm.BlobFromFile(filePath)
}

// VerifiedBlobFromFile reads and hashes a file with the default algorithm
// and checks the result against expectedHash.
func VerifiedBlobFromFile(filePath, expectedHash string) (*Blob, error) {
	return sha1Algorithm.VerifiedBlobFromFile(filePath, expectedHash)
}

// NewBlob hashes a copy of data. It fails only when data is nil.
func (a *HashAlgorithm) NewBlob(data []byte) (*Blob, error) {
	if data == nil {
		return nil, ErrNilData
	}
	return a.blobOwning(bytes.Clone(data)), nil
}

// NewVerifiedBlob hashes a copy of data and returns an *IntegrityError
// carrying a HashMismatch when the digest differs from expectedHash.
func (a *HashAlgorithm) NewVerifiedBlob(data []byte, expectedHash string) (*Blob, error) {
	blob, err := a.NewBlob(data)
	if err != nil {
		return nil, err
	}
	if err := blob.expect(expectedHash); err != nil {
		return nil, err
	}
	return blob, nil
}

// BlobFromFile reads the whole file and hashes it.
func (a *HashAlgorithm) BlobFromFile(filePath string) (*Blob, error) {
	data, err := readFile(filePath)
	if err != nil {
		return nil, err
	}
	return a.blobOwning(data), nil
}

// VerifiedBlobFromFile reads the whole file, hashes it and checks the
// digest against expectedHash.
func (a *HashAlgorithm) VerifiedBlobFromFile(filePath, expectedHash string) (*Blob, error) {
	blob, err := a.BlobFromFile(filePath)
	if err != nil {
		return nil, err
	}
	if err := blob.expect(expectedHash); err != nil {
		return nil, fmt.Errorf("verifying %s: %w", filePath, err)
	}
	return blob, nil
}

// blobOwning takes ownership of data without copying it.
func (a *HashAlgorithm) blobOwning(data []byte) *Blob {
	return &Blob{data: data, hash: a.Digest(data), algorithm: a}
}

func (b *Blob) expect(expectedHash string) error {
	if b.hash != expectedHash {
		return NewIntegrityError("", nil, HashMismatch{Expected: expectedHash, Actual: b.hash})
	}
	return nil
}

// Hash returns the lowercase hex digest.
func (b *Blob) Hash() string {
	return b.hash
}

// Algorithm returns the algorithm the digest was computed with.
func (b *Blob) Algorithm() *HashAlgorithm {
	return b.algorithm
}

// Bytes returns the held content. The slice is shared with the Blob and
// must not be modified.
func (b *Blob) Bytes() []byte {
	return b.data
}

// Data returns the held content; for a Blob it never fails.
func (b *Blob) Data() ([]byte, error) {
	return b.data, nil
}

// HasData always reports true for a Blob.
func (b *Blob) HasData() bool {
	return true
}

// Verify recomputes the digest and returns an *IntegrityError naming both
// hashes when it no longer matches.
func (b *Blob) Verify() error {
	actual := b.algorithm.Digest(b.data)
	if actual != b.hash {
		return NewIntegrityError(
			fmt.Sprintf("Expected hash %s but got %s", b.hash, actual),
			nil,
			HashMismatch{Expected: b.hash, Actual: actual},
		)
	}
	return nil
}

// DropData returns a HashOnly sharing this Blob's hash. The Blob itself
// keeps its data for as long as it is referenced.
func (b *Blob) DropData() (HashOnly, error) {
	return HashOnly{hash: b.hash}, nil
}

// String returns the hash.
func (b *Blob) String() string {
	return b.hash
}

// HashOnly is an identity with no data: the result of dropping a Blob's
// data, or a hash read from elsewhere.
type HashOnly struct {
	hash string
}

// HashOf wraps a hash string as an identity.
func HashOf(hash string) HashOnly {
	return HashOnly{hash: hash}
}

// Hash returns the lowercase hex digest.
func (h HashOnly) Hash() string {
	return h.hash
}

// Data always fails with ErrDataUnavailable.
func (h HashOnly) Data() ([]byte, error) {
	return nil, ErrDataUnavailable
}

// HasData always reports false.
func (h HashOnly) HasData() bool {
	return false
}

// Verify always fails with ErrDataUnavailable: there is nothing to
// recompute the digest from.
func (h HashOnly) Verify() error {
	return ErrDataUnavailable
}

// DropData always fails with ErrAlreadyDropped.
func (h HashOnly) DropData() (HashOnly, error) {
	return HashOnly{}, ErrAlreadyDropped
}

// String returns the hash.
func (h HashOnly) String() string {
	return h.hash
}
