package masshash

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/zeebo/blake3"
	"github.com/zeebo/xxh3"
)

// HashAlgorithm represents a hash algorithm configuration
type HashAlgorithm struct {
	Name    string
	Size    int
	NewFunc func() hash.Hash
}

var (
	sha1Algorithm = &HashAlgorithm{
		Name:    "sha1",
		Size:    HashSizeSHA1,
		NewFunc: func() hash.Hash { return sha1.New() },
	}
	sha256Algorithm = &HashAlgorithm{
		Name:    "sha256",
		Size:    HashSizeSHA256,
		NewFunc: func() hash.Hash { return sha256.New() },
	}
	sha512Algorithm = &HashAlgorithm{
		Name:    "sha512",
		Size:    HashSizeSHA512,
		NewFunc: func() hash.Hash { return sha512.New() },
	}
	blake3Algorithm = &HashAlgorithm{
		Name:    "blake3",
		Size:    HashSizeBLAKE3,
		NewFunc: func() hash.Hash { return blake3.New() },
	}
	xxh3Algorithm = &HashAlgorithm{
		Name:    "xxh3",
		Size:    HashSizeXXH3,
		NewFunc: func() hash.Hash { return xxh3.New() },
	}
)

// DefaultAlgorithm returns the SHA-1 configuration used by the package-level
// Blob constructors and by a Hasher with no algorithm set.
func DefaultAlgorithm() *HashAlgorithm {
	return sha1Algorithm
}

// GetHashAlgorithm returns the hash algorithm configuration for the given name
func GetHashAlgorithm(name string) (*HashAlgorithm, error) {
	switch strings.ToLower(name) {
	case "sha1":
		return sha1Algorithm, nil
	case "sha256":
		return sha256Algorithm, nil
	case "sha512":
		return sha512Algorithm, nil
	case "blake3":
		return blake3Algorithm, nil
	case "xxh3":
		return xxh3Algorithm, nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %s", name)
	}
}

// Digest returns the lowercase hex digest of data. It is the only hashing
// primitive the identity and pipeline code depend on.
func (a *HashAlgorithm) Digest(data []byte) string {
	hasher := a.NewFunc()
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil))
}

// HexLen is the length of a digest rendered by Digest.
func (a *HashAlgorithm) HexLen() int {
	return a.Size * 2
}

// ValidHex reports whether s looks like a digest produced by this algorithm.
func (a *HashAlgorithm) ValidHex(s string) bool {
	if len(s) != a.HexLen() {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
