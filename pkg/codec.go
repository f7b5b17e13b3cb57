package masshash

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// snapshotVersion is bumped when the encoded layout changes.
const snapshotVersion = 1

// encMode uses Core Deterministic Encoding (RFC 8949 §4.2) so the same
// index always encodes to the same bytes.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("masshash: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("masshash: CBOR decoder initialization failed: " + err.Error())
	}
}

// snapshot is the encoded form of an index.
type snapshot struct {
	Version   int     `cbor:"1,keyasint"`
	Algorithm string  `cbor:"2,keyasint"`
	Entries   []Entry `cbor:"3,keyasint"`
}

// EncodeIndex writes idx as deterministic CBOR. algorithm names the digest
// the hashes were produced with.
func EncodeIndex(w io.Writer, idx *Index, algorithm string) error {
	data, err := encMode.Marshal(snapshot{
		Version:   snapshotVersion,
		Algorithm: algorithm,
		Entries:   idx.Entries(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	return nil
}

// DecodeIndex reads an index written by EncodeIndex and returns it with the
// algorithm name it was recorded with.
func DecodeIndex(r io.Reader) (*Index, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read index: %w", err)
	}
	var snap snapshot
	if err := decMode.Unmarshal(data, &snap); err != nil {
		return nil, "", fmt.Errorf("failed to decode index: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, "", fmt.Errorf("unsupported index version %d", snap.Version)
	}

	entries := make([]indexEntry, len(snap.Entries))
	for i, e := range snap.Entries {
		entries[i] = indexEntry{Hash: e.Hash, Path: e.Path}
	}
	entries = sortEntries(entries)

	idx := NewIndex()
	for _, e := range entries {
		if err := idx.Put(HashOf(e.Hash), e.Path); err != nil {
			return nil, "", fmt.Errorf("corrupt index: %w", err)
		}
	}
	return idx, snap.Algorithm, nil
}

// SaveSnapshot writes idx to path. A ".zst" suffix compresses with zstd,
// ".lz4" with LZ4; anything else is written as plain CBOR.
func SaveSnapshot(path string, idx *Index, algorithm string) (err error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create snapshot %s: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("failed to close snapshot %s: %w", path, closeErr)
		}
	}()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst":
		enc, err := zstd.NewWriter(file)
		if err != nil {
			return fmt.Errorf("failed to create zstd writer: %w", err)
		}
		if err := EncodeIndex(enc, idx, algorithm); err != nil {
			enc.Close()
			return err
		}
		return enc.Close()
	case ".lz4":
		enc := lz4.NewWriter(file)
		if err := EncodeIndex(enc, idx, algorithm); err != nil {
			enc.Close()
			return err
		}
		return enc.Close()
	default:
		return EncodeIndex(file, idx, algorithm)
	}
}

// OpenSnapshot reads a snapshot written by SaveSnapshot.
func OpenSnapshot(path string) (*Index, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open snapshot %s: %w", path, err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst":
		dec, err := zstd.NewReader(file)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create zstd reader: %w", err)
		}
		defer dec.Close()
		return DecodeIndex(dec)
	case ".lz4":
		return DecodeIndex(lz4.NewReader(file))
	default:
		return DecodeIndex(file)
	}
}
