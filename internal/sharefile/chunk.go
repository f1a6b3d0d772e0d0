package sharefile

import (
	"crypto/md5" //nolint:gosec // ShareFile verifies uploads with MD5
	"encoding/hex"
	"fmt"
	"io"
)

// ChunkPart is one byte range of a threaded upload. Hash is the lowercase
// MD5 hex of exactly the bytes in [Offset, Offset+Length).
type ChunkPart struct {
	Index  int
	Offset int64
	Length int64
	Hash   string
}

// PlanChunks splits size bytes into contiguous parts. A chunkSize <= 0
// yields two halves, [0, size/2) and [size/2, size). Otherwise every part
// is chunkSize long except possibly the last; an empty file yields a single
// empty part so the server still receives one chunk.
func PlanChunks(size, chunkSize int64) []ChunkPart {
	if chunkSize <= 0 {
		half := size / 2

		return []ChunkPart{
			{Index: 0, Offset: 0, Length: half},
			{Index: 1, Offset: half, Length: size - half},
		}
	}

	if size == 0 {
		return []ChunkPart{{Index: 0}}
	}

	n := (size + chunkSize - 1) / chunkSize
	parts := make([]ChunkPart, 0, n)

	for i, off := 0, int64(0); off < size; i, off = i+1, off+chunkSize {
		parts = append(parts, ChunkPart{
			Index:  i,
			Offset: off,
			Length: min(chunkSize, size-off),
		})
	}

	return parts
}

// HashRange returns the MD5 hex of n bytes of r starting at off.
func HashRange(r io.ReaderAt, off, n int64) (string, error) {
	h := md5.New() //nolint:gosec // ShareFile verifies uploads with MD5

	copied, err := io.Copy(h, io.NewSectionReader(r, off, n))
	if err != nil {
		return "", fmt.Errorf("sharefile: hashing range at %d: %w", off, err)
	}

	if copied != n {
		return "", fmt.Errorf("sharefile: hashing range at %d: read %d of %d bytes: %w", off, copied, n, io.ErrUnexpectedEOF)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashParts fills in the Hash of every part.
func HashParts(r io.ReaderAt, parts []ChunkPart) error {
	for i := range parts {
		sum, err := HashRange(r, parts[i].Offset, parts[i].Length)
		if err != nil {
			return err
		}

		parts[i].Hash = sum
	}

	return nil
}
