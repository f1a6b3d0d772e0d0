package sharefile

import (
	"bytes"
	"crypto/md5" //nolint:gosec // matches the upload hash
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func md5Hex(b []byte) string {
	sum := md5.Sum(b) //nolint:gosec // matches the upload hash

	return hex.EncodeToString(sum[:])
}

func TestPlanChunks_Halves(t *testing.T) {
	tests := []struct {
		size  int64
		first int64
	}{
		{0, 0},
		{1, 0},
		{2, 1},
		{11, 5},
		{1000, 500},
	}

	for _, tt := range tests {
		parts := PlanChunks(tt.size, 0)
		require.Len(t, parts, 2)

		assert.Equal(t, ChunkPart{Index: 0, Offset: 0, Length: tt.first}, parts[0])
		assert.Equal(t, ChunkPart{Index: 1, Offset: tt.first, Length: tt.size - tt.first}, parts[1])
	}
}

func TestPlanChunks_FixedSize(t *testing.T) {
	parts := PlanChunks(10, 4)
	require.Len(t, parts, 3)

	assert.Equal(t, []ChunkPart{
		{Index: 0, Offset: 0, Length: 4},
		{Index: 1, Offset: 4, Length: 4},
		{Index: 2, Offset: 8, Length: 2},
	}, parts)

	assert.Len(t, PlanChunks(8, 4), 2)
	assert.Equal(t, []ChunkPart{{Index: 0}}, PlanChunks(0, 4))
}

func TestPlanChunks_CoversContent(t *testing.T) {
	content := []byte("the quick brown fox jumps over the lazy dog")

	for _, chunk := range []int64{0, 1, 5, 7, 43, 100} {
		parts := PlanChunks(int64(len(content)), chunk)
		require.NoError(t, HashParts(bytes.NewReader(content), parts))

		var joined []byte
		for _, p := range parts {
			piece := content[p.Offset : p.Offset+p.Length]
			assert.Equal(t, md5Hex(piece), p.Hash)

			joined = append(joined, piece...)
		}

		assert.Equal(t, content, joined, "chunk size %d", chunk)
	}
}

func TestHashRange_ShortRead(t *testing.T) {
	_, err := HashRange(bytes.NewReader([]byte("abc")), 1, 10)
	require.Error(t, err)
}
