package lib

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/gingerrexayers/sha256-go/internal/sha256sum/errors"
)

func referenceHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestChunkFile(t *testing.T) {
	t.Run("Chunk a normal-sized file", func(t *testing.T) {
		// avgChunkSize is 8KB, so 64KB should produce several chunks.
		content := make([]byte, 64*1024)
		_, err := rand.Read(content)
		require.NoError(t, err)
		filePath := setupTestFile(t, content)

		manifest, err := ChunkFile(context.Background(), filePath, HashOptions{})
		require.NoError(t, err)

		assert.Greater(t, len(manifest.Chunks), 1, "expected file to be split into multiple chunks")
		assert.EqualValues(t, len(content), manifest.TotalSize)
		assert.Equal(t, referenceHex(content), manifest.Hash)

		// Chunks are contiguous, cover the file and carry the digest of their bytes.
		var offset int64
		var reconstructed []byte
		for _, chunk := range manifest.Chunks {
			assert.Equal(t, offset, chunk.Offset)
			assert.LessOrEqual(t, chunk.Size, int64(maxChunkSize))
			data := content[chunk.Offset : chunk.Offset+chunk.Size]
			assert.Equal(t, referenceHex(data), chunk.Hash)
			reconstructed = append(reconstructed, data...)
			offset += chunk.Size
		}
		assert.True(t, bytes.Equal(content, reconstructed), "chunks do not re-form the file content")
	})

	t.Run("Chunk a small file (less than min chunk size)", func(t *testing.T) {
		content := []byte("this file is too small to be split.")
		filePath := setupTestFile(t, content)

		manifest, err := ChunkFile(context.Background(), filePath, HashOptions{})
		require.NoError(t, err)

		require.Len(t, manifest.Chunks, 1)
		assert.EqualValues(t, len(content), manifest.Chunks[0].Size)
		assert.Equal(t, manifest.Hash, manifest.Chunks[0].Hash)
		assert.Equal(t, referenceHex(content), manifest.Hash)
	})

	t.Run("Chunk an empty file", func(t *testing.T) {
		filePath := setupTestFile(t, []byte{})

		manifest, err := ChunkFile(context.Background(), filePath, HashOptions{})
		require.NoError(t, err)

		assert.Empty(t, manifest.Chunks)
		assert.NotNil(t, manifest.Chunks)
		assert.Zero(t, manifest.TotalSize)
		assert.Equal(t, referenceHex(nil), manifest.Hash)
	})

	t.Run("Manifest hash matches the plain file hash", func(t *testing.T) {
		content := make([]byte, 40*1024+17)
		_, err := rand.Read(content)
		require.NoError(t, err)
		filePath := setupTestFile(t, content)

		manifest, err := ChunkFile(context.Background(), filePath, HashOptions{})
		require.NoError(t, err)
		plain, err := GetFileHash(filePath)
		require.NoError(t, err)
		assert.Equal(t, plain, manifest.Hash)
	})

	t.Run("Attempt to chunk a non-existent file", func(t *testing.T) {
		nonExistentPath := filepath.Join(t.TempDir(), "this_file_does_not_exist.txt")

		_, err := ChunkFile(context.Background(), nonExistentPath, HashOptions{})

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeFileOpen, apperrors.CodeOf(err))
	})

	t.Run("Metrics count chunks and bytes", func(t *testing.T) {
		content := make([]byte, 32*1024)
		_, err := rand.Read(content)
		require.NoError(t, err)
		filePath := setupTestFile(t, content)
		metrics := NewMetrics()

		manifest, err := ChunkFile(context.Background(), filePath, HashOptions{Metrics: metrics})
		require.NoError(t, err)

		assert.Equal(t, float64(len(manifest.Chunks)), counterValue(t, metrics.chunks))
		assert.Equal(t, float64(len(content)), counterValue(t, metrics.bytesHashed))
	})
}
