package lib

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/aclements/go-rabin/rabin"
	"golang.org/x/sync/errgroup"

	"github.com/gingerrexayers/sha256-go/internal/sha256sum/digest"
	apperrors "github.com/gingerrexayers/sha256-go/internal/sha256sum/errors"
	"github.com/gingerrexayers/sha256-go/internal/sha256sum/types"
)

// Constants for the Rabin chunker configuration.
const (
	// These values determine the target chunk sizes.
	minChunkSize = 4 * 1024  // 4KB
	avgChunkSize = 8 * 1024  // 8KB
	maxChunkSize = 16 * 1024 // 16KB

	// A 64-bit irreducible polynomial over GF(2).
	defaultPoly = rabin.Poly64
	// The size of the rolling hash window.
	defaultWindowSize = 64
)

// rabinTable is computed once; building it is expensive.
var rabinTable = rabin.NewTable(defaultPoly, defaultWindowSize)

// ChunkFile builds a content manifest for the file at path: the whole-file
// digest plus the digest of every content-defined chunk.
//
// The file is read sequentially once. The bytes flow through the whole-file
// digest state on their way into the Rabin chunker, which only reports chunk
// lengths. Chunk digests are then computed from the file with one digest state
// per chunk, in parallel, so no chunk data is held in memory.
func ChunkFile(ctx context.Context, path string, opts HashOptions) (types.Manifest, error) {
	file, _, err := openInput(path)
	if err != nil {
		return types.Manifest{}, err
	}
	defer file.Close()

	start := time.Now()
	whole := digest.New()
	tee := io.TeeReader(newThrottledReader(ctx, file, opts.BytesPerSecond), whole)
	chunker := rabin.NewChunker(rabinTable, tee, minChunkSize, avgChunkSize, maxChunkSize)

	var chunks []types.ChunkRef
	var offset int64
	for {
		length, err := chunker.Next()
		if err != nil && err != io.EOF {
			return types.Manifest{}, classifyReadErr(err)
		}
		if length > 0 {
			chunks = append(chunks, types.ChunkRef{Offset: offset, Size: int64(length)})
			offset += int64(length)
		}
		if err == io.EOF {
			break
		}
	}

	// Whatever the chunker left unread still belongs to the file, and whatever
	// it read without reporting becomes one trailing chunk.
	if _, err := io.Copy(io.Discard, tee); err != nil {
		return types.Manifest{}, classifyReadErr(err)
	}
	total := int64(whole.Len())
	if offset < total {
		chunks = append(chunks, types.ChunkRef{Offset: offset, Size: total - offset})
	}

	sum, err := whole.Finalize()
	if err != nil {
		return types.Manifest{}, apperrors.Wrap(apperrors.ErrCodeInternal, "finalize digest", err)
	}
	opts.Metrics.ObserveHash(total, time.Since(start))

	if err := hashChunks(ctx, file, chunks); err != nil {
		return types.Manifest{}, err
	}
	opts.Metrics.ObserveChunks(len(chunks))

	slog.Debug("built manifest", "path", path, "chunks", len(chunks), "size", total)

	if chunks == nil {
		chunks = []types.ChunkRef{}
	}
	return types.Manifest{
		Path:      path,
		Hash:      sum.String(),
		TotalSize: total,
		Chunks:    chunks,
	}, nil
}

// hashChunks fills in the Hash of every chunk, reading each one through its
// own section of r.
func hashChunks(ctx context.Context, r io.ReaderAt, chunks []types.ChunkRef) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return classifyReadErr(err)
			}
			c := &chunks[i]
			state := digest.New()
			n, err := io.Copy(state, io.NewSectionReader(r, c.Offset, c.Size))
			if err != nil {
				return classifyReadErr(err)
			}
			if n != c.Size {
				return apperrors.New(apperrors.ErrCodeIO,
					fmt.Sprintf("chunk at offset %d: read %d of %d bytes", c.Offset, n, c.Size))
			}
			sum, err := state.Finalize()
			if err != nil {
				return apperrors.Wrap(apperrors.ErrCodeInternal, "finalize chunk digest", err)
			}
			c.Hash = sum.String()
			return nil
		})
	}

	return g.Wait()
}
