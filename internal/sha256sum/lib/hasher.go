// Package lib contains the file and stream plumbing that feeds the digest
// engine for the sha256sum application.
package lib

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"

	"github.com/gingerrexayers/sha256-go/internal/sha256sum/digest"
	apperrors "github.com/gingerrexayers/sha256-go/internal/sha256sum/errors"
	"github.com/gingerrexayers/sha256-go/internal/sha256sum/types"
)

// DefaultBufferSize is the read size used when none is configured. It matches
// one digest block, although the engine accepts chunks of any size.
const DefaultBufferSize = digest.BlockSize

// MaxBufferSize bounds the read buffer allocated per hash.
const MaxBufferSize = 64 << 20

// HashOptions configures how input is read into the digest engine. The zero
// value reads DefaultBufferSize bytes at a time with no throttling.
type HashOptions struct {
	BufferSize     int      // bytes per read (default DefaultBufferSize)
	BytesPerSecond int      // 0 = no throttle
	Metrics        *Metrics // optional
}

func (o HashOptions) bufferSize() int {
	switch {
	case o.BufferSize <= 0:
		return DefaultBufferSize
	case o.BufferSize > MaxBufferSize:
		return MaxBufferSize
	}
	return o.BufferSize
}

// GetHash calculates the SHA-256 hash of an in-memory byte slice and returns
// it as a lowercase hex-encoded string.
func GetHash(content []byte) string {
	return digest.Sum(content).String()
}

// GetFileHash calculates the SHA-256 hash of a file's contents by streaming it
// from disk with default options.
func GetFileHash(filePath string) (string, error) {
	res, err := HashFile(context.Background(), filePath, HashOptions{})
	if err != nil {
		return "", err
	}
	return res.Hash, nil
}

// HashFile opens the file at path and streams it through the digest engine.
func HashFile(ctx context.Context, path string, opts HashOptions) (types.Result, error) {
	file, info, err := openInput(path)
	if err != nil {
		return types.Result{}, err
	}
	defer file.Close()

	slog.Debug("hashing file", "path", path, "size", humanize.Bytes(uint64(info.Size())))

	start := time.Now()
	sum, n, err := HashReader(ctx, file, opts)
	if err != nil {
		return types.Result{}, err
	}
	elapsed := time.Since(start)
	opts.Metrics.ObserveHash(n, elapsed)

	slog.Debug("hashed file",
		"path", path,
		"bytes", humanize.Bytes(uint64(n)),
		"elapsed", elapsed,
	)

	return types.Result{Path: path, Hash: sum.String(), Size: n}, nil
}

// HashReader reads r to EOF in chunks of opts.BufferSize, absorbing each chunk
// into a fresh digest state, and returns the digest with the number of bytes
// read. Cancellation of ctx is honored between chunks.
func HashReader(ctx context.Context, r io.Reader, opts HashOptions) (digest.Digest, int64, error) {
	state := digest.New()
	buf := make([]byte, opts.bufferSize())
	src := newThrottledReader(ctx, r, opts.BytesPerSecond)

	var total int64
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if uerr := state.Update(buf[:n]); uerr != nil {
				return digest.Digest{}, total, apperrors.Wrap(apperrors.ErrCodeInternal, "absorb input", uerr)
			}
			total += int64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return digest.Digest{}, total, classifyReadErr(err)
		}
	}

	sum, err := state.Finalize()
	if err != nil {
		return digest.Digest{}, total, apperrors.Wrap(apperrors.ErrCodeInternal, "finalize digest", err)
	}
	return sum, total, nil
}

// classifyReadErr turns a failure seen while streaming input into an IO error,
// keeping interruptions distinguishable in the message.
func classifyReadErr(err error) error {
	var se *apperrors.StructuredError
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.ErrCodeIO, "hashing interrupted", err)
	}
	return apperrors.Wrap(apperrors.ErrCodeIO, "read failed", err)
}

// throttledReader checks ctx before every read and, when a limiter is set,
// waits until the bytes just read fit the configured throughput.
type throttledReader struct {
	ctx     context.Context
	r       io.Reader
	limiter *rate.Limiter
}

func newThrottledReader(ctx context.Context, r io.Reader, bytesPerSecond int) *throttledReader {
	t := &throttledReader{ctx: ctx, r: r}
	if bytesPerSecond > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(bytesPerSecond), bytesPerSecond)
	}
	return t
}

func (t *throttledReader) Read(p []byte) (int, error) {
	if err := t.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := t.r.Read(p)
	if n > 0 && t.limiter != nil {
		// WaitN rejects requests larger than the burst, so wait in burst-sized steps.
		for rem := n; rem > 0; {
			step := min(rem, t.limiter.Burst())
			if werr := t.limiter.WaitN(t.ctx, step); werr != nil {
				return n, fmt.Errorf("throttle: %w", werr)
			}
			rem -= step
		}
	}
	return n, err
}
