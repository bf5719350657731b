// Package commands contains the command implementations for the sha256sum
// application. Each command writes its output to the provided writer.
package commands

import (
	"context"
	"fmt"
	"io"

	apperrors "github.com/gingerrexayers/sha256-go/internal/sha256sum/errors"
	"github.com/gingerrexayers/sha256-go/internal/sha256sum/lib"
)

// Hash computes the digest of the file at path and prints it as
// "<hexdigest> <filename>".
func Hash(ctx context.Context, out io.Writer, path string, opts lib.HashOptions) error {
	res, err := lib.HashFile(ctx, path, opts)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(out, "%s %s\n", res.Hash, res.Path); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeIO, "write digest", err)
	}
	return nil
}
