package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	apperrors "github.com/gingerrexayers/sha256-go/internal/sha256sum/errors"
	"github.com/gingerrexayers/sha256-go/internal/sha256sum/lib"
	"github.com/gingerrexayers/sha256-go/internal/sha256sum/types"
)

// Output formats accepted by Chunks.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ValidFormat reports whether format is one Chunks can print.
func ValidFormat(format string) bool {
	switch format {
	case FormatText, FormatJSON, FormatYAML:
		return true
	}
	return false
}

// Chunks builds the content manifest of the file at path and prints it in the
// requested format. The text format lists "<hex> <offset> <size>" for every
// chunk and ends with the usual "<hexdigest> <filename>" line.
func Chunks(ctx context.Context, out io.Writer, path string, opts lib.HashOptions, format string) error {
	if !ValidFormat(format) {
		return apperrors.New(apperrors.ErrCodeUsage,
			fmt.Sprintf("unknown output format %q (want text, json or yaml)", format))
	}

	manifest, err := lib.ChunkFile(ctx, path, opts)
	if err != nil {
		return err
	}

	if err := writeManifest(out, manifest, format); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeIO, "write manifest", err)
	}
	return nil
}

func writeManifest(out io.Writer, m types.Manifest, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	case FormatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return err
		}
		return enc.Close()
	default:
		for _, c := range m.Chunks {
			if _, err := fmt.Fprintf(out, "%s %d %d\n", c.Hash, c.Offset, c.Size); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(out, "%s %s\n", m.Hash, m.Path)
		return err
	}
}
