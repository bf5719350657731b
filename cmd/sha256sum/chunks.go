package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gingerrexayers/sha256-go/internal/sha256sum/commands"
)

// NewChunksCommand creates the 'chunks' command, which prints a content-defined
// chunk manifest for one file.
func NewChunksCommand(opts *rootOptions) *cobra.Command {
	var file string
	var format string

	cmd := &cobra.Command{
		Use:   "chunks -f <file>",
		Short: "Print the digest of every content-defined chunk of a file.",
		Long: `Splits a file into variable-sized chunks using Rabin fingerprinting
(4KB min, 8KB average, 16KB max) and prints the SHA-256 digest, offset and
size of each chunk, followed by the digest of the whole file.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return usageError(cmd, "chunks requires --file")
			}
			if !commands.ValidFormat(format) {
				return usageError(cmd, fmt.Sprintf("unknown output format %q (want text, json or yaml)", format))
			}
			return commands.Chunks(cmd.Context(), cmd.OutOrStdout(), file, opts.hash, format)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "File of data to split and hash")
	cmd.Flags().StringVarP(&format, "output", "o", commands.FormatText, "output format (text, json, yaml)")
	_ = cmd.RegisterFlagCompletionFunc("output", cobra.FixedCompletions(
		[]string{commands.FormatText, commands.FormatJSON, commands.FormatYAML},
		cobra.ShellCompDirectiveNoFileComp,
	))

	return cmd
}
