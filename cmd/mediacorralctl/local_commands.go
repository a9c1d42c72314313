package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mediacorral/internal/mkv"
	"mediacorral/internal/srt"
)

// newAnalyzeMkvCommand wraps internal/mkv.Analyze for standalone inspection
// of a container file, without talking to the coordinator at all.
func newAnalyzeMkvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze-mkv <file>",
		Short: "Analyze an MKV container and print its media details as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			details, err := mkv.Analyze(f, mkv.Options{})
			if err != nil {
				return fmt.Errorf("analyze %s: %w", args[0], err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(details)
		},
	}
}

// newSrt2JSONCommand reads an SRT file (or stdin if "-") and prints its
// parsed cues as a JSON array.
func newSrt2JSONCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "srt2json <file|->",
		Short: "Convert an SRT subtitle file to JSON cues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readFileOrStdin(cmd, args[0])
			if err != nil {
				return err
			}
			cues, err := srt.Parse(text)
			if err != nil {
				return fmt.Errorf("parse srt: %w", err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cues)
		},
	}
}

// newJSON2SrtCommand reads a JSON array of cues (file or stdin if "-") and
// prints the re-encoded SRT text. --duration sets the container duration
// used to cap the final cue when it has no explicit end timestamp.
func newJSON2SrtCommand() *cobra.Command {
	var durationMS int64
	cmd := &cobra.Command{
		Use:   "json2srt <file|->",
		Short: "Convert JSON cues back to SRT text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readFileOrStdin(cmd, args[0])
			if err != nil {
				return err
			}
			var cues []srt.Cue
			if err := json.Unmarshal([]byte(text), &cues); err != nil {
				return fmt.Errorf("parse cues: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), srt.Encode(cues, time.Duration(durationMS)*time.Millisecond))
			return nil
		},
	}
	cmd.Flags().Int64Var(&durationMS, "duration", 0, "container duration in milliseconds")
	return cmd
}

func readFileOrStdin(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
