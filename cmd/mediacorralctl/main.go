// Command mediacorralctl is the coordinator's CLI client: drive control,
// rip progress, export rebuilds, autorip toggling, and tagging go through
// internal/coordinatorhttp against a running cmd/mediacorrald. analyze-mkv,
// srt2json, and json2srt are fully offline and never dial the coordinator.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	ctx := &cliContext{}

	rootCmd := &cobra.Command{
		Use:           "mediacorralctl",
		Short:         "Mediacorral CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVar(&ctx.addr, "addr", "", "Coordinator address (default "+defaultCoordinatorAddress+")")

	rootCmd.AddCommand(
		newDrivesCommand(ctx),
		newStatusCommand(ctx),
		newEjectCommand(ctx),
		newRetractCommand(ctx),
		newRipCommand(ctx),
		newExportCommand(ctx),
		newAutoripCommand(ctx),
		newTagCommand(ctx),
		newAnalyzeMkvCommand(),
		newSrt2JSONCommand(),
		newJSON2SrtCommand(),
	)

	return rootCmd
}
