package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"mediacorral/internal/contract"
	"mediacorral/internal/drive"
)

func newDrivesCommand(ctx *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "drives",
		Short: "List the drives known to the coordinator",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := ctx.client()
			drives, err := client.ListDrives(cmd.Context())
			if err != nil {
				return err
			}
			if len(drives) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No drives registered")
				return nil
			}
			sort.Slice(drives, func(i, j int) bool { return drives[i].ID < drives[j].ID })

			colorize := shouldColorize(cmd.OutOrStdout())
			rows := make([][]string, 0, len(drives))
			for _, d := range drives {
				state, err := client.GetDriveState(cmd.Context(), d.ID)
				status := "unknown"
				if err == nil {
					status = state.Status.String()
				}
				rows = append(rows, []string{d.ID, d.Name, d.Path, renderStatusLine("", driveStatusKind(status), status, colorize)})
			}
			table := renderTable([]string{"ID", "Name", "Path", "Status"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft})
			fmt.Fprint(cmd.OutOrStdout(), table)
			return nil
		},
	}
}

func newStatusCommand(ctx *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <driveID>",
		Short: "Show one drive's current state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := ctx.client()
			state, err := client.GetDriveState(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printDriveState(cmd, state)
		},
	}
}

func printDriveState(cmd *cobra.Command, state drive.DriveState) error {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader("Drive "+state.DriveID, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Hardware", driveStatusKind(state.Status.String()), state.Status.String(), colorize))
	fmt.Fprintf(out, "  %-20s %s\n", "Last poll:", state.LastPollAt.Format(time.RFC3339))

	switch state.ActiveCommand.Kind {
	case drive.ActiveRipping:
		p := state.ActiveCommand.Ripping
		fmt.Fprintln(out, renderStatusLine("Active", statusInfo, fmt.Sprintf("ripping job #%d", p.JobID), colorize))
		fmt.Fprintf(out, "  %-20s %s (%d/%d)\n", "Title:", p.CurrentTitle, p.TotalTitle+1, p.MaxValue)
		fmt.Fprintf(out, "  %-20s %d/%d\n", "Progress:", p.CurrentValue, p.TotalValue)
	case drive.ActiveError:
		fmt.Fprintln(out, renderStatusLine("Active", statusError, state.ActiveCommand.ErrorMessage, colorize))
	default:
		fmt.Fprintln(out, renderStatusLine("Active", statusInfo, "idle", colorize))
	}
	return nil
}

func newEjectCommand(ctx *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "eject <driveID>",
		Short: "Open a drive's tray",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.client().Eject(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ejected %s\n", args[0])
			return nil
		},
	}
}

func newRetractCommand(ctx *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retract <driveID>",
		Short: "Close a drive's tray",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.client().Retract(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Retracted %s\n", args[0])
			return nil
		},
	}
}

func newRipCommand(ctx *cliContext) *cobra.Command {
	var discName string
	var autoeject bool
	cmd := &cobra.Command{
		Use:   "rip <driveID>",
		Short: "Start ripping a loaded disc and follow its progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := ctx.client()
			jobID, err := client.StartRip(cmd.Context(), args[0], contract.RipMediaRequest{
				DiscName:  discName,
				Autoeject: autoeject,
			})
			if err != nil {
				return fmt.Errorf("start rip: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Started job #%d\n", jobID)

			updates, err := client.StreamRipUpdates(cmd.Context(), jobID)
			if err != nil {
				return fmt.Errorf("stream updates: %w", err)
			}

			bar := ripProgressBar(cmd.OutOrStdout(), "Ripping...")
			for update := range updates {
				if update.Err != "" {
					fmt.Fprintln(cmd.OutOrStdout())
					return fmt.Errorf("rip failed: %s", update.Err)
				}
				if update.Progress.MaxValue > 0 {
					bar.ChangeMax(update.Progress.MaxValue)
				}
				_ = bar.Set(update.Progress.CurrentValue)
				if update.Done {
					break
				}
			}
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintf(cmd.OutOrStdout(), "Job #%d finished\n", jobID)
			return nil
		},
	}
	cmd.Flags().StringVar(&discName, "disc-name", "", "disc label to record for this rip job")
	cmd.Flags().BoolVar(&autoeject, "autoeject", false, "eject the tray once the rip finishes")
	return cmd
}

func ripProgressBar(out io.Writer, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "#",
			SaucerPadding: "-",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func newExportCommand(ctx *cliContext) *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Manage export trees",
	}
	exportCmd.AddCommand(&cobra.Command{
		Use:   "rebuild <name>",
		Short: "Rebuild one configured export tree from scratch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.client().RebuildExportsDir(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rebuilt export tree %q\n", args[0])
			return nil
		},
	})
	return exportCmd
}

func newAutoripCommand(ctx *cliContext) *cobra.Command {
	autoripCmd := &cobra.Command{
		Use:   "autorip",
		Short: "Inspect or change whether inserting a disc starts a rip automatically",
	}
	autoripCmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show whether autorip is enabled",
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled, err := ctx.client().GetAutorip(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), yesNo(enabled))
			return nil
		},
	})
	autoripCmd.AddCommand(&cobra.Command{
		Use:   "set <true|false>",
		Short: "Enable or disable autorip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled, err := strconv.ParseBool(args[0])
			if err != nil {
				return fmt.Errorf("invalid value %q (want true or false)", args[0])
			}
			if err := ctx.client().SetAutorip(cmd.Context(), enabled); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Autorip %s\n", yesNo(enabled))
			return nil
		},
	})
	return autoripCmd
}

func newTagCommand(ctx *cliContext) *cobra.Command {
	var videoType int
	cmd := &cobra.Command{
		Use:   "tag <fileID> <matchID>",
		Short: "Finalize a video file's catalog identity from a chosen match",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid file id %q", args[0])
			}
			matchID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid match id %q", args[1])
			}
			req := contract.TagFileRequest{FileID: fileID, VideoType: idxVideoType(videoType), MatchID: matchID}
			if err := ctx.client().TagFile(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tagged file #%d\n", fileID)
			return nil
		},
	}
	cmd.Flags().IntVar(&videoType, "type", 1, "video type: 1=movie, 2=special feature, 3=tv episode")
	return cmd
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
