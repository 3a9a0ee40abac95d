package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/krau/tagpipe/runner"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var folders []string
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Tag every image of the configured folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			selected := cfg.Folders
			if len(folders) > 0 {
				selected = folders
			}
			if len(selected) == 0 {
				return fmt.Errorf("no folders to tag; set folders in the config or pass --folder")
			}
			for _, f := range folders {
				if !slices.Contains(cfg.Folders, f) {
					ctx.logger.Warn("Folder not listed in config", slog.String("folder", f))
				}
			}

			p, err := ctx.loadPipeline()
			if err != nil {
				return err
			}
			pool, release, err := ctx.openModel(cfg, p, cfg.Batch.Workers)
			if err != nil {
				return err
			}
			defer release()

			var progress io.Writer
			if !noProgress && isatty.IsTerminal(os.Stderr.Fd()) {
				progress = os.Stderr
			}
			r := runner.New(pool, p, runner.Options{
				BaseDir:    cfg.Paths.BaseDir,
				Folders:    selected,
				OutputPath: cfg.OutputPath,
				BatchSize:  cfg.Batch.Size,
				Workers:    cfg.Batch.Workers,
				Progress:   progress,
			}, ctx.logger)

			stats, err := r.Run(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), renderRunStats(stats))
			return err
		},
	}
	cmd.Flags().StringSliceVarP(&folders, "folder", "f", nil, "Folder to tag (repeatable, defaults to the configured folders)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable progress bars")
	return cmd
}
