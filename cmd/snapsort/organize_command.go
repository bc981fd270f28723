package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"snapsort/internal/logging"
	"snapsort/internal/report"
	"snapsort/internal/runner"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var (
		outputFlag       string
		dryRun           bool
		removeDuplicates bool
		includeBrand     bool
		workers          int
	)

	cmd := &cobra.Command{
		Use:   "organize <source>",
		Short: "Move files under <source> into <output>/yyyy/mm with sequential names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}

			opts := runner.Options{
				Source:           args[0],
				Output:           outputFlag,
				DryRun:           dryRun,
				RemoveDuplicates: removeDuplicates || cfg.Dedup.RemoveDuplicates,
				IncludeBrand:     includeBrand || cfg.Organize.IncludeBrand,
				Workers:          workers,
			}

			summary, runErr := runner.New(cfg, logger).Run(cmd.Context(), opts)
			if runErr != nil {
				return runErr
			}

			pretty := isatty.IsTerminal(os.Stdout.Fd())
			fmt.Fprintln(cmd.OutOrStdout(), report.Render(summary, pretty))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Destination root (default <source>/organized)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report intended actions without touching the filesystem")
	cmd.Flags().BoolVar(&removeDuplicates, "remove-duplicates", false, "Delete content-duplicate files within each year/month directory afterwards")
	cmd.Flags().BoolVar(&includeBrand, "include-brand", false, "Prefix filenames with the camera brand from EXIF data")
	cmd.Flags().IntVar(&workers, "workers", 0, "Worker goroutines for analysis and hashing (default from config)")

	return cmd
}
