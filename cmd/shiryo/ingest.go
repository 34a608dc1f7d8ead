package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hyperjump/shiryo/internal/cli"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file-or-directory|s3://bucket/key>...",
	Short: "Load, chunk and store documents",
	Long: `Ingest loads every input, splits it into chunks and writes the chunks to the vector
index and the keyword table. Directories are walked for files with the configured watch
extensions. Failures for individual files are reported and do not stop the run.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	out, err := format()
	if err != nil {
		return err
	}
	cfg, _, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	paths, err := cli.ExpandInputs(args, cfg.Watch.Extensions)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no matching files in %v", args)
	}

	ctx := cmd.Context()
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	report := components.Handler.Ingest(ctx, paths)
	if err := cli.WriteReport(os.Stdout, report, out); err != nil {
		return err
	}
	if n := len(report.Outcomes); n > 0 {
		return fmt.Errorf("%d failure(s) during ingestion", n)
	}
	return nil
}
