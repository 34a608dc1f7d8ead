package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hyperjump/shiryo/internal/cli"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <document-id>...",
	Short: "Delete every chunk of a document from both stores",
	Long: `Delete removes all chunks of a document id (the base name of the ingested file) from the
keyword table and the vector index. The keyword rows are only removed when the vector
delete succeeds.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	out, err := format()
	if err != nil {
		return err
	}
	cfg, _, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	failed := 0
	for _, id := range args {
		res := components.Handler.Delete(ctx, id)
		if err := cli.WriteDeleteResult(os.Stdout, res, out); err != nil {
			return err
		}
		if !res.Success {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d deletion(s) failed", failed, len(args))
	}
	return nil
}
