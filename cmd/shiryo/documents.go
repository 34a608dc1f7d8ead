package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hyperjump/shiryo/internal/cli"
	"github.com/hyperjump/shiryo/internal/storage"
)

var (
	docsOffset     int
	docsLimit      int
	docsCollection string
)

var documentsCmd = &cobra.Command{
	Use:   "documents [document-id]",
	Short: "List ingested documents, or the chunks of one document",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDocuments,
}

func init() {
	documentsCmd.Flags().IntVar(&docsOffset, "offset", 0, "number of documents to skip")
	documentsCmd.Flags().IntVar(&docsLimit, "limit", 50, "maximum number of documents")
	documentsCmd.Flags().StringVar(&docsCollection, "collection", "", "collection name (default from config)")
	rootCmd.AddCommand(documentsCmd)
}

func runDocuments(cmd *cobra.Command, args []string) error {
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
	keywords, err := storage.Open(ctx, cfg.Storage.Driver, cfg.Storage.DataSource(), storage.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to open keyword table: %w", err)
	}
	defer keywords.Close()

	collection := docsCollection
	if collection == "" {
		collection = cfg.Ingestion.CollectionName
	}
	if len(args) == 1 {
		rows, err := keywords.ChunksByDocument(ctx, collection, args[0])
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("no chunks found for document ID '%s'", args[0])
		}
		return cli.WriteChunks(os.Stdout, rows, out)
	}
	docs, err := keywords.ListDocuments(ctx, collection, docsOffset, docsLimit)
	if err != nil {
		return err
	}
	return cli.WriteDocuments(os.Stdout, docs, out)
}
