package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hyperjump/shiryo/internal/cli"
	"github.com/hyperjump/shiryo/internal/server"
)

var statusServerURL string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show chunk and vector counts",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusServerURL, "server", "", "query a running server instead of the local stores")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	out, err := format()
	if err != nil {
		return err
	}
	var st *server.Status
	if statusServerURL != "" {
		st = &server.Status{}
		if err := getJSON(cmd.Context(), statusServerURL+"/api/v1/status", st); err != nil {
			return fmt.Errorf("status failed: %w", err)
		}
	} else {
		cfg, _, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()
		components, err := initializeComponents(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer components.Close()
		if st, err = server.CollectStatus(cmd.Context(), components.Keywords, components.Vectors, cfg); err != nil {
			return err
		}
	}

	if out == cli.OutputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	fmt.Printf("collection:         %s\n", st.Collection)
	fmt.Printf("chunks:             %d   # rows in this collection\n", st.Chunks)
	fmt.Printf("all_chunks:         %d   # rows in every collection\n", st.AllChunks)
	fmt.Printf("vector_index_size:  %d   # vectors in the index\n", st.VectorIndexSize)
	if st.DiskUsageBytes != nil {
		fmt.Printf("disk_usage_bytes:   %d\n", *st.DiskUsageBytes)
	}
	if c := st.Config; c != nil {
		fmt.Println()
		fmt.Println("# configuration")
		fmt.Printf("storage_driver:     %s\n", c.StorageDriver)
		if c.DatabasePath != "" {
			fmt.Printf("database_path:      %s\n", c.DatabasePath)
		}
		fmt.Printf("vector_index_type:  %s\n", c.VectorIndexType)
		if c.VectorIndexPath != "" {
			fmt.Printf("vector_index_path:  %s\n", c.VectorIndexPath)
		}
		fmt.Printf("embedding:          %s (%d dims)\n", c.EmbeddingProvider, c.EmbeddingDimensions)
		fmt.Printf("splitter:           %s\n", c.Splitter)
		fmt.Printf("chunk_size:         %d\n", c.ChunkSize)
		fmt.Printf("chunk_overlap:      %d\n", c.ChunkOverlap)
		fmt.Printf("parent_child:       %t\n", c.ParentChild)
		fmt.Printf("japanese_search:    %t\n", c.JapaneseSearch)
	}
	return nil
}
