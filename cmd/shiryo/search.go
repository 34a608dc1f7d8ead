package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperjump/shiryo/internal/cli"
	"github.com/hyperjump/shiryo/internal/models"
	"github.com/hyperjump/shiryo/internal/storage"
)

var (
	searchLimit     int
	searchServerURL string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "Return the nearest chunks from the vector index",
	Long: `Search embeds the query and returns the closest chunks with their keyword-table rows.
Results are raw similarity hits; there is no reranking.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of hits (1-100)")
	searchCmd.Flags().StringVar(&searchServerURL, "server", "", "query a running server instead of the local stores")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	out, err := format()
	if err != nil {
		return err
	}
	q := models.SimilarityQuery{Query: strings.Join(args, " "), Limit: searchLimit}
	if err := q.Validate(); err != nil {
		return err
	}
	ctx := cmd.Context()

	var resp *models.SimilarityResponse
	if searchServerURL != "" {
		resp = &models.SimilarityResponse{}
		u := fmt.Sprintf("%s/api/v1/search?q=%s&limit=%d", searchServerURL, url.QueryEscape(q.Query), q.Limit)
		if err := getJSON(ctx, u, resp); err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		return cli.WriteSearch(os.Stdout, resp, out)
	}

	cfg, _, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	start := time.Now()
	results, err := components.Vectors.SimilaritySearch(ctx, q.Query, q.Limit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	resp = &models.SimilarityResponse{Query: q.Query, Hits: make([]*models.SimilarityHit, 0, len(results))}
	for i, r := range results {
		hit := &models.SimilarityHit{ChunkID: r.ID, Score: r.Score, Rank: i + 1}
		row, err := components.Keywords.GetChunk(ctx, r.ID)
		switch {
		case err == nil:
			hit.Chunk = row
		case !errors.Is(err, storage.ErrChunkNotFound):
			return err
		}
		resp.Hits = append(resp.Hits, hit)
	}
	resp.Total = len(resp.Hits)
	resp.QueryTime = time.Since(start).Milliseconds()
	return cli.WriteSearch(os.Stdout, resp, out)
}
