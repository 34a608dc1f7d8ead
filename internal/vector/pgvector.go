package vector

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgvector/pgvector-go"
)

var tableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PGVectorIndex stores vectors in a PostgreSQL table with a pgvector column and searches by
// cosine distance.
type PGVectorIndex struct {
	db         *sql.DB
	table      string
	dimensions int
}

// NewPGVectorIndex connects to dsn and creates the extension and table when missing.
func NewPGVectorIndex(ctx context.Context, dsn, table string, dimensions int) (*PGVectorIndex, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pgvector index needs a DSN")
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	if table == "" {
		table = "chunk_embeddings"
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	idx := &PGVectorIndex{db: db, table: table, dimensions: dimensions}
	for _, stmt := range idx.schema() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init pgvector schema: %w", err)
		}
	}
	return idx, nil
}

func (p *PGVectorIndex) schema() []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			embedding vector(%d) NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, p.table, p.dimensions),
	}
}

// Add upserts vectors in one transaction.
func (p *PGVectorIndex) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch")
	}
	if len(ids) == 0 {
		return nil
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, embedding, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET embedding = EXCLUDED.embedding, updated_at = now()`, p.table))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, id := range ids {
		if len(vectors[i]) != p.dimensions {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(vectors[i]), p.dimensions)
		}
		if _, err := stmt.ExecContext(ctx, id, pgvector.NewVector(vectors[i])); err != nil {
			return fmt.Errorf("upsert vector %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// Search returns the k nearest ids with score 1 - cosine distance.
func (p *PGVectorIndex) Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error) {
	if len(query) != p.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), p.dimensions)
	}
	if k <= 0 {
		return nil, nil
	}
	rows, err := p.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, 1 - (embedding <=> $1) AS score FROM %s
		ORDER BY embedding <=> $1 LIMIT $2`, p.table), pgvector.NewVector(query), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*VectorResult
	for rows.Next() {
		r := &VectorResult{}
		if err := rows.Scan(&r.ID, &r.Score); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Remove deletes vectors by id.
func (p *PGVectorIndex) Remove(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := p.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, p.table), ids)
	return err
}

// Save is a no-op; PostgreSQL persists writes.
func (p *PGVectorIndex) Save(string) error { return nil }

// Load is a no-op; PostgreSQL persists writes.
func (p *PGVectorIndex) Load(string) error { return nil }

// Size returns the number of stored vectors, or 0 if the count fails.
func (p *PGVectorIndex) Size() int {
	var n int
	if err := p.db.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %s`, p.table)).Scan(&n); err != nil {
		return 0
	}
	return n
}

func (p *PGVectorIndex) Close() error {
	return p.db.Close()
}
