package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/hyperjump/shiryo/internal/models"
)

// SQLStore implements ChunkStore on SQLite or PostgreSQL.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	logger  *zap.Logger
}

// Option configures an SQLStore.
type Option func(*SQLStore)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *SQLStore) {
		s.logger = l
	}
}

// Open connects to the keyword table database and creates the schema if needed.
// For SQLite, dsn is a file path and parent directories are created.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*SQLStore, error) {
	d, err := newDialect(driver)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &SQLStore{db: db, dialect: d, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	if driver == DriverSQLite {
		// One writer at a time; WAL lets readers proceed.
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL: %w", err)
		}
	}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	s.logger.Debug("keyword table ready", zap.String("driver", driver))
	return s, nil
}

func (s *SQLStore) initSchema(ctx context.Context) error {
	for _, stmt := range s.dialect.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// UpsertChunks writes rows in a single transaction. Any failure rolls back the whole batch.
func (s *SQLStore) UpsertChunks(ctx context.Context, rows []*models.ChunkRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.dialect.rebind(upsertChunkSQL))
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		meta := "{}"
		if row.Metadata != nil {
			if meta, err = row.Metadata.Encode(); err != nil {
				return fmt.Errorf("chunk %s: %w", row.ChunkID, err)
			}
		}
		if _, err := stmt.ExecContext(ctx,
			row.CollectionName, row.DocumentID, row.ChunkID, row.Content, row.TokenizedContent, meta,
		); err != nil {
			return fmt.Errorf("upsert chunk %s: %w", row.ChunkID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

// DeleteDocument selects the document's chunk ids, deletes the rows, runs beforeCommit and
// commits. If beforeCommit fails the rows are kept.
func (s *SQLStore) DeleteDocument(ctx context.Context, collection, documentID string, beforeCommit BeforeCommit) (*DeleteOutcome, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, s.dialect.rebind(
		`SELECT chunk_id FROM document_chunks WHERE document_id = ? AND collection_name = ? ORDER BY chunk_id`),
		documentID, collection)
	if err != nil {
		return nil, fmt.Errorf("select chunk ids: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan chunk id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("select chunk ids: %w", err)
	}
	rows.Close()

	out := &DeleteOutcome{ChunkIDs: ids}
	if len(ids) == 0 {
		return out, nil
	}

	res, err := tx.ExecContext(ctx, s.dialect.rebind(
		`DELETE FROM document_chunks WHERE document_id = ? AND collection_name = ?`),
		documentID, collection)
	if err != nil {
		return nil, fmt.Errorf("delete chunks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}

	if beforeCommit != nil {
		if err := beforeCommit(ctx, ids); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete: %w", err)
	}
	out.Deleted = n
	return out, nil
}

const selectRowSQL = `SELECT chunk_id, document_id, collection_name, content, tokenized_content, metadata, created_at
	FROM document_chunks`

// GetChunk returns a row by chunk id.
func (s *SQLStore) GetChunk(ctx context.Context, chunkID string) (*models.ChunkRow, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.rebind(selectRowSQL+` WHERE chunk_id = ?`), chunkID)
	r, err := scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrChunkNotFound, chunkID)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ChunksByDocument returns a document's rows ordered by chunk id.
func (s *SQLStore) ChunksByDocument(ctx context.Context, collection, documentID string) ([]*models.ChunkRow, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(selectRowSQL+
		` WHERE document_id = ? AND collection_name = ? ORDER BY chunk_id`), documentID, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.ChunkRow
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListDocuments returns one summary per document id in a collection.
func (s *SQLStore) ListDocuments(ctx context.Context, collection string, offset, limit int) ([]*models.DocumentSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(
		`SELECT document_id, COUNT(*),
			SUM(CASE WHEN metadata LIKE '%"is_parent":true%' THEN 1 ELSE 0 END),
			MAX(created_at)
		FROM document_chunks WHERE collection_name = ?
		GROUP BY document_id ORDER BY document_id LIMIT ? OFFSET ?`),
		collection, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.DocumentSummary
	for rows.Next() {
		d := &models.DocumentSummary{CollectionName: collection}
		var last any
		if err := rows.Scan(&d.DocumentID, &d.Chunks, &d.Parents, &last); err != nil {
			return nil, err
		}
		d.LastIngestedAt = toTime(last)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// CountChunks returns the number of rows in a collection, or in all collections when empty.
func (s *SQLStore) CountChunks(ctx context.Context, collection string) (int64, error) {
	var count int64
	var err error
	if collection == "" {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM document_chunks`).Scan(&count)
	} else {
		err = s.db.QueryRowContext(ctx, s.dialect.rebind(
			`SELECT COUNT(*) FROM document_chunks WHERE collection_name = ?`), collection).Scan(&count)
	}
	return count, err
}

// Ping checks the connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(sc scanner) (*models.ChunkRow, error) {
	var r models.ChunkRow
	var meta string
	var created any
	if err := sc.Scan(&r.ChunkID, &r.DocumentID, &r.CollectionName, &r.Content, &r.TokenizedContent, &meta, &created); err != nil {
		return nil, err
	}
	m, err := models.DecodeMetadata(meta)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", r.ChunkID, err)
	}
	r.Metadata = m
	r.CreatedAt = toTime(created)
	return &r, nil
}

// sqliteTimeLayouts are the forms SQLite returns for CURRENT_TIMESTAMP in aggregates.
var sqliteTimeLayouts = []string{"2006-01-02 15:04:05", time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00"}

func toTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		return parseTime(t)
	case []byte:
		return parseTime(string(t))
	}
	return time.Time{}
}

func parseTime(s string) time.Time {
	for _, layout := range sqliteTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
