package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/shiryo/internal/config"
	"github.com/hyperjump/shiryo/internal/ingest"
	"github.com/hyperjump/shiryo/internal/models"
	"github.com/hyperjump/shiryo/internal/storage"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

type ingestRequest struct {
	Paths []string `json:"paths"`
}

// outcomeResponse is the JSON form of an ingest.Outcome.
type outcomeResponse struct {
	Kind   ingest.Kind `json:"kind"`
	Source string      `json:"source,omitempty"`
	Error  string      `json:"error"`
}

type ingestResponse struct {
	*ingest.Report
	Failures []outcomeResponse `json:"failures"`
	Stored   []string          `json:"stored,omitempty"`
}

func newIngestResponse(r *ingest.Report) ingestResponse {
	out := ingestResponse{Report: r, Failures: make([]outcomeResponse, 0, len(r.Outcomes))}
	for _, o := range r.Outcomes {
		out.Failures = append(out.Failures, outcomeResponse{Kind: o.Kind, Source: o.Source, Error: fmt.Sprint(o.Err)})
	}
	return out
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Paths) == 0 {
		s.respondError(w, http.StatusBadRequest, "paths is required")
		return
	}
	s.logger.Debug("ingest request", zap.Strings("paths", req.Paths))
	report := s.handler.Ingest(r.Context(), req.Paths)
	s.respondJSON(w, http.StatusOK, newIngestResponse(report))
}

// handleUpload stores each multipart "file" part under the upload directory and ingests them
// as one run. Files keep their base name so the document id matches the uploaded name.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	limit := int64(s.cfg.Server.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()
	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		s.respondError(w, http.StatusBadRequest, "file is required")
		return
	}

	dir := filepath.Join(s.cfg.Storage.UploadDir, uuid.NewString())
	if err := os.MkdirAll(dir, 0755); err != nil {
		s.logger.Error("create upload dir failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "could not store upload")
		return
	}
	// A failed request leaves nothing behind in the upload directory.
	complete := false
	defer func() {
		if !complete {
			_ = os.RemoveAll(dir)
		}
	}()
	stored := make([]string, 0, len(headers))
	for _, fh := range headers {
		name := filepath.Base(fh.Filename)
		if name == "." || name == ".." || name == string(filepath.Separator) {
			s.respondError(w, http.StatusBadRequest, "invalid file name")
			return
		}
		dst := filepath.Join(dir, name)
		if err := saveUpload(fh, dst); err != nil {
			s.logger.Error("store upload failed", zap.String("file", name), zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, "could not store upload")
			return
		}
		stored = append(stored, dst)
	}
	complete = true

	s.logger.Debug("upload request", zap.Strings("stored", stored))
	resp := newIngestResponse(s.handler.Ingest(r.Context(), stored))
	resp.Stored = stored
	s.respondJSON(w, http.StatusCreated, resp)
}

func saveUpload(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (s *Server) collection(r *http.Request) string {
	if c := r.URL.Query().Get("collection"); c != "" {
		return c
	}
	return s.handler.Config().CollectionName
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", defaultPageSize)
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	docs, err := s.keywords.ListDocuments(r.Context(), s.collection(r), offset, limit)
	if err != nil {
		s.logger.Error("list documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if docs == nil {
		docs = []*models.DocumentSummary{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"documents": docs, "offset": offset, "limit": limit})
}

func (s *Server) handleDocumentChunks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rows, err := s.keywords.ChunksByDocument(r.Context(), s.collection(r), id)
	if err != nil {
		s.logger.Error("document chunks failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(rows) == 0 {
		s.respondError(w, http.StatusNotFound, "document not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"document_id": id, "chunks": rows})
}

func (s *Server) handleGetChunk(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	row, err := s.keywords.GetChunk(r.Context(), id)
	if errors.Is(err, storage.ErrChunkNotFound) {
		s.respondError(w, http.StatusNotFound, "chunk not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, row)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete document request", zap.String("id", id))
	res := s.handler.Delete(r.Context(), id)
	switch {
	case res.Success:
		s.respondJSON(w, http.StatusOK, res)
	case res.Kind == ingest.KindEmptyID:
		s.respondJSON(w, http.StatusBadRequest, res)
	case res.Kind == ingest.KindVectorStore:
		s.respondJSON(w, http.StatusBadGateway, res)
	default:
		s.respondJSON(w, http.StatusInternalServerError, res)
	}
}

// handleSearch returns the raw nearest chunks for a query, joined with their keyword rows.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.vectors == nil {
		s.respondError(w, http.StatusNotImplemented, "vector store not configured")
		return
	}
	q := models.SimilarityQuery{Query: r.URL.Query().Get("q"), Limit: queryInt(r, "limit", 0)}
	if err := q.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	start := time.Now()
	results, err := s.vectors.SimilaritySearch(r.Context(), q.Query, q.Limit)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	hits := make([]*models.SimilarityHit, 0, len(results))
	for i, res := range results {
		hit := &models.SimilarityHit{ChunkID: res.ID, Score: res.Score, Rank: i + 1}
		row, err := s.keywords.GetChunk(r.Context(), res.ID)
		switch {
		case err == nil:
			hit.Chunk = row
		case !errors.Is(err, storage.ErrChunkNotFound):
			s.logger.Warn("search: chunk lookup failed", zap.String("chunk_id", res.ID), zap.Error(err))
		}
		hits = append(hits, hit)
	}
	s.respondJSON(w, http.StatusOK, &models.SimilarityResponse{
		Query:     q.Query,
		Hits:      hits,
		Total:     len(hits),
		QueryTime: time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.keywords.Ping(r.Context()); err != nil {
		s.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := CollectStatus(r.Context(), s.keywords, s.vectors, s.cfg)
	if err != nil {
		s.logger.Error("status failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, st)
}

func (s *Server) handleWatchDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"directories": s.watch.Directories()})
}

type watchRequest struct {
	Path string `json:"path"`
	Sync *bool  `json:"sync,omitempty"`
}

func (s *Server) handleWatchDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	var req watchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	switch {
	case os.IsNotExist(err):
		s.respondError(w, http.StatusNotFound, "directory not found")
		return
	case err != nil:
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	case !info.IsDir():
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	syncExisting := req.Sync == nil || *req.Sync
	if err := s.watch.AddDirectory(abs, syncExisting); err != nil {
		s.logger.Error("watch add directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleWatchDirectoriesRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path query parameter is required")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	if err := s.watch.RemoveDirectory(abs); err != nil {
		s.logger.Error("watch remove directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

func (s *Server) persistWatchDirectories() {
	if s.configPath == "" {
		return
	}
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	s.cfg.Watch.Directories = s.watch.Directories()
	if err := config.Save(s.configPath, s.cfg); err != nil {
		s.logger.Warn("failed to persist watch config", zap.Error(err))
	}
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
