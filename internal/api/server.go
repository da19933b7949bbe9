package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"docrag/internal/domain"
	"docrag/internal/port"
	"docrag/internal/usecase"
)

// Server exposes the pipeline's entry points over HTTP for the chat layer
// and the CLI client commands: index, search, context, status, clear.
type Server struct {
	indexer  *usecase.Indexer
	searcher *usecase.Searcher
	store    port.VectorStore
}

func NewServer(indexer *usecase.Indexer, searcher *usecase.Searcher, store port.VectorStore) *Server {
	return &Server{
		indexer:  indexer,
		searcher: searcher,
		store:    store,
	}
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/index", s.handleIndex)
	mux.HandleFunc("/search", s.handleSearch)
	mux.HandleFunc("/context", s.handleContext)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/clear", s.handleClear)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type indexRequest struct {
	WorkspacePath string `json:"workspace_path"`
}

type indexResponse struct {
	Success       bool     `json:"success"`
	ChunksIndexed int      `json:"chunks_indexed"`
	FilesIndexed  int      `json:"files_indexed"`
	FilesSkipped  int      `json:"files_skipped"`
	Warnings      []string `json:"warnings,omitempty"`
	Error         string   `json:"error,omitempty"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req indexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.WorkspacePath == "" {
		writeJSON(w, http.StatusBadRequest, indexResponse{Error: "workspace_path is required"})
		return
	}

	summary, err := s.indexer.Index(req.WorkspacePath, func(p domain.Progress) {
		log.Printf("indexing %s: %s %d/%d %s", req.WorkspacePath, p.Phase, p.Current, p.Total, p.FileName)
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, usecase.ErrIndexingInProgress) {
			status = http.StatusConflict
		}
		writeJSON(w, status, indexResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, indexResponse{
		Success:       true,
		ChunksIndexed: summary.ChunksIndexed,
		FilesIndexed:  summary.FilesIndexed,
		FilesSkipped:  summary.FilesSkipped,
		Warnings:      summary.Errors,
	})
}

type searchChunk struct {
	Content     string  `json:"content"`
	FileName    string  `json:"file_name"`
	FilePath    string  `json:"file_path"`
	Score       float64 `json:"score"`
	ChunkIndex  int     `json:"chunk_index"`
	TotalChunks int     `json:"total_chunks"`
	PageNumber  int     `json:"page_number,omitempty"`
}

type searchResponse struct {
	Chunks []searchChunk `json:"chunks"`
	Error  string        `json:"error,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, searchResponse{Error: "q is required"})
		return
	}
	topK, _ := strconv.Atoi(r.URL.Query().Get("k"))

	results, err := s.searcher.Search(query, topK)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, searchResponse{Error: err.Error()})
		return
	}

	chunks := make([]searchChunk, 0, len(results))
	for _, res := range results {
		chunks = append(chunks, searchChunk{
			Content:     res.Chunk.Content,
			FileName:    res.Chunk.FileName,
			FilePath:    res.Chunk.FilePath,
			Score:       res.Score,
			ChunkIndex:  res.Chunk.ChunkIndex,
			TotalChunks: res.Chunk.TotalChunks,
			PageNumber:  res.Chunk.PageNumber,
		})
	}

	writeJSON(w, http.StatusOK, searchResponse{Chunks: chunks})
}

type contextResponse struct {
	Text    string            `json:"text"`
	Sources []domain.Citation `json:"sources"`
	Error   string            `json:"error,omitempty"`
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, contextResponse{Error: "q is required"})
		return
	}

	ctx, err := s.searcher.BuildContext(query)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, contextResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, contextResponse{Text: ctx.Text, Sources: ctx.Sources})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := domain.StoreStatus{
		IsIndexing: s.indexer.IsIndexing(),
		ChunkCount: s.store.Count(),
	}
	if snap := s.store.Snapshot(); snap != nil {
		status.Workspace = snap.WorkspacePath
		status.LastUpdated = snap.LastUpdated
	}

	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.store.Clear()
	w.WriteHeader(http.StatusNoContent)
}
