package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Harshitk-cp/companion/internal/domain"
	"github.com/Harshitk-cp/companion/internal/service"
)

const (
	defaultSearchTopK = 3
	maxSearchTopK     = 50
)

type MemoryHandler struct {
	store *service.VectorStore
}

func NewMemoryHandler(vs *service.VectorStore) *MemoryHandler {
	return &MemoryHandler{store: vs}
}

type createMemoryRequest struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type searchMemoriesResponse struct {
	Memories []domain.MemoryWithScore `json:"memories"`
}

// Create stores a memory directly. Near-duplicates overwrite the existing record.
func (h *MemoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	if _, ok := metadata["source"]; !ok {
		metadata["source"] = "api"
	}

	mem, err := h.store.Upsert(r.Context(), req.Text, metadata)
	if err != nil {
		writeServiceError(w, err, "failed to store memory")
		return
	}
	writeJSON(w, http.StatusCreated, mem)
}

func (h *MemoryHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	topK := defaultSearchTopK
	if v := q.Get("top_k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxSearchTopK {
			writeError(w, http.StatusBadRequest, "top_k must be between 1 and 50")
			return
		}
		topK = n
	}

	results, err := h.store.Search(r.Context(), q.Get("q"), topK)
	if err != nil {
		writeServiceError(w, err, "failed to search memories")
		return
	}
	writeJSON(w, http.StatusOK, searchMemoriesResponse{Memories: results})
}
