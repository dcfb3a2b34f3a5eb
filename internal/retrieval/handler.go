package retrieval

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/saulo-duarte/docquiz/internal/auth"
	"github.com/saulo-duarte/docquiz/internal/config"
	"github.com/saulo-duarte/docquiz/internal/document"
)

type SearchRequestDTO struct {
	Query               string   `json:"query"`
	SimilarityThreshold *float64 `json:"similarity_threshold,omitempty"`
	TopK                *int     `json:"top_k,omitempty"`
}

type SearchResultDTO struct {
	ChunkID uuid.UUID `json:"chunk_id"`
	Ordinal int       `json:"ordinal"`
	Content string    `json:"content"`
	Score   float64   `json:"score"`
}

type Handler struct {
	service   Service
	documents document.Service

	defaultThreshold float64
	defaultTopK      int
}

func NewHandler(service Service, documents document.Service, defaultThreshold float64, defaultTopK int) *Handler {
	return &Handler{
		service:          service,
		documents:        documents,
		defaultThreshold: defaultThreshold,
		defaultTopK:      defaultTopK,
	}
}

// Search handles POST /documents/{id}/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid document id", http.StatusBadRequest)
		return
	}

	var dto SearchRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if dto.Query == "" {
		http.Error(w, "query required", http.StatusBadRequest)
		return
	}

	doc, err := h.documents.Get(r.Context(), id, userID)
	if err != nil {
		switch {
		case errors.Is(err, document.ErrDocumentNotFound):
			http.Error(w, "document not found", http.StatusNotFound)
		case errors.Is(err, document.ErrUnauthorized):
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		default:
			log.WithError(err).Error("Failed to load document for search")
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}
	if !doc.Processed {
		http.Error(w, "document has not been processed", http.StatusConflict)
		return
	}

	threshold := h.defaultThreshold
	if dto.SimilarityThreshold != nil {
		threshold = *dto.SimilarityThreshold
	}
	topK := h.defaultTopK
	if dto.TopK != nil {
		topK = *dto.TopK
	}

	results, err := h.service.Search(r.Context(), id, dto.Query, threshold, topK)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidThreshold), errors.Is(err, ErrInvalidTopK):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			log.WithError(err).Error("Chunk search failed")
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	out := make([]SearchResultDTO, 0, len(results))
	for _, res := range results {
		out = append(out, SearchResultDTO{
			ChunkID: res.Chunk.ID,
			Ordinal: res.Chunk.Ordinal,
			Content: res.Chunk.Content,
			Score:   res.Score,
		})
	}
	config.JSON(w, http.StatusOK, out)
}
