package document

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/saulo-duarte/docquiz/internal/auth"
	"github.com/saulo-duarte/docquiz/internal/config"
	"github.com/saulo-duarte/docquiz/internal/parser"
)

const maxUploadBytes = 32 << 20 // 32 MiB

type Handler struct {
	service  Service
	pipeline *Pipeline
}

func NewHandler(service Service, pipeline *Pipeline) *Handler {
	return &Handler{service: service, pipeline: pipeline}
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		log.WithError(err).Warn("Invalid multipart upload")
		http.Error(w, "invalid multipart body", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	switch contentType {
	case parser.ContentTypePDF, parser.ContentTypeDOCX, parser.ContentTypeText:
	default:
		http.Error(w, "unsupported content type", http.StatusUnsupportedMediaType)
		return
	}

	doc, err := h.service.Upload(r.Context(), userID, header.Filename, contentType, header.Size, file)
	if err != nil {
		log.WithError(err).Error("Failed to upload document")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	config.JSON(w, http.StatusCreated, doc)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	docs, err := h.service.List(r.Context(), userID)
	if err != nil {
		log.WithError(err).Error("Failed to list documents")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	config.JSON(w, http.StatusOK, docs)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
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

	doc, err := h.service.Get(r.Context(), id, userID)
	if err != nil {
		writeServiceError(w, log, err, "Failed to get document")
		return
	}

	config.JSON(w, http.StatusOK, doc)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.service.Delete(r.Context(), id, userID); err != nil {
		writeServiceError(w, log, err, "Failed to delete document")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
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

	// Ownership check before kicking off the pipeline.
	if _, err := h.service.Get(r.Context(), id, userID); err != nil {
		writeServiceError(w, log, err, "Failed to load document for processing")
		return
	}

	chunks, err := h.pipeline.Process(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrProcessingInProgress):
			http.Error(w, "document is already being processed", http.StatusConflict)
		case errors.Is(err, parser.ErrUnsupportedFormat):
			http.Error(w, "unsupported document format", http.StatusUnsupportedMediaType)
		default:
			log.WithError(err).Error("Document processing failed")
			http.Error(w, "processing failed", http.StatusInternalServerError)
		}
		return
	}

	config.JSON(w, http.StatusOK, ProcessResponseDTO{
		DocumentID: id,
		Chunks:     chunks,
		Processed:  true,
	})
}

func writeServiceError(w http.ResponseWriter, log interface{ Error(args ...interface{}) }, err error, msg string) {
	switch {
	case errors.Is(err, ErrDocumentNotFound):
		http.Error(w, "document not found", http.StatusNotFound)
	case errors.Is(err, ErrUnauthorized):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, ErrDocumentNotProcessed):
		http.Error(w, "document has not been processed", http.StatusConflict)
	default:
		log.Error(msg, ": ", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
