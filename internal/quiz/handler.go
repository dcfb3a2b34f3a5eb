package quiz

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/saulo-duarte/docquiz/internal/aiquiz"
	"github.com/saulo-duarte/docquiz/internal/auth"
	"github.com/saulo-duarte/docquiz/internal/config"
	"github.com/saulo-duarte/docquiz/internal/document"
)

type Handler struct {
	service QuizService
}

func NewHandler(s QuizService) *Handler {
	return &Handler{service: s}
}

func (h *Handler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateQuizRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.DocumentID == uuid.Nil {
		http.Error(w, "document_id required", http.StatusBadRequest)
		return
	}

	result, err := h.service.CreateQuiz(r.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, aiquiz.ErrInvalidSettings):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, aiquiz.ErrGenerationValidation):
			log.WithError(err).Error("quiz generation produced invalid output")
			http.Error(w, "quiz generation failed", http.StatusBadGateway)
		case errors.Is(err, document.ErrDocumentNotFound):
			http.Error(w, "document not found", http.StatusNotFound)
		case errors.Is(err, document.ErrUnauthorized):
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		case errors.Is(err, document.ErrDocumentNotProcessed):
			http.Error(w, "document has not been processed", http.StatusConflict)
		default:
			log.WithError(err).Error("failed to create quiz")
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	config.JSON(w, http.StatusCreated, result)
}

func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	userID, quizID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	result, err := h.service.GetQuiz(r.Context(), quizID, userID)
	if err != nil {
		writeServiceError(w, log, err, "failed to get quiz")
		return
	}
	config.JSON(w, http.StatusOK, result)
}

func (h *Handler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	quizzes, err := h.service.ListQuizzesByUser(r.Context(), userID)
	if err != nil {
		log.WithError(err).Error("failed to list quizzes")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	config.JSON(w, http.StatusOK, quizzes)
}

func (h *Handler) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	userID, quizID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteQuiz(r.Context(), quizID, userID); err != nil {
		writeServiceError(w, log, err, "failed to delete quiz")
		return
	}
	config.JSON(w, http.StatusOK, map[string]string{"message": "quiz deleted"})
}

func (h *Handler) RecordAttempt(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	userID, quizID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	var req RecordAttemptRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.RecordAttempt(r.Context(), quizID, userID, req)
	if err != nil {
		if errors.Is(err, ErrStatsConflict) {
			log.WithError(err).Error("attempt dropped after stats retries")
			http.Error(w, "try again", http.StatusConflict)
			return
		}
		writeServiceError(w, log, err, "failed to record attempt")
		return
	}
	config.JSON(w, http.StatusCreated, result)
}

func (h *Handler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	userID, quizID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	attempts, err := h.service.ListAttempts(r.Context(), quizID, userID)
	if err != nil {
		writeServiceError(w, log, err, "failed to list attempts")
		return
	}
	config.JSON(w, http.StatusOK, attempts)
}

func (h *Handler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	userID, quizID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	stats, err := h.service.GetStatistics(r.Context(), quizID, userID)
	if err != nil {
		writeServiceError(w, log, err, "failed to get statistics")
		return
	}
	config.JSON(w, http.StatusOK, stats)
}

func (h *Handler) RecomputeStats(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	userID, quizID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	stats, err := h.service.RecomputeStats(r.Context(), quizID, userID)
	if err != nil {
		writeServiceError(w, log, err, "failed to recompute statistics")
		return
	}
	config.JSON(w, http.StatusOK, stats)
}

func (h *Handler) UserProgress(w http.ResponseWriter, r *http.Request) {
	log := config.WithContext(r.Context())

	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	progress, err := h.service.GetUserProgress(r.Context(), userID)
	if err != nil {
		log.WithError(err).Error("failed to get user progress")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	config.JSON(w, http.StatusOK, progress)
}

func (h *Handler) requestScope(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return uuid.Nil, uuid.Nil, false
	}
	quizID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid quiz id", http.StatusBadRequest)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, quizID, true
}

func writeServiceError(w http.ResponseWriter, log interface{ Error(args ...interface{}) }, err error, msg string) {
	switch {
	case errors.Is(err, ErrQuizNotFound):
		http.Error(w, "quiz not found", http.StatusNotFound)
	case errors.Is(err, ErrUnauthorized):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	default:
		log.Error(msg, ": ", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
