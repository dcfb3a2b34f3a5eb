package quiz

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/", h.CreateQuiz)
	r.Get("/", h.ListQuizzes)
	r.Get("/{id}", h.GetQuiz)
	r.Delete("/{id}", h.DeleteQuiz)
	r.Post("/{id}/attempts", h.RecordAttempt)
	r.Get("/{id}/attempts", h.ListAttempts)
	r.Get("/{id}/statistics", h.GetStatistics)
	r.Post("/{id}/statistics/recompute", h.RecomputeStats)
	return r
}
