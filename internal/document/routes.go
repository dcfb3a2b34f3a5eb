package document

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes wires the document endpoints. The chunk search handler lives in the
// retrieval package and is passed in to keep the dependency one-way.
func Routes(h *Handler, search http.HandlerFunc) http.Handler {
	r := chi.NewRouter()

	r.Post("/", h.Upload)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/process", h.Process)
	r.Post("/{id}/search", search)

	return r
}
