package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/saulo-duarte/docquiz/internal/auth"
	"github.com/saulo-duarte/docquiz/internal/document"
	"github.com/saulo-duarte/docquiz/internal/middlewares"
	"github.com/saulo-duarte/docquiz/internal/quiz"
	"github.com/saulo-duarte/docquiz/internal/retrieval"
)

type RouterConfig struct {
	DocumentHandler  *document.Handler
	RetrievalHandler *retrieval.Handler
	QuizHandler      *quiz.Handler
	CORSOrigins      []string
}

func New(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewares.CORS(cfg.CORSOrigins))

	r.Get("/swagger/*", httpSwagger.WrapHandler)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware)

		r.Mount("/documents", document.Routes(cfg.DocumentHandler, cfg.RetrievalHandler.Search))
		r.Mount("/quizzes", quiz.Routes(cfg.QuizHandler))
		r.Get("/progress", cfg.QuizHandler.UserProgress)
	})
	return r
}
