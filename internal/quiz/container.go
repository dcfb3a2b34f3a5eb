package quiz

import (
	"github.com/saulo-duarte/docquiz/internal/aiquiz"
	"github.com/saulo-duarte/docquiz/internal/cache"
	"github.com/saulo-duarte/docquiz/internal/document"
	"github.com/saulo-duarte/docquiz/internal/retrieval"
	"gorm.io/gorm"
)

type QuizContainer struct {
	Handler *Handler
	Service QuizService
}

func NewQuizContainer(db *gorm.DB, ai aiquiz.Service, documents document.Service, retriever retrieval.Service, c cache.Cache, searchThreshold float64, searchTopK int) *QuizContainer {
	repo := NewRepository(db)
	service := NewService(repo, ai, documents, retriever, c, searchThreshold, searchTopK)
	handler := NewHandler(service)

	return &QuizContainer{
		Handler: handler,
		Service: service,
	}
}
