package document

import (
	"github.com/saulo-duarte/docquiz/internal/chunker"
	"github.com/saulo-duarte/docquiz/internal/parser"
	"github.com/saulo-duarte/docquiz/internal/storage"
	"gorm.io/gorm"
)

type Container struct {
	Handler  *Handler
	Service  Service
	Repo     Repository
	Pipeline *Pipeline
}

func NewContainer(db *gorm.DB, bucket storage.Bucket, p parser.Parser, embedder Embedder, splitter *chunker.Splitter, chunkOverlap int) *Container {
	repo := NewRepository(db)
	service := NewService(repo, bucket, chunkOverlap)
	pipeline := NewPipeline(repo, bucket, p, embedder, splitter)
	handler := NewHandler(service, pipeline)

	return &Container{
		Handler:  handler,
		Service:  service,
		Repo:     repo,
		Pipeline: pipeline,
	}
}
