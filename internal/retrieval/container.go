package retrieval

import "github.com/saulo-duarte/docquiz/internal/document"

type Container struct {
	Handler *Handler
	Service Service
}

func NewContainer(chunks ChunkSource, embedder Embedder, documents document.Service, defaultThreshold float64, defaultTopK int) *Container {
	service := NewService(chunks, embedder)
	handler := NewHandler(service, documents, defaultThreshold, defaultTopK)

	return &Container{
		Handler: handler,
		Service: service,
	}
}
