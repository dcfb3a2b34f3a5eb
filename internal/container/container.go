package container

import (
	"context"
	"fmt"

	"github.com/saulo-duarte/docquiz/internal/aiquiz"
	"github.com/saulo-duarte/docquiz/internal/cache"
	"github.com/saulo-duarte/docquiz/internal/chunker"
	"github.com/saulo-duarte/docquiz/internal/config"
	"github.com/saulo-duarte/docquiz/internal/document"
	"github.com/saulo-duarte/docquiz/internal/embedding"
	"github.com/saulo-duarte/docquiz/internal/parser"
	"github.com/saulo-duarte/docquiz/internal/quiz"
	"github.com/saulo-duarte/docquiz/internal/retrieval"
	"github.com/saulo-duarte/docquiz/internal/storage"
)

type Container struct {
	DocumentContainer  *document.Container
	RetrievalContainer *retrieval.Container
	AIQuizContainer    *aiquiz.AIQuizContainer
	QuizContainer      *quiz.QuizContainer
}

func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	db, err := config.Connect(cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(
		&document.Document{},
		&document.DocumentChunk{},
		&quiz.Quiz{},
		&quiz.Question{},
		&quiz.Attempt{},
	); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	bucket, err := storage.NewBucket(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("opening storage bucket: %w", err)
	}

	embedder, err := embedding.NewClient(embedding.Config{
		BaseURL: cfg.EmbeddingBaseURL,
		APIKey:  cfg.EmbeddingAPIKey,
		Model:   cfg.EmbeddingModel,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedding client: %w", err)
	}

	splitter, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	docParser := parser.New(parser.Config{
		BaseURL: cfg.ParserBaseURL,
		APIKey:  cfg.ParserAPIKey,
	})

	redisCache := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)

	documentContainer := document.NewContainer(db, bucket, docParser, embedder, splitter, cfg.ChunkOverlap)
	retrievalContainer := retrieval.NewContainer(
		documentContainer.Repo,
		embedder,
		documentContainer.Service,
		cfg.SimilarityThreshold,
		cfg.MaxSearchResults,
	)

	aiQuizContainer, err := aiquiz.NewAIQuizContainer(ctx, cfg.GeminiModel)
	if err != nil {
		return nil, fmt.Errorf("creating quiz generator: %w", err)
	}

	quizContainer := quiz.NewQuizContainer(
		db,
		aiQuizContainer.Service,
		documentContainer.Service,
		retrievalContainer.Service,
		redisCache,
		cfg.SimilarityThreshold,
		cfg.MaxSearchResults,
	)

	return &Container{
		DocumentContainer:  documentContainer,
		RetrievalContainer: retrievalContainer,
		AIQuizContainer:    aiQuizContainer,
		QuizContainer:      quizContainer,
	}, nil
}
