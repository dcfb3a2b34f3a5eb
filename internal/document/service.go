package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/saulo-duarte/docquiz/internal/config"
	"github.com/saulo-duarte/docquiz/internal/storage"
)

var (
	ErrDocumentNotFound     = errors.New("document not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrDocumentNotProcessed = errors.New("document has not been processed")
)

type Service interface {
	Upload(ctx context.Context, userID uuid.UUID, name, contentType string, size int64, r io.Reader) (*Document, error)
	Get(ctx context.Context, id, userID uuid.UUID) (*Document, error)
	List(ctx context.Context, userID uuid.UUID) ([]*Document, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error

	// Content returns the full processed text of a document, rebuilt from its
	// persisted chunk set in order.
	Content(ctx context.Context, id uuid.UUID) (string, error)
}

type service struct {
	repo    Repository
	bucket  storage.Bucket
	overlap int
}

func NewService(repo Repository, bucket storage.Bucket, chunkOverlap int) Service {
	return &service{repo: repo, bucket: bucket, overlap: chunkOverlap}
}

func (s *service) Upload(ctx context.Context, userID uuid.UUID, name, contentType string, size int64, r io.Reader) (*Document, error) {
	log := config.WithContext(ctx)

	doc := &Document{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        name,
		ContentType: contentType,
		Size:        size,
	}

	if err := s.repo.Create(doc); err != nil {
		log.WithError(err).Error("Failed to create document row")
		return nil, err
	}

	key := storage.ObjectKey(userID.String(), doc.ID.String(), name)
	if err := s.bucket.Upload(ctx, key, r); err != nil {
		log.WithError(err).Error("Failed to upload document to storage")
		if delErr := s.repo.Delete(doc.ID); delErr != nil {
			log.WithError(delErr).Error("Failed to roll back document row after upload failure")
		}
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	log.WithField("document_id", doc.ID).Info("Document uploaded")
	return doc, nil
}

func (s *service) Get(ctx context.Context, id, userID uuid.UUID) (*Document, error) {
	doc, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	if doc.UserID != userID {
		return nil, ErrUnauthorized
	}
	return doc, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]*Document, error) {
	return s.repo.FindAllByUserID(userID)
}

func (s *service) Delete(ctx context.Context, id, userID uuid.UUID) error {
	log := config.WithContext(ctx)

	doc, err := s.Get(ctx, id, userID)
	if err != nil {
		return err
	}

	key := storage.ObjectKey(doc.UserID.String(), doc.ID.String(), doc.Name)
	if err := s.bucket.Delete(ctx, key); err != nil {
		log.WithError(err).Warn("Failed to delete document object from storage")
	}

	if err := s.repo.Delete(doc.ID); err != nil {
		log.WithError(err).Error("Failed to delete document")
		return err
	}

	log.WithField("document_id", id).Info("Document deleted")
	return nil
}

func (s *service) Content(ctx context.Context, id uuid.UUID) (string, error) {
	doc, err := s.repo.FindByID(id)
	if err != nil {
		return "", err
	}
	if doc == nil {
		return "", ErrDocumentNotFound
	}
	if !doc.Processed {
		return "", ErrDocumentNotProcessed
	}

	chunks, err := s.repo.ListChunksByDocumentID(id)
	if err != nil {
		return "", err
	}

	// Consecutive chunks share the configured overlap; strip it so the
	// rebuilt text does not repeat itself.
	var b strings.Builder
	for i, c := range chunks {
		content := c.Content
		if i > 0 {
			runes := []rune(content)
			if len(runes) >= s.overlap {
				content = string(runes[s.overlap:])
			}
		}
		b.WriteString(content)
	}
	return b.String(), nil
}
