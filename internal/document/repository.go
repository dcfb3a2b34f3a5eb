package document

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(doc *Document) error
	FindByID(id uuid.UUID) (*Document, error)
	FindAllByUserID(userID uuid.UUID) ([]*Document, error)
	SetProcessed(id uuid.UUID, processed bool) error
	Delete(id uuid.UUID) error

	CreateChunks(chunks []*DocumentChunk) error
	ListChunksByDocumentID(documentID uuid.UUID) ([]*DocumentChunk, error)
	DeleteChunksByDocumentID(documentID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(doc *Document) error {
	return r.db.Create(doc).Error
}

func (r *repository) FindByID(id uuid.UUID) (*Document, error) {
	var doc Document
	if err := r.db.First(&doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

func (r *repository) FindAllByUserID(userID uuid.UUID) ([]*Document, error) {
	var docs []*Document
	if err := r.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *repository) SetProcessed(id uuid.UUID, processed bool) error {
	return r.db.Model(&Document{}).
		Where("id = ?", id).
		Update("processed", processed).Error
}

func (r *repository) Delete(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&DocumentChunk{}, "document_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&Document{}, "id = ?", id).Error
	})
}

func (r *repository) CreateChunks(chunks []*DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	return r.db.Create(&chunks).Error
}

func (r *repository) ListChunksByDocumentID(documentID uuid.UUID) ([]*DocumentChunk, error) {
	var chunks []*DocumentChunk
	if err := r.db.
		Where("document_id = ?", documentID).
		Order("ordinal ASC").
		Find(&chunks).Error; err != nil {
		return nil, err
	}
	return chunks, nil
}

func (r *repository) DeleteChunksByDocumentID(documentID uuid.UUID) error {
	return r.db.Delete(&DocumentChunk{}, "document_id = ?", documentID).Error
}
