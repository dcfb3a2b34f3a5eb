package document

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Document struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Name        string    `gorm:"type:text;not null" json:"name"`
	ContentType string    `gorm:"type:text;not null" json:"content_type"`
	Size        int64     `gorm:"not null" json:"size"`
	Processed   bool      `gorm:"not null;default:false" json:"processed"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	Chunks []DocumentChunk `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"-"`
}

// DocumentChunk is one retrievable segment of a processed document. Rows are
// immutable; a reprocess run replaces the whole set for a document.
type DocumentChunk struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DocumentID uuid.UUID      `gorm:"type:uuid;not null;index" json:"document_id"`
	Ordinal    int            `gorm:"not null" json:"ordinal"`
	Content    string         `gorm:"type:text;not null" json:"content"`
	Embedding  Vector         `gorm:"type:jsonb;not null" json:"-"`
	Metadata   datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
}
