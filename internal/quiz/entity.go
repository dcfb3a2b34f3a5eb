package quiz

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Quiz struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	DocumentID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"document_id"`
	Title       string         `gorm:"type:text;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	Settings    datatypes.JSON `gorm:"type:jsonb" json:"settings"`

	// Aggregates maintained incrementally on every recorded attempt.
	Attempts     int     `gorm:"not null;default:0" json:"attempts"`
	AverageScore float64 `gorm:"not null;default:0" json:"average_score"`
	BestScore    float64 `gorm:"not null;default:0" json:"best_score"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Questions []Question `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
}

type Question struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	QuizID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"quiz_id"`
	Content       string         `gorm:"type:text;not null" json:"content"`
	Options       datatypes.JSON `gorm:"type:jsonb;not null" json:"options"`
	CorrectAnswer int            `gorm:"not null" json:"correct_answer"`
	Explanation   string         `gorm:"type:text" json:"explanation,omitempty"`
	OrderIndex    int            `gorm:"not null" json:"order_index"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// Attempt is append-only. Rows are never updated after creation.
type Attempt struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	QuizID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"quiz_id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Score     float64        `gorm:"not null" json:"score"`
	Answers   datatypes.JSON `gorm:"type:jsonb;not null" json:"answers"`
	TimeTaken int            `gorm:"not null;default:0" json:"time_taken"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// AnswerRecord is one entry of the Answers payload persisted with an
// attempt.
type AnswerRecord struct {
	QuestionID     uuid.UUID `json:"question_id"`
	SelectedAnswer int       `json:"selected_answer"`
	Correct        bool      `json:"correct"`
}
