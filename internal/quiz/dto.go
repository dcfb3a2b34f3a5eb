package quiz

import (
	"time"

	"github.com/google/uuid"
	"github.com/saulo-duarte/docquiz/internal/aiquiz"
)

type CreateQuizRequestDTO struct {
	DocumentID  uuid.UUID       `json:"document_id"`
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description,omitempty"`
	Settings    aiquiz.Settings `json:"settings"`
}

type QuizWithQuestionsDTO struct {
	Quiz      *Quiz       `json:"quiz"`
	Questions []*Question `json:"questions"`
}

// AnswerSubmission is one answer of an attempt as submitted by the client.
type AnswerSubmission struct {
	QuestionID     uuid.UUID `json:"question_id"`
	SelectedAnswer int       `json:"selected_answer"`
}

type RecordAttemptRequestDTO struct {
	Answers   []AnswerSubmission `json:"answers"`
	TimeTaken int                `json:"time_taken,omitempty"`
}

type StatisticsDTO struct {
	QuizID         uuid.UUID  `json:"quiz_id"`
	Attempts       int        `json:"attempts"`
	AverageScore   float64    `json:"average_score"`
	BestScore      float64    `json:"best_score"`
	RecentAttempts []*Attempt `json:"recent_attempts"`
}

type UserProgressDTO struct {
	TotalQuizzes     int     `json:"total_quizzes"`
	CompletedQuizzes int     `json:"completed_quizzes"`
	TotalAttempts    int     `json:"total_attempts"`
	AverageScore     float64 `json:"average_score"`
}

type AttemptResultDTO struct {
	AttemptID uuid.UUID      `json:"attempt_id"`
	Score     float64        `json:"score"`
	Correct   int            `json:"correct"`
	Total     int            `json:"total"`
	Answers   []AnswerRecord `json:"answers"`
	CreatedAt time.Time      `json:"created_at"`
}
