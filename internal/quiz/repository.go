package quiz

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuizRepository interface {
	CreateWithQuestions(q *Quiz, questions []*Question) error
	FindByID(id uuid.UUID) (*Quiz, error)
	ListByUser(userID uuid.UUID) ([]*Quiz, error)
	Delete(id uuid.UUID) error

	ListQuestionsByQuiz(quizID uuid.UUID) ([]*Question, error)

	// RecordAttempt persists the attempt and applies the new aggregates in
	// one transaction, guarded by a compare-and-swap on the current attempt
	// count. Returns false without error when another writer got there
	// first; the caller reloads and retries.
	RecordAttempt(attempt *Attempt, expectedAttempts int, newAverage, newBest float64) (bool, error)

	ListAttemptsByQuiz(quizID uuid.UUID, limit int) ([]*Attempt, error)
	ListAttemptsByUser(userID uuid.UUID) ([]*Attempt, error)

	// SetStats overwrites the aggregates, guarded by the attempts counter
	// the caller observed so a concurrent RecordAttempt is never clobbered.
	// Returns false without error when the counter moved. Used by the
	// recompute maintenance path only.
	SetStats(quizID uuid.UUID, observedAttempts, attempts int, average, best float64) (bool, error)
}

// errStaleStats aborts the RecordAttempt transaction when the CAS guard
// misses; it never escapes the repository.
var errStaleStats = errors.New("stale attempts counter")

type quizRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) QuizRepository {
	return &quizRepository{db: db}
}

func (r *quizRepository) CreateWithQuestions(q *Quiz, questions []*Question) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(q).Error; err != nil {
			return err
		}
		for i := range questions {
			questions[i].QuizID = q.ID
		}
		if len(questions) > 0 {
			if err := tx.Create(&questions).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *quizRepository) FindByID(id uuid.UUID) (*Quiz, error) {
	var q Quiz
	if err := r.db.First(&q, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

func (r *quizRepository) ListByUser(userID uuid.UUID) ([]*Quiz, error) {
	var quizzes []*Quiz
	if err := r.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&quizzes).Error; err != nil {
		return nil, err
	}
	return quizzes, nil
}

func (r *quizRepository) Delete(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&Attempt{}, "quiz_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&Question{}, "quiz_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&Quiz{}, "id = ?", id).Error
	})
}

func (r *quizRepository) ListQuestionsByQuiz(quizID uuid.UUID) ([]*Question, error) {
	var questions []*Question
	if err := r.db.
		Where("quiz_id = ?", quizID).
		Order("order_index ASC").
		Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *quizRepository) RecordAttempt(attempt *Attempt, expectedAttempts int, newAverage, newBest float64) (bool, error) {
	var applied bool
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(attempt).Error; err != nil {
			return err
		}
		res := tx.Model(&Quiz{}).
			Where("id = ? AND attempts = ?", attempt.QuizID, expectedAttempts).
			Updates(map[string]interface{}{
				"attempts":      expectedAttempts + 1,
				"average_score": newAverage,
				"best_score":    newBest,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Stale snapshot, roll the attempt insert back too.
			return errStaleStats
		}
		applied = true
		return nil
	})
	if err != nil {
		if !applied && errors.Is(err, errStaleStats) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *quizRepository) ListAttemptsByQuiz(quizID uuid.UUID, limit int) ([]*Attempt, error) {
	q := r.db.
		Where("quiz_id = ?", quizID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var attempts []*Attempt
	if err := q.Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *quizRepository) ListAttemptsByUser(userID uuid.UUID) ([]*Attempt, error) {
	var attempts []*Attempt
	if err := r.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *quizRepository) SetStats(quizID uuid.UUID, observedAttempts, attempts int, average, best float64) (bool, error) {
	res := r.db.Model(&Quiz{}).
		Where("id = ? AND attempts = ?", quizID, observedAttempts).
		Updates(map[string]interface{}{
			"attempts":      attempts,
			"average_score": average,
			"best_score":    best,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
