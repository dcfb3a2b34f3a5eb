package quiz

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/saulo-duarte/docquiz/internal/config"
)

const (
	// maxStatsRetries bounds the compare-and-swap loop on the quiz
	// aggregates. Each iteration reloads the quiz row, so a retry only
	// loses when another attempt landed in between.
	maxStatsRetries = 5

	questionSetTTL = 10 * time.Minute
	recentAttempts = 10
)

func (s *quizService) RecordAttempt(ctx context.Context, quizID, userID uuid.UUID, req RecordAttemptRequestDTO) (*AttemptResultDTO, error) {
	log := config.WithContext(ctx)

	if _, err := s.ownedQuiz(quizID, userID); err != nil {
		return nil, err
	}

	questions, err := s.questionSet(ctx, quizID)
	if err != nil {
		return nil, err
	}

	records, correct := score(quizID, questions, req.Answers, log)

	var scoreValue float64
	if len(questions) > 0 {
		scoreValue = 100 * float64(correct) / float64(len(questions))
	}

	answersJSON, err := json.Marshal(records)
	if err != nil {
		return nil, err
	}

	attempt := &Attempt{
		ID:        uuid.New(),
		QuizID:    quizID,
		UserID:    userID,
		Score:     scoreValue,
		Answers:   answersJSON,
		TimeTaken: req.TimeTaken,
	}

	for try := 0; try < maxStatsRetries; try++ {
		q, err := s.repo.FindByID(quizID)
		if err != nil {
			return nil, err
		}
		if q == nil {
			return nil, ErrQuizNotFound
		}

		newAttempts := q.Attempts + 1
		newAverage := (q.AverageScore*float64(q.Attempts) + scoreValue) / float64(newAttempts)
		newBest := q.BestScore
		if scoreValue > newBest {
			newBest = scoreValue
		}

		ok, err := s.repo.RecordAttempt(attempt, q.Attempts, newAverage, newBest)
		if err != nil {
			log.WithError(err).Error("failed to record attempt")
			return nil, err
		}
		if ok {
			log.WithField("quiz_id", quizID).WithField("score", scoreValue).
				Info("attempt recorded")
			return &AttemptResultDTO{
				AttemptID: attempt.ID,
				Score:     scoreValue,
				Correct:   correct,
				Total:     len(questions),
				Answers:   records,
				CreatedAt: attempt.CreatedAt,
			}, nil
		}
		log.WithField("quiz_id", quizID).Debug("stats update lost the race, retrying")
	}

	return nil, ErrStatsConflict
}

// score joins the submitted answers against the question set. Answers for
// unknown question ids are dropped, questions left unanswered count as
// incorrect.
func score(quizID uuid.UUID, questions []*Question, answers []AnswerSubmission, log interface {
	Warn(args ...interface{})
}) ([]AnswerRecord, int) {
	selected := make(map[uuid.UUID]int, len(answers))
	known := make(map[uuid.UUID]struct{}, len(questions))
	for _, q := range questions {
		known[q.ID] = struct{}{}
	}
	for _, a := range answers {
		if _, ok := known[a.QuestionID]; !ok {
			log.Warn("dropping answer for unknown question ", a.QuestionID, " in quiz ", quizID)
			continue
		}
		selected[a.QuestionID] = a.SelectedAnswer
	}

	records := make([]AnswerRecord, 0, len(questions))
	correct := 0
	for _, q := range questions {
		choice, answered := selected[q.ID]
		if !answered {
			choice = -1
		}
		hit := answered && choice == q.CorrectAnswer
		if hit {
			correct++
		}
		records = append(records, AnswerRecord{
			QuestionID:     q.ID,
			SelectedAnswer: choice,
			Correct:        hit,
		})
	}
	return records, correct
}

func (s *quizService) questionSet(ctx context.Context, quizID uuid.UUID) ([]*Question, error) {
	log := config.WithContext(ctx)

	var questions []*Question
	key := questionSetKey(quizID)

	hit, err := s.cache.Get(ctx, key, &questions)
	if err != nil {
		log.WithError(err).Warn("question set cache read failed")
	} else if hit {
		return questions, nil
	}

	questions, err = s.repo.ListQuestionsByQuiz(quizID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, questions, questionSetTTL); err != nil {
		log.WithError(err).Warn("question set cache write failed")
	}
	return questions, nil
}

func (s *quizService) ListAttempts(ctx context.Context, quizID, userID uuid.UUID) ([]*Attempt, error) {
	if _, err := s.ownedQuiz(quizID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListAttemptsByQuiz(quizID, 0)
}

func (s *quizService) GetStatistics(ctx context.Context, quizID, userID uuid.UUID) (*StatisticsDTO, error) {
	q, err := s.ownedQuiz(quizID, userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.ListAttemptsByQuiz(quizID, recentAttempts)
	if err != nil {
		return nil, err
	}
	return &StatisticsDTO{
		QuizID:         q.ID,
		Attempts:       q.Attempts,
		AverageScore:   q.AverageScore,
		BestScore:      q.BestScore,
		RecentAttempts: recent,
	}, nil
}

// RecomputeStats rebuilds the aggregates from the full attempt history and
// overwrites whatever the incremental path accumulated. The write carries the
// same attempts-counter guard as RecordAttempt, so an attempt landing mid
// rebuild triggers a retry instead of being clobbered. Maintenance
// operation, not part of the attempt hot path.
func (s *quizService) RecomputeStats(ctx context.Context, quizID, userID uuid.UUID) (*StatisticsDTO, error) {
	log := config.WithContext(ctx)

	if _, err := s.ownedQuiz(quizID, userID); err != nil {
		return nil, err
	}

	for try := 0; try < maxStatsRetries; try++ {
		q, err := s.repo.FindByID(quizID)
		if err != nil {
			return nil, err
		}
		if q == nil {
			return nil, ErrQuizNotFound
		}

		attempts, err := s.repo.ListAttemptsByQuiz(quizID, 0)
		if err != nil {
			return nil, err
		}

		var sum, best float64
		for _, a := range attempts {
			sum += a.Score
			if a.Score > best {
				best = a.Score
			}
		}
		var average float64
		if len(attempts) > 0 {
			average = sum / float64(len(attempts))
		}

		ok, err := s.repo.SetStats(quizID, q.Attempts, len(attempts), average, best)
		if err != nil {
			log.WithError(err).Error("failed to write recomputed stats")
			return nil, err
		}
		if ok {
			log.WithField("quiz_id", quizID).WithField("attempts", len(attempts)).
				Info("quiz statistics recomputed")
			return s.GetStatistics(ctx, quizID, userID)
		}
		log.WithField("quiz_id", quizID).Debug("attempt landed during recompute, retrying")
	}

	return nil, ErrStatsConflict
}

func (s *quizService) GetUserProgress(ctx context.Context, userID uuid.UUID) (*UserProgressDTO, error) {
	quizzes, err := s.repo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	attempts, err := s.repo.ListAttemptsByUser(userID)
	if err != nil {
		return nil, err
	}

	completed := 0
	for _, q := range quizzes {
		if q.Attempts > 0 {
			completed++
		}
	}
	var sum float64
	for _, a := range attempts {
		sum += a.Score
	}
	var average float64
	if len(attempts) > 0 {
		average = sum / float64(len(attempts))
	}

	return &UserProgressDTO{
		TotalQuizzes:     len(quizzes),
		CompletedQuizzes: completed,
		TotalAttempts:    len(attempts),
		AverageScore:     average,
	}, nil
}
