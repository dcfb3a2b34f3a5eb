package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/saulo-duarte/docquiz/internal/aiquiz"
	"github.com/saulo-duarte/docquiz/internal/cache"
	"github.com/saulo-duarte/docquiz/internal/config"
	"github.com/saulo-duarte/docquiz/internal/document"
	"github.com/saulo-duarte/docquiz/internal/retrieval"
)

var (
	ErrQuizNotFound = errors.New("quiz not found")
	ErrUnauthorized = errors.New("unauthorized")
	// ErrStatsConflict is returned when the attempt counter kept moving for
	// longer than the retry budget allows.
	ErrStatsConflict = errors.New("quiz statistics update conflict")
)

type QuizService interface {
	CreateQuiz(ctx context.Context, userID uuid.UUID, req CreateQuizRequestDTO) (*QuizWithQuestionsDTO, error)
	GetQuiz(ctx context.Context, id, userID uuid.UUID) (*QuizWithQuestionsDTO, error)
	ListQuizzesByUser(ctx context.Context, userID uuid.UUID) ([]*Quiz, error)
	DeleteQuiz(ctx context.Context, id, userID uuid.UUID) error

	RecordAttempt(ctx context.Context, quizID, userID uuid.UUID, req RecordAttemptRequestDTO) (*AttemptResultDTO, error)
	ListAttempts(ctx context.Context, quizID, userID uuid.UUID) ([]*Attempt, error)
	GetStatistics(ctx context.Context, quizID, userID uuid.UUID) (*StatisticsDTO, error)
	RecomputeStats(ctx context.Context, quizID, userID uuid.UUID) (*StatisticsDTO, error)
	GetUserProgress(ctx context.Context, userID uuid.UUID) (*UserProgressDTO, error)
}

type quizService struct {
	repo      QuizRepository
	ai        aiquiz.Service
	documents document.Service
	retriever retrieval.Service
	cache     cache.Cache

	searchThreshold float64
	searchTopK      int
}

func NewService(repo QuizRepository, ai aiquiz.Service, documents document.Service, retriever retrieval.Service, c cache.Cache, searchThreshold float64, searchTopK int) QuizService {
	return &quizService{
		repo:            repo,
		ai:              ai,
		documents:       documents,
		retriever:       retriever,
		cache:           c,
		searchThreshold: searchThreshold,
		searchTopK:      searchTopK,
	}
}

func (s *quizService) CreateQuiz(ctx context.Context, userID uuid.UUID, req CreateQuizRequestDTO) (*QuizWithQuestionsDTO, error) {
	log := config.WithContext(ctx)

	doc, err := s.documents.Get(ctx, req.DocumentID, userID)
	if err != nil {
		return nil, err
	}
	if !doc.Processed {
		return nil, document.ErrDocumentNotProcessed
	}

	grounding, err := s.grounding(ctx, req.DocumentID, req.Settings.FocusAreas)
	if err != nil {
		return nil, err
	}

	candidates, err := s.ai.Generate(ctx, req.Settings, grounding)
	if err != nil {
		log.WithError(err).Error("quiz generation failed")
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title, err = s.ai.GenerateTitle(ctx, grounding)
		if err != nil {
			log.WithError(err).Warn("title generation failed, falling back to document name")
			title = doc.Name
		}
	}

	settingsJSON, err := json.Marshal(req.Settings)
	if err != nil {
		return nil, err
	}

	q := &Quiz{
		ID:          uuid.New(),
		UserID:      userID,
		DocumentID:  req.DocumentID,
		Title:       title,
		Description: req.Description,
		Settings:    settingsJSON,
	}

	questions := make([]*Question, len(candidates))
	for i, c := range candidates {
		opts, err := json.Marshal(c.Options)
		if err != nil {
			return nil, err
		}
		questions[i] = &Question{
			ID:            uuid.New(),
			QuizID:        q.ID,
			Content:       c.Question,
			Options:       opts,
			CorrectAnswer: c.CorrectAnswer,
			Explanation:   c.Explanation,
			OrderIndex:    i,
		}
	}

	if err := s.repo.CreateWithQuestions(q, questions); err != nil {
		log.WithError(err).Error("failed to persist quiz")
		return nil, err
	}

	log.WithField("quiz_id", q.ID).WithField("questions", len(questions)).
		Info("quiz created")
	return &QuizWithQuestionsDTO{Quiz: q, Questions: questions}, nil
}

// grounding picks the study material for generation: retrieved chunks when
// focus areas are given, otherwise the full document text. Retrieval that
// finds nothing falls back to the full text rather than failing.
func (s *quizService) grounding(ctx context.Context, documentID uuid.UUID, focusAreas []string) (string, error) {
	log := config.WithContext(ctx)

	if len(focusAreas) > 0 {
		query := strings.Join(focusAreas, " ")
		results, err := s.retriever.Search(ctx, documentID, query, s.searchThreshold, s.searchTopK)
		if err != nil {
			return "", err
		}
		if len(results) > 0 {
			parts := make([]string, len(results))
			for i, r := range results {
				parts[i] = r.Chunk.Content
			}
			return strings.Join(parts, "\n\n"), nil
		}
		log.Warn("no chunks matched the focus areas, using full document text")
	}

	return s.documents.Content(ctx, documentID)
}

func (s *quizService) GetQuiz(ctx context.Context, id, userID uuid.UUID) (*QuizWithQuestionsDTO, error) {
	q, err := s.ownedQuiz(id, userID)
	if err != nil {
		return nil, err
	}
	questions, err := s.questionSet(ctx, id)
	if err != nil {
		return nil, err
	}
	return &QuizWithQuestionsDTO{Quiz: q, Questions: questions}, nil
}

func (s *quizService) ListQuizzesByUser(ctx context.Context, userID uuid.UUID) ([]*Quiz, error) {
	return s.repo.ListByUser(userID)
}

func (s *quizService) DeleteQuiz(ctx context.Context, id, userID uuid.UUID) error {
	log := config.WithContext(ctx)

	if _, err := s.ownedQuiz(id, userID); err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		log.WithError(err).Error("failed to delete quiz")
		return err
	}
	if err := s.cache.Delete(ctx, questionSetKey(id)); err != nil {
		log.WithError(err).Warn("failed to drop cached question set")
	}
	log.WithField("quiz_id", id).Info("quiz deleted")
	return nil
}

func (s *quizService) ownedQuiz(id, userID uuid.UUID) (*Quiz, error) {
	q, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, ErrQuizNotFound
	}
	if q.UserID != userID {
		return nil, ErrUnauthorized
	}
	return q, nil
}

func questionSetKey(quizID uuid.UUID) string {
	return "quiz:questions:" + quizID.String()
}
