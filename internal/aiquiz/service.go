package aiquiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/saulo-duarte/docquiz/internal/config"
)

var (
	ErrInvalidSettings      = errors.New("invalid generation settings")
	ErrGenerationValidation = errors.New("model output failed validation")
)

const (
	MinQuestionCount = 1
	MaxQuestionCount = 20
)

type Service interface {
	// Generate produces exactly settings.QuestionCount validated questions
	// grounded on the given study material.
	Generate(ctx context.Context, settings Settings, grounding string) ([]Candidate, error)
	// GenerateTitle names a quiz after its study material.
	GenerateTitle(ctx context.Context, grounding string) (string, error)
}

type service struct {
	provider Provider
}

func NewService(provider Provider) Service {
	return &service{provider: provider}
}

func (s *service) Generate(ctx context.Context, settings Settings, grounding string) ([]Candidate, error) {
	log := config.WithContext(ctx)

	if err := validateSettings(settings); err != nil {
		return nil, err
	}
	if strings.TrimSpace(grounding) == "" {
		return nil, fmt.Errorf("%w: empty study material", ErrInvalidSettings)
	}

	raw, err := s.provider.CompleteJSON(ctx, systemPrompt, BuildUserPrompt(settings, grounding))
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	if err := json.Unmarshal([]byte(stripFences(raw)), &candidates); err != nil {
		log.WithError(err).Error("failed to decode model output as question list")
		return nil, fmt.Errorf("%w: not a JSON question list", ErrGenerationValidation)
	}

	if len(candidates) < settings.QuestionCount {
		return nil, fmt.Errorf("%w: got %d questions, want %d",
			ErrGenerationValidation, len(candidates), settings.QuestionCount)
	}
	// Over-delivery is tolerated, the extras are dropped.
	candidates = candidates[:settings.QuestionCount]

	for i, c := range candidates {
		if err := validateCandidate(c); err != nil {
			return nil, fmt.Errorf("%w: question %d: %v", ErrGenerationValidation, i, err)
		}
	}

	log.WithField("count", len(candidates)).Info("generated quiz questions")
	return candidates, nil
}

func (s *service) GenerateTitle(ctx context.Context, grounding string) (string, error) {
	raw, err := s.provider.Complete(ctx, titleSystemPrompt, BuildTitlePrompt(grounding))
	if err != nil {
		return "", err
	}
	title := strings.Trim(strings.TrimSpace(raw), `"`)
	if title == "" {
		return "", errors.New("empty title from model")
	}
	return title, nil
}

func validateSettings(settings Settings) error {
	if settings.QuestionCount < MinQuestionCount || settings.QuestionCount > MaxQuestionCount {
		return fmt.Errorf("%w: question count %d out of range [%d, %d]",
			ErrInvalidSettings, settings.QuestionCount, MinQuestionCount, MaxQuestionCount)
	}
	if !settings.Difficulty.IsValid() {
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidSettings, settings.Difficulty)
	}
	return nil
}

func validateCandidate(c Candidate) error {
	if strings.TrimSpace(c.Question) == "" {
		return errors.New("empty question")
	}
	if len(c.Options) != OptionsPerQuestion {
		return fmt.Errorf("got %d options, want %d", len(c.Options), OptionsPerQuestion)
	}
	seen := make(map[string]struct{}, OptionsPerQuestion)
	for _, opt := range c.Options {
		trimmed := strings.TrimSpace(opt)
		if trimmed == "" {
			return errors.New("empty option")
		}
		if _, dup := seen[trimmed]; dup {
			return fmt.Errorf("duplicate option %q", trimmed)
		}
		seen[trimmed] = struct{}{}
	}
	if c.CorrectAnswer < 0 || c.CorrectAnswer >= OptionsPerQuestion {
		return fmt.Errorf("correct answer index %d out of range", c.CorrectAnswer)
	}
	if strings.TrimSpace(c.Explanation) == "" {
		return errors.New("empty explanation")
	}
	return nil
}
