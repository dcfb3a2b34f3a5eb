package aiquiz

import "context"

type AIQuizContainer struct {
	Service Service
}

func NewAIQuizContainer(ctx context.Context, model string) (*AIQuizContainer, error) {
	provider, err := NewGeminiProvider(ctx, model)
	if err != nil {
		return nil, err
	}
	return &AIQuizContainer{Service: NewService(provider)}, nil
}
