package aiquiz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/saulo-duarte/docquiz/internal/config"
	"google.golang.org/genai"
)

// Provider abstracts the LLM behind the generator. CompleteJSON asks the
// model for a raw JSON payload; Complete returns plain text.
type Provider interface {
	Complete(ctx context.Context, system, user string) (string, error)
	CompleteJSON(ctx context.Context, system, user string) (string, error)
}

type geminiProvider struct {
	client *genai.Client
	model  string
}

func NewGeminiProvider(ctx context.Context, model string) (Provider, error) {
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	return &geminiProvider{client: client, model: model}, nil
}

func (p *geminiProvider) Complete(ctx context.Context, system, user string) (string, error) {
	return p.generate(ctx, system, user, nil)
}

func (p *geminiProvider) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	return p.generate(ctx, system, user, cfg)
}

func (p *geminiProvider) generate(ctx context.Context, system, user string, cfg *genai.GenerateContentConfig) (string, error) {
	log := config.WithContext(ctx)

	prompt := system + "\n\n" + user
	result, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), cfg)
	if err != nil {
		log.WithError(err).Error("Gemini generation failed")
		return "", fmt.Errorf("generating content: %w", err)
	}

	raw := strings.TrimSpace(result.Text())
	if raw == "" {
		return "", errors.New("empty model response")
	}
	return raw, nil
}

// stripFences removes a markdown code fence that some models wrap JSON in
// despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimSuffix(s, "```")
	return strings.Trim(s, "` \n")
}
