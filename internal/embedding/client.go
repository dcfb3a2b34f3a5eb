package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/saulo-duarte/docquiz/internal/config"
)

var (
	// ErrProviderAuth marks credential problems. Never retried.
	ErrProviderAuth = errors.New("embedding provider rejected credentials")
	// ErrMalformedInput marks requests the provider refused as invalid. Never retried.
	ErrMalformedInput = errors.New("embedding provider rejected input")
	// ErrDimensionMismatch is returned when the provider produces a vector
	// whose length differs from the one observed on the first call.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Client wraps an OpenAI-compatible embeddings endpoint with input
// normalization and bounded retries for transient failures.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	maxRetries int

	// dimMu guards dimension; one client is shared by the processing
	// pipeline and the retriever, which embed concurrently.
	dimMu     sync.Mutex
	dimension int
}

// Result carries the outcome for one item of a batch. A failed item does not
// fail its siblings.
type Result struct {
	Vector []float32
	Err    error
}

type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedding API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 4
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
	}, nil
}

// Dimension reports the vector length observed on the first successful call,
// or zero before that.
func (c *Client) Dimension() int {
	c.dimMu.Lock()
	defer c.dimMu.Unlock()
	return c.dimension
}

// Embed returns the embedding vector for a single text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.request(ctx, []string{normalize(text)})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("provider returned %d embeddings for one input", len(vectors))
	}
	return vectors[0], nil
}

// EmbedBatch embeds every text and returns one Result per input, in input
// order. The whole batch is sent in a single provider call; when that call
// fails items are retried individually so one bad input cannot sink the rest.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([]Result, error) {
	results := make([]Result, len(texts))
	if len(texts) == 0 {
		return results, nil
	}

	normalized := make([]string, len(texts))
	for i, t := range texts {
		normalized[i] = normalize(t)
	}

	vectors, err := c.request(ctx, normalized)
	if err == nil {
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("provider returned %d embeddings for %d inputs", len(vectors), len(texts))
		}
		for i := range vectors {
			results[i] = Result{Vector: vectors[i]}
		}
		return results, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	log := config.WithContext(ctx)
	log.WithError(err).Warn("Batch embedding call failed, falling back to per-item requests")

	for i, t := range normalized {
		vec, itemErr := c.request(ctx, []string{t})
		if itemErr != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			results[i] = Result{Err: itemErr}
			continue
		}
		results[i] = Result{Vector: vec[0]}
	}
	return results, nil
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

func (c *Client) request(ctx context.Context, inputs []string) ([][]float32, error) {
	backoff := time.Second

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		resp, vectors, err := c.doOnce(ctx, inputs)
		if err == nil {
			return vectors, nil
		}
		lastErr = err

		if !isRetryable(err) || attempt == c.maxRetries {
			return nil, err
		}

		sleepFor := backoff
		if resp != nil {
			if ra := strings.TrimSpace(resp.Header.Get("Retry-After")); ra != "" {
				if secs, parseErr := strconv.Atoi(ra); parseErr == nil && secs >= 0 {
					sleepFor = time.Duration(secs) * time.Second
				}
			}
		}
		if sleepFor > 10*time.Second {
			sleepFor = 10 * time.Second
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(jitter(sleepFor)):
		}
		backoff *= 2
	}
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, inputs []string) (*http.Response, [][]float32, error) {
	body, err := json.Marshal(embeddingsRequest{Model: c.model, Input: inputs})
	if err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return resp, nil, fmt.Errorf("%w: http %d", ErrProviderAuth, resp.StatusCode)
	case resp.StatusCode == http.StatusBadRequest:
		return resp, nil, fmt.Errorf("%w: %s", ErrMalformedInput, truncateBody(raw))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return resp, nil, &httpError{StatusCode: resp.StatusCode, Body: truncateBody(raw)}
	}

	var parsed embeddingsResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return resp, nil, fmt.Errorf("failed to decode embeddings response: %w", err)
	}
	if len(parsed.Data) == 0 {
		return resp, nil, errors.New("provider returned no embeddings")
	}

	vectors := make([][]float32, len(parsed.Data))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return resp, nil, fmt.Errorf("provider returned out-of-range index %d", d.Index)
		}
		if err := c.checkDimension(d.Embedding); err != nil {
			return resp, nil, err
		}
		vectors[d.Index] = d.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return resp, nil, fmt.Errorf("provider returned no embedding for input %d", i)
		}
	}
	return resp, vectors, nil
}

// checkDimension pins the provider dimensionality on first use; every chunk
// in the system must carry vectors of the same length.
func (c *Client) checkDimension(vec []float32) error {
	if len(vec) == 0 {
		return errors.New("provider returned an empty vector")
	}
	c.dimMu.Lock()
	defer c.dimMu.Unlock()
	if c.dimension == 0 {
		c.dimension = len(vec)
		return nil
	}
	if len(vec) != c.dimension {
		return fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(vec), c.dimension)
	}
	return nil
}

type httpError struct {
	StatusCode int
	Body       string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("embedding provider http %d: %s", e.StatusCode, e.Body)
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrProviderAuth) || errors.Is(err, ErrMalformedInput) {
		return false
	}
	var httpErr *httpError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusRequestTimeout ||
			httpErr.StatusCode == http.StatusTooManyRequests ||
			httpErr.StatusCode >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// normalize collapses newlines to spaces; some embedding models are
// sensitive to them.
func normalize(text string) string {
	return strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", " "), "\n", " ")
}

func jitter(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	delta := 0.2 * base.Seconds()
	low := base.Seconds() - delta
	v := low + rand.Float64()*2*delta
	return time.Duration(v * float64(time.Second))
}

func truncateBody(raw []byte) string {
	const max = 256
	if len(raw) > max {
		return string(raw[:max]) + "..."
	}
	return string(raw)
}
