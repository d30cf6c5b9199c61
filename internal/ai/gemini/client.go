// Package gemini implements the text generation contract on the Google
// GenAI API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/hrtools/hr-matcher/internal/logger"
	"github.com/hrtools/hr-matcher/internal/util"
)

const (
	defaultModel      = "gemini-2.0-flash-lite"
	defaultMaxRetries = 2
	retryDelay        = 2 * time.Second
	maxLogLength      = 200
)

var sleep = time.Sleep

// models is the slice of the genai client the generator depends on,
// extracted so tests can substitute a fake.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator wraps the Google GenAI client to provide simple prompt-based
// interactions with retry on transient API failures.
type Generator struct {
	models     models
	model      string
	maxRetries int
	logger     *zap.Logger
}

// NewGenerator creates a Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey, model string, log *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	if log == nil {
		log = zap.NewNop()
	}
	log = logger.WithFields(log, logger.CommonFields("gemini", model)...)

	return &Generator{
		models:     client.Models,
		model:      model,
		maxRetries: defaultMaxRetries,
		logger:     log,
	}, nil
}

// GenerateContent sends the prompt to Gemini and returns the concatenated
// textual response. Transient API errors are retried a bounded number of
// times.
func (g *Generator) GenerateContent(ctx context.Context, prompt string, temperature float32) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temperature),
	}

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Debug("retrying gemini request", zap.Int("attempt", attempt))
			sleep(retryDelay)
		}

		resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
		if err == nil {
			output := collectText(resp)
			if output == "" {
				return "", errors.New("gemini api returned empty response")
			}
			g.logger.Debug("gemini response", zap.String("output", util.TruncateForLog(output, maxLogLength)))
			return output, nil
		}

		lastErr = err
		if !isTransient(err) {
			return "", fmt.Errorf("generate content: %w", err)
		}

		g.logger.Warn("transient gemini error", zap.Error(err))
	}

	return "", fmt.Errorf("generate content after %d retries: %w", g.maxRetries, lastErr)
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func collectText(resp *genai.GenerateContentResponse) string {
	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}
	return strings.TrimSpace(builder.String())
}

// isTransient reports whether the error is worth retrying: server-side
// failures and throttling responses.
func isTransient(err error) bool {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
}
