package embedding

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"github.com/hrtools/hr-matcher/internal/util"
)

const (
	defaultModel      = "all-minilm"
	defaultMaxRetries = 3
	baseRetryDelay    = time.Second
)

var wait = util.WaitFor

// Ollama is an Embedder backed by a local Ollama server.
type Ollama struct {
	client     *api.Client
	model      string
	maxRetries int
	logger     *zap.Logger
}

// NewOllama creates an embedder for the given server URL and model.
func NewOllama(rawURL, model string, logger *zap.Logger) (*Ollama, error) {
	if strings.TrimSpace(rawURL) == "" {
		rawURL = "http://localhost:11434"
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", rawURL, err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	client := api.NewClient(u, &http.Client{Timeout: 30 * time.Second})

	return &Ollama{
		client:     client,
		model:      model,
		maxRetries: defaultMaxRetries,
		logger:     logger,
	}, nil
}

// Embed requests an embedding vector for the text, retrying transient
// failures with exponential backoff.
func (o *Ollama) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("text to embed must not be empty")
	}

	req := &api.EmbeddingRequest{
		Model:  o.model,
		Prompt: text,
	}

	var lastErr error
	for attempt := 0; attempt < o.maxRetries; attempt++ {
		reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		resp, err := o.client.Embeddings(reqCtx, req)
		cancel()

		if err == nil {
			vector := make([]float32, len(resp.Embedding))
			for i, v := range resp.Embedding {
				vector[i] = float32(v)
			}
			return vector, nil
		}

		lastErr = err
		o.logger.Debug("embedding attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", o.maxRetries),
			zap.Error(err),
		)

		// No backoff after the last attempt, the error is final.
		if attempt == o.maxRetries-1 {
			break
		}

		delay := time.Duration(math.Pow(2, float64(attempt))) * baseRetryDelay
		if waitErr := wait(ctx, delay); waitErr != nil {
			return nil, waitErr
		}
	}

	return nil, fmt.Errorf("embedding failed after %d attempts: %w", o.maxRetries, lastErr)
}

// Model returns the embedding model name.
func (o *Ollama) Model() string {
	return o.model
}
