package gemini

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeModels struct {
	mu    sync.Mutex
	calls []modelCallRecord
	queue []fakeModelResponse
}

type modelCallRecord struct {
	model  string
	prompt string
	config *genai.GenerateContentConfig
}

type fakeModelResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

func newFakeModels() *fakeModels {
	return &fakeModels{}
}

func (f *fakeModels) enqueue(resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, fakeModelResponse{resp: resp, err: err})
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var prompt string
	for _, content := range contents {
		for _, part := range content.Parts {
			prompt += part.Text
		}
	}
	f.calls = append(f.calls, modelCallRecord{model: model, prompt: prompt, config: config})

	if len(f.queue) == 0 {
		return nil, genai.APIError{Code: http.StatusBadRequest, Status: "UNEXPECTED_CALL"}
	}
	res := f.queue[0]
	f.queue = f.queue[1:]
	return res.resp, res.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func TestGeneratorReturnsResponseText(t *testing.T) {
	fake := newFakeModels()
	fake.enqueue(textResponse("evaluation done"), nil)

	g := &Generator{
		models:     fake,
		model:      "gemini-2.0-flash-lite",
		maxRetries: 2,
		logger:     zap.NewNop(),
	}

	output, err := g.GenerateContent(context.Background(), "rate this resume", 0.3)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if output != "evaluation done" {
		t.Fatalf("unexpected output: %q", output)
	}

	if len(fake.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(fake.calls))
	}

	call := fake.calls[0]
	if call.prompt != "rate this resume" {
		t.Fatalf("unexpected prompt: %q", call.prompt)
	}
	if call.config == nil || call.config.Temperature == nil || *call.config.Temperature != 0.3 {
		t.Fatalf("expected temperature 0.3, got %+v", call.config)
	}
}

func TestGeneratorRetriesOnTemporaryError(t *testing.T) {
	originalSleep := sleep
	sleep = func(time.Duration) {}
	defer func() { sleep = originalSleep }()

	fake := newFakeModels()
	tempErr := genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}
	fake.enqueue(nil, tempErr)
	fake.enqueue(textResponse("retry ok"), nil)

	g := &Generator{
		models:     fake,
		model:      "gemini-2.0-flash-lite",
		maxRetries: 2,
		logger:     zap.NewNop(),
	}

	output, err := g.GenerateContent(context.Background(), "prompt", 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if output != "retry ok" {
		t.Fatalf("unexpected output: %q", output)
	}

	if len(fake.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(fake.calls))
	}
}

func TestGeneratorStopsAfterRetriesExhausted(t *testing.T) {
	originalSleep := sleep
	sleep = func(time.Duration) {}
	defer func() { sleep = originalSleep }()

	fake := newFakeModels()
	tempErr := genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED"}
	fake.enqueue(nil, tempErr)
	fake.enqueue(nil, tempErr)
	fake.enqueue(nil, tempErr)

	g := &Generator{
		models:     fake,
		model:      "gemini-2.0-flash-lite",
		maxRetries: 2,
		logger:     zap.NewNop(),
	}

	_, err := g.GenerateContent(context.Background(), "prompt", 0)
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}

	if len(fake.calls) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(fake.calls))
	}
}

func TestGeneratorDoesNotRetryOnClientError(t *testing.T) {
	fake := newFakeModels()
	fake.enqueue(nil, genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"})

	g := &Generator{
		models:     fake,
		model:      "gemini-2.0-flash-lite",
		maxRetries: 3,
		logger:     zap.NewNop(),
	}

	_, err := g.GenerateContent(context.Background(), "prompt", 0)
	if err == nil {
		t.Fatal("expected error on invalid request")
	}

	if len(fake.calls) != 1 {
		t.Fatalf("expected single call, got %d", len(fake.calls))
	}
}

func TestGeneratorRejectsEmptyPrompt(t *testing.T) {
	g := &Generator{
		models:     newFakeModels(),
		model:      "gemini-2.0-flash-lite",
		maxRetries: 1,
		logger:     zap.NewNop(),
	}

	if _, err := g.GenerateContent(context.Background(), "   ", 0); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}

func TestGeneratorRejectsEmptyResponse(t *testing.T) {
	fake := newFakeModels()
	fake.enqueue(&genai.GenerateContentResponse{}, nil)

	g := &Generator{
		models:     fake,
		model:      "gemini-2.0-flash-lite",
		maxRetries: 1,
		logger:     zap.NewNop(),
	}

	if _, err := g.GenerateContent(context.Background(), "prompt", 0); err == nil {
		t.Fatal("expected error for empty response")
	}
}
