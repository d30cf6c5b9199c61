package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client scores text pairs against an HTTP cross-encoder service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type scoreRequest struct {
	TextA string `json:"text_a"`
	TextB string `json:"text_b"`
}

type scoreResponse struct {
	Score float64 `json:"score"`
}

// NewClient creates a pair scorer talking to the given base URL.
func NewClient(baseURL string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "http://localhost:8501"
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Score sends the pair to the cross-encoder and returns its raw logit.
func (c *Client) Score(ctx context.Context, textA, textB string) (float64, error) {
	body, err := json.Marshal(scoreRequest{TextA: textA, TextB: textB})
	if err != nil {
		return 0, fmt.Errorf("marshal score request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/score", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create score request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("send score request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("cross-encoder error (status %d): %s", resp.StatusCode, payload)
	}

	var parsed scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("decode score response: %w", err)
	}

	return parsed.Score, nil
}
