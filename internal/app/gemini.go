package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNoCandidates marks a well-formed HTTP response that carries no usable
// reply. The orchestrator treats it the same as a transport failure.
var ErrNoCandidates = errors.New("generation response contained no candidates")

type GeminiClient struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

type generateRequest struct {
	Contents []generateContent `json:"contents"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generatePart struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []generatePart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewGeminiClient(apiKey, baseURL string) *GeminiClient {
	if baseURL == "" {
		baseURL = defaultGenerateURL
	}
	return &GeminiClient{
		APIKey:  apiKey,
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Generate runs one prompt through the generation service and returns the
// reply text. Single attempt, no retry: the caller surfaces the unanswered
// turn to the user instead of hiding latency behind retries.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	// Mock mode check
	if c.APIKey == "mock" || c.BaseURL == "mock://" {
		return c.mockGenerate(prompt)
	}

	if c.APIKey == "" {
		return "", errors.New("gemini api key is required")
	}
	payload, err := json.Marshal(generateRequest{
		Contents: []generateContent{{Parts: []generatePart{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("x-goog-api-key", c.APIKey)

	resp, err := c.HTTP.Do(request)
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read generation response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var errResp generateResponse
		_ = json.Unmarshal(bodyBytes, &errResp)
		if errResp.Error != nil && errResp.Error.Message != "" {
			return "", fmt.Errorf("generation api error: status %d, message: %s", resp.StatusCode, errResp.Error.Message)
		}
		return "", fmt.Errorf("generation api error: status %d, response: %s", resp.StatusCode, string(bodyBytes))
	}

	var genResp generateResponse
	if err := json.Unmarshal(bodyBytes, &genResp); err != nil {
		return "", fmt.Errorf("malformed generation response: %w", err)
	}
	if len(genResp.Candidates) == 0 {
		return "", ErrNoCandidates
	}

	var reply strings.Builder
	for _, part := range genResp.Candidates[0].Content.Parts {
		reply.WriteString(part.Text)
	}
	if reply.Len() == 0 {
		return "", ErrNoCandidates
	}
	return reply.String(), nil
}

// mockGenerate answers locally so the TUI runs without network or credential.
func (c *GeminiClient) mockGenerate(prompt string) (string, error) {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return "", ErrNoCandidates
	}
	return fmt.Sprintf("mock reply to %q", trimmed), nil
}
