package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kbforge/kbforge/pkg/logger"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-2.5-pro"
	defaultTimeout = 120 * time.Second
)

// GeminiOptions configures the Gemini client. Zero values fall back to the
// public endpoint and the default model.
type GeminiOptions struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
}

// GeminiClient calls the generateContent endpoint of the Google Generative
// Language API.
type GeminiClient struct {
	hc     *http.Client
	url    string
	apiKey string
	model  string
	logger logger.Logger
}

func NewGeminiClient(opts GeminiOptions, log logger.Logger) (*GeminiClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini: missing api key")
	}
	base := opts.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	model := opts.Model
	if model == "" {
		model = defaultModel
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	endpoint := strings.TrimRight(base, "/") + "/v1beta/models/" + url.PathEscape(model) + ":generateContent"
	return &GeminiClient{
		hc:     &http.Client{Timeout: timeout},
		url:    endpoint,
		apiKey: opts.APIKey,
		model:  model,
		logger: log,
	}, nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *GeminiClient) Invoke(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(&geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("gemini: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	c.logger.Debug("invoking gemini",
		logger.String("model", c.model),
		logger.Int("promptLen", len(prompt)),
	)

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("gemini: upstream status %d: %s", resp.StatusCode, strings.TrimSpace(string(slurp)))
	}

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: response contains no candidates")
	}
	text := gr.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini: response contains no text")
	}
	return text, nil
}
