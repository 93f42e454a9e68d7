package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/RishiKendai/argus/internal/models"
)

var languageNames = map[string]string{
	"py":   "Python",
	"java": "Java",
	"cpp":  "C++",
}

// RemoteAnalyzer reviews code through an OpenAI-style chat completions
// endpoint. Every failure mode is an explicit error; the caller decides
// whether to fall back.
type RemoteAnalyzer struct {
	apiURL     string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewRemoteAnalyzer(apiURL, apiKey, model string) *RemoteAnalyzer {
	return &RemoteAnalyzer{
		apiURL: apiURL,
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// remoteFeedback is the JSON shape the model is asked to return.
type remoteFeedback struct {
	Line     int    `json:"line"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Category string `json:"category"`
}

func (a *RemoteAnalyzer) Analyze(ctx context.Context, code, fileType string) ([]models.FeedbackItem, error) {
	language, ok := languageNames[fileType]
	if !ok {
		language = "code"
	}

	reqBody, err := json.Marshal(chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "user", Content: buildPrompt(language, fileType, code)},
		},
		Temperature: 0.3,
		MaxTokens:   2000,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.apiURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("response contains no choices")
	}

	content := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	var feedback []remoteFeedback
	if err := json.Unmarshal([]byte(content), &feedback); err != nil {
		return nil, fmt.Errorf("model returned malformed feedback: %w", err)
	}

	items := make([]models.FeedbackItem, 0, len(feedback))
	for _, f := range feedback {
		line := f.Line
		if line < 1 {
			line = 1
		}
		items = append(items, models.FeedbackItem{
			Line:     line,
			Severity: normalizeSeverity(f.Severity),
			Category: f.Category,
			Message:  f.Message,
			Source:   SourceRemote,
		})
	}

	return items, nil
}

func buildPrompt(language, fileType, code string) string {
	return fmt.Sprintf(`Review this %s code and provide feedback in JSON format.
Return an array of feedback objects with these fields:
- "line": line number (int)
- "severity": "critical", "warning", or "suggestion"
- "message": feedback text (string)
- "category": "style", "logic", "performance", or "best_practice"

Focus on:
- Code style and formatting
- Potential bugs or logic issues
- Performance improvements
- Best practices for %s

Code to review:
`+"```%s\n%s\n```"+`

Return only valid JSON array, no other text.`, language, language, fileType, code)
}

// normalizeSeverity maps free-form model output onto the known severities.
func normalizeSeverity(severity string) models.Severity {
	switch models.Severity(strings.ToLower(severity)) {
	case models.SeverityCritical:
		return models.SeverityCritical
	case models.SeverityWarning:
		return models.SeverityWarning
	default:
		return models.SeveritySuggestion
	}
}
