package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pds-ultimate/research/internal/domain"
)

const (
	deepSeekChatURL = "https://api.deepseek.com/chat/completions"
	deepSeekModel   = "deepseek-chat"
	requestTimeout  = 60 * time.Second
)

type DeepSeekClient struct {
	apiKey     string
	httpClient *http.Client
}

func NewDeepSeekClient(apiKey string) *DeepSeekClient {
	return &DeepSeekClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// chat types for the OpenAI-compatible DeepSeek API
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *DeepSeekClient) complete(ctx context.Context, messages []chatMessage, temp float32) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       deepSeekModel,
		Messages:    messages,
		Temperature: temp,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, deepSeekChatURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("unmarshal chat response: %w", err)
	}

	if result.Error != nil {
		return "", fmt.Errorf("chat API error: %s", result.Error.Message)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("chat API returned no choices")
	}

	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

// stripFences removes markdown code fences the model sometimes wraps
// JSON responses in.
func stripFences(s string) string {
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func (c *DeepSeekClient) Answer(ctx context.Context, query, contextText string) (*domain.Answer, error) {
	if contextText == "" {
		contextText = "(none)"
	}
	messages := []chatMessage{
		{Role: "user", Content: fmt.Sprintf(answerPrompt, contextText, query)},
	}

	result, err := c.complete(ctx, messages, 0.3)
	if err != nil {
		return nil, fmt.Errorf("answer: %w", err)
	}

	result = stripFences(result)

	var answer domain.Answer
	if err := json.Unmarshal([]byte(result), &answer); err != nil {
		// Non-JSON output is still a usable answer, just unsourced.
		return &domain.Answer{Text: result}, nil
	}
	return &answer, nil
}

func (c *DeepSeekClient) ExtractClaims(ctx context.Context, answer string) ([]string, error) {
	messages := []chatMessage{
		{Role: "user", Content: fmt.Sprintf(extractClaimsPrompt, answer)},
	}

	result, err := c.complete(ctx, messages, 0.2)
	if err != nil {
		return nil, fmt.Errorf("extract claims: %w", err)
	}

	result = stripFences(result)

	var claims []string
	if err := json.Unmarshal([]byte(result), &claims); err != nil {
		return nil, fmt.Errorf("parse claims result: %w (raw: %s)", err, result)
	}
	return claims, nil
}

type verifyResponse struct {
	Verdict         string   `json:"verdict"`
	Confidence      float64  `json:"confidence"`
	EvidenceFor     []string `json:"evidence_for"`
	EvidenceAgainst []string `json:"evidence_against"`
	Reason          string   `json:"reason"`
}

func (c *DeepSeekClient) VerifyHypothesis(ctx context.Context, h domain.Hypothesis) (domain.Hypothesis, error) {
	sources := strings.Join(h.Sources, ", ")
	if sources == "" {
		sources = "(none)"
	}
	messages := []chatMessage{
		{Role: "user", Content: fmt.Sprintf(verifyHypothesisPrompt, h.Statement, sources)},
	}

	result, err := c.complete(ctx, messages, 0)
	if err != nil {
		return h, fmt.Errorf("verify hypothesis: %w", err)
	}

	result = stripFences(result)

	var verdict verifyResponse
	if err := json.Unmarshal([]byte(result), &verdict); err != nil {
		return h, fmt.Errorf("parse verify result: %w (raw: %s)", err, result)
	}

	switch verdict.Verdict {
	case "confirmed":
		h.Status = domain.HypothesisConfirmed
	case "refuted":
		h.Status = domain.HypothesisRefuted
	default:
		h.Status = domain.HypothesisUncertain
	}
	h.Confidence = verdict.Confidence
	h.EvidenceFor = verdict.EvidenceFor
	h.EvidenceAgainst = verdict.EvidenceAgainst
	h.CheckResult = verdict.Reason
	return h, nil
}
