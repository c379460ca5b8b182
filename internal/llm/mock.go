package llm

import (
	"context"

	"github.com/pds-ultimate/research/internal/domain"
)

// MockClient is a configurable LLM client for testing.
// Set the response fields to control what each method returns.
type MockClient struct {
	AnswerResponse        *domain.Answer
	AnswerError           error
	ExtractClaimsResponse []string
	ExtractClaimsError    error
	VerifyFunc            func(h domain.Hypothesis) (domain.Hypothesis, error)
	VerifyError           error

	// Call tracking for assertions
	AnswerCalls        []string
	ExtractClaimsCalls []string
	VerifyCalls        []domain.Hypothesis
}

func NewMockClient() *MockClient {
	return &MockClient{
		AnswerResponse: &domain.Answer{
			Text:    "Mock answer with enough length to pass gap analysis checks.",
			Sources: []string{"mock-source"},
		},
		ExtractClaimsResponse: []string{},
	}
}

func (c *MockClient) Answer(ctx context.Context, query, contextText string) (*domain.Answer, error) {
	c.AnswerCalls = append(c.AnswerCalls, query)
	if c.AnswerError != nil {
		return nil, c.AnswerError
	}
	return c.AnswerResponse, nil
}

func (c *MockClient) ExtractClaims(ctx context.Context, answer string) ([]string, error) {
	c.ExtractClaimsCalls = append(c.ExtractClaimsCalls, answer)
	if c.ExtractClaimsError != nil {
		return nil, c.ExtractClaimsError
	}
	return c.ExtractClaimsResponse, nil
}

func (c *MockClient) VerifyHypothesis(ctx context.Context, h domain.Hypothesis) (domain.Hypothesis, error) {
	c.VerifyCalls = append(c.VerifyCalls, h)
	if c.VerifyError != nil {
		return h, c.VerifyError
	}
	if c.VerifyFunc != nil {
		return c.VerifyFunc(h)
	}
	h.Status = domain.HypothesisConfirmed
	h.Confidence = 0.8
	return h, nil
}

// Reset clears all recorded calls and resets responses to defaults.
func (c *MockClient) Reset() {
	c.AnswerResponse = &domain.Answer{
		Text:    "Mock answer with enough length to pass gap analysis checks.",
		Sources: []string{"mock-source"},
	}
	c.AnswerError = nil
	c.ExtractClaimsResponse = []string{}
	c.ExtractClaimsError = nil
	c.VerifyFunc = nil
	c.VerifyError = nil
	c.AnswerCalls = nil
	c.ExtractClaimsCalls = nil
	c.VerifyCalls = nil
}
