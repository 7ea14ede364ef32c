package summary

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policy-whisperer/backend/internal/llm"
)

type stubCompleter struct {
	response string
	err      error
	lastReq  llm.CompletionRequest
}

func (s *stubCompleter) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &llm.CompletionResponse{Content: s.response}, nil
}

func TestSummarize_ValidResponse(t *testing.T) {
	stub := &stubCompleter{response: `{
		"keySummary": "Funds broadband expansion in rural counties.",
		"keyPoints": ["Grant program", "County matching funds", "Annual reporting"],
		"localImpact": "Rural counties gain infrastructure funding.",
		"demographicImpact": "Benefits concentrate in low-density areas."
	}`}

	service := NewService(stub)
	result := service.Summarize(context.Background(), "Full text of the broadband act.")

	assert.Equal(t, "Funds broadband expansion in rural counties.", result.KeySummary)
	assert.Len(t, result.KeyPoints, 3)
	assert.Equal(t, "Rural counties gain infrastructure funding.", result.LocalImpact)
	assert.Equal(t, "Benefits concentrate in low-density areas.", result.DemographicImpact)

	assert.True(t, stub.lastReq.JSONMode)
	assert.Equal(t, "Full text of the broadband act.", stub.lastReq.UserPrompt)
}

func TestSummarize_LLMFailureUsesUnavailableFallback(t *testing.T) {
	stub := &stubCompleter{err: errors.New("connection refused")}

	service := NewService(stub)
	result := service.Summarize(context.Background(), "Some policy text.")

	assert.Equal(t, Fallbacks[FallbackUnavailable], result)
}

func TestSummarize_UnparsableOutputUsesParseFallback(t *testing.T) {
	stub := &stubCompleter{response: "I am unable to format this as requested."}

	service := NewService(stub)
	result := service.Summarize(context.Background(), "Some policy text.")

	assert.Equal(t, Fallbacks[FallbackParse], result)
}

func TestSummarize_FencedJSONStillParses(t *testing.T) {
	stub := &stubCompleter{response: "```json\n{\"keySummary\":\"Fenced summary.\",\"keyPoints\":[\"p1\"],\"localImpact\":\"li\",\"demographicImpact\":\"di\"}\n```"}

	service := NewService(stub)
	result := service.Summarize(context.Background(), "text")

	assert.Equal(t, "Fenced summary.", result.KeySummary)
}

func TestSummarize_MissingFieldsFilled(t *testing.T) {
	stub := &stubCompleter{response: `{"keySummary": "Only a summary came back."}`}

	service := NewService(stub)
	result := service.Summarize(context.Background(), "text")

	assert.Equal(t, "Only a summary came back.", result.KeySummary)
	require.NotEmpty(t, result.KeyPoints)
	assert.NotEmpty(t, result.LocalImpact)
	assert.NotEmpty(t, result.DemographicImpact)
}

func TestSummarize_TruncatesLongInput(t *testing.T) {
	stub := &stubCompleter{response: `{"keySummary":"s","keyPoints":["p"],"localImpact":"l","demographicImpact":"d"}`}

	service := NewService(stub)
	service.Summarize(context.Background(), strings.Repeat("x", maxInputLength+500))

	assert.Len(t, stub.lastReq.UserPrompt, maxInputLength+3)
	assert.True(t, strings.HasSuffix(stub.lastReq.UserPrompt, "..."))
}
