package summary

import (
	"context"

	"go.uber.org/zap"

	"github.com/policy-whisperer/backend/internal/llm"
	"github.com/policy-whisperer/backend/internal/metrics"
	"github.com/policy-whisperer/backend/pkg/logger"
)

// Input budget for one summarization call; longer documents are truncated
// with an explicit marker.
const maxInputLength = 15000

const systemPrompt = `You are an AI specialized in analyzing policy documents and extracting key information.
For the given policy document, provide the following in JSON format:
1. keySummary: A concise 2-3 sentence executive summary of the policy's main purpose
2. keyPoints: An array of 4-5 specific key provisions or requirements in the policy
3. localImpact: A paragraph on how this policy might affect local economies or communities
4. demographicImpact: A paragraph on how different demographic groups might be affected differently`

// Completer is the LLM surface the service needs.
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
}

type Result struct {
	KeySummary        string   `json:"keySummary"`
	KeyPoints         []string `json:"keyPoints"`
	LocalImpact       string   `json:"localImpact"`
	DemographicImpact string   `json:"demographicImpact"`
}

type Service struct {
	llm Completer
}

func NewService(completer Completer) *Service {
	return &Service{llm: completer}
}

// Summarize never fails: an unreachable model or unparsable output degrades
// to the canned fallback for that failure kind so ingestion always produces
// a structured summary.
func (s *Service) Summarize(ctx context.Context, content string) Result {
	truncated := content
	if len(truncated) > maxInputLength {
		truncated = truncated[:maxInputLength] + "..."
	}

	resp, err := s.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   truncated,
		MaxTokens:    1000,
		JSONMode:     true,
	})
	if err != nil {
		logger.Warn("Summarization LLM call failed, using fallback", zap.Error(err))
		metrics.SummaryFallbacks.WithLabelValues(string(FallbackUnavailable)).Inc()
		return Fallbacks[FallbackUnavailable]
	}

	var parsed Result
	if !llm.DecodeObject(resp.Content, &parsed) {
		logger.Warn("Failed to parse summarization output, using fallback",
			zap.Int("content_length", len(resp.Content)),
		)
		metrics.SummaryFallbacks.WithLabelValues(string(FallbackParse)).Inc()
		return Fallbacks[FallbackParse]
	}

	fillMissingFields(&parsed)

	logger.Info("Document summarized",
		zap.Int("key_points", len(parsed.KeyPoints)),
		zap.Int("summary_length", len(parsed.KeySummary)),
	)

	return parsed
}

func fillMissingFields(r *Result) {
	if r.KeySummary == "" {
		r.KeySummary = fieldFallbacks.KeySummary
	}
	if len(r.KeyPoints) == 0 {
		r.KeyPoints = fieldFallbacks.KeyPoints
	}
	if r.LocalImpact == "" {
		r.LocalImpact = fieldFallbacks.LocalImpact
	}
	if r.DemographicImpact == "" {
		r.DemographicImpact = fieldFallbacks.DemographicImpact
	}
}
