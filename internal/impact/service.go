package impact

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/policy-whisperer/backend/internal/llm"
	"github.com/policy-whisperer/backend/internal/metrics"
	"github.com/policy-whisperer/backend/internal/storage/models"
	"github.com/policy-whisperer/backend/pkg/logger"
)

// Legislation content budget per analysis call.
const maxContentLength = 8000

// Completer is the LLM surface the service needs.
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error)
}

// Store is the persistence surface the service needs.
type Store interface {
	GetLegislation(id string) (*models.Legislation, error)
	UpsertImpact(impact *models.LegislationImpact) error
}

// Result is one state's analysis. Fallback marks a synthesized result: the
// classification was invented locally, not produced by the model.
type Result struct {
	StateCode   string             `json:"stateCode"`
	ImpactLevel models.ImpactLevel `json:"impact_level"`
	Summary     string             `json:"summary"`
	Details     string             `json:"details"`
	Fallback    bool               `json:"fallback"`
}

type Service struct {
	store Store
	llm   Completer
}

func NewService(store Store, completer Completer) *Service {
	return &Service{store: store, llm: completer}
}

// Analyze runs impact analysis for one legislation record. With an explicit
// stateCode only that state is analyzed; otherwise federal legislation gets
// the default sample and state-level legislation resolves its own state.
// Returned results preserve target order. When storeResults is set each
// result is upserted, one row per (legislation, state).
func (s *Service) Analyze(ctx context.Context, legislationID, stateCode string, storeResults bool) ([]Result, error) {
	leg, err := s.store.GetLegislation(legislationID)
	if err != nil {
		return nil, err
	}

	targets := s.resolveTargets(leg, stateCode)
	if len(targets) == 0 {
		logger.Warn("No analyzable states for legislation",
			zap.String("legislation_id", legislationID),
			zap.String("state", leg.State),
		)
		return []Result{}, nil
	}

	logger.Info("Analyzing legislation impact",
		zap.String("legislation_id", legislationID),
		zap.Strings("states", targets),
	)

	// One slot per state: goroutines are write-isolated and a single state's
	// failure degrades to its own fallback.
	results := make([]Result, len(targets))
	var wg sync.WaitGroup

	for i, code := range targets {
		wg.Add(1)
		go func(i int, code string) {
			defer wg.Done()
			results[i] = s.analyzeState(ctx, leg, code)
		}(i, code)
	}

	wg.Wait()

	if storeResults {
		for _, r := range results {
			err := s.store.UpsertImpact(&models.LegislationImpact{
				LegislationID: legislationID,
				StateCode:     r.StateCode,
				ImpactLevel:   r.ImpactLevel,
				Summary:       r.Summary,
				Details:       r.Details,
				IsFallback:    r.Fallback,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to store impact for %s: %w", r.StateCode, err)
			}
		}
	}

	return results, nil
}

func (s *Service) resolveTargets(leg *models.Legislation, stateCode string) []string {
	if stateCode != "" {
		return []string{strings.ToUpper(stateCode)}
	}

	if leg.Level == models.LevelState {
		code, ok := ResolveStateCode(leg.State)
		if !ok {
			return nil
		}
		return []string{code}
	}

	return SampleStates
}

func (s *Service) analyzeState(ctx context.Context, leg *models.Legislation, stateCode string) Result {
	stateName := StateName(stateCode)

	truncated := leg.Content
	if len(truncated) > maxContentLength {
		truncated = truncated[:maxContentLength] + "..."
	}

	systemPrompt := fmt.Sprintf(`You are an AI specialized in analyzing the potential impact of legislation on different states.
For the given legislation, analyze its potential impact on %s (%s).
Consider economic, social, environmental, and legal factors specific to %s.
Respond in JSON format with the following structure:
{
  "impactLevel": "high", "medium", "low", "neutral", or "unknown",
  "summary": "A brief one-sentence overview of the impact",
  "details": "A paragraph with more detailed analysis of how this legislation would impact %s specifically"
}`, stateName, stateCode, stateName, stateName)

	userPrompt := fmt.Sprintf("Legislation Title: %s\n\nContent: %s", leg.Title, truncated)

	resp, err := s.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		MaxTokens:    800,
		JSONMode:     true,
	})
	if err != nil {
		logger.Warn("Impact analysis LLM call failed, synthesizing fallback",
			zap.String("state_code", stateCode),
			zap.Error(err),
		)
		metrics.ImpactAnalyses.WithLabelValues("fallback").Inc()
		return mockResult(stateCode, stateName)
	}

	result, ok := parseImpact(resp.Content, stateCode, stateName)
	if !ok {
		logger.Warn("Failed to parse impact analysis output, synthesizing fallback",
			zap.String("state_code", stateCode),
		)
		metrics.ImpactAnalyses.WithLabelValues("fallback").Inc()
		return mockResult(stateCode, stateName)
	}

	metrics.ImpactAnalyses.WithLabelValues("ok").Inc()
	return result
}

// parseImpact walks the parsing ladder: direct/brace-extracted JSON object,
// then per-field regex scraping from prose.
func parseImpact(content, stateCode, stateName string) (Result, bool) {
	var parsed struct {
		ImpactLevel      string `json:"impactLevel"`
		ImpactLevelSnake string `json:"impact_level"`
		Summary          string `json:"summary"`
		Details          string `json:"details"`
	}

	if llm.DecodeObject(content, &parsed) {
		level := parsed.ImpactLevel
		if level == "" {
			level = parsed.ImpactLevelSnake
		}
		return Result{
			StateCode:   stateCode,
			ImpactLevel: normalizeLevel(level),
			Summary:     defaultString(parsed.Summary, fmt.Sprintf("Impact analysis for %s is available.", stateName)),
			Details:     defaultString(parsed.Details, fmt.Sprintf("Detailed impact analysis for %s is available upon request.", stateName)),
		}, true
	}

	level, levelOK := llm.ExtractField(content, "impactLevel")
	if !levelOK {
		level, levelOK = llm.ExtractField(content, "impact_level")
	}
	summaryText, summaryOK := llm.ExtractField(content, "summary")
	details, detailsOK := llm.ExtractField(content, "details")

	if !levelOK && !summaryOK && !detailsOK {
		return Result{}, false
	}

	return Result{
		StateCode:   stateCode,
		ImpactLevel: normalizeLevel(level),
		Summary:     defaultString(summaryText, fmt.Sprintf("Impact analysis for %s is available.", stateName)),
		Details:     defaultString(details, fmt.Sprintf("Detailed impact analysis for %s is available upon request.", stateName)),
	}, true
}

var mockLevels = []models.ImpactLevel{
	models.ImpactHigh,
	models.ImpactMedium,
	models.ImpactLow,
	models.ImpactNeutral,
}

// mockResult invents a classification so the pipeline still produces
// structured output; Fallback distinguishes it from a model result.
func mockResult(stateCode, stateName string) Result {
	return Result{
		StateCode:   stateCode,
		ImpactLevel: mockLevels[rand.Intn(len(mockLevels))],
		Summary:     fmt.Sprintf("Unable to analyze impact for %s at this time.", stateName),
		Details:     fmt.Sprintf("Technical issues prevented a detailed analysis for %s. Please try again later.", stateName),
		Fallback:    true,
	}
}

func normalizeLevel(level string) models.ImpactLevel {
	switch models.ImpactLevel(strings.ToLower(strings.TrimSpace(level))) {
	case models.ImpactHigh:
		return models.ImpactHigh
	case models.ImpactMedium:
		return models.ImpactMedium
	case models.ImpactLow:
		return models.ImpactLow
	case models.ImpactNeutral:
		return models.ImpactNeutral
	default:
		return models.ImpactUnknown
	}
}

func defaultString(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
