package impact

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policy-whisperer/backend/internal/llm"
	"github.com/policy-whisperer/backend/internal/storage/models"
)

type stubCompleter struct {
	mu        sync.Mutex
	response  string
	err       error
	callCount int
}

func (s *stubCompleter) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.mu.Lock()
	s.callCount++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &llm.CompletionResponse{Content: s.response}, nil
}

type fakeStore struct {
	mu          sync.Mutex
	legislation map[string]*models.Legislation
	impacts     map[string]*models.LegislationImpact
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		legislation: make(map[string]*models.Legislation),
		impacts:     make(map[string]*models.LegislationImpact),
	}
}

func (f *fakeStore) GetLegislation(id string) (*models.Legislation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	leg, ok := f.legislation[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return leg, nil
}

func (f *fakeStore) UpsertImpact(impact *models.LegislationImpact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.impacts[impact.LegislationID+"/"+impact.StateCode] = impact
	return nil
}

func federalBill(store *fakeStore) *models.Legislation {
	leg := &models.Legislation{
		ID:      "leg-1",
		Title:   "Interstate Commerce Modernization Act",
		Level:   models.LevelFederal,
		Content: "The act revises interstate commerce reporting requirements.",
	}
	store.legislation[leg.ID] = leg
	return leg
}

func TestAnalyze_FederalDefaultsToSampleStates(t *testing.T) {
	store := newFakeStore()
	federalBill(store)
	stub := &stubCompleter{response: `{"impactLevel":"medium","summary":"Moderate effect.","details":"Reporting burden shifts to state agencies."}`}

	service := NewService(store, stub)
	results, err := service.Analyze(context.Background(), "leg-1", "", false)
	require.NoError(t, err)

	require.Len(t, results, len(SampleStates))
	for i, r := range results {
		assert.Equal(t, SampleStates[i], r.StateCode, "results must preserve target order")
		assert.Equal(t, models.ImpactMedium, r.ImpactLevel)
		assert.False(t, r.Fallback)
	}
	assert.Equal(t, len(SampleStates), stub.callCount)
	assert.Empty(t, store.impacts, "storeResults=false must not persist")
}

func TestAnalyze_ExplicitStateOverridesSample(t *testing.T) {
	store := newFakeStore()
	federalBill(store)
	stub := &stubCompleter{response: `{"impactLevel":"high","summary":"s","details":"d"}`}

	service := NewService(store, stub)
	results, err := service.Analyze(context.Background(), "leg-1", "wa", false)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "WA", results[0].StateCode)
}

func TestAnalyze_StateLevelResolvesOwnState(t *testing.T) {
	store := newFakeStore()
	store.legislation["leg-2"] = &models.Legislation{
		ID:      "leg-2",
		Title:   "Texas Grid Reliability Act",
		Level:   models.LevelState,
		State:   "Texas",
		Content: "Requires winterization of generation facilities.",
	}
	stub := &stubCompleter{response: `{"impactLevel":"high","summary":"s","details":"d"}`}

	service := NewService(store, stub)
	results, err := service.Analyze(context.Background(), "leg-2", "", false)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "TX", results[0].StateCode)
}

func TestAnalyze_UnrecognizedStateYieldsNoResults(t *testing.T) {
	store := newFakeStore()
	store.legislation["leg-3"] = &models.Legislation{
		ID:      "leg-3",
		Title:   "Provincial Act",
		Level:   models.LevelState,
		State:   "Ontario",
		Content: "Not a US jurisdiction.",
	}

	service := NewService(store, &stubCompleter{})
	results, err := service.Analyze(context.Background(), "leg-3", "", false)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestAnalyze_LLMFailureSynthesizesFallbacks(t *testing.T) {
	store := newFakeStore()
	federalBill(store)
	stub := &stubCompleter{err: errors.New("model overloaded")}

	service := NewService(store, stub)
	results, err := service.Analyze(context.Background(), "leg-1", "", true)
	require.NoError(t, err, "a failed model call degrades, it does not error")

	require.Len(t, results, len(SampleStates))
	for _, r := range results {
		assert.True(t, r.Fallback, "synthesized results must be flagged")
		assert.NotEmpty(t, r.Summary)
		assert.NotEmpty(t, r.Details)
		assert.Contains(t, []models.ImpactLevel{
			models.ImpactHigh, models.ImpactMedium, models.ImpactLow, models.ImpactNeutral,
		}, r.ImpactLevel)
	}

	require.Len(t, store.impacts, len(SampleStates))
	for _, stored := range store.impacts {
		assert.True(t, stored.IsFallback)
	}
}

func TestAnalyze_StoreResultsPersistsPerState(t *testing.T) {
	store := newFakeStore()
	federalBill(store)
	stub := &stubCompleter{response: `{"impactLevel":"low","summary":"s","details":"d"}`}

	service := NewService(store, stub)
	_, err := service.Analyze(context.Background(), "leg-1", "CA", true)
	require.NoError(t, err)

	stored, ok := store.impacts["leg-1/CA"]
	require.True(t, ok)
	assert.Equal(t, models.ImpactLow, stored.ImpactLevel)
	assert.False(t, stored.IsFallback)
}

func TestAnalyze_UnknownLegislation(t *testing.T) {
	service := NewService(newFakeStore(), &stubCompleter{})

	_, err := service.Analyze(context.Background(), "missing", "", false)
	assert.Error(t, err)
}

func TestParseImpact_DirectJSON(t *testing.T) {
	result, ok := parseImpact(`{"impactLevel":"High","summary":"Big shift.","details":"Long form."}`, "CA", "California")
	require.True(t, ok)
	assert.Equal(t, models.ImpactHigh, result.ImpactLevel)
	assert.Equal(t, "Big shift.", result.Summary)
}

func TestParseImpact_SnakeCaseLevel(t *testing.T) {
	result, ok := parseImpact(`{"impact_level":"neutral","summary":"s","details":"d"}`, "CA", "California")
	require.True(t, ok)
	assert.Equal(t, models.ImpactNeutral, result.ImpactLevel)
}

func TestParseImpact_ScrapesFieldsFromProse(t *testing.T) {
	content := `Sure! The "impactLevel": "medium" classification fits, with "summary": "Moderate burden." overall.`

	result, ok := parseImpact(content, "NY", "New York")
	require.True(t, ok)
	assert.Equal(t, models.ImpactMedium, result.ImpactLevel)
	assert.Equal(t, "Moderate burden.", result.Summary)
	assert.NotEmpty(t, result.Details, "missing fields get defaults")
}

func TestParseImpact_NothingUsable(t *testing.T) {
	_, ok := parseImpact("I cannot analyze this.", "NY", "New York")
	assert.False(t, ok)
}

func TestParseImpact_UnknownLevelNormalized(t *testing.T) {
	result, ok := parseImpact(`{"impactLevel":"catastrophic","summary":"s","details":"d"}`, "CA", "California")
	require.True(t, ok)
	assert.Equal(t, models.ImpactUnknown, result.ImpactLevel)
}
