package sqlite

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policy-whisperer/backend/internal/storage/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	require.NoError(t, client.InitSchema())
	return client
}

func TestDocumentRoundTrip(t *testing.T) {
	client := newTestClient(t)

	doc := &models.PolicyDocument{
		Title:             "Clean Energy Standard",
		Content:           "Utilities must reach 80% clean generation by 2035.",
		SourceType:        models.SourceURL,
		SourceReference:   "https://example.gov/ces",
		KeySummary:        "Sets a clean generation target.",
		KeyPoints:         []string{"80% by 2035", "Annual compliance filings"},
		LocalImpact:       "Utility rates may shift.",
		DemographicImpact: "Rural co-ops face higher costs.",
	}

	require.NoError(t, client.CreateDocument(doc))
	require.NotEmpty(t, doc.ID, "insert assigns an id")
	require.False(t, doc.CreatedAt.IsZero())

	got, err := client.GetDocument(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Title, got.Title)
	assert.Equal(t, doc.Content, got.Content)
	assert.Equal(t, models.SourceURL, got.SourceType)
	assert.Equal(t, doc.SourceReference, got.SourceReference)
	assert.Equal(t, doc.KeyPoints, got.KeyPoints)
	assert.Equal(t, doc.DemographicImpact, got.DemographicImpact)
}

func TestGetDocument_NotFound(t *testing.T) {
	client := newTestClient(t)

	_, err := client.GetDocument("no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConversationRoundTrip(t *testing.T) {
	client := newTestClient(t)

	doc := &models.PolicyDocument{Title: "t", Content: "c", SourceType: models.SourceText}
	require.NoError(t, client.CreateDocument(doc))

	conv := &models.Conversation{PolicyDocumentID: doc.ID, Title: "Initial Conversation"}
	require.NoError(t, client.CreateConversation(conv))

	got, err := client.GetConversation(conv.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.PolicyDocumentID)
	assert.Equal(t, "Initial Conversation", got.Title)

	_, err = client.GetConversation("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConversationRequiresDocument(t *testing.T) {
	client := newTestClient(t)

	err := client.CreateConversation(&models.Conversation{
		PolicyDocumentID: "nonexistent-document",
		Title:            "orphan",
	})
	assert.Error(t, err, "foreign keys are enforced")
}

func TestListRecentMessages_WindowAndOrder(t *testing.T) {
	client := newTestClient(t)

	doc := &models.PolicyDocument{Title: "t", Content: "c", SourceType: models.SourceText}
	require.NoError(t, client.CreateDocument(doc))
	conv := &models.Conversation{PolicyDocumentID: doc.ID, Title: "t"}
	require.NoError(t, client.CreateConversation(conv))

	for i := 0; i < 15; i++ {
		sender := models.SenderUser
		if i%2 == 1 {
			sender = models.SenderAI
		}
		require.NoError(t, client.CreateMessage(&models.Message{
			ConversationID: conv.ID,
			Content:        fmt.Sprintf("message %d", i),
			Sender:         sender,
		}))
	}

	messages, err := client.ListRecentMessages(conv.ID, 10)
	require.NoError(t, err)
	require.Len(t, messages, 10, "window keeps only the newest N")

	// Window covers the newest 10, replayed oldest-first.
	assert.Equal(t, "message 5", messages[0].Content)
	assert.Equal(t, "message 14", messages[9].Content)
	for i := 1; i < len(messages); i++ {
		assert.True(t, messages[i].CreatedAt.After(messages[i-1].CreatedAt),
			"messages must be strictly ordered")
	}
}

func TestListRecentMessages_EmptyConversation(t *testing.T) {
	client := newTestClient(t)

	doc := &models.PolicyDocument{Title: "t", Content: "c", SourceType: models.SourceText}
	require.NoError(t, client.CreateDocument(doc))
	conv := &models.Conversation{PolicyDocumentID: doc.ID, Title: "t"}
	require.NoError(t, client.CreateConversation(conv))

	messages, err := client.ListRecentMessages(conv.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestLegislationRoundTrip(t *testing.T) {
	client := newTestClient(t)

	leg := &models.Legislation{
		Title:       "Water Rights Compact",
		Description: "Interstate allocation agreement.",
		Level:       models.LevelState,
		State:       "Colorado",
		SourceURL:   "https://example.gov/compact",
		Content:     "Allocates basin flows among signatory states.",
	}
	require.NoError(t, client.CreateLegislation(leg))

	got, err := client.GetLegislation(leg.ID)
	require.NoError(t, err)
	assert.Equal(t, leg.Title, got.Title)
	assert.Equal(t, leg.Description, got.Description)
	assert.Equal(t, models.LevelState, got.Level)
	assert.Equal(t, "Colorado", got.State)
	assert.Equal(t, leg.Content, got.Content)

	records, err := client.ListLegislation()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, leg.ID, records[0].ID)
}

func TestUpsertImpact_SecondWriteReplacesFirst(t *testing.T) {
	client := newTestClient(t)

	leg := &models.Legislation{Title: "t", Level: models.LevelFederal, Content: "c"}
	require.NoError(t, client.CreateLegislation(leg))

	first := &models.LegislationImpact{
		LegislationID: leg.ID,
		StateCode:     "CA",
		ImpactLevel:   models.ImpactUnknown,
		Summary:       "placeholder",
		Details:       "placeholder",
		IsFallback:    true,
	}
	require.NoError(t, client.UpsertImpact(first))

	second := &models.LegislationImpact{
		LegislationID: leg.ID,
		StateCode:     "CA",
		ImpactLevel:   models.ImpactHigh,
		Summary:       "real analysis",
		Details:       "real details",
		UpdatedAt:     first.UpdatedAt.Add(time.Second),
	}
	require.NoError(t, client.UpsertImpact(second))

	impacts, err := client.ListImpacts(leg.ID)
	require.NoError(t, err)
	require.Len(t, impacts, 1, "same (legislation, state) pair stays a single row")

	got := impacts[0]
	assert.Equal(t, models.ImpactHigh, got.ImpactLevel)
	assert.Equal(t, "real analysis", got.Summary)
	assert.False(t, got.IsFallback)
	assert.True(t, got.UpdatedAt.After(first.UpdatedAt))
}

func TestListImpacts_OrderedByState(t *testing.T) {
	client := newTestClient(t)

	leg := &models.Legislation{Title: "t", Level: models.LevelFederal, Content: "c"}
	require.NoError(t, client.CreateLegislation(leg))

	for _, code := range []string{"TX", "CA", "NY"} {
		require.NoError(t, client.UpsertImpact(&models.LegislationImpact{
			LegislationID: leg.ID,
			StateCode:     code,
			ImpactLevel:   models.ImpactLow,
			Summary:       "s",
			Details:       "d",
		}))
	}

	impacts, err := client.ListImpacts(leg.ID)
	require.NoError(t, err)
	require.Len(t, impacts, 3)
	assert.Equal(t, "CA", impacts[0].StateCode)
	assert.Equal(t, "NY", impacts[1].StateCode)
	assert.Equal(t, "TX", impacts[2].StateCode)
}

func TestGetImpact(t *testing.T) {
	client := newTestClient(t)

	leg := &models.Legislation{Title: "t", Level: models.LevelFederal, Content: "c"}
	require.NoError(t, client.CreateLegislation(leg))

	require.NoError(t, client.UpsertImpact(&models.LegislationImpact{
		LegislationID: leg.ID,
		StateCode:     "FL",
		ImpactLevel:   models.ImpactMedium,
		Summary:       "s",
		Details:       "d",
	}))

	got, err := client.GetImpact(leg.ID, "FL")
	require.NoError(t, err)
	assert.Equal(t, models.ImpactMedium, got.ImpactLevel)

	_, err = client.GetImpact(leg.ID, "WA")
	assert.ErrorIs(t, err, ErrNotFound)
}
