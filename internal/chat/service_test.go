package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policy-whisperer/backend/internal/ingestion"
	"github.com/policy-whisperer/backend/internal/llm"
	"github.com/policy-whisperer/backend/internal/storage/models"
	"github.com/policy-whisperer/backend/internal/storage/sqlite"
)

type stubChatter struct {
	reply   string
	err     error
	lastReq llm.ChatRequest
}

func (s *stubChatter) Chat(ctx context.Context, req llm.ChatRequest) (*llm.CompletionResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &llm.CompletionResponse{Content: s.reply}, nil
}

func newTestStore(t *testing.T) *sqlite.Client {
	t.Helper()

	store, err := sqlite.NewClient(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.InitSchema())
	return store
}

func seedConversation(t *testing.T, store *sqlite.Client, docContent string) *models.Conversation {
	t.Helper()

	doc := &models.PolicyDocument{
		Title:      "Zoning Reform Act",
		Content:    docContent,
		SourceType: models.SourceText,
	}
	require.NoError(t, store.CreateDocument(doc))

	conv := &models.Conversation{PolicyDocumentID: doc.ID, Title: "Initial Conversation"}
	require.NoError(t, store.CreateConversation(conv))

	require.NoError(t, store.CreateMessage(&models.Message{
		ConversationID: conv.ID,
		Content:        ingestion.OpeningMessage,
		Sender:         models.SenderAI,
	}))

	return conv
}

func TestRespond_PersistsBothSidesOfTurn(t *testing.T) {
	store := newTestStore(t)
	conv := seedConversation(t, store, "The act allows fourplexes on residential lots.")
	chatter := &stubChatter{reply: "<p>It legalizes fourplexes.</p>"}

	service := NewService(store, chatter)
	resp, err := service.Respond(context.Background(), Request{
		Prompt:         "What does this act change?",
		ConversationID: conv.ID,
		FormatAsHTML:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "<p>It legalizes fourplexes.</p>", resp.Reply)
	assert.Equal(t, conv.ID, resp.ConversationID)

	messages, err := store.ListRecentMessages(conv.ID, 10)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, models.SenderAI, messages[0].Sender)
	assert.Equal(t, ingestion.OpeningMessage, messages[0].Content)
	assert.Equal(t, models.SenderUser, messages[1].Sender)
	assert.Equal(t, "What does this act change?", messages[1].Content)
	assert.Equal(t, models.SenderAI, messages[2].Sender)
}

func TestRespond_HistoryReplayedInOrder(t *testing.T) {
	store := newTestStore(t)
	conv := seedConversation(t, store, "Policy content.")
	chatter := &stubChatter{reply: "reply"}
	service := NewService(store, chatter)

	_, err := service.Respond(context.Background(), Request{
		Prompt: "first question", ConversationID: conv.ID,
	})
	require.NoError(t, err)

	_, err = service.Respond(context.Background(), Request{
		Prompt: "second question", ConversationID: conv.ID,
	})
	require.NoError(t, err)

	messages, err := store.ListRecentMessages(conv.ID, 10)
	require.NoError(t, err)
	require.Len(t, messages, 5)
	assert.Equal(t, ingestion.OpeningMessage, messages[0].Content)
	assert.Equal(t, "first question", messages[1].Content)
	assert.Equal(t, "reply", messages[2].Content)
	assert.Equal(t, "second question", messages[3].Content)
	assert.Equal(t, "reply", messages[4].Content)

	// system + opener + first turn (2) + second user message
	require.Len(t, chatter.lastReq.Messages, 5)
	assert.Equal(t, llm.RoleSystem, chatter.lastReq.Messages[0].Role)
	assert.Equal(t, llm.RoleAssistant, chatter.lastReq.Messages[1].Role)
	assert.Equal(t, "first question", chatter.lastReq.Messages[2].Content)
	assert.Equal(t, llm.RoleUser, chatter.lastReq.Messages[2].Role)
	assert.Equal(t, "reply", chatter.lastReq.Messages[3].Content)
	assert.Equal(t, "second question", chatter.lastReq.Messages[4].Content)
}

func TestRespond_DocumentContextResolvedFromConversation(t *testing.T) {
	store := newTestStore(t)
	conv := seedConversation(t, store, "Distinctive zoning clause text.")
	chatter := &stubChatter{reply: "ok"}

	service := NewService(store, chatter)
	_, err := service.Respond(context.Background(), Request{
		Prompt: "question", ConversationID: conv.ID,
	})
	require.NoError(t, err)

	assert.Contains(t, chatter.lastReq.Messages[0].Content, "Distinctive zoning clause text.")
}

func TestRespond_ExplicitContentSkipsLookup(t *testing.T) {
	store := newTestStore(t)
	conv := seedConversation(t, store, "stored content")
	chatter := &stubChatter{reply: "ok"}

	service := NewService(store, chatter)
	_, err := service.Respond(context.Background(), Request{
		Prompt:         "question",
		PolicyContent:  "caller-supplied content wins",
		ConversationID: conv.ID,
	})
	require.NoError(t, err)

	assert.Contains(t, chatter.lastReq.Messages[0].Content, "caller-supplied content wins")
	assert.NotContains(t, chatter.lastReq.Messages[0].Content, "stored content")
}

func TestRespond_LLMFailureReturnsApologyWithoutPersisting(t *testing.T) {
	store := newTestStore(t)
	conv := seedConversation(t, store, "content")
	chatter := &stubChatter{err: errors.New("timeout")}

	service := NewService(store, chatter)
	resp, err := service.Respond(context.Background(), Request{
		Prompt: "question", ConversationID: conv.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, ErrorReply, resp.Reply)

	messages, err := store.ListRecentMessages(conv.ID, 10)
	require.NoError(t, err)
	// opener + user message; no AI reply stored for the failed turn
	require.Len(t, messages, 2)
	assert.Equal(t, models.SenderUser, messages[1].Sender)
}

func TestRespond_StatelessWithoutConversation(t *testing.T) {
	store := newTestStore(t)
	chatter := &stubChatter{reply: "stateless reply"}

	service := NewService(store, chatter)
	resp, err := service.Respond(context.Background(), Request{
		Prompt:        "general question",
		PolicyContent: "ad-hoc content",
	})
	require.NoError(t, err)
	assert.Equal(t, "stateless reply", resp.Reply)
	assert.Empty(t, resp.ConversationID)

	require.Len(t, chatter.lastReq.Messages, 2)
	assert.Equal(t, "general question", chatter.lastReq.Messages[1].Content)
}

func TestRespond_FormattingInstructionsToggle(t *testing.T) {
	store := newTestStore(t)
	chatter := &stubChatter{reply: "ok"}
	service := NewService(store, chatter)

	_, err := service.Respond(context.Background(), Request{
		Prompt: "q", PolicyContent: "c", FormatAsHTML: true,
	})
	require.NoError(t, err)
	assert.Contains(t, chatter.lastReq.Messages[0].Content, "<p> tags for paragraphs")

	_, err = service.Respond(context.Background(), Request{
		Prompt: "q", PolicyContent: "c", FormatAsHTML: false,
	})
	require.NoError(t, err)
	assert.NotContains(t, chatter.lastReq.Messages[0].Content, "<p> tags for paragraphs")
}
