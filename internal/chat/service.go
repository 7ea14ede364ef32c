package chat

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/policy-whisperer/backend/internal/llm"
	"github.com/policy-whisperer/backend/internal/metrics"
	"github.com/policy-whisperer/backend/internal/storage/models"
	"github.com/policy-whisperer/backend/pkg/logger"
)

const (
	// Last N messages replayed as model context.
	historyLimit = 10
	// Document context budget inside the system prompt.
	maxContextLength = 10000

	// ErrorReply is returned, not persisted, when the model is unreachable.
	ErrorReply = "I'm sorry, I wasn't able to generate a response just now. Please try again."
)

const formattingInstructions = `Format your responses using proper HTML tags for better readability:
- Use <p> tags for paragraphs
- Use <ul> and <li> tags for unordered lists
- Use <ol> and <li> tags for ordered lists
- Use <h3> tags for subheadings
- Use <b> or <strong> tags for emphasis
- When presenting steps or a numbered list, use an ordered list with <ol> and <li> tags
- For key points that aren't sequential, use an unordered list with <ul> and <li> tags
- Structure your content logically with clear sections`

// Chatter is the LLM surface the service needs.
type Chatter interface {
	Chat(ctx context.Context, req llm.ChatRequest) (*llm.CompletionResponse, error)
}

// Store is the persistence surface the service needs.
type Store interface {
	GetConversation(id string) (*models.Conversation, error)
	GetDocument(id string) (*models.PolicyDocument, error)
	CreateMessage(msg *models.Message) error
	ListRecentMessages(conversationID string, limit int) ([]models.Message, error)
}

type Request struct {
	Prompt         string
	PolicyContent  string
	ConversationID string
	FormatAsHTML   bool
}

type Response struct {
	Reply          string
	ConversationID string
}

type Service struct {
	store Store
	llm   Chatter
}

func NewService(store Store, chatter Chatter) *Service {
	return &Service{store: store, llm: chatter}
}

// Respond handles one user turn. With a conversation the user message is
// persisted first, history is replayed oldest-first, and the model's reply is
// persisted; without one it is a stateless single-turn exchange. An LLM
// failure surfaces as ErrorReply and persists nothing for the failed turn.
func (s *Service) Respond(ctx context.Context, req Request) (*Response, error) {
	var history []models.Message
	policyContext := req.PolicyContent

	if req.ConversationID != "" {
		err := s.store.CreateMessage(&models.Message{
			ConversationID: req.ConversationID,
			Content:        req.Prompt,
			Sender:         models.SenderUser,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to store user message: %w", err)
		}
		metrics.ChatMessages.WithLabelValues(string(models.SenderUser)).Inc()

		history, err = s.store.ListRecentMessages(req.ConversationID, historyLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to load conversation history: %w", err)
		}

		if policyContext == "" {
			policyContext, err = s.resolveDocumentContext(req.ConversationID)
			if err != nil {
				return nil, err
			}
		}
	}

	messages := buildMessages(policyContext, req.Prompt, history, req.FormatAsHTML)

	resp, err := s.llm.Chat(ctx, llm.ChatRequest{
		Messages:  messages,
		MaxTokens: 800,
	})
	if err != nil {
		logger.Warn("Chat LLM call failed", zap.Error(err))
		return &Response{Reply: ErrorReply, ConversationID: req.ConversationID}, nil
	}

	if req.ConversationID != "" {
		err := s.store.CreateMessage(&models.Message{
			ConversationID: req.ConversationID,
			Content:        resp.Content,
			Sender:         models.SenderAI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to store AI message: %w", err)
		}
		metrics.ChatMessages.WithLabelValues(string(models.SenderAI)).Inc()
	}

	return &Response{Reply: resp.Content, ConversationID: req.ConversationID}, nil
}

func (s *Service) resolveDocumentContext(conversationID string) (string, error) {
	conv, err := s.store.GetConversation(conversationID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve conversation: %w", err)
	}

	doc, err := s.store.GetDocument(conv.PolicyDocumentID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve policy document: %w", err)
	}

	return doc.Content, nil
}

func buildMessages(policyContext, prompt string, history []models.Message, formatAsHTML bool) []llm.Message {
	truncated := policyContext
	if len(truncated) > maxContextLength {
		truncated = truncated[:maxContextLength]
	}
	if truncated == "" {
		truncated = "No specific policy content provided."
	}

	systemMessage := fmt.Sprintf(`You are an AI assistant specializing in policy analysis.
Use the following policy content as context for your responses:
%s`, truncated)

	if formatAsHTML {
		systemMessage += "\n\n" + formattingInstructions
	}

	messages := []llm.Message{{Role: llm.RoleSystem, Content: systemMessage}}

	// History already includes the just-stored user message.
	if len(history) > 0 {
		for _, m := range history {
			role := llm.RoleUser
			if m.Sender == models.SenderAI {
				role = llm.RoleAssistant
			}
			messages = append(messages, llm.Message{Role: role, Content: m.Content})
		}
	} else {
		messages = append(messages, llm.Message{Role: llm.RoleUser, Content: prompt})
	}

	return messages
}
