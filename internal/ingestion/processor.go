package ingestion

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/policy-whisperer/backend/internal/content"
	"github.com/policy-whisperer/backend/internal/metrics"
	"github.com/policy-whisperer/backend/internal/storage/models"
	"github.com/policy-whisperer/backend/internal/summary"
	"github.com/policy-whisperer/backend/pkg/logger"
)

const initialConversationTitle = "Initial Conversation"

// OpeningMessage is the canned AI message every conversation starts with.
const OpeningMessage = "I've analyzed the policy document. What questions do you have about it?"

// Store is the persistence surface ingestion needs.
type Store interface {
	CreateDocument(doc *models.PolicyDocument) error
	CreateConversation(conv *models.Conversation) error
	CreateMessage(msg *models.Message) error
}

// Summarizer produces the structured summary; it never fails.
type Summarizer interface {
	Summarize(ctx context.Context, content string) summary.Result
}

type Processor struct {
	store      Store
	summarizer Summarizer
}

type ProcessResult struct {
	Document     *models.PolicyDocument
	Conversation *models.Conversation
	Summary      summary.Result
}

func NewProcessor(store Store, summarizer Summarizer) *Processor {
	return &Processor{store: store, summarizer: summarizer}
}

// ProcessDocument summarizes sanitized text and persists the document, its
// initial conversation, and the canned opening AI message. The three inserts
// are independent; a failure partway leaves earlier rows in place.
func (p *Processor) ProcessDocument(ctx context.Context, title, text string, sourceType models.SourceType, sourceReference string) (*ProcessResult, error) {
	logger.Info("Processing policy document",
		zap.Int("content_length", len(text)),
		zap.String("source_type", string(sourceType)),
	)

	if title == "" {
		title = content.InferTitle(text)
	}

	summaryData := p.summarizer.Summarize(ctx, text)

	doc := &models.PolicyDocument{
		Title:             title,
		Content:           text,
		SourceType:        sourceType,
		SourceReference:   sourceReference,
		KeySummary:        summaryData.KeySummary,
		KeyPoints:         summaryData.KeyPoints,
		LocalImpact:       summaryData.LocalImpact,
		DemographicImpact: summaryData.DemographicImpact,
	}

	if err := p.store.CreateDocument(doc); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	conv := &models.Conversation{
		PolicyDocumentID: doc.ID,
		Title:            initialConversationTitle,
	}

	if err := p.store.CreateConversation(conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	opener := &models.Message{
		ConversationID: conv.ID,
		Content:        OpeningMessage,
		Sender:         models.SenderAI,
	}

	if err := p.store.CreateMessage(opener); err != nil {
		return nil, fmt.Errorf("failed to create opening message: %w", err)
	}

	metrics.DocumentsProcessed.WithLabelValues(string(sourceType)).Inc()

	logger.Info("Policy document processed",
		zap.String("document_id", doc.ID),
		zap.String("conversation_id", conv.ID),
	)

	return &ProcessResult{
		Document:     doc,
		Conversation: conv,
		Summary:      summaryData,
	}, nil
}
