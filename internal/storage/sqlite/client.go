package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/policy-whisperer/backend/internal/storage/models"
	"github.com/policy-whisperer/backend/pkg/logger"
)

var ErrNotFound = errors.New("record not found")

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	// Pragmas go in the DSN so every pooled connection gets them.
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single pooled connection avoids
	// SQLITE_BUSY and keeps :memory: databases from splitting per
	// connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS policy_documents (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		source_type TEXT NOT NULL,
		source_reference TEXT,
		key_summary TEXT,
		key_points TEXT,
		local_impact TEXT,
		demographic_impact TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_documents_created ON policy_documents(created_at);

	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		policy_document_id TEXT NOT NULL,
		title TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (policy_document_id) REFERENCES policy_documents(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_document ON conversations(policy_document_id);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		content TEXT NOT NULL,
		sender TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);

	CREATE TABLE IF NOT EXISTS legislation (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		level TEXT NOT NULL,
		state TEXT,
		source_url TEXT,
		content TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_legislation_level ON legislation(level);

	CREATE TABLE IF NOT EXISTS legislation_impact (
		legislation_id TEXT NOT NULL,
		state_code TEXT NOT NULL,
		impact_level TEXT NOT NULL,
		summary TEXT NOT NULL,
		details TEXT NOT NULL,
		is_fallback INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (legislation_id, state_code),
		FOREIGN KEY (legislation_id) REFERENCES legislation(id) ON DELETE CASCADE
	);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) CreateDocument(doc *models.PolicyDocument) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	keyPointsJSON, err := json.Marshal(doc.KeyPoints)
	if err != nil {
		return fmt.Errorf("failed to encode key points: %w", err)
	}

	query := `
		INSERT INTO policy_documents (id, title, content, source_type, source_reference,
			key_summary, key_points, local_impact, demographic_impact, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = c.db.Exec(
		query,
		doc.ID,
		doc.Title,
		doc.Content,
		string(doc.SourceType),
		doc.SourceReference,
		doc.KeySummary,
		string(keyPointsJSON),
		doc.LocalImpact,
		doc.DemographicImpact,
		doc.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	logger.Debug("Document created",
		zap.String("document_id", doc.ID),
		zap.String("source_type", string(doc.SourceType)),
	)
	return nil
}

func (c *Client) GetDocument(id string) (*models.PolicyDocument, error) {
	query := `
		SELECT id, title, content, source_type, source_reference,
			key_summary, key_points, local_impact, demographic_impact, created_at
		FROM policy_documents WHERE id = ?
	`

	var doc models.PolicyDocument
	var sourceType, keyPointsJSON string
	var sourceReference sql.NullString
	var createdAt int64

	err := c.db.QueryRow(query, id).Scan(
		&doc.ID,
		&doc.Title,
		&doc.Content,
		&sourceType,
		&sourceReference,
		&doc.KeySummary,
		&keyPointsJSON,
		&doc.LocalImpact,
		&doc.DemographicImpact,
		&createdAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	doc.SourceType = models.SourceType(sourceType)
	doc.SourceReference = sourceReference.String
	doc.CreatedAt = time.Unix(createdAt, 0)
	if err := json.Unmarshal([]byte(keyPointsJSON), &doc.KeyPoints); err != nil {
		doc.KeyPoints = nil
	}

	return &doc, nil
}

func (c *Client) CreateConversation(conv *models.Conversation) error {
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now()
	}

	query := `INSERT INTO conversations (id, policy_document_id, title, created_at) VALUES (?, ?, ?, ?)`

	_, err := c.db.Exec(query, conv.ID, conv.PolicyDocumentID, conv.Title, conv.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert conversation: %w", err)
	}

	logger.Debug("Conversation created",
		zap.String("conversation_id", conv.ID),
		zap.String("document_id", conv.PolicyDocumentID),
	)
	return nil
}

func (c *Client) GetConversation(id string) (*models.Conversation, error) {
	query := `SELECT id, policy_document_id, title, created_at FROM conversations WHERE id = ?`

	var conv models.Conversation
	var createdAt int64

	err := c.db.QueryRow(query, id).Scan(&conv.ID, &conv.PolicyDocumentID, &conv.Title, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	conv.CreatedAt = time.Unix(createdAt, 0)
	return &conv, nil
}

func (c *Client) CreateMessage(msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	query := `INSERT INTO messages (id, conversation_id, content, sender, created_at) VALUES (?, ?, ?, ?, ?)`

	_, err := c.db.Exec(
		query,
		msg.ID,
		msg.ConversationID,
		msg.Content,
		string(msg.Sender),
		msg.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	return nil
}

// ListRecentMessages returns up to limit of the newest messages for a
// conversation, ordered oldest-first so they can be replayed as chat history.
func (c *Client) ListRecentMessages(conversationID string, limit int) ([]models.Message, error) {
	query := `
		SELECT id, conversation_id, content, sender, created_at FROM (
			SELECT id, conversation_id, content, sender, created_at
			FROM messages
			WHERE conversation_id = ?
			ORDER BY created_at DESC
			LIMIT ?
		) ORDER BY created_at ASC
	`

	rows, err := c.db.Query(query, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		var sender string
		var createdAt int64

		err := rows.Scan(&m.ID, &m.ConversationID, &m.Content, &sender, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		m.Sender = models.Sender(sender)
		m.CreatedAt = time.Unix(0, createdAt)
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

func (c *Client) CreateLegislation(leg *models.Legislation) error {
	if leg.ID == "" {
		leg.ID = uuid.NewString()
	}
	if leg.CreatedAt.IsZero() {
		leg.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO legislation (id, title, description, level, state, source_url, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(
		query,
		leg.ID,
		leg.Title,
		leg.Description,
		string(leg.Level),
		leg.State,
		leg.SourceURL,
		leg.Content,
		leg.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert legislation: %w", err)
	}

	logger.Debug("Legislation created", zap.String("legislation_id", leg.ID))
	return nil
}

func (c *Client) GetLegislation(id string) (*models.Legislation, error) {
	query := `SELECT id, title, description, level, state, source_url, content, created_at FROM legislation WHERE id = ?`

	var leg models.Legislation
	var description, state, sourceURL sql.NullString
	var level string
	var createdAt int64

	err := c.db.QueryRow(query, id).Scan(
		&leg.ID,
		&leg.Title,
		&description,
		&level,
		&state,
		&sourceURL,
		&leg.Content,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get legislation: %w", err)
	}

	leg.Description = description.String
	leg.Level = models.LegislationLevel(level)
	leg.State = state.String
	leg.SourceURL = sourceURL.String
	leg.CreatedAt = time.Unix(createdAt, 0)

	return &leg, nil
}

func (c *Client) ListLegislation() ([]models.Legislation, error) {
	query := `SELECT id, title, description, level, state, source_url, created_at FROM legislation ORDER BY created_at DESC`

	rows, err := c.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list legislation: %w", err)
	}
	defer rows.Close()

	var records []models.Legislation
	for rows.Next() {
		var leg models.Legislation
		var description, state, sourceURL sql.NullString
		var level string
		var createdAt int64

		err := rows.Scan(&leg.ID, &leg.Title, &description, &level, &state, &sourceURL, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		leg.Description = description.String
		leg.Level = models.LegislationLevel(level)
		leg.State = state.String
		leg.SourceURL = sourceURL.String
		leg.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, leg)
	}

	return records, rows.Err()
}

// UpsertImpact writes one row per (legislation_id, state_code). The conflict
// clause keeps concurrent re-analysis of the same pair last-write-wins without
// a separate existence check.
func (c *Client) UpsertImpact(impact *models.LegislationImpact) error {
	if impact.UpdatedAt.IsZero() {
		impact.UpdatedAt = time.Now()
	}

	isFallback := 0
	if impact.IsFallback {
		isFallback = 1
	}

	query := `
		INSERT INTO legislation_impact (legislation_id, state_code, impact_level, summary, details, is_fallback, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(legislation_id, state_code) DO UPDATE SET
			impact_level = excluded.impact_level,
			summary = excluded.summary,
			details = excluded.details,
			is_fallback = excluded.is_fallback,
			updated_at = excluded.updated_at
	`

	_, err := c.db.Exec(
		query,
		impact.LegislationID,
		impact.StateCode,
		string(impact.ImpactLevel),
		impact.Summary,
		impact.Details,
		isFallback,
		impact.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert impact: %w", err)
	}

	logger.Debug("Impact stored",
		zap.String("legislation_id", impact.LegislationID),
		zap.String("state_code", impact.StateCode),
		zap.String("impact_level", string(impact.ImpactLevel)),
	)
	return nil
}

func (c *Client) ListImpacts(legislationID string) ([]models.LegislationImpact, error) {
	query := `
		SELECT legislation_id, state_code, impact_level, summary, details, is_fallback, updated_at
		FROM legislation_impact
		WHERE legislation_id = ?
		ORDER BY state_code ASC
	`

	rows, err := c.db.Query(query, legislationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list impacts: %w", err)
	}
	defer rows.Close()

	var impacts []models.LegislationImpact
	for rows.Next() {
		var imp models.LegislationImpact
		var level string
		var isFallback int
		var updatedAt int64

		err := rows.Scan(&imp.LegislationID, &imp.StateCode, &level, &imp.Summary, &imp.Details, &isFallback, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		imp.ImpactLevel = models.ImpactLevel(level)
		imp.IsFallback = isFallback != 0
		imp.UpdatedAt = time.Unix(0, updatedAt)
		impacts = append(impacts, imp)
	}

	return impacts, rows.Err()
}

func (c *Client) GetImpact(legislationID, stateCode string) (*models.LegislationImpact, error) {
	query := `
		SELECT legislation_id, state_code, impact_level, summary, details, is_fallback, updated_at
		FROM legislation_impact
		WHERE legislation_id = ? AND state_code = ?
	`

	var imp models.LegislationImpact
	var level string
	var isFallback int
	var updatedAt int64

	err := c.db.QueryRow(query, legislationID, stateCode).Scan(
		&imp.LegislationID, &imp.StateCode, &level, &imp.Summary, &imp.Details, &isFallback, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get impact: %w", err)
	}

	imp.ImpactLevel = models.ImpactLevel(level)
	imp.IsFallback = isFallback != 0
	imp.UpdatedAt = time.Unix(0, updatedAt)

	return &imp, nil
}
