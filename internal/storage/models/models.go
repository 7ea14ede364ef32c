package models

import "time"

type SourceType string

const (
	SourceURL  SourceType = "url"
	SourceFile SourceType = "file"
	SourceText SourceType = "text"
)

type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

type LegislationLevel string

const (
	LevelFederal LegislationLevel = "federal"
	LevelState   LegislationLevel = "state"
)

type ImpactLevel string

const (
	ImpactHigh    ImpactLevel = "high"
	ImpactMedium  ImpactLevel = "medium"
	ImpactLow     ImpactLevel = "low"
	ImpactNeutral ImpactLevel = "neutral"
	ImpactUnknown ImpactLevel = "unknown"
)

type PolicyDocument struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Content           string     `json:"content"`
	SourceType        SourceType `json:"source_type"`
	SourceReference   string     `json:"source_reference,omitempty"`
	KeySummary        string     `json:"key_summary"`
	KeyPoints         []string   `json:"key_points"`
	LocalImpact       string     `json:"local_impact"`
	DemographicImpact string     `json:"demographic_impact"`
	CreatedAt         time.Time  `json:"created_at"`
}

type Conversation struct {
	ID               string    `json:"id"`
	PolicyDocumentID string    `json:"policy_document_id"`
	Title            string    `json:"title"`
	CreatedAt        time.Time `json:"created_at"`
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Content        string    `json:"content"`
	Sender         Sender    `json:"sender"`
	CreatedAt      time.Time `json:"created_at"`
}

type Legislation struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Level       LegislationLevel `json:"level"`
	State       string           `json:"state,omitempty"`
	SourceURL   string           `json:"source_url,omitempty"`
	Content     string           `json:"content"`
	CreatedAt   time.Time        `json:"created_at"`
}

// LegislationImpact holds one analysis result per (legislation, state) pair.
type LegislationImpact struct {
	LegislationID string      `json:"legislation_id"`
	StateCode     string      `json:"state_code"`
	ImpactLevel   ImpactLevel `json:"impact_level"`
	Summary       string      `json:"summary"`
	Details       string      `json:"details"`
	IsFallback    bool        `json:"is_fallback"`
	UpdatedAt     time.Time   `json:"updated_at"`
}
