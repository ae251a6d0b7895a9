package models

import (
	"time"
)

// Knowledge kinds. A record is exactly one of these; the optional
// columns below are populated per kind.
const (
	KnowledgeText = "text"
	KnowledgeURL  = "url"
	KnowledgeFile = "file"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Knowledge ingestion statuses.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusFailed     = "failed"
)

// User represents an authenticated user of the system.
type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Plan         string    `db:"plan" json:"plan"` // "Free" | "Pro"
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Agent is a user-configured chatbot/voice-bot persona with its own
// prompt, model choice and knowledge base.
type Agent struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	Name          string    `db:"name" json:"name"`
	Type          string    `db:"type" json:"type"` // "Chatbot" | "Voice"
	Voice         string    `db:"voice" json:"voice,omitempty"`
	Model         string    `db:"model" json:"model"`
	Language      string    `db:"language" json:"language"` // "auto" or a fixed language name
	Prompt        string    `db:"prompt" json:"prompt"`
	Welcome       string    `db:"welcome" json:"welcome"`
	AISpeaksFirst bool      `db:"ai_speaks_first" json:"aiSpeaksFirst"`
	DynamicMsgs   bool      `db:"dynamic_msgs" json:"dynamicMsgs"`
	Published     bool      `db:"published" json:"published"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Knowledge is one unit of ingested information attached to an agent:
// a text note, a scraped URL snippet or an uploaded-file extract.
// Content is capped at ingestion time; the prompt context builder
// applies a second, independent cap across the records it selects.
type Knowledge struct {
	ID         string    `db:"id" json:"id"`
	AgentID    string    `db:"agent_id" json:"agent_id"`
	Kind       string    `db:"kind" json:"kind"`
	Title      string    `db:"title" json:"title,omitempty"`
	Content    string    `db:"content" json:"content"`
	SourceURL  string    `db:"source_url" json:"source_url,omitempty"`
	FileName   string    `db:"file_name" json:"file_name,omitempty"`
	MimeType   string    `db:"mime_type" json:"mime_type,omitempty"`
	SizeBytes  int64     `db:"size_bytes" json:"size_bytes,omitempty"`
	StorageURL string    `db:"storage_url" json:"-"`
	Status     string    `db:"status" json:"status"`
	Embedding  []float32 `db:"embedding" json:"-"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Message is one conversation turn for an agent.
type Message struct {
	ID        string    `db:"id" json:"id"`
	AgentID   string    `db:"agent_id" json:"agent_id"`
	Role      string    `db:"role" json:"role"` // "user" | "assistant" | "system"
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
