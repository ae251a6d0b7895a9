package core

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/Abdelbosspie/smartifyai-server/internal/models"
)

// DbClient defines all persistence operations the handlers and workers
// need. It abstracts Postgres/pgvector so higher layers never depend on
// a specific DB.
type DbClient interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	CreateAgent(ctx context.Context, agent *models.Agent) error
	GetAgentForUser(ctx context.Context, id, userID string) (*models.Agent, error)
	ListAgentsByUser(ctx context.Context, userID string) ([]models.Agent, error)
	UpdateAgent(ctx context.Context, agent *models.Agent) error
	PublishAgent(ctx context.Context, id string) error
	DeleteAgent(ctx context.Context, id, userID string) (int64, error)

	CreateKnowledge(ctx context.Context, k *models.Knowledge) error
	GetKnowledgeByID(ctx context.Context, id string) (*models.Knowledge, error)
	ListKnowledgeByAgent(ctx context.Context, agentID string, limit int) ([]models.Knowledge, error)
	DeleteKnowledge(ctx context.Context, id, userID string) (int64, error)
	UpdateKnowledgeContent(ctx context.Context, id, content, status string) error
	UpdateKnowledgeEmbedding(ctx context.Context, id string, embedding []float32) error
	SearchKnowledge(ctx context.Context, agentID string, queryVec []float32, limit int) ([]models.Knowledge, error)

	CreateMessage(ctx context.Context, m *models.Message) error
	ListRecentMessages(ctx context.Context, agentID string, limit int) ([]models.Message, error)

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data io.Reader, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)
}

// ChatProvider is the remote chat-completion endpoint. The caller maps
// provider failures to a user-visible fallback reply.
type ChatProvider interface {
	Complete(ctx context.Context, model string, messages []models.Message) (string, error)
}

// EmbeddingProvider turns texts into vectors for knowledge search.
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// DocumentExtractor extracts plain text from an uploaded document as a
// stream of line fragments. The contentType hint picks the parsing
// strategy. The returned channel closes when extraction finishes.
type DocumentExtractor interface {
	ExtractText(ctx context.Context, g *errgroup.Group, data []byte, contentType string) (<-chan string, error)
}
