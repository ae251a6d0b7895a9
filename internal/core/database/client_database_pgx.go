package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Abdelbosspie/smartifyai-server/internal/config"
	"github.com/Abdelbosspie/smartifyai-server/internal/core"
	"github.com/Abdelbosspie/smartifyai-server/internal/models"
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (core.DbClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Users

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO users (id, name, email, password_hash, plan, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()), COALESCE($7, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Plan, user.CreatedAt, user.UpdatedAt)
	return err
}

func (c *DatabaseClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `
		SELECT id, name, email, password_hash, plan, created_at, updated_at
		FROM users WHERE email = $1
	`
	var u models.User
	err := c.db.QueryRowContext(ctx, q, email).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Plan, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *DatabaseClient) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	const q = `
		SELECT id, name, email, password_hash, plan, created_at, updated_at
		FROM users WHERE id = $1
	`
	var u models.User
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Plan, &u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Agents

func (c *DatabaseClient) CreateAgent(ctx context.Context, agent *models.Agent) error {
	if agent == nil {
		return errors.New("nil agent")
	}
	const q = `
		INSERT INTO agents
			(id, user_id, name, type, voice, model, language, prompt, welcome,
			 ai_speaks_first, dynamic_msgs, published, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, COALESCE($13, now()), COALESCE($14, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		agent.ID, agent.UserID, agent.Name, agent.Type, agent.Voice, agent.Model,
		agent.Language, agent.Prompt, agent.Welcome, agent.AISpeaksFirst,
		agent.DynamicMsgs, agent.Published, agent.CreatedAt, agent.UpdatedAt)
	return err
}

const agentColumns = `
	id, user_id, name, type, voice, model, language, prompt, welcome,
	ai_speaks_first, dynamic_msgs, published, created_at, updated_at
`

func scanAgent(row interface{ Scan(...any) error }) (*models.Agent, error) {
	var a models.Agent
	err := row.Scan(
		&a.ID, &a.UserID, &a.Name, &a.Type, &a.Voice, &a.Model, &a.Language,
		&a.Prompt, &a.Welcome, &a.AISpeaksFirst, &a.DynamicMsgs, &a.Published,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAgentForUser returns the agent only when it belongs to the given
// user, so every caller gets the ownership check for free.
func (c *DatabaseClient) GetAgentForUser(ctx context.Context, id, userID string) (*models.Agent, error) {
	q := `SELECT ` + agentColumns + ` FROM agents WHERE id = $1 AND user_id = $2`
	a, err := scanAgent(c.db.QueryRowContext(ctx, q, id, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (c *DatabaseClient) ListAgentsByUser(ctx context.Context, userID string) ([]models.Agent, error) {
	q := `SELECT ` + agentColumns + ` FROM agents WHERE user_id = $1 ORDER BY updated_at DESC`
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) UpdateAgent(ctx context.Context, agent *models.Agent) error {
	if agent == nil {
		return errors.New("nil agent")
	}
	const q = `
		UPDATE agents
		SET name = $2, type = $3, voice = $4, model = $5, language = $6,
		    prompt = $7, welcome = $8, ai_speaks_first = $9, dynamic_msgs = $10,
		    updated_at = now()
		WHERE id = $1
	`
	res, err := c.db.ExecContext(ctx, q,
		agent.ID, agent.Name, agent.Type, agent.Voice, agent.Model, agent.Language,
		agent.Prompt, agent.Welcome, agent.AISpeaksFirst, agent.DynamicMsgs)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("agent not found: %s", agent.ID)
	}
	return nil
}

func (c *DatabaseClient) PublishAgent(ctx context.Context, id string) error {
	const q = `UPDATE agents SET published = TRUE, updated_at = now() WHERE id = $1`
	res, err := c.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("agent not found: %s", id)
	}
	return nil
}

// DeleteAgent removes the agent only when owned by userID; cascades to
// knowledge and messages. Returns the number of rows deleted so the
// handler can distinguish not-found.
func (c *DatabaseClient) DeleteAgent(ctx context.Context, id, userID string) (int64, error) {
	const q = `DELETE FROM agents WHERE id = $1 AND user_id = $2`
	res, err := c.db.ExecContext(ctx, q, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Knowledge

func (c *DatabaseClient) CreateKnowledge(ctx context.Context, k *models.Knowledge) error {
	if k == nil {
		return errors.New("nil knowledge")
	}
	const q = `
		INSERT INTO knowledge
			(id, agent_id, kind, title, content, source_url, file_name, mime_type,
			 size_bytes, storage_url, status, created_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, COALESCE($12, now()))
	`
	_, err := c.db.ExecContext(ctx, q,
		k.ID, k.AgentID, k.Kind, k.Title, k.Content, k.SourceURL, k.FileName,
		k.MimeType, k.SizeBytes, k.StorageURL, k.Status, k.CreatedAt)
	return err
}

const knowledgeColumns = `
	id, agent_id, kind, title, content, source_url, file_name, mime_type,
	size_bytes, storage_url, status, created_at
`

func scanKnowledge(row interface{ Scan(...any) error }) (*models.Knowledge, error) {
	var k models.Knowledge
	err := row.Scan(
		&k.ID, &k.AgentID, &k.Kind, &k.Title, &k.Content, &k.SourceURL,
		&k.FileName, &k.MimeType, &k.SizeBytes, &k.StorageURL, &k.Status,
		&k.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &k, nil
}

func (c *DatabaseClient) GetKnowledgeByID(ctx context.Context, id string) (*models.Knowledge, error) {
	q := `SELECT ` + knowledgeColumns + ` FROM knowledge WHERE id = $1`
	k, err := scanKnowledge(c.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return k, nil
}

// ListKnowledgeByAgent returns records newest-first, which is the order
// the prompt context builder expects.
func (c *DatabaseClient) ListKnowledgeByAgent(ctx context.Context, agentID string, limit int) ([]models.Knowledge, error) {
	q := `SELECT ` + knowledgeColumns + ` FROM knowledge WHERE agent_id = $1 ORDER BY created_at DESC`
	args := []any{agentID}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Knowledge
	for rows.Next() {
		k, err := scanKnowledge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *k)
	}
	return out, rows.Err()
}

// DeleteKnowledge removes the record only when its agent is owned by
// userID. Deleting an already-deleted id is not an error (count 0).
func (c *DatabaseClient) DeleteKnowledge(ctx context.Context, id, userID string) (int64, error) {
	const q = `
		DELETE FROM knowledge k
		USING agents a
		WHERE k.id = $1 AND k.agent_id = a.id AND a.user_id = $2
	`
	res, err := c.db.ExecContext(ctx, q, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (c *DatabaseClient) UpdateKnowledgeContent(ctx context.Context, id, content, status string) error {
	const q = `UPDATE knowledge SET content = $2, status = $3 WHERE id = $1`
	res, err := c.db.ExecContext(ctx, q, id, content, status)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("knowledge not found: %s", id)
	}
	return nil
}

func (c *DatabaseClient) UpdateKnowledgeEmbedding(ctx context.Context, id string, embedding []float32) error {
	const q = `UPDATE knowledge SET embedding = $2 WHERE id = $1`
	_, err := c.db.ExecContext(ctx, q, id, pgvector.NewVector(embedding))
	return err
}

// SearchKnowledge finds top-k records for a query embedding within one
// agent's knowledge base.
func (c *DatabaseClient) SearchKnowledge(ctx context.Context, agentID string, queryVec []float32, limit int) ([]models.Knowledge, error) {
	q := `
		SELECT ` + knowledgeColumns + `
		FROM knowledge
		WHERE agent_id = $1 AND embedding IS NOT NULL
		ORDER BY embedding <-> $2
		LIMIT $3
	`
	rows, err := c.db.QueryContext(ctx, q, agentID, pgvector.NewVector(queryVec), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Knowledge
	for rows.Next() {
		k, err := scanKnowledge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *k)
	}
	return out, rows.Err()
}

// Messages

func (c *DatabaseClient) CreateMessage(ctx context.Context, m *models.Message) error {
	if m == nil {
		return errors.New("nil message")
	}
	const q = `
		INSERT INTO messages (id, agent_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()))
	`
	_, err := c.db.ExecContext(ctx, q, m.ID, m.AgentID, m.Role, m.Content, m.CreatedAt)
	return err
}

// ListRecentMessages returns the last N turns for an agent in
// chronological (oldest-first) order.
func (c *DatabaseClient) ListRecentMessages(ctx context.Context, agentID string, limit int) ([]models.Message, error) {
	const q = `
		SELECT id, agent_id, role, content, created_at
		FROM messages
		WHERE agent_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := c.db.QueryContext(ctx, q, agentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.AgentID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Flip DESC query result back to stored order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
