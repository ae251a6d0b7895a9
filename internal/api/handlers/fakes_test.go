package handlers

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"

	"github.com/Abdelbosspie/smartifyai-server/internal/config"
	"github.com/Abdelbosspie/smartifyai-server/internal/core"
	"github.com/Abdelbosspie/smartifyai-server/internal/models"
)

// fakeDB is an in-memory core.DbClient for handler tests.
type fakeDB struct {
	mu        sync.Mutex
	users     map[string]*models.User
	agents    map[string]*models.Agent
	knowledge map[string]*models.Knowledge
	messages  []models.Message
	failNext  error
}

var _ core.DbClient = (*fakeDB)(nil)

func newFakeDB() *fakeDB {
	return &fakeDB{
		users:     map[string]*models.User{},
		agents:    map[string]*models.Agent{},
		knowledge: map[string]*models.Knowledge{},
	}
}

func (f *fakeDB) takeErr() error {
	err := f.failNext
	f.failNext = nil
	return err
}

func (f *fakeDB) CreateUser(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
	return nil
}

func (f *fakeDB) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeDB) GetUserByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeErr(); err != nil {
		return nil, err
	}
	return f.users[id], nil
}

func (f *fakeDB) CreateAgent(_ context.Context, a *models.Agent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agents[a.ID] = a
	return nil
}

func (f *fakeDB) GetAgentForUser(_ context.Context, id, userID string) (*models.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.agents[id]
	if a == nil || a.UserID != userID {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (f *fakeDB) ListAgentsByUser(_ context.Context, userID string) ([]models.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Agent
	for _, a := range f.agents {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeDB) UpdateAgent(_ context.Context, a *models.Agent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.agents[a.ID] == nil {
		return errors.New("agent not found")
	}
	cp := *a
	f.agents[a.ID] = &cp
	return nil
}

func (f *fakeDB) PublishAgent(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.agents[id]
	if a == nil {
		return errors.New("agent not found")
	}
	a.Published = true
	return nil
}

func (f *fakeDB) DeleteAgent(_ context.Context, id, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := f.agents[id]
	if a == nil || a.UserID != userID {
		return 0, nil
	}
	delete(f.agents, id)
	return 1, nil
}

func (f *fakeDB) CreateKnowledge(_ context.Context, k *models.Knowledge) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.knowledge[k.ID] = k
	return nil
}

func (f *fakeDB) GetKnowledgeByID(_ context.Context, id string) (*models.Knowledge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.knowledge[id], nil
}

func (f *fakeDB) ListKnowledgeByAgent(_ context.Context, agentID string, limit int) ([]models.Knowledge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Knowledge
	for _, k := range f.knowledge {
		if k.AgentID == agentID {
			out = append(out, *k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeDB) DeleteKnowledge(_ context.Context, id, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.knowledge[id]
	if k == nil {
		return 0, nil
	}
	a := f.agents[k.AgentID]
	if a == nil || a.UserID != userID {
		return 0, nil
	}
	delete(f.knowledge, id)
	return 1, nil
}

func (f *fakeDB) UpdateKnowledgeContent(_ context.Context, id, content, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.knowledge[id]
	if k == nil {
		return errors.New("knowledge not found")
	}
	k.Content = content
	k.Status = status
	return nil
}

func (f *fakeDB) UpdateKnowledgeEmbedding(_ context.Context, id string, embedding []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.knowledge[id]
	if k == nil {
		return errors.New("knowledge not found")
	}
	k.Embedding = embedding
	return nil
}

func (f *fakeDB) SearchKnowledge(_ context.Context, agentID string, _ []float32, limit int) ([]models.Knowledge, error) {
	return f.ListKnowledgeByAgent(context.Background(), agentID, limit)
}

func (f *fakeDB) CreateMessage(_ context.Context, m *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, *m)
	return nil
}

func (f *fakeDB) ListRecentMessages(_ context.Context, agentID string, limit int) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Message
	for _, m := range f.messages {
		if m.AgentID == agentID {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeDB) Close() error { return nil }

// fakeProvider records the last completion request.
type fakeProvider struct {
	reply    string
	err      error
	gotModel string
	gotMsgs  []models.Message
}

func (f *fakeProvider) Complete(_ context.Context, model string, messages []models.Message) (string, error) {
	f.gotModel = model
	f.gotMsgs = messages
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// fakeIngestor records enqueued IDs.
type fakeIngestor struct {
	enqueued []string
}

func (f *fakeIngestor) Start(context.Context, int)               {}
func (f *fakeIngestor) Enqueue(id string)                        { f.enqueued = append(f.enqueued, id) }
func (f *fakeIngestor) ProcessOne(context.Context, string) error { return nil }

// fakeObject pretends to be object storage.
type fakeObject struct {
	uploads map[string][]byte
}

func (f *fakeObject) UploadFile(_ context.Context, bucket, key string, data io.Reader, _ string) (string, error) {
	if f.uploads == nil {
		f.uploads = map[string][]byte{}
	}
	b, _ := io.ReadAll(data)
	f.uploads[key] = b
	return "https://" + bucket + ".s3.us-east-2.amazonaws.com/" + key, nil
}

func (f *fakeObject) DeleteFile(context.Context, string, string) error { return nil }

func (f *fakeObject) GetFile(_ context.Context, _, key string) ([]byte, error) {
	return f.uploads[key], nil
}

func testConfig() *config.Config {
	return &config.Config{
		BucketName:      "test-bucket",
		DefaultModel:    "gpt-4o-mini",
		ContextMaxChars: 8000,
		ContextMaxItems: 12,
		SnippetMaxChars: 12000,
		HistoryMaxTurns: 30,
	}
}
