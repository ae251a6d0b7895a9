package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	middleware "github.com/Abdelbosspie/smartifyai-server/internal/api/middlewares"
	"github.com/Abdelbosspie/smartifyai-server/internal/config"
	"github.com/Abdelbosspie/smartifyai-server/internal/core"
	"github.com/Abdelbosspie/smartifyai-server/internal/core/ingest"
	"github.com/Abdelbosspie/smartifyai-server/internal/core/scrape"
	"github.com/Abdelbosspie/smartifyai-server/internal/models"
)

type KnowledgeHandler struct {
	dbclient     core.DbClient
	objectclient core.ObjectClient
	ingestor     ingest.Ingestor
	embedder     core.EmbeddingProvider
	cfg          *config.Config
	log          *logrus.Logger
}

func NewKnowledgeHandler(dbclient core.DbClient, objectclient core.ObjectClient, ing ingest.Ingestor, emb core.EmbeddingProvider, cfg *config.Config, log *logrus.Logger) *KnowledgeHandler {
	return &KnowledgeHandler{
		dbclient:     dbclient,
		objectclient: objectclient,
		ingestor:     ing,
		embedder:     emb,
		cfg:          cfg,
		log:          log,
	}
}

func (h *KnowledgeHandler) List(w http.ResponseWriter, r *http.Request) {
	agent, ok := h.ownedAgent(w, r)
	if !ok {
		return
	}

	items, err := h.dbclient.ListKnowledgeByAgent(r.Context(), agent.ID, 0)
	if err != nil {
		h.log.WithError(err).Error("list knowledge failed")
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if items == nil {
		items = []models.Knowledge{}
	}
	writeJSON(w, http.StatusOK, items)
}

type textKnowledgeRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// CreateText stores a plain text note, capped at the ingestion limit.
func (h *KnowledgeHandler) CreateText(w http.ResponseWriter, r *http.Request) {
	agent, ok := h.ownedAgent(w, r)
	if !ok {
		return
	}

	var req textKnowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content required")
		return
	}

	k := &models.Knowledge{
		ID:        uuid.NewString(),
		AgentID:   agent.ID,
		Kind:      models.KnowledgeText,
		Title:     req.Title,
		Content:   capContent(req.Content, h.cfg.SnippetMaxChars),
		Status:    models.StatusReady,
		CreatedAt: time.Now(),
	}

	if err := h.dbclient.CreateKnowledge(r.Context(), k); err != nil {
		h.log.WithError(err).Error("create text knowledge failed")
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	h.ingestor.Enqueue(k.ID)
	writeJSON(w, http.StatusCreated, k)
}

type urlKnowledgeRequest struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// CreateURL fetches the page and stores a capped text snippet. A failed
// fetch still saves the link with empty content so the prompt layer can
// at least point at it.
func (h *KnowledgeHandler) CreateURL(w http.ResponseWriter, r *http.Request) {
	agent, ok := h.ownedAgent(w, r)
	if !ok {
		return
	}

	var req urlKnowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	url := scrape.NormalizeURL(req.URL)
	if url == "" {
		writeError(w, http.StatusBadRequest, "url required")
		return
	}

	k := &models.Knowledge{
		ID:        uuid.NewString(),
		AgentID:   agent.ID,
		Kind:      models.KnowledgeURL,
		Title:     defaultString(req.Title, url),
		SourceURL: url,
		Status:    models.StatusReady,
		CreatedAt: time.Now(),
	}

	status := http.StatusOK
	pageTitle, text, err := scrape.FetchText(r.Context(), url, h.cfg.SnippetMaxChars)
	if err != nil {
		h.log.WithField("url", url).WithError(err).Warn("url fetch failed, saving link only")
		status = http.StatusCreated
	} else {
		k.Content = text
		if req.Title == "" && pageTitle != "" {
			k.Title = pageTitle
		}
	}

	if err := h.dbclient.CreateKnowledge(r.Context(), k); err != nil {
		h.log.WithError(err).Error("create url knowledge failed")
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	h.ingestor.Enqueue(k.ID)
	writeJSON(w, status, k)
}

// Upload stores the raw file in object storage, records the knowledge
// row and hands extraction to the background ingestor.
func (h *KnowledgeHandler) Upload(w http.ResponseWriter, r *http.Request) {
	agent, ok := h.ownedAgent(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	// Strip any path components before the name hits the object key.
	cleanName := filepath.Base(header.Filename)
	knowledgeID := uuid.NewString()
	key := fmt.Sprintf("%s/%s/%s", agent.ID, knowledgeID, cleanName)

	uploadCtx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	url, err := h.objectclient.UploadFile(uploadCtx, h.cfg.BucketName, key, file, contentType)
	if err != nil {
		h.log.WithError(err).Error("s3 upload failed")
		writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}

	k := &models.Knowledge{
		ID:         knowledgeID,
		AgentID:    agent.ID,
		Kind:       models.KnowledgeFile,
		Title:      cleanName,
		FileName:   cleanName,
		MimeType:   contentType,
		SizeBytes:  header.Size,
		StorageURL: url,
		Status:     models.StatusPending,
		CreatedAt:  time.Now(),
	}

	if err := h.dbclient.CreateKnowledge(uploadCtx, k); err != nil {
		h.log.WithField("knowledge_id", knowledgeID).WithError(err).Error("create file knowledge failed")
		writeError(w, http.StatusInternalServerError, "failed to store metadata")
		return
	}

	h.ingestor.Enqueue(k.ID)
	writeJSON(w, http.StatusAccepted, k)
}

// Delete removes a knowledge item by id (query param), scoped to the
// owner. Idempotent: deleting a missing id reports zero deleted rows.
func (h *KnowledgeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	itemID := r.URL.Query().Get("id")
	if itemID == "" {
		itemID = r.Header.Get("X-Knowledge-Id")
	}
	if itemID == "" {
		writeError(w, http.StatusBadRequest, "id required")
		return
	}

	count, err := h.dbclient.DeleteKnowledge(r.Context(), itemID, userID)
	if err != nil {
		h.log.WithError(err).Error("delete knowledge failed")
		writeError(w, http.StatusInternalServerError, "failed to delete")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deleted": count})
}

// Search runs embedding similarity over the agent's knowledge base.
func (h *KnowledgeHandler) Search(w http.ResponseWriter, r *http.Request) {
	agent, ok := h.ownedAgent(w, r)
	if !ok {
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q required")
		return
	}
	if h.embedder == nil {
		writeError(w, http.StatusNotImplemented, "search not configured")
		return
	}

	vecs, err := h.embedder.EmbedTexts(r.Context(), []string{query})
	if err != nil || len(vecs) == 0 {
		h.log.WithError(err).Error("query embedding failed")
		writeError(w, http.StatusInternalServerError, "embedding failed")
		return
	}

	items, err := h.dbclient.SearchKnowledge(r.Context(), agent.ID, vecs[0], 5)
	if err != nil {
		h.log.WithError(err).Error("knowledge search failed")
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	if items == nil {
		items = []models.Knowledge{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *KnowledgeHandler) ownedAgent(w http.ResponseWriter, r *http.Request) (*models.Agent, bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}

	agent, err := h.dbclient.GetAgentForUser(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		h.log.WithError(err).Error("agent lookup failed")
		writeError(w, http.StatusInternalServerError, "server error")
		return nil, false
	}
	if agent == nil {
		writeError(w, http.StatusNotFound, "agent not found")
		return nil, false
	}
	return agent, true
}

func capContent(s string, max int) string {
	if max <= 0 {
		return s
	}
	if runes := []rune(s); len(runes) > max {
		return string(runes[:max])
	}
	return s
}
