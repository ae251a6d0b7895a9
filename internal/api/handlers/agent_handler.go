package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	middleware "github.com/Abdelbosspie/smartifyai-server/internal/api/middlewares"
	"github.com/Abdelbosspie/smartifyai-server/internal/config"
	"github.com/Abdelbosspie/smartifyai-server/internal/core"
	"github.com/Abdelbosspie/smartifyai-server/internal/models"
)

type AgentHandler struct {
	dbclient core.DbClient
	cfg      *config.Config
	log      *logrus.Logger
}

func NewAgentHandler(dbclient core.DbClient, cfg *config.Config, log *logrus.Logger) *AgentHandler {
	return &AgentHandler{dbclient: dbclient, cfg: cfg, log: log}
}

type agentRequest struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	Voice         string `json:"voice"`
	Model         string `json:"model"`
	Language      string `json:"language"`
	Prompt        string `json:"prompt"`
	Welcome       string `json:"welcome"`
	AISpeaksFirst *bool  `json:"aiSpeaksFirst"`
	DynamicMsgs   *bool  `json:"dynamicMsgs"`
}

func (h *AgentHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	agents, err := h.dbclient.ListAgentsByUser(r.Context(), userID)
	if err != nil {
		h.log.WithError(err).Error("list agents failed")
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if agents == nil {
		agents = []models.Agent{}
	}
	writeJSON(w, http.StatusOK, agents)
}

func (h *AgentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req agentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}

	agent := &models.Agent{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      req.Name,
		Type:      defaultString(req.Type, "Chatbot"),
		Model:     defaultString(req.Model, h.cfg.DefaultModel),
		Language:  defaultString(req.Language, "English"),
		Prompt:    req.Prompt,
		Welcome:   defaultString(req.Welcome, "Hi! How can I help you today?"),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	// Voice only makes sense on a voice agent.
	if agent.Type == "Voice" {
		agent.Voice = req.Voice
	}
	if req.AISpeaksFirst != nil {
		agent.AISpeaksFirst = *req.AISpeaksFirst
	}
	if req.DynamicMsgs != nil {
		agent.DynamicMsgs = *req.DynamicMsgs
	}

	if err := h.dbclient.CreateAgent(r.Context(), agent); err != nil {
		h.log.WithError(err).Error("create agent failed")
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusCreated, agent)
}

func (h *AgentHandler) Get(w http.ResponseWriter, r *http.Request) {
	agent, ok := h.ownedAgent(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

// Update merges non-empty fields over the stored agent, matching the
// original builder's save behavior: an empty field in the payload keeps
// the current value.
func (h *AgentHandler) Update(w http.ResponseWriter, r *http.Request) {
	agent, ok := h.ownedAgent(w, r)
	if !ok {
		return
	}

	var req agentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	agent.Name = defaultString(req.Name, agent.Name)
	agent.Type = defaultString(req.Type, agent.Type)
	agent.Model = defaultString(req.Model, agent.Model)
	agent.Language = defaultString(req.Language, agent.Language)
	agent.Prompt = defaultString(req.Prompt, agent.Prompt)
	agent.Welcome = defaultString(req.Welcome, agent.Welcome)
	if req.AISpeaksFirst != nil {
		agent.AISpeaksFirst = *req.AISpeaksFirst
	}
	if req.DynamicMsgs != nil {
		agent.DynamicMsgs = *req.DynamicMsgs
	}
	if agent.Type == "Voice" {
		agent.Voice = defaultString(req.Voice, agent.Voice)
	} else {
		agent.Voice = ""
	}

	if err := h.dbclient.UpdateAgent(r.Context(), agent); err != nil {
		h.log.WithError(err).Error("update agent failed")
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

// Publish flips the agent public. Pro plan only.
func (h *AgentHandler) Publish(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.dbclient.GetUserByID(r.Context(), userID)
	if err != nil || user == nil {
		writeError(w, http.StatusUnauthorized, "user not found")
		return
	}
	if user.Plan != "Pro" {
		writeError(w, http.StatusForbidden, "upgrade required")
		return
	}

	agent, ok := h.ownedAgent(w, r)
	if !ok {
		return
	}

	if err := h.dbclient.PublishAgent(r.Context(), agent.ID); err != nil {
		h.log.WithError(err).Error("publish agent failed")
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	agent.Published = true
	writeJSON(w, http.StatusOK, agent)
}

func (h *AgentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	count, err := h.dbclient.DeleteAgent(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		h.log.WithError(err).Error("delete agent failed")
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if count == 0 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Messages returns the agent's recent conversation oldest-first.
func (h *AgentHandler) Messages(w http.ResponseWriter, r *http.Request) {
	agent, ok := h.ownedAgent(w, r)
	if !ok {
		return
	}

	msgs, err := h.dbclient.ListRecentMessages(r.Context(), agent.ID, h.cfg.HistoryMaxTurns)
	if err != nil {
		h.log.WithError(err).Error("list messages failed")
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

// ownedAgent resolves {id} to an agent owned by the authenticated user,
// writing the error response itself when that fails.
func (h *AgentHandler) ownedAgent(w http.ResponseWriter, r *http.Request) (*models.Agent, bool) {
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

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
