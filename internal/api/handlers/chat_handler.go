package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	middleware "github.com/Abdelbosspie/smartifyai-server/internal/api/middlewares"
	"github.com/Abdelbosspie/smartifyai-server/internal/config"
	"github.com/Abdelbosspie/smartifyai-server/internal/core"
	"github.com/Abdelbosspie/smartifyai-server/internal/core/prompt"
	"github.com/Abdelbosspie/smartifyai-server/internal/models"
)

type ChatHandler struct {
	dbclient core.DbClient
	provider core.ChatProvider
	cfg      *config.Config
	log      *logrus.Logger
}

func NewChatHandler(dbclient core.DbClient, provider core.ChatProvider, cfg *config.Config, log *logrus.Logger) *ChatHandler {
	return &ChatHandler{dbclient: dbclient, provider: provider, cfg: cfg, log: log}
}

type chatRequest struct {
	AgentID string `json:"agent_id"`
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// Chat runs one conversation turn: persist the user message, build the
// bounded knowledge context, assemble the prompt and call the provider.
// Provider failures degrade to a preview echo reply instead of a 5xx;
// the chat path never hard-fails once the turn is accepted.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := middleware.UserID(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.AgentID == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "missing agent_id or message")
		return
	}

	agent, err := h.dbclient.GetAgentForUser(ctx, req.AgentID, userID)
	if err != nil {
		h.log.WithError(err).Error("chat: agent lookup failed")
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if agent == nil {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}

	// History is read before the new turn is stored so the assembled
	// list is exactly history + incoming.
	history, err := h.dbclient.ListRecentMessages(ctx, agent.ID, h.cfg.HistoryMaxTurns)
	if err != nil {
		h.log.WithError(err).Warn("chat: history load failed, continuing without it")
		history = nil
	}

	if err := h.dbclient.CreateMessage(ctx, &models.Message{
		ID:        uuid.NewString(),
		AgentID:   agent.ID,
		Role:      models.RoleUser,
		Content:   req.Message,
		CreatedAt: time.Now(),
	}); err != nil {
		h.log.WithError(err).Error("chat: persist user message failed")
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	records, err := h.dbclient.ListKnowledgeByAgent(ctx, agent.ID, h.cfg.ContextMaxItems)
	if err != nil {
		h.log.WithError(err).Warn("chat: knowledge load failed, continuing without it")
		records = nil
	}

	kbContext := prompt.BuildKnowledgeContext(records, h.cfg.ContextMaxChars)
	messages := prompt.AssemblePrompt(prompt.View(agent), kbContext, history, req.Message)

	var reply string
	if h.provider == nil {
		h.log.Warn("chat: no provider configured, sending preview reply")
		reply = previewReply(agent, req.Message)
	} else if reply, err = h.provider.Complete(ctx, agent.Model, messages); err != nil {
		h.log.WithFields(logrus.Fields{"agent_id": agent.ID, "model": agent.Model}).
			WithError(err).Error("chat: provider call failed, sending preview reply")
		reply = previewReply(agent, req.Message)
	}
	if strings.TrimSpace(reply) == "" {
		reply = "…"
	}

	if err := h.dbclient.CreateMessage(ctx, &models.Message{
		ID:        uuid.NewString(),
		AgentID:   agent.ID,
		Role:      models.RoleAssistant,
		Content:   reply,
		CreatedAt: time.Now(),
	}); err != nil {
		h.log.WithError(err).Warn("chat: persist assistant reply failed")
	}

	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

// previewReply is the degraded response for provider outages: the turn
// still completes with an echo instead of surfacing a hard failure.
func previewReply(agent *models.Agent, message string) string {
	return "(" + agent.Name + " preview) You said: " + message
}
