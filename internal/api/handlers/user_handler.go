package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	middleware "github.com/Abdelbosspie/smartifyai-server/internal/api/middlewares"
	"github.com/Abdelbosspie/smartifyai-server/internal/core"
)

type UserHandler struct {
	dbclient core.DbClient
	log      *logrus.Logger
}

func NewUserHandler(dbclient core.DbClient, log *logrus.Logger) *UserHandler {
	return &UserHandler{dbclient: dbclient, log: log}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.dbclient.GetUserByID(r.Context(), userID)
	if err != nil || user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Plan always answers 200 with a plan name; lookup failures degrade to
// Free so the dashboard never breaks on a billing hiccup.
func (h *UserHandler) Plan(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")

	plan := "Free"
	if userID, ok := middleware.UserID(r.Context()); ok {
		user, err := h.dbclient.GetUserByID(r.Context(), userID)
		if err != nil {
			h.log.WithError(err).Warn("plan lookup failed, defaulting to Free")
		} else if user != nil && user.Plan != "" {
			plan = user.Plan
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"plan": plan})
}
