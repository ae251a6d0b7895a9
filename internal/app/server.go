package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/Abdelbosspie/smartifyai-server/internal/api/handlers"
	appMiddleware "github.com/Abdelbosspie/smartifyai-server/internal/api/middlewares"
	"github.com/Abdelbosspie/smartifyai-server/internal/config"
	"github.com/Abdelbosspie/smartifyai-server/internal/core"
	"github.com/Abdelbosspie/smartifyai-server/internal/core/ingest"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	log        *logrus.Logger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, db core.DbClient, obj core.ObjectClient, ing ingest.Ingestor, emb core.EmbeddingProvider, provider core.ChatProvider, log *logrus.Logger) *Server {
	authHandler := handlers.NewAuthHandler(db, cfg.JWTSecret, log)
	agentHandler := handlers.NewAgentHandler(db, cfg, log)
	knowledgeHandler := handlers.NewKnowledgeHandler(db, obj, ing, emb, cfg, log)
	chatHandler := handlers.NewChatHandler(db, provider, cfg, log)
	userHandler := handlers.NewUserHandler(db, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Post("/register", authHandler.Register)
		api.Post("/login", authHandler.Login)
		api.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})

		// protected endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWT(cfg.JWTSecret))

			protected.Get("/user/me", userHandler.Me)
			protected.Get("/user/plan", userHandler.Plan)

			protected.Get("/agents", agentHandler.List)
			protected.Post("/agents", agentHandler.Create)
			protected.Get("/agents/{id}", agentHandler.Get)
			protected.Patch("/agents/{id}", agentHandler.Update)
			protected.Delete("/agents/{id}", agentHandler.Delete)
			protected.Post("/agents/{id}/publish", agentHandler.Publish)
			protected.Get("/agents/{id}/messages", agentHandler.Messages)

			protected.Get("/agents/{id}/knowledge", knowledgeHandler.List)
			protected.Post("/agents/{id}/knowledge", knowledgeHandler.CreateText)
			protected.Post("/agents/{id}/knowledge/url", knowledgeHandler.CreateURL)
			protected.Post("/agents/{id}/knowledge/upload", knowledgeHandler.Upload)
			protected.Delete("/agents/{id}/knowledge", knowledgeHandler.Delete)
			protected.Get("/agents/{id}/knowledge/search", knowledgeHandler.Search)

			protected.Post("/chat", chatHandler.Chat)
		})
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv, log: log}
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.log.WithField("addr", s.httpServer.Addr).Info("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
