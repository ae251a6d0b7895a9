package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Abdelbosspie/smartifyai-server/internal/config"
	"github.com/Abdelbosspie/smartifyai-server/internal/core"
	db "github.com/Abdelbosspie/smartifyai-server/internal/core/database"
	"github.com/Abdelbosspie/smartifyai-server/internal/core/ingest"
	"github.com/Abdelbosspie/smartifyai-server/internal/core/llm"
	objectclient "github.com/Abdelbosspie/smartifyai-server/internal/core/object-client"
	"github.com/Abdelbosspie/smartifyai-server/internal/logger"
)

type App struct {
	DBClient     core.DbClient
	ObjectClient core.ObjectClient
	Ingestor     ingest.Ingestor
	Server       *Server
	Log          *logrus.Logger
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.New(cfg.LogLevel, cfg.LogJSON)

	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info("database initialized and ready")

	objClient, err := objectclient.NewS3Client(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info("object storage client ready")

	// Embeddings are optional: without a Gemini key the knowledge-search
	// endpoint reports not-configured and everything else still works.
	var embedder core.EmbeddingProvider
	if cfg.GeminiAPIKey != "" {
		geminiEmbedder, err := llm.NewGeminiEmbedder(appCtx, cfg.GeminiAPIKey, cfg.EmbedModel)
		if err != nil {
			return nil, err
		}
		embedder = geminiEmbedder
	} else {
		log.Warn("GEMINI_API_KEY not set, knowledge search disabled")
	}

	// Same for the chat provider: without a key every turn degrades to
	// the preview echo reply instead of refusing to start.
	var provider core.ChatProvider
	if chat, err := llm.NewOpenAIChat(cfg.OpenAIAPIKey, cfg.DefaultModel); err != nil {
		log.WithError(err).Warn("chat provider unavailable, replies degrade to preview")
	} else {
		provider = chat
	}

	extractor := ingest.NewDocconvExtractor(false, log)
	ingestor := ingest.NewKnowledgeIngestor(dbClient, objClient, embedder, extractor,
		&ingest.Config{SnippetMaxChars: cfg.SnippetMaxChars}, log)
	ingestor.Start(ctx, cfg.IngestionWorkers)

	server := NewServer(cfg, dbClient, objClient, ingestor, embedder, provider, log)

	return &App{
		DBClient:     dbClient,
		ObjectClient: objClient,
		Ingestor:     ingestor,
		Server:       server,
		Log:          log,
	}, nil
}

func (a *App) Close() {
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
