// Package ingest runs the background pipeline that turns stored
// knowledge rows into prompt-ready text: file extracts are pulled from
// object storage and converted, every record with content gets an
// embedding for the knowledge-search endpoint.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Abdelbosspie/smartifyai-server/internal/core"
	"github.com/Abdelbosspie/smartifyai-server/internal/models"
)

// Ingestor schedules knowledge rows for background processing.
type Ingestor interface {
	Start(ctx context.Context, numWorkers int)
	Enqueue(knowledgeID string)
	ProcessOne(ctx context.Context, knowledgeID string) error
}

// Config tunes the pipeline.
//
// SnippetMaxChars: cap applied to extracted text before it is stored.
type Config struct {
	SnippetMaxChars int
}

// KnowledgeIngestor orchestrates extraction and embedding:
//
// db:       persistence for knowledge rows.
// obj:      object storage holding raw uploads.
// embedder: optional embedding provider; nil disables the search column.
// jobs:     in-memory queue of knowledge IDs (easy to swap with a broker later).
type KnowledgeIngestor struct {
	db        core.DbClient
	obj       core.ObjectClient
	embedder  core.EmbeddingProvider
	extractor core.DocumentExtractor
	cfg       *Config
	log       *logrus.Logger
	jobs      chan string
}

var _ Ingestor = (*KnowledgeIngestor)(nil)

// NewKnowledgeIngestor constructs the ingestor with a bounded job queue (64).
func NewKnowledgeIngestor(db core.DbClient, obj core.ObjectClient, emb core.EmbeddingProvider, ext core.DocumentExtractor, cfg *Config, log *logrus.Logger) *KnowledgeIngestor {
	return &KnowledgeIngestor{
		db: db, obj: obj, embedder: emb, extractor: ext, cfg: cfg, log: log,
		jobs: make(chan string, 64),
	}
}

// Start runs worker goroutines reading from the jobs channel. Worker
// errors mark the row failed and never take the server down.
func (i *KnowledgeIngestor) Start(ctx context.Context, numWorkers int) {
	for w := 1; w <= numWorkers; w++ {
		go func(w int) {
			for {
				select {
				case <-ctx.Done():
					i.log.WithField("worker", w).Info("ingestor worker shutting down")
					return
				case id := <-i.jobs:
					i.log.WithFields(logrus.Fields{"worker": w, "knowledge_id": id}).
						Debug("processing knowledge")
					if err := i.ProcessOne(ctx, id); err != nil {
						i.log.WithField("knowledge_id", id).
							WithError(err).Error("knowledge processing failed")
					}
				}
			}
		}(w)
	}
}

// Enqueue schedules a knowledge ID for processing. Blocks when the
// queue is full.
func (i *KnowledgeIngestor) Enqueue(knowledgeID string) {
	i.jobs <- knowledgeID
}

// ProcessOne extracts (file records) and embeds (all records) a single
// knowledge row.
func (i *KnowledgeIngestor) ProcessOne(ctx context.Context, knowledgeID string) error {
	procCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	rec, err := i.db.GetKnowledgeByID(procCtx, knowledgeID)
	if err != nil {
		return fmt.Errorf("load knowledge: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("knowledge not found: %s", knowledgeID)
	}

	if rec.Kind == models.KnowledgeFile && rec.StorageURL != "" && rec.Status == models.StatusPending {
		if err := i.extractFile(procCtx, rec); err != nil {
			_ = i.db.UpdateKnowledgeContent(procCtx, rec.ID, "", models.StatusFailed)
			return err
		}
	}

	return i.embed(procCtx, rec)
}

func (i *KnowledgeIngestor) extractFile(ctx context.Context, rec *models.Knowledge) error {
	bucket, key := parseS3URL(rec.StorageURL)

	data, err := i.obj.GetFile(ctx, bucket, key)
	if err != nil {
		return fmt.Errorf("get object: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	fragCh, err := i.extractor.ExtractText(gctx, g, data, rec.MimeType)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	var snippet string
	g.Go(func() error {
		snippet = collectSnippet(gctx, fragCh, i.cfg.SnippetMaxChars)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	// Empty text is not a failure: unsupported formats store an empty
	// record and the prompt layer degrades to a placeholder body.
	rec.Content = snippet
	return i.db.UpdateKnowledgeContent(ctx, rec.ID, snippet, models.StatusReady)
}

func (i *KnowledgeIngestor) embed(ctx context.Context, rec *models.Knowledge) error {
	if i.embedder == nil || strings.TrimSpace(rec.Content) == "" {
		return nil
	}

	vecs, err := i.embedder.EmbedTexts(ctx, []string{rec.Content})
	if err != nil {
		return fmt.Errorf("embed knowledge %s: %w", rec.ID, err)
	}
	if len(vecs) == 0 {
		return nil
	}
	return i.db.UpdateKnowledgeEmbedding(ctx, rec.ID, vecs[0])
}

// collectSnippet drains the fragment channel into a single newline-joined
// string capped at maxChars. Draining continues after the cap so the
// upstream extractor never blocks on a full channel.
func collectSnippet(ctx context.Context, frags <-chan string, maxChars int) string {
	var sb strings.Builder
	for {
		select {
		case <-ctx.Done():
			return capRunes(sb.String(), maxChars)
		case frag, ok := <-frags:
			if !ok {
				return capRunes(sb.String(), maxChars)
			}
			if sb.Len() > maxChars {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(frag)
		}
	}
}

func capRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if runes := []rune(s); len(runes) > max {
		return string(runes[:max])
	}
	return s
}

// parseS3URL extracts the bucket and key from a virtual-hosted-style S3
// URL, e.g. https://my-bucket.s3.us-east-2.amazonaws.com/path/to/file.pdf
func parseS3URL(u string) (bucket, key string) {
	hostPath := strings.SplitN(strings.TrimPrefix(u, "https://"), "/", 2)
	host := hostPath[0]
	if len(hostPath) == 2 {
		key = hostPath[1]
	}
	parts := strings.Split(host, ".")
	if len(parts) > 0 {
		bucket = parts[0]
	}
	return bucket, key
}
