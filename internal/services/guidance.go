package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Aquil1401/resume-reviewer/internal/models"
)

const (
	TopicATS      = "ats"
	TopicMatching = "matching"
)

// GuidanceRetriever looks up reference guidelines for analyze and match-jd
// prompts.
type GuidanceRetriever interface {
	Retrieve(ctx context.Context, task models.AnalysisTask, query string) (string, error)
}

type guidanceRetriever struct {
	embedder Embedder
	store    GuidanceStore
	topK     int
	logger   *zap.Logger
}

func NewGuidanceRetriever(embedder Embedder, store GuidanceStore, topK int, log *zap.Logger) GuidanceRetriever {
	if topK <= 0 {
		topK = 4
	}
	return &guidanceRetriever{
		embedder: embedder,
		store:    store,
		topK:     topK,
		logger:   log.Named("guidance"),
	}
}

// TopicFor maps a task to its guideline topic. Tasks without a topic get no
// guidance.
func TopicFor(task models.AnalysisTask) (string, bool) {
	switch task {
	case models.TaskAnalyze:
		return TopicATS, true
	case models.TaskMatchJobDescription:
		return TopicMatching, true
	default:
		return "", false
	}
}

func (g *guidanceRetriever) Retrieve(ctx context.Context, task models.AnalysisTask, query string) (string, error) {
	topic, ok := TopicFor(task)
	if !ok {
		return "", nil
	}

	embedding, err := g.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return "", fmt.Errorf("failed to embed guidance query: %w", err)
	}

	results, err := g.store.SearchSimilar(ctx, embedding, topic, g.topK)
	if err != nil {
		return "", fmt.Errorf("failed to search guidance: %w", err)
	}

	g.logger.Debug("retrieved guidance",
		zap.String("task", string(task)),
		zap.Int("chunks", len(results)),
	)

	return FormatGuidance(results), nil
}

// GuidanceIngester chunks, embeds and stores one guideline document.
type GuidanceIngester struct {
	embedder     Embedder
	store        GuidanceStore
	chunker      TextChunker
	maxChunkSize int
	overlap      int
}

func NewGuidanceIngester(embedder Embedder, store GuidanceStore, chunker TextChunker, maxChunkSize, overlap int) *GuidanceIngester {
	return &GuidanceIngester{
		embedder:     embedder,
		store:        store,
		chunker:      chunker,
		maxChunkSize: maxChunkSize,
		overlap:      overlap,
	}
}

// Ingest replaces the stored chunks of source and returns how many were written.
func (in *GuidanceIngester) Ingest(ctx context.Context, source, topic, text string) (int, error) {
	chunks := in.chunker.ChunkText(CleanParagraphs(text), in.maxChunkSize, in.overlap)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("no content to ingest in %s", source)
	}

	if err := in.store.DeleteSource(ctx, source); err != nil {
		return 0, err
	}

	for i, chunk := range chunks {
		embedding, err := in.embedder.GenerateEmbedding(ctx, chunk)
		if err != nil {
			return i, fmt.Errorf("failed to embed chunk %d of %s: %w", i, source, err)
		}

		err = in.store.UpsertChunk(ctx, GuidanceChunk{Source: source, Topic: topic, Index: i, Text: chunk}, embedding)
		if err != nil {
			return i, fmt.Errorf("failed to store chunk %d of %s: %w", i, source, err)
		}
	}

	return len(chunks), nil
}
