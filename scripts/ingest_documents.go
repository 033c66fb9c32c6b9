package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Aquil1401/resume-reviewer/internal/config"
	"github.com/Aquil1401/resume-reviewer/internal/logger"
	"github.com/Aquil1401/resume-reviewer/internal/services"
)

var rootCmd = &cobra.Command{
	Use:   "ingest_documents",
	Short: "Load ATS guideline documents into the vector store",
	Long: "Reads every .md, .txt, .pdf and .docx file in a directory, splits it into " +
		"overlapping chunks and stores their embeddings in Qdrant so analyze and " +
		"match requests can cite them.",
	RunE: runIngest,
}

var (
	ingestDir         string
	ingestTopic       string
	ingestChunkSize   int
	ingestOverlap     int
	ingestConcurrency int
)

var supportedExtensions = map[string]bool{
	".md":   true,
	".txt":  true,
	".pdf":  true,
	".docx": true,
}

func init() {
	rootCmd.Flags().StringVarP(&ingestDir, "dir", "d", "./reference_docs", "Directory holding guideline documents")
	rootCmd.Flags().StringVarP(&ingestTopic, "topic", "t", services.TopicATS, "Topic tag stored with every chunk (ats or matching)")
	rootCmd.Flags().IntVar(&ingestChunkSize, "chunk-size", 1000, "Maximum characters per chunk")
	rootCmd.Flags().IntVar(&ingestOverlap, "overlap", 200, "Characters shared between neighbouring chunks")
	rootCmd.Flags().IntVarP(&ingestConcurrency, "concurrency", "c", 2, "Documents processed in parallel")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runIngest(cmd *cobra.Command, _ []string) error {
	if ingestTopic != services.TopicATS && ingestTopic != services.TopicMatching {
		return fmt.Errorf("unknown topic %q", ingestTopic)
	}
	if ingestOverlap >= ingestChunkSize {
		return fmt.Errorf("overlap (%d) must be smaller than chunk size (%d)", ingestOverlap, ingestChunkSize)
	}

	cfg := config.Load()
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}
	if !cfg.GuidanceEnabled() {
		return fmt.Errorf("QDRANT_URL is required for ingestion")
	}

	log.Info("🚀 Starting document ingestion", zap.String("dir", ingestDir), zap.String("topic", ingestTopic))

	paths, err := listDocuments(ingestDir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		log.Warn("⚠️ No documents found, nothing to ingest")
		return nil
	}

	ctx := cmd.Context()

	geminiService, err := services.NewGeminiService(ctx, cfg.Gemini, log)
	if err != nil {
		return fmt.Errorf("failed to initialize Gemini: %w", err)
	}

	store, err := services.NewQdrantStore(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, log)
	if err != nil {
		return fmt.Errorf("failed to initialize Qdrant: %w", err)
	}
	defer store.Close()

	if err := store.InitCollection(ctx); err != nil {
		return fmt.Errorf("failed to initialize collection: %w", err)
	}

	ingester := services.NewGuidanceIngester(geminiService, store, services.NewTextChunker(), ingestChunkSize, ingestOverlap)

	var succeeded, failed atomic.Int32
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(ingestConcurrency)

	for _, path := range paths {
		g.Go(func() error {
			if err := ingestFile(gCtx, ingester, path, log); err != nil {
				log.Error("❌ Failed to ingest document", zap.String("path", path), zap.Error(err))
				failed.Add(1)
				return nil
			}
			succeeded.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	log.Info("📊 Ingestion summary",
		zap.Int32("successful", succeeded.Load()),
		zap.Int32("failed", failed.Load()),
	)

	if failed.Load() > 0 {
		return fmt.Errorf("%d of %d documents failed to ingest", failed.Load(), len(paths))
	}

	log.Info("✅ All documents ingested successfully")
	return nil
}

func listDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !supportedExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}

func ingestFile(ctx context.Context, ingester *services.GuidanceIngester, path string, log *zap.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	text, err := services.ReadDocument(path, data)
	if err != nil {
		return err
	}

	count, err := ingester.Ingest(ctx, filepath.Base(path), ingestTopic, text)
	if err != nil {
		return err
	}

	log.Info("✅ Ingested document",
		zap.String("path", path),
		zap.Int("characters", len(text)),
		zap.Int("chunks", count),
	)
	return nil
}
