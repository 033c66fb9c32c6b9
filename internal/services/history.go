package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Aquil1401/resume-reviewer/internal/metrics"
	"github.com/Aquil1401/resume-reviewer/internal/models"
	"github.com/Aquil1401/resume-reviewer/internal/repositories"
)

// HistoryEntry is one analyze response queued for persistence.
type HistoryEntry struct {
	UserID   string
	FileName string
	Data     []byte
	Result   map[string]any
}

// HistoryRecorder persists analyze results off the request path.
type HistoryRecorder interface {
	Start(ctx context.Context)
	Stop()
	// Record enqueues without blocking and reports whether the entry was accepted.
	Record(entry HistoryEntry) bool
}

type historyRecorder struct {
	repo        repositories.ResumeRepository
	storage     StorageService
	queue       chan HistoryEntry
	concurrency int
	timeout     time.Duration
	logger      *zap.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

func NewHistoryRecorder(
	repo repositories.ResumeRepository,
	storage StorageService,
	concurrency int,
	queueSize int,
	log *zap.Logger,
) HistoryRecorder {
	if concurrency <= 0 {
		concurrency = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	return &historyRecorder{
		repo:        repo,
		storage:     storage,
		queue:       make(chan HistoryEntry, queueSize),
		concurrency: concurrency,
		timeout:     30 * time.Second,
		logger:      log.Named("history"),
	}
}

func (h *historyRecorder) Start(ctx context.Context) {
	h.logger.Info("🚀 Starting history recorder", zap.Int("workers", h.concurrency))

	for i := 0; i < h.concurrency; i++ {
		h.wg.Add(1)
		go h.processEntries(ctx, i+1)
	}
}

// Stop rejects new entries and waits for queued ones to be written.
func (h *historyRecorder) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	close(h.queue)
	h.mu.Unlock()

	h.logger.Info("🛑 Stopping history recorder...")
	h.wg.Wait()
	h.logger.Info("✅ History recorder stopped")
}

func (h *historyRecorder) Record(entry HistoryEntry) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.stopped {
		h.logger.Warn("⚠️ History recorder stopped, dropping entry", zap.String("file", entry.FileName))
		metrics.HistoryRecords.WithLabelValues("dropped").Inc()
		return false
	}

	select {
	case h.queue <- entry:
		return true
	default:
		h.logger.Warn("⚠️ History queue full, dropping entry", zap.String("file", entry.FileName))
		metrics.HistoryRecords.WithLabelValues("dropped").Inc()
		return false
	}
}

func (h *historyRecorder) processEntries(ctx context.Context, workerID int) {
	defer h.wg.Done()

	for entry := range h.queue {
		if err := h.save(ctx, entry); err != nil {
			h.logger.Error("❌ Failed to record history",
				zap.Int("worker", workerID),
				zap.String("file", entry.FileName),
				zap.Error(err),
			)
			metrics.HistoryRecords.WithLabelValues("failed").Inc()
			continue
		}
		metrics.HistoryRecords.WithLabelValues("saved").Inc()
	}
}

func (h *historyRecorder) save(ctx context.Context, entry HistoryEntry) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout)
	defer cancel()

	record, err := NewResumeRecord(entry)
	if err != nil {
		return err
	}

	location, err := h.storage.SaveFile(ctx, entry.FileName, entry.Data)
	if err != nil {
		return err
	}
	record.FileURL = location

	if err := h.repo.Create(ctx, record); err != nil {
		if delErr := h.storage.DeleteFile(ctx, location); delErr != nil {
			h.logger.Warn("failed to remove orphaned upload", zap.String("location", location), zap.Error(delErr))
		}
		return err
	}

	h.logger.Debug("recorded analysis", zap.String("id", record.ID))
	return nil
}

// NewResumeRecord converts an assembled analyze response into a history row.
// FileURL is filled in once the upload is stored.
func NewResumeRecord(entry HistoryEntry) (*models.ResumeRecord, error) {
	id, _ := entry.Result["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("analysis result has no id")
	}

	analysis, err := json.Marshal(entry.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis: %w", err)
	}

	record := &models.ResumeRecord{
		ID:           id,
		FileName:     entry.FileName,
		ATSScore:     scoreOf(entry.Result["atsScore"]),
		AnalysisData: string(analysis),
		CreatedAt:    time.Now().UTC(),
	}
	if entry.UserID != "" {
		userID := entry.UserID
		record.UserID = &userID
	}
	return record, nil
}

func scoreOf(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	default:
		return 0
	}
}
