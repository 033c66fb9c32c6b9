package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Aquil1401/resume-reviewer/internal/models"
	"github.com/Aquil1401/resume-reviewer/internal/repositories"
)

type HistoryHandler struct {
	repo   repositories.ResumeRepository
	logger *zap.Logger
}

// NewHistoryHandler builds the handler. A nil repo disables history and
// every route answers 404.
func NewHistoryHandler(repo repositories.ResumeRepository, log *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		repo:   repo,
		logger: log.Named("history_handler"),
	}
}

func (h *HistoryHandler) HandleList(c *fiber.Ctx) error {
	if h.repo == nil {
		return errorJSON(c, fiber.StatusNotFound, "History is not enabled")
	}

	userID := c.Query("userId", c.Get(UserIDHeader))
	limit := c.QueryInt("limit", 20)

	records, err := h.repo.FindRecent(c.UserContext(), userID, limit)
	if err != nil {
		h.logger.Error("❌ Failed to list history", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to load history")
	}

	items := make([]models.HistoryItem, 0, len(records))
	for _, record := range records {
		items = append(items, record.HistoryItem())
	}

	return c.JSON(fiber.Map{"items": items})
}

// HandleGet returns the stored analyze response for an id.
func (h *HistoryHandler) HandleGet(c *fiber.Ctx) error {
	if h.repo == nil {
		return errorJSON(c, fiber.StatusNotFound, "History is not enabled")
	}

	record, err := h.repo.FindByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrResumeNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "Analysis not found")
		}
		h.logger.Error("❌ Failed to load analysis", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to load history")
	}

	var analysis map[string]any
	if err := json.Unmarshal([]byte(record.AnalysisData), &analysis); err != nil {
		h.logger.Error("❌ Stored analysis is corrupt", zap.String("id", record.ID), zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to load history")
	}
	if analysis == nil {
		analysis = map[string]any{"id": record.ID}
	}
	analysis["fileUrl"] = record.FileURL

	return c.JSON(analysis)
}
