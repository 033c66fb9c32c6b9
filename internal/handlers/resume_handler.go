package handlers

import (
	"context"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"github.com/Aquil1401/resume-reviewer/internal/models"
	"github.com/Aquil1401/resume-reviewer/internal/services"
)

const UserIDHeader = "X-User-Id"

type ResumeHandler struct {
	reviewer       services.ReviewerService
	history        services.HistoryRecorder
	validate       *validator.Validate
	maxFileSize    int64
	requestTimeout time.Duration
	logger         *zap.Logger
}

// NewResumeHandler builds the handler. history may be nil.
func NewResumeHandler(
	reviewer services.ReviewerService,
	history services.HistoryRecorder,
	maxFileSize int64,
	requestTimeout time.Duration,
	log *zap.Logger,
) *ResumeHandler {
	return &ResumeHandler{
		reviewer:       reviewer,
		history:        history,
		validate:       validator.New(),
		maxFileSize:    maxFileSize,
		requestTimeout: requestTimeout,
		logger:         log.Named("handler"),
	}
}

func errorJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(models.ErrorResponse{Error: message})
}

func (h *ResumeHandler) requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	if h.requestTimeout <= 0 {
		return context.WithCancel(c.UserContext())
	}
	return context.WithTimeout(c.UserContext(), h.requestTimeout)
}

func (h *ResumeHandler) HandleAnalyze(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "No file uploaded")
	}

	if fileHeader.Size > h.maxFileSize {
		return errorJSON(c, fiber.StatusBadRequest, "File too large")
	}

	src, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("❌ Failed to open uploaded file", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to analyze resume")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		h.logger.Error("❌ Failed to read uploaded file", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to analyze resume")
	}

	upload := models.UploadedResume{
		FileName: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Data:     data,
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	result, err := h.reviewer.AnalyzeResume(ctx, upload)
	if err != nil {
		h.logger.Error("❌ Error analyzing resume", zap.String("file", upload.FileName), zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to analyze resume")
	}

	// Header values alias fasthttp's request buffer, which is reused once
	// the handler returns. The recorder reads the entry later.
	if h.history != nil {
		h.history.Record(services.HistoryEntry{
			UserID:   utils.CopyString(c.Get(UserIDHeader)),
			FileName: upload.FileName,
			Data:     upload.Data,
			Result:   result,
		})
	}

	return c.JSON(result)
}

func (h *ResumeHandler) HandleMatchJD(c *fiber.Ctx) error {
	var req models.MatchJDRequest
	if err := h.bind(c, &req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Resume content and job description are required")
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	result, err := h.reviewer.MatchJobDescription(ctx, req)
	if err != nil {
		h.logger.Error("❌ Error matching JD", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to match job description")
	}

	return c.JSON(result)
}

func (h *ResumeHandler) HandleImprove(c *fiber.Ctx) error {
	var req models.ImproveRequest
	if err := h.bind(c, &req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Resume content is required")
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	result, err := h.reviewer.ImproveResume(ctx, req)
	if err != nil {
		h.logger.Error("❌ Error improving resume", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to improve resume")
	}

	return c.JSON(result)
}

func (h *ResumeHandler) HandleInterviewQuestions(c *fiber.Ctx) error {
	var req models.InterviewQuestionsRequest
	if err := h.bind(c, &req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Resume content is required")
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	result, err := h.reviewer.GenerateInterviewQuestions(ctx, req)
	if err != nil {
		h.logger.Error("❌ Error generating questions", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to generate interview questions")
	}

	return c.JSON(result)
}

func (h *ResumeHandler) HandleCoverLetter(c *fiber.Ctx) error {
	var req models.CoverLetterRequest
	if err := h.bind(c, &req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Job description is required")
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	result, err := h.reviewer.GenerateCoverLetter(ctx, req)
	if err != nil {
		h.logger.Error("❌ Error generating cover letter", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to generate cover letter")
	}

	return c.JSON(result)
}

// bind decodes the JSON body and checks required fields. A malformed body is
// reported the same way as missing fields.
func (h *ResumeHandler) bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return err
	}
	return h.validate.Struct(req)
}
