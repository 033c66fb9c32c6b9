package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Aquil1401/resume-reviewer/internal/models"
)

// multipartOverhead leaves room for form boundaries and headers so that the
// file size check in HandleAnalyze, not the body limit, rejects large files.
const multipartOverhead = 1 << 20

type AppConfig struct {
	MaxFileSize  int64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	AccessLog    bool
}

// NewApp builds the fiber app with every route registered.
func NewApp(cfg AppConfig, resume *ResumeHandler, history *HistoryHandler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Resume Reviewer API",
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		BodyLimit:    int(cfg.MaxFileSize) + multipartOverhead,
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	if cfg.AccessLog {
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} - ${latency} ${method} ${path} ${locals:requestid}\n",
			TimeFormat: "2006-01-02 15:04:05",
		}))
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + UserIDHeader,
	}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	r := api.Group("/resume")
	r.Post("/analyze", resume.HandleAnalyze)
	r.Post("/match-jd", resume.HandleMatchJD)
	r.Post("/improve", resume.HandleImprove)
	r.Post("/interview-questions", resume.HandleInterviewQuestions)
	r.Post("/cover-letter", resume.HandleCoverLetter)
	r.Get("/history", history.HandleList)
	r.Get("/history/:id", history.HandleGet)

	return app
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	// Oversized uploads are a client input error like any other.
	if code == fiber.StatusRequestEntityTooLarge {
		code = fiber.StatusBadRequest
		message = "File too large"
	}

	return c.Status(code).JSON(models.ErrorResponse{Error: message})
}
