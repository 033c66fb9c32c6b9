package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/Aquil1401/resume-reviewer/internal/config"
)

// ModelInvoker performs exactly one backend call per GenerateText; retries
// belong to the RetryController.
type ModelInvoker interface {
	GenerateText(ctx context.Context, prompt PromptPayload) (string, error)
}

type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type GeminiService interface {
	ModelInvoker
	Embedder
}

// InvokeError is a classified backend failure. StatusCode is 0 when the
// failure happened before an HTTP status was available.
type InvokeError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *InvokeError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("model backend error: %s", e.Message)
	}
	return fmt.Sprintf("model backend error %d: %s", e.StatusCode, e.Message)
}

func (e *InvokeError) Unwrap() error {
	return e.Err
}

// Retryable reports overload and rate limiting.
func (e *InvokeError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode == http.StatusServiceUnavailable
}

// IsRetryable reports whether err carries a retryable InvokeError.
func IsRetryable(err error) bool {
	var invokeErr *InvokeError
	if errors.As(err, &invokeErr) {
		return invokeErr.Retryable()
	}
	return false
}

// ClassifyError converts a genai client error into an InvokeError.
func ClassifyError(err error) *InvokeError {
	if err == nil {
		return nil
	}

	var invokeErr *InvokeError
	if errors.As(err, &invokeErr) {
		return invokeErr
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &InvokeError{StatusCode: apiErr.Code, Message: apiErr.Message, Err: err}
	}

	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &InvokeError{StatusCode: apiErrPtr.Code, Message: apiErrPtr.Message, Err: err}
	}

	return &InvokeError{Message: err.Error(), Err: err}
}

const maxEmbedChars = 40000

type geminiService struct {
	client          *genai.Client
	modelName       string
	embedModel      string
	maxOutputTokens int32
	temperature     float32
	logger          *zap.Logger
}

func NewGeminiService(ctx context.Context, cfg config.GeminiConfig, log *zap.Logger) (GeminiService, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	maxTokens := cfg.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	return &geminiService{
		client:          client,
		modelName:       cfg.Model,
		embedModel:      cfg.EmbedModel,
		maxOutputTokens: maxTokens,
		temperature:     cfg.Temperature,
		logger:          log.Named("gemini"),
	}, nil
}

// GenerateEmbedding implements Embedder.
func (g *geminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	// Truncate text if too long (max ~10000 tokens for embedding)
	text, _ = truncateRunes(text, maxEmbedChars)

	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if result == nil || len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}

	return result.Embeddings[0].Values, nil
}

// GenerateText implements ModelInvoker.
func (g *geminiService) GenerateText(ctx context.Context, prompt PromptPayload) (string, error) {
	temperature := g.temperature
	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(prompt.SystemInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		MaxOutputTokens:   g.maxOutputTokens,
		Temperature:       &temperature,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt.UserContent), genConfig)
	if err != nil {
		classified := ClassifyError(err)
		g.logger.Warn("❌ Gemini API error",
			zap.Int("status", classified.StatusCode),
			zap.Bool("retryable", classified.Retryable()),
			zap.Error(err),
		)
		return "", classified
	}

	if resp == nil {
		g.logger.Warn("Gemini API returned nil response")
		return "", nil
	}

	text := resp.Text()
	if text == "" {
		// An empty body is not a transport failure; the parser falls back.
		g.logger.Warn("⚠️ No text content in response", zap.Int("candidates", len(resp.Candidates)))
	}

	return text, nil
}
