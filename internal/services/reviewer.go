package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Aquil1401/resume-reviewer/internal/metrics"
	"github.com/Aquil1401/resume-reviewer/internal/models"
)

// ReviewerService runs the five résumé tasks. A returned error always means
// the model backend could not be reached; unusable model output is replaced
// by the task fallback instead.
type ReviewerService interface {
	AnalyzeResume(ctx context.Context, file models.UploadedResume) (map[string]any, error)
	MatchJobDescription(ctx context.Context, req models.MatchJDRequest) (map[string]any, error)
	ImproveResume(ctx context.Context, req models.ImproveRequest) (map[string]any, error)
	GenerateInterviewQuestions(ctx context.Context, req models.InterviewQuestionsRequest) (map[string]any, error)
	GenerateCoverLetter(ctx context.Context, req models.CoverLetterRequest) (map[string]any, error)
}

type reviewerService struct {
	invoker   ModelInvoker
	retry     *RetryController
	parser    *ResponseParser
	assembler *ResultAssembler
	extractor TextExtractor
	prompts   *PromptBuilder
	cache     ResultCache
	guidance  GuidanceRetriever
	logger    *zap.Logger
}

// NewReviewerService wires the pipeline. cache and guidance may be nil.
func NewReviewerService(
	invoker ModelInvoker,
	retry *RetryController,
	parser *ResponseParser,
	assembler *ResultAssembler,
	extractor TextExtractor,
	cache ResultCache,
	guidance GuidanceRetriever,
	log *zap.Logger,
) ReviewerService {
	return &reviewerService{
		invoker:   invoker,
		retry:     retry,
		parser:    parser,
		assembler: assembler,
		extractor: extractor,
		prompts:   NewPromptBuilder(),
		cache:     cache,
		guidance:  guidance,
		logger:    log.Named("reviewer"),
	}
}

func (s *reviewerService) AnalyzeResume(ctx context.Context, file models.UploadedResume) (map[string]any, error) {
	uploadedAt := time.Now()

	extracted := s.extractor.Extract(file)
	s.logger.Info("📄 Resume text extracted",
		zap.String("file", file.FileName),
		zap.String("method", string(extracted.Method)),
		zap.Int("bytes", len(file.Data)),
		zap.Bool("truncated", extracted.Truncated),
	)

	result, err := s.run(ctx, models.TaskAnalyze, PromptInput{ResumeContent: extracted.Text})
	if err != nil {
		return nil, err
	}

	return s.assembler.Assemble(models.TaskAnalyze, result, UploadMeta{
		FileName:      file.FileName,
		FileSize:      int64(len(file.Data)),
		ResumeContent: extracted.Text,
		UploadedAt:    uploadedAt,
	}), nil
}

func (s *reviewerService) MatchJobDescription(ctx context.Context, req models.MatchJDRequest) (map[string]any, error) {
	return s.runAndAssemble(ctx, models.TaskMatchJobDescription, PromptInput{
		ResumeContent:  req.ResumeContent,
		JobDescription: req.JobDescription,
	})
}

func (s *reviewerService) ImproveResume(ctx context.Context, req models.ImproveRequest) (map[string]any, error) {
	return s.runAndAssemble(ctx, models.TaskImprove, PromptInput{
		ResumeContent: req.ResumeContent,
		Suggestions:   req.Suggestions,
	})
}

func (s *reviewerService) GenerateInterviewQuestions(ctx context.Context, req models.InterviewQuestionsRequest) (map[string]any, error) {
	return s.runAndAssemble(ctx, models.TaskInterviewQuestions, PromptInput{
		ResumeContent:  req.ResumeContent,
		JobDescription: req.JobDescription,
	})
}

func (s *reviewerService) GenerateCoverLetter(ctx context.Context, req models.CoverLetterRequest) (map[string]any, error) {
	return s.runAndAssemble(ctx, models.TaskCoverLetter, PromptInput{
		ResumeContent:  req.ResumeContent,
		JobDescription: req.JobDescription,
	})
}

func (s *reviewerService) runAndAssemble(ctx context.Context, task models.AnalysisTask, in PromptInput) (map[string]any, error) {
	result, err := s.run(ctx, task, in)
	if err != nil {
		return nil, err
	}
	return s.assembler.Assemble(task, result, UploadMeta{}), nil
}

// run builds the prompt, calls the model with retries and parses the output.
// The cache is keyed on the prompt without guidance so hits skip retrieval.
func (s *reviewerService) run(ctx context.Context, task models.AnalysisTask, in PromptInput) (map[string]any, error) {
	start := time.Now()
	defer func() {
		metrics.TaskDuration.WithLabelValues(string(task)).Observe(time.Since(start).Seconds())
	}()

	log := s.logger.With(zap.String("task", string(task)))

	basePrompt, err := s.prompts.Build(task, in)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, task, basePrompt); ok {
			log.Info("⚡ Serving cached result")
			return cached, nil
		}
	}

	prompt := basePrompt
	if guidance := s.retrieveGuidance(ctx, task, in.ResumeContent); guidance != "" {
		in.Guidance = guidance
		if prompt, err = s.prompts.Build(task, in); err != nil {
			return nil, err
		}
	}

	log.Info("🤖 Calling model", zap.Int("prompt_chars", len(prompt.SystemInstruction)+len(prompt.UserContent)))

	raw, err := s.retry.Do(ctx, task, func(ctx context.Context) (string, error) {
		return s.invoker.GenerateText(ctx, prompt)
	})
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", task, err)
	}

	outcome := s.parser.Parse(task, raw)
	if !outcome.Ok() {
		log.Warn("⚠️ Using fallback result", zap.String("reason", outcome.Reason), zap.Int("response_chars", len(raw)))
		return outcome.Data, nil
	}

	if s.cache != nil {
		s.cache.Set(ctx, task, basePrompt, cacheable(task, outcome.Data))
	}

	log.Info("✅ Model result parsed", zap.Duration("elapsed", time.Since(start)))
	return outcome.Data, nil
}

func (s *reviewerService) retrieveGuidance(ctx context.Context, task models.AnalysisTask, query string) string {
	if s.guidance == nil {
		return ""
	}

	guidance, err := s.guidance.Retrieve(ctx, task, query)
	if err != nil {
		s.logger.Warn("⚠️ Failed to retrieve guidance, continuing without it",
			zap.String("task", string(task)),
			zap.Error(err),
		)
		return ""
	}
	return guidance
}

// cacheable drops request-time stamps so a cache hit is stamped afresh by
// the assembler.
func cacheable(task models.AnalysisTask, data map[string]any) map[string]any {
	if task != models.TaskCoverLetter {
		return data
	}
	if _, ok := data["generatedAt"]; !ok {
		return data
	}

	out := make(map[string]any, len(data))
	for k, v := range data {
		if k != "generatedAt" {
			out[k] = v
		}
	}
	return out
}
