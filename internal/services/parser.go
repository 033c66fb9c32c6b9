package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/Aquil1401/resume-reviewer/internal/metrics"
	"github.com/Aquil1401/resume-reviewer/internal/models"
	"github.com/Aquil1401/resume-reviewer/internal/schemas"
)

var (
	ErrNoJSONObject = errors.New("no JSON object found in model output")
	ErrNotAnObject  = errors.New("model output is not a JSON object")
)

// ExtractionStrategy locates the JSON object inside raw model text.
type ExtractionStrategy interface {
	Extract(raw string) (string, bool)
}

// GreedySpanStrategy captures everything from the first '{' to the last '}'.
// Prose around the object is tolerated; prose containing braces is not.
type GreedySpanStrategy struct{}

func (GreedySpanStrategy) Extract(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

// FirstObjectStrategy returns the first span that decodes as a complete JSON
// value starting at a '{'.
type FirstObjectStrategy struct{}

func (FirstObjectStrategy) Extract(raw string) (string, bool) {
	for i := 0; i < len(raw); i++ {
		if raw[i] != '{' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(raw[i:]))
		var msg json.RawMessage
		if err := dec.Decode(&msg); err == nil {
			return string(msg), true
		}
	}
	return "", false
}

type ParseStatus string

const (
	ParseOK       ParseStatus = "ok"
	ParseFallback ParseStatus = "fallback"
)

// ParsedOutcome is either a usable model result or a canned substitute.
// Callers serialize Data the same way in both cases; Status and Reason are
// for logs and metrics.
type ParsedOutcome struct {
	Status ParseStatus
	Data   map[string]any
	Reason string
}

func (o ParsedOutcome) Ok() bool {
	return o.Status == ParseOK
}

type ResponseParser struct {
	strategy ExtractionStrategy
	logger   *zap.Logger
}

func NewResponseParser(strategy ExtractionStrategy, log *zap.Logger) *ResponseParser {
	if strategy == nil {
		strategy = GreedySpanStrategy{}
	}
	return &ResponseParser{
		strategy: strategy,
		logger:   log.Named("parser"),
	}
}

// Decode extracts and decodes the JSON object in raw without any task checks.
func (p *ResponseParser) Decode(raw string) (map[string]any, error) {
	span, ok := p.strategy.Extract(raw)
	if !ok {
		return nil, ErrNoJSONObject
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(span), &out); err != nil {
		return nil, fmt.Errorf("malformed JSON in model output: %w", err)
	}
	if out == nil {
		return nil, ErrNotAnObject
	}
	return out, nil
}

// Parse turns raw model text into the structured result for task. It never
// fails for a known task: unusable output is replaced by the task fallback.
func (p *ResponseParser) Parse(task models.AnalysisTask, raw string) ParsedOutcome {
	data, err := p.Decode(raw)
	if err == nil {
		normalize(task, data)
		err = schemas.Validate(task, data)
	}
	if err == nil {
		err = checkInvariants(task, data)
	}

	if err != nil {
		return p.fallback(task, err.Error())
	}

	metrics.ParseOutcomes.WithLabelValues(string(task), string(ParseOK)).Inc()
	return ParsedOutcome{Status: ParseOK, Data: data}
}

func (p *ResponseParser) fallback(task models.AnalysisTask, reason string) ParsedOutcome {
	canned, err := FallbackFor(task)
	if err != nil {
		// Unknown tasks are rejected by the prompt builder before reaching here.
		p.logger.Error("no fallback for task", zap.String("task", string(task)), zap.Error(err))
		canned = map[string]any{}
	}

	p.logger.Warn("⚠️ Model output unusable, returning fallback",
		zap.String("task", string(task)),
		zap.String("reason", reason),
	)
	metrics.ParseOutcomes.WithLabelValues(string(task), string(ParseFallback)).Inc()

	return ParsedOutcome{Status: ParseFallback, Data: canned, Reason: reason}
}

// normalize rounds and clamps scores into [0,100] and pins constant fields.
// Values of the wrong type are left for schema validation to reject.
func normalize(task models.AnalysisTask, data map[string]any) {
	switch task {
	case models.TaskAnalyze:
		clampScore(data, "atsScore")
		if sections, ok := data["sections"].(map[string]any); ok {
			for _, section := range sections {
				if s, ok := section.(map[string]any); ok {
					clampScore(s, "score")
				}
			}
		}
	case models.TaskMatchJobDescription:
		clampScore(data, "matchPercentage")
	case models.TaskImprove:
		if _, ok := data["downloadReady"]; ok {
			data["downloadReady"] = true
		}
	case models.TaskCoverLetter:
		// A null date is stamped by the assembler like a missing one.
		if v, ok := data["generatedAt"]; ok && v == nil {
			delete(data, "generatedAt")
		}
	}
}

func clampScore(m map[string]any, key string) {
	n, ok := m[key].(float64)
	if !ok {
		return
	}
	m[key] = math.Max(0, math.Min(100, math.Round(n)))
}

func checkInvariants(task models.AnalysisTask, data map[string]any) error {
	switch task {
	case models.TaskImprove:
		original, _ := data["originalPoints"].([]any)
		improved, _ := data["improvedPoints"].([]any)
		if len(original) != len(improved) {
			return fmt.Errorf("improvedPoints has %d entries, originalPoints has %d", len(improved), len(original))
		}

	case models.TaskInterviewQuestions:
		counts := make(map[models.QuestionCategory]int, len(models.QuestionCategories))
		questions, _ := data["questions"].([]any)
		for _, q := range questions {
			if item, ok := q.(map[string]any); ok {
				if category, ok := item["category"].(string); ok {
					counts[models.QuestionCategory(category)]++
				}
			}
		}
		for _, category := range models.QuestionCategories {
			if counts[category] < 3 {
				return fmt.Errorf("only %d %s questions, need at least 3", counts[category], category)
			}
		}
	}
	return nil
}
