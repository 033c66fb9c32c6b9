package services

import (
	"time"

	"github.com/google/uuid"

	"github.com/Aquil1401/resume-reviewer/internal/models"
)

// ISOTimeFormat matches JavaScript's Date.toISOString.
const ISOTimeFormat = "2006-01-02T15:04:05.000Z"

// UploadMeta is request metadata merged into analyze results.
type UploadMeta struct {
	FileName      string
	FileSize      int64
	ResumeContent string
	UploadedAt    time.Time
}

type ResultAssembler struct {
	newID func() string
	now   func() time.Time
}

func NewResultAssembler() *ResultAssembler {
	return &ResultAssembler{
		newID: uuid.NewString,
		now:   time.Now,
	}
}

func FormatISOTime(t time.Time) string {
	return t.UTC().Format(ISOTimeFormat)
}

// Assemble builds the response body for a task. The input map is not
// modified. A zero meta.UploadedAt is replaced by the current time.
func (a *ResultAssembler) Assemble(task models.AnalysisTask, result map[string]any, meta UploadMeta) map[string]any {
	out := make(map[string]any, len(result)+5)
	for k, v := range result {
		out[k] = v
	}

	switch task {
	case models.TaskAnalyze:
		uploadedAt := meta.UploadedAt
		if uploadedAt.IsZero() {
			uploadedAt = a.now()
		}
		out["id"] = a.newID()
		out["fileName"] = meta.FileName
		out["fileSize"] = meta.FileSize
		out["uploadedAt"] = FormatISOTime(uploadedAt)
		out["resumeContent"] = meta.ResumeContent

	case models.TaskCoverLetter:
		if generatedAt, _ := out["generatedAt"].(string); generatedAt == "" {
			out["generatedAt"] = FormatISOTime(a.now())
		}
	}

	return out
}
