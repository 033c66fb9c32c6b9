package schemas

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aquil1401/resume-reviewer/internal/models"
)

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func TestValidate_AllSchemasCompile(t *testing.T) {
	for _, task := range models.AllTasks {
		raw, err := Raw(task)
		require.NoError(t, err, task)
		assert.NotEmpty(t, raw)
	}

	_, err := load()
	require.NoError(t, err)
}

func TestValidate_MatchJD(t *testing.T) {
	tests := []struct {
		name      string
		json      string
		wantError bool
	}{
		{
			name:      "complete",
			json:      `{"matchPercentage":80,"matchedSkills":["Go"],"missingSkills":[],"keywordGaps":[],"recommendations":["Add Kubernetes"]}`,
			wantError: false,
		},
		{
			name:      "missing recommendations",
			json:      `{"matchPercentage":80,"matchedSkills":["Go"],"missingSkills":[],"keywordGaps":[]}`,
			wantError: true,
		},
		{
			name:      "null array",
			json:      `{"matchPercentage":80,"matchedSkills":null,"missingSkills":[],"keywordGaps":[],"recommendations":[]}`,
			wantError: true,
		},
		{
			name:      "score out of range",
			json:      `{"matchPercentage":140,"matchedSkills":[],"missingSkills":[],"keywordGaps":[],"recommendations":[]}`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(models.TaskMatchJobDescription, decode(t, tt.json))
			if tt.wantError {
				require.Error(t, err)
				var validationErr *ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.NotEmpty(t, validationErr.Errors)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidate_AnalyzeMissingSections(t *testing.T) {
	err := Validate(models.TaskAnalyze, decode(t, `{"atsScore":70,"missingItems":[],"suggestions":[]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sections")
}

func TestValidate_AnalyzeMissingOneSection(t *testing.T) {
	doc := `{"atsScore":70,"missingItems":[],"suggestions":[],"sections":{
		"skills":{"present":true,"score":70,"issues":[],"suggestions":[]},
		"experience":{"present":true,"score":70,"issues":[],"suggestions":[]},
		"education":{"present":true,"score":70,"issues":[],"suggestions":[]},
		"keywords":{"present":true,"score":70,"issues":[],"suggestions":[]}
	}}`
	err := Validate(models.TaskAnalyze, decode(t, doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "formatting")
}

func TestValidate_ImproveRequiresDownloadReadyTrue(t *testing.T) {
	err := Validate(models.TaskImprove, decode(t, `{"originalPoints":[],"improvedPoints":[],"summary":"x","downloadReady":false}`))
	assert.Error(t, err)

	err = Validate(models.TaskImprove, decode(t, `{"originalPoints":[],"improvedPoints":[],"summary":"x","downloadReady":true}`))
	assert.NoError(t, err)
}

func TestValidate_CoverLetterGeneratedAtOptional(t *testing.T) {
	assert.NoError(t, Validate(models.TaskCoverLetter, decode(t, `{"content":"Dear Hiring Manager"}`)))
	assert.Error(t, Validate(models.TaskCoverLetter, decode(t, `{"generatedAt":"2024-01-01T00:00:00.000Z"}`)))
}

func TestValidate_UnknownTask(t *testing.T) {
	err := Validate(models.AnalysisTask("poetry"), map[string]any{})
	assert.Error(t, err)
}
