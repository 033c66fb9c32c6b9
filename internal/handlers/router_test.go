package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Aquil1401/resume-reviewer/internal/models"
	"github.com/Aquil1401/resume-reviewer/internal/services"
)

const (
	maxUpload = 10 * 1024 * 1024
	docxMime  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

const analysisJSON = `{"atsScore":72,"sections":{` +
	`"skills":{"present":true,"score":80,"issues":[],"suggestions":[]},` +
	`"experience":{"present":true,"score":70,"issues":[],"suggestions":[]},` +
	`"education":{"present":true,"score":90,"issues":[],"suggestions":[]},` +
	`"keywords":{"present":true,"score":60,"issues":[],"suggestions":[]},` +
	`"formatting":{"present":true,"score":75,"issues":[],"suggestions":[]}},` +
	`"missingItems":[],"suggestions":["Add metrics"]}`

type fakeInvoker struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
}

func (f *fakeInvoker) GenerateText(context.Context, services.PromptPayload) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.response, f.err
}

func (f *fakeInvoker) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingHistory struct {
	mu      sync.Mutex
	entries []services.HistoryEntry
}

func (r *recordingHistory) Start(context.Context) {}
func (r *recordingHistory) Stop()                 {}

func (r *recordingHistory) Record(entry services.HistoryEntry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return true
}

func newTestApp(t *testing.T, invoker *fakeInvoker, history services.HistoryRecorder) *fiber.App {
	log := zaptest.NewLogger(t)
	noSleep := func(ctx context.Context, _ time.Duration) error { return ctx.Err() }

	reviewer := services.NewReviewerService(
		invoker,
		services.NewRetryController(services.DefaultRetryPolicy(), noSleep, log),
		services.NewResponseParser(nil, log),
		services.NewResultAssembler(),
		services.NewTextExtractor(log),
		nil,
		nil,
		log,
	)

	return NewApp(
		AppConfig{MaxFileSize: maxUpload},
		NewResumeHandler(reviewer, history, maxUpload, time.Minute, log),
		NewHistoryHandler(nil, log),
	)
}

func multipartRequest(t *testing.T, fileName, mimeType string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName))
	header.Set("Content-Type", mimeType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/resume/analyze", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, path string, payload any) *http.Request {
	t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return resp.StatusCode, body
}

func TestAnalyze_EndToEnd(t *testing.T) {
	invoker := &fakeInvoker{response: analysisJSON}
	history := &recordingHistory{}
	app := newTestApp(t, invoker, history)

	content := strings.Repeat("Experienced Go engineer. ", 2000)[:50000]
	req := multipartRequest(t, "resume.docx", docxMime, []byte(content))
	req.Header.Set(UserIDHeader, "user-42")

	status, body := doRequest(t, app, req)

	require.Equal(t, http.StatusOK, status, body)
	assert.EqualValues(t, 72, body["atsScore"])
	assert.EqualValues(t, 50000, body["fileSize"])
	assert.Equal(t, "resume.docx", body["fileName"])
	assert.Equal(t, content[:10000], body["resumeContent"])
	assert.NotEmpty(t, body["id"])
	assert.NotEmpty(t, body["uploadedAt"])
	assert.Equal(t, []any{"Add metrics"}, body["suggestions"])

	require.Len(t, history.entries, 1)
	assert.Equal(t, "user-42", history.entries[0].UserID)
	assert.Equal(t, body["id"], history.entries[0].Result["id"])
}

func TestAnalyze_HistoryKeepsUserIDAfterLaterRequests(t *testing.T) {
	history := &recordingHistory{}
	app := newTestApp(t, &fakeInvoker{response: analysisJSON}, history)

	req := multipartRequest(t, "a.txt", "text/plain", []byte("resume"))
	req.Header.Set(UserIDHeader, "alice-1111111111")
	status, _ := doRequest(t, app, req)
	require.Equal(t, http.StatusOK, status)

	for i := 0; i < 5; i++ {
		req := multipartRequest(t, "b.txt", "text/plain", []byte("other resume"))
		req.Header.Set(UserIDHeader, "mallory-99999999")
		doRequest(t, app, req)
	}

	require.Len(t, history.entries, 6)
	assert.Equal(t, "alice-1111111111", history.entries[0].UserID)
	assert.Equal(t, "mallory-99999999", history.entries[5].UserID)
}

func TestAnalyze_FreshIDPerUpload(t *testing.T) {
	app := newTestApp(t, &fakeInvoker{response: analysisJSON}, nil)

	_, first := doRequest(t, app, multipartRequest(t, "a.txt", "text/plain", []byte("same")))
	_, second := doRequest(t, app, multipartRequest(t, "a.txt", "text/plain", []byte("same")))

	assert.NotEqual(t, first["id"], second["id"])
}

func TestAnalyze_SizeBoundary(t *testing.T) {
	t.Run("exactly max is accepted", func(t *testing.T) {
		invoker := &fakeInvoker{response: analysisJSON}
		app := newTestApp(t, invoker, nil)

		status, body := doRequest(t, app, multipartRequest(t, "big.txt", "text/plain", bytes.Repeat([]byte("a"), maxUpload)))

		assert.Equal(t, http.StatusOK, status)
		assert.EqualValues(t, maxUpload, body["fileSize"])
		assert.Equal(t, 1, invoker.Calls())
	})

	t.Run("one byte over is rejected before the backend", func(t *testing.T) {
		invoker := &fakeInvoker{response: analysisJSON}
		app := newTestApp(t, invoker, nil)

		status, body := doRequest(t, app, multipartRequest(t, "big.txt", "text/plain", bytes.Repeat([]byte("a"), maxUpload+1)))

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "File too large", body["error"])
		assert.Equal(t, 0, invoker.Calls())
	})
}

func TestAnalyze_NoFile(t *testing.T) {
	invoker := &fakeInvoker{response: analysisJSON}
	app := newTestApp(t, invoker, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/resume/analyze", nil)
	status, body := doRequest(t, app, req)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No file uploaded", body["error"])
	assert.Equal(t, 0, invoker.Calls())
}

func TestAnalyze_BackendOverloaded(t *testing.T) {
	invoker := &fakeInvoker{err: &services.InvokeError{StatusCode: http.StatusServiceUnavailable, Message: "overloaded"}}
	history := &recordingHistory{}
	app := newTestApp(t, invoker, history)

	status, body := doRequest(t, app, multipartRequest(t, "a.txt", "text/plain", []byte("resume")))

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Failed to analyze resume", body["error"])
	assert.Equal(t, 4, invoker.Calls())
	assert.Empty(t, history.entries)
}

func TestJSONEndpoints_Validation(t *testing.T) {
	tests := []struct {
		path    string
		payload any
		message string
	}{
		{"/api/resume/match-jd", map[string]string{"resumeContent": "r"}, "Resume content and job description are required"},
		{"/api/resume/match-jd", map[string]string{"jobDescription": "j"}, "Resume content and job description are required"},
		{"/api/resume/improve", map[string]any{"suggestions": []string{"x"}}, "Resume content is required"},
		{"/api/resume/interview-questions", map[string]string{"jobDescription": "j"}, "Resume content is required"},
		{"/api/resume/cover-letter", map[string]string{"resumeContent": "r"}, "Job description is required"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			invoker := &fakeInvoker{}
			app := newTestApp(t, invoker, nil)

			status, body := doRequest(t, app, jsonRequest(t, tt.path, tt.payload))

			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, tt.message, body["error"])
			assert.Equal(t, 0, invoker.Calls())
		})
	}
}

func TestJSONEndpoints_MalformedBody(t *testing.T) {
	app := newTestApp(t, &fakeInvoker{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/resume/improve", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")

	status, body := doRequest(t, app, req)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Resume content is required", body["error"])
}

func TestMatchJD_FallbackOnGarbage(t *testing.T) {
	app := newTestApp(t, &fakeInvoker{response: "I cannot comply."}, nil)

	status, body := doRequest(t, app, jsonRequest(t, "/api/resume/match-jd", models.MatchJDRequest{ResumeContent: "r", JobDescription: "j"}))

	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 60, body["matchPercentage"])
	assert.Len(t, body["matchedSkills"], 3)
}

func TestJSONEndpoints_BackendFailures(t *testing.T) {
	tests := []struct {
		path    string
		payload any
		message string
	}{
		{"/api/resume/match-jd", models.MatchJDRequest{ResumeContent: "r", JobDescription: "j"}, "Failed to match job description"},
		{"/api/resume/improve", models.ImproveRequest{ResumeContent: "r"}, "Failed to improve resume"},
		{"/api/resume/interview-questions", models.InterviewQuestionsRequest{ResumeContent: "r"}, "Failed to generate interview questions"},
		{"/api/resume/cover-letter", models.CoverLetterRequest{JobDescription: "j"}, "Failed to generate cover letter"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			invoker := &fakeInvoker{err: &services.InvokeError{StatusCode: http.StatusUnauthorized, Message: "bad key"}}
			app := newTestApp(t, invoker, nil)

			status, body := doRequest(t, app, jsonRequest(t, tt.path, tt.payload))

			assert.Equal(t, http.StatusInternalServerError, status)
			assert.Equal(t, tt.message, body["error"])
			assert.Equal(t, 1, invoker.Calls())
		})
	}
}

func TestCoverLetter_StampsGeneratedAt(t *testing.T) {
	app := newTestApp(t, &fakeInvoker{response: `{"content":"Dear team, ..."}`}, nil)

	status, body := doRequest(t, app, jsonRequest(t, "/api/resume/cover-letter", models.CoverLetterRequest{JobDescription: "Go engineer"}))

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Dear team, ...", body["content"])
	_, err := time.Parse(services.ISOTimeFormat, body["generatedAt"].(string))
	assert.NoError(t, err)
}

func TestCoverLetter_NullDateKeepsModelLetter(t *testing.T) {
	app := newTestApp(t, &fakeInvoker{response: `{"content":"Dear Acme, I build things.","generatedAt":null}`}, nil)

	status, body := doRequest(t, app, jsonRequest(t, "/api/resume/cover-letter", models.CoverLetterRequest{JobDescription: "Go engineer"}))

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Dear Acme, I build things.", body["content"])
	_, err := time.Parse(services.ISOTimeFormat, body["generatedAt"].(string))
	assert.NoError(t, err)
}

func TestHealthAndDisabledHistory(t *testing.T) {
	app := newTestApp(t, &fakeInvoker{}, nil)

	status, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])

	status, _ = doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/resume/history", nil))
	assert.Equal(t, http.StatusNotFound, status)
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t, &fakeInvoker{response: analysisJSON}, nil)
	doRequest(t, app, multipartRequest(t, "a.txt", "text/plain", []byte("resume")))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "resume_backend_attempts_total")
}
