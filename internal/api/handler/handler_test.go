package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"interview-assistant/internal/ai"
	"interview-assistant/internal/analytics"
	"interview-assistant/internal/api/handler"
	"interview-assistant/internal/api/router"
	"interview-assistant/internal/config"
	"interview-assistant/internal/export"
	"interview-assistant/internal/extractor"
	"interview-assistant/internal/parser"
	"interview-assistant/internal/settings"
	"interview-assistant/internal/storage/memory"
	"interview-assistant/internal/types"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePDF returns fixed text, or err when set.
type fakePDF struct {
	text  string
	pages int
	err   error
}

func (f fakePDF) ExtractTextFromReader(_ context.Context, _ io.Reader, _ string) (string, map[string]any, error) {
	if f.err != nil {
		return "", nil, f.err
	}
	return f.text, map[string]any{"page_count": f.pages}, nil
}

type testEnv struct {
	h       *server.Hertz
	store   *memory.Store
	objects *memory.Objects
	pdf     *fakePDF
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithLimit(t, 10_000)
}

// newTestEnvWithLimit caps the text handed to the extractor at maxInputChars.
func newTestEnvWithLimit(t *testing.T, maxInputChars int) *testEnv {
	t.Helper()
	store := memory.NewStore()
	objects := memory.NewObjects()
	pdf := &fakePDF{text: "John Smith\njohn.smith@email.com\n(555) 123-4567\n5 years of experience in React, Node.js", pages: 1}
	cache := memory.NewCache()
	assistant := ai.NewWithClient(nil, "", 0.7, cache)

	uploads := handler.NewUploadHandler(handler.UploadDeps{
		Config: config.UploadConfig{
			MaxFileSizeMB:       1,
			MaxFiles:            2,
			ResumeExtensions:    []string{".pdf", ".doc", ".docx"},
			RecordingExtensions: []string{".mp3", ".wav", ".m4a", ".webm"},
			ProfileExtensions:   []string{".jpg", ".jpeg", ".png", ".gif"},
			RawTextPreviewChars: 10,
		},
		MaxInputChars: maxInputChars,
		Converter:     parser.NewConverterWith(pdfBackend{pdf}, nil),
		Extractor:     extractor.New(),
		Objects:       objects,
		Dedup:         memory.NewDeduper(),
		Interviews:    store.Interviews(),
	})

	h := server.New(server.WithHostPorts("127.0.0.1:0"))
	router.RegisterRoutes(h, router.Handlers{
		Candidates: handler.NewCandidateHandler(store),
		Interviews: handler.NewInterviewHandler(store.Interviews()),
		AI:         handler.NewAIHandler(assistant),
		Analytics:  handler.NewAnalyticsHandler(analytics.NewService(store.Interviews(), store, cache, time.Minute)),
		Settings:   handler.NewSettingsHandler(settings.NewService(store, false), assistant),
		Uploads:    uploads,
	})
	return &testEnv{h: h, store: store, objects: objects, pdf: pdf}
}

// pdfBackend lets a test swap the fake's output after construction.
type pdfBackend struct{ f *fakePDF }

func (b pdfBackend) ExtractTextFromReader(ctx context.Context, r io.Reader, uri string) (string, map[string]any, error) {
	return b.f.ExtractTextFromReader(ctx, r, uri)
}

func (e *testEnv) do(method, url string, body any) *ut.ResponseRecorder {
	if body == nil {
		return ut.PerformRequest(e.h.Engine, method, url, nil)
	}
	data, _ := json.Marshal(body)
	return ut.PerformRequest(e.h.Engine, method, url,
		&ut.Body{Body: bytes.NewReader(data), Len: len(data)},
		ut.Header{Key: "Content-Type", Value: "application/json"},
	)
}

func decode[T any](t *testing.T, w *ut.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorOf(t *testing.T, w *ut.ResponseRecorder) string {
	return decode[map[string]any](t, w)["error"].(string)
}

func (e *testEnv) createCandidate(t *testing.T, name, email string) types.Candidate {
	t.Helper()
	w := e.do("POST", "/api/v1/candidates", map[string]any{"name": name, "email": email, "position": "Backend Engineer", "skills": []string{"Go"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[types.Candidate](t, w)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/health", "/api/v1/health"} {
		w := env.do("GET", path, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "OK", decode[map[string]any](t, w)["status"])
	}
}

func TestCandidateCRUD(t *testing.T) {
	env := newTestEnv(t)

	c := env.createCandidate(t, "Jane Doe", "  Jane@Example.com ")
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "jane@example.com", c.Email)
	assert.Equal(t, types.CandidateApplied, c.Status)

	w := env.do("POST", "/api/v1/candidates", map[string]any{"name": "Other", "email": "jane@example.com", "position": "QA"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Candidate with this email already exists", errorOf(t, w))

	w = env.do("POST", "/api/v1/candidates", map[string]any{"email": "x@example.com", "position": "QA"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("POST", "/api/v1/candidates", map[string]any{"name": "  ", "email": "y@example.com", "position": "QA"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("PUT", "/api/v1/candidates/"+c.ID, map[string]any{"status": "screening", "notes": "strong"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[types.Candidate](t, w)
	assert.Equal(t, types.CandidateScreening, updated.Status)
	assert.Equal(t, "strong", updated.Notes)
	assert.Equal(t, "Jane Doe", updated.Name)

	w = env.do("PUT", "/api/v1/candidates/"+c.ID, map[string]any{"status": "sleeping"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("PUT", "/api/v1/candidates/"+c.ID, map[string]any{"email": " Jane.Doe@Example.COM\t", "position": "  Staff Engineer "})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated = decode[types.Candidate](t, w)
	assert.Equal(t, "jane.doe@example.com", updated.Email)
	assert.Equal(t, "Staff Engineer", updated.Position)

	w = env.do("PUT", "/api/v1/candidates/"+c.ID, map[string]any{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code, "a blank name is rejected after trimming")

	w = env.do("GET", "/api/v1/candidates/"+c.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do("DELETE", "/api/v1/candidates/"+c.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Candidate deleted successfully", decode[map[string]any](t, w)["message"])

	w = env.do("GET", "/api/v1/candidates/"+c.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Candidate not found", errorOf(t, w))
}

func TestCandidateListPaginationAndExport(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 3; i++ {
		env.createCandidate(t, fmt.Sprintf("Person %d", i), fmt.Sprintf("p%d@example.com", i))
	}

	w := env.do("GET", "/api/v1/candidates?limit=2&page=2&sortBy=name&sortOrder=asc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Candidates []types.Candidate `json:"candidates"`
		Pagination types.Pagination  `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Candidates, 1)
	assert.Equal(t, "Person 2", page.Candidates[0].Name)
	assert.EqualValues(t, 3, page.Pagination.Total)
	assert.EqualValues(t, 2, page.Pagination.Pages)

	w = env.do("GET", "/api/v1/candidates/stats/overview", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, decode[map[string]any](t, w)["totalCandidates"])

	w = env.do("GET", "/api/v1/candidates/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.XLSXContentType, string(w.Header().ContentType()))
	assert.Contains(t, string(w.Header().Peek("Content-Disposition")), "candidates.xlsx")
}

func TestInterviewLifecycle(t *testing.T) {
	env := newTestEnv(t)
	c := env.createCandidate(t, "Jane Doe", "jane@example.com")

	w := env.do("POST", "/api/v1/interviews", map[string]any{"candidateId": "missing", "position": "Backend", "scheduledAt": time.Now()})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Candidate not found", errorOf(t, w))

	w = env.do("POST", "/api/v1/interviews", map[string]any{"candidateId": c.ID, "position": "Backend"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Scheduled time is required", errorOf(t, w))

	w = env.do("POST", "/api/v1/interviews", map[string]any{"candidateId": c.ID, "position": "Backend", "scheduledAt": time.Now()})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	iv := decode[types.Interview](t, w)
	assert.Equal(t, types.InterviewScheduled, iv.Status)
	assert.Equal(t, types.InterviewVideo, iv.Type)
	assert.Equal(t, 60, iv.Duration)
	base := "/api/v1/interviews/" + iv.ID

	w = env.do("POST", base+"/end", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Interview is not in progress", errorOf(t, w))

	w = env.do("POST", base+"/start", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, types.InterviewInProgress, decode[types.Interview](t, w).Status)

	w = env.do("POST", base+"/start", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Interview cannot be started", errorOf(t, w))

	w = env.do("POST", base+"/questions", map[string]any{"question": "Explain goroutines", "type": "technical"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "medium", decode[types.Question](t, w).Difficulty)

	w = env.do("POST", base+"/evaluations", map[string]any{"criteria": "Go", "score": 11})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Score must be a number between 0 and 10", errorOf(t, w))

	w = env.do("POST", base+"/evaluations", map[string]any{"criteria": "Go", "score": 8})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do("PUT", base+"/transcript", map[string]any{"transcript": "Q: hi\nA: hello"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do("POST", base+"/end", nil)
	require.Equal(t, http.StatusOK, w.Code)
	ended := decode[types.Interview](t, w)
	assert.Equal(t, types.InterviewCompleted, ended.Status)
	require.NotNil(t, ended.OverallScore)
	assert.Equal(t, 8.0, *ended.OverallScore)
	assert.Equal(t, "Q: hi\nA: hello", ended.Transcript)

	w = env.do("GET", "/api/v1/candidates/"+c.ID, nil)
	cand := decode[types.Candidate](t, w)
	assert.Equal(t, types.CandidateInterviewed, cand.Status)
	require.NotNil(t, cand.AverageScore)
	assert.Equal(t, 8.0, *cand.AverageScore)

	w = env.do("PUT", base, map[string]any{"feedback": map[string]any{"recommendation": "hire"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "hire", decode[types.Interview](t, w).Feedback.Recommendation)

	w = env.do("PUT", base, map[string]any{"feedback": map[string]any{"recommendation": "maybe"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("GET", base+"/report", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))

	w = env.do("GET", "/api/v1/interviews?candidateId="+c.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[map[string]any](t, w)["interviews"], 1)

	w = env.do("DELETE", base, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do("GET", base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Interview not found", errorOf(t, w))
}

func TestInterviewListRejectsBadDate(t *testing.T) {
	env := newTestEnv(t)
	w := env.do("GET", "/api/v1/interviews?dateFrom=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAIEndpointsWithoutModel(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/api/v1/ai/generate-suggestion", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Transcript is required", errorOf(t, w))

	w = env.do("POST", "/api/v1/ai/analyze-response", map[string]any{"response": "yes"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Response and question are required", errorOf(t, w))

	w = env.do("POST", "/api/v1/ai/generate-question", map[string]any{"type": "behavioral"})
	require.Equal(t, http.StatusOK, w.Code)
	q := decode[ai.QuestionResult](t, w)
	assert.Equal(t, "behavioral", q.Type)
	assert.Equal(t, "medium", q.Difficulty)
	assert.False(t, q.AIGenerated)

	score := 8.0
	w = env.do("POST", "/api/v1/ai/generate-feedback", map[string]any{"transcript": "...", "overallScore": score})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hire", decode[ai.FeedbackResult](t, w).Recommendation)

	w = env.do("GET", "/api/v1/ai/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	st := decode[ai.Status](t, w)
	assert.False(t, st.OpenAIConfigured)
	assert.Equal(t, "not-configured", st.Status)

	w = env.do("POST", "/api/v1/settings/test-ai", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyticsEndpoints(t *testing.T) {
	env := newTestEnv(t)
	c := env.createCandidate(t, "Jane Doe", "jane@example.com")
	w := env.do("POST", "/api/v1/interviews", map[string]any{"candidateId": c.ID, "position": "Backend", "scheduledAt": time.Now()})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do("GET", "/api/v1/analytics/overview", nil)
	require.Equal(t, http.StatusOK, w.Code)
	ov := decode[analytics.Overview](t, w)
	assert.EqualValues(t, 1, ov.TotalInterviews)
	assert.EqualValues(t, 1, ov.TotalCandidates)

	for _, path := range []string{"trends?period=30days", "scores", "positions", "performance", "questions", "recent-activity?limit=5"} {
		w = env.do("GET", "/api/v1/analytics/"+path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w = env.do("GET", "/api/v1/analytics/overview?startDate=nope", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettingsEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("GET", "/api/v1/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do("PUT", "/api/v1/settings", map[string]any{"interview": map[string]any{"defaultDuration": 45}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User email is required", errorOf(t, w))

	w = env.do("PUT", "/api/v1/settings", map[string]any{
		"user":      map[string]any{"email": "lead@example.com"},
		"interview": map[string]any{"defaultDuration": 45},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Settings updated successfully", decode[map[string]any](t, w)["message"])

	w = env.do("GET", "/api/v1/settings/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(w.Header().Peek("Content-Disposition")), "interview-settings.json")
	doc := decode[settings.ExportDocument](t, w)
	assert.Equal(t, "1.0", doc.Version)
	assert.Equal(t, 45, doc.Settings.Interview.DefaultDuration)

	w = env.do("POST", "/api/v1/settings/import", map[string]any{"settings": map[string]any{"user": map[string]any{}}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "Invalid settings format", body["error"])
	assert.Equal(t, []any{"interview", "ai", "notifications", "analytics", "security"}, body["missingSections"])

	w = env.do("POST", "/api/v1/settings/import", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Valid settings object is required", errorOf(t, w))

	w = env.do("POST", "/api/v1/settings/import", map[string]any{"settings": doc.Settings})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 6, decode[map[string]any](t, w)["sectionsImported"])

	w = env.do("DELETE", "/api/v1/settings/reset?section=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid settings section", errorOf(t, w))

	w = env.do("DELETE", "/api/v1/settings/reset?section=interview", nil)
	require.Equal(t, http.StatusOK, w.Code)
	reset := decode[map[string]any](t, w)
	assert.Equal(t, "interview settings reset to defaults", reset["message"])
	assert.Equal(t, "interview", reset["section"])

	w = env.do("DELETE", "/api/v1/settings/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "all", decode[map[string]any](t, w)["section"])
}
