package handler_test

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
	"time"

	"interview-assistant/internal/api/handler"
	"interview-assistant/internal/types"

	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type formFile struct {
	field, name string
	data        []byte
}

func multipartBody(t *testing.T, files []formFile, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func (e *testEnv) upload(t *testing.T, path string, files []formFile, fields map[string]string) *ut.ResponseRecorder {
	body, contentType := multipartBody(t, files, fields)
	return ut.PerformRequest(e.h.Engine, "POST", path,
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: contentType},
	)
}

func TestUploadResume(t *testing.T) {
	env := newTestEnv(t)
	file := []formFile{{"resume", "john smith.pdf", []byte("%PDF-1.4 fake")}}

	w := env.upload(t, "/api/v1/upload/resume", file, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[handler.ResumeUploadResponse](t, w)
	assert.True(t, resp.Success)
	assert.False(t, resp.Duplicate)
	assert.Equal(t, "John Smith", resp.ExtractedData.Name)
	assert.Equal(t, "john.smith@email.com", resp.ExtractedData.Email)
	assert.Equal(t, "3-5 years", resp.ExtractedData.Experience)
	assert.Equal(t, "John Smith", resp.RawText, "preview is capped at 10 runes")
	assert.Equal(t, "john smith.pdf", resp.File.OriginalName)
	assert.True(t, strings.HasPrefix(resp.File.Filename, "john_smith-"))
	assert.True(t, strings.HasSuffix(resp.File.Filename, ".pdf"))
	assert.Equal(t, "application/pdf", resp.File.MimeType)
	assert.Contains(t, resp.File.URL, "?type=resumes")
	assert.Equal(t, []string{"resumes/" + resp.File.Filename}, env.objects.Keys())
	assert.Equal(t, handler.DocumentInfo{Backend: "pdf", ContentType: "application/pdf", PageCount: 1, Chars: 86}, resp.Document)

	w = env.upload(t, "/api/v1/upload/resume", file, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[handler.ResumeUploadResponse](t, w).Duplicate)
}

func TestUploadResumeTruncatesExtractorInput(t *testing.T) {
	env := newTestEnvWithLimit(t, 40)
	// 28 runes of header, multibyte padding, then a skill past the cap
	env.pdf.text = "Zoë Müller\nPython developer\n" + strings.Repeat("ä", 30) + "\nKubernetes"

	w := env.upload(t, "/api/v1/upload/resume", []formFile{{"resume", "cv.pdf", []byte("%PDF")}}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[handler.ResumeUploadResponse](t, w)

	assert.True(t, resp.Document.Truncated)
	assert.Equal(t, 40, resp.Document.Chars)
	assert.Contains(t, resp.ExtractedData.Skills, "Python")
	assert.NotContains(t, resp.ExtractedData.Skills, "Kubernetes")
	assert.Equal(t, "Zoë Müller", resp.RawText)
}

func TestUploadResumeRejections(t *testing.T) {
	env := newTestEnv(t)

	w := env.upload(t, "/api/v1/upload/resume", nil, map[string]string{"x": "y"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No file uploaded", errorOf(t, w))

	w = env.upload(t, "/api/v1/upload/resume", []formFile{{"resume", "cv.txt", []byte("text")}}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid file type for resume. Allowed types: .pdf, .doc, .docx", errorOf(t, w))

	big := bytes.Repeat([]byte("a"), 1<<20+1)
	w = env.upload(t, "/api/v1/upload/resume", []formFile{{"resume", "cv.pdf", big}}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "File too large. Maximum size is 1MB.", errorOf(t, w))

	env.pdf.err = errors.New("corrupt xref table")
	w = env.upload(t, "/api/v1/upload/resume", []formFile{{"resume", "cv.pdf", []byte("%PDF")}}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, errorOf(t, w), "corrupt xref table")
	assert.Empty(t, env.objects.Keys(), "nothing is stored when conversion fails")

	env.pdf.err = nil
	w = env.upload(t, "/api/v1/upload/resume", []formFile{{"resume", "cv.pdf", []byte("%PDF")}}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, decode[handler.ResumeUploadResponse](t, w).Duplicate, "a failed conversion is not remembered")

	w = env.upload(t, "/api/v1/upload/resume", []formFile{{"resume", "cv.pdf", []byte("%PDF")}}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[handler.ResumeUploadResponse](t, w).Duplicate)
}

func TestUploadResumeEmptyTextStillExtracts(t *testing.T) {
	env := newTestEnv(t)
	env.pdf.text = "   "

	w := env.upload(t, "/api/v1/upload/resume", []formFile{{"resume", "cv.pdf", []byte("%PDF")}}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[handler.ResumeUploadResponse](t, w)
	assert.Equal(t, "Not Found", resp.ExtractedData.Name)
}

func TestUploadRecordingAttachesToInterview(t *testing.T) {
	env := newTestEnv(t)
	c := env.createCandidate(t, "Jane Doe", "jane@example.com")
	w := env.do("POST", "/api/v1/interviews", map[string]any{"candidateId": c.ID, "position": "Backend", "scheduledAt": time.Now()})
	require.Equal(t, http.StatusCreated, w.Code)
	iv := decode[types.Interview](t, w)

	w = env.upload(t, "/api/v1/upload/recording", []formFile{{"recording", "call.webm", []byte("webm")}}, map[string]string{"interviewId": iv.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[map[string]any](t, w)
	assert.Equal(t, iv.ID, body["interviewId"])

	w = env.do("GET", "/api/v1/interviews/"+iv.ID, nil)
	got := decode[types.Interview](t, w)
	require.NotNil(t, got.Recording)
	assert.True(t, strings.HasPrefix(got.Recording.Filename, "call-"))

	w = env.upload(t, "/api/v1/upload/recording", []formFile{{"recording", "call.webm", []byte("webm")}}, map[string]string{"interviewId": "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Len(t, env.objects.Keys(), 1, "the orphaned recording is removed")

	w = env.upload(t, "/api/v1/upload/recording", nil, map[string]string{"interviewId": iv.ID})
	assert.Equal(t, "No recording uploaded", errorOf(t, w))
}

type multiResponse struct {
	Message string             `json:"message"`
	Files   []handler.FileInfo `json:"files"`
}

func TestUploadMultipleAndFileEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.upload(t, "/api/v1/upload/multiple", []formFile{
		{"files", "a.png", []byte("png")},
		{"files", "b.pdf", []byte("pdf")},
		{"files", "c.pdf", []byte("pdf")},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Too many files. Maximum is 2 files per request.", errorOf(t, w))

	w = env.upload(t, "/api/v1/upload/multiple", []formFile{
		{"files", "a.png", []byte("png")},
		{"files", "b.pdf", []byte("pdf")},
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	multi := decode[multiResponse](t, w)
	assert.Equal(t, "2 files uploaded successfully", multi.Message)
	require.Len(t, multi.Files, 2)

	png, pdf := multi.Files[0].Filename, multi.Files[1].Filename

	w = env.do("GET", "/api/v1/upload/file/"+png+"?type=misc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", string(w.Header().ContentType()))
	assert.Equal(t, "inline", string(w.Header().Peek("Content-Disposition")))
	assert.Equal(t, "png", w.Body.String())

	w = env.do("GET", "/api/v1/upload/file/"+pdf+"?type=misc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(w.Header().Peek("Content-Disposition")), "attachment")

	w = env.do("GET", "/api/v1/upload/file/"+pdf+"/url?type=misc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "memory://misc/"+pdf, decode[map[string]any](t, w)["url"])

	w = env.do("GET", "/api/v1/upload/file/"+pdf+"?type=secrets", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("DELETE", "/api/v1/upload/file/"+png+"?type=misc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	deleted := decode[map[string]any](t, w)
	assert.Equal(t, "File deleted successfully", deleted["message"])
	assert.Equal(t, png, deleted["filename"])

	w = env.do("DELETE", "/api/v1/upload/file/"+png+"?type=misc", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "File not found", errorOf(t, w))

	w = env.do("GET", "/api/v1/upload/file/"+png+"?type=misc", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadProfile(t *testing.T) {
	env := newTestEnv(t)

	w := env.upload(t, "/api/v1/upload/profile", []formFile{{"profile", "me.gif", []byte("gif")}}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Profile image uploaded successfully", decode[map[string]any](t, w)["message"])

	w = env.upload(t, "/api/v1/upload/profile", []formFile{{"profile", "me.bmp", []byte("bmp")}}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid file type for profile. Allowed types: .jpg, .jpeg, .png, .gif", errorOf(t, w))
}
