package handler

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"path/filepath"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"interview-assistant/internal/config"
	"interview-assistant/internal/extractor"
	"interview-assistant/internal/logger"
	"interview-assistant/internal/parser"
	"interview-assistant/internal/storage"
	"interview-assistant/internal/tracing"
	"interview-assistant/internal/types"
	"interview-assistant/internal/validation"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var uploadTracer = otel.Tracer("interview-assistant/handler/upload")

// Upload folders, also accepted as the ?type= of the file endpoints.
const (
	folderResumes    = "resumes"
	folderRecordings = "recordings"
	folderProfiles   = "profiles"
	folderMisc       = "misc"
)

// miscExtensions applies to the multiple-files endpoint.
var miscExtensions = []string{".pdf", ".doc", ".docx", ".jpg", ".jpeg", ".png"}

var fileMimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".webm": "audio/webm",
}

// DocumentConverter turns an uploaded document into plain text.
type DocumentConverter interface {
	Convert(ctx context.Context, doc parser.Document) (parser.Conversion, error)
}

// UploadDeps collects the collaborators of UploadHandler. Objects, Dedup,
// Events and Interviews may be nil.
type UploadDeps struct {
	Config        config.UploadConfig
	MaxInputChars int
	Converter     DocumentConverter
	Extractor     *extractor.Extractor
	Objects       storage.ObjectStorage
	Dedup         storage.UploadDeduper
	Interviews    storage.InterviewRepository
	Events        storage.MessageQueue
	Exchange      string
	// PresignExpiry is the lifetime of URLs from the presign endpoint.
	PresignExpiry time.Duration
}

// UploadHandler serves /upload.
type UploadHandler struct {
	UploadDeps
	now func() time.Time
}

func NewUploadHandler(deps UploadDeps) *UploadHandler {
	if deps.PresignExpiry <= 0 {
		deps.PresignExpiry = 15 * time.Minute
	}
	return &UploadHandler{UploadDeps: deps, now: time.Now}
}

// FileInfo describes one stored upload.
type FileInfo struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimetype"`
	Size         int64  `json:"size"`
	URL          string `json:"url"`
	Type         string `json:"type"`
	UploadDate   string `json:"uploadDate"`
	MD5          string `json:"md5,omitempty"`
}

// ResumeFile converts the info into the candidate résumé reference.
func (f FileInfo) ResumeFile() *types.ResumeFile {
	return &types.ResumeFile{Filename: f.Filename, OriginalName: f.OriginalName, MimeType: f.MimeType, Size: f.Size, URL: f.URL}
}

// DocumentInfo reports how the résumé text was obtained. Chars counts the
// runes handed to the extractor.
type DocumentInfo struct {
	Backend     string `json:"backend"`
	ContentType string `json:"contentType,omitempty"`
	PageCount   int    `json:"pageCount,omitempty"`
	Chars       int    `json:"chars"`
	Truncated   bool   `json:"truncated"`
}

// ResumeUploadResponse is the body of POST /upload/resume.
type ResumeUploadResponse struct {
	Success       bool             `json:"success"`
	File          FileInfo         `json:"file"`
	Document      DocumentInfo     `json:"document"`
	ExtractedData extractor.Fields `json:"extractedData"`
	RawText       string           `json:"rawText"`
	Duplicate     bool             `json:"duplicate"`
}

func (h *UploadHandler) maxBytes() int64 {
	return int64(h.Config.MaxFileSizeMB) << 20
}

func (h *UploadHandler) allowed(folder string) []string {
	switch folder {
	case folderResumes:
		return h.Config.ResumeExtensions
	case folderRecordings:
		return h.Config.RecordingExtensions
	case folderProfiles:
		return h.Config.ProfileExtensions
	}
	return miscExtensions
}

// checkFile applies the extension and size limits of field.
func (h *UploadHandler) checkFile(field, folder string, fh *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	allowed := h.allowed(folder)
	if !slices.Contains(allowed, ext) {
		return validation.Newf("Invalid file type for %s. Allowed types: %s", field, strings.Join(allowed, ", "))
	}
	if fh.Size > h.maxBytes() {
		return validation.Newf("File too large. Maximum size is %dMB.", h.Config.MaxFileSizeMB)
	}
	return nil
}

// storedName is {basename}-{unix-ms}-{random}{ext}.
func (h *UploadHandler) storedName(original string) string {
	ext := filepath.Ext(original)
	base := strings.TrimSuffix(filepath.Base(original), ext)
	base = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ' ' {
			return '_'
		}
		return r
	}, base)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	return fmt.Sprintf("%s-%d-%s%s", base, h.now().UnixMilli(), suffix, ext)
}

func fileURL(folder, name string) string {
	return "/api/v1/upload/file/" + url.PathEscape(name) + "?type=" + folder
}

func contentTypeFor(name string) string {
	if m, ok := fileMimeTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return m
	}
	return "application/octet-stream"
}

func readAll(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

// store writes data under folder/ and returns its description. Without
// object storage the file is described but not kept.
func (h *UploadHandler) store(ctx context.Context, folder string, fh *multipart.FileHeader, data []byte) (FileInfo, error) {
	name := h.storedName(fh.Filename)
	info := FileInfo{
		Filename:     name,
		OriginalName: fh.Filename,
		MimeType:     contentTypeFor(fh.Filename),
		Size:         int64(len(data)),
		Type:         strings.TrimSuffix(folder, "s"),
		UploadDate:   h.now().UTC().Format(time.RFC3339Nano),
	}
	if h.Objects == nil {
		sum := md5.Sum(data)
		info.MD5 = hex.EncodeToString(sum[:])
		return info, nil
	}
	sum, err := h.Objects.Put(ctx, folder+"/"+name, bytes.NewReader(data), int64(len(data)), info.MimeType)
	if err != nil {
		return FileInfo{}, err
	}
	info.MD5 = sum
	info.URL = fileURL(folder, name)
	return info, nil
}

// receive validates and stores the single file of field.
func (h *UploadHandler) receive(ctx context.Context, c *app.RequestContext, field, folder, missing string) (FileInfo, bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		badRequest(c, missing)
		return FileInfo{}, false
	}
	if err := h.checkFile(field, folder, fh); err != nil {
		badRequest(c, err.Error())
		return FileInfo{}, false
	}
	if h.Objects == nil {
		c.JSON(consts.StatusServiceUnavailable, utils.H{"error": "File storage is not configured"})
		return FileInfo{}, false
	}
	data, err := readAll(fh)
	if err != nil {
		fail(ctx, c, err, "", "Failed to upload file")
		return FileInfo{}, false
	}
	info, err := h.store(ctx, folder, fh, data)
	if err != nil {
		fail(ctx, c, err, "", "Failed to upload file")
		return FileInfo{}, false
	}
	return info, true
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// UploadResume handles POST /upload/resume: the document is converted,
// its fields extracted and the original kept in object storage.
func (h *UploadHandler) UploadResume(ctx context.Context, c *app.RequestContext) {
	ctx, span := uploadTracer.Start(ctx, "Upload.Resume")
	defer span.End()

	fh, err := c.FormFile("resume")
	if err != nil {
		badRequest(c, "No file uploaded")
		return
	}
	if err := h.checkFile("resume", folderResumes, fh); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		badRequest(c, err.Error())
		return
	}
	span.SetAttributes(
		attribute.String("file.name", tracing.SafeAttributeValue("file.name", fh.Filename, 128)),
		attribute.Int64("file.size", fh.Size),
	)

	data, err := readAll(fh)
	if err != nil {
		fail(ctx, c, err, "", "Failed to process resume")
		return
	}
	conv, err := h.Converter.Convert(ctx, parser.Document{
		Filename: fh.Filename,
		MimeType: parser.MimeTypeForFile(fh.Filename),
		Data:     data,
	})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeParser)
		fail(ctx, c, err, "", "Failed to process resume")
		return
	}
	text := truncateRunes(conv.Text, h.MaxInputChars)
	doc := DocumentInfo{
		Backend:     conv.Backend,
		ContentType: conv.ContentType,
		PageCount:   conv.PageCount,
		Chars:       utf8.RuneCountInString(text),
		Truncated:   len(text) < len(conv.Text),
	}
	span.SetAttributes(
		attribute.String("document.backend", doc.Backend),
		attribute.String("document.content_type", doc.ContentType),
		attribute.Int("document.page_count", doc.PageCount),
		attribute.Int("document.chars", doc.Chars),
		attribute.Bool("document.truncated", doc.Truncated),
	)
	fields := h.Extractor.Extract(text)

	// only documents that converted are remembered
	sum := md5.Sum(data)
	md5Hex := hex.EncodeToString(sum[:])
	duplicate := false
	if h.Dedup != nil {
		if duplicate, err = h.Dedup.CheckAndAddUploadMD5(ctx, md5Hex); err != nil {
			logger.Warn().Err(err).Str("md5", md5Hex).Msg("upload dedup check failed")
			duplicate = false
		}
	}

	info, err := h.store(ctx, folderResumes, fh, data)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		fail(ctx, c, err, "", "Failed to store resume")
		return
	}
	span.SetAttributes(attribute.Bool("upload.duplicate", duplicate))

	h.publishExtracted(ctx, info, fields, duplicate)

	c.JSON(consts.StatusOK, ResumeUploadResponse{
		Success:       true,
		File:          info,
		Document:      doc,
		ExtractedData: fields,
		RawText:       truncateRunes(text, h.Config.RawTextPreviewChars),
		Duplicate:     duplicate,
	})
}

// publishExtracted is best effort: the response does not depend on the broker.
func (h *UploadHandler) publishExtracted(ctx context.Context, info FileInfo, fields extractor.Fields, duplicate bool) {
	if h.Events == nil || h.Exchange == "" {
		return
	}
	event := storage.NewEvent(storage.EventResumeExtracted, info.Filename, map[string]any{
		"file":      info,
		"position":  fields.Position,
		"skills":    fields.Skills,
		"duplicate": duplicate,
	})
	if err := h.Events.PublishJSON(ctx, h.Exchange, storage.EventResumeExtracted, event, true); err != nil {
		logger.Warn().Err(err).Str("filename", info.Filename).Msg("publish resume.extracted failed")
	}
}

// UploadRecording handles POST /upload/recording. With an interviewId form
// value the recording is attached to that interview.
func (h *UploadHandler) UploadRecording(ctx context.Context, c *app.RequestContext) {
	info, ok := h.receive(ctx, c, "recording", folderRecordings, "No recording uploaded")
	if !ok {
		return
	}
	interviewID := string(c.FormValue("interviewId"))
	if interviewID != "" && h.Interviews != nil {
		err := h.Interviews.AttachRecording(ctx, interviewID, types.Recording{Filename: info.Filename, URL: info.URL})
		if err != nil {
			// keep storage consistent with the failed attach
			if delErr := h.Objects.Delete(ctx, folderRecordings+"/"+info.Filename); delErr != nil {
				logger.Warn().Err(delErr).Str("filename", info.Filename).Msg("remove orphaned recording")
			}
			fail(ctx, c, err, "Interview not found", "Failed to upload recording")
			return
		}
	}
	var idValue any
	if interviewID != "" {
		idValue = interviewID
	}
	c.JSON(consts.StatusOK, utils.H{
		"message":     "Recording uploaded successfully",
		"file":        info,
		"interviewId": idValue,
	})
}

func (h *UploadHandler) UploadProfile(ctx context.Context, c *app.RequestContext) {
	info, ok := h.receive(ctx, c, "profile", folderProfiles, "No image uploaded")
	if !ok {
		return
	}
	c.JSON(consts.StatusOK, utils.H{"message": "Profile image uploaded successfully", "file": info})
}

// UploadMultiple handles POST /upload/multiple. Every file is checked
// before any is stored.
func (h *UploadHandler) UploadMultiple(ctx context.Context, c *app.RequestContext) {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		badRequest(c, "No files uploaded")
		return
	}
	files := form.File["files"]
	if len(files) > h.Config.MaxFiles {
		badRequest(c, fmt.Sprintf("Too many files. Maximum is %d files per request.", h.Config.MaxFiles))
		return
	}
	for _, fh := range files {
		if err := h.checkFile("files", folderMisc, fh); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	if h.Objects == nil {
		c.JSON(consts.StatusServiceUnavailable, utils.H{"error": "File storage is not configured"})
		return
	}

	out := make([]FileInfo, 0, len(files))
	for _, fh := range files {
		data, err := readAll(fh)
		if err != nil {
			fail(ctx, c, err, "", "Failed to upload files")
			return
		}
		info, err := h.store(ctx, folderMisc, fh, data)
		if err != nil {
			fail(ctx, c, err, "", "Failed to upload files")
			return
		}
		out = append(out, info)
	}
	c.JSON(consts.StatusOK, utils.H{
		"message": fmt.Sprintf("%d files uploaded successfully", len(out)),
		"files":   out,
	})
}

// objectKey resolves the :filename and ?type= of the file endpoints.
func objectKey(c *app.RequestContext) (key, name string, err error) {
	name = c.Param("filename")
	folder := c.DefaultQuery("type", folderMisc)
	if !slices.Contains([]string{folderResumes, folderRecordings, folderProfiles, folderMisc}, folder) {
		return "", "", validation.Newf("Invalid file type")
	}
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", "", validation.Newf("Invalid filename")
	}
	return folder + "/" + name, name, nil
}

// GetFile handles GET /upload/file/:filename?type=. Images and audio are
// served inline, everything else as an attachment.
func (h *UploadHandler) GetFile(ctx context.Context, c *app.RequestContext) {
	key, name, err := objectKey(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if h.Objects == nil {
		c.JSON(consts.StatusNotFound, utils.H{"error": "File not found"})
		return
	}
	rc, info, err := h.Objects.Get(ctx, key)
	if err != nil {
		fail(ctx, c, err, "File not found", "Failed to serve file")
		return
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		fail(ctx, c, err, "", "Failed to serve file")
		return
	}

	ct := contentTypeFor(name)
	if strings.HasPrefix(ct, "image/") || strings.HasPrefix(ct, "audio/") {
		c.Header("Content-Disposition", "inline")
	} else {
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	}
	if !info.LastModified.IsZero() {
		c.Header("Last-Modified", info.LastModified.UTC().Format(time.RFC1123))
	}
	c.Data(consts.StatusOK, ct, data)
}

// DeleteFile handles DELETE /upload/file/:filename?type=.
func (h *UploadHandler) DeleteFile(ctx context.Context, c *app.RequestContext) {
	key, name, err := objectKey(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if h.Objects == nil {
		c.JSON(consts.StatusNotFound, utils.H{"error": "File not found"})
		return
	}
	if err := h.Objects.Delete(ctx, key); err != nil {
		fail(ctx, c, err, "File not found", "Failed to delete file")
		return
	}
	c.JSON(consts.StatusOK, utils.H{
		"message":   "File deleted successfully",
		"filename":  name,
		"deletedAt": timestamp(),
	})
}

// PresignFile handles GET /upload/file/:filename/url?type= and returns a
// time-limited direct download URL.
func (h *UploadHandler) PresignFile(ctx context.Context, c *app.RequestContext) {
	key, name, err := objectKey(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if h.Objects == nil {
		c.JSON(consts.StatusNotFound, utils.H{"error": "File not found"})
		return
	}
	if _, err := h.Objects.Stat(ctx, key); err != nil {
		fail(ctx, c, err, "File not found", "Failed to sign file URL")
		return
	}
	u, err := h.Objects.PresignedURL(ctx, key, h.PresignExpiry)
	if err != nil {
		fail(ctx, c, err, "File not found", "Failed to sign file URL")
		return
	}
	c.JSON(consts.StatusOK, utils.H{
		"filename":  name,
		"url":       u,
		"expiresAt": h.now().Add(h.PresignExpiry).UTC().Format(time.RFC3339),
	})
}
