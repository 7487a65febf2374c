package router

import (
	"interview-assistant/internal/api/handler"

	"github.com/cloudwego/hertz/pkg/app/server"
)

// Handlers bundles every endpoint group.
type Handlers struct {
	Candidates *handler.CandidateHandler
	Interviews *handler.InterviewHandler
	AI         *handler.AIHandler
	Analytics  *handler.AnalyticsHandler
	Settings   *handler.SettingsHandler
	Uploads    *handler.UploadHandler
}

// RegisterRoutes registers the API under /api/v1 plus the root health check.
func RegisterRoutes(h *server.Hertz, hs Handlers) {
	h.GET("/health", handler.Health)

	api := h.Group("/api/v1")
	api.GET("/health", handler.Health)

	candidates := api.Group("/candidates")
	candidates.GET("", hs.Candidates.List)
	candidates.POST("", hs.Candidates.Create)
	candidates.GET("/stats/overview", hs.Candidates.Stats)
	candidates.GET("/export", hs.Candidates.Export)
	candidates.GET("/:id", hs.Candidates.Get)
	candidates.PUT("/:id", hs.Candidates.Update)
	candidates.DELETE("/:id", hs.Candidates.Delete)

	interviews := api.Group("/interviews")
	interviews.GET("", hs.Interviews.List)
	interviews.POST("", hs.Interviews.Create)
	interviews.GET("/:id", hs.Interviews.Get)
	interviews.PUT("/:id", hs.Interviews.Update)
	interviews.DELETE("/:id", hs.Interviews.Delete)
	interviews.POST("/:id/start", hs.Interviews.Start)
	interviews.POST("/:id/end", hs.Interviews.End)
	interviews.PUT("/:id/transcript", hs.Interviews.Transcript)
	interviews.POST("/:id/questions", hs.Interviews.AddQuestion)
	interviews.POST("/:id/evaluations", hs.Interviews.AddEvaluation)
	interviews.GET("/:id/report", hs.Interviews.Report)

	ai := api.Group("/ai")
	ai.POST("/generate-question", hs.AI.GenerateQuestion)
	ai.POST("/generate-suggestion", hs.AI.GenerateSuggestion)
	ai.POST("/analyze-response", hs.AI.AnalyzeResponse)
	ai.POST("/generate-feedback", hs.AI.GenerateFeedback)
	ai.GET("/status", hs.AI.Status)

	analytics := api.Group("/analytics")
	analytics.GET("/overview", hs.Analytics.Overview)
	analytics.GET("/trends", hs.Analytics.Trends)
	analytics.GET("/scores", hs.Analytics.Scores)
	analytics.GET("/positions", hs.Analytics.Positions)
	analytics.GET("/performance", hs.Analytics.Performance)
	analytics.GET("/questions", hs.Analytics.Questions)
	analytics.GET("/recent-activity", hs.Analytics.RecentActivity)

	settings := api.Group("/settings")
	settings.GET("", hs.Settings.Get)
	settings.PUT("", hs.Settings.Update)
	settings.GET("/export", hs.Settings.Export)
	settings.POST("/import", hs.Settings.Import)
	settings.DELETE("/reset", hs.Settings.Reset)
	settings.POST("/test-ai", hs.Settings.TestAI)

	upload := api.Group("/upload")
	upload.POST("/resume", hs.Uploads.UploadResume)
	upload.POST("/recording", hs.Uploads.UploadRecording)
	upload.POST("/profile", hs.Uploads.UploadProfile)
	upload.POST("/multiple", hs.Uploads.UploadMultiple)
	upload.GET("/file/:filename", hs.Uploads.GetFile)
	upload.GET("/file/:filename/url", hs.Uploads.PresignFile)
	upload.DELETE("/file/:filename", hs.Uploads.DeleteFile)
}
