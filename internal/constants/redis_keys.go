package constants

import "time"

// Redis keys follow app:{module}:{entity}[:{id}].
const (
	AppPrefix = "app"

	UploadModulePrefix    = "upload"
	AnalyticsModulePrefix = "analytics"
	AIModulePrefix        = "ai"

	EntityDedupSet = "dedup_set"
	EntityCache    = "cache"
	EntityStatus   = "status"

	// KeyUploadMD5Set remembers uploaded file hashes (SET).
	// app:upload:dedup_set
	KeyUploadMD5Set = AppPrefix + ":" + UploadModulePrefix + ":" + EntityDedupSet

	// KeyAnalyticsCache caches one analytics report (STRING, JSON).
	// app:analytics:cache:{report}:{params}
	KeyAnalyticsCache = AppPrefix + ":" + AnalyticsModulePrefix + ":" + EntityCache + ":%s:%s"

	// KeyAnalyticsCachePattern matches every cached report.
	KeyAnalyticsCachePattern = AppPrefix + ":" + AnalyticsModulePrefix + ":" + EntityCache + ":*"

	// KeyAIStatus caches the AI provider status (STRING, JSON).
	// app:ai:status
	KeyAIStatus = AppPrefix + ":" + AIModulePrefix + ":" + EntityStatus
)

const (
	DefaultMD5ExpireDays   = 30
	DefaultAnalyticsTTL    = 60 * time.Second
	AIStatusCacheDuration  = 5 * time.Minute
	AnalyticsScanBatchSize = 100
)
