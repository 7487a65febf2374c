// Package settings manages the application settings document.
package settings

// Section names, in document order.
var Sections = []string{"user", "interview", "ai", "notifications", "analytics", "security"}

// APIKeyConfigured is rendered in place of a configured OpenAI key.
const APIKeyConfigured = "***configured***"

type User struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"required,email"`
	Role     string `json:"role"`
	Timezone string `json:"timezone"`
}

type Interview struct {
	// minutes
	DefaultDuration       int  `json:"defaultDuration" validate:"omitempty,gte=15,lte=180"`
	RecordingEnabled      bool `json:"recordingEnabled"`
	AutoTranscription     bool `json:"autoTranscription"`
	AISuggestionsEnabled  bool `json:"aiSuggestionsEnabled"`
	ReminderNotifications bool `json:"reminderNotifications"`
	// minutes between interviews
	BufferTime int `json:"bufferTime" validate:"gte=0,lte=30"`
}

type AI struct {
	// OpenAIAPIKey is never stored; reads render APIKeyConfigured or null.
	OpenAIAPIKey        *string `json:"openaiApiKey,omitempty"`
	QuestionDifficulty  string  `json:"questionDifficulty" validate:"omitempty,oneof=easy medium hard"`
	SuggestionFrequency string  `json:"suggestionFrequency" validate:"omitempty,oneof=low moderate high"`
	AutoScoring         bool    `json:"autoScoring"`
	ConfidenceThreshold float64 `json:"confidenceThreshold" validate:"gte=0,lte=1"`
}

type EmailNotifications struct {
	InterviewReminders bool `json:"interviewReminders"`
	CandidateUpdates   bool `json:"candidateUpdates"`
	SystemAlerts       bool `json:"systemAlerts"`
}

type InAppNotifications struct {
	RealTimeUpdates     bool `json:"realTimeUpdates"`
	AISuggestions       bool `json:"aiSuggestions"`
	SystemNotifications bool `json:"systemNotifications"`
}

type Notifications struct {
	Email EmailNotifications `json:"email"`
	InApp InAppNotifications `json:"inApp"`
}

type Analytics struct {
	// days
	DataRetention   int    `json:"dataRetention" validate:"gte=0"`
	ShareWithTeam   bool   `json:"shareWithTeam"`
	ExportEnabled   bool   `json:"exportEnabled"`
	ReportFrequency string `json:"reportFrequency"`
}

type Security struct {
	// minutes
	SessionTimeout int  `json:"sessionTimeout" validate:"gte=0"`
	RequireMFA     bool `json:"requireMFA"`
	// days
	PasswordExpiry int  `json:"passwordExpiry" validate:"gte=0"`
	AuditLogging   bool `json:"auditLogging"`
}

// Settings is the whole document.
type Settings struct {
	User          User          `json:"user"`
	Interview     Interview     `json:"interview"`
	AI            AI            `json:"ai"`
	Notifications Notifications `json:"notifications"`
	Analytics     Analytics     `json:"analytics"`
	Security      Security      `json:"security"`
}

// Defaults returns a fresh copy of the built-in settings.
func Defaults() Settings {
	return Settings{
		User: User{
			Name:     "Admin User",
			Email:    "admin@company.com",
			Role:     "interviewer",
			Timezone: "America/New_York",
		},
		Interview: Interview{
			DefaultDuration:       60,
			RecordingEnabled:      true,
			AutoTranscription:     true,
			AISuggestionsEnabled:  true,
			ReminderNotifications: true,
			BufferTime:            5,
		},
		AI: AI{
			QuestionDifficulty:  "medium",
			SuggestionFrequency: "moderate",
			AutoScoring:         true,
			ConfidenceThreshold: 0.7,
		},
		Notifications: Notifications{
			Email: EmailNotifications{InterviewReminders: true, CandidateUpdates: true, SystemAlerts: true},
			InApp: InAppNotifications{RealTimeUpdates: true, AISuggestions: true, SystemNotifications: true},
		},
		Analytics: Analytics{
			DataRetention:   365,
			ShareWithTeam:   true,
			ExportEnabled:   true,
			ReportFrequency: "weekly",
		},
		Security: Security{
			SessionTimeout: 480,
			PasswordExpiry: 90,
			AuditLogging:   true,
		},
	}
}

// resetSection copies one section of the defaults into s.
func (s *Settings) resetSection(section string) bool {
	d := Defaults()
	switch section {
	case "user":
		s.User = d.User
	case "interview":
		s.Interview = d.Interview
	case "ai":
		s.AI = d.AI
	case "notifications":
		s.Notifications = d.Notifications
	case "analytics":
		s.Analytics = d.Analytics
	case "security":
		s.Security = d.Security
	default:
		return false
	}
	return true
}
