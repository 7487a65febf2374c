package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"interview-assistant/internal/logger"
	"interview-assistant/internal/storage"
	"interview-assistant/internal/validation"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"
)

// documentKey is the single row the settings document lives in.
const documentKey = "default"

// ExportVersion tags exported documents.
const ExportVersion = "1.0"

var fieldMessages = map[string]string{
	"user.email":                "User email is required",
	"interview.defaultDuration": "Interview duration must be between 15 and 180 minutes",
	"interview.bufferTime":      "Buffer time must be between 0 and 30 minutes",
	"ai.questionDifficulty":     "Invalid question difficulty level",
	"ai.suggestionFrequency":    "Invalid suggestion frequency",
	"ai.confidenceThreshold":    "Confidence threshold must be between 0 and 1",
	"analytics.dataRetention":   "Data retention must not be negative",
	"security.sessionTimeout":   "Session timeout must not be negative",
	"security.passwordExpiry":   "Password expiry must not be negative",
}

var sectionsSchema = gojsonschema.NewStringLoader(`{
	"type": "object",
	"required": ["user", "interview", "ai", "notifications", "analytics", "security"],
	"properties": {
		"user": {"type": "object"},
		"interview": {"type": "object"},
		"ai": {"type": "object"},
		"notifications": {"type": "object"},
		"analytics": {"type": "object"},
		"security": {"type": "object"}
	}
}`)

// ImportError lists the sections an imported document lacks.
type ImportError struct {
	MissingSections []string
}

func (e *ImportError) Error() string {
	return "Invalid settings format"
}

// ExportDocument is the downloadable settings file.
type ExportDocument struct {
	ExportDate time.Time `json:"exportDate"`
	Version    string    `json:"version"`
	Settings   Settings  `json:"settings"`
}

// Service reads and writes the settings document.
type Service struct {
	repo             storage.SettingsRepository
	apiKeyConfigured bool
	now              func() time.Time
	log              zerolog.Logger
}

// NewService; apiKeyConfigured controls how ai.openaiApiKey is rendered.
func NewService(repo storage.SettingsRepository, apiKeyConfigured bool) *Service {
	return &Service{
		repo:             repo,
		apiKeyConfigured: apiKeyConfigured,
		now:              time.Now,
		log:              logger.Component("settings"),
	}
}

func (s *Service) load(ctx context.Context) (Settings, error) {
	cur := Defaults()
	if _, err := s.repo.Load(ctx, documentKey, &cur); err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return cur, nil
}

func (s *Service) save(ctx context.Context, st Settings) error {
	st.AI.OpenAIAPIKey = nil
	if err := s.repo.Save(ctx, documentKey, st); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (s *Service) mask(st Settings) Settings {
	st.AI.OpenAIAPIKey = nil
	if s.apiKeyConfigured {
		v := APIKeyConfigured
		st.AI.OpenAIAPIKey = &v
	}
	return st
}

// Get returns the stored settings, or the defaults when none are stored.
func (s *Service) Get(ctx context.Context) (Settings, error) {
	st, err := s.load(ctx)
	if err != nil {
		return Settings{}, err
	}
	return s.mask(st), nil
}

// Update merges patch into the stored document. The patch must carry
// user.email.
func (s *Service) Update(ctx context.Context, patch []byte) (Settings, error) {
	var head struct {
		User *struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(patch, &head); err != nil {
		return Settings{}, validation.Newf("Invalid settings payload")
	}
	if head.User == nil || head.User.Email == "" {
		return Settings{}, validation.Newf("User email is required")
	}

	cur, err := s.load(ctx)
	if err != nil {
		return Settings{}, err
	}
	if err := json.Unmarshal(patch, &cur); err != nil {
		return Settings{}, validation.Newf("Invalid settings payload")
	}
	if err := validation.Struct(cur, fieldMessages); err != nil {
		return Settings{}, err
	}
	if err := s.save(ctx, cur); err != nil {
		return Settings{}, err
	}
	s.log.Info().Msg("settings updated")
	return s.mask(cur), nil
}

// Import replaces the stored document with raw, which must contain all
// six sections as objects. It returns the number of top-level sections.
func (s *Service) Import(ctx context.Context, raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	var top map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &top) != nil || top == nil {
		return 0, validation.Newf("Valid settings object is required")
	}

	result, err := gojsonschema.Validate(sectionsSchema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return 0, fmt.Errorf("validate settings schema: %w", err)
	}
	if !result.Valid() {
		return 0, &ImportError{MissingSections: missingSections(result)}
	}

	imported := Defaults()
	if err := json.Unmarshal(raw, &imported); err != nil {
		return 0, validation.Newf("Invalid settings format")
	}
	if err := validation.Struct(imported, fieldMessages); err != nil {
		return 0, err
	}
	if err := s.save(ctx, imported); err != nil {
		return 0, err
	}
	s.log.Info().Int("sections", len(top)).Msg("settings imported")
	return len(top), nil
}

// missingSections maps schema failures to section names: absent sections
// and sections that are not objects both count, in document order.
func missingSections(result *gojsonschema.Result) []string {
	var missing []string
	for _, e := range result.Errors() {
		name := e.Field()
		if e.Type() == "required" {
			if p, ok := e.Details()["property"].(string); ok {
				name = p
			}
		}
		if slices.Contains(Sections, name) && !slices.Contains(missing, name) {
			missing = append(missing, name)
		}
	}
	slices.SortFunc(missing, func(a, b string) int {
		return slices.Index(Sections, a) - slices.Index(Sections, b)
	})
	return missing
}

// Reset restores one section, or every section when section is empty.
func (s *Service) Reset(ctx context.Context, section string) (Settings, error) {
	var st Settings
	if section == "" {
		st = Defaults()
	} else {
		if !slices.Contains(Sections, section) {
			return Settings{}, validation.Newf("Invalid settings section")
		}
		cur, err := s.load(ctx)
		if err != nil {
			return Settings{}, err
		}
		cur.resetSection(section)
		st = cur
	}
	if err := s.save(ctx, st); err != nil {
		return Settings{}, err
	}
	return s.mask(st), nil
}

// Export returns the stored document without the API key.
func (s *Service) Export(ctx context.Context) (ExportDocument, error) {
	st, err := s.load(ctx)
	if err != nil {
		return ExportDocument{}, err
	}
	st.AI.OpenAIAPIKey = nil
	return ExportDocument{ExportDate: s.now().UTC(), Version: ExportVersion, Settings: st}, nil
}
