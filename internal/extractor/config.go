package extractor

import (
	"interview-assistant/internal/config"
)

// FromConfig builds an Extractor from the extraction section of the
// application config.
func FromConfig(cfg config.ExtractionConfig) (*Extractor, error) {
	mode, err := ParseExperienceMode(cfg.ExperienceMode)
	if err != nil {
		return nil, err
	}
	opts := []Option{WithExperienceMode(mode), WithSkillCap(cfg.SkillCap)}
	if sentinel, ok := cfg.NotFoundSentinelValue(); ok {
		opts = append(opts, WithNotFoundSentinel(sentinel))
	}
	return New(opts...), nil
}
