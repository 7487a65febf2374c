package extractor

import (
	"fmt"
	"strings"
)

// ExperienceMode selects how a matched year count is rendered.
type ExperienceMode string

const (
	// ExperienceBucketed maps the year count onto a fixed range label.
	ExperienceBucketed ExperienceMode = "bucketed"
	// ExperienceRaw renders the literal "{n} years".
	ExperienceRaw ExperienceMode = "raw"
)

// Defaults used when the caller does not override them.
const (
	DefaultNotFound         = "Not Found"
	DefaultPosition         = "Software Developer"
	DefaultExperienceBucket = "2-3 years"
	DefaultSkillCap         = 8
)

// DefaultSkills is reported when no vocabulary term occurs in the text.
var DefaultSkills = []string{"JavaScript", "React", "Node.js"}

// ParseExperienceMode accepts "bucketed" or "raw" (case-insensitive). An
// empty string yields the bucketed default.
func ParseExperienceMode(s string) (ExperienceMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ExperienceBucketed):
		return ExperienceBucketed, nil
	case string(ExperienceRaw):
		return ExperienceRaw, nil
	default:
		return "", fmt.Errorf("unknown experience mode %q (want bucketed or raw)", s)
	}
}

// Options controls sentinel values, experience rendering and the skill list.
type Options struct {
	ExperienceMode ExperienceMode
	// NotFound is returned for name, email and phone when nothing matches.
	NotFound string
	// DefaultExperience is the bucketed-mode label used when no year count
	// is found. Raw mode always reports an empty string instead.
	DefaultExperience string
	DefaultPosition   string
	SkillCap          int
	DefaultSkills     []string
	Vocabulary        *Vocabulary
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions returns bucketed mode with the "Not Found" sentinel.
func DefaultOptions() Options {
	return Options{
		ExperienceMode:    ExperienceBucketed,
		NotFound:          DefaultNotFound,
		DefaultExperience: DefaultExperienceBucket,
		DefaultPosition:   DefaultPosition,
		SkillCap:          DefaultSkillCap,
		DefaultSkills:     DefaultSkills,
		Vocabulary:        DefaultVocabulary,
	}
}

// WithExperienceMode sets bucketed or raw experience rendering.
func WithExperienceMode(mode ExperienceMode) Option {
	return func(o *Options) {
		o.ExperienceMode = mode
	}
}

// WithNotFoundSentinel sets the placeholder for unmatched name/email/phone.
// The empty string is a valid sentinel.
func WithNotFoundSentinel(s string) Option {
	return func(o *Options) {
		o.NotFound = s
	}
}

// WithSkillCap limits the number of reported skills. Values below 1 are ignored.
func WithSkillCap(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.SkillCap = n
		}
	}
}

// WithVocabulary replaces the skill vocabulary.
func WithVocabulary(v *Vocabulary) Option {
	return func(o *Options) {
		if v != nil && v.Len() > 0 {
			o.Vocabulary = v
		}
	}
}

// WithDefaultSkills replaces the fallback skill list. An empty list is ignored
// so the fallback stays non-empty.
func WithDefaultSkills(skills ...string) Option {
	return func(o *Options) {
		if len(skills) > 0 {
			o.DefaultSkills = append([]string(nil), skills...)
		}
	}
}

// WithDefaultPosition replaces the fallback role title.
func WithDefaultPosition(position string) Option {
	return func(o *Options) {
		if strings.TrimSpace(position) != "" {
			o.DefaultPosition = position
		}
	}
}
