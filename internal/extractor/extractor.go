// Package extractor turns plain résumé text into pre-filled candidate fields
// using ordered pattern cascades and a fixed skill vocabulary. Every function
// is total: a missing value yields a sentinel or default, never an error.
package extractor

import (
	"math"
	"strconv"
	"strings"
)

// Fields is the structured result of one extraction.
type Fields struct {
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	Position   string   `json:"position"`
	Experience string   `json:"experience"`
	Skills     []string `json:"skills"`
	Summary    string   `json:"summary,omitempty"`
}

// Experience is the outcome of the experience cascade.
type Experience struct {
	// Years is the captured count; meaningful only when Found is true.
	Years int
	Found bool
	// Label is the rendered value reported in Fields.Experience.
	Label string
}

// Extractor holds immutable options and is safe for concurrent use.
type Extractor struct {
	opts Options
}

// New builds an Extractor from DefaultOptions plus the given overrides.
func New(opts ...Option) *Extractor {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.ExperienceMode != ExperienceRaw {
		o.ExperienceMode = ExperienceBucketed
	}
	return &Extractor{opts: o}
}

// Options returns a copy of the effective options.
func (e *Extractor) Options() Options {
	o := e.opts
	o.DefaultSkills = append([]string(nil), o.DefaultSkills...)
	return o
}

// Normalize collapses every run of whitespace into one space and trims the ends.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Extract runs every field extractor over rawText. It never fails; the empty
// string yields sentinels and defaults throughout.
func (e *Extractor) Extract(rawText string) Fields {
	normalized := Normalize(rawText)

	position := e.position(normalized)
	experience := e.experience(normalized)

	f := Fields{
		Name:       e.name(rawText, normalized),
		Email:      e.email(normalized),
		Phone:      e.phone(normalized),
		Position:   position,
		Experience: experience.Label,
		Skills:     e.skills(normalized),
	}
	if e.opts.ExperienceMode == ExperienceBucketed {
		f.Summary = Summary(position, experience.Label)
	}
	return f
}

// ExtractName applies the name cascade; the first pattern is anchored to the
// first line of text as given, the others scan its normalized form.
func (e *Extractor) ExtractName(text string) string {
	return e.name(text, Normalize(text))
}

// ExtractEmail returns the first address in document order.
func (e *Extractor) ExtractEmail(text string) string {
	return e.email(Normalize(text))
}

// ExtractPhone returns the first phone-like sequence, separators preserved.
func (e *Extractor) ExtractPhone(text string) string {
	return e.phone(Normalize(text))
}

// ExtractExperience finds the first year count near an experience keyword.
func (e *Extractor) ExtractExperience(text string) Experience {
	return e.experience(Normalize(text))
}

// ExtractSkills scans the configured vocabulary.
func (e *Extractor) ExtractSkills(text string) []string {
	return e.skills(Normalize(text))
}

// ExtractPosition returns a role title or the default position.
func (e *Extractor) ExtractPosition(text string) string {
	return e.position(Normalize(text))
}

func (e *Extractor) name(original, normalized string) string {
	if v, _, ok := namePatterns.First(original, normalized); ok {
		return v
	}
	return e.opts.NotFound
}

func (e *Extractor) email(normalized string) string {
	if v, ok := emailPattern.Match("", normalized); ok {
		return v
	}
	return e.opts.NotFound
}

func (e *Extractor) phone(normalized string) string {
	if v, _, ok := phonePatterns.First("", normalized); ok {
		return v
	}
	return e.opts.NotFound
}

func (e *Extractor) experience(normalized string) Experience {
	v, _, ok := experiencePatterns.First("", normalized)
	if !ok {
		if e.opts.ExperienceMode == ExperienceRaw {
			return Experience{}
		}
		return Experience{Label: e.opts.DefaultExperience}
	}
	years, err := strconv.Atoi(v)
	if err != nil {
		// digits only, so the sole failure is overflow
		years = math.MaxInt
	}
	exp := Experience{Years: years, Found: true}
	if e.opts.ExperienceMode == ExperienceRaw {
		// the captured digits, so the label keeps its magnitude past MaxInt
		digits := strings.TrimLeft(v, "0")
		if digits == "" {
			digits = "0"
		}
		exp.Label = digits + " years"
	} else {
		exp.Label = Bucket(years)
	}
	return exp
}

func (e *Extractor) skills(normalized string) []string {
	found := e.opts.Vocabulary.Scan(normalized, e.opts.SkillCap)
	if len(found) == 0 {
		return append([]string(nil), e.opts.DefaultSkills...)
	}
	return found
}

func (e *Extractor) position(normalized string) string {
	if v, _, ok := positionPatterns.First("", normalized); ok {
		return v
	}
	return e.opts.DefaultPosition
}

// Bucket maps a year count onto "0-2 years", "3-5 years" or "5+ years".
func Bucket(years int) string {
	switch {
	case years <= 2:
		return "0-2 years"
	case years <= 5:
		return "3-5 years"
	default:
		return "5+ years"
	}
}

// Summary composes the one-line profile shown next to the extracted fields.
func Summary(position, experience string) string {
	return "Experienced " + strings.ToLower(position) + " with " + experience + " of experience"
}
