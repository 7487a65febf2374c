package extractor

import (
	"regexp"
	"strings"
)

// Source selects which form of the input a pattern is matched against.
type Source int

const (
	// SourceNormalized is the whitespace-collapsed text.
	SourceNormalized Source = iota
	// SourceFirstLine is the first non-blank line of the original text,
	// with its own whitespace runs collapsed.
	SourceFirstLine
)

// Field names the output attribute a pattern fills.
type Field string

const (
	FieldName       Field = "name"
	FieldEmail      Field = "email"
	FieldPhone      Field = "phone"
	FieldExperience Field = "experience"
	FieldPosition   Field = "position"
)

// Pattern is one step of a cascade: a compiled expression, the capture group
// holding the value and the text it runs against.
type Pattern struct {
	Name   string
	Field  Field
	Source Source
	Expr   *regexp.Regexp
	Group  int
}

// Match runs the pattern and returns the trimmed capture.
func (p Pattern) Match(original, normalized string) (string, bool) {
	subject := normalized
	if p.Source == SourceFirstLine {
		subject = Normalize(firstLine(original))
	}
	m := p.Expr.FindStringSubmatch(subject)
	if m == nil || p.Group >= len(m) {
		return "", false
	}
	v := strings.TrimSpace(m[p.Group])
	if v == "" {
		return "", false
	}
	return v, true
}

// Cascade is an ordered list of patterns; earlier entries take priority.
type Cascade []Pattern

// First returns the value of the first pattern that matches together with
// that pattern's name. Later patterns are not evaluated after a hit.
func (c Cascade) First(original, normalized string) (value, pattern string, ok bool) {
	for _, p := range c {
		if v, hit := p.Match(original, normalized); hit {
			return v, p.Name, true
		}
	}
	return "", "", false
}

func firstLine(text string) string {
	text = strings.TrimLeft(text, " \t\r\n\f\v")
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	return text
}

// Two capitalised words, e.g. "John Smith".
const personName = `([A-Z][a-z]+ [A-Z][a-z]+)`

var namePatterns = Cascade{
	{Name: "leading-line", Field: FieldName, Source: SourceFirstLine, Group: 1,
		Expr: regexp.MustCompile(`^` + personName)},
	{Name: "name-label", Field: FieldName, Group: 1,
		Expr: regexp.MustCompile(`(?i:name):?\s*` + personName)},
	{Name: "resume-suffix", Field: FieldName, Group: 1,
		Expr: regexp.MustCompile(personName + `\s*(?i:resume)`)},
	{Name: "cv-suffix", Field: FieldName, Group: 1,
		Expr: regexp.MustCompile(personName + `\s*(?i:cv)`)},
}

var emailPattern = Pattern{
	Name: "email", Field: FieldEmail, Group: 0,
	Expr: regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
}

var phonePatterns = Cascade{
	{Name: "north-american", Field: FieldPhone, Group: 1,
		Expr: regexp.MustCompile(`(\+?1?[-.\s]?\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4})`)},
	{Name: "international", Field: FieldPhone, Group: 1,
		Expr: regexp.MustCompile(`(\+?[0-9]{1,3}[-.\s]?[0-9]{3,4}[-.\s]?[0-9]{3,4}[-.\s]?[0-9]{3,4})`)},
}

var experiencePatterns = Cascade{
	{Name: "years-of-experience", Field: FieldExperience, Group: 1,
		Expr: regexp.MustCompile(`(?i)(\d+)\s*\+?\s*years?\s*of\s*(?:experience|exp)`)},
	{Name: "years-experience", Field: FieldExperience, Group: 1,
		Expr: regexp.MustCompile(`(?i)(\d+)\s*\+?\s*years?\s*(?:experience|exp)`)},
	{Name: "experience-years", Field: FieldExperience, Group: 1,
		Expr: regexp.MustCompile(`(?i)experience.*?(\d+)\s*\+?\s*years?`)},
}

var positionPatterns = Cascade{
	{Name: "seeking-role", Field: FieldPosition, Group: 1,
		Expr: regexp.MustCompile(`(?i:seeking|looking for|interested in|position|role|title).*?([A-Z][a-zA-Z\s]*(?i:Developer|Engineer|Manager|Analyst|Designer|Architect))`)},
	{Name: "seniority-domain-role", Field: FieldPosition, Group: 1,
		Expr: regexp.MustCompile(`(?i)((?:Senior|Junior|Lead|Principal)?\s*(?:Software|Full Stack|Frontend|Backend|Web|Mobile|Data|DevOps|Cloud)?\s*(?:Developer|Engineer|Architect|Designer))`)},
	{Name: "objective", Field: FieldPosition, Group: 1,
		Expr: regexp.MustCompile(`(?i:objective).*?([A-Z][a-zA-Z\s]*(?i:Developer|Engineer|Manager))`)},
}

// NamePatterns returns a copy of the name cascade in priority order.
func NamePatterns() Cascade { return append(Cascade(nil), namePatterns...) }

// PhonePatterns returns a copy of the phone cascade in priority order.
func PhonePatterns() Cascade { return append(Cascade(nil), phonePatterns...) }

// ExperiencePatterns returns a copy of the experience cascade in priority order.
func ExperiencePatterns() Cascade { return append(Cascade(nil), experiencePatterns...) }

// PositionPatterns returns a copy of the position cascade in priority order.
func PositionPatterns() Cascade { return append(Cascade(nil), positionPatterns...) }
