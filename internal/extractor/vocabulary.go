package extractor

import "strings"

// Vocabulary is an ordered, deduplicated set of skill terms. It is never
// mutated after construction and may be shared between goroutines.
type Vocabulary struct {
	terms  []string
	folded []string
}

// DefaultVocabulary covers languages, frameworks, data stores, cloud/devops
// tooling and ML libraries. Scan order is declaration order.
var DefaultVocabulary = NewVocabulary(
	"JavaScript", "TypeScript", "Python", "Java", "C++", "C#", "Go", "Rust", "PHP", "Ruby",
	"React", "Angular", "Vue", "Node.js", "Express", "Django", "Flask", "Spring", "Laravel",
	"HTML", "CSS", "SASS", "SCSS", "Tailwind", "Bootstrap",
	"MongoDB", "PostgreSQL", "MySQL", "Redis", "SQLite", "Firebase",
	"AWS", "Azure", "GCP", "Docker", "Kubernetes", "CI/CD", "Jenkins", "Git", "GitHub",
	"Machine Learning", "AI", "TensorFlow", "PyTorch", "Pandas", "NumPy",
)

// NewVocabulary builds a vocabulary; blank and case-insensitively repeated
// terms are dropped, first occurrence wins.
func NewVocabulary(terms ...string) *Vocabulary {
	v := &Vocabulary{}
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		f := strings.ToLower(t)
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		v.terms = append(v.terms, t)
		v.folded = append(v.folded, f)
	}
	return v
}

// Len returns the number of terms.
func (v *Vocabulary) Len() int {
	if v == nil {
		return 0
	}
	return len(v.terms)
}

// Terms returns a copy of the terms in scan order.
func (v *Vocabulary) Terms() []string {
	if v == nil {
		return nil
	}
	return append([]string(nil), v.terms...)
}

// Scan returns up to limit terms contained in text, compared case-insensitively,
// in vocabulary order. limit <= 0 means no limit.
func (v *Vocabulary) Scan(text string, limit int) []string {
	if v == nil || text == "" {
		return nil
	}
	folded := strings.ToLower(text)
	var found []string
	for i, term := range v.folded {
		if !strings.Contains(folded, term) {
			continue
		}
		found = append(found, v.terms[i])
		if limit > 0 && len(found) == limit {
			break
		}
	}
	return found
}
