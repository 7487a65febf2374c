package extractor

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCascade_ReportsWinningPattern(t *testing.T) {
	tests := []struct {
		text        string
		wantValue   string
		wantPattern string
	}{
		{"Mary Jones\nName: Other Person", "Mary Jones", "leading-line"},
		{"Name: Alice Walker", "Alice Walker", "name-label"},
		{"--\nJane Doe resume", "Jane Doe", "resume-suffix"},
		{"--\nBob Stone cv", "Bob Stone", "cv-suffix"},
	}
	cascade := NamePatterns()
	for _, tt := range tests {
		v, p, ok := cascade.First(tt.text, Normalize(tt.text))
		require.True(t, ok, tt.text)
		assert.Equal(t, tt.wantValue, v)
		assert.Equal(t, tt.wantPattern, p)
	}
}

func TestPositionCascade_TitleMustBeCapitalised(t *testing.T) {
	tests := []struct {
		text        string
		wantValue   string
		wantPattern string
	}{
		{"Seeking a Senior Backend Developer role", "Senior Backend Developer", "seeking-role"},
		{"seeking a senior backend developer role", "senior backend developer", "seniority-domain-role"},
		{"Objective: become a Product Manager", "Product Manager", "objective"},
	}
	for _, tt := range tests {
		v, p, ok := positionPatterns.First(tt.text, Normalize(tt.text))
		require.True(t, ok, tt.text)
		assert.Equal(t, tt.wantValue, v)
		assert.Equal(t, tt.wantPattern, p)
	}

	_, _, ok := positionPatterns.First("", "objective: become a product manager")
	assert.False(t, ok, "a lower-case title does not satisfy the objective window")
}

func TestCascade_StopsAtFirstHit(t *testing.T) {
	literal := func(expr string) Pattern {
		return Pattern{Name: expr, Group: 0, Expr: regexp.MustCompile(expr)}
	}
	c := Cascade{literal(`alpha`), literal(`beta`)}

	// priority follows cascade order, not position in the text
	v, p, ok := c.First("", "beta alpha")
	require.True(t, ok)
	assert.Equal(t, "alpha", v)
	assert.Equal(t, "alpha", p)

	_, _, ok = c.First("", "gamma")
	assert.False(t, ok)
}

func TestPattern_EmptyCaptureIsNoMatch(t *testing.T) {
	p := Pattern{Name: "blank", Group: 1, Expr: regexp.MustCompile(`x(\s*)y`)}
	_, ok := p.Match("", "x  y")
	assert.False(t, ok)
}

func TestPatternAccessorsReturnCopies(t *testing.T) {
	c := PhonePatterns()
	c[0] = Pattern{Name: "replaced"}

	assert.Equal(t, "north-american", PhonePatterns()[0].Name)
	assert.Len(t, ExperiencePatterns(), 3)
	assert.Len(t, PositionPatterns(), 3)
}

func TestVocabulary(t *testing.T) {
	assert.Equal(t, 46, DefaultVocabulary.Len())

	v := NewVocabulary("Go", "go", " ", "Rust", "GO")
	assert.Equal(t, []string{"Go", "Rust"}, v.Terms())

	terms := v.Terms()
	terms[0] = "changed"
	assert.Equal(t, []string{"Go", "Rust"}, v.Terms())

	assert.Equal(t, []string{"Go", "Rust"}, v.Scan("rust and GOLANG", 0))
	assert.Equal(t, []string{"Go"}, v.Scan("rust and GOLANG", 1))
	assert.Nil(t, v.Scan("", 0))

	e := New(WithVocabulary(v))
	assert.Equal(t, []string{"Rust"}, e.ExtractSkills("Rust only"))
}
