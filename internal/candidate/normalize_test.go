package candidate

import (
	"testing"

	"interview-assistant/internal/types"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	c := &types.Candidate{
		Name:     "  Jane Doe ",
		Email:    " Jane.Doe@Example.COM ",
		Phone:    "(201) 555-0123",
		Position: " Backend Engineer",
		Skills:   []string{" Go", "", "  ", "Redis "},
	}
	Normalize(c)

	assert.Equal(t, "Jane Doe", c.Name)
	assert.Equal(t, "jane.doe@example.com", c.Email)
	assert.Equal(t, "Backend Engineer", c.Position)
	assert.Equal(t, []string{"Go", "Redis"}, c.Skills)
	assert.Equal(t, types.CandidateApplied, c.Status)
	assert.Equal(t, "+12015550123", c.PhoneE164)
}

func TestE164(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"not a phone", ""},
		{"+44 20 7183 8750", "+442071838750"},
		{"201.555.0123", "+12015550123"},
		{"123", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, E164(tt.in), "input %q", tt.in)
	}
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(types.CandidateHired))
	assert.False(t, ValidStatus("archived"))
}
