package models

import (
	"testing"
	"time"

	"interview-assistant/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidateConversion(t *testing.T) {
	score := 7.5
	c := &types.Candidate{
		ID:           "c1",
		Name:         "Jane Doe",
		Email:        "jane@example.com",
		Position:     "Dev",
		Status:       types.CandidateScreening,
		AverageScore: &score,
		Resume:       &types.ResumeFile{Filename: "resume/cv.pdf", Size: 10},
	}
	row, err := FromCandidate(c)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(row.Skills))

	back, err := row.ToDomain()
	require.NoError(t, err)
	assert.Equal(t, []string{}, back.Skills)
	require.NotNil(t, back.Resume)
	assert.Equal(t, "resume/cv.pdf", back.Resume.Filename)
	assert.Equal(t, 7.5, *back.AverageScore)
}

func TestInterviewConversionWithoutOptionalDocuments(t *testing.T) {
	iv := &types.Interview{
		ID:          "i1",
		CandidateID: "c1",
		ScheduledAt: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		Status:      types.InterviewScheduled,
	}
	row, err := FromInterview(iv)
	require.NoError(t, err)
	assert.Nil(t, row.Recording)
	assert.Nil(t, row.Feedback)

	row.Candidate = &Candidate{CandidateID: "c1", Name: "Jane Doe"}
	back, err := row.ToDomain()
	require.NoError(t, err)
	assert.Nil(t, back.Recording)
	assert.Nil(t, back.Feedback)
	assert.Equal(t, []types.Question{}, back.Questions)
	require.NotNil(t, back.Candidate)
	assert.Equal(t, "Jane Doe", back.Candidate.Name)
}
