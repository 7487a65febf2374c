// Package interview holds the interview lifecycle rules shared by every
// repository implementation.
package interview

import (
	"strings"
	"time"

	"interview-assistant/internal/types"

	"github.com/gofrs/uuid/v5"
)

// CanStart reports whether an interview in status s may be started.
func CanStart(s types.InterviewStatus) bool {
	return s == types.InterviewScheduled
}

// CanEnd reports whether an interview in status s may be ended.
func CanEnd(s types.InterviewStatus) bool {
	return s == types.InterviewInProgress
}

// Start moves iv to in-progress. The caller checks CanStart first.
func Start(iv *types.Interview, now time.Time) {
	iv.Status = types.InterviewInProgress
	iv.StartedAt = &now
	iv.UpdatedAt = now
}

// End moves iv to completed. The caller checks CanEnd first.
func End(iv *types.Interview, now time.Time) {
	iv.Status = types.InterviewCompleted
	iv.EndedAt = &now
	iv.UpdatedAt = now
}

// OverallScore is the mean evaluation score, nil without evaluations.
func OverallScore(evals []types.Evaluation) *float64 {
	if len(evals) == 0 {
		return nil
	}
	var sum float64
	for _, e := range evals {
		sum += e.Score
	}
	mean := sum / float64(len(evals))
	return &mean
}

// AverageScore is the mean overall score of the completed interviews that
// carry one, nil when none do.
func AverageScore(interviews []types.Interview) *float64 {
	var sum float64
	var n int
	for _, iv := range interviews {
		if iv.Status != types.InterviewCompleted || iv.OverallScore == nil {
			continue
		}
		sum += *iv.OverallScore
		n++
	}
	if n == 0 {
		return nil
	}
	mean := sum / float64(n)
	return &mean
}

// ApplyDefaults fills unset fields of a new interview.
func ApplyDefaults(iv *types.Interview) {
	if iv.Status == "" {
		iv.Status = types.InterviewScheduled
	}
	if iv.Type == "" {
		iv.Type = types.InterviewVideo
	}
	if iv.Duration <= 0 {
		iv.Duration = types.DefaultInterviewDuration
	}
	if iv.Questions == nil {
		iv.Questions = []types.Question{}
	}
	if iv.Evaluations == nil {
		iv.Evaluations = []types.Evaluation{}
	}
	for i := range iv.Questions {
		PrepareQuestion(&iv.Questions[i], iv.CreatedAt)
	}
	for i := range iv.Evaluations {
		PrepareEvaluation(&iv.Evaluations[i])
	}
	iv.OverallScore = OverallScore(iv.Evaluations)
}

// PrepareQuestion assigns an ID and fills the difficulty and ask time.
func PrepareQuestion(q *types.Question, now time.Time) {
	if q.ID == "" {
		q.ID = NewID()
	}
	if q.Difficulty == "" {
		q.Difficulty = "medium"
	}
	if q.TimeAsked == nil && !now.IsZero() {
		t := now
		q.TimeAsked = &t
	}
	q.Question = strings.TrimSpace(q.Question)
}

// PrepareEvaluation assigns an ID.
func PrepareEvaluation(e *types.Evaluation) {
	if e.ID == "" {
		e.ID = NewID()
	}
	e.Criteria = strings.TrimSpace(e.Criteria)
}

// NewID returns a time-ordered UUIDv7 string.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ActualDuration is the elapsed whole minutes between start and end, or
// false when either is missing.
func ActualDuration(iv types.Interview) (int, bool) {
	if iv.StartedAt == nil || iv.EndedAt == nil {
		return 0, false
	}
	d := iv.EndedAt.Sub(*iv.StartedAt)
	return int(d.Minutes() + 0.5), true
}
