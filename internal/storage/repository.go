package storage

import (
	"context"
	"time"

	"interview-assistant/internal/types"
)

// CandidateRepository persists candidates.
type CandidateRepository interface {
	// Create assigns ID and timestamps. ErrDuplicateEmail when the email is taken.
	Create(ctx context.Context, c *types.Candidate) error
	// Get returns the candidate with its interview summaries.
	Get(ctx context.Context, id string) (*types.Candidate, error)
	Update(ctx context.Context, c *types.Candidate) error
	// Delete removes the candidate together with its interviews.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f types.CandidateFilter) ([]types.Candidate, int64, error)
	Stats(ctx context.Context) (types.CandidateStats, error)
}

// InterviewRepository persists interviews and enforces their lifecycle.
type InterviewRepository interface {
	// Create fails with ErrCandidateMissing for an unknown candidate.
	Create(ctx context.Context, iv *types.Interview) error
	Get(ctx context.Context, id string) (*types.Interview, error)
	Update(ctx context.Context, iv *types.Interview) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, f types.InterviewFilter) ([]types.Interview, int64, error)

	// Start and End return ErrInvalidTransition from the wrong status.
	// End also marks the candidate interviewed and refreshes its average score.
	Start(ctx context.Context, id string, now time.Time) (*types.Interview, error)
	End(ctx context.Context, id string, now time.Time) (*types.Interview, error)

	AddQuestion(ctx context.Context, id string, q types.Question) (*types.Question, error)
	// AddEvaluation appends and recomputes the overall score.
	AddEvaluation(ctx context.Context, id string, e types.Evaluation) (*types.Evaluation, error)
	SetTranscript(ctx context.Context, id, transcript string) (*types.Interview, error)
	AttachRecording(ctx context.Context, id string, rec types.Recording) error
}

// SettingsRepository stores JSON documents by key.
type SettingsRepository interface {
	// Load decodes the document into dest and reports whether it existed.
	Load(ctx context.Context, key string, dest any) (bool, error)
	Save(ctx context.Context, key string, value any) error
}
