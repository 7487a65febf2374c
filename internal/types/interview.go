package types

import "time"

// InterviewStatus is the lifecycle state of an interview.
type InterviewStatus string

const (
	InterviewScheduled  InterviewStatus = "scheduled"
	InterviewInProgress InterviewStatus = "in-progress"
	InterviewCompleted  InterviewStatus = "completed"
	InterviewCancelled  InterviewStatus = "cancelled"
	InterviewNoShow     InterviewStatus = "no-show"
)

// InterviewType is the interview medium.
type InterviewType string

const (
	InterviewPhone    InterviewType = "phone"
	InterviewVideo    InterviewType = "video"
	InterviewInPerson InterviewType = "in-person"
)

// DefaultInterviewDuration in minutes.
const DefaultInterviewDuration = 60

type Interviewer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Question is one question asked (or planned) during an interview.
type Question struct {
	ID             string     `json:"id"`
	Question       string     `json:"question" validate:"required"`
	Type           string     `json:"type" validate:"required,oneof=technical behavioral situational general"`
	Difficulty     string     `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	ExpectedAnswer string     `json:"expectedAnswer,omitempty"`
	Keywords       []string   `json:"keywords,omitempty"`
	TimeAsked      *time.Time `json:"timeAsked,omitempty"`
	AIGenerated    bool       `json:"aiGenerated"`
}

// Evaluation scores the candidate against one criterion, 0 to 10.
type Evaluation struct {
	ID       string  `json:"id"`
	Criteria string  `json:"criteria" validate:"required"`
	Score    float64 `json:"score" validate:"gte=0,lte=10"`
	Notes    string  `json:"notes,omitempty"`
}

type Feedback struct {
	Strengths      []string `json:"strengths,omitempty"`
	Improvements   []string `json:"improvements,omitempty"`
	Recommendation string   `json:"recommendation,omitempty" validate:"omitempty,oneof=strong-hire hire no-hire strong-no-hire"`
	Notes          string   `json:"notes,omitempty"`
}

type Recording struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	// Duration in seconds, when known.
	Duration float64 `json:"duration,omitempty"`
}

// Interview is a scheduled conversation with one candidate.
type Interview struct {
	ID          string          `json:"id"`
	CandidateID string          `json:"candidateId"`
	Candidate   *CandidateRef   `json:"candidate,omitempty"`
	Position    string          `json:"position"`
	Interviewer Interviewer     `json:"interviewer"`
	ScheduledAt time.Time       `json:"scheduledAt"`
	StartedAt   *time.Time      `json:"startedAt,omitempty"`
	EndedAt     *time.Time      `json:"endedAt,omitempty"`
	Duration    int             `json:"duration"`
	Status      InterviewStatus `json:"status"`
	Type        InterviewType   `json:"type"`

	Questions    []Question   `json:"questions"`
	Transcript   string       `json:"transcript"`
	Recording    *Recording   `json:"recording,omitempty"`
	Evaluations  []Evaluation `json:"evaluations"`
	OverallScore *float64     `json:"overallScore,omitempty"`
	Feedback     *Feedback    `json:"feedback,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// InterviewFilter selects interviews; results are ordered by ScheduledAt
// descending. Limit <= 0 returns every match.
type InterviewFilter struct {
	Status      InterviewStatus
	Position    string
	CandidateID string
	From        *time.Time
	To          *time.Time
	Page        int
	Limit       int
}
