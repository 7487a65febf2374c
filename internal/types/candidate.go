package types

import "time"

// CandidateStatus is the hiring pipeline stage of a candidate.
type CandidateStatus string

const (
	CandidateApplied     CandidateStatus = "applied"
	CandidateScreening   CandidateStatus = "screening"
	CandidateScheduled   CandidateStatus = "scheduled"
	CandidateInterviewed CandidateStatus = "interviewed"
	CandidateCompleted   CandidateStatus = "completed"
	CandidateRejected    CandidateStatus = "rejected"
	CandidateHired       CandidateStatus = "hired"
)

// CandidateStatuses lists every status in pipeline order.
var CandidateStatuses = []CandidateStatus{
	CandidateApplied,
	CandidateScreening,
	CandidateScheduled,
	CandidateInterviewed,
	CandidateCompleted,
	CandidateRejected,
	CandidateHired,
}

// ResumeFile describes a stored résumé object.
type ResumeFile struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size"`
	URL          string `json:"url"`
}

// Candidate is an applicant.
type Candidate struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone,omitempty"`
	PhoneE164  string   `json:"phoneE164,omitempty"`
	Position   string   `json:"position"`
	Experience string   `json:"experience,omitempty"`
	Skills     []string `json:"skills"`

	Resume       *ResumeFile     `json:"resume,omitempty"`
	Status       CandidateStatus `json:"status"`
	Notes        string          `json:"notes,omitempty"`
	AverageScore *float64        `json:"averageScore,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Interviews is only filled on single-candidate reads.
	Interviews []InterviewSummary `json:"interviews,omitempty"`
}

// InterviewSummary is the short form of an interview shown on a candidate.
type InterviewSummary struct {
	ID           string          `json:"id"`
	ScheduledAt  time.Time       `json:"scheduledAt"`
	Status       InterviewStatus `json:"status"`
	OverallScore *float64        `json:"overallScore,omitempty"`
}

// CandidateRef is the candidate projection embedded in interview listings.
type CandidateRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Position string `json:"position"`
}

// CandidateFilter selects and orders candidates. Limit <= 0 returns every match.
type CandidateFilter struct {
	Search   string
	Position string
	Status   CandidateStatus
	SortBy   string
	SortDesc bool
	Page     int
	Limit    int
}

// CandidateSortFields maps accepted sortBy values to columns.
var CandidateSortFields = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"name":      "name",
	"email":     "email",
	"position":  "position",
	"status":    "status",
}

// GroupCount is one bucket of a grouped count.
type GroupCount struct {
	ID    string `json:"_id"`
	Count int64  `json:"count"`
}

// CandidateStats backs the candidate overview.
type CandidateStats struct {
	TotalCandidates   int64        `json:"totalCandidates"`
	StatusBreakdown   []GroupCount `json:"statusBreakdown"`
	PositionBreakdown []GroupCount `json:"positionBreakdown"`
}

// Pagination is echoed on every paged listing.
type Pagination struct {
	Current int   `json:"current"`
	Pages   int   `json:"pages"`
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
}

// NewPagination computes the page count for total rows.
func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Current: page, Pages: pages, Total: total, Limit: limit}
}
