package models

import (
	"encoding/json"
	"time"

	"interview-assistant/internal/types"

	"gorm.io/datatypes"
)

// Candidate 候选人表
type Candidate struct {
	CandidateID  string         `gorm:"type:char(36);primaryKey"`
	Name         string         `gorm:"type:varchar(255);not null"`
	Email        string         `gorm:"type:varchar(255);not null;uniqueIndex:idx_candidates_email_unique"`
	Phone        string         `gorm:"type:varchar(50)"`
	PhoneE164    string         `gorm:"type:varchar(20);index:idx_candidates_phone_e164"`
	Position     string         `gorm:"type:varchar(255);not null;index:idx_candidates_position"`
	Experience   string         `gorm:"type:varchar(100)"`
	Skills       datatypes.JSON `gorm:"type:json"`
	Resume       datatypes.JSON `gorm:"type:json"`
	Status       string         `gorm:"type:varchar(20);not null;default:'applied';index:idx_candidates_status"`
	Notes        string         `gorm:"type:text"`
	AverageScore *float64       `gorm:"type:double"`
	CreatedAt    time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);index:idx_candidates_created_at"`
	UpdatedAt    time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Candidate) TableName() string {
	return "candidates"
}

// Interview 面试表; nested collections are stored as JSON documents.
type Interview struct {
	InterviewID  string         `gorm:"type:char(36);primaryKey"`
	CandidateID  string         `gorm:"type:char(36);not null;index:idx_interviews_candidate_id"`
	Position     string         `gorm:"type:varchar(255);not null;index:idx_interviews_position"`
	Interviewer  datatypes.JSON `gorm:"type:json"`
	ScheduledAt  time.Time      `gorm:"type:datetime(6);not null;index:idx_interviews_scheduled_at"`
	StartedAt    *time.Time     `gorm:"type:datetime(6)"`
	EndedAt      *time.Time     `gorm:"type:datetime(6)"`
	Duration     int            `gorm:"not null;default:60"`
	Status       string         `gorm:"type:varchar(20);not null;default:'scheduled';index:idx_interviews_status"`
	Type         string         `gorm:"type:varchar(20);not null;default:'video'"`
	Questions    datatypes.JSON `gorm:"type:json"`
	Transcript   string         `gorm:"type:longtext"`
	Recording    datatypes.JSON `gorm:"type:json"`
	Evaluations  datatypes.JSON `gorm:"type:json"`
	OverallScore *float64       `gorm:"type:double"`
	Feedback     datatypes.JSON `gorm:"type:json"`
	CreatedAt    time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt    time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime;index:idx_interviews_updated_at"`

	Candidate *Candidate `gorm:"foreignKey:CandidateID;references:CandidateID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Interview) TableName() string {
	return "interviews"
}

// Setting 设置文档, one JSON document per key.
type Setting struct {
	SettingKey string         `gorm:"type:varchar(64);primaryKey"`
	Value      datatypes.JSON `gorm:"type:json;not null"`
	UpdatedAt  time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Setting) TableName() string {
	return "settings"
}

// ToJSON marshals v, mapping nil to SQL NULL.
func ToJSON(v any) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// fromJSON decodes a non-empty column into dest.
func fromJSON(data datatypes.JSON, dest any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, dest)
}

// FromCandidate converts the domain record into a row.
func FromCandidate(c *types.Candidate) (*Candidate, error) {
	skills := c.Skills
	if skills == nil {
		skills = []string{}
	}
	skillsJSON, err := ToJSON(skills)
	if err != nil {
		return nil, err
	}
	var resumeJSON datatypes.JSON
	if c.Resume != nil {
		if resumeJSON, err = ToJSON(c.Resume); err != nil {
			return nil, err
		}
	}
	return &Candidate{
		CandidateID:  c.ID,
		Name:         c.Name,
		Email:        c.Email,
		Phone:        c.Phone,
		PhoneE164:    c.PhoneE164,
		Position:     c.Position,
		Experience:   c.Experience,
		Skills:       skillsJSON,
		Resume:       resumeJSON,
		Status:       string(c.Status),
		Notes:        c.Notes,
		AverageScore: c.AverageScore,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}, nil
}

// ToDomain converts the row into the domain record.
func (m *Candidate) ToDomain() (types.Candidate, error) {
	c := types.Candidate{
		ID:           m.CandidateID,
		Name:         m.Name,
		Email:        m.Email,
		Phone:        m.Phone,
		PhoneE164:    m.PhoneE164,
		Position:     m.Position,
		Experience:   m.Experience,
		Skills:       []string{},
		Status:       types.CandidateStatus(m.Status),
		Notes:        m.Notes,
		AverageScore: m.AverageScore,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if err := fromJSON(m.Skills, &c.Skills); err != nil {
		return c, err
	}
	if len(m.Resume) > 0 && string(m.Resume) != "null" {
		c.Resume = &types.ResumeFile{}
		if err := fromJSON(m.Resume, c.Resume); err != nil {
			return c, err
		}
	}
	return c, nil
}

// FromInterview converts the domain record into a row.
func FromInterview(iv *types.Interview) (*Interview, error) {
	row := &Interview{
		InterviewID:  iv.ID,
		CandidateID:  iv.CandidateID,
		Position:     iv.Position,
		ScheduledAt:  iv.ScheduledAt,
		StartedAt:    iv.StartedAt,
		EndedAt:      iv.EndedAt,
		Duration:     iv.Duration,
		Status:       string(iv.Status),
		Type:         string(iv.Type),
		Transcript:   iv.Transcript,
		OverallScore: iv.OverallScore,
		CreatedAt:    iv.CreatedAt,
		UpdatedAt:    iv.UpdatedAt,
	}
	questions := iv.Questions
	if questions == nil {
		questions = []types.Question{}
	}
	evaluations := iv.Evaluations
	if evaluations == nil {
		evaluations = []types.Evaluation{}
	}

	var err error
	if row.Interviewer, err = ToJSON(iv.Interviewer); err != nil {
		return nil, err
	}
	if row.Questions, err = ToJSON(questions); err != nil {
		return nil, err
	}
	if row.Evaluations, err = ToJSON(evaluations); err != nil {
		return nil, err
	}
	if iv.Recording != nil {
		if row.Recording, err = ToJSON(iv.Recording); err != nil {
			return nil, err
		}
	}
	if iv.Feedback != nil {
		if row.Feedback, err = ToJSON(iv.Feedback); err != nil {
			return nil, err
		}
	}
	return row, nil
}

// ToDomain converts the row into the domain record.
func (m *Interview) ToDomain() (types.Interview, error) {
	iv := types.Interview{
		ID:           m.InterviewID,
		CandidateID:  m.CandidateID,
		Position:     m.Position,
		ScheduledAt:  m.ScheduledAt,
		StartedAt:    m.StartedAt,
		EndedAt:      m.EndedAt,
		Duration:     m.Duration,
		Status:       types.InterviewStatus(m.Status),
		Type:         types.InterviewType(m.Type),
		Questions:    []types.Question{},
		Transcript:   m.Transcript,
		Evaluations:  []types.Evaluation{},
		OverallScore: m.OverallScore,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if err := fromJSON(m.Interviewer, &iv.Interviewer); err != nil {
		return iv, err
	}
	if err := fromJSON(m.Questions, &iv.Questions); err != nil {
		return iv, err
	}
	if err := fromJSON(m.Evaluations, &iv.Evaluations); err != nil {
		return iv, err
	}
	if len(m.Recording) > 0 && string(m.Recording) != "null" {
		iv.Recording = &types.Recording{}
		if err := fromJSON(m.Recording, iv.Recording); err != nil {
			return iv, err
		}
	}
	if len(m.Feedback) > 0 && string(m.Feedback) != "null" {
		iv.Feedback = &types.Feedback{}
		if err := fromJSON(m.Feedback, iv.Feedback); err != nil {
			return iv, err
		}
	}
	if m.Candidate != nil {
		iv.Candidate = &types.CandidateRef{
			ID:       m.Candidate.CandidateID,
			Name:     m.Candidate.Name,
			Email:    m.Candidate.Email,
			Position: m.Candidate.Position,
		}
	}
	return iv, nil
}
