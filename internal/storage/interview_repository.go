package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"interview-assistant/internal/interview"
	"interview-assistant/internal/storage/models"
	"interview-assistant/internal/types"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInterviewRepository is the MySQL-backed InterviewRepository.
type GormInterviewRepository struct {
	db     *gorm.DB
	outbox outboxWriter
}

var _ InterviewRepository = (*GormInterviewRepository)(nil)

// NewInterviewRepository stages events for eventsExchange; "" disables them.
func NewInterviewRepository(db *gorm.DB, eventsExchange string) *GormInterviewRepository {
	return &GormInterviewRepository{db: db, outbox: outboxWriter{exchange: eventsExchange}}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func candidateRef(db *gorm.DB) *gorm.DB {
	return db.Select("candidate_id", "name", "email", "position")
}

func (r *GormInterviewRepository) Create(ctx context.Context, iv *types.Interview) error {
	now := time.Now()
	if iv.ID == "" {
		iv.ID = interview.NewID()
	}
	iv.CreatedAt, iv.UpdatedAt = now, now
	interview.ApplyDefaults(iv)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cand models.Candidate
		if err := candidateRef(tx).Where("candidate_id = ?", iv.CandidateID).First(&cand).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCandidateMissing
			}
			return err
		}
		row, err := models.FromInterview(iv)
		if err != nil {
			return err
		}
		if err := tx.Omit("Candidate").Create(row).Error; err != nil {
			return err
		}
		iv.Candidate = &types.CandidateRef{ID: cand.CandidateID, Name: cand.Name, Email: cand.Email, Position: cand.Position}
		return r.outbox.enqueue(tx, EventInterviewCreated, iv.ID, map[string]any{
			"candidateId": iv.CandidateID,
			"scheduledAt": iv.ScheduledAt,
		})
	})
}

func (r *GormInterviewRepository) Get(ctx context.Context, id string) (*types.Interview, error) {
	var row models.Interview
	err := r.db.WithContext(ctx).
		Preload("Candidate", candidateRef).
		Where("interview_id = ?", id).
		First(&row).Error
	if err != nil {
		return nil, notFound(err)
	}
	iv, err := row.ToDomain()
	if err != nil {
		return nil, fmt.Errorf("decode interview %s: %w", id, err)
	}
	return &iv, nil
}

// mutate loads the interview row under a write lock, applies fn and saves
// the result with an optional outbox event.
func (r *GormInterviewRepository) mutate(ctx context.Context, id string, fn func(tx *gorm.DB, iv *types.Interview) (event string, data any, err error)) (*types.Interview, error) {
	var out types.Interview
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.Interview
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("interview_id = ?", id).
			First(&row).Error
		if err != nil {
			return notFound(err)
		}
		iv, err := row.ToDomain()
		if err != nil {
			return fmt.Errorf("decode interview %s: %w", id, err)
		}

		event, data, err := fn(tx, &iv)
		if err != nil {
			return err
		}
		iv.UpdatedAt = time.Now()

		updated, err := models.FromInterview(&iv)
		if err != nil {
			return err
		}
		err = tx.Model(&models.Interview{}).
			Where("interview_id = ?", id).
			Select("*").Omit("interview_id", "candidate_id", "created_at", "Candidate").
			Updates(updated).Error
		if err != nil {
			return err
		}
		out = iv
		if event == "" {
			return nil
		}
		return r.outbox.enqueue(tx, event, id, data)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *GormInterviewRepository) Update(ctx context.Context, iv *types.Interview) error {
	updated, err := r.mutate(ctx, iv.ID, func(_ *gorm.DB, cur *types.Interview) (string, any, error) {
		candidate := cur.CandidateID
		created := cur.CreatedAt
		*cur = *iv
		cur.CandidateID = candidate
		cur.CreatedAt = created
		if cur.Questions == nil {
			cur.Questions = []types.Question{}
		}
		if cur.Evaluations == nil {
			cur.Evaluations = []types.Evaluation{}
		}
		cur.OverallScore = interview.OverallScore(cur.Evaluations)
		return EventInterviewUpdated, map[string]any{"status": cur.Status}, nil
	})
	if err != nil {
		return err
	}
	*iv = *updated
	return nil
}

func (r *GormInterviewRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("interview_id = ?", id).Delete(&models.Interview{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return r.outbox.enqueue(tx, EventInterviewDeleted, id, nil)
	})
}

func (r *GormInterviewRepository) filtered(ctx context.Context, f types.InterviewFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Interview{})
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.Position != "" {
		q = q.Where("position = ?", f.Position)
	}
	if f.CandidateID != "" {
		q = q.Where("candidate_id = ?", f.CandidateID)
	}
	if f.From != nil {
		q = q.Where("scheduled_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("scheduled_at <= ?", *f.To)
	}
	return q
}

func (r *GormInterviewRepository) List(ctx context.Context, f types.InterviewFilter) ([]types.Interview, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count interviews: %w", err)
	}

	q := r.filtered(ctx, f).Preload("Candidate", candidateRef).Order("scheduled_at DESC")
	if f.Limit > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		q = q.Offset((page - 1) * f.Limit).Limit(f.Limit)
	}

	var rows []models.Interview
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list interviews: %w", err)
	}
	out := make([]types.Interview, 0, len(rows))
	for i := range rows {
		iv, err := rows[i].ToDomain()
		if err != nil {
			return nil, 0, fmt.Errorf("decode interview %s: %w", rows[i].InterviewID, err)
		}
		out = append(out, iv)
	}
	return out, total, nil
}

func (r *GormInterviewRepository) Start(ctx context.Context, id string, now time.Time) (*types.Interview, error) {
	return r.mutate(ctx, id, func(_ *gorm.DB, iv *types.Interview) (string, any, error) {
		if !interview.CanStart(iv.Status) {
			return "", nil, ErrInvalidTransition
		}
		interview.Start(iv, now)
		return EventInterviewStarted, map[string]any{"candidateId": iv.CandidateID, "startedAt": now}, nil
	})
}

func (r *GormInterviewRepository) End(ctx context.Context, id string, now time.Time) (*types.Interview, error) {
	return r.mutate(ctx, id, func(tx *gorm.DB, iv *types.Interview) (string, any, error) {
		if !interview.CanEnd(iv.Status) {
			return "", nil, ErrInvalidTransition
		}
		interview.End(iv, now)

		var siblings []models.Interview
		err := tx.Select("interview_id", "status", "overall_score").
			Where("candidate_id = ? AND interview_id <> ?", iv.CandidateID, iv.ID).
			Find(&siblings).Error
		if err != nil {
			return "", nil, fmt.Errorf("load candidate interviews: %w", err)
		}
		snapshot := []types.Interview{*iv}
		for _, s := range siblings {
			snapshot = append(snapshot, types.Interview{
				Status:       types.InterviewStatus(s.Status),
				OverallScore: s.OverallScore,
			})
		}

		err = tx.Model(&models.Candidate{}).
			Where("candidate_id = ?", iv.CandidateID).
			Updates(map[string]any{
				"status":        string(types.CandidateInterviewed),
				"average_score": interview.AverageScore(snapshot),
				"updated_at":    now,
			}).Error
		if err != nil {
			return "", nil, fmt.Errorf("update candidate %s: %w", iv.CandidateID, err)
		}
		return EventInterviewEnded, map[string]any{
			"candidateId":  iv.CandidateID,
			"endedAt":      now,
			"overallScore": iv.OverallScore,
		}, nil
	})
}

func (r *GormInterviewRepository) AddQuestion(ctx context.Context, id string, q types.Question) (*types.Question, error) {
	interview.PrepareQuestion(&q, time.Now())
	_, err := r.mutate(ctx, id, func(_ *gorm.DB, iv *types.Interview) (string, any, error) {
		iv.Questions = append(iv.Questions, q)
		return "", nil, nil
	})
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *GormInterviewRepository) AddEvaluation(ctx context.Context, id string, e types.Evaluation) (*types.Evaluation, error) {
	interview.PrepareEvaluation(&e)
	_, err := r.mutate(ctx, id, func(_ *gorm.DB, iv *types.Interview) (string, any, error) {
		iv.Evaluations = append(iv.Evaluations, e)
		iv.OverallScore = interview.OverallScore(iv.Evaluations)
		return EventEvaluationRecorded, map[string]any{"criteria": e.Criteria, "score": e.Score}, nil
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *GormInterviewRepository) SetTranscript(ctx context.Context, id, transcript string) (*types.Interview, error) {
	return r.mutate(ctx, id, func(_ *gorm.DB, iv *types.Interview) (string, any, error) {
		iv.Transcript = transcript
		return "", nil, nil
	})
}

func (r *GormInterviewRepository) AttachRecording(ctx context.Context, id string, rec types.Recording) error {
	_, err := r.mutate(ctx, id, func(_ *gorm.DB, iv *types.Interview) (string, any, error) {
		iv.Recording = &rec
		return EventRecordingAttached, map[string]any{"filename": rec.Filename}, nil
	})
	return err
}
