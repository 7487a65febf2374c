package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"interview-assistant/internal/interview"
	"interview-assistant/internal/storage/models"
	"interview-assistant/internal/types"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCandidateRepository is the MySQL-backed CandidateRepository.
type GormCandidateRepository struct {
	db     *gorm.DB
	outbox outboxWriter
}

var _ CandidateRepository = (*GormCandidateRepository)(nil)

// NewCandidateRepository stages events for eventsExchange; "" disables them.
func NewCandidateRepository(db *gorm.DB, eventsExchange string) *GormCandidateRepository {
	return &GormCandidateRepository{db: db, outbox: outboxWriter{exchange: eventsExchange}}
}

func translateCandidateErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateEmail
	default:
		return err
	}
}

func (r *GormCandidateRepository) Create(ctx context.Context, c *types.Candidate) error {
	now := time.Now()
	if c.ID == "" {
		c.ID = interview.NewID()
	}
	c.CreatedAt, c.UpdatedAt = now, now

	row, err := models.FromCandidate(c)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return translateCandidateErr(err)
		}
		return r.outbox.enqueue(tx, EventCandidateCreated, c.ID, c)
	})
}

func (r *GormCandidateRepository) Get(ctx context.Context, id string) (*types.Candidate, error) {
	db := r.db.WithContext(ctx)
	var row models.Candidate
	if err := db.Where("candidate_id = ?", id).First(&row).Error; err != nil {
		return nil, translateCandidateErr(err)
	}
	c, err := row.ToDomain()
	if err != nil {
		return nil, fmt.Errorf("decode candidate %s: %w", id, err)
	}

	var ivs []models.Interview
	err = db.Select("interview_id", "scheduled_at", "status", "overall_score").
		Where("candidate_id = ?", id).
		Order("scheduled_at DESC").
		Find(&ivs).Error
	if err != nil {
		return nil, fmt.Errorf("load interviews of %s: %w", id, err)
	}
	c.Interviews = make([]types.InterviewSummary, 0, len(ivs))
	for _, iv := range ivs {
		c.Interviews = append(c.Interviews, types.InterviewSummary{
			ID:           iv.InterviewID,
			ScheduledAt:  iv.ScheduledAt,
			Status:       types.InterviewStatus(iv.Status),
			OverallScore: iv.OverallScore,
		})
	}
	return &c, nil
}

func (r *GormCandidateRepository) Update(ctx context.Context, c *types.Candidate) error {
	c.UpdatedAt = time.Now()
	row, err := models.FromCandidate(c)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Candidate
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("candidate_id", "created_at").
			Where("candidate_id = ?", c.ID).
			First(&existing).Error
		if err != nil {
			return translateCandidateErr(err)
		}
		row.CreatedAt = existing.CreatedAt
		c.CreatedAt = existing.CreatedAt

		err = tx.Model(&models.Candidate{}).
			Where("candidate_id = ?", c.ID).
			Select("*").Omit("candidate_id", "created_at").
			Updates(row).Error
		if err != nil {
			return translateCandidateErr(err)
		}
		return r.outbox.enqueue(tx, EventCandidateUpdated, c.ID, c)
	})
}

func (r *GormCandidateRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("candidate_id = ?", id).Delete(&models.Candidate{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("candidate_id = ?", id).Delete(&models.Interview{}).Error; err != nil {
			return fmt.Errorf("delete interviews of %s: %w", id, err)
		}
		return r.outbox.enqueue(tx, EventCandidateDeleted, id, nil)
	})
}

// escapeLike escapes LIKE wildcards in a user-supplied search term.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *GormCandidateRepository) filtered(ctx context.Context, f types.CandidateFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Candidate{})
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(escapeLike(s)) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}
	if f.Position != "" {
		q = q.Where("position = ?", f.Position)
	}
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	return q
}

func (r *GormCandidateRepository) List(ctx context.Context, f types.CandidateFilter) ([]types.Candidate, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count candidates: %w", err)
	}

	col, ok := types.CandidateSortFields[f.SortBy]
	if !ok {
		col = "created_at"
	}
	q := r.filtered(ctx, f).Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: f.SortDesc})
	if f.Limit > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		q = q.Offset((page - 1) * f.Limit).Limit(f.Limit)
	}

	var rows []models.Candidate
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list candidates: %w", err)
	}
	out := make([]types.Candidate, 0, len(rows))
	for i := range rows {
		c, err := rows[i].ToDomain()
		if err != nil {
			return nil, 0, fmt.Errorf("decode candidate %s: %w", rows[i].CandidateID, err)
		}
		out = append(out, c)
	}
	return out, total, nil
}

func (r *GormCandidateRepository) Stats(ctx context.Context) (types.CandidateStats, error) {
	stats := types.CandidateStats{
		StatusBreakdown:   []types.GroupCount{},
		PositionBreakdown: []types.GroupCount{},
	}
	db := r.db.WithContext(ctx).Model(&models.Candidate{})
	if err := db.Count(&stats.TotalCandidates).Error; err != nil {
		return stats, fmt.Errorf("count candidates: %w", err)
	}
	err := r.db.WithContext(ctx).Model(&models.Candidate{}).
		Select("status AS id, COUNT(*) AS count").
		Group("status").Order("count DESC").
		Scan(&stats.StatusBreakdown).Error
	if err != nil {
		return stats, fmt.Errorf("group by status: %w", err)
	}
	err = r.db.WithContext(ctx).Model(&models.Candidate{}).
		Select("position AS id, COUNT(*) AS count").
		Group("position").Order("count DESC").
		Scan(&stats.PositionBreakdown).Error
	if err != nil {
		return stats, fmt.Errorf("group by position: %w", err)
	}
	return stats, nil
}
