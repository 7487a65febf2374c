package memory

import (
	"context"
	"strings"
	"testing"
	"time"

	"interview-assistant/internal/storage"
	"interview-assistant/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCandidate(t *testing.T, s *Store, name, email, position string) *types.Candidate {
	t.Helper()
	c := &types.Candidate{Name: name, Email: email, Position: position, Status: types.CandidateApplied}
	require.NoError(t, s.Create(context.Background(), c))
	return c
}

func TestCandidateCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	c := newCandidate(t, s, "Jane Doe", "jane@example.com", "Backend Engineer")
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, []string{}, c.Skills)

	dup := &types.Candidate{Name: "Other", Email: "jane@example.com", Position: "QA"}
	assert.ErrorIs(t, s.Create(ctx, dup), storage.ErrDuplicateEmail)

	c.Notes = "strong"
	require.NoError(t, s.Update(ctx, c))
	got, err := s.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "strong", got.Notes)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.Update(ctx, &types.Candidate{ID: "missing"}), storage.ErrNotFound)

	assert.Equal(t, []string{
		storage.EventCandidateCreated,
		storage.EventCandidateUpdated,
	}, s.Events)
}

func TestCandidateListFilters(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	newCandidate(t, s, "Alice Smith", "alice@example.com", "Frontend Developer")
	newCandidate(t, s, "Bob Jones", "bob@corp.io", "Backend Engineer")
	carol := newCandidate(t, s, "Carol King", "carol@example.com", "Backend Engineer")
	carol.Status = types.CandidateHired
	require.NoError(t, s.Update(ctx, carol))

	list, total, err := s.List(ctx, types.CandidateFilter{Search: "EXAMPLE", SortBy: "name"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, list, 2)
	assert.Equal(t, "Alice Smith", list[0].Name)

	list, total, err = s.List(ctx, types.CandidateFilter{Position: "Backend Engineer", Status: types.CandidateHired})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Carol King", list[0].Name)

	list, total, err = s.List(ctx, types.CandidateFilter{SortBy: "name", SortDesc: true, Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, list, 1)
	assert.Equal(t, "Alice Smith", list[0].Name)
}

func TestCandidateStats(t *testing.T) {
	s := NewStore()
	newCandidate(t, s, "A A", "a@x.io", "Dev")
	newCandidate(t, s, "B B", "b@x.io", "Dev")
	newCandidate(t, s, "C C", "c@x.io", "QA")

	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalCandidates)
	assert.Equal(t, []types.GroupCount{{ID: "applied", Count: 3}}, stats.StatusBreakdown)
	assert.Equal(t, []types.GroupCount{{ID: "Dev", Count: 2}, {ID: "QA", Count: 1}}, stats.PositionBreakdown)
}

func TestInterviewLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := s.Interviews()
	c := newCandidate(t, s, "Jane Doe", "jane@example.com", "Backend Engineer")

	err := repo.Create(ctx, &types.Interview{CandidateID: "nobody", Position: "x", ScheduledAt: time.Now()})
	assert.ErrorIs(t, err, storage.ErrCandidateMissing)

	iv := &types.Interview{CandidateID: c.ID, Position: c.Position, ScheduledAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, iv))
	assert.Equal(t, types.InterviewScheduled, iv.Status)
	require.NotNil(t, iv.Candidate)
	assert.Equal(t, "Jane Doe", iv.Candidate.Name)

	_, err = repo.End(ctx, iv.ID, time.Now())
	assert.ErrorIs(t, err, storage.ErrInvalidTransition)

	started, err := repo.Start(ctx, iv.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, types.InterviewInProgress, started.Status)

	_, err = repo.Start(ctx, iv.ID, time.Now())
	assert.ErrorIs(t, err, storage.ErrInvalidTransition)

	_, err = repo.AddEvaluation(ctx, iv.ID, types.Evaluation{Criteria: "design", Score: 8})
	require.NoError(t, err)
	_, err = repo.AddEvaluation(ctx, iv.ID, types.Evaluation{Criteria: "coding", Score: 6})
	require.NoError(t, err)
	q, err := repo.AddQuestion(ctx, iv.ID, types.Question{Question: "Why Go?", Type: "general"})
	require.NoError(t, err)
	assert.NotEmpty(t, q.ID)

	ended, err := repo.End(ctx, iv.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, types.InterviewCompleted, ended.Status)
	require.NotNil(t, ended.OverallScore)
	assert.InDelta(t, 7.0, *ended.OverallScore, 1e-9)
	assert.Len(t, ended.Questions, 1)

	cand, err := s.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, types.CandidateInterviewed, cand.Status)
	require.NotNil(t, cand.AverageScore)
	assert.InDelta(t, 7.0, *cand.AverageScore, 1e-9)
	require.Len(t, cand.Interviews, 1)
	assert.Equal(t, iv.ID, cand.Interviews[0].ID)
}

func TestDeleteCandidateCascades(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := s.Interviews()
	c := newCandidate(t, s, "Jane Doe", "jane@example.com", "Dev")
	iv := &types.Interview{CandidateID: c.ID, Position: "Dev", ScheduledAt: time.Now()}
	require.NoError(t, repo.Create(ctx, iv))

	require.NoError(t, s.Delete(ctx, c.ID))
	_, err := repo.Get(ctx, iv.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, c.ID), storage.ErrNotFound)
}

func TestInterviewListFilters(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := s.Interviews()
	c := newCandidate(t, s, "Jane Doe", "jane@example.com", "Dev")
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &types.Interview{
			CandidateID: c.ID, Position: "Dev", ScheduledAt: base.AddDate(0, 0, i),
		}))
	}

	all, total, err := repo.List(ctx, types.InterviewFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.True(t, all[0].ScheduledAt.After(all[1].ScheduledAt))

	from := base.AddDate(0, 0, 1)
	ranged, total, err := repo.List(ctx, types.InterviewFilter{From: &from})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, ranged, 2)
}

func TestSettingsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	var out map[string]any
	ok, err := s.Load(ctx, "default", &out)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, "default", map[string]any{"theme": "dark"}))
	ok, err = s.Load(ctx, "default", &out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", out["theme"])
}

func TestCacheAndDeduper(t *testing.T) {
	ctx := context.Background()
	c := NewCache()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.SetJSON(ctx, "app:analytics:cache:overview:all", map[string]int{"n": 1}, time.Minute))
	var v map[string]int
	require.NoError(t, c.GetJSON(ctx, "app:analytics:cache:overview:all", &v))
	assert.Equal(t, 1, v["n"])

	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, c.GetJSON(ctx, "app:analytics:cache:overview:all", &v), storage.ErrCacheMiss)

	n, err := c.DeletePattern(ctx, "app:analytics:cache:*")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	d := NewDeduper()
	seen, _ := d.CheckAndAddUploadMD5(ctx, "abc")
	assert.False(t, seen)
	seen, _ = d.CheckAndAddUploadMD5(ctx, "abc")
	assert.True(t, seen)
}

func TestObjects(t *testing.T) {
	ctx := context.Background()
	o := NewObjects()
	sum, err := o.Put(ctx, "resume/cv.pdf", strings.NewReader("hello"), 5, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", sum)

	info, err := o.Stat(ctx, "resume/cv.pdf")
	require.NoError(t, err)
	assert.EqualValues(t, 5, info.Size)

	require.NoError(t, o.Delete(ctx, "resume/cv.pdf"))
	assert.ErrorIs(t, o.Delete(ctx, "resume/cv.pdf"), storage.ErrNotFound)
}
