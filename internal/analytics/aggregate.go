// Package analytics derives dashboard reports from interview and candidate
// snapshots. The aggregation functions are pure; Service adds loading and
// caching.
package analytics

import (
	"math"
	"sort"
	"time"

	"interview-assistant/internal/types"
)

// Overview is the headline dashboard numbers.
type Overview struct {
	TotalInterviews  int     `json:"totalInterviews"`
	ActiveInterviews int     `json:"activeInterviews"`
	TotalCandidates  int     `json:"totalCandidates"`
	AvgScore         float64 `json:"avgScore"`
}

// TrendPoint is one day or month of interview volume.
type TrendPoint struct {
	ID        string   `json:"_id"`
	Count     int      `json:"count"`
	AvgScore  *float64 `json:"avgScore"`
	Completed int      `json:"completed"`
}

// ScoreBucket groups overall scores; ID is the bucket's lower bound or "other".
type ScoreBucket struct {
	ID       any     `json:"_id"`
	Count    int     `json:"count"`
	AvgScore float64 `json:"avgScore"`
}

type PositionStat struct {
	ID              string   `json:"_id"`
	TotalInterviews int      `json:"totalInterviews"`
	AvgScore        *float64 `json:"avgScore"`
	Completed       int      `json:"completed"`
}

type Performance struct {
	CompletionRate float64 `json:"completionRate"`
	AvgDuration    int     `json:"avgDuration"`
	NoShowRate     float64 `json:"noShowRate"`
}

// QuestionStat scores a question by the overall score of the interviews
// that asked it.
type QuestionStat struct {
	ID         string   `json:"_id"`
	TimesAsked int      `json:"timesAsked"`
	AvgScore   *float64 `json:"avgScore"`
	Type       string   `json:"type"`
	Difficulty string   `json:"difficulty"`
}

type Activity struct {
	Type      string    `json:"type"`
	Action    string    `json:"action"`
	Candidate string    `json:"candidate,omitempty"`
	Position  string    `json:"position,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Score     *float64  `json:"score,omitempty"`
}

// Trend periods.
const (
	Period30Days  = "30days"
	Period3Months = "3months"
	Period6Months = "6months"
	Period1Year   = "1year"
)

var scoreBoundaries = []float64{0, 2, 4, 6, 8, 10}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v *float64) {
	if v != nil {
		m.sum += *v
		m.n++
	}
}

func (m mean) value() *float64 {
	if m.n == 0 {
		return nil
	}
	v := m.sum / float64(m.n)
	return &v
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

// ComputeOverview counts interviews scheduled within [from, to].
func ComputeOverview(interviews []types.Interview, totalCandidates int, from, to *time.Time) Overview {
	o := Overview{TotalCandidates: totalCandidates}
	var avg mean
	for _, iv := range interviews {
		if !inRange(iv.ScheduledAt, from, to) {
			continue
		}
		o.TotalInterviews++
		if iv.Status == types.InterviewInProgress {
			o.ActiveInterviews++
		}
		avg.add(iv.OverallScore)
	}
	if v := avg.value(); v != nil {
		o.AvgScore = round1(*v)
	}
	return o
}

// periodWindow returns the look-back window and bucket layout for period.
// Unknown periods fall back to six months.
func periodWindow(period string) (time.Duration, string) {
	const day = 24 * time.Hour
	switch period {
	case Period30Days:
		return 30 * day, "2006-01-02"
	case Period3Months:
		return 90 * day, "2006-01-02"
	case Period1Year:
		return 365 * day, "2006-01"
	default:
		return 180 * day, "2006-01"
	}
}

// ComputeTrends buckets interviews scheduled since the period start by UTC
// day or month, ascending.
func ComputeTrends(interviews []types.Interview, period string, now time.Time) []TrendPoint {
	window, layout := periodWindow(period)
	start := now.Add(-window)

	type acc struct {
		count, completed int
		avg              mean
	}
	groups := map[string]*acc{}
	for _, iv := range interviews {
		if iv.ScheduledAt.Before(start) {
			continue
		}
		key := iv.ScheduledAt.UTC().Format(layout)
		a, ok := groups[key]
		if !ok {
			a = &acc{}
			groups[key] = a
		}
		a.count++
		if iv.Status == types.InterviewCompleted {
			a.completed++
		}
		a.avg.add(iv.OverallScore)
	}

	out := make([]TrendPoint, 0, len(groups))
	for key, a := range groups {
		out = append(out, TrendPoint{ID: key, Count: a.count, AvgScore: a.avg.value(), Completed: a.completed})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ComputeScoreDistribution buckets overall scores into [0,2) … [8,10);
// anything outside, including exactly 10, lands in "other".
func ComputeScoreDistribution(interviews []types.Interview) []ScoreBucket {
	n := len(scoreBoundaries) - 1
	counts := make([]int, n+1)
	sums := make([]float64, n+1)
	for _, iv := range interviews {
		if iv.OverallScore == nil {
			continue
		}
		s := *iv.OverallScore
		idx := n
		for b := 0; b < n; b++ {
			if s >= scoreBoundaries[b] && s < scoreBoundaries[b+1] {
				idx = b
				break
			}
		}
		counts[idx]++
		sums[idx] += s
	}

	out := []ScoreBucket{}
	for b := 0; b <= n; b++ {
		if counts[b] == 0 {
			continue
		}
		var id any = "other"
		if b < n {
			id = scoreBoundaries[b]
		}
		out = append(out, ScoreBucket{ID: id, Count: counts[b], AvgScore: sums[b] / float64(counts[b])})
	}
	return out
}

// ComputePositions groups interviews by position, busiest first.
func ComputePositions(interviews []types.Interview) []PositionStat {
	type acc struct {
		total, completed int
		avg              mean
	}
	groups := map[string]*acc{}
	for _, iv := range interviews {
		a, ok := groups[iv.Position]
		if !ok {
			a = &acc{}
			groups[iv.Position] = a
		}
		a.total++
		if iv.Status == types.InterviewCompleted {
			a.completed++
		}
		a.avg.add(iv.OverallScore)
	}
	out := make([]PositionStat, 0, len(groups))
	for pos, a := range groups {
		out = append(out, PositionStat{ID: pos, TotalInterviews: a.total, AvgScore: a.avg.value(), Completed: a.completed})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalInterviews != out[j].TotalInterviews {
			return out[i].TotalInterviews > out[j].TotalInterviews
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ComputePerformance derives completion and no-show rates over every
// interview that was not cancelled, and the mean actual duration.
func ComputePerformance(interviews []types.Interview) Performance {
	var scheduled, completed, noShows int
	var minutes mean
	for _, iv := range interviews {
		if iv.Status != types.InterviewCancelled {
			scheduled++
		}
		switch iv.Status {
		case types.InterviewCompleted:
			completed++
		case types.InterviewNoShow:
			noShows++
		}
		if iv.StartedAt != nil && iv.EndedAt != nil {
			m := iv.EndedAt.Sub(*iv.StartedAt).Minutes()
			minutes.add(&m)
		}
	}

	var p Performance
	if scheduled > 0 {
		p.CompletionRate = round1(float64(completed) / float64(scheduled) * 100)
		p.NoShowRate = round1(float64(noShows) / float64(scheduled) * 100)
	}
	if v := minutes.value(); v != nil {
		p.AvgDuration = int(math.Round(*v))
	}
	return p
}

// TopQuestionsLimit caps ComputeQuestions.
const TopQuestionsLimit = 10

// ComputeQuestions ranks question texts by the mean overall score of the
// interviews that asked them; unscored questions sort last.
func ComputeQuestions(interviews []types.Interview) []QuestionStat {
	type acc struct {
		stat QuestionStat
		avg  mean
	}
	groups := map[string]*acc{}
	var order []string
	for _, iv := range interviews {
		for _, q := range iv.Questions {
			a, ok := groups[q.Question]
			if !ok {
				a = &acc{stat: QuestionStat{ID: q.Question, Type: q.Type, Difficulty: q.Difficulty}}
				groups[q.Question] = a
				order = append(order, q.Question)
			}
			a.stat.TimesAsked++
			a.avg.add(iv.OverallScore)
		}
	}

	out := make([]QuestionStat, 0, len(groups))
	for _, key := range order {
		a := groups[key]
		a.stat.AvgScore = a.avg.value()
		out = append(out, a.stat)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].AvgScore, out[j].AvgScore
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})
	if len(out) > TopQuestionsLimit {
		out = out[:TopQuestionsLimit]
	}
	return out
}

// DefaultActivityLimit is the recent-activity length when none is given.
const DefaultActivityLimit = 10

// ComputeRecentActivity merges the latest interview updates and candidate
// sign-ups, newest first, capped at limit.
func ComputeRecentActivity(interviews []types.Interview, candidates []types.Candidate, limit int) []Activity {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	byID := make(map[string]types.Candidate, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}

	out := make([]Activity, 0, len(interviews)+len(candidates))
	for _, iv := range interviews {
		a := Activity{
			Type:      "interview",
			Action:    "Interview " + string(iv.Status),
			Timestamp: iv.UpdatedAt,
			Score:     iv.OverallScore,
		}
		if c, ok := byID[iv.CandidateID]; ok {
			a.Candidate, a.Position = c.Name, c.Position
		} else if iv.Candidate != nil {
			a.Candidate, a.Position = iv.Candidate.Name, iv.Candidate.Position
		}
		out = append(out, a)
	}
	for _, c := range candidates {
		out = append(out, Activity{
			Type:      "candidate",
			Action:    "New candidate added",
			Candidate: c.Name,
			Position:  c.Position,
			Timestamp: c.CreatedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
