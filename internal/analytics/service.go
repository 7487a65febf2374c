package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"interview-assistant/internal/constants"
	"interview-assistant/internal/logger"
	"interview-assistant/internal/storage"
	"interview-assistant/internal/types"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Service loads snapshots from the repositories and caches each report.
type Service struct {
	interviews storage.InterviewRepository
	candidates storage.CandidateRepository
	cache      storage.Cache // nil disables caching
	ttl        time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

// NewService builds the analytics service. ttl <= 0 selects the default.
func NewService(interviews storage.InterviewRepository, candidates storage.CandidateRepository, cache storage.Cache, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = constants.DefaultAnalyticsTTL
	}
	return &Service{
		interviews: interviews,
		candidates: candidates,
		cache:      cache,
		ttl:        ttl,
		now:        time.Now,
		log:        logger.Component("analytics"),
	}
}

// Invalidate drops every cached report.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	n, err := s.cache.DeletePattern(ctx, constants.KeyAnalyticsCachePattern)
	if err != nil {
		return fmt.Errorf("invalidate analytics cache: %w", err)
	}
	s.log.Debug().Int("keys", n).Msg("analytics cache invalidated")
	return nil
}

// cached serves report from the cache or computes and stores it. Cache
// failures are logged and never fail the request.
func cached[T any](ctx context.Context, s *Service, report, params string, compute func(context.Context) (T, error)) (T, error) {
	key := fmt.Sprintf(constants.KeyAnalyticsCache, report, params)
	if s.cache != nil {
		var hit T
		err := s.cache.GetJSON(ctx, key, &hit)
		if err == nil {
			return hit, nil
		}
		if !errors.Is(err, storage.ErrCacheMiss) {
			s.log.Warn().Err(err).Str("key", key).Msg("analytics cache read failed")
		}
	}

	v, err := compute(ctx)
	if err != nil {
		return v, err
	}
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, v, s.ttl); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("analytics cache write failed")
		}
	}
	return v, nil
}

type snapshot struct {
	interviews []types.Interview
	candidates []types.Candidate
}

// load reads every interview and, when withCandidates is set, every
// candidate concurrently.
func (s *Service) load(ctx context.Context, withCandidates bool) (*snapshot, error) {
	snap := &snapshot{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ivs, _, err := s.interviews.List(gctx, types.InterviewFilter{})
		if err != nil {
			return fmt.Errorf("load interviews: %w", err)
		}
		snap.interviews = ivs
		return nil
	})
	if withCandidates {
		g.Go(func() error {
			cs, _, err := s.candidates.List(gctx, types.CandidateFilter{SortBy: "createdAt", SortDesc: true})
			if err != nil {
				return fmt.Errorf("load candidates: %w", err)
			}
			snap.candidates = cs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

func formatRange(from, to *time.Time) string {
	f, t := "", ""
	if from != nil {
		f = from.UTC().Format(time.RFC3339)
	}
	if to != nil {
		t = to.UTC().Format(time.RFC3339)
	}
	return f + "_" + t
}

func (s *Service) Overview(ctx context.Context, from, to *time.Time) (Overview, error) {
	return cached(ctx, s, "overview", formatRange(from, to), func(ctx context.Context) (Overview, error) {
		snap, err := s.load(ctx, true)
		if err != nil {
			return Overview{}, err
		}
		return ComputeOverview(snap.interviews, len(snap.candidates), from, to), nil
	})
}

func (s *Service) Trends(ctx context.Context, period string) ([]TrendPoint, error) {
	if period == "" {
		period = Period6Months
	}
	return cached(ctx, s, "trends", period, func(ctx context.Context) ([]TrendPoint, error) {
		snap, err := s.load(ctx, false)
		if err != nil {
			return nil, err
		}
		return ComputeTrends(snap.interviews, period, s.now()), nil
	})
}

func (s *Service) Scores(ctx context.Context) ([]ScoreBucket, error) {
	return cached(ctx, s, "scores", "all", func(ctx context.Context) ([]ScoreBucket, error) {
		snap, err := s.load(ctx, false)
		if err != nil {
			return nil, err
		}
		return ComputeScoreDistribution(snap.interviews), nil
	})
}

func (s *Service) Positions(ctx context.Context) ([]PositionStat, error) {
	return cached(ctx, s, "positions", "all", func(ctx context.Context) ([]PositionStat, error) {
		snap, err := s.load(ctx, false)
		if err != nil {
			return nil, err
		}
		return ComputePositions(snap.interviews), nil
	})
}

func (s *Service) Performance(ctx context.Context) (Performance, error) {
	return cached(ctx, s, "performance", "all", func(ctx context.Context) (Performance, error) {
		snap, err := s.load(ctx, false)
		if err != nil {
			return Performance{}, err
		}
		return ComputePerformance(snap.interviews), nil
	})
}

func (s *Service) Questions(ctx context.Context) ([]QuestionStat, error) {
	return cached(ctx, s, "questions", "all", func(ctx context.Context) ([]QuestionStat, error) {
		snap, err := s.load(ctx, false)
		if err != nil {
			return nil, err
		}
		return ComputeQuestions(snap.interviews), nil
	})
}

// RecentActivity defaults limit to 10.
func (s *Service) RecentActivity(ctx context.Context, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = 10
	}
	return cached(ctx, s, "recent", fmt.Sprint(limit), func(ctx context.Context) ([]Activity, error) {
		snap, err := s.load(ctx, true)
		if err != nil {
			return nil, err
		}
		return ComputeRecentActivity(snap.interviews, snap.candidates, limit), nil
	})
}
