package storage

import (
	"context"
	"fmt"
	"sync"

	"interview-assistant/internal/config"
	"interview-assistant/internal/logger"

	"golang.org/x/sync/errgroup"
)

// Storage aggregates every infrastructure client. Only MySQL is mandatory;
// the others are nil when unconfigured or unreachable.
type Storage struct {
	MySQL    *MySQL
	Redis    *Redis
	MinIO    *MinIO
	RabbitMQ *RabbitMQ

	Candidates CandidateRepository
	Interviews InterviewRepository
	Settings   SettingsRepository
}

// NewStorage connects to every configured backend concurrently.
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	s := &Storage{}

	var (
		mu       sync.Mutex
		failures []string
	)
	optional := func(name string, fn func() error) func() error {
		return func() error {
			if err := fn(); err != nil {
				logger.Warn().Err(err).Str("backend", name).Msg("backend unavailable, continuing without it")
				mu.Lock()
				failures = append(failures, name)
				mu.Unlock()
			}
			return nil
		}
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := NewMySQL(&cfg.MySQL)
		if err != nil {
			return fmt.Errorf("mysql: %w", err)
		}
		s.MySQL = m
		return nil
	})
	if cfg.Redis.Address != "" {
		g.Go(optional("redis", func() (err error) {
			s.Redis, err = NewRedisAdapter(&cfg.Redis)
			return err
		}))
	}
	if cfg.MinIO.Endpoint != "" {
		g.Go(optional("minio", func() (err error) {
			s.MinIO, err = NewMinIO(&cfg.MinIO)
			return err
		}))
	}
	if cfg.RabbitMQ.URL != "" {
		g.Go(optional("rabbitmq", func() (err error) {
			s.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ)
			return err
		}))
	}
	if err := g.Wait(); err != nil {
		s.Close()
		return nil, err
	}

	// events are only staged when a broker can eventually receive them
	exchange := ""
	if s.RabbitMQ != nil {
		exchange = cfg.RabbitMQ.EventsExchange
	}
	db := s.MySQL.DB()
	s.Candidates = NewCandidateRepository(db, exchange)
	s.Interviews = NewInterviewRepository(db, exchange)
	s.Settings = NewSettingsRepository(db, exchange)

	logger.Info().Strs("unavailable", failures).Msg("storage initialized")
	return s, nil
}

// Close releases every open connection.
func (s *Storage) Close() {
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			logger.Error().Err(err).Msg("close rabbitmq")
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			logger.Error().Err(err).Msg("close mysql")
		}
	}
}
