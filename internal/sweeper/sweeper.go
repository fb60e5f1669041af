package sweeper

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"lodging-availability-backend/config"
	"lodging-availability-backend/internal/availability"
	"lodging-availability-backend/internal/events"
	"lodging-availability-backend/internal/metrics"
	"lodging-availability-backend/internal/store"
)

// ReservationExpirer is the part of the store the sweeper needs.
type ReservationExpirer interface {
	StalePending(ctx context.Context, bookedBefore time.Time, limit int) ([]int64, error)
	ExpirePending(ctx context.Context, reservationID int64) (*store.TransitionResult, error)
}

// Service expires pending reservations that were never confirmed within the
// hold period, returning their slots to the pool.
type Service struct {
	cfg       config.SweeperConfig
	hold      time.Duration
	store     ReservationExpirer
	publisher events.Publisher
	log       *zap.Logger
	now       func() time.Time
}

// NewService creates a sweeper. A zero hold disables it.
func NewService(cfg config.SweeperConfig, hold time.Duration, s ReservationExpirer, publisher events.Publisher, log *zap.Logger) *Service {
	return &Service{
		cfg:       cfg,
		hold:      hold,
		store:     s,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Run sweeps once immediately and then on every interval until ctx ends.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled || s.hold <= 0 {
		s.log.Info("pending reservation sweeper is disabled")
		return
	}
	s.log.Info("starting pending reservation sweeper",
		zap.Duration("interval", s.cfg.Interval), zap.Duration("hold", s.hold))

	s.SweepOnce(ctx)

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("pending reservation sweeper shutting down")
			return
		case <-timer.C:
			s.SweepOnce(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

// SweepOnce expires one batch of stale pending reservations and returns how
// many it expired. Each reservation is expired in its own transaction.
func (s *Service) SweepOnce(ctx context.Context) int {
	cutoff := s.now().Add(-s.hold)
	ids, err := s.store.StalePending(ctx, cutoff, s.cfg.BatchSize)
	if err != nil {
		s.log.Error("failed to list stale pending reservations", zap.Error(err))
		return 0
	}
	if len(ids) == 0 {
		return 0
	}

	expired := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		res, err := s.store.ExpirePending(ctx, id)
		switch {
		case errors.Is(err, availability.ErrInvalidTransition), errors.Is(err, availability.ErrNotFound):
			// Confirmed or deleted since it was listed.
			continue
		case err != nil:
			s.log.Error("failed to expire reservation", zap.Int64("reservation_id", id), zap.Error(err))
			continue
		}
		expired++
		metrics.ObserveTransition(res.From, res.To, res.Effect)
		if s.publisher != nil {
			e := events.StatusChanged(res.Reservation, res.From, res.To, s.now())
			if err := s.publisher.Publish(ctx, e); err != nil {
				s.log.Warn("failed to publish expiry", zap.Int64("reservation_id", id), zap.Error(err))
			}
		}
	}
	s.log.Info("expired stale pending reservations", zap.Int("count", expired), zap.Time("cutoff", cutoff))
	return expired
}
