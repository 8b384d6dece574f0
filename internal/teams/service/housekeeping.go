package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/gpuconsole/internal/teams/obs"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/store"
)

// HousekeepingService periodically samples how many stored invitations are
// still pending and how many have expired. Expired invitations are left in
// place; they stay listable until cancelled.
type HousekeepingService struct {
	Store    store.Store
	Metrics  *obs.Metrics
	Logger   *slog.Logger
	Interval time.Duration

	// Now defaults to time.Now.
	Now func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewHousekeepingService creates a housekeeping service. If interval is 0 or
// negative, it defaults to one minute.
func NewHousekeepingService(
	st store.Store,
	metrics *obs.Metrics,
	logger *slog.Logger,
	interval time.Duration,
) *HousekeepingService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &HousekeepingService{
		Store:    st,
		Metrics:  metrics,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the sampler in the background until Stop is called.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts the worker down and waits for an in-progress sample to finish.
func (s *HousekeepingService) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Sample immediately on startup
	_, _ = s.Sample(context.Background())

	for {
		select {
		case <-ticker.C:
			_, _ = s.Sample(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Sample counts invitations once and publishes the result.
func (s *HousekeepingService) Sample(ctx context.Context) (store.InvitationCounts, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	counts, err := s.Store.Invitations().CountInvitations(ctx, now)
	if err != nil {
		s.Logger.Error("failed to count invitations", "error", err)
		return store.InvitationCounts{}, err
	}

	s.Metrics.SetInvitationCounts(counts.Pending, counts.Expired)
	s.Logger.Debug("housekeeping sample", "pending", counts.Pending, "expired", counts.Expired)
	return counts, nil
}
