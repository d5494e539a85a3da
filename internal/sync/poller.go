package sync

import (
	"context"
	"time"

	"builders-pos/internal/logger"
	"builders-pos/internal/metrics"
	"builders-pos/internal/store"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Trigger string

const (
	TriggerInitial Trigger = "initial"
	TriggerTimer   Trigger = "timer"
	TriggerEvent   Trigger = "event"
	// TriggerCoalesced is a tick that also covers events the limiter held back.
	TriggerCoalesced Trigger = "coalesced"
)

// Event refreshes are limited to a burst of eventBurst, then one per
// eventEvery. Anything over that waits for the next tick.
const (
	eventEvery = 250 * time.Millisecond
	eventBurst = 2
)

// RefreshFunc runs after every successful refresh, on the poller goroutine.
type RefreshFunc func(ctx context.Context, snap Snapshot, trigger Trigger)

type Poller struct {
	store     *store.Store
	mirror    *Mirror
	profile   Profile
	limiter   *rate.Limiter
	metrics   *metrics.Collectors
	onRefresh RefreshFunc
}

type Option func(*Poller)

func WithLimiter(l *rate.Limiter) Option {
	return func(p *Poller) { p.limiter = l }
}

func WithMetrics(m *metrics.Collectors) Option {
	return func(p *Poller) { p.metrics = m }
}

func WithOnRefresh(fn RefreshFunc) Option {
	return func(p *Poller) { p.onRefresh = fn }
}

func NewPoller(s *store.Store, m *Mirror, profile Profile, opts ...Option) *Poller {
	p := &Poller{
		store:   s,
		mirror:  m,
		profile: profile,
		limiter: rate.NewLimiter(rate.Every(eventEvery), eventBurst),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run refreshes once, then on every tick and on every relevant change from
// another handle until ctx is done. Ticks and events share one select, so
// two refreshes never overlap.
func (p *Poller) Run(ctx context.Context) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "sync"),
		zap.String("role", string(p.profile.Role)),
	)

	events, err := p.store.Subscribe(ctx)
	if err != nil {
		return err
	}

	p.refresh(ctx, log, TriggerInitial)

	ticker := time.NewTicker(p.profile.Interval)
	defer ticker.Stop()

	pending := false
	for {
		select {
		case <-ctx.Done():
			log.Debug("poller stopped")
			return nil

		case <-ticker.C:
			trigger := TriggerTimer
			if pending {
				trigger = TriggerCoalesced
				pending = false
			}
			p.refresh(ctx, log, trigger)

		case change, ok := <-events:
			if !ok {
				// Subscription ended with the backend; keep polling on the timer.
				events = nil
				continue
			}
			if !p.profile.Watches(change.Key) {
				continue
			}
			if !p.limiter.Allow() {
				pending = true
				continue
			}
			p.refresh(ctx, log, TriggerEvent)
		}
	}
}

func (p *Poller) refresh(ctx context.Context, log *zap.Logger, trigger Trigger) {
	timer := metrics.StartTimer()
	if err := p.mirror.Refresh(ctx, p.profile.Keys); err != nil {
		log.Warn("mirror refresh failed", zap.String("trigger", string(trigger)), zap.Error(err))
		return
	}
	if p.metrics != nil {
		p.metrics.Refreshes.WithLabelValues(string(p.profile.Role), string(trigger)).Inc()
		timer.ObserveInto(p.metrics.RefreshDuration)
	}
	log.Debug("mirror refreshed",
		zap.String("trigger", string(trigger)),
		zap.Duration("took", timer.Duration()),
	)
	if p.onRefresh != nil {
		p.onRefresh(ctx, p.mirror.Snapshot(), trigger)
	}
}
