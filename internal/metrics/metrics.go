package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collectors groups the store and sync counters. Each process builds one and
// registers it on its own registry.
type Collectors struct {
	StoreWrites        *prometheus.CounterVec
	StoreWriteFailures *prometheus.CounterVec
	StoreConflicts     *prometheus.CounterVec
	DroppedEvents      prometheus.Counter
	Refreshes          *prometheus.CounterVec
	RefreshDuration    prometheus.Histogram
}

func New() *Collectors {
	return &Collectors{
		StoreWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pos",
			Subsystem: "store",
			Name:      "writes_total",
			Help:      "Whole-collection writes accepted by the backend.",
		}, []string{"key"}),
		StoreWriteFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pos",
			Subsystem: "store",
			Name:      "write_failures_total",
			Help:      "Writes rejected by the backend.",
		}, []string{"key"}),
		StoreConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pos",
			Subsystem: "store",
			Name:      "conflicts_total",
			Help:      "Optimistic update retries caused by a concurrent writer.",
		}, []string{"key"}),
		DroppedEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pos",
			Subsystem: "store",
			Name:      "dropped_events_total",
			Help:      "Change events dropped because a subscriber was full.",
		}),
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pos",
			Subsystem: "sync",
			Name:      "refreshes_total",
			Help:      "Mirror refreshes by trigger.",
		}, []string{"role", "trigger"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pos",
			Subsystem: "sync",
			Name:      "refresh_seconds",
			Help:      "Time spent re-reading watched collections.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}
}

// Register adds every collector to reg.
func (c *Collectors) Register(reg prometheus.Registerer) error {
	for _, col := range []prometheus.Collector{
		c.StoreWrites,
		c.StoreWriteFailures,
		c.StoreConflicts,
		c.DroppedEvents,
		c.Refreshes,
		c.RefreshDuration,
	} {
		if err := reg.Register(col); err != nil {
			return err
		}
	}
	return nil
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveInto records the elapsed seconds on h.
func (t *Timer) ObserveInto(h prometheus.Observer) {
	h.Observe(t.Duration().Seconds())
}
