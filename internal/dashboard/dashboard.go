// Package dashboard routes a role's section requests to loaders over the
// mirrored snapshot and re-runs the open section after every sync refresh.
package dashboard

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"builders-pos/internal/feedback"
	"builders-pos/internal/logger"
	"builders-pos/internal/sync"
	"builders-pos/internal/user"

	"go.uber.org/zap"
)

// RenderFunc receives every freshly loaded view.
type RenderFunc func(section Section, view any)

type Dashboard struct {
	identity user.Identity
	mirror   *sync.Mirror
	table    map[Section]Entry
	render   RenderFunc

	feedback  feedback.Service
	demoAudit bool
	now       func() time.Time
	loc       *time.Location

	mu     stdsync.Mutex
	active Section
	params Params
}

type Option func(*Dashboard)

func WithTable(t map[Section]Entry) Option {
	return func(d *Dashboard) { d.table = t }
}

func WithRender(fn RenderFunc) Option {
	return func(d *Dashboard) { d.render = fn }
}

func WithFeedback(f feedback.Service) Option {
	return func(d *Dashboard) { d.feedback = f }
}

// WithDemoAudit pads near-empty audit trails with sample rows.
func WithDemoAudit(on bool) Option {
	return func(d *Dashboard) { d.demoAudit = on }
}

func WithClock(now func() time.Time) Option {
	return func(d *Dashboard) { d.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(d *Dashboard) { d.loc = loc }
}

func New(identity user.Identity, mirror *sync.Mirror, opts ...Option) *Dashboard {
	d := &Dashboard{
		identity: identity,
		mirror:   mirror,
		table:    DefaultTable(),
		now:      time.Now,
		loc:      time.Local,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Active reports the open section, or "" before the first Show.
func (d *Dashboard) Active() Section {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Show opens section for the dashboard's identity and renders it. The
// section stays active until the next successful Show.
func (d *Dashboard) Show(ctx context.Context, section Section, p Params) (any, error) {
	entry, ok := d.table[section]
	if !ok {
		return nil, fmt.Errorf("%q: %w", section, ErrUnknownSection)
	}
	if !entry.Allows(d.identity.Role) {
		return nil, fmt.Errorf("%s cannot open %q: %w", d.identity.Role, section, user.ErrForbidden)
	}

	view, err := d.load(ctx, entry, d.mirror.Snapshot(), p)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.active, d.params = section, p
	d.mu.Unlock()

	d.emit(section, view)
	return view, nil
}

// OnRefresh re-runs the active section against snap. It has the
// sync.RefreshFunc signature so a Poller can call it directly.
func (d *Dashboard) OnRefresh(ctx context.Context, snap sync.Snapshot, trigger sync.Trigger) {
	d.mu.Lock()
	section, p := d.active, d.params
	d.mu.Unlock()
	if section == "" {
		return
	}

	view, err := d.load(ctx, d.table[section], snap, p)
	if err != nil {
		logger.FromCtx(ctx).Warn("section reload failed",
			zap.String("layer", "dashboard"),
			zap.String("section", string(section)),
			zap.String("trigger", string(trigger)),
			zap.Error(err),
		)
		return
	}
	d.emit(section, view)
}

func (d *Dashboard) load(ctx context.Context, e Entry, snap sync.Snapshot, p Params) (any, error) {
	ctx = user.WithIdentity(ctx, d.identity)
	return e.Load(ctx, snap, p, Env{
		Identity:  d.identity,
		Now:       d.now(),
		Loc:       d.loc,
		DemoAudit: d.demoAudit,
		Feedback:  d.feedback,
	})
}

func (d *Dashboard) emit(section Section, view any) {
	if d.render != nil {
		d.render(section, view)
	}
}
