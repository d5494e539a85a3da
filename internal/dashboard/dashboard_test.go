package dashboard

import (
	"context"
	"testing"
	"time"

	"builders-pos/internal/apperr"
	"builders-pos/internal/cart"
	"builders-pos/internal/feedback"
	"builders-pos/internal/notification"
	"builders-pos/internal/order"
	"builders-pos/internal/product"
	"builders-pos/internal/report"
	"builders-pos/internal/store"
	"builders-pos/internal/sync"
	"builders-pos/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	now     = time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC)
	staff   = user.Identity{ID: 3, Role: user.RoleStaff, Name: "John Banda"}
	manager = user.Identity{ID: 2, Role: user.RoleManager, Name: "Grace Mwale"}
	auditor = user.Identity{ID: 4, Role: user.RoleAuditor, Name: "Alice"}
)

type rendered struct {
	section Section
	view    any
}

func setup(t *testing.T, id user.Identity, opts ...Option) (*Dashboard, *store.Store, *sync.Mirror, *[]rendered) {
	t.Helper()
	ctx := context.Background()
	s := store.New(store.NewMemoryBackend())
	staffID := staff.ID
	require.NoError(t, s.Write(ctx, store.KeyProducts, []product.Product{
		{ID: 1, Name: "Cement 50kg", Category: "cement", Price: 45000, Stock: 198, LowStockThreshold: 50},
		{ID: 6, Name: "Hammer", Category: "tools", Price: 15000, Stock: 0, LowStockThreshold: 5},
	}))
	require.NoError(t, s.Write(ctx, store.KeyOrders, []order.Order{{
		ID:        "SALE1",
		StaffID:   &staffID,
		StaffName: staff.Name,
		Items:     []cart.Item{{ProductID: 1, Name: "Cement 50kg", Price: 45000, Quantity: 1}},
		Total:     45000,
		Status:    order.StatusCompleted,
		Date:      now.Add(-time.Hour),
	}}))
	require.NoError(t, s.Write(ctx, store.KeyNotifications, []notification.Notification{
		{ID: "NOT1", OrderID: "ORD1", Status: notification.StatusNotVerified},
	}))

	m := sync.NewMirror(s)
	require.NoError(t, m.Refresh(ctx, []string{store.KeyProducts, store.KeyOrders, store.KeyNotifications}))

	var got []rendered
	base := []Option{
		WithClock(func() time.Time { return now }),
		WithLocation(time.UTC),
		WithRender(func(section Section, view any) { got = append(got, rendered{section, view}) }),
	}
	return New(id, m, append(base, opts...)...), s, m, &got
}

func TestDashboard_ShowChecksRole(t *testing.T) {
	d, _, _, _ := setup(t, staff)

	_, err := d.Show(context.Background(), SectionReports, Params{})
	assert.ErrorIs(t, err, user.ErrForbidden)

	_, err = d.Show(context.Background(), Section("settings"), Params{})
	assert.ErrorIs(t, err, ErrUnknownSection)
	assert.True(t, apperr.IsNotFound(err))

	assert.Empty(t, d.Active())
}

func TestDashboard_StaffHome(t *testing.T) {
	d, _, _, got := setup(t, staff)

	view, err := d.Show(context.Background(), SectionStaffHome, Params{})

	require.NoError(t, err)
	assert.Equal(t, report.StaffStats{TodaySalesCount: 1, TodaySalesAmount: 45000, Unverified: 1}, view)
	assert.Equal(t, SectionStaffHome, d.Active())
	require.Len(t, *got, 1)
}

func TestDashboard_OnRefreshRerunsActiveSection(t *testing.T) {
	ctx := context.Background()
	d, s, m, got := setup(t, staff)

	d.OnRefresh(ctx, m.Snapshot(), sync.TriggerTimer)
	assert.Empty(t, *got, "nothing open yet")

	_, err := d.Show(ctx, SectionNotifications, Params{})
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, store.KeyNotifications, []notification.Notification{
		{ID: "NOT1", OrderID: "ORD1", Status: notification.StatusVerified},
		{ID: "NOT2", OrderID: "ORD2", Status: notification.StatusNotVerified},
	}))
	require.NoError(t, m.Refresh(ctx, []string{store.KeyNotifications}))
	d.OnRefresh(ctx, m.Snapshot(), sync.TriggerEvent)

	require.Len(t, *got, 2)
	latest := (*got)[1]
	assert.Equal(t, SectionNotifications, latest.section)
	notes := latest.view.([]notification.Notification)
	require.Len(t, notes, 2)
	assert.Equal(t, "NOT2", notes[0].ID)
}

func TestDashboard_ManagerSections(t *testing.T) {
	ctx := context.Background()
	s := store.New(store.NewMemoryBackend())
	fb := feedback.NewService(feedback.NewRepository(s))
	customer := user.WithIdentity(ctx, user.Identity{ID: 11, Role: user.RoleCustomer, Name: "Mary"})
	_, err := fb.Submit(customer, 4, "Good")
	require.NoError(t, err)
	_, err = fb.Submit(customer, 5, "Great")
	require.NoError(t, err)

	d, _, _, _ := setup(t, manager, WithFeedback(fb))

	view, err := d.Show(ctx, SectionInventory, Params{Filter: product.FilterOut})
	require.NoError(t, err)
	out := view.([]product.Product)
	require.Len(t, out, 1)
	assert.Equal(t, "Hammer", out[0].Name)

	view, err = d.Show(ctx, SectionReports, Params{Report: ReportDaily})
	require.NoError(t, err)
	assert.Equal(t, int64(45000), view.(report.DailyReport).Total)

	_, err = d.Show(ctx, SectionReports, Params{Report: "yearly"})
	assert.ErrorIs(t, err, ErrUnknownReport)
	assert.Equal(t, SectionReports, d.Active(), "failed show keeps the previous section")

	view, err = d.Show(ctx, SectionFeedback, Params{})
	require.NoError(t, err)
	fv := view.(FeedbackView)
	assert.Equal(t, "4.5", fv.Summary.Average.String())
	require.Len(t, fv.Entries, 2)
	assert.Equal(t, "Great", fv.Entries[0].Comment)
}

func TestDashboard_AuditTrail(t *testing.T) {
	d, _, _, _ := setup(t, auditor, WithDemoAudit(true))

	view, err := d.Show(context.Background(), SectionAuditTrail, Params{AuditType: "user"})

	require.NoError(t, err)
	trail := view.(report.AuditTrail)
	require.NotEmpty(t, trail.Activities)
	assert.Equal(t, "Alice", trail.Activities[0].User)
}

func TestDefaultTable_EveryEntryHasRoles(t *testing.T) {
	for section, e := range DefaultTable() {
		assert.NotNil(t, e.Load, section)
		assert.NotEmpty(t, e.Roles, section)
	}
}
