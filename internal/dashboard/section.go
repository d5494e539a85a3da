package dashboard

import (
	"context"
	"fmt"
	"slices"
	"time"

	"builders-pos/internal/feedback"
	"builders-pos/internal/notification"
	"builders-pos/internal/order"
	"builders-pos/internal/product"
	"builders-pos/internal/report"
	"builders-pos/internal/sync"
	"builders-pos/internal/user"
)

type Section string

const (
	// Manager
	SectionManagerHome      Section = "manager-dashboard"
	SectionInventory        Section = "inventory"
	SectionReports          Section = "reports"
	SectionSuppliers        Section = "suppliers"
	SectionStaffPerformance Section = "staff-performance"
	SectionFeedback         Section = "customer-feedback"

	// Auditor
	SectionDailyReport Section = "daily-report"
	SectionAnalytics   Section = "sales-analytics"
	SectionAuditTrail  Section = "audit-trail"

	// Staff
	SectionStaffHome     Section = "staff-dashboard"
	SectionNotifications Section = "notifications"
	SectionStockCheck    Section = "stock-check"
	SectionSalesHistory  Section = "sales-history"

	// Customer
	SectionShop     Section = "products"
	SectionMyOrders Section = "my-orders"
)

type ReportKind string

const (
	ReportDaily     ReportKind = "daily"
	ReportWeekly    ReportKind = "weekly"
	ReportMonthly   ReportKind = "monthly"
	ReportInventory ReportKind = "inventory"
	ReportProducts  ReportKind = "products"
)

// Params narrow what a section shows. Zero values mean the section default.
type Params struct {
	Report ReportKind
	Day    time.Time

	Filter product.Filter
	Search string
	Period order.Period

	AuditType string
	From      *time.Time
	To        *time.Time
}

// Env is what loaders may read besides the snapshot.
type Env struct {
	Identity  user.Identity
	Now       time.Time
	Loc       *time.Location
	DemoAudit bool
	Feedback  feedback.Service
}

// Loader builds a section's view from a snapshot. It never writes.
type Loader func(ctx context.Context, snap sync.Snapshot, p Params, env Env) (any, error)

// Entry pairs a section's loader with the roles allowed to open it.
type Entry struct {
	Load  Loader
	Roles []user.Role
}

func (e Entry) Allows(role user.Role) bool {
	return slices.Contains(e.Roles, role)
}

var (
	managers  = []user.Role{user.RoleManager, user.RoleAdmin}
	auditors  = []user.Role{user.RoleAuditor, user.RoleAdmin}
	tillStaff = []user.Role{user.RoleStaff, user.RoleManager}
	customers = []user.Role{user.RoleCustomer}
)

// DefaultTable maps every section to its loader and roles.
func DefaultTable() map[Section]Entry {
	return map[Section]Entry{
		SectionManagerHome:      {Load: loadManagerHome, Roles: managers},
		SectionInventory:        {Load: loadStock, Roles: managers},
		SectionReports:          {Load: loadReport, Roles: managers},
		SectionSuppliers:        {Load: loadSuppliers, Roles: managers},
		SectionStaffPerformance: {Load: loadStaffPerformance, Roles: managers},
		SectionFeedback:         {Load: loadFeedback, Roles: managers},

		SectionDailyReport: {Load: loadDaily, Roles: auditors},
		SectionAnalytics:   {Load: loadAnalytics, Roles: auditors},
		SectionAuditTrail:  {Load: loadAuditTrail, Roles: auditors},

		SectionStaffHome:     {Load: loadStaffHome, Roles: tillStaff},
		SectionNotifications: {Load: loadNotifications, Roles: tillStaff},
		SectionStockCheck:    {Load: loadStock, Roles: tillStaff},
		SectionSalesHistory:  {Load: loadSalesHistory, Roles: tillStaff},

		SectionShop:     {Load: loadShop, Roles: customers},
		SectionMyOrders: {Load: loadMyOrders, Roles: customers},
	}
}

func day(p Params, env Env) time.Time {
	if p.Day.IsZero() {
		return env.Now
	}
	return p.Day
}

func loadManagerHome(_ context.Context, snap sync.Snapshot, _ Params, env Env) (any, error) {
	return report.CollectManagerStats(snap.Orders, snap.Products, env.Now, env.Loc), nil
}

func loadStock(_ context.Context, snap sync.Snapshot, p Params, _ Env) (any, error) {
	filter := p.Filter
	if filter == "" {
		filter = product.FilterAll
	}
	return product.FilterStock(snap.Products, filter), nil
}

func loadReport(_ context.Context, snap sync.Snapshot, p Params, env Env) (any, error) {
	switch p.Report {
	case ReportDaily, "":
		return report.Daily(snap.Orders, day(p, env), env.Loc), nil
	case ReportWeekly:
		return report.Weekly(snap.Orders, day(p, env), env.Loc), nil
	case ReportMonthly:
		return report.Monthly(snap.Orders, day(p, env), env.Loc), nil
	case ReportInventory:
		return report.Inventory(snap.Products), nil
	case ReportProducts:
		orders := snap.Orders
		if !p.Day.IsZero() {
			orders = report.OnDay(orders, p.Day, env.Loc)
		}
		return report.ProductPerformance(orders), nil
	default:
		return nil, fmt.Errorf("%q: %w", p.Report, ErrUnknownReport)
	}
}

func loadSuppliers(_ context.Context, snap sync.Snapshot, _ Params, _ Env) (any, error) {
	return snap.Suppliers, nil
}

func loadStaffPerformance(_ context.Context, snap sync.Snapshot, _ Params, _ Env) (any, error) {
	return report.StaffPerformance(snap.Orders), nil
}

type FeedbackView struct {
	Summary report.FeedbackSummary `json:"summary"`
	Entries []feedback.Feedback    `json:"entries"`
}

func loadFeedback(ctx context.Context, _ sync.Snapshot, _ Params, env Env) (any, error) {
	if env.Feedback == nil {
		return FeedbackView{Summary: report.SummarizeFeedback(nil)}, nil
	}
	all, err := env.Feedback.List(ctx)
	if err != nil {
		return nil, err
	}
	newest := slices.Clone(all)
	slices.Reverse(newest)
	return FeedbackView{Summary: report.SummarizeFeedback(all), Entries: newest}, nil
}

func loadDaily(_ context.Context, snap sync.Snapshot, p Params, env Env) (any, error) {
	return report.Daily(snap.Orders, day(p, env), env.Loc), nil
}

func loadAnalytics(_ context.Context, snap sync.Snapshot, _ Params, env Env) (any, error) {
	return report.SalesAnalytics(snap.Orders, snap.Products, env.Now, env.Loc), nil
}

func loadAuditTrail(_ context.Context, snap sync.Snapshot, p Params, env Env) (any, error) {
	session := env.Identity
	return report.BuildAuditTrail(report.AuditInput{
		Orders:   snap.Orders,
		Products: snap.Products,
		Session:  &session,
		Now:      env.Now,
		Loc:      env.Loc,
		DemoMode: env.DemoAudit,
		Type:     p.AuditType,
		From:     p.From,
		To:       p.To,
	}), nil
}

func loadStaffHome(_ context.Context, snap sync.Snapshot, _ Params, env Env) (any, error) {
	return report.CollectStaffStats(snap.Orders, snap.Notifications, env.Identity, env.Now, env.Loc), nil
}

func loadNotifications(_ context.Context, snap sync.Snapshot, _ Params, _ Env) (any, error) {
	return notification.Newest(snap.Notifications), nil
}

func loadSalesHistory(_ context.Context, snap sync.Snapshot, p Params, env Env) (any, error) {
	period := p.Period
	if period == "" {
		period = order.PeriodToday
	}
	return order.StaffSales(snap.Orders, env.Identity.ID, period, env.Now, env.Loc), nil
}

func loadShop(_ context.Context, snap sync.Snapshot, p Params, _ Env) (any, error) {
	return product.Search(snap.Products, p.Search, false), nil
}

func loadMyOrders(_ context.Context, snap sync.Snapshot, _ Params, env Env) (any, error) {
	return order.ForCustomer(snap.Orders, env.Identity.ID), nil
}
