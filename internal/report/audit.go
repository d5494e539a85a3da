package report

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"builders-pos/internal/order"
	"builders-pos/internal/product"
	"builders-pos/internal/user"
	"builders-pos/internal/utils"
)

// minAuditActivities is the size below which demo mode pads the trail.
const minAuditActivities = 3

type AuditInput struct {
	Orders   []order.Order
	Products []product.Product
	// Session is the identity viewing the trail; it contributes a Login row.
	Session   *user.Identity
	SessionAt time.Time

	Now time.Time
	Loc *time.Location

	// DemoMode pads an almost empty trail with sample rows.
	DemoMode bool
	// Type matches activity types by case-insensitive substring.
	Type string
	// From and To are calendar days. To covers its whole day.
	From *time.Time
	To   *time.Time
}

// BuildAuditTrail merges orders, product updates, the session and a
// report marker into one timeline, newest first.
func BuildAuditTrail(in AuditInput) AuditTrail {
	loc := in.Loc
	if loc == nil {
		loc = time.Local
	}

	activities := make([]Activity, 0, len(in.Orders)+4)
	for _, o := range in.Orders {
		activities = append(activities, saleActivity(o))
	}
	for _, p := range in.Products {
		if p.LastUpdated == nil {
			continue
		}
		activities = append(activities, Activity{
			Timestamp: *p.LastUpdated,
			Type:      ActivityInventory,
			User:      "Manager",
			Action:    "Stock Updated",
			Details:   fmt.Sprintf("%s stock now %d", p.Name, p.Stock),
		})
	}
	if in.Session != nil {
		at := in.SessionAt
		if at.IsZero() {
			at = in.Now
		}
		activities = append(activities, Activity{
			Timestamp: at,
			Type:      ActivityUser,
			User:      in.Session.Name,
			Action:    "Login",
			Details:   fmt.Sprintf("%s signed in as %s", in.Session.Name, in.Session.Role),
		})
	}
	activities = append(activities, Activity{
		Timestamp: in.Now,
		Type:      ActivitySystem,
		User:      "System",
		Action:    "Report Generated",
		Details:   "Audit trail generated",
	})

	if in.DemoMode && len(activities) < minAuditActivities {
		activities = append(activities, demoActivities(in.Now)...)
	}

	activities = filterActivities(activities, in, loc)
	slices.SortStableFunc(activities, func(a, b Activity) int {
		return cmp.Compare(b.Timestamp.UnixNano(), a.Timestamp.UnixNano())
	})

	return AuditTrail{Activities: activities, Rows: groupByDay(activities, loc)}
}

func saleActivity(o order.Order) Activity {
	who, action := o.CustomerName, "Online Order"
	if o.StaffID != nil {
		who, action = o.StaffName, "In-store Sale"
	}
	if who == "" {
		who = "N/A"
	}
	return Activity{
		Timestamp: o.Date,
		Type:      ActivitySale,
		User:      who,
		Action:    action,
		Details:   fmt.Sprintf("%s %s, %d item(s), %s", o.ID, o.Status, len(o.Items), utils.FormatAmount(o.Total)),
	}
}

func demoActivities(now time.Time) []Activity {
	return []Activity{
		{
			Timestamp: now.Add(-1 * time.Hour),
			Type:      ActivitySale,
			User:      "Demo Staff",
			Action:    "In-store Sale",
			Details:   "Sample sale of " + utils.FormatAmount(45000),
		},
		{
			Timestamp: now.Add(-2 * time.Hour),
			Type:      ActivityInventory,
			User:      "Demo Manager",
			Action:    "Stock Updated",
			Details:   "Sample purchase of 100 units",
		},
		{
			Timestamp: now.Add(-3 * time.Hour),
			Type:      ActivityUser,
			User:      "Demo Auditor",
			Action:    "Login",
			Details:   "Sample login",
		},
	}
}

func filterActivities(activities []Activity, in AuditInput, loc *time.Location) []Activity {
	typ := strings.ToLower(strings.TrimSpace(in.Type))

	var from, to time.Time
	if in.From != nil {
		from = utils.StartOfDay(*in.From, loc)
	}
	if in.To != nil {
		to = utils.EndOfDay(*in.To, loc)
	}

	return slices.DeleteFunc(activities, func(a Activity) bool {
		if typ != "" && !strings.Contains(strings.ToLower(string(a.Type)), typ) {
			return true
		}
		if in.From != nil && a.Timestamp.Before(from) {
			return true
		}
		if in.To != nil && a.Timestamp.After(to) {
			return true
		}
		return false
	})
}

func groupByDay(activities []Activity, loc *time.Location) []AuditRow {
	rows := make([]AuditRow, 0, len(activities))
	last := ""
	for _, a := range activities {
		row := AuditRow{Activity: a}
		if day := utils.DayKey(a.Timestamp, loc); day != last {
			row.Day = day
			last = day
		}
		rows = append(rows, row)
	}
	return rows
}
