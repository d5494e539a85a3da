package utils

import (
	"strconv"
	"time"
)

// Record id prefixes used in the shared store.
const (
	PrefixOrder        = "ORD"
	PrefixSale         = "SALE"
	PrefixNotification = "NOT"
	PrefixFeedback     = "FB"
	PrefixQuotation    = "QT"
	PrefixPaymentRef   = "MOCKREF"
)

// NewRecordID returns prefix + unix milliseconds, the id format used by every
// dashboard. Two records created in the same millisecond collide.
func NewRecordID(prefix string, now time.Time) string {
	return prefix + strconv.FormatInt(now.UnixMilli(), 10)
}

// FormatAmount renders an amount the way the dashboards print money.
func FormatAmount(amount int64) string {
	return "MWK " + groupThousands(amount)
}

func groupThousands(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return sign + s
	}
	out := make([]byte, 0, len(s)+len(s)/3)
	pre := len(s) % 3
	if pre > 0 {
		out = append(out, s[:pre]...)
	}
	for i := pre; i < len(s); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, s[i:i+3]...)
	}
	return sign + string(out)
}

// UniqueRecordID is NewRecordID, bumped a millisecond at a time until taken
// reports the id free.
func UniqueRecordID(prefix string, at time.Time, taken func(id string) bool) string {
	id := NewRecordID(prefix, at)
	for taken(id) {
		at = at.Add(time.Millisecond)
		id = NewRecordID(prefix, at)
	}
	return id
}
