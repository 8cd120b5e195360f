package entities

import (
	"fmt"
	"time"
)

// TenantCallConfig is the immutable per-tenant snapshot the call pipeline
// works with. It is loaded once per cache refresh and never mutated in place.
type TenantCallConfig struct {
	TenantID      int              `json:"tenant_id"`
	CompanyName   string           `json:"company_name"`
	CalleeNumber  string           `json:"callee_number"` // E.164 number routed to this tenant
	Language      string           `json:"language"`      // BCP-47, e.g. "es-ES"
	Voice         string           `json:"voice"`         // synthesis voice identity
	Greeting      string           `json:"greeting"`      // tenant-authored open-hours greeting
	BusinessHours BusinessHours    `json:"business_hours"`
	FAQs          []FAQ            `json:"faqs"`
	ReferenceDocs []ReferenceDoc   `json:"reference_docs"`
	CompanyInfo   string           `json:"company_info"`
	TelegramChat  int64            `json:"telegram_chat"` // 0 = notifications disabled
	DailyCallCap  int              `json:"daily_call_cap"` // 0 = unlimited
}

// FAQ is a single question/answer pair fed to the AI as business context.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ReferenceDoc is a named blob of business knowledge (policies, price lists).
type ReferenceDoc struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// DayWindow is one weekday's opening window in "HH:MM" local time.
// Closed=true means the business does not open that day at all.
type DayWindow struct {
	Open   string `json:"open"`
	Close  string `json:"close"`
	Closed bool   `json:"closed"`
}

// BusinessHours maps lowercase English weekday names ("monday"..."sunday")
// to their opening window. Missing days count as closed.
type BusinessHours map[string]DayWindow

// IsOpenAt reports whether the business is open at the given instant.
// Malformed windows count as closed rather than failing the call.
func (bh BusinessHours) IsOpenAt(t time.Time) bool {
	if len(bh) == 0 {
		return true // no hours configured means always answer as open
	}

	day := weekdayKey(t.Weekday())
	window, ok := bh[day]
	if !ok || window.Closed {
		return false
	}

	openMin, err := parseClock(window.Open)
	if err != nil {
		return false
	}
	closeMin, err := parseClock(window.Close)
	if err != nil {
		return false
	}

	nowMin := t.Hour()*60 + t.Minute()
	if closeMin < openMin {
		// Window crosses midnight, e.g. 18:00-02:00
		return nowMin >= openMin || nowMin < closeMin
	}
	return nowMin >= openMin && nowMin < closeMin
}

func weekdayKey(d time.Weekday) string {
	switch d {
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	case time.Saturday:
		return "saturday"
	default:
		return "sunday"
	}
}

// parseClock converts "HH:MM" into minutes since midnight.
func parseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock value %q out of range", s)
	}
	return h*60 + m, nil
}
