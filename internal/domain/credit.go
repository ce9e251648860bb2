package domain

import (
	"strings"
	"time"
)

// MonthKeyLayout formats a month as YYYY-MM
const MonthKeyLayout = "2006-01"

// MonthWindow returns the first instant and the last nanosecond of ref's
// calendar month in loc.
func MonthWindow(ref time.Time, loc *time.Location) (start, end time.Time) {
	if loc == nil {
		loc = ref.Location()
	}
	ref = ref.In(loc)
	start = time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, loc)
	end = start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}

// MonthKey returns ref's month in loc as YYYY-MM
func MonthKey(ref time.Time, loc *time.Location) string {
	start, _ := MonthWindow(ref, loc)
	return start.Format(MonthKeyLayout)
}

// MatchesClassType is the fuzzy policy linking a package item to a class type:
// case-insensitive, whitespace-trimmed, substring in either direction.
// An empty side never matches.
func MatchesClassType(itemType, classType string) bool {
	a := strings.ToLower(strings.TrimSpace(itemType))
	b := strings.ToLower(strings.TrimSpace(classType))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// CreditBalance is the state of one package item for a month
type CreditBalance struct {
	ClassType string `json:"class_type"`
	Total     int    `json:"total"`
	Used      int    `json:"used"`
	Remaining int    `json:"remaining"`
}

// ComputeCredits attributes every booked class type to the first item (in
// slice order) that matches it. Bookings matching no item are counted in
// unmatched. Remaining may go negative when bookings predate a package change.
func ComputeCredits(items []PackageItem, bookedTypes []string) (balances []CreditBalance, unmatched int) {
	balances = make([]CreditBalance, len(items))
	for i, item := range items {
		balances[i] = CreditBalance{ClassType: item.ClassType, Total: item.Credits}
	}

	for _, booked := range bookedTypes {
		idx := firstMatch(items, booked)
		if idx < 0 {
			unmatched++
			continue
		}
		balances[idx].Used++
	}

	for i := range balances {
		balances[i].Remaining = balances[i].Total - balances[i].Used
	}
	return balances, unmatched
}

func firstMatch(items []PackageItem, classType string) int {
	for i, item := range items {
		if MatchesClassType(item.ClassType, classType) {
			return i
		}
	}
	return -1
}

// CreditSummary is a user's credit position for one month
type CreditSummary struct {
	Month             string          `json:"month"`
	HasPackage        bool            `json:"has_package"`
	PackageID         string          `json:"package_id,omitempty"`
	PackageName       string          `json:"package_name,omitempty"`
	ValidFrom         *time.Time      `json:"valid_from,omitempty"`
	ValidUntil        *time.Time      `json:"valid_until,omitempty"`
	Balances          []CreditBalance `json:"balances"`
	UnmatchedBookings int             `json:"unmatched_bookings"`
}

// NewCreditSummary builds the summary for month from the resolved package
// (nil when the user has none) and the class types booked that month.
func NewCreditSummary(month string, up *UserPackage, bookedTypes []string) *CreditSummary {
	s := &CreditSummary{Month: month, Balances: []CreditBalance{}}
	if up == nil {
		return s
	}

	s.HasPackage = true
	s.PackageID = up.PackageID
	if up.Package != nil {
		s.PackageName = up.Package.Name
	}
	from, until := up.ValidFrom, up.ValidUntil
	s.ValidFrom, s.ValidUntil = &from, &until
	s.Balances, s.UnmatchedBookings = ComputeCredits(up.Items(), bookedTypes)
	return s
}

// EntitlementFor returns the balance of the first item matching classType, or nil
func (s *CreditSummary) EntitlementFor(classType string) *CreditBalance {
	for i := range s.Balances {
		if MatchesClassType(s.Balances[i].ClassType, classType) {
			return &s.Balances[i]
		}
	}
	return nil
}

// Check returns nil when one more booking of classType is covered
func (s *CreditSummary) Check(classType string) error {
	if !s.HasPackage {
		return ErrNoActivePackage
	}
	ent := s.EntitlementFor(classType)
	if ent == nil {
		return ErrClassTypeNotCovered
	}
	if ent.Remaining <= 0 {
		return ErrNoCreditsRemaining
	}
	return nil
}

// ClassTypesWithCredits returns the item class types that still have credits left
func (s *CreditSummary) ClassTypesWithCredits() []string {
	var types []string
	for _, b := range s.Balances {
		if b.Remaining > 0 {
			types = append(types, b.ClassType)
		}
	}
	return types
}
