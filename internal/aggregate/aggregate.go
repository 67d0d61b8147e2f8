// Package aggregate builds the grouped summaries shown on the dashboards:
// per-technician groups, today's activity board and the headline counters.
//
// Everything here works on an already-filtered slice and never mutates it.
package aggregate

import (
	"cmp"
	"slices"
	"strings"

	"servicedesk/internal/complaint"
	"servicedesk/internal/dates"
)

// Group is one assignee and the records assigned to them, in input order.
type Group struct {
	Assignee complaint.Assignee
	Records  []complaint.Record
}

// GroupByAssignee buckets records by assignee.
//
// An empty assignee goes into the Unassigned group. Groups are ordered by
// size, largest first; groups of equal size keep the order in which their
// first record appeared.
func GroupByAssignee(records []complaint.Record) []Group {
	var groups []Group
	index := make(map[complaint.Assignee]int)

	for _, r := range records {
		a := r.Assignee
		if a == "" {
			a = complaint.Unassigned
		}
		i, ok := index[a]
		if !ok {
			i = len(groups)
			index[a] = i
			groups = append(groups, Group{Assignee: a})
		}
		groups[i].Records = append(groups[i].Records, r)
	}

	slices.SortStableFunc(groups, func(a, b Group) int {
		return cmp.Compare(len(b.Records), len(a.Records))
	})
	return groups
}

// Summary holds the headline dashboard counters.
type Summary struct {
	Total     int
	Completed int
	Pending   int
	Revenue   int
}

// Summarize counts records by outcome and sums their charges.
// Completed covers COMPLETED and VERIFIED; Pending is PENDING only.
func Summarize(records []complaint.Record) Summary {
	var s Summary
	for _, r := range records {
		s.Total++
		switch {
		case r.Status.Done():
			s.Completed++
		case r.Status == complaint.StatusPending:
			s.Pending++
		}
		s.Revenue += r.TotalCharges()
	}
	return s
}

// CompletionRate is Completed/Total in [0,1], with 0/0 defined as 0.
func (s Summary) CompletionRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.Total)
}

// CompletionPercent is the rounded completion rate as a whole percentage.
func (s Summary) CompletionPercent() int {
	return int(s.CompletionRate()*100 + 0.5)
}

// ProductCount is one row of the product leaderboard.
type ProductCount struct {
	Product string
	Count   int
}

// TopProducts returns the n most frequent products, most frequent first.
// Records without a product are not counted. Ties keep first-seen order.
func TopProducts(records []complaint.Record, n int) []ProductCount {
	var counts []ProductCount
	index := make(map[string]int)

	for _, r := range records {
		if r.Product == "" {
			continue
		}
		i, ok := index[r.Product]
		if !ok {
			i = len(counts)
			index[r.Product] = i
			counts = append(counts, ProductCount{Product: r.Product})
		}
		counts[i].Count++
	}

	slices.SortStableFunc(counts, func(a, b ProductCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	if n >= 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

// ActionLabel is the activity-board wording for a status.
func ActionLabel(s complaint.Status) string {
	switch s {
	case complaint.StatusCompleted:
		return "WORK DONE"
	case complaint.StatusVerified:
		return "AUDIT VERIFIED"
	case complaint.StatusTemporaryClosed:
		return "SITE VISITED (HOLD)"
	case complaint.StatusPending:
		return "READY TO ATTEND"
	case complaint.StatusOnRoute:
		return "TRAVELLING"
	}
	return strings.ReplaceAll(string(s), "_", " ")
}

// TimeOnly returns the HH:MM part of a canonical date-time, or "--:--".
func TimeOnly(canonical string) string {
	_, clock, ok := strings.Cut(canonical, " ")
	if !ok || clock == "" {
		return "--:--"
	}
	return clock
}

// View evaluates time-relative aggregations against a normalizer's clock.
type View struct {
	norm *dates.Normalizer
}

// NewView creates a View anchored on norm.
func NewView(norm *dates.Normalizer) *View {
	return &View{norm: norm}
}

// IsToday reports whether the record's last activity falls on today.
//
// The update date wins when set, otherwise the registration date is used.
// Only the date portion is compared with Now(false).
func (v *View) IsToday(r complaint.Record) bool {
	return dates.SameDay(r.LastActivity(), v.norm.Now(false))
}

// Activity is today's activity board.
type Activity struct {
	DateLabel       string
	ActivePersonnel int
	Groups          []Group
	Total           int
}

// TodayActivity selects the records touched today and groups them by
// assignee. ActivePersonnel counts the groups, the unassigned one included.
func (v *View) TodayActivity(records []complaint.Record) Activity {
	var today []complaint.Record
	for _, r := range records {
		if v.IsToday(r) {
			today = append(today, r)
		}
	}

	groups := GroupByAssignee(today)
	return Activity{
		DateLabel:       strings.ToUpper(v.norm.Clock().Format("2 January 2006")),
		ActivePersonnel: len(groups),
		Groups:          groups,
		Total:           len(today),
	}
}
