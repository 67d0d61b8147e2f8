// Package filter narrows the complaint collection for list views.
//
// Every predicate is a pure function of one record and the Config, and a
// record is kept only when all active predicates accept it, so the order in
// which predicates run never changes the result.
package filter

import (
	"slices"
	"strings"

	"servicedesk/internal/complaint"
	"servicedesk/internal/dates"
)

// DateRange bounds registration dates. Both ends are canonical date strings
// and inclusive. The range is active only when both ends are set.
type DateRange struct {
	Start string
	End   string
	Label string
}

// Active reports whether the range restricts anything.
func (r DateRange) Active() bool {
	return r.Start != "" && r.End != ""
}

// Config is the filter state of a list view.
//
// Empty Statuses or Assignees mean "any", not "none".
type Config struct {
	Search    string
	Statuses  []complaint.Status
	Assignees []complaint.Assignee
	Range     DateRange
}

// Apply returns the records accepted by cfg, in their original order.
func Apply(norm *dates.Normalizer, records []complaint.Record, cfg Config) []complaint.Record {
	m := newMatcher(norm, cfg)

	out := make([]complaint.Record, 0, len(records))
	for _, r := range records {
		if m.match(r) {
			out = append(out, r)
		}
	}
	return out
}

// matcher holds the per-call parsed form of a Config.
type matcher struct {
	norm      *dates.Normalizer
	search    string
	statuses  []complaint.Status
	assignees []complaint.Assignee

	ranged     bool
	start, end int64
}

func newMatcher(norm *dates.Normalizer, cfg Config) matcher {
	m := matcher{
		norm:      norm,
		search:    strings.ToLower(strings.TrimSpace(cfg.Search)),
		statuses:  cfg.Statuses,
		assignees: cfg.Assignees,
	}

	// Bounds that do not parse leave the range inactive rather than
	// emptying the view.
	if cfg.Range.Active() {
		start, okStart := norm.ParseCanonical(cfg.Range.Start)
		end, okEnd := norm.ParseCanonical(cfg.Range.End)
		if okStart && okEnd {
			m.ranged = true
			m.start = start.Unix()
			m.end = end.Unix()
		}
	}
	return m
}

func (m matcher) match(r complaint.Record) bool {
	return m.matchSearch(r) && m.matchStatus(r) && m.matchAssignee(r) && m.matchRange(r)
}

func (m matcher) matchSearch(r complaint.Record) bool {
	if m.search == "" {
		return true
	}
	for _, field := range []string{r.CustomerName, r.ComplaintNo, r.PhoneNo, r.Model} {
		if strings.Contains(strings.ToLower(field), m.search) {
			return true
		}
	}
	return false
}

func (m matcher) matchStatus(r complaint.Record) bool {
	return len(m.statuses) == 0 || slices.Contains(m.statuses, r.Status)
}

func (m matcher) matchAssignee(r complaint.Record) bool {
	if len(m.assignees) == 0 {
		return true
	}
	a := r.Assignee
	if a == "" {
		a = complaint.Unassigned
	}
	return slices.Contains(m.assignees, a)
}

// matchRange compares start-of-day instants, so a record dated exactly on
// either bound is inside. A record whose date does not parse is outside.
func (m matcher) matchRange(r complaint.Record) bool {
	if !m.ranged {
		return true
	}
	reg, ok := m.norm.ParseCanonical(r.RegistrationDate)
	if !ok {
		return false
	}
	day := reg.Unix()
	return day >= m.start && day <= m.end
}

// Paginate returns page (1-based) of list with pageSize entries per page.
// Pages outside the list, and non-positive sizes, give an empty slice.
func Paginate(list []complaint.Record, pageSize, page int) []complaint.Record {
	if pageSize <= 0 || page <= 0 {
		return []complaint.Record{}
	}

	start := (page - 1) * pageSize
	if start >= len(list) {
		return []complaint.Record{}
	}
	end := min(start+pageSize, len(list))
	return list[start:end]
}

// PageCount returns how many pages of pageSize hold count entries.
func PageCount(count, pageSize int) int {
	if count <= 0 || pageSize <= 0 {
		return 0
	}
	return (count + pageSize - 1) / pageSize
}

// ClampPage keeps page within 1..PageCount (1 when there are no pages).
func ClampPage(page, count, pageSize int) int {
	last := PageCount(count, pageSize)
	if last == 0 || page < 1 {
		return 1
	}
	if page > last {
		return last
	}
	return page
}
