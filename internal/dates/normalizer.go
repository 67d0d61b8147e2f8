// Package dates converts the date values that reach the complaint desk into
// one canonical string form and derives aging from it.
//
// Two tiers of parsing are provided:
//   - Normalize: loose, for ingesting data of unknown quality (imports,
//     manual entry, old store revisions)
//   - ParseCanonical: strict, only for strings this package produced
//
// Canonical form:
//   - "DD-MM-YYYY"
//   - "DD-MM-YYYY HH:MM" (24-hour, zero padded)
//
// Nothing in this package returns an error. An input that cannot be turned
// into a date comes back unchanged (Normalize) or as ok=false (ParseCanonical).
package dates

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout is the canonical date-only layout.
	DateLayout = "02-01-2006"

	// DateTimeLayout is the canonical layout with time of day.
	DateTimeLayout = "02-01-2006 15:04"

	// Spreadsheet serials are only trusted inside this open band.
	// Roughly 1982-02-17 .. 2064-04-08.
	minSerial = 30000
	maxSerial = 60000

	secondsPerDay = 86400
)

// serialEpoch is day zero of spreadsheet date serials.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

var (
	partSplitter = regexp.MustCompile(`[/\-.\s]`)
	timePattern  = regexp.MustCompile(`(\d{1,2}):(\d{1,2})`)
)

// freeFormLayouts are tried in order when the date token does not split into
// exactly three parts.
var freeFormLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"20060102",
	"2 Jan 2006",
	"2 January 2006",
	"2 Jan 2006 15:04",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"Mon Jan 2 2006",
	"Mon Jan 2 15:04:05 2006",
	"Mon, 02 Jan 2006 15:04:05 MST",
}

// Normalizer turns heterogeneous date input into canonical strings.
//
// All "today" comparisons in the desk go through Now so the stored dates and
// the current-moment anchor always share the same format and time zone.
type Normalizer struct {
	loc *time.Location
	now func() time.Time
}

// New creates a Normalizer.
//
// Parameters:
//   - loc: Time zone dates are expressed in (nil means time.Local)
//   - now: Clock used by Now and Aging (nil means time.Now)
func New(loc *time.Location, now func() time.Time) *Normalizer {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Normalizer{loc: loc, now: now}
}

// Location returns the zone canonical dates are interpreted in.
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// Clock returns the current moment in the normalizer's zone.
func (n *Normalizer) Clock() time.Time {
	return n.now().In(n.loc)
}

// Normalize converts input into a canonical date string.
//
// Accepted input:
//   - nil or "" → ""
//   - time.Time → formatted directly
//   - numbers (and strings that are entirely a number) inside the serial band
//     → spreadsheet serial with fractional time of day
//   - anything else → stringified and parsed as text
//
// Text rules:
//   - the date token is the text before the first whitespace gap
//   - it must split on / - . or whitespace into exactly three parts
//   - with "/" the order is month/day/year, otherwise day-month-year
//   - a two-digit year is in the 2000s
//   - "H:MM" anywhere in the text sets the time; "am"/"pm" anywhere adjusts it
//
// When no date can be built, the stringified input is returned verbatim.
func (n *Normalizer) Normalize(input any, includeTime bool) string {
	switch v := input.(type) {
	case nil:
		return ""
	case time.Time:
		return n.format(v.In(n.loc), includeTime)
	case *time.Time:
		if v == nil {
			return ""
		}
		return n.format(v.In(n.loc), includeTime)
	}

	raw := stringify(input)
	if raw == "" {
		return ""
	}

	if f, ok := numericValue(input); ok && f > minSerial && f < maxSerial {
		return n.format(n.fromSerial(f), includeTime)
	}

	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	t, ok := n.parseText(s)
	if !ok {
		return raw
	}
	return n.format(t, includeTime)
}

// Now returns the current moment in canonical form.
func (n *Normalizer) Now(includeTime bool) string {
	return n.Normalize(n.Clock(), includeTime)
}

// Today returns the canonical date-only string for the current day.
func (n *Normalizer) Today() string {
	return n.Now(false)
}

// ParseCanonical parses a canonical "DD-MM-YYYY[ HH:MM]" string back into the
// start of that day. Only the part before the first space is read.
//
// Returns ok=false when the date part is not exactly three numeric
// "-"-separated segments or does not name a real calendar day. It must not be
// used on raw input; run Normalize first.
func (n *Normalizer) ParseCanonical(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	datePart, _, _ := strings.Cut(s, " ")
	parts := strings.Split(datePart, "-")
	if len(parts) != 3 {
		return time.Time{}, false
	}

	d, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	y, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}

	return n.buildDate(y, m, d)
}

// Aging returns whole days elapsed since the canonical registration date.
// Unparseable or empty dates, and dates in the future, give 0.
func (n *Normalizer) Aging(canonicalRegistrationDate string) int {
	reg, ok := n.ParseCanonical(canonicalRegistrationDate)
	if !ok {
		return 0
	}

	days := math.Floor(n.Clock().Sub(reg).Hours() / 24)
	if days < 0 {
		return 0
	}
	return int(days)
}

// DatePart strips the time suffix from a canonical string.
func DatePart(canonical string) string {
	d, _, _ := strings.Cut(canonical, " ")
	return d
}

// SameDay reports whether two canonical strings name the same day.
// Empty strings never match.
func SameDay(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return DatePart(a) == DatePart(b)
}

func (n *Normalizer) format(t time.Time, includeTime bool) string {
	if includeTime {
		return t.Format(DateTimeLayout)
	}
	return t.Format(DateLayout)
}

// fromSerial converts a spreadsheet serial into a wall-clock time.
// The integer part picks the calendar day, the fraction the time of day.
func (n *Normalizer) fromSerial(serial float64) time.Time {
	days := math.Floor(serial)
	day := serialEpoch.AddDate(0, 0, int(days))

	totalSeconds := int(math.Round((serial - days) * secondsPerDay))
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60

	return time.Date(day.Year(), day.Month(), day.Day(), hours, minutes, 0, 0, n.loc)
}

func (n *Normalizer) parseText(s string) (time.Time, bool) {
	datePart := strings.Fields(s)[0]

	var parts []string
	for _, p := range partSplitter.Split(datePart, -1) {
		if p != "" {
			parts = append(parts, p)
		}
	}

	if len(parts) != 3 {
		return n.parseFreeForm(s)
	}

	p1, ok1 := leadingInt(parts[0])
	p2, ok2 := leadingInt(parts[1])
	p3, ok3 := leadingInt(parts[2])
	if !ok1 || !ok2 || !ok3 {
		return time.Time{}, false
	}

	// ISO order (YYYY-MM-DD) is recognised by a four-digit first part.
	// Neither upstream convention ever puts the year first.
	var y, m, d int
	switch {
	case len(parts[0]) == 4:
		y, m, d = p1, p2, p3
	case strings.Contains(datePart, "/"):
		m, d, y = p1, p2, p3
	default:
		d, m, y = p1, p2, p3
	}
	if len(parts[2]) == 2 && len(parts[0]) != 4 {
		y += 2000
	}

	t, ok := n.buildDate(y, m, d)
	if !ok {
		return time.Time{}, false
	}

	if match := timePattern.FindStringSubmatch(s); match != nil {
		hh, _ := strconv.Atoi(match[1])
		mm, _ := strconv.Atoi(match[2])

		lower := strings.ToLower(s)
		if strings.Contains(lower, "pm") && hh < 12 {
			hh += 12
		}
		if strings.Contains(lower, "am") && hh == 12 {
			hh = 0
		}

		if hh < 24 && mm < 60 {
			t = time.Date(y, time.Month(m), d, hh, mm, 0, 0, n.loc)
		}
	}

	return t, true
}

func (n *Normalizer) parseFreeForm(s string) (time.Time, bool) {
	for _, layout := range freeFormLayouts {
		if t, err := time.ParseInLocation(layout, s, n.loc); err == nil {
			return t.In(n.loc), true
		}
	}
	return time.Time{}, false
}

// buildDate rejects dates time.Date would silently roll over (31-02, 00-13)
// and years that do not fit the four-digit canonical shape.
func (n *Normalizer) buildDate(y, m, d int) (time.Time, bool) {
	if y < 1000 || y > 9999 || m < 1 || m > 12 || d < 1 {
		return time.Time{}, false
	}

	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, n.loc)
	if t.Day() != d || int(t.Month()) != m {
		return time.Time{}, false
	}
	return t, true
}

// leadingInt reads the leading run of digits, ignoring trailing text
// ("12th" → 12). A part with no leading digit is not a number.
func leadingInt(s string) (int, bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return v, true
}

func numericValue(input any) (float64, bool) {
	switch v := input.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func stringify(input any) string {
	switch v := input.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(input)
}
