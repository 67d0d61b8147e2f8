package filter

import (
	"fmt"

	"servicedesk/internal/dates"
)

// Today covers the current day.
func Today(norm *dates.Normalizer) DateRange {
	d := norm.Today()
	return DateRange{Start: d, End: d, Label: "Today"}
}

// Yesterday covers the previous day.
func Yesterday(norm *dates.Normalizer) DateRange {
	d := norm.Normalize(norm.Clock().AddDate(0, 0, -1), false)
	return DateRange{Start: d, End: d, Label: "Yesterday"}
}

// LastDays covers the n days before today plus today itself.
func LastDays(norm *dates.Normalizer, n int) DateRange {
	now := norm.Clock()
	return DateRange{
		Start: norm.Normalize(now.AddDate(0, 0, -n), false),
		End:   norm.Normalize(now, false),
		Label: fmt.Sprintf("Last %d Days", n),
	}
}

// AllTime is the unrestricted range.
func AllTime() DateRange {
	return DateRange{}
}

// Preset resolves a preset name from the command line.
// Known names: today, yesterday, week, all.
func Preset(norm *dates.Normalizer, name string) (DateRange, bool) {
	switch name {
	case "today":
		return Today(norm), true
	case "yesterday":
		return Yesterday(norm), true
	case "week":
		return LastDays(norm, 7), true
	case "all", "":
		return AllTime(), true
	}
	return DateRange{}, false
}
