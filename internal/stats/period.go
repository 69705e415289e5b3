package stats

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Period names accepted by PeriodRange.
const (
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodAll   = "all"
)

// ErrUnknownPeriod is returned by PeriodRange for unrecognized names.
var ErrUnknownPeriod = errors.New("unknown period")

// TimeRange represents a start and end time period. End is exclusive.
// A zero Start or End leaves that side unbounded.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range.
func (tr TimeRange) Contains(t time.Time) bool {
	if !tr.Start.IsZero() && t.Before(tr.Start) {
		return false
	}
	if !tr.End.IsZero() && !t.Before(tr.End) {
		return false
	}
	return true
}

// IsUnbounded reports whether neither side is set.
func (tr TimeRange) IsUnbounded() bool {
	return tr.Start.IsZero() && tr.End.IsZero()
}

// FormatPeriod returns a human-readable description of the time period.
func (tr TimeRange) FormatPeriod() string {
	if tr.IsUnbounded() {
		return "all time"
	}
	start := tr.Start.Format("2006-01-02")
	end := tr.End.AddDate(0, 0, -1).Format("2006-01-02") // End is exclusive
	return fmt.Sprintf("%s to %s", start, end)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayRange returns the calendar day containing referenceTime.
func DayRange(referenceTime time.Time) TimeRange {
	start := startOfDay(referenceTime)
	return TimeRange{Start: start, End: start.AddDate(0, 0, 1)}
}

// WeekRangeFrom calculates the start and end of a week with an offset from a reference time.
// offset = 0 means the week containing referenceTime, -1 means previous week, etc.
// The week starts on Monday and ends on Sunday.
func WeekRangeFrom(referenceTime time.Time, offset int) TimeRange {
	weekday := int(referenceTime.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday is 7 (ISO 8601)
	}
	weekStart := startOfDay(referenceTime).AddDate(0, 0, -weekday+1+offset*7)
	return TimeRange{Start: weekStart, End: weekStart.AddDate(0, 0, 7)}
}

// MonthRangeFrom calculates the start and end of a month with an offset from a reference time.
func MonthRangeFrom(referenceTime time.Time, offset int) TimeRange {
	monthStart := time.Date(referenceTime.Year(), referenceTime.Month(), 1, 0, 0, 0, 0, referenceTime.Location())
	monthStart = monthStart.AddDate(0, offset, 0)
	return TimeRange{Start: monthStart, End: monthStart.AddDate(0, 1, 0)}
}

// PeriodRange resolves a named period relative to now. An empty name means all.
func PeriodRange(period string, now time.Time) (TimeRange, error) {
	switch strings.ToLower(strings.TrimSpace(period)) {
	case PeriodToday:
		return DayRange(now), nil
	case PeriodWeek:
		return WeekRangeFrom(now, 0), nil
	case PeriodMonth:
		return MonthRangeFrom(now, 0), nil
	case PeriodAll, "":
		return TimeRange{}, nil
	default:
		return TimeRange{}, fmt.Errorf("%w %q", ErrUnknownPeriod, period)
	}
}
