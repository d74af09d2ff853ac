package event

import "time"

// Frequency is the cadence of a recurring event series.
type Frequency string

const (
	FrequencyDaily        Frequency = "DAILY"
	FrequencyWeekly       Frequency = "WEEKLY"
	FrequencyMonthly      Frequency = "MONTHLY"
	FrequencyAnnually     Frequency = "ANNUALLY"
	FrequencyEveryWeekday Frequency = "EVERY_WEEKDAY"
)

// Recurrence describes how a recurring series repeats and when it ends.
// EndDate is the end of the whole series, not of a single occurrence.
type Recurrence struct {
	Frequency Frequency
	EndDate   time.Time
}

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyAnnually, FrequencyEveryWeekday:
		return true
	}
	return false
}

// NextDate returns the next occurrence start after date for this cadence.
// Month and year steps clamp to the last day of the target month, so
// Jan 31 + MONTHLY is Feb 28 (29 in leap years), never Mar 3.
// EVERY_WEEKDAY repeats the one-day step over Saturday and Sunday.
func (f Frequency) NextDate(date time.Time) time.Time {
	switch f {
	case FrequencyWeekly:
		return date.AddDate(0, 0, 7)
	case FrequencyMonthly:
		return addMonths(date, 1)
	case FrequencyAnnually:
		return addMonths(date, 12)
	case FrequencyEveryWeekday:
		next := date.AddDate(0, 0, 1)
		for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
			next = next.AddDate(0, 0, 1)
		}
		return next
	default:
		return date.AddDate(0, 0, 1)
	}
}

func addMonths(date time.Time, months int) time.Time {
	year, month, day := date.Date()
	// Step from the first of the month to keep AddDate from normalizing
	// a too-large day into the next month, then clamp the day.
	target := time.Date(year, month, 1, 0, 0, 0, 0, date.Location()).AddDate(0, months, 0)
	if last := daysInMonth(target.Year(), target.Month()); day > last {
		day = last
	}
	hour, minute, second := date.Clock()
	return time.Date(target.Year(), target.Month(), day, hour, minute, second, date.Nanosecond(), date.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
