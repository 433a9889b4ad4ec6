package timeutil

import (
	"fmt"
	"time"
)

// MonthNames indexes English month names by month number minus one.
var MonthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// SegmentOf returns which ten-day segment of a month a day falls in:
// 1 for days 1-10, 2 for 11-20, 3 for 21 through the end of the month.
func SegmentOf(day int) int {
	if day < 11 {
		return 1
	}
	if day < 21 {
		return 2
	}
	return 3
}

// SegmentStart returns the first date of the month segment containing
// the given date.
func SegmentStart(month, day, year int) time.Time {
	start := 21
	if day < 11 {
		start = 1
	} else if day < 21 {
		start = 11
	}
	return time.Date(year, time.Month(month), start, 0, 0, 0, 0, time.UTC)
}

// SegmentEnd returns the last date of the month segment containing the
// given date. Segment 3 ends on the last day of the month: 30 for
// April, June, September and November, 28 or 29 for February depending
// on the leap rule, 31 otherwise.
func SegmentEnd(month, day, year int) time.Time {
	var end int
	switch {
	case day < 11:
		end = 10
	case day < 21:
		end = 20
	default:
		end = lastDayOfMonth(month, year)
	}
	return time.Date(year, time.Month(month), end, 0, 0, 0, 0, time.UTC)
}

func lastDayOfMonth(month, year int) int {
	switch month {
	case 4, 6, 9, 11:
		return 30
	case 2:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	default:
		return 31
	}
}

// IsLeapYear reports whether year has a February 29th.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// SegmentDays lists the day numbers from start's day through the end of
// its month segment, inclusive.
func SegmentDays(start time.Time) []int {
	end := SegmentEnd(int(start.Month()), start.Day(), start.Year())
	days := make([]int, 0, 11)
	for d := start.Day(); d <= end.Day(); d++ {
		days = append(days, d)
	}
	return days
}

// DaySuffix returns the ordinal suffix for a day of the month. The
// suffix follows the last digit, except 11, 12 and 13 which always take
// "th".
func DaySuffix(day int) string {
	switch day % 100 {
	case 11, 12, 13:
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}

// ShortDate formats a date as M/d/yyyy, the form used in page titles
// and the cover page.
func ShortDate(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", int(t.Month()), t.Day(), t.Year())
}

// TwelveHour formats a clock time as h:mm:ss AM/PM.
func TwelveHour(t time.Time) string {
	hour := t.Hour()
	meridiem := "AM"
	switch {
	case hour == 0:
		hour = 12
	case hour == 12:
		meridiem = "PM"
	case hour > 12:
		hour -= 12
		meridiem = "PM"
	}
	return fmt.Sprintf("%d:%02d:%02d %s", hour, t.Minute(), t.Second(), meridiem)
}
