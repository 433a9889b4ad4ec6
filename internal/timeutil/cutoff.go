package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseCutoff interprets a time-window argument. The argument is either
// a date formatted M/d/yyyy, or a duration before now written as a
// number with a unit suffix: "min" (minutes), "h" (hours), "d" (days),
// "w" (weeks), "m" (months), "y" (years). An empty argument means no
// cutoff and returns the zero time.
//
// Malformed arguments (wrong component count, non-numeric values,
// unknown units) are rejected here, before any network or file
// activity begins.
func ParseCutoff(arg string, now time.Time) (time.Time, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return time.Time{}, nil
	}

	parts := strings.Split(arg, "/")
	switch len(parts) {
	case 1:
		return parseDuration(arg, now)
	case 3:
		month, errM := strconv.Atoi(parts[0])
		day, errD := strconv.Atoi(parts[1])
		year, errY := strconv.Atoi(parts[2])
		if errM != nil || errD != nil || errY != nil {
			return time.Time{}, fmt.Errorf("invalid date %q: expected M/d/yyyy", arg)
		}
		if month < 1 || month > 12 || day < 1 || day > lastDayOfMonth(month, year) {
			return time.Time{}, fmt.Errorf("invalid date %q: no such calendar day", arg)
		}
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location()), nil
	default:
		return time.Time{}, fmt.Errorf("invalid cutoff %q: expected a date (M/d/yyyy) or a duration (e.g. 2w)", arg)
	}
}

func parseDuration(arg string, now time.Time) (time.Time, error) {
	unit := arg[len(arg)-1:]
	number := arg[:len(arg)-1]
	if strings.HasSuffix(arg, "min") {
		unit = "min"
		number = arg[:len(arg)-3]
	}

	n, err := strconv.Atoi(number)
	if err != nil || n < 0 {
		return time.Time{}, fmt.Errorf("invalid duration %q: expected a number followed by min, h, d, w, m or y", arg)
	}

	switch unit {
	case "min":
		return now.Add(-time.Duration(n) * time.Minute), nil
	case "h":
		return now.Add(-time.Duration(n) * time.Hour), nil
	case "d":
		return now.AddDate(0, 0, -n), nil
	case "w":
		return now.AddDate(0, 0, -7*n), nil
	case "m":
		return now.AddDate(0, -n, 0), nil
	case "y":
		return now.AddDate(-n, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("invalid duration unit %q: expected min, h, d, w, m or y", unit)
	}
}
