package entities

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/emetrics/populate/pkg/errors"
)

// Precision is how much of a date is known.
type Precision int

const (
	PrecisionUnknown Precision = iota // "UNK"
	PrecisionNone                     // "None": not applicable, e.g. still active
	PrecisionYear
	PrecisionMonth
	PrecisionDay
)

// String returns the precision name.
func (p Precision) String() string {
	switch p {
	case PrecisionNone:
		return "none"
	case PrecisionYear:
		return "year"
	case PrecisionMonth:
		return "month"
	case PrecisionDay:
		return "day"
	default:
		return "unknown"
	}
}

// PartialDate is a date with progressively coarser precision permitted.
type PartialDate struct {
	Precision Precision
	Year      int
	Month     time.Month
	Day       int
}

// Known reports whether the date carries at least a year.
func (d PartialDate) Known() bool {
	return d.Precision >= PrecisionYear
}

// Time returns the earliest instant the date can denote. Unknown and
// not-applicable dates return the zero time.
func (d PartialDate) Time() time.Time {
	if !d.Known() {
		return time.Time{}
	}
	month, day := time.January, 1
	if d.Precision >= PrecisionMonth {
		month = d.Month
	}
	if d.Precision == PrecisionDay {
		day = d.Day
	}
	return time.Date(d.Year, month, day, 0, 0, 0, 0, time.UTC)
}

// String renders the canonical YYYY-MMM-DD spelling at the date's precision.
func (d PartialDate) String() string {
	switch d.Precision {
	case PrecisionUnknown:
		return Unknown
	case PrecisionNone:
		return NotApplicable
	case PrecisionYear:
		return fmt.Sprintf("%04d", d.Year)
	case PrecisionMonth:
		return fmt.Sprintf("%04d-%s", d.Year, monthAbbr(d.Month))
	default:
		return fmt.Sprintf("%04d-%s-%02d", d.Year, monthAbbr(d.Month), d.Day)
	}
}

// ParseDate parses the date spellings the model contract allows:
// "UNK", "None", "2024", "2024-JUL", "2024 JUL 04", "2024-07-04".
func ParseDate(s string) (PartialDate, error) {
	value := strings.TrimSpace(s)
	switch strings.ToLower(value) {
	case "unk", "unknown", "":
		return PartialDate{Precision: PrecisionUnknown}, nil
	case "none", "n/a":
		return PartialDate{Precision: PrecisionNone}, nil
	}

	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == '-' || r == ' ' || r == '/' || r == ','
	})
	if len(parts) == 0 || len(parts) > 3 {
		return PartialDate{}, dateError(s, "expected year, year-month or year-month-day")
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) != 4 {
		return PartialDate{}, dateError(s, "year must be four digits")
	}
	date := PartialDate{Precision: PrecisionYear, Year: year}
	if len(parts) == 1 {
		return date, nil
	}

	month, ok := parseMonth(parts[1])
	if !ok {
		return PartialDate{}, dateError(s, "unrecognized month "+strconv.Quote(parts[1]))
	}
	date.Precision, date.Month = PrecisionMonth, month
	if len(parts) == 2 {
		return date, nil
	}

	day, err := strconv.Atoi(parts[2])
	if err != nil || day < 1 || len(parts[2]) > 2 {
		return PartialDate{}, dateError(s, "day must be one or two digits")
	}
	if t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC); t.Day() != day {
		return PartialDate{}, dateError(s, "day out of range for month")
	}
	date.Precision, date.Day = PrecisionDay, day
	return date, nil
}

func dateError(input, message string) error {
	return errors.NewParseError("date", "", fmt.Sprintf("%q: %s", input, message), nil)
}

func parseMonth(s string) (time.Month, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= 12 {
			return time.Month(n), true
		}
		return 0, false
	}
	if len(s) < 3 {
		return 0, false
	}
	prefix := strings.ToLower(s[:3])
	for m := time.January; m <= time.December; m++ {
		if strings.ToLower(m.String()[:3]) == prefix {
			return m, true
		}
	}
	return 0, false
}

func monthAbbr(m time.Month) string {
	return strings.ToUpper(m.String()[:3])
}
