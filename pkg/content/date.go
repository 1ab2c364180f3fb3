package content

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrMissingDate is returned when a document has no usable date stamp. A conference
// cannot be titled or slugged without it.
var ErrMissingDate = errors.New("missing or unparsable date stamp")

var datePattern = regexp.MustCompile(`(\d{1,2})\.\s*(\d{1,2}|[a-zä]+)\.?\s*(\d{4})`)

var germanMonths = map[string]time.Month{
	"januar":    time.January,
	"februar":   time.February,
	"märz":      time.March,
	"maerz":     time.March,
	"april":     time.April,
	"mai":       time.May,
	"juni":      time.June,
	"juli":      time.July,
	"august":    time.August,
	"september": time.September,
	"oktober":   time.October,
	"november":  time.November,
	"dezember":  time.December,
}

// ParseDate reads a German date such as "12.3.2024", "12. 03. 2024" or "12. März 2024"
// and returns midnight of that day in loc. A nil loc means UTC.
func ParseDate(text string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}

	lower := strings.ToLower(strings.TrimSpace(text))
	m := datePattern.FindStringSubmatch(lower)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: could not parse date from %q", ErrMissingDate, text)
	}

	day, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[3])

	var month time.Month
	if n, err := strconv.Atoi(m[2]); err == nil {
		month = time.Month(n)
	} else {
		known, ok := germanMonths[m[2]]
		if !ok {
			return time.Time{}, fmt.Errorf("%w: unknown month %q in %q", ErrMissingDate, m[2], text)
		}
		month = known
	}

	date := time.Date(year, month, day, 0, 0, 0, 0, loc)
	// time.Date normalizes overflowing values, so a round trip detects 31.02. and friends.
	if date.Day() != day || date.Month() != month || date.Year() != year {
		return time.Time{}, fmt.Errorf("%w: invalid calendar date in %q", ErrMissingDate, text)
	}
	return date, nil
}
