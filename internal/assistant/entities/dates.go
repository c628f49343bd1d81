// internal/assistant/entities/dates.go
package entities

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"resource-scheduling/internal/models"
)

const isoLayout = "2006-01-02"

var weekdayNames = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

var (
	isoDatePattern      = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)
	numericDatePattern  = regexp.MustCompile(`(?:^|[^\d-])(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})(?:$|[^\d-])`)
	nextWeekdayPattern  = regexp.MustCompile(`next\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)`)
	lastWeekdayPattern  = regexp.MustCompile(`last\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)`)
	bareWeekdayPatterns = compileWeekdayPatterns()
)

type dateRangeRule struct {
	dateRange models.DateRange
	pattern   *regexp.Regexp
}

var dateRangeRules = []dateRangeRule{
	{models.DateRangeNextWeek, regexp.MustCompile(`\bnext week\b`)},
	{models.DateRangeThisWeek, regexp.MustCompile(`\b(this week|week)\b`)},
	{models.DateRangeThisMonth, regexp.MustCompile(`\b(this month|month)\b`)},
}

// DateInfo is the date part of a filter set. At most one field is set.
type DateInfo struct {
	DateISO   string
	Weekday   string
	DateRange models.DateRange
}

type dateMatch struct {
	iso     string
	weekday string
}

// dateRule inspects the raw and lower-cased utterance relative to today.
type dateRule struct {
	name    string
	extract func(raw, lower string, today time.Time) (dateMatch, bool)
}

// Evaluated top to bottom, first success wins.
var dateRules = []dateRule{
	{"iso_literal", isoLiteral},
	{"day_first_numeric", dayFirstNumeric},
	{"relative_day", relativeDay},
	{"next_weekday", nextWeekday},
	{"last_weekday", lastWeekday},
	{"bare_weekday", bareWeekday},
}

// ExtractDate finds an explicit or relative date, a weekday, or a named
// date range in the utterance.
func (e *Extractor) ExtractDate(utterance string) DateInfo {
	lower := strings.ToLower(utterance)
	today := truncateToDay(e.now())

	for _, rule := range dateRules {
		if m, ok := rule.extract(utterance, lower, today); ok {
			return DateInfo{DateISO: m.iso, Weekday: m.weekday}
		}
	}

	for _, rule := range dateRangeRules {
		if rule.pattern.MatchString(lower) {
			return DateInfo{DateRange: rule.dateRange}
		}
	}
	return DateInfo{}
}

func isoLiteral(raw, _ string, _ time.Time) (dateMatch, bool) {
	m := isoDatePattern.FindString(raw)
	if m == "" {
		return dateMatch{}, false
	}
	if _, err := time.Parse(isoLayout, m); err != nil {
		return dateMatch{}, false
	}
	return dateMatch{iso: m}, true
}

func dayFirstNumeric(raw, _ string, today time.Time) (dateMatch, bool) {
	// bounded so a rejected ISO literal is not re-read piecewise
	m := numericDatePattern.FindStringSubmatch(raw)
	if m == nil {
		return dateMatch{}, false
	}
	d, err := parseDayFirst(m[1], today.Location())
	if err != nil {
		return dateMatch{}, false
	}
	return dateMatch{iso: d.Format(isoLayout)}, true
}

func relativeDay(_, lower string, today time.Time) (dateMatch, bool) {
	switch {
	case strings.Contains(lower, "today"):
		return dateMatch{iso: today.Format(isoLayout)}, true
	case strings.Contains(lower, "tomorrow"):
		return dateMatch{iso: today.AddDate(0, 0, 1).Format(isoLayout)}, true
	case strings.Contains(lower, "yesterday"):
		return dateMatch{iso: today.AddDate(0, 0, -1).Format(isoLayout)}, true
	}
	return dateMatch{}, false
}

func nextWeekday(_, lower string, today time.Time) (dateMatch, bool) {
	m := nextWeekdayPattern.FindStringSubmatch(lower)
	if m == nil {
		return dateMatch{}, false
	}
	ahead := mod7(weekdayIndex(m[1]) - mondayIndex(today))
	if ahead == 0 {
		ahead = 7
	}
	return dateMatch{iso: today.AddDate(0, 0, ahead).Format(isoLayout)}, true
}

func lastWeekday(_, lower string, today time.Time) (dateMatch, bool) {
	m := lastWeekdayPattern.FindStringSubmatch(lower)
	if m == nil {
		return dateMatch{}, false
	}
	back := mod7(mondayIndex(today) - weekdayIndex(m[1]))
	if back == 0 {
		back = 7
	}
	return dateMatch{iso: today.AddDate(0, 0, -back).Format(isoLayout)}, true
}

func bareWeekday(_, lower string, _ time.Time) (dateMatch, bool) {
	for i, pattern := range bareWeekdayPatterns {
		if pattern.MatchString(lower) {
			name := weekdayNames[i]
			return dateMatch{weekday: strings.ToUpper(name[:1]) + name[1:]}, true
		}
	}
	return dateMatch{}, false
}

// parseDayFirst reads d/m/y or d-m-y with a two or four digit year.
func parseDayFirst(s string, loc *time.Location) (time.Time, error) {
	parts := strings.Split(strings.ReplaceAll(s, "-", "/"), "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("unexpected date shape %q", s)
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, err
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, err
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, err
	}

	switch len(parts[2]) {
	case 2:
		year += 2000
	case 4:
	default:
		return time.Time{}, fmt.Errorf("unsupported year %q", parts[2])
	}

	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

func compileWeekdayPatterns() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(weekdayNames))
	for i, w := range weekdayNames {
		out[i] = regexp.MustCompile(`\b` + w + `\b`)
	}
	return out
}

func weekdayIndex(name string) int {
	for i, w := range weekdayNames {
		if w == name {
			return i
		}
	}
	return -1
}

// mondayIndex numbers days Monday=0 .. Sunday=6.
func mondayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func mod7(n int) int {
	return ((n % 7) + 7) % 7
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
