// internal/assistant/querybuilder/builder.go
package querybuilder

import (
	"errors"
	"fmt"
	"time"

	"resource-scheduling/internal/models"
)

const (
	DefaultLimit  = 200
	FallbackLimit = 50

	ParamFirstName = "first_name"
	ParamDateISO   = "date_iso"
	ParamWeekday   = "weekday"
	ParamStartDate = "start_date"
	ParamEndDate   = "end_date"
	ParamThreshold = "threshold"

	dateLayout = "2006-01-02"
)

var ErrUnknownDateRange = errors.New("unknown date range")

// Builder turns resolved filters into query specs. Named date ranges are
// computed against the injected clock.
type Builder struct {
	now func() time.Time
}

func NewBuilder(now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{now: now}
}

// Build compiles a resolved filter set. Only keys present in the set become
// predicates; an explicit date wins over a weekday, which wins over a range.
func (b *Builder) Build(filters models.FilterSet, limit int) (QuerySpec, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	spec := QuerySpec{
		params: make(map[string]interface{}),
		orderBy: []OrderTerm{
			{Field: FieldDate, Direction: Asc},
			{Field: FieldStartTime, Direction: Asc},
		},
		limit: limit,
	}

	if filters.Name != "" && !filters.Aggregate {
		spec.bind(FieldFirstName, OpEqual, ParamFirstName, filters.Name)
	}

	switch {
	case filters.DateISO != "":
		spec.bind(FieldDate, OpEqual, ParamDateISO, filters.DateISO)
	case filters.Weekday != "":
		spec.bind(FieldWeekday, OpEqual, ParamWeekday, filters.Weekday)
	case filters.DateRange != "":
		start, end, err := RangeBounds(filters.DateRange, b.now())
		if err != nil {
			return QuerySpec{}, err
		}
		spec.bind(FieldDate, OpGreaterEqual, ParamStartDate, start.Format(dateLayout))
		spec.bind(FieldDate, OpLessEqual, ParamEndDate, end.Format(dateLayout))
	}

	if filters.LoadThreshold != nil {
		spec.bind(FieldLoadPercentage, OpGreaterEqual, ParamThreshold, *filters.LoadThreshold)
	}

	return spec, nil
}

// Recent is the unfiltered newest-first query used when a turn has nothing
// to filter on and no cached result.
func (b *Builder) Recent(limit int) QuerySpec {
	if limit <= 0 {
		limit = FallbackLimit
	}
	return QuerySpec{
		params: map[string]interface{}{},
		orderBy: []OrderTerm{
			{Field: FieldDate, Direction: Desc},
		},
		limit: limit,
	}
}

func (q *QuerySpec) bind(field Field, op Operator, param string, value interface{}) {
	q.predicates = append(q.predicates, Predicate{Field: field, Operator: op, Param: param})
	q.params[param] = value
}

// RangeBounds returns the first and last day of a named range relative to
// now. Weeks run Monday to Sunday.
func RangeBounds(r models.DateRange, now time.Time) (time.Time, time.Time, error) {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	weekdayIdx := (int(today.Weekday()) + 6) % 7

	switch r {
	case models.DateRangeThisWeek:
		start := today.AddDate(0, 0, -weekdayIdx)
		return start, start.AddDate(0, 0, 6), nil
	case models.DateRangeNextWeek:
		start := today.AddDate(0, 0, 7-weekdayIdx)
		return start, start.AddDate(0, 0, 6), nil
	case models.DateRangeThisMonth:
		first := time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
		spill := first.AddDate(0, 0, 32)
		nextFirst := time.Date(spill.Year(), spill.Month(), 1, 0, 0, 0, 0, now.Location())
		return first, nextFirst.AddDate(0, 0, -1), nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrUnknownDateRange, r)
	}
}
