package querybuilder

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resource-scheduling/internal/models"
)

// ==========================
// Test Helpers
// ==========================

// 2025-03-05 is a Wednesday.
var wednesday = time.Date(2025, time.March, 5, 10, 0, 0, 0, time.UTC)

func newTestBuilder() *Builder {
	return NewBuilder(func() time.Time { return wednesday })
}

func float(v float64) *float64 {
	return &v
}

// ==========================
// Build
// ==========================

func TestBuild_NameAndThreshold(t *testing.T) {
	spec, err := newTestBuilder().Build(models.FilterSet{Name: "Alice", LoadThreshold: float(80)}, DefaultLimit)
	require.NoError(t, err)

	assert.Equal(t, []Predicate{
		{Field: FieldFirstName, Operator: OpEqual, Param: ParamFirstName},
		{Field: FieldLoadPercentage, Operator: OpGreaterEqual, Param: ParamThreshold},
	}, spec.Predicates())
	assert.Equal(t, map[string]interface{}{
		ParamFirstName: "Alice",
		ParamThreshold: 80.0,
	}, spec.Params())
	assert.Equal(t, []OrderTerm{
		{Field: FieldDate, Direction: Asc},
		{Field: FieldStartTime, Direction: Asc},
	}, spec.OrderBy())
	assert.Equal(t, 200, spec.Limit())
	assert.NoError(t, spec.Validate())
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name           string
		filters        models.FilterSet
		validateOutput func(t *testing.T, spec QuerySpec)
	}{
		{
			name:    "exact date",
			filters: models.FilterSet{DateISO: "2025-03-01"},
			validateOutput: func(t *testing.T, spec QuerySpec) {
				require.Len(t, spec.Predicates(), 1)
				assert.Equal(t, FieldDate, spec.Predicates()[0].Field)
				v, ok := spec.Param(ParamDateISO)
				assert.True(t, ok)
				assert.Equal(t, "2025-03-01", v)
			},
		},
		{
			name:    "date wins over weekday and range",
			filters: models.FilterSet{DateISO: "2025-03-01", Weekday: "Monday", DateRange: models.DateRangeThisWeek},
			validateOutput: func(t *testing.T, spec QuerySpec) {
				require.Len(t, spec.Predicates(), 1)
				assert.Equal(t, ParamDateISO, spec.Predicates()[0].Param)
			},
		},
		{
			name:    "weekday wins over range",
			filters: models.FilterSet{Weekday: "Monday", DateRange: models.DateRangeThisWeek},
			validateOutput: func(t *testing.T, spec QuerySpec) {
				require.Len(t, spec.Predicates(), 1)
				assert.Equal(t, Predicate{Field: FieldWeekday, Operator: OpEqual, Param: ParamWeekday}, spec.Predicates()[0])
			},
		},
		{
			name:    "range becomes closed interval",
			filters: models.FilterSet{DateRange: models.DateRangeThisWeek},
			validateOutput: func(t *testing.T, spec QuerySpec) {
				assert.Equal(t, []Predicate{
					{Field: FieldDate, Operator: OpGreaterEqual, Param: ParamStartDate},
					{Field: FieldDate, Operator: OpLessEqual, Param: ParamEndDate},
				}, spec.Predicates())
				assert.Equal(t, "2025-03-03", spec.Params()[ParamStartDate])
				assert.Equal(t, "2025-03-09", spec.Params()[ParamEndDate])
			},
		},
		{
			name:    "aggregate drops name",
			filters: models.FilterSet{Name: "Alice", Aggregate: true, DateRange: models.DateRangeNextWeek},
			validateOutput: func(t *testing.T, spec QuerySpec) {
				for _, p := range spec.Predicates() {
					assert.NotEqual(t, FieldFirstName, p.Field)
				}
				_, ok := spec.Param(ParamFirstName)
				assert.False(t, ok)
			},
		},
		{
			name:    "utterance text stays in params",
			filters: models.FilterSet{Name: "Robert'); DROP TABLE meetings;--"},
			validateOutput: func(t *testing.T, spec QuerySpec) {
				assert.Equal(t, ParamFirstName, spec.Predicates()[0].Param)
				assert.Equal(t, "Robert'); DROP TABLE meetings;--", spec.Params()[ParamFirstName])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := newTestBuilder().Build(tt.filters, 0)
			require.NoError(t, err)
			assert.Equal(t, DefaultLimit, spec.Limit())
			tt.validateOutput(t, spec)
		})
	}
}

func TestBuild_UnknownRange(t *testing.T) {
	_, err := newTestBuilder().Build(models.FilterSet{DateRange: "next_year"}, DefaultLimit)
	assert.ErrorIs(t, err, ErrUnknownDateRange)
}

func TestRecent(t *testing.T) {
	spec := newTestBuilder().Recent(0)

	assert.Empty(t, spec.Predicates())
	assert.Empty(t, spec.Params())
	assert.Equal(t, []OrderTerm{{Field: FieldDate, Direction: Desc}}, spec.OrderBy())
	assert.Equal(t, FallbackLimit, spec.Limit())
}

func TestBuild_IsDeterministic(t *testing.T) {
	filters := models.FilterSet{Name: "Alice", Weekday: "Friday", LoadThreshold: float(50)}

	first, err := newTestBuilder().Build(filters, DefaultLimit)
	require.NoError(t, err)
	second, err := newTestBuilder().Build(filters, DefaultLimit)
	require.NoError(t, err)

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	assert.JSONEq(t, string(a), string(b))
}

// ==========================
// Date ranges
// ==========================

func TestRangeBounds(t *testing.T) {
	tests := []struct {
		name  string
		r     models.DateRange
		now   time.Time
		start string
		end   string
	}{
		{"this week from wednesday", models.DateRangeThisWeek, wednesday, "2025-03-03", "2025-03-09"},
		{"this week from sunday", models.DateRangeThisWeek, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), "2025-03-03", "2025-03-09"},
		{"next week from wednesday", models.DateRangeNextWeek, wednesday, "2025-03-10", "2025-03-16"},
		{"next week from monday", models.DateRangeNextWeek, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), "2025-03-10", "2025-03-16"},
		{"this month", models.DateRangeThisMonth, wednesday, "2025-03-01", "2025-03-31"},
		{"february leap year", models.DateRangeThisMonth, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), "2024-02-01", "2024-02-29"},
		{"december", models.DateRangeThisMonth, time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC), "2024-12-01", "2024-12-31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := RangeBounds(tt.r, tt.now)
			require.NoError(t, err)
			assert.Equal(t, tt.start, start.Format(dateLayout))
			assert.Equal(t, tt.end, end.Format(dateLayout))
		})
	}
}

// ==========================
// Wire format
// ==========================

func TestQuerySpec_JSONRoundTrip(t *testing.T) {
	spec, err := newTestBuilder().Build(models.FilterSet{Name: "Alice", DateRange: models.DateRangeThisMonth, LoadThreshold: float(70)}, 25)
	require.NoError(t, err)

	data, err := json.Marshal(spec)
	require.NoError(t, err)

	var decoded QuerySpec
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, spec.Predicates(), decoded.Predicates())
	assert.Equal(t, spec.Params(), decoded.Params())
	assert.Equal(t, spec.OrderBy(), decoded.OrderBy())
	assert.Equal(t, 25, decoded.Limit())
}

func TestQuerySpec_UnmarshalRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown field", `{"predicates":[{"field":"password","operator":"=","param":"p"}],"params":{"p":"x"},"limit":10}`},
		{"unknown operator", `{"predicates":[{"field":"date","operator":"LIKE","param":"p"}],"params":{"p":"x"},"limit":10}`},
		{"unbound param", `{"predicates":[{"field":"date","operator":"=","param":"p"}],"params":{},"limit":10}`},
		{"non scalar value", `{"predicates":[{"field":"date","operator":"=","param":"p"}],"params":{"p":["a"]},"limit":10}`},
		{"bad order field", `{"predicates":[],"params":{},"orderBy":[{"field":"1; DROP","direction":"ASC"}],"limit":10}`},
		{"zero limit", `{"predicates":[],"params":{},"limit":0}`},
		{"wrong shape", `{"predicates":"date = 1","limit":10}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var spec QuerySpec
			err := json.Unmarshal([]byte(tt.body), &spec)
			assert.ErrorIs(t, err, ErrInvalidQuerySpec)
		})
	}
}
