// internal/models/query_types.go
package models

type QueryType string

const (
	QueryTypeFindBusiest  QueryType = "find_busiest"
	QueryTypeLoadAnalysis QueryType = "load_analysis"
	QueryTypeAvailability QueryType = "availability"
	QueryTypeUpcoming     QueryType = "upcoming"
	QueryTypeComparison   QueryType = "comparison"
	QueryTypeCount        QueryType = "count"
	QueryTypeGeneral      QueryType = "general"
)

// IsAggregate reports whether the query type answers across all persons.
func (q QueryType) IsAggregate() bool {
	return q == QueryTypeFindBusiest
}

type DateRange string

const (
	DateRangeThisWeek  DateRange = "this_week"
	DateRangeNextWeek  DateRange = "next_week"
	DateRangeThisMonth DateRange = "this_month"
)

// Resolution tells the orchestrator where a turn's evidence comes from.
type Resolution string

const (
	ResolutionFiltered Resolution = "filtered"
	ResolutionCached   Resolution = "cached"
	ResolutionRecent   Resolution = "recent"
)
