package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"resource-scheduling/internal/models"
)

type fakeMemory struct {
	filters    *models.FilterSet
	lastResult bool
}

func (f fakeMemory) LastFilters() (models.FilterSet, bool) {
	if f.filters == nil {
		return models.FilterSet{}, false
	}
	return *f.filters, true
}

func (f fakeMemory) HasLastResult() bool {
	return f.lastResult
}

func float(v float64) *float64 {
	return &v
}

func TestResolve(t *testing.T) {
	previous := models.FilterSet{Name: "Alice", Weekday: "Monday", LoadThreshold: float(80)}

	tests := []struct {
		name           string
		extracted      models.FilterSet
		isFollowUp     bool
		mem            fakeMemory
		validateOutput func(t *testing.T, got Resolution)
	}{
		{
			name:      "explicit filters run as given",
			extracted: models.FilterSet{Name: "Bob"},
			mem:       fakeMemory{filters: &previous, lastResult: true},
			validateOutput: func(t *testing.T, got Resolution) {
				assert.Equal(t, models.ResolutionFiltered, got.Kind)
				assert.Equal(t, models.FilterSet{Name: "Bob"}, got.Filters)
				assert.False(t, got.Substituted)
			},
		},
		{
			name:       "explicit follow-up is not merged",
			extracted:  models.FilterSet{Name: "Bob"},
			isFollowUp: true,
			mem:        fakeMemory{filters: &previous},
			validateOutput: func(t *testing.T, got Resolution) {
				assert.Equal(t, models.FilterSet{Name: "Bob"}, got.Filters)
				assert.Empty(t, got.Filters.Weekday)
				assert.Nil(t, got.Filters.LoadThreshold)
			},
		},
		{
			name:       "empty follow-up substitutes previous filters",
			isFollowUp: true,
			mem:        fakeMemory{filters: &previous, lastResult: true},
			validateOutput: func(t *testing.T, got Resolution) {
				assert.Equal(t, models.ResolutionFiltered, got.Kind)
				assert.Equal(t, previous, got.Filters)
				assert.True(t, got.Substituted)
			},
		},
		{
			name: "empty non follow-up reuses cached result",
			mem:  fakeMemory{filters: &previous, lastResult: true},
			validateOutput: func(t *testing.T, got Resolution) {
				assert.Equal(t, models.ResolutionCached, got.Kind)
				assert.True(t, got.Filters.IsEmpty())
			},
		},
		{
			name:       "empty follow-up without history falls back to recent",
			isFollowUp: true,
			mem:        fakeMemory{},
			validateOutput: func(t *testing.T, got Resolution) {
				assert.Equal(t, models.ResolutionRecent, got.Kind)
			},
		},
		{
			name:      "aggregate alone is a filter",
			extracted: models.FilterSet{Aggregate: true},
			mem:       fakeMemory{lastResult: true},
			validateOutput: func(t *testing.T, got Resolution) {
				assert.Equal(t, models.ResolutionFiltered, got.Kind)
				assert.True(t, got.Filters.Aggregate)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.extracted, tt.isFollowUp, tt.mem)
			tt.validateOutput(t, got)
		})
	}
}
