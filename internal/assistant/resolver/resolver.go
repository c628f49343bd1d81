// internal/assistant/resolver/resolver.go
package resolver

import "resource-scheduling/internal/models"

// MemoryView is the part of the session memory the resolver reads.
type MemoryView interface {
	LastFilters() (models.FilterSet, bool)
	HasLastResult() bool
}

type Resolution struct {
	Kind    models.Resolution `json:"kind"`
	Filters models.FilterSet  `json:"filters"`
	// Substituted is set when the filters came from the previous query turn.
	Substituted bool `json:"substituted,omitempty"`
}

// Resolve decides which filters a turn runs with. An empty follow-up takes
// the previous turn's filters wholesale; nothing is merged.
func Resolve(extracted models.FilterSet, isFollowUp bool, mem MemoryView) Resolution {
	filters := extracted.Clone()
	substituted := false

	if filters.IsEmpty() && isFollowUp {
		if previous, ok := mem.LastFilters(); ok {
			filters = previous
			substituted = true
		}
	}

	switch {
	case !filters.IsEmpty():
		return Resolution{Kind: models.ResolutionFiltered, Filters: filters, Substituted: substituted}
	case mem.HasLastResult():
		return Resolution{Kind: models.ResolutionCached}
	default:
		return Resolution{Kind: models.ResolutionRecent}
	}
}
