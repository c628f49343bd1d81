// internal/assistant/intent/classifier.go
package intent

import (
	"regexp"
	"strings"

	"resource-scheduling/internal/models"
)

type chitchatRule struct {
	kind    models.ChitchatKind
	pattern *regexp.Regexp
}

type queryTypeRule struct {
	queryType models.QueryType
	pattern   *regexp.Regexp
}

// Evaluated top to bottom, first match wins.
var chitchatRules = []chitchatRule{
	{models.ChitchatGreeting, regexp.MustCompile(`^(hi|hello|hey|howdy)\b`)},
	{models.ChitchatThanks, regexp.MustCompile(`^(thanks|thank you|thx)`)},
	{models.ChitchatFarewell, regexp.MustCompile(`^(bye|goodbye|see you)`)},
	{models.ChitchatSmallTalk, regexp.MustCompile(`^(how are you|what's up)`)},
	{models.ChitchatAcknowledgement, regexp.MustCompile(`^(ok|okay|alright|cool|great|nice)`)},
}

var followUpMarkers = []*regexp.Regexp{
	regexp.MustCompile(`\b(what about|and for|how about)\b`),
	regexp.MustCompile(`\b(him|her|them|that|those|this|these)\b`),
	regexp.MustCompile(`\b(also|additionally|moreover)\b`),
	regexp.MustCompile(`^(and|but|so|then)\b`),
}

var queryTypeRules = []queryTypeRule{
	{models.QueryTypeFindBusiest, regexp.MustCompile(`\b(who|which person|whose)\b.*\b(busy|busiest|most|load|overload|stress|heavy|full)`)},
	{models.QueryTypeLoadAnalysis, regexp.MustCompile(`\b(busy|load|overload|stress|heavy|full)`)},
	{models.QueryTypeAvailability, regexp.MustCompile(`\b(free|available|open|gap|break)`)},
	{models.QueryTypeUpcoming, regexp.MustCompile(`\b(next|upcoming|future|schedule)`)},
	{models.QueryTypeComparison, regexp.MustCompile(`\b(compare|versus|vs|difference)`)},
	{models.QueryTypeCount, regexp.MustCompile(`\b(count|how many|number of)`)},
}

// Classify labels an utterance as chitchat or a data question.
func Classify(utterance string) models.Intent {
	text := strings.ToLower(strings.TrimSpace(utterance))

	for _, rule := range chitchatRules {
		if rule.pattern.MatchString(text) {
			return models.Intent{
				Kind:         models.IntentChitchat,
				Chitchat:     rule.kind,
				NeedsContext: false,
			}
		}
	}

	return models.Intent{
		Kind:         models.IntentQuery,
		QueryType:    classifyQueryType(text),
		IsFollowUp:   IsFollowUp(text),
		NeedsContext: true,
	}
}

// IsFollowUp reports whether lower-cased text leans on an earlier turn.
func IsFollowUp(text string) bool {
	for _, marker := range followUpMarkers {
		if marker.MatchString(text) {
			return true
		}
	}
	return false
}

func classifyQueryType(text string) models.QueryType {
	for _, rule := range queryTypeRules {
		if rule.pattern.MatchString(text) {
			return rule.queryType
		}
	}
	return models.QueryTypeGeneral
}
