// internal/assistant/replies.go
package assistant

import "resource-scheduling/internal/models"

const (
	greetingReply  = "Hello! I'm your meeting assistant. I can help you find information about schedules, meetings, and availability. What would you like to know?"
	thanksReply    = "You're welcome! Let me know if you need anything else."
	farewellReply  = "Goodbye! Feel free to come back anytime you need help with meetings."
	smallTalkReply = "I'm doing great! Ready to help you with any meeting-related questions."
	defaultReply   = "I'm here to help with meeting information. What would you like to know?"
)

// CannedReply answers a chitchat turn without touching the store.
func CannedReply(kind models.ChitchatKind) string {
	switch kind {
	case models.ChitchatGreeting:
		return greetingReply
	case models.ChitchatThanks:
		return thanksReply
	case models.ChitchatFarewell:
		return farewellReply
	case models.ChitchatSmallTalk:
		return smallTalkReply
	default:
		return defaultReply
	}
}
