package domain

// ConversationStore keeps one append-only conversation per session ID.
// A session that has never been seen starts with the store's greeting.
type ConversationStore interface {
	Turns(sessionID string) []Turn
	Append(sessionID string, turns ...Turn)
	Reset(sessionID string)
}
