package codec

import (
	"time"

	"mailpane/internal/model"
)

// Sentinel values used when a message cannot be decoded. Human-readable on
// purpose: a fallback record still renders in a message list.
const (
	fallbackSubject = "Error parsing email"
	fallbackSender  = "unknown@example.com"
	fallbackBody    = "This email could not be parsed. The original message may be malformed."
)

// fallbackEmail builds a minimal, internally consistent Email for a message
// that failed to decode. Every decode failure path converges here, so
// callers never see a partially initialized record. threadID defaults to
// id; snippet is preserved when anything was salvaged.
func fallbackEmail(id, threadID, snippet string) model.Email {
	if threadID == "" {
		threadID = id
	}
	body := fallbackBody
	if snippet != "" {
		body = snippet
	}
	return model.Email{
		ID:       id,
		ThreadID: threadID,
		Snippet:  snippet,
		Subject:  fallbackSubject,
		From:     model.Address{Name: fallbackSender, Email: fallbackSender},
		Date:     time.Now(),
		Body:     model.Body{Plain: body},
	}
}
