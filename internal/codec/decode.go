package codec

import (
	"strings"
	"time"

	gmailv1 "google.golang.org/api/gmail/v1"

	"mailpane/internal/model"
)

// maxPartDepth bounds recursion over the part tree. Gmail payloads rarely
// nest past three or four levels; anything deeper is malformed or hostile,
// and descent stops there with whatever was accumulated so far.
const maxPartDepth = 10

// Decode turns a raw Gmail message resource into a normalized Email. It is
// a total function: whatever the shape of the input, it returns a usable
// record and never panics. Failures at any stage collapse into a fallback
// record carrying whatever id/threadId/snippet could be salvaged.
func Decode(msg *gmailv1.Message) (email model.Email) {
	var id, threadID, snippet string

	defer func() {
		if r := recover(); r != nil {
			email = fallbackEmail(id, threadID, snippet)
		}
	}()

	if msg == nil || msg.Id == "" {
		return fallbackEmail("unknown", "", "")
	}
	id, threadID, snippet = msg.Id, msg.ThreadId, msg.Snippet
	if threadID == "" {
		threadID = id
	}
	if msg.Payload == nil {
		return fallbackEmail(id, threadID, snippet)
	}

	var plainBuf, htmlBuf strings.Builder
	collectBodies(msg.Payload, 0, &plainBuf, &htmlBuf)

	plain := plainBuf.String()
	html := htmlBuf.String()
	if plain == "" && html == "" && snippet != "" {
		plain = snippet
	}

	headers := msg.Payload.Headers

	email = model.Email{
		ID:          id,
		ThreadID:    threadID,
		Labels:      msg.LabelIds,
		Snippet:     snippet,
		Subject:     Lookup(headers, "Subject"),
		From:        ParseAddress(Lookup(headers, "From")),
		To:          ParseAddressList(Lookup(headers, "To")),
		Cc:          ParseAddressList(Lookup(headers, "Cc")),
		Bcc:         ParseAddressList(Lookup(headers, "Bcc")),
		Date:        internalDate(msg.InternalDate),
		Body:        model.Body{Plain: plain, HTML: html},
		Attachments: collectAttachments(msg.Payload, 0, nil),
		Flags: model.Flags{
			Unread:    hasLabel(msg.LabelIds, model.LabelUnread),
			Starred:   hasLabel(msg.LabelIds, model.LabelStarred),
			Important: hasLabel(msg.LabelIds, model.LabelImportant),
		},
		Headers: copyHeaders(headers),
	}
	return email
}

// collectBodies walks the part tree accumulating decoded text content.
// text/plain segments are joined with a newline, text/html segments are
// concatenated as-is. A multipart/* node that carries inline body data but
// no children is treated as plain-text fallback content. Descent stops at
// maxPartDepth: the walk aborts, not the decode.
func collectBodies(part *gmailv1.MessagePart, depth int, plainBuf, htmlBuf *strings.Builder) {
	if part == nil || depth > maxPartDepth {
		return
	}

	mime := strings.ToLower(part.MimeType)
	data := ""
	if part.Body != nil {
		data = part.Body.Data
	}

	switch {
	case mime == "text/plain" && data != "":
		if plainBuf.Len() > 0 {
			plainBuf.WriteByte('\n')
		}
		plainBuf.WriteString(DecodeBody(data))
	case mime == "text/html" && data != "":
		htmlBuf.WriteString(DecodeBody(data))
	case strings.HasPrefix(mime, "multipart/") && data != "" && len(part.Parts) == 0:
		// Malformed tree: a container holding inline data. Salvage it as text.
		if plainBuf.Len() > 0 {
			plainBuf.WriteByte('\n')
		}
		plainBuf.WriteString(DecodeBody(data))
	}

	for _, sub := range part.Parts {
		collectBodies(sub, depth+1, plainBuf, htmlBuf)
	}
}

// collectAttachments walks the part tree (same depth bound as the body
// walk) picking up attachment metadata. Only non-multipart leaves carrying
// both a filename and an attachmentId qualify.
func collectAttachments(part *gmailv1.MessagePart, depth int, acc []model.Attachment) []model.Attachment {
	if part == nil || depth > maxPartDepth {
		return acc
	}

	mime := strings.ToLower(part.MimeType)
	if !strings.HasPrefix(mime, "multipart/") && part.Filename != "" &&
		part.Body != nil && part.Body.AttachmentId != "" {
		acc = append(acc, model.Attachment{
			Filename:     part.Filename,
			MimeType:     part.MimeType,
			Size:         part.Body.Size,
			AttachmentID: part.Body.AttachmentId,
		})
	}

	for _, sub := range part.Parts {
		acc = collectAttachments(sub, depth+1, acc)
	}
	return acc
}

// internalDate converts Gmail's epoch-millisecond timestamp. The API
// encodes it as a decimal string on the wire; the client library has
// already parsed it to int64, so the failure mode left to handle is a
// missing or nonsensical value, which maps to now.
func internalDate(ms int64) time.Time {
	if ms <= 0 {
		return time.Now()
	}
	return time.UnixMilli(ms)
}

func hasLabel(labels []string, want string) bool {
	for _, l := range labels {
		if l == want {
			return true
		}
	}
	return false
}

func copyHeaders(headers []*gmailv1.MessagePartHeader) []model.Header {
	if len(headers) == 0 {
		return nil
	}
	out := make([]model.Header, 0, len(headers))
	for _, h := range headers {
		if h == nil {
			continue
		}
		out = append(out, model.Header{Name: h.Name, Value: h.Value})
	}
	return out
}
