package codec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	gmailv1 "google.golang.org/api/gmail/v1"

	"mailpane/internal/model"
)

// ErrInvalidRecipient means the To address does not look deliverable.
// This is the one compose failure surfaced to callers: silently sending to
// a malformed address is worse than refusing. Checked before any encoding
// work happens.
var ErrInvalidRecipient = errors.New("invalid recipient address")

// messageIDDomain is used when synthesizing Message-IDs, both for new
// sends and for replies to messages that never carried one.
const messageIDDomain = "mail.gmail.com"

// ComposeNew assembles a fresh outgoing message: RFC 5322 header block,
// blank line, body, encoded as unpadded base64url for the send endpoint's
// raw field.
func ComposeNew(msg model.NewMessage) (model.ComposedMessage, error) {
	if !strings.Contains(msg.To, "@") {
		return model.ComposedMessage{}, fmt.Errorf("to %q: %w", msg.To, ErrInvalidRecipient)
	}

	var b strings.Builder
	if msg.From != "" {
		fmt.Fprintf(&b, "From: %s\r\n", msg.From)
	}
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	if msg.Cc != "" {
		fmt.Fprintf(&b, "Cc: %s\r\n", msg.Cc)
	}
	if msg.Bcc != "" {
		fmt.Fprintf(&b, "Bcc: %s\r\n", msg.Bcc)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Message-ID: <%s@%s>\r\n", uuid.New().String(), messageIDDomain)
	b.WriteString("MIME-Version: 1.0\r\n")
	if msg.IsHTML {
		b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	} else {
		b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	}
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	return model.ComposedMessage{
		Raw:      EncodeRaw(b.String()),
		ThreadID: msg.ThreadID,
	}, nil
}

// ComposeReply assembles a threaded reply to original. Threading headers
// follow RFC 5322: In-Reply-To carries the parent's Message-ID (synthesized
// from the message id when the parent never had one) and References extends
// the parent's chain with it. The body is the new HTML content followed by
// the original's plain text as a quoted block.
func ComposeReply(original *gmailv1.Message, userAddr string, req model.ReplyRequest) (model.ComposedMessage, error) {
	if !strings.Contains(req.To, "@") {
		return model.ComposedMessage{}, fmt.Errorf("to %q: %w", req.To, ErrInvalidRecipient)
	}

	var headers []*gmailv1.MessagePartHeader
	if original != nil && original.Payload != nil {
		headers = original.Payload.Headers
	}

	messageID := strings.TrimSpace(Lookup(headers, "Message-ID"))
	if messageID == "" {
		messageID = fmt.Sprintf("<%s@%s>", req.EmailID, messageIDDomain)
	}
	messageID = ensureBrackets(messageID)

	references := rewrapReferences(Lookup(headers, "References"))
	if references != "" {
		references = references + " " + messageID
	} else {
		references = messageID
	}

	subject := replySubject(Lookup(headers, "Subject"))

	var b strings.Builder
	if userAddr != "" {
		fmt.Fprintf(&b, "From: %s\r\n", userAddr)
	}
	fmt.Fprintf(&b, "To: %s\r\n", req.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "In-Reply-To: %s\r\n", messageID)
	fmt.Fprintf(&b, "References: %s\r\n", references)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(replyBody(original, req))

	threadID := req.ThreadID
	if threadID == "" && original != nil {
		threadID = original.ThreadId
	}

	return model.ComposedMessage{
		Raw:      EncodeRaw(b.String()),
		ThreadID: threadID,
	}, nil
}

// replySubject prefixes Re: exactly once.
func replySubject(subject string) string {
	subject = strings.TrimSpace(subject)
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}

// ensureBrackets wraps a Message-ID in angle brackets if it isn't already.
func ensureBrackets(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return id
	}
	if strings.HasPrefix(id, "<") && strings.HasSuffix(id, ">") {
		return id
	}
	return "<" + strings.Trim(id, "<>") + ">"
}

// rewrapReferences normalizes a References header value. Some senders emit
// bare ids; each whitespace-separated token gets angle brackets so the
// chain stays RFC 5322 valid.
func rewrapReferences(refs string) string {
	refs = strings.TrimSpace(refs)
	if refs == "" {
		return ""
	}
	tokens := strings.Fields(refs)
	for i, tok := range tokens {
		tokens[i] = ensureBrackets(tok)
	}
	return strings.Join(tokens, " ")
}

// replyBody renders the reply content above a quoted copy of the original.
func replyBody(original *gmailv1.Message, req model.ReplyRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<div>%s</div>", req.Content)

	quoted := ""
	if original != nil && original.Payload != nil {
		quoted = firstPlainText(original.Payload, 0)
	}
	if quoted == "" && original != nil {
		quoted = original.Snippet
	}
	if quoted != "" {
		date := ""
		if original != nil && original.Payload != nil {
			date = Lookup(original.Payload.Headers, "Date")
		}
		b.WriteString("<br><div class=\"gmail_quote\">")
		fmt.Fprintf(&b, "On %s, %s wrote:<br>", date, req.To)
		fmt.Fprintf(&b, "<blockquote>%s</blockquote>", quoted)
		b.WriteString("</div>")
	}
	return b.String()
}

// firstPlainText returns the first text/plain body in the tree, bounded
// the same way as the decoder's walks. Quoting only needs one segment, not
// the full accumulation Decode does.
func firstPlainText(part *gmailv1.MessagePart, depth int) string {
	if part == nil || depth > maxPartDepth {
		return ""
	}
	if strings.ToLower(part.MimeType) == "text/plain" && part.Body != nil && part.Body.Data != "" {
		return DecodeBody(part.Body.Data)
	}
	for _, sub := range part.Parts {
		if body := firstPlainText(sub, depth+1); body != "" {
			return body
		}
	}
	return ""
}
