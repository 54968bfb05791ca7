package model

import "time"

// Gmail system labels that drive the per-message flags.
const (
	LabelUnread    = "UNREAD"
	LabelStarred   = "STARRED"
	LabelImportant = "IMPORTANT"
	LabelInbox     = "INBOX"
	LabelTrash     = "TRASH"
)

// Address is a parsed mailbox: display name (may be empty) plus address.
type Address struct {
	Name  string
	Email string
}

func (a Address) String() string {
	if a.Name == "" || a.Name == a.Email {
		return a.Email
	}
	return a.Name + " <" + a.Email + ">"
}

// Header is one (name, value) pair off a message payload. Name comparison
// is case-insensitive per RFC 2822; lookups go through codec.Lookup.
type Header struct {
	Name  string
	Value string
}

// Attachment describes a downloadable leaf part. The content itself is not
// fetched during decode; AttachmentID is what the attachments endpoint wants.
type Attachment struct {
	Filename     string
	MimeType     string
	Size         int64
	AttachmentID string
}

// Body holds the decoded message content. Plain always has something when
// the message had any content at all (snippet is the last resort); HTML is
// empty unless a text/html part was present.
type Body struct {
	Plain string
	HTML  string
}

// Preferred returns what a rich renderer should display: HTML when
// present, otherwise plain text. Terminal output goes through
// codec.RenderText instead.
func (b Body) Preferred() (content string, isHTML bool) {
	if b.HTML != "" {
		return b.HTML, true
	}
	return b.Plain, false
}

// Flags are derived from label membership at decode time. Toggling them is
// a remote label operation (see internal/gmail actions), never a mutation
// of a decoded Email.
type Flags struct {
	Unread    bool
	Starred   bool
	Important bool
}

// Email is the normalized form of one Gmail message. It is constructed
// once by codec.Decode and treated as a value afterwards.
type Email struct {
	ID          string
	ThreadID    string // never empty; falls back to ID
	Labels      []string
	Snippet     string
	Subject     string
	From        Address
	To          []Address
	Cc          []Address
	Bcc         []Address
	Date        time.Time
	Body        Body
	Attachments []Attachment
	Flags       Flags
	Headers     []Header
}

func (e *Email) HasLabel(label string) bool {
	for _, l := range e.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// NewMessage is the input for composing a fresh outgoing message.
type NewMessage struct {
	From     string
	To       string
	Cc       string
	Bcc      string
	Subject  string
	Body     string
	IsHTML   bool
	ThreadID string
}

// ReplyRequest is the input for composing a threaded reply. Content is an
// HTML fragment; To must contain "@" or composition fails up front.
type ReplyRequest struct {
	EmailID  string
	ThreadID string
	Content  string
	To       string
}

// ComposedMessage is a wire-ready outgoing message: Raw is the unpadded
// base64url encoding of the RFC 5322 bytes, exactly what the Gmail send
// endpoint expects in its raw field.
type ComposedMessage struct {
	Raw      string
	ThreadID string
}
