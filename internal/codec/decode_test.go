package codec

import (
	"testing"
	"time"

	gmailv1 "google.golang.org/api/gmail/v1"

	"mailpane/internal/model"
)

func textPart(mime, content string) *gmailv1.MessagePart {
	return &gmailv1.MessagePart{
		MimeType: mime,
		Body:     &gmailv1.MessagePartBody{Data: EncodeRaw(content), Size: int64(len(content))},
	}
}

func TestDecode_SinglePlainText(t *testing.T) {
	msg := &gmailv1.Message{
		Id: "m1",
		Payload: &gmailv1.MessagePart{
			MimeType: "text/plain",
			Headers: []*gmailv1.MessagePartHeader{
				{Name: "Subject", Value: "Hi"},
			},
			Body: &gmailv1.MessagePartBody{Data: EncodeRaw("hello")},
		},
	}
	e := Decode(msg)
	if e.Subject != "Hi" {
		t.Errorf("subject = %q; want Hi", e.Subject)
	}
	if e.Body.Plain != "hello" {
		t.Errorf("plain = %q; want hello", e.Body.Plain)
	}
	if e.Body.HTML != "" {
		t.Errorf("html = %q; want empty", e.Body.HTML)
	}
	if e.ThreadID != "m1" {
		t.Errorf("threadID = %q; want fallback to id m1", e.ThreadID)
	}
}

func TestDecode_MultipartAlternative(t *testing.T) {
	msg := &gmailv1.Message{
		Id:       "m2",
		ThreadId: "t2",
		Payload: &gmailv1.MessagePart{
			MimeType: "multipart/alternative",
			Headers: []*gmailv1.MessagePartHeader{
				{Name: "From", Value: "Alice <alice@example.com>"},
				{Name: "To", Value: `"Smith, John" <john@acme.com>, jane@acme.com`},
			},
			Parts: []*gmailv1.MessagePart{
				textPart("text/plain", "plain body"),
				textPart("text/html", "<p>html body</p>"),
			},
		},
	}
	e := Decode(msg)
	if e.Body.Plain != "plain body" {
		t.Errorf("plain = %q", e.Body.Plain)
	}
	if e.Body.HTML != "<p>html body</p>" {
		t.Errorf("html = %q", e.Body.HTML)
	}
	if e.From.Email != "alice@example.com" || e.From.Name != "Alice" {
		t.Errorf("from = %+v", e.From)
	}
	if len(e.To) != 2 || e.To[0].Email != "john@acme.com" || e.To[1].Email != "jane@acme.com" {
		t.Errorf("to = %+v", e.To)
	}
	if e.ThreadID != "t2" {
		t.Errorf("threadID = %q", e.ThreadID)
	}
}

func TestDecode_MultiplePlainSegmentsJoined(t *testing.T) {
	msg := &gmailv1.Message{
		Id: "m3",
		Payload: &gmailv1.MessagePart{
			MimeType: "multipart/mixed",
			Parts: []*gmailv1.MessagePart{
				textPart("text/plain", "first"),
				textPart("text/plain", "second"),
			},
		},
	}
	e := Decode(msg)
	if e.Body.Plain != "first\nsecond" {
		t.Errorf("plain = %q; want segments joined with newline", e.Body.Plain)
	}
}

func TestDecode_MultipartLeafWithInlineData(t *testing.T) {
	// Malformed tree: a multipart node carrying body data and no children.
	msg := &gmailv1.Message{
		Id: "m4",
		Payload: &gmailv1.MessagePart{
			MimeType: "multipart/mixed",
			Body:     &gmailv1.MessagePartBody{Data: EncodeRaw("salvaged")},
		},
	}
	e := Decode(msg)
	if e.Body.Plain != "salvaged" {
		t.Errorf("plain = %q; want salvaged", e.Body.Plain)
	}
}

func TestDecode_SnippetFallback(t *testing.T) {
	msg := &gmailv1.Message{
		Id:      "m5",
		Snippet: "preview text",
		Payload: &gmailv1.MessagePart{MimeType: "multipart/mixed"},
	}
	e := Decode(msg)
	if e.Body.Plain != "preview text" {
		t.Errorf("plain = %q; want snippet fallback", e.Body.Plain)
	}
}

func TestDecode_DepthBounded(t *testing.T) {
	// A chain far past the depth cap, with content at every level. Decode
	// must terminate and keep whatever sits above the cap.
	leaf := textPart("text/plain", "deep")
	root := &gmailv1.MessagePart{MimeType: "multipart/mixed", Parts: []*gmailv1.MessagePart{textPart("text/plain", "shallow")}}
	cur := root
	for i := 0; i < 40; i++ {
		next := &gmailv1.MessagePart{MimeType: "multipart/mixed", Parts: []*gmailv1.MessagePart{leaf}}
		cur.Parts = append(cur.Parts, next)
		cur = next
	}
	e := Decode(&gmailv1.Message{Id: "m6", Payload: root})
	if e.Subject == fallbackSubject {
		t.Fatal("deep tree should decode partially, not fall back")
	}
	if e.Body.Plain == "" {
		t.Fatal("expected shallow content to survive")
	}
}

func TestDecode_SelfReferentialTreeTerminates(t *testing.T) {
	// A cycle would recurse forever without the depth bound.
	p := &gmailv1.MessagePart{MimeType: "multipart/mixed"}
	p.Parts = []*gmailv1.MessagePart{p}
	e := Decode(&gmailv1.Message{Id: "m7", Snippet: "s", Payload: p})
	if e.ID != "m7" {
		t.Fatalf("id = %q", e.ID)
	}
}

func TestDecode_NeverFails(t *testing.T) {
	tests := []struct {
		name string
		msg  *gmailv1.Message
	}{
		{"nil message", nil},
		{"empty id", &gmailv1.Message{}},
		{"missing payload", &gmailv1.Message{Id: "x", ThreadId: "t", Snippet: "snip"}},
		{"nil body on leaf", &gmailv1.Message{Id: "y", Payload: &gmailv1.MessagePart{MimeType: "text/plain"}}},
	}
	for _, tc := range tests {
		e := Decode(tc.msg)
		if e.ID == "" {
			t.Errorf("%s: decoded email has empty id", tc.name)
		}
		if e.ThreadID == "" {
			t.Errorf("%s: decoded email has empty threadID", tc.name)
		}
	}

	e := Decode(nil)
	if e.ID != "unknown" {
		t.Errorf("nil message id = %q; want unknown", e.ID)
	}
	if e.Subject != fallbackSubject {
		t.Errorf("nil message subject = %q; want %q", e.Subject, fallbackSubject)
	}

	e = Decode(&gmailv1.Message{Id: "x", ThreadId: "t", Snippet: "snip"})
	if e.ThreadID != "t" || e.Snippet != "snip" {
		t.Errorf("missing payload should salvage threadId and snippet, got %+v", e)
	}
}

func TestDecode_Attachments(t *testing.T) {
	msg := &gmailv1.Message{
		Id: "m8",
		Payload: &gmailv1.MessagePart{
			MimeType: "multipart/mixed",
			Parts: []*gmailv1.MessagePart{
				textPart("text/plain", "body"),
				{
					MimeType: "application/pdf",
					Filename: "report.pdf",
					Body:     &gmailv1.MessagePartBody{AttachmentId: "att1", Size: 1234},
				},
				{
					// A multipart node never becomes an attachment, even with
					// filename and attachmentId set.
					MimeType: "multipart/related",
					Filename: "bogus.bin",
					Body:     &gmailv1.MessagePartBody{AttachmentId: "att2"},
				},
				{
					// No attachmentId: inline content, not an attachment.
					MimeType: "image/png",
					Filename: "inline.png",
					Body:     &gmailv1.MessagePartBody{Data: EncodeRaw("png")},
				},
			},
		},
	}
	e := Decode(msg)
	if len(e.Attachments) != 1 {
		t.Fatalf("attachments = %+v; want exactly one", e.Attachments)
	}
	a := e.Attachments[0]
	if a.Filename != "report.pdf" || a.AttachmentID != "att1" || a.Size != 1234 || a.MimeType != "application/pdf" {
		t.Errorf("attachment = %+v", a)
	}
}

func TestDecode_FlagsFromLabels(t *testing.T) {
	e := Decode(&gmailv1.Message{
		Id:       "m9",
		LabelIds: []string{model.LabelInbox, model.LabelUnread, model.LabelStarred},
		Payload:  &gmailv1.MessagePart{MimeType: "text/plain", Body: &gmailv1.MessagePartBody{Data: EncodeRaw("x")}},
	})
	if !e.Flags.Unread || !e.Flags.Starred || e.Flags.Important {
		t.Errorf("flags = %+v", e.Flags)
	}
}

func TestDecode_InternalDate(t *testing.T) {
	ms := int64(1700000000000)
	e := Decode(&gmailv1.Message{
		Id:           "m10",
		InternalDate: ms,
		Payload:      &gmailv1.MessagePart{MimeType: "text/plain", Body: &gmailv1.MessagePartBody{Data: EncodeRaw("x")}},
	})
	if !e.Date.Equal(time.UnixMilli(ms)) {
		t.Errorf("date = %v; want %v", e.Date, time.UnixMilli(ms))
	}

	// Missing internalDate substitutes the current time.
	before := time.Now().Add(-time.Minute)
	e = Decode(&gmailv1.Message{
		Id:      "m11",
		Payload: &gmailv1.MessagePart{MimeType: "text/plain", Body: &gmailv1.MessagePartBody{Data: EncodeRaw("x")}},
	})
	if e.Date.Before(before) {
		t.Errorf("date = %v; want roughly now", e.Date)
	}
}

func TestDecode_BadBase64IsLocalized(t *testing.T) {
	msg := &gmailv1.Message{
		Id: "m12",
		Payload: &gmailv1.MessagePart{
			MimeType: "multipart/mixed",
			Parts: []*gmailv1.MessagePart{
				{MimeType: "text/plain", Body: &gmailv1.MessagePartBody{Data: "%%%garbage%%%"}},
				textPart("text/plain", "good segment"),
			},
		},
	}
	e := Decode(msg)
	if e.Subject == fallbackSubject {
		t.Fatal("bad segment must not fail the whole decode")
	}
	if e.Body.Plain != decodePlaceholder+"\ngood segment" {
		t.Errorf("plain = %q", e.Body.Plain)
	}
}

func TestDecode_HeadersCopied(t *testing.T) {
	e := Decode(&gmailv1.Message{
		Id: "m13",
		Payload: &gmailv1.MessagePart{
			MimeType: "text/plain",
			Headers: []*gmailv1.MessagePartHeader{
				{Name: "Message-ID", Value: "<abc@x>"},
				{Name: "Subject", Value: "s"},
			},
			Body: &gmailv1.MessagePartBody{Data: EncodeRaw("x")},
		},
	})
	if len(e.Headers) != 2 || e.Headers[0] != (model.Header{Name: "Message-ID", Value: "<abc@x>"}) {
		t.Errorf("headers = %+v", e.Headers)
	}
}
