package codec

import (
	"net/mail"
	"regexp"
	"strings"

	"mailpane/internal/model"
)

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// SplitRecipients splits a To/Cc/Bcc header value into individual entries.
// Commas inside quoted display names ("Smith, John" <j@acme.com>) do not
// split. Unbalanced quoting degrades gracefully: the remainder of the
// string is treated as quoted. Entries are whitespace-trimmed; empty input
// yields nil.
func SplitRecipients(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var out []string
	var cur strings.Builder
	inQuotes := false
	for _, r := range value {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			cur.WriteRune(r)
		case r == ',' && !inQuotes:
			if entry := strings.TrimSpace(cur.String()); entry != "" {
				out = append(out, entry)
			}
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if entry := strings.TrimSpace(cur.String()); entry != "" {
		out = append(out, entry)
	}
	return out
}

// ParseAddress extracts a name/email pair from one recipient entry.
// It tries, in order: a strict RFC 5322 parse (covers both "Name <email>"
// and bare addresses), a best-effort regex scan for an email substring with
// the remainder kept as the name, and finally the whole string as both
// name and email so callers always get something displayable.
func ParseAddress(entry string) model.Address {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return model.Address{}
	}

	if addr, err := mail.ParseAddress(entry); err == nil && addr != nil {
		name := strings.TrimSpace(addr.Name)
		if name == "" {
			name = addr.Address
		}
		return model.Address{Name: name, Email: addr.Address}
	}

	if email := emailPattern.FindString(entry); email != "" {
		name := strings.Replace(entry, email, "", 1)
		name = strings.Trim(name, ` "'<>,`)
		name = strings.TrimSpace(name)
		if name == "" {
			name = email
		}
		return model.Address{Name: name, Email: email}
	}

	return model.Address{Name: entry, Email: entry}
}

// ParseAddressList combines SplitRecipients and ParseAddress for a whole
// header value.
func ParseAddressList(value string) []model.Address {
	entries := SplitRecipients(value)
	if len(entries) == 0 {
		return nil
	}
	out := make([]model.Address, 0, len(entries))
	for _, e := range entries {
		out = append(out, ParseAddress(e))
	}
	return out
}
