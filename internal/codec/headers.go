package codec

import (
	"strings"

	gmailv1 "google.golang.org/api/gmail/v1"
)

// Lookup returns the value of the first header whose name matches name,
// comparing case-insensitively. Duplicate headers are not merged; first
// match wins. Returns "" when absent.
func Lookup(headers []*gmailv1.MessagePartHeader, name string) string {
	for _, h := range headers {
		if h == nil {
			continue
		}
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}
