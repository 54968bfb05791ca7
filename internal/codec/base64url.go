package codec

import (
	"encoding/base64"
	"strings"
)

// decodePlaceholder is what a reader sees in place of a part whose body
// could not be base64-decoded. Localized to the offending segment; the rest
// of the message still decodes.
const decodePlaceholder = "[unable to decode message content]"

var urlSafeToStd = strings.NewReplacer("-", "+", "_", "/")

// DecodeBody decodes the base64url body data Gmail puts on message parts.
// The wire form is unpadded and URL-safe (RFC 4648 §5), but padded or
// standard-alphabet data shows up too, so the input is normalized first:
// whitespace stripped, alphabet mapped, padding restored. The result is
// interpreted as UTF-8. On any failure it returns a placeholder string
// rather than an error.
func DecodeBody(data string) string {
	if data == "" {
		return ""
	}
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, data)
	cleaned = urlSafeToStd.Replace(cleaned)
	cleaned = strings.TrimRight(cleaned, "=")
	if pad := len(cleaned) % 4; pad != 0 {
		cleaned += strings.Repeat("=", 4-pad)
	}
	b, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return decodePlaceholder
	}
	return string(b)
}

// EncodeRaw encodes an assembled wire message the way the Gmail send
// endpoint expects its raw field: URL-safe alphabet, no padding.
func EncodeRaw(content string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(content))
}
