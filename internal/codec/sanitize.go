package codec

import (
	"strings"

	"mailpane/internal/model"
)

// StripHTML removes HTML tags and decodes common entities to produce
// readable text.
func StripHTML(html string) string {
	// Replace block-level elements with newlines
	for _, tag := range []string{"<br>", "<br/>", "<br />", "</p>", "</div>", "</tr>", "</li>", "</h1>", "</h2>", "</h3>", "</h4>", "</h5>", "</h6>"} {
		html = strings.ReplaceAll(html, tag, "\n")
		html = strings.ReplaceAll(html, strings.ToUpper(tag), "\n")
	}

	// Strip all remaining tags
	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	result := b.String()

	// Decode common HTML entities
	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", "\"",
		"&#39;", "'",
		"&apos;", "'",
		"&nbsp;", " ",
	)
	result = replacer.Replace(result)

	// Collapse multiple blank lines
	for strings.Contains(result, "\n\n\n") {
		result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(result)
}

// RenderText picks the best textual rendering of a decoded email: the
// plain body, then stripped HTML, then the snippet.
func RenderText(e model.Email) string {
	if strings.TrimSpace(e.Body.Plain) != "" {
		return e.Body.Plain
	}
	if e.Body.HTML != "" {
		if text := StripHTML(e.Body.HTML); text != "" {
			return text
		}
	}
	if e.Snippet != "" {
		return e.Snippet
	}
	return "(no content)"
}
