package engine

import (
	"strings"

	"golang.org/x/net/html"
)

// UserAgentBot identifies outbound provider requests.
const UserAgentBot = "GoUnisearch/1.0"

// DecodeEntities turns HTML character references ("&amp;", "&#39;") into text.
// The YouTube Data API returns snippet titles and descriptions HTML-escaped.
func DecodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	return html.UnescapeString(s)
}

// NormQuery trims surrounding whitespace; an empty result means "no query".
func NormQuery(q string) string {
	return strings.TrimSpace(q)
}
