package lessonservice

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var (
	scriptBlockPattern  = regexp.MustCompile(`(?is)<\s*script[^>]*>.*?<\s*/\s*script\s*>`)
	scriptTagPattern    = regexp.MustCompile(`(?i)<\s*/?\s*script[^>]*>?`)
	eventHandlerPattern = regexp.MustCompile(`(?i)(<[a-z][^>]*?)\s+on[a-z]+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
	jsURLPattern        = regexp.MustCompile(`(?i)(href|src)\s*=\s*(["']?)\s*javascript:[^"'\s>]*(["']?)`)

	htmlPolicy = bluemonday.UGCPolicy()
)

// sanitizeContent makes content safe to store. HTML goes through a user
// generated content policy. Markdown is left as written apart from the raw
// HTML it embeds, since escaping would break quotes and code blocks.
func sanitizeContent(content string, format ContentFormat) string {
	if format == FormatHTML {
		return htmlPolicy.Sanitize(content)
	}

	return stripEmbeddedScripts(content)
}

// stripEmbeddedScripts removes script blocks, stray script tags, inline event
// handlers and javascript: links. It repeats until nothing changes, so tags
// split around a removed block cannot join into a new one.
func stripEmbeddedScripts(content string) string {
	for {
		prev := content

		content = scriptBlockPattern.ReplaceAllString(content, "")
		content = scriptTagPattern.ReplaceAllString(content, "")
		content = eventHandlerPattern.ReplaceAllString(content, "$1")
		content = jsURLPattern.ReplaceAllString(content, "$1=$2#$3")

		if content == prev {
			return content
		}
	}
}
