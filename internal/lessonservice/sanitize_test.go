package lessonservice

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeContent(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain markdown",
			input: "# Loops\n\nonions = tasty\n\n> a quote with \"marks\"",
			want:  "# Loops\n\nonions = tasty\n\n> a quote with \"marks\"",
		},
		{
			name:  "script tag",
			input: "<script>alert('Hello, World!');</script>",
			want:  "",
		},
		{
			name: "multiple script tags",
			input: `Here is some text.
	<script>alert('Hello, world!');</script>
	More text.
	<SCRIPT SRC="evil.js"></SCRIPT>`,
			want: "Here is some text.\n\t\n\tMore text.\n\t",
		},
		{
			name:  "nested script tags",
			input: "<scr<script>x</script>ipt>alert(1)</scr<script></script>ipt>",
			want:  "alert(1)",
		},
		{
			name:  "unclosed script tag",
			input: "<script>alert(1)",
			want:  "alert(1)",
		},
		{
			name:  "event handler",
			input: `<a href="/next" onclick="evil()">next</a>`,
			want:  `<a href="/next">next</a>`,
		},
		{
			name:  "several event handlers in one tag",
			input: `<img src=x.png onerror=alert(1) onload=y>`,
			want:  `<img src=x.png>`,
		},
		{
			name:  "javascript link",
			input: `<a href="javascript:alert(1)">x</a>`,
			want:  `<a href="#">x</a>`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, sanitizeContent(tc.input, FormatMarkdown))
		})
	}
}

func TestSanitizeContent_HTML(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{name: "script tag", input: "<p>hi</p><script>alert(1)</script>"},
		{name: "nested script tags", input: "<scr<script>x</script>ipt>alert(1)</scr<script></script>ipt>"},
		{name: "unclosed script tag", input: "<p><script>alert(1)"},
		{name: "event handler", input: `<a href="/next" onclick="evil()">next</a>`},
		{name: "javascript link", input: `<a href="javascript:alert(1)">x</a>`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := strings.ToLower(sanitizeContent(tc.input, FormatHTML))
			assert.NotContains(t, got, "<script")
			assert.NotContains(t, got, "onclick")
			assert.NotContains(t, got, "javascript:")
		})
	}

	assert.Equal(t, "<h1>Loops</h1><p>for i := range xs</p>", sanitizeContent("<h1>Loops</h1><p>for i := range xs</p>", FormatHTML))
}
