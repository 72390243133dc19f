// Package markdown renders the small Markdown subset produced by the blog
// generator (headings, bold, italic, paragraph breaks) to HTML.
package markdown

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Markdown returns a templ.Component that renders md as HTML.
func Markdown(content string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, Render(content))
		return err
	})
}

// Render converts md to HTML. It never fails; malformed input renders as
// best-effort HTML. Heading text and inline spans are emitted verbatim, so
// raw HTML in md reaches the output unescaped.
//
// The whole document is wrapped once in <p>...</p> and every pair of
// consecutive newlines becomes a paragraph break.
func Render(md string) string {
	var b strings.Builder
	b.Grow(len(md) + 16)
	b.WriteString("<p>")

	newlines := 0
	for i, line := range strings.Split(md, "\n") {
		if i > 0 {
			newlines++
		}
		if line == "" {
			continue
		}
		writeBreaks(&b, newlines)
		newlines = 0
		writeLine(&b, line)
	}
	writeBreaks(&b, newlines)

	b.WriteString("</p>")
	return b.String()
}

// writeBreaks emits a run of n newlines: each pair closes the current
// paragraph and opens a new one, a leftover single newline is kept as is.
func writeBreaks(b *strings.Builder, n int) {
	for ; n >= 2; n -= 2 {
		b.WriteString("</p><p>")
	}
	if n == 1 {
		b.WriteByte('\n')
	}
}

// writeLine renders one line. A trailing carriage return ends the line like
// a newline does: it stays outside headings and spans.
func writeLine(b *strings.Builder, line string) {
	line, cr := strings.CutSuffix(line, "\r")
	level, text := heading(line)
	if level == 0 {
		writeInline(b, line)
	} else {
		tag := "h" + string(rune('0'+level))
		b.WriteString("<" + tag + ">")
		writeInline(b, text)
		b.WriteString("</" + tag + ">")
	}
	if cr {
		b.WriteByte('\r')
	}
}

// heading reports the heading level of line and the text after its marker.
// Longer markers are checked first so "### x" is never read as "# ..." text.
func heading(line string) (int, string) {
	switch {
	case strings.HasPrefix(line, "### "):
		return 3, line[4:]
	case strings.HasPrefix(line, "## "):
		return 2, line[3:]
	case strings.HasPrefix(line, "# "):
		return 1, line[2:]
	}
	return 0, line
}

// writeInline scans s once, converting **strong** and *em* spans. A marker
// without a matching closer is written literally and does not pair with
// markers outside the span it was found in.
func writeInline(b *strings.Builder, s string) {
	for i := 0; i < len(s); {
		if s[i] != '*' {
			next := strings.IndexByte(s[i:], '*')
			if next < 0 {
				b.WriteString(s[i:])
				return
			}
			b.WriteString(s[i : i+next])
			i += next
			continue
		}

		if i+1 < len(s) && s[i+1] == '*' {
			if end := strongEnd(s, i+2); end > i+2 {
				b.WriteString("<strong>")
				writeInline(b, s[i+2:end])
				b.WriteString("</strong>")
				i = end + 2
				continue
			}
			b.WriteString("**")
			i += 2
			continue
		}

		if end := emEnd(s, i+1); end > i+1 {
			b.WriteString("<em>")
			writeInline(b, s[i+1:end])
			b.WriteString("</em>")
			i = end + 1
			continue
		}
		b.WriteByte('*')
		i++
	}
}

// strongEnd returns the index of the "**" closing a strong span whose
// content starts at from, or -1.
func strongEnd(s string, from int) int {
	j := strings.Index(s[from:], "**")
	if j < 0 {
		return -1
	}
	return from + j
}

// emEnd returns the index of the single "*" closing an em span whose content
// starts at from, or -1. Complete strong spans inside are skipped over.
func emEnd(s string, from int) int {
	for k := from; k < len(s); k++ {
		if s[k] != '*' {
			continue
		}
		if k+1 < len(s) && s[k+1] == '*' {
			if end := strongEnd(s, k+2); end > k+2 {
				k = end + 1
				continue
			}
		}
		return k
	}
	return -1
}

// WordCount returns the number of whitespace-separated words in md.
func WordCount(md string) int {
	return len(strings.Fields(md))
}
