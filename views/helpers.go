package views

import (
	"context"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"
)

// html accumulates the first write error so components can emit markup
// without checking every call.
type html struct {
	ctx context.Context
	w   io.Writer
	err error
}

func (h *html) raw(parts ...string) {
	for _, s := range parts {
		if h.err != nil {
			return
		}
		_, h.err = io.WriteString(h.w, s)
	}
}

// text writes s HTML-escaped.
func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *html) attr(name, value string) {
	h.raw(" ", name, `="`, templ.EscapeString(value), `"`)
}

func (h *html) component(c templ.Component) {
	if h.err == nil && c != nil {
		h.err = c.Render(h.ctx, h.w)
	}
}

func component(fn func(h *html)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{ctx: ctx, w: w}
		fn(h)
		return h.err
	})
}

// PathEscape wraps url.PathEscape for building links.
func PathEscape(s string) string {
	return url.PathEscape(s)
}

// BlogPath returns the detail page of record id.
func BlogPath(id string) string {
	return "/blog/" + PathEscape(id) + "/"
}

// HistoryPath returns the history page with zero-based index page.
func HistoryPath(page int) string {
	if page <= 0 {
		return "/history/"
	}
	return "/history/?page=" + strconv.Itoa(page)
}

// FormatDate renders t for lists and detail pages. The zero time renders
// as an empty string.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006 15:04")
}

// FirstKeywords returns at most n keywords joined with ", ".
func FirstKeywords(keywords []string, n int) string {
	if len(keywords) > n {
		keywords = keywords[:n]
	}
	return strings.Join(keywords, ", ")
}
