package views

import (
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/blogforge/markdown"
)

// History lists one page of generated posts.
func History(p Page, d HistoryData) templ.Component {
	p.Title = "Blog History"
	return Layout(p, component(func(h *html) {
		hp := d.Page
		h.raw(`<h1>Blog History</h1>`)
		errorMessage(h, d.Error)
		if d.Error != "" {
			return
		}
		h.raw(`<p>Total blogs generated: `, strconv.Itoa(hp.Total), `</p>`)
		if len(hp.Items) == 0 {
			h.raw(`<div class="empty-state"><p>No blogs generated yet</p><a href="/generate/">Generate Your First Blog</a></div>`)
			return
		}
		h.raw(`<ul class="history-list">`)
		for _, rec := range hp.Items {
			h.raw(`<li class="history-item"><a`)
			h.attr("href", BlogPath(rec.ID))
			h.raw(`><h3>`)
			h.text(rec.WebsiteURL)
			h.raw(`</h3><span class="history-date">`)
			h.text(FormatDate(rec.CreatedAt.Time))
			h.raw(`</span><div class="history-item-meta">Keywords: `)
			h.text(FirstKeywords(rec.Keywords, 3))
			h.raw(` &middot; `, strconv.Itoa(markdown.WordCount(rec.GeneratedBlog)), ` words</div></a></li>`)
		}
		h.raw(`</ul>`)

		if hp.Total > hp.Limit {
			h.raw(`<div class="pagination">`)
			if hp.HasPrevious() {
				h.raw(`<a`)
				h.attr("href", HistoryPath(hp.PageIndex()-1))
				h.raw(`>Previous</a>`)
			} else {
				h.raw(`<span aria-disabled="true">Previous</span>`)
			}
			h.raw(`<span class="pagination-info">Page `, strconv.Itoa(hp.PageIndex()+1), ` of `, strconv.Itoa(hp.PageCount()), `</span>`)
			if hp.HasNext() {
				h.raw(`<a`)
				h.attr("href", HistoryPath(hp.PageIndex()+1))
				h.raw(`>Next</a>`)
			} else {
				h.raw(`<span aria-disabled="true">Next</span>`)
			}
			h.raw(`</div>`)
		}
	}))
}

// Copies the raw Markdown of the post and confirms on the button.
const copyScript = `<script>
document.getElementById("copy-button").addEventListener("click", function (e) {
  var button = e.currentTarget;
  navigator.clipboard.writeText(document.getElementById("blog-source").value).then(function () {
    button.textContent = "Copied!";
    setTimeout(function () { button.textContent = "Copy Blog"; }, 2000);
  });
});
</script>`

// BlogView shows one generated post with its Markdown rendered.
func BlogView(p Page, d BlogData) templ.Component {
	p.Title = "Blog"
	return Layout(p, component(func(h *html) {
		rec := d.Record
		h.raw(`<div class="blog-actions"><a class="back-link"`)
		h.attr("href", HistoryPath(d.BackPage))
		h.raw(`>&larr; Back to History</a>`)
		h.raw(`<button type="button" id="copy-button" class="copy-button">Copy Blog</button>`)
		h.raw(`<textarea id="blog-source" hidden>`)
		h.text(rec.GeneratedBlog)
		h.raw(`</textarea></div>`, copyScript)
		h.raw(`<div class="blog-meta"><p><strong>Source:</strong> <a target="_blank" rel="noopener noreferrer"`)
		h.attr("href", string(templ.URL(rec.WebsiteURL)))
		h.raw(`>`)
		h.text(rec.WebsiteURL)
		h.raw(`</a></p>`)
		if created := FormatDate(rec.CreatedAt.Time); created != "" {
			h.raw(`<p><strong>Generated:</strong> `)
			h.text(created)
			h.raw(`</p>`)
		}
		h.raw(`<p><strong>Word Count:</strong> `, strconv.Itoa(markdown.WordCount(rec.GeneratedBlog)), `</p></div>`)
		keywords(h, rec.Keywords)
		h.raw(`<article class="blog-content">`)
		h.component(markdown.Markdown(rec.GeneratedBlog))
		h.raw(`</article>`)
	}))
}

// BlogError replaces the detail page when the record cannot be loaded.
func BlogError(p Page, msg string, backPage int) templ.Component {
	p.Title = "Blog"
	return Layout(p, component(func(h *html) {
		h.raw(`<div class="error-container">`)
		errorMessage(h, msg)
		h.raw(`<a`)
		h.attr("href", HistoryPath(backPage))
		h.raw(`>Back to History</a></div>`)
	}))
}
