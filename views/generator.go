package views

import (
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/blogforge/apiclient"
	"github.com/eringen/blogforge/workflow"
)

// LatencyMessage tells the user how long generation usually takes.
const LatencyMessage = "This may take 30-60 seconds. Please wait..."

// Disables the generate button once the form is submitted through it, so a
// slow generation cannot be submitted twice from the same page.
const generateScript = `<script>
document.getElementById("generator-form").addEventListener("submit", function (e) {
  if (!e.submitter || e.submitter.id !== "generate-button") return;
  e.submitter.disabled = true;
  e.submitter.textContent = "Generating Blog...";
  document.getElementById("generate-progress").hidden = false;
});
</script>`

// Generator is the preview and generate form.
func Generator(p Page, d GeneratorData) templ.Component {
	p.Title = "Generate Blog Post"
	return Layout(p, component(func(h *html) {
		f := d.Form
		h.raw(`<h1>Generate Blog Post</h1><p>Enter a website URL to generate an SEO-optimized blog post</p>`)
		errorMessage(h, d.Error)
		if d.Notice != "" {
			h.raw(`<p class="notice">`)
			h.text(d.Notice)
			h.raw(`</p>`)
		}

		h.raw(`<form id="generator-form" method="post" action="/generate/">`)
		csrfField(h, p.CSRF)
		h.raw(`<input type="hidden" name="form_id"`)
		h.attr("value", d.FormID)
		h.raw(`>`)

		h.raw(`<p><label for="url">Website URL *</label> <input id="url" name="url" type="url" required placeholder="https://example.com"`)
		h.attr("value", f.URL)
		h.raw(`> <button type="submit" formaction="/generate/preview/" formnovalidate class="preview-button">`)
		if d.PreviewState == workflow.PreviewPending {
			h.raw(`Loading...`)
		} else {
			h.raw(`Preview`)
		}
		h.raw(`</button></p>`)

		if d.Preview != nil {
			h.component(previewCard(*d.Preview))
		}

		h.raw(`<p><label for="length">Blog Length (words)</label> <input id="length" name="length" type="number"`)
		h.attr("min", strconv.Itoa(apiclient.MinLength))
		h.attr("max", strconv.Itoa(apiclient.MaxLength))
		h.attr("step", strconv.Itoa(apiclient.LengthStep))
		h.attr("value", strconv.Itoa(f.Length))
		h.raw(`></p>`)

		h.raw(`<p><label for="tone">Tone</label> <select id="tone" name="tone">`)
		for _, t := range apiclient.Tones() {
			h.raw(`<option`)
			h.attr("value", string(t))
			if t == f.Tone {
				h.raw(` selected`)
			}
			h.raw(`>`)
			h.text(t.Label())
			h.raw(`</option>`)
		}
		h.raw(`</select></p>`)

		h.raw(`<p><label><input type="checkbox" name="include_cta" value="true"`)
		if f.IncludeCTA {
			h.raw(` checked`)
		}
		h.raw(`> Include Call-to-Action</label></p>`)

		h.raw(`<button type="submit" id="generate-button" class="generate-button"`)
		if d.Generating {
			h.raw(` disabled>Generating Blog...`)
		} else {
			h.raw(`>Generate Blog`)
		}
		h.raw(`</button>`)

		h.raw(`<div id="generate-progress" class="loading-info"`)
		if !d.Generating {
			h.raw(` hidden`)
		}
		h.raw(`><p>`, LatencyMessage, `</p><p>Extracting content, analyzing keywords, generating blog</p></div>`)
		h.raw(`</form>`, generateScript)
	}))
}

func previewCard(pv apiclient.ContentPreview) templ.Component {
	return component(func(h *html) {
		h.raw(`<div class="preview-card"><h3>Content Preview</h3><p><strong>Title:</strong> `)
		h.text(pv.Title)
		h.raw(`</p>`)
		if pv.Description != "" {
			h.raw(`<p><strong>Description:</strong> `)
			h.text(pv.Description)
			h.raw(`</p>`)
		}
		if pv.Summary != "" {
			h.raw(`<p><strong>Summary:</strong> `)
			h.text(pv.Summary)
			h.raw(`</p>`)
		}
		h.raw(`<p><strong>Word Count:</strong> `, strconv.Itoa(pv.WordCount), `</p>`)
		keywords(h, pv.Keywords)
		h.raw(`</div>`)
	})
}

func keywords(h *html, kw []string) {
	if len(kw) == 0 {
		return
	}
	h.raw(`<div class="keywords"><strong>Keywords:</strong> `)
	for _, k := range kw {
		h.raw(`<span class="keyword-tag">`)
		h.text(k)
		h.raw(`</span>`)
	}
	h.raw(`</div>`)
}
