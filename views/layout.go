package views

import "github.com/a-h/templ"

const styles = `body{font-family:system-ui,sans-serif;margin:0;color:#1c1917;background:#fafaf9}
nav{display:flex;gap:1rem;align-items:center;padding:1rem 2rem;border-bottom:1px solid #d6d3d1}
nav .brand{font-weight:700;margin-right:auto}
main{max-width:48rem;margin:2rem auto;padding:0 1rem}
.error-message{color:#b91c1c;border:1px solid #fca5a5;padding:.5rem 1rem}
.notice{color:#92400e}
.keyword-tag{display:inline-block;border:1px solid #d6d3d1;padding:.1rem .5rem;margin:.1rem}
.pagination{display:flex;gap:1rem;align-items:center}
.blog-actions{display:flex;justify-content:space-between;align-items:center}`

// Layout wraps body in the document shell and navigation bar.
func Layout(p Page, body templ.Component) templ.Component {
	return component(func(h *html) {
		title := p.Site.Name
		if p.Title != "" {
			title = p.Title + " | " + p.Site.Name
		}
		h.raw(`<!doctype html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>`)
		h.text(title)
		h.raw(`</title><style>`, styles, `</style></head><body>`)
		h.component(nav(p))
		h.raw(`<main>`)
		h.component(body)
		h.raw(`</main></body></html>`)
	})
}

func nav(p Page) templ.Component {
	return component(func(h *html) {
		h.raw(`<nav>`)
		if p.Authenticated {
			h.raw(`<a class="brand" href="/dashboard/">`)
			h.text(p.Site.Name)
			h.raw(`</a>`)
			h.raw(`<a href="/dashboard/">Dashboard</a><a href="/generate/">Generate</a><a href="/history/">History</a>`)
			h.raw(`<form method="post" action="/logout/">`)
			csrfField(h, p.CSRF)
			h.raw(`<button type="submit">Logout</button></form>`)
		} else {
			h.raw(`<a class="brand" href="/">`)
			h.text(p.Site.Name)
			h.raw(`</a><a href="/login/">Login</a><a href="/signup/">Sign up</a>`)
		}
		h.raw(`</nav>`)
	})
}

func csrfField(h *html, token string) {
	h.raw(`<input type="hidden" name="_csrf"`)
	h.attr("value", token)
	h.raw(`>`)
}

func errorMessage(h *html, msg string) {
	if msg == "" {
		return
	}
	h.raw(`<div class="error-message" role="alert">`)
	h.text(msg)
	h.raw(`</div>`)
}

// Loading is the neutral placeholder shown while the session is not yet
// known. It reveals nothing about the requested page.
func Loading(p Page) templ.Component {
	p.Authenticated = false
	p.Title = "Loading"
	return Layout(p, component(func(h *html) {
		h.raw(`<div class="loading" aria-busy="true">Loading...</div>`)
	}))
}

// NotFound is the 404 page.
func NotFound(p Page) templ.Component {
	p.Title = "Not found"
	return Layout(p, component(func(h *html) {
		h.raw(`<h1>Page not found</h1><p>The page you requested does not exist.</p><p><a href="/">Go home</a></p>`)
	}))
}

// ServerError is the 5xx page.
func ServerError(p Page) templ.Component {
	p.Title = "Error"
	return Layout(p, component(func(h *html) {
		h.raw(`<h1>Something went wrong</h1><p>Please try again later.</p>`)
	}))
}
