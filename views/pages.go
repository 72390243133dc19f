package views

import "github.com/a-h/templ"

type feature struct {
	title, description string
}

var landingFeatures = []feature{
	{"Smart Content Extraction", "Extracts meaningful content from any website URL instantly"},
	{"AI-Powered Generation", "Creates high-quality, SEO-optimized blogs"},
	{"NLP Keyword Extraction", "Intelligent keyword extraction from the source page"},
	{"SEO Optimization", "Automatic meta descriptions, headings, and keyword optimization"},
	{"History Management", "Store and retrieve all your generated blogs in one place"},
}

// Landing is the public entry page.
func Landing(p Page) templ.Component {
	return Layout(p, component(func(h *html) {
		h.raw(`<section class="hero"><h1>Transform Any URL Into SEO-Optimized Blogs</h1>`)
		h.raw(`<p>Generate professional, engaging blog posts from any website URL.</p>`)
		h.raw(`<p><a href="/signup/">Get Started Free</a> <a href="/login/">Login</a></p></section>`)
		h.raw(`<section class="features"><h2>Everything You Need to Create Amazing Content</h2><ul>`)
		for _, f := range landingFeatures {
			h.raw(`<li><strong>`)
			h.text(f.title)
			h.raw(`</strong> `)
			h.text(f.description)
			h.raw(`</li>`)
		}
		h.raw(`</ul></section>`)
	}))
}

// Login is the sign-in form.
func Login(p Page, f AuthForm) templ.Component {
	p.Title = "Login"
	return Layout(p, component(func(h *html) {
		h.raw(`<h1>Welcome Back</h1>`)
		errorMessage(h, f.Error)
		h.raw(`<form method="post" action="/login/">`)
		csrfField(h, p.CSRF)
		emailField(h, f.Email)
		passwordField(h, "password", "Password")
		h.raw(`<button type="submit" class="auth-button">Login</button></form>`)
		h.raw(`<p>Don't have an account? <a href="/signup/">Sign up</a></p>`)
	}))
}

// Signup is the registration form.
func Signup(p Page, f AuthForm) templ.Component {
	p.Title = "Sign up"
	return Layout(p, component(func(h *html) {
		h.raw(`<h1>Create Account</h1>`)
		errorMessage(h, f.Error)
		h.raw(`<form method="post" action="/signup/">`)
		csrfField(h, p.CSRF)
		emailField(h, f.Email)
		passwordField(h, "password", "Password")
		passwordField(h, "confirm_password", "Confirm Password")
		h.raw(`<button type="submit" class="auth-button">Sign up</button></form>`)
		h.raw(`<p>Already have an account? <a href="/login/">Login</a></p>`)
	}))
}

func emailField(h *html, value string) {
	h.raw(`<p><label for="email">Email Address</label> <input id="email" name="email" type="email" required autocomplete="email"`)
	h.attr("value", value)
	h.raw(`></p>`)
}

func passwordField(h *html, name, label string) {
	h.raw(`<p><label`)
	h.attr("for", name)
	h.raw(`>`)
	h.text(label)
	h.raw(`</label> <input type="password" required`)
	h.attr("id", name)
	h.attr("name", name)
	h.raw(`></p>`)
}

// Dashboard is the signed-in home page.
func Dashboard(p Page, d DashboardData) templ.Component {
	p.Title = "Dashboard"
	return Layout(p, component(func(h *html) {
		h.raw(`<h1>Welcome to `)
		h.text(p.Site.Name)
		h.raw(`</h1>`)
		errorMessage(h, d.Error)
		if d.User != nil {
			h.raw(`<p class="account">Signed in as <strong>`)
			h.text(d.User.Email)
			h.raw(`</strong>`)
			if since := FormatDate(d.User.CreatedAt.Time); since != "" {
				h.raw(` since `)
				h.text(since)
			}
			h.raw(`</p>`)
		}
		h.raw(`<div class="dashboard-cards">`)
		h.raw(`<a href="/generate/"><h2>Generate Blog</h2><p>Create a new blog post from any website URL</p></a>`)
		h.raw(`<a href="/history/"><h2>View History</h2><p>Access all your previously generated blogs</p></a>`)
		h.raw(`</div>`)
		h.raw(`<h3>How It Works</h3><ol>`)
		h.raw(`<li>Provide URL: enter any website URL you want to create a blog about</li>`)
		h.raw(`<li>AI Analysis: key topics and keywords are extracted automatically</li>`)
		h.raw(`<li>Generate Blog: get a complete, SEO-optimized blog post</li></ol>`)
	}))
}
