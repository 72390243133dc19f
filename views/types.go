package views

import (
	"github.com/eringen/blogforge/apiclient"
	"github.com/eringen/blogforge/workflow"
)

// SiteConfig holds site-wide settings every page needs.
type SiteConfig struct {
	Name string // SITE_NAME (default "AI Blog Generator")
}

// Page carries the per-request values the layout renders.
type Page struct {
	Site          SiteConfig
	Title         string
	CSRF          string
	Authenticated bool
}

// AuthForm is the state of the login and signup forms. Passwords are never
// echoed back.
type AuthForm struct {
	Email string
	Error string
}

// DashboardData is the account summary shown on the dashboard.
type DashboardData struct {
	User  *apiclient.User
	Error string
}

// GeneratorData is the generator form state.
type GeneratorData struct {
	workflow.Snapshot
	Notice string // shown when a submission was refused while pending
}

// HistoryData is one page of history, or the error that replaced it.
type HistoryData struct {
	Page  apiclient.HistoryPage
	Error string
}

// BlogData is a single record, plus the history page to go back to.
type BlogData struct {
	Record   apiclient.BlogRecord
	BackPage int
}
