// Package guard decides whether a navigation may render, given the
// session's authentication state.
package guard

import "github.com/eringen/blogforge/session"

// Default destinations for redirects.
const (
	LandingPath   = "/"
	DashboardPath = "/dashboard/"
)

// Access classifies a destination.
type Access int

const (
	// Public destinations render regardless of session state.
	Public Access = iota
	// PublicOnly destinations (landing, login, signup) are for signed-out users.
	PublicOnly
	// Protected destinations (dashboard, generator, history, blog detail)
	// require a token.
	Protected
)

func (a Access) String() string {
	switch a {
	case PublicOnly:
		return "public-only"
	case Protected:
		return "protected"
	default:
		return "public"
	}
}

// Action is what the caller must do with a navigation.
type Action int

const (
	Render Action = iota
	Redirect
	// Wait means the session is not initialized yet: show a neutral
	// placeholder, never the destination's content.
	Wait
)

// Decision is the outcome of Decide. Location is set for Redirect.
type Decision struct {
	Action   Action
	Location string
}

// Decide evaluates one navigation to a destination of the given access
// class. It depends on nothing but status.
func Decide(access Access, status session.Status) Decision {
	if access == Public {
		return Decision{Action: Render}
	}
	switch status {
	case session.Authenticated:
		if access == PublicOnly {
			return Decision{Action: Redirect, Location: DashboardPath}
		}
	case session.Unauthenticated:
		if access == Protected {
			return Decision{Action: Redirect, Location: LandingPath}
		}
	default:
		return Decision{Action: Wait}
	}
	return Decision{Action: Render}
}
