package guard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eringen/blogforge/guard"
	"github.com/eringen/blogforge/session"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		access guard.Access
		status session.Status
		want   guard.Decision
	}{
		{guard.Protected, session.Authenticated, guard.Decision{Action: guard.Render}},
		{guard.Protected, session.Unauthenticated, guard.Decision{Action: guard.Redirect, Location: "/"}},
		{guard.Protected, session.Pending, guard.Decision{Action: guard.Wait}},
		{guard.PublicOnly, session.Unauthenticated, guard.Decision{Action: guard.Render}},
		{guard.PublicOnly, session.Authenticated, guard.Decision{Action: guard.Redirect, Location: "/dashboard/"}},
		{guard.PublicOnly, session.Pending, guard.Decision{Action: guard.Wait}},
		{guard.Public, session.Pending, guard.Decision{Action: guard.Render}},
		{guard.Public, session.Authenticated, guard.Decision{Action: guard.Render}},
		{guard.Public, session.Unauthenticated, guard.Decision{Action: guard.Render}},
	}
	for _, tt := range tests {
		t.Run(tt.access.String()+"/"+tt.status.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, guard.Decide(tt.access, tt.status))
		})
	}
}

// A protected page renders iff authenticated; a public-only page renders
// iff not authenticated. Everything else redirects or waits.
func TestDecideRendersExactlyWhenAllowed(t *testing.T) {
	for _, status := range []session.Status{session.Pending, session.Unauthenticated, session.Authenticated} {
		protected := guard.Decide(guard.Protected, status).Action == guard.Render
		assert.Equal(t, status == session.Authenticated, protected, "protected/%s", status)

		publicOnly := guard.Decide(guard.PublicOnly, status).Action == guard.Render
		assert.Equal(t, status == session.Unauthenticated, publicOnly, "public-only/%s", status)
	}
}
