package workflow

import (
	"context"

	"github.com/eringen/blogforge/apiclient"
)

// DefaultPageSize is the number of history items per page.
const DefaultPageSize = 10

// HistoryLoader fetches one slice of the history.
type HistoryLoader interface {
	GetHistory(ctx context.Context, limit, offset int) (apiclient.HistoryPage, error)
}

// Pager tracks the page a history view shows. Only the page index is kept;
// records are refetched on every navigation.
type Pager struct {
	page Latest[int]
}

// Load fetches page (zero-based) through api. applied is false when a later
// page request was issued before this one completed; the caller must then
// discard the result.
func (p *Pager) Load(ctx context.Context, api HistoryLoader, page, limit int) (hp apiclient.HistoryPage, applied bool, err error) {
	if page < 0 {
		page = 0
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	seq := p.page.Begin()
	hp, err = api.GetHistory(ctx, limit, apiclient.PageOffset(page, limit))
	if err != nil {
		// Failures leave the current page in place but release the slot.
		cur, _ := p.page.Get()
		return hp, p.page.Complete(seq, cur), err
	}
	return hp, p.page.Complete(seq, hp.PageIndex()), nil
}

// Current returns the last page index shown.
func (p *Pager) Current() int {
	v, _ := p.page.Get()
	return v
}
