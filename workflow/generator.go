// Package workflow orchestrates the preview and generate steps for one
// generator form, and the page sequence of the history view.
//
// Preview and generate use disjoint state: a pending preview never blocks a
// generate submission and vice versa. Only one generation may be in flight
// per form.
package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/eringen/blogforge/apiclient"
)

// User-facing fallbacks when the backend supplies no message.
const (
	PreviewFailedMessage  = "Failed to preview content"
	GenerateFailedMessage = "Failed to generate blog. Please try again."
)

// ErrGenerateInFlight is returned when a form submits while its previous
// generation has not finished.
var ErrGenerateInFlight = errors.New("workflow: generation already in progress")

// PreviewState is the state of the preview slot.
type PreviewState int

const (
	PreviewIdle PreviewState = iota
	PreviewPending
	PreviewReady
	PreviewFailed
)

// Previewer fetches a content preview.
type Previewer interface {
	PreviewContent(ctx context.Context, url string) (apiclient.ContentPreview, error)
}

// Creator creates a blog post.
type Creator interface {
	GenerateBlog(ctx context.Context, req apiclient.GenerationRequest) (apiclient.GeneratedBlog, error)
}

type previewResult struct {
	preview apiclient.ContentPreview
	message string
}

// Generator is the workflow state of one generator form.
type Generator struct {
	id string

	preview Latest[previewResult]

	mu         sync.Mutex
	form       apiclient.GenerationRequest
	generating bool
	started    time.Time
	message    string
	touched    time.Time
}

// NewGenerator returns an idle Generator for form id with default values.
func NewGenerator(id string) *Generator {
	return &Generator{
		id:      id,
		form:    apiclient.NewGenerationRequest(""),
		touched: time.Now(),
	}
}

// ID returns the form id.
func (g *Generator) ID() string {
	return g.id
}

// Remember stores form values for re-rendering without validating them.
func (g *Generator) Remember(req apiclient.GenerationRequest) {
	req.URL = strings.TrimSpace(req.URL)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.form = req
	g.touched = time.Now()
}

// BeginPreview validates url and issues a preview sequence number. A
// validation error means no request may be sent.
func (g *Generator) BeginPreview(url string) (uint64, error) {
	url = strings.TrimSpace(url)
	err := apiclient.ValidatePreviewURL(url)

	g.mu.Lock()
	g.form.URL = url
	g.message = apiclient.Message(err, PreviewFailedMessage)
	g.touched = time.Now()
	g.mu.Unlock()

	if err != nil {
		return 0, err
	}
	return g.preview.Begin(), nil
}

// CompletePreview records the outcome of preview request seq. It reports
// false, and changes nothing, when a newer preview was issued meanwhile.
func (g *Generator) CompletePreview(seq uint64, p apiclient.ContentPreview, err error) bool {
	res := previewResult{preview: p}
	if err != nil {
		res = previewResult{message: apiclient.Message(err, PreviewFailedMessage)}
	}
	return g.preview.Complete(seq, res)
}

// Preview runs a full preview round trip through api.
func (g *Generator) Preview(ctx context.Context, api Previewer, url string) (apiclient.ContentPreview, bool, error) {
	seq, err := g.BeginPreview(url)
	if err != nil {
		return apiclient.ContentPreview{}, false, err
	}
	p, err := api.PreviewContent(ctx, strings.TrimSpace(url))
	applied := g.CompletePreview(seq, p, err)
	return p, applied, err
}

// PreviewState returns the state of the preview slot.
func (g *Generator) PreviewState() PreviewState {
	if g.preview.Pending() {
		return PreviewPending
	}
	res, ok := g.preview.Get()
	switch {
	case !ok:
		return PreviewIdle
	case res.message != "":
		return PreviewFailed
	default:
		return PreviewReady
	}
}

// BeginGenerate validates req and marks a generation as pending. It fails
// with a *apiclient.ValidationError for bad input and ErrGenerateInFlight
// when a generation is already pending; in both cases nothing may be sent.
func (g *Generator) BeginGenerate(req apiclient.GenerationRequest) error {
	req.URL = strings.TrimSpace(req.URL)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.touched = time.Now()
	if g.generating {
		return ErrGenerateInFlight
	}
	g.form = req
	if err := req.Validate(); err != nil {
		g.message = apiclient.Message(err, GenerateFailedMessage)
		return err
	}
	g.generating = true
	g.started = time.Now()
	g.message = ""
	return nil
}

// CompleteGenerate ends the pending generation. On success it returns the
// new record's id for navigation and keeps no reference to the record; on
// failure the form returns to idle with an error message.
func (g *Generator) CompleteGenerate(blog apiclient.GeneratedBlog, err error) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.generating = false
	g.touched = time.Now()
	if err != nil {
		g.message = apiclient.Message(err, GenerateFailedMessage)
		return "", err
	}
	g.message = ""
	return blog.ID, nil
}

// Generate runs a full generation through api and returns the new id.
func (g *Generator) Generate(ctx context.Context, api Creator, req apiclient.GenerationRequest) (string, error) {
	if err := g.BeginGenerate(req); err != nil {
		return "", err
	}
	req.URL = strings.TrimSpace(req.URL)
	blog, err := api.GenerateBlog(ctx, req)
	return g.CompleteGenerate(blog, err)
}

// Generating reports whether a generation is pending.
func (g *Generator) Generating() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.generating
}

// Snapshot is a consistent view of a Generator for rendering.
type Snapshot struct {
	FormID       string
	Form         apiclient.GenerationRequest
	Preview      *apiclient.ContentPreview
	PreviewState PreviewState
	Generating   bool
	Since        time.Time // start of the pending generation
	Error        string
}

// Snapshot returns the current state. A form error takes precedence over a
// failed preview, so the view carries a single message.
func (g *Generator) Snapshot() Snapshot {
	g.mu.Lock()
	s := Snapshot{
		FormID:     g.id,
		Form:       g.form,
		Generating: g.generating,
		Error:      g.message,
	}
	if g.generating {
		s.Since = g.started
	}
	g.mu.Unlock()

	s.PreviewState = g.PreviewState()
	if res, ok := g.preview.Get(); ok {
		if res.message == "" {
			p := res.preview
			s.Preview = &p
		} else if s.Error == "" {
			s.Error = res.message
		}
	}
	return s
}

func (g *Generator) idleSince() (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.touched, !g.generating
}
