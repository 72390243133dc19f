package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Blog length bounds in words, as accepted by the generate endpoint.
const (
	MinLength     = 500
	MaxLength     = 3000
	LengthStep    = 100
	DefaultLength = 1000
)

// Tone is the writing style requested for a generated post.
type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneCasual       Tone = "casual"
	ToneTechnical    Tone = "technical"
	TonePersuasive   Tone = "persuasive"
	ToneEducational  Tone = "educational"
)

// Tones returns every accepted tone in display order.
func Tones() []Tone {
	return []Tone{ToneProfessional, ToneCasual, ToneTechnical, TonePersuasive, ToneEducational}
}

// Label returns the display name of t.
func (t Tone) Label() string {
	if t == "" {
		return ""
	}
	s := string(t)
	return strings.ToUpper(s[:1]) + s[1:]
}

// GenerationRequest is the body of POST /blog/generate.
type GenerationRequest struct {
	URL        string `json:"url" validate:"required,http_url"`
	Length     int    `json:"length" validate:"min=500,max=3000"`
	Tone       Tone   `json:"tone" validate:"required,oneof=professional casual technical persuasive educational"`
	IncludeCTA bool   `json:"include_cta"`
}

// NewGenerationRequest returns a request for url with the default length,
// tone and call-to-action setting.
func NewGenerationRequest(url string) GenerationRequest {
	return GenerationRequest{
		URL:        strings.TrimSpace(url),
		Length:     DefaultLength,
		Tone:       ToneProfessional,
		IncludeCTA: true,
	}
}

// Validate checks the request against its local constraints.
func (r GenerationRequest) Validate() error {
	return validateStruct(r)
}

type previewRequest struct {
	URL string `json:"url" validate:"required,http_url"`
}

// ValidatePreviewURL checks that url is non-empty and well formed.
func ValidatePreviewURL(url string) error {
	return validateStruct(previewRequest{URL: strings.TrimSpace(url)})
}

type credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ContentPreview is the read-only analysis of a source page.
type ContentPreview struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Summary     string   `json:"summary"`
	Keywords    []string `json:"keywords"`
	WordCount   int      `json:"word_count"`
	URL         string   `json:"url"`
}

// BlogRecord is a generated post as stored by the backend.
type BlogRecord struct {
	ID            string    `json:"id"`
	WebsiteURL    string    `json:"website_url"`
	GeneratedBlog string    `json:"generated_blog"`
	Keywords      []string  `json:"keywords"`
	CreatedAt     Timestamp `json:"created_at"`
}

// GeneratedBlog is the payload returned by a successful generation. It
// carries the new record's ID plus metadata computed during generation.
type GeneratedBlog struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	MetaDescription string   `json:"meta_description"`
	Keywords        []string `json:"keywords"`
	WordCount       int      `json:"word_count"`
	WebsiteURL      string   `json:"website_url"`
}

// HistoryPage is one slice of the user's generated posts. Offset and Limit
// identify the slice; Total is the size of the whole collection.
type HistoryPage struct {
	Items  []BlogRecord
	Total  int
	Offset int
	Limit  int
}

// PageOffset returns the offset of zero-based page index page.
func PageOffset(page, limit int) int {
	if page < 0 {
		page = 0
	}
	return page * limit
}

// PageIndex returns the zero-based index of this page.
func (p HistoryPage) PageIndex() int {
	if p.Limit <= 0 {
		return 0
	}
	return p.Offset / p.Limit
}

// PageCount returns ceil(Total/Limit).
func (p HistoryPage) PageCount() int {
	if p.Limit <= 0 || p.Total <= 0 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}

// HasPrevious reports whether a page precedes this one.
func (p HistoryPage) HasPrevious() bool {
	return p.Offset > 0
}

// HasNext reports whether a page follows this one.
func (p HistoryPage) HasNext() bool {
	return p.Offset+p.Limit < p.Total
}

// User is the account returned by /auth/me and the auth endpoints.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt Timestamp `json:"created_at"`
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	Message     string `json:"message"`
	User        User   `json:"user"`
}

// Timestamp decodes the date formats the backend emits: RFC 3339, ISO 8601
// without a zone (read as UTC) and the RFC 1123 form used by JSON encoders
// for datetime values.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	http.TimeFormat,
	time.RFC1123Z,
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognized format %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}
