package blogforge

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/blogforge/apiclient"
)

// generationForm reads the generator form. Missing fields take the request
// defaults; a length that is not a number becomes 0 and fails validation.
func generationForm(c echo.Context) apiclient.GenerationRequest {
	req := apiclient.NewGenerationRequest(c.FormValue("url"))
	if v := strings.TrimSpace(c.FormValue("length")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			n = 0
		}
		req.Length = n
	}
	if v := strings.TrimSpace(c.FormValue("tone")); v != "" {
		req.Tone = apiclient.Tone(strings.ToLower(v))
	}
	req.IncludeCTA = c.FormValue("include_cta") != ""
	return req
}

// queryInt parses a non-negative integer query parameter.
func queryInt(c echo.Context, name string, fallback int) int {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// statusFor maps a backend call error to the status of the page that
// reports it.
func statusFor(err error) int {
	var he *apiclient.HTTPError
	var ne *apiclient.NetworkError
	switch {
	case err == nil:
		return http.StatusOK
	case apiclient.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.As(err, &he):
		if he.Status >= 400 && he.Status < 500 {
			return he.Status
		}
		return http.StatusBadGateway
	case errors.As(err, &ne):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
