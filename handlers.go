package blogforge

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/eringen/blogforge/apiclient"
	"github.com/eringen/blogforge/views"
	"github.com/eringen/blogforge/workflow"
)

const (
	accountFailedMessage = "Failed to load account"
	historyFailedMessage = "Failed to load history"
	blogFailedMessage    = "Failed to load blog"
	blogNotFoundMessage  = "Blog not found"
	inFlightNotice       = "A blog is already being generated from this form. Please wait."
)

func (a *App) page(c echo.Context) views.Page {
	return views.Page{
		Site:          views.SiteConfig{Name: a.Config.Name},
		CSRF:          CsrfToken(c),
		Authenticated: SessionFor(c).Authenticated(),
	}
}

func (a *App) handleLanding(c echo.Context) error {
	return Render(c, a.Views.Landing(a.page(c)))
}

// A rejected token is reported on the page; the session is left as is.
func (a *App) handleDashboard(c echo.Context) error {
	var d views.DashboardData
	user, err := a.api(c).Me(c.Request().Context())
	if err != nil {
		d.Error = apiclient.Message(err, accountFailedMessage)
		return RenderStatus(c, statusFor(err), a.Views.Dashboard(a.page(c), d))
	}
	d.User = &user
	return Render(c, a.Views.Dashboard(a.page(c), d))
}

func (a *App) generator(c echo.Context, formID string) *workflow.Generator {
	return a.Workflows.Generator(BrowserID(c), formID)
}

func (a *App) renderGenerator(c echo.Context, code int, g *workflow.Generator, notice string) error {
	d := views.GeneratorData{Snapshot: g.Snapshot(), Notice: notice}
	return RenderStatus(c, code, a.Views.Generator(a.page(c), d))
}

// handleGeneratorPage opens the form given by ?form=, or a new one.
func (a *App) handleGeneratorPage(c echo.Context) error {
	return a.renderGenerator(c, http.StatusOK, a.generator(c, c.QueryParam("form")), "")
}

func (a *App) handlePreview(c echo.Context) error {
	g := a.generator(c, c.FormValue("form_id"))
	req := generationForm(c)
	g.Remember(req)
	if _, _, err := g.Preview(c.Request().Context(), a.api(c), req.URL); err != nil {
		return a.renderGenerator(c, statusFor(err), g, "")
	}
	return a.renderGenerator(c, http.StatusOK, g, "")
}

// handleGenerate runs a generation to completion even if the browser goes
// away, so the form's pending state always resolves.
func (a *App) handleGenerate(c echo.Context) error {
	g := a.generator(c, c.FormValue("form_id"))
	ctx := context.WithoutCancel(c.Request().Context())
	id, err := g.Generate(ctx, a.api(c), generationForm(c))
	switch {
	case errors.Is(err, workflow.ErrGenerateInFlight):
		return a.renderGenerator(c, http.StatusConflict, g, inFlightNotice)
	case err != nil:
		return a.renderGenerator(c, statusFor(err), g, "")
	}
	a.Logger.Info("blog generated", "blog_id", id, "form_id", g.ID())
	return c.Redirect(http.StatusSeeOther, views.BlogPath(id))
}

func (a *App) handleHistory(c echo.Context) error {
	page := queryInt(c, "page", 0)
	pager := a.Workflows.Pager(BrowserID(c))
	hp, _, err := pager.Load(c.Request().Context(), a.api(c), page, workflow.DefaultPageSize)
	if err != nil {
		d := views.HistoryData{Error: historyFailedMessage}
		return RenderStatus(c, statusFor(err), a.Views.History(a.page(c), d))
	}
	return Render(c, a.Views.History(a.page(c), views.HistoryData{Page: hp}))
}

func (a *App) handleBlog(c echo.Context) error {
	back := a.Workflows.Pager(BrowserID(c)).Current()
	id, err := url.PathUnescape(c.Param("id"))
	if err != nil {
		return echo.ErrNotFound
	}
	rec, err := a.api(c).GetBlogByID(c.Request().Context(), id)
	if err != nil {
		msg := blogFailedMessage
		if apiclient.IsNotFound(err) {
			msg = blogNotFoundMessage
		}
		return RenderStatus(c, statusFor(err), a.Views.BlogError(a.page(c), msg, back))
	}
	return Render(c, a.Views.Blog(a.page(c), views.BlogData{Record: rec, BackPage: back}))
}

func handleHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.page(c)))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.Error("server error", "error", err, "path", c.Request().URL.Path)
		_ = RenderStatus(c, code, a.Views.ServerError(a.page(c)))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
