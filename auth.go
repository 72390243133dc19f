package blogforge

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/blogforge/apiclient"
	"github.com/eringen/blogforge/guard"
	"github.com/eringen/blogforge/views"
)

const (
	tooManyAttempts     = "Too many attempts. Try again later."
	loginFailedMessage  = "Login failed. Please check your credentials."
	signupFailedMessage = "Signup failed. Please try again."
	passwordMismatch    = "Passwords do not match"
)

func (a *App) handleLoginPage(c echo.Context) error {
	return Render(c, a.Views.Login(a.page(c), views.AuthForm{}))
}

func (a *App) handleSignupPage(c echo.Context) error {
	return Render(c, a.Views.Signup(a.page(c), views.AuthForm{}))
}

func (a *App) handleLogin(c echo.Context) error {
	email := strings.TrimSpace(c.FormValue("email"))
	form := views.AuthForm{Email: email}
	ip := c.RealIP()
	if !a.authLimiter.Check(ip) {
		form.Error = tooManyAttempts
		return RenderStatus(c, http.StatusTooManyRequests, a.Views.Login(a.page(c), form))
	}

	resp, err := a.api(c).Login(c.Request().Context(), email, c.FormValue("password"))
	if err != nil {
		a.recordAuthFailure(ip, err)
		form.Error = apiclient.Message(err, loginFailedMessage)
		return RenderStatus(c, statusFor(err), a.Views.Login(a.page(c), form))
	}
	return a.signIn(c, resp)
}

func (a *App) handleSignup(c echo.Context) error {
	email := strings.TrimSpace(c.FormValue("email"))
	password := c.FormValue("password")
	form := views.AuthForm{Email: email}
	ip := c.RealIP()
	if !a.authLimiter.Check(ip) {
		form.Error = tooManyAttempts
		return RenderStatus(c, http.StatusTooManyRequests, a.Views.Signup(a.page(c), form))
	}
	if password != c.FormValue("confirm_password") {
		form.Error = passwordMismatch
		return RenderStatus(c, http.StatusUnprocessableEntity, a.Views.Signup(a.page(c), form))
	}

	resp, err := a.api(c).Signup(c.Request().Context(), email, password)
	if err != nil {
		a.recordAuthFailure(ip, err)
		form.Error = apiclient.Message(err, signupFailedMessage)
		return RenderStatus(c, statusFor(err), a.Views.Signup(a.page(c), form))
	}
	return a.signIn(c, resp)
}

// Only rejections by the backend count against the limiter; local
// validation and transport failures do not.
func (a *App) recordAuthFailure(ip string, err error) {
	var he *apiclient.HTTPError
	if errors.As(err, &he) && he.Status >= 400 && he.Status < 500 {
		a.authLimiter.Record(ip)
	}
}

func (a *App) signIn(c echo.Context, resp apiclient.AuthResponse) error {
	if err := SessionFor(c).SetToken(c.Request().Context(), resp.AccessToken); err != nil {
		return err
	}
	a.Logger.Info("signed in", "user_id", resp.User.ID, "browser_id", BrowserID(c))
	return c.Redirect(http.StatusSeeOther, guard.DashboardPath)
}

func (a *App) handleLogout(c echo.Context) error {
	if err := SessionFor(c).Clear(c.Request().Context()); err != nil {
		return err
	}
	a.Workflows.Forget(BrowserID(c))
	return c.Redirect(http.StatusSeeOther, guard.LandingPath)
}
