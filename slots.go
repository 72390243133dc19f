package blogforge

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/sessions"
	echosession "github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/eringen/blogforge/session"
)

const tokenKey = "token"

// SlotProvider resolves the durable token slot of the browser behind c.
type SlotProvider interface {
	Slot(c echo.Context, browserID string) session.Slot
	Close() error
}

func (a *App) newSlotProvider() (SlotProvider, error) {
	switch a.Config.SessionBackend {
	case BackendSQLite:
		b, err := session.NewSQLiteBackend(a.Config.SessionDBPath)
		if err != nil {
			return nil, fmt.Errorf("blogforge: init session store: %w", err)
		}
		return &sqliteSlots{backend: b}, nil
	case BackendRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		b, err := session.NewRedisBackend(ctx, a.Config.RedisURL, a.Config.SessionTTL)
		if err != nil {
			return nil, fmt.Errorf("blogforge: init session store: %w", err)
		}
		return redisSlots{backend: b}, nil
	default:
		return CookieSlots{}, nil
	}
}

// CookieSlots keeps the token in the signed session cookie itself.
type CookieSlots struct{}

func (CookieSlots) Slot(c echo.Context, _ string) session.Slot {
	return cookieSlot{c: c}
}

func (CookieSlots) Close() error { return nil }

type cookieSlot struct {
	c echo.Context
}

func (s cookieSlot) Load(context.Context) (string, bool, error) {
	sess, err := cookieSession(s.c)
	if err != nil {
		return "", false, err
	}
	token, ok := sess.Values[tokenKey].(string)
	return token, ok && token != "", nil
}

func (s cookieSlot) Save(_ context.Context, token string) error {
	sess, err := cookieSession(s.c)
	if err != nil {
		return err
	}
	sess.Values[tokenKey] = token
	return sess.Save(s.c.Request(), s.c.Response())
}

func (s cookieSlot) Delete(context.Context) error {
	sess, err := cookieSession(s.c)
	if err != nil {
		return err
	}
	delete(sess.Values, tokenKey)
	return sess.Save(s.c.Request(), s.c.Response())
}

// cookieSession returns the request's cookie session. A cookie that fails
// to decode, for example after a secret rotation, yields a fresh session.
func cookieSession(c echo.Context) (*sessions.Session, error) {
	sess, err := echosession.Get(sessionName, c)
	if sess != nil {
		return sess, nil
	}
	return nil, err
}

type sqliteSlots struct {
	backend *session.SQLiteBackend
}

func (p *sqliteSlots) Slot(_ echo.Context, browserID string) session.Slot {
	return p.backend.Slot(browserID)
}

func (p *sqliteSlots) Close() error {
	return p.backend.Close()
}

// prune drops tokens not written within ttl.
func (p *sqliteSlots) prune(ttl time.Duration) (int64, error) {
	return p.backend.Prune(context.Background(), time.Now().Add(-ttl))
}

type redisSlots struct {
	backend *session.RedisBackend
}

func (p redisSlots) Slot(_ echo.Context, browserID string) session.Slot {
	return p.backend.Slot(browserID)
}

func (p redisSlots) Close() error {
	return p.backend.Close()
}
