package session

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/flopysoft/flopy-crm/internal/config"
	"github.com/flopysoft/flopy-crm/internal/security"
)

const (
	keyUserID       = "user_id"
	keyUserRole     = "user_role"
	keyTheme        = "theme"
	keyLastActivity = "last_activity"
	keyCSRFToken    = "csrf_token"
	keyCSRFTime     = "csrf_time"
	flashPrefix     = "flash:"
)

// Manager owns the cookie-backed session store and the session policy
// (idle timeout, CSRF token lifetime).
type Manager struct {
	store        *session.Store
	timeout      time.Duration
	csrfLifetime time.Duration
}

func NewManager(cfg *config.Config) *Manager {
	store := session.New(session.Config{
		Expiration:     24 * time.Hour,
		KeyLookup:      "cookie:" + cfg.SessionCookieName,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	})
	return &Manager{
		store:        store,
		timeout:      cfg.SessionTimeout,
		csrfLifetime: cfg.CSRFTokenLifetime,
	}
}

// Get loads the session for the current request.
func (m *Manager) Get(c *fiber.Ctx) (*Context, error) {
	sess, err := m.store.Get(c)
	if err != nil {
		return nil, err
	}
	return &Context{sess: sess, manager: m}, nil
}

// Context is a per-request view of one session.
type Context struct {
	sess    *session.Session
	manager *Manager
}

// UserID returns the signed-in user's id, or false when anonymous.
func (s *Context) UserID() (uint, bool) {
	v, ok := s.sess.Get(keyUserID).(uint64)
	if !ok || v == 0 {
		return 0, false
	}
	return uint(v), true
}

// Role returns the signed-in user's role name, empty when anonymous.
func (s *Context) Role() string {
	v, _ := s.sess.Get(keyUserRole).(string)
	return v
}

// SetUser signs a user into the session. The session id is regenerated
// so a pre-login id cannot be fixed by an attacker.
func (s *Context) SetUser(id uint, role string) error {
	if err := s.sess.Regenerate(); err != nil {
		return err
	}
	s.sess.Set(keyUserID, uint64(id))
	s.sess.Set(keyUserRole, role)
	s.sess.Set(keyLastActivity, time.Now().Unix())
	return nil
}

// Clear destroys the session entirely.
func (s *Context) Clear() error {
	return s.sess.Destroy()
}

// Touch refreshes the idle timer. It returns true when the session had
// already sat idle past the timeout, in which case it is destroyed.
func (s *Context) Touch(now time.Time) (expired bool, err error) {
	if _, ok := s.UserID(); !ok {
		return false, nil
	}
	last, _ := s.sess.Get(keyLastActivity).(int64)
	if last > 0 && now.Sub(time.Unix(last, 0)) > s.manager.timeout {
		return true, s.sess.Destroy()
	}
	s.sess.Set(keyLastActivity, now.Unix())
	return false, nil
}

// Theme returns the stored UI theme, defaulting to light.
func (s *Context) Theme() string {
	if v, ok := s.sess.Get(keyTheme).(string); ok && v != "" {
		return v
	}
	return "light"
}

func (s *Context) SetTheme(theme string) {
	s.sess.Set(keyTheme, theme)
}

// SetFlash stores a one-shot message under key.
func (s *Context) SetFlash(key, message string) {
	s.sess.Set(flashPrefix+key, message)
}

// Flash pops the one-shot message stored under key, if any.
func (s *Context) Flash(key string) (string, bool) {
	v, ok := s.sess.Get(flashPrefix + key).(string)
	if !ok {
		return "", false
	}
	s.sess.Delete(flashPrefix + key)
	return v, true
}

// CSRFToken returns the session's CSRF token, minting a new one when
// none exists or the current one has expired.
func (s *Context) CSRFToken(now time.Time) (string, error) {
	token, _ := s.sess.Get(keyCSRFToken).(string)
	issued, _ := s.sess.Get(keyCSRFTime).(int64)
	if token != "" && now.Sub(time.Unix(issued, 0)) <= s.manager.csrfLifetime {
		return token, nil
	}
	token, err := security.NewToken()
	if err != nil {
		return "", err
	}
	s.sess.Set(keyCSRFToken, token)
	s.sess.Set(keyCSRFTime, now.Unix())
	return token, nil
}

// ValidateCSRF checks a presented token against the session's token.
// The comparison runs before the expiry check so both failure paths
// take the same time.
func (s *Context) ValidateCSRF(presented string, now time.Time) bool {
	token, _ := s.sess.Get(keyCSRFToken).(string)
	issued, _ := s.sess.Get(keyCSRFTime).(int64)
	if token == "" || presented == "" {
		return false
	}
	match := security.TokensEqual(token, presented)
	if now.Sub(time.Unix(issued, 0)) > s.manager.csrfLifetime {
		return false
	}
	return match
}

// Save persists any pending session mutations.
func (s *Context) Save() error {
	return s.sess.Save()
}
