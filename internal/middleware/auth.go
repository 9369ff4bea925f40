package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/flopysoft/flopy-crm/internal/handlers"
	"github.com/flopysoft/flopy-crm/internal/models"
	"github.com/flopysoft/flopy-crm/internal/services"
	"github.com/flopysoft/flopy-crm/internal/session"
	"github.com/flopysoft/flopy-crm/internal/view"
)

// publicPaths may be reached without a signed-in user.
var publicPaths = []string{
	"/users/login",
	"/users/register",
	"/users/forgot",
	"/users/reset",
}

func isPublic(path string) bool {
	for _, p := range publicPaths {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// Authenticate loads the session for every request and resolves the
// current user through one of three paths: the session itself, the
// remember-me cookie, or a bearer API token. Requests to non-public
// paths without a resolved user are redirected to the login page.
func Authenticate(manager *session.Manager, users *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := manager.Get(c)
		if err != nil {
			return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
		}
		c.Locals(handlers.LocalSession, sess)

		now := time.Now()
		expired, err := sess.Touch(now)
		if err != nil {
			return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
		}
		if expired {
			return loginRedirect(c, "Session expired, please sign in again")
		}

		if userID, ok := sess.UserID(); ok {
			user, err := users.GetByID(userID)
			if err != nil {
				_ = sess.Clear()
				return loginRedirect(c, "Please sign in")
			}
			c.Locals(handlers.LocalUser, user)
			if err := sess.Save(); err != nil {
				return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
			}
			return c.Next()
		}

		// Parallel authentication paths for anonymous sessions.
		if user, ok := rememberLogin(c, sess, users, now); ok {
			c.Locals(handlers.LocalUser, user)
			return c.Next()
		}
		if user, ok := bearerLogin(c, users, now); ok {
			c.Locals(handlers.LocalUser, user)
			return c.Next()
		}

		if err := sess.Save(); err != nil {
			return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
		}
		if isPublic(c.Path()) {
			return c.Next()
		}
		return loginRedirect(c, "Please sign in")
	}
}

// rememberLogin restores a session from the remember-me cookie.
func rememberLogin(c *fiber.Ctx, sess *session.Context, users *services.UserService, now time.Time) (*models.User, bool) {
	cookie := c.Cookies(handlers.RememberCookie)
	if cookie == "" {
		return nil, false
	}
	idRaw, token, found := strings.Cut(cookie, ":")
	if !found {
		return nil, false
	}
	id, err := strconv.ParseUint(idRaw, 10, 32)
	if err != nil {
		return nil, false
	}
	user, err := users.AuthenticateRememberToken(uint(id), token, now)
	if err != nil {
		return nil, false
	}
	roleName := ""
	if user.Role != nil {
		roleName = user.Role.Name
	}
	if err := sess.SetUser(user.ID, roleName); err != nil {
		return nil, false
	}
	sess.SetTheme(user.Theme)
	if err := sess.Save(); err != nil {
		return nil, false
	}
	return user, true
}

// bearerLogin authenticates a request by API token, for callers with no
// session at all.
func bearerLogin(c *fiber.Ctx, users *services.UserService, now time.Time) (*models.User, bool) {
	auth := c.Get(fiber.HeaderAuthorization)
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found || token == "" {
		return nil, false
	}
	user, err := users.AuthenticateAPIToken(token, now)
	if err != nil {
		return nil, false
	}
	return user, true
}

func loginRedirect(c *fiber.Ctx, message string) error {
	if view.IsAJAX(c) || c.Get(fiber.HeaderAuthorization) != "" {
		return view.Error(c, fiber.StatusUnauthorized, message)
	}
	return c.Redirect("/users/login", fiber.StatusFound)
}
