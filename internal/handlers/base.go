package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/flopysoft/flopy-crm/internal/dto"
	"github.com/flopysoft/flopy-crm/internal/models"
	"github.com/flopysoft/flopy-crm/internal/services"
	"github.com/flopysoft/flopy-crm/internal/session"
	"github.com/flopysoft/flopy-crm/internal/view"
)

// Locals keys populated by the middleware chain.
const (
	LocalSession = "session"
	LocalUser    = "user"
)

func sessionCtx(c *fiber.Ctx) *session.Context {
	sess, _ := c.Locals(LocalSession).(*session.Context)
	return sess
}

func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(LocalUser).(*models.User)
	return user
}

// listOptions reads the shared sort/dir/page query parameters.
func listOptions(c *fiber.Ctx, defaultLimit int) dto.ListOptions {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultLimit)))
	if limit < 1 || limit > 100 {
		limit = defaultLimit
	}
	return dto.ListOptions{
		Sort:  c.Query("sort"),
		Dir:   c.Query("dir"),
		Page:  page,
		Limit: limit,
	}
}

// parseID reads a positional id parameter, preferring the path param and
// falling back to the id form/query value.
func parseID(c *fiber.Ctx, params []string) (uint, bool) {
	raw := ""
	if len(params) > 0 {
		raw = params[0]
	}
	if raw == "" {
		raw = c.FormValue("id", c.Query("id"))
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// requireCSRF validates the submitted CSRF token on state-changing
// requests. Security failures never partially process: the caller must
// return immediately when ok is false.
func requireCSRF(c *fiber.Ctx) (ok bool, err error) {
	sess := sessionCtx(c)
	token := c.FormValue("csrf_token")
	if token == "" {
		token = c.Get("X-CSRF-Token")
	}
	if sess != nil && sess.ValidateCSRF(token, time.Now()) {
		return true, nil
	}
	return false, securityRedirect(c, "Invalid or expired security token")
}

// securityRedirect answers a CSRF or auth failure: JSON for AJAX
// callers, flash plus redirect to a safe page otherwise.
func securityRedirect(c *fiber.Ctx, message string) error {
	if view.IsAJAX(c) {
		return view.Error(c, fiber.StatusForbidden, message)
	}
	if sess := sessionCtx(c); sess != nil {
		sess.SetFlash("error", message)
		_ = sess.Save()
	}
	return c.Redirect("/dashboard", fiber.StatusFound)
}

// flashRedirect sets a one-shot message and redirects, or answers JSON
// for AJAX callers.
func flashRedirect(c *fiber.Ctx, status int, kind, message, path string) error {
	if view.IsAJAX(c) {
		if status < 400 {
			return view.Success(c, fiber.Map{"message": message, "redirect": path})
		}
		return view.Error(c, status, message)
	}
	if sess := sessionCtx(c); sess != nil {
		sess.SetFlash(kind, message)
		_ = sess.Save()
	}
	return c.Redirect(path, fiber.StatusFound)
}

// validationError re-presents a form with per-field messages.
func validationError(c *fiber.Ctx, fields map[string]string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"error":  "validation failed",
		"fields": fields,
	})
}

// serviceError maps service-layer failures onto the response taxonomy:
// not-found and ownership misses become a flash redirect or JSON error,
// anything else a generic 500 without the underlying cause.
func serviceError(c *fiber.Ctx, err error, notFoundPath string) error {
	switch {
	case errors.Is(err, services.ErrContactNotFound),
		errors.Is(err, services.ErrDealNotFound),
		errors.Is(err, services.ErrInteractionNotFound),
		errors.Is(err, services.ErrEventNotFound),
		errors.Is(err, services.ErrReminderNotFound),
		errors.Is(err, services.ErrTagNotFound),
		errors.Is(err, services.ErrUserNotFound):
		return flashRedirect(c, fiber.StatusNotFound, "error", err.Error(), notFoundPath)
	case errors.Is(err, services.ErrNotOwner):
		return flashRedirect(c, fiber.StatusForbidden, "error", err.Error(), notFoundPath)
	case errors.Is(err, services.ErrBadDate),
		errors.Is(err, services.ErrBadStage),
		errors.Is(err, services.ErrBadStatus),
		errors.Is(err, services.ErrBadPriority),
		errors.Is(err, services.ErrBadReminderState),
		errors.Is(err, services.ErrBadInteractionType),
		errors.Is(err, services.ErrDateOrder),
		errors.Is(err, services.ErrTagExists),
		errors.Is(err, services.ErrEmailTaken):
		return view.Error(c, fiber.StatusUnprocessableEntity, err.Error())
	default:
		return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
	}
}
