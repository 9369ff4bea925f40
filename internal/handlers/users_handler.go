package handlers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/flopysoft/flopy-crm/internal/config"
	"github.com/flopysoft/flopy-crm/internal/dto"
	"github.com/flopysoft/flopy-crm/internal/models"
	"github.com/flopysoft/flopy-crm/internal/router"
	"github.com/flopysoft/flopy-crm/internal/security"
	"github.com/flopysoft/flopy-crm/internal/services"
	"github.com/flopysoft/flopy-crm/internal/view"
)

// RememberCookie is the remember-me cookie, holding "<user id>:<token>".
const RememberCookie = "remember_me"

// Login attempt limits per client address.
const (
	loginLimit     = 5
	registerLimit  = 3
	forgotLimit    = 3
	attemptsWindow = 300 * time.Second
)

type UsersHandler struct {
	users    *services.UserService
	activity *services.ActivityService
	files    *services.FileService
	limiter  *security.FixedWindow
	cfg      *config.Config
}

func NewUsersHandler(users *services.UserService, activity *services.ActivityService, files *services.FileService, limiter *security.FixedWindow, cfg *config.Config) *UsersHandler {
	return &UsersHandler{users: users, activity: activity, files: files, limiter: limiter, cfg: cfg}
}

func (h *UsersHandler) Name() string { return "users" }

func (h *UsersHandler) Actions() map[string]router.Action {
	return map[string]router.Action{
		"index":    h.index,
		"register": h.register,
		"login":    h.login,
		"logout":   h.logout,
		"profile":  h.profile,
		"update":   h.update,
		"password": h.password,
		"upload":   h.upload,
		"token":    h.token,
		"forgot":   h.forgot,
		"reset":    h.reset,
		"status":   h.status,
		"delete":   h.delete,
	}
}

func (h *UsersHandler) requireAdmin(c *fiber.Ctx) (ok bool, err error) {
	user := currentUser(c)
	if user != nil && user.Role != nil && user.Role.Name == models.RoleAdmin {
		return true, nil
	}
	return false, securityRedirect(c, "Administrator access required")
}

// index lists accounts for administrators.
func (h *UsersHandler) index(c *fiber.Ctx, _ []string) error {
	if ok, err := h.requireAdmin(c); !ok {
		return err
	}
	roleID, _ := strconv.ParseUint(c.Query("role_id"), 10, 32)
	filter := dto.UserFilter{
		Search: c.Query("search"),
		RoleID: uint(roleID),
		Status: c.Query("status"),
	}
	opts := listOptions(c, h.cfg.ItemsPerPage)
	total, err := h.users.Count(filter)
	if err != nil {
		return serviceError(c, err, "/dashboard")
	}
	users, err := h.users.List(filter, opts)
	if err != nil {
		return serviceError(c, err, "/dashboard")
	}
	return view.Success(c, fiber.Map{
		"users": users,
		"meta":  dto.NewListMeta(total, opts),
	})
}

func (h *UsersHandler) register(c *fiber.Ctx, _ []string) error {
	if c.Method() != fiber.MethodPost {
		token, err := sessionCtx(c).CSRFToken(time.Now())
		if err != nil {
			return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
		}
		if err := sessionCtx(c).Save(); err != nil {
			return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
		}
		return view.Success(c, fiber.Map{"csrf_token": token})
	}
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	if h.limiter.Limited("register", c.IP(), registerLimit, attemptsWindow) {
		return view.Error(c, fiber.StatusTooManyRequests, "Too many attempts, try again later")
	}

	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return view.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	fields := fieldErrors{}
	fields.required("first_name", req.FirstName)
	fields.required("last_name", req.LastName)
	fields.required("email", req.Email)
	fields.email("email", req.Email)
	fields.minLength("password", req.Password, h.cfg.MinPasswordLength)
	fields.match("password_confirm", req.Password, req.Confirm)
	if !fields.ok() {
		return validationError(c, fields)
	}

	user, err := h.users.Register(req)
	if err != nil {
		return serviceError(c, err, "/users/register")
	}
	h.activity.Log(user.ID, "register", "user", user.ID, nil, c.IP())
	return flashRedirect(c, fiber.StatusOK, "success", "Account created, please sign in", "/users/login")
}

func (h *UsersHandler) login(c *fiber.Ctx, _ []string) error {
	sess := sessionCtx(c)
	if c.Method() != fiber.MethodPost {
		token, err := sess.CSRFToken(time.Now())
		if err != nil {
			return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
		}
		if err := sess.Save(); err != nil {
			return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
		}
		return view.Success(c, fiber.Map{"csrf_token": token})
	}
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	if h.limiter.Limited("login", c.IP(), loginLimit, attemptsWindow) {
		return view.Error(c, fiber.StatusTooManyRequests, "Too many attempts, try again later")
	}

	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return view.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	user, err := h.users.Authenticate(req.Email, req.Password)
	if err != nil {
		return flashRedirect(c, fiber.StatusUnauthorized, "error", err.Error(), "/users/login")
	}
	h.limiter.Reset("login", c.IP())

	roleName := ""
	if user.Role != nil {
		roleName = user.Role.Name
	}
	if err := sess.SetUser(user.ID, roleName); err != nil {
		return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
	}
	sess.SetTheme(user.Theme)
	if err := sess.Save(); err != nil {
		return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
	}

	if req.Remember {
		token, err := h.users.IssueRememberToken(user.ID, time.Now())
		if err == nil {
			c.Cookie(&fiber.Cookie{
				Name:     RememberCookie,
				Value:    fmt.Sprintf("%d:%s", user.ID, token),
				Expires:  time.Now().AddDate(0, 0, h.cfg.RememberCookieDays),
				HTTPOnly: true,
				SameSite: "Lax",
			})
		}
	}

	h.activity.Log(user.ID, "login", "user", user.ID, nil, c.IP())
	return flashRedirect(c, fiber.StatusOK, "success", "Welcome back", "/dashboard")
}

func (h *UsersHandler) logout(c *fiber.Ctx, _ []string) error {
	sess := sessionCtx(c)
	if user := currentUser(c); user != nil {
		_ = h.users.ClearRememberToken(user.ID)
		h.activity.Log(user.ID, "logout", "user", user.ID, nil, c.IP())
	}
	c.Cookie(&fiber.Cookie{
		Name:     RememberCookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	})
	if sess != nil {
		_ = sess.Clear()
	}
	return flashRedirect(c, fiber.StatusOK, "success", "Signed out", "/users/login")
}

func (h *UsersHandler) profile(c *fiber.Ctx, _ []string) error {
	user := currentUser(c)
	if user == nil {
		return securityRedirect(c, "Sign in required")
	}
	roleName := ""
	if user.Role != nil {
		roleName = user.Role.Name
	}
	token, err := sessionCtx(c).CSRFToken(time.Now())
	if err != nil {
		return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
	}
	if err := sessionCtx(c).Save(); err != nil {
		return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
	}
	return view.Success(c, fiber.Map{
		"user": dto.UserResponse{
			ID:        user.ID,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Email:     user.Email,
			Role:      roleName,
			Status:    user.Status,
			Theme:     user.Theme,
		},
		"csrf_token": token,
	})
}

func (h *UsersHandler) update(c *fiber.Ctx, _ []string) error {
	user := currentUser(c)
	if user == nil {
		return securityRedirect(c, "Sign in required")
	}
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	var req dto.ProfileUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return view.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	fields := fieldErrors{}
	fields.required("first_name", req.FirstName)
	fields.required("last_name", req.LastName)
	fields.required("email", req.Email)
	fields.email("email", req.Email)
	if !fields.ok() {
		return validationError(c, fields)
	}
	if err := h.users.UpdateProfile(user.ID, req); err != nil {
		return serviceError(c, err, "/users/profile")
	}
	h.activity.Log(user.ID, "update_profile", "user", user.ID, nil, c.IP())
	return flashRedirect(c, fiber.StatusOK, "success", "Profile updated", "/users/profile")
}

func (h *UsersHandler) password(c *fiber.Ctx, _ []string) error {
	user := currentUser(c)
	if user == nil {
		return securityRedirect(c, "Sign in required")
	}
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return view.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	fields := fieldErrors{}
	fields.minLength("new_password", req.New, h.cfg.MinPasswordLength)
	fields.match("confirm_password", req.New, req.Confirm)
	if !fields.ok() {
		return validationError(c, fields)
	}
	if err := h.users.ChangePassword(user.ID, req.Current, req.New); err != nil {
		if err == services.ErrWrongPassword {
			return validationError(c, fieldErrors{"current_password": err.Error()})
		}
		return serviceError(c, err, "/users/profile")
	}
	h.activity.Log(user.ID, "change_password", "user", user.ID, nil, c.IP())
	return flashRedirect(c, fiber.StatusOK, "success", "Password changed", "/users/profile")
}

// upload stores a new profile image. Always AJAX-invoked, so the
// response is JSON either way.
func (h *UsersHandler) upload(c *fiber.Ctx, _ []string) error {
	user := currentUser(c)
	if user == nil {
		return view.Error(c, fiber.StatusUnauthorized, "Sign in required")
	}
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	filename, header, err := saveImage(c, h.cfg, "profile_image")
	if err != nil {
		return view.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err := h.users.SetProfileImage(user.ID, filename); err != nil {
		return serviceError(c, err, "/users/profile")
	}
	_, _ = h.files.Record(user.ID, "user", user.ID, filename,
		header.Filename, header.Header.Get("Content-Type"), header.Size)
	h.activity.Log(user.ID, "upload_profile_image", "user", user.ID,
		map[string]interface{}{"filename": filename}, c.IP())
	return view.Success(c, fiber.Map{"filename": filename})
}

// token mints an API token; the plaintext is shown exactly once.
func (h *UsersHandler) token(c *fiber.Ctx, _ []string) error {
	user := currentUser(c)
	if user == nil {
		return view.Error(c, fiber.StatusUnauthorized, "Sign in required")
	}
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	token, err := h.users.IssueAPIToken(user.ID, time.Now())
	if err != nil {
		return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
	}
	h.activity.Log(user.ID, "issue_api_token", "user", user.ID, nil, c.IP())
	return view.Success(c, fiber.Map{"api_token": token})
}

// forgot starts a password reset. The response is identical whether or
// not the email exists.
func (h *UsersHandler) forgot(c *fiber.Ctx, _ []string) error {
	if c.Method() != fiber.MethodPost {
		return fiber.ErrMethodNotAllowed
	}
	if h.limiter.Limited("forgot", c.IP(), forgotLimit, attemptsWindow) {
		return view.Error(c, fiber.StatusTooManyRequests, "Too many attempts, try again later")
	}
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return view.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	// Delivery of the token is the mailer's concern; it is never echoed
	// back to the caller.
	_, _ = h.users.PasswordResetToken(req.Email, time.Now())
	return view.Success(c, fiber.Map{"message": "If the address exists, reset instructions were sent"})
}

func (h *UsersHandler) reset(c *fiber.Ctx, _ []string) error {
	if c.Method() != fiber.MethodPost {
		return fiber.ErrMethodNotAllowed
	}
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return view.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	fields := fieldErrors{}
	fields.required("token", req.Token)
	fields.minLength("password", req.Password, h.cfg.MinPasswordLength)
	fields.match("password_confirm", req.Password, req.Confirm)
	if !fields.ok() {
		return validationError(c, fields)
	}
	if err := h.users.ResetPassword(req.Token, req.Password); err != nil {
		return flashRedirect(c, fiber.StatusUnprocessableEntity, "error", "Invalid or expired reset link", "/users/login")
	}
	return flashRedirect(c, fiber.StatusOK, "success", "Password reset, please sign in", "/users/login")
}

func (h *UsersHandler) status(c *fiber.Ctx, params []string) error {
	if ok, err := h.requireAdmin(c); !ok {
		return err
	}
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	id, ok := parseID(c, params)
	if !ok {
		return flashRedirect(c, fiber.StatusNotFound, "error", "User not found", "/users")
	}
	status := c.FormValue("status")
	if err := h.users.UpdateStatus(id, status); err != nil {
		if err == services.ErrInvalidStatus {
			return view.Error(c, fiber.StatusUnprocessableEntity, err.Error())
		}
		return serviceError(c, err, "/users")
	}
	h.activity.Log(currentUser(c).ID, "update_user_status", "user", id,
		map[string]interface{}{"status": status}, c.IP())
	return flashRedirect(c, fiber.StatusOK, "success", "Status updated", "/users")
}

func (h *UsersHandler) delete(c *fiber.Ctx, params []string) error {
	if ok, err := h.requireAdmin(c); !ok {
		return err
	}
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	id, ok := parseID(c, params)
	if !ok {
		return flashRedirect(c, fiber.StatusNotFound, "error", "User not found", "/users")
	}
	if id == currentUser(c).ID {
		return view.Error(c, fiber.StatusUnprocessableEntity, "You cannot delete your own account")
	}
	if err := h.users.Delete(id); err != nil {
		return serviceError(c, err, "/users")
	}
	h.activity.Log(currentUser(c).ID, "delete_user", "user", id, nil, c.IP())
	return flashRedirect(c, fiber.StatusOK, "success", "User deleted", "/users")
}
