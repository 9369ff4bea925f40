package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/flopysoft/flopy-crm/internal/config"
	"github.com/flopysoft/flopy-crm/internal/dto"
	"github.com/flopysoft/flopy-crm/internal/models"
	"github.com/flopysoft/flopy-crm/internal/router"
	"github.com/flopysoft/flopy-crm/internal/services"
	"github.com/flopysoft/flopy-crm/internal/view"
)

type RemindersHandler struct {
	reminders *services.ReminderService
	events    *services.EventService
	activity  *services.ActivityService
	cfg       *config.Config
}

func NewRemindersHandler(reminders *services.ReminderService, events *services.EventService, activity *services.ActivityService, cfg *config.Config) *RemindersHandler {
	return &RemindersHandler{reminders: reminders, events: events, activity: activity, cfg: cfg}
}

func (h *RemindersHandler) Name() string { return "reminders" }

func (h *RemindersHandler) Actions() map[string]router.Action {
	return map[string]router.Action{
		"index":  h.index,
		"add":    h.add,
		"edit":   h.edit,
		"delete": h.delete,
		"status": h.status,
		"due":    h.due,
	}
}

type reminderItem struct {
	models.Reminder
	RelatedName string `json:"related_name"`
}

func (h *RemindersHandler) index(c *fiber.Ctx, _ []string) error {
	user := currentUser(c)
	filter := dto.ReminderFilter{
		UserID:   user.ID,
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
	}
	opts := listOptions(c, h.cfg.ItemsPerPage)
	total, err := h.reminders.Count(filter)
	if err != nil {
		return serviceError(c, err, "/dashboard")
	}
	reminders, err := h.reminders.List(filter, opts)
	if err != nil {
		return serviceError(c, err, "/dashboard")
	}
	items := make([]reminderItem, len(reminders))
	for i := range reminders {
		items[i] = reminderItem{
			Reminder:    reminders[i],
			RelatedName: h.reminders.RelatedName(&reminders[i]),
		}
	}
	counts, err := h.reminders.CountByStatus(user.ID)
	if err != nil {
		return serviceError(c, err, "/dashboard")
	}
	return view.Success(c, fiber.Map{
		"reminders": items,
		"meta":      dto.NewListMeta(total, opts),
		"counts":    counts,
	})
}

func (h *RemindersHandler) add(c *fiber.Ctx, _ []string) error {
	if c.Method() != fiber.MethodPost {
		token, err := sessionCtx(c).CSRFToken(time.Now())
		if err != nil {
			return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
		}
		if err := sessionCtx(c).Save(); err != nil {
			return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
		}
		return view.Success(c, fiber.Map{"priorities": models.ReminderPriorities, "csrf_token": token})
	}
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	var req dto.ReminderRequest
	if err := c.BodyParser(&req); err != nil {
		return view.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	fields := fieldErrors{}
	fields.required("title", req.Title)
	fields.required("due_date", req.DueDate)
	if !fields.ok() {
		return validationError(c, fields)
	}
	reminder, err := h.reminders.Create(req, currentUser(c).ID)
	if err != nil {
		return serviceError(c, err, "/reminders")
	}
	h.activity.Log(currentUser(c).ID, "create_reminder", "reminder", reminder.ID, nil, c.IP())
	return flashRedirect(c, fiber.StatusOK, "success", "Reminder created", "/reminders")
}

func (h *RemindersHandler) edit(c *fiber.Ctx, params []string) error {
	id, ok := parseID(c, params)
	if !ok {
		return flashRedirect(c, fiber.StatusNotFound, "error", "Reminder not found", "/reminders")
	}
	user := currentUser(c)
	if c.Method() != fiber.MethodPost {
		reminder, err := h.reminders.Get(id, user.ID)
		if err != nil {
			return serviceError(c, err, "/reminders")
		}
		token, err := sessionCtx(c).CSRFToken(time.Now())
		if err != nil {
			return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
		}
		if err := sessionCtx(c).Save(); err != nil {
			return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
		}
		return view.Success(c, fiber.Map{
			"reminder":   reminder,
			"priorities": models.ReminderPriorities,
			"csrf_token": token,
		})
	}
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	var req dto.ReminderRequest
	if err := c.BodyParser(&req); err != nil {
		return view.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	fields := fieldErrors{}
	fields.required("title", req.Title)
	fields.required("due_date", req.DueDate)
	if !fields.ok() {
		return validationError(c, fields)
	}
	if err := h.reminders.Update(id, user.ID, req); err != nil {
		return serviceError(c, err, "/reminders")
	}
	h.activity.Log(user.ID, "update_reminder", "reminder", id, nil, c.IP())
	return flashRedirect(c, fiber.StatusOK, "success", "Reminder updated", "/reminders")
}

func (h *RemindersHandler) delete(c *fiber.Ctx, params []string) error {
	if c.Method() != fiber.MethodPost {
		return fiber.ErrMethodNotAllowed
	}
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	id, ok := parseID(c, params)
	if !ok {
		return flashRedirect(c, fiber.StatusNotFound, "error", "Reminder not found", "/reminders")
	}
	user := currentUser(c)
	if err := h.reminders.Delete(id, user.ID); err != nil {
		return serviceError(c, err, "/reminders")
	}
	h.activity.Log(user.ID, "delete_reminder", "reminder", id, nil, c.IP())
	return flashRedirect(c, fiber.StatusOK, "success", "Reminder deleted", "/reminders")
}

// status completes, dismisses or reopens a reminder. Always
// AJAX-invoked.
func (h *RemindersHandler) status(c *fiber.Ctx, params []string) error {
	if c.Method() != fiber.MethodPost {
		return fiber.ErrMethodNotAllowed
	}
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	id, ok := parseID(c, params)
	if !ok {
		return view.Error(c, fiber.StatusNotFound, "Reminder not found")
	}
	user := currentUser(c)
	status := c.FormValue("status")
	if err := h.reminders.UpdateStatus(id, user.ID, status); err != nil {
		return serviceError(c, err, "/reminders")
	}
	h.activity.Log(user.ID, "update_reminder_status", "reminder", id,
		map[string]interface{}{"status": status}, c.IP())
	return view.Success(c, fiber.Map{"status": status})
}

// due materializes reminders for events whose reminder offset has
// elapsed, then returns the user's due reminders. Polled by the
// front end.
func (h *RemindersHandler) due(c *fiber.Ctx, _ []string) error {
	user := currentUser(c)
	now := time.Now()
	pending, err := h.events.NeedingReminders(now)
	if err != nil {
		return serviceError(c, err, "/dashboard")
	}
	if err := h.reminders.EnsureEventReminders(pending); err != nil {
		return serviceError(c, err, "/dashboard")
	}
	due, err := h.reminders.Due(user.ID, now)
	if err != nil {
		return serviceError(c, err, "/dashboard")
	}
	items := make([]reminderItem, len(due))
	for i := range due {
		items[i] = reminderItem{
			Reminder:    due[i],
			RelatedName: h.reminders.RelatedName(&due[i]),
		}
	}
	return view.Success(c, fiber.Map{"reminders": items})
}
