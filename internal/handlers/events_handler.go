package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/flopysoft/flopy-crm/internal/dto"
	"github.com/flopysoft/flopy-crm/internal/router"
	"github.com/flopysoft/flopy-crm/internal/services"
	"github.com/flopysoft/flopy-crm/internal/view"
)

type EventsHandler struct {
	events   *services.EventService
	activity *services.ActivityService
}

func NewEventsHandler(events *services.EventService, activity *services.ActivityService) *EventsHandler {
	return &EventsHandler{events: events, activity: activity}
}

func (h *EventsHandler) Name() string { return "events" }

func (h *EventsHandler) Actions() map[string]router.Action {
	return map[string]router.Action{
		"index":  h.index,
		"add":    h.add,
		"edit":   h.edit,
		"delete": h.delete,
		"move":   h.move,
	}
}

// index feeds the calendar: the user's events overlapping the requested
// range, defaulting to the current month.
func (h *EventsHandler) index(c *fiber.Ctx, _ []string) error {
	user := currentUser(c)
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, 0)
	if raw := c.Query("start"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			start = t
		}
	}
	if raw := c.Query("end"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			end = t
		}
	}
	events, err := h.events.Range(user.ID, start, end)
	if err != nil {
		return serviceError(c, err, "/dashboard")
	}
	return view.Success(c, fiber.Map{"events": events})
}

func (h *EventsHandler) add(c *fiber.Ctx, _ []string) error {
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
	var req dto.EventRequest
	if err := c.BodyParser(&req); err != nil {
		return view.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	fields := fieldErrors{}
	fields.required("title", req.Title)
	fields.required("start_date", req.StartDate)
	fields.required("end_date", req.EndDate)
	if !fields.ok() {
		return validationError(c, fields)
	}
	event, err := h.events.Create(req, currentUser(c).ID)
	if err != nil {
		return serviceError(c, err, "/events")
	}
	h.activity.Log(currentUser(c).ID, "create_event", "event", event.ID,
		map[string]interface{}{"title": event.Title}, c.IP())
	return flashRedirect(c, fiber.StatusOK, "success", "Event created", "/events")
}

func (h *EventsHandler) edit(c *fiber.Ctx, params []string) error {
	id, ok := parseID(c, params)
	if !ok {
		return flashRedirect(c, fiber.StatusNotFound, "error", "Event not found", "/events")
	}
	user := currentUser(c)
	if c.Method() != fiber.MethodPost {
		event, err := h.events.Get(id, user.ID)
		if err != nil {
			return serviceError(c, err, "/events")
		}
		token, err := sessionCtx(c).CSRFToken(time.Now())
		if err != nil {
			return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
		}
		if err := sessionCtx(c).Save(); err != nil {
			return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
		}
		return view.Success(c, fiber.Map{"event": event, "csrf_token": token})
	}
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	var req dto.EventRequest
	if err := c.BodyParser(&req); err != nil {
		return view.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	fields := fieldErrors{}
	fields.required("title", req.Title)
	fields.required("start_date", req.StartDate)
	fields.required("end_date", req.EndDate)
	if !fields.ok() {
		return validationError(c, fields)
	}
	if err := h.events.Update(id, user.ID, req); err != nil {
		return serviceError(c, err, "/events")
	}
	h.activity.Log(user.ID, "update_event", "event", id, nil, c.IP())
	return flashRedirect(c, fiber.StatusOK, "success", "Event updated", "/events")
}

func (h *EventsHandler) delete(c *fiber.Ctx, params []string) error {
	if c.Method() != fiber.MethodPost {
		return fiber.ErrMethodNotAllowed
	}
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	id, ok := parseID(c, params)
	if !ok {
		return flashRedirect(c, fiber.StatusNotFound, "error", "Event not found", "/events")
	}
	user := currentUser(c)
	if err := h.events.Delete(id, user.ID); err != nil {
		return serviceError(c, err, "/events")
	}
	h.activity.Log(user.ID, "delete_event", "event", id, nil, c.IP())
	return flashRedirect(c, fiber.StatusOK, "success", "Event deleted", "/events")
}

// move handles calendar drag updates. Always AJAX-invoked.
func (h *EventsHandler) move(c *fiber.Ctx, params []string) error {
	if c.Method() != fiber.MethodPost {
		return fiber.ErrMethodNotAllowed
	}
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	id, ok := parseID(c, params)
	if !ok {
		return view.Error(c, fiber.StatusNotFound, "Event not found")
	}
	start, err1 := time.Parse(time.RFC3339, c.FormValue("start_date"))
	end, err2 := time.Parse(time.RFC3339, c.FormValue("end_date"))
	if err1 != nil || err2 != nil {
		return view.Error(c, fiber.StatusUnprocessableEntity, "Invalid date range")
	}
	user := currentUser(c)
	if err := h.events.Move(id, user.ID, start, end); err != nil {
		return serviceError(c, err, "/events")
	}
	h.activity.Log(user.ID, "move_event", "event", id, nil, c.IP())
	return view.Success(c, fiber.Map{})
}
