package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/flopysoft/flopy-crm/internal/dto"
	"github.com/flopysoft/flopy-crm/internal/models"
	"github.com/flopysoft/flopy-crm/internal/router"
	"github.com/flopysoft/flopy-crm/internal/services"
	"github.com/flopysoft/flopy-crm/internal/view"
)

type DashboardHandler struct {
	contacts     *services.ContactService
	interactions *services.InteractionService
	deals        *services.DealService
	events       *services.EventService
	reminders    *services.ReminderService
	activity     *services.ActivityService
	users        *services.UserService
	settings     *services.SettingService
}

func NewDashboardHandler(
	contacts *services.ContactService,
	interactions *services.InteractionService,
	deals *services.DealService,
	events *services.EventService,
	reminders *services.ReminderService,
	activity *services.ActivityService,
	users *services.UserService,
	settings *services.SettingService,
) *DashboardHandler {
	return &DashboardHandler{
		contacts:     contacts,
		interactions: interactions,
		deals:        deals,
		events:       events,
		reminders:    reminders,
		activity:     activity,
		users:        users,
		settings:     settings,
	}
}

func (h *DashboardHandler) Name() string { return "dashboard" }

func (h *DashboardHandler) Actions() map[string]router.Action {
	return map[string]router.Action{
		"index":    h.index,
		"data":     h.data,
		"theme":    h.theme,
		"settings": h.manageSettings,
	}
}

// index assembles every stat block in one response.
func (h *DashboardHandler) index(c *fiber.Ctx, _ []string) error {
	user := currentUser(c)
	now := time.Now()

	totalContacts, err := h.contacts.Count(dto.ContactFilter{})
	if err != nil {
		return serviceError(c, err, "/dashboard")
	}
	byLeadStatus, err := h.contacts.CountByLeadStatus()
	if err != nil {
		return serviceError(c, err, "/dashboard")
	}
	byLeadSource, err := h.contacts.CountByLeadSource()
	if err != nil {
		return serviceError(c, err, "/dashboard")
	}
	byOwner, err := h.contacts.CountByOwner()
	if err != nil {
		return serviceError(c, err, "/dashboard")
	}
	recentContacts, err := h.contacts.Recent(5)
	if err != nil {
		return serviceError(c, err, "/dashboard")
	}

	stageMetrics, err := h.deals.ValueByStage()
	if err != nil {
		return serviceError(c, err, "/dashboard")
	}
	forecast, err := h.deals.Forecast()
	if err != nil {
		return serviceError(c, err, "/dashboard")
	}
	wonThisMonth, err := h.deals.WonValueForPeriod("this_month", now)
	if err != nil {
		return serviceError(c, err, "/dashboard")
	}

	monthCounts, err := h.interactions.CountByMonth(now.Year())
	if err != nil {
		return serviceError(c, err, "/dashboard")
	}
	byType, err := h.interactions.CountByType()
	if err != nil {
		return serviceError(c, err, "/dashboard")
	}
	upcomingPlanned, err := h.interactions.UpcomingPlanned(5, now)
	if err != nil {
		return serviceError(c, err, "/dashboard")
	}

	dayOfWeek, err := h.events.CountByDayOfWeek(user.ID, 4, now)
	if err != nil {
		return serviceError(c, err, "/dashboard")
	}
	upcomingEvents, err := h.events.Upcoming(user.ID, 5, now)
	if err != nil {
		return serviceError(c, err, "/dashboard")
	}

	reminderCounts, err := h.reminders.CountByStatus(user.ID)
	if err != nil {
		return serviceError(c, err, "/dashboard")
	}
	upcomingReminders, err := h.reminders.Upcoming(user.ID, 5, now)
	if err != nil {
		return serviceError(c, err, "/dashboard")
	}

	recentActivity, err := h.activity.Recent(10)
	if err != nil {
		return serviceError(c, err, "/dashboard")
	}

	settings, err := h.settings.All()
	if err != nil {
		return serviceError(c, err, "/dashboard")
	}

	return view.Success(c, fiber.Map{
		"settings": settings,
		"contacts": fiber.Map{
			"total":          totalContacts,
			"by_lead_status": byLeadStatus,
			"by_lead_source": byLeadSource,
			"by_owner":       byOwner,
			"recent":         recentContacts,
		},
		"deals": fiber.Map{
			"by_stage":       stageMetrics,
			"forecast":       forecast,
			"won_this_month": wonThisMonth,
		},
		"interactions": fiber.Map{
			"by_month":         monthCounts,
			"by_type":          byType,
			"upcoming_planned": upcomingPlanned,
		},
		"events": fiber.Map{
			"by_day_of_week": dayOfWeek,
			"upcoming":       upcomingEvents,
		},
		"reminders": fiber.Map{
			"by_status": reminderCounts,
			"upcoming":  upcomingReminders,
		},
		"activity": recentActivity,
	})
}

// data refreshes a single stat block, selected by the type query
// parameter. Always AJAX-invoked.
func (h *DashboardHandler) data(c *fiber.Ctx, _ []string) error {
	user := currentUser(c)
	now := time.Now()
	switch c.Query("type") {
	case "contacts_by_status":
		counts, err := h.contacts.CountByLeadStatus()
		if err != nil {
			return serviceError(c, err, "/dashboard")
		}
		return view.Success(c, fiber.Map{"data": counts})
	case "contacts_by_source":
		counts, err := h.contacts.CountByLeadSource()
		if err != nil {
			return serviceError(c, err, "/dashboard")
		}
		return view.Success(c, fiber.Map{"data": counts})
	case "deals_by_stage":
		metrics, err := h.deals.ValueByStage()
		if err != nil {
			return serviceError(c, err, "/dashboard")
		}
		return view.Success(c, fiber.Map{"data": metrics})
	case "forecast":
		forecast, err := h.deals.Forecast()
		if err != nil {
			return serviceError(c, err, "/dashboard")
		}
		return view.Success(c, fiber.Map{"data": forecast})
	case "won_value":
		value, err := h.deals.WonValueForPeriod(c.Query("period"), now)
		if err != nil {
			return serviceError(c, err, "/dashboard")
		}
		return view.Success(c, fiber.Map{"data": value})
	case "interactions_by_month":
		counts, err := h.interactions.CountByMonth(now.Year())
		if err != nil {
			return serviceError(c, err, "/dashboard")
		}
		return view.Success(c, fiber.Map{"data": counts})
	case "events_by_day":
		counts, err := h.events.CountByDayOfWeek(user.ID, 4, now)
		if err != nil {
			return serviceError(c, err, "/dashboard")
		}
		return view.Success(c, fiber.Map{"data": counts})
	case "reminders_by_status":
		counts, err := h.reminders.CountByStatus(user.ID)
		if err != nil {
			return serviceError(c, err, "/dashboard")
		}
		return view.Success(c, fiber.Map{"data": counts})
	default:
		return view.Error(c, fiber.StatusBadRequest, "Unknown data type")
	}
}

// theme toggles the UI theme in both session and profile. Always
// AJAX-invoked.
func (h *DashboardHandler) theme(c *fiber.Ctx, _ []string) error {
	if c.Method() != fiber.MethodPost {
		return fiber.ErrMethodNotAllowed
	}
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	user := currentUser(c)
	sess := sessionCtx(c)
	theme := "light"
	if sess.Theme() == "light" {
		theme = "dark"
	}
	if err := h.users.SetTheme(user.ID, theme); err != nil {
		return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
	}
	sess.SetTheme(theme)
	if err := sess.Save(); err != nil {
		return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
	}
	return view.Success(c, fiber.Map{"theme": theme})
}

// manageSettings lets administrators view and update application settings.
func (h *DashboardHandler) manageSettings(c *fiber.Ctx, _ []string) error {
	user := currentUser(c)
	if user == nil || user.Role == nil || user.Role.Name != models.RoleAdmin {
		return securityRedirect(c, "Administrator access required")
	}
	if c.Method() != fiber.MethodPost {
		values, err := h.settings.All()
		if err != nil {
			return serviceError(c, err, "/dashboard")
		}
		token, err := sessionCtx(c).CSRFToken(time.Now())
		if err != nil {
			return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
		}
		if err := sessionCtx(c).Save(); err != nil {
			return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
		}
		return view.Success(c, fiber.Map{"settings": values, "csrf_token": token})
	}
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	key := c.FormValue("key")
	if key == "" {
		return validationError(c, fieldErrors{"key": "This field is required"})
	}
	if err := h.settings.Set(key, c.FormValue("value")); err != nil {
		return serviceError(c, err, "/dashboard")
	}
	h.activity.Log(user.ID, "update_setting", "setting", 0,
		map[string]interface{}{"key": key}, c.IP())
	return flashRedirect(c, fiber.StatusOK, "success", "Setting updated", "/dashboard")
}
