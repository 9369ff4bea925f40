package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/flopysoft/flopy-crm/internal/config"
	"github.com/flopysoft/flopy-crm/internal/dto"
	"github.com/flopysoft/flopy-crm/internal/models"
	"github.com/flopysoft/flopy-crm/internal/router"
	"github.com/flopysoft/flopy-crm/internal/services"
	"github.com/flopysoft/flopy-crm/internal/view"
)

type InteractionsHandler struct {
	interactions *services.InteractionService
	activity     *services.ActivityService
	cfg          *config.Config
}

func NewInteractionsHandler(interactions *services.InteractionService, activity *services.ActivityService, cfg *config.Config) *InteractionsHandler {
	return &InteractionsHandler{interactions: interactions, activity: activity, cfg: cfg}
}

func (h *InteractionsHandler) Name() string { return "interactions" }

func (h *InteractionsHandler) Actions() map[string]router.Action {
	return map[string]router.Action{
		"index":  h.index,
		"add":    h.add,
		"edit":   h.edit,
		"delete": h.delete,
		"status": h.status,
	}
}

func (h *InteractionsHandler) index(c *fiber.Ctx, _ []string) error {
	contactID, _ := strconv.ParseUint(c.Query("contact_id"), 10, 32)
	filter := dto.InteractionFilter{
		ContactID: uint(contactID),
		Type:      c.Query("type"),
		Status:    c.Query("status"),
	}
	opts := listOptions(c, h.cfg.ItemsPerPage)
	total, err := h.interactions.Count(filter)
	if err != nil {
		return serviceError(c, err, "/dashboard")
	}
	interactions, err := h.interactions.List(filter, opts)
	if err != nil {
		return serviceError(c, err, "/dashboard")
	}
	return view.Success(c, fiber.Map{
		"interactions": interactions,
		"meta":         dto.NewListMeta(total, opts),
		"types":        models.InteractionTypes,
		"statuses":     models.InteractionStatuses,
	})
}

func (h *InteractionsHandler) add(c *fiber.Ctx, _ []string) error {
	if c.Method() != fiber.MethodPost {
		token, err := sessionCtx(c).CSRFToken(time.Now())
		if err != nil {
			return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
		}
		if err := sessionCtx(c).Save(); err != nil {
			return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
		}
		return view.Success(c, fiber.Map{"types": models.InteractionTypes, "csrf_token": token})
	}
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	var req dto.InteractionRequest
	if err := c.BodyParser(&req); err != nil {
		return view.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	fields := fieldErrors{}
	fields.required("subject", req.Subject)
	fields.required("date", req.Date)
	if req.ContactID == 0 {
		fields["contact_id"] = "This field is required"
	}
	if !fields.ok() {
		return validationError(c, fields)
	}
	interaction, err := h.interactions.Create(req, currentUser(c).ID)
	if err != nil {
		return serviceError(c, err, "/interactions")
	}
	h.activity.Log(currentUser(c).ID, "create_interaction", "interaction", interaction.ID,
		map[string]interface{}{"type": interaction.Type}, c.IP())
	return flashRedirect(c, fiber.StatusOK, "success", "Interaction recorded", "/interactions")
}

func (h *InteractionsHandler) edit(c *fiber.Ctx, params []string) error {
	id, ok := parseID(c, params)
	if !ok {
		return flashRedirect(c, fiber.StatusNotFound, "error", "Interaction not found", "/interactions")
	}
	if c.Method() != fiber.MethodPost {
		interaction, err := h.interactions.Get(id)
		if err != nil {
			return serviceError(c, err, "/interactions")
		}
		token, err := sessionCtx(c).CSRFToken(time.Now())
		if err != nil {
			return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
		}
		if err := sessionCtx(c).Save(); err != nil {
			return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
		}
		return view.Success(c, fiber.Map{
			"interaction": interaction,
			"types":       models.InteractionTypes,
			"statuses":    models.InteractionStatuses,
			"csrf_token":  token,
		})
	}
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	var req dto.InteractionRequest
	if err := c.BodyParser(&req); err != nil {
		return view.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	fields := fieldErrors{}
	fields.required("subject", req.Subject)
	fields.required("date", req.Date)
	if !fields.ok() {
		return validationError(c, fields)
	}
	if err := h.interactions.Update(id, req); err != nil {
		return serviceError(c, err, "/interactions")
	}
	h.activity.Log(currentUser(c).ID, "update_interaction", "interaction", id, nil, c.IP())
	return flashRedirect(c, fiber.StatusOK, "success", "Interaction updated", "/interactions")
}

func (h *InteractionsHandler) delete(c *fiber.Ctx, params []string) error {
	if c.Method() != fiber.MethodPost {
		return fiber.ErrMethodNotAllowed
	}
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	id, ok := parseID(c, params)
	if !ok {
		return flashRedirect(c, fiber.StatusNotFound, "error", "Interaction not found", "/interactions")
	}
	if err := h.interactions.Delete(id); err != nil {
		return serviceError(c, err, "/interactions")
	}
	h.activity.Log(currentUser(c).ID, "delete_interaction", "interaction", id, nil, c.IP())
	return flashRedirect(c, fiber.StatusOK, "success", "Interaction deleted", "/interactions")
}

// status completes or cancels an interaction, recording the outcome.
// Always AJAX-invoked.
func (h *InteractionsHandler) status(c *fiber.Ctx, params []string) error {
	if c.Method() != fiber.MethodPost {
		return fiber.ErrMethodNotAllowed
	}
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	id, ok := parseID(c, params)
	if !ok {
		return view.Error(c, fiber.StatusNotFound, "Interaction not found")
	}
	status := c.FormValue("status")
	outcome := c.FormValue("outcome")
	if err := h.interactions.UpdateStatus(id, status, outcome); err != nil {
		return serviceError(c, err, "/interactions")
	}
	h.activity.Log(currentUser(c).ID, "update_interaction_status", "interaction", id,
		map[string]interface{}{"status": status}, c.IP())
	return view.Success(c, fiber.Map{"status": status})
}
