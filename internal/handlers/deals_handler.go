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

type DealsHandler struct {
	deals    *services.DealService
	activity *services.ActivityService
	cfg      *config.Config
}

func NewDealsHandler(deals *services.DealService, activity *services.ActivityService, cfg *config.Config) *DealsHandler {
	return &DealsHandler{deals: deals, activity: activity, cfg: cfg}
}

func (h *DealsHandler) Name() string { return "deals" }

func (h *DealsHandler) Actions() map[string]router.Action {
	return map[string]router.Action{
		"index":    h.index,
		"view":     h.view,
		"add":      h.add,
		"edit":     h.edit,
		"delete":   h.delete,
		"stage":    h.stage,
		"pipeline": h.pipeline,
	}
}

func (h *DealsHandler) filterFromQuery(c *fiber.Ctx) dto.DealFilter {
	contactID, _ := strconv.ParseUint(c.Query("contact_id"), 10, 32)
	filter := dto.DealFilter{
		Search:    c.Query("search"),
		ContactID: uint(contactID),
		Stage:     c.Query("stage"),
	}
	if raw := c.Query("owner_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			owner := uint(id)
			filter.OwnerID = &owner
		}
	}
	return filter
}

func (h *DealsHandler) index(c *fiber.Ctx, _ []string) error {
	filter := h.filterFromQuery(c)
	opts := listOptions(c, h.cfg.ItemsPerPage)
	total, err := h.deals.Count(filter)
	if err != nil {
		return serviceError(c, err, "/dashboard")
	}
	deals, err := h.deals.List(filter, opts)
	if err != nil {
		return serviceError(c, err, "/dashboard")
	}
	return view.Success(c, fiber.Map{
		"deals":  deals,
		"meta":   dto.NewListMeta(total, opts),
		"stages": models.DealStages,
	})
}

func (h *DealsHandler) view(c *fiber.Ctx, params []string) error {
	id, ok := parseID(c, params)
	if !ok {
		return flashRedirect(c, fiber.StatusNotFound, "error", "Deal not found", "/deals")
	}
	deal, err := h.deals.Get(id)
	if err != nil {
		return serviceError(c, err, "/deals")
	}
	return view.Success(c, fiber.Map{"deal": deal})
}

func (h *DealsHandler) add(c *fiber.Ctx, _ []string) error {
	if c.Method() != fiber.MethodPost {
		token, err := sessionCtx(c).CSRFToken(time.Now())
		if err != nil {
			return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
		}
		if err := sessionCtx(c).Save(); err != nil {
			return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
		}
		return view.Success(c, fiber.Map{"stages": models.DealStages, "csrf_token": token})
	}
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	var req dto.DealRequest
	if err := c.BodyParser(&req); err != nil {
		return view.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	fields := fieldErrors{}
	fields.required("title", req.Title)
	if req.ContactID == 0 {
		fields["contact_id"] = "This field is required"
	}
	if !fields.ok() {
		return validationError(c, fields)
	}
	deal, err := h.deals.Create(req, currentUser(c).ID, time.Now())
	if err != nil {
		return serviceError(c, err, "/deals")
	}
	h.activity.Log(currentUser(c).ID, "create_deal", "deal", deal.ID,
		map[string]interface{}{"title": deal.Title, "amount": deal.Amount}, c.IP())
	return flashRedirect(c, fiber.StatusOK, "success", "Deal created", "/deals")
}

func (h *DealsHandler) edit(c *fiber.Ctx, params []string) error {
	id, ok := parseID(c, params)
	if !ok {
		return flashRedirect(c, fiber.StatusNotFound, "error", "Deal not found", "/deals")
	}
	if c.Method() != fiber.MethodPost {
		deal, err := h.deals.Get(id)
		if err != nil {
			return serviceError(c, err, "/deals")
		}
		token, err := sessionCtx(c).CSRFToken(time.Now())
		if err != nil {
			return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
		}
		if err := sessionCtx(c).Save(); err != nil {
			return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
		}
		return view.Success(c, fiber.Map{"deal": deal, "stages": models.DealStages, "csrf_token": token})
	}
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	var req dto.DealRequest
	if err := c.BodyParser(&req); err != nil {
		return view.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	fields := fieldErrors{}
	fields.required("title", req.Title)
	if req.ContactID == 0 {
		fields["contact_id"] = "This field is required"
	}
	if !fields.ok() {
		return validationError(c, fields)
	}
	if err := h.deals.Update(id, req, time.Now()); err != nil {
		return serviceError(c, err, "/deals")
	}
	h.activity.Log(currentUser(c).ID, "update_deal", "deal", id, nil, c.IP())
	return flashRedirect(c, fiber.StatusOK, "success", "Deal updated", "/deals")
}

func (h *DealsHandler) delete(c *fiber.Ctx, params []string) error {
	if c.Method() != fiber.MethodPost {
		return fiber.ErrMethodNotAllowed
	}
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	id, ok := parseID(c, params)
	if !ok {
		return flashRedirect(c, fiber.StatusNotFound, "error", "Deal not found", "/deals")
	}
	if err := h.deals.Delete(id); err != nil {
		return serviceError(c, err, "/deals")
	}
	h.activity.Log(currentUser(c).ID, "delete_deal", "deal", id, nil, c.IP())
	return flashRedirect(c, fiber.StatusOK, "success", "Deal deleted", "/deals")
}

// stage moves a deal along the pipeline. Always AJAX-invoked from the
// board.
func (h *DealsHandler) stage(c *fiber.Ctx, params []string) error {
	if c.Method() != fiber.MethodPost {
		return fiber.ErrMethodNotAllowed
	}
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	id, ok := parseID(c, params)
	if !ok {
		return view.Error(c, fiber.StatusNotFound, "Deal not found")
	}
	stage := c.FormValue("stage")
	if err := h.deals.UpdateStage(id, stage, time.Now()); err != nil {
		return serviceError(c, err, "/deals")
	}
	h.activity.Log(currentUser(c).ID, "update_deal_stage", "deal", id,
		map[string]interface{}{"stage": stage}, c.IP())
	return view.Success(c, fiber.Map{"stage": stage, "probability": models.DefaultProbability(stage)})
}

func (h *DealsHandler) pipeline(c *fiber.Ctx, _ []string) error {
	board, err := h.deals.Pipeline()
	if err != nil {
		return serviceError(c, err, "/deals")
	}
	metrics, err := h.deals.ValueByStage()
	if err != nil {
		return serviceError(c, err, "/deals")
	}
	return view.Success(c, fiber.Map{"board": board, "stages": metrics})
}
