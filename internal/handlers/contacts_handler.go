package handlers

import (
	"bytes"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/flopysoft/flopy-crm/internal/config"
	"github.com/flopysoft/flopy-crm/internal/dto"
	"github.com/flopysoft/flopy-crm/internal/router"
	"github.com/flopysoft/flopy-crm/internal/services"
	"github.com/flopysoft/flopy-crm/internal/view"
)

type ContactsHandler struct {
	contacts     *services.ContactService
	tags         *services.TagService
	interactions *services.InteractionService
	deals        *services.DealService
	activity     *services.ActivityService
	files        *services.FileService
	cfg          *config.Config
}

func NewContactsHandler(
	contacts *services.ContactService,
	tags *services.TagService,
	interactions *services.InteractionService,
	deals *services.DealService,
	activity *services.ActivityService,
	files *services.FileService,
	cfg *config.Config,
) *ContactsHandler {
	return &ContactsHandler{
		contacts:     contacts,
		tags:         tags,
		interactions: interactions,
		deals:        deals,
		activity:     activity,
		files:        files,
		cfg:          cfg,
	}
}

func (h *ContactsHandler) Name() string { return "contacts" }

func (h *ContactsHandler) Actions() map[string]router.Action {
	return map[string]router.Action{
		"index":     h.index,
		"view":      h.view,
		"add":       h.add,
		"edit":      h.edit,
		"delete":    h.delete,
		"avatar":    h.avatar,
		"import":    h.importCSV,
		"export":    h.exportCSV,
		"tags":      h.tagList,
		"addtag":    h.addTag,
		"edittag":   h.editTag,
		"deletetag": h.deleteTag,
	}
}

// filterFromQuery reads the recognized contact filters; absent keys
// impose no constraint.
func (h *ContactsHandler) filterFromQuery(c *fiber.Ctx) dto.ContactFilter {
	filter := dto.ContactFilter{
		Search:     c.Query("search"),
		LeadStatus: c.Query("lead_status"),
		LeadSource: c.Query("lead_source"),
	}
	if raw := c.Query("owner_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			owner := uint(id)
			filter.OwnerID = &owner
		}
	}
	if tags := c.Context().QueryArgs().PeekMulti("tag"); len(tags) > 0 {
		raw := make([]string, len(tags))
		for i, t := range tags {
			raw[i] = string(t)
		}
		filter.TagIDs = services.ParseTagIDs(raw)
	}
	return filter
}

func (h *ContactsHandler) index(c *fiber.Ctx, _ []string) error {
	filter := h.filterFromQuery(c)
	opts := listOptions(c, h.cfg.ItemsPerPage)
	total, err := h.contacts.Count(filter)
	if err != nil {
		return serviceError(c, err, "/dashboard")
	}
	contacts, err := h.contacts.List(filter, opts)
	if err != nil {
		return serviceError(c, err, "/dashboard")
	}
	tags, err := h.tags.List()
	if err != nil {
		return serviceError(c, err, "/dashboard")
	}
	sources, _ := h.contacts.LeadSources()
	statuses, _ := h.contacts.LeadStatuses()
	return view.Success(c, fiber.Map{
		"contacts":      contacts,
		"meta":          dto.NewListMeta(total, opts),
		"tags":          tags,
		"lead_sources":  sources,
		"lead_statuses": statuses,
	})
}

func (h *ContactsHandler) view(c *fiber.Ctx, params []string) error {
	id, ok := parseID(c, params)
	if !ok {
		return flashRedirect(c, fiber.StatusNotFound, "error", "Contact not found", "/contacts")
	}
	contact, err := h.contacts.Get(id)
	if err != nil {
		return serviceError(c, err, "/contacts")
	}
	interactions, err := h.interactions.List(
		dto.InteractionFilter{ContactID: id},
		dto.ListOptions{Sort: "date", Dir: "DESC"},
	)
	if err != nil {
		return serviceError(c, err, "/contacts")
	}
	deals, err := h.deals.List(dto.DealFilter{ContactID: id}, dto.ListOptions{})
	if err != nil {
		return serviceError(c, err, "/contacts")
	}
	files, _ := h.files.ForRelated("contact", id)
	return view.Success(c, fiber.Map{
		"contact":      contact,
		"interactions": interactions,
		"deals":        deals,
		"files":        files,
	})
}

func (h *ContactsHandler) add(c *fiber.Ctx, _ []string) error {
	if c.Method() != fiber.MethodPost {
		return h.formPayload(c)
	}
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	var req dto.ContactRequest
	if err := c.BodyParser(&req); err != nil {
		return view.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	fields := fieldErrors{}
	fields.required("first_name", req.FirstName)
	fields.required("last_name", req.LastName)
	fields.email("email", req.Email)
	if !fields.ok() {
		return validationError(c, fields)
	}
	contact, err := h.contacts.Create(req, currentUser(c).ID)
	if err != nil {
		return serviceError(c, err, "/contacts")
	}
	h.activity.Log(currentUser(c).ID, "create_contact", "contact", contact.ID,
		map[string]interface{}{"name": contact.FullName()}, c.IP())
	return flashRedirect(c, fiber.StatusOK, "success", "Contact created", "/contacts")
}

func (h *ContactsHandler) edit(c *fiber.Ctx, params []string) error {
	id, ok := parseID(c, params)
	if !ok {
		return flashRedirect(c, fiber.StatusNotFound, "error", "Contact not found", "/contacts")
	}
	if c.Method() != fiber.MethodPost {
		contact, err := h.contacts.Get(id)
		if err != nil {
			return serviceError(c, err, "/contacts")
		}
		tags, err := h.tags.List()
		if err != nil {
			return serviceError(c, err, "/contacts")
		}
		token, err := sessionCtx(c).CSRFToken(time.Now())
		if err != nil {
			return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
		}
		if err := sessionCtx(c).Save(); err != nil {
			return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
		}
		return view.Success(c, fiber.Map{"contact": contact, "tags": tags, "csrf_token": token})
	}
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	var req dto.ContactRequest
	if err := c.BodyParser(&req); err != nil {
		return view.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	fields := fieldErrors{}
	fields.required("first_name", req.FirstName)
	fields.required("last_name", req.LastName)
	fields.email("email", req.Email)
	if !fields.ok() {
		return validationError(c, fields)
	}
	if err := h.contacts.Update(id, req); err != nil {
		return serviceError(c, err, "/contacts")
	}
	h.activity.Log(currentUser(c).ID, "update_contact", "contact", id, nil, c.IP())
	return flashRedirect(c, fiber.StatusOK, "success", "Contact updated", "/contacts")
}

func (h *ContactsHandler) formPayload(c *fiber.Ctx) error {
	tags, err := h.tags.List()
	if err != nil {
		return serviceError(c, err, "/contacts")
	}
	token, err := sessionCtx(c).CSRFToken(time.Now())
	if err != nil {
		return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
	}
	if err := sessionCtx(c).Save(); err != nil {
		return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
	}
	return view.Success(c, fiber.Map{"tags": tags, "csrf_token": token})
}

func (h *ContactsHandler) delete(c *fiber.Ctx, params []string) error {
	if c.Method() != fiber.MethodPost {
		return fiber.ErrMethodNotAllowed
	}
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	id, ok := parseID(c, params)
	if !ok {
		return flashRedirect(c, fiber.StatusNotFound, "error", "Contact not found", "/contacts")
	}
	if err := h.contacts.Delete(id); err != nil {
		return serviceError(c, err, "/contacts")
	}
	h.activity.Log(currentUser(c).ID, "delete_contact", "contact", id, nil, c.IP())
	return flashRedirect(c, fiber.StatusOK, "success", "Contact deleted", "/contacts")
}

// avatar stores a contact photo. Always AJAX-invoked.
func (h *ContactsHandler) avatar(c *fiber.Ctx, params []string) error {
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	id, ok := parseID(c, params)
	if !ok {
		return view.Error(c, fiber.StatusNotFound, "Contact not found")
	}
	filename, header, err := saveImage(c, h.cfg, "avatar")
	if err != nil {
		return view.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err := h.contacts.SetAvatar(id, filename); err != nil {
		return serviceError(c, err, "/contacts")
	}
	_, _ = h.files.Record(currentUser(c).ID, "contact", id, filename,
		header.Filename, header.Header.Get("Content-Type"), header.Size)
	h.activity.Log(currentUser(c).ID, "upload_avatar", "contact", id,
		map[string]interface{}{"filename": filename}, c.IP())
	return view.Success(c, fiber.Map{"filename": filename})
}

// importCSV runs a header-validated, per-row import and reports how many
// rows succeeded and failed.
func (h *ContactsHandler) importCSV(c *fiber.Ctx, _ []string) error {
	if c.Method() != fiber.MethodPost {
		return fiber.ErrMethodNotAllowed
	}
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	header, err := c.FormFile("file")
	if err != nil {
		return view.Error(c, fiber.StatusBadRequest, "No file uploaded")
	}
	file, err := header.Open()
	if err != nil {
		return view.Error(c, fiber.StatusBadRequest, "Could not read upload")
	}
	defer file.Close()

	rows, err := view.ParseContactCSV(file)
	if err != nil {
		return view.Error(c, fiber.StatusUnprocessableEntity, err.Error())
	}
	requests := make([]dto.ContactRequest, len(rows))
	for i, row := range rows {
		requests[i] = dto.ContactRequest{
			FirstName: row.FirstName,
			LastName:  row.LastName,
			Email:     row.Email,
			Phone:     row.Phone,
			Company:   row.Company,
			Position:  row.Position,
			Address:   row.Address,
			City:      row.City,
			Country:   row.Country,
			Notes:     row.Notes,
		}
	}
	result, err := h.contacts.Import(requests, currentUser(c).ID)
	if err != nil {
		return serviceError(c, err, "/contacts")
	}
	h.activity.Log(currentUser(c).ID, "import_contacts", "contact", 0,
		map[string]interface{}{"imported": result.Imported, "failed": result.Failed}, c.IP())
	return view.Success(c, fiber.Map{"imported": result.Imported, "failed": result.Failed})
}

// exportCSV streams the filtered contact set as a CSV download.
func (h *ContactsHandler) exportCSV(c *fiber.Ctx, _ []string) error {
	contacts, err := h.contacts.ForExport(h.filterFromQuery(c))
	if err != nil {
		return serviceError(c, err, "/contacts")
	}
	var buf bytes.Buffer
	if err := view.WriteContactCSV(&buf, contacts); err != nil {
		return view.Error(c, fiber.StatusInternalServerError, "Something went wrong")
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="contacts.csv"`)
	return c.Send(buf.Bytes())
}

func (h *ContactsHandler) tagList(c *fiber.Ctx, _ []string) error {
	tags, err := h.tags.List()
	if err != nil {
		return serviceError(c, err, "/contacts")
	}
	return view.Success(c, fiber.Map{"tags": tags})
}

func (h *ContactsHandler) addTag(c *fiber.Ctx, _ []string) error {
	if c.Method() != fiber.MethodPost {
		return fiber.ErrMethodNotAllowed
	}
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	var req dto.TagRequest
	if err := c.BodyParser(&req); err != nil {
		return view.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	fields := fieldErrors{}
	fields.required("name", req.Name)
	if !fields.ok() {
		return validationError(c, fields)
	}
	tag, err := h.tags.Create(req, currentUser(c).ID)
	if err != nil {
		return serviceError(c, err, "/contacts/tags")
	}
	h.activity.Log(currentUser(c).ID, "create_tag", "tag", tag.ID, nil, c.IP())
	return view.Success(c, fiber.Map{"tag": tag})
}

func (h *ContactsHandler) editTag(c *fiber.Ctx, params []string) error {
	if c.Method() != fiber.MethodPost {
		return fiber.ErrMethodNotAllowed
	}
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	id, ok := parseID(c, params)
	if !ok {
		return view.Error(c, fiber.StatusNotFound, "Tag not found")
	}
	var req dto.TagRequest
	if err := c.BodyParser(&req); err != nil {
		return view.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.tags.Update(id, req); err != nil {
		return serviceError(c, err, "/contacts/tags")
	}
	h.activity.Log(currentUser(c).ID, "update_tag", "tag", id, nil, c.IP())
	return view.Success(c, fiber.Map{})
}

func (h *ContactsHandler) deleteTag(c *fiber.Ctx, params []string) error {
	if c.Method() != fiber.MethodPost {
		return fiber.ErrMethodNotAllowed
	}
	if ok, err := requireCSRF(c); !ok {
		return err
	}
	id, ok := parseID(c, params)
	if !ok {
		return view.Error(c, fiber.StatusNotFound, "Tag not found")
	}
	if err := h.tags.Delete(id); err != nil {
		return serviceError(c, err, "/contacts/tags")
	}
	h.activity.Log(currentUser(c).ID, "delete_tag", "tag", id, nil, c.IP())
	return view.Success(c, fiber.Map{})
}
