package cases

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aldoetobex/lawcase-backend/internal/auth"
	"github.com/aldoetobex/lawcase-backend/internal/storage"
	"github.com/aldoetobex/lawcase-backend/pkg/apperr"
	"github.com/aldoetobex/lawcase-backend/pkg/audit"
	"github.com/aldoetobex/lawcase-backend/pkg/models"
	"github.com/aldoetobex/lawcase-backend/pkg/query"
	"github.com/aldoetobex/lawcase-backend/pkg/validation"
)

// FileService is the external object-storage API.
type FileService interface {
	Presign(ctx context.Context, in storage.PresignRequest) (*storage.Upload, error)
	Confirm(ctx context.Context, key string) (*storage.ConfirmedFile, error)
	DownloadURL(ctx context.Context, fileID uuid.UUID) (string, error)
}

// ===== DTOs =====

type CreateCaseRequest struct {
	FirmCode string `json:"firm_code"`
	Fields
}

type UpdateCaseRequest struct {
	FirmCode string `json:"firm_code"`
	Patch
}

type Handler struct {
	db    *gorm.DB
	files FileService
}

func NewHandler(db *gorm.DB, files FileService) *Handler {
	return &Handler{db: db, files: files}
}

func parseID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperr.Invalid(name, "Invalid UUID format")
	}
	return id, nil
}

// inFirm runs fn in one transaction scoped to the resolved firm.
func (h *Handler) inFirm(c *fiber.Ctx, code string, fn func(ctx context.Context, tx *gorm.DB, firm *models.Firm) error) error {
	ctx := c.UserContext()
	return audit.Transaction(ctx, h.db, func(tx *gorm.DB) error {
		firm, err := auth.ResolveFirm(c, tx, code)
		if err != nil {
			return err
		}
		return fn(ctx, tx, firm)
	})
}

// List Cases godoc
// @Summary      List cases
// @Description  Paginated cases of a firm, newest first. query matches case number, reason or client name.
// @Tags         cases
// @Produce      json
// @Param        firm_code  query string false "firm code (defaults to the token's firm)"
// @Param        status     query string false "open | closed | all"
// @Param        query      query string false "keyword"
// @Param        page       query int    false "page"
// @Param        page_size  query int    false "page size (1-100)"
// @Success      200  {object}  models.Page[models.Case]
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Router       /cases [get]
func (h *Handler) List(c *fiber.Ctx) error {
	firm, err := auth.ResolveFirm(c, h.db, c.Query("firm_code"))
	if err != nil {
		return err
	}
	p := query.Params{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", query.DefaultPageSize),
		Keyword:  c.Query("query"),
		Status:   query.Status(c.Query("status")),
	}
	page, err := query.Cases(c.UserContext(), h.db, firm.ID, p)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// Create Case godoc
// @Summary      Create case
// @Tags         cases
// @Accept       json
// @Produce      json
// @Param        payload  body  CreateCaseRequest  true  "Case payload"
// @Success      201  {object}  models.Case
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Router       /cases [post]
func (h *Handler) Create(c *fiber.Ctx) error {
	var in CreateCaseRequest
	if err := c.BodyParser(&in); err != nil {
		return apperr.BadRequest("invalid json")
	}
	if err := validation.Check(in.Fields); err != nil {
		return err
	}
	var out *models.Case
	err := h.inFirm(c, in.FirmCode, func(ctx context.Context, tx *gorm.DB, firm *models.Firm) error {
		var err error
		out, err = createCase(ctx, tx, firm.ID, in.Fields, auth.ActorID(c))
		return err
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Get Case godoc
// @Summary      Case detail
// @Tags         cases
// @Produce      json
// @Param        id         path  string true  "case id (uuid)"
// @Param        firm_code  query string false "firm code"
// @Success      200  {object}  models.Case
// @Failure      404  {object}  models.ErrorResponse
// @Router       /cases/{id} [get]
func (h *Handler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	firm, err := auth.ResolveFirm(c, h.db, c.Query("firm_code"))
	if err != nil {
		return err
	}
	cs, err := getCase(c.UserContext(), h.db, firm.ID, id)
	if err != nil {
		return err
	}
	return c.JSON(cs)
}

// Update Case godoc
// @Summary      Update case
// @Description  Partial update; omitted fields stay unchanged
// @Tags         cases
// @Accept       json
// @Produce      json
// @Param        id       path  string             true  "case id (uuid)"
// @Param        payload  body  UpdateCaseRequest  true  "Fields to change"
// @Success      200  {object}  models.Case
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /cases/{id} [patch]
func (h *Handler) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var in UpdateCaseRequest
	if err := c.BodyParser(&in); err != nil {
		return apperr.BadRequest("invalid json")
	}
	if err := validation.Check(in.Patch); err != nil {
		return err
	}
	var out *models.Case
	err = h.inFirm(c, in.FirmCode, func(ctx context.Context, tx *gorm.DB, firm *models.Firm) error {
		var err error
		out, err = updateCase(ctx, tx, firm.ID, id, in.Patch, auth.ActorID(c))
		return err
	})
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Delete Case godoc
// @Summary      Delete case
// @Description  Removes the case with its stages, reminders, folders and file records
// @Tags         cases
// @Param        id         path  string true  "case id (uuid)"
// @Param        firm_code  query string false "firm code"
// @Success      204
// @Failure      404  {object}  models.ErrorResponse
// @Router       /cases/{id} [delete]
func (h *Handler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	err = h.inFirm(c, c.Query("firm_code"), func(ctx context.Context, tx *gorm.DB, firm *models.Firm) error {
		return deleteCase(ctx, tx, firm.ID, id, auth.ActorID(c))
	})
	if err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
