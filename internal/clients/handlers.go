package clients

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aldoetobex/lawcase-backend/internal/auth"
	"github.com/aldoetobex/lawcase-backend/pkg/apperr"
	"github.com/aldoetobex/lawcase-backend/pkg/audit"
	"github.com/aldoetobex/lawcase-backend/pkg/models"
	"github.com/aldoetobex/lawcase-backend/pkg/query"
	"github.com/aldoetobex/lawcase-backend/pkg/validation"
)

// ===== DTOs =====

type CreateClientRequest struct {
	FirmCode string `json:"firm_code"`
	Fields
}

type UpdateClientRequest struct {
	FirmCode string `json:"firm_code"`
	Patch
}

type Handler struct{ db *gorm.DB }

func NewHandler(db *gorm.DB) *Handler { return &Handler{db: db} }

func parseID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperr.Invalid(name, "Invalid UUID format")
	}
	return id, nil
}

// List Clients godoc
// @Summary      List clients
// @Description  Paginated clients of a firm; query matches name or phone
// @Tags         clients
// @Produce      json
// @Param        firm_code  query string false "firm code (defaults to the token's firm)"
// @Param        query      query string false "keyword"
// @Param        page       query int    false "page"
// @Param        page_size  query int    false "page size (1-100)"
// @Success      200  {object}  models.Page[models.Client]
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      403  {object}  models.ErrorResponse  "plan required"
// @Router       /clients [get]
func (h *Handler) List(c *fiber.Ctx) error {
	ctx := c.UserContext()
	firm, err := auth.ResolveFirm(c, h.db, c.Query("firm_code"))
	if err != nil {
		return err
	}
	p := query.Params{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", query.DefaultPageSize),
		Keyword:  c.Query("query"),
	}
	page, err := query.Clients(ctx, h.db, firm.ID, p)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// Create Client godoc
// @Summary      Create client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        payload  body  CreateClientRequest  true  "Client payload"
// @Success      201  {object}  models.Client
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      409  {object}  models.ErrorResponse  "duplicate client"
// @Router       /clients [post]
func (h *Handler) Create(c *fiber.Ctx) error {
	var in CreateClientRequest
	if err := c.BodyParser(&in); err != nil {
		return apperr.BadRequest("invalid json")
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Check(in.Fields); err != nil {
		return err
	}
	ctx := c.UserContext()

	var out *models.Client
	err := audit.Transaction(ctx, h.db, func(tx *gorm.DB) error {
		firm, err := auth.ResolveFirm(c, tx, in.FirmCode)
		if err != nil {
			return err
		}
		out, err = create(ctx, tx, firm.ID, in.Fields, auth.ActorID(c))
		return err
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Get Client godoc
// @Summary      Client detail
// @Tags         clients
// @Produce      json
// @Param        id         path  string true  "client id"
// @Param        firm_code  query string false "firm code"
// @Success      200  {object}  models.Client
// @Failure      404  {object}  models.ErrorResponse
// @Router       /clients/{id} [get]
func (h *Handler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	firm, err := auth.ResolveFirm(c, h.db, c.Query("firm_code"))
	if err != nil {
		return err
	}
	out, err := get(c.UserContext(), h.db, firm.ID, id)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Update Client godoc
// @Summary      Update client
// @Description  Partial update; omitted fields stay unchanged
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        id       path  string               true  "client id"
// @Param        payload  body  UpdateClientRequest  true  "Fields to change"
// @Success      200  {object}  models.Client
// @Failure      404  {object}  models.ErrorResponse
// @Failure      409  {object}  models.ErrorResponse
// @Router       /clients/{id} [patch]
func (h *Handler) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var in UpdateClientRequest
	if err := c.BodyParser(&in); err != nil {
		return apperr.BadRequest("invalid json")
	}
	if in.Name != nil {
		n := strings.TrimSpace(*in.Name)
		if n == "" {
			return apperr.Invalid("name", "This field is required")
		}
		in.Name = &n
	}
	if err := validation.Check(in.Patch); err != nil {
		return err
	}
	ctx := c.UserContext()

	var out *models.Client
	err = audit.Transaction(ctx, h.db, func(tx *gorm.DB) error {
		firm, err := auth.ResolveFirm(c, tx, in.FirmCode)
		if err != nil {
			return err
		}
		out, err = update(ctx, tx, firm.ID, id, in.Patch, auth.ActorID(c))
		return err
	})
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Delete Client godoc
// @Summary      Delete client
// @Description  Linked cases are kept with their client cleared
// @Tags         clients
// @Param        id         path  string true  "client id"
// @Param        firm_code  query string false "firm code"
// @Success      204
// @Failure      404  {object}  models.ErrorResponse
// @Router       /clients/{id} [delete]
func (h *Handler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	err = audit.Transaction(ctx, h.db, func(tx *gorm.DB) error {
		firm, err := auth.ResolveFirm(c, tx, c.Query("firm_code"))
		if err != nil {
			return err
		}
		return remove(ctx, tx, firm.ID, id, auth.ActorID(c))
	})
	if err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
