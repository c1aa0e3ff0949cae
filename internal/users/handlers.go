package users

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aldoetobex/lawcase-backend/internal/auth"
	"github.com/aldoetobex/lawcase-backend/internal/identity"
	"github.com/aldoetobex/lawcase-backend/pkg/apperr"
	"github.com/aldoetobex/lawcase-backend/pkg/models"
	"github.com/aldoetobex/lawcase-backend/pkg/validation"
)

type CreateUserRequest struct {
	FirmCode        string `json:"firm_code"`
	Username        string `json:"username" validate:"required,max=60,firmcode"`
	FullName        string `json:"full_name" validate:"required,min=2,max=120"`
	Email           string `json:"email" validate:"omitempty,email,max=120"`
	Phone           string `json:"phone" validate:"max=40"`
	Role            string `json:"role" validate:"required,oneof=admin staff"`
	Password        string `json:"password" validate:"required,bcryptlen,strongpassword"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type Handler struct {
	db  *gorm.DB
	ids *identity.Service
}

func NewHandler(db *gorm.DB, ids *identity.Service) *Handler {
	return &Handler{db: db, ids: ids}
}

// List Users godoc
// @Summary      List users
// @Description  Active users of the firm
// @Tags         users
// @Produce      json
// @Param        firm_code  query string false "firm code"
// @Success      200  {array}   models.User
// @Failure      403  {object}  models.ErrorResponse
// @Router       /users [get]
func (h *Handler) List(c *fiber.Ctx) error {
	firm, err := auth.ResolveFirm(c, h.db, c.Query("firm_code"))
	if err != nil {
		return err
	}
	out, err := identity.ActiveUsers(c.UserContext(), h.db, firm.ID)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Create User godoc
// @Summary      Create user
// @Description  Adds a user with a password; limited by the plan's seats
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        payload  body  CreateUserRequest  true  "User"
// @Success      201  {object}  models.User
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      409  {object}  models.ErrorResponse  "seat limit reached / username taken"
// @Router       /users [post]
func (h *Handler) Create(c *fiber.Ctx) error {
	var in CreateUserRequest
	if err := c.BodyParser(&in); err != nil {
		return apperr.BadRequest("invalid json")
	}
	in.Username = strings.TrimSpace(in.Username)
	in.FullName = strings.TrimSpace(in.FullName)
	if err := validation.Check(in); err != nil {
		return err
	}
	firm, err := auth.ResolveFirm(c, h.db, in.FirmCode)
	if err != nil {
		return err
	}
	u, err := h.ids.AddUser(c.UserContext(), firm.ID, identity.NewUser{
		Username: in.Username,
		FullName: in.FullName,
		Email:    in.Email,
		Phone:    in.Phone,
		Role:     models.Role(in.Role),
		Password: in.Password,
	}, auth.ActorID(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(u)
}

// Delete User godoc
// @Summary      Remove user
// @Description  Deactivates the user and frees a seat; requires the firm password
// @Tags         users
// @Param        id              path  string true "user id"
// @Param        firm_code       query string false "firm code"
// @Param        admin_password  query string true "firm password"
// @Success      204
// @Failure      401  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Failure      409  {object}  models.ErrorResponse  "cannot remove the last admin"
// @Router       /users/{id} [delete]
func (h *Handler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperr.Invalid("id", "Invalid UUID format")
	}
	pw := c.Query("admin_password")
	if pw == "" {
		return apperr.Invalid("admin_password", "This field is required")
	}
	firm, err := auth.ResolveFirm(c, h.db, c.Query("firm_code"))
	if err != nil {
		return err
	}
	if err := h.ids.DeactivateUser(c.UserContext(), firm, id, pw, auth.ActorID(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
