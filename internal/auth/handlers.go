package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/aldoetobex/lawcase-backend/internal/identity"
	"github.com/aldoetobex/lawcase-backend/internal/metrics"
	"github.com/aldoetobex/lawcase-backend/pkg/apperr"
	"github.com/aldoetobex/lawcase-backend/pkg/models"
	"github.com/aldoetobex/lawcase-backend/pkg/validation"
)

/* ================================ DTOs ================================= */

// Request body for /auth/login
type LoginRequest struct {
	FirmCode string `json:"firm_code" validate:"required,max=60"`
	Password string `json:"password" validate:"required,bcryptlen"`
}

// Request body for /auth/login-user
type LoginUserRequest struct {
	FirmCode string `json:"firm_code" validate:"required,max=60"`
	Username string `json:"username" validate:"required,max=120"`
	Password string `json:"password" validate:"required,bcryptlen"`
}

// Request body for /auth/setup-admin
type SetupAdminRequest struct {
	FirmID uuid.UUID `json:"firm_id" validate:"required"`
	identity.AdminProfile
}

type RegisterResponse struct {
	FirmID   uuid.UUID `json:"firm_id"`
	FirmCode string    `json:"firm_code"`
	State    string    `json:"state"`
}

type SetupAdminResponse struct {
	AdminUserID uuid.UUID `json:"admin_user_id"`
}

// SessionResponse is the login result.
type SessionResponse struct {
	identity.Session
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

/* ============================== Handler ================================= */

type Handler struct {
	ids    *identity.Service
	tokens *Tokens
}

func NewHandler(ids *identity.Service, tokens *Tokens) *Handler {
	return &Handler{ids: ids, tokens: tokens}
}

/* ============================== Register ================================ */

// @Summary      Register firm
// @Description  Create a firm account; an admin must be set up afterwards
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body  identity.RegisterInput  true  "Register payload"
// @Success      201      {object}  RegisterResponse
// @Failure      400      {object}  models.ValidationErrorResponse
// @Failure      409      {object}  models.ErrorResponse  "firm code already exists"
// @Router       /auth/register [post]
func (h *Handler) Register(c *fiber.Ctx) error {
	var in identity.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return apperr.BadRequest("invalid json")
	}
	firm, err := h.ids.Register(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(RegisterResponse{
		FirmID:   firm.ID,
		FirmCode: firm.FirmCode,
		State:    string(identity.RegisteredNoAdmin),
	})
}

/* ================================ Login ================================= */

// @Summary      Firm login
// @Description  Authenticate with the firm password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body  LoginRequest  true  "Login payload"
// @Success      200      {object}  SessionResponse
// @Failure      400      {object}  models.ValidationErrorResponse
// @Failure      401      {object}  models.ErrorResponse
// @Router       /auth/login [post]
func (h *Handler) Login(c *fiber.Ctx) error {
	var in LoginRequest
	if err := validation.Bind(c, &in); err != nil {
		return err
	}
	sess, err := h.ids.Login(c.UserContext(), in.FirmCode, in.Password)
	metrics.Login("firm", err)
	if err != nil {
		return err
	}
	return h.respondSession(c, sess)
}

// @Summary      User login
// @Description  Authenticate an individual user of a firm
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body  LoginUserRequest  true  "Login payload"
// @Success      200      {object}  SessionResponse
// @Failure      400      {object}  models.ValidationErrorResponse
// @Failure      401      {object}  models.ErrorResponse
// @Router       /auth/login-user [post]
func (h *Handler) LoginUser(c *fiber.Ctx) error {
	var in LoginUserRequest
	if err := validation.Bind(c, &in); err != nil {
		return err
	}
	sess, err := h.ids.LoginUser(c.UserContext(), in.FirmCode, in.Username, in.Password)
	metrics.Login("user", err)
	if err != nil {
		return err
	}
	return h.respondSession(c, sess)
}

func (h *Handler) respondSession(c *fiber.Ctx, sess *identity.Session) error {
	var (
		userID *uuid.UUID
		role   models.Role
	)
	if sess.User != nil {
		userID, role = &sess.User.ID, sess.User.Role
	}
	token, exp, err := h.tokens.Issue(sess.FirmID, sess.FirmCode, userID, role)
	if err != nil {
		return apperr.Internal(err)
	}
	return c.JSON(SessionResponse{Session: *sess, Token: token, ExpiresAt: exp})
}

/* ============================= Setup Admin ============================== */

// @Summary      Set up firm admin
// @Description  Create the first admin of a registered firm
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body  SetupAdminRequest  true  "Admin profile"
// @Success      201      {object}  SetupAdminResponse
// @Failure      400      {object}  models.ValidationErrorResponse
// @Failure      404      {object}  models.ErrorResponse
// @Failure      409      {object}  models.ErrorResponse  "admin already set up"
// @Router       /auth/setup-admin [post]
func (h *Handler) SetupAdmin(c *fiber.Ctx) error {
	var in SetupAdminRequest
	if err := c.BodyParser(&in); err != nil {
		return apperr.BadRequest("invalid json")
	}
	if in.FirmID == uuid.Nil {
		return apperr.Invalid("firm_id", "This field is required")
	}
	if cl := ClaimsFrom(c); cl != nil && cl.FirmID != in.FirmID {
		return apperr.Forbidden("token does not belong to this firm")
	}
	admin, err := h.ids.SetupAdmin(c.UserContext(), in.FirmID, in.AdminProfile)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(SetupAdminResponse{AdminUserID: admin.ID})
}

/* =========================== Change Password ============================ */

// @Summary      Change user password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body  identity.ChangePasswordInput  true  "Passwords"
// @Success      204
// @Failure      400      {object}  models.ValidationErrorResponse
// @Failure      401      {object}  models.ErrorResponse
// @Router       /auth/change-password [post]
func (h *Handler) ChangePassword(c *fiber.Ctx) error {
	var in identity.ChangePasswordInput
	if err := c.BodyParser(&in); err != nil {
		return apperr.BadRequest("invalid json")
	}
	if err := h.ids.ChangePassword(c.UserContext(), in); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

/* ================================= Me =================================== */

// @Summary      Current session
// @Description  Return the claims of the bearer token
// @Tags         auth
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Claims
// @Failure      401  {object}  models.ErrorResponse
// @Router       /auth/me [get]
func (h *Handler) Me(c *fiber.Ctx) error {
	cl := ClaimsFrom(c)
	if cl == nil {
		return apperr.Unauthorized()
	}
	return c.JSON(cl)
}
