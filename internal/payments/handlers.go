// Package payments handles plan purchases and the free-plan grant.
package payments

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aldoetobex/lawcase-backend/internal/auth"
	"github.com/aldoetobex/lawcase-backend/internal/tenant"
	"github.com/aldoetobex/lawcase-backend/pkg/apperr"
	"github.com/aldoetobex/lawcase-backend/pkg/audit"
	"github.com/aldoetobex/lawcase-backend/pkg/models"
	"github.com/aldoetobex/lawcase-backend/pkg/validation"
)

type UpdatePlanRequest struct {
	FirmID   uuid.UUID `json:"firm_id" validate:"required"`
	PlanType string    `json:"plan_type" validate:"required,oneof=basic advanced premium enterprise"`
}

type FreePlanRequest struct {
	FirmID uuid.UUID `json:"firm_id" validate:"required"`
}

type PlanResponse struct {
	FirmID         uuid.UUID       `json:"firm_id"`
	PlanType       models.PlanTier `json:"plan_type"`
	MaxUsers       int             `json:"max_users"`
	HasPaidPlan    bool            `json:"has_paid_plan"`
	CanUseFreePlan bool            `json:"can_use_free_plan"`
	PlanStartDate  *time.Time      `json:"plan_start_date"`
	PlanEndDate    *time.Time      `json:"plan_end_date"`
}

func toPlanResponse(f *models.Firm) PlanResponse {
	return PlanResponse{
		FirmID:         f.ID,
		PlanType:       f.PlanType,
		MaxUsers:       f.MaxUsers,
		HasPaidPlan:    f.HasPaidPlan,
		CanUseFreePlan: f.CanUseFreePlan,
		PlanStartDate:  f.PlanStartDate,
		PlanEndDate:    f.PlanEndDate,
	}
}

type Handler struct{ db *gorm.DB }

func NewHandler(db *gorm.DB) *Handler { return &Handler{db: db} }

func checkTokenFirm(c *fiber.Ctx, firmID uuid.UUID) error {
	if cl := auth.ClaimsFrom(c); cl != nil && cl.FirmID != firmID {
		return apperr.Forbidden("token does not belong to this firm")
	}
	return nil
}

// ========== Update Plan ==========

// @Summary      Update plan
// @Description  Switch the firm to a paid tier for a 30-day window
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body  UpdatePlanRequest  true  "Plan"
// @Success      200  {object}  PlanResponse
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /auth/update-plan [post]
func (h *Handler) UpdatePlan(c *fiber.Ctx) error {
	var in UpdatePlanRequest
	if err := validation.Bind(c, &in); err != nil {
		return err
	}
	if err := checkTokenFirm(c, in.FirmID); err != nil {
		return err
	}
	ctx := c.UserContext()

	var firm *models.Firm
	err := audit.Transaction(ctx, h.db, func(tx *gorm.DB) error {
		var err error
		firm, err = tenant.UpdatePlan(ctx, tx, in.FirmID, models.PlanTier(in.PlanType), auth.ActorID(c))
		return err
	})
	if err != nil {
		return err
	}
	return c.JSON(toPlanResponse(firm))
}

// ========== Free Plan ==========

// @Summary      Enable free plan
// @Description  Grant the 365-day basic free plan
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body  FreePlanRequest  true  "Firm"
// @Success      200  {object}  PlanResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /auth/enable-free-plan [post]
func (h *Handler) EnableFreePlan(c *fiber.Ctx) error {
	var in FreePlanRequest
	if err := validation.Bind(c, &in); err != nil {
		return err
	}
	if err := checkTokenFirm(c, in.FirmID); err != nil {
		return err
	}
	ctx := c.UserContext()

	var firm *models.Firm
	err := audit.Transaction(ctx, h.db, func(tx *gorm.DB) error {
		var err error
		firm, err = tenant.EnableFreePlan(ctx, tx, in.FirmID, auth.ActorID(c))
		return err
	})
	if err != nil {
		return err
	}
	return c.JSON(toPlanResponse(firm))
}
