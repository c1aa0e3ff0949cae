package cases

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aldoetobex/lawcase-backend/internal/auth"
	"github.com/aldoetobex/lawcase-backend/pkg/apperr"
	"github.com/aldoetobex/lawcase-backend/pkg/audit"
	"github.com/aldoetobex/lawcase-backend/pkg/models"
	"github.com/aldoetobex/lawcase-backend/pkg/validation"
)

type CreateStageRequest struct {
	FirmCode  string       `json:"firm_code"`
	Name      string       `json:"name" validate:"required,max=120"`
	StageDate *models.Date `json:"stage_date"`
	Completed bool         `json:"completed"`
	SortOrder int          `json:"sort_order"`
}

// StagePatch: nil leaves a column unchanged; stage_date: null clears it.
type StagePatch struct {
	Name      *string                      `json:"name" validate:"omitempty,max=120"`
	StageDate models.Nullable[models.Date] `json:"stage_date"`
	Completed *bool                        `json:"completed"`
	SortOrder *int                         `json:"sort_order"`
}

type UpdateStageRequest struct {
	FirmCode string `json:"firm_code"`
	StagePatch
}

func (p StagePatch) Apply(s *models.CaseStage) []string {
	var cols []string
	if p.Name != nil {
		s.Name = strings.TrimSpace(*p.Name)
		cols = append(cols, "name")
	}
	if p.StageDate.Set {
		s.StageDate = p.StageDate.Value
		cols = append(cols, "stage_date")
	}
	if p.Completed != nil {
		s.Completed = *p.Completed
		cols = append(cols, "completed")
	}
	if p.SortOrder != nil {
		s.SortOrder = *p.SortOrder
		cols = append(cols, "sort_order")
	}
	return cols
}

func stageCase(s *models.CaseStage) uuid.UUID { return s.CaseID }

// listStages returns stages by sort_order, then creation time.
func listStages(ctx context.Context, tx *gorm.DB, firmID, caseID uuid.UUID) ([]models.CaseStage, error) {
	if _, err := getCase(ctx, tx, firmID, caseID); err != nil {
		return nil, err
	}
	out := []models.CaseStage{}
	err := tx.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("sort_order ASC").Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// ListStages godoc
// @Summary      List stages
// @Tags         stages
// @Produce      json
// @Param        id         path  string true  "case id"
// @Param        firm_code  query string false "firm code"
// @Success      200  {array}   models.CaseStage
// @Failure      404  {object}  models.ErrorResponse
// @Router       /cases/{id}/stages [get]
func (h *Handler) ListStages(c *fiber.Ctx) error {
	caseID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	firm, err := auth.ResolveFirm(c, h.db, c.Query("firm_code"))
	if err != nil {
		return err
	}
	out, err := listStages(c.UserContext(), h.db, firm.ID, caseID)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// CreateStage godoc
// @Summary      Create stage
// @Tags         stages
// @Accept       json
// @Produce      json
// @Param        id       path  string              true  "case id"
// @Param        payload  body  CreateStageRequest  true  "Stage"
// @Success      201  {object}  models.CaseStage
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /cases/{id}/stages [post]
func (h *Handler) CreateStage(c *fiber.Ctx) error {
	caseID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var in CreateStageRequest
	if err := c.BodyParser(&in); err != nil {
		return apperr.BadRequest("invalid json")
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Check(in); err != nil {
		return err
	}

	st := models.CaseStage{
		CaseID:    caseID,
		Name:      in.Name,
		StageDate: in.StageDate,
		Completed: in.Completed,
		SortOrder: in.SortOrder,
	}
	err = h.inFirm(c, in.FirmCode, func(ctx context.Context, tx *gorm.DB, firm *models.Firm) error {
		if _, err := getCase(ctx, tx, firm.ID, caseID); err != nil {
			return err
		}
		if err := tx.Create(&st).Error; err != nil {
			return apperr.Internal(err)
		}
		return audit.Record(ctx, tx, audit.CreateStage, audit.Details{
			"case_id": caseID, "stage_id": st.ID, "name": st.Name,
		}, auth.ActorID(c))
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(st)
}

// UpdateStage godoc
// @Summary      Update stage
// @Description  The stage must belong to the case in the path
// @Tags         stages
// @Accept       json
// @Produce      json
// @Param        id       path  string              true  "case id"
// @Param        stageId  path  string              true  "stage id"
// @Param        payload  body  UpdateStageRequest  true  "Fields to change"
// @Success      200  {object}  models.CaseStage
// @Failure      400  {object}  models.ErrorResponse  "stage does not belong to this case"
// @Failure      404  {object}  models.ErrorResponse
// @Router       /cases/{id}/stages/{stageId} [patch]
func (h *Handler) UpdateStage(c *fiber.Ctx) error {
	caseID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	stageID, err := parseID(c, "stageId")
	if err != nil {
		return err
	}
	var in UpdateStageRequest
	if err := c.BodyParser(&in); err != nil {
		return apperr.BadRequest("invalid json")
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return apperr.Invalid("name", "This field is required")
	}
	if err := validation.Check(in.StagePatch); err != nil {
		return err
	}

	var st *models.CaseStage
	err = h.inFirm(c, in.FirmCode, func(ctx context.Context, tx *gorm.DB, firm *models.Firm) error {
		var err error
		st, err = child(ctx, tx, firm.ID, caseID, stageID, "case_stages", "stage", stageCase)
		if err != nil {
			return err
		}
		cols := in.Apply(st)
		if len(cols) == 0 {
			return nil
		}
		if err := tx.Model(st).Select(cols).Updates(st).Error; err != nil {
			return apperr.Internal(err)
		}
		return audit.Record(ctx, tx, audit.UpdateStage, audit.Details{
			"case_id": caseID, "stage_id": st.ID, "fields": cols,
		}, auth.ActorID(c))
	})
	if err != nil {
		return err
	}
	return c.JSON(st)
}

// DeleteStage godoc
// @Summary      Delete stage
// @Tags         stages
// @Param        id         path  string true  "case id"
// @Param        stageId    path  string true  "stage id"
// @Param        firm_code  query string false "firm code"
// @Success      204
// @Failure      400  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /cases/{id}/stages/{stageId} [delete]
func (h *Handler) DeleteStage(c *fiber.Ctx) error {
	caseID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	stageID, err := parseID(c, "stageId")
	if err != nil {
		return err
	}
	err = h.inFirm(c, c.Query("firm_code"), func(ctx context.Context, tx *gorm.DB, firm *models.Firm) error {
		st, err := child(ctx, tx, firm.ID, caseID, stageID, "case_stages", "stage", stageCase)
		if err != nil {
			return err
		}
		if err := tx.Delete(st).Error; err != nil {
			return apperr.Internal(err)
		}
		return audit.Record(ctx, tx, audit.DeleteStage, audit.Details{
			"case_id": caseID, "stage_id": st.ID, "name": st.Name,
		}, auth.ActorID(c))
	})
	if err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
