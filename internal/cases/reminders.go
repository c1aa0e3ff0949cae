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

type CreateReminderRequest struct {
	FirmCode string      `json:"firm_code"`
	Title    string      `json:"title" validate:"required,max=200"`
	DueDate  models.Date `json:"due_date"`
}

type ReminderPatch struct {
	Title   *string      `json:"title" validate:"omitempty,max=200"`
	DueDate *models.Date `json:"due_date"`
	IsDone  *bool        `json:"is_done"`
}

type UpdateReminderRequest struct {
	FirmCode string `json:"firm_code"`
	ReminderPatch
}

func (p ReminderPatch) Apply(r *models.CaseReminder) []string {
	var cols []string
	if p.Title != nil {
		r.Title = strings.TrimSpace(*p.Title)
		cols = append(cols, "title")
	}
	if p.DueDate != nil && !p.DueDate.IsZero() {
		r.DueDate = *p.DueDate
		cols = append(cols, "due_date")
	}
	if p.IsDone != nil {
		r.IsDone = *p.IsDone
		cols = append(cols, "is_done")
	}
	return cols
}

func reminderCase(r *models.CaseReminder) uuid.UUID { return r.CaseID }

// listReminders returns reminders by due date; same-day reminders newest first.
func listReminders(ctx context.Context, tx *gorm.DB, firmID, caseID uuid.UUID) ([]models.CaseReminder, error) {
	if _, err := getCase(ctx, tx, firmID, caseID); err != nil {
		return nil, err
	}
	out := []models.CaseReminder{}
	err := tx.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("due_date ASC").Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// ListReminders godoc
// @Summary      List reminders
// @Tags         reminders
// @Produce      json
// @Param        id         path  string true  "case id"
// @Param        firm_code  query string false "firm code"
// @Success      200  {array}   models.CaseReminder
// @Failure      404  {object}  models.ErrorResponse
// @Router       /cases/{id}/reminders [get]
func (h *Handler) ListReminders(c *fiber.Ctx) error {
	caseID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	firm, err := auth.ResolveFirm(c, h.db, c.Query("firm_code"))
	if err != nil {
		return err
	}
	out, err := listReminders(c.UserContext(), h.db, firm.ID, caseID)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// CreateReminder godoc
// @Summary      Create reminder
// @Tags         reminders
// @Accept       json
// @Produce      json
// @Param        id       path  string                 true  "case id"
// @Param        payload  body  CreateReminderRequest  true  "Reminder"
// @Success      201  {object}  models.CaseReminder
// @Failure      400  {object}  models.ValidationErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /cases/{id}/reminders [post]
func (h *Handler) CreateReminder(c *fiber.Ctx) error {
	caseID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var in CreateReminderRequest
	if err := c.BodyParser(&in); err != nil {
		return apperr.BadRequest("invalid json")
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := validation.Check(in); err != nil {
		return err
	}
	if in.DueDate.IsZero() {
		return apperr.Invalid("due_date", "This field is required")
	}

	r := models.CaseReminder{CaseID: caseID, Title: in.Title, DueDate: in.DueDate}
	err = h.inFirm(c, in.FirmCode, func(ctx context.Context, tx *gorm.DB, firm *models.Firm) error {
		if _, err := getCase(ctx, tx, firm.ID, caseID); err != nil {
			return err
		}
		if err := tx.Create(&r).Error; err != nil {
			return apperr.Internal(err)
		}
		return audit.Record(ctx, tx, audit.CreateReminder, audit.Details{
			"case_id": caseID, "reminder_id": r.ID, "title": r.Title, "due_date": r.DueDate.String(),
		}, auth.ActorID(c))
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(r)
}

// UpdateReminder godoc
// @Summary      Update reminder
// @Description  The reminder must belong to the case in the path
// @Tags         reminders
// @Accept       json
// @Produce      json
// @Param        id          path  string                 true  "case id"
// @Param        reminderId  path  string                 true  "reminder id"
// @Param        payload     body  UpdateReminderRequest  true  "Fields to change"
// @Success      200  {object}  models.CaseReminder
// @Failure      400  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /cases/{id}/reminders/{reminderId} [patch]
func (h *Handler) UpdateReminder(c *fiber.Ctx) error {
	caseID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	reminderID, err := parseID(c, "reminderId")
	if err != nil {
		return err
	}
	var in UpdateReminderRequest
	if err := c.BodyParser(&in); err != nil {
		return apperr.BadRequest("invalid json")
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return apperr.Invalid("title", "This field is required")
	}
	if err := validation.Check(in.ReminderPatch); err != nil {
		return err
	}

	var r *models.CaseReminder
	err = h.inFirm(c, in.FirmCode, func(ctx context.Context, tx *gorm.DB, firm *models.Firm) error {
		var err error
		r, err = child(ctx, tx, firm.ID, caseID, reminderID, "case_reminders", "reminder", reminderCase)
		if err != nil {
			return err
		}
		cols := in.Apply(r)
		if len(cols) == 0 {
			return nil
		}
		if err := tx.Model(r).Select(cols).Updates(r).Error; err != nil {
			return apperr.Internal(err)
		}
		return audit.Record(ctx, tx, audit.UpdateReminder, audit.Details{
			"case_id": caseID, "reminder_id": r.ID, "fields": cols,
		}, auth.ActorID(c))
	})
	if err != nil {
		return err
	}
	return c.JSON(r)
}

// DeleteReminder godoc
// @Summary      Delete reminder
// @Tags         reminders
// @Param        id          path  string true  "case id"
// @Param        reminderId  path  string true  "reminder id"
// @Param        firm_code   query string false "firm code"
// @Success      204
// @Failure      400  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /cases/{id}/reminders/{reminderId} [delete]
func (h *Handler) DeleteReminder(c *fiber.Ctx) error {
	caseID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	reminderID, err := parseID(c, "reminderId")
	if err != nil {
		return err
	}
	err = h.inFirm(c, c.Query("firm_code"), func(ctx context.Context, tx *gorm.DB, firm *models.Firm) error {
		r, err := child(ctx, tx, firm.ID, caseID, reminderID, "case_reminders", "reminder", reminderCase)
		if err != nil {
			return err
		}
		if err := tx.Delete(r).Error; err != nil {
			return apperr.Internal(err)
		}
		return audit.Record(ctx, tx, audit.DeleteReminder, audit.Details{
			"case_id": caseID, "reminder_id": r.ID,
		}, auth.ActorID(c))
	})
	if err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
