package cases

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aldoetobex/lawcase-backend/pkg/apperr"
	"github.com/aldoetobex/lawcase-backend/pkg/audit"
	"github.com/aldoetobex/lawcase-backend/pkg/models"
	"github.com/aldoetobex/lawcase-backend/pkg/sanitize"
)

const errCaseNotFound = "case not found"

// today is replaced in tests.
var today = func() models.Date { return models.NewDate(time.Now()) }

// Fields are the attributes accepted on creation.
type Fields struct {
	ClientID       *uuid.UUID   `json:"client_id"`
	LawyerID       *uuid.UUID   `json:"lawyer_id"`
	LegalAffairsID *uuid.UUID   `json:"legal_affairs_id"`
	CaseType       *string      `json:"case_type" validate:"omitempty,max=80"`
	CaseReason     *string      `json:"case_reason" validate:"omitempty,max=2000"`
	CaseNumber     *string      `json:"case_number" validate:"omitempty,max=120"`
	Court          *string      `json:"court" validate:"omitempty,max=120"`
	Division       *string      `json:"division" validate:"omitempty,max=120"`
	Progress       *string      `json:"progress" validate:"omitempty,max=120"`
	ProgressDate   *models.Date `json:"progress_date"`
}

// Patch enumerates the mutable case columns; nil leaves a column unchanged.
// An empty string clears a text column, an explicit null clears a reference
// or progress_date.
type Patch struct {
	ClientID       models.Nullable[uuid.UUID]   `json:"client_id"`
	LawyerID       models.Nullable[uuid.UUID]   `json:"lawyer_id"`
	LegalAffairsID models.Nullable[uuid.UUID]   `json:"legal_affairs_id"`
	CaseType       *string                      `json:"case_type" validate:"omitempty,max=80"`
	CaseReason     *string                      `json:"case_reason" validate:"omitempty,max=2000"`
	CaseNumber     *string                      `json:"case_number" validate:"omitempty,max=120"`
	Court          *string                      `json:"court" validate:"omitempty,max=120"`
	Division       *string                      `json:"division" validate:"omitempty,max=120"`
	Progress       *string                      `json:"progress" validate:"omitempty,max=120"`
	ProgressDate   models.Nullable[models.Date] `json:"progress_date"`
	IsClosed       *bool                        `json:"is_closed"`
	ClosedAt       *models.Date                 `json:"closed_at"`
}

// Apply copies the set fields onto cs and returns the changed columns.
// Closing without a date stamps today; reopening clears closed_at.
func (p Patch) Apply(cs *models.Case) []string {
	var cols []string
	text := func(col string, dst **string, v *string) {
		if v != nil {
			*dst = sanitize.Optional(v)
			cols = append(cols, col)
		}
	}
	text("case_type", &cs.CaseType, p.CaseType)
	text("case_reason", &cs.CaseReason, p.CaseReason)
	text("case_number", &cs.CaseNumber, p.CaseNumber)
	text("court", &cs.Court, p.Court)
	text("division", &cs.Division, p.Division)
	text("progress", &cs.Progress, p.Progress)

	if p.ProgressDate.Set {
		cs.ProgressDate = p.ProgressDate.Value
		cols = append(cols, "progress_date")
	}
	ref := func(col string, dst **uuid.UUID, v models.Nullable[uuid.UUID]) {
		if v.Set {
			*dst = v.Value
			cols = append(cols, col)
		}
	}
	ref("client_id", &cs.ClientID, p.ClientID)
	ref("lawyer_id", &cs.LawyerID, p.LawyerID)
	ref("legal_affairs_id", &cs.LegalAffairsID, p.LegalAffairsID)

	switch {
	case p.IsClosed != nil && !*p.IsClosed:
		cs.IsClosed, cs.ClosedAt = false, nil
		cols = append(cols, "is_closed", "closed_at")
	case p.IsClosed != nil:
		cs.IsClosed = true
		if p.ClosedAt != nil {
			cs.ClosedAt = p.ClosedAt
		} else if cs.ClosedAt == nil {
			d := today()
			cs.ClosedAt = &d
		}
		cols = append(cols, "is_closed", "closed_at")
	case p.ClosedAt != nil:
		cs.ClosedAt = p.ClosedAt
		cols = append(cols, "closed_at")
	}
	return cols
}

// refs are the foreign ids a create or patch may point at.
type refs struct {
	client, lawyer, legal *uuid.UUID
}

// checkRefs verifies that every given id belongs to the firm.
func checkRefs(ctx context.Context, tx *gorm.DB, firmID uuid.UUID, r refs) error {
	db := tx.WithContext(ctx)
	if r.client != nil {
		var n int64
		if err := db.Model(&models.Client{}).Where("id = ? AND firm_id = ?", *r.client, firmID).Count(&n).Error; err != nil {
			return apperr.Internal(err)
		}
		if n == 0 {
			return apperr.Invalid("client_id", "Client not found in this firm")
		}
	}
	for field, id := range map[string]*uuid.UUID{"lawyer_id": r.lawyer, "legal_affairs_id": r.legal} {
		if id == nil {
			continue
		}
		var n int64
		if err := db.Model(&models.User{}).Where("id = ? AND firm_id = ? AND is_active = ?", *id, firmID, true).Count(&n).Error; err != nil {
			return apperr.Internal(err)
		}
		if n == 0 {
			return apperr.Invalid(field, "User not found in this firm")
		}
	}
	return nil
}

// getCase loads a case of the firm; ids from other firms are NotFound.
func getCase(ctx context.Context, tx *gorm.DB, firmID, id uuid.UUID) (*models.Case, error) {
	var cs models.Case
	err := tx.WithContext(ctx).Preload("Client").
		Where("id = ? AND firm_id = ?", id, firmID).
		First(&cs).Error
	if err != nil {
		return nil, apperr.FromDB(err, errCaseNotFound, "")
	}
	return &cs, nil
}

func createCase(ctx context.Context, tx *gorm.DB, firmID uuid.UUID, in Fields, actor *uuid.UUID) (*models.Case, error) {
	if err := checkRefs(ctx, tx, firmID, refs{in.ClientID, in.LawyerID, in.LegalAffairsID}); err != nil {
		return nil, err
	}
	cs := models.Case{
		FirmID:         firmID,
		ClientID:       in.ClientID,
		LawyerID:       in.LawyerID,
		LegalAffairsID: in.LegalAffairsID,
		CaseType:       sanitize.Optional(in.CaseType),
		CaseReason:     sanitize.Optional(in.CaseReason),
		CaseNumber:     sanitize.Optional(in.CaseNumber),
		Court:          sanitize.Optional(in.Court),
		Division:       sanitize.Optional(in.Division),
		Progress:       sanitize.Optional(in.Progress),
		ProgressDate:   in.ProgressDate,
	}
	if err := tx.WithContext(ctx).Create(&cs).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	if err := audit.Record(ctx, tx, audit.CreateCase, audit.Details{
		"case_id": cs.ID, "firm_id": firmID, "case_number": cs.CaseNumber,
	}, actor); err != nil {
		return nil, apperr.Internal(err)
	}
	return getCase(ctx, tx, firmID, cs.ID)
}

func updateCase(ctx context.Context, tx *gorm.DB, firmID, id uuid.UUID, p Patch, actor *uuid.UUID) (*models.Case, error) {
	cs, err := getCase(ctx, tx, firmID, id)
	if err != nil {
		return nil, err
	}
	if err := checkRefs(ctx, tx, firmID, refs{p.ClientID.Value, p.LawyerID.Value, p.LegalAffairsID.Value}); err != nil {
		return nil, err
	}
	cols := p.Apply(cs)
	if len(cols) == 0 {
		return cs, nil
	}
	cs.UpdatedAt = time.Now()
	if err := tx.WithContext(ctx).Model(cs).Select(append(cols, "updated_at")).Omit(clause.Associations).Updates(cs).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	if err := audit.Record(ctx, tx, audit.UpdateCase, audit.Details{
		"case_id": cs.ID, "fields": cols,
	}, actor); err != nil {
		return nil, apperr.Internal(err)
	}
	return getCase(ctx, tx, firmID, id)
}

// deleteCase removes the case together with its sub-resources.
func deleteCase(ctx context.Context, tx *gorm.DB, firmID, id uuid.UUID, actor *uuid.UUID) error {
	cs, err := getCase(ctx, tx, firmID, id)
	if err != nil {
		return err
	}
	db := tx.WithContext(ctx)
	for _, m := range []any{&models.CaseStage{}, &models.CaseReminder{}, &models.CaseFile{}, &models.CaseFolder{}} {
		if err := db.Where("case_id = ?", cs.ID).Delete(m).Error; err != nil {
			return apperr.Internal(err)
		}
	}
	if err := db.Delete(&models.Case{}, "id = ?", cs.ID).Error; err != nil {
		return apperr.Internal(err)
	}
	if err := audit.Record(ctx, tx, audit.DeleteCase, audit.Details{
		"case_id": cs.ID, "case_number": cs.CaseNumber,
	}, actor); err != nil {
		return apperr.Internal(err)
	}
	return nil
}
