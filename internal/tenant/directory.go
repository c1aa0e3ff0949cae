// Package tenant resolves firms and owns their plan state. Every function
// takes the caller's transaction handle.
package tenant

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aldoetobex/lawcase-backend/pkg/apperr"
	"github.com/aldoetobex/lawcase-backend/pkg/audit"
	"github.com/aldoetobex/lawcase-backend/pkg/models"
)

const (
	errFirmNotFound = "firm not found"
	errFirmExists   = "firm code already exists"
)

const (
	TrialWindow    = 30 * 24 * time.Hour
	FreePlanWindow = 365 * 24 * time.Hour
)

// now is replaced in tests.
var now = time.Now

// SeatsFor is the seat cap of a tier. Unknown tiers get a single seat.
func SeatsFor(tier models.PlanTier) int {
	switch tier {
	case models.PlanBasic:
		return 5
	case models.PlanAdvanced:
		return 10
	case models.PlanPremium:
		return 20
	case models.PlanEnterprise:
		return 50
	default:
		return 1
	}
}

// HasAccess reports whether the firm may use data endpoints.
func HasAccess(f *models.Firm) bool {
	return f != nil && (f.HasPaidPlan || f.CanUseFreePlan)
}

func normalizeCode(code string) string { return strings.TrimSpace(code) }

/* =============================== Lookups ================================ */

func ResolveByCode(ctx context.Context, tx *gorm.DB, code string) (*models.Firm, error) {
	var f models.Firm
	err := tx.WithContext(ctx).Where("firm_code = ?", normalizeCode(code)).First(&f).Error
	if err != nil {
		return nil, apperr.FromDB(err, errFirmNotFound, "")
	}
	return &f, nil
}

func ResolveByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Firm, error) {
	var f models.Firm
	if err := tx.WithContext(ctx).First(&f, "id = ?", id).Error; err != nil {
		return nil, apperr.FromDB(err, errFirmNotFound, "")
	}
	return &f, nil
}

// Exists is the pre-insert duplicate check; the unique index stays authoritative.
func Exists(ctx context.Context, tx *gorm.DB, code string) (bool, error) {
	var n int64
	err := tx.WithContext(ctx).Model(&models.Firm{}).
		Where("firm_code = ?", normalizeCode(code)).
		Count(&n).Error
	if err != nil {
		return false, apperr.Internal(err)
	}
	return n > 0, nil
}

/* =============================== Mutations ============================== */

// CreateFirm inserts a firm with the registration plan defaults and audits it.
func CreateFirm(ctx context.Context, tx *gorm.DB, name, code, passwordHash string) (*models.Firm, error) {
	f := models.Firm{
		FirmCode:       normalizeCode(code),
		FirmName:       strings.TrimSpace(name),
		PasswordHash:   passwordHash,
		PlanType:       models.PlanNone,
		HasPaidPlan:    false,
		CanUseFreePlan: false,
		MaxUsers:       1,
		CurrentUsers:   0,
	}
	if err := tx.WithContext(ctx).Create(&f).Error; err != nil {
		return nil, apperr.FromDB(err, "", errFirmExists)
	}
	if err := audit.Record(ctx, tx, audit.CreateFirm, audit.Details{
		"firm_id": f.ID, "firm_code": f.FirmCode, "firm_name": f.FirmName,
	}, nil); err != nil {
		return nil, apperr.Internal(err)
	}
	return &f, nil
}

// UpdatePlan moves the firm to tier with a 30-day window starting now.
func UpdatePlan(ctx context.Context, tx *gorm.DB, firmID uuid.UUID, tier models.PlanTier, actor *uuid.UUID) (*models.Firm, error) {
	f, err := ResolveByID(ctx, tx, firmID)
	if err != nil {
		return nil, err
	}
	start := now().UTC()
	end := start.Add(TrialWindow)
	seats := SeatsFor(tier)

	err = tx.WithContext(ctx).Model(f).Updates(map[string]any{
		"plan_type":       tier,
		"has_paid_plan":   true,
		"max_users":       seats,
		"plan_start_date": start,
		"plan_end_date":   end,
	}).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	f.PlanType, f.HasPaidPlan, f.MaxUsers = tier, true, seats
	f.PlanStartDate, f.PlanEndDate = &start, &end

	if err := audit.Record(ctx, tx, audit.UpdateFirmPlan, audit.Details{
		"firm_id": f.ID, "plan_type": tier, "max_users": seats,
	}, actor); err != nil {
		return nil, apperr.Internal(err)
	}
	return f, nil
}

// EnableFreePlan grants the 365-day basic free plan.
func EnableFreePlan(ctx context.Context, tx *gorm.DB, firmID uuid.UUID, actor *uuid.UUID) (*models.Firm, error) {
	f, err := ResolveByID(ctx, tx, firmID)
	if err != nil {
		return nil, err
	}
	start := now().UTC()
	end := start.Add(FreePlanWindow)
	seats := SeatsFor(models.PlanBasic)

	err = tx.WithContext(ctx).Model(f).Updates(map[string]any{
		"plan_type":         models.PlanBasic,
		"has_paid_plan":     false,
		"can_use_free_plan": true,
		"max_users":         seats,
		"plan_start_date":   start,
		"plan_end_date":     end,
	}).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	f.PlanType, f.HasPaidPlan, f.CanUseFreePlan, f.MaxUsers = models.PlanBasic, false, true, seats
	f.PlanStartDate, f.PlanEndDate = &start, &end

	if err := audit.Record(ctx, tx, audit.EnableFreePlan, audit.Details{
		"firm_id": f.ID, "plan_end_date": end,
	}, actor); err != nil {
		return nil, apperr.Internal(err)
	}
	return f, nil
}

// AdjustSeats changes current_users by delta, refusing to exceed max_users
// on increments. The guard runs in SQL so concurrent writers cannot overshoot.
func AdjustSeats(ctx context.Context, tx *gorm.DB, firmID uuid.UUID, delta int) error {
	q := tx.WithContext(ctx).Model(&models.Firm{}).Where("id = ?", firmID)
	if delta > 0 {
		q = q.Where("current_users + ? <= max_users", delta)
	} else {
		q = q.Where("current_users + ? >= 0", delta)
	}
	res := q.Update("current_users", gorm.Expr("current_users + ?", delta))
	if res.Error != nil {
		return apperr.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		if delta > 0 {
			return apperr.Conflict("seat limit reached")
		}
		return nil
	}
	return nil
}
