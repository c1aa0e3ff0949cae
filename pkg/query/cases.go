package query

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aldoetobex/lawcase-backend/pkg/models"
	"github.com/aldoetobex/lawcase-backend/pkg/sanitize"
)

// Cases lists one firm's cases, newest first. The keyword matches case
// number, case reason or the linked client's name (case-insensitive); the
// client join is outer so cases without a client still match on their own fields.
func Cases(ctx context.Context, tx *gorm.DB, firmID uuid.UUID, p Params) (models.Page[models.Case], error) {
	p, err := p.Normalize()
	if err != nil {
		return models.Page[models.Case]{}, err
	}

	base := tx.Model(&models.Case{}).Where("cases.firm_id = ?", firmID)

	switch p.Status {
	case StatusOpen:
		base = base.Where("cases.is_closed = ?", false)
	case StatusClosed:
		base = base.Where("cases.is_closed = ?", true)
	}

	if kw := sanitize.Keyword(p.Keyword); kw != "" {
		like := sanitize.LikePattern(kw)
		base = base.
			Joins("LEFT JOIN clients ON clients.id = cases.client_id").
			Where("(cases.case_number ILIKE ? OR cases.case_reason ILIKE ? OR clients.name ILIKE ?)", like, like, like)
	}

	return run[models.Case](ctx, base, p, func(q *gorm.DB) *gorm.DB {
		return q.Select("cases.*").
			Preload("Client").
			Order("cases.created_at DESC").
			Order("cases.id DESC")
	})
}
