package query

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aldoetobex/lawcase-backend/pkg/models"
	"github.com/aldoetobex/lawcase-backend/pkg/sanitize"
)

// Clients lists one firm's clients; the keyword matches name or phone.
func Clients(ctx context.Context, tx *gorm.DB, firmID uuid.UUID, p Params) (models.Page[models.Client], error) {
	p, err := p.Normalize()
	if err != nil {
		return models.Page[models.Client]{}, err
	}

	base := tx.Model(&models.Client{}).Where("firm_id = ?", firmID)
	if kw := sanitize.Keyword(p.Keyword); kw != "" {
		like := sanitize.LikePattern(kw)
		base = base.Where("(name ILIKE ? OR phone ILIKE ?)", like, like)
	}

	return run[models.Client](ctx, base, p, func(q *gorm.DB) *gorm.DB {
		return q.Order("created_at DESC").Order("id")
	})
}
