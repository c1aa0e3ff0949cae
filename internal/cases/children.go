package cases

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aldoetobex/lawcase-backend/pkg/apperr"
)

// child loads a sub-resource row of table that belongs to one of the firm's
// cases and checks it hangs under caseID. A missing row is NotFound; a row
// under another case is a validation error. Nothing is modified.
func child[T any](ctx context.Context, tx *gorm.DB, firmID, caseID, id uuid.UUID, table, what string, parent func(*T) uuid.UUID) (*T, error) {
	if _, err := getCase(ctx, tx, firmID, caseID); err != nil {
		return nil, err
	}
	var row T
	err := tx.WithContext(ctx).
		Select(table+".*").
		Joins("JOIN cases ON cases.id = "+table+".case_id").
		Where(table+".id = ? AND cases.firm_id = ?", id, firmID).
		First(&row).Error
	if err != nil {
		return nil, apperr.FromDB(err, what+" not found", "")
	}
	if parent(&row) != caseID {
		return nil, apperr.BadRequest(what + " does not belong to this case")
	}
	return &row, nil
}
