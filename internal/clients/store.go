package clients

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aldoetobex/lawcase-backend/pkg/apperr"
	"github.com/aldoetobex/lawcase-backend/pkg/audit"
	"github.com/aldoetobex/lawcase-backend/pkg/models"
	"github.com/aldoetobex/lawcase-backend/pkg/sanitize"
)

const (
	errNotFound  = "client not found"
	errDuplicate = "client with this name and phone already exists"
)

// Fields are the writable attributes of a client.
type Fields struct {
	Name    string  `json:"name" validate:"required,min=1,max=120"`
	Phone   *string `json:"phone" validate:"omitempty,max=40"`
	Email   *string `json:"email" validate:"omitempty,max=120"`
	Address *string `json:"address" validate:"omitempty,max=500"`
	Notes   *string `json:"notes" validate:"omitempty,max=2000"`
}

// Patch lists the fields a partial update may touch; nil means unchanged.
type Patch struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=120"`
	Phone   *string `json:"phone" validate:"omitempty,max=40"`
	Email   *string `json:"email" validate:"omitempty,max=120"`
	Address *string `json:"address" validate:"omitempty,max=500"`
	Notes   *string `json:"notes" validate:"omitempty,max=2000"`
}

// Apply copies the set fields onto c and returns the changed column names.
func (p Patch) Apply(c *models.Client) []string {
	var cols []string
	if p.Name != nil {
		c.Name = *p.Name
		cols = append(cols, "name")
	}
	if p.Phone != nil {
		c.Phone = sanitize.Optional(p.Phone)
		cols = append(cols, "phone")
	}
	if p.Email != nil {
		c.Email = sanitize.Optional(p.Email)
		cols = append(cols, "email")
	}
	if p.Address != nil {
		c.Address = sanitize.Optional(p.Address)
		cols = append(cols, "address")
	}
	if p.Notes != nil {
		c.Notes = sanitize.Optional(p.Notes)
		cols = append(cols, "notes")
	}
	return cols
}

func get(ctx context.Context, tx *gorm.DB, firmID, id uuid.UUID) (*models.Client, error) {
	var c models.Client
	if err := tx.WithContext(ctx).Where("id = ? AND firm_id = ?", id, firmID).First(&c).Error; err != nil {
		return nil, apperr.FromDB(err, errNotFound, "")
	}
	return &c, nil
}

// duplicate checks the (firm, name, COALESCE(phone, '')) key, skipping self.
func duplicate(ctx context.Context, tx *gorm.DB, firmID uuid.UUID, name string, phone *string, self *uuid.UUID) (bool, error) {
	q := tx.WithContext(ctx).Model(&models.Client{}).
		Where("firm_id = ? AND name = ? AND COALESCE(phone, '') = ?", firmID, name, sanitize.Phone(phone))
	if self != nil {
		q = q.Where("id <> ?", *self)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, apperr.Internal(err)
	}
	return n > 0, nil
}

func create(ctx context.Context, tx *gorm.DB, firmID uuid.UUID, in Fields, actor *uuid.UUID) (*models.Client, error) {
	c := models.Client{
		FirmID:  firmID,
		Name:    in.Name,
		Phone:   sanitize.Optional(in.Phone),
		Email:   sanitize.Optional(in.Email),
		Address: sanitize.Optional(in.Address),
		Notes:   sanitize.Optional(in.Notes),
	}
	dup, err := duplicate(ctx, tx, firmID, c.Name, c.Phone, nil)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, apperr.Conflict(errDuplicate)
	}
	if err := tx.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, apperr.FromDB(err, "", errDuplicate)
	}
	if err := audit.Record(ctx, tx, audit.CreateClient, audit.Details{
		"client_id": c.ID, "firm_id": firmID, "name": c.Name,
	}, actor); err != nil {
		return nil, apperr.Internal(err)
	}
	return &c, nil
}

func update(ctx context.Context, tx *gorm.DB, firmID, id uuid.UUID, p Patch, actor *uuid.UUID) (*models.Client, error) {
	c, err := get(ctx, tx, firmID, id)
	if err != nil {
		return nil, err
	}
	cols := p.Apply(c)
	if len(cols) == 0 {
		return c, nil
	}
	if p.Name != nil || p.Phone != nil {
		dup, err := duplicate(ctx, tx, firmID, c.Name, c.Phone, &c.ID)
		if err != nil {
			return nil, err
		}
		if dup {
			return nil, apperr.Conflict(errDuplicate)
		}
	}
	if err := tx.WithContext(ctx).Model(c).Select(cols).Updates(c).Error; err != nil {
		return nil, apperr.FromDB(err, errNotFound, errDuplicate)
	}
	if err := audit.Record(ctx, tx, audit.UpdateClient, audit.Details{
		"client_id": c.ID, "fields": cols,
	}, actor); err != nil {
		return nil, apperr.Internal(err)
	}
	return c, nil
}

// remove deletes the client; its cases stay with client_id cleared.
func remove(ctx context.Context, tx *gorm.DB, firmID, id uuid.UUID, actor *uuid.UUID) error {
	c, err := get(ctx, tx, firmID, id)
	if err != nil {
		return err
	}
	db := tx.WithContext(ctx)
	if err := db.Model(&models.Case{}).
		Where("firm_id = ? AND client_id = ?", firmID, c.ID).
		Update("client_id", nil).Error; err != nil {
		return apperr.Internal(err)
	}
	if err := db.Delete(c).Error; err != nil {
		return apperr.Internal(err)
	}
	if err := audit.Record(ctx, tx, audit.DeleteClient, audit.Details{
		"client_id": c.ID, "name": c.Name,
	}, actor); err != nil {
		return apperr.Internal(err)
	}
	return nil
}
