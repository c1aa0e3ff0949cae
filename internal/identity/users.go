package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aldoetobex/lawcase-backend/internal/tenant"
	"github.com/aldoetobex/lawcase-backend/pkg/apperr"
	"github.com/aldoetobex/lawcase-backend/pkg/audit"
	"github.com/aldoetobex/lawcase-backend/pkg/credential"
	"github.com/aldoetobex/lawcase-backend/pkg/models"
)

// NewUser is the data needed to insert a user. An empty Password means no credential.
type NewUser struct {
	Username string
	FullName string
	Email    string
	Phone    string
	Role     models.Role
	Password string
}

// CreateUser inserts an active user and, when a password is given, its
// credential. Seat accounting and auditing are the caller's job.
func CreateUser(ctx context.Context, tx *gorm.DB, firmID uuid.UUID, in NewUser) (*models.User, error) {
	u := models.User{
		FirmID:   firmID,
		Username: strings.TrimSpace(in.Username),
		FullName: strings.TrimSpace(in.FullName),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:    strings.TrimSpace(in.Phone),
		Role:     in.Role,
		IsActive: true,
	}
	if err := tx.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, apperr.FromDB(err, "", "username already exists")
	}
	if in.Password != "" {
		hash, err := credential.Hash(in.Password)
		if err != nil {
			return nil, err
		}
		cred := models.Credential{UserID: u.ID, PasswordHash: hash}
		if err := tx.WithContext(ctx).Create(&cred).Error; err != nil {
			return nil, apperr.Internal(err)
		}
		u.Credential = &cred
	}
	return &u, nil
}

// AddUser creates a staff or admin user under the firm's seat cap.
func (s *Service) AddUser(ctx context.Context, firmID uuid.UUID, in NewUser, actor *uuid.UUID) (*models.User, error) {
	var u *models.User
	err := audit.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := tenant.AdjustSeats(ctx, tx, firmID, 1); err != nil {
			return err
		}
		var err error
		u, err = CreateUser(ctx, tx, firmID, in)
		if err != nil {
			return err
		}
		return audit.Record(ctx, tx, audit.CreateUser, audit.Details{
			"firm_id": firmID, "user_id": u.ID, "username": u.Username, "role": u.Role,
		}, actor)
	})
	if err != nil {
		return nil, apperr.FromDB(err, "", "username already exists")
	}
	return u, nil
}

// DeactivateUser removes a user from the firm after checking the firm
// password. The last active admin cannot be removed.
func (s *Service) DeactivateUser(ctx context.Context, firm *models.Firm, userID uuid.UUID, firmPassword string, actor *uuid.UUID) error {
	if !credential.Verify(firmPassword, firm.PasswordHash) {
		return apperr.Unauthorized()
	}
	return audit.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		var u models.User
		err := tx.Where("id = ? AND firm_id = ? AND is_active = ?", userID, firm.ID, true).First(&u).Error
		if err != nil {
			return apperr.FromDB(err, "user not found", "")
		}
		if u.Role == models.RoleAdmin {
			var admins int64
			err := tx.Model(&models.User{}).
				Where("firm_id = ? AND role = ? AND is_active = ?", firm.ID, models.RoleAdmin, true).
				Count(&admins).Error
			if err != nil {
				return apperr.Internal(err)
			}
			if admins <= 1 {
				return apperr.Conflict("cannot remove the last admin")
			}
		}
		if err := tx.Model(&u).Update("is_active", false).Error; err != nil {
			return apperr.Internal(err)
		}
		if err := tenant.AdjustSeats(ctx, tx, firm.ID, -1); err != nil {
			return err
		}
		return audit.Record(ctx, tx, audit.DeactivateUser, audit.Details{
			"firm_id": firm.ID, "user_id": u.ID, "username": u.Username,
		}, actor)
	})
}
