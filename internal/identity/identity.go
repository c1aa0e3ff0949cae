// Package identity implements registration, admin setup and the two login
// flows (firm password and per-user credential).
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
	"github.com/aldoetobex/lawcase-backend/pkg/validation"
)

// State is the registration stage of a firm.
type State string

const (
	Unregistered        State = "UNREGISTERED"
	RegisteredNoAdmin   State = "REGISTERED_NO_ADMIN"
	RegisteredWithAdmin State = "REGISTERED_WITH_ADMIN"
)

/* ================================ Inputs ================================ */

type RegisterInput struct {
	FirmName        string `json:"firm_name" validate:"required,min=2,max=120"`
	FirmCode        string `json:"firm_code" validate:"required,max=60,firmcode"`
	Password        string `json:"password" validate:"required,bcryptlen,strongpassword"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type AdminProfile struct {
	FullName string `json:"admin_name" validate:"required,min=2,max=120"`
	Email    string `json:"admin_email" validate:"required,email,max=120"`
	Phone    string `json:"admin_phone" validate:"max=40"`
	// Optional: creates a per-user credential when both are set.
	Username string `json:"username" validate:"omitempty,max=60,firmcode"`
	Password string `json:"password" validate:"omitempty,bcryptlen,strongpassword"`
}

type ChangePasswordInput struct {
	FirmCode    string `json:"firm_code" validate:"required"`
	Username    string `json:"username" validate:"required"`
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,bcryptlen,strongpassword"`
}

/* ================================ Output ================================ */

type SessionUser struct {
	ID       uuid.UUID   `json:"id"`
	Username string      `json:"username"`
	FullName string      `json:"full_name"`
	Role     models.Role `json:"role"`
}

// Session is the authenticated (firm, optional user) context.
type Session struct {
	FirmID         uuid.UUID       `json:"firm_id"`
	FirmName       string          `json:"firm_name"`
	FirmCode       string          `json:"firm_code"`
	PlanType       models.PlanTier `json:"plan_type"`
	HasPaidPlan    bool            `json:"has_paid_plan"`
	CanUseFreePlan bool            `json:"can_use_free_plan"`
	HasAccess      bool            `json:"has_access"`
	Users          []SessionUser   `json:"users"`
	User           *SessionUser    `json:"user,omitempty"`
}

/* ================================ Service =============================== */

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// Register creates a firm in REGISTERED_NO_ADMIN.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.Firm, error) {
	in.FirmCode = strings.TrimSpace(in.FirmCode)
	in.FirmName = strings.TrimSpace(in.FirmName)
	if err := validation.Check(in); err != nil {
		return nil, err
	}
	hash, err := credential.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	var firm *models.Firm
	err = audit.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		exists, err := tenant.Exists(ctx, tx, in.FirmCode)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict("firm code already exists")
		}
		firm, err = tenant.CreateFirm(ctx, tx, in.FirmName, in.FirmCode, hash)
		return err
	})
	if err != nil {
		return nil, err
	}
	return firm, nil
}

// StateOf derives the registration stage from the presence of an active admin.
func StateOf(ctx context.Context, tx *gorm.DB, firmID uuid.UUID) (State, error) {
	if _, err := tenant.ResolveByID(ctx, tx, firmID); err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return Unregistered, nil
		}
		return "", err
	}
	has, err := hasActiveAdmin(ctx, tx, firmID)
	if err != nil {
		return "", err
	}
	if has {
		return RegisteredWithAdmin, nil
	}
	return RegisteredNoAdmin, nil
}

func hasActiveAdmin(ctx context.Context, tx *gorm.DB, firmID uuid.UUID) (bool, error) {
	var n int64
	err := tx.WithContext(ctx).Model(&models.User{}).
		Where("firm_id = ? AND role = ? AND is_active = ?", firmID, models.RoleAdmin, true).
		Count(&n).Error
	if err != nil {
		return false, apperr.Internal(err)
	}
	return n > 0, nil
}

// SetupAdmin creates the first active admin and consumes one seat.
func (s *Service) SetupAdmin(ctx context.Context, firmID uuid.UUID, p AdminProfile) (*models.User, error) {
	p.FullName = strings.TrimSpace(p.FullName)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Username = strings.TrimSpace(p.Username)
	if err := validation.Check(p); err != nil {
		return nil, err
	}
	if (p.Username == "") != (p.Password == "") {
		return nil, apperr.Invalid("username", "Username and password must be given together")
	}

	var admin *models.User
	err := audit.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		if _, err := tenant.ResolveByID(ctx, tx, firmID); err != nil {
			return err
		}
		has, err := hasActiveAdmin(ctx, tx, firmID)
		if err != nil {
			return err
		}
		if has {
			return apperr.Conflict("admin already set up")
		}
		if err := tenant.AdjustSeats(ctx, tx, firmID, 1); err != nil {
			return err
		}

		username := p.Username
		if username == "" {
			username = p.Email
		}
		admin, err = CreateUser(ctx, tx, firmID, NewUser{
			Username: username,
			FullName: p.FullName,
			Email:    p.Email,
			Phone:    strings.TrimSpace(p.Phone),
			Role:     models.RoleAdmin,
			Password: p.Password,
		})
		if err != nil {
			return err
		}
		return audit.Record(ctx, tx, audit.CreateAdmin, audit.Details{
			"firm_id": firmID, "user_id": admin.ID, "username": admin.Username,
		}, &admin.ID)
	})
	if err != nil {
		return nil, apperr.FromDB(err, "", "username already exists")
	}
	return admin, nil
}

// Login authenticates with the firm password.
func (s *Service) Login(ctx context.Context, code, password string) (*Session, error) {
	db := s.db.WithContext(ctx)
	firm, err := tenant.ResolveByCode(ctx, db, code)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			credential.Burn(password)
			return nil, apperr.Unauthorized()
		}
		return nil, err
	}
	if !credential.Verify(password, firm.PasswordHash) {
		return nil, apperr.Unauthorized()
	}
	return sessionFor(ctx, db, firm, nil)
}

// LoginUser authenticates an active user that owns a credential.
func (s *Service) LoginUser(ctx context.Context, code, username, password string) (*Session, error) {
	db := s.db.WithContext(ctx)
	firm, err := tenant.ResolveByCode(ctx, db, code)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			credential.Burn(password)
			return nil, apperr.Unauthorized()
		}
		return nil, err
	}
	u, err := findCredentialedUser(ctx, db, firm.ID, username)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			credential.Burn(password)
			return nil, apperr.Unauthorized()
		}
		return nil, err
	}
	if !credential.Verify(password, u.Credential.PasswordHash) {
		return nil, apperr.Unauthorized()
	}
	return sessionFor(ctx, db, firm, u)
}

// ChangePassword rotates a user credential after checking the old password.
func (s *Service) ChangePassword(ctx context.Context, in ChangePasswordInput) error {
	if err := validation.Check(in); err != nil {
		return err
	}
	return audit.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		firm, err := tenant.ResolveByCode(ctx, tx, in.FirmCode)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				credential.Burn(in.OldPassword)
				return apperr.Unauthorized()
			}
			return err
		}
		u, err := findCredentialedUser(ctx, tx, firm.ID, in.Username)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				credential.Burn(in.OldPassword)
				return apperr.Unauthorized()
			}
			return err
		}
		if !credential.Verify(in.OldPassword, u.Credential.PasswordHash) {
			return apperr.Unauthorized()
		}
		hash, err := credential.Hash(in.NewPassword)
		if err != nil {
			return err
		}
		if err := tx.Model(u.Credential).Update("password_hash", hash).Error; err != nil {
			return apperr.Internal(err)
		}
		return audit.Record(ctx, tx, audit.UpdatePassword, audit.Details{"user_id": u.ID}, &u.ID)
	})
}

func findCredentialedUser(ctx context.Context, tx *gorm.DB, firmID uuid.UUID, username string) (*models.User, error) {
	var u models.User
	err := tx.WithContext(ctx).
		Preload("Credential").
		Where("firm_id = ? AND username = ? AND is_active = ?", firmID, strings.TrimSpace(username), true).
		First(&u).Error
	if err != nil {
		return nil, apperr.FromDB(err, "user not found", "")
	}
	if u.Credential == nil {
		return nil, apperr.NotFound("user not found")
	}
	return &u, nil
}

// ActiveUsers lists the firm's active users, admins first.
func ActiveUsers(ctx context.Context, tx *gorm.DB, firmID uuid.UUID) ([]models.User, error) {
	users := []models.User{}
	err := tx.WithContext(ctx).
		Where("firm_id = ? AND is_active = ?", firmID, true).
		Order("role ASC").Order("created_at ASC").
		Find(&users).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return users, nil
}

func sessionFor(ctx context.Context, tx *gorm.DB, firm *models.Firm, u *models.User) (*Session, error) {
	users, err := ActiveUsers(ctx, tx, firm.ID)
	if err != nil {
		return nil, err
	}
	out := &Session{
		FirmID:         firm.ID,
		FirmName:       firm.FirmName,
		FirmCode:       firm.FirmCode,
		PlanType:       firm.PlanType,
		HasPaidPlan:    firm.HasPaidPlan,
		CanUseFreePlan: firm.CanUseFreePlan,
		HasAccess:      tenant.HasAccess(firm),
		Users:          make([]SessionUser, 0, len(users)),
	}
	for _, x := range users {
		out.Users = append(out.Users, toSessionUser(x))
	}
	if u != nil {
		su := toSessionUser(*u)
		out.User = &su
	}
	return out, nil
}

func toSessionUser(u models.User) SessionUser {
	return SessionUser{ID: u.ID, Username: u.Username, FullName: u.FullName, Role: u.Role}
}
