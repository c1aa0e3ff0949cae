package identity

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/aldoetobex/lawcase-backend/internal/tenant"
	"github.com/aldoetobex/lawcase-backend/internal/testdb"
	"github.com/aldoetobex/lawcase-backend/pkg/apperr"
	"github.com/aldoetobex/lawcase-backend/pkg/models"
)

const goodPassword = "Rahasia123"

func register(t *testing.T, s *Service, code string) *models.Firm {
	t.Helper()
	f, err := s.Register(context.Background(), RegisterInput{
		FirmName: "Firm " + code, FirmCode: code,
		Password: goodPassword, ConfirmPassword: goodPassword,
	})
	require.NoError(t, err)
	return f
}

func fieldErrors(t *testing.T, err error) map[string][]string {
	t.Helper()
	var ae *apperr.Error
	require.True(t, errors.As(err, &ae), "want *apperr.Error, got %v", err)
	require.Equal(t, apperr.KindValidation, ae.Kind)
	return ae.Fields
}

func TestRegister_Validation(t *testing.T) {
	s := NewService(nil)
	ctx := context.Background()

	_, err := s.Register(ctx, RegisterInput{FirmName: "Firm", FirmCode: "bad code!", Password: goodPassword, ConfirmPassword: goodPassword})
	assert.Contains(t, fieldErrors(t, err), "firm_code")

	_, err = s.Register(ctx, RegisterInput{FirmName: "Firm", FirmCode: "ok", Password: "alllower1", ConfirmPassword: "alllower1"})
	assert.Contains(t, fieldErrors(t, err), "password")

	_, err = s.Register(ctx, RegisterInput{FirmName: "Firm", FirmCode: "ok", Password: goodPassword, ConfirmPassword: "Different1"})
	assert.Equal(t, []string{"Passwords do not match"}, fieldErrors(t, err)["confirm_password"])

	// 38 runes but 98 bytes: too long for bcrypt.
	long := "Abcdefgh" + strings.Repeat("密", 30)
	_, err = s.Register(ctx, RegisterInput{FirmName: "Firm", FirmCode: "ok", Password: long, ConfirmPassword: long})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, []string{"Must be at most 72 bytes"}, fieldErrors(t, err)["password"])
}

func TestRegister_TwiceConflicts(t *testing.T) {
	db := testdb.Open(t)
	s := NewService(db)
	ctx := context.Background()

	f := register(t, s, "dup_firm")
	state, err := StateOf(ctx, db, f.ID)
	require.NoError(t, err)
	assert.Equal(t, RegisteredNoAdmin, state)
	assert.Equal(t, 0, f.CurrentUsers)

	_, err = s.Register(ctx, RegisterInput{FirmName: "Again", FirmCode: "dup_firm", Password: goodPassword, ConfirmPassword: goodPassword})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestRegister_RollsBackWhenAuditFails(t *testing.T) {
	db := testdb.Open(t)
	require.NoError(t, db.Callback().Create().After("gorm:create").Register("test:fail_audit", func(d *gorm.DB) {
		if d.Statement.Table == "audit_logs" {
			_ = d.AddError(errors.New("simulated storage failure"))
		}
	}))
	s := NewService(db)

	_, err := s.Register(context.Background(), RegisterInput{
		FirmName: "Ghost", FirmCode: "ghost", Password: goodPassword, ConfirmPassword: goodPassword,
	})
	require.Error(t, err)

	var firms, logs int64
	require.NoError(t, db.Model(&models.Firm{}).Count(&firms).Error)
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&logs).Error)
	assert.Zero(t, firms)
	assert.Zero(t, logs)
}

func TestLogin_GenericFailure(t *testing.T) {
	db := testdb.Open(t)
	s := NewService(db)
	ctx := context.Background()
	register(t, s, "login_firm")

	sess, err := s.Login(ctx, "login_firm", goodPassword)
	require.NoError(t, err)
	assert.Equal(t, "login_firm", sess.FirmCode)
	assert.False(t, sess.HasAccess)
	assert.NotNil(t, sess.Users)

	_, wrongPw := s.Login(ctx, "login_firm", "Wrong1234")
	_, noFirm := s.Login(ctx, "nobody", goodPassword)
	require.Error(t, wrongPw)
	require.Error(t, noFirm)
	assert.Equal(t, wrongPw.Error(), noFirm.Error())
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(noFirm))
}

func TestSetupAdmin_AndLoginUser(t *testing.T) {
	db := testdb.Open(t)
	s := NewService(db)
	ctx := context.Background()
	f := register(t, s, "admin_firm")

	admin, err := s.SetupAdmin(ctx, f.ID, AdminProfile{
		FullName: "Ayu", Email: "AYU@firm.id", Username: "ayu", Password: goodPassword,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, "ayu@firm.id", admin.Email)

	state, err := StateOf(ctx, db, f.ID)
	require.NoError(t, err)
	assert.Equal(t, RegisteredWithAdmin, state)

	_, err = s.SetupAdmin(ctx, f.ID, AdminProfile{FullName: "Other", Email: "o@firm.id"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	stored, err := tenant.ResolveByID(ctx, db, f.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CurrentUsers)

	sess, err := s.LoginUser(ctx, "admin_firm", "ayu", goodPassword)
	require.NoError(t, err)
	require.NotNil(t, sess.User)
	assert.Equal(t, admin.ID, sess.User.ID)
	require.Len(t, sess.Users, 1)

	_, wrongPw := s.LoginUser(ctx, "admin_firm", "ayu", "Nope12345")
	_, noUser := s.LoginUser(ctx, "admin_firm", "ghost", goodPassword)
	assert.Equal(t, wrongPw.Error(), noUser.Error())

	require.NoError(t, s.ChangePassword(ctx, ChangePasswordInput{
		FirmCode: "admin_firm", Username: "ayu", OldPassword: goodPassword, NewPassword: "Baru12345",
	}))
	_, err = s.LoginUser(ctx, "admin_firm", "ayu", goodPassword)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	_, err = s.LoginUser(ctx, "admin_firm", "ayu", "Baru12345")
	assert.NoError(t, err)
}

func TestAddUser_SeatCapAndDeactivate(t *testing.T) {
	db := testdb.Open(t)
	s := NewService(db)
	ctx := context.Background()
	f := register(t, s, "seat_firm")
	admin, err := s.SetupAdmin(ctx, f.ID, AdminProfile{FullName: "Admin", Email: "a@x.id"})
	require.NoError(t, err)

	// registration defaults allow a single seat, already taken by the admin
	_, err = s.AddUser(ctx, f.ID, NewUser{Username: "staff1", Role: models.RoleStaff}, nil)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = tenant.UpdatePlan(ctx, db, f.ID, models.PlanBasic, nil)
	require.NoError(t, err)

	staff, err := s.AddUser(ctx, f.ID, NewUser{Username: "staff1", Role: models.RoleStaff, Password: goodPassword}, nil)
	require.NoError(t, err)
	_, err = s.AddUser(ctx, f.ID, NewUser{Username: "staff1", Role: models.RoleStaff}, nil)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	firm, err := tenant.ResolveByID(ctx, db, f.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, firm.CurrentUsers)

	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(s.DeactivateUser(ctx, firm, staff.ID, "Wrong1234", nil)))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(s.DeactivateUser(ctx, firm, admin.ID, goodPassword, nil)))
	require.NoError(t, s.DeactivateUser(ctx, firm, staff.ID, goodPassword, nil))

	users, err := ActiveUsers(ctx, db, f.ID)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
