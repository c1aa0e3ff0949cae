package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldoetobex/lawcase-backend/pkg/apperr"
)

func TestIsFirmCode(t *testing.T) {
	for _, ok := range []string{"abc", "A-1_b", "firm_2024"} {
		assert.True(t, IsFirmCode(ok), ok)
	}
	for _, bad := range []string{"", "has space", "ümlaut", "a.b", "semi;colon"} {
		assert.False(t, IsFirmCode(bad), bad)
	}
}

func TestIsStrongPassword(t *testing.T) {
	assert.True(t, IsStrongPassword("Abcdefgh"))
	assert.True(t, IsStrongPassword("passWORD123"))
	assert.False(t, IsStrongPassword("Abcdefg"), "too short")
	assert.False(t, IsStrongPassword("abcdefgh"), "no upper")
	assert.False(t, IsStrongPassword("ABCDEFGH"), "no lower")
	assert.False(t, IsStrongPassword("ÄÖÜäöüßé"), "non-ascii letters do not count")
}

type registerLike struct {
	Code     string `json:"account" validate:"required,firmcode"`
	Password string `json:"password" validate:"required,strongpassword"`
	Confirm  string `json:"confirm_password" validate:"required,eqfield=Password"`
}

func TestValidate_FieldNamesFromJSON(t *testing.T) {
	errs, err := Validate(registerLike{Code: "bad code", Password: "weak", Confirm: "other"})
	require.NoError(t, err)
	assert.Contains(t, errs, "account")
	assert.Contains(t, errs, "password")
	assert.Equal(t, []string{"Passwords do not match"}, errs["confirm_password"])

	errs, err = Validate(registerLike{Code: "ok_code", Password: "Abcdefgh", Confirm: "Abcdefgh"})
	require.NoError(t, err)
	assert.Nil(t, errs)
}

func TestCheck(t *testing.T) {
	err := Check(registerLike{})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.NoError(t, Check(registerLike{Code: "x", Password: "Abcdefgh", Confirm: "Abcdefgh"}))
}

func TestBcryptLen(t *testing.T) {
	type pw struct {
		Password string `json:"password" validate:"required,bcryptlen,strongpassword"`
	}
	assert.NoError(t, Check(pw{Password: "Abcdefgh" + strings.Repeat("x", 64)}))

	errs, err := Validate(pw{Password: "Abcdefgh" + strings.Repeat("密", 30)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Must be at most 72 bytes"}, errs["password"])
}
