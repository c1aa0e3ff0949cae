package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("case not found")))
	assert.Equal(t, KindConflict, KindOf(fmt.Errorf("wrapped: %w", Conflict("dup"))))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindUnauthorized, KindOf(Unauthorized()))
}

func TestUnauthorizedIsGeneric(t *testing.T) {
	err := Unauthorized()
	assert.Equal(t, GenericCredentialsMessage, err.Message)
	assert.Nil(t, err.Fields)
}

func TestFromDB(t *testing.T) {
	require.NoError(t, FromDB(nil, "x", "y"))

	err := FromDB(gorm.ErrRecordNotFound, "client not found", "")
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "client not found", err.(*Error).Message)

	err = FromDB(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), "", "client already exists")
	assert.Equal(t, KindConflict, KindOf(err))

	cause := errors.New("connection reset")
	err = FromDB(cause, "", "")
	assert.Equal(t, KindInternal, KindOf(err))
	assert.ErrorIs(t, err, cause)

	// already classified errors pass through untouched
	pre := Forbidden("plan required")
	assert.Same(t, pre, FromDB(pre, "", ""))
}

func TestInvalidCarriesField(t *testing.T) {
	err := Invalid("confirm_password", "Passwords do not match")
	assert.Equal(t, KindValidation, err.Kind)
	assert.Equal(t, []string{"Passwords do not match"}, err.Fields["confirm_password"])
}
