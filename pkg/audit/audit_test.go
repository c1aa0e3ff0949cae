package audit

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/aldoetobex/lawcase-backend/internal/testdb"
	"github.com/aldoetobex/lawcase-backend/pkg/models"
)

func TestActionValid(t *testing.T) {
	assert.True(t, CreateCase.Valid())
	assert.True(t, ConfirmFile.Valid())
	assert.False(t, Action("DROP_TABLE").Valid())
	assert.False(t, Action("").Valid())
}

func TestRecord_RejectsBeforeTouchingStorage(t *testing.T) {
	// a nil handle would panic if Record reached the insert
	err := Record(context.Background(), nil, Action("SOMETHING_ELSE"), nil, nil)
	require.Error(t, err)

	err = Record(context.Background(), nil, CreateCase, Details{"bad": math.Inf(1)}, nil)
	require.Error(t, err)
}

/* ============================== Integration ============================= */

func TestTransaction_HookAfterCommitOnly(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()

	var seen []Action
	Hook = func(a Action) { seen = append(seen, a) }
	t.Cleanup(func() { Hook = nil })

	// insert succeeds, then the transaction is rolled back
	err := Transaction(ctx, db, func(tx *gorm.DB) error {
		if err := Record(ctx, tx, CreateClient, Details{"name": "Ani"}, nil); err != nil {
			return err
		}
		assert.Empty(t, seen, "hook must wait for commit")
		return errors.New("later step failed")
	})
	require.Error(t, err)
	assert.Empty(t, seen)

	var logs int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&logs).Error)
	assert.Zero(t, logs)

	err = Transaction(ctx, db, func(tx *gorm.DB) error {
		if err := Record(ctx, tx, CreateClient, nil, nil); err != nil {
			return err
		}
		return Record(ctx, tx, UpdateClient, nil, nil)
	})
	require.NoError(t, err)
	assert.Equal(t, []Action{CreateClient, UpdateClient}, seen)
}
