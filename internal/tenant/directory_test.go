package tenant

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldoetobex/lawcase-backend/internal/testdb"
	"github.com/aldoetobex/lawcase-backend/pkg/apperr"
	"github.com/aldoetobex/lawcase-backend/pkg/models"
)

func TestSeatsFor(t *testing.T) {
	cases := map[models.PlanTier]int{
		models.PlanBasic:      5,
		models.PlanAdvanced:   10,
		models.PlanPremium:    20,
		models.PlanEnterprise: 50,
		models.PlanNone:       1,
		"gold":                1,
	}
	for tier, want := range cases {
		assert.Equal(t, want, SeatsFor(tier), string(tier))
	}
}

func TestHasAccess(t *testing.T) {
	assert.False(t, HasAccess(nil))
	assert.False(t, HasAccess(&models.Firm{}))
	assert.True(t, HasAccess(&models.Firm{HasPaidPlan: true}))
	assert.True(t, HasAccess(&models.Firm{CanUseFreePlan: true}))
}

func fixClock(t *testing.T, at time.Time) {
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

func TestCreateFirm_DefaultsAndConflict(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()

	f, err := CreateFirm(ctx, db, " Hukum & Rekan ", "hukum_1", "hash")
	require.NoError(t, err)
	assert.Equal(t, "Hukum & Rekan", f.FirmName)
	assert.Equal(t, models.PlanNone, f.PlanType)
	assert.False(t, f.HasPaidPlan)
	assert.False(t, f.CanUseFreePlan)
	assert.Equal(t, 1, f.MaxUsers)
	assert.Equal(t, 0, f.CurrentUsers)

	ok, err := Exists(ctx, db, "hukum_1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = CreateFirm(ctx, db, "dup", "hukum_1", "hash")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	var n int64
	require.NoError(t, db.Model(&models.AuditLog{}).Where("action = ?", "CREATE_FIRM").Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestUpdatePlan_AndFreePlan(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	at := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	fixClock(t, at)

	f, err := CreateFirm(ctx, db, "Firm", "firm", "hash")
	require.NoError(t, err)

	up, err := UpdatePlan(ctx, db, f.ID, models.PlanPremium, nil)
	require.NoError(t, err)
	assert.Equal(t, 20, up.MaxUsers)
	assert.True(t, up.HasPaidPlan)
	assert.True(t, HasAccess(up))
	assert.Equal(t, at.Add(TrialWindow), *up.PlanEndDate)

	free, err := EnableFreePlan(ctx, db, f.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.PlanBasic, free.PlanType)
	assert.False(t, free.HasPaidPlan)
	assert.True(t, free.CanUseFreePlan)
	assert.Equal(t, 5, free.MaxUsers)

	stored, err := ResolveByCode(ctx, db, "firm")
	require.NoError(t, err)
	assert.Equal(t, models.PlanBasic, stored.PlanType)
	assert.True(t, stored.PlanEndDate.Equal(at.Add(FreePlanWindow)))

	_, err = UpdatePlan(ctx, db, uuid.New(), models.PlanBasic, nil)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestAdjustSeats(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()

	f, err := CreateFirm(ctx, db, "Seats", "seats", "hash")
	require.NoError(t, err)

	require.NoError(t, AdjustSeats(ctx, db, f.ID, 1))
	err = AdjustSeats(ctx, db, f.ID, 1)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	require.NoError(t, AdjustSeats(ctx, db, f.ID, -1))
	require.NoError(t, AdjustSeats(ctx, db, f.ID, -1))

	stored, err := ResolveByID(ctx, db, f.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.CurrentUsers)
}
