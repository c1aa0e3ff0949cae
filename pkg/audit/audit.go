// Package audit appends immutable audit_logs rows. Record must be called
// with the same transaction handle as the mutation it documents.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aldoetobex/lawcase-backend/pkg/models"
)

// Action is the fixed set of audited operations.
type Action string

const (
	CreateFirm     Action = "CREATE_FIRM"
	UpdateFirmPlan Action = "UPDATE_FIRM_PLAN"
	EnableFreePlan Action = "ENABLE_FREE_PLAN"
	CreateAdmin    Action = "CREATE_ADMIN"
	CreateUser     Action = "CREATE_USER"
	DeactivateUser Action = "DEACTIVATE_USER"
	UpdatePassword Action = "UPDATE_PASSWORD"
	CreateClient   Action = "CREATE_CLIENT"
	UpdateClient   Action = "UPDATE_CLIENT"
	DeleteClient   Action = "DELETE_CLIENT"
	CreateCase     Action = "CREATE_CASE"
	UpdateCase     Action = "UPDATE_CASE"
	DeleteCase     Action = "DELETE_CASE"
	CreateStage    Action = "CREATE_STAGE"
	UpdateStage    Action = "UPDATE_STAGE"
	DeleteStage    Action = "DELETE_STAGE"
	CreateReminder Action = "CREATE_REMINDER"
	UpdateReminder Action = "UPDATE_REMINDER"
	DeleteReminder Action = "DELETE_REMINDER"
	CreateFolder   Action = "CREATE_FOLDER"
	DeleteFolder   Action = "DELETE_FOLDER"
	ConfirmFile    Action = "CONFIRM_FILE"
)

var known = map[Action]struct{}{
	CreateFirm: {}, UpdateFirmPlan: {}, EnableFreePlan: {}, CreateAdmin: {},
	CreateUser: {}, DeactivateUser: {}, UpdatePassword: {},
	CreateClient: {}, UpdateClient: {}, DeleteClient: {},
	CreateCase: {}, UpdateCase: {}, DeleteCase: {},
	CreateStage: {}, UpdateStage: {}, DeleteStage: {},
	CreateReminder: {}, UpdateReminder: {}, DeleteReminder: {},
	CreateFolder: {}, DeleteFolder: {}, ConfirmFile: {},
}

// Valid reports whether a is one of the declared actions.
func (a Action) Valid() bool {
	_, ok := known[a]
	return ok
}

// Details is the action-specific payload.
type Details map[string]any

// Hook observes committed entries (metrics). Inside Transaction it fires
// after the commit; a Record outside Transaction fires right after the insert.
var Hook func(Action)

const pendingKey = "audit:pending"

// Transaction runs fn in one database transaction. Actions recorded through
// the tx handed to fn reach Hook only once the transaction commits.
func Transaction(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	var pending []Action
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(tx.Set(pendingKey, &pending).Session(&gorm.Session{}))
	})
	if err != nil {
		return err
	}
	if Hook != nil {
		for _, a := range pending {
			Hook(a)
		}
	}
	return nil
}

// Record inserts one audit row through tx. actorID may be nil.
func Record(ctx context.Context, tx *gorm.DB, action Action, details Details, actorID *uuid.UUID) error {
	if !action.Valid() {
		return fmt.Errorf("audit: unknown action %q", action)
	}
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("audit: marshal details: %w", err)
	}
	if details == nil {
		payload = []byte("{}")
	}
	entry := models.AuditLog{
		ActorID: actorID,
		Action:  string(action),
		Details: models.JSONB(payload),
	}
	if err := tx.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("audit: insert %s: %w", action, err)
	}
	if v, ok := tx.Get(pendingKey); ok {
		if pending, ok := v.(*[]Action); ok {
			*pending = append(*pending, action)
			return nil
		}
	}
	if Hook != nil {
		Hook(action)
	}
	return nil
}
