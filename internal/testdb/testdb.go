// Package testdb opens the integration-test database.
package testdb

import (
	"os"
	"testing"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/aldoetobex/lawcase-backend/pkg/credential"
	"github.com/aldoetobex/lawcase-backend/pkg/database"
	"github.com/aldoetobex/lawcase-backend/pkg/models"
)

const truncateSQL = `
TRUNCATE TABLE
	audit_logs,
	case_files,
	case_folders,
	case_reminders,
	case_stages,
	cases,
	clients,
	auth_local,
	users,
	firms
RESTART IDENTITY CASCADE`

// Open loads TEST_DATABASE_URL, opens a real Postgres connection, runs
// migrations and truncates all tables after the test. Skips when unset.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	_ = godotenv.Load()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is empty")
	}
	db, err := database.Open(database.Options{DSN: dsn})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	credential.Cost = bcrypt.MinCost

	t.Cleanup(func() {
		if err := db.Exec(truncateSQL).Error; err != nil {
			t.Logf("truncate failed (ignored): %v", err)
		}
	})
	return db
}

// SeedFirm inserts a firm with the given plan state. The firm password is "Rahasia123".
func SeedFirm(t *testing.T, db *gorm.DB, code string, access bool) *models.Firm {
	t.Helper()
	hash, err := credential.Hash(FirmPassword)
	if err != nil {
		t.Fatal(err)
	}
	f := models.Firm{
		FirmCode:     code,
		FirmName:     "Firm " + code,
		PasswordHash: hash,
		PlanType:     models.PlanNone,
		MaxUsers:     1,
	}
	if access {
		f.PlanType, f.HasPaidPlan, f.MaxUsers = models.PlanBasic, true, 5
	}
	if err := db.Create(&f).Error; err != nil {
		t.Fatalf("seed firm: %v", err)
	}
	return &f
}

// FirmPassword is the password of firms created by SeedFirm.
const FirmPassword = "Rahasia123"
