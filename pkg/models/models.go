package models

import (
	"time"

	"github.com/google/uuid"
)

/* =============================== Enums ================================== */

// Role defines the type of user inside a firm.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// PlanTier is the subscription level of a firm.
type PlanTier string

const (
	PlanNone       PlanTier = "none"
	PlanBasic      PlanTier = "basic"
	PlanAdvanced   PlanTier = "advanced"
	PlanPremium    PlanTier = "premium"
	PlanEnterprise PlanTier = "enterprise"
)

// FileStatus mirrors the upload state reported by the file service.
type FileStatus string

const (
	FilePending  FileStatus = "pending"
	FileUploaded FileStatus = "uploaded"
)

/* =============================== Entities =============================== */

// Firm is the tenant root.
type Firm struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FirmCode       string     `gorm:"uniqueIndex;not null" json:"firm_code"`
	FirmName       string     `gorm:"not null" json:"firm_name"`
	PasswordHash   string     `gorm:"not null" json:"-"`
	PlanType       PlanTier   `gorm:"type:varchar(20);not null;default:'none'" json:"plan_type"`
	HasPaidPlan    bool       `gorm:"not null;default:false" json:"has_paid_plan"`
	CanUseFreePlan bool       `gorm:"not null;default:false" json:"can_use_free_plan"`
	MaxUsers       int        `gorm:"not null;default:1" json:"max_users"`
	CurrentUsers   int        `gorm:"not null;default:0" json:"current_users"`
	PlanStartDate  *time.Time `json:"plan_start_date,omitempty"`
	PlanEndDate    *time.Time `json:"plan_end_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// User belongs to exactly one firm. Username is unique per firm.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FirmID    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:ux_users_firm_username,priority:1" json:"firm_id"`
	Username  string    `gorm:"not null;uniqueIndex:ux_users_firm_username,priority:2" json:"username"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      Role      `gorm:"type:varchar(20);not null" json:"role"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`

	Credential *Credential `gorm:"foreignKey:UserID" json:"-"`
}

// Credential is the per-user password, stored apart from the firm password.
type Credential struct {
	UserID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	PasswordHash string    `gorm:"not null" json:"-"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Credential) TableName() string { return "auth_local" }

// Client is unique per (firm, name, COALESCE(phone, '')); the index is created by the migration.
type Client struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FirmID    uuid.UUID `gorm:"type:uuid;not null;index" json:"firm_id"`
	Name      string    `gorm:"not null" json:"name"`
	Phone     *string   `json:"phone"`
	Email     *string   `json:"email"`
	Address   *string   `gorm:"type:text" json:"address"`
	Notes     *string   `gorm:"type:text" json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

// Case represents a legal case of a firm.
type Case struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FirmID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"firm_id"`
	ClientID       *uuid.UUID `gorm:"type:uuid;index" json:"client_id"`
	CaseType       *string    `json:"case_type"`
	CaseReason     *string    `gorm:"type:text" json:"case_reason"`
	CaseNumber     *string    `json:"case_number"`
	Court          *string    `json:"court"`
	Division       *string    `json:"division"`
	Progress       *string    `json:"progress"`
	ProgressDate   *Date      `gorm:"type:date" json:"progress_date"`
	LawyerID       *uuid.UUID `gorm:"type:uuid" json:"lawyer_id"`
	LegalAffairsID *uuid.UUID `gorm:"type:uuid" json:"legal_affairs_id"`
	IsClosed       bool       `gorm:"not null;default:false" json:"is_closed"`
	ClosedAt       *Date      `gorm:"type:date" json:"closed_at"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Relations
	Client *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`
}

// CaseStage is an ordered milestone of a case.
type CaseStage struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CaseID    uuid.UUID `gorm:"type:uuid;not null;index" json:"case_id"`
	Name      string    `gorm:"not null" json:"name"`
	StageDate *Date     `gorm:"type:date" json:"stage_date"`
	Completed bool      `gorm:"not null;default:false" json:"completed"`
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// CaseReminder is a dated to-do attached to a case.
type CaseReminder struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CaseID    uuid.UUID `gorm:"type:uuid;not null;index" json:"case_id"`
	Title     string    `gorm:"not null" json:"title"`
	DueDate   Date      `gorm:"type:date;not null" json:"due_date"`
	IsDone    bool      `gorm:"not null;default:false" json:"is_done"`
	CreatedAt time.Time `json:"created_at"`
}

// CaseFolder groups files of a case. Slug is unique per case.
type CaseFolder struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CaseID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:ux_case_folders_slug,priority:1" json:"case_id"`
	Name      string    `gorm:"not null" json:"name"`
	Slug      string    `gorm:"not null;uniqueIndex:ux_case_folders_slug,priority:2" json:"slug"`
	Path      string    `gorm:"not null" json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

// CaseFile points at an object held by the external file service.
type CaseFile struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CaseID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"case_id"`
	FolderID    *uuid.UUID `gorm:"type:uuid;index" json:"folder_id"`
	Name        string     `gorm:"not null" json:"name"`
	Provider    string     `json:"provider"`
	Bucket      string     `json:"bucket"`
	S3Key       string     `gorm:"column:s3_key;uniqueIndex" json:"s3_key"`
	SizeBytes   *int64     `json:"size_bytes"`
	ContentType string     `json:"content_type"`
	Status      FileStatus `gorm:"type:varchar(20)" json:"status"`
	StorageURL  string     `json:"storage_url"`
	CreatedAt   time.Time  `json:"created_at"`
	ModifiedAt  time.Time  `gorm:"autoUpdateTime" json:"modified_at"`
}

// AuditLog is an append-only record of a mutating action.
type AuditLog struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ActorID   *uuid.UUID `gorm:"type:uuid;index" json:"actor_id,omitempty"`
	Action    string     `gorm:"type:varchar(50);not null;index" json:"action"`
	Details   JSONB      `gorm:"type:jsonb;default:'{}'::jsonb" json:"details"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// All lists every model in migration order.
func All() []any {
	return []any{
		&Firm{}, &User{}, &Credential{}, &Client{}, &Case{},
		&CaseStage{}, &CaseReminder{}, &CaseFolder{}, &CaseFile{}, &AuditLog{},
	}
}
