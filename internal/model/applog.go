package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionCreate      = "create"
	ActionUpdate      = "update"
	ActionDelete      = "delete"
	ActionSubmit      = "submit"
	ActionApprove     = "approve"
	ActionUnapprove   = "unapprove"
	ActionIssue       = "issue"
	ActionPrint       = "print"
	ActionConfirm     = "confirm"
	ActionLogin       = "login"
	ActionLogout      = "logout"
	ActionLoginFailed = "login_failed"
)

// AuthLogModel is the model name used for login/logout rows.
const AuthLogModel = "Auth"

// AppLog is an append-only record of one mutation or authentication event.
type AppLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TenantID   *uuid.UUID `gorm:"type:uuid;index"`
	UserID     *uuid.UUID `gorm:"type:uuid;index"`
	Action     string     `gorm:"size:20;not null"`
	ModelName  string     `gorm:"size:100;not null;index:idx_app_log_object,priority:1"`
	ObjectID   string     `gorm:"size:100;index:idx_app_log_object,priority:2"`
	ObjectRepr string     `gorm:"size:500"`
	Version    int
	Timestamp  time.Time `gorm:"not null;index"`
}

func (AppLog) TableName() string { return "apps_system_app_log" }

func (l *AppLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
