package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppUser is a login account. Company users belong to one tenant; client and
// staff users are global and reach tenants through connect approvals.
type AppUser struct {
	ID              uuid.UUID     `gorm:"type:uuid;primaryKey"`
	TenantID        *uuid.UUID    `gorm:"type:uuid;index"`
	Kind            PrincipalKind `gorm:"size:10;not null"`
	Email           string        `gorm:"size:255;not null;uniqueIndex"`
	Name            string        `gorm:"size:100"`
	PasswordHash    string        `gorm:"size:100;not null"`
	CorporateNumber string        `gorm:"size:13"`
	CanConfirm      bool          `gorm:"not null;default:false"`
	IsActive        bool          `gorm:"not null"`
	LastLoginAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (AppUser) TableName() string { return "apps_system_user" }

func (u *AppUser) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *AppUser) Principal() Principal {
	p := Principal{
		UserID:          u.ID,
		Kind:            u.Kind,
		Email:           u.Email,
		CorporateNumber: u.CorporateNumber,
	}
	if u.TenantID != nil {
		p.TenantID = *u.TenantID
	}
	return p
}

type ConnectStatus string

const (
	ConnectPending  ConnectStatus = "1"
	ConnectApproved ConnectStatus = "2"
)

// ConnectClient grants a client-side email access to one tenant's contracts
// with the client identified by CorporateNumber.
type ConnectClient struct {
	Base
	CorporateNumber string        `gorm:"size:13;not null;index"`
	Email           string        `gorm:"size:255;not null;index"`
	Status          ConnectStatus `gorm:"size:2;not null"`
	ApprovedAt      *time.Time
}

func (ConnectClient) TableName() string { return "apps_connect_client" }

// ConnectStaff grants a worker's email access to their own staff contracts.
type ConnectStaff struct {
	Base
	Email      string        `gorm:"size:255;not null;index"`
	Status     ConnectStatus `gorm:"size:2;not null"`
	ApprovedAt *time.Time
}

func (ConnectStaff) TableName() string { return "apps_connect_staff" }
