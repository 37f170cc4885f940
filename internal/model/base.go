package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base holds the columns every tenant-owned entity carries.
type Base struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	Version   int        `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy *uuid.UUID `gorm:"type:uuid"`
	UpdatedBy *uuid.UUID `gorm:"type:uuid"`
}

func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Version == 0 {
		b.Version = 1
	}
	return nil
}

// Touch stamps the author and bumps the version before a write.
func (b *Base) Touch(userID uuid.UUID) {
	b.Version++
	b.UpdatedBy = &userID
}

func (b *Base) SetTenant(tenantID uuid.UUID) {
	b.TenantID = tenantID
}

func (b *Base) AuditID() string {
	return b.ID.String()
}

func (b *Base) AuditVersion() int {
	return b.Version
}

// Auditable is implemented by every entity written to the app log.
type Auditable interface {
	AuditModel() string
	AuditID() string
	AuditVersion() int
	String() string
}
