package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/haken-contracts/internal/model"
	"github.com/nurpe/haken-contracts/internal/repository"
)

// Auditor writes one AppLog row per successful mutation. Callers pass the
// transaction the mutation ran in so a rolled back write leaves no log.
type Auditor struct {
	repo *repository.Repository
	log  zerolog.Logger
	now  func() time.Time
}

func NewAuditor(repo *repository.Repository, log zerolog.Logger) *Auditor {
	return &Auditor{repo: repo, log: log, now: time.Now}
}

func (a *Auditor) Record(ctx context.Context, tx *repository.Repository, actor model.Principal, entity model.Auditable, action string) error {
	tenantID := actor.TenantID
	userID := actor.UserID
	entry := &model.AppLog{
		TenantID:   &tenantID,
		UserID:     &userID,
		Action:     action,
		ModelName:  entity.AuditModel(),
		ObjectID:   entity.AuditID(),
		ObjectRepr: truncate(entity.String(), 500),
		Version:    entity.AuditVersion(),
		Timestamp:  a.now(),
	}
	if err := tx.CreateAppLog(ctx, entry); err != nil {
		return fmt.Errorf("write app log: %w", err)
	}
	return nil
}

// RecordAuth logs login, logout and failed logins. userID is nil when the
// email matched no account.
func (a *Auditor) RecordAuth(ctx context.Context, tenantID, userID *uuid.UUID, action, email, ip string) {
	entry := &model.AppLog{
		TenantID:   tenantID,
		UserID:     userID,
		Action:     action,
		ModelName:  model.AuthLogModel,
		ObjectRepr: truncate(fmt.Sprintf("%s (%s)", email, ip), 500),
		Timestamp:  a.now(),
	}
	if userID != nil {
		entry.ObjectID = userID.String()
	}
	if err := a.repo.CreateAppLog(ctx, entry); err != nil {
		a.log.Error().Err(err).Str("action", action).Str("email", email).Msg("failed to write auth log")
	}
}

type AppLogPage struct {
	Items []model.AppLog `json:"items"`
	Total int64          `json:"total"`
}

func (a *Auditor) List(ctx context.Context, actor model.Principal, filter repository.AppLogFilter) (*AppLogPage, error) {
	if !actor.IsCompany() {
		return nil, ErrPermissionDenied
	}
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	items, total, err := a.repo.ListAppLogs(ctx, actor.TenantID, filter)
	if err != nil {
		return nil, err
	}
	return &AppLogPage{Items: items, Total: total}, nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
