package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/haken-contracts/internal/config"
	"github.com/nurpe/haken-contracts/internal/model"
	"github.com/nurpe/haken-contracts/internal/repository"
)

// ContractService runs the client and staff contract state machines.
type ContractService struct {
	repo       *repository.Repository
	numbers    *NumberAllocator
	wages      *MinimumWageChecker
	auditor    *Auditor
	log        zerolog.Logger
	wageStrict bool
	now        func() time.Time
}

func NewContractService(
	repo *repository.Repository,
	numbers *NumberAllocator,
	wages *MinimumWageChecker,
	auditor *Auditor,
	cfg *config.Config,
	log zerolog.Logger,
) *ContractService {
	return &ContractService{
		repo:       repo,
		numbers:    numbers,
		wages:      wages,
		auditor:    auditor,
		log:        log,
		wageStrict: cfg.Contracts.MinimumWageStrict,
		now:        time.Now,
	}
}

// ApprovalResult is returned by approve calls. Warnings carry rule
// violations that were reported without blocking the approval.
type ApprovalResult[T any] struct {
	Contract *T       `json:"contract"`
	Warnings []string `json:"warnings,omitempty"`
}

func requireCompany(actor model.Principal) error {
	if !actor.IsCompany() || actor.TenantID == uuid.Nil {
		return ErrPermissionDenied
	}
	return nil
}

func notFound(err error) error {
	if repository.IsNotFound(err) {
		return ErrNotFound
	}
	return err
}

func validatePeriod(verr *ValidationError, start time.Time, end *time.Time) {
	if start.IsZero() {
		verr.Add("start_date", "開始日を入力してください。")
		return
	}
	if end != nil && model.DateOnly(*end).Before(model.DateOnly(start)) {
		verr.Add("end_date", "終了日は開始日以降の日付を入力してください。")
	}
}

func normalizeEnd(end *time.Time) *time.Time {
	if end == nil || end.IsZero() {
		return nil
	}
	return model.DatePtr(*end)
}
