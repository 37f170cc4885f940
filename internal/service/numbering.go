package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/nurpe/haken-contracts/internal/model"
	"github.com/nurpe/haken-contracts/internal/repository"
)

// NumberAllocator mints <code>-<YYYYMM>-<NNNN> contract numbers. Every call
// consumes a number, so callers allocate only when the contract has none.
type NumberAllocator struct {
	log zerolog.Logger
}

func NewNumberAllocator(log zerolog.Logger) *NumberAllocator {
	return &NumberAllocator{log: log}
}

func (a *NumberAllocator) AllocateClientNumber(ctx context.Context, tx *repository.Repository, contract *model.ClientContract) (string, error) {
	code := contract.ClientCode()
	if code == "" {
		return "", &MissingCodeError{Hint: "取引先に法人番号を設定してください。"}
	}
	yearMonth := model.YearMonth(contract.StartDate)
	n, err := allocate(tx, "client_number", func(tx *repository.Repository) (int, error) {
		return tx.NextClientNumber(ctx, contract.TenantID, code, yearMonth)
	})
	if err != nil {
		return "", err
	}
	number := model.FormatContractNumber(code, yearMonth, n)
	a.log.Info().Str("contract_id", contract.ID.String()).Str("number", number).Msg("client contract number allocated")
	return number, nil
}

func (a *NumberAllocator) AllocateStaffNumber(ctx context.Context, tx *repository.Repository, contract *model.StaffContract) (string, error) {
	code := contract.EmployeeNo()
	if code == "" {
		return "", &MissingCodeError{Hint: "スタッフに社員番号を設定してください。"}
	}
	yearMonth := model.YearMonth(contract.StartDate)
	n, err := allocate(tx, "staff_number", func(tx *repository.Repository) (int, error) {
		return tx.NextStaffNumber(ctx, contract.TenantID, code, yearMonth)
	})
	if err != nil {
		return "", err
	}
	number := model.FormatContractNumber(code, yearMonth, n)
	a.log.Info().Str("contract_id", contract.ID.String()).Str("number", number).Msg("staff contract number allocated")
	return number, nil
}

// allocate runs next under a savepoint and retries it once when a concurrent
// transaction created the allocator row first.
func allocate(tx *repository.Repository, savepoint string, next func(*repository.Repository) (int, error)) (int, error) {
	if err := tx.SavePoint(savepoint); err != nil {
		return 0, err
	}
	n, err := next(tx)
	if err == nil || !repository.IsDuplicate(err) {
		return n, err
	}
	if err := tx.RollbackTo(savepoint); err != nil {
		return 0, err
	}
	return next(tx)
}
