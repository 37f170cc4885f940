package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nurpe/haken-contracts/internal/model"
	"github.com/nurpe/haken-contracts/internal/repository"
)

// MinimumWageViolation describes an hourly contract paying below the
// prefectural minimum wage of its work location.
type MinimumWageViolation struct {
	Prefecture string          `json:"prefecture"`
	Pref       string          `json:"pref"`
	HourlyWage int             `json:"hourly_wage"`
	Amount     decimal.Decimal `json:"amount"`
}

func (v *MinimumWageViolation) Message() string {
	return fmt.Sprintf("%sの最低賃金（%d円）を下回っています。", v.Prefecture, v.HourlyWage)
}

type MinimumWageChecker struct{}

func NewMinimumWageChecker() *MinimumWageChecker {
	return &MinimumWageChecker{}
}

// Check returns nil when the contract passes or the rule does not apply:
// non-hourly pay, no amount, no work location, no matching prefecture or no
// wage on file for the start date.
func (c *MinimumWageChecker) Check(ctx context.Context, tx *repository.Repository, contract *model.StaffContract) (*MinimumWageViolation, error) {
	if contract.PayUnit != model.PayUnitHourly || !contract.ContractAmount.Valid {
		return nil, nil
	}
	location := strings.TrimSpace(contract.WorkLocation)
	if location == "" {
		return nil, nil
	}

	prefs, err := tx.ListDropdowns(ctx, model.DropdownCategoryPref)
	if err != nil {
		return nil, err
	}
	var found *model.Dropdown
	for i := range prefs {
		if prefs[i].Name != "" && strings.Contains(location, prefs[i].Name) {
			found = &prefs[i]
			break
		}
	}
	if found == nil {
		return nil, nil
	}

	pay, err := tx.LatestMinimumPay(ctx, found.Value, contract.StartDate)
	if repository.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	amount := contract.ContractAmount.Decimal
	if amount.GreaterThanOrEqual(decimal.NewFromInt(int64(pay.HourlyWage))) {
		return nil, nil
	}
	return &MinimumWageViolation{
		Prefecture: found.Name,
		Pref:       found.Value,
		HourlyWage: pay.HourlyWage,
		Amount:     amount,
	}, nil
}
