package service

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/haken-contracts/internal/config"
	"github.com/nurpe/haken-contracts/internal/model"
	"github.com/nurpe/haken-contracts/internal/testutil"
)

func TestCreateClientContract(t *testing.T) {
	env := newTestEnv(t)
	f := env.f
	ctx := context.Background()

	contract, err := env.contracts.CreateClientContract(ctx, f.Actor(), ClientContractInput{
		ClientID:               f.Client.ID,
		ContractName:           "総務派遣",
		ClientContractTypeCode: model.ContractTypeDispatch,
		ContractPatternID:      &f.ClientPattern.ID,
		JobCategoryID:          &f.JobCategory.ID,
		StartDate:              testutil.Date(t, "2025-04-01"),
		EndDate:                testutil.DatePtr(t, "2025-09-30"),
		ContractAmount:         decimal.NewNullDecimal(decimal.NewFromInt(2500)),
		BillUnit:               model.PayUnitHourly,
		Haken: &HakenInput{
			HakenOfficeID: &f.Office.ID,
			HakenUnitID:   &f.Unit.ID,
			Commander:     "指揮 命令",
			WorkLocation:  "東京都千代田区",
			Ttp:           &TtpInput{EmployerName: f.Client.Name},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusDraft, contract.ContractStatus)
	assert.Nil(t, contract.ContractNumber)
	assert.Equal(t, f.Client.CorporateNumber, contract.CorporateNumber)
	require.NotNil(t, contract.Haken)
	assert.Equal(t, f.Unit.Name, contract.Haken.OrganizationName())
	assert.True(t, contract.IsTtp())
	assert.Equal(t, int64(1), env.countLogs(t, "ClientContract", model.ActionCreate))
}

func TestCreateClientContractCollectsFieldErrors(t *testing.T) {
	env := newTestEnv(t)
	f := env.f

	_, err := env.contracts.CreateClientContract(context.Background(), f.Actor(), ClientContractInput{
		ClientID:               f.Client.ID,
		ClientContractTypeCode: model.ContractTypeDispatch,
		StartDate:              testutil.Date(t, "2025-04-01"),
		EndDate:                testutil.DatePtr(t, "2025-03-01"),
		ContractPatternID:      &f.StaffPattern.ID,
	})
	require.ErrorIs(t, err, ErrInvalidInput)

	verr, ok := IsValidation(err)
	require.True(t, ok)
	fields := make([]string, 0, len(verr.Errors))
	for _, fe := range verr.Errors {
		fields = append(fields, fe.Field)
	}
	assert.Contains(t, fields, "contract_name")
	assert.Contains(t, fields, "end_date")
	assert.Contains(t, fields, "contract_pattern_id")
	assert.Equal(t, int64(0), env.countLogs(t, "ClientContract", model.ActionCreate))
}

func TestContractOperationsRequireCompanyActor(t *testing.T) {
	env := newTestEnv(t)
	actor := env.f.Actor()
	actor.Kind = model.PrincipalClient

	_, err := env.contracts.CreateClientContract(context.Background(), actor, ClientContractInput{})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestApproveClientContractAllocatesDenseNumbers(t *testing.T) {
	env := newTestEnv(t)
	f := env.f
	ctx := context.Background()

	first := f.ClientContract(t, model.ContractTypeContract, model.StatusPending, "2025-04-01", "2025-09-30")
	second := f.ClientContract(t, model.ContractTypeContract, model.StatusPending, "2025-04-15", "2025-09-30")

	result, err := env.contracts.ApproveClientContract(ctx, f.Actor(), first.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "12345678-202504-0001", result.Contract.Number())
	assert.Equal(t, model.StatusApproved, result.Contract.ContractStatus)
	assert.NotNil(t, result.Contract.ApprovedAt)

	result, err = env.contracts.ApproveClientContract(ctx, f.Actor(), second.ID, true)
	require.NoError(t, err)
	assert.Equal(t, "12345678-202504-0002", result.Contract.Number())
}

func TestApprovalRoundTripKeepsNumber(t *testing.T) {
	env := newTestEnv(t)
	f := env.f
	ctx := context.Background()

	contract := f.ClientContract(t, model.ContractTypeDispatch, model.StatusPending, "2025-04-01", "2025-09-30")
	require.NoError(t, f.DB.Model(&model.ClientContract{}).Where("id = ?", contract.ID).
		Update("contract_pattern_id", f.ClientPattern.ID).Error)

	approved, err := env.contracts.ApproveClientContract(ctx, f.Actor(), contract.ID, true)
	require.NoError(t, err)
	number := approved.Contract.Number()

	unapproved, err := env.contracts.ApproveClientContract(ctx, f.Actor(), contract.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDraft, unapproved.Contract.ContractStatus)
	assert.Nil(t, unapproved.Contract.ApprovedAt)
	assert.Equal(t, number, unapproved.Contract.Number())

	_, err = env.contracts.ApproveClientContract(ctx, f.Actor(), contract.ID, true)
	assert.ErrorIs(t, err, ErrInvalidTransition, "a draft has to be submitted first")

	_, err = env.contracts.SubmitClientContract(ctx, f.Actor(), contract.ID)
	require.NoError(t, err)
	again, err := env.contracts.ApproveClientContract(ctx, f.Actor(), contract.ID, true)
	require.NoError(t, err)
	assert.Equal(t, number, again.Contract.Number())

	assert.Equal(t, int64(2), env.countLogs(t, "ClientContract", model.ActionApprove))
	assert.Equal(t, int64(1), env.countLogs(t, "ClientContract", model.ActionUnapprove))
}

func TestUnapproveRequiresApproved(t *testing.T) {
	env := newTestEnv(t)
	f := env.f
	contract := f.ClientContract(t, model.ContractTypeContract, model.StatusPending, "2025-04-01", "")

	_, err := env.contracts.ApproveClientContract(context.Background(), f.Actor(), contract.ID, false)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSubmitRequiresCompleteDispatchContract(t *testing.T) {
	env := newTestEnv(t)
	f := env.f
	contract := f.ClientContract(t, model.ContractTypeDispatch, model.StatusDraft, "2025-04-01", "")

	_, err := env.contracts.SubmitClientContract(context.Background(), f.Actor(), contract.ID)
	require.ErrorIs(t, err, ErrInvalidInput)
	verr, _ := IsValidation(err)
	require.Len(t, verr.Errors, 1)
	assert.Equal(t, "contract_pattern_id", verr.Errors[0].Field)
}

func TestApproveTtpContractLimitedToSixMonths(t *testing.T) {
	env := newTestEnv(t)
	f := env.f
	ctx := context.Background()

	ttp := f.ClientContract(t, model.ContractTypeDispatch, model.StatusPending, "2025-04-01", "2025-11-30")
	f.AddTtp(t, ttp)
	_, err := env.contracts.ApproveClientContract(ctx, f.Actor(), ttp.ID, true)
	require.ErrorIs(t, err, ErrInvalidInput)

	stored, err := env.contracts.GetClientContract(ctx, f.Actor(), ttp.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, stored.ContractStatus)
	assert.Nil(t, stored.ContractNumber)

	plain := f.ClientContract(t, model.ContractTypeDispatch, model.StatusPending, "2025-04-01", "2025-11-30")
	_, err = env.contracts.ApproveClientContract(ctx, f.Actor(), plain.ID, true)
	require.NoError(t, err)

	sixMonths := f.ClientContract(t, model.ContractTypeDispatch, model.StatusPending, "2025-04-01", "2025-09-30")
	f.AddTtp(t, sixMonths)
	_, err = env.contracts.ApproveClientContract(ctx, f.Actor(), sixMonths.ID, true)
	require.NoError(t, err)
}

func TestApproveClientContractWithoutCorporateNumber(t *testing.T) {
	env := newTestEnv(t)
	f := env.f
	require.NoError(t, f.DB.Model(&model.Client{}).Where("id = ?", f.Client.ID).Update("corporate_number", "").Error)
	contract := f.ClientContract(t, model.ContractTypeContract, model.StatusPending, "2025-04-01", "")
	require.NoError(t, f.DB.Model(&model.ClientContract{}).Where("id = ?", contract.ID).Update("corporate_number", "").Error)

	_, err := env.contracts.ApproveClientContract(context.Background(), f.Actor(), contract.ID, true)
	require.ErrorIs(t, err, ErrMissingCode)
	var missing *MissingCodeError
	require.ErrorAs(t, err, &missing)
	assert.NotEmpty(t, missing.Hint)
}

func TestDeleteClientContract(t *testing.T) {
	env := newTestEnv(t)
	f := env.f
	ctx := context.Background()

	assigned := f.ClientContract(t, model.ContractTypeDispatch, model.StatusDraft, "2025-04-01", "")
	staff := f.Staff(t, "delete@example.com", "1990-01-01")
	f.Assign(t, assigned, f.StaffContract(t, staff, false, model.StatusDraft, "2025-04-01", ""))
	assert.ErrorIs(t, env.contracts.DeleteClientContract(ctx, f.Actor(), assigned.ID), ErrInvalidInput)

	approved := f.ClientContract(t, model.ContractTypeContract, model.StatusApproved, "2025-04-01", "")
	assert.ErrorIs(t, env.contracts.DeleteClientContract(ctx, f.Actor(), approved.ID), ErrInvalidInput)

	draft := f.ClientContract(t, model.ContractTypeDispatch, model.StatusDraft, "2025-04-01", "")
	require.NoError(t, env.contracts.DeleteClientContract(ctx, f.Actor(), draft.ID))
	_, err := env.contracts.GetClientContract(ctx, f.Actor(), draft.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func pendingStaffContractIn(t *testing.T, env *testEnv, location string, amount int64) *model.StaffContract {
	t.Helper()
	f := env.f
	staff := f.Staff(t, "", "1990-01-01")
	contract := f.StaffContract(t, staff, true, model.StatusPending, "2024-04-01", "2025-03-31")
	require.NoError(t, f.DB.Model(&model.StaffContract{}).Where("id = ?", contract.ID).Updates(map[string]interface{}{
		"work_location":   location,
		"contract_amount": decimal.NewFromInt(amount),
	}).Error)
	return contract
}

func TestApproveStaffContractChecksMinimumWage(t *testing.T) {
	env := newTestEnv(t)
	f := env.f
	f.Prefectures(t)
	ctx := context.Background()

	low := pendingStaffContractIn(t, env, "東京都新宿区西新宿", 1000)
	_, err := env.contracts.ApproveStaffContract(ctx, f.Actor(), low.ID, true)
	require.ErrorIs(t, err, ErrInvalidInput)
	verr, _ := IsValidation(err)
	require.Len(t, verr.Errors, 1)
	assert.Equal(t, "contract_amount", verr.Errors[0].Field)
	assert.True(t, strings.Contains(verr.Errors[0].Message, "1113"), verr.Errors[0].Message)

	ok := pendingStaffContractIn(t, env, "東京都新宿区西新宿", 1200)
	result, err := env.contracts.ApproveStaffContract(ctx, f.Actor(), ok.ID, true)
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, model.StatusApproved, result.Contract.ContractStatus)
	assert.True(t, strings.HasSuffix(result.Contract.Number(), "-202404-0001"), result.Contract.Number())

	elsewhere := pendingStaffContractIn(t, env, "大阪府大阪市", 900)
	_, err = env.contracts.ApproveStaffContract(ctx, f.Actor(), elsewhere.ID, true)
	assert.NoError(t, err, "no minimum wage on file for the prefecture")
}

func TestApproveStaffContractWarnsWhenNotStrict(t *testing.T) {
	env := newTestEnvWithConfig(t, &config.Config{})
	f := env.f
	f.Prefectures(t)

	low := pendingStaffContractIn(t, env, "東京都港区", 1000)
	result, err := env.contracts.ApproveStaffContract(context.Background(), f.Actor(), low.ID, true)
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "東京都")
	assert.Equal(t, model.StatusApproved, result.Contract.ContractStatus)
}

func TestCreateStaffContractSnapshotsEmploymentType(t *testing.T) {
	env := newTestEnv(t)
	f := env.f
	staff := f.Staff(t, "snapshot@example.com", "1990-01-01")

	contract, err := env.contracts.CreateStaffContract(context.Background(), f.Actor(), StaffContractInput{
		StaffID:           staff.ID,
		EmploymentTypeID:  &f.FixedTerm.ID,
		ContractName:      "雇用契約",
		ContractPatternID: &f.StaffPattern.ID,
		StartDate:         testutil.Date(t, "2025-04-01"),
		ContractAmount:    decimal.NewNullDecimal(decimal.NewFromInt(1500)),
		PayUnit:           model.PayUnitHourly,
	})
	require.NoError(t, err)
	assert.True(t, contract.IsFixedTerm)
	assert.Equal(t, f.Company.CorporateNumber, contract.CorporateNumber)
	assert.Equal(t, model.StatusDraft, contract.ContractStatus)

	require.NoError(t, f.DB.Model(&model.EmploymentType{}).Where("id = ?", f.FixedTerm.ID).Update("is_fixed_term", false).Error)
	stored, err := env.contracts.GetStaffContract(context.Background(), f.Actor(), contract.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsFixedTerm, "the flag is a snapshot")
}
