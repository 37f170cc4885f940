package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nurpe/haken-contracts/internal/model"
	"github.com/nurpe/haken-contracts/internal/repository"
)

type StaffContractInput struct {
	StaffID           uuid.UUID
	EmploymentTypeID  *uuid.UUID
	ContractName      string
	JobCategoryID     *uuid.UUID
	ContractPatternID *uuid.UUID
	StartDate         time.Time
	EndDate           *time.Time
	ContractAmount    decimal.NullDecimal
	PayUnit           model.PayUnit
	WorkLocation      string
	BusinessContent   string
	Notes             string
}

func (s *ContractService) CreateStaffContract(ctx context.Context, actor model.Principal, input StaffContractInput) (*model.StaffContract, error) {
	if err := requireCompany(actor); err != nil {
		return nil, err
	}

	var created *model.StaffContract
	err := s.repo.WithTransaction(ctx, func(tx *repository.Repository) error {
		refs, err := s.checkStaffContractInput(ctx, tx, actor.TenantID, input)
		if err != nil {
			return err
		}
		company, err := tx.GetCompany(ctx, actor.TenantID)
		if err != nil && !repository.IsNotFound(err) {
			return err
		}

		contract := &model.StaffContract{ContractStatus: model.StatusDraft}
		contract.TenantID = actor.TenantID
		contract.CreatedBy = &actor.UserID
		contract.UpdatedBy = &actor.UserID
		if company != nil {
			contract.CorporateNumber = company.CorporateNumber
		}
		applyStaffContractInput(contract, refs, input)

		if err := tx.CreateStaffContract(ctx, contract); err != nil {
			return err
		}
		if err := s.auditor.Record(ctx, tx, actor, contract, model.ActionCreate); err != nil {
			return err
		}
		created = contract
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetStaffContract(ctx, actor, created.ID)
}

func (s *ContractService) UpdateStaffContract(ctx context.Context, actor model.Principal, id uuid.UUID, input StaffContractInput) (*model.StaffContract, error) {
	if err := requireCompany(actor); err != nil {
		return nil, err
	}

	err := s.repo.WithTransaction(ctx, func(tx *repository.Repository) error {
		contract, err := lockStaffContract(ctx, tx, actor.TenantID, id)
		if err != nil {
			return err
		}
		if contract.IsApprovedOrLater() {
			return invalid("", "承認済みの契約は編集できません。")
		}
		refs, err := s.checkStaffContractInput(ctx, tx, actor.TenantID, input)
		if err != nil {
			return err
		}
		applyStaffContractInput(contract, refs, input)
		contract.Touch(actor.UserID)
		if err := tx.SaveStaffContract(ctx, contract); err != nil {
			return err
		}
		return s.auditor.Record(ctx, tx, actor, contract, model.ActionUpdate)
	})
	if err != nil {
		return nil, err
	}
	return s.GetStaffContract(ctx, actor, id)
}

func (s *ContractService) DeleteStaffContract(ctx context.Context, actor model.Principal, id uuid.UUID) error {
	if err := requireCompany(actor); err != nil {
		return err
	}
	return s.repo.WithTransaction(ctx, func(tx *repository.Repository) error {
		contract, err := lockStaffContract(ctx, tx, actor.TenantID, id)
		if err != nil {
			return err
		}
		if contract.ContractStatus != model.StatusDraft {
			return invalid("", "作成中の契約のみ削除できます。")
		}
		assigned, err := tx.CountStaffContractAssignments(ctx, id)
		if err != nil {
			return err
		}
		if assigned > 0 {
			return invalid("", "派遣先に割り当てられている契約は削除できません。")
		}
		if err := tx.DeleteStaffContract(ctx, actor.TenantID, id); err != nil {
			return notFound(err)
		}
		return s.auditor.Record(ctx, tx, actor, contract, model.ActionDelete)
	})
}

func (s *ContractService) SubmitStaffContract(ctx context.Context, actor model.Principal, id uuid.UUID) (*model.StaffContract, error) {
	if err := requireCompany(actor); err != nil {
		return nil, err
	}
	var result *model.StaffContract
	err := s.repo.WithTransaction(ctx, func(tx *repository.Repository) error {
		contract, err := lockStaffContract(ctx, tx, actor.TenantID, id)
		if err != nil {
			return err
		}
		if !model.CanTransition(contract.ContractStatus, model.StatusPending) {
			return ErrInvalidTransition
		}
		if err := staffContractComplete(contract); err != nil {
			return err
		}
		contract.ContractStatus = model.StatusPending
		contract.Touch(actor.UserID)
		if err := tx.SaveStaffContract(ctx, contract); err != nil {
			return err
		}
		if err := s.auditor.Record(ctx, tx, actor, contract, model.ActionSubmit); err != nil {
			return err
		}
		result = contract
		return nil
	})
	return result, err
}

// ApproveStaffContract approves a pending contract after the minimum-wage
// check, or returns an approved contract to DRAFT when isApproved is false.
func (s *ContractService) ApproveStaffContract(ctx context.Context, actor model.Principal, id uuid.UUID, isApproved bool) (*ApprovalResult[model.StaffContract], error) {
	if err := requireCompany(actor); err != nil {
		return nil, err
	}
	result := &ApprovalResult[model.StaffContract]{}
	err := s.repo.WithTransaction(ctx, func(tx *repository.Repository) error {
		contract, err := lockStaffContract(ctx, tx, actor.TenantID, id)
		if err != nil {
			return err
		}

		action := model.ActionApprove
		if isApproved {
			if !model.CanTransition(contract.ContractStatus, model.StatusApproved) {
				return ErrInvalidTransition
			}
			violation, err := s.wages.Check(ctx, tx, contract)
			if err != nil {
				return err
			}
			if violation != nil {
				if s.wageStrict {
					return invalid("contract_amount", violation.Message())
				}
				result.Warnings = append(result.Warnings, violation.Message())
				s.log.Warn().
					Str("contract_id", id.String()).
					Str("pref", violation.Pref).
					Int("minimum_wage", violation.HourlyWage).
					Str("amount", violation.Amount.String()).
					Msg("staff contract approved below minimum wage")
			}
			now := s.now()
			contract.ContractStatus = model.StatusApproved
			contract.ApprovedAt = &now
			contract.ApprovedBy = &actor.UserID
			if contract.ContractNumber == nil {
				number, err := s.numbers.AllocateStaffNumber(ctx, tx, contract)
				if err != nil {
					return err
				}
				contract.ContractNumber = &number
			}
		} else {
			if contract.ContractStatus != model.StatusApproved || !model.CanTransition(contract.ContractStatus, model.StatusDraft) {
				return ErrInvalidTransition
			}
			action = model.ActionUnapprove
			contract.ContractStatus = model.StatusDraft
			contract.ApprovedAt = nil
			contract.ApprovedBy = nil
		}

		contract.Touch(actor.UserID)
		if err := tx.SaveStaffContract(ctx, contract); err != nil {
			return err
		}
		if err := s.auditor.Record(ctx, tx, actor, contract, action); err != nil {
			return err
		}
		result.Contract = contract
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("contract_id", id.String()).
		Str("status", string(result.Contract.ContractStatus)).
		Msg("staff contract approval changed")
	return result, nil
}

func (s *ContractService) GetStaffContract(ctx context.Context, actor model.Principal, id uuid.UUID) (*model.StaffContract, error) {
	if err := requireCompany(actor); err != nil {
		return nil, err
	}
	contract, err := s.repo.GetStaffContract(ctx, actor.TenantID, id)
	if err != nil {
		return nil, notFound(err)
	}
	return contract, nil
}

func (s *ContractService) ListStaffContracts(ctx context.Context, actor model.Principal, filter repository.ContractFilter) ([]model.StaffContract, error) {
	if err := requireCompany(actor); err != nil {
		return nil, err
	}
	return s.repo.ListStaffContracts(ctx, actor.TenantID, filter)
}

func lockStaffContract(ctx context.Context, tx *repository.Repository, tenantID, id uuid.UUID) (*model.StaffContract, error) {
	if err := tx.LockStaffContract(ctx, tenantID, id); err != nil {
		return nil, notFound(err)
	}
	contract, err := tx.GetStaffContract(ctx, tenantID, id)
	if err != nil {
		return nil, notFound(err)
	}
	return contract, nil
}

type staffContractRefs struct {
	staff          *model.Staff
	employmentType *model.EmploymentType
}

func (s *ContractService) checkStaffContractInput(ctx context.Context, tx *repository.Repository, tenantID uuid.UUID, input StaffContractInput) (staffContractRefs, error) {
	verr := &ValidationError{}
	var refs staffContractRefs

	if input.StaffID == uuid.Nil {
		verr.Add("staff_id", "スタッフを選択してください。")
	} else {
		staff, err := tx.GetStaff(ctx, tenantID, input.StaffID)
		switch {
		case repository.IsNotFound(err):
			verr.Add("staff_id", "スタッフが見つかりません。")
		case err != nil:
			return refs, err
		default:
			refs.staff = staff
		}
	}
	if input.EmploymentTypeID != nil {
		employmentType, err := tx.GetEmploymentType(ctx, tenantID, *input.EmploymentTypeID)
		switch {
		case repository.IsNotFound(err):
			verr.Add("employment_type_id", "雇用形態が見つかりません。")
		case err != nil:
			return refs, err
		default:
			refs.employmentType = employmentType
		}
	}
	if strings.TrimSpace(input.ContractName) == "" {
		verr.Add("contract_name", "契約名を入力してください。")
	}
	validatePeriod(verr, input.StartDate, input.EndDate)
	if input.PayUnit != "" && !input.PayUnit.Valid() {
		verr.Add("pay_unit", "支払単位が不正です。")
	}
	if input.ContractAmount.Valid && input.ContractAmount.Decimal.IsNegative() {
		verr.Add("contract_amount", "契約金額は0以上を入力してください。")
	}
	if input.ContractPatternID != nil {
		pattern, err := tx.GetContractPattern(ctx, tenantID, *input.ContractPatternID)
		switch {
		case repository.IsNotFound(err):
			verr.Add("contract_pattern_id", "契約書パターンが見つかりません。")
		case err != nil:
			return refs, err
		case pattern.Domain != model.PatternDomainStaff:
			verr.Add("contract_pattern_id", "スタッフ用の契約書パターンを選択してください。")
		}
	}
	if input.JobCategoryID != nil {
		if _, err := tx.GetJobCategory(ctx, tenantID, *input.JobCategoryID); err != nil {
			if !repository.IsNotFound(err) {
				return refs, err
			}
			verr.Add("job_category_id", "職種が見つかりません。")
		}
	}
	return refs, verr.OrNil()
}

// applyStaffContractInput copies the input and snapshots the fixed-term flag
// of the employment type as of drafting.
func applyStaffContractInput(contract *model.StaffContract, refs staffContractRefs, input StaffContractInput) {
	contract.StaffID = refs.staff.ID
	contract.Staff = refs.staff
	contract.EmploymentTypeID = input.EmploymentTypeID
	contract.IsFixedTerm = refs.employmentType != nil && refs.employmentType.IsFixedTerm
	contract.ContractName = strings.TrimSpace(input.ContractName)
	contract.JobCategoryID = input.JobCategoryID
	contract.ContractPatternID = input.ContractPatternID
	contract.StartDate = model.DateOnly(input.StartDate)
	contract.EndDate = normalizeEnd(input.EndDate)
	contract.ContractAmount = input.ContractAmount
	contract.PayUnit = input.PayUnit
	contract.WorkLocation = input.WorkLocation
	contract.BusinessContent = input.BusinessContent
	contract.Notes = input.Notes
}

func staffContractComplete(contract *model.StaffContract) error {
	verr := &ValidationError{}
	if contract.EmploymentTypeID == nil {
		verr.Add("employment_type_id", "雇用形態を選択してください。")
	}
	if contract.ContractPatternID == nil {
		verr.Add("contract_pattern_id", "契約書パターンを選択してください。")
	}
	if contract.PayUnit == "" {
		verr.Add("pay_unit", "支払単位を選択してください。")
	}
	if !contract.ContractAmount.Valid {
		verr.Add("contract_amount", "契約金額を入力してください。")
	}
	return verr.OrNil()
}
