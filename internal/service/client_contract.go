package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nurpe/haken-contracts/internal/model"
	"github.com/nurpe/haken-contracts/internal/repository"
)

type ClientContractInput struct {
	ClientID               uuid.UUID
	ContractName           string
	ClientContractTypeCode model.ContractTypeCode
	ContractPatternID      *uuid.UUID
	JobCategoryID          *uuid.UUID
	StartDate              time.Time
	EndDate                *time.Time
	ContractAmount         decimal.NullDecimal
	BillUnit               model.PayUnit
	BusinessContent        string
	PaymentSiteID          *uuid.UUID
	Notes                  string
	Haken                  *HakenInput
}

type HakenInput struct {
	HakenOfficeID            *uuid.UUID
	HakenUnitID              *uuid.UUID
	Commander                string
	ClientComplaintOfficer   string
	ClientResponsiblePerson  string
	CompanyComplaintOfficer  string
	CompanyResponsiblePerson string
	LimitByAgreement         bool
	LimitIndefiniteOrSenior  bool
	WorkLocation             string
	ResponsibilityDegree     string
	Ttp                      *TtpInput
}

type TtpInput struct {
	ContractPeriod  string
	ProbationPeriod string
	BusinessContent string
	WorkLocation    string
	WorkingHours    string
	BreakTime       string
	Overtime        string
	Holidays        string
	Vacations       string
	Wages           string
	Insurances      string
	EmployerName    string
	Other           string
}

func (s *ContractService) CreateClientContract(ctx context.Context, actor model.Principal, input ClientContractInput) (*model.ClientContract, error) {
	if err := requireCompany(actor); err != nil {
		return nil, err
	}

	var created *model.ClientContract
	err := s.repo.WithTransaction(ctx, func(tx *repository.Repository) error {
		client, err := s.checkClientContractInput(ctx, tx, actor.TenantID, input)
		if err != nil {
			return err
		}

		contract := &model.ClientContract{ContractStatus: model.StatusDraft}
		contract.TenantID = actor.TenantID
		contract.CreatedBy = &actor.UserID
		contract.UpdatedBy = &actor.UserID
		applyClientContractInput(contract, client, input)

		if err := tx.CreateClientContract(ctx, contract); err != nil {
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
	return s.GetClientContract(ctx, actor, created.ID)
}

// UpdateClientContract rewrites the body of a contract that has not been
// approved yet.
func (s *ContractService) UpdateClientContract(ctx context.Context, actor model.Principal, id uuid.UUID, input ClientContractInput) (*model.ClientContract, error) {
	if err := requireCompany(actor); err != nil {
		return nil, err
	}

	err := s.repo.WithTransaction(ctx, func(tx *repository.Repository) error {
		contract, err := lockClientContract(ctx, tx, actor.TenantID, id)
		if err != nil {
			return err
		}
		if contract.IsApprovedOrLater() {
			return invalid("", "承認済みの契約は編集できません。")
		}
		client, err := s.checkClientContractInput(ctx, tx, actor.TenantID, input)
		if err != nil {
			return err
		}

		hadHaken := contract.Haken != nil
		hadTtp := contract.IsTtp()
		applyClientContractInput(contract, client, input)
		contract.Touch(actor.UserID)
		if err := tx.SaveClientContract(ctx, contract); err != nil {
			return err
		}
		if err := syncHaken(ctx, tx, contract, hadHaken, hadTtp); err != nil {
			return err
		}
		return s.auditor.Record(ctx, tx, actor, contract, model.ActionUpdate)
	})
	if err != nil {
		return nil, err
	}
	return s.GetClientContract(ctx, actor, id)
}

// syncHaken makes the stored dispatch and TTP extensions match contract.Haken.
func syncHaken(ctx context.Context, tx *repository.Repository, contract *model.ClientContract, hadHaken, hadTtp bool) error {
	if contract.Haken == nil {
		if hadHaken {
			return tx.DeleteHaken(ctx, contract.ID)
		}
		return nil
	}
	if !hadHaken {
		contract.Haken.ClientContractID = contract.ID
		contract.Haken.TenantID = contract.TenantID
		return tx.CreateHaken(ctx, contract.Haken)
	}

	haken := contract.Haken
	haken.Touch(*contract.UpdatedBy)
	if err := tx.SaveHaken(ctx, haken); err != nil {
		return err
	}
	switch {
	case haken.Ttp == nil && hadTtp:
		return tx.DeleteTtp(ctx, haken.ID)
	case haken.Ttp != nil:
		haken.Ttp.HakenID = haken.ID
		haken.Ttp.TenantID = haken.TenantID
		if haken.Ttp.ID != uuid.Nil {
			haken.Ttp.Touch(*contract.UpdatedBy)
		}
		return tx.SaveTtp(ctx, haken.Ttp)
	}
	return nil
}

// DeleteClientContract removes a draft that no worker is assigned to.
func (s *ContractService) DeleteClientContract(ctx context.Context, actor model.Principal, id uuid.UUID) error {
	if err := requireCompany(actor); err != nil {
		return err
	}
	return s.repo.WithTransaction(ctx, func(tx *repository.Repository) error {
		contract, err := lockClientContract(ctx, tx, actor.TenantID, id)
		if err != nil {
			return err
		}
		if contract.ContractStatus != model.StatusDraft {
			return invalid("", "作成中の契約のみ削除できます。")
		}
		assigned, err := tx.CountClientContractAssignments(ctx, id)
		if err != nil {
			return err
		}
		if assigned > 0 {
			return invalid("", "スタッフが割り当てられている契約は削除できません。")
		}
		if err := tx.DeleteClientContract(ctx, actor.TenantID, id); err != nil {
			return notFound(err)
		}
		return s.auditor.Record(ctx, tx, actor, contract, model.ActionDelete)
	})
}

// SubmitClientContract moves a complete draft to PENDING.
func (s *ContractService) SubmitClientContract(ctx context.Context, actor model.Principal, id uuid.UUID) (*model.ClientContract, error) {
	if err := requireCompany(actor); err != nil {
		return nil, err
	}
	var result *model.ClientContract
	err := s.repo.WithTransaction(ctx, func(tx *repository.Repository) error {
		contract, err := lockClientContract(ctx, tx, actor.TenantID, id)
		if err != nil {
			return err
		}
		if !model.CanTransition(contract.ContractStatus, model.StatusPending) {
			return ErrInvalidTransition
		}
		if err := clientContractComplete(contract); err != nil {
			return err
		}
		contract.ContractStatus = model.StatusPending
		contract.Touch(actor.UserID)
		if err := tx.SaveClientContract(ctx, contract); err != nil {
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

// ApproveClientContract approves a pending contract when isApproved is set
// and otherwise returns an approved contract to DRAFT.
func (s *ContractService) ApproveClientContract(ctx context.Context, actor model.Principal, id uuid.UUID, isApproved bool) (*ApprovalResult[model.ClientContract], error) {
	if err := requireCompany(actor); err != nil {
		return nil, err
	}
	var result *model.ClientContract
	err := s.repo.WithTransaction(ctx, func(tx *repository.Repository) error {
		contract, err := lockClientContract(ctx, tx, actor.TenantID, id)
		if err != nil {
			return err
		}

		action := model.ActionApprove
		if isApproved {
			if !model.CanTransition(contract.ContractStatus, model.StatusApproved) {
				return ErrInvalidTransition
			}
			if err := checkClientApprovalRules(contract); err != nil {
				return err
			}
			now := s.now()
			contract.ContractStatus = model.StatusApproved
			contract.ApprovedAt = &now
			contract.ApprovedBy = &actor.UserID
			if contract.ContractNumber == nil {
				number, err := s.numbers.AllocateClientNumber(ctx, tx, contract)
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
			contract.QuotationIssuedAt = nil
			contract.QuotationIssuedBy = nil
			contract.TeishokubiNotificationIssuedAt = nil
			contract.TeishokubiNotificationIssuedBy = nil
		}

		contract.Touch(actor.UserID)
		if err := tx.SaveClientContract(ctx, contract); err != nil {
			return err
		}
		if err := s.auditor.Record(ctx, tx, actor, contract, action); err != nil {
			return err
		}
		result = contract
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("contract_id", id.String()).
		Str("status", string(result.ContractStatus)).
		Msg("client contract approval changed")
	return &ApprovalResult[model.ClientContract]{Contract: result}, nil
}

// checkClientApprovalRules applies the per-type approval limits. An
// introduction-intent dispatch may last at most six months.
func checkClientApprovalRules(contract *model.ClientContract) error {
	if contract.IsTtp() && model.ExceedsMonths(contract.StartDate, contract.EndDate, 6) {
		return invalid("end_date", "紹介予定派遣の派遣期間は6ヶ月を超えることはできません。")
	}
	return nil
}

func (s *ContractService) GetClientContract(ctx context.Context, actor model.Principal, id uuid.UUID) (*model.ClientContract, error) {
	if err := requireCompany(actor); err != nil {
		return nil, err
	}
	contract, err := s.repo.GetClientContract(ctx, actor.TenantID, id)
	if err != nil {
		return nil, notFound(err)
	}
	return contract, nil
}

func (s *ContractService) ListClientContracts(ctx context.Context, actor model.Principal, filter repository.ContractFilter) ([]model.ClientContract, error) {
	if err := requireCompany(actor); err != nil {
		return nil, err
	}
	return s.repo.ListClientContracts(ctx, actor.TenantID, filter)
}

// lockClientContract takes the row lock and then reads the current state.
func lockClientContract(ctx context.Context, tx *repository.Repository, tenantID, id uuid.UUID) (*model.ClientContract, error) {
	if err := tx.LockClientContract(ctx, tenantID, id); err != nil {
		return nil, notFound(err)
	}
	contract, err := tx.GetClientContract(ctx, tenantID, id)
	if err != nil {
		return nil, notFound(err)
	}
	return contract, nil
}

func (s *ContractService) checkClientContractInput(ctx context.Context, tx *repository.Repository, tenantID uuid.UUID, input ClientContractInput) (*model.Client, error) {
	verr := &ValidationError{}

	var client *model.Client
	if input.ClientID == uuid.Nil {
		verr.Add("client_id", "取引先を選択してください。")
	} else {
		found, err := tx.GetClient(ctx, tenantID, input.ClientID)
		switch {
		case repository.IsNotFound(err):
			verr.Add("client_id", "取引先が見つかりません。")
		case err != nil:
			return nil, err
		default:
			client = found
		}
	}
	if strings.TrimSpace(input.ContractName) == "" {
		verr.Add("contract_name", "契約名を入力してください。")
	}
	if !input.ClientContractTypeCode.Valid() {
		verr.Add("client_contract_type_code", "契約種別を選択してください。")
	}
	validatePeriod(verr, input.StartDate, input.EndDate)
	if input.BillUnit != "" && !input.BillUnit.Valid() {
		verr.Add("bill_unit", "請求単位が不正です。")
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
			return nil, err
		case pattern.Domain != model.PatternDomainClient:
			verr.Add("contract_pattern_id", "クライアント用の契約書パターンを選択してください。")
		}
	}
	if input.JobCategoryID != nil {
		if _, err := tx.GetJobCategory(ctx, tenantID, *input.JobCategoryID); err != nil {
			if !repository.IsNotFound(err) {
				return nil, err
			}
			verr.Add("job_category_id", "職種が見つかりません。")
		}
	}
	if input.PaymentSiteID != nil {
		if _, err := tx.GetPaymentSite(ctx, tenantID, *input.PaymentSiteID); err != nil {
			if !repository.IsNotFound(err) {
				return nil, err
			}
			verr.Add("payment_site_id", "支払サイトが見つかりません。")
		}
	}

	if input.Haken != nil {
		if input.ClientContractTypeCode != model.ContractTypeDispatch {
			verr.Add("haken", "派遣情報は派遣契約にのみ設定できます。")
		} else if client != nil {
			if err := checkDepartment(ctx, tx, tenantID, client.ID, input.Haken.HakenOfficeID, "haken_office_id", verr); err != nil {
				return nil, err
			}
			if err := checkDepartment(ctx, tx, tenantID, client.ID, input.Haken.HakenUnitID, "haken_unit_id", verr); err != nil {
				return nil, err
			}
		}
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return client, nil
}

func checkDepartment(ctx context.Context, tx *repository.Repository, tenantID, clientID uuid.UUID, id *uuid.UUID, field string, verr *ValidationError) error {
	if id == nil {
		return nil
	}
	department, err := tx.GetClientDepartment(ctx, tenantID, *id)
	if repository.IsNotFound(err) || (err == nil && department.ClientID != clientID) {
		verr.Add(field, "取引先の部署を選択してください。")
		return nil
	}
	return err
}

func applyClientContractInput(contract *model.ClientContract, client *model.Client, input ClientContractInput) {
	contract.ClientID = client.ID
	contract.Client = client
	contract.CorporateNumber = client.CorporateNumber
	contract.ContractName = strings.TrimSpace(input.ContractName)
	contract.ClientContractTypeCode = input.ClientContractTypeCode
	contract.ContractPatternID = input.ContractPatternID
	contract.JobCategoryID = input.JobCategoryID
	contract.StartDate = model.DateOnly(input.StartDate)
	contract.EndDate = normalizeEnd(input.EndDate)
	contract.ContractAmount = input.ContractAmount
	contract.BillUnit = input.BillUnit
	contract.BusinessContent = input.BusinessContent
	contract.PaymentSiteID = input.PaymentSiteID
	contract.Notes = input.Notes

	if input.Haken == nil || input.ClientContractTypeCode != model.ContractTypeDispatch {
		contract.Haken = nil
		return
	}
	haken := contract.Haken
	if haken == nil {
		haken = &model.ClientContractHaken{}
	}
	in := input.Haken
	haken.HakenOfficeID = in.HakenOfficeID
	haken.HakenUnitID = in.HakenUnitID
	haken.Commander = in.Commander
	haken.ClientComplaintOfficer = in.ClientComplaintOfficer
	haken.ClientResponsiblePerson = in.ClientResponsiblePerson
	haken.CompanyComplaintOfficer = in.CompanyComplaintOfficer
	haken.CompanyResponsiblePerson = in.CompanyResponsiblePerson
	haken.LimitByAgreement = in.LimitByAgreement
	haken.LimitIndefiniteOrSenior = in.LimitIndefiniteOrSenior
	haken.WorkLocation = in.WorkLocation
	haken.ResponsibilityDegree = in.ResponsibilityDegree
	haken.HakenOffice = nil
	haken.HakenUnit = nil

	if in.Ttp == nil {
		haken.Ttp = nil
	} else {
		ttp := haken.Ttp
		if ttp == nil {
			ttp = &model.ClientContractTtp{}
		}
		ttp.ContractPeriod = in.Ttp.ContractPeriod
		ttp.ProbationPeriod = in.Ttp.ProbationPeriod
		ttp.BusinessContent = in.Ttp.BusinessContent
		ttp.WorkLocation = in.Ttp.WorkLocation
		ttp.WorkingHours = in.Ttp.WorkingHours
		ttp.BreakTime = in.Ttp.BreakTime
		ttp.Overtime = in.Ttp.Overtime
		ttp.Holidays = in.Ttp.Holidays
		ttp.Vacations = in.Ttp.Vacations
		ttp.Wages = in.Ttp.Wages
		ttp.Insurances = in.Ttp.Insurances
		ttp.EmployerName = in.Ttp.EmployerName
		ttp.Other = in.Ttp.Other
		haken.Ttp = ttp
	}
	contract.Haken = haken
}

// clientContractComplete checks the fields an approver needs.
func clientContractComplete(contract *model.ClientContract) error {
	verr := &ValidationError{}
	if contract.ContractPatternID == nil {
		verr.Add("contract_pattern_id", "契約書パターンを選択してください。")
	}
	if contract.IsDispatch() {
		switch {
		case contract.Haken == nil:
			verr.Add("haken", "派遣情報を入力してください。")
		default:
			if contract.Haken.HakenOfficeID == nil {
				verr.Add("haken_office_id", "派遣先事業所を選択してください。")
			}
			if contract.Haken.HakenUnitID == nil {
				verr.Add("haken_unit_id", "組織単位を選択してください。")
			}
			if strings.TrimSpace(contract.Haken.Commander) == "" {
				verr.Add("commander", "指揮命令者を入力してください。")
			}
		}
	}
	return verr.OrNil()
}

// IsValidation reports whether err carries per-field messages.
func IsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	ok := errors.As(err, &verr)
	return verr, ok
}
