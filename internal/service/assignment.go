package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/haken-contracts/internal/model"
	"github.com/nurpe/haken-contracts/internal/repository"
)

type AssignmentInput struct {
	ClientContractID    uuid.UUID
	StaffContractID     uuid.UUID
	AssignmentStartDate *time.Time
	AssignmentEndDate   *time.Time
}

type AssignmentResult struct {
	Assignment   *model.ContractAssignment `json:"assignment"`
	ConflictDate *time.Time                `json:"conflict_date,omitempty"`
	Messages     []string                  `json:"messages,omitempty"`
}

// AssignmentService validates and stores the edges between client and staff
// contracts and keeps conflict dates current.
type AssignmentService struct {
	repo       *repository.Repository
	teishokubi *TeishokubiCalculator
	auditor    *Auditor
	log        zerolog.Logger
	now        func() time.Time
}

func NewAssignmentService(repo *repository.Repository, teishokubi *TeishokubiCalculator, auditor *Auditor, log zerolog.Logger) *AssignmentService {
	return &AssignmentService{repo: repo, teishokubi: teishokubi, auditor: auditor, log: log, now: time.Now}
}

// Create validates the pair, inserts the assignment, synchronizes business
// content and work location, and recalculates the worker's conflict date in
// one transaction.
func (s *AssignmentService) Create(ctx context.Context, actor model.Principal, input AssignmentInput) (*AssignmentResult, error) {
	if err := requireCompany(actor); err != nil {
		return nil, err
	}

	result := &AssignmentResult{}
	err := s.repo.WithTransaction(ctx, func(tx *repository.Repository) error {
		if err := tx.LockClientContract(ctx, actor.TenantID, input.ClientContractID); err != nil {
			return notFound(err)
		}
		client, err := tx.GetClientContract(ctx, actor.TenantID, input.ClientContractID)
		if err != nil {
			return notFound(err)
		}
		staffContract, err := tx.GetStaffContract(ctx, actor.TenantID, input.StaffContractID)
		if err != nil {
			return notFound(err)
		}

		assignment := &model.ContractAssignment{
			ClientContractID:    client.ID,
			ClientContract:      client,
			StaffContractID:     staffContract.ID,
			StaffContract:       staffContract,
			AssignedAt:          s.now(),
			AssignmentStartDate: normalizeEnd(input.AssignmentStartDate),
			AssignmentEndDate:   normalizeEnd(input.AssignmentEndDate),
		}
		assignment.TenantID = actor.TenantID
		assignment.CreatedBy = &actor.UserID
		assignment.UpdatedBy = &actor.UserID

		if err := s.validate(ctx, tx, assignment); err != nil {
			return err
		}

		if err := tx.CreateAssignment(ctx, assignment); err != nil {
			if repository.IsDuplicate(err) {
				return invalid("", "このスタッフ契約は既に割り当てられています。")
			}
			return err
		}

		messages, err := synchronize(ctx, tx, client, staffContract)
		if err != nil {
			return err
		}
		result.Messages = messages

		record, err := s.teishokubi.RecalculateForAssignment(ctx, tx, assignment)
		if err != nil {
			return err
		}
		if record != nil {
			conflict := record.ConflictDate
			result.ConflictDate = &conflict
		}

		if err := s.auditor.Record(ctx, tx, actor, assignment, model.ActionCreate); err != nil {
			return err
		}
		result.Assignment = assignment
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("assignment_id", result.Assignment.ID.String()).
		Str("client_contract_id", input.ClientContractID.String()).
		Str("staff_contract_id", input.StaffContractID.String()).
		Msg("assignment created")
	return result, nil
}

// validate runs the assignment rules in order and reports every violation
// at once. A disjoint period stops the checks that depend on it.
func (s *AssignmentService) validate(ctx context.Context, tx *repository.Repository, assignment *model.ContractAssignment) error {
	verr := &ValidationError{}
	client := assignment.ClientContract
	staffContract := assignment.StaffContract
	staff := staffContract.Staff

	exists, err := tx.AssignmentExists(ctx, client.ID, staffContract.ID)
	if err != nil {
		return err
	}
	if exists {
		verr.Add("", "このスタッフ契約は既に割り当てられています。")
	}

	if assignment.AssignmentStartDate != nil && assignment.AssignmentEndDate != nil &&
		assignment.AssignmentEndDate.Before(*assignment.AssignmentStartDate) {
		verr.Add("assignment_end_date", "割当終了日は割当開始日以降の日付を入力してください。")
		return verr
	}
	if _, ok := client.Period().Intersect(staffContract.Period()); !ok {
		verr.Add("", "クライアント契約とスタッフ契約の期間が重複していません。")
		return verr
	}
	period, ok := assignment.EffectivePeriod()
	if !ok {
		verr.Add("assignment_start_date", "割当期間が契約期間と重複していません。")
		return verr
	}

	if client.IsDispatch() && staffContract.IsFixedTerm && model.IsUnder60(birthDate(staff), period.Start) {
		key, ok := KeyFor(assignment)
		if !ok {
			addMissingKeyFields(verr, client, staff)
			return verr
		}
		conflict, err := s.teishokubi.ProjectConflictDate(ctx, tx, assignment.TenantID, key, Slice{
			Start: period.Start,
			End:   period.End,
		})
		if err != nil {
			return err
		}
		if period.End == nil || period.End.After(conflict) {
			verr.Add("", "割当終了日が抵触日（"+conflict.Format("2006年01月02日")+"）を超えています。")
		}
	}

	if client.Haken != nil && client.Haken.LimitIndefiniteOrSenior {
		senior := !model.IsUnder60(birthDate(staff), client.StartDate)
		if staffContract.IsFixedTerm && !senior {
			verr.Add("", "この契約は無期雇用または60歳以上のスタッフに限定されています。")
		}
	}

	if staff != nil && staff.International != nil {
		limit := model.DateOnly(staff.International.ResidencePeriodTo)
		if period.End == nil || period.End.After(limit) {
			verr.Add("", "割当終了日が在留期間（"+limit.Format("2006年01月02日")+"）を超えています。")
		}
		category := staffContract.JobCategory
		if category == nil || !category.IsSpecifiedSkilledWorker {
			verr.Add("job_category_id", "外国籍スタッフには特定技能の職種を設定してください。")
		} else if client.IsDispatch() && !category.IsAgricultureFisheryDispatch {
			verr.Add("job_category_id", "外国籍スタッフの派遣は農業・漁業の職種に限られます。")
		}
	}

	return verr.OrNil()
}

// addMissingKeyFields names each part of the conflict-date key that is not
// recorded, since the assignment cannot be checked without it.
func addMissingKeyFields(verr *ValidationError, client *model.ClientContract, staff *model.Staff) {
	if staff == nil || staff.Email == "" {
		verr.Add("staff_contract_id", "スタッフのメールアドレスが未登録のため抵触日を確認できません。")
	}
	if clientCorporateNumber(client) == "" {
		verr.Add("client_contract_id", "派遣先の法人番号が未登録のため抵触日を確認できません。")
	}
	if client.Haken.OrganizationName() == "" {
		verr.Add("client_contract_id", "派遣先の組織単位が未設定のため抵触日を確認できません。")
	}
}

func birthDate(staff *model.Staff) *time.Time {
	if staff == nil {
		return nil
	}
	return staff.BirthDate
}

// synchronize fills an empty business content or work location from the
// other side of the assignment and describes what it copied.
func synchronize(ctx context.Context, tx *repository.Repository, client *model.ClientContract, staffContract *model.StaffContract) ([]string, error) {
	var messages []string

	clientContent := strings.TrimSpace(client.BusinessContent)
	staffContent := strings.TrimSpace(staffContract.BusinessContent)
	switch {
	case clientContent != "" && staffContent == "":
		if err := tx.UpdateStaffContractColumns(ctx, staffContract.ID, map[string]interface{}{"business_content": client.BusinessContent}); err != nil {
			return nil, err
		}
		staffContract.BusinessContent = client.BusinessContent
		messages = append(messages, "クライアント契約の業務内容をスタッフ契約に反映しました。")
	case clientContent == "" && staffContent != "":
		if err := tx.UpdateClientContractColumns(ctx, client.ID, map[string]interface{}{"business_content": staffContract.BusinessContent}); err != nil {
			return nil, err
		}
		client.BusinessContent = staffContract.BusinessContent
		messages = append(messages, "スタッフ契約の業務内容をクライアント契約に反映しました。")
	}

	if client.Haken == nil {
		return messages, nil
	}
	hakenLocation := strings.TrimSpace(client.Haken.WorkLocation)
	staffLocation := strings.TrimSpace(staffContract.WorkLocation)
	switch {
	case hakenLocation != "" && staffLocation == "":
		if err := tx.UpdateStaffContractColumns(ctx, staffContract.ID, map[string]interface{}{"work_location": client.Haken.WorkLocation}); err != nil {
			return nil, err
		}
		staffContract.WorkLocation = client.Haken.WorkLocation
		messages = append(messages, "派遣先の就業場所をスタッフ契約に反映しました。")
	case hakenLocation == "" && staffLocation != "":
		if err := tx.UpdateHakenColumns(ctx, client.Haken.ID, map[string]interface{}{"work_location": staffContract.WorkLocation}); err != nil {
			return nil, err
		}
		client.Haken.WorkLocation = staffContract.WorkLocation
		messages = append(messages, "スタッフ契約の就業場所を派遣先に反映しました。")
	}
	return messages, nil
}

// Delete removes the assignment and recalculates the conflict date it fed.
func (s *AssignmentService) Delete(ctx context.Context, actor model.Principal, id uuid.UUID) error {
	if err := requireCompany(actor); err != nil {
		return err
	}
	err := s.repo.WithTransaction(ctx, func(tx *repository.Repository) error {
		assignment, err := tx.GetAssignment(ctx, actor.TenantID, id)
		if err != nil {
			return notFound(err)
		}
		if err := tx.DeleteAssignment(ctx, actor.TenantID, id); err != nil {
			return notFound(err)
		}
		if _, err := s.teishokubi.RecalculateForAssignment(ctx, tx, assignment); err != nil {
			return err
		}
		return s.auditor.Record(ctx, tx, actor, assignment, model.ActionDelete)
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("assignment_id", id.String()).Msg("assignment deleted")
	return nil
}

func (s *AssignmentService) Get(ctx context.Context, actor model.Principal, id uuid.UUID) (*model.ContractAssignment, error) {
	if err := requireCompany(actor); err != nil {
		return nil, err
	}
	assignment, err := s.repo.GetAssignment(ctx, actor.TenantID, id)
	if err != nil {
		return nil, notFound(err)
	}
	return assignment, nil
}

func (s *AssignmentService) ListByClientContract(ctx context.Context, actor model.Principal, clientContractID uuid.UUID) ([]model.ContractAssignment, error) {
	if err := requireCompany(actor); err != nil {
		return nil, err
	}
	return s.repo.ListAssignments(ctx, actor.TenantID, repository.AssignmentFilter{ClientContractID: &clientContractID})
}

func (s *AssignmentService) ListByStaffContract(ctx context.Context, actor model.Principal, staffContractID uuid.UUID) ([]model.ContractAssignment, error) {
	if err := requireCompany(actor); err != nil {
		return nil, err
	}
	return s.repo.ListAssignments(ctx, actor.TenantID, repository.AssignmentFilter{StaffContractID: &staffContractID})
}
