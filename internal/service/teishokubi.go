package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/haken-contracts/internal/model"
	"github.com/nurpe/haken-contracts/internal/repository"
)

// Slice is one dispatch period counted toward a worker's three-year limit.
type Slice struct {
	DetailID         uuid.UUID
	AssignmentID     *uuid.UUID
	ClientContractID *uuid.UUID
	StaffContractID  *uuid.UUID
	Start            time.Time
	End              *time.Time
	Manual           bool
	Calculated       bool
}

// Run is the outcome of walking a key's slices in start order.
type Run struct {
	DispatchStartDate time.Time
	ConflictDate      time.Time
	Slices            []Slice
}

// CalculateRun finds the current continuous dispatch run. A slice starting
// on or after three months and one day past the run's latest end starts a new
// run; slices of earlier runs come back with Calculated unset. ok is false for
// an empty input.
func CalculateRun(slices []Slice) (Run, bool) {
	if len(slices) == 0 {
		return Run{}, false
	}

	ordered := make([]Slice, len(slices))
	copy(ordered, slices)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Start.Equal(ordered[j].Start) {
			return ordered[i].Start.Before(ordered[j].Start)
		}
		return endBefore(ordered[i].End, ordered[j].End)
	})

	runFrom := 0
	runStart := model.DateOnly(ordered[0].Start)
	runEnd := endPtr(ordered[0].End)
	for i := 1; i < len(ordered); i++ {
		start := model.DateOnly(ordered[i].Start)
		if runEnd != nil && !start.Before(resetThreshold(*runEnd)) {
			runFrom = i
			runStart = start
			runEnd = endPtr(ordered[i].End)
			continue
		}
		runEnd = model.LaterEnd(runEnd, ordered[i].End)
	}

	for i := range ordered {
		ordered[i].Calculated = i >= runFrom
	}
	return Run{
		DispatchStartDate: runStart,
		ConflictDate:      model.AddYearsClamped(runStart, 3),
		Slices:            ordered,
	}, true
}

// resetThreshold is the first start date that breaks a run ending on end.
func resetThreshold(end time.Time) time.Time {
	return model.AddMonthsClamped(end, 3).AddDate(0, 0, 1)
}

func endPtr(end *time.Time) *time.Time {
	if end == nil {
		return nil
	}
	return model.DatePtr(*end)
}

// endBefore orders known ends before open ones.
func endBefore(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.Before(*b)
	}
}

// TeishokubiCalculator keeps StaffContractTeishokubi rows in step with the
// assignment history.
type TeishokubiCalculator struct {
	repo    *repository.Repository
	auditor *Auditor
	log     zerolog.Logger
}

func NewTeishokubiCalculator(repo *repository.Repository, auditor *Auditor, log zerolog.Logger) *TeishokubiCalculator {
	return &TeishokubiCalculator{repo: repo, auditor: auditor, log: log}
}

// KeyFor returns the key an assignment is tracked under. ok is false unless
// the client contract is a dispatch with an organization unit and both the
// worker's email and the client's corporate number are known. Both contracts
// must be loaded with their details.
func KeyFor(assignment *model.ContractAssignment) (model.TeishokubiKey, bool) {
	client := assignment.ClientContract
	staffContract := assignment.StaffContract
	if client == nil || staffContract == nil || staffContract.Staff == nil {
		return model.TeishokubiKey{}, false
	}
	if !client.IsDispatch() || client.Haken == nil {
		return model.TeishokubiKey{}, false
	}
	key := model.TeishokubiKey{
		StaffEmail:            staffContract.Staff.Email,
		ClientCorporateNumber: clientCorporateNumber(client),
		OrganizationName:      client.Haken.OrganizationName(),
	}
	return key, key.Valid()
}

func clientCorporateNumber(contract *model.ClientContract) string {
	if contract.Client != nil && contract.Client.CorporateNumber != "" {
		return contract.Client.CorporateNumber
	}
	return contract.CorporateNumber
}

// SliceFor returns the slice an assignment contributes, or false when the
// worker is exempt: indefinite employment or aged 60 or over at the start.
func SliceFor(assignment *model.ContractAssignment) (Slice, bool) {
	if _, ok := KeyFor(assignment); !ok {
		return Slice{}, false
	}
	period, ok := assignment.EffectivePeriod()
	if !ok {
		return Slice{}, false
	}
	staffContract := assignment.StaffContract
	if !staffContract.IsFixedTerm {
		return Slice{}, false
	}
	if !model.IsUnder60(staffContract.Staff.BirthDate, period.Start) {
		return Slice{}, false
	}
	assignmentID := assignment.ID
	clientID := assignment.ClientContractID
	staffID := assignment.StaffContractID
	return Slice{
		AssignmentID:     &assignmentID,
		ClientContractID: &clientID,
		StaffContractID:  &staffID,
		Start:            period.Start,
		End:              period.End,
	}, true
}

func (c *TeishokubiCalculator) collect(ctx context.Context, tx *repository.Repository, tenantID uuid.UUID, key model.TeishokubiKey) ([]Slice, error) {
	assignments, err := tx.ListAssignmentsForTeishokubi(ctx, tenantID, key)
	if err != nil {
		return nil, err
	}
	slices := make([]Slice, 0, len(assignments))
	for i := range assignments {
		if slice, ok := SliceFor(&assignments[i]); ok {
			slices = append(slices, slice)
		}
	}

	manual, err := tx.ListManualTeishokubiDetails(ctx, tenantID, key)
	if err != nil {
		return nil, err
	}
	for _, detail := range manual {
		slices = append(slices, Slice{
			DetailID: detail.ID,
			Start:    detail.AssignmentStartDate,
			End:      detail.AssignmentEndDate,
			Manual:   true,
		})
	}
	return slices, nil
}

// Recalculate rebuilds the record of key from every slice on file. The
// record is deleted when no slice remains, and the returned record is nil.
func (c *TeishokubiCalculator) Recalculate(ctx context.Context, tx *repository.Repository, tenantID uuid.UUID, key model.TeishokubiKey) (*model.StaffContractTeishokubi, error) {
	return c.recalculate(ctx, tx, tenantID, key, nil, nil)
}

func (c *TeishokubiCalculator) recalculate(
	ctx context.Context,
	tx *repository.Repository,
	tenantID uuid.UUID,
	key model.TeishokubiKey,
	extra []Slice,
	author *uuid.UUID,
) (*model.StaffContractTeishokubi, error) {
	slices, err := c.collect(ctx, tx, tenantID, key)
	if err != nil {
		return nil, err
	}
	slices = append(slices, extra...)

	run, ok := CalculateRun(slices)
	if !ok {
		if err := tx.DeleteTeishokubi(ctx, tenantID, key); err != nil {
			return nil, err
		}
		c.log.Debug().Str("key", key.String()).Msg("teishokubi removed")
		return nil, nil
	}

	record := &model.StaffContractTeishokubi{
		TenantID:              tenantID,
		StaffEmail:            key.StaffEmail,
		ClientCorporateNumber: key.ClientCorporateNumber,
		OrganizationName:      key.OrganizationName,
		DispatchStartDate:     run.DispatchStartDate,
		ConflictDate:          run.ConflictDate,
	}
	details := make([]model.StaffContractTeishokubiDetail, 0, len(run.Slices))
	for _, slice := range run.Slices {
		detail := model.StaffContractTeishokubiDetail{
			ID:                  slice.DetailID,
			AssignmentID:        slice.AssignmentID,
			ClientContractID:    slice.ClientContractID,
			StaffContractID:     slice.StaffContractID,
			AssignmentStartDate: model.DateOnly(slice.Start),
			AssignmentEndDate:   endPtr(slice.End),
			IsCalculated:        slice.Calculated,
			IsManual:            slice.Manual,
		}
		if slice.Manual && slice.DetailID == uuid.Nil {
			detail.CreatedBy = author
		}
		details = append(details, detail)
	}
	if err := tx.SaveTeishokubi(ctx, record, details); err != nil {
		return nil, err
	}
	c.log.Debug().
		Str("key", key.String()).
		Time("dispatch_start_date", record.DispatchStartDate).
		Time("conflict_date", record.ConflictDate).
		Msg("teishokubi recalculated")
	return record, nil
}

// RecalculateForAssignment recalculates the key an inserted or deleted
// assignment belongs to. Assignments outside dispatch are ignored.
func (c *TeishokubiCalculator) RecalculateForAssignment(ctx context.Context, tx *repository.Repository, assignment *model.ContractAssignment) (*model.StaffContractTeishokubi, error) {
	key, ok := KeyFor(assignment)
	if !ok {
		return nil, nil
	}
	return c.Recalculate(ctx, tx, assignment.TenantID, key)
}

// ProjectConflictDate returns the conflict date key would get if hypothetical
// were added, without writing anything.
func (c *TeishokubiCalculator) ProjectConflictDate(ctx context.Context, tx *repository.Repository, tenantID uuid.UUID, key model.TeishokubiKey, hypothetical Slice) (time.Time, error) {
	slices, err := c.collect(ctx, tx, tenantID, key)
	if err != nil {
		return time.Time{}, err
	}
	run, _ := CalculateRun(append(slices, hypothetical))
	return run.ConflictDate, nil
}

// ConflictDate returns the stored conflict date of key, or nil when the key
// is not tracked.
func (c *TeishokubiCalculator) ConflictDate(ctx context.Context, tx *repository.Repository, tenantID uuid.UUID, key model.TeishokubiKey) (*time.Time, error) {
	record, err := tx.GetTeishokubi(ctx, tenantID, key)
	if repository.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	conflict := record.ConflictDate
	return &conflict, nil
}

type ManualDetailInput struct {
	Key   model.TeishokubiKey
	Start time.Time
	End   *time.Time
}

// AddManualDetail records dispatch history from outside the system, such as
// periods served before migration, and recalculates the key.
func (c *TeishokubiCalculator) AddManualDetail(ctx context.Context, actor model.Principal, input ManualDetailInput) (*model.StaffContractTeishokubi, error) {
	if !actor.IsCompany() {
		return nil, ErrPermissionDenied
	}
	verr := &ValidationError{}
	if input.Key.StaffEmail == "" {
		verr.Add("staff_email", "スタッフのメールアドレスを入力してください。")
	}
	if input.Key.ClientCorporateNumber == "" {
		verr.Add("client_corporate_number", "派遣先の法人番号を入力してください。")
	}
	if input.Key.OrganizationName == "" {
		verr.Add("organization_name", "組織単位を入力してください。")
	}
	if input.Start.IsZero() {
		verr.Add("start_date", "開始日を入力してください。")
	}
	if input.End != nil && input.End.Before(input.Start) {
		verr.Add("end_date", "終了日は開始日以降の日付を入力してください。")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	author := actor.UserID
	var record *model.StaffContractTeishokubi
	err := c.repo.WithTransaction(ctx, func(tx *repository.Repository) error {
		var err error
		record, err = c.recalculate(ctx, tx, actor.TenantID, input.Key, []Slice{{
			Start:  model.DateOnly(input.Start),
			End:    endPtr(input.End),
			Manual: true,
		}}, &author)
		if err != nil {
			return err
		}
		return c.auditor.Record(ctx, tx, actor, record, model.ActionUpdate)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (c *TeishokubiCalculator) List(ctx context.Context, actor model.Principal, filter repository.TeishokubiFilter) ([]model.StaffContractTeishokubi, error) {
	if !actor.IsCompany() {
		return nil, ErrPermissionDenied
	}
	return c.repo.ListTeishokubi(ctx, actor.TenantID, filter)
}
