package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nurpe/haken-contracts/internal/model"
	"github.com/nurpe/haken-contracts/internal/repository"
)

// LedgerRenderer turns ledgers into spreadsheet files.
type LedgerRenderer interface {
	AssignmentLedger(ledger model.AssignmentLedger) ([]byte, error)
	TeishokubiList(list model.TeishokubiList) ([]byte, error)
}

type LedgerFile struct {
	FileName string
	Content  []byte
}

type LedgerService struct {
	repo       *repository.Repository
	renderer   LedgerRenderer
	teishokubi *TeishokubiCalculator
	log        zerolog.Logger
	now        func() time.Time
}

func NewLedgerService(repo *repository.Repository, renderer LedgerRenderer, teishokubi *TeishokubiCalculator, log zerolog.Logger) *LedgerService {
	return &LedgerService{repo: repo, renderer: renderer, teishokubi: teishokubi, log: log, now: time.Now}
}

// BuildAssignmentLedger collects every assignment whose client contract
// overlaps [from, to].
func (s *LedgerService) BuildAssignmentLedger(ctx context.Context, actor model.Principal, from, to time.Time) (*model.AssignmentLedger, error) {
	if !actor.IsCompany() {
		return nil, ErrPermissionDenied
	}
	from, to = model.DateOnly(from), model.DateOnly(to)
	if to.Before(from) {
		return nil, invalid("to", "終了日は開始日以降の日付を指定してください。")
	}

	assignments, err := s.repo.ListAssignments(ctx, actor.TenantID, repository.AssignmentFilter{From: &from, To: &to})
	if err != nil {
		return nil, err
	}

	conflicts := make(map[model.TeishokubiKey]*time.Time)
	ledger := &model.AssignmentLedger{From: from, To: to, Rows: make([]model.LedgerRow, 0, len(assignments))}
	for i := range assignments {
		a := &assignments[i]
		period, ok := a.EffectivePeriod()
		if !ok {
			continue
		}
		row := model.LedgerRow{
			AssignmentID:         a.ID,
			EmployeeNo:           a.StaffContract.EmployeeNo(),
			ClientContractNumber: a.ClientContract.Number(),
			StaffContractNumber:  a.StaffContract.Number(),
			ContractName:         a.ClientContract.ContractName,
			ContractType:         a.ClientContract.ClientContractTypeCode,
			StartDate:            period.Start,
			EndDate:              period.End,
			IsFixedTerm:          a.StaffContract.IsFixedTerm,
		}
		if a.StaffContract.Staff != nil {
			row.StaffName = a.StaffContract.Staff.Name
		}
		if a.ClientContract.Client != nil {
			row.ClientName = a.ClientContract.Client.Name
		}
		if a.ClientContract.Haken != nil && a.ClientContract.Haken.WorkLocation != "" {
			row.WorkLocation = a.ClientContract.Haken.WorkLocation
		} else {
			row.WorkLocation = a.StaffContract.WorkLocation
		}
		if key, ok := KeyFor(a); ok {
			row.OrganizationName = key.OrganizationName
			conflict, seen := conflicts[key]
			if !seen {
				conflict, err = s.teishokubi.ConflictDate(ctx, s.repo, actor.TenantID, key)
				if err != nil {
					return nil, err
				}
				conflicts[key] = conflict
			}
			row.ConflictDate = conflict
		}
		ledger.Rows = append(ledger.Rows, row)
	}
	return ledger, nil
}

func (s *LedgerService) ExportAssignments(ctx context.Context, actor model.Principal, from, to time.Time) (*LedgerFile, error) {
	ledger, err := s.BuildAssignmentLedger(ctx, actor, from, to)
	if err != nil {
		return nil, err
	}
	content, err := s.renderer.AssignmentLedger(*ledger)
	if err != nil {
		return nil, fmt.Errorf("render assignment ledger: %w", err)
	}
	s.log.Info().
		Str("tenant_id", actor.TenantID.String()).
		Int("rows", len(ledger.Rows)).
		Msg("assignment ledger exported")
	return &LedgerFile{
		FileName: fmt.Sprintf("assignments_%s_%s.xlsx", from.Format("20060102"), to.Format("20060102")),
		Content:  content,
	}, nil
}

func (s *LedgerService) ExportTeishokubi(ctx context.Context, actor model.Principal, filter repository.TeishokubiFilter) (*LedgerFile, error) {
	filter.Limit, filter.Offset = 0, 0
	records, err := s.teishokubi.List(ctx, actor, filter)
	if err != nil {
		return nil, err
	}
	now := s.now()
	content, err := s.renderer.TeishokubiList(model.TeishokubiList{GeneratedAt: now, Records: records})
	if err != nil {
		return nil, fmt.Errorf("render teishokubi list: %w", err)
	}
	return &LedgerFile{
		FileName: fmt.Sprintf("teishokubi_%s.xlsx", now.Format("20060102")),
		Content:  content,
	}, nil
}
