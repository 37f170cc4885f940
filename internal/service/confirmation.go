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

var confirmableStatuses = []model.ContractStatus{model.StatusApproved, model.StatusIssued}

// ConfirmationService shows issued contracts to the client and the worker
// and records their confirmation.
type ConfirmationService struct {
	repo    *repository.Repository
	auditor *Auditor
	log     zerolog.Logger
	now     func() time.Time
}

func NewConfirmationService(repo *repository.Repository, auditor *Auditor, log zerolog.Logger) *ConfirmationService {
	return &ConfirmationService{repo: repo, auditor: auditor, log: log, now: time.Now}
}

// ListForClientUser returns the approved and issued contracts of every
// tenant that connected the client user.
func (s *ConfirmationService) ListForClientUser(ctx context.Context, actor model.Principal) ([]model.ClientContract, error) {
	if !actor.IsClient() || actor.CorporateNumber == "" {
		return nil, ErrPermissionDenied
	}
	tenants, err := s.repo.ClientConnectedTenants(ctx, actor.CorporateNumber, actor.Email)
	if err != nil {
		return nil, err
	}
	var contracts []model.ClientContract
	for _, tenantID := range tenants {
		items, err := s.repo.ListClientContractsForConnect(ctx, tenantID, actor.CorporateNumber, confirmableStatuses)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, items...)
	}
	return contracts, nil
}

// ConfirmClientContract moves an issued contract to CONFIRMED on behalf of a
// connected client user allowed to confirm.
func (s *ConfirmationService) ConfirmClientContract(ctx context.Context, actor model.Principal, id uuid.UUID) (*model.ClientContract, error) {
	if !actor.IsClient() {
		return nil, ErrPermissionDenied
	}
	user, err := s.repo.GetUser(ctx, actor.UserID)
	if err != nil {
		return nil, notFound(err)
	}
	if !user.IsActive || !user.CanConfirm {
		return nil, ErrPermissionDenied
	}

	var result *model.ClientContract
	err = s.repo.WithTransaction(ctx, func(tx *repository.Repository) error {
		contract, err := tx.GetClientContractAnyTenant(ctx, id)
		if err != nil {
			return notFound(err)
		}
		if err := s.checkClientAccess(ctx, tx, actor, contract); err != nil {
			return err
		}
		contract, err = lockClientContract(ctx, tx, contract.TenantID, id)
		if err != nil {
			return err
		}
		if !model.CanTransition(contract.ContractStatus, model.StatusConfirmed) {
			return ErrInvalidTransition
		}
		issued, err := tx.ClientPrintExists(ctx, contract.ID, model.PrintTypeContract)
		if err != nil {
			return err
		}
		if !issued {
			return invalid("", "契約書が発行されていません。")
		}

		now := s.now()
		contract.ContractStatus = model.StatusConfirmed
		contract.ConfirmedAt = &now
		contract.ConfirmedBy = &actor.UserID
		contract.Touch(actor.UserID)
		if err := tx.SaveClientContract(ctx, contract); err != nil {
			return err
		}
		if err := s.auditor.Record(ctx, tx, inTenant(actor, contract.TenantID), contract, model.ActionConfirm); err != nil {
			return err
		}
		result = contract
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("contract_id", id.String()).Str("user_id", actor.UserID.String()).Msg("client contract confirmed")
	return result, nil
}

// ClientPrint returns a print of a contract the client user may see.
func (s *ConfirmationService) ClientPrint(ctx context.Context, actor model.Principal, printID uuid.UUID) (*model.ClientContractPrint, error) {
	if !actor.IsClient() {
		return nil, ErrPermissionDenied
	}
	p, err := s.repo.GetClientPrintAnyTenant(ctx, printID)
	if err != nil {
		return nil, notFound(err)
	}
	contract, err := s.repo.GetClientContractAnyTenant(ctx, p.ClientContractID)
	if err != nil {
		return nil, notFound(err)
	}
	if err := s.checkClientAccess(ctx, s.repo, actor, contract); err != nil {
		return nil, err
	}
	return p, nil
}

// checkClientAccess hides contracts of other clients and of tenants that
// have not approved the user.
func (s *ConfirmationService) checkClientAccess(ctx context.Context, tx *repository.Repository, actor model.Principal, contract *model.ClientContract) error {
	if actor.CorporateNumber == "" || clientCorporateNumber(contract) != actor.CorporateNumber {
		return ErrNotFound
	}
	connected, err := tx.IsClientConnected(ctx, contract.TenantID, actor.CorporateNumber, actor.Email)
	if err != nil {
		return err
	}
	if !connected {
		return ErrNotFound
	}
	if !contract.IsApprovedOrLater() {
		return ErrNotFound
	}
	return nil
}

// ListForStaff returns the worker's approved and issued contracts of every
// tenant that connected their email.
func (s *ConfirmationService) ListForStaff(ctx context.Context, actor model.Principal) ([]model.StaffContract, error) {
	if !actor.IsStaff() || actor.Email == "" {
		return nil, ErrPermissionDenied
	}
	tenants, err := s.repo.StaffConnectedTenants(ctx, actor.Email)
	if err != nil {
		return nil, err
	}
	var contracts []model.StaffContract
	for _, tenantID := range tenants {
		items, err := s.repo.ListStaffContractsByEmail(ctx, tenantID, actor.Email, confirmableStatuses)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, items...)
	}
	return contracts, nil
}

// ConfirmStaffContract records the worker's confirmation of their own
// issued contract.
func (s *ConfirmationService) ConfirmStaffContract(ctx context.Context, actor model.Principal, id uuid.UUID) (*model.StaffContract, error) {
	if !actor.IsStaff() || actor.Email == "" {
		return nil, ErrPermissionDenied
	}

	var result *model.StaffContract
	err := s.repo.WithTransaction(ctx, func(tx *repository.Repository) error {
		contract, err := tx.GetStaffContractAnyTenant(ctx, id)
		if err != nil {
			return notFound(err)
		}
		if contract.Staff == nil || !strings.EqualFold(contract.Staff.Email, actor.Email) {
			return ErrNotFound
		}
		connected, err := tx.IsStaffConnected(ctx, contract.TenantID, actor.Email)
		if err != nil {
			return err
		}
		if !connected {
			return ErrNotFound
		}
		contract, err = lockStaffContract(ctx, tx, contract.TenantID, id)
		if err != nil {
			return err
		}
		if !model.CanTransition(contract.ContractStatus, model.StatusConfirmed) {
			return ErrInvalidTransition
		}
		issued, err := tx.StaffPrintExists(ctx, contract.ID, model.PrintTypeContract)
		if err != nil {
			return err
		}
		if !issued {
			return invalid("", "契約書が発行されていません。")
		}

		now := s.now()
		contract.ContractStatus = model.StatusConfirmed
		contract.ConfirmedAt = &now
		contract.Touch(actor.UserID)
		if err := tx.SaveStaffContract(ctx, contract); err != nil {
			return err
		}
		if err := s.auditor.Record(ctx, tx, inTenant(actor, contract.TenantID), contract, model.ActionConfirm); err != nil {
			return err
		}
		result = contract
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("contract_id", id.String()).Str("user_id", actor.UserID.String()).Msg("staff contract confirmed")
	return result, nil
}

// inTenant attributes a cross-tenant actor's action to the contract's tenant.
func inTenant(actor model.Principal, tenantID uuid.UUID) model.Principal {
	actor.TenantID = tenantID
	return actor
}
