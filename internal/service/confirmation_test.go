package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/haken-contracts/internal/model"
)

type confirmationEnv struct {
	*issuanceEnv
	confirmation *ConfirmationService
}

func newConfirmationEnv(t *testing.T) *confirmationEnv {
	env := newIssuanceEnv(t)
	return &confirmationEnv{
		issuanceEnv:  env,
		confirmation: NewConfirmationService(env.repo, env.auditor, zerolog.Nop()),
	}
}

func (e *confirmationEnv) clientUser(t *testing.T, email string, canConfirm bool) model.Principal {
	t.Helper()
	user := &model.AppUser{
		Kind:            model.PrincipalClient,
		Email:           email,
		PasswordHash:    "x",
		CorporateNumber: e.f.Client.CorporateNumber,
		CanConfirm:      canConfirm,
		IsActive:        true,
	}
	require.NoError(t, e.f.DB.Create(user).Error)
	return user.Principal()
}

func (e *confirmationEnv) connectClient(t *testing.T, email string, status model.ConnectStatus) {
	t.Helper()
	connect := &model.ConnectClient{CorporateNumber: e.f.Client.CorporateNumber, Email: email, Status: status}
	connect.TenantID = e.f.TenantID
	require.NoError(t, e.f.DB.Create(connect).Error)
}

func TestConfirmClientContract(t *testing.T) {
	env := newConfirmationEnv(t)
	f := env.f
	ctx := context.Background()

	actor := env.clientUser(t, "buyer@client.example.com", true)
	env.connectClient(t, "buyer@client.example.com", model.ConnectApproved)

	contract := f.ClientContract(t, model.ContractTypeContract, model.StatusApproved, "2025-04-01", "")
	_, err := env.confirmation.ConfirmClientContract(ctx, actor, contract.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition, "an approved contract has to be issued first")

	_, err = env.issuance.IssueContractPDF(ctx, f.Actor(), contract.ID)
	require.NoError(t, err)

	visible, err := env.confirmation.ListForClientUser(ctx, actor)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, contract.ID, visible[0].ID)

	confirmed, err := env.confirmation.ConfirmClientContract(ctx, actor, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, confirmed.ContractStatus)
	require.NotNil(t, confirmed.ConfirmedBy)
	assert.Equal(t, actor.UserID, *confirmed.ConfirmedBy)

	var entry model.AppLog
	require.NoError(t, f.DB.Where("action = ?", model.ActionConfirm).Take(&entry).Error)
	assert.Equal(t, f.TenantID, *entry.TenantID)

	_, err = env.confirmation.ConfirmClientContract(ctx, actor, contract.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestConfirmClientContractAccess(t *testing.T) {
	env := newConfirmationEnv(t)
	f := env.f
	ctx := context.Background()

	contract := f.ClientContract(t, model.ContractTypeContract, model.StatusApproved, "2025-04-01", "")
	_, err := env.issuance.IssueContractPDF(ctx, f.Actor(), contract.ID)
	require.NoError(t, err)

	viewer := env.clientUser(t, "viewer@client.example.com", false)
	env.connectClient(t, "viewer@client.example.com", model.ConnectApproved)
	_, err = env.confirmation.ConfirmClientContract(ctx, viewer, contract.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	waiting := env.clientUser(t, "waiting@client.example.com", true)
	env.connectClient(t, "waiting@client.example.com", model.ConnectPending)
	_, err = env.confirmation.ConfirmClientContract(ctx, waiting, contract.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	visible, err := env.confirmation.ListForClientUser(ctx, waiting)
	require.NoError(t, err)
	assert.Empty(t, visible)

	_, err = env.confirmation.ConfirmClientContract(ctx, f.Actor(), contract.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestConfirmStaffContract(t *testing.T) {
	env := newConfirmationEnv(t)
	f := env.f
	ctx := context.Background()

	staff := f.Staff(t, "worker@example.com", "1990-01-01")
	contract := f.StaffContract(t, staff, true, model.StatusApproved, "2025-04-01", "2026-03-31")
	_, err := env.issuance.IssueStaffContractPDF(ctx, f.Actor(), contract.ID)
	require.NoError(t, err)

	actor := model.Principal{UserID: uuid.New(), Kind: model.PrincipalStaff, Email: "worker@example.com"}
	_, err = env.confirmation.ConfirmStaffContract(ctx, actor, contract.ID)
	assert.ErrorIs(t, err, ErrNotFound, "not connected yet")

	connect := &model.ConnectStaff{Email: "worker@example.com", Status: model.ConnectApproved}
	connect.TenantID = f.TenantID
	require.NoError(t, f.DB.Create(connect).Error)

	visible, err := env.confirmation.ListForStaff(ctx, actor)
	require.NoError(t, err)
	require.Len(t, visible, 1)

	other := actor
	other.Email = "someone@example.com"
	_, err = env.confirmation.ConfirmStaffContract(ctx, other, contract.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	confirmed, err := env.confirmation.ConfirmStaffContract(ctx, actor, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, confirmed.ContractStatus)
	assert.NotNil(t, confirmed.ConfirmedAt)
}
