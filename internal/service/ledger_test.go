package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/haken-contracts/internal/model"
	"github.com/nurpe/haken-contracts/internal/repository"
	"github.com/nurpe/haken-contracts/internal/testutil"
)

type recordingLedgerRenderer struct {
	ledgers []model.AssignmentLedger
	lists   []model.TeishokubiList
}

func (r *recordingLedgerRenderer) AssignmentLedger(ledger model.AssignmentLedger) ([]byte, error) {
	r.ledgers = append(r.ledgers, ledger)
	return []byte("xlsx"), nil
}

func (r *recordingLedgerRenderer) TeishokubiList(list model.TeishokubiList) ([]byte, error) {
	r.lists = append(r.lists, list)
	return []byte("xlsx"), nil
}

func TestExportAssignments(t *testing.T) {
	env := newTestEnv(t)
	f := env.f
	ctx := context.Background()
	renderer := &recordingLedgerRenderer{}
	ledger := NewLedgerService(env.repo, renderer, env.teishokubi, zerolog.Nop())

	staff := f.Staff(t, "ledger@example.com", "1990-01-01")
	inRange := f.ClientContract(t, model.ContractTypeDispatch, model.StatusApproved, "2024-04-01", "2024-09-30")
	env.assign(t, inRange, f.StaffContract(t, staff, true, model.StatusApproved, "2024-04-01", "2024-09-30"))
	later := f.ClientContract(t, model.ContractTypeContract, model.StatusApproved, "2025-04-01", "")
	env.assign(t, later, f.StaffContract(t, f.Staff(t, "later@example.com", "1990-01-01"), false, model.StatusApproved, "2025-04-01", ""))

	file, err := ledger.ExportAssignments(ctx, f.Actor(), testutil.Date(t, "2024-01-01"), testutil.Date(t, "2024-12-31"))
	require.NoError(t, err)
	assert.Equal(t, "assignments_20240101_20241231.xlsx", file.FileName)

	require.Len(t, renderer.ledgers, 1)
	rows := renderer.ledgers[0].Rows
	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, f.Client.Name, row.ClientName)
	assert.Equal(t, staff.EmployeeNo, row.EmployeeNo)
	assert.Equal(t, f.Unit.Name, row.OrganizationName)
	require.NotNil(t, row.ConflictDate)
	assert.Equal(t, testutil.Date(t, "2027-04-01"), *row.ConflictDate)

	_, err = ledger.ExportAssignments(ctx, f.Actor(), testutil.Date(t, "2024-12-31"), testutil.Date(t, "2024-01-01"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExportTeishokubi(t *testing.T) {
	env := newTestEnv(t)
	f := env.f
	renderer := &recordingLedgerRenderer{}
	ledger := NewLedgerService(env.repo, renderer, env.teishokubi, zerolog.Nop())

	contract := f.ClientContract(t, model.ContractTypeDispatch, model.StatusApproved, "2024-04-01", "2024-09-30")
	env.assign(t, contract, f.StaffContract(t, f.Staff(t, "a@example.com", "1990-01-01"), true, model.StatusApproved, "2024-04-01", "2024-09-30"))
	env.assign(t, contract, f.StaffContract(t, f.Staff(t, "b@example.com", "1990-01-01"), true, model.StatusApproved, "2024-05-01", "2024-09-30"))

	_, err := ledger.ExportTeishokubi(context.Background(), f.Actor(), repository.TeishokubiFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, renderer.lists, 1)
	records := renderer.lists[0].Records
	require.Len(t, records, 2, "exports ignore paging")
	assert.Equal(t, "a@example.com", records[0].StaffEmail)
	assert.Equal(t, testutil.Date(t, "2027-05-01"), records[1].ConflictDate)
}
