package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/haken-contracts/internal/model"
	"github.com/nurpe/haken-contracts/internal/repository"
	"github.com/nurpe/haken-contracts/internal/testutil"
)

func slice(t *testing.T, start, end string) Slice {
	s := Slice{Start: testutil.Date(t, start)}
	if end != "" {
		s.End = testutil.DatePtr(t, end)
	}
	return s
}

func TestCalculateRun(t *testing.T) {
	tests := []struct {
		name           string
		slices         []Slice
		wantStart      string
		wantConflict   string
		wantCalculated []bool
	}{
		{
			name:           "single slice",
			slices:         []Slice{slice(t, "2024-04-01", "2024-09-30")},
			wantStart:      "2024-04-01",
			wantConflict:   "2027-04-01",
			wantCalculated: []bool{true},
		},
		{
			name: "gap shorter than three months continues the run",
			slices: []Slice{
				slice(t, "2024-09-01", "2024-12-31"),
				slice(t, "2024-04-01", "2024-06-30"),
			},
			wantStart:      "2024-04-01",
			wantConflict:   "2027-04-01",
			wantCalculated: []bool{true, true},
		},
		{
			name: "start on the last day of the grace period continues the run",
			slices: []Slice{
				slice(t, "2024-04-01", "2024-06-30"),
				slice(t, "2024-09-30", "2024-12-31"),
			},
			wantStart:      "2024-04-01",
			wantConflict:   "2027-04-01",
			wantCalculated: []bool{true, true},
		},
		{
			name: "gap of three months and one day resets",
			slices: []Slice{
				slice(t, "2024-04-01", "2024-06-30"),
				slice(t, "2024-10-01", "2025-03-31"),
			},
			wantStart:      "2024-10-01",
			wantConflict:   "2027-10-01",
			wantCalculated: []bool{false, true},
		},
		{
			name: "open end never resets",
			slices: []Slice{
				slice(t, "2020-01-01", ""),
				slice(t, "2024-01-01", "2024-03-31"),
			},
			wantStart:      "2020-01-01",
			wantConflict:   "2023-01-01",
			wantCalculated: []bool{true, true},
		},
		{
			name: "gap measured from the latest end of the run",
			slices: []Slice{
				slice(t, "2024-04-01", "2024-12-31"),
				slice(t, "2024-05-01", "2024-05-31"),
				slice(t, "2025-03-15", "2025-06-30"),
			},
			wantStart:      "2024-04-01",
			wantConflict:   "2027-04-01",
			wantCalculated: []bool{true, true, true},
		},
		{
			name:           "leap day clamps to february 28",
			slices:         []Slice{slice(t, "2024-02-29", "2024-08-31")},
			wantStart:      "2024-02-29",
			wantConflict:   "2027-02-28",
			wantCalculated: []bool{true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run, ok := CalculateRun(tt.slices)
			require.True(t, ok)
			assert.Equal(t, testutil.Date(t, tt.wantStart), run.DispatchStartDate)
			assert.Equal(t, testutil.Date(t, tt.wantConflict), run.ConflictDate)

			calculated := make([]bool, 0, len(run.Slices))
			for _, s := range run.Slices {
				calculated = append(calculated, s.Calculated)
			}
			assert.Equal(t, tt.wantCalculated, calculated)
		})
	}
}

func TestCalculateRunEmpty(t *testing.T) {
	_, ok := CalculateRun(nil)
	assert.False(t, ok)
}

func TestCalculateRunDoesNotReorderInput(t *testing.T) {
	input := []Slice{slice(t, "2024-09-01", "2024-12-31"), slice(t, "2024-04-01", "2024-06-30")}
	_, ok := CalculateRun(input)
	require.True(t, ok)
	assert.Equal(t, testutil.Date(t, "2024-09-01"), input[0].Start)
}

func (e *testEnv) key(email string) model.TeishokubiKey {
	return model.TeishokubiKey{
		StaffEmail:            email,
		ClientCorporateNumber: e.f.Client.CorporateNumber,
		OrganizationName:      e.f.Unit.Name,
	}
}

func (e *testEnv) assign(t *testing.T, client *model.ClientContract, staff *model.StaffContract) *AssignmentResult {
	t.Helper()
	result, err := e.assignments.Create(context.Background(), e.f.Actor(), AssignmentInput{
		ClientContractID: client.ID,
		StaffContractID:  staff.ID,
	})
	require.NoError(t, err)
	return result
}

func TestAssignmentMaintainsConflictDate(t *testing.T) {
	env := newTestEnv(t)
	f := env.f
	ctx := context.Background()
	staff := f.Staff(t, "worker@example.com", "1990-05-01")

	firstClient := f.ClientContract(t, model.ContractTypeDispatch, model.StatusApproved, "2024-04-01", "2024-09-30")
	firstStaff := f.StaffContract(t, staff, true, model.StatusApproved, "2024-04-01", "2024-09-30")
	first := env.assign(t, firstClient, firstStaff)
	require.NotNil(t, first.ConflictDate)
	assert.Equal(t, testutil.Date(t, "2027-04-01"), *first.ConflictDate)

	// Starts one day after the grace period ends, so the run resets.
	secondClient := f.ClientContract(t, model.ContractTypeDispatch, model.StatusApproved, "2025-01-01", "2025-06-30")
	secondStaff := f.StaffContract(t, staff, true, model.StatusApproved, "2025-01-01", "2025-06-30")
	second := env.assign(t, secondClient, secondStaff)
	require.NotNil(t, second.ConflictDate)
	assert.Equal(t, testutil.Date(t, "2028-01-01"), *second.ConflictDate)

	record, err := env.repo.GetTeishokubi(ctx, f.TenantID, env.key("worker@example.com"))
	require.NoError(t, err)
	assert.Equal(t, testutil.Date(t, "2025-01-01"), record.DispatchStartDate)
	require.Len(t, record.Details, 2)
	assert.False(t, record.Details[0].IsCalculated)
	assert.True(t, record.Details[1].IsCalculated)
	assert.Equal(t, 2, record.Version)

	require.NoError(t, env.assignments.Delete(ctx, f.Actor(), second.Assignment.ID))
	conflict, err := env.teishokubi.ConflictDate(ctx, env.repo, f.TenantID, env.key("worker@example.com"))
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, testutil.Date(t, "2027-04-01"), *conflict)

	require.NoError(t, env.assignments.Delete(ctx, f.Actor(), first.Assignment.ID))
	conflict, err = env.teishokubi.ConflictDate(ctx, env.repo, f.TenantID, env.key("worker@example.com"))
	require.NoError(t, err)
	assert.Nil(t, conflict, "record is removed with its last slice")

	again := env.assign(t, firstClient, firstStaff)
	require.NotNil(t, again.ConflictDate)
	assert.Equal(t, testutil.Date(t, "2027-04-01"), *again.ConflictDate)
}

func TestExemptWorkersAreNotTracked(t *testing.T) {
	env := newTestEnv(t)
	f := env.f
	ctx := context.Background()

	tests := []struct {
		name      string
		email     string
		birth     string
		fixedTerm bool
	}{
		{name: "indefinite employment", email: "indefinite@example.com", birth: "1990-01-01", fixedTerm: false},
		{name: "aged 60 at start", email: "senior@example.com", birth: "1964-04-01", fixedTerm: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			staff := f.Staff(t, tt.email, tt.birth)
			client := f.ClientContract(t, model.ContractTypeDispatch, model.StatusApproved, "2024-04-01", "")
			staffContract := f.StaffContract(t, staff, tt.fixedTerm, model.StatusApproved, "2024-04-01", "")

			result := env.assign(t, client, staffContract)
			assert.Nil(t, result.ConflictDate)

			_, err := env.repo.GetTeishokubi(ctx, f.TenantID, env.key(tt.email))
			assert.True(t, repository.IsNotFound(err))
		})
	}
}

func TestNonDispatchAssignmentIsNotTracked(t *testing.T) {
	env := newTestEnv(t)
	f := env.f
	staff := f.Staff(t, "contractor@example.com", "1990-01-01")
	client := f.ClientContract(t, model.ContractTypeContract, model.StatusApproved, "2024-04-01", "")
	staffContract := f.StaffContract(t, staff, true, model.StatusApproved, "2024-04-01", "")

	result := env.assign(t, client, staffContract)
	assert.Nil(t, result.ConflictDate)
}

func TestAddManualDetailJoinsRun(t *testing.T) {
	env := newTestEnv(t)
	f := env.f
	ctx := context.Background()
	staff := f.Staff(t, "history@example.com", "1990-05-01")
	client := f.ClientContract(t, model.ContractTypeDispatch, model.StatusApproved, "2024-04-01", "2024-09-30")
	staffContract := f.StaffContract(t, staff, true, model.StatusApproved, "2024-04-01", "2024-09-30")
	env.assign(t, client, staffContract)

	record, err := env.teishokubi.AddManualDetail(ctx, f.Actor(), ManualDetailInput{
		Key:   env.key("history@example.com"),
		Start: testutil.Date(t, "2023-10-01"),
		End:   testutil.DatePtr(t, "2024-02-29"),
	})
	require.NoError(t, err)
	assert.Equal(t, testutil.Date(t, "2023-10-01"), record.DispatchStartDate)
	assert.Equal(t, testutil.Date(t, "2026-10-01"), record.ConflictDate)

	// Recalculation from assignments keeps the manual history.
	_, err = env.teishokubi.Recalculate(ctx, env.repo, f.TenantID, env.key("history@example.com"))
	require.NoError(t, err)
	stored, err := env.repo.GetTeishokubi(ctx, f.TenantID, env.key("history@example.com"))
	require.NoError(t, err)
	assert.Equal(t, testutil.Date(t, "2026-10-01"), stored.ConflictDate)
	require.Len(t, stored.Details, 2)
	assert.True(t, stored.Details[0].IsManual)
	assert.Equal(t, int64(1), env.countLogs(t, "StaffContractTeishokubi", model.ActionUpdate))
}

func TestAddManualDetailValidates(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.teishokubi.AddManualDetail(context.Background(), env.f.Actor(), ManualDetailInput{
		Key:   env.key("nobody@example.com"),
		Start: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		End:   testutil.DatePtr(t, "2024-03-01"),
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
