package service

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/nurpe/haken-contracts/internal/config"
	"github.com/nurpe/haken-contracts/internal/model"
	"github.com/nurpe/haken-contracts/internal/repository"
	"github.com/nurpe/haken-contracts/internal/testutil"
)

type testEnv struct {
	f           *testutil.Fixture
	repo        *repository.Repository
	auditor     *Auditor
	contracts   *ContractService
	teishokubi  *TeishokubiCalculator
	assignments *AssignmentService
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithConfig(t, &config.Config{Contracts: config.ContractsConfig{MinimumWageStrict: true}})
}

func newTestEnvWithConfig(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()
	database := testutil.SetupTestDB(t)
	f := testutil.NewFixture(t, database)
	repo := repository.New(database)
	log := zerolog.Nop()

	auditor := NewAuditor(repo, log)
	teishokubi := NewTeishokubiCalculator(repo, auditor, log)
	return &testEnv{
		f:           f,
		repo:        repo,
		auditor:     auditor,
		contracts:   NewContractService(repo, NewNumberAllocator(log), NewMinimumWageChecker(), auditor, cfg, log),
		teishokubi:  teishokubi,
		assignments: NewAssignmentService(repo, teishokubi, auditor, log),
	}
}

func (e *testEnv) countLogs(t *testing.T, modelName, action string) int64 {
	t.Helper()
	var count int64
	if err := e.f.DB.Model(&model.AppLog{}).
		Where("model_name = ? AND action = ?", modelName, action).
		Count(&count).Error; err != nil {
		t.Fatalf("count app logs: %v", err)
	}
	return count
}
