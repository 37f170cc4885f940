package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/haken-contracts/internal/model"
	"github.com/nurpe/haken-contracts/internal/storage"
	"github.com/nurpe/haken-contracts/internal/testutil"
)

type recordingRenderer struct {
	client     []model.ClientContractDocument
	staff      []model.StaffContractDocument
	conditions []model.EmploymentConditionsDocument
}

func (r *recordingRenderer) RenderClientDocument(printType model.PrintType, doc model.ClientContractDocument) ([]byte, error) {
	r.client = append(r.client, doc)
	return []byte("%PDF client " + string(printType)), nil
}

func (r *recordingRenderer) RenderStaffContract(doc model.StaffContractDocument) ([]byte, error) {
	r.staff = append(r.staff, doc)
	return []byte("%PDF staff"), nil
}

func (r *recordingRenderer) RenderEmploymentConditions(doc model.EmploymentConditionsDocument) ([]byte, error) {
	r.conditions = append(r.conditions, doc)
	return []byte("%PDF conditions"), nil
}

type memoryBlobs struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemoryBlobs() *memoryBlobs {
	return &memoryBlobs{blobs: make(map[string][]byte)}
}

func (m *memoryBlobs) Put(ctx context.Context, name string, content []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path := "prints/" + name
	if _, ok := m.blobs[path]; ok {
		return "", errors.New("blob exists")
	}
	m.blobs[path] = content
	return path, nil
}

func (m *memoryBlobs) Get(ctx context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.blobs[path]
	if !ok {
		return nil, errors.New("blob not found")
	}
	return content, nil
}

type issuanceEnv struct {
	*testEnv
	issuance *IssuanceService
	renderer *recordingRenderer
	blobs    *memoryBlobs
	clock    time.Time
}

// newIssuanceEnv stops the clock at 2025-04-01 09:00:00; tests move it with
// env.clock when they need distinct timestamps.
func newIssuanceEnv(t *testing.T) *issuanceEnv {
	env := newTestEnv(t)
	renderer := &recordingRenderer{}
	blobs := newMemoryBlobs()
	issuance := NewIssuanceService(env.repo, renderer, blobs, env.teishokubi, env.auditor, zerolog.Nop())

	ie := &issuanceEnv{
		testEnv:  env,
		issuance: issuance,
		renderer: renderer,
		blobs:    blobs,
		clock:    time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC),
	}
	issuance.now = func() time.Time { return ie.clock }
	return ie
}

func TestIssueContractPDF(t *testing.T) {
	env := newIssuanceEnv(t)
	f := env.f
	ctx := context.Background()

	pending := f.ClientContract(t, model.ContractTypeDispatch, model.StatusPending, "2025-04-01", "2025-09-30")
	_, err := env.issuance.IssueContractPDF(ctx, f.Actor(), pending.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	contract := f.ClientContract(t, model.ContractTypeDispatch, model.StatusPending, "2025-04-01", "2025-09-30")
	_, err = env.contracts.ApproveClientContract(ctx, f.Actor(), contract.ID, true)
	require.NoError(t, err)

	prints, err := env.issuance.IssueContractPDF(ctx, f.Actor(), contract.ID)
	require.NoError(t, err)
	require.Len(t, prints, 2)
	assert.Equal(t, model.PrintTypeContract, prints[0].PrintType)
	assert.Equal(t, model.PrintTypeDispatchNotification, prints[1].PrintType)
	assert.Equal(t, "労働者派遣個別契約書", prints[0].DocumentTitle)
	assert.Equal(t, "12345678-202504-0001", prints[0].ContractNumber)
	assert.True(t, strings.HasPrefix(prints[0].FileName, "client_contract_"+contract.ID.String()))
	assert.Len(t, env.blobs.blobs, 2)

	stored, err := env.contracts.GetClientContract(ctx, f.Actor(), contract.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusIssued, stored.ContractStatus)
	require.NotNil(t, stored.IssuedAt)
	assert.Equal(t, f.UserID, *stored.IssuedBy)

	again, err := env.issuance.IssueContractPDF(ctx, f.Actor(), contract.ID)
	require.NoError(t, err)
	assert.Len(t, again, 2)
	assert.Equal(t, prints[0].FileName, again[0].FileName)
	assert.NotEqual(t, prints[0].PDFPath, again[0].PDFPath)
	assert.Len(t, env.blobs.blobs, 4)

	listed, err := env.issuance.ListClientPrints(ctx, f.Actor(), contract.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 4)
	assert.Equal(t, int64(2), env.countLogs(t, "ClientContract", model.ActionIssue))

	file, err := env.issuance.OpenPrint(ctx, prints[0].PDFPath, prints[0].FileName)
	require.NoError(t, err)
	assert.Equal(t, "%PDF client 10", string(file.Content))
}

func TestDispatchNotificationListsWorkersWithConflictDate(t *testing.T) {
	env := newIssuanceEnv(t)
	f := env.f
	ctx := context.Background()

	contract := f.ClientContract(t, model.ContractTypeDispatch, model.StatusApproved, "2024-04-01", "2024-09-30")
	staff := f.Staff(t, "listed@example.com", "1990-01-01")
	env.assign(t, contract, f.StaffContract(t, staff, true, model.StatusApproved, "2024-04-01", "2024-09-30"))

	_, err := env.issuance.IssueDispatchNotification(ctx, f.Actor(), contract.ID)
	require.NoError(t, err)
	require.Len(t, env.renderer.client, 1)
	doc := env.renderer.client[0]
	assert.Equal(t, "派遣先通知書", doc.Title)
	require.Len(t, doc.Workers, 1)
	assert.True(t, doc.Workers[0].IsFixedTerm)
	require.NotNil(t, doc.Workers[0].ConflictDate)
	assert.Equal(t, testutil.Date(t, "2027-04-01"), *doc.Workers[0].ConflictDate)
	assert.Equal(t, int64(1), env.countLogs(t, "ClientContractPrint", model.ActionPrint))
}

func TestIssueSideDocuments(t *testing.T) {
	env := newIssuanceEnv(t)
	f := env.f
	ctx := context.Background()

	draft := f.ClientContract(t, model.ContractTypeContract, model.StatusDraft, "2025-04-01", "")
	_, err := env.issuance.IssueQuotation(ctx, f.Actor(), draft.ID)
	assert.ErrorIs(t, err, ErrInvalidInput)

	contract := f.ClientContract(t, model.ContractTypeContract, model.StatusApproved, "2025-04-01", "")
	record, err := env.issuance.IssueQuotation(ctx, f.Actor(), contract.ID)
	require.NoError(t, err)
	assert.Equal(t, "御見積書", record.DocumentTitle)

	stored, err := env.contracts.GetClientContract(ctx, f.Actor(), contract.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.QuotationIssuedAt)
	assert.Equal(t, model.StatusApproved, stored.ContractStatus, "a quotation does not issue the contract")

	_, err = env.issuance.IssueTeishokubiNotification(ctx, f.Actor(), contract.ID)
	assert.ErrorIs(t, err, ErrInvalidInput, "only dispatch contracts carry a conflict-day notice")

	unapproved, err := env.contracts.ApproveClientContract(ctx, f.Actor(), contract.ID, false)
	require.NoError(t, err)
	assert.Nil(t, unapproved.Contract.QuotationIssuedAt)
}

func TestIssueStaffContractPDF(t *testing.T) {
	env := newIssuanceEnv(t)
	f := env.f
	ctx := context.Background()

	staff := f.Staff(t, "issue@example.com", "1990-01-01")
	contract := f.StaffContract(t, staff, true, model.StatusApproved, "2025-04-01", "2026-03-31")

	record, err := env.issuance.IssueStaffContractPDF(ctx, f.Actor(), contract.ID)
	require.NoError(t, err)
	assert.Equal(t, "雇用契約書兼労働条件通知書", record.DocumentTitle)

	require.Len(t, env.renderer.staff, 1)
	doc := env.renderer.staff[0]
	require.Len(t, doc.Terms, 1)
	assert.Contains(t, doc.Terms[0].Body, f.Company.Name)
	assert.Contains(t, doc.Terms[0].Body, staff.Name)
	assert.Contains(t, doc.Terms[0].Body, "時給1500円")
	assert.NotContains(t, doc.Terms[0].Body, "{{")
	assert.Empty(t, doc.Watermark)

	stored, err := env.contracts.GetStaffContract(ctx, f.Actor(), contract.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusIssued, stored.ContractStatus)
}

func TestDraftPDFsAreWatermarkedAndNotStored(t *testing.T) {
	env := newIssuanceEnv(t)
	f := env.f
	ctx := context.Background()

	contract := f.ClientContract(t, model.ContractTypeDispatch, model.StatusDraft, "2025-04-01", "")
	file, err := env.issuance.DraftClientPDF(ctx, f.Actor(), contract.ID, model.PrintTypeContract)
	require.NoError(t, err)
	assert.Contains(t, file.FileName, "_draft_")
	require.Len(t, env.renderer.client, 1)
	assert.Equal(t, DraftWatermark, env.renderer.client[0].Watermark)

	_, err = env.issuance.DraftClientPDF(ctx, f.Actor(), contract.ID, model.PrintTypeEmploymentConditions)
	assert.ErrorIs(t, err, ErrInvalidInput)

	staffContract := f.StaffContract(t, f.Staff(t, "draft@example.com", ""), false, model.StatusDraft, "2025-04-01", "")
	_, err = env.issuance.DraftStaffPDF(ctx, f.Actor(), staffContract.ID)
	require.NoError(t, err)
	assert.Equal(t, DraftWatermark, env.renderer.staff[0].Watermark)

	assert.Empty(t, env.blobs.blobs)
	prints, err := env.issuance.ListClientPrints(ctx, f.Actor(), contract.ID)
	require.NoError(t, err)
	assert.Empty(t, prints)
}

func TestIssueEmploymentConditions(t *testing.T) {
	env := newIssuanceEnv(t)
	f := env.f
	ctx := context.Background()

	contract := f.ClientContract(t, model.ContractTypeDispatch, model.StatusApproved, "2024-04-01", "2024-09-30")
	fixed := env.assign(t, contract, f.StaffContract(t, f.Staff(t, "conditions@example.com", "1990-01-01"), true, model.StatusApproved, "2024-04-01", "2024-09-30"))

	record, err := env.issuance.IssueEmploymentConditions(ctx, f.Actor(), fixed.Assignment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PrintTypeEmploymentConditions, record.PrintType)
	require.NotNil(t, record.ConflictDate)
	assert.Equal(t, testutil.Date(t, "2027-04-01"), *record.ConflictDate)

	prints, err := env.issuance.ListAssignmentPrints(ctx, f.Actor(), fixed.Assignment.ID)
	require.NoError(t, err)
	assert.Len(t, prints, 1)

	indefinite := env.assign(t, contract, f.StaffContract(t, f.Staff(t, "tenured@example.com", "1990-01-01"), false, model.StatusApproved, "2024-04-01", "2024-09-30"))
	_, err = env.issuance.IssueEmploymentConditions(ctx, f.Actor(), indefinite.Assignment.ID)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestClientDocumentTitle(t *testing.T) {
	dispatch := &model.ClientContract{ClientContractTypeCode: model.ContractTypeDispatch}
	ttp := &model.ClientContract{
		ClientContractTypeCode: model.ContractTypeDispatch,
		Haken:                  &model.ClientContractHaken{Ttp: &model.ClientContractTtp{}},
	}
	tests := []struct {
		printType model.PrintType
		contract  *model.ClientContract
		want      string
	}{
		{model.PrintTypeContract, dispatch, "労働者派遣個別契約書"},
		{model.PrintTypeContract, ttp, "紹介予定派遣個別契約書"},
		{model.PrintTypeContract, &model.ClientContract{ClientContractTypeCode: model.ContractTypeQuasiMandate}, "準委任契約書"},
		{model.PrintTypeContract, &model.ClientContract{ClientContractTypeCode: model.ContractTypeIntroduction}, "職業紹介契約書"},
		{model.PrintTypeQuotation, dispatch, "御見積書"},
		{model.PrintTypeTeishokubiNotification, dispatch, "抵触日通知書"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClientDocumentTitle(tt.printType, tt.contract))
	}
}

func TestReissueWithinOneSecondStoresSeparateBlobs(t *testing.T) {
	env := newIssuanceEnv(t)
	f := env.f
	ctx := context.Background()

	blobs, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	env.issuance.blobs = blobs

	contract := f.ClientContract(t, model.ContractTypeContract, model.StatusApproved, "2025-04-01", "")
	first, err := env.issuance.IssueQuotation(ctx, f.Actor(), contract.ID)
	require.NoError(t, err)
	env.clock = env.clock.Add(200 * time.Millisecond)
	second, err := env.issuance.IssueQuotation(ctx, f.Actor(), contract.ID)
	require.NoError(t, err)

	assert.Equal(t, first.FileName, second.FileName)
	assert.NotEqual(t, first.PDFPath, second.PDFPath)

	prints, err := env.issuance.ListClientPrints(ctx, f.Actor(), contract.ID)
	require.NoError(t, err)
	assert.Len(t, prints, 2)

	for _, record := range []*model.ClientContractPrint{first, second} {
		file, err := env.issuance.OpenPrint(ctx, record.PDFPath, record.FileName)
		require.NoError(t, err)
		assert.Equal(t, record.FileName, file.FileName)
		assert.Equal(t, "%PDF client 20", string(file.Content))
	}
}

func TestReissueKeepsFirstIssuedAt(t *testing.T) {
	env := newIssuanceEnv(t)
	f := env.f
	ctx := context.Background()

	contract := f.ClientContract(t, model.ContractTypeContract, model.StatusApproved, "2025-04-01", "")
	_, err := env.issuance.IssueContractPDF(ctx, f.Actor(), contract.ID)
	require.NoError(t, err)
	firstIssued := env.clock

	require.NoError(t, f.DB.Model(&model.ClientContract{}).
		Where("id = ?", contract.ID).
		Update("contract_status", model.StatusConfirmed).Error)

	env.clock = env.clock.Add(time.Hour)
	prints, err := env.issuance.IssueContractPDF(ctx, f.Actor(), contract.ID)
	require.NoError(t, err)
	require.Len(t, prints, 1)
	assert.True(t, prints[0].PrintedAt.Equal(env.clock))

	stored, err := env.contracts.GetClientContract(ctx, f.Actor(), contract.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, stored.ContractStatus)
	require.NotNil(t, stored.IssuedAt)
	assert.True(t, stored.IssuedAt.Equal(firstIssued), "issued_at = %s", stored.IssuedAt)

	staffContract := f.StaffContract(t, f.Staff(t, "reissue@example.com", "1990-01-01"), false, model.StatusApproved, "2025-04-01", "")
	_, err = env.issuance.IssueStaffContractPDF(ctx, f.Actor(), staffContract.ID)
	require.NoError(t, err)
	staffIssued := env.clock
	env.clock = env.clock.Add(time.Hour)
	_, err = env.issuance.IssueStaffContractPDF(ctx, f.Actor(), staffContract.ID)
	require.NoError(t, err)

	storedStaff, err := env.contracts.GetStaffContract(ctx, f.Actor(), staffContract.ID)
	require.NoError(t, err)
	require.NotNil(t, storedStaff.IssuedAt)
	assert.True(t, storedStaff.IssuedAt.Equal(staffIssued), "issued_at = %s", storedStaff.IssuedAt)
}
