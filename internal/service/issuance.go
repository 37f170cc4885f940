package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nurpe/haken-contracts/internal/model"
	"github.com/nurpe/haken-contracts/internal/repository"
)

// DocumentRenderer lays out the PDFs issued for contracts and assignments.
type DocumentRenderer interface {
	RenderClientDocument(printType model.PrintType, doc model.ClientContractDocument) ([]byte, error)
	RenderStaffContract(doc model.StaffContractDocument) ([]byte, error)
	RenderEmploymentConditions(doc model.EmploymentConditionsDocument) ([]byte, error)
}

// BlobStore keeps issued PDFs. Stored blobs are never overwritten.
type BlobStore interface {
	Put(ctx context.Context, name string, content []byte) (string, error)
	Get(ctx context.Context, path string) ([]byte, error)
}

const DraftWatermark = "下書き"

// PDFFile is a rendered or stored document ready to be sent.
type PDFFile struct {
	FileName string
	Content  []byte
}

// IssuanceService renders documents, stores them and records immutable
// print rows alongside the status and timestamp changes they cause.
type IssuanceService struct {
	repo       *repository.Repository
	renderer   DocumentRenderer
	blobs      BlobStore
	teishokubi *TeishokubiCalculator
	auditor    *Auditor
	log        zerolog.Logger
	now        func() time.Time
}

func NewIssuanceService(
	repo *repository.Repository,
	renderer DocumentRenderer,
	blobs BlobStore,
	teishokubi *TeishokubiCalculator,
	auditor *Auditor,
	log zerolog.Logger,
) *IssuanceService {
	return &IssuanceService{
		repo:       repo,
		renderer:   renderer,
		blobs:      blobs,
		teishokubi: teishokubi,
		auditor:    auditor,
		log:        log,
		now:        time.Now,
	}
}

var printKinds = map[model.PrintType]string{
	model.PrintTypeContract:               "client_contract",
	model.PrintTypeQuotation:              "quotation",
	model.PrintTypeTeishokubiNotification: "teishokubi_notification",
	model.PrintTypeDispatchNotification:   "dispatch_notification",
	model.PrintTypeEmploymentConditions:   "employment_conditions",
}

// ClientDocumentTitle names the document of printType issued for contract.
func ClientDocumentTitle(printType model.PrintType, contract *model.ClientContract) string {
	switch printType {
	case model.PrintTypeQuotation:
		return "御見積書"
	case model.PrintTypeTeishokubiNotification:
		return "抵触日通知書"
	case model.PrintTypeDispatchNotification:
		return "派遣先通知書"
	}
	switch contract.ClientContractTypeCode {
	case model.ContractTypeDispatch:
		if contract.IsTtp() {
			return "紹介予定派遣個別契約書"
		}
		return "労働者派遣個別契約書"
	case model.ContractTypeQuasiMandate:
		return "準委任契約書"
	case model.ContractTypeContract:
		return "請負契約書"
	case model.ContractTypeIntroduction:
		return "職業紹介契約書"
	}
	return "契約書"
}

// IssueContractPDF issues the contract and, for dispatch, the dispatch
// notification. The first issuance moves an APPROVED contract to ISSUED.
func (s *IssuanceService) IssueContractPDF(ctx context.Context, actor model.Principal, id uuid.UUID) ([]model.ClientContractPrint, error) {
	if err := requireCompany(actor); err != nil {
		return nil, err
	}
	var prints []model.ClientContractPrint
	err := s.repo.WithTransaction(ctx, func(tx *repository.Repository) error {
		contract, err := lockClientContract(ctx, tx, actor.TenantID, id)
		if err != nil {
			return err
		}
		if !contract.IsApprovedOrLater() {
			return ErrInvalidTransition
		}

		types := []model.PrintType{model.PrintTypeContract}
		if contract.IsDispatch() {
			types = append(types, model.PrintTypeDispatchNotification)
		}
		now := s.now()
		for _, printType := range types {
			record, err := s.issueClientDocument(ctx, tx, actor, contract, printType, now)
			if err != nil {
				return err
			}
			prints = append(prints, *record)
		}

		if contract.IssuedAt == nil {
			contract.IssuedAt = &now
			contract.IssuedBy = &actor.UserID
		}
		if contract.ContractStatus == model.StatusApproved {
			contract.ContractStatus = model.StatusIssued
		}
		contract.Touch(actor.UserID)
		if err := tx.SaveClientContract(ctx, contract); err != nil {
			return err
		}
		return s.auditor.Record(ctx, tx, actor, contract, model.ActionIssue)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("contract_id", id.String()).Int("prints", len(prints)).Msg("client contract issued")
	return prints, nil
}

// IssueQuotation issues a quotation for an approved contract without
// changing its status.
func (s *IssuanceService) IssueQuotation(ctx context.Context, actor model.Principal, id uuid.UUID) (*model.ClientContractPrint, error) {
	return s.issueSideDocument(ctx, actor, id, model.PrintTypeQuotation, func(contract *model.ClientContract, at time.Time) {
		contract.QuotationIssuedAt = &at
		contract.QuotationIssuedBy = &actor.UserID
	})
}

// IssueTeishokubiNotification issues the client's conflict-day notice.
func (s *IssuanceService) IssueTeishokubiNotification(ctx context.Context, actor model.Principal, id uuid.UUID) (*model.ClientContractPrint, error) {
	return s.issueSideDocument(ctx, actor, id, model.PrintTypeTeishokubiNotification, func(contract *model.ClientContract, at time.Time) {
		contract.TeishokubiNotificationIssuedAt = &at
		contract.TeishokubiNotificationIssuedBy = &actor.UserID
	})
}

// IssueDispatchNotification reissues the dispatch notification on its own.
func (s *IssuanceService) IssueDispatchNotification(ctx context.Context, actor model.Principal, id uuid.UUID) (*model.ClientContractPrint, error) {
	return s.issueSideDocument(ctx, actor, id, model.PrintTypeDispatchNotification, nil)
}

func (s *IssuanceService) issueSideDocument(
	ctx context.Context,
	actor model.Principal,
	id uuid.UUID,
	printType model.PrintType,
	stamp func(*model.ClientContract, time.Time),
) (*model.ClientContractPrint, error) {
	if err := requireCompany(actor); err != nil {
		return nil, err
	}
	var record *model.ClientContractPrint
	err := s.repo.WithTransaction(ctx, func(tx *repository.Repository) error {
		contract, err := lockClientContract(ctx, tx, actor.TenantID, id)
		if err != nil {
			return err
		}
		if !contract.IsApprovedOrLater() {
			return invalid("", "承認済みの契約のみ発行できます。")
		}
		if (printType == model.PrintTypeTeishokubiNotification || printType == model.PrintTypeDispatchNotification) && !contract.IsDispatch() {
			return invalid("", "派遣契約のみ発行できます。")
		}

		now := s.now()
		record, err = s.issueClientDocument(ctx, tx, actor, contract, printType, now)
		if err != nil {
			return err
		}
		if stamp == nil {
			return s.auditor.Record(ctx, tx, actor, record, model.ActionPrint)
		}
		stamp(contract, now)
		contract.Touch(actor.UserID)
		if err := tx.SaveClientContract(ctx, contract); err != nil {
			return err
		}
		return s.auditor.Record(ctx, tx, actor, record, model.ActionPrint)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("contract_id", id.String()).Str("print_type", string(printType)).Msg("client document issued")
	return record, nil
}

func (s *IssuanceService) issueClientDocument(
	ctx context.Context,
	tx *repository.Repository,
	actor model.Principal,
	contract *model.ClientContract,
	printType model.PrintType,
	at time.Time,
) (*model.ClientContractPrint, error) {
	doc, err := s.clientDocument(ctx, tx, contract, printType, "", at)
	if err != nil {
		return nil, err
	}
	content, err := s.renderer.RenderClientDocument(printType, *doc)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", printKinds[printType], err)
	}
	fileName := model.PrintFileName(printKinds[printType], contract.ID, at)
	printID := uuid.New()
	path, err := s.blobs.Put(ctx, model.PrintBlobName(printID, fileName), content)
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", fileName, err)
	}

	record := &model.ClientContractPrint{
		ClientContractID: contract.ID,
		PrintType:        printType,
		PrintedAt:        at,
		PrintedBy:        &actor.UserID,
		DocumentTitle:    doc.Title,
		PDFPath:          path,
		FileName:         fileName,
		ContractNumber:   contract.Number(),
	}
	record.ID = printID
	record.TenantID = contract.TenantID
	record.CreatedBy = &actor.UserID
	if err := tx.CreateClientPrint(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *IssuanceService) clientDocument(
	ctx context.Context,
	tx *repository.Repository,
	contract *model.ClientContract,
	printType model.PrintType,
	watermark string,
	at time.Time,
) (*model.ClientContractDocument, error) {
	company, err := companyOf(ctx, tx, contract.TenantID)
	if err != nil {
		return nil, err
	}
	workers, err := s.assignedWorkers(ctx, tx, contract)
	if err != nil {
		return nil, err
	}
	clientName := ""
	if contract.Client != nil {
		clientName = contract.Client.Name
	}
	values := map[string]string{
		"company_name":    company.Name,
		"client_name":     clientName,
		"start_date":      model.FormatJPDate(&contract.StartDate),
		"end_date":        model.FormatJPDate(contract.EndDate),
		"contract_amount": formatAmount(contract.ContractAmount),
	}
	return &model.ClientContractDocument{
		Title:     ClientDocumentTitle(printType, contract),
		Company:   *company,
		Contract:  *contract,
		Terms:     fillTerms(termsOf(contract.ContractPattern), values),
		Workers:   workers,
		Watermark: watermark,
		IssuedAt:  at,
	}, nil
}

// assignedWorkers lists the workers on a dispatch contract with the
// conflict date currently on file for each.
func (s *IssuanceService) assignedWorkers(ctx context.Context, tx *repository.Repository, contract *model.ClientContract) ([]model.AssignedWorker, error) {
	if !contract.IsDispatch() {
		return nil, nil
	}
	assignments, err := tx.ListAssignments(ctx, contract.TenantID, repository.AssignmentFilter{ClientContractID: &contract.ID})
	if err != nil {
		return nil, err
	}
	workers := make([]model.AssignedWorker, 0, len(assignments))
	for i := range assignments {
		a := &assignments[i]
		if a.StaffContract == nil || a.StaffContract.Staff == nil {
			continue
		}
		period, ok := a.EffectivePeriod()
		if !ok {
			continue
		}
		staff := a.StaffContract.Staff
		worker := model.AssignedWorker{
			Name:        staff.Name,
			NameKana:    staff.NameKana,
			Sex:         staff.Sex,
			IsFixedTerm: a.StaffContract.IsFixedTerm,
			IsSenior:    !model.IsUnder60(staff.BirthDate, period.Start),
			Period:      period,
		}
		if key, ok := KeyFor(a); ok {
			conflict, err := s.teishokubi.ConflictDate(ctx, tx, contract.TenantID, key)
			if err != nil {
				return nil, err
			}
			worker.ConflictDate = conflict
		}
		workers = append(workers, worker)
	}
	return workers, nil
}

// IssueStaffContractPDF issues the employment contract; the first issuance
// moves an APPROVED contract to ISSUED.
func (s *IssuanceService) IssueStaffContractPDF(ctx context.Context, actor model.Principal, id uuid.UUID) (*model.StaffContractPrint, error) {
	if err := requireCompany(actor); err != nil {
		return nil, err
	}
	var record *model.StaffContractPrint
	err := s.repo.WithTransaction(ctx, func(tx *repository.Repository) error {
		contract, err := lockStaffContract(ctx, tx, actor.TenantID, id)
		if err != nil {
			return err
		}
		if !contract.IsApprovedOrLater() {
			return ErrInvalidTransition
		}

		now := s.now()
		doc, err := s.staffDocument(ctx, tx, contract, "", now)
		if err != nil {
			return err
		}
		content, err := s.renderer.RenderStaffContract(*doc)
		if err != nil {
			return fmt.Errorf("render staff contract: %w", err)
		}
		fileName := model.PrintFileName("staff_contract", contract.ID, now)
		printID := uuid.New()
		path, err := s.blobs.Put(ctx, model.PrintBlobName(printID, fileName), content)
		if err != nil {
			return fmt.Errorf("store %s: %w", fileName, err)
		}

		record = &model.StaffContractPrint{
			StaffContractID: contract.ID,
			PrintType:       model.PrintTypeContract,
			PrintedAt:       now,
			PrintedBy:       &actor.UserID,
			DocumentTitle:   doc.Title,
			PDFPath:         path,
			FileName:        fileName,
			ContractNumber:  contract.Number(),
		}
		record.ID = printID
		record.TenantID = contract.TenantID
		record.CreatedBy = &actor.UserID
		if err := tx.CreateStaffPrint(ctx, record); err != nil {
			return err
		}

		if contract.IssuedAt == nil {
			contract.IssuedAt = &now
			contract.IssuedBy = &actor.UserID
		}
		if contract.ContractStatus == model.StatusApproved {
			contract.ContractStatus = model.StatusIssued
		}
		contract.Touch(actor.UserID)
		if err := tx.SaveStaffContract(ctx, contract); err != nil {
			return err
		}
		return s.auditor.Record(ctx, tx, actor, contract, model.ActionIssue)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("contract_id", id.String()).Msg("staff contract issued")
	return record, nil
}

func (s *IssuanceService) staffDocument(ctx context.Context, tx *repository.Repository, contract *model.StaffContract, watermark string, at time.Time) (*model.StaffContractDocument, error) {
	company, err := companyOf(ctx, tx, contract.TenantID)
	if err != nil {
		return nil, err
	}
	staffName := ""
	if contract.Staff != nil {
		staffName = contract.Staff.Name
	}
	values := map[string]string{
		"company_name":    company.Name,
		"staff_name":      staffName,
		"start_date":      model.FormatJPDate(&contract.StartDate),
		"end_date":        model.FormatJPDate(contract.EndDate),
		"contract_amount": formatAmount(contract.ContractAmount),
	}
	return &model.StaffContractDocument{
		Title:     "雇用契約書兼労働条件通知書",
		Company:   *company,
		Contract:  *contract,
		Terms:     fillTerms(termsOf(contract.ContractPattern), values),
		Watermark: watermark,
		IssuedAt:  at,
	}, nil
}

// DraftClientPDF renders a watermarked preview in any status. Nothing is
// stored.
func (s *IssuanceService) DraftClientPDF(ctx context.Context, actor model.Principal, id uuid.UUID, printType model.PrintType) (*PDFFile, error) {
	if err := requireCompany(actor); err != nil {
		return nil, err
	}
	if _, ok := printKinds[printType]; !ok || printType == model.PrintTypeEmploymentConditions {
		return nil, invalid("print_type", "帳票種別が不正です。")
	}
	contract, err := s.repo.GetClientContract(ctx, actor.TenantID, id)
	if err != nil {
		return nil, notFound(err)
	}
	now := s.now()
	doc, err := s.clientDocument(ctx, s.repo, contract, printType, DraftWatermark, now)
	if err != nil {
		return nil, err
	}
	content, err := s.renderer.RenderClientDocument(printType, *doc)
	if err != nil {
		return nil, err
	}
	return &PDFFile{FileName: model.PrintFileName(printKinds[printType]+"_draft", id, now), Content: content}, nil
}

func (s *IssuanceService) DraftStaffPDF(ctx context.Context, actor model.Principal, id uuid.UUID) (*PDFFile, error) {
	if err := requireCompany(actor); err != nil {
		return nil, err
	}
	contract, err := s.repo.GetStaffContract(ctx, actor.TenantID, id)
	if err != nil {
		return nil, notFound(err)
	}
	now := s.now()
	doc, err := s.staffDocument(ctx, s.repo, contract, DraftWatermark, now)
	if err != nil {
		return nil, err
	}
	content, err := s.renderer.RenderStaffContract(*doc)
	if err != nil {
		return nil, err
	}
	return &PDFFile{FileName: model.PrintFileName("staff_contract_draft", id, now), Content: content}, nil
}

// GenerateEmploymentConditionsPDF renders the working-conditions statement of
// a fixed-term dispatch assignment with the conflict date on file at issuedAt.
func (s *IssuanceService) GenerateEmploymentConditionsPDF(ctx context.Context, actor model.Principal, assignmentID uuid.UUID, issuedAt time.Time, watermark string) (*PDFFile, error) {
	if err := requireCompany(actor); err != nil {
		return nil, err
	}
	assignment, err := s.repo.GetAssignment(ctx, actor.TenantID, assignmentID)
	if err != nil {
		return nil, notFound(err)
	}
	doc, err := s.employmentConditions(ctx, s.repo, assignment, issuedAt, watermark)
	if err != nil {
		return nil, err
	}
	content, err := s.renderer.RenderEmploymentConditions(*doc)
	if err != nil {
		return nil, err
	}
	return &PDFFile{
		FileName: model.PrintFileName(printKinds[model.PrintTypeEmploymentConditions], assignmentID, issuedAt),
		Content:  content,
	}, nil
}

// IssueEmploymentConditions stores the statement and records an assignment print.
func (s *IssuanceService) IssueEmploymentConditions(ctx context.Context, actor model.Principal, assignmentID uuid.UUID) (*model.ContractAssignmentPrint, error) {
	if err := requireCompany(actor); err != nil {
		return nil, err
	}
	var record *model.ContractAssignmentPrint
	err := s.repo.WithTransaction(ctx, func(tx *repository.Repository) error {
		assignment, err := tx.GetAssignment(ctx, actor.TenantID, assignmentID)
		if err != nil {
			return notFound(err)
		}
		now := s.now()
		doc, err := s.employmentConditions(ctx, tx, assignment, now, "")
		if err != nil {
			return err
		}
		content, err := s.renderer.RenderEmploymentConditions(*doc)
		if err != nil {
			return fmt.Errorf("render employment conditions: %w", err)
		}
		fileName := model.PrintFileName(printKinds[model.PrintTypeEmploymentConditions], assignment.ID, now)
		printID := uuid.New()
		path, err := s.blobs.Put(ctx, model.PrintBlobName(printID, fileName), content)
		if err != nil {
			return fmt.Errorf("store %s: %w", fileName, err)
		}
		record = &model.ContractAssignmentPrint{
			AssignmentID:  assignment.ID,
			PrintType:     model.PrintTypeEmploymentConditions,
			PrintedAt:     now,
			PrintedBy:     &actor.UserID,
			DocumentTitle: doc.Title,
			PDFPath:       path,
			FileName:      fileName,
			ConflictDate:  doc.ConflictDate,
		}
		record.ID = printID
		record.TenantID = actor.TenantID
		record.CreatedBy = &actor.UserID
		if err := tx.CreateAssignmentPrint(ctx, record); err != nil {
			return err
		}
		return s.auditor.Record(ctx, tx, actor, record, model.ActionPrint)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *IssuanceService) employmentConditions(
	ctx context.Context,
	tx *repository.Repository,
	assignment *model.ContractAssignment,
	at time.Time,
	watermark string,
) (*model.EmploymentConditionsDocument, error) {
	client := assignment.ClientContract
	staffContract := assignment.StaffContract
	if client == nil || staffContract == nil || !client.IsDispatch() || !staffContract.IsFixedTerm {
		return nil, invalid("", "就業条件明示書は有期雇用スタッフの派遣割当のみ発行できます。")
	}
	period, ok := assignment.EffectivePeriod()
	if !ok {
		return nil, invalid("", "割当期間がありません。")
	}
	company, err := companyOf(ctx, tx, assignment.TenantID)
	if err != nil {
		return nil, err
	}

	var conflict *time.Time
	if key, ok := KeyFor(assignment); ok {
		conflict, err = s.teishokubi.ConflictDate(ctx, tx, assignment.TenantID, key)
		if err != nil {
			return nil, err
		}
	}

	staffName := ""
	if staffContract.Staff != nil {
		staffName = staffContract.Staff.Name
	}
	values := map[string]string{
		"company_name":    company.Name,
		"staff_name":      staffName,
		"start_date":      model.FormatJPDate(&period.Start),
		"end_date":        model.FormatJPDate(period.End),
		"contract_amount": formatAmount(staffContract.ContractAmount),
	}
	return &model.EmploymentConditionsDocument{
		Title:        "就業条件明示書",
		Company:      *company,
		Client:       *client,
		Staff:        *staffContract,
		Period:       period,
		ConflictDate: conflict,
		Terms:        fillTerms(termsOf(staffContract.ContractPattern), values),
		Watermark:    watermark,
		IssuedAt:     at,
	}, nil
}

func (s *IssuanceService) ListClientPrints(ctx context.Context, actor model.Principal, contractID uuid.UUID) ([]model.ClientContractPrint, error) {
	if err := requireCompany(actor); err != nil {
		return nil, err
	}
	return s.repo.ListClientPrints(ctx, actor.TenantID, contractID)
}

func (s *IssuanceService) ListStaffPrints(ctx context.Context, actor model.Principal, contractID uuid.UUID) ([]model.StaffContractPrint, error) {
	if err := requireCompany(actor); err != nil {
		return nil, err
	}
	return s.repo.ListStaffPrints(ctx, actor.TenantID, contractID)
}

func (s *IssuanceService) ListAssignmentPrints(ctx context.Context, actor model.Principal, assignmentID uuid.UUID) ([]model.ContractAssignmentPrint, error) {
	if err := requireCompany(actor); err != nil {
		return nil, err
	}
	return s.repo.ListAssignmentPrints(ctx, actor.TenantID, assignmentID)
}

func (s *IssuanceService) GetClientPrint(ctx context.Context, actor model.Principal, id uuid.UUID) (*model.ClientContractPrint, error) {
	if err := requireCompany(actor); err != nil {
		return nil, err
	}
	record, err := s.repo.GetClientPrint(ctx, actor.TenantID, id)
	if err != nil {
		return nil, notFound(err)
	}
	return record, nil
}

func (s *IssuanceService) GetStaffPrint(ctx context.Context, actor model.Principal, id uuid.UUID) (*model.StaffContractPrint, error) {
	if err := requireCompany(actor); err != nil {
		return nil, err
	}
	record, err := s.repo.GetStaffPrint(ctx, actor.TenantID, id)
	if err != nil {
		return nil, notFound(err)
	}
	return record, nil
}

func (s *IssuanceService) GetAssignmentPrint(ctx context.Context, actor model.Principal, id uuid.UUID) (*model.ContractAssignmentPrint, error) {
	if err := requireCompany(actor); err != nil {
		return nil, err
	}
	record, err := s.repo.GetAssignmentPrint(ctx, actor.TenantID, id)
	if err != nil {
		return nil, notFound(err)
	}
	return record, nil
}

// OpenPrint reads a stored PDF.
func (s *IssuanceService) OpenPrint(ctx context.Context, path, fileName string) (*PDFFile, error) {
	content, err := s.blobs.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open print %s: %w", fileName, err)
	}
	return &PDFFile{FileName: fileName, Content: content}, nil
}

func formatAmount(amount decimal.NullDecimal) string {
	if !amount.Valid {
		return ""
	}
	if amount.Decimal.Equal(amount.Decimal.Truncate(0)) {
		return amount.Decimal.StringFixed(0)
	}
	return amount.Decimal.StringFixed(2)
}

func companyOf(ctx context.Context, tx *repository.Repository, tenantID uuid.UUID) (*model.Company, error) {
	company, err := tx.GetCompany(ctx, tenantID)
	if repository.IsNotFound(err) {
		return nil, invalid("", "自社情報が登録されていません。")
	}
	return company, err
}

func termsOf(pattern *model.ContractPattern) []model.ContractTerm {
	if pattern == nil {
		return nil
	}
	return pattern.Terms
}

// fillTerms replaces {{name}} placeholders in every term body.
func fillTerms(terms []model.ContractTerm, values map[string]string) []model.ContractTerm {
	pairs := make([]string, 0, len(values)*2)
	for name, value := range values {
		pairs = append(pairs, "{{"+name+"}}", value)
	}
	replacer := strings.NewReplacer(pairs...)

	filled := make([]model.ContractTerm, len(terms))
	for i, term := range terms {
		filled[i] = term
		filled[i].Body = replacer.Replace(term.Body)
	}
	return filled
}
