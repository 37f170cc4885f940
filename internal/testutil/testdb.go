// Package testutil opens migrated SQLite databases and seeds the master data
// the contract tests build on.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nurpe/haken-contracts/internal/db"
	"github.com/nurpe/haken-contracts/internal/model"
)

// SetupTestDB opens a file-backed SQLite database under t.TempDir and runs
// the schema migration against it.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	database, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, db.Migrate(database), "failed to migrate test database")

	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return database
}

// Date parses YYYY-MM-DD or fails the test.
func Date(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return parsed
}

func DatePtr(t *testing.T, value string) *time.Time {
	t.Helper()
	d := Date(t, value)
	return &d
}

// Fixture is a tenant with one staffing company, one client with an
// organization unit, and the master rows contracts point at.
type Fixture struct {
	DB       *gorm.DB
	TenantID uuid.UUID
	UserID   uuid.UUID

	Company       model.Company
	Client        model.Client
	Office        model.ClientDepartment
	Unit          model.ClientDepartment
	FixedTerm     model.EmploymentType
	Indefinite    model.EmploymentType
	JobCategory   model.JobCategory
	SkilledWorker model.JobCategory
	ClientPattern model.ContractPattern
	StaffPattern  model.ContractPattern

	staffSeq int
}

func NewFixture(t *testing.T, database *gorm.DB) *Fixture {
	t.Helper()

	tenantID := uuid.New()
	f := &Fixture{DB: database, TenantID: tenantID, UserID: uuid.New()}

	f.Company = model.Company{Name: "株式会社テスト派遣", CorporateNumber: "9876543210987", DispatchLicenseNo: "派13-000000"}
	f.Client = model.Client{Name: "株式会社クライアント", CorporateNumber: "1234567890123"}
	f.FixedTerm = model.EmploymentType{Name: "有期雇用", IsFixedTerm: true, IsActive: true}
	f.Indefinite = model.EmploymentType{Name: "無期雇用", IsActive: true}
	f.JobCategory = model.JobCategory{Name: "一般事務", IsActive: true}
	f.SkilledWorker = model.JobCategory{Name: "農業", IsSpecifiedSkilledWorker: true, IsAgricultureFisheryDispatch: true, IsActive: true}
	f.ClientPattern = model.ContractPattern{Name: "派遣基本", Domain: model.PatternDomainClient, ContractType: model.ContractTypeDispatch, IsActive: true}
	f.StaffPattern = model.ContractPattern{Name: "雇用契約", Domain: model.PatternDomainStaff, IsActive: true}

	for _, value := range []interface{}{
		&f.Company, &f.Client, &f.FixedTerm, &f.Indefinite, &f.JobCategory, &f.SkilledWorker,
		&f.ClientPattern, &f.StaffPattern,
	} {
		f.create(t, value)
	}

	f.Office = model.ClientDepartment{ClientID: f.Client.ID, Name: "本社", IsHakenOffice: true}
	f.Unit = model.ClientDepartment{ClientID: f.Client.ID, Name: "総務部", IsOrganizationUnit: true}
	f.create(t, &f.Office)
	f.create(t, &f.Unit)

	f.create(t, &model.ContractTerm{
		ContractPatternID: f.StaffPattern.ID,
		Title:             "第1条",
		Body:              "{{company_name}}は{{staff_name}}を{{start_date}}から{{end_date}}まで雇用する。時給{{contract_amount}}円。",
		DisplayOrder:      1,
	})
	return f
}

func (f *Fixture) create(t *testing.T, value interface{}) {
	t.Helper()
	if base, ok := value.(interface{ SetTenant(uuid.UUID) }); ok {
		base.SetTenant(f.TenantID)
	}
	require.NoError(t, f.DB.Create(value).Error)
}

func (f *Fixture) Actor() model.Principal {
	return model.Principal{
		UserID:   f.UserID,
		TenantID: f.TenantID,
		Kind:     model.PrincipalCompany,
		Email:    "admin@example.com",
	}
}

// Staff creates a worker born on birth ("" for unknown).
func (f *Fixture) Staff(t *testing.T, email, birth string) *model.Staff {
	t.Helper()
	f.staffSeq++
	staff := &model.Staff{
		EmployeeNo: fmt.Sprintf("E%04d", f.staffSeq),
		Name:       "派遣 太郎",
		NameKana:   "ハケン タロウ",
		Email:      email,
	}
	if birth != "" {
		staff.BirthDate = DatePtr(t, birth)
	}
	f.create(t, staff)
	return staff
}

// ClientContract creates a client contract in status with the given period.
// Dispatch contracts get an extension pointing at the fixture's unit.
func (f *Fixture) ClientContract(t *testing.T, typ model.ContractTypeCode, status model.ContractStatus, start, end string) *model.ClientContract {
	t.Helper()
	contract := &model.ClientContract{
		ClientID:               f.Client.ID,
		ContractName:           "テスト契約",
		ClientContractTypeCode: typ,
		CorporateNumber:        f.Client.CorporateNumber,
		ContractStatus:         status,
		StartDate:              Date(t, start),
		ContractAmount:         decimal.NewNullDecimal(decimal.NewFromInt(2500)),
		BillUnit:               model.PayUnitHourly,
	}
	contract.TenantID = f.TenantID
	if end != "" {
		contract.EndDate = DatePtr(t, end)
	}
	require.NoError(t, f.DB.Omit("Haken", "Client", "JobCategory", "ContractPattern", "PaymentSite").Create(contract).Error)

	if typ == model.ContractTypeDispatch {
		haken := &model.ClientContractHaken{
			ClientContractID: contract.ID,
			HakenOfficeID:    &f.Office.ID,
			HakenUnitID:      &f.Unit.ID,
			Commander:        "指揮 命令",
		}
		haken.TenantID = f.TenantID
		require.NoError(t, f.DB.Omit("HakenOffice", "HakenUnit", "Ttp").Create(haken).Error)
		contract.Haken = haken
	}
	return contract
}

// AddTtp attaches an introduction-intent extension to a dispatch contract.
func (f *Fixture) AddTtp(t *testing.T, contract *model.ClientContract) {
	t.Helper()
	require.NotNil(t, contract.Haken)
	ttp := &model.ClientContractTtp{HakenID: contract.Haken.ID, EmployerName: f.Client.Name}
	ttp.TenantID = f.TenantID
	require.NoError(t, f.DB.Create(ttp).Error)
	contract.Haken.Ttp = ttp
}

// StaffContract creates a staff contract for staff in status with the given period.
func (f *Fixture) StaffContract(t *testing.T, staff *model.Staff, fixedTerm bool, status model.ContractStatus, start, end string) *model.StaffContract {
	t.Helper()
	employmentType := f.Indefinite
	if fixedTerm {
		employmentType = f.FixedTerm
	}
	contract := &model.StaffContract{
		StaffID:           staff.ID,
		EmploymentTypeID:  &employmentType.ID,
		IsFixedTerm:       fixedTerm,
		ContractName:      "雇用契約",
		JobCategoryID:     &f.JobCategory.ID,
		ContractPatternID: &f.StaffPattern.ID,
		ContractStatus:    status,
		StartDate:         Date(t, start),
		ContractAmount:    decimal.NewNullDecimal(decimal.NewFromInt(1500)),
		PayUnit:           model.PayUnitHourly,
	}
	contract.TenantID = f.TenantID
	if end != "" {
		contract.EndDate = DatePtr(t, end)
	}
	require.NoError(t, f.DB.Omit("Staff", "EmploymentType", "JobCategory", "ContractPattern").Create(contract).Error)
	return contract
}

// Assign inserts an assignment edge directly, bypassing validation.
func (f *Fixture) Assign(t *testing.T, client *model.ClientContract, staff *model.StaffContract) *model.ContractAssignment {
	t.Helper()
	assignment := &model.ContractAssignment{
		ClientContractID: client.ID,
		StaffContractID:  staff.ID,
		AssignedAt:       time.Now(),
	}
	assignment.TenantID = f.TenantID
	require.NoError(t, f.DB.Omit("ClientContract", "StaffContract").Create(assignment).Error)
	return assignment
}

// Prefectures seeds the pref dropdown and Tokyo's minimum wage.
func (f *Fixture) Prefectures(t *testing.T) {
	t.Helper()
	for i, pref := range []struct{ value, name string }{
		{"01", "北海道"},
		{"13", "東京都"},
		{"14", "神奈川県"},
		{"27", "大阪府"},
	} {
		require.NoError(t, f.DB.Create(&model.Dropdown{
			Category:     model.DropdownCategoryPref,
			Value:        pref.value,
			Name:         pref.name,
			DisplayOrder: i,
			Active:       true,
		}).Error)
	}
	require.NoError(t, f.DB.Create(&model.MinimumPay{
		Pref:       "13",
		StartDate:  Date(t, "2023-10-01"),
		HourlyWage: 1113,
		IsActive:   true,
	}).Error)
	require.NoError(t, f.DB.Create(&model.MinimumPay{
		Pref:       "13",
		StartDate:  Date(t, "2022-10-01"),
		HourlyWage: 1072,
		IsActive:   true,
	}).Error)
}
