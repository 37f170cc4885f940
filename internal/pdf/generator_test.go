package pdf

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/haken-contracts/internal/model"
)

func sampleClientContract() model.ClientContract {
	number := "12345678-202504-0001"
	end := time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC)
	return model.ClientContract{
		Client:                 &model.Client{Name: "Client KK", CorporateNumber: "1234567890123"},
		ContractName:           "Warehouse support",
		ClientContractTypeCode: model.ContractTypeDispatch,
		ContractNumber:         &number,
		ContractStatus:         model.StatusApproved,
		StartDate:              time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		EndDate:                &end,
		ContractAmount:         decimal.NewNullDecimal(decimal.NewFromInt(2500)),
		BillUnit:               model.PayUnitHourly,
		BusinessContent:        "Picking",
		Haken: &model.ClientContractHaken{
			HakenUnit:    &model.ClientDepartment{Name: "Logistics"},
			WorkLocation: "Tokyo",
			Commander:    "Sato",
			Ttp:          &model.ClientContractTtp{EmployerName: "Client KK"},
		},
	}
}

func TestRenderClientDocumentForEveryPrintType(t *testing.T) {
	gen, err := NewGenerator("")
	require.NoError(t, err)

	conflict := time.Date(2028, 4, 1, 0, 0, 0, 0, time.UTC)
	doc := model.ClientContractDocument{
		Title:    "Contract",
		Company:  model.Company{Name: "Haken Co", DispatchLicenseNo: "13-000000"},
		Contract: sampleClientContract(),
		Terms:    []model.ContractTerm{{Title: "Article 1", Body: "Terms body"}},
		Workers: []model.AssignedWorker{{
			Name:         "Tanaka",
			IsFixedTerm:  true,
			Period:       model.Period{Start: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)},
			ConflictDate: &conflict,
		}},
		IssuedAt: time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC),
	}

	for _, printType := range []model.PrintType{
		model.PrintTypeContract,
		model.PrintTypeQuotation,
		model.PrintTypeTeishokubiNotification,
		model.PrintTypeDispatchNotification,
	} {
		t.Run(string(printType), func(t *testing.T) {
			content, err := gen.RenderClientDocument(printType, doc)
			require.NoError(t, err)
			assert.Equal(t, "%PDF", string(content[:4]))
		})
	}
}

func TestRenderWithWatermarkAndNoWorkers(t *testing.T) {
	gen, err := NewGenerator("")
	require.NoError(t, err)

	doc := model.ClientContractDocument{
		Title:     "Draft",
		Contract:  sampleClientContract(),
		Watermark: "DRAFT",
		IssuedAt:  time.Now(),
	}
	doc.Contract.ContractNumber = nil
	doc.Contract.Haken = nil

	content, err := gen.RenderClientDocument(model.PrintTypeDispatchNotification, doc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(content[:4]))
}

func TestRenderStaffDocuments(t *testing.T) {
	gen, err := NewGenerator("")
	require.NoError(t, err)

	staffContract := model.StaffContract{
		Staff:          &model.Staff{Name: "Tanaka", EmployeeNo: "E0001"},
		ContractName:   "Fixed term",
		IsFixedTerm:    true,
		StartDate:      time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		ContractAmount: decimal.NewNullDecimal(decimal.NewFromInt(1500)),
		PayUnit:        model.PayUnitHourly,
	}

	content, err := gen.RenderStaffContract(model.StaffContractDocument{
		Title:    "Employment contract",
		Contract: staffContract,
		IssuedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(content[:4]))

	content, err = gen.RenderEmploymentConditions(model.EmploymentConditionsDocument{
		Title:    "Employment conditions",
		Client:   sampleClientContract(),
		Staff:    staffContract,
		Period:   model.Period{Start: staffContract.StartDate},
		IssuedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(content[:4]))
}

func TestNewGeneratorRequiresReadableFont(t *testing.T) {
	_, err := NewGenerator(filepath.Join(t.TempDir(), "missing.ttf"))
	require.Error(t, err)
}

func TestAmountWithUnit(t *testing.T) {
	assert.Equal(t, "時給 1500円", amountWithUnit(decimal.NewNullDecimal(decimal.NewFromInt(1500)), model.PayUnitHourly))
	assert.Equal(t, "300000円", amountWithUnit(decimal.NewNullDecimal(decimal.NewFromInt(300000)), ""))
	assert.Equal(t, "―", amountWithUnit(decimal.NullDecimal{}, model.PayUnitDaily))
}
