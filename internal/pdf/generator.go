package pdf

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/nurpe/haken-contracts/internal/model"
)

const fallbackFont = "Helvetica"

// Generator lays out contract documents on A4 portrait pages. Japanese text
// needs a UTF-8 TrueType font; without one the core font is used.
type Generator struct {
	fontName string
	font     []byte
}

func NewGenerator(fontPath string) (*Generator, error) {
	if fontPath == "" {
		return &Generator{fontName: fallbackFont}, nil
	}
	font, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	if len(font) == 0 {
		return nil, fmt.Errorf("font data is empty")
	}
	return &Generator{fontName: "NotoSansJP", font: font}, nil
}

func (g *Generator) newDocument(watermark string) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 18)
	if g.font != nil {
		pdf.AddUTF8FontFromBytes(g.fontName, "", g.font)
		pdf.AddUTF8FontFromBytes(g.fontName, "B", g.font)
	}
	if watermark != "" {
		pdf.SetHeaderFunc(func() {
			drawWatermark(pdf, g.fontName, watermark)
		})
	}
	pdf.AddPage()
	return pdf
}

func (g *Generator) RenderClientDocument(printType model.PrintType, doc model.ClientContractDocument) ([]byte, error) {
	pdf := g.newDocument(doc.Watermark)
	contract := doc.Contract

	title(pdf, g.fontName, doc.Title)
	pdf.SetFont(g.fontName, "", 10)
	if number := contract.Number(); number != "" {
		pdf.CellFormat(0, 6, "契約番号: "+number, "", 1, "R", false, 0, "")
	}
	pdf.CellFormat(0, 6, "発行日: "+formatDate(doc.IssuedAt), "", 1, "R", false, 0, "")
	pdf.Ln(2)

	clientName := ""
	if contract.Client != nil {
		clientName = contract.Client.Name
	}

	switch printType {
	case model.PrintTypeQuotation:
		pdf.SetFont(g.fontName, "B", 12)
		pdf.CellFormat(0, 8, safeValue(clientName)+" 御中", "", 1, "L", false, 0, "")
		companyBlock(pdf, g.fontName, doc.Company)
		pdf.Ln(4)
		field(pdf, g.fontName, "件名", contract.ContractName)
		field(pdf, g.fontName, "期間", formatPeriod(contract.Period()))
		field(pdf, g.fontName, "単価", amountWithUnit(contract.ContractAmount, contract.BillUnit))
		field(pdf, g.fontName, "業務内容", contract.BusinessContent)

	case model.PrintTypeTeishokubiNotification:
		pdf.SetFont(g.fontName, "", 11)
		pdf.CellFormat(0, 6, safeValue(doc.Company.Name)+" 御中", "", 1, "L", false, 0, "")
		pdf.Ln(2)
		pdf.MultiCell(0, 6, "労働者派遣法第26条第4項に基づき、派遣可能期間の制限に抵触することとなる最初の日を通知します。", "", "L", false)
		pdf.Ln(2)
		hakenBlock(pdf, g.fontName, contract.Haken)
		workersTable(pdf, g.fontName, doc.Workers)
		pdf.Ln(4)
		field(pdf, g.fontName, "派遣先", clientName)

	case model.PrintTypeDispatchNotification:
		pdf.SetFont(g.fontName, "", 11)
		pdf.CellFormat(0, 6, safeValue(clientName)+" 御中", "", 1, "L", false, 0, "")
		pdf.Ln(2)
		pdf.MultiCell(0, 6, "労働者派遣法第35条に基づき、派遣労働者を次のとおり通知します。", "", "L", false)
		pdf.Ln(2)
		field(pdf, g.fontName, "契約名", contract.ContractName)
		field(pdf, g.fontName, "派遣期間", formatPeriod(contract.Period()))
		hakenBlock(pdf, g.fontName, contract.Haken)
		workersTable(pdf, g.fontName, doc.Workers)
		pdf.Ln(4)
		companyBlock(pdf, g.fontName, doc.Company)

	default:
		partiesBlock(pdf, g.fontName, clientName, doc.Company)
		pdf.Ln(2)
		field(pdf, g.fontName, "契約名", contract.ContractName)
		field(pdf, g.fontName, "契約種別", contract.ClientContractTypeCode.Label())
		field(pdf, g.fontName, "契約期間", formatPeriod(contract.Period()))
		field(pdf, g.fontName, "契約金額", amountWithUnit(contract.ContractAmount, contract.BillUnit))
		field(pdf, g.fontName, "業務内容", contract.BusinessContent)
		if contract.PaymentSite != nil {
			field(pdf, g.fontName, "支払条件", contract.PaymentSite.Name)
		}
		if contract.IsDispatch() {
			hakenBlock(pdf, g.fontName, contract.Haken)
			if contract.IsTtp() {
				ttpBlock(pdf, g.fontName, contract.Haken.Ttp)
			}
		}
		termsBlock(pdf, g.fontName, doc.Terms)
		pdf.Ln(6)
		signatureBlock(pdf, g.fontName, "甲", clientName)
		signatureBlock(pdf, g.fontName, "乙", doc.Company.Name)
	}

	return output(pdf)
}

func (g *Generator) RenderStaffContract(doc model.StaffContractDocument) ([]byte, error) {
	pdf := g.newDocument(doc.Watermark)
	contract := doc.Contract

	title(pdf, g.fontName, doc.Title)
	pdf.SetFont(g.fontName, "", 10)
	if number := contract.Number(); number != "" {
		pdf.CellFormat(0, 6, "契約番号: "+number, "", 1, "R", false, 0, "")
	}
	pdf.CellFormat(0, 6, "発行日: "+formatDate(doc.IssuedAt), "", 1, "R", false, 0, "")
	pdf.Ln(2)

	staffName := ""
	if contract.Staff != nil {
		staffName = contract.Staff.Name
	}
	field(pdf, g.fontName, "氏名", staffName)
	if contract.EmploymentType != nil {
		field(pdf, g.fontName, "雇用形態", contract.EmploymentType.Name)
	}
	field(pdf, g.fontName, "契約期間", formatPeriod(contract.Period()))
	field(pdf, g.fontName, "就業場所", contract.WorkLocation)
	field(pdf, g.fontName, "業務内容", contract.BusinessContent)
	field(pdf, g.fontName, "賃金", amountWithUnit(contract.ContractAmount, contract.PayUnit))
	termsBlock(pdf, g.fontName, doc.Terms)

	pdf.Ln(6)
	companyBlock(pdf, g.fontName, doc.Company)
	signatureBlock(pdf, g.fontName, "労働者", staffName)
	return output(pdf)
}

func (g *Generator) RenderEmploymentConditions(doc model.EmploymentConditionsDocument) ([]byte, error) {
	pdf := g.newDocument(doc.Watermark)

	title(pdf, g.fontName, doc.Title)
	pdf.SetFont(g.fontName, "", 10)
	pdf.CellFormat(0, 6, "発行日: "+formatDate(doc.IssuedAt), "", 1, "R", false, 0, "")
	pdf.Ln(2)

	staffName := ""
	if doc.Staff.Staff != nil {
		staffName = doc.Staff.Staff.Name
	}
	clientName := ""
	if doc.Client.Client != nil {
		clientName = doc.Client.Client.Name
	}
	field(pdf, g.fontName, "派遣労働者", staffName)
	field(pdf, g.fontName, "派遣先", clientName)
	field(pdf, g.fontName, "派遣期間", formatPeriod(doc.Period))
	field(pdf, g.fontName, "業務内容", doc.Client.BusinessContent)
	hakenBlock(pdf, g.fontName, doc.Client.Haken)
	field(pdf, g.fontName, "賃金", amountWithUnit(doc.Staff.ContractAmount, doc.Staff.PayUnit))
	field(pdf, g.fontName, "個人単位の抵触日", model.FormatJPDate(doc.ConflictDate))
	termsBlock(pdf, g.fontName, doc.Terms)

	pdf.Ln(6)
	companyBlock(pdf, g.fontName, doc.Company)
	return output(pdf)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawWatermark(pdf *gofpdf.Fpdf, fontName, text string) {
	width, height := pdf.GetPageSize()
	pdf.SetFont(fontName, "B", 72)
	pdf.SetTextColor(220, 220, 220)
	pdf.TransformBegin()
	pdf.TransformRotate(45, width/2, height/2)
	textWidth := pdf.GetStringWidth(text)
	pdf.Text(width/2-textWidth/2, height/2, text)
	pdf.TransformEnd()
	pdf.SetTextColor(0, 0, 0)
}

func title(pdf *gofpdf.Fpdf, fontName, text string) {
	pdf.SetFont(fontName, "B", 16)
	pdf.CellFormat(0, 12, text, "", 1, "C", false, 0, "")
	pdf.Ln(2)
}

func field(pdf *gofpdf.Fpdf, fontName, label, value string) {
	pdf.SetFont(fontName, "B", 10)
	pdf.CellFormat(40, 7, label, "1", 0, "L", false, 0, "")
	pdf.SetFont(fontName, "", 10)
	pdf.MultiCell(0, 7, safeValue(value), "1", "L", false)
}

func partiesBlock(pdf *gofpdf.Fpdf, fontName, clientName string, company model.Company) {
	pdf.SetFont(fontName, "", 11)
	pdf.MultiCell(0, 6, fmt.Sprintf("%s（以下「甲」という）と%s（以下「乙」という）は、次のとおり契約を締結する。",
		safeValue(clientName), safeValue(company.Name)), "", "L", false)
}

func companyBlock(pdf *gofpdf.Fpdf, fontName string, company model.Company) {
	pdf.SetFont(fontName, "B", 11)
	pdf.CellFormat(0, 6, safeValue(company.Name), "", 1, "R", false, 0, "")
	pdf.SetFont(fontName, "", 9)
	lines := []string{
		strings.TrimSpace("〒" + company.PostalCode + " " + company.Address),
		"TEL: " + safeValue(company.Phone),
	}
	if company.DispatchLicenseNo != "" {
		lines = append(lines, "許可番号: "+company.DispatchLicenseNo)
	}
	for _, line := range lines {
		pdf.CellFormat(0, 5, line, "", 1, "R", false, 0, "")
	}
}

func hakenBlock(pdf *gofpdf.Fpdf, fontName string, haken *model.ClientContractHaken) {
	if haken == nil {
		return
	}
	office := ""
	if haken.HakenOffice != nil {
		office = haken.HakenOffice.Name
	}
	field(pdf, fontName, "派遣先事業所", office)
	field(pdf, fontName, "組織単位", haken.OrganizationName())
	field(pdf, fontName, "就業場所", haken.WorkLocation)
	field(pdf, fontName, "指揮命令者", haken.Commander)
	field(pdf, fontName, "派遣先苦情処理", haken.ClientComplaintOfficer)
	field(pdf, fontName, "派遣先責任者", haken.ClientResponsiblePerson)
	field(pdf, fontName, "派遣元苦情処理", haken.CompanyComplaintOfficer)
	field(pdf, fontName, "派遣元責任者", haken.CompanyResponsiblePerson)
	field(pdf, fontName, "責任の程度", haken.ResponsibilityDegree)
	if haken.LimitIndefiniteOrSenior {
		field(pdf, fontName, "対象労働者", "無期雇用派遣労働者または60歳以上の者に限定")
	}
	if haken.LimitByAgreement {
		field(pdf, fontName, "協定対象", "労使協定方式の対象となる派遣労働者に限定")
	}
}

func ttpBlock(pdf *gofpdf.Fpdf, fontName string, ttp *model.ClientContractTtp) {
	pdf.Ln(2)
	pdf.SetFont(fontName, "B", 12)
	pdf.CellFormat(0, 8, "紹介予定派遣に関する事項", "", 1, "L", false, 0, "")
	field(pdf, fontName, "雇用主", ttp.EmployerName)
	field(pdf, fontName, "契約期間", ttp.ContractPeriod)
	field(pdf, fontName, "試用期間", ttp.ProbationPeriod)
	field(pdf, fontName, "業務内容", ttp.BusinessContent)
	field(pdf, fontName, "就業場所", ttp.WorkLocation)
	field(pdf, fontName, "始業・終業", ttp.WorkingHours)
	field(pdf, fontName, "休憩時間", ttp.BreakTime)
	field(pdf, fontName, "時間外労働", ttp.Overtime)
	field(pdf, fontName, "休日", ttp.Holidays)
	field(pdf, fontName, "休暇", ttp.Vacations)
	field(pdf, fontName, "賃金", ttp.Wages)
	field(pdf, fontName, "保険", ttp.Insurances)
	if ttp.Other != "" {
		field(pdf, fontName, "その他", ttp.Other)
	}
}

func workersTable(pdf *gofpdf.Fpdf, fontName string, workers []model.AssignedWorker) {
	pdf.Ln(2)
	headers := []string{"氏名", "性別", "雇用", "60歳以上", "派遣期間", "抵触日"}
	widths := []float64{36, 14, 16, 18, 60, 30}
	drawTableRow(pdf, fontName, headers, widths, true)
	if len(workers) == 0 {
		pdf.SetFont(fontName, "", 9)
		pdf.CellFormat(sum(widths), 8, "派遣労働者は未定です。", "1", 1, "C", false, 0, "")
		return
	}
	for _, w := range workers {
		employment := "無期"
		if w.IsFixedTerm {
			employment = "有期"
		}
		senior := "否"
		if w.IsSenior {
			senior = "該当"
		}
		drawTableRow(pdf, fontName, []string{
			w.Name,
			safeValue(w.Sex),
			employment,
			senior,
			formatPeriod(w.Period),
			model.FormatJPDate(w.ConflictDate),
		}, widths, false)
	}
}

func termsBlock(pdf *gofpdf.Fpdf, fontName string, terms []model.ContractTerm) {
	if len(terms) == 0 {
		return
	}
	pdf.Ln(4)
	for _, term := range terms {
		pdf.SetFont(fontName, "B", 10)
		pdf.CellFormat(0, 6, term.Title, "", 1, "L", false, 0, "")
		pdf.SetFont(fontName, "", 10)
		pdf.MultiCell(0, 5, term.Body, "", "L", false)
		pdf.Ln(1)
	}
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 9)
	for i, col := range cols {
		pdf.CellFormat(widths[i], 8, col, "1", 0, "L", header, 0, "")
	}
	pdf.Ln(-1)
}

func signatureBlock(pdf *gofpdf.Fpdf, fontName, label, name string) {
	pdf.SetFont(fontName, "", 11)
	pdf.CellFormat(0, 8, fmt.Sprintf("%s: %s ______________________ 印", label, safeValue(name)), "", 1, "L", false, 0, "")
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "―"
	}
	return value
}

func amountWithUnit(amount decimal.NullDecimal, unit model.PayUnit) string {
	if !amount.Valid {
		return "―"
	}
	text := amount.Decimal.StringFixed(0) + "円"
	if label := unit.Label(); label != "" {
		text = label + " " + text
	}
	return text
}

func formatPeriod(p model.Period) string {
	return formatDate(p.Start) + " ～ " + model.FormatJPDate(p.End)
}

func formatDate(t time.Time) string {
	return model.FormatJPDate(&t)
}
