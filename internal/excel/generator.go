package excel

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/haken-contracts/internal/model"
)

const maxSheetName = 31

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// AssignmentLedger writes a summary sheet followed by one sheet per client.
func (g *Generator) AssignmentLedger(ledger model.AssignmentLedger) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	summarySheet := "一覧"
	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	g.writeLedgerSummary(file, summarySheet, ledger)

	groups, order := groupByClient(ledger.Rows)
	used := map[string]struct{}{summarySheet: {}}
	for _, client := range order {
		sheet := buildSheetName(client, used)
		used[sheet] = struct{}{}
		if _, err := file.NewSheet(sheet); err != nil {
			return nil, err
		}
		g.writeLedgerDetail(file, sheet, ledger, client, groups[client])
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeLedgerSummary(file *excelize.File, sheet string, ledger model.AssignmentLedger) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "派遣管理台帳")
	set("A2", "期間開始")
	set("B2", formatDate(ledger.From))
	set("A3", "期間終了")
	set("B3", formatDate(ledger.To))
	set("A4", "件数")
	set("B4", len(ledger.Rows))

	groups, order := groupByClient(ledger.Rows)
	tableRow := 6
	set(fmt.Sprintf("A%d", tableRow), "派遣先")
	set(fmt.Sprintf("B%d", tableRow), "件数")
	for i, client := range order {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), client)
		set(fmt.Sprintf("B%d", row), len(groups[client]))
	}

	_ = file.SetColWidth(sheet, "A", "A", 40)
	_ = file.SetColWidth(sheet, "B", "B", 16)
}

func (g *Generator) writeLedgerDetail(file *excelize.File, sheet string, ledger model.AssignmentLedger, client string, rows []model.LedgerRow) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "派遣先")
	set("B1", client)
	set("A2", "期間")
	set("B2", formatDate(ledger.From)+" ～ "+formatDate(ledger.To))

	tableRow := 4
	headers := []string{
		"社員番号",
		"氏名",
		"契約名",
		"契約種別",
		"派遣先契約番号",
		"スタッフ契約番号",
		"組織単位",
		"就業場所",
		"開始日",
		"終了日",
		"雇用期間",
		"抵触日",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}

	for i, r := range rows {
		row := tableRow + 1 + i
		values := []interface{}{
			r.EmployeeNo,
			r.StaffName,
			r.ContractName,
			r.ContractType.Label(),
			r.ClientContractNumber,
			r.StaffContractNumber,
			r.OrganizationName,
			r.WorkLocation,
			formatDate(r.StartDate),
			formatDatePtr(r.EndDate),
			fixedTermLabel(r.IsFixedTerm),
			formatDatePtr(r.ConflictDate),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			set(cell, value)
		}
	}

	_ = file.SetColWidth(sheet, "A", "B", 16)
	_ = file.SetColWidth(sheet, "C", "C", 32)
	_ = file.SetColWidth(sheet, "D", "G", 18)
	_ = file.SetColWidth(sheet, "H", "H", 32)
	_ = file.SetColWidth(sheet, "I", "L", 14)
}

// TeishokubiList writes every tracked key with its run start and conflict date.
func (g *Generator) TeishokubiList(list model.TeishokubiList) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	sheet := "抵触日"
	if err := file.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "個人単位の抵触日一覧")
	set("A2", "出力日時")
	set("B2", formatDateTime(list.GeneratedAt))

	tableRow := 4
	headers := []string{"メールアドレス", "法人番号", "組織単位", "派遣開始日", "抵触日", "明細数"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}
	for i, record := range list.Records {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), record.StaffEmail)
		set(fmt.Sprintf("B%d", row), record.ClientCorporateNumber)
		set(fmt.Sprintf("C%d", row), record.OrganizationName)
		set(fmt.Sprintf("D%d", row), formatDate(record.DispatchStartDate))
		set(fmt.Sprintf("E%d", row), formatDate(record.ConflictDate))
		set(fmt.Sprintf("F%d", row), len(record.Details))
	}

	_ = file.SetColWidth(sheet, "A", "A", 32)
	_ = file.SetColWidth(sheet, "B", "C", 20)
	_ = file.SetColWidth(sheet, "D", "F", 14)

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func groupByClient(rows []model.LedgerRow) (map[string][]model.LedgerRow, []string) {
	groups := make(map[string][]model.LedgerRow)
	for _, row := range rows {
		name := strings.TrimSpace(row.ClientName)
		groups[name] = append(groups[name], row)
	}
	order := make([]string, 0, len(groups))
	for name := range groups {
		order = append(order, name)
	}
	sort.Strings(order)
	return groups, order
}

func buildSheetName(name string, used map[string]struct{}) string {
	base := truncateRunes(sanitizeSheetName(name), maxSheetName)

	candidate := base
	counter := 2
	for {
		if _, exists := used[candidate]; !exists {
			return candidate
		}
		suffix := fmt.Sprintf("-%d", counter)
		candidate = truncateRunes(base, maxSheetName-len(suffix)) + suffix
		counter++
	}
}

// truncateRunes cuts by character; sheet name limits count characters, not bytes.
func truncateRunes(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}

func sanitizeSheetName(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "派遣先未設定"
	}

	replacer := strings.NewReplacer(
		"[", "-",
		"]", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"/", "-",
		"\\", "-",
	)
	value = strings.TrimSpace(replacer.Replace(value))
	if value == "" {
		return "派遣先未設定"
	}
	return value
}

func fixedTermLabel(fixed bool) string {
	if fixed {
		return "有期"
	}
	return "無期"
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
