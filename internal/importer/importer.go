// Package importer loads master data from CSV files. Each row is written in
// its own transaction so one bad line does not discard the rest, and progress
// is published to a KV store keyed by task ID.
package importer

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/haken-contracts/internal/model"
	"github.com/nurpe/haken-contracts/internal/repository"
)

type Kind string

const (
	KindBank  Kind = "bank"
	KindStaff Kind = "staff"
)

func ParseKind(value string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindBank:
		return KindBank, nil
	case KindStaff:
		return KindStaff, nil
	}
	return "", fmt.Errorf("unknown import kind %q", value)
}

type Status string

const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

var ErrUnknownTask = errors.New("unknown import task")

const progressEvery = 100

type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

type Progress struct {
	TaskID    string     `json:"task_id"`
	Kind      Kind       `json:"kind"`
	Status    Status     `json:"status"`
	Processed int        `json:"processed"`
	Imported  int        `json:"imported"`
	Failed    int        `json:"failed"`
	Errors    []RowError `json:"errors,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type Importer struct {
	repo *repository.Repository
	kv   KVStore
	ttl  time.Duration
	log  zerolog.Logger
	now  func() time.Time
}

func New(repo *repository.Repository, kv KVStore, ttl time.Duration, log zerolog.Logger) *Importer {
	return &Importer{repo: repo, kv: kv, ttl: ttl, log: log, now: time.Now}
}

func progressKey(taskID string) string {
	return "import:progress:" + taskID
}

func (i *Importer) Progress(ctx context.Context, taskID string) (*Progress, error) {
	raw, err := i.kv.Get(ctx, progressKey(taskID))
	if errors.Is(err, ErrCacheMiss) {
		return nil, ErrUnknownTask
	}
	if err != nil {
		return nil, err
	}
	var progress Progress
	if err := json.Unmarshal([]byte(raw), &progress); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	return &progress, nil
}

func (i *Importer) publish(ctx context.Context, progress *Progress) {
	progress.UpdatedAt = i.now()
	payload, err := json.Marshal(progress)
	if err != nil {
		i.log.Warn().Err(err).Str("task_id", progress.TaskID).Msg("failed to encode import progress")
		return
	}
	if err := i.kv.Set(ctx, progressKey(progress.TaskID), string(payload), i.ttl); err != nil {
		i.log.Warn().Err(err).Str("task_id", progress.TaskID).Msg("failed to publish import progress")
	}
}

// Import dispatches to the importer of kind.
func (i *Importer) Import(ctx context.Context, kind Kind, tenantID uuid.UUID, r io.Reader, taskID string) (*Progress, error) {
	switch kind {
	case KindBank:
		return i.ImportBanks(ctx, tenantID, r, taskID)
	case KindStaff:
		return i.ImportStaff(ctx, tenantID, r, taskID)
	}
	return nil, fmt.Errorf("unknown import kind %q", kind)
}

type rowFunc func(ctx context.Context, tx *repository.Repository, record []string) error

func (i *Importer) run(ctx context.Context, kind Kind, tenantID uuid.UUID, r io.Reader, taskID string, apply rowFunc) (*Progress, error) {
	if tenantID == uuid.Nil {
		return nil, fmt.Errorf("tenant is required")
	}
	if taskID == "" {
		taskID = uuid.NewString()
	}
	progress := &Progress{TaskID: taskID, Kind: kind, Status: StatusRunning, StartedAt: i.now()}
	i.publish(ctx, progress)

	reader, err := newCSVReader(r)
	if err != nil {
		return i.fail(ctx, progress, err)
	}

	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return i.fail(ctx, progress, err)
			}
			progress.rowFailed(line, err.Error())
			continue
		}
		if line == 1 && isHeader(record, headerLabels[kind]) {
			continue
		}
		if isBlank(record) {
			continue
		}

		err = i.repo.WithTransaction(ctx, func(tx *repository.Repository) error {
			return apply(ctx, tx, record)
		})
		if err != nil {
			progress.rowFailed(line, err.Error())
		} else {
			progress.Imported++
		}
		progress.Processed++
		if progress.Processed%progressEvery == 0 {
			i.publish(ctx, progress)
		}
	}

	if line == 0 {
		return i.fail(ctx, progress, fmt.Errorf("input is empty"))
	}

	progress.Status = StatusDone
	i.publish(ctx, progress)
	i.log.Info().
		Str("task_id", taskID).
		Str("kind", string(kind)).
		Str("tenant_id", tenantID.String()).
		Int("imported", progress.Imported).
		Int("failed", progress.Failed).
		Msg("import finished")
	return progress, nil
}

func (i *Importer) fail(ctx context.Context, progress *Progress, err error) (*Progress, error) {
	progress.Status = StatusFailed
	progress.Errors = append(progress.Errors, RowError{Message: err.Error()})
	i.publish(ctx, progress)
	return progress, err
}

func (p *Progress) rowFailed(line int, message string) {
	p.Failed++
	p.Errors = append(p.Errors, RowError{Line: line, Message: message})
}

// headerLabels are the first-column labels that mark an optional header row.
var headerLabels = map[Kind][]string{
	KindBank:  {"bank_code", "銀行コード", "金融機関コード"},
	KindStaff: {"employee_no", "社員番号", "従業員番号"},
}

func isHeader(record []string, labels []string) bool {
	if len(record) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(record[0], "\ufeff")))
	for _, label := range labels {
		if first == label {
			return true
		}
	}
	return false
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func column(record []string, index int) string {
	if index >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[index])
}

// ImportBanks reads bank_code, bank_name, bank_kana, branch_code, branch_name,
// branch_kana. Rows with an empty branch code only touch the bank.
func (i *Importer) ImportBanks(ctx context.Context, tenantID uuid.UUID, r io.Reader, taskID string) (*Progress, error) {
	return i.run(ctx, KindBank, tenantID, r, taskID, func(ctx context.Context, tx *repository.Repository, record []string) error {
		code := column(record, 0)
		name := column(record, 1)
		if len(code) != 4 || !isDigits(code) {
			return fmt.Errorf("bank code must be 4 digits: %q", code)
		}
		if name == "" {
			return fmt.Errorf("bank name is required")
		}
		bank := &model.Bank{Code: code, Name: name, NameKana: column(record, 2)}
		bank.SetTenant(tenantID)
		if err := tx.UpsertBank(ctx, bank); err != nil {
			return err
		}

		branchCode := column(record, 3)
		if branchCode == "" {
			return nil
		}
		if len(branchCode) != 3 || !isDigits(branchCode) {
			return fmt.Errorf("branch code must be 3 digits: %q", branchCode)
		}
		branchName := column(record, 4)
		if branchName == "" {
			return fmt.Errorf("branch name is required")
		}
		branch := &model.BankBranch{BankID: bank.ID, Code: branchCode, Name: branchName, NameKana: column(record, 5)}
		branch.SetTenant(tenantID)
		return tx.UpsertBankBranch(ctx, branch)
	})
}

// ImportStaff reads employee_no, name, name_kana, email, birth_date, sex,
// postal_code, address, phone, hire_date. Workers are matched on employee_no.
func (i *Importer) ImportStaff(ctx context.Context, tenantID uuid.UUID, r io.Reader, taskID string) (*Progress, error) {
	return i.run(ctx, KindStaff, tenantID, r, taskID, func(ctx context.Context, tx *repository.Repository, record []string) error {
		staff := &model.Staff{
			EmployeeNo: column(record, 0),
			Name:       column(record, 1),
			NameKana:   column(record, 2),
			Email:      strings.ToLower(column(record, 3)),
			Sex:        column(record, 5),
			PostalCode: column(record, 6),
			Address:    column(record, 7),
			Phone:      column(record, 8),
		}
		if staff.EmployeeNo == "" {
			return fmt.Errorf("employee_no is required")
		}
		if staff.Name == "" {
			return fmt.Errorf("name is required")
		}
		birth, err := parseDate(column(record, 4))
		if err != nil {
			return fmt.Errorf("birth_date: %w", err)
		}
		hire, err := parseDate(column(record, 9))
		if err != nil {
			return fmt.Errorf("hire_date: %w", err)
		}
		staff.BirthDate = birth
		staff.HireDate = hire
		staff.SetTenant(tenantID)
		return tx.UpsertStaff(ctx, staff)
	})
}

var dateLayouts = []string{"2006-01-02", "2006/01/02", "2006/1/2"}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return model.DatePtr(parsed), nil
		}
	}
	return nil, fmt.Errorf("invalid date %q", value)
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return value != ""
}
