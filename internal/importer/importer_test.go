package importer

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
	"gorm.io/gorm"

	"github.com/nurpe/haken-contracts/internal/model"
	"github.com/nurpe/haken-contracts/internal/repository"
	"github.com/nurpe/haken-contracts/internal/testutil"
)

func newTestImporter(t *testing.T) (*Importer, *gorm.DB, *MemoryKVStore) {
	database := testutil.SetupTestDB(t)
	kv := NewMemoryKVStore()
	return New(repository.New(database), kv, time.Hour, zerolog.Nop()), database, kv
}

func shiftJIS(t *testing.T, text string) []byte {
	encoded, err := japanese.ShiftJIS.NewEncoder().String(text)
	require.NoError(t, err)
	return []byte(encoded)
}

func TestImportBanksFromCP932(t *testing.T) {
	imp, database, _ := newTestImporter(t)
	ctx := context.Background()
	tenantID := uuid.New()

	input := shiftJIS(t, strings.Join([]string{
		"銀行コード,銀行名,銀行カナ,支店コード,支店名,支店カナ",
		"0001,みずほ銀行,ミズホ,001,東京営業部,トウキヨウ",
		"0001,みずほ銀行,ミズホ,004,丸の内中央支店,マルノウチチユウオウ",
		"0005,三菱ＵＦＪ銀行,ミツビシユーエフジエイ,,,",
		"12,不正,フセイ,,,",
		"",
	}, "\r\n"))

	progress, err := imp.ImportBanks(ctx, tenantID, bytes.NewReader(input), "task-1")
	require.NoError(t, err)
	assert.Equal(t, StatusDone, progress.Status)
	assert.Equal(t, 4, progress.Processed)
	assert.Equal(t, 3, progress.Imported)
	assert.Equal(t, 1, progress.Failed)
	require.Len(t, progress.Errors, 1)
	assert.Equal(t, 5, progress.Errors[0].Line)

	var banks []model.Bank
	require.NoError(t, database.Where("tenant_id = ?", tenantID).Order("code").Find(&banks).Error)
	require.Len(t, banks, 2)
	assert.Equal(t, "みずほ銀行", banks[0].Name)

	var branches int64
	require.NoError(t, database.Model(&model.BankBranch{}).Where("bank_id = ?", banks[0].ID).Count(&branches).Error)
	assert.Equal(t, int64(2), branches)

	stored, err := imp.Progress(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, StatusDone, stored.Status)
	assert.Equal(t, 3, stored.Imported)
}

func TestImportStaffUpsertsByEmployeeNo(t *testing.T) {
	imp, database, _ := newTestImporter(t)
	ctx := context.Background()
	tenantID := uuid.New()

	header := "employee_no,name,name_kana,email,birth_date,sex,postal_code,address,phone,hire_date\n"
	first := "\xEF\xBB\xBF" + header +
		"E0001,田中 太郎,タナカ タロウ,Taro@Example.com,1990/4/1,1,100-0001,東京都千代田区,03-0000-0000,2024-04-01\n" +
		"E0002,鈴木 花子,スズキ ハナコ,hanako@example.com,not-a-date,2,,,,\n" +
		",名無し,,,,,,,,\n"

	progress, err := imp.ImportStaff(ctx, tenantID, strings.NewReader(first), "")
	require.NoError(t, err)
	assert.NotEmpty(t, progress.TaskID)
	assert.Equal(t, 1, progress.Imported)
	assert.Equal(t, 2, progress.Failed)

	var staff model.Staff
	require.NoError(t, database.Where("tenant_id = ? AND employee_no = ?", tenantID, "E0001").Take(&staff).Error)
	assert.Equal(t, "taro@example.com", staff.Email)
	require.NotNil(t, staff.BirthDate)
	assert.Equal(t, "1990-04-01", staff.BirthDate.Format("2006-01-02"))

	second := header + "E0001,田中 太郎,タナカ タロウ,taro.tanaka@example.com,1990-04-01,1,,,,\n"
	_, err = imp.ImportStaff(ctx, tenantID, strings.NewReader(second), "")
	require.NoError(t, err)

	var count int64
	require.NoError(t, database.Model(&model.Staff{}).Where("tenant_id = ?", tenantID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	require.NoError(t, database.Where("id = ?", staff.ID).Take(&staff).Error)
	assert.Equal(t, "taro.tanaka@example.com", staff.Email)
	assert.Equal(t, 2, staff.Version)
}

func TestImportWithoutHeaderKeepsFirstRow(t *testing.T) {
	imp, database, _ := newTestImporter(t)
	ctx := context.Background()
	tenantID := uuid.New()

	banks := "0001,みずほ銀行,ミズホ,,,\n0005,三菱ＵＦＪ銀行,ミツビシユーエフジエイ,,,\n"
	progress, err := imp.ImportBanks(ctx, tenantID, strings.NewReader(banks), "")
	require.NoError(t, err)
	assert.Equal(t, 2, progress.Processed)
	assert.Equal(t, 2, progress.Imported)

	var bankCount int64
	require.NoError(t, database.Model(&model.Bank{}).Where("tenant_id = ?", tenantID).Count(&bankCount).Error)
	assert.Equal(t, int64(2), bankCount)

	staff := "E0001,田中 太郎,タナカ タロウ,taro@example.com,,,,,,\n" +
		"E0002,鈴木 花子,スズキ ハナコ,hanako@example.com,,,,,,\n"
	progress, err = imp.ImportStaff(ctx, tenantID, strings.NewReader(staff), "")
	require.NoError(t, err)
	assert.Equal(t, 2, progress.Imported)
	assert.Empty(t, progress.Errors)

	var staffCount int64
	require.NoError(t, database.Model(&model.Staff{}).Where("tenant_id = ?", tenantID).Count(&staffCount).Error)
	assert.Equal(t, int64(2), staffCount)
}

func TestImportSkipsLabelledHeader(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		input    string
		imported int
	}{
		{
			name:     "japanese bank header with bom",
			kind:     KindBank,
			input:    "\xEF\xBB\xBF銀行コード,銀行名\n0001,みずほ銀行\n",
			imported: 1,
		},
		{
			name:     "english bank header",
			kind:     KindBank,
			input:    " Bank_Code ,bank_name\n0001,みずほ銀行\n",
			imported: 1,
		},
		{
			name:     "japanese staff header",
			kind:     KindStaff,
			input:    "社員番号,氏名\nE0001,田中 太郎\n",
			imported: 1,
		},
		{
			name:     "bank label is not a staff header",
			kind:     KindStaff,
			input:    "bank_code,name\nE0001,田中 太郎\n",
			imported: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imp, _, _ := newTestImporter(t)
			progress, err := imp.Import(context.Background(), tt.kind, uuid.New(), strings.NewReader(tt.input), "")
			require.NoError(t, err)
			assert.Equal(t, tt.imported, progress.Imported)
			assert.Zero(t, progress.Failed)
		})
	}
}

func TestNewCSVReaderDecoding(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{name: "cp932", input: shiftJIS(t, "0009,三井住友銀行,ミツイスミトモ\r\n")},
		{name: "utf-8 with bom", input: []byte("\xEF\xBB\xBF0009,三井住友銀行,ミツイスミトモ\n")},
		{name: "utf-8", input: []byte("0009,三井住友銀行,ミツイスミトモ\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, err := newCSVReader(bytes.NewReader(tt.input))
			require.NoError(t, err)
			record, err := reader.Read()
			require.NoError(t, err)
			assert.Equal(t, []string{"0009", "三井住友銀行", "ミツイスミトモ"}, record)
		})
	}
}

func TestImportRejectsEmptyInput(t *testing.T) {
	imp, _, _ := newTestImporter(t)
	ctx := context.Background()

	progress, err := imp.ImportStaff(ctx, uuid.New(), strings.NewReader(""), "task-empty")
	require.Error(t, err)
	assert.Equal(t, StatusFailed, progress.Status)

	stored, err := imp.Progress(ctx, "task-empty")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, stored.Status)

	_, err = imp.ImportStaff(ctx, uuid.Nil, strings.NewReader("x\n"), "")
	require.Error(t, err)

	_, err = imp.Progress(ctx, "missing")
	assert.ErrorIs(t, err, ErrUnknownTask)
}

func TestMemoryKVStoreExpires(t *testing.T) {
	kv := NewMemoryKVStore()
	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	kv.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k", "v", time.Minute))
	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	now = now.Add(2 * time.Minute)
	_, err = kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind(" Staff ")
	require.NoError(t, err)
	assert.Equal(t, KindStaff, kind)

	_, err = ParseKind("payroll")
	assert.Error(t, err)
}
