package roster_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/programme-lv/grader/conf"
	"github.com/programme-lv/grader/roster"
	"github.com/programme-lv/grader/srvcerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newCfg(t *testing.T) conf.Config {
	t.Helper()
	cfg := conf.Default(t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.RosterDir, "pdf"), 0o755))
	return cfg
}

func writeCsv(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func writeXlsx(t *testing.T, path string, rows [][]any) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
}

func TestLoadCsvRoster(t *testing.T) {
	cfg := newCfg(t)
	writeCsv(t, filepath.Join(cfg.RosterDir, "pdf", "2025名簿.csv"),
		"\xEF\xBB\xBF情報科学 受講者一覧\n学籍番号,氏名,備考\n b21x002 ,佐藤花子,\nB21X001,山田太郎,再履修\n\nb21x002,重複,\n")

	r, ok := roster.Load(context.Background(), cfg, "pdf")
	require.True(t, ok)

	require.Len(t, r.Entries, 2)
	assert.Equal(t, roster.Entry{StudentID: "B21X002", DisplayName: "佐藤花子", Order: 0}, r.Entries[0])
	assert.Equal(t, roster.Entry{StudentID: "B21X001", DisplayName: "山田太郎", Order: 1}, r.Entries[1])
	assert.Equal(t, []string{"B21X002", "B21X001"}, r.IDs())

	e, found := r.Lookup("b21x001")
	require.True(t, found)
	assert.Equal(t, "山田太郎", e.DisplayName)
	assert.False(t, r.Contains("B99"))
}

func TestLoadXlsxRoster(t *testing.T) {
	cfg := newCfg(t)
	writeXlsx(t, filepath.Join(cfg.RosterDir, "pdf", "名簿.xlsx"), [][]any{
		{"No", "Student ID", "Name"},
		{1, "s100", "Alice"},
		{2, "S101", "Bob"},
	})

	r, ok := roster.Load(context.Background(), cfg, "pdf")
	require.True(t, ok)
	assert.Equal(t, []string{"S100", "S101"}, r.IDs())
	assert.Equal(t, "pdf", r.Domain)
}

func TestLoadIsAbsentWithoutExactlyOneFile(t *testing.T) {
	cfg := newCfg(t)

	_, ok := roster.Load(context.Background(), cfg, "pdf")
	assert.False(t, ok, "no roster file")

	_, err := roster.Find(cfg, "pdf")
	assert.ErrorIs(t, err, roster.ErrNoRoster)

	dir := filepath.Join(cfg.RosterDir, "pdf")
	writeCsv(t, filepath.Join(dir, "名簿A.csv"), "学籍番号,氏名\nS1,a\n")
	writeCsv(t, filepath.Join(dir, "名簿B.csv"), "学籍番号,氏名\nS2,b\n")

	_, ok = roster.Load(context.Background(), cfg, "pdf")
	assert.False(t, ok, "two roster files")

	_, err = roster.Find(cfg, "pdf")
	assert.ErrorIs(t, err, roster.ErrAmbiguousRoster)
}

func TestLoadIgnoresLockAndForeignFiles(t *testing.T) {
	cfg := newCfg(t)
	dir := filepath.Join(cfg.RosterDir, "pdf")
	writeCsv(t, filepath.Join(dir, "名簿.csv"), "学籍番号,氏名\nS1,a\n")
	writeCsv(t, filepath.Join(dir, "~$名簿.xlsx"), "lock")
	writeCsv(t, filepath.Join(dir, "名簿メモ.txt"), "notes")

	r, ok := roster.Load(context.Background(), cfg, "pdf")
	require.True(t, ok)
	assert.Equal(t, []string{"S1"}, r.IDs())
}

func TestLoadWithoutHeaderIsAbsent(t *testing.T) {
	cfg := newCfg(t)
	writeCsv(t, filepath.Join(cfg.RosterDir, "pdf", "名簿.csv"), "foo,bar\n1,2\n")

	_, ok := roster.Load(context.Background(), cfg, "pdf")
	assert.False(t, ok)
}

func TestNewKeepsFirstOccurrence(t *testing.T) {
	r := roster.New("pdf", []roster.Entry{
		{StudentID: "s1", DisplayName: "first", Order: 0},
		{StudentID: "S1", DisplayName: "second", Order: 1},
		{StudentID: " ", DisplayName: "blank", Order: 2},
		{StudentID: "s2", DisplayName: "other", Order: 3},
	})
	assert.Equal(t, []string{"S1", "S2"}, r.IDs())
	e, _ := r.Lookup("s1")
	assert.Equal(t, "first", e.DisplayName)
}

func TestFindRejectsDomainOutsideRosterDir(t *testing.T) {
	cfg := newCfg(t)
	writeCsv(t, filepath.Join(filepath.Dir(cfg.RosterDir), "名簿.csv"), "学籍番号,氏名\nS1,a\n")

	for _, domain := range []string{"..", "../roster", "pdf/..", ""} {
		_, err := roster.Find(cfg, domain)
		assert.True(t, srvcerror.HasCode(err, srvcerror.ErrCodeInvalidName), domain)

		_, ok := roster.Load(context.Background(), cfg, domain)
		assert.False(t, ok, domain)
	}
}
