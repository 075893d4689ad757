package submfs_test

import (
	"context"
	"math"
	"testing"

	"github.com/programme-lv/grader/submfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalogGroupsAndOrdersAssignments(t *testing.T) {
	raw := []string{
		"第10回レポートの提出(詳細)",
		"第2回レポートの提出(解答のみ)",
		"自由課題の提出(詳細)",
		"第2回レポートの提出(詳細)",
		"第1回レポートの提出",
	}
	c, err := submfs.NewCatalog(t.TempDir(), testNaming(), raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"第1回レポート", "第2回レポート", "第10回レポート", "自由課題"}, c.Names())

	a, ok := c.Assignment("第2回レポート")
	require.True(t, ok)
	assert.Equal(t, 2, a.Ordinal)
	assert.Equal(t, []string{"第2回レポートの提出(詳細)"}, a.RawDirs[submfs.KindDetail])
	assert.Equal(t, []string{"第2回レポートの提出(解答のみ)"}, a.RawDirs[submfs.KindAnswer])

	free, ok := c.Assignment("自由課題")
	require.True(t, ok)
	assert.Equal(t, math.MaxInt, free.Ordinal)

	first, ok := c.Assignment("第1回レポート")
	require.True(t, ok)
	assert.Empty(t, first.RawDirs[submfs.KindDetail])
	assert.Equal(t, []string{"第1回レポートの提出"}, first.Unclassified)
}

func TestNewCatalogRejectsBadPattern(t *testing.T) {
	naming := testNaming()
	naming.OrdinalPattern = "第(\\d+回"
	_, err := submfs.NewCatalog(t.TempDir(), naming, nil)
	assert.Error(t, err)
}

func TestStudentsUnionAcrossKinds(t *testing.T) {
	base := t.TempDir()
	writeFiles(t, base, map[string]string{
		rawDetail1 + "/b21x002_佐藤花子_attempt/report.pdf": "a",
		rawDetail1 + "/B21X001_山田太郎_attempt/report.pdf": "b",
		rawAnswer1 + "/B21X001_山田太郎.pdf":                "c",
		rawAnswer1 + "/B21X009_外部学生.pdf":                 "d",
		rawAnswer1 + "/.DS_Store":                       "",
	})
	c, err := submfs.NewCatalog(base, testNaming(), []string{rawDetail1, rawAnswer1})
	require.NoError(t, err)

	students, err := c.Students(context.Background(), "第1回レポート")
	require.NoError(t, err)
	assert.Equal(t, []submfs.Student{
		{ID: "B21X001", DisplayName: "山田太郎"},
		{ID: "B21X002", DisplayName: "佐藤花子"},
		{ID: "B21X009", DisplayName: "外部学生"},
	}, students)

	_, err = c.Students(context.Background(), "第9回レポート")
	assert.Error(t, err)
}

func TestScanUnpacksAndLists(t *testing.T) {
	cfg := testConfig(t)
	writeZip(t, cfg.SubmissionsDir+"/"+rawDetail1+".zip", map[string]string{
		"B21X001_山田太郎/report.pdf": "pdf",
	})
	writeFiles(t, cfg.SubmissionsDir, map[string]string{
		rawAnswer1 + "/B21X001_山田太郎.pdf": "pdf",
	})

	c, err := submfs.Scan(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"第1回レポート"}, c.Names())

	res := c.Resolve(context.Background(), "第1回レポート", "B21X001", submfs.KindDetail)
	assert.Equal(t, submfs.Found, res.State)
}
