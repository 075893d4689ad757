package grading_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/programme-lv/grader/conf"
	"github.com/programme-lv/grader/grading"
	"github.com/programme-lv/grader/srvcerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*grading.Store, conf.Config) {
	t.Helper()
	cfg := conf.Default(t.TempDir())
	return grading.NewStore(cfg), cfg
}

func TestRubricRoundTrip(t *testing.T) {
	s, cfg := newStore(t)
	ctx := context.Background()

	r, err := s.LoadRubric(ctx, "第1回レポート")
	require.NoError(t, err)
	assert.Equal(t, grading.EmptyRubric(), r)

	require.NoError(t, s.SaveRubric(ctx, "第1回レポート", exampleRubric()))
	r, err = s.LoadRubric(ctx, "第1回レポート")
	require.NoError(t, err)
	assert.Equal(t, exampleRubric(), r)

	_, err = os.Stat(filepath.Join(cfg.SaveDir, "第1回レポート", "problems.json"))
	assert.NoError(t, err)
}

func TestMarksRoundTrip(t *testing.T) {
	s, cfg := newStore(t)
	ctx := context.Background()

	m, err := s.LoadMarks(ctx, "第1回レポート", "B21X001")
	require.NoError(t, err)
	assert.Empty(t, m)

	marks := grading.Marks{"q1": grading.Circle, "q2": grading.Triangle}
	require.NoError(t, s.SaveMarks(ctx, "第1回レポート", "B21X001", marks))
	m, err = s.LoadMarks(ctx, "第1回レポート", "B21X001")
	require.NoError(t, err)
	assert.Equal(t, marks, m)

	content, err := os.ReadFile(filepath.Join(cfg.SaveDir, "第1回レポート", "B21X001.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"grade_q1":"circle","grade_q2":"triangle"}`, string(content))
}

func TestSaveMarksRejectsInvalidInput(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	err := s.SaveMarks(ctx, "第1回レポート", "B21X001", grading.Marks{"q1": "square"})
	assert.True(t, srvcerror.HasCode(err, grading.ErrCodeInvalidMarks))

	err = s.SaveMarks(ctx, "../etc", "B21X001", grading.Marks{})
	assert.True(t, srvcerror.HasCode(err, srvcerror.ErrCodeInvalidName))

	err = s.SaveMarks(ctx, "第1回レポート", "problems", grading.Marks{})
	assert.True(t, srvcerror.HasCode(err, srvcerror.ErrCodeInvalidName))
}

func TestSaveRubricRejectsDuplicates(t *testing.T) {
	s, _ := newStore(t)
	r := exampleRubric()
	r.Order = append(r.Order, "q1")
	err := s.SaveRubric(context.Background(), "第1回レポート", r)
	assert.True(t, srvcerror.HasCode(err, grading.ErrCodeInvalidRubric))
}

func TestSaveMarksFailureKeepsPreviousDocument(t *testing.T) {
	s, cfg := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveMarks(ctx, "a", "B1", grading.Marks{"q1": grading.Circle}))

	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	dir := filepath.Join(cfg.SaveDir, "a")
	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	err := s.SaveMarks(ctx, "a", "B1", grading.Marks{"q1": grading.Cross})
	require.True(t, srvcerror.HasCode(err, grading.ErrCodeMarksSaveFailed))

	m, err := s.LoadMarks(ctx, "a", "B1")
	require.NoError(t, err)
	assert.Equal(t, grading.Marks{"q1": grading.Circle}, m)
}

func TestCorruptMarksReadAsEmpty(t *testing.T) {
	s, cfg := newStore(t)
	dir := filepath.Join(cfg.SaveDir, "a")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "B1.json"), []byte("{not json"), 0o644))

	m, err := s.LoadMarks(context.Background(), "a", "B1")
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestStorePointsAndProgress(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	const a = "第1回レポート"
	students := []string{"B1", "B2", "B3"}

	require.NoError(t, s.SaveRubric(ctx, a, exampleRubric()))
	require.NoError(t, s.SaveMarks(ctx, a, "B1", grading.Marks{"q1": grading.Circle, "q2": grading.Triangle}))
	require.NoError(t, s.SaveMarks(ctx, a, "B2", grading.Marks{"q1": grading.Circle}))

	earned, total, err := s.Points(ctx, a, "B1")
	require.NoError(t, err)
	assert.Equal(t, 20.0, earned)
	assert.Equal(t, 30.0, total)

	done, err := s.Progress(ctx, a, students)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, false}, done)

	all, err := s.AllFinished(ctx, a, students)
	require.NoError(t, err)
	assert.False(t, all)

	next, found, err := s.FindNextIncomplete(ctx, a, students, 2)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1, next)

	require.NoError(t, s.SaveMarks(ctx, a, "B2", grading.Marks{"q1": grading.Circle, "q2": grading.Cross}))
	require.NoError(t, s.SaveMarks(ctx, a, "B3", grading.Marks{"q1": grading.Cross, "q2": grading.Cross}))
	all, err = s.AllFinished(ctx, a, students)
	require.NoError(t, err)
	assert.True(t, all)

	_, found, err = s.FindNextIncomplete(ctx, a, students, 0)
	require.NoError(t, err)
	assert.False(t, found)
}
