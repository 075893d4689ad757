package grading

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/programme-lv/grader/conf"
	"github.com/programme-lv/grader/logger"
	"github.com/programme-lv/grader/srvcerror"
)

const rubricFile = "problems.json"

// Store keeps one rubric document per assignment and one marks document
// per (assignment, student) below the save directory:
//
//	<save dir>/<assignment>/problems.json
//	<save dir>/<assignment>/<student>.json
type Store struct {
	dir string
}

func NewStore(cfg conf.Config) *Store {
	return &Store{dir: cfg.SaveDir}
}

// checkName rejects names that are not a single path component.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`+"\x00") {
		return srvcerror.ErrInvalidName(name)
	}
	return nil
}

func (s *Store) rubricPath(assignment string) (string, error) {
	if err := checkName(assignment); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, assignment, rubricFile), nil
}

func (s *Store) marksPath(assignment string, student string) (string, error) {
	if err := checkName(assignment); err != nil {
		return "", err
	}
	if err := checkName(student); err != nil {
		return "", err
	}
	if student+".json" == rubricFile {
		return "", srvcerror.ErrInvalidName(student)
	}
	return filepath.Join(s.dir, assignment, student+".json"), nil
}

// LoadRubric returns the saved rubric or an empty one. An unreadable or
// corrupt document is logged and treated as absent.
func (s *Store) LoadRubric(ctx context.Context, assignment string) (Rubric, error) {
	path, err := s.rubricPath(assignment)
	if err != nil {
		return Rubric{}, err
	}
	var r Rubric
	if !readJSON(ctx, path, &r) {
		return EmptyRubric(), nil
	}
	return r.normalized(), nil
}

func (s *Store) SaveRubric(ctx context.Context, assignment string, r Rubric) error {
	path, err := s.rubricPath(assignment)
	if err != nil {
		return err
	}
	if err := r.validate(); err != nil {
		return ErrInvalidRubric(err)
	}
	if err := writeJSON(path, r.normalized()); err != nil {
		return ErrRubricSaveFailed(err)
	}
	logger.FromContext(ctx).Info("saved rubric", "assignment", assignment, "problems", len(r.Order))
	return nil
}

// LoadMarks returns the recorded marks of a student or an empty mapping.
func (s *Store) LoadMarks(ctx context.Context, assignment string, student string) (Marks, error) {
	path, err := s.marksPath(assignment, student)
	if err != nil {
		return nil, err
	}
	var m Marks
	if !readJSON(ctx, path, &m) || m == nil {
		return Marks{}, nil
	}
	return m, nil
}

// SaveMarks replaces the marks document of a student as a whole. A failed
// write leaves the previous document in place.
func (s *Store) SaveMarks(ctx context.Context, assignment string, student string, marks Marks) error {
	path, err := s.marksPath(assignment, student)
	if err != nil {
		return err
	}
	for id, mark := range marks {
		if _, err := ParseMark(string(mark)); err != nil {
			return ErrInvalidMarks(fmt.Errorf("problem %q: %w", id, err))
		}
	}
	if marks == nil {
		marks = Marks{}
	}
	if err := writeJSON(path, marks); err != nil {
		return ErrMarksSaveFailed(err)
	}
	logger.FromContext(ctx).Info("saved marks",
		"assignment", assignment, "student", student, "marks", len(marks))
	return nil
}

// Points returns the earned and total points of a student.
func (s *Store) Points(ctx context.Context, assignment string, student string) (float64, float64, error) {
	r, err := s.LoadRubric(ctx, assignment)
	if err != nil {
		return 0, 0, err
	}
	m, err := s.LoadMarks(ctx, assignment, student)
	if err != nil {
		return 0, 0, err
	}
	earned, total := Points(r, m)
	return earned, total, nil
}

func (s *Store) IsComplete(ctx context.Context, assignment string, student string) (bool, error) {
	r, err := s.LoadRubric(ctx, assignment)
	if err != nil {
		return false, err
	}
	m, err := s.LoadMarks(ctx, assignment, student)
	if err != nil {
		return false, err
	}
	return Complete(r, m), nil
}

// Progress returns the completion flag of every student in order.
func (s *Store) Progress(ctx context.Context, assignment string, students []string) ([]bool, error) {
	r, err := s.LoadRubric(ctx, assignment)
	if err != nil {
		return nil, err
	}
	done := make([]bool, len(students))
	for i, student := range students {
		m, err := s.LoadMarks(ctx, assignment, student)
		if err != nil {
			return nil, err
		}
		done[i] = Complete(r, m)
	}
	return done, nil
}

// AllFinished reports whether every listed student is complete.
func (s *Store) AllFinished(ctx context.Context, assignment string, students []string) (bool, error) {
	done, err := s.Progress(ctx, assignment, students)
	if err != nil {
		return false, err
	}
	for _, d := range done {
		if !d {
			return false, nil
		}
	}
	return true, nil
}

// FindNextIncomplete returns the index of the next student after current
// whose marks are incomplete, wrapping around the list.
func (s *Store) FindNextIncomplete(ctx context.Context, assignment string, students []string, current int) (int, bool, error) {
	r, err := s.LoadRubric(ctx, assignment)
	if err != nil {
		return -1, false, err
	}
	return FindNextIncomplete(len(students), current, func(i int) (bool, error) {
		m, err := s.LoadMarks(ctx, assignment, students[i])
		if err != nil {
			return false, err
		}
		return Complete(r, m), nil
	})
}

func readJSON(ctx context.Context, path string, v any) bool {
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false
	}
	if err != nil {
		logger.FromContext(ctx).Warn("failed to read document", "path", path, "error", err)
		return false
	}
	if err := json.Unmarshal(content, v); err != nil {
		logger.FromContext(ctx).Warn("corrupt document ignored", "path", path, "error", err)
		return false
	}
	return true
}

func writeJSON(path string, v any) error {
	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return renameio.WriteFile(path, content, 0o644)
}
