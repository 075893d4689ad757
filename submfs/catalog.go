// Package submfs maps the loosely named LMS export directories onto
// assignments, submission kinds and students.
package submfs

import (
	"context"
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/programme-lv/grader/conf"
	"github.com/programme-lv/grader/logger"
	"github.com/programme-lv/grader/studentid"
)

type Kind string

const (
	KindDetail Kind = "detail"
	KindAnswer Kind = "answer"
)

// Kinds lists the submission kinds in display order.
var Kinds = []Kind{KindDetail, KindAnswer}

type Assignment struct {
	Name    string
	Ordinal int // math.MaxInt when the name carries no ordinal

	// raw directory names per kind; more than one entry for a kind is an
	// ambiguity that Resolve reports
	RawDirs map[Kind][]string
	// raw directories that carry no kind marker
	Unclassified []string
}

// AllRawDirs returns every raw directory of the assignment.
func (a Assignment) AllRawDirs() []string {
	var dirs []string
	for _, k := range Kinds {
		dirs = append(dirs, a.RawDirs[k]...)
	}
	dirs = append(dirs, a.Unclassified...)
	sort.Strings(dirs)
	return dirs
}

type Catalog struct {
	BaseDir     string
	Assignments []Assignment

	naming  conf.Naming
	byName  map[string]int
	ordinal *regexp.Regexp
}

// Scan unpacks pending zip archives in the submissions directory and
// builds the catalog from the directories found there.
func Scan(ctx context.Context, cfg conf.Config) (*Catalog, error) {
	if err := Unpack(ctx, cfg.SubmissionsDir); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(cfg.SubmissionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions dir: %w", err)
	}
	var rawDirs []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			rawDirs = append(rawDirs, e.Name())
		}
	}

	c, err := NewCatalog(cfg.SubmissionsDir, cfg.Naming, rawDirs)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("scanned submissions",
		"dir", cfg.SubmissionsDir, "raw_dirs", len(rawDirs), "assignments", len(c.Assignments))
	return c, nil
}

// NewCatalog groups raw directory names into assignments. The assignment
// name is the part of the raw name before the delimiter; assignments are
// ordered by the ordinal embedded in the name, names without one last.
func NewCatalog(baseDir string, naming conf.Naming, rawDirs []string) (*Catalog, error) {
	re, err := regexp.Compile(naming.OrdinalPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid ordinal pattern %q: %w", naming.OrdinalPattern, err)
	}

	c := &Catalog{
		BaseDir: baseDir,
		naming:  naming,
		byName:  make(map[string]int),
		ordinal: re,
	}

	sorted := append([]string(nil), rawDirs...)
	sort.Strings(sorted)
	for _, raw := range sorted {
		name := c.assignmentName(raw)
		i, ok := c.byName[name]
		if !ok {
			c.Assignments = append(c.Assignments, Assignment{
				Name:    name,
				Ordinal: c.extractOrdinal(name),
				RawDirs: make(map[Kind][]string),
			})
			i = len(c.Assignments) - 1
			c.byName[name] = i
		}
		a := &c.Assignments[i]
		if kind, ok := c.kindOf(raw); ok {
			a.RawDirs[kind] = append(a.RawDirs[kind], raw)
		} else {
			a.Unclassified = append(a.Unclassified, raw)
		}
	}

	sort.SliceStable(c.Assignments, func(i, j int) bool {
		ai, aj := c.Assignments[i], c.Assignments[j]
		if ai.Ordinal != aj.Ordinal {
			return ai.Ordinal < aj.Ordinal
		}
		return ai.Name < aj.Name
	})
	for i, a := range c.Assignments {
		c.byName[a.Name] = i
	}
	return c, nil
}

func (c *Catalog) assignmentName(raw string) string {
	name, _, _ := strings.Cut(raw, c.naming.AssignmentDelimiter)
	return strings.TrimSpace(name)
}

func (c *Catalog) extractOrdinal(name string) int {
	m := c.ordinal.FindStringSubmatch(name)
	if len(m) < 2 {
		return math.MaxInt
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return math.MaxInt
	}
	return n
}

// kindOf classifies a raw directory by its kind marker. The answer marker
// is checked first because it is the more specific of the two.
func (c *Catalog) kindOf(raw string) (Kind, bool) {
	switch {
	case c.naming.AnswerMarker != "" && strings.Contains(raw, c.naming.AnswerMarker):
		return KindAnswer, true
	case c.naming.DetailMarker != "" && strings.Contains(raw, c.naming.DetailMarker):
		return KindDetail, true
	}
	return "", false
}

// Names returns assignment names in chronological order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Assignments))
	for i, a := range c.Assignments {
		names[i] = a.Name
	}
	return names
}

func (c *Catalog) Assignment(name string) (Assignment, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Assignment{}, false
	}
	return c.Assignments[i], true
}

type Student struct {
	ID          string
	DisplayName string
}

// Students lists the students that have at least one entry in any raw
// directory of the assignment, sorted by id. The position of a student in
// this list is the index used to navigate between submissions.
func (c *Catalog) Students(ctx context.Context, name string) ([]Student, error) {
	a, ok := c.Assignment(name)
	if !ok {
		return nil, ErrAssignmentNotFound(name)
	}

	byID := make(map[string]Student)
	for _, raw := range a.AllRawDirs() {
		entries, err := os.ReadDir(c.rawPath(raw))
		if err != nil {
			logger.FromContext(ctx).Warn("failed to list raw dir", "raw_dir", raw, "error", err)
			continue
		}
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), ".") {
				continue
			}
			id, display := studentid.FromEntry(e.Name())
			if id == "" {
				continue
			}
			if prev, seen := byID[id]; !seen || prev.DisplayName == "" {
				byID[id] = Student{ID: id, DisplayName: display}
			}
		}
	}

	students := make([]Student, 0, len(byID))
	for _, s := range byID {
		students = append(students, s)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students, nil
}

// StudentIDs is Students reduced to ids.
func (c *Catalog) StudentIDs(ctx context.Context, name string) ([]string, error) {
	students, err := c.Students(ctx, name)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(students))
	for i, s := range students {
		ids[i] = s.ID
	}
	return ids, nil
}

// ParseKind accepts the kind names used in URLs and the CLI.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindDetail, KindAnswer:
		return k, nil
	}
	return "", ErrInvalidKind(s)
}

// StudentIndex returns the position of studentID in the student list of
// assignment.
func (c *Catalog) StudentIndex(ctx context.Context, assignment string, studentID string) (int, []Student, error) {
	students, err := c.Students(ctx, assignment)
	if err != nil {
		return -1, nil, err
	}
	id := studentid.Normalize(studentID)
	for i, s := range students {
		if s.ID == id {
			return i, students, nil
		}
	}
	return -1, students, ErrStudentNotFound(assignment, studentID)
}
