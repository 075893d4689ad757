package submfs

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/programme-lv/grader/logger"
	"github.com/programme-lv/grader/studentid"
)

type State int

const (
	NotSubmitted State = iota
	Found
	Ambiguous
)

func (s State) String() string {
	switch s {
	case Found:
		return "found"
	case Ambiguous:
		return "ambiguous"
	default:
		return "not_submitted"
	}
}

// Resolution is the outcome of matching one student against one kind
// directory. Callers must handle Ambiguous on its own; it is neither a
// submission nor its absence.
type Resolution struct {
	State State

	// set when State is Found
	Path   string // absolute path of the matched entry
	RawDir string
	Entry  string

	// set when State is Ambiguous: candidate raw dirs or entry paths
	Candidates []string
}

func (r Resolution) Found() bool {
	return r.State == Found
}

func (c *Catalog) rawPath(raw string) string {
	return filepath.Join(c.BaseDir, raw)
}

// Resolve finds the entry of studentID inside the single raw directory of
// (assignment, kind). An entry matches when the normalized id occurs in
// its normalized name.
func (c *Catalog) Resolve(ctx context.Context, assignment string, studentID string, kind Kind) Resolution {
	log := logger.FromContext(ctx).With("assignment", assignment, "student", studentID, "kind", kind)

	a, ok := c.Assignment(assignment)
	if !ok {
		return Resolution{State: NotSubmitted}
	}
	rawDirs := a.RawDirs[kind]
	switch len(rawDirs) {
	case 0:
		return Resolution{State: NotSubmitted}
	case 1:
	default:
		log.Warn("several raw directories for one kind", "raw_dirs", rawDirs)
		return Resolution{State: Ambiguous, Candidates: append([]string(nil), rawDirs...)}
	}

	raw := rawDirs[0]
	entries, err := os.ReadDir(c.rawPath(raw))
	if err != nil {
		log.Warn("failed to list raw dir", "raw_dir", raw, "error", err)
		return Resolution{State: NotSubmitted}
	}

	var matches []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if studentid.Contains(e.Name(), studentID) {
			matches = append(matches, e.Name())
		}
	}

	switch len(matches) {
	case 0:
		return Resolution{State: NotSubmitted}
	case 1:
		return Resolution{
			State:  Found,
			Path:   filepath.Join(c.rawPath(raw), matches[0]),
			RawDir: raw,
			Entry:  matches[0],
		}
	default:
		sort.Strings(matches)
		paths := make([]string, len(matches))
		for i, m := range matches {
			paths[i] = filepath.Join(c.rawPath(raw), m)
		}
		log.Warn("several submissions match student", "candidates", matches)
		return Resolution{State: Ambiguous, Candidates: paths}
	}
}

// Documents lists the files behind a matched entry: the entry itself when
// it is a file, otherwise the regular files directly inside it sorted by
// name.
func Documents(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var docs []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		docs = append(docs, filepath.Join(path, e.Name()))
	}
	sort.Strings(docs)
	return docs, nil
}
