// Package roster loads the enrollment table that every report is joined
// against.
package roster

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/programme-lv/grader/conf"
	"github.com/programme-lv/grader/logger"
	"github.com/programme-lv/grader/srvcerror"
	"github.com/programme-lv/grader/studentid"
)

type Entry struct {
	StudentID   string
	DisplayName string
	Order       int // index of the row in the source enrollment list
}

type Roster struct {
	Domain  string
	Source  string
	Entries []Entry

	byID map[string]int
}

var (
	ErrNoRoster        = errors.New("no roster file found")
	ErrAmbiguousRoster = errors.New("more than one roster file found")
)

var supportedExts = map[string]bool{".xlsx": true, ".csv": true}

// CheckDomain rejects domains that are not a single directory below the
// roster dir.
func CheckDomain(domain string) error {
	if domain == "" || domain == "." || domain == ".." || strings.ContainsAny(domain, `/\`+"\x00") {
		return srvcerror.ErrInvalidName(domain)
	}
	return nil
}

// Find returns the single enrollment file for domain. Zero or several
// candidates are reported with ErrNoRoster or ErrAmbiguousRoster.
func Find(cfg conf.Config, domain string) (string, error) {
	if err := CheckDomain(domain); err != nil {
		return "", err
	}
	pattern := filepath.Join(cfg.RosterDir, domain, cfg.Naming.RosterPattern)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("bad roster pattern %q: %w", pattern, err)
	}

	var candidates []string
	for _, m := range matches {
		base := filepath.Base(m)
		// spreadsheet lock files such as "~$名簿.xlsx"
		if strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".") {
			continue
		}
		if supportedExts[strings.ToLower(filepath.Ext(m))] {
			candidates = append(candidates, m)
		}
	}
	sort.Strings(candidates)

	switch len(candidates) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrNoRoster, pattern)
	case 1:
		return candidates[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguousRoster, strings.Join(candidates, ", "))
	}
}

// Load resolves and reads the roster of domain. It reports absence with
// ok=false instead of an error: a missing, ambiguous or unreadable roster
// cannot be trusted for aggregation.
func Load(ctx context.Context, cfg conf.Config, domain string) (r *Roster, ok bool) {
	log := logger.FromContext(ctx).With("domain", domain)

	path, err := Find(cfg, domain)
	if err != nil {
		log.Warn("no usable roster", "error", err)
		return nil, false
	}
	r, err = Open(path)
	if err != nil {
		log.Warn("failed to read roster", "path", path, "error", err)
		return nil, false
	}
	r.Domain = domain
	log.Info("roster loaded", "path", path, "students", len(r.Entries))
	return r, true
}

// Open reads an enrollment spreadsheet (.xlsx or .csv).
func Open(path string) (*Roster, error) {
	var rows [][]string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = readXlsxRows(path)
	case ".csv":
		rows, err = readCsvRows(path)
	default:
		return nil, fmt.Errorf("unsupported roster format: %s", path)
	}
	if err != nil {
		return nil, err
	}

	entries, err := parseRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return newRoster(path, entries), nil
}

func newRoster(source string, entries []Entry) *Roster {
	r := &Roster{Source: source, Entries: entries, byID: make(map[string]int, len(entries))}
	for i, e := range entries {
		r.byID[e.StudentID] = i
	}
	return r
}

// New builds a roster from already normalized entries, keeping the first
// entry for each student id.
func New(domain string, entries []Entry) *Roster {
	seen := make(map[string]bool, len(entries))
	kept := make([]Entry, 0, len(entries))
	for _, e := range entries {
		e.StudentID = studentid.Normalize(e.StudentID)
		if e.StudentID == "" || seen[e.StudentID] {
			continue
		}
		seen[e.StudentID] = true
		kept = append(kept, e)
	}
	r := newRoster("", kept)
	r.Domain = domain
	return r
}

func (r *Roster) Lookup(id string) (Entry, bool) {
	i, ok := r.byID[studentid.Normalize(id)]
	if !ok {
		return Entry{}, false
	}
	return r.Entries[i], true
}

func (r *Roster) Contains(id string) bool {
	_, ok := r.Lookup(id)
	return ok
}

// IDs returns student ids in original roster order.
func (r *Roster) IDs() []string {
	ids := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		ids[i] = e.StudentID
	}
	return ids
}
