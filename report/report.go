// Package report scores every assignment and joins the results against the
// roster into the course-wide grade report.
package report

import (
	"context"
	"sort"

	"github.com/programme-lv/grader/conf"
	"github.com/programme-lv/grader/grading"
	"github.com/programme-lv/grader/logger"
	"github.com/programme-lv/grader/roster"
	"github.com/programme-lv/grader/submfs"
)

// Letters in descending order.
var Letters = []string{"S", "A", "B", "C", "D"}

type Engine struct {
	cfg     conf.Config
	catalog *submfs.Catalog
	store   *grading.Store
}

func NewEngine(cfg conf.Config, catalog *submfs.Catalog, store *grading.Store) *Engine {
	return &Engine{cfg: cfg, catalog: catalog, store: store}
}

type StudentRow struct {
	StudentID   string
	DisplayName string
	Order       int // roster order, -1 for unlisted students

	// one value per report assignment
	Scores   []float64
	Statuses []string
	Tags     []string
	Indexes  []int

	Average float64
	Letter  string
}

type GradeCount struct {
	Letter  string
	Count   int
	Percent float64 // share of enrolled students, one decimal
}

type Report struct {
	Domain       string
	Assignments  []string
	Enrolled     []StudentRow
	Unlisted     []StudentRow
	Distribution []GradeCount
}

// tables holds the four course-wide tables of one side of the report.
type tables struct {
	score  *Table[float64]
	status *Table[string]
	tag    *Table[string]
	index  *Table[int]
}

func newTables(keys []Key) tables {
	return tables{
		score:  NewTable(0.0, keys),
		status: NewTable(StatusNone, keys),
		tag:    NewTable(TagAbsent, keys),
		index:  NewTable(-1, keys),
	}
}

// Letter maps an average to a letter grade by descending thresholds.
func Letter(th conf.Thresholds, average float64) string {
	switch {
	case average >= th.S:
		return "S"
	case average >= th.A:
		return "A"
	case average >= th.B:
		return "B"
	case average >= th.C:
		return "C"
	}
	return "D"
}

// BuildForDomain loads the roster of domain and builds the report over
// every assignment of the catalog.
func (e *Engine) BuildForDomain(ctx context.Context, domain string) (*Report, error) {
	if err := roster.CheckDomain(domain); err != nil {
		return nil, err
	}
	r, ok := roster.Load(ctx, e.cfg, domain)
	if !ok {
		return nil, ErrRosterUnavailable(domain)
	}
	return e.Build(ctx, e.catalog.Names(), r)
}

// Build assesses the assignments in order and merges them against the
// roster. Enrolled students get a row even without any submission;
// students missing from the roster are collected separately.
func (e *Engine) Build(ctx context.Context, assignments []string, r *roster.Roster) (*Report, error) {
	log := logger.FromContext(ctx)

	enrolledKeys := make([]Key, len(r.Entries))
	for i, entry := range r.Entries {
		enrolledKeys[i] = Key{StudentID: entry.StudentID}
	}
	enrolled := newTables(enrolledKeys)
	unlisted := newTables(nil)

	for _, assignment := range assignments {
		results, err := e.AssessAssignment(ctx, assignment)
		if err != nil {
			return nil, err
		}

		inScore, inStatus, inTag, inIndex := map[Key]float64{}, map[Key]string{}, map[Key]string{}, map[Key]int{}
		outScore, outStatus, outTag, outIndex := map[Key]float64{}, map[Key]string{}, map[Key]string{}, map[Key]int{}
		var outKeys []Key
		for _, a := range results {
			if r.Contains(a.StudentID) {
				k := Key{StudentID: a.StudentID}
				inScore[k], inStatus[k], inTag[k], inIndex[k] = a.Score, a.Status, a.Tag, a.Index
				continue
			}
			k := Key{StudentID: a.StudentID, DisplayName: a.DisplayName}
			outKeys = append(outKeys, k)
			outScore[k], outStatus[k], outTag[k], outIndex[k] = a.Score, a.Status, a.Tag, a.Index
		}

		enrolled.score.LeftMerge(assignment, inScore)
		enrolled.status.LeftMerge(assignment, inStatus)
		enrolled.tag.LeftMerge(assignment, inTag)
		enrolled.index.LeftMerge(assignment, inIndex)

		unlisted.score.OuterMerge(assignment, outKeys, outScore)
		unlisted.status.OuterMerge(assignment, outKeys, outStatus)
		unlisted.tag.OuterMerge(assignment, outKeys, outTag)
		unlisted.index.OuterMerge(assignment, outKeys, outIndex)

		log.Debug("assignment merged", "assignment", assignment,
			"students", len(results), "unlisted", len(outKeys))
	}

	th := e.cfg.Grading.Thresholds
	rep := &Report{
		Domain:      r.Domain,
		Assignments: append([]string{}, assignments...),
	}
	for i, entry := range r.Entries {
		row := enrolled.row(enrolledKeys[i], th)
		row.DisplayName = entry.DisplayName
		row.Order = entry.Order
		rep.Enrolled = append(rep.Enrolled, row)
	}
	sort.SliceStable(rep.Enrolled, func(i, j int) bool { return rep.Enrolled[i].Order < rep.Enrolled[j].Order })

	for _, k := range unlisted.score.Keys() {
		row := unlisted.row(k, th)
		row.DisplayName = k.DisplayName
		row.Order = -1
		rep.Unlisted = append(rep.Unlisted, row)
	}

	rep.Distribution = distribution(rep.Enrolled)
	log.Info("report built", "domain", r.Domain, "assignments", len(assignments),
		"enrolled", len(rep.Enrolled), "unlisted", len(rep.Unlisted))
	return rep, nil
}

func (t tables) row(k Key, th conf.Thresholds) StudentRow {
	row := StudentRow{
		StudentID: k.StudentID,
		Scores:    t.score.Row(k),
		Statuses:  t.status.Row(k),
		Tags:      t.tag.Row(k),
		Indexes:   t.index.Row(k),
	}
	var mean float64
	if len(row.Scores) > 0 {
		var sum float64
		for _, s := range row.Scores {
			sum += s
		}
		mean = sum / float64(len(row.Scores))
	}
	// the letter comes from the exact mean, rounding is for display only
	row.Average = round1(mean)
	row.Letter = Letter(th, mean)
	return row
}

func distribution(rows []StudentRow) []GradeCount {
	counts := make(map[string]int, len(Letters))
	for _, r := range rows {
		counts[r.Letter]++
	}
	out := make([]GradeCount, len(Letters))
	for i, l := range Letters {
		out[i] = GradeCount{Letter: l, Count: counts[l]}
		if len(rows) > 0 {
			out[i].Percent = round1(float64(counts[l]) / float64(len(rows)) * 100)
		}
	}
	return out
}
