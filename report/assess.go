package report

import (
	"context"
	"math"

	"github.com/programme-lv/grader/conf"
	"github.com/programme-lv/grader/deadline"
	"github.com/programme-lv/grader/logger"
	"github.com/programme-lv/grader/srvcerror"
	"github.com/programme-lv/grader/submfs"
)

// Status symbols describe which kinds a student submitted.
const (
	StatusBoth       = "○"
	StatusDetailOnly = "△"
	StatusAnswerOnly = "▲"
	StatusDuplicate  = "◇"
	StatusNone       = "×"
	StatusAmbiguous  = "?"
)

// Lateness tags.
const (
	TagOnTime     = "○"
	TagLate       = "遅"
	TagSevere     = "大遅"
	TagUnparsable = "?"
	TagNoDeadline = "-"
	TagAbsent     = "×"
)

// Assessment is the result of one student in one assignment.
type Assessment struct {
	StudentID   string
	DisplayName string
	Index       int // position in the assignment's student list

	Detail    submfs.Resolution
	Answer    submfs.Resolution
	Duplicate bool
	Lateness  deadline.Lateness

	Earned float64
	Total  float64
	Score  float64 // percent after penalties, one decimal
	Status string
	Tag    string
}

type kindDates struct {
	dates  *deadline.Dates
	broken bool
}

func (k kindDates) lateness(studentID string) deadline.Lateness {
	if k.broken {
		return deadline.Lateness{State: deadline.Unparsable}
	}
	return k.dates.Lateness(studentID)
}

func (e *Engine) loadDates(ctx context.Context, assignment string) map[submfs.Kind]kindDates {
	out := make(map[submfs.Kind]kindDates, len(submfs.Kinds))
	for _, kind := range submfs.Kinds {
		path := deadline.Path(e.cfg, assignment, string(kind))
		d, err := deadline.LoadDates(path)
		if err != nil {
			logger.FromContext(ctx).Warn("unusable dates file", "path", path, "error", err)
			out[kind] = kindDates{broken: true}
			continue
		}
		out[kind] = kindDates{dates: d}
	}
	return out
}

// AssessAssignment assesses every student found in the directories of
// assignment, in student list order.
func (e *Engine) AssessAssignment(ctx context.Context, assignment string) ([]Assessment, error) {
	students, err := e.catalog.Students(ctx, assignment)
	if err != nil {
		return nil, err
	}
	dates := e.loadDates(ctx, assignment)

	out := make([]Assessment, 0, len(students))
	for i, s := range students {
		a, err := e.assess(ctx, assignment, s, dates)
		if err != nil {
			return nil, err
		}
		a.Index = i
		out = append(out, a)
	}
	return out, nil
}

func (e *Engine) assess(ctx context.Context, assignment string, s submfs.Student, dates map[submfs.Kind]kindDates) (Assessment, error) {
	a := Assessment{StudentID: s.ID, DisplayName: s.DisplayName, Index: -1}
	a.Detail = e.catalog.Resolve(ctx, assignment, s.ID, submfs.KindDetail)
	a.Answer = e.catalog.Resolve(ctx, assignment, s.ID, submfs.KindAnswer)

	if a.Detail.Found() && a.Answer.Found() {
		dup, err := submfs.IsDuplicate(a.Detail.Path, a.Answer.Path)
		if err != nil {
			logger.FromContext(ctx).Warn("failed to compare submissions",
				"assignment", assignment, "student", s.ID, "error", err)
		}
		a.Duplicate = dup
	}

	a.Lateness = deadline.Lateness{State: deadline.NoDeadline}
	if a.Detail.Found() {
		a.Lateness = deadline.Worse(a.Lateness, dates[submfs.KindDetail].lateness(s.ID))
	}
	if a.Answer.Found() {
		a.Lateness = deadline.Worse(a.Lateness, dates[submfs.KindAnswer].lateness(s.ID))
	}

	earned, total, err := e.store.Points(ctx, assignment, s.ID)
	switch {
	case srvcerror.HasCode(err, srvcerror.ErrCodeInvalidName):
		// an id that cannot name a marks file has no marks
		logger.FromContext(ctx).Warn("student id cannot be stored, scoring without marks",
			"assignment", assignment, "student", s.ID, "error", err)
	case err != nil:
		return Assessment{}, err
	default:
		a.Earned, a.Total = earned, total
	}

	a.Score, a.Status, a.Tag = Score(e.cfg.Grading, a)
	return a, nil
}

// Score applies the kind ratio and then the lateness ratio to the raw
// percentage of a, and derives the status symbol and lateness tag. An
// ambiguous kind earns nothing.
func Score(g conf.Grading, a Assessment) (score float64, status string, tag string) {
	var raw float64
	if a.Total > 0 {
		raw = a.Earned / a.Total * 100
	}

	detail, answer := a.Detail.Found(), a.Answer.Found()
	var ratio float64
	switch {
	case detail && answer && a.Duplicate:
		ratio, status = g.RatioDuplicate, StatusDuplicate
	case detail && answer:
		ratio, status = 1, StatusBoth
	case detail:
		ratio, status = g.RatioDetailOnly, StatusDetailOnly
	case answer:
		ratio, status = g.RatioAnswerOnly, StatusAnswerOnly
	default:
		ratio, status = 0, StatusNone
	}
	if a.Detail.State == submfs.Ambiguous || a.Answer.State == submfs.Ambiguous {
		status = StatusAmbiguous
	}

	if !detail && !answer {
		return 0, status, TagAbsent
	}

	penalty := 1.0
	switch l := a.Lateness; {
	case l.Severe(deadline.Days(g.DelayThresholdDays)):
		penalty, tag = g.RatioVeryLate, TagSevere
	case l.State == deadline.Late:
		penalty, tag = g.RatioLate, TagLate
	case l.State == deadline.Unparsable:
		tag = TagUnparsable
	case l.State == deadline.OnTime:
		tag = TagOnTime
	default:
		tag = TagNoDeadline
	}
	return round1(raw * ratio * penalty), status, tag
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
