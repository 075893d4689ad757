// Package grading stores rubrics and per-student marks and turns them into
// points.
package grading

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

type Mark string

const (
	Circle   Mark = "circle"   // full credit
	Triangle Mark = "triangle" // half credit
	Cross    Mark = "cross"    // no credit
)

func ParseMark(s string) (Mark, error) {
	switch m := Mark(strings.TrimSpace(s)); m {
	case Circle, Triangle, Cross:
		return m, nil
	}
	return "", fmt.Errorf("unknown mark %q", s)
}

// Credit is the share of a problem's points the mark earns.
func (m Mark) Credit() float64 {
	switch m {
	case Circle:
		return 1
	case Triangle:
		return 0.5
	}
	return 0
}

// Rubric lists the problems of one assignment. Order drives display and
// completion; Points drives scoring.
type Rubric struct {
	Order    []string           `json:"order"`
	Problems map[string]string  `json:"problems"`
	Points   map[string]float64 `json:"points"`
}

func EmptyRubric() Rubric {
	return Rubric{
		Order:    []string{},
		Problems: map[string]string{},
		Points:   map[string]float64{},
	}
}

// Total sums the point values of the problems in Order.
func (r Rubric) Total() float64 {
	var total float64
	for _, id := range r.Order {
		total += r.Points[id]
	}
	return total
}

func (r Rubric) validate() error {
	seen := make(map[string]bool, len(r.Order))
	for _, id := range r.Order {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("empty problem id")
		}
		if seen[id] {
			return fmt.Errorf("problem %q listed twice", id)
		}
		seen[id] = true
		if r.Points[id] < 0 {
			return fmt.Errorf("problem %q has negative points", id)
		}
	}
	return nil
}

func (r Rubric) normalized() Rubric {
	if r.Order == nil {
		r.Order = []string{}
	}
	if r.Problems == nil {
		r.Problems = map[string]string{}
	}
	if r.Points == nil {
		r.Points = map[string]float64{}
	}
	return r
}

const markKeyPrefix = "grade_"

// Marks maps problem ids to marks. On disk every key carries the "grade_"
// prefix.
type Marks map[string]Mark

func (m Marks) MarshalJSON() ([]byte, error) {
	doc := make(map[string]Mark, len(m))
	for id, mark := range m {
		doc[markKeyPrefix+id] = mark
	}
	return json.Marshal(doc)
}

// UnmarshalJSON ignores keys without the "grade_" prefix and rejects
// unknown mark values.
func (m *Marks) UnmarshalJSON(data []byte) error {
	var doc map[string]string
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	out := make(Marks, len(doc))
	for key, value := range doc {
		id, ok := strings.CutPrefix(key, markKeyPrefix)
		if !ok || id == "" {
			continue
		}
		mark, err := ParseMark(value)
		if err != nil {
			return fmt.Errorf("problem %q: %w", id, err)
		}
		out[id] = mark
	}
	*m = out
	return nil
}

// ParseForm builds marks from "grade_<id>" form fields.
func ParseForm(fields map[string]string) (Marks, error) {
	out := make(Marks, len(fields))
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		id, ok := strings.CutPrefix(key, markKeyPrefix)
		if !ok || id == "" {
			continue
		}
		mark, err := ParseMark(fields[key])
		if err != nil {
			return nil, fmt.Errorf("problem %q: %w", id, err)
		}
		out[id] = mark
	}
	return out, nil
}

// Points returns the earned and total points of marks under r. Problems
// missing from marks earn nothing; marks for problems outside the rubric
// order are ignored.
func Points(r Rubric, marks Marks) (earned float64, total float64) {
	for _, id := range r.Order {
		p := r.Points[id]
		total += p
		earned += p * marks[id].Credit()
	}
	return earned, total
}

// Complete reports whether every problem in the rubric order has a mark.
// A rubric without problems is trivially complete.
func Complete(r Rubric, marks Marks) bool {
	for _, id := range r.Order {
		if _, ok := marks[id]; !ok {
			return false
		}
	}
	return true
}

// FindNextIncomplete scans the n students circularly starting after
// current and returns the first one for which complete is false. The
// current student itself is never returned. A current index outside
// [0, n) scans everyone from the start.
func FindNextIncomplete(n int, current int, complete func(i int) (bool, error)) (int, bool, error) {
	order := make([]int, 0, n)
	if current < 0 || current >= n {
		for i := 0; i < n; i++ {
			order = append(order, i)
		}
	} else {
		for k := 1; k < n; k++ {
			order = append(order, (current+k)%n)
		}
	}

	for _, i := range order {
		done, err := complete(i)
		if err != nil {
			return -1, false, err
		}
		if !done {
			return i, true, nil
		}
	}
	return -1, false, nil
}
