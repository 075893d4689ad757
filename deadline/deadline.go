// Package deadline parses the LMS date strings and classifies submissions
// against the deadline of their assignment.
package deadline

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"golang.org/x/text/width"
)

var ErrUnparsable = errors.New("unparsable timestamp")

// year, month, day, hour, minute in that order, separated by anything
var fieldsRe = regexp.MustCompile(`(\d+)\D+(\d+)\D+(\d+)\D+(\d+)\D+(\d+)`)

// ParseTimestamp extracts the first five numeric fields of text, such as
// "2025年10月9日(木曜日) 17:23", and reads them as a UTC minute. Full-width
// digits are accepted.
func ParseTimestamp(text string) (time.Time, error) {
	m := fieldsRe.FindStringSubmatch(width.Narrow.String(text))
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparsable, text)
	}
	var f [5]int
	for i := range f {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrUnparsable, text)
		}
		f[i] = n
	}
	return time.Date(f[0], time.Month(f[1]), f[2], f[3], f[4], 0, 0, time.UTC), nil
}

type State int

const (
	// NoDeadline means no date file exists for the assignment kind. No
	// penalty applies but the submission was never checked.
	NoDeadline State = iota
	OnTime
	Late
	Unparsable
)

func (s State) String() string {
	switch s {
	case OnTime:
		return "on_time"
	case Late:
		return "late"
	case Unparsable:
		return "unparsable"
	default:
		return "no_deadline"
	}
}

type Lateness struct {
	State State
	Delay time.Duration // positive only when State is Late
}

// Classify compares a submission time with the deadline. A submission at
// the deadline minute is on time.
func Classify(deadlineText string, submissionText string) Lateness {
	due, err := ParseTimestamp(deadlineText)
	if err != nil {
		return Lateness{State: Unparsable}
	}
	at, err := ParseTimestamp(submissionText)
	if err != nil {
		return Lateness{State: Unparsable}
	}
	if at.After(due) {
		return Lateness{State: Late, Delay: at.Sub(due)}
	}
	return Lateness{State: OnTime}
}

// Severe reports whether a late submission exceeds the threshold.
func (l Lateness) Severe(threshold time.Duration) bool {
	return l.State == Late && l.Delay > threshold
}

// Worse combines the lateness of the two kinds of one submission: the
// longer delay wins, a known delay beats an unparsable date and an
// unparsable date beats on time.
func Worse(a Lateness, b Lateness) Lateness {
	if rank(b) > rank(a) || (a.State == Late && b.State == Late && b.Delay > a.Delay) {
		return b
	}
	return a
}

func rank(l Lateness) int {
	switch l.State {
	case Late:
		return 3
	case Unparsable:
		return 2
	case OnTime:
		return 1
	}
	return 0
}

// Days converts a day count into a duration.
func Days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}
