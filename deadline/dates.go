package deadline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/programme-lv/grader/conf"
	"github.com/programme-lv/grader/studentid"
)

// Dates is the submission date export of one (assignment, kind).
type Dates struct {
	Deadline    string            `json:"deadline"`
	Submissions map[string]string `json:"submissions"`

	byID map[string]string
}

// Path returns where the date export of (assignment, kind) lives.
func Path(cfg conf.Config, assignment string, kind string) string {
	return filepath.Join(cfg.DatesDir, assignment, kind+".json")
}

// LoadDates reads a date export. A missing file yields nil and no error.
func LoadDates(path string) (*Dates, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read dates %s: %w", path, err)
	}
	var d Dates
	if err := json.Unmarshal(content, &d); err != nil {
		return nil, fmt.Errorf("failed to parse dates %s: %w", path, err)
	}
	d.index()
	return &d, nil
}

func (d *Dates) index() {
	d.byID = make(map[string]string, len(d.Submissions))
	for id, at := range d.Submissions {
		d.byID[studentid.Normalize(id)] = at
	}
}

// Lateness classifies the submission of studentID. Nil dates mean no
// deadline tracking; a student without a recorded date is Unparsable.
func (d *Dates) Lateness(studentID string) Lateness {
	if d == nil {
		return Lateness{State: NoDeadline}
	}
	if d.byID == nil {
		d.index()
	}
	at, ok := d.byID[studentid.Normalize(studentID)]
	if !ok {
		return Lateness{State: Unparsable}
	}
	return Classify(d.Deadline, at)
}
