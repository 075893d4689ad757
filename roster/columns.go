package roster

import (
	"fmt"
	"strings"

	"github.com/programme-lv/grader/studentid"
)

// header aliases, compared after lower-casing and removing spaces
var (
	idHeaders   = []string{"学籍番号", "学生番号", "学生証番号", "studentid", "student_id", "id", "番号"}
	nameHeaders = []string{"氏名", "名前", "学生氏名", "name", "displayname", "display_name", "fullname"}
)

// header rows are searched for within the first rows only; exports often
// start with a title block
const maxHeaderScan = 10

func canonicalHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(strings.ReplaceAll(s, " ", ""), "　", "")
}

func findColumn(header []string, aliases []string) int {
	for _, alias := range aliases {
		for i, h := range header {
			if canonicalHeader(h) == alias {
				return i
			}
		}
	}
	return -1
}

func parseRows(rows [][]string) ([]Entry, error) {
	headerRow, idCol, nameCol := -1, -1, -1
	for i := 0; i < len(rows) && i < maxHeaderScan; i++ {
		idCol = findColumn(rows[i], idHeaders)
		nameCol = findColumn(rows[i], nameHeaders)
		if idCol >= 0 && nameCol >= 0 {
			headerRow = i
			break
		}
	}
	if headerRow < 0 {
		return nil, fmt.Errorf("no header row with student id and name columns")
	}

	entries := make([]Entry, 0, len(rows)-headerRow-1)
	seen := make(map[string]bool)
	for order, row := range rows[headerRow+1:] {
		id := studentid.Normalize(cell(row, idCol))
		if id == "" {
			continue
		}
		if seen[id] {
			// the first occurrence wins so the id stays unique
			continue
		}
		seen[id] = true
		entries = append(entries, Entry{
			StudentID:   id,
			DisplayName: strings.TrimSpace(cell(row, nameCol)),
			Order:       order,
		})
	}
	return entries, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
