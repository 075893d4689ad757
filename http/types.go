package http

import (
	"github.com/programme-lv/grader/conf"
	"github.com/programme-lv/grader/report"
)

type assignmentResponse struct {
	Name        string `json:"name"`
	Students    int    `json:"students"`
	AllFinished bool   `json:"all_finished"`
}

type studentResponse struct {
	Index       int    `json:"index"`
	StudentID   string `json:"student_id"`
	DisplayName string `json:"display_name"`
	Finished    bool   `json:"finished"`
}

type saveMarksResponse struct {
	Finished    bool    `json:"finished"`
	NextIndex   *int    `json:"next_index"`
	NextStudent *string `json:"next_student"`
}

type pointsResponse struct {
	Earned  float64 `json:"earned"`
	Total   float64 `json:"total"`
	Percent float64 `json:"percent"`
}

type pagesResponse struct {
	Kind  string   `json:"kind"`
	Entry string   `json:"entry"`
	Pages []string `json:"pages"`
}

type studentRowResponse struct {
	StudentID   string    `json:"student_id"`
	DisplayName string    `json:"display_name"`
	Order       int       `json:"order"`
	Scores      []float64 `json:"scores"`
	Statuses    []string  `json:"statuses"`
	Tags        []string  `json:"tags"`
	Indexes     []int     `json:"indexes"`
	Average     float64   `json:"average"`
	Letter      string    `json:"letter"`
}

type gradeCountResponse struct {
	Letter  string  `json:"letter"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

type reportResponse struct {
	Domain       string               `json:"domain"`
	Assignments  []string             `json:"assignments"`
	Enrolled     []studentRowResponse `json:"enrolled"`
	Unlisted     []studentRowResponse `json:"unlisted"`
	Distribution []gradeCountResponse `json:"distribution"`
}

type settingsResponse struct {
	Thresholds         conf.Thresholds `json:"thresholds"`
	DelayThresholdDays int             `json:"delay_threshold_days"`
	RatioDetailOnly    float64         `json:"ratio_detail_only"`
	RatioAnswerOnly    float64         `json:"ratio_answer_only"`
	RatioDuplicate     float64         `json:"ratio_duplicate"`
	RatioLate          float64         `json:"ratio_late"`
	RatioVeryLate      float64         `json:"ratio_very_late"`
}

func mapStudentRows(rows []report.StudentRow) []studentRowResponse {
	out := make([]studentRowResponse, len(rows))
	for i, r := range rows {
		out[i] = studentRowResponse{
			StudentID:   r.StudentID,
			DisplayName: r.DisplayName,
			Order:       r.Order,
			Scores:      r.Scores,
			Statuses:    r.Statuses,
			Tags:        r.Tags,
			Indexes:     r.Indexes,
			Average:     r.Average,
			Letter:      r.Letter,
		}
	}
	return out
}

func mapReportResponse(rep *report.Report) reportResponse {
	dist := make([]gradeCountResponse, len(rep.Distribution))
	for i, g := range rep.Distribution {
		dist[i] = gradeCountResponse{Letter: g.Letter, Count: g.Count, Percent: g.Percent}
	}
	return reportResponse{
		Domain:       rep.Domain,
		Assignments:  rep.Assignments,
		Enrolled:     mapStudentRows(rep.Enrolled),
		Unlisted:     mapStudentRows(rep.Unlisted),
		Distribution: dist,
	}
}

func mapSettings(g conf.Grading) settingsResponse {
	return settingsResponse{
		Thresholds:         g.Thresholds,
		DelayThresholdDays: g.DelayThresholdDays,
		RatioDetailOnly:    g.RatioDetailOnly,
		RatioAnswerOnly:    g.RatioAnswerOnly,
		RatioDuplicate:     g.RatioDuplicate,
		RatioLate:          g.RatioLate,
		RatioVeryLate:      g.RatioVeryLate,
	}
}

func (s settingsResponse) grading() conf.Grading {
	return conf.Grading{
		Thresholds:         s.Thresholds,
		DelayThresholdDays: s.DelayThresholdDays,
		RatioDetailOnly:    s.RatioDetailOnly,
		RatioAnswerOnly:    s.RatioAnswerOnly,
		RatioDuplicate:     s.RatioDuplicate,
		RatioLate:          s.RatioLate,
		RatioVeryLate:      s.RatioVeryLate,
	}
}
