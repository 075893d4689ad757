package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/programme-lv/grader/grading"
	"github.com/programme-lv/grader/httpjson"
	"github.com/programme-lv/grader/logger"
)

func (httpserver *HttpServer) getRubric(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	rubric, err := httpserver.store.LoadRubric(r.Context(), chi.URLParam(r, "assignment"))
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, rubric)
}

func (httpserver *HttpServer) putRubric(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	assignment := chi.URLParam(r, "assignment")

	var rubric grading.Rubric
	if err := httpjson.DecodeJson(r, &rubric); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	if err := httpserver.store.SaveRubric(r.Context(), assignment, rubric); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	saved, err := httpserver.store.LoadRubric(r.Context(), assignment)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, saved)
}

func (httpserver *HttpServer) getMarks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	assignment, index, students, err := httpserver.student(r)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	marks, err := httpserver.store.LoadMarks(r.Context(), assignment, students[index].ID)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, marks)
}

// postMarks saves the marks of a student and points at the next student
// still missing marks.
func (httpserver *HttpServer) postMarks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	assignment, index, students, err := httpserver.student(r)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	var fields map[string]string
	if err := httpjson.DecodeJson(r, &fields); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	marks, err := grading.ParseForm(fields)
	if err != nil {
		httpjson.HandleError(log, w, grading.ErrInvalidMarks(err))
		return
	}

	student := students[index].ID
	if err := httpserver.store.SaveMarks(r.Context(), assignment, student, marks); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	finished, err := httpserver.store.IsComplete(r.Context(), assignment, student)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	ids := make([]string, len(students))
	for i, s := range students {
		ids[i] = s.ID
	}
	next, found, err := httpserver.store.FindNextIncomplete(r.Context(), assignment, ids, index)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	response := saveMarksResponse{Finished: finished}
	if found {
		response.NextIndex = &next
		response.NextStudent = &ids[next]
	}
	httpjson.WriteSuccessJson(w, response)
}

func (httpserver *HttpServer) getPoints(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	assignment, index, students, err := httpserver.student(r)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	earned, total, err := httpserver.store.Points(r.Context(), assignment, students[index].ID)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	response := pointsResponse{Earned: earned, Total: total}
	if total > 0 {
		response.Percent = earned / total * 100
	}
	httpjson.WriteSuccessJson(w, response)
}
