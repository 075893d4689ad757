package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/programme-lv/grader/httpjson"
	"github.com/programme-lv/grader/logger"
	"github.com/programme-lv/grader/submfs"
)

func (httpserver *HttpServer) listAssignments(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	_, catalog := httpserver.snapshot()

	response := make([]assignmentResponse, 0, len(catalog.Assignments))
	for _, name := range catalog.Names() {
		ids, err := catalog.StudentIDs(r.Context(), name)
		if err != nil {
			httpjson.HandleError(log, w, err)
			return
		}
		finished, err := httpserver.store.AllFinished(r.Context(), name, ids)
		if err != nil {
			httpjson.HandleError(log, w, err)
			return
		}
		response = append(response, assignmentResponse{
			Name:        name,
			Students:    len(ids),
			AllFinished: finished,
		})
	}

	httpjson.WriteSuccessJson(w, response)
}

func (httpserver *HttpServer) listStudents(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	assignment := chi.URLParam(r, "assignment")
	_, catalog := httpserver.snapshot()

	students, err := catalog.Students(r.Context(), assignment)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	ids := make([]string, len(students))
	for i, s := range students {
		ids[i] = s.ID
	}
	done, err := httpserver.store.Progress(r.Context(), assignment, ids)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	response := make([]studentResponse, len(students))
	for i, s := range students {
		response[i] = studentResponse{
			Index:       i,
			StudentID:   s.ID,
			DisplayName: s.DisplayName,
			Finished:    done[i],
		}
	}
	httpjson.WriteSuccessJson(w, response)
}

// student resolves the {assignment} and {student} URL parameters against
// the catalog.
func (httpserver *HttpServer) student(r *http.Request) (assignment string, index int, students []submfs.Student, err error) {
	assignment = chi.URLParam(r, "assignment")
	_, catalog := httpserver.snapshot()
	index, students, err = catalog.StudentIndex(r.Context(), assignment, chi.URLParam(r, "student"))
	return assignment, index, students, err
}
