package http

import (
	"net/http"
	"strconv"

	"github.com/programme-lv/grader/httpjson"
	"github.com/programme-lv/grader/logger"
	"github.com/programme-lv/grader/pagecache"
	"github.com/programme-lv/grader/submfs"
)

// getPages renders the submission of one kind, optionally rotated by
// ?rotate= quarter turns.
func (httpserver *HttpServer) getPages(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	assignment, index, students, err := httpserver.student(r)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	kindParam := r.URL.Query().Get("kind")
	if kindParam == "" {
		kindParam = string(submfs.KindDetail)
	}
	kind, err := submfs.ParseKind(kindParam)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	rotate := 0
	if v := r.URL.Query().Get("rotate"); v != "" {
		rotate, err = strconv.Atoi(v)
		if err != nil {
			httpjson.HandleError(log, w, pagecache.ErrInvalidRotation(v))
			return
		}
	}

	_, catalog := httpserver.snapshot()
	student := students[index].ID
	res := catalog.Resolve(r.Context(), assignment, student, kind)
	switch res.State {
	case submfs.NotSubmitted:
		httpjson.HandleError(log, w, submfs.ErrNotSubmitted())
		return
	case submfs.Ambiguous:
		httpjson.HandleError(log, w, submfs.ErrAmbiguousSubmission(res.Candidates))
		return
	}

	docs, err := submfs.Documents(res.Path)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	ns := pagecache.Namespace{Dir: res.RawDir + "/" + res.Entry, Name: student}
	pages := httpserver.cache.Render(r.Context(), docs, ns)
	pages = httpserver.cache.Rotate(r.Context(), pages, rotate)

	httpjson.WriteSuccessJson(w, pagesResponse{Kind: string(kind), Entry: res.Entry, Pages: pages})
}
