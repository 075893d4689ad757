package http

import (
	"net/http"

	"github.com/programme-lv/grader/httpjson"
	"github.com/programme-lv/grader/logger"
	"github.com/programme-lv/grader/report"
)

const defaultDomain = "pdf"

func (httpserver *HttpServer) getReport(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	domain := r.URL.Query().Get("domain")
	if domain == "" {
		domain = defaultDomain
	}

	cfg, catalog := httpserver.snapshot()
	rep, err := report.NewEngine(cfg, catalog, httpserver.store).BuildForDomain(r.Context(), domain)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}
	httpjson.WriteSuccessJson(w, mapReportResponse(rep))
}
