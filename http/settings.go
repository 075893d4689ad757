package http

import (
	"net/http"

	"github.com/programme-lv/grader/conf"
	"github.com/programme-lv/grader/httpjson"
	"github.com/programme-lv/grader/logger"
	"github.com/programme-lv/grader/submfs"
)

func (httpserver *HttpServer) getSettings(w http.ResponseWriter, r *http.Request) {
	cfg, _ := httpserver.snapshot()
	httpjson.WriteSuccessJson(w, mapSettings(cfg.Grading))
}

// postSettings replaces the grading thresholds and ratios and persists
// them to the config file.
func (httpserver *HttpServer) postSettings(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var request settingsResponse
	if err := httpjson.DecodeJson(r, &request); err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	httpserver.mu.Lock()
	defer httpserver.mu.Unlock()

	cfg := httpserver.cfg
	cfg.Grading = request.grading()
	if err := cfg.Validate(); err != nil {
		httpjson.HandleError(log, w, conf.ErrInvalidConfig(err))
		return
	}
	if err := conf.Save(httpserver.cfgPath, cfg); err != nil {
		httpjson.HandleError(log, w, conf.ErrConfigSaveFailed(err))
		return
	}
	httpserver.cfg = cfg
	log.Info("settings saved", "path", httpserver.cfgPath)

	httpjson.WriteSuccessJson(w, mapSettings(cfg.Grading))
}

// reload rescans the submissions directory.
func (httpserver *HttpServer) reload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	cfg, _ := httpserver.snapshot()

	catalog, err := submfs.Scan(r.Context(), cfg)
	if err != nil {
		httpjson.HandleError(log, w, err)
		return
	}

	httpserver.mu.Lock()
	httpserver.catalog = catalog
	httpserver.mu.Unlock()

	httpjson.WriteSuccessJson(w, catalog.Names())
}
