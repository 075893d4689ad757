package conf

import (
	"net/http"

	"github.com/programme-lv/grader/srvcerror"
)

const ErrCodeInvalidConfig = "invalid_config"

func ErrInvalidConfig(err error) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeInvalidConfig,
		err.Error(),
	).SetHttpStatusCode(http.StatusBadRequest).SetDebug(err)
}

const ErrCodeConfigSaveFailed = "config_save_failed"

func ErrConfigSaveFailed(err error) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeConfigSaveFailed,
		"failed to save settings",
	).SetHttpStatusCode(http.StatusInternalServerError).SetDebug(err)
}
