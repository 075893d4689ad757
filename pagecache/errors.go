package pagecache

import (
	"net/http"

	"github.com/programme-lv/grader/srvcerror"
)

const ErrCodeInvalidRotation = "invalid_rotation"

func ErrInvalidRotation(value string) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeInvalidRotation,
		"rotation must be a whole number of quarter turns: "+value,
	).SetHttpStatusCode(http.StatusBadRequest)
}
