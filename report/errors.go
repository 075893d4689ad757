package report

import (
	"net/http"

	"github.com/programme-lv/grader/srvcerror"
)

const ErrCodeRosterUnavailable = "roster_unavailable"

func ErrRosterUnavailable(domain string) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeRosterUnavailable,
		"no usable roster for "+domain,
	).SetHttpStatusCode(http.StatusUnprocessableEntity)
}
