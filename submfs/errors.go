package submfs

import (
	"net/http"

	"github.com/programme-lv/grader/srvcerror"
)

const ErrCodeAssignmentNotFound = "assignment_not_found"

func ErrAssignmentNotFound(name string) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeAssignmentNotFound,
		"assignment not found: "+name,
	).SetHttpStatusCode(http.StatusNotFound)
}

const ErrCodeNotSubmitted = "not_submitted"

func ErrNotSubmitted() *srvcerror.Error {
	return srvcerror.New(
		ErrCodeNotSubmitted,
		"no submission found",
	).SetHttpStatusCode(http.StatusNotFound)
}

const ErrCodeAmbiguousSubmission = "ambiguous_submission"

func ErrAmbiguousSubmission(candidates []string) *srvcerror.Error {
	msg := "more than one submission matches"
	for i, c := range candidates {
		if i == 0 {
			msg += ": "
		} else {
			msg += ", "
		}
		msg += c
	}
	return srvcerror.New(
		ErrCodeAmbiguousSubmission,
		msg,
	).SetHttpStatusCode(http.StatusConflict)
}

const ErrCodeStudentNotFound = "student_not_found"

func ErrStudentNotFound(assignment string, student string) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeStudentNotFound,
		"no submission of "+student+" in "+assignment,
	).SetHttpStatusCode(http.StatusNotFound)
}

const ErrCodeInvalidKind = "invalid_kind"

func ErrInvalidKind(kind string) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeInvalidKind,
		"unknown submission kind: "+kind,
	).SetHttpStatusCode(http.StatusBadRequest)
}
