package grading

import (
	"net/http"

	"github.com/programme-lv/grader/srvcerror"
)

const ErrCodeInvalidMarks = "invalid_marks"

func ErrInvalidMarks(err error) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeInvalidMarks,
		"invalid marks: "+err.Error(),
	).SetHttpStatusCode(http.StatusBadRequest).SetDebug(err)
}

const ErrCodeInvalidRubric = "invalid_rubric"

func ErrInvalidRubric(err error) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeInvalidRubric,
		"invalid rubric: "+err.Error(),
	).SetHttpStatusCode(http.StatusBadRequest).SetDebug(err)
}

const ErrCodeMarksSaveFailed = "marks_save_failed"

func ErrMarksSaveFailed(err error) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeMarksSaveFailed,
		"failed to save marks",
	).SetHttpStatusCode(http.StatusInternalServerError).SetDebug(err)
}

const ErrCodeRubricSaveFailed = "rubric_save_failed"

func ErrRubricSaveFailed(err error) *srvcerror.Error {
	return srvcerror.New(
		ErrCodeRubricSaveFailed,
		"failed to save rubric",
	).SetHttpStatusCode(http.StatusInternalServerError).SetDebug(err)
}
