package srvcerror_test

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"testing"

	"github.com/programme-lv/grader/srvcerror"
	"github.com/stretchr/testify/assert"
)

func TestErrorDefaultsAndWrapping(t *testing.T) {
	err := srvcerror.New("marks_save_failed", "could not save marks").SetDebug(fs.ErrPermission)

	assert.Equal(t, "could not save marks", err.Error())
	assert.Equal(t, http.StatusInternalServerError, err.HttpStatusCode())
	assert.ErrorIs(t, err, fs.ErrPermission)

	wrapped := fmt.Errorf("grading: %w", err)
	assert.True(t, srvcerror.HasCode(wrapped, "marks_save_failed"))
	assert.False(t, srvcerror.HasCode(wrapped, "other"))
	assert.False(t, srvcerror.HasCode(errors.New("plain"), "marks_save_failed"))
}

func TestInvalidName(t *testing.T) {
	err := srvcerror.ErrInvalidName("../x")
	assert.Equal(t, http.StatusBadRequest, err.HttpStatusCode())
	assert.Equal(t, srvcerror.ErrCodeInvalidName, err.ErrorCode())
}
