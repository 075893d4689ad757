package httpjson_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/programme-lv/grader/httpjson"
	"github.com/programme-lv/grader/srvcerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decode(t *testing.T, w *httptest.ResponseRecorder) httpjson.JsonResponse {
	t.Helper()
	var resp httpjson.JsonResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleServiceError(t *testing.T) {
	w := httptest.NewRecorder()
	err := srvcerror.New("student_not_found", "student not found").SetHttpStatusCode(http.StatusNotFound)
	httpjson.HandleError(discardLogger(), w, err)

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "student_not_found", resp.ErrCode)
}

func TestHandlePlainErrorHidesDetails(t *testing.T) {
	w := httptest.NewRecorder()
	httpjson.HandleError(discardLogger(), w, errors.New("disk on fire"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "disk on fire")
}

func TestDecodeJson(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`))
	var dst struct{ A int }
	require.NoError(t, httpjson.DecodeJson(r, &dst))
	assert.Equal(t, 1, dst.A)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	err := httpjson.DecodeJson(r, &dst)
	assert.True(t, srvcerror.HasCode(err, "invalid_json"))
}
