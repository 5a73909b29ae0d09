package httpresponse

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	errs "typerace/internal/errors"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{errs.ErrLobbyNotFound, http.StatusNotFound},
		{errs.ErrLobbyFull, http.StatusConflict},
		{errs.ErrStaleWrite, http.StatusConflict},
		{errs.ErrInvalidDifficulty, http.StatusBadRequest},
		{errs.Integration("publish", errors.New("connection refused")), http.StatusBadGateway},
		{errs.ErrStatisticsUninitialized, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusFor(tc.err), tc.err.Error())
	}
}

func TestWriteError(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()

	rec := httptest.NewRecorder()
	WriteError(rec, log, errs.ErrLobbyFull)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"Status":409,"Body":{"ErrorDescription":"conflict: lobby is full"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	WriteError(rec, log, errs.Integration("find lobby", errors.New("secret dsn")))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret dsn")

	rec = httptest.NewRecorder()
	WriteError(rec, log, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
