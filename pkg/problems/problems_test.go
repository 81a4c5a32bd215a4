package problems

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payrouter/pkg/connectors"
)

func TestBase(t *testing.T) {
	t.Setenv("PROBLEM_BASE_URL", "")
	t.Setenv("BASE_PUBLIC_URL", "https://pay.example/")
	assert.Equal(t, "https://pay.example/problems/x", Type("x"))

	t.Setenv("PROBLEM_BASE_URL", "https://errs.example/p/")
	assert.Equal(t, "https://errs.example/p/x", Type("x"))
}

func TestWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, http.StatusForbidden, "insufficient-scope", "Insufficient scope", "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var p Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "Insufficient scope", p.Title)
	assert.Equal(t, http.StatusForbidden, p.Status)
}

func TestFromConnectorError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{connectors.NotImplemented("get_url method"), http.StatusNotImplemented, "NOT_IMPLEMENTED"},
		{connectors.MissingRequiredField("card_holder_name"), http.StatusUnprocessableEntity, "MISSING_REQUIRED_FIELD"},
		{connectors.InvalidConnectorName("nope"), http.StatusBadRequest, "INVALID_CONNECTOR_NAME"},
		{connectors.FailedToObtainAuthType(), http.StatusConflict, "FAILED_TO_OBTAIN_AUTH_TYPE"},
		{fmt.Errorf("authorize via x: %w", connectors.TransportError(errors.New("reset"))), http.StatusBadGateway, "TRANSPORT_ERROR"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		p := FromConnectorError(tc.err)
		assert.Equal(t, tc.status, p.Status, tc.code)
		assert.Equal(t, tc.code, p.Extra["code"])
	}
	assert.Equal(t, true, FromConnectorError(connectors.TransportError(errors.New("x"))).Extra["retryable"])
}
