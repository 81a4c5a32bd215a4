package openapi

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	r := NewRegistry()
	r.Register(Operation{Method: "POST", Path: "/v1/payments/payrabbit/authorize", Scopes: []string{"payments:write"}, Responses: map[string]any{"200": map[string]any{"description": "ok"}}})
	r.Register(Operation{Method: "GET", Path: "/v1/payments/payrabbit/{id}", Responses: map[string]any{}})

	doc := r.Build("router", "1", map[string]string{"payments:write": "Create payments"})
	assert.Equal(t, "3.1.0", doc["openapi"])
	paths := doc["paths"].(map[string]any)
	require.Contains(t, paths, "/v1/payments/payrabbit/authorize")
	op := paths["/v1/payments/payrabbit/authorize"].(map[string]any)["post"].(map[string]any)
	assert.Equal(t, []string{"payments:write"}, op["x-required-scopes"])
	assert.Contains(t, paths["/v1/payments/payrabbit/{id}"].(map[string]any), "get")
}

func TestServeHandler(t *testing.T) {
	r := NewRegistry()
	r.Register(Operation{Method: "post", Path: "/x", Responses: map[string]any{}})
	rec := httptest.NewRecorder()
	r.ServeHandler("svc", "v", nil)(rec, httptest.NewRequest("GET", "/.well-known/openapi.json", nil))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "svc", doc["info"].(map[string]any)["title"])
}
