package openapi

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
)

// Operation is a single HTTP operation surfaced in the document.
type Operation struct {
	Method      string         `json:"method"`
	Path        string         `json:"path"`
	OperationID string         `json:"operationId,omitempty"`
	Summary     string         `json:"summary,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Scopes      []string       `json:"x-required-scopes,omitempty"`
	RequestBody any            `json:"requestBody,omitempty"`
	Responses   map[string]any `json:"responses"`
}

// Registry holds the operations of one service, typically one per
// (connector, flow) binding.
type Registry struct {
	mu  sync.RWMutex
	Ops []Operation
}

func NewRegistry() *Registry { return &Registry{Ops: []Operation{}} }

func (r *Registry) Register(op Operation) {
	op.Method = strings.ToLower(op.Method)
	r.mu.Lock()
	r.Ops = append(r.Ops, op)
	r.mu.Unlock()
}

// Build produces an OpenAPI 3.1 document of the registered operations.
// scopes maps each scope name to its description.
func (r *Registry) Build(serviceName, version string, scopes map[string]string) map[string]any {
	r.mu.RLock()
	ops := append([]Operation(nil), r.Ops...)
	r.mu.RUnlock()
	sort.SliceStable(ops, func(i, j int) bool { return ops[i].Path < ops[j].Path })

	paths := map[string]any{}
	for _, op := range ops {
		if _, ok := paths[op.Path]; !ok {
			paths[op.Path] = map[string]any{}
		}
		m := map[string]any{
			"summary":   op.Summary,
			"tags":      op.Tags,
			"responses": op.Responses,
		}
		if op.OperationID != "" {
			m["operationId"] = op.OperationID
		}
		if len(op.Scopes) > 0 {
			m["x-required-scopes"] = op.Scopes
		}
		if op.RequestBody != nil {
			m["requestBody"] = op.RequestBody
		}
		paths[op.Path].(map[string]any)[op.Method] = m
	}
	return map[string]any{
		"openapi": "3.1.0",
		"info":    map[string]any{"title": serviceName, "version": version},
		"paths":   paths,
		"components": map[string]any{
			"securitySchemes": map[string]any{
				"bearer": map[string]any{
					"type":         "http",
					"scheme":       "bearer",
					"bearerFormat": "JWT",
					"x-scopes":     scopes,
				},
			},
		},
		"security": []map[string]any{{"bearer": []string{}}},
	}
}

// ServeHandler returns an HTTP handler that serves the built document.
func (r *Registry) ServeHandler(serviceName, version string, scopes map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(r.Build(serviceName, version, scopes))
	}
}
