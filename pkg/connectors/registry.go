package connectors

import (
	"fmt"
	"sort"
	"sync"
)

type bindingKey struct {
	connector string
	flow      FlowKind
}

// Registry is the capability matrix: which integration serves a given
// (connector, flow) pair. Combinations without a binding resolve to
// Unsupported.
type Registry struct {
	mu           sync.RWMutex
	adapters     map[string]Adapter
	integrations map[bindingKey]any
	webhooks     map[string]IncomingWebhook
}

func NewRegistry() *Registry {
	return &Registry{
		adapters:     map[string]Adapter{},
		integrations: map[bindingKey]any{},
		webhooks:     map[string]IncomingWebhook{},
	}
}

// Register adds an adapter and lets it bind its flows.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	r.adapters[a.ID()] = a
	r.mu.Unlock()
	a.Register(r)
}

// Adapter returns the registered adapter for connector.
func (r *Registry) Adapter(connector string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[connector]
	if !ok {
		return nil, InvalidConnectorName(connector)
	}
	return a, nil
}

// Connectors lists registered connector ids in order.
func (r *Registry) Connectors() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Supports reports whether connector has an explicit binding for flow.
func (r *Registry) Supports(connector string, flow FlowKind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if flow == FlowWebhook {
		_, ok := r.webhooks[connector]
		return ok
	}
	_, ok := r.integrations[bindingKey{connector, flow}]
	return ok
}

// SetWebhooks binds the inbound webhook hooks of connector.
func (r *Registry) SetWebhooks(connector string, w IncomingWebhook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.webhooks[connector] = w
}

// Webhooks returns the webhook hooks of connector, NoWebhooks when it binds
// none.
func (r *Registry) Webhooks(connector string) (IncomingWebhook, error) {
	if _, err := r.Adapter(connector); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if w, ok := r.webhooks[connector]; ok {
		return w, nil
	}
	return NoWebhooks{}, nil
}

// Bind registers integration as the implementation of flow for connector.
func Bind[Req, Resp any](r *Registry, connector string, flow Flow[Req, Resp], integration Integration[Req, Resp]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.integrations[bindingKey{connector, flow.Kind}] = integration
}

// Lookup resolves the integration for (connector, flow). Unknown connectors
// are an error; known connectors without a binding get Unsupported.
func Lookup[Req, Resp any](r *Registry, connector string, flow Flow[Req, Resp]) (Integration[Req, Resp], error) {
	if _, err := r.Adapter(connector); err != nil {
		return nil, err
	}
	r.mu.RLock()
	v, ok := r.integrations[bindingKey{connector, flow.Kind}]
	r.mu.RUnlock()
	if !ok {
		return Unsupported[Req, Resp]{}, nil
	}
	integration, ok := v.(Integration[Req, Resp])
	if !ok {
		return nil, fmt.Errorf("connector %s: %s bound with mismatched payload types", connector, flow.Kind)
	}
	return integration, nil
}
