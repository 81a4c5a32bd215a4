// Package adapters registers the built-in connector integrations.
package adapters

import (
	"payrouter/internal/adapters/creditbanco"
	"payrouter/internal/adapters/payrabbit"
	"payrouter/pkg/connectors"
)

// Builtin returns every connector shipped with the router.
func Builtin() []connectors.Adapter {
	return []connectors.Adapter{
		creditbanco.New(),
		payrabbit.New(),
	}
}

// NewRegistry returns a registry with all built-in connectors registered.
func NewRegistry() *connectors.Registry {
	reg := connectors.NewRegistry()
	for _, a := range Builtin() {
		reg.Register(a)
	}
	return reg
}
