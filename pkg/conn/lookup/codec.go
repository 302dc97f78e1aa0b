package lookup

import (
	"reflect"

	"github.com/tigerroll/mooring/pkg/conn/provider"
	"github.com/tigerroll/mooring/pkg/support/util/exception"
)

// registryToken is the reference token under which the registry captures itself.
const registryToken = "@registry"

// RegistryCodec captures collaborators as bind-name reference tokens and
// restores them by locating the token in the registry of the restoring
// environment. A looked-up collaborator is therefore never persisted, only
// its name; restoring in a different process resolves against that process's
// own bindings.
type RegistryCodec struct {
	registry *Registry
}

// NewRegistryCodec creates a RegistryCodec backed by the given registry.
func NewRegistryCodec(registry *Registry) *RegistryCodec {
	return &RegistryCodec{registry: registry}
}

// Capture encodes v as its bind name. The registry itself is captured under a
// reserved token. A collaborator that is not bound cannot be captured.
func (c *RegistryCodec) Capture(v interface{}) ([]byte, error) {
	if v == nil {
		return nil, exception.NewProviderErrorf(moduleName, exception.KindConfiguration, "cannot capture nil collaborator")
	}
	if v == interface{}(c.registry) {
		return []byte(registryToken), nil
	}
	for _, name := range c.registry.Names() {
		bound, err := c.registry.Locate(name)
		if err != nil {
			continue
		}
		// Comparing interfaces holding non-comparable values panics, so skip
		// any binding whose dynamic type cannot be compared.
		if bound == nil || !reflect.TypeOf(bound).Comparable() {
			continue
		}
		if bound == v {
			return []byte(name), nil
		}
	}
	return nil, exception.NewProviderErrorf(moduleName, exception.KindConfiguration, "collaborator is not bound in the registry and cannot be captured by reference")
}

// Restore decodes a reference token back into the live collaborator bound in
// this environment's registry.
func (c *RegistryCodec) Restore(token []byte) (interface{}, error) {
	name := string(token)
	if name == registryToken {
		return c.registry, nil
	}
	return c.registry.Locate(name)
}

var _ provider.CollaboratorCodec = (*RegistryCodec)(nil)
