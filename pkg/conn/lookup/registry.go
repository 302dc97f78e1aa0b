// Package lookup provides an in-process directory service mapping string names
// to objects. It is the resolution backend the connection provider consults when
// it is configured with a lookup name instead of an injected source.
package lookup

import (
	"io"
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/tigerroll/mooring/pkg/support/util/exception"
	"github.com/tigerroll/mooring/pkg/support/util/logger"
)

const moduleName = "lookup"

// Registry is a mutex-guarded name-to-object directory. It implements the
// provider's LookupService contract and owns nothing beyond the bindings table;
// bound values keep their own lifecycles until Close is called.
type Registry struct {
	mu       sync.RWMutex
	bindings map[string]interface{}
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		bindings: make(map[string]interface{}),
	}
}

// Bind associates name with value, replacing any previous binding.
func (r *Registry) Bind(name string, value interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.bindings[name]; exists {
		logger.Warnf("Binding for '%s' already registered. Overwriting.", name)
	}
	r.bindings[name] = value
}

// Unbind removes the binding for name, if present.
func (r *Registry) Unbind(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bindings, name)
}

// Locate resolves name into the bound object. An unknown name is a
// configuration error; the provider treats a nil result the same way.
func (r *Registry) Locate(name string) (interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.bindings[name]
	if !ok {
		return nil, exception.NewProviderErrorf(moduleName, exception.KindConfiguration, "no binding registered under name '%s'", name)
	}
	return v, nil
}

// Names returns the bound names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.bindings))
	for name := range r.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes every bound value that implements io.Closer and clears the
// bindings table. Failures are aggregated; closing continues past them.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result *multierror.Error
	for name, v := range r.bindings {
		if closer, ok := v.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				logger.Errorf("Failed to close binding '%s': %v", name, err)
				result = multierror.Append(result, err)
			}
		}
		delete(r.bindings, name)
	}
	return result.ErrorOrNil()
}
