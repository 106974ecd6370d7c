package llm

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Settings is the part of the service configuration a provider is built from.
type Settings struct {
	APIKey string
	Model  string
}

// Factory builds a provider from settings.
type Factory func(Settings) (Provider, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register makes a provider available under name. Provider packages call it from init.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := factories[name]; dup {
		panic("llm: provider registered twice: " + name)
	}
	factories[name] = factory
}

// Names lists the registered providers in order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the provider registered under name.
func New(name string, settings Settings) (Provider, error) {
	mu.RLock()
	factory, ok := factories[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported AI provider %q. Supported: %s", name, strings.Join(Names(), ", "))
	}
	return factory(settings)
}
