package plugins

import (
	"fmt"
	"sort"
	"sync"
)

var (
	// plugins is the package-level registry map, keyed by manifest name
	plugins = make(map[string]Plugin)
	// mu protects concurrent access to plugins map
	mu sync.RWMutex
)

// Register adds a plugin to the registry
func Register(plugin Plugin) error {
	if plugin == nil {
		return fmt.Errorf("cannot register nil plugin")
	}

	manifest := plugin.Manifest()
	if manifest == nil {
		return fmt.Errorf("plugin has nil manifest")
	}
	if errs := ValidateManifest(manifest); len(errs) > 0 {
		return fmt.Errorf("invalid manifest for %q: %v", manifest.Name, errs)
	}

	mu.Lock()
	defer mu.Unlock()

	if _, exists := plugins[manifest.Name]; exists {
		return fmt.Errorf("plugin already registered: %s", manifest.Name)
	}

	plugins[manifest.Name] = plugin
	return nil
}

// MustRegister is like Register but panics on error. Intended for init().
func MustRegister(plugin Plugin) {
	if err := Register(plugin); err != nil {
		panic(err)
	}
}

// Unregister removes a plugin from the registry
func Unregister(name string) error {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := plugins[name]; !exists {
		return fmt.Errorf("plugin not found: %s", name)
	}

	delete(plugins, name)
	return nil
}

// Get retrieves a plugin by name
func Get(name string) (Plugin, error) {
	mu.RLock()
	defer mu.RUnlock()

	plugin, exists := plugins[name]
	if !exists {
		return nil, fmt.Errorf("plugin not found: %s", name)
	}

	return plugin, nil
}

// Has checks if a plugin is registered
func Has(name string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, exists := plugins[name]
	return exists
}

// List returns all registered plugins sorted by name
func List() []Plugin {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]Plugin, 0, len(plugins))
	for _, plugin := range plugins {
		result = append(result, plugin)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Manifest().Name < result[j].Manifest().Name
	})
	return result
}

// Count returns the number of registered plugins
func Count() int {
	mu.RLock()
	defer mu.RUnlock()

	return len(plugins)
}

// Clear removes all plugins from the registry
func Clear() {
	mu.Lock()
	defer mu.Unlock()

	plugins = make(map[string]Plugin)
}
