// Package components holds the built-in pipe components a generated
// program can reference by config type name, plus the registry user
// packages extend with their own implementations. Every component is
// materialized in two steps: decode a config value from a YAML file (or
// defaults when no path is given), then construct the component from it.
package components

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	pberrors "github.com/pipebase/pipebase/pkg/errors"
	"github.com/pipebase/pipebase/runtime/kernel"
)

// LoadConfig decodes path into out, leaving out's field defaults untouched
// when path is empty — the "load from file or defaults" half of the
// two-step build.
func LoadConfig(path string, out any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode config %q: %w", path, err)
	}
	return nil
}

// Builder materializes one component from its config file path. The
// returned value must implement the capability interface matching the pipe
// kind it is wired into; the typed lookup functions below assert that.
type Builder func(path string) (any, error)

var registry = struct {
	mu sync.RWMutex
	m  map[string]Builder
}{m: make(map[string]Builder)}

// Register associates a config type name with a Builder. User packages
// call this from init() for their own components; generated code then
// reaches them through the typed lookups below.
func Register(configType string, b Builder) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.m[configType] = b
}

func build(pipeName, configType, path string) (any, error) {
	registry.mu.RLock()
	b, ok := registry.m[configType]
	registry.mu.RUnlock()
	if !ok {
		return nil, pberrors.NewComponentInitError(pipeName, fmt.Errorf("no component registered for config type %q", configType))
	}
	v, err := b(path)
	if err != nil {
		return nil, pberrors.NewComponentInitError(pipeName, err)
	}
	return v, nil
}

func assertAs[C any](pipeName, configType string, v any, err error) (C, error) {
	var zero C
	if err != nil {
		return zero, err
	}
	c, ok := v.(C)
	if !ok {
		return zero, pberrors.NewComponentInitError(pipeName, fmt.Errorf("component %q built %T, which does not implement the pipe's capability", configType, v))
	}
	return c, nil
}

// BuildListener resolves configType through the registry and asserts the
// result is a Listener over T; its siblings below do the same per kind.
func BuildListener[T any](pipeName, configType, path string) (kernel.Listener[T], error) {
	v, err := build(pipeName, configType, path)
	return assertAs[kernel.Listener[T]](pipeName, configType, v, err)
}

func BuildPoller[T any](pipeName, configType, path string) (kernel.Poller[T], error) {
	v, err := build(pipeName, configType, path)
	return assertAs[kernel.Poller[T]](pipeName, configType, v, err)
}

func BuildMapper[T, U any](pipeName, configType, path string) (kernel.Mapper[T, U], error) {
	v, err := build(pipeName, configType, path)
	return assertAs[kernel.Mapper[T, U]](pipeName, configType, v, err)
}

func BuildCollector[T, U any](pipeName, configType, path string) (kernel.Collector[T, U], error) {
	v, err := build(pipeName, configType, path)
	return assertAs[kernel.Collector[T, U]](pipeName, configType, v, err)
}

func BuildStreamer[T, U any](pipeName, configType, path string) (kernel.Streamer[T, U], error) {
	v, err := build(pipeName, configType, path)
	return assertAs[kernel.Streamer[T, U]](pipeName, configType, v, err)
}

func BuildSelector[T any](pipeName, configType, path string) (kernel.Selector[T], error) {
	v, err := build(pipeName, configType, path)
	return assertAs[kernel.Selector[T]](pipeName, configType, v, err)
}

func BuildExporter[T any](pipeName, configType, path string) (kernel.Exporter[T], error) {
	v, err := build(pipeName, configType, path)
	return assertAs[kernel.Exporter[T]](pipeName, configType, v, err)
}
