// Package inject provides a small dependency injection container used as the
// service locator for parameter providers and handler invocation.
package inject

import (
	"fmt"
	"reflect"
	"sync"
)

// Container is a type-keyed service registry.
type Container struct {
	mu       sync.RWMutex
	services map[reflect.Type]any
}

// New creates an empty container.
func New() *Container {
	return &Container{
		services: make(map[reflect.Type]any),
	}
}

// Register adds a service to the container, keyed by its concrete type.
func Register[T any](c *Container, service T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.services[reflect.TypeOf(service)] = service
}

// Get retrieves a service by type.
func Get[T any](c *Container) (T, error) {
	var zero T
	t := reflect.TypeOf((*T)(nil)).Elem()

	service, err := c.Resolve(t)
	if err != nil {
		return zero, err
	}
	if s, ok := service.(T); ok {
		return s, nil
	}
	return zero, fmt.Errorf("service %v not found", t)
}

// MustGet retrieves a service by type, panicking if it is not registered.
func MustGet[T any](c *Container) T {
	service, err := Get[T](c)
	if err != nil {
		panic(err)
	}
	return service
}

// Resolve retrieves a service by reflect.Type. Interface types match the
// first registered service assignable to them.
func (c *Container) Resolve(t reflect.Type) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if service, ok := c.services[t]; ok {
		return service, nil
	}
	if t.Kind() == reflect.Interface {
		for st, service := range c.services {
			if st.Implements(t) {
				return service, nil
			}
		}
	}
	return nil, fmt.Errorf("service %v not found", t)
}
