package agent

import (
	"fmt"
	"sort"
	"sync"
)

// Kind describes the kinds of components that can be registered with
// the package. Experiment configuration files refer to components by
// dotted path, e.g. "revolve.dqn.learner.DQNLearner"; each path is
// registered under the Kind of component it names.
type Kind string

// Available component Kinds
const (
	KindAgent          Kind = "agent"
	KindLearner        Kind = "learner"
	KindLoss           Kind = "loss"
	KindActionSelector Kind = "action_selector"
	KindModel          Kind = "model"
)

var (
	registryMutex sync.RWMutex
	registry      = map[Kind]map[string]interface{}{}
)

// Register registers the component factory at the argument dotted path.
// Each implementing package registers its own components in an init
// function to avoid circular imports. Register panics if path has
// already been registered under kind, since this always indicates a
// programming error.
func Register(kind Kind, path string, factory interface{}) {
	registryMutex.Lock()
	defer registryMutex.Unlock()

	if registry[kind] == nil {
		registry[kind] = make(map[string]interface{})
	}
	if _, exists := registry[kind][path]; exists {
		panic(fmt.Sprintf("register: %v %q registered twice", kind, path))
	}
	registry[kind][path] = factory
}

// Lookup returns the component factory registered at the argument
// dotted path
func Lookup(kind Kind, path string) (interface{}, error) {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	factory, exists := registry[kind][path]
	if !exists {
		return nil, fmt.Errorf("lookup: no such %v %q, registered: %v",
			kind, path, registeredLocked(kind))
	}
	return factory, nil
}

// Registered returns the sorted paths registered under kind
func Registered(kind Kind) []string {
	registryMutex.RLock()
	defer registryMutex.RUnlock()
	return registeredLocked(kind)
}

func registeredLocked(kind Kind) []string {
	paths := make([]string, 0, len(registry[kind]))
	for path := range registry[kind] {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
