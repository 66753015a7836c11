package tools

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

type Factory func() Tool

var (
	regMu         sync.RWMutex
	toolFactories = map[string]Factory{}
	toolDescs     = map[string]string{}
)

func RegisterTool(name, description string, factory Factory) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("tool name is required")
	}
	if factory == nil {
		return fmt.Errorf("tool factory is required")
	}
	regMu.Lock()
	defer regMu.Unlock()
	if _, exists := toolFactories[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	toolFactories[name] = factory
	toolDescs[name] = strings.TrimSpace(description)
	return nil
}

func MustRegisterTool(name, description string, factory Factory) {
	if err := RegisterTool(name, description, factory); err != nil {
		panic(err)
	}
}

func New(name string) (Tool, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	factory, ok := toolFactories[strings.TrimSpace(name)]
	if !ok {
		return nil, false
	}
	return factory(), true
}

func Names() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(toolFactories))
	for name := range toolFactories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func Describe(name string) string {
	regMu.RLock()
	defer regMu.RUnlock()
	return toolDescs[strings.TrimSpace(name)]
}
