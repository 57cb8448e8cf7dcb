package cli

import (
	"fmt"
	"slices"

	"github.com/arloliu/codecbench/config"
	"github.com/arloliu/codecbench/engine"
	"github.com/arloliu/codecbench/engine/zlref"
)

// engineFactories holds the engines compiled into this binary. The native
// OpenZL engine registers itself when built with the openzl tag.
var engineFactories = map[string]func() (engine.Engine, error){
	config.EngineReference: func() (engine.Engine, error) {
		e, err := zlref.New()
		if err != nil {
			return nil, err
		}

		return e, nil
	},
}

func newEngine(name string) (engine.Engine, error) {
	factory, ok := engineFactories[name]
	if !ok {
		return nil, fmt.Errorf("engine %q is not available in this build (available: %v)", name, availableEngines())
	}

	return factory()
}

func availableEngines() []string {
	names := make([]string, 0, len(engineFactories))
	for name := range engineFactories {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}
