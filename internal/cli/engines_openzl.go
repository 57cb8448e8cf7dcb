//go:build openzl && cgo

package cli

import (
	"github.com/arloliu/codecbench/config"
	"github.com/arloliu/codecbench/engine"
	"github.com/arloliu/codecbench/engine/openzl"
)

func init() {
	engineFactories[config.EngineOpenZL] = func() (engine.Engine, error) {
		return openzl.New(), nil
	}
}
