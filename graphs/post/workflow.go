package post

import (
	"github.com/postgenhq/postgen/graph"
	"github.com/postgenhq/postgen/workflow"
)

type linearBuilder struct{}

func (linearBuilder) Name() string { return LinearName }

func (linearBuilder) Description() string {
	return "Fixed research -> summarize -> draft -> verify pipeline with a bounded revision loop."
}

func (linearBuilder) NewExecutor(cfg workflow.Config) (*graph.Executor, error) {
	return NewExecutor(LinearName, cfg)
}

type supervisedBuilder struct{}

func (supervisedBuilder) Name() string { return SupervisedName }

func (supervisedBuilder) Description() string {
	return "Adaptive routing from state shape, optionally advised by a routing model with deterministic fallback."
}

func (supervisedBuilder) NewExecutor(cfg workflow.Config) (*graph.Executor, error) {
	return NewExecutor(SupervisedName, cfg)
}

func init() {
	workflow.MustRegister(linearBuilder{})
	workflow.MustRegister(supervisedBuilder{})
}
