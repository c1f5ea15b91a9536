package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/coffeeguard/internal/compiler"
	"github.com/listenupapp/coffeeguard/internal/config"
	"github.com/listenupapp/coffeeguard/internal/guard"
	"github.com/listenupapp/coffeeguard/internal/inspector"
	"github.com/listenupapp/coffeeguard/internal/logger"
	"github.com/listenupapp/coffeeguard/internal/runner"
)

// ProvideCompiler provides the CoffeeScript compiler.
func ProvideCompiler(i do.Injector) (*compiler.Coffee, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return compiler.New(cfg.Compiler.Command, log.Logger)
}

// ProvideInspector provides the batch inspector.
func ProvideInspector(i do.Injector) (*inspector.Inspector, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return inspector.New(log.Logger), nil
}

// ProvideRunner provides the compile runner.
func ProvideRunner(i do.Injector) (*runner.Runner, error) {
	c := do.MustInvoke[*compiler.Coffee](i)
	log := do.MustInvoke[*logger.Logger](i)

	return runner.New(c, log.Logger), nil
}

// ProvideGuard provides the pipeline controller.
func ProvideGuard(i do.Injector) (*guard.Guard, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	insp := do.MustInvoke[*inspector.Inspector](i)
	run := do.MustInvoke[*runner.Runner](i)

	overrides, err := cfg.Guard.Overrides()
	if err != nil {
		return nil, err
	}

	g := guard.New(overrides, insp, run, log.Logger, guard.WithRoot(cfg.Watcher.Root))
	if len(g.Watchers()) == 0 {
		log.Warn("no watch patterns configured, nothing will be compiled (set -input or -watch)")
	}

	return g, nil
}
