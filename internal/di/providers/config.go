// Package providers contains dependency injection providers for coffeeguard.
package providers

import (
	"os"

	"github.com/samber/do/v2"

	"github.com/listenupapp/coffeeguard/internal/config"
	"github.com/listenupapp/coffeeguard/internal/logger"
)

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
		NoColor:     os.Getenv("NO_COLOR") != "",
	})

	log.Debug("configuration loaded",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"root", cfg.Watcher.Root,
		"compiler", cfg.Compiler.Command,
		"livereload", cfg.LiveReload.Addr,
	)

	return log, nil
}
