package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/listenupapp/coffeeguard/internal/config"
	"github.com/listenupapp/coffeeguard/internal/livereload"
	"github.com/listenupapp/coffeeguard/internal/logger"
	"github.com/listenupapp/coffeeguard/internal/ratelimit"
)

const (
	// Connects allowed per remote host. Browsers reconnect on every page load.
	connectRPS   = 2
	connectBurst = 10
)

// LiveReloadHandle owns the optional live reload server. When live reload
// is disabled the handle only carries a no-op emitter.
type LiveReloadHandle struct {
	Manager *livereload.Manager
	limiter *ratelimit.KeyedRateLimiter
	cancel  context.CancelFunc
	done    chan struct{}
}

// Emitter returns where batch results should be sent.
func (h *LiveReloadHandle) Emitter() livereload.Emitter {
	if h.Manager == nil {
		return livereload.NewNoopEmitter()
	}
	return h.Manager
}

// Shutdown implements do.Shutdownable.
func (h *LiveReloadHandle) Shutdown() error {
	if h.cancel == nil {
		return nil
	}
	h.cancel()

	select {
	case <-h.done:
	case <-time.After(shutdownTimeout):
	}
	h.limiter.Stop()
	return nil
}

// ProvideLiveReload provides the live reload server and starts it when an
// address is configured.
func ProvideLiveReload(i do.Injector) (*LiveReloadHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.LiveReload.Enabled() {
		return &LiveReloadHandle{}, nil
	}

	manager := livereload.NewManager(log.Logger)
	limiter := ratelimit.New(connectRPS, connectBurst)
	handler := livereload.NewHandler(manager, limiter, log.Logger)
	server := livereload.NewServer(cfg.LiveReload.Addr, manager, handler, log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		if err := server.ListenAndServe(ctx); err != nil {
			log.Error("live reload server error", "error", err)
		}
	}()

	return &LiveReloadHandle{
		Manager: manager,
		limiter: limiter,
		cancel:  cancel,
		done:    done,
	}, nil
}
