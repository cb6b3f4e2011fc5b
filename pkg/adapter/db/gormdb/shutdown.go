package gormdb

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/momeni/ormysql/pkg/core/log"
)

func notifyTermination(c chan<- os.Signal) {
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
}

// RegisterShutdownHook arranges for the pool of m to be closed when
// the process receives SIGINT or SIGTERM, or when Shutdown is called.
// Only the first call registers the hook; the later calls are no-ops.
// The subscription is stopped after the first signal, so a repeated
// signal gets its default handling.
func (m *Manager) RegisterShutdownHook() {
	m.hookOnce.Do(func() {
		m.hooks.Add(1)
		sigs := make(chan os.Signal, 1)
		m.notify(sigs)
		go m.awaitShutdown(sigs)
	})
}

func (m *Manager) awaitShutdown(sigs chan os.Signal) {
	select {
	case <-sigs:
	case <-m.shutdown:
	}
	signal.Stop(sigs)
	ctx := context.Background()
	log.Info(ctx, "closing connections pool before exit")
	if err := m.Close(ctx); err != nil {
		log.Error(ctx, "closing connections pool", log.Err("err", err))
	}
	close(m.hookDone)
}

// Shutdown runs the registered shutdown hook and waits for it to
// close the pool or for ctx to end. Without a registered hook, it
// closes the pool directly.
func (m *Manager) Shutdown(ctx context.Context) error {
	if m.hooks.Load() == 0 {
		return m.Close(ctx)
	}
	m.shutdownOnce.Do(func() {
		close(m.shutdown)
	})
	select {
	case <-m.hookDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
