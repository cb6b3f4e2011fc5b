//go:build unix

package gormdb_test

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"testing"
	"time"

	"github.com/momeni/ormysql/internal/test/sqlitedb"
	"github.com/momeni/ormysql/pkg/adapter/db/gormdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The hook must consume the signal. Delivering SIGUSR1 to the process
// again would terminate the test binary.
func TestShutdownHookConsumesSignal(t *testing.T) {
	ctx := context.Background()
	m := gormdb.NewManager()
	subscribed := make(chan struct{})
	gormdb.SetNotify(m, func(c chan<- os.Signal) {
		signal.Notify(c, syscall.SIGUSR1)
		close(subscribed)
	})
	s := sqlitedb.Settings(t)
	autoclose := true
	s.Autoclose = &autoclose
	require.NoError(t, m.Configure(s))
	t.Cleanup(func() {
		_ = m.Close(ctx)
	})
	_, err := m.Pool(ctx)
	require.NoError(t, err)
	<-subscribed

	// keeps SIGUSR1 away from its default action after the hook stops
	keep := make(chan os.Signal, 4)
	signal.Notify(keep, syscall.SIGUSR1)
	defer signal.Stop(keep)

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))
	assert.Eventually(t, func() bool {
		return m.Stats().Closed
	}, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, m.Shutdown(ctx))

	select {
	case <-keep: // the original delivery
	case <-time.After(5 * time.Second):
		t.Fatal("SIGUSR1 was not delivered")
	}
	select {
	case <-keep:
		t.Fatal("the hook raised SIGUSR1 again")
	case <-time.After(200 * time.Millisecond):
	}
}
