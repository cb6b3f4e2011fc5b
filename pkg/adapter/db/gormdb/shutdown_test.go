package gormdb_test

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/momeni/ormysql/internal/test/sqlitedb"
	"github.com/momeni/ormysql/pkg/adapter/db/gormdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSignal is delivered to the hook channel directly.
type fakeSignal struct{}

func (fakeSignal) String() string { return "fake" }
func (fakeSignal) Signal()        {}

func hookedManager(t *testing.T) (*gormdb.Manager, chan chan<- os.Signal, *atomic.Int32) {
	m := gormdb.NewManager()
	subs := make(chan chan<- os.Signal, 4)
	var registered atomic.Int32
	gormdb.SetNotify(m, func(c chan<- os.Signal) {
		registered.Add(1)
		subs <- c
	})
	s := sqlitedb.Settings(t)
	autoclose := true
	s.Autoclose = &autoclose
	require.NoError(t, m.Configure(s))
	t.Cleanup(func() {
		_ = m.Close(context.Background())
	})
	return m, subs, &registered
}

func TestShutdownHookIsRegisteredOnce(t *testing.T) {
	m, _, registered := hookedManager(t)
	s, err := m.Settings()
	require.NoError(t, err)
	require.NoError(t, m.Configure(s))
	m.RegisterShutdownHook()
	assert.Equal(t, int32(1), registered.Load())
}

func TestShutdownHookClosesPoolOnSignal(t *testing.T) {
	ctx := context.Background()
	m, subs, _ := hookedManager(t)
	_, err := m.Pool(ctx)
	require.NoError(t, err)
	require.False(t, m.Stats().Closed)

	c := <-subs
	c <- fakeSignal{}
	assert.Eventually(t, func() bool {
		return m.Stats().Closed
	}, 5*time.Second, 10*time.Millisecond)
	assert.NoError(t, m.Shutdown(ctx), "hook has finished already")
}

func TestShutdownRunsHook(t *testing.T) {
	ctx := context.Background()
	m, _, _ := hookedManager(t)
	_, err := m.Pool(ctx)
	require.NoError(t, err)
	require.NoError(t, m.Shutdown(ctx))
	assert.True(t, m.Stats().Closed)
	assert.NoError(t, m.Shutdown(ctx), "shutting down twice")
}

func TestShutdownWithoutHook(t *testing.T) {
	ctx := context.Background()
	m := sqlitedb.New(t)
	_, err := m.Pool(ctx)
	require.NoError(t, err)
	require.NoError(t, m.Shutdown(ctx))
	assert.True(t, m.Stats().Closed)
}
