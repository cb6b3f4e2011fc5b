// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package gormdb

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/momeni/ormysql/pkg/core/cerr"
	"github.com/momeni/ormysql/pkg/core/log"
	"github.com/momeni/ormysql/pkg/core/model"
	"github.com/momeni/ormysql/pkg/core/repo"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// Manager owns the connection settings and the lazily created pool
// which is built from them. At most one pool is alive per Manager.
// All methods are safe to be called concurrently.
type Manager struct {
	mu       sync.RWMutex
	settings *Settings // nil until configured
	dialect  Dialect
	pool     *Pool
	closing  *Pool // draining pool, it still holds leases
	creating bool
	closes   uint64 // number of Close calls, invalidates creations

	creation singleflight.Group

	hookOnce     sync.Once
	hooks        atomic.Int32
	notify       func(c chan<- os.Signal)
	shutdown     chan struct{}
	shutdownOnce sync.Once
	hookDone     chan struct{}
}

var _ repo.Pool = (*Manager)(nil)

// NewManager instantiates an unconfigured Manager.
func NewManager() *Manager {
	return &Manager{
		notify:   notifyTermination,
		shutdown: make(chan struct{}),
		hookDone: make(chan struct{}),
	}
}

// Configure validates s and keeps a normalized copy of it for creating
// the pool later. It performs no I/O. Configure may be called again
// (and the last call wins) as long as no pool is alive, being created,
// or draining, otherwise cerr.ErrConfigurationLocked is returned.
// If s.Autoclose is enabled, the shutdown hook is registered too.
func (m *Manager) Configure(s Settings) error {
	d, err := LookupDialect(s.Dialect)
	if err != nil {
		return err
	}
	ns, err := s.normalize(d)
	if err != nil {
		return err
	}
	m.mu.Lock()
	if m.pool != nil || m.creating || m.closing != nil {
		m.mu.Unlock()
		return cerr.ErrConfigurationLocked
	}
	m.settings, m.dialect = &ns, d
	m.mu.Unlock()
	log.Info(context.Background(), "database is configured", log.Valuer("settings", ns))
	if *ns.Autoclose {
		m.RegisterShutdownHook()
	}
	return nil
}

// Settings returns the normalized settings of m, or
// cerr.ErrNotConfigured if Configure was not called yet.
func (m *Manager) Settings() (Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.settings == nil {
		return Settings{}, cerr.ErrNotConfigured
	}
	return *m.settings, nil
}

// Pool returns the shared pool, creating it on the first call.
// Concurrent first callers share one creation attempt and observe its
// pool or its error. The creation is bounded by ConnectTimeout and is
// not cancelled with ctx; ctx only bounds the wait of this caller.
// While a closed pool drains, cerr.ErrPoolClosed is returned.
func (m *Manager) Pool(ctx context.Context) (*Pool, error) {
	m.mu.RLock()
	p, draining, configured := m.pool, m.closing != nil, m.settings != nil
	m.mu.RUnlock()
	if p != nil {
		return p, nil
	}
	if draining {
		return nil, cerr.ErrPoolClosed
	}
	if !configured {
		return nil, cerr.ErrNotConfigured
	}
	cctx := context.WithoutCancel(ctx)
	ch := m.creation.DoChan("pool", func() (any, error) {
		return m.create(cctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Pool), nil
	}
}

func (m *Manager) create(ctx context.Context) (*Pool, error) {
	m.mu.Lock()
	if m.pool != nil {
		p := m.pool
		m.mu.Unlock()
		return p, nil
	}
	if m.closing != nil {
		m.mu.Unlock()
		return nil, cerr.ErrPoolClosed
	}
	if m.settings == nil {
		m.mu.Unlock()
		return nil, cerr.ErrNotConfigured
	}
	s, d, gen := *m.settings, m.dialect, m.closes
	m.creating = true
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.ConnectTimeout)
	defer cancel()
	p, err := m.open(ctx, s, d)

	m.mu.Lock()
	m.creating = false
	closed := m.closes != gen
	if err == nil && !closed {
		m.pool = p
	}
	m.mu.Unlock()
	if err == nil && closed {
		log.Warn(ctx, "pool was closed while being created, discarding it")
		if cErr := p.Close(ctx); cErr != nil {
			log.Error(ctx, "closing discarded pool", log.Err("err", cErr))
		}
		return nil, cerr.ErrPoolClosed
	}
	if err != nil {
		log.Error(ctx, "creating connections pool", log.Err("err", err))
		return nil, err
	}
	log.Info(ctx, "connections pool is created", log.Valuer("settings", s))
	return p, nil
}

// open creates a pool. If the database is missing, it is created and
// opening is retried once.
func (m *Manager) open(ctx context.Context, s Settings, d Dialect) (*Pool, error) {
	p, err := newPool(ctx, s, d)
	if err == nil {
		return p, nil
	}
	if !d.IsUnknownDatabase(err) {
		return nil, fmt.Errorf("%w: %w", cerr.ErrPoolCreationFailed, err)
	}
	log.Warn(
		ctx, "database does not exist, creating it",
		slog.String("name", s.Name), log.Err("err", err),
	)
	if _, cErr := createDatabase(ctx, s, d); cErr != nil {
		return nil, fmt.Errorf(
			"%w: auto-creating database %q: %w (after: %w)",
			cerr.ErrPoolCreationFailed, s.Name, cErr, err,
		)
	}
	p, rErr := newPool(ctx, s, d)
	if rErr != nil {
		return nil, fmt.Errorf(
			"%w: retrying after auto-creating database %q: %w",
			cerr.ErrPoolCreationFailed, s.Name, rErr,
		)
	}
	return p, nil
}

// createDatabase connects to the server without selecting the s.Name
// database and creates it unless it exists.
func createDatabase(ctx context.Context, s Settings, d Dialect) (bool, error) {
	admin, err := gorm.Open(d.Dialector(s, false), &gorm.Config{
		Logger: NewLogger(s.SlowThreshold),
	})
	defer closeGORM(admin)
	if err != nil {
		return false, fmt.Errorf("connecting without database: %w", err)
	}
	created, err := d.CreateDatabase(ctx, admin, s.Name)
	if err != nil {
		return false, fmt.Errorf("creating database: %w", err)
	}
	log.Info(
		ctx, "database is ensured",
		slog.String("name", s.Name), slog.Bool("created", created),
	)
	return created, nil
}

// CreateDatabase creates the configured database unless it exists.
// It does not need (nor create) the pool.
func (m *Manager) CreateDatabase(ctx context.Context) (created bool, err error) {
	m.mu.RLock()
	if m.settings == nil {
		m.mu.RUnlock()
		return false, cerr.ErrNotConfigured
	}
	s, d := *m.settings, m.dialect
	m.mu.RUnlock()
	ctx, cancel := context.WithTimeout(ctx, s.ConnectTimeout)
	defer cancel()
	return createDatabase(ctx, s, d)
}

// Acquire leases a connection from the shared pool. See Pool.Acquire.
func (m *Manager) Acquire(ctx context.Context) (*Lease, error) {
	p, err := m.Pool(ctx)
	if err != nil {
		return nil, err
	}
	return p.Acquire(ctx)
}

// Conn runs f with a session of a fresh lease. See Pool.Conn.
func (m *Manager) Conn(ctx context.Context, f repo.ConnHandler) error {
	p, err := m.Pool(ctx)
	if err != nil {
		return err
	}
	return p.Conn(ctx, f)
}

// Tx runs f in a transaction of a fresh lease. See Pool.Tx.
func (m *Manager) Tx(ctx context.Context, f repo.TxHandler) error {
	p, err := m.Pool(ctx)
	if err != nil {
		return err
	}
	return p.Tx(ctx, f)
}

// Once runs f on a fresh lease. See Pool.Once.
func (m *Manager) Once(ctx context.Context, f repo.QueryHandler) error {
	p, err := m.Pool(ctx)
	if err != nil {
		return err
	}
	return p.Once(ctx, f)
}

// Stats returns the counters of the alive pool. Without a pool, only
// the configured dialect and size are reported and Closed is set.
func (m *Manager) Stats() model.PoolStats {
	m.mu.RLock()
	p, s := m.pool, m.settings
	m.mu.RUnlock()
	if p != nil {
		return p.Stats()
	}
	st := model.PoolStats{Closed: true}
	if s != nil {
		st.Dialect, st.MaxSize = s.Dialect, s.MaxSize
	}
	return st
}

// Close closes the alive pool, if any. See Pool.Close for the drain
// policy. Calling Close without a pool is a no-op, except that a pool
// which is being created meanwhile is discarded as soon as it opens.
// A concurrent Close waits for the drain of the first one.
// While the pool drains, Pool fails with cerr.ErrPoolClosed and
// Configure with cerr.ErrConfigurationLocked. Afterwards, the next Pool
// call creates a new pool and Configure is accepted again.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	m.closes++
	p := m.pool
	if p == nil {
		p = m.closing
	} else {
		m.pool, m.closing = nil, p
	}
	m.mu.Unlock()
	if p == nil {
		return nil
	}
	err := p.Close(ctx)
	m.mu.Lock()
	if m.closing == p {
		m.closing = nil
	}
	m.mu.Unlock()
	return err
}
