package gormdb

import (
	"sync/atomic"

	"github.com/momeni/ormysql/pkg/core/model"
)

type counters struct {
	acquired   atomic.Int64
	released   atomic.Int64
	exhausted  atomic.Int64
	begun      atomic.Int64
	committed  atomic.Int64
	rolledBack atomic.Int64
}

func (c *counters) snapshot() model.PoolStats {
	acquired := c.acquired.Load()
	released := c.released.Load()
	return model.PoolStats{
		InUse:      acquired - released,
		Acquired:   acquired,
		Released:   released,
		Exhausted:  c.exhausted.Load(),
		Begun:      c.begun.Load(),
		Committed:  c.committed.Load(),
		RolledBack: c.rolledBack.Load(),
	}
}
