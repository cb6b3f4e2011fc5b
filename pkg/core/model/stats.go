package model

// PoolStats is a snapshot of the connections pool counters.
// Counters are cumulative since the pool creation; InUse, Open, and
// Idle describe the moment of the snapshot.
type PoolStats struct {
	Dialect    string `json:"dialect"`
	MaxSize    int    `json:"max_size"`
	Open       int    `json:"open"`
	Idle       int    `json:"idle"`
	InUse      int64  `json:"in_use"`
	Acquired   int64  `json:"acquired"`
	Released   int64  `json:"released"`
	Exhausted  int64  `json:"exhausted"`
	Begun      int64  `json:"begun"`
	Committed  int64  `json:"committed"`
	RolledBack int64  `json:"rolled_back"`
	Closed     bool   `json:"closed"`
}
