// Package poolrs realizes the connections pool resource which reports
// the pool counters for monitoring.
package poolrs

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/momeni/ormysql/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/ormysql/pkg/core/repo"
)

type resource struct {
	stats repo.StatsReporter
}

// Register adds the GET request to /pool/stats which returns a
// snapshot of the sr pool counters.
func Register(r *gin.RouterGroup, sr repo.StatsReporter) {
	rs := &resource{stats: sr}
	r.GET("pool/stats", rs.GetStats)
}

func (rs *resource) GetStats(c *gin.Context) {
	b, err := json.Marshal(rs.stats.Stats())
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", b)
}
