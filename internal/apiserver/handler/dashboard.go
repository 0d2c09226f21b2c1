package handler

import (
	"net/http"

	"github.com/amoylab/choirhub/internal/apiserver/cache"
	"github.com/amoylab/choirhub/internal/apiserver/database"
	"github.com/amoylab/choirhub/internal/common/errorx"
	"github.com/gin-gonic/gin"
)

type Dashboard struct {
	stats *cache.StatsCache
	errs  *errorx.ErrorHandler
}

func NewDashboard(stats *cache.StatsCache, errs *errorx.ErrorHandler) *Dashboard {
	return &Dashboard{stats: stats, errs: errs}
}

func (h *Dashboard) Stats(c *gin.Context) {
	stats, err := h.stats.Get(c.Request.Context())
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type Health struct {
	db database.Database
}

func NewHealth(db database.Database) *Health {
	return &Health{db: db}
}

// Health answers load balancer probes; the database is pinged on ?deep=true
func (h *Health) Health(c *gin.Context) {
	if c.Query("deep") == "true" {
		if err := h.db.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
