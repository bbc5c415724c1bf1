package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// healthTimeout bounds the ping issued by GET /health/db.
const healthTimeout = 5 * time.Second

// PoolStats is the connection pool snapshot reported by /health/db and fed
// into the pool gauges.
type PoolStats struct {
	TotalConns    int32   `json:"total_conns"`
	IdleConns     int32   `json:"idle_conns"`
	AcquiredConns int32   `json:"acquired_conns"`
	MaxConns      int32   `json:"max_conns"`
	Saturation    float64 `json:"saturation"`
}

// StatsOf reads the current statistics of pool.
func StatsOf(pool *pgxpool.Pool) PoolStats {
	s := pool.Stat()
	return newPoolStats(s.TotalConns(), s.IdleConns(), s.AcquiredConns(), s.MaxConns())
}

func newPoolStats(total, idle, acquired, maxConns int32) PoolStats {
	stats := PoolStats{TotalConns: total, IdleConns: idle, AcquiredConns: acquired, MaxConns: maxConns}
	if maxConns > 0 {
		stats.Saturation = float64(acquired) / float64(maxConns)
	}
	return stats
}

// HealthHandler serves GET /health/db for the postgres parameter store.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return healthHandler(pool.Ping, func() PoolStats { return StatsOf(pool) })
}

func healthHandler(ping func(context.Context) error, stats func() PoolStats) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()

		if err := ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
				"status":  "unhealthy",
				"backend": "postgres",
				"error":   err.Error(),
				"pool":    stats(),
			})
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  "healthy",
			"backend": "postgres",
			"pool":    stats(),
		})
	}
}
