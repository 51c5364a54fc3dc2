package database

import (
	"context"
	"time"
)

// HealthStatus is the database section of the health endpoint.
type HealthStatus struct {
	Status          string `json:"status"`
	ResponseTime    int64  `json:"response_time_ms"`
	OpenConnections int    `json:"open_connections"`
	InUse           int    `json:"in_use"`
	Idle            int    `json:"idle"`
	MaxOpenConns    int    `json:"max_open_conns"`
}

// Health pings the pool and reports its statistics. The returned status is
// populated even when the ping fails.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	start := time.Now()
	err := c.db.PingContext(ctx)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return &HealthStatus{Status: "unhealthy", ResponseTime: elapsed}, err
	}

	stats := c.db.Stats()
	return &HealthStatus{
		Status:          "healthy",
		ResponseTime:    elapsed,
		OpenConnections: stats.OpenConnections,
		InUse:           stats.InUse,
		Idle:            stats.Idle,
		MaxOpenConns:    stats.MaxOpenConnections,
	}, nil
}
