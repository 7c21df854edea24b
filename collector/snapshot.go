// Copyright The DB-Insight Authors
// SPDX-License-Identifier: Apache-2.0

package collector

// Health status labels. A degraded server reports a WARNING status with
// the triggered reasons appended, e.g. "WARNING: High connection count".
const (
	StatusUp   = "UP"
	StatusDown = "DOWN"

	warningPrefix = "WARNING: "
)

// Snapshot is one immutable collection result covering every tracked
// metric at a point in time. Snapshots are self-contained; only the engine
// keeps state between collections. The HTTP layer serializes the struct
// as-is.
type Snapshot struct {
	Timestamp          string  `json:"timestamp"`
	ActiveConnections  int64   `json:"active_connections"`
	QueriesPerSecond   float64 `json:"queries_per_second"`
	SlowQueries        int64   `json:"slow_queries"`
	UptimeSeconds      int64   `json:"uptime_seconds"`
	UptimeFormatted    string  `json:"uptime_formatted"`
	DatabaseSizeMB     float64 `json:"database_size_mb"`
	CPUUsagePercent    float64 `json:"cpu_usage_percent"`
	MemoryUsagePercent float64 `json:"memory_usage_percent"`
	HealthStatus       string  `json:"health_status"`
}

// defaultSnapshot is what the engine reports when collection fails as a
// whole: zeroed metrics and a DOWN status.
func defaultSnapshot(timestamp string) Snapshot {
	return Snapshot{
		Timestamp:       timestamp,
		UptimeFormatted: "0s",
		HealthStatus:    StatusDown,
	}
}
