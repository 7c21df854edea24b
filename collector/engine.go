// Copyright The DB-Insight Authors
// SPDX-License-Identifier: Apache-2.0

// Package collector derives the dashboard snapshot from raw MySQL status
// facts. The engine keeps the previous Questions counter and sample time
// so it can turn the cumulative counter into a per-second rate; everything
// else in a snapshot is computed fresh each cycle.
package collector

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Adityab4566/DB-Insight/client"
	"github.com/Adityab4566/DB-Insight/config"
	"github.com/Adityab4566/DB-Insight/queries"
)

// Heuristic model constants. The CPU and memory figures are estimates
// derived from connection and query activity, not OS measurements.
const (
	cpuBaseLoadPercent      = 5.0
	cpuPerConnectionPercent = 2.0
	cpuMaxConnectionPercent = 30.0
	cpuPerQueryPercent      = 0.5
	cpuMaxQueryPercent      = 40.0

	memPerConnectionMB = 2.0
	memOverheadMB      = 100.0
	memBaselineMB      = 8192.0
)

// Engine aggregates raw server status into a Snapshot. Safe for concurrent
// use; the rate state sits behind its own mutex.
type Engine struct {
	client client.Client
	logger *zap.Logger

	connectionThreshold int64
	slowQueryThreshold  int64

	mu             sync.Mutex
	lastQueryCount int64
	lastSampleTime time.Time

	// now is replaced in tests for deterministic rate computation.
	now func() time.Time
}

// NewEngine creates a metrics engine backed by the given client.
func NewEngine(c client.Client, cfg *config.Config, logger *zap.Logger) (*Engine, error) {
	if c == nil {
		return nil, errors.New("client cannot be nil")
	}
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &Engine{
		client:              c,
		logger:              logger,
		connectionThreshold: cfg.ConnectionThreshold,
		slowQueryThreshold:  cfg.SlowQueryThreshold,
		now:                 time.Now,
	}, nil
}

// TestConnection reports database connectivity for the health endpoint.
func (e *Engine) TestConnection(ctx context.Context) bool {
	return e.client.TestConnection(ctx)
}

// CollectSnapshot assembles one full snapshot. It never fails outward:
// each metric degrades to its zero value when unavailable, and an
// unexpected panic mid-collection is replaced by a zeroed DOWN snapshot.
func (e *Engine) CollectSnapshot(ctx context.Context) (snap Snapshot) {
	timestamp := e.now().Format(time.RFC3339)

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Snapshot collection failed", zap.Any("panic", r))
			snap = defaultSnapshot(timestamp)
		}
	}()

	conns := e.activeConnections(ctx)
	qps := e.queriesPerSecond(ctx)
	slow := e.slowQueries(ctx)
	uptime := e.uptimeSeconds(ctx)

	snap = Snapshot{
		Timestamp:          timestamp,
		ActiveConnections:  conns,
		QueriesPerSecond:   qps,
		SlowQueries:        slow,
		UptimeSeconds:      uptime,
		UptimeFormatted:    FormatUptime(uptime),
		DatabaseSizeMB:     e.databaseSizeMB(ctx),
		CPUUsagePercent:    cpuUsageEstimate(conns, qps),
		MemoryUsagePercent: e.memoryUsageEstimate(ctx, conns),
		HealthStatus:       e.healthStatus(ctx, conns, slow),
	}

	e.logger.Info("Metrics collected", zap.String("health_status", snap.HealthStatus))
	return snap
}

// activeConnections counts foreground execution threads. Unavailable
// reads as 0.
func (e *Engine) activeConnections(ctx context.Context) int64 {
	val, ok := e.client.GetSingleValue(ctx, queries.ActiveConnections)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		e.logger.Debug("Unexpected active connection count", zap.String("value", val), zap.Error(err))
		return 0
	}
	return n
}

// queriesPerSecond computes the rate of the cumulative Questions counter.
// The first call has no baseline and reports 0; a counter that moved
// backwards means the server restarted, which also reports 0 and starts a
// fresh baseline. Non-positive elapsed time guards against clock
// anomalies.
func (e *Engine) queriesPerSecond(ctx context.Context) float64 {
	// The mutex spans the counter read, the time sample and the state
	// update. Concurrent collections would otherwise interleave between
	// read and update and rebase the state onto a stale sample, moving
	// lastSampleTime backwards.
	e.mu.Lock()
	defer e.mu.Unlock()

	current, ok := e.statusCounter(ctx, queries.GlobalQuestions)
	sampledAt := e.now()

	if !ok {
		// Counter unavailable this cycle: drop back to the no-baseline
		// state so the next successful read starts over.
		e.lastQueryCount = 0
		e.lastSampleTime = sampledAt
		return 0
	}

	qps := 0.0
	if e.lastQueryCount > 0 {
		delta := current - e.lastQueryCount
		elapsed := sampledAt.Sub(e.lastSampleTime).Seconds()
		if delta >= 0 && elapsed > 0 {
			qps = float64(delta) / elapsed
		}
	}

	e.lastQueryCount = current
	e.lastSampleTime = sampledAt

	return round2(qps)
}

func (e *Engine) slowQueries(ctx context.Context) int64 {
	n, _ := e.statusCounter(ctx, queries.GlobalSlowQueries)
	return n
}

func (e *Engine) uptimeSeconds(ctx context.Context) int64 {
	n, _ := e.statusCounter(ctx, queries.GlobalUptime)
	return n
}

// statusCounter reads the Value column of a single-row SHOW result.
func (e *Engine) statusCounter(ctx context.Context, query string) (int64, bool) {
	result := e.client.ExecuteQuery(ctx, query)
	if result == nil || len(result.Rows) == 0 {
		return 0, false
	}
	raw, ok := result.Rows[0]["Value"]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		e.logger.Debug("Unexpected status counter", zap.String("query", query), zap.String("value", raw), zap.Error(err))
		return 0, false
	}
	return n, true
}

// databaseSizeMB sums data and index storage across all tables.
// Unavailable reads as 0.
func (e *Engine) databaseSizeMB(ctx context.Context) float64 {
	val, ok := e.client.GetSingleValue(ctx, queries.DatabaseSizeMB)
	if !ok || val == "" {
		return 0
	}
	size, err := strconv.ParseFloat(val, 64)
	if err != nil {
		e.logger.Debug("Unexpected database size", zap.String("value", val), zap.Error(err))
		return 0
	}
	return round2(size)
}

// cpuUsageEstimate approximates CPU load from connection count and query
// rate: a fixed base plus capped per-connection and per-query shares.
func cpuUsageEstimate(conns int64, qps float64) float64 {
	connectionLoad := math.Min(float64(conns)*cpuPerConnectionPercent, cpuMaxConnectionPercent)
	queryLoad := math.Min(qps*cpuPerQueryPercent, cpuMaxQueryPercent)
	return math.Min(round1(cpuBaseLoadPercent+connectionLoad+queryLoad), 100)
}

// memoryUsageEstimate approximates memory use as the buffer pool plus a
// fixed per-connection cost and overhead, against an assumed 8 GB
// baseline. Reports 0 when the buffer pool variable is unavailable.
func (e *Engine) memoryUsageEstimate(ctx context.Context, conns int64) float64 {
	result := e.client.ExecuteQuery(ctx, queries.BufferPoolSize)
	if result == nil || len(result.Rows) == 0 {
		return 0
	}
	poolBytes, err := strconv.ParseFloat(result.Rows[0]["Value"], 64)
	if err != nil {
		e.logger.Debug("Unexpected buffer pool size", zap.String("value", result.Rows[0]["Value"]), zap.Error(err))
		return 0
	}

	poolMB := poolBytes / (1024 * 1024)
	totalMB := poolMB + float64(conns)*memPerConnectionMB + memOverheadMB
	return round1(math.Min(totalMB/memBaselineMB*100, 100))
}

// healthStatus classifies the server. A failed probe is DOWN regardless of
// any other value; otherwise threshold breaches accumulate into a WARNING.
func (e *Engine) healthStatus(ctx context.Context, conns, slow int64) string {
	if !e.client.TestConnection(ctx) {
		return StatusDown
	}

	var warnings []string
	if conns > e.connectionThreshold {
		warnings = append(warnings, "High connection count")
	}
	if slow > e.slowQueryThreshold {
		warnings = append(warnings, "High slow query count")
	}
	if len(warnings) > 0 {
		return warningPrefix + strings.Join(warnings, ", ")
	}
	return StatusUp
}
