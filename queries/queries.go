// Copyright The DB-Insight Authors
// SPDX-License-Identifier: Apache-2.0

// Package queries holds the SQL statements issued by the metrics engine.
// All statements are read-only and target performance_schema,
// information_schema or SHOW commands, so the monitoring user needs no
// privileges beyond PROCESS and SELECT.
package queries

const (
	// ActiveConnections counts foreground execution threads, which maps to
	// client sessions actually doing work.
	ActiveConnections = `SELECT COUNT(*) AS active_connections FROM performance_schema.threads WHERE type = 'FOREGROUND'`

	// GlobalQuestions reads the cumulative statement counter used for the
	// queries-per-second rate.
	GlobalQuestions = `SHOW GLOBAL STATUS LIKE 'Questions'`

	// GlobalSlowQueries reads the cumulative slow query counter.
	GlobalSlowQueries = `SHOW GLOBAL STATUS LIKE 'Slow_queries'`

	// GlobalUptime reads the server uptime in seconds.
	GlobalUptime = `SHOW GLOBAL STATUS LIKE 'Uptime'`

	// DatabaseSizeMB sums data and index storage across all tables.
	DatabaseSizeMB = `SELECT ROUND(SUM(data_length + index_length) / 1024 / 1024, 2) AS size_mb FROM information_schema.tables`

	// BufferPoolSize reads the configured InnoDB buffer pool size in bytes.
	BufferPoolSize = `SHOW VARIABLES LIKE 'innodb_buffer_pool_size'`

	// ConnectionProbe is a trivial always-true statement used to verify
	// connectivity.
	ConnectionProbe = `SELECT 1 AS test`
)
