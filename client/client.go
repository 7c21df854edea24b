// Copyright The DB-Insight Authors
// SPDX-License-Identifier: Apache-2.0

// Package client manages the single connection to the monitored MySQL
// server. Every failure path here degrades to a nil result or false and is
// logged; callers treat an unavailable value as "metric unavailable this
// cycle", never as a fatal condition.
package client

import "context"

// Row is a single result row keyed by column name. Values carry the raw
// string form reported by the server.
type Row map[string]string

// Result holds the rows of a query together with the column order, so the
// first column of the first row stays well defined.
type Result struct {
	Columns []string
	Rows    []Row
}

// Client defines the database operations the metrics engine consumes.
type Client interface {
	// Connect establishes the database connection. The manager also
	// connects lazily on first use, so calling this is optional.
	Connect(ctx context.Context) error
	// ExecuteQuery runs a statement and returns its rows, or nil when the
	// query failed or the database is unreachable.
	ExecuteQuery(ctx context.Context, query string, args ...any) *Result
	// GetSingleValue returns the first column of the first row. The second
	// return value reports whether a value was available.
	GetSingleValue(ctx context.Context, query string, args ...any) (string, bool)
	// TestConnection reports whether the database answers a trivial probe.
	TestConnection(ctx context.Context) bool
	// Disconnect closes the connection if open. Safe to call repeatedly.
	Disconnect()
}

// SingleValue builds a one-row, one-column Result.
func SingleValue(column, value string) *Result {
	return &Result{
		Columns: []string{column},
		Rows:    []Row{{column: value}},
	}
}

// KeyValue builds a SHOW-style two-column result with a single row.
func KeyValue(name, value string) *Result {
	return &Result{
		Columns: []string{"Variable_name", "Value"},
		Rows:    []Row{{"Variable_name": name, "Value": value}},
	}
}
