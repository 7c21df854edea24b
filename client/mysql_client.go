// Copyright The DB-Insight Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/Adityab4566/DB-Insight/config"
	"github.com/Adityab4566/DB-Insight/queries"
)

// Manager owns at most one live connection to the monitored database and
// shields callers from transient connectivity loss. The connection is
// established lazily on first use; a query that fails because the server
// dropped the connection triggers exactly one reconnect and one retry.
//
// A single mutex serializes the whole connect-check, liveness probe and
// query sequence, so concurrent snapshot requests cannot race on the
// handle.
type Manager struct {
	connStr string
	target  string
	logger  *zap.Logger

	mu sync.Mutex
	db *sql.DB

	// open is the handle factory, replaced in tests.
	open func(dsn string) (*sql.DB, error)
}

var _ Client = (*Manager)(nil)

// NewManager builds a manager from the resolved configuration. No
// connection is made until the first query or an explicit Connect. The DSN
// carries the credentials; only the target address is ever logged.
func NewManager(cfg *config.Config, logger *zap.Logger) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	driverConf := mysql.NewConfig()
	driverConf.User = cfg.DBUser
	driverConf.Passwd = cfg.DBPassword
	driverConf.Net = "tcp"
	driverConf.Addr = cfg.Addr()
	driverConf.DBName = cfg.DBName
	driverConf.Timeout = cfg.ConnectTimeout
	driverConf.ReadTimeout = cfg.ReadTimeout
	driverConf.WriteTimeout = cfg.WriteTimeout
	driverConf.AllowNativePasswords = true
	driverConf.Params = map[string]string{
		"charset":    "utf8mb4",
		"autocommit": "1",
	}

	return &Manager{
		connStr: driverConf.FormatDSN(),
		target:  fmt.Sprintf("%s/%s", cfg.Addr(), cfg.DBName),
		logger:  logger,
		open: func(dsn string) (*sql.DB, error) {
			return sql.Open("mysql", dsn)
		},
	}, nil
}

// Connect opens the connection handle and verifies it with a ping. A
// failure is reported through the return value, not a panic.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectLocked(ctx)
}

func (m *Manager) connectLocked(ctx context.Context) error {
	if m.db != nil {
		return nil
	}

	db, err := m.open(m.connStr)
	if err != nil {
		m.logger.Error("Database connection failed", zap.String("target", m.target), zap.Error(err))
		return err
	}
	// One live handle at a time; database/sql must not grow a pool behind
	// our back.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		m.logger.Error("Database connection failed", zap.String("target", m.target), zap.Error(err))
		_ = db.Close()
		return err
	}

	m.db = db
	m.logger.Info("Database connection established", zap.String("target", m.target))
	return nil
}

// Disconnect closes the handle if open. Calling it repeatedly is harmless.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLocked()
}

func (m *Manager) closeLocked() {
	if m.db == nil {
		return
	}
	if err := m.db.Close(); err != nil {
		m.logger.Error("Error closing database connection", zap.Error(err))
	} else {
		m.logger.Info("Database connection closed")
	}
	m.db = nil
}

// ExecuteQuery runs a statement and returns its rows, or nil when the
// query failed or the database is unreachable. When the failure indicates
// the server dropped the connection, the handle is discarded and the query
// retried once against a fresh connection. Anything beyond that single
// retry degrades to nil.
func (m *Manager) ExecuteQuery(ctx context.Context, query string, args ...any) *Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db == nil {
		if err := m.connectLocked(ctx); err != nil {
			return nil
		}
	}

	// Liveness probe before doing real work.
	if err := m.db.PingContext(ctx); err != nil {
		m.logger.Warn("Liveness probe failed, discarding handle", zap.Error(err))
		m.closeLocked()
		if err := m.connectLocked(ctx); err != nil {
			return nil
		}
	}

	result, err := m.queryLocked(ctx, query, args...)
	if err == nil {
		return result
	}

	m.logger.Error("Query execution failed", zap.String("query", query), zap.Error(err))
	if !isConnectionLoss(err) {
		return nil
	}

	m.logger.Info("Attempting to reconnect")
	m.closeLocked()
	if err := m.connectLocked(ctx); err != nil {
		return nil
	}
	result, err = m.queryLocked(ctx, query, args...)
	if err != nil {
		m.logger.Error("Query retry failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	return result
}

func (m *Manager) queryLocked(ctx context.Context, query string, args ...any) (*Result, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &Result{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = valueToString(values[i])
		}
		result.Rows = append(result.Rows, row)
	}

	return result, rows.Err()
}

func valueToString(val any) string {
	switch t := val.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

// GetSingleValue returns the first column of the first row, or ("", false)
// when the result set is empty or the query failed.
func (m *Manager) GetSingleValue(ctx context.Context, query string, args ...any) (string, bool) {
	result := m.ExecuteQuery(ctx, query, args...)
	if result == nil || len(result.Rows) == 0 || len(result.Columns) == 0 {
		return "", false
	}
	return result.Rows[0][result.Columns[0]], true
}

// TestConnection reports whether the database answers a trivial probe with
// the expected constant. Any failure reads as false.
func (m *Manager) TestConnection(ctx context.Context) bool {
	val, ok := m.GetSingleValue(ctx, queries.ConnectionProbe)
	return ok && val == "1"
}
