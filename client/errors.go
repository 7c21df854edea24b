// Copyright The DB-Insight Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"database/sql/driver"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Server error numbers that indicate the connection was terminated rather
// than the statement being rejected.
const (
	erServerShutdown     = 1053
	erAbortingConnection = 1152
	erConnectionKilled   = 1927
)

// connectionLossPatterns identifies a dropped connection when the driver
// surfaces a plain error instead of a typed one.
var connectionLossPatterns = []string{
	"lost connection",
	"gone away",
	"closed",
}

// isConnectionLoss reports whether err means the server or network dropped
// the connection, as opposed to a semantic query failure such as a syntax
// error or a missing privilege. Typed driver errors are checked first; the
// message patterns are a fallback for errors the driver does not classify.
func isConnectionLoss(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case erServerShutdown, erAbortingConnection, erConnectionKilled:
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range connectionLossPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
