// Copyright The DB-Insight Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestIsConnectionLoss(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "bad connection",
			err:  driver.ErrBadConn,
			want: true,
		},
		{
			name: "invalid connection",
			err:  mysql.ErrInvalidConn,
			want: true,
		},
		{
			name: "wrapped bad connection",
			err:  fmt.Errorf("query failed: %w", driver.ErrBadConn),
			want: true,
		},
		{
			name: "server shutdown error number",
			err:  &mysql.MySQLError{Number: 1053, Message: "Server shutdown in progress"},
			want: true,
		},
		{
			name: "connection killed error number",
			err:  &mysql.MySQLError{Number: 1927, Message: "Connection was killed"},
			want: true,
		},
		{
			name: "gone away message",
			err:  errors.New("Error 2006: MySQL server has gone away"),
			want: true,
		},
		{
			name: "lost connection message",
			err:  errors.New("Lost connection to MySQL server during query"),
			want: true,
		},
		{
			name: "closed network connection message",
			err:  errors.New("write tcp 127.0.0.1:3306: use of closed network connection"),
			want: true,
		},
		{
			name: "syntax error",
			err:  &mysql.MySQLError{Number: 1064, Message: "You have an error in your SQL syntax"},
			want: false,
		},
		{
			name: "access denied",
			err:  &mysql.MySQLError{Number: 1142, Message: "SELECT command denied"},
			want: false,
		},
		{
			name: "plain semantic error",
			err:  errors.New("unknown table 'nope'"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isConnectionLoss(tt.err))
		})
	}
}
