// Copyright The DB-Insight Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Adityab4566/DB-Insight/client"
	"github.com/Adityab4566/DB-Insight/collector"
	"github.com/Adityab4566/DB-Insight/config"
	"github.com/Adityab4566/DB-Insight/queries"
)

func testConfig() *config.Config {
	return &config.Config{
		DBHost:              "db.internal",
		DBPort:              3306,
		DBName:              "db_monitoring",
		DBUser:              "monitor_user",
		DBPassword:          "s3cret",
		ConnectionThreshold: 100,
		SlowQueryThreshold:  100,
	}
}

func newTestServer(t *testing.T, mock *client.MockClient) *Server {
	t.Helper()
	cfg := testConfig()
	engine, err := collector.NewEngine(mock, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	srv, err := New(engine, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	return srv
}

func healthyMock() *client.MockClient {
	mock := client.NewMockClient()
	mock.Results[queries.ActiveConnections] = client.SingleValue("active_connections", "7")
	mock.Results[queries.GlobalQuestions] = client.KeyValue("Questions", "1000")
	mock.Results[queries.GlobalSlowQueries] = client.KeyValue("Slow_queries", "2")
	mock.Results[queries.GlobalUptime] = client.KeyValue("Uptime", "65")
	mock.Results[queries.DatabaseSizeMB] = client.SingleValue("size_mb", "100.00")
	mock.Results[queries.BufferPoolSize] = client.KeyValue("innodb_buffer_pool_size", "134217728")
	return mock
}

func TestNew(t *testing.T) {
	t.Run("nil engine returns error", func(t *testing.T) {
		srv, err := New(nil, testConfig(), zaptest.NewLogger(t))
		assert.Error(t, err)
		assert.Nil(t, srv)
	})

	t.Run("nil config returns error", func(t *testing.T) {
		engine, err := collector.NewEngine(client.NewMockClient(), testConfig(), zaptest.NewLogger(t))
		require.NoError(t, err)
		srv, err := New(engine, nil, zaptest.NewLogger(t))
		assert.Error(t, err)
		assert.Nil(t, srv)
	})

	t.Run("nil logger returns error", func(t *testing.T) {
		engine, err := collector.NewEngine(client.NewMockClient(), testConfig(), zaptest.NewLogger(t))
		require.NoError(t, err)
		srv, err := New(engine, testConfig(), nil)
		assert.Error(t, err)
		assert.Nil(t, srv)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, healthyMock())

	req := httptest.NewRequest(http.MethodGet, "/api/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "1.0", body["api_version"])
	assert.NotEmpty(t, body["server_time"])
	assert.Equal(t, collector.StatusUp, body["health_status"])
	assert.Equal(t, float64(7), body["active_connections"])
	assert.Equal(t, "1m 5s", body["uptime_formatted"])
}

func TestMetricsEndpoint_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, healthyMock())

	req := httptest.NewRequest(http.MethodPost, "/api/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Method Not Allowed", body.Error)
	assert.Equal(t, http.StatusMethodNotAllowed, body.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	t.Run("healthy database", func(t *testing.T) {
		srv := newTestServer(t, healthyMock())

		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var body healthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, collector.StatusUp, body.Status)
		assert.True(t, body.DatabaseConnected)
	})

	t.Run("unreachable database", func(t *testing.T) {
		mock := client.NewMockClient()
		mock.ProbeOK = false
		srv := newTestServer(t, mock)

		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var body healthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, collector.StatusDown, body.Status)
		assert.False(t, body.DatabaseConnected)
	})
}

func TestIndexEndpoint(t *testing.T) {
	srv := newTestServer(t, healthyMock())

	t.Run("root lists endpoints", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var body indexResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "DB-Insight", body.Service)
		assert.Contains(t, body.Endpoints, "/api/metrics")
	})

	t.Run("unknown path is a json 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/nope", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var body errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Not Found", body.Error)
		assert.Equal(t, http.StatusNotFound, body.StatusCode)
	})
}

func TestConfigEndpoint(t *testing.T) {
	srv := newTestServer(t, healthyMock())

	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "db.internal", body["database_host"])
	assert.Equal(t, float64(3306), body["database_port"])
	assert.Equal(t, "db_monitoring", body["database_name"])
	assert.Equal(t, "monitor_user", body["database_user"])
	assert.Equal(t, float64(100), body["connection_threshold"])
	assert.Equal(t, float64(100), body["slow_query_threshold"])

	// The password must never appear in any form.
	assert.NotContains(t, rec.Body.String(), "s3cret")
	assert.NotContains(t, body, "database_password")
}
