// Copyright The DB-Insight Authors
// SPDX-License-Identifier: Apache-2.0

package client

import "context"

// MockClient is a mock implementation of Client for testing.
// It supports both direct field assignment and function callbacks; the
// callbacks take precedence when set.
type MockClient struct {
	// Results maps a query text to its result. A missing entry yields nil,
	// which is how the real manager reports an unavailable metric.
	Results map[string]*Result

	// ProbeOK is what TestConnection reports by default.
	ProbeOK bool

	ConnectErr   error
	Disconnected bool

	// Function callback fields (optional)
	ConnectFunc        func(ctx context.Context) error
	ExecuteQueryFunc   func(ctx context.Context, query string, args ...any) *Result
	GetSingleValueFunc func(ctx context.Context, query string, args ...any) (string, bool)
	TestConnectionFunc func(ctx context.Context) bool
}

var _ Client = (*MockClient)(nil)

// NewMockClient creates a mock client that answers the connectivity probe
// and serves results from its Results map.
func NewMockClient() *MockClient {
	return &MockClient{
		Results: make(map[string]*Result),
		ProbeOK: true,
	}
}

func (m *MockClient) Connect(ctx context.Context) error {
	if m.ConnectFunc != nil {
		return m.ConnectFunc(ctx)
	}
	return m.ConnectErr
}

func (m *MockClient) ExecuteQuery(ctx context.Context, query string, args ...any) *Result {
	if m.ExecuteQueryFunc != nil {
		return m.ExecuteQueryFunc(ctx, query, args...)
	}
	return m.Results[query]
}

func (m *MockClient) GetSingleValue(ctx context.Context, query string, args ...any) (string, bool) {
	if m.GetSingleValueFunc != nil {
		return m.GetSingleValueFunc(ctx, query, args...)
	}
	result := m.ExecuteQuery(ctx, query, args...)
	if result == nil || len(result.Rows) == 0 || len(result.Columns) == 0 {
		return "", false
	}
	return result.Rows[0][result.Columns[0]], true
}

func (m *MockClient) TestConnection(ctx context.Context) bool {
	if m.TestConnectionFunc != nil {
		return m.TestConnectionFunc(ctx)
	}
	return m.ProbeOK
}

func (m *MockClient) Disconnect() {
	m.Disconnected = true
}
