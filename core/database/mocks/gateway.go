package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// Gateway is a mock implementation of database.Gateway
type Gateway struct {
	mock.Mock
}

func (m *Gateway) Scalar(ctx context.Context, query string, args ...any) (any, error) {
	ret := m.Called(ctx, query, args)
	return ret.Get(0), ret.Error(1)
}

func (m *Gateway) Execute(ctx context.Context, query string, args ...any) (int64, error) {
	ret := m.Called(ctx, query, args)
	return ret.Get(0).(int64), ret.Error(1)
}

func (m *Gateway) Upsert(ctx context.Context, table, keyColumn string, row map[string]any) error {
	ret := m.Called(ctx, table, keyColumn, row)
	return ret.Error(0)
}

func (m *Gateway) Update(ctx context.Context, table, keyColumn, key string, values map[string]any) error {
	ret := m.Called(ctx, table, keyColumn, key, values)
	return ret.Error(0)
}

func (m *Gateway) Deactivate(ctx context.Context, table, keyColumn, key string) error {
	ret := m.Called(ctx, table, keyColumn, key)
	return ret.Error(0)
}

func (m *Gateway) ActiveKeys(ctx context.Context, table, keyColumn string) ([]string, error) {
	ret := m.Called(ctx, table, keyColumn)
	if keys, ok := ret.Get(0).([]string); ok {
		return keys, ret.Error(1)
	}
	return nil, ret.Error(1)
}

func (m *Gateway) TableExists(ctx context.Context, table string) (bool, error) {
	ret := m.Called(ctx, table)
	return ret.Bool(0), ret.Error(1)
}

func (m *Gateway) Ping(ctx context.Context) error {
	ret := m.Called(ctx)
	return ret.Error(0)
}

func (m *Gateway) Commit() error {
	ret := m.Called()
	return ret.Error(0)
}

func (m *Gateway) Rollback() error {
	ret := m.Called()
	return ret.Error(0)
}
