package adapter

import (
	"context"
	"log/slog"
	"testing"

	"github.com/leapstack-labs/querylint/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownAdapterError_Error(t *testing.T) {
	err := &UnknownAdapterError{
		Type:      "fake_db",
		Available: []string{"duckdb", "postgres"},
	}

	msg := err.Error()

	// Check that error message contains important info
	assert.NotEmpty(t, msg, "error message should not be empty")

	// Should mention the type
	assert.Contains(t, msg, "fake_db", "error should mention the unknown type 'fake_db'")

	// Should hint about config
	assert.Contains(t, msg, "querylint.yaml", "error should mention config file")
}

func TestRegister(t *testing.T) {
	// Register a mock adapter
	Register("test_adapter_internal", func(_ *slog.Logger) Adapter { return nil })

	assert.True(t, IsRegistered("test_adapter_internal"), "test_adapter_internal should be registered after Register()")

	factory, ok := Get("test_adapter_internal")
	assert.True(t, ok, "Get(test_adapter_internal) should return true after Register()")
	assert.NotNil(t, factory, "Get(test_adapter_internal) should return non-nil factory")
}

func TestNewAdapter_EmptyType(t *testing.T) {
	cfg := Config{
		Type: "",
	}

	_, err := NewAdapter(cfg, nil)
	require.Error(t, err, "NewAdapter with empty type should fail")
	assert.Equal(t, "adapter type not specified", err.Error(), "error message")
}

type fakeAdapter struct {
	BaseSQLAdapter
	connected Config
}

func (f *fakeAdapter) Connect(_ context.Context, cfg Config) error {
	f.connected = cfg
	return nil
}

func (f *fakeAdapter) ColumnNames(context.Context, string) ([]string, error) { return nil, nil }
func (f *fakeAdapter) PrimaryKeys(context.Context, string) ([]string, error) { return nil, nil }
func (f *fakeAdapter) Indexes(context.Context, string) ([]schema.Index, error) {
	return nil, nil
}
func (f *fakeAdapter) Dialect() string { return "sqlite" }

func TestOpen(t *testing.T) {
	fake := &fakeAdapter{}
	Register("fake_url_db", func(_ *slog.Logger) Adapter { return fake })

	_, err := Open(context.Background(), Config{Type: "fake_url_db", Database: "isucon"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "isucon", fake.connected.Database)

	_, err = Open(context.Background(), Config{Type: "nope"}, nil)
	var unknown *UnknownAdapterError
	require.ErrorAs(t, err, &unknown)
	assert.Contains(t, unknown.Available, "fake_url_db")

	_, err = Open(context.Background(), Config{Type: "mysql", URL: "postgres://localhost/x"}, nil)
	assert.ErrorContains(t, err, "does not match")
}
