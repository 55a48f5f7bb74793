package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/config"
	"shopledger/internal/core"
	"shopledger/internal/log"
)

func TestNewRequestID(t *testing.T) {
	id, err := uuid.Parse(NewRequestID())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
	assert.NotEqual(t, NewRequestID(), NewRequestID())
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := SetupLogger(&config.Config{LogLevel: "warn", LogFormat: "json"}, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"component":"cli"`)

	_, err = SetupLogger(&config.Config{LogLevel: "chatty"}, &buf)
	assert.Error(t, err)
}

func TestInvocationContextCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Output: &buf, Format: log.FormatJSON})

	ctx, stop := InvocationContext(logger, "report")
	defer stop()
	log.FromContext(ctx).InfoContext(ctx, "hello")

	assert.Contains(t, buf.String(), `"request_id":"`)
	assert.Contains(t, buf.String(), `"command":"report"`)
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")

	written, err := WriteDefaultConfig(path)
	require.NoError(t, err)
	assert.True(t, written)

	require.NoError(t, os.WriteFile(path, []byte("shops: [X]\n"), 0o644))
	written, err = WriteDefaultConfig(path)
	require.NoError(t, err)
	assert.False(t, written, "existing file is kept")

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "shops: [X]\n", string(body))
}

func TestLoadConfigAndInitBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.yaml")
	body := "data_backend: sqlite\nsqlite_db_path: " + filepath.Join(dir, "data", "ledger.db") + "\nshops: [A, B]\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadAndValidateConfig(path)
	require.NoError(t, err)

	res, err := InitBackend(context.Background(), log.Discard(), cfg)
	require.NoError(t, err)
	defer res.Cleanup()

	exp := res.Books.Expenses()
	_, err = exp.Add(context.Background(), core.Fields{core.ColShop: "B", core.ColAmount: "3"})
	require.NoError(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("data_backend: paper\n"), 0o644))
	_, err = LoadAndValidateConfig(bad)
	assert.Error(t, err)
}
