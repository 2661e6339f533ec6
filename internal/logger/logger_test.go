package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_WritesRotatedFile(t *testing.T) {
	dir := t.TempDir()

	log, err := New(dir, "server", false)
	require.NoError(t, err)
	log.Info("order placed", zap.String("order_id", "o-1"))
	_ = log.Sync()

	data, err := os.ReadFile(filepath.Join(dir, "server.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"order placed"`)
	assert.Contains(t, string(data), `"order_id":"o-1"`)
}

func TestExit_FlushesBeforeExiting(t *testing.T) {
	dir := t.TempDir()
	log, err := New(dir, "worker", false)
	require.NoError(t, err)

	var code int
	osExit = func(c int) {
		code = c
		data, err := os.ReadFile(filepath.Join(dir, "worker.log"))
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"worker stopped"`)
		assert.Contains(t, string(data), `"error":"broker unreachable"`)
	}
	t.Cleanup(func() { osExit = os.Exit })

	Exit(log, "worker stopped", errors.New("broker unreachable"))
	assert.Equal(t, 1, code)
}
