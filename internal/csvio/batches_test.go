package csvio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ajuna-network/affiliate-fix/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteBatches_OnePerLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "encoded-call.txt")

	err := WriteBatches(path, []model.EncodedBatch{"0x01", "0x02", "0x03"})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0x01\n0x02\n0x03", string(raw))
}

func TestWriteBatches_EmptyWritesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "encoded-call.txt")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	require.NoError(t, WriteBatches(path, nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestWriteBatches_OverwritesAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "encoded-call.txt")
	require.NoError(t, os.WriteFile(path, []byte("0xold\n0xold\n0xold"), 0o644))

	require.NoError(t, WriteBatches(path, []model.EncodedBatch{"0xnew"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0xnew", string(raw))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "encoded-call.txt", entries[0].Name())
}

func TestWriteBatches_UnwritableDestination(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "encoded-call.txt")

	err := WriteBatches(path, []model.EncodedBatch{"0x01"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrIO))
}
