package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/testbench/internal/tx"
)

func TestKeyEncoding_PreservesOrder(t *testing.T) {
	keys := []int64{1, 255, 256, 1 << 40, 1733000000000000000}
	for i := 1; i < len(keys); i++ {
		a, b := encodeKey(keys[i-1]), encodeKey(keys[i])
		assert.Negative(t, compareBytes(a, b), "%d must sort before %d", keys[i-1], keys[i])
	}

	for _, k := range keys {
		got, err := decodeKey(encodeKey(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
}

func compareBytes(a, b []byte) int {
	for i := range a {
		if a[i] != b[i] {
			return int(a[i]) - int(b[i])
		}
	}
	return len(a) - len(b)
}

func TestDecodeKey_InvalidLength(t *testing.T) {
	_, err := decodeKey([]byte("order/1"))
	require.Error(t, err)
}

func TestIsPebble(t *testing.T) {
	assert.True(t, isPebble("out/scoreboard.pebble"))
	assert.True(t, isPebble("out/scoreboard.pebble/"))
	assert.False(t, isPebble("out/scoreboard.redb"))
	assert.False(t, isPebble("pebble.log"))
}

func TestRemovePebble_RefusesForeignDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "important"+PebbleSuffix)
	require.NoError(t, os.Mkdir(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep me"), 0o644))

	err := Remove(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a pebble directory")

	_, statErr := os.Stat(filepath.Join(dir, "notes.txt"))
	assert.NoError(t, statErr)
}

func TestRemovePebble_EmptyDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "empty"+PebbleSuffix)
	require.NoError(t, os.Mkdir(dir, 0o755))

	require.NoError(t, Remove(dir))
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestPebble_CreatedDirectoryIsRemovable(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "b"+PebbleSuffix)
	writeTestLog(t, dir, tx.New("init"))

	require.NoError(t, Remove(dir))
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}
