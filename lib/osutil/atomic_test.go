package osutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "session.json")

	err := WriteFileAtomic(target, []byte(`{"portal":"a=1"}`), 0600)
	require.NoError(t, err)
	err = WriteFileAtomic(target, []byte(`{"portal":"a=2"}`), 0600)
	require.NoError(t, err)

	contents, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, `{"portal":"a=2"}`, string(contents))

	entries, err := os.ReadDir(filepath.Dir(target))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files should not be left behind")
}

func TestTempPathUnique(t *testing.T) {
	a, err := TempPath("/tmp/x.json")
	require.NoError(t, err)
	b, err := TempPath("/tmp/x.json")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
	require.True(t, strings.HasSuffix(a, TempSuffix))
	require.True(t, strings.HasPrefix(a, "/tmp/x.json."))
}
