package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// UpdateGoldenEnv rewrites golden files instead of comparing when set.
const UpdateGoldenEnv = "ZENDO_UPDATE_GOLDEN"

// GoldenString compares CLI output with testdata/<name>.golden. Slashes and
// spaces in name become underscores so subtest names can be used directly.
func GoldenString(t *testing.T, name string, got string) {
	t.Helper()

	file := strings.NewReplacer("/", "_", " ", "_").Replace(name) + ".golden"
	path := filepath.Join("testdata", file)

	if os.Getenv(UpdateGoldenEnv) != "" {
		require.NoError(t, os.MkdirAll("testdata", 0o755))
		require.NoError(t, os.WriteFile(path, []byte(got), 0o644))
		return
	}

	want, err := os.ReadFile(path)
	require.NoError(t, err, "missing golden file; rerun with %s=1", UpdateGoldenEnv)
	assert.Equal(t, string(want), got, "output differs from %s", path)
}
