package submfs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/programme-lv/grader/conf"
	"github.com/stretchr/testify/require"
)

const (
	rawDetail1 = "第1回レポートの提出(詳細)"
	rawAnswer1 = "第1回レポートの提出(解答のみ)"
)

func testNaming() conf.Naming {
	return conf.Default("").Naming
}

// writeFiles creates every file below root, keyed by slash separated
// relative path.
func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}
