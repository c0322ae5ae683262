package writeback

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplace_Overwrites(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/site/index.astro", []byte("<img src=\"a.jpg\">"), 0o644))

	require.NoError(t, Replace(fs, "/site/index.astro", []byte("<Image src=\"a.jpg\" />")))

	got, err := util.ReadFile(fs, "/site/index.astro")
	require.NoError(t, err)
	assert.Equal(t, "<Image src=\"a.jpg\" />", string(got))

	entries, err := fs.ReadDir("/site")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestReplace_ShorterContent(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/a.astro", []byte("a much longer original body"), 0o644))

	require.NoError(t, Replace(fs, "/a.astro", []byte("short")))

	got, err := util.ReadFile(fs, "/a.astro")
	require.NoError(t, err)
	assert.Equal(t, "short", string(got))
}

func TestReplace_NonexistentFile(t *testing.T) {
	err := Replace(memfs.New(), "/nope.astro", []byte("x"))
	assert.Error(t, err)
}

func TestReplace_PreservesPermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.astro")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o600))
	require.NoError(t, os.Chmod(path, 0o755))

	fs := osfs.New(dir)
	require.NoError(t, Replace(fs, "page.astro", []byte("new")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}
