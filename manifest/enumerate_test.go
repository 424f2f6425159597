package manifest

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wpdeploy/target/types"
)

func mockFS(t *testing.T, files ...string) {
	fs = afero.NewMemMapFs()
	t.Cleanup(func() { fs = afero.NewOsFs() })

	for _, f := range files {
		if strings.HasSuffix(f, "/") {
			require.NoError(t, fs.MkdirAll(f, 0755))
			continue
		}
		require.NoError(t, afero.WriteFile(fs, f, []byte(f), 0644))
	}
}

func relPaths(m types.Manifest) []string {
	var out []string
	for _, e := range m {
		out = append(out, e.RelPath)
	}
	return out
}

func TestEnumerate(t *testing.T) {
	mockFS(t,
		"/themes/t1/a.txt",
		"/themes/t1/.DS_Store",
		"/themes/t1/sub/b.txt",
	)

	f, err := NewFilter([]string{".DS_Store"})
	require.NoError(t, err)

	m, err := Enumerate("/themes/t1/", f)
	require.NoError(t, err)

	assert.Equal(t, []string{".", "a.txt", "sub", "sub/b.txt"}, relPaths(m))
	assert.Equal(t, types.Manifest{
		{LocalPath: "/themes/t1", RelPath: ".", Kind: types.KindDir},
		{LocalPath: "/themes/t1/a.txt", RelPath: "a.txt", Kind: types.KindFile},
		{LocalPath: "/themes/t1/sub", RelPath: "sub", Kind: types.KindDir},
		{LocalPath: "/themes/t1/sub/b.txt", RelPath: "sub/b.txt", Kind: types.KindFile},
	}, m)
}

func TestEnumerateParentBeforeChild(t *testing.T) {
	mockFS(t,
		"/t/z.php",
		"/t/a/b/c/d.php",
		"/t/a/b/e.php",
		"/t/a/f.php",
		"/t/m/",
		"/t/m/n/o.css",
	)

	m, err := Enumerate("/t", nil)
	require.NoError(t, err)
	require.NotEmpty(t, m)

	assert.Equal(t, ".", m[0].RelPath)
	assert.True(t, m[0].Dir())

	seen := map[string]int{}
	for i, e := range m {
		seen[e.RelPath] = i
	}

	for i, e := range m {
		if e.RelPath == "." {
			continue
		}
		parent := filepath.ToSlash(filepath.Dir(e.RelPath))
		pi, ok := seen[parent]
		require.True(t, ok, "parent of %s missing", e.RelPath)
		assert.Less(t, pi, i, "parent of %s comes after it", e.RelPath)
	}
	assert.Len(t, m, 11)
}

func TestEnumerateEmptyTheme(t *testing.T) {
	mockFS(t, "/themes/empty/")

	m, err := Enumerate("/themes/empty", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"."}, relPaths(m))
}

func TestEnumerateDescendsIntoIgnoredDirectories(t *testing.T) {
	mockFS(t,
		"/t/index.php",
		"/t/node_modules/pkg/index.js",
		"/t/vendor/lib.php",
	)

	f, err := NewFilter([]string{"node_modules", "vendor", "vendor/**"})
	require.NoError(t, err)

	m, err := Enumerate("/t", f)
	require.NoError(t, err)

	assert.Equal(t, []string{".", "index.php", "node_modules/pkg", "node_modules/pkg/index.js"}, relPaths(m))
}

func TestEnumerateErrors(t *testing.T) {
	mockFS(t, "/t/file.txt")

	_, err := Enumerate("/missing", nil)
	var eerr *types.EnumerationError
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, "/missing", eerr.Path)

	_, err = Enumerate("/t/file.txt", nil)
	assert.ErrorAs(t, err, &eerr)
}

func TestEnumerateUnreadableDirectory(t *testing.T) {
	mockFS(t, "/t/a.txt")
	fs = failingFs{fs}

	_, err := Enumerate("/t", nil)
	var eerr *types.EnumerationError
	assert.ErrorAs(t, err, &eerr)
}

// failingFs can stat but not open anything
type failingFs struct {
	afero.Fs
}

func (failingFs) Open(name string) (afero.File, error) {
	return nil, afero.ErrFileNotFound
}
