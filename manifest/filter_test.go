package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterIncluded(t *testing.T) {
	tests := []struct {
		name     string
		ignore   []string
		path     string
		included bool
	}{
		{"no patterns", nil, "a.txt", true},
		{"hidden file at root", []string{".DS_Store"}, ".DS_Store", false},
		{"hidden file nested", []string{".DS_Store"}, "sub/deep/.DS_Store", false},
		{"basename star", []string{"*.log"}, "logs/debug.log", false},
		{"star matches hidden", []string{"*"}, ".env", false},
		{"basename no match", []string{"*.log"}, "logs/debug.txt", true},
		{"directory name only", []string{"node_modules"}, "node_modules", false},
		{"directory name does not cover children", []string{"node_modules"}, "node_modules/x/index.js", true},
		{"globstar children", []string{"node_modules/**"}, "node_modules/x/index.js", false},
		{"globstar leading", []string{"**/*.map"}, "css/x/style.css.map", false},
		{"globstar zero dirs", []string{"**/*.map"}, "style.css.map", false},
		{"globstar middle zero dirs", []string{"src/**/*.scss"}, "src/main.scss", false},
		{"globstar middle", []string{"src/**/*.scss"}, "src/a/b/main.scss", false},
		{"anchored star stays in segment", []string{"sub/*.txt"}, "sub/deep/b.txt", true},
		{"anchored star", []string{"sub/*.txt"}, "sub/b.txt", false},
		{"anchored not basename", []string{"sub/*.txt"}, "b.txt", true},
		{"question mark", []string{"?.txt"}, "a.txt", false},
		{"question mark one char", []string{"?.txt"}, "ab.txt", true},
		{"character class", []string{"[ab].txt"}, "b.txt", false},
		{"character class miss", []string{"[ab].txt"}, "c.txt", true},
		{"alternatives", []string{"{a,b}.css"}, "dir/a.css", false},
		{"dot slash prefix", []string{"./sub/*.txt"}, "sub/b.txt", false},
		{"any pattern excludes", []string{"*.md", "*.txt"}, "a.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFilter(tt.ignore)
			require.NoError(t, err)
			assert.Equal(t, tt.included, f.Included(tt.path))
			assert.Equal(t, tt.included, IsIncluded(tt.path, tt.ignore))
		})
	}
}

func TestFilterOrderIndependent(t *testing.T) {
	ignore := []string{"*.log", ".git", ".git/**", "node_modules/**", "README.md"}
	reversed := make([]string, len(ignore))
	for i, p := range ignore {
		reversed[len(ignore)-1-i] = p
	}

	f1, err := NewFilter(ignore)
	require.NoError(t, err)
	f2, err := NewFilter(reversed)
	require.NoError(t, err)

	paths := []string{"a.log", ".git", ".git/HEAD", "node_modules/a/b.js", "README.md", "style.css", "sub/README.md"}
	for _, p := range paths {
		assert.Equal(t, f1.Included(p), f2.Included(p), p)
	}
}

func TestFilterMatch(t *testing.T) {
	f, err := NewFilter([]string{"*.txt", "*.log"})
	require.NoError(t, err)

	assert.Equal(t, "*.log", f.Match("x/y.log"))
	assert.Equal(t, "", f.Match("x/y.php"))

	var nilFilter *Filter
	assert.True(t, nilFilter.Included("anything"))
}

func TestFilterInvalidPattern(t *testing.T) {
	_, err := NewFilter([]string{"*.txt", "["})
	assert.Error(t, err)

	assert.True(t, IsIncluded("a.php", []string{"["}))
}

func TestGlobstarVariants(t *testing.T) {
	assert.Equal(t, []string{"*.txt"}, globstarVariants("*.txt"))
	assert.Equal(t, []string{"**/x", "x"}, globstarVariants("**/x"))
	assert.Equal(t, []string{"a/**/b", "a/b"}, globstarVariants("a/**/b"))
	assert.Equal(t, []string{"a**/b"}, globstarVariants("a**/b"))
}
