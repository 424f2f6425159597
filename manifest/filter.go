// Package manifest selects the local files and directories of a theme that
// are transferred to the server.
package manifest

import (
	"path"
	"strings"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
)

// Filter decides whether a path relative to the theme root is deployed.
//
// Patterns are shell globs: `*` and `?` stay within one path segment, `**`
// crosses segments and `[...]`, `{a,b}` are supported. Hidden entries are
// matched like any other name, and a pattern without a slash is matched
// against the last element of the path so that ".DS_Store" excludes it at
// any depth.
//
// A pattern naming a directory only excludes the directory entry itself.
// Its children are still checked one by one, so excluding a whole tree needs
// both "node_modules" and "node_modules/**".
type Filter struct {
	patterns []pattern
}

type pattern struct {
	src  string
	base bool
	g    []glob.Glob
}

// NewFilter compiles the ignore patterns
func NewFilter(ignore []string) (*Filter, error) {
	f := &Filter{}
	for _, src := range ignore {
		p, err := compile(src)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid ignore pattern %q", src)
		}
		f.patterns = append(f.patterns, p)
	}
	return f, nil
}

func compile(src string) (pattern, error) {
	s := strings.TrimPrefix(src, "./")
	p := pattern{
		src:  src,
		base: !strings.Contains(s, "/"),
	}

	for _, v := range globstarVariants(s) {
		g, err := glob.Compile(v, '/')
		if err != nil {
			return p, err
		}
		p.g = append(p.g, g)
	}
	return p, nil
}

// globstarVariants returns s plus every variant where some "**/" segments
// match no directory at all, so "a/**/b" also matches "a/b".
func globstarVariants(s string) []string {
	i := strings.Index(s, "**/")
	if i < 0 || (i > 0 && s[i-1] != '/') {
		return []string{s}
	}

	var out []string
	for _, rest := range globstarVariants(s[i+3:]) {
		out = append(out, s[:i+3]+rest, s[:i]+rest)
	}
	return out
}

// Included returns false when any pattern matches rel
func (f *Filter) Included(rel string) bool {
	return f.Match(rel) == ""
}

// Match returns the first pattern matching rel, or "" when none does
func (f *Filter) Match(rel string) string {
	if f == nil {
		return ""
	}

	name := path.Base(rel)
	for _, p := range f.patterns {
		subject := rel
		if p.base {
			subject = name
		}
		for _, g := range p.g {
			if g.Match(subject) {
				return p.src
			}
		}
	}
	return ""
}

// IsIncluded reports whether rel survives the ignore patterns.
// Patterns that do not compile never match.
func IsIncluded(rel string, ignore []string) bool {
	for _, src := range ignore {
		p, err := compile(src)
		if err != nil {
			continue
		}
		f := Filter{patterns: []pattern{p}}
		if !f.Included(rel) {
			return false
		}
	}
	return true
}
