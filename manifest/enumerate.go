package manifest

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/wpdeploy/target/types"
)

// Enumerate lists root and everything below it, depth first, in the order
// the entries have to be created remotely. The root is always the first entry.
//
// Entries rejected by f are left out, but rejected directories are still
// descended into and their children filtered on their own.
func Enumerate(root string, f *Filter) (types.Manifest, error) {
	root = filepath.Clean(root)

	st, err := fs.Stat(root)
	if err != nil {
		return nil, &types.EnumerationError{Path: root, Err: err}
	}

	if !st.IsDir() {
		return nil, &types.EnumerationError{Path: root, Err: errors.New("not a directory")}
	}

	m := types.Manifest{{LocalPath: root, RelPath: ".", Kind: types.KindDir}}

	err = walk(root, root, f, &m)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func walk(root, dir string, f *Filter, m *types.Manifest) error {
	children, err := afero.ReadDir(fs, dir)
	if err != nil {
		return &types.EnumerationError{Path: dir, Err: err}
	}

	for _, child := range children {
		p := filepath.Join(dir, child.Name())

		// follow symlinks like the server would see them after upload
		st, err := fs.Stat(p)
		if err != nil {
			return &types.EnumerationError{Path: p, Err: err}
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return &types.EnumerationError{Path: p, Err: err}
		}
		rel = filepath.ToSlash(rel)

		if f.Included(rel) {
			*m = append(*m, types.Entry{
				LocalPath: p,
				RelPath:   rel,
				Kind:      kind(st),
			})
		}

		if st.IsDir() {
			err = walk(root, p, f, m)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func kind(st os.FileInfo) types.Kind {
	if st.IsDir() {
		return types.KindDir
	}
	return types.KindFile
}
