package platform

import "os"

// linkRename publishes oldpath under newpath by hard-linking, which fails
// with EEXIST rather than replacing, then drops the old name.
func linkRename(oldpath, newpath string) error {
	if err := os.Link(oldpath, newpath); err != nil {
		return err
	}
	return os.Remove(oldpath)
}
