//go:build !linux

package platform

// RenameNoReplace renames oldpath to newpath, failing with an error that
// matches os.ErrExist when newpath already exists.
func RenameNoReplace(oldpath, newpath string) error {
	return linkRename(oldpath, newpath)
}
