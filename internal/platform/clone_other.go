//go:build !darwin

package platform

// Clone is only implemented on macOS; Linux clones inside CopyFile.
func Clone(_, _ string) error {
	return ErrCloneUnsupported
}
