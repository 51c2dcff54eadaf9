//go:build !linux

package engine

func renameNoReplace(oldpath, newpath string) error {
	return renameChecked(oldpath, newpath)
}
