package osutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mazen160/go-random"
)

const TempSuffix = ".tmp"

// TempPath returns a sibling of path that is unique per call, so that two
// writers racing on the same target never share a temp file.
func TempPath(path string) (string, error) {
	suffix, err := random.String(8)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s.%s%s", path, suffix, TempSuffix), nil
}

// WriteFileAtomic writes data next to path and renames it into place, a
// reader either sees the old contents or the new contents, never a prefix
// of the new contents.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	err := os.MkdirAll(filepath.Dir(path), 0700)
	if err != nil {
		return err
	}

	tmp, err := TempPath(path)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}

	_, err = f.Write(data)
	if err == nil {
		err = f.Sync()
	}
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}

	err = os.Rename(tmp, path)
	if err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
