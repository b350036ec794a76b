package devenv

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"spotifier-core/lib/configutil"
)

const (
	ModulePath  = "spotifier-core"
	StatePrefix = "<dev_state>"
	// overrides the state directory, for CI runners that mount it elsewhere
	StateDirEnv = "SPOT_STATE_DIR"
)

// declaresModule reports whether the go.mod in dir is this module's.
func declaresModule(dir string) bool {
	mod, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return false
	}
	scanner := bufio.NewScanner(bytes.NewReader(mod))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 2 && fields[0] == "module" {
			return fields[1] == ModulePath
		}
	}
	return false
}

var workspaceRoot = sync.OnceValues(func() (string, error) {
	dir, err := filepath.Abs(".")
	if err != nil {
		return "", err
	}
	for {
		if declaresModule(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
})

// GetWorkspaceRoot walks up from the working directory to the directory
// holding this module's go.mod.
func GetWorkspaceRoot() (string, error) {
	return workspaceRoot()
}

// StateDir is dev/.state under the workspace root unless SPOT_STATE_DIR is
// set.
func StateDir() (string, error) {
	if dir := os.Getenv(StateDirEnv); dir != "" {
		return dir, nil
	}
	root, err := GetWorkspaceRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "dev", ".state"), nil
}

// GetStateConfig reads a json5 config (with its .local override) from the
// state directory.
func GetStateConfig[T any](path string) (T, error) {
	dir, err := StateDir()
	if err != nil {
		var out T
		return out, err
	}
	return configutil.ReadConfig[T](filepath.Join(dir, path))
}

// ResolvePath expands a leading "<dev_state>" into the state directory,
// creating it if needed. other paths pass through.
func ResolvePath(path string) (string, error) {
	if !strings.HasPrefix(path, StatePrefix) {
		return path, nil
	}

	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	err = os.MkdirAll(dir, 0777)
	if err != nil {
		return "", err
	}

	subpath := strings.TrimLeft(strings.TrimPrefix(path, StatePrefix), `/\`)
	return filepath.Join(dir, subpath), nil
}
