// Package modinfo resolves the import path of a directory from the
// enclosing go.mod, so generated files can be created with the correct
// package path for import resolution.
package modinfo

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// PackagePath returns the import path of dir by locating the nearest
// go.mod in dir or one of its parents. It returns an error when dir is
// outside any module.
func PackagePath(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	modDir, modPath, err := findModule(abs)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(modDir, abs)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return modPath, nil
	}
	return modPath + "/" + filepath.ToSlash(rel), nil
}

func findModule(dir string) (modDir, modPath string, err error) {
	for {
		candidate := filepath.Join(dir, "go.mod")
		data, readErr := os.ReadFile(candidate)
		if readErr == nil {
			path := modfile.ModulePath(data)
			if path == "" {
				return "", "", fmt.Errorf("%s: missing module directive", candidate)
			}
			return dir, path, nil
		}
		if !os.IsNotExist(readErr) {
			return "", "", readErr
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", "", fmt.Errorf("no go.mod found for %s", dir)
		}
		dir = parent
	}
}
