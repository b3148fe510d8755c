// Package fsutil provides file system utility functions.
package fsutil

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// FindFilesByExtension returns every file under root whose name ends with
// extension, compared case-insensitively, in lexical order. Directories
// whose name starts with a dot are skipped below root. root may also name a
// single file, which is returned only when it has the extension.
func FindFilesByExtension(root string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}
	extension = strings.ToLower(extension)

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(strings.ToLower(d.Name()), extension) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
