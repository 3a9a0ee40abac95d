package runner

import (
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

var imageExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".webp": {},
	".avif": {},
}

func isImage(name string) bool {
	_, ok := imageExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// listImages returns the images of baseDir/folder/<subfolder>/ as paths
// relative to baseDir with forward slashes, in natural order of sub-folder
// then file name. Files directly inside folder are not tagged.
func listImages(baseDir, folder string) ([]string, error) {
	root := filepath.Join(baseDir, folder)
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var subfolders []string
	for _, e := range entries {
		if e.IsDir() {
			subfolders = append(subfolders, e.Name())
		}
	}
	slices.SortFunc(subfolders, compareNatural)

	var out []string
	for _, sub := range subfolders {
		files, err := os.ReadDir(filepath.Join(root, sub))
		if err != nil {
			return nil, err
		}
		var names []string
		for _, f := range files {
			if !f.IsDir() && isImage(f.Name()) {
				names = append(names, f.Name())
			}
		}
		slices.SortFunc(names, compareNatural)
		for _, n := range names {
			out = append(out, path.Join(filepath.ToSlash(folder), sub, n))
		}
	}
	return out, nil
}

func compareNatural(a, b string) int {
	switch {
	case naturalLess(a, b):
		return -1
	case naturalLess(b, a):
		return 1
	default:
		return 0
	}
}
