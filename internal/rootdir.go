package internal

import (
	"regexp"
	"strings"
)

var sep = regexp.MustCompile(`[\\/]`)

// RootDir is the top-level directory shared by every entry in an archive, including its trailing slash.
type RootDir string

// Name returns the directory name without the trailing slash.
func (r RootDir) Name() string {
	return strings.TrimSuffix(string(r), "/")
}

// FindZipRootDir returns the common root directory of the given entry names.
//
// Given these three names:
//
//	test/a.txt
//	test/path/b.txt
//	test/another/path/c.txt
//
// The common root directory of those entries is `test/`. The returned value is empty if the given names have no common
// root directory.
func FindZipRootDir(names []string) (rootDir RootDir) {
	fn := NewZipRootDirFinder()

	var ok bool
	for _, name := range names {
		if rootDir, ok = fn(name); !ok {
			break
		}
	}

	return
}

// NewZipRootDirFinder returns a function that can be passed the entry names one at a time to compute the common root.
//
// The function returns the current root dir and whether there is a common root so far. As soon as the returned boolean
// is false, the search can stop since subsequent calls will keep returning `"", false`.
func NewZipRootDirFinder() func(string) (rootDir RootDir, hasRoot bool) {
	noRoot, root := false, ""

	return func(name string) (RootDir, bool) {
		if noRoot {
			return "", false
		}

		paths := sep.Split(name, 2)
		if len(paths) == 1 || paths[0] == "" {
			// top-level file or absolute name.
			noRoot = true
			return "", false
		}

		switch root {
		case paths[0]:
		case "":
			root = paths[0]
		default:
			noRoot = true
			return "", false
		}

		return RootDir(root + "/"), true
	}
}
