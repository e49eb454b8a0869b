package internal

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrUnsafePath is returned by LocalPath for entry names that would escape the output directory.
var ErrUnsafePath = errors.New("entry name is not a local path")

// MkExclDir creates a new child directory that did not exist prior to this invocation.
//
// Stem is the desired name of the directory. The actual directory that is created might have numeric suffixes such as
// stem-1, stem-2, etc. The return value is the actual path to the newly created directory.
func MkExclDir(parent, stem string, perm os.FileMode) (name string, err error) {
	name = filepath.Join(parent, stem)
	for i := 0; ; {
		switch err = os.Mkdir(name, perm); {
		case err == nil:
			return
		case errors.Is(err, os.ErrExist):
			i++
			name = filepath.Join(parent, stem+"-"+strconv.Itoa(i))
		default:
			return "", fmt.Errorf("create directory error: %w", err)
		}
	}
}

// StemOf returns the base name of the archive at the given source without its extension.
//
// Source may be a URL, an S3 URI, or a local path; query strings are dropped. "https://host/a/b.zip?x=1" has stem
// "b".
func StemOf(source string) string {
	source, _, _ = strings.Cut(source, "?")
	base := path.Base(filepath.ToSlash(source))
	if stem := strings.TrimSuffix(base, path.Ext(base)); stem != "" && stem != "." && stem != "/" {
		return stem
	}

	return "archive"
}

// LocalPath joins dir with the ZIP entry name, after trimming root from the name.
//
// Names are always slash-separated in ZIP archives but some writers use backslashes, so both are accepted. Names that
// are absolute or contain ".." elements are rejected with ErrUnsafePath.
func LocalPath(dir string, root RootDir, name string) (string, error) {
	rel := strings.TrimPrefix(strings.ReplaceAll(name, `\`, "/"), string(root))
	if rel == "" || !filepath.IsLocal(filepath.FromSlash(rel)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}

	return filepath.Join(dir, filepath.FromSlash(rel)), nil
}
