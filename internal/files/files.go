// Package files discovers convention files and derives entity names from their paths.
package files

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// extendedLengthPath matches Windows \\?\ paths which must not be rewritten.
var (
	extendedLengthPath = regexp.MustCompile(`^\\\\\?\\`)
	nonASCII           = regexp.MustCompile(`[^\x00-\x80]+`)
)

// GetFiles walks root recursively and returns the absolute paths of the files whose
// base name matches one of patterns, sorted. A missing root yields no files.
// When each is set it is called for every file in order and its first error is returned.
func GetFiles(root string, patterns []string, each func(file string) error) ([]string, error) {
	var out []string

	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		for _, pattern := range patterns {
			ok, errMatch := filepath.Match(pattern, d.Name())
			if errMatch != nil {
				return errors.Wrapf(errMatch, "bad pattern %q", pattern)
			}

			if ok {
				abs, errAbs := filepath.Abs(path)
				if errAbs != nil {
					return errAbs //nolint:wrapcheck
				}

				out = append(out, abs)

				break
			}
		}

		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to scan %s", root)
	}

	sort.Strings(out)

	if each != nil {
		for _, file := range out {
			if err = each(file); err != nil {
				return out, err
			}
		}
	}

	return out, nil
}

// YAMLFiles returns GetFiles(root) for *.yaml and *.yml.
func YAMLFiles(root string) ([]string, error) {
	return GetFiles(root, []string{"*.yaml", "*.yml"}, nil)
}

// StandardizePath converts Windows backslash paths to slash paths: `foo\\bar` -> `foo/bar`.
// Extended-length paths and paths containing non-ASCII characters are returned unchanged.
func StandardizePath(path string) string {
	if extendedLengthPath.MatchString(path) || nonASCII.MatchString(path) {
		return path
	}

	return strings.ReplaceAll(path, `\`, "/")
}

// EntityName extracts the entity name from a file path: models/user.yaml -> user.
func EntityName(file string) string {
	parts := strings.Split(StandardizePath(file), "/")

	return strings.Split(parts[len(parts)-1], ".")[0]
}

// Filename returns the file name of a slash path without extension.
func Filename(file string) string {
	parts := strings.Split(file, "/")

	return strings.Split(parts[len(parts)-1], ".")[0]
}

// GeneratePrefix derives a router prefix from a file below dir:
// /src/internal/api/v1/user/user.go -> /v1/user.
// The last occurrence of dir is used; files outside dir yield "".
func GeneratePrefix(file, dir string) string {
	file = StandardizePath(file)
	marker := "/" + strings.Trim(dir, "/") + "/"

	idx := strings.LastIndex(file, marker)
	if idx < 0 {
		if !strings.HasPrefix(file, strings.TrimPrefix(marker, "/")) {
			return ""
		}

		idx = -1
		marker = strings.TrimPrefix(marker, "/")
	}

	rest := file[idx+len(marker):]

	segments := make([]string, 0, 4) //nolint:mnd
	for _, part := range strings.Split(rest, "/") {
		if part == "" || strings.Contains(part, ".") {
			continue
		}

		segments = append(segments, part)
	}

	return "/" + strings.Join(segments, "/")
}

// ParseYAML decodes a YAML file into a generic value.
func ParseYAML(file string) (any, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", file)
	}

	var out any
	if err = yaml.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", file)
	}

	return out, nil
}
