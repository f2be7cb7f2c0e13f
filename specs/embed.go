// Package specs provides the schema documents shipped with the module.
//
// One YAML document per (version, profile) pair, laid out as
// <version>/<profile>.yaml with the profile name lower-cased:
//
//	data, err := specs.ReadFile(dsrf.V30, dsrf.ProfileAudioVisual)
//
// The schema package compiles these documents; most callers go through
// schema.Load rather than reading them directly.
package specs

import (
	"embed"
	"io/fs"
	"sort"
	"strings"

	"github.com/godsrf/dsrf"
)

//go:embed 3.0/*.yaml
var files embed.FS

// FS returns the embedded documents.
func FS() fs.FS {
	return files
}

// Path returns the document path for a version and profile inside FS.
func Path(version dsrf.Version, profile dsrf.Profile) string {
	return string(version) + "/" + strings.ToLower(string(profile)) + ".yaml"
}

// ReadFile reads the embedded document for a version and profile.
func ReadFile(version dsrf.Version, profile dsrf.Profile) ([]byte, error) {
	return files.ReadFile(Path(version, profile))
}

// Has reports whether a document ships for the version and profile.
func Has(version dsrf.Version, profile dsrf.Profile) bool {
	_, err := files.ReadFile(Path(version, profile))
	return err == nil
}

// List returns the paths of every embedded document, sorted.
func List() []string {
	var paths []string
	_ = fs.WalkDir(files, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".yaml") {
			return err
		}
		paths = append(paths, path)
		return nil
	})
	sort.Strings(paths)
	return paths
}
