package convert

import (
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"cssmap/config"
	"cssmap/state"
)

// buildOutputPath returns constructed output file path/name for a source.
// It uses either default naming scheme or user-defined template. It cleans
// up the path and if requested slugifies it.
func buildOutputPath(src, dst string, env *state.LocalEnv) string {
	defaultFile := buildDefaultFileName(src, env)

	if env.Cfg.Document.OutputNameTemplate == "" {
		return filepath.Join(dst, defaultFile)
	}

	expandedName := expandOutputNameTemplate(src, env)
	if expandedName == "" {
		// fallback to default name if template expansion failed
		return filepath.Join(dst, defaultFile)
	}

	return assemblePathWithSubdirs(dst, expandedName, env)
}

func buildDefaultFileName(src string, env *state.LocalEnv) string {
	baseName := sourceBase(src)
	if env.Cfg.Document.FileNameSlugify {
		baseName = slug.Make(baseName)
	}
	return config.CleanFileName(env.Cfg.Document.Prefix+baseName) + ".php"
}

// sourceBase extracts a usable name from a source reference, either the
// last path element of an URL or the file name without extension. An URL
// without a path falls back to its host name.
func sourceBase(src string) string {
	name := src
	if u, err := url.Parse(src); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		if name = path.Base(u.Path); name == "." || name == "/" {
			return u.Hostname()
		}
	} else {
		name = filepath.Base(src)
	}
	return strings.TrimSuffix(name, path.Ext(name))
}

// sourceHost returns host name for URL sources and empty string otherwise.
func sourceHost(src string) string {
	if u, err := url.Parse(src); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return u.Hostname()
	}
	return ""
}

func expandOutputNameTemplate(src string, env *state.LocalEnv) string {
	expandedName, err := expandTemplate(src, config.OutputNameTemplateFieldName, env.Cfg.Document.OutputNameTemplate, env)
	if err != nil {
		env.Log.Warn("Unable to prepare output filename", zap.Error(err))
		return ""
	}
	return filepath.FromSlash(expandedName)
}

// assemblePathWithSubdirs takes an expanded template name (which may contain
// path separators for subdirectories) and assembles it into a full output path,
// cleaning and slugifying segments as needed
func assemblePathWithSubdirs(outDir, expandedName string, env *state.LocalEnv) string {
	pathSegments := splitAndCleanPath(expandedName)

	if len(pathSegments) == 0 {
		return outDir
	}

	fileName := cleanPathSegment(pathSegments[len(pathSegments)-1], env) + ".php"
	dirParts := make([]string, 0, len(pathSegments)+1)
	dirParts = append(dirParts, outDir)

	for _, segment := range pathSegments[:len(pathSegments)-1] {
		dirParts = append(dirParts, cleanPathSegment(segment, env))
	}

	dirParts = append(dirParts, fileName)
	return filepath.Join(dirParts...)
}

func splitAndCleanPath(path string) []string {
	path = strings.TrimSuffix(path, string(os.PathSeparator))
	segments := make([]string, 0, 8)

	for head, tail := filepath.Split(path); tail != ""; head, tail = filepath.Split(head) {
		segments = slices.Insert(segments, 0, tail)
		head = strings.TrimSuffix(head, string(os.PathSeparator))
		if head == "" {
			break
		}
		path = head
	}

	return segments
}

func cleanPathSegment(segment string, env *state.LocalEnv) string {
	if env.Cfg.Document.FileNameSlugify {
		segment = slug.Make(segment)
	}
	return config.CleanFileName(segment)
}
