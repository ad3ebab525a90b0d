package recording

import (
	"path/filepath"
	"strings"
)

// DescriptionExt is the extension of the generated sibling description file.
const DescriptionExt = ".txt"

// Recording is a finished capture handed to the pipeline.
type Recording struct {
	Path string
	Ext  string
}

// New builds a Recording with its lower-cased extension.
func New(path string) Recording {
	return Recording{Path: path, Ext: strings.ToLower(filepath.Ext(path))}
}

// Name returns the base file name.
func (r Recording) Name() string {
	return filepath.Base(r.Path)
}

// DescriptionPath returns the sibling text file sharing the recording's base name.
func (r Recording) DescriptionPath() string {
	return DescriptionPath(r.Path)
}

// DescriptionPath replaces the extension of path with DescriptionExt.
func DescriptionPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + DescriptionExt
}

// HasExtension reports whether path ends in one of exts, ignoring case.
// Entries in exts may be given with or without the leading dot.
func HasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	for _, candidate := range exts {
		candidate = strings.ToLower(strings.TrimSpace(candidate))
		if candidate == "" {
			continue
		}
		if !strings.HasPrefix(candidate, ".") {
			candidate = "." + candidate
		}
		if candidate == ext {
			return true
		}
	}
	return false
}
