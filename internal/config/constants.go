// Package config holds build constants and the optional project file.
package config

import (
	"path/filepath"
	"strings"
)

// Version is the marina release version
const Version = "0.3.0"

const SourceFileExt = ".prg"

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".prg", ".marina"}

// BundleFileExt is the extension of compiled bytecode bundles
const BundleFileExt = ".mrb"

// Entry function names tried in order when no entry is configured
var EntryFunctionNames = []string{"Main", "main"}

// Project file names, in lookup order
const (
	ProjectFileYAML = "marina.yaml"
	ProjectFileYML  = "marina.yml"
	ProjectFileTOML = "marina.toml"
)

// Environment overrides
const (
	EnvANSI    = "MARINA_ANSI"
	EnvNoColor = "NO_COLOR"
)

// IsSourceFile reports whether path has a recognized source extension.
func IsSourceFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SourceFileExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// TrimSourceExt removes a recognized source extension from path.
func TrimSourceExt(path string) string {
	if IsSourceFile(path) {
		return strings.TrimSuffix(path, filepath.Ext(path))
	}
	return path
}

// BundlePath returns the default bundle path for a source file.
func BundlePath(source string) string {
	return TrimSourceExt(source) + BundleFileExt
}
