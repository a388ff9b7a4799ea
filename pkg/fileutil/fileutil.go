// Package fileutil provides utility functions for locating configuration files.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/githubnext/wfcheck/pkg/constants"
	"github.com/githubnext/wfcheck/pkg/logger"
)

var log = logger.New("fileutil:fileutil")

// ConfigFilePattern matches configuration files below a project root.
const ConfigFilePattern = "**/*garden.{yml,yaml}"

// ValidateAbsolutePath cleans path and verifies it is absolute.
//
// Example:
//
//	cleanPath, err := fileutil.ValidateAbsolutePath(userInputPath)
//	if err != nil {
//	    return fmt.Errorf("invalid path: %w", err)
//	}
func ValidateAbsolutePath(path string) (string, error) {
	if path == "" {
		return "", errors.New("path cannot be empty")
	}

	cleanPath := filepath.Clean(path)
	if !filepath.IsAbs(cleanPath) {
		return "", fmt.Errorf("path must be absolute, got: %s", path)
	}

	return cleanPath, nil
}

// FileExists checks if a file exists and is not a directory.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists checks if a directory exists.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// FindProjectConfig returns the first project configuration file found in dir.
func FindProjectConfig(dir string) (string, error) {
	for _, name := range constants.ProjectConfigFileNames {
		path := filepath.Join(dir, name)
		if FileExists(path) {
			log.Printf("Found project configuration: %s", path)
			return path, nil
		}
	}
	return "", fmt.Errorf("no project configuration found in %s (looked for %v)", dir, constants.ProjectConfigFileNames)
}

// FindConfigFiles returns every configuration file below dir, sorted,
// skipping hidden directories.
func FindConfigFiles(dir string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), ConfigFilePattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to search %s for configuration files: %w", dir, err)
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		if isHidden(m) {
			continue
		}
		files = append(files, filepath.Join(dir, filepath.FromSlash(m)))
	}
	slices.Sort(files)
	log.Printf("Found %d configuration files in %s", len(files), dir)
	return files, nil
}

// isHidden reports whether a slash-separated relative path passes through a
// hidden directory.
func isHidden(rel string) bool {
	dirs := strings.Split(rel, "/")
	for _, seg := range dirs[:len(dirs)-1] {
		if strings.HasPrefix(seg, ".") && seg != "." && seg != ".." {
			return true
		}
	}
	return false
}
