// FILE: lixenwraith/settings/discovery.go
package settings

import (
	"os"
	"path/filepath"
	"strings"
)

// FileDiscoveryOptions configures automatic settings file discovery
type FileDiscoveryOptions struct {
	// Base name of settings file (without extension)
	Name string

	// Extensions to try (in order)
	Extensions []string

	// Custom search paths (in addition to defaults)
	Paths []string

	// Environment variable to check for explicit path
	EnvVar string

	// CLI flag to check (e.g., "--config" or "-c")
	CLIFlag string

	// Whether to search in XDG config directories
	UseXDG bool

	// Whether to search in current directory
	UseCurrentDir bool
}

// DefaultDiscoveryOptions returns sensible defaults
func DefaultDiscoveryOptions(appName string) FileDiscoveryOptions {
	return FileDiscoveryOptions{
		Name:          appName,
		Extensions:    []string{".toml", ".yaml", ".yml", ".json"},
		EnvVar:        strings.ToUpper(appName) + "_CONFIG",
		CLIFlag:       "--config",
		UseXDG:        true,
		UseCurrentDir: true,
	}
}

// DiscoverFile locates a settings file. An explicit path in args wins,
// then the environment variable, then the first existing file in the
// search paths. The explicit forms are returned even if the file does not exist.
func DiscoverFile(opts FileDiscoveryOptions, args []string) (string, bool) {
	if opts.CLIFlag != "" {
		for i, arg := range args {
			if arg == opts.CLIFlag && i+1 < len(args) {
				return args[i+1], true
			}
			if strings.HasPrefix(arg, opts.CLIFlag+"=") {
				return strings.TrimPrefix(arg, opts.CLIFlag+"="), true
			}
		}
	}

	if opts.EnvVar != "" {
		if path := os.Getenv(opts.EnvVar); path != "" {
			return path, true
		}
	}

	var searchPaths []string
	searchPaths = append(searchPaths, opts.Paths...)
	if opts.UseCurrentDir {
		if cwd, err := os.Getwd(); err == nil {
			searchPaths = append(searchPaths, cwd)
		}
	}
	if opts.UseXDG {
		searchPaths = append(searchPaths, getXDGConfigPaths(opts.Name)...)
	}

	for _, dir := range searchPaths {
		for _, ext := range opts.Extensions {
			path := filepath.Join(dir, opts.Name+ext)
			if _, err := os.Stat(path); err == nil {
				return path, true
			}
		}
	}

	return "", false
}

// getXDGConfigPaths returns XDG-compliant config search paths
func getXDGConfigPaths(appName string) []string {
	var paths []string

	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		paths = append(paths, filepath.Join(xdgHome, appName))
	} else if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", appName))
	}

	if xdgDirs := os.Getenv("XDG_CONFIG_DIRS"); xdgDirs != "" {
		for _, dir := range filepath.SplitList(xdgDirs) {
			paths = append(paths, filepath.Join(dir, appName))
		}
	} else {
		paths = append(paths,
			filepath.Join("/etc/xdg", appName),
			filepath.Join("/etc", appName),
		)
	}

	return paths
}
