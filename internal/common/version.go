package common

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Build metadata, normally stamped by the release workflow through ldflags.
// The defaults identify a local dev build.
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

func GetVersion() string { return Version }

func GetBuild() string { return Build }

func GetGitCommit() string { return GitCommit }

// GetFullVersion renders the one-line form used by the banner and /api/version.
func GetFullVersion() string {
	return fmt.Sprintf("%s (build: %s, commit: %s)", Version, Build, GitCommit)
}

// LoadVersionFromFile backfills build metadata from a .version file next to
// the fintra binary, for deployments that ship a prebuilt binary without
// ldflags. Fields already stamped at link time win; only defaults are
// replaced. The file is key: value per line, # comments allowed.
func LoadVersionFromFile() {
	exe, err := os.Executable()
	if err != nil {
		return
	}
	f, err := os.Open(filepath.Join(filepath.Dir(exe), ".version"))
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		applyVersionField(strings.TrimSpace(key), strings.TrimSpace(val))
	}
}

func applyVersionField(key, val string) {
	if val == "" {
		return
	}
	switch key {
	case "version":
		if Version == "dev" {
			Version = val
		}
	case "build":
		if Build == "unknown" {
			Build = val
		}
	case "commit":
		if GitCommit == "unknown" {
			GitCommit = val
		}
	}
}
