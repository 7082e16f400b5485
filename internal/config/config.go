package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

// Environment variables recognized by the launcher. Each one overrides the
// built-in default but never an explicitly supplied command-line value.
const (
	EnvConfigPath = "BIOBEAMER_LAUNCHER_CONFIG"
	EnvCacheDir   = "BIOBEAMER_LAUNCHER_CACHE_DIR"
	EnvUVPath     = "UV_PATH"
	EnvSSHDebug   = "BIOBEAMER_LAUNCHER_SSH_DEBUG"
)

// cacheDirName is the per-user cache subdirectory holding the repository
// clone, the per-version virtualenvs, the ref ledger, and lock files.
const cacheDirName = "biobeamer-launcher"

// Config holds the resolved launcher configuration for one run. It is loaded
// once at startup and read-only afterwards.
type Config struct {
	// RepoURL is the git URL of the BioBeamer repository (see biobeamer_repo_url).
	RepoURL string

	// DescriptorPath is the XML descriptor location: an http(s) URL or a
	// local filesystem path (see xml_file_path).
	DescriptorPath string

	// HostName selects this host's entry in the descriptor (see host_name).
	HostName string

	// LogDir receives the launcher log and the BioBeamer subprocess log
	// (see log_dir). Empty means "use the cache root".
	LogDir string

	// Password is the transfer secret handed to BioBeamer. May be empty.
	// It must never reach the launcher log; see launcher.Invocation.
	Password string

	// SyncBranches re-resolves branch refs against the remote on every run
	// (see sync_branches_to_remote). Tags are unaffected; they are pinned.
	SyncBranches bool

	// CacheDir is the cache root. Defaults to the user cache dir, overridden
	// by BIOBEAMER_LAUNCHER_CACHE_DIR.
	CacheDir string

	// SSHDebug enables verbose transport diagnostics (BIOBEAMER_LAUNCHER_SSH_DEBUG).
	SSHDebug bool

	// Verbose enables debug-level launcher logging (--verbose).
	Verbose bool
}

// DefaultPath returns the launcher.ini path to use when none was given on
// the command line.
//
// Precedence:
//  1. explicit --config value (handled by the caller; wins over everything)
//  2. BIOBEAMER_LAUNCHER_CONFIG environment variable
//  3. config/launcher.ini next to the launcher executable
func DefaultPath() string {
	if env := strings.TrimSpace(os.Getenv(EnvConfigPath)); env != "" {
		return env
	}
	exe, err := os.Executable()
	if err != nil {
		return filepath.Join("config", "launcher.ini")
	}
	return filepath.Join(filepath.Dir(exe), "config", "launcher.ini")
}

// Load reads launcher.ini from path and applies environment overrides.
// The returned config has already passed Validate.
func Load(path string) (*Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("read launcher config %s: %w", path, err)
	}

	sec := f.Section("config")
	cfg := &Config{
		RepoURL:        strings.TrimSpace(sec.Key("biobeamer_repo_url").String()),
		DescriptorPath: strings.TrimSpace(sec.Key("xml_file_path").String()),
		HostName:       strings.TrimSpace(sec.Key("host_name").String()),
		LogDir:         strings.TrimSpace(sec.Key("log_dir").String()),
		Password:       sec.Key("password").String(),
		SyncBranches:   sec.Key("sync_branches_to_remote").MustBool(false),
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if env := strings.TrimSpace(os.Getenv(EnvCacheDir)); env != "" {
		c.CacheDir = env
	}
	if isTruthy(os.Getenv(EnvSSHDebug)) {
		c.SSHDebug = true
	}
}

// Validate checks required keys and fills derived defaults. Field names in
// error messages match the launcher.ini keys so users can fix the file
// directly.
func (c *Config) Validate() error {
	if c.RepoURL == "" {
		return errors.New("launcher config: biobeamer_repo_url is required")
	}
	if c.DescriptorPath == "" {
		return errors.New("launcher config: xml_file_path is required")
	}
	if c.HostName == "" {
		return errors.New("launcher config: host_name is required")
	}

	if c.CacheDir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return fmt.Errorf("launcher config: resolve user cache dir: %w", err)
		}
		c.CacheDir = filepath.Join(base, cacheDirName)
	}
	if c.LogDir == "" {
		c.LogDir = c.CacheDir
	}
	return nil
}

// UVPath returns the uv executable override, if any.
//
// Full lookup order (the fallbacks live in the venv package because they
// need exec.LookPath and GOOS awareness):
//  1. UV_PATH environment variable
//  2. uv on PATH
//  3. scripts/uv (or scripts/uv.exe) next to the launcher executable
func UVPath() string {
	return strings.TrimSpace(os.Getenv(EnvUVPath))
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
