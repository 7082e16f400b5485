// Package venv provisions and caches one isolated virtualenv per resolved
// BioBeamer version, using uv for environment creation and installation.
package venv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"biobeamer-launcher/internal/lockfile"
)

// ErrProvisioning means environment creation or installation failed. Fatal
// for the run: there is deliberately no fallback to a shared environment,
// to guarantee version isolation. The partial environment is removed so the
// cache is left in a consistent "absent" state for retry.
var ErrProvisioning = errors.New("environment provisioning failed")

// Environment is a ready-to-use isolated run-environment for one version.
type Environment struct {
	// Dir is the virtualenv root, named deterministically from the version.
	Dir string
	// Python is the environment's interpreter, the path an IDE should use.
	Python string
	// BioBeamer is the installed biobeamer entry point.
	BioBeamer string
}

// Runner executes one provisioning step. extraEnv entries are KEY=VALUE
// pairs layered over the current process environment.
type Runner func(ctx context.Context, extraEnv []string, name string, args ...string) error

// Cache owns the per-version environments under <root>/venvs.
type Cache struct {
	Root   string
	UV     string // uv executable; see FindUV
	Logger *log.Logger

	// Run overrides subprocess execution of provisioning steps; nil means
	// real execution. Tests use it to provision without uv installed.
	Run Runner

	group singleflight.Group
}

// Ensure returns the environment for versionID, provisioning it from the
// checkout at sourcePath if it does not exist yet.
//
// The environment directory name derives deterministically from versionID,
// so repeated calls are idempotent and two versions never collide. An
// existing complete environment short-circuits all work. Provisioning is
// all-or-nothing: steps run against a *.partial directory that is renamed
// into place only after the biobeamer entry point is verified, and removed
// on any failure. A version change never mutates an old environment; stale
// environments accumulate until pruned manually.
func (c *Cache) Ensure(ctx context.Context, versionID, sourcePath string) (Environment, error) {
	name := "venv-" + sanitize(versionID)
	env, err, _ := c.group.Do(name, func() (any, error) {
		final := environmentAt(filepath.Join(c.Root, "venvs", name))

		// Cheap existence check before taking any lock.
		if ready(final) {
			c.Logger.Debug("environment already provisioned", "path", final.Dir)
			return final, nil
		}

		err := lockfile.WithLock(ctx, c.Root, name, func() error {
			// Re-check: another process may have finished while we waited.
			if ready(final) {
				return nil
			}
			return c.provision(ctx, final.Dir, sourcePath)
		})
		if err != nil {
			return Environment{}, err
		}
		return final, nil
	})
	if err != nil {
		return Environment{}, err
	}
	return env.(Environment), nil
}

func (c *Cache) provision(ctx context.Context, finalDir, sourcePath string) (err error) {
	partial := finalDir + ".partial"
	// A stale partial dir is debris from a crashed run; it was never
	// presented as ready, so replacing it is safe.
	if err := os.RemoveAll(partial); err != nil {
		return fmt.Errorf("%w: clear stale partial environment: %v", ErrProvisioning, err)
	}
	if err := os.MkdirAll(filepath.Dir(partial), 0o755); err != nil {
		return fmt.Errorf("%w: create environment root: %v", ErrProvisioning, err)
	}
	defer func() {
		if err != nil {
			os.RemoveAll(partial)
		}
	}()

	c.Logger.Info("creating environment", "path", finalDir, "source", sourcePath)
	if err := c.step(ctx, nil, c.UV, "venv", partial); err != nil {
		return fmt.Errorf("%w: create virtualenv: %v", ErrProvisioning, err)
	}

	staging := environmentAt(partial)
	installEnv := []string{
		"VIRTUAL_ENV=" + partial,
		"PATH=" + filepath.Dir(staging.Python) + string(os.PathListSeparator) + os.Getenv("PATH"),
	}
	if err := c.step(ctx, installEnv, c.UV, "pip", "install", "-e", sourcePath); err != nil {
		return fmt.Errorf("%w: install from %s: %v", ErrProvisioning, sourcePath, err)
	}

	if _, statErr := os.Stat(staging.BioBeamer); statErr != nil {
		return fmt.Errorf("%w: biobeamer entry point missing after install: %v", ErrProvisioning, statErr)
	}

	if renameErr := os.Rename(partial, finalDir); renameErr != nil {
		return fmt.Errorf("%w: finalize environment: %v", ErrProvisioning, renameErr)
	}
	c.Logger.Info("environment ready", "path", finalDir)
	return nil
}

func (c *Cache) step(ctx context.Context, extraEnv []string, name string, args ...string) error {
	if c.Run != nil {
		return c.Run(ctx, extraEnv, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), extraEnv...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

// ready reports whether env is a complete environment. The entry point is
// written last (by the install step), so its presence implies completeness;
// partial provisioning never reaches the final directory name at all.
func ready(env Environment) bool {
	_, err := os.Stat(env.BioBeamer)
	return err == nil
}

// environmentAt lays out the expected interpreter and entry-point paths for
// a virtualenv directory on this platform.
func environmentAt(dir string) Environment {
	if runtime.GOOS == "windows" {
		return Environment{
			Dir:       dir,
			Python:    filepath.Join(dir, "Scripts", "python.exe"),
			BioBeamer: filepath.Join(dir, "Scripts", "biobeamer.exe"),
		}
	}
	return Environment{
		Dir:       dir,
		Python:    filepath.Join(dir, "bin", "python"),
		BioBeamer: filepath.Join(dir, "bin", "biobeamer"),
	}
}

// FindUV locates the uv executable: UV_PATH, then PATH, then scripts/uv
// bundled next to the launcher executable.
func FindUV(override string) (string, error) {
	if override != "" {
		if isExecutable(override) {
			return override, nil
		}
		return "", fmt.Errorf("UV_PATH points at %s, which is not an executable file", override)
	}

	if path, err := exec.LookPath("uv"); err == nil {
		return path, nil
	}

	exe, err := os.Executable()
	if err == nil {
		bundled := filepath.Join(filepath.Dir(exe), "scripts", "uv")
		if runtime.GOOS == "windows" {
			bundled += ".exe"
		}
		if isExecutable(bundled) {
			return bundled, nil
		}
	}
	return "", errors.New("could not find the uv executable: install uv, add it to PATH, or set UV_PATH")
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode()&0o111 != 0
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '_' || r == '-':
			return r
		default:
			return '-'
		}
	}, s)
}
