// Package launcher coordinates one run: fetch the descriptor, resolve the
// host's version, provision the repository checkout and the isolated
// environment, then execute BioBeamer (or print the reproduction recipe in
// debug mode). The flow is strictly sequential; no phase starts before the
// previous one completed.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/charmbracelet/log"

	"biobeamer-launcher/internal/config"
	"biobeamer-launcher/internal/descriptor"
	"biobeamer-launcher/internal/gitrepo"
	"biobeamer-launcher/internal/venv"
)

// Launcher is the top-level orchestrator.
type Launcher struct {
	Config *config.Config
	Logger *log.Logger

	Descriptors *descriptor.Fetcher
	Resolver    *gitrepo.Resolver
	Repos       *gitrepo.Cache
	Envs        *venv.Cache

	// DebugOut receives the debug-mode print. Defaults to stdout.
	DebugOut io.Writer

	// execFn is a test seam for subprocess execution; nil means real exec.
	execFn func(ctx context.Context, inv Invocation, logPath string) (int, error)
}

// New wires a launcher from a validated config.
func New(cfg *config.Config, logger *log.Logger) (*Launcher, error) {
	ledger, err := gitrepo.LoadLedger(cfg.CacheDir, cfg.RepoURL)
	if err != nil {
		return nil, err
	}

	return &Launcher{
		Config: cfg,
		Logger: logger,
		Descriptors: &descriptor.Fetcher{
			CacheRoot: cfg.CacheDir,
		},
		Resolver: &gitrepo.Resolver{
			Ledger: ledger,
			Sync:   cfg.SyncBranches,
			Logger: logger,
		},
		Repos:    &gitrepo.Cache{Root: cfg.CacheDir, Logger: logger},
		Envs:     &venv.Cache{Root: cfg.CacheDir, Logger: logger},
		DebugOut: os.Stdout,
	}, nil
}

// Run executes the launcher state machine and returns the process exit
// code. In debug mode everything is provisioned identically but instead of
// executing BioBeamer the resolved paths and arguments are printed and the
// code is zero. A non-nil error always means an orchestrator-side failure;
// a BioBeamer failure surfaces as its own exit code with a nil error.
func (l *Launcher) Run(ctx context.Context, debug bool) (int, error) {
	cfg := l.Config

	// Configuration echo. The password is deliberately absent.
	l.Logger.Info("launcher configuration",
		"repo_url", cfg.RepoURL,
		"descriptor", cfg.DescriptorPath,
		"host", cfg.HostName,
		"log_dir", cfg.LogDir,
		"sync_branches", cfg.SyncBranches)

	fetched, err := l.Descriptors.Fetch(ctx, cfg.DescriptorPath)
	if err != nil {
		return 0, phaseErr(PhaseFetchDescriptor, err)
	}
	if fetched.FromCache {
		l.Logger.Warn("descriptor fetch failed, using cached copy", "path", fetched.Path)
	} else {
		l.Logger.Info("descriptor ready", "path", fetched.Path)
	}

	host, err := descriptor.SelectHostFile(fetched.Path, cfg.HostName)
	if err != nil {
		return 0, phaseErr(PhaseSelectHost, err)
	}
	ref := gitrepo.Ref{Kind: gitrepo.RefTag, Name: host.Version}
	if host.IsBranch {
		ref.Kind = gitrepo.RefBranch
	}
	l.Logger.Info("selected host entry", "host", host.Name, "ref", ref.String())

	resolved, err := l.Resolver.Resolve(ctx, cfg.RepoURL, ref)
	if err != nil {
		return 0, phaseErr(PhaseResolveRef, err)
	}
	l.Logger.Info("resolved version", "version", resolved.VersionID(), "hash", resolved.Hash)

	repoPath, err := l.Repos.Ensure(ctx, cfg.RepoURL, resolved.Hash)
	if err != nil {
		return 0, phaseErr(PhasePrepareRepository, err)
	}

	if l.Envs.UV == "" && l.Envs.Run == nil {
		uv, err := venv.FindUV(config.UVPath())
		if err != nil {
			return 0, phaseErr(PhasePrepareEnvironment, err)
		}
		l.Envs.UV = uv
	}
	env, err := l.Envs.Ensure(ctx, resolved.VersionID(), repoPath)
	if err != nil {
		return 0, phaseErr(PhasePrepareEnvironment, err)
	}

	inv := BuildInvocation(env.BioBeamer, fetched.Path, cfg.HostName, cfg.LogDir, cfg.Password)

	if debug {
		l.printDebug(repoPath, env, resolved, inv)
		return 0, nil
	}

	logPath := filepath.Join(cfg.LogDir, fmt.Sprintf("biobeamer_subprocess_%s.log", cfg.HostName))
	l.Logger.Info("running biobeamer", "command", inv.String(), "subprocess_log", logPath)
	code, err := l.execute(ctx, inv, logPath)
	if err != nil {
		return 0, phaseErr(PhaseExecute, err)
	}
	if code != 0 {
		l.Logger.Error("biobeamer exited with non-zero code", "code", code)
	}
	return code, nil
}

// execute runs BioBeamer with stdout and stderr captured into logPath and
// mirrors its exit code.
func (l *Launcher) execute(ctx context.Context, inv Invocation, logPath string) (int, error) {
	if l.execFn != nil {
		return l.execFn(ctx, inv, logPath)
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return 0, fmt.Errorf("create log dir: %w", err)
	}
	logFile, err := os.Create(logPath)
	if err != nil {
		return 0, fmt.Errorf("create subprocess log: %w", err)
	}
	defer logFile.Close()

	cmd := exec.CommandContext(ctx, inv.Program, inv.Args()...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 0, fmt.Errorf("run %s: %w", inv.Program, err)
	}
	return 0, nil
}
