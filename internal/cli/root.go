package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"biobeamer-launcher/internal/flags"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "biobeamer-launcher",
	Short: "Resolve, provision, and run the pinned BioBeamer version for this host",
	Long: `biobeamer-launcher bootstraps BioBeamer runs.

Given a launcher.ini, it fetches the remote XML descriptor, looks up which
BioBeamer version this host must run, ensures that exact version's source
checkout and isolated virtualenv exist under the launcher cache, and runs
the biobeamer entry point with host-specific arguments.

Examples:
	# Run BioBeamer for the host named in launcher.ini
	biobeamer-launcher run --config /etc/biobeamer/launcher.ini

	# Provision everything and print the exact reproduction recipe
	biobeamer-launcher run --config /etc/biobeamer/launcher.ini --debug

Environment:
	BIOBEAMER_LAUNCHER_CONFIG      launcher.ini path (beaten by --config)
	BIOBEAMER_LAUNCHER_CACHE_DIR   cache root override
	UV_PATH                        explicit uv executable
	BIOBEAMER_LAUNCHER_SSH_DEBUG   verbose transport diagnostics

Cache recovery:
	The cache root is never deleted automatically. If a run reports a
	corrupt cache, delete the cache directory and re-run.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, flags.FlagVerbose, false, "Enable debug-level launcher logging")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
