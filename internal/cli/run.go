package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"biobeamer-launcher/internal/config"
	"biobeamer-launcher/internal/flags"
	"biobeamer-launcher/internal/launcher"
	"biobeamer-launcher/internal/logging"
)

// exitFatal is the exit code for orchestrator-side failures: config
// unreadable, descriptor unreachable, host not found, ref not found, tag
// moved, provisioning failure, corrupt cache. When BioBeamer itself runs
// and fails, its own exit code is mirrored instead.
const exitFatal = 3

var (
	configPath string
	debugMode  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run BioBeamer for the configured host",
	Long: `Resolve this host's BioBeamer version from the remote descriptor,
provision the version's checkout and virtualenv under the launcher cache,
and execute the biobeamer entry point.

With --debug everything is provisioned identically, but instead of
executing BioBeamer the resolved paths and the exact argument list are
printed and the exit code is zero. The printed argument line includes the
transfer password; it goes to the console only, never into a log file.

Exit codes:
	0 = BioBeamer succeeded (or --debug print completed)
	N = BioBeamer ran and exited with code N
	3 = launcher-side fatal error (nothing was executed)`,
	Run: func(cmd *cobra.Command, args []string) {
		path := configPath
		if path == "" {
			path = config.DefaultPath()
		}

		cfg, err := config.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitFatal)
		}
		cfg.Verbose = verbose || cfg.SSHDebug

		logger, closeLog, err := logging.New(cfg.LogDir, cfg.Verbose)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitFatal)
		}

		l, err := launcher.New(cfg, logger)
		if err != nil {
			logger.Error("launcher setup failed", "err", err)
			closeLog()
			os.Exit(exitFatal)
		}

		code, err := l.Run(context.Background(), debugMode)
		if err != nil {
			logger.Error("run failed", "err", err)
			closeLog()
			os.Exit(exitFatal)
		}
		closeLog()
		os.Exit(code)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&configPath, flags.FlagConfig, "", "Path to launcher.ini (default: $BIOBEAMER_LAUNCHER_CONFIG, then config/launcher.ini next to the executable)")
	runCmd.Flags().BoolVar(&debugMode, flags.FlagDebug, false, "Provision everything, print resolved paths and exact arguments, and exit without running BioBeamer")
}
