// Package flags defines canonical CLI flag names shared across the CLI.
// Keeping these as constants avoids drift between Cobra flag wiring and
// other code that references flags (help text, error messages).
// These are flag *names* without leading dashes.
package flags

const (
	// FlagConfig is the launcher.ini path. When set it beats the
	// BIOBEAMER_LAUNCHER_CONFIG environment variable.
	FlagConfig = "config"

	// FlagDebug provisions everything, prints the reproduction recipe, and
	// exits without running BioBeamer.
	FlagDebug = "debug"

	// FlagVerbose enables debug-level launcher logging.
	FlagVerbose = "verbose"
)
