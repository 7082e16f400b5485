package launcher

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"biobeamer-launcher/internal/gitrepo"
	"biobeamer-launcher/internal/venv"
)

// printDebug writes the reproduction recipe: every resolved path plus the
// exact argument list, in copy-paste form. Two runs with identical config
// and identical resolved commit print identical output — that determinism
// is the whole point of debug mode.
//
// This is the one place the transfer password is shown in the clear. It is
// an operator-triggered, interactive-console disclosure, clearly labeled;
// it never reaches the launcher log.
func (l *Launcher) printDebug(repoPath string, env venv.Environment, resolved gitrepo.Resolved, inv Invocation) {
	w := l.DebugOut
	bold := color.New(color.Bold)
	rule := strings.Repeat("=", 60)

	fmt.Fprintln(w, rule)
	bold.Fprintln(w, "BIOBEAMER DEBUG INFO")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Repository path:       %s\n", repoPath)
	fmt.Fprintf(w, "Environment path:      %s\n", env.Dir)
	fmt.Fprintf(w, "Version:               %s (%s, %s)\n", resolved.VersionID(), resolved.Ref, resolved.Hash)
	fmt.Fprintf(w, "Python interpreter:    %s\n", env.Python)
	fmt.Fprintf(w, "BioBeamer entry point: %s\n", env.BioBeamer)
	fmt.Fprintf(w, "Descriptor path:       %s\n", inv.XMLPath)
	fmt.Fprintf(w, "Host name:             %s\n", inv.HostName)
	fmt.Fprintln(w)
	bold.Fprintln(w, "EXACT COMMAND ARGUMENTS (copy-paste ready):")
	fmt.Fprintln(w, "Note: the argument line below contains the transfer password in the clear.")
	fmt.Fprintf(w, "%s %s\n", inv.Program, inv.CommandLine())
	fmt.Fprintln(w)
	bold.Fprintln(w, "IDE SETUP:")
	fmt.Fprintf(w, "  Open project:    %s\n", repoPath)
	fmt.Fprintf(w, "  Set interpreter: %s\n", env.Python)
	fmt.Fprintln(w, rule)
}
