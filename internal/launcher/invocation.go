package launcher

import "strings"

// Invocation is the exact command to run BioBeamer for one host. Built
// fresh per run, never persisted.
//
// The transfer password is deliberately unexported and excluded from
// String(): nothing that passes an Invocation to a logger can leak it. The
// raw value is reachable only through Args(), which feeds the subprocess
// and the one-shot debug print.
type Invocation struct {
	// Program is the biobeamer entry point inside the version's environment.
	Program string

	XMLPath  string
	HostName string
	LogDir   string

	password string
}

// BuildInvocation assembles the argument set BioBeamer expects. Pure: no
// side effects, no I/O. The password flag is always present, possibly with
// an empty value, because BioBeamer requires the flag either way.
func BuildInvocation(program, xmlPath, hostName, logDir, password string) Invocation {
	return Invocation{
		Program:  program,
		XMLPath:  xmlPath,
		HostName: hostName,
		LogDir:   logDir,
		password: password,
	}
}

// Args is the full argument list, password included. Callers must not hand
// this to anything that writes durable logs; use String for that.
func (inv Invocation) Args() []string {
	return []string{
		"--xml", inv.XMLPath,
		"--hostname", inv.HostName,
		"--log_dir", inv.LogDir,
		"--password", inv.password,
	}
}

// String renders the invocation with the password redacted. Safe to log.
func (inv Invocation) String() string {
	parts := []string{inv.Program}
	args := inv.Args()
	for i := 0; i < len(args); i += 2 {
		val := args[i+1]
		if args[i] == "--password" && val != "" {
			val = "****"
		}
		parts = append(parts, args[i], quoteArg(val))
	}
	return strings.Join(parts, " ")
}

// CommandLine renders the copy-paste argument line for the debug print,
// password in the clear. One-shot console disclosure only.
func (inv Invocation) CommandLine() string {
	parts := make([]string, 0, 8)
	for _, arg := range inv.Args() {
		parts = append(parts, quoteArg(arg))
	}
	return strings.Join(parts, " ")
}

func quoteArg(arg string) string {
	if arg == "" {
		return `""`
	}
	if strings.ContainsAny(arg, " \t") {
		return `"` + arg + `"`
	}
	return arg
}
