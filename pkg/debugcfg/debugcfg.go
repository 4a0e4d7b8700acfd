// Package debugcfg reads the NAK_DEBUG environment variable into a set of
// boolean compiler debug flags, the same comma-separated-flags-in-an-env-var
// shape the teacher's cmd/z80opt binds to flags (pkg/search.Config.Verbose)
// but sourced from the environment rather than cobra, since these flags are
// meant to be toggled without touching the driver's command line.
package debugcfg

import (
	"os"
	"strings"
)

// Flags holds the debug toggles. Within this module only the spiller reads
// any of them (Annotate and Print); calcdeps takes its serial switch as
// CalcInstrDeps's own bool argument.
type Flags struct {
	// Serial names calcdeps' conservative two-barrier fallback
	// (assign_deps_serial). No pass reads this field; CalcInstrDeps takes
	// the choice as its serial argument.
	Serial bool
	// Cycles is parsed but read by no pass: no static-cycle-count
	// assertion is made when it is set.
	Cycles bool
	// Annotate makes the spiller insert an OpAnnotate pseudo-instruction,
	// which carries no text, before each spill/fill burst it emits.
	Annotate bool
	// Print makes the spiller dump the function to stderr after it
	// finishes spilling one register file.
	Print bool
}

// FromEnv parses NAK_DEBUG, a comma-separated list of flag names
// (e.g. "serial,print"), into a Flags value. Unknown names are ignored: a
// later nakcore build may add flags an older NAK_DEBUG value still names.
func FromEnv() Flags {
	return Parse(os.Getenv("NAK_DEBUG"))
}

// Parse builds a Flags value from a comma-separated flag list, exported
// separately from FromEnv so tests don't need to mutate the environment.
func Parse(s string) Flags {
	var f Flags
	for _, name := range strings.Split(s, ",") {
		switch strings.TrimSpace(name) {
		case "serial":
			f.Serial = true
		case "cycles":
			f.Cycles = true
		case "annotate":
			f.Annotate = true
		case "print":
			f.Print = true
		}
	}
	return f
}
