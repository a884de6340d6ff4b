// Package modearg parses the flat positional+flag CLI contract spec.md §6
// defines: an optional cache-dir override plus an optional mode flag
// (daemon when none is given).
package modearg

import "fmt"

// Mode selects which of the five operations to run.
type Mode int

const (
	ModeDaemon Mode = iota
	ModeOneshot
	ModeGetClipboard
	ModeCopyClipboard
	ModeClearPrimary
	ModeHelp
)

func (m Mode) String() string {
	switch m {
	case ModeOneshot:
		return "oneshot"
	case ModeGetClipboard:
		return "get-clipboard"
	case ModeCopyClipboard:
		return "copy-clipboard"
	case ModeClearPrimary:
		return "clear-primary"
	case ModeHelp:
		return "help"
	default:
		return "daemon"
	}
}

// Parsed is the result of parsing argv.
type Parsed struct {
	Mode     Mode
	CacheDir string // "" means unset: caller falls back to rendezvous.ResolveDir defaults

	// Internal is set when InternalFlag (the hidden copy-serve re-exec
	// flag) is present, with PayloadPath pointing at the temp file
	// holding the data to serve.
	Internal    bool
	PayloadPath string

	// InternalDaemon is set when InternalDaemonFlag (the hidden daemon
	// re-exec flag) is present: this process is the detached child a
	// foreground `zes` relaunched itself as to self-daemonize.
	InternalDaemon bool
}

// Parse walks argv (excluding argv[0]) applying spec.md §6's rule: any
// non-flag argument is the cache directory override. Several mode flags may
// appear; a later mode flag overrides an earlier one, matching the original
// C's last-flag-wins loop.
func Parse(args []string) (Parsed, error) {
	var p Parsed

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--oneshot":
			p.Mode = ModeOneshot
		case "--get-clipboard":
			p.Mode = ModeGetClipboard
		case "--copy-clipboard":
			p.Mode = ModeCopyClipboard
		case "--clear-primary":
			p.Mode = ModeClearPrimary
		case "--help", "-h":
			p.Mode = ModeHelp
		case internalFlag:
			p.Internal = true
			if i+1 >= len(args) {
				return Parsed{}, fmt.Errorf("modearg: %s requires a payload path", internalFlag)
			}
			i++
			p.PayloadPath = args[i]
		case InternalDaemonFlag:
			p.InternalDaemon = true
		default:
			p.CacheDir = args[i]
		}
	}
	return p, nil
}

// internalFlag mirrors copyserver.InternalFlag without importing that
// package here, avoiding a dependency cycle (copyserver doesn't need to
// know about CLI parsing, and cmd/zes wires both together).
const internalFlag = "--internal-copy-serve"

// InternalDaemonFlag is the hidden re-exec flag the daemon operation uses
// to recognize its own detached child, mirroring internalFlag's role for
// the copy-clipboard hand-off but carrying no payload path. Exported
// (unlike internalFlag) because cmd/zes, not this package, is what
// constructs the re-exec argv for the daemon hand-off.
const InternalDaemonFlag = "--internal-daemon"

// HelpText is printed for ModeHelp, matching the original C's usage text
// (SPEC_FULL.md §4 supplemented feature).
const HelpText = `Usage: zes [cache_dir] [--oneshot|--get-clipboard|--copy-clipboard|--clear-primary]

Selection/clipboard bridge for zsh-edit-select

Modes:
  (default)         Daemon: monitor PRIMARY selection
  --oneshot         Print current PRIMARY and exit
  --get-clipboard   Print clipboard contents and exit
  --copy-clipboard  Read stdin, set as clipboard
  --clear-primary   Clear PRIMARY selection
  --help, -h        Show this message
`
