package masshash

import (
	"io"
	"log/slog"
	"slices"
	"strings"
)

// Verbose levels, as used by the config file and the -v flag.
const (
	VerboseQuiet    = 0
	VerboseBasic    = 1
	VerboseDetailed = 2
	VerboseTrace    = 3
)

// LevelTrace sits below slog.LevelDebug for per-file output.
const LevelTrace = slog.Level(-8)

// NewLogger builds the logger handed to a Hasher. Level 0 only shows
// warnings and errors; each step up reveals info, debug and trace records.
// format "json" selects the JSON handler, anything else the text handler.
func NewLogger(w io.Writer, verboseLevel int, format string) *slog.Logger {
	options := &slog.HandlerOptions{Level: slogLevel(verboseLevel)}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, options))
	}
	return slog.New(slog.NewTextHandler(w, options))
}

func slogLevel(verboseLevel int) slog.Level {
	switch {
	case verboseLevel <= VerboseQuiet:
		return slog.LevelWarn
	case verboseLevel == VerboseBasic:
		return slog.LevelInfo
	case verboseLevel == VerboseDetailed:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

// DebugFlags is a set of named debug switches.
type DebugFlags map[string]bool

// ParseDebugFlags parses a comma-separated flag list.
// Supports both simple flags ("worker,file") and key:value format ("worker:true,file:false")
func ParseDebugFlags(flagsStr string) DebugFlags {
	flags := make(DebugFlags)
	for _, flag := range strings.Split(flagsStr, ",") {
		flag = strings.TrimSpace(flag)
		if flag == "" {
			continue
		}

		parts := strings.SplitN(flag, ":", 2)
		flagName := strings.ToLower(parts[0])
		flagValue := true

		if len(parts) > 1 {
			switch strings.ToLower(parts[1]) {
			case "false", "0", "no", "off":
				flagValue = false
			}
		}

		flags[flagName] = flagValue
	}
	return flags
}

// Enabled reports whether flag is set. A nil set has nothing enabled.
func (f DebugFlags) Enabled(flag string) bool {
	return f[strings.ToLower(flag)]
}

// String renders the enabled flags in a stable order.
func (f DebugFlags) String() string {
	var names []string
	for name, on := range f {
		if on {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return strings.Join(names, ",")
}
