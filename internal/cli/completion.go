package cli

import (
	"fmt"
	"io"
	"strings"
)

// FlagCompletion describes a CLI flag for shell completion generation.
// Every generator reads flagRegistry, so a new flag only needs an entry there.
type FlagCompletion struct {
	Long      string   // long flag name without "--"
	Short     string   // short flag without "-"
	Help      string   // description text
	Values    []string // suggested values (nil = boolean or free-form)
	ValueName string   // label for the value in zsh
}

var flagRegistry = []FlagCompletion{
	{Long: "help", Short: "h", Help: "Show help message"},
	{Long: "version", Help: "Show version information"},
	{Long: "mode", Help: "Output mode", Values: []string{"text", "json", "tui"}, ValueName: "mode"},
	{Long: "duration", Help: "Stop after this long", Values: []string{"10s", "30s", "1m", "5m"}, ValueName: "duration"},
	{Long: "force-interval", Help: "Force a collection at this interval", Values: []string{"100ms", "500ms", "1s", "5s"}, ValueName: "duration"},
	{Long: "force-kind", Help: "Kind of forced collection", Values: []string{"markSweepCompact", "scavenge"}, ValueName: "kind"},
	{Long: "queue-size", Help: "GC event ring capacity before spilling", Values: []string{"256", "1024", "4096"}, ValueName: "events"},
	{Long: "metrics-addr", Help: "Serve metrics on this address", Values: []string{":9464", "127.0.0.1:9464"}, ValueName: "addr"},
	{Long: "workload", Help: "Fibonacci index of the allocation workload", Values: []string{"0", "10000", "20000", "100000"}, ValueName: "index"},
	{Long: "gc-mode", Help: "Collector tuning", Values: []string{"default", "aggressive", "relaxed"}, ValueName: "mode"},
	{Long: "memory-limit", Help: "Soft memory limit in relaxed mode", Values: []string{"256MiB", "512MiB", "1GiB"}, ValueName: "size"},
	{Long: "log-level", Help: "Log level", Values: []string{"debug", "info", "warn", "error"}, ValueName: "level"},
	{Long: "quiet", Short: "q", Help: "Summary only"},
	{Long: "completion", Help: "Generate completion script", Values: []string{"bash", "zsh", "fish"}, ValueName: "shell"},
}

// GenerateCompletion writes the completion script for shell to out.
func GenerateCompletion(out io.Writer, shell, program string) error {
	var script string
	switch shell {
	case "bash":
		script = FormatBashCompletion(program)
	case "zsh":
		script = FormatZshCompletion(program)
	case "fish":
		script = FormatFishCompletion(program)
	default:
		return fmt.Errorf("unsupported shell: %s (accepted values: bash, zsh, fish)", shell)
	}
	if _, err := fmt.Fprint(out, script); err != nil {
		return fmt.Errorf("completion %s generation failed: %w", shell, err)
	}
	return nil
}

// FormatBashCompletion returns a Bash completion script.
func FormatBashCompletion(program string) string {
	var opts []string
	var cases strings.Builder
	for _, f := range flagRegistry {
		if f.Long != "" {
			opts = append(opts, "--"+f.Long)
		}
		if f.Short != "" {
			opts = append(opts, "-"+f.Short)
		}
		if len(f.Values) == 0 {
			continue
		}
		fmt.Fprintf(&cases, "        --%s)\n            COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n            return 0\n            ;;\n",
			f.Long, strings.Join(f.Values, " "))
	}
	fn := "_" + identifier(program) + "_completions"
	return fmt.Sprintf(`# Bash completion script for %[1]s
# Add this to your ~/.bashrc or ~/.bash_completion

%[2]s() {
    local cur prev opts
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"
    opts="%[3]s"

    case "${prev}" in
%[4]s    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=( $(compgen -W "${opts}" -- "${cur}") )
        return 0
    fi
}

complete -F %[2]s %[1]s
`, program, fn, strings.Join(opts, " "), cases.String())
}

// FormatZshCompletion returns a Zsh completion script.
func FormatZshCompletion(program string) string {
	args := make([]string, 0, len(flagRegistry))
	for _, f := range flagRegistry {
		args = append(args, zshArgEntry(f))
	}
	fn := "_" + identifier(program)
	return fmt.Sprintf(`#compdef %[1]s

# Zsh completion script for %[1]s
# Place this file in a directory of your $fpath

%[2]s() {
    _arguments -s \
%[3]s
}

%[2]s "$@"
`, program, fn, strings.Join(args, " \\\n"))
}

func zshArgEntry(f FlagCompletion) string {
	suffix := ""
	if len(f.Values) > 0 {
		suffix = fmt.Sprintf(":%s:(%s)", f.ValueName, strings.Join(f.Values, " "))
	}
	if f.Short != "" {
		return fmt.Sprintf("        '(-%s --%s)'{-%s,--%s}'[%s]%s'",
			f.Short, f.Long, f.Short, f.Long, f.Help, suffix)
	}
	return fmt.Sprintf("        '--%s[%s]%s'", f.Long, f.Help, suffix)
}

// FormatFishCompletion returns a Fish completion script.
func FormatFishCompletion(program string) string {
	lines := []string{
		"# Fish completion script for " + program,
		fmt.Sprintf("# Add this to ~/.config/fish/completions/%s.fish", program),
		"",
		"complete -c " + program + " -f",
	}
	for _, f := range flagRegistry {
		parts := []string{"complete -c " + program}
		if f.Short != "" {
			parts = append(parts, "-s "+f.Short)
		}
		parts = append(parts, "-l "+f.Long, fmt.Sprintf("-d '%s'", f.Help))
		if len(f.Values) > 0 {
			parts = append(parts, fmt.Sprintf("-xa '%s'", strings.Join(f.Values, " ")))
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return strings.Join(lines, "\n") + "\n"
}

// identifier maps a program name to a valid shell function name.
func identifier(program string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, program)
}
