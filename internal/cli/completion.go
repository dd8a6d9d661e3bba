package cli

import (
	"fmt"
)

// CompletionCmd generates shell completions
type CompletionCmd struct {
	Shell string `arg:"" enum:"bash,zsh,fish" help:"Shell type (bash, zsh, fish)"`
}

// Run executes the completion command
func (c *CompletionCmd) Run(globals *Globals) error {
	switch c.Shell {
	case "bash":
		return c.generateBash(globals)
	case "zsh":
		return c.generateZsh(globals)
	case "fish":
		return c.generateFish(globals)
	default:
		return fmt.Errorf("unsupported shell: %s", c.Shell)
	}
}

func (c *CompletionCmd) generateBash(globals *Globals) error {
	script := `# pgpeaks bash completion script
# Add to ~/.bashrc or ~/.bash_profile:
#   eval "$(pgpeaks completion bash)"

_pgpeaks_completions() {
    local cur prev words cword
    _init_completion || return

    local commands="peaks totals patterns schema examples config completion version update"
    local global_flags="-f --format -q --quiet -v --verbose --log-format"
    local input_flags="--min-severity --mask --mask-field --begin --end --input-format --timezone --workers --fail-fast"
    local severities="DEBUG5 DEBUG4 DEBUG3 DEBUG2 DEBUG1 LOG INFO NOTICE WARNING ERROR FATAL PANIC"

    case "${prev}" in
        pgpeaks)
            COMPREPLY=($(compgen -W "${commands}" -- "${cur}"))
            return
            ;;
        -f|--format)
            COMPREPLY=($(compgen -W "ndjson text" -- "${cur}"))
            return
            ;;
        --log-format)
            COMPREPLY=($(compgen -W "console json" -- "${cur}"))
            return
            ;;
        --min-severity|-s|--severity)
            COMPREPLY=($(compgen -W "${severities}" -- "${cur}"))
            return
            ;;
        --mask-field)
            COMPREPLY=($(compgen -W "severity message log_time" -- "${cur}"))
            return
            ;;
        --input-format)
            COMPREPLY=($(compgen -W "auto csv json stderr" -- "${cur}"))
            return
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "${cur}"))
            return
            ;;
    esac

    case "${words[1]}" in
        peaks)
            COMPREPLY=($(compgen -f -W "-i --interval -s --severity --all-severities ${input_flags} ${global_flags}" -- "${cur}"))
            ;;
        totals)
            COMPREPLY=($(compgen -f -W "-s --severity ${input_flags} ${global_flags}" -- "${cur}"))
            ;;
        patterns)
            COMPREPLY=($(compgen -f -W "-n --top -s --severity ${input_flags} ${global_flags}" -- "${cur}"))
            ;;
        schema)
            COMPREPLY=($(compgen -W "-t --type ${global_flags}" -- "${cur}"))
            ;;
        config)
            COMPREPLY=($(compgen -W "show path generate ${global_flags}" -- "${cur}"))
            ;;
        *)
            COMPREPLY=($(compgen -W "${commands} ${global_flags}" -- "${cur}"))
            ;;
    esac
}

complete -F _pgpeaks_completions pgpeaks
`
	_, err := fmt.Fprint(globals.Stdout, script)
	return err
}

func (c *CompletionCmd) generateZsh(globals *Globals) error {
	script := `#compdef pgpeaks
# pgpeaks zsh completion script
# Add to ~/.zshrc:
#   eval "$(pgpeaks completion zsh)"

_pgpeaks() {
    local -a commands
    commands=(
        'peaks:Count events per severity in fixed time buckets and report the busiest'
        'totals:Count events per severity'
        'patterns:Group messages into normalized patterns'
        'schema:Output JSON Schema for pgpeaks output types'
        'examples:Show usage examples'
        'config:Show or manage configuration'
        'completion:Generate shell completions'
        'version:Show version information'
        'update:Show how to upgrade pgpeaks'
    )

    local -a severities
    severities=(DEBUG5 DEBUG4 DEBUG3 DEBUG2 DEBUG1 LOG INFO NOTICE WARNING ERROR FATAL PANIC)

    local -a global_opts
    global_opts=(
        '-f[Output format]:format:(ndjson text)'
        '--format[Output format]:format:(ndjson text)'
        '-q[Only log errors]'
        '--quiet[Only log errors]'
        '-v[Log debug output]'
        '--verbose[Log debug output]'
        '--log-format[Diagnostic log format]:format:(console json)'
    )

    local -a input_opts
    input_opts=(
        '--min-severity[Drop records below this severity]:severity:($severities)'
        '--mask[Keep records whose mask field starts with prefix]:prefix:'
        '--mask-field[Field the mask is compared against]:field:(severity message log_time)'
        '--begin[Drop records before this time]:time:'
        '--end[Drop records after this time]:time:'
        '--input-format[Input log format]:format:(auto csv json stderr)'
        '--timezone[Timezone for buckets]:zone:'
        '--workers[Files processed in parallel]:workers:'
        '--fail-fast[Stop at the first bad record]'
        '*:file:_files'
    )

    _arguments -C \
        $global_opts \
        '1: :->command' \
        '*:: :->args'

    case $state in
        command)
            _describe 'command' commands
            ;;
        args)
            case $words[1] in
                peaks)
                    _arguments \
                        '-i[Bucket width]:interval:' \
                        '--interval[Bucket width]:interval:' \
                        '*-s[Severity to track]:severity:($severities)' \
                        '*--severity[Severity to track]:severity:($severities)' \
                        '--all-severities[Track every severity]' \
                        $input_opts $global_opts
                    ;;
                totals)
                    _arguments \
                        '*-s[Severity to count]:severity:($severities)' \
                        '*--severity[Severity to count]:severity:($severities)' \
                        $input_opts $global_opts
                    ;;
                patterns)
                    _arguments \
                        '-n[Number of patterns]:top:' \
                        '--top[Number of patterns]:top:' \
                        '*-s[Severity to group]:severity:($severities)' \
                        '*--severity[Severity to group]:severity:($severities)' \
                        $input_opts $global_opts
                    ;;
                config)
                    _arguments '1:action:(show path generate)'
                    ;;
                completion)
                    _arguments '1:shell:(bash zsh fish)'
                    ;;
            esac
            ;;
    esac
}

_pgpeaks "$@"
`
	_, err := fmt.Fprint(globals.Stdout, script)
	return err
}

func (c *CompletionCmd) generateFish(globals *Globals) error {
	script := `# pgpeaks fish completion script
# Add to ~/.config/fish/completions/pgpeaks.fish:
#   pgpeaks completion fish > ~/.config/fish/completions/pgpeaks.fish

# Disable file completion by default
complete -c pgpeaks -f

# Commands
complete -c pgpeaks -n "__fish_use_subcommand" -a "peaks" -d "Report the busiest time bucket per severity"
complete -c pgpeaks -n "__fish_use_subcommand" -a "totals" -d "Count events per severity"
complete -c pgpeaks -n "__fish_use_subcommand" -a "patterns" -d "Group messages into normalized patterns"
complete -c pgpeaks -n "__fish_use_subcommand" -a "schema" -d "Output JSON Schema for pgpeaks output types"
complete -c pgpeaks -n "__fish_use_subcommand" -a "examples" -d "Show usage examples"
complete -c pgpeaks -n "__fish_use_subcommand" -a "config" -d "Show or manage configuration"
complete -c pgpeaks -n "__fish_use_subcommand" -a "completion" -d "Generate shell completions"
complete -c pgpeaks -n "__fish_use_subcommand" -a "version" -d "Show version information"
complete -c pgpeaks -n "__fish_use_subcommand" -a "update" -d "Show how to upgrade pgpeaks"

# Global flags
complete -c pgpeaks -s f -l format -d "Output format" -xa "ndjson text"
complete -c pgpeaks -s q -l quiet -d "Only log errors"
complete -c pgpeaks -s v -l verbose -d "Log debug output"
complete -c pgpeaks -l log-format -d "Diagnostic log format" -xa "console json"

# Input flags
set -l analyze "__fish_seen_subcommand_from peaks totals patterns"
set -l severities "DEBUG5 DEBUG4 DEBUG3 DEBUG2 DEBUG1 LOG INFO NOTICE WARNING ERROR FATAL PANIC"
complete -c pgpeaks -n $analyze -F
complete -c pgpeaks -n $analyze -l min-severity -d "Drop records below this severity" -xa $severities
complete -c pgpeaks -n $analyze -l mask -d "Keep records whose mask field starts with prefix" -r
complete -c pgpeaks -n $analyze -l mask-field -d "Field the mask is compared against" -xa "severity message log_time"
complete -c pgpeaks -n $analyze -l begin -d "Drop records before this time" -r
complete -c pgpeaks -n $analyze -l end -d "Drop records after this time" -r
complete -c pgpeaks -n $analyze -l input-format -d "Input log format" -xa "auto csv json stderr"
complete -c pgpeaks -n $analyze -l timezone -d "Timezone for buckets" -r
complete -c pgpeaks -n $analyze -l workers -d "Files processed in parallel" -r
complete -c pgpeaks -n $analyze -l fail-fast -d "Stop at the first bad record"
complete -c pgpeaks -n $analyze -s s -l severity -d "Severity to include" -xa $severities

# Peaks command
complete -c pgpeaks -n "__fish_seen_subcommand_from peaks" -s i -l interval -d "Bucket width" -r
complete -c pgpeaks -n "__fish_seen_subcommand_from peaks" -l all-severities -d "Track every severity"

# Patterns command
complete -c pgpeaks -n "__fish_seen_subcommand_from patterns" -s n -l top -d "Number of patterns" -r

# Config command
complete -c pgpeaks -n "__fish_seen_subcommand_from config" -a "show path generate"

# Completion command
complete -c pgpeaks -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
	_, err := fmt.Fprint(globals.Stdout, script)
	return err
}
