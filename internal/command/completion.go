// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/drupalcloud/drupalctl/internal/meta"
)

const bashCompletionScript = `# bash completion for drupalctl
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_drupalctl()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "synth validate outputs diff deploy completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
  local common="--color -c --output -o --padding --sort -s --titles -t --tldr"

    # Determine if an optional OutDir (first non-flag after subcommand) has
    # already been provided
    local have_outdir=0
    local idx=2
    while [[ $idx -lt ${#COMP_WORDS[@]} ]]; do
        local w=${COMP_WORDS[$idx]}
        if [[ $w != -* ]]; then
            have_outdir=1
            break
        fi
        ((idx++))
    done

    case "$cmd" in
    synth)
      local opts="$common --account --region -r --profile -p --yaml"
            ;;
        validate)
      local opts="$common --account --region -r --profile -p"
            ;;
        outputs)
      local opts="$common --stack"
            ;;
        diff)
      local opts="$common --stack --diff_filter --account --region -r --profile -p"
            ;;
        deploy)
      local opts="$common --stage --yes -y --bucket --account --region -r --profile -p"
            ;;
        completion)
            local opts="bash zsh"
            COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
            return 0
            ;;
        *)
            local opts="$common"
            ;;
    esac

    if [[ "$prev" == "--output" || "$prev" == "-o" ]]; then
        COMPREPLY=( $(compgen -W "text json raw yaml" -- "$cur") )
        return 0
    fi

    if [[ "$prev" == "--stage" ]]; then
        COMPREPLY=( $(compgen -W "dev prod all" -- "$cur") )
        return 0
    fi

  # If current token starts with '-', or we've already consumed OutDir, offer flags
  if [[ "$cur" == -* || $have_outdir -eq 1 ]]; then
    COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
    return 0
  fi

  # Otherwise, we're on the (optional) OutDir positional - complete directories
  COMPREPLY=( $(compgen -o dirnames -- "$cur") )
  return 0
}

complete -F _drupalctl drupalctl
`

const zshCompletionScript = `#compdef drupalctl

_drupalctl() {
  local -a cmds
  cmds=(
    'synth:assemble deployment templates'
    'validate:assemble and validate without writing templates'
    'outputs:list stack outputs from synthesized templates'
    'diff:compare templates'
    'deploy:deploy the assembled stacks stage by stage'
    'completion:generate shell completion script'
  )

  local -a common
  common=(
  '(-c --color)'{-c,--color}'[enable colored text]'
  '(-o --output)'{-o,--output}'[output format]:format:(text json raw yaml)'
  '--padding[padding between table columns]:padding'
  '(-s --sort)'{-s,--sort}'[sort attributes]:attrs'
  '(-t --titles)'{-t,--titles}'[show titles]'
  '--tldr[show tldr page]'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'drupalctl commands' cmds
    return
  fi

  local curcontext="$curcontext" state line
  case $words[2] in
    synth)
      _arguments -C \
        $common \
        '--account[AWS account]' \
        '(-r --region)'{-r,--region}'[AWS region]' \
        '(-p --profile)'{-p,--profile}'[AWS shared config profile]' \
        '--yaml[also write YAML templates]' \
        '::OutDir:_directories'
      ;;
    validate)
      _arguments -C \
        $common \
        '--account[AWS account]' \
        '(-r --region)'{-r,--region}'[AWS region]' \
        '(-p --profile)'{-p,--profile}'[AWS shared config profile]'
      ;;
    outputs)
      _arguments -C \
        $common \
        '--stack[limit to a single stack]:stack' \
        '::OutDir:_directories'
      ;;
    diff)
      _arguments -C \
        $common \
        '--stack[stack to diff]:stack' \
        '--diff_filter[keys to exclude]:keys' \
        '--account[AWS account]' \
        '(-r --region)'{-r,--region}'[AWS region]' \
        '(-p --profile)'{-p,--profile}'[AWS shared config profile]' \
        '*:template file:_files'
      ;;
    deploy)
      _arguments -C \
        $common \
        '--stage[stage to deploy]:stage:(dev prod all)' \
        '(-y --yes)'{-y,--yes}'[pass approval steps]' \
        '--bucket[S3 staging bucket]:bucket' \
        '--account[AWS account]' \
        '(-r --region)'{-r,--region}'[AWS region]' \
        '(-p --profile)'{-p,--profile}'[AWS shared config profile]'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
    *)
      _arguments -C $common '*:directory:_directories'
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys
# is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _drupalctl drupalctl drupalctl
`

func completionCommandAction(ctx context.Context, cmd *cli.Command) error {
	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	switch shell {
	case "bash":
		fmt.Fprint(os.Stdout, bashCompletionScript)
	case "zsh":
		fmt.Fprint(os.Stdout, zshCompletionScript)
	default:
		// Try to detect from SHELL or print help
		sh := os.Getenv("SHELL")
		switch {
		case strings.HasSuffix(sh, "zsh"):
			fmt.Fprint(os.Stdout, zshCompletionScript)
		case strings.HasSuffix(sh, "bash"):
			fmt.Fprint(os.Stdout, bashCompletionScript)
		default:
			fmt.Fprintln(os.Stderr, "usage: drupalctl completion [bash|zsh]")
			return nil
		}
	}
	return nil
}

func completionCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "drupalctl completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: completionCommandAction,
	}
}
