// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/drupalcloud/drupalctl/internal/config"
	"github.com/drupalcloud/drupalctl/internal/meta"
	"github.com/drupalcloud/drupalctl/internal/util"
)

func InitApp(ctx context.Context, args []string) (*cli.Command, error) {

	// Save the CWD at startup and then defer restoring it so we're tidy.
	sd, _ := os.Getwd()
	defer func() {
		if err := os.Chdir(sd); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to restore directory: %v\n", err)
		}
	}()

	// The arg[1] immediately following the binary (arg[0]) is the drupalctl
	// subcommand and also represents the namespace key to be used when
	// retrieving config values. arg[1] could be -h/--help, so ignore it if it
	// appears to be a flag.
	var ns string
	if len(args) > 1 && !strings.HasPrefix(args[1], "-") {
		ns = args[1]
	}

	// allow short if-style local cfg; no actual outer cfg
	cfg2, _ := config.Load() //nolint
	cfg2.Namespace = ns
	config.Config.Namespace = ns
	meta := meta.Meta{
		Args:        args,
		Config:      cfg2,
		Context:     ctx,
		StartingDir: sd,
	}

	// See if the arg immediately following the command might be an output
	// directory. This is determined by whether or not it begins with - or --.
	// If it does, it's a flag and synth falls back to the configured default.
	// Special-case the 'completion' and 'diff' commands which take plain
	// positional arguments (e.g., 'bash' or 'zsh' for completion, template
	// files for diff).
	if (ns != "completion" && ns != "diff") && len(args) > 2 && !strings.HasPrefix(args[2], "-") {
		if od, env, err := util.ParseOutDir(args[2]); err == nil {
			meta.OutDir = od
			meta.Env = env
		} else {
			return nil, fmt.Errorf("failed to parse outDir (%s): %w", args[2], err)
		}
	}

	app := &cli.Command{
		Name:  "drupalctl",
		Usage: "Drupal platform control",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "version",
				Aliases:     []string{"v"},
				Usage:       "drupalctl version info",
				HideDefault: true,
			},
		},
	}

	app.Commands = append(app.Commands,
		synthCommandBuilder(meta),
		validateCommandBuilder(meta),
		outputsCommandBuilder(meta),
		diffCommandBuilder(meta),
		deployCommandBuilder(meta),
		completionCommandBuilder(meta),
	)

	// Make sure flags are sorted for the --help text.
	for _, cmd := range app.Commands {
		sort.Slice(cmd.Flags, func(i, j int) bool {
			return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
		})
	}

	return app, nil
}
