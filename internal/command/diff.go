// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/drupalcloud/drupalctl/internal/differ"
	"github.com/drupalcloud/drupalctl/internal/meta"
)

// diffCommandAction compares templates. With two file arguments it diffs the
// files directly; otherwise it assembles a fresh template for --stack and
// diffs it against the synthesized copy on disk.
func diffCommandAction(ctx context.Context, cmd *cli.Command) error {
	if ShortCircuitTLDR(ctx, cmd, "diff") {
		return nil
	}

	args := cmd.Args().Slice()
	if len(args) == 2 {
		templates, err := readTemplates(args[0], args[1])
		if err != nil {
			return err
		}
		return differ.Diff(ctx, cmd, templates, os.Stdout)
	}

	stack := cmd.String("stack")
	if stack == "" {
		return fmt.Errorf("either two template files or --stack is required")
	}

	onDisk, err := os.ReadFile(filepath.Join(outDirFor(cmd), stack+".template.json"))
	if err != nil {
		return fmt.Errorf("no synthesized template for %s; run synth first: %w", stack, err)
	}

	env, err := resolveEnvironment(ctx, cmd)
	if err != nil {
		return err
	}
	app, _, err := assemblePlatform(env, GetMeta(cmd).Env)
	if err != nil {
		return err
	}
	asm, err := app.Synth()
	if err != nil {
		return err
	}

	for _, artifact := range asm.Artifacts {
		if artifact.Name == stack {
			return differ.Diff(ctx, cmd, [][]byte{onDisk, artifact.Template}, os.Stdout)
		}
	}

	return fmt.Errorf("unknown stack %s", stack)
}

func readTemplates(paths ...string) ([][]byte, error) {
	templates := make([][]byte, 0, len(paths))
	for _, path := range paths {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		templates = append(templates, b)
	}
	return templates, nil
}

func diffCommandBuilder(meta meta.Meta) *cli.Command {
	cfg := meta.Config.Source
	acb := AssemblyCommandBuilder{
		Name:      "diff",
		Usage:     "compare templates",
		UsageText: "drupalctl diff [fileA fileB] [options]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "stack",
				Usage: "diff a fresh assembly of this stack against the synthesized copy",
			},
			&cli.StringFlag{
				Name:  "diff_filter",
				Usage: "comma-separated top-level template keys to exclude from the comparison",
			},
			NewAccountFlag("diff", cfg),
			NewRegionFlag("diff", cfg),
			NewProfileFlag(),
		},
		Action: diffCommandAction,
		Meta:   meta,
	}
	return acb.Build()
}
