// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"

	"github.com/drupalcloud/drupalctl/internal/meta"
	"github.com/drupalcloud/drupalctl/internal/output"
)

// outputsCommandAction lists the declared outputs of previously synthesized
// templates. It reads from the output directory, so synth has to have run
// first.
func outputsCommandAction(ctx context.Context, cmd *cli.Command) error {
	if ShortCircuitTLDR(ctx, cmd, "outputs") {
		return nil
	}

	outDir := outDirFor(cmd)
	files, err := filepath.Glob(filepath.Join(outDir, "*.template.json"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no templates found in %s; run synth first", outDir)
	}
	sort.Strings(files)

	stackFilter := cmd.String("stack")
	rows := make([]map[string]interface{}, 0)

	for _, file := range files {
		stack := strings.TrimSuffix(filepath.Base(file), ".template.json")
		if stackFilter != "" && stack != stackFilter {
			continue
		}

		template, err := os.ReadFile(file)
		if err != nil {
			return err
		}

		gjson.GetBytes(template, "Outputs").ForEach(func(key, value gjson.Result) bool {
			rows = append(rows, map[string]interface{}{
				"stack":       stack,
				"name":        key.String(),
				"export":      value.Get("Export.Name").String(),
				"description": value.Get("Description").String(),
			})
			return true
		})
	}

	output.Spit(rows, []string{"stack", "name", "export", "description"}, cmd, os.Stdout)
	return nil
}

func outputsCommandBuilder(meta meta.Meta) *cli.Command {
	acb := AssemblyCommandBuilder{
		Name:      "outputs",
		Usage:     "list stack outputs from synthesized templates",
		UsageText: "drupalctl outputs [OutDir] [options]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "stack",
				Usage: "limit the listing to a single stack",
			},
		},
		Action: outputsCommandAction,
		Meta:   meta,
	}
	return acb.Build()
}
