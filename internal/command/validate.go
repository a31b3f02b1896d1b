// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"os"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"

	"github.com/drupalcloud/drupalctl/internal/log"
	"github.com/drupalcloud/drupalctl/internal/meta"
	"github.com/drupalcloud/drupalctl/internal/output"
)

// validateCommandAction assembles the platform and runs the full validation
// and rendering pass without writing anything to disk. A clean pass prints a
// per-stack summary; any violation surfaces as the command error.
func validateCommandAction(ctx context.Context, cmd *cli.Command) error {
	if ShortCircuitTLDR(ctx, cmd, "validate") {
		return nil
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

	rows := make([]map[string]interface{}, 0, len(asm.Artifacts))
	for _, artifact := range asm.Artifacts {
		resources := gjson.GetBytes(artifact.Template, "Resources").Map()
		outputs := gjson.GetBytes(artifact.Template, "Outputs").Map()
		rows = append(rows, map[string]interface{}{
			"stack":     artifact.Name,
			"resources": len(resources),
			"outputs":   len(outputs),
			"dependson": strings.Join(artifact.DependsOn, ","),
		})
	}

	log.Infof("%d stacks validated", len(asm.Artifacts))
	output.Spit(rows, []string{"stack", "resources", "outputs", "dependson"}, cmd, os.Stdout)
	return nil
}

func validateCommandBuilder(meta meta.Meta) *cli.Command {
	cfg := meta.Config.Source
	acb := AssemblyCommandBuilder{
		Name:      "validate",
		Usage:     "assemble and validate without writing templates",
		UsageText: "drupalctl validate [options]",
		Flags: []cli.Flag{
			NewAccountFlag("validate", cfg),
			NewRegionFlag("validate", cfg),
			NewProfileFlag(),
		},
		Action: validateCommandAction,
		Meta:   meta,
	}
	return acb.Build()
}
