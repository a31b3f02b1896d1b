// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/drupalcloud/drupalctl/internal/config"
	"github.com/drupalcloud/drupalctl/internal/log"
	"github.com/drupalcloud/drupalctl/internal/meta"
	"github.com/drupalcloud/drupalctl/internal/output"
	"github.com/drupalcloud/drupalctl/internal/synth"
)

// manifestEntry is one stack's record in the assembly manifest.
type manifestEntry struct {
	Name         string            `json:"name"`
	Env          synth.Environment `json:"environment"`
	DependsOn    []string          `json:"dependsOn,omitempty"`
	Tags         []synth.Tag       `json:"tags,omitempty"`
	TemplateFile string            `json:"templateFile"`
	Warnings     []string          `json:"warnings,omitempty"`
}

// synthCommandAction assembles the platform and writes one template file per
// stack plus a manifest into the output directory.
func synthCommandAction(ctx context.Context, cmd *cli.Command) error {
	if ShortCircuitTLDR(ctx, cmd, "synth") {
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

	outDir := outDirFor(cmd)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", outDir, err)
	}

	emitYAML := cmd.Bool("yaml")
	manifest := make([]manifestEntry, 0, len(asm.Artifacts))
	rows := make([]map[string]interface{}, 0, len(asm.Artifacts))

	for _, artifact := range asm.Artifacts {
		file := artifact.Name + ".template.json"
		if err := os.WriteFile(filepath.Join(outDir, file), artifact.Template, 0o644); err != nil {
			return fmt.Errorf("failed to write template for %s: %w", artifact.Name, err)
		}
		if emitYAML {
			y, err := synth.TemplateYAML(artifact.Template)
			if err != nil {
				return fmt.Errorf("failed to render YAML for %s: %w", artifact.Name, err)
			}
			yfile := artifact.Name + ".template.yaml"
			if err := os.WriteFile(filepath.Join(outDir, yfile), y, 0o644); err != nil {
				return fmt.Errorf("failed to write YAML template for %s: %w", artifact.Name, err)
			}
		}

		manifest = append(manifest, manifestEntry{
			Name:         artifact.Name,
			Env:          artifact.Env,
			DependsOn:    artifact.DependsOn,
			Tags:         artifact.Tags,
			TemplateFile: file,
			Warnings:     artifact.Warnings,
		})
		rows = append(rows, map[string]interface{}{
			"stack":    artifact.Name,
			"size":     humanize.Bytes(uint64(len(artifact.Template))),
			"warnings": len(artifact.Warnings),
		})

		for _, w := range artifact.Warnings {
			log.Warnf("%s: %s", artifact.Name, w)
		}
	}

	mbytes, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "manifest.json"), mbytes, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	log.Infof("synthesized %d stacks to %s", len(asm.Artifacts), outDir)
	output.Spit(rows, []string{"stack", "size", "warnings"}, cmd, os.Stdout)
	return nil
}

// outDirFor resolves the output directory: positional spec first, then the
// config file, then the conventional default.
func outDirFor(cmd *cli.Command) string {
	m := GetMeta(cmd)
	if m.OutDir != "" {
		return m.OutDir
	}
	dir, _ := config.GetString("synth.out_dir", "cdk.out")
	return dir
}

func synthCommandBuilder(meta meta.Meta) *cli.Command {
	cfg := meta.Config.Source
	acb := AssemblyCommandBuilder{
		Name:      "synth",
		Usage:     "assemble deployment templates",
		UsageText: "drupalctl synth [OutDir[::env]] [options]",
		Flags: []cli.Flag{
			NewAccountFlag("synth", cfg),
			NewRegionFlag("synth", cfg),
			NewProfileFlag(),
			&cli.BoolFlag{
				Name:        "yaml",
				Usage:       "also write YAML renditions of each template",
				HideDefault: true,
			},
		},
		Action: synthCommandAction,
		Meta:   meta,
	}
	return acb.Build()
}
