// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/drupalcloud/drupalctl/internal/aws"
	"github.com/drupalcloud/drupalctl/internal/log"
	"github.com/drupalcloud/drupalctl/internal/meta"
	"github.com/drupalcloud/drupalctl/internal/output"
	"github.com/drupalcloud/drupalctl/internal/pipeline"
	"github.com/drupalcloud/drupalctl/internal/stacks"
)

// deployCommandAction assembles the platform and drives the selected stages
// through the local pipeline runner: pre steps, stack deployment in
// dependency order, then post steps. Prod is gated behind its approval step
// unless --yes is given.
func deployCommandAction(ctx context.Context, cmd *cli.Command) error {
	if ShortCircuitTLDR(ctx, cmd, "deploy") {
		return nil
	}

	env, err := resolveEnvironment(ctx, cmd)
	if err != nil {
		return err
	}

	app, handle, err := assemblePlatform(env, GetMeta(cmd).Env)
	if err != nil {
		return err
	}

	asm, err := app.Synth()
	if err != nil {
		return err
	}

	var opts []aws.Option
	if profile := cmd.String("profile"); profile != "" {
		opts = append(opts, aws.WithProfile(profile))
	}
	opts = append(opts, aws.WithRegion(env.Region))
	cfg, err := aws.LoadAWSConfig(ctx, opts...)
	if err != nil {
		return err
	}

	deployer := pipeline.NewCFNDeployer(
		aws.NewCloudFormation(cfg),
		aws.NewS3(cfg),
		cmd.String("bucket"),
		env.Region,
	)

	stages := selectStages(handle, cmd.String("stage"))
	m := GetMeta(cmd)

	results, runErr := pipeline.Run(ctx, pipeline.Options{
		Stages:      stages,
		Assembly:    asm,
		Deployer:    deployer,
		Approver:    pipeline.PromptApprover(),
		AutoApprove: cmd.Bool("yes"),
		WorkDir:     m.StartingDir,
	})

	rows := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		rows = append(rows, map[string]interface{}{
			"stage":  r.Stage,
			"state":  string(r.State),
			"failed": r.FailedStep,
		})
	}
	output.Spit(rows, []string{"stage", "state", "failed"}, cmd, os.Stdout)

	if runErr != nil {
		return runErr
	}
	log.Infof("deployed %d stages to %s/%s", len(results), env.Account, env.Region)
	return nil
}

// selectStages filters the planned stages by the --stage flag.
func selectStages(handle *stacks.PipelineHandle, stage string) []*stacks.Stage {
	if stage == "" || stage == "all" {
		return handle.Stages
	}
	selected := make([]*stacks.Stage, 0, 1)
	for _, st := range handle.Stages {
		if strings.EqualFold(st.Name, stage) {
			selected = append(selected, st)
		}
	}
	return selected
}

func deployCommandBuilder(meta meta.Meta) *cli.Command {
	cfg := meta.Config.Source
	acb := AssemblyCommandBuilder{
		Name:      "deploy",
		Usage:     "deploy the assembled stacks stage by stage",
		UsageText: "drupalctl deploy [options]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "stage",
				Usage: "stage to deploy",
				Value: "all",
				Validator: func(value string) error {
					return FlagValidators(value, StageValidator)
				},
			},
			&cli.BoolFlag{
				Name:        "yes",
				Aliases:     []string{"y"},
				Usage:       "pass approval steps without prompting",
				HideDefault: true,
			},
			NameSpacedValueChainFlagFromConfigFile("deploy", cfg, &cli.StringFlag{
				Name:    "bucket",
				Usage:   "S3 bucket for staging oversized templates",
				Sources: cli.NewValueSourceChain(),
			}),
			NewAccountFlag("deploy", cfg),
			NewRegionFlag("deploy", cfg),
			NewProfileFlag(),
		},
		Action: deployCommandAction,
		Meta:   meta,
	}
	return acb.Build()
}
