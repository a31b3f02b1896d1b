// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/drupalcloud/drupalctl/internal/aws"
	"github.com/drupalcloud/drupalctl/internal/config"
	"github.com/drupalcloud/drupalctl/internal/log"
	"github.com/drupalcloud/drupalctl/internal/stacks"
	"github.com/drupalcloud/drupalctl/internal/synth"
)

// resolveEnvironment picks the assembly target. Explicit flags win, then the
// CDK env vars, then the credential chain plus STS.
func resolveEnvironment(ctx context.Context, cmd *cli.Command) (synth.Environment, error) {
	account := cmd.String("account")
	region := cmd.String("region")
	if account != "" && region != "" {
		return synth.Environment{Account: account, Region: region}, nil
	}

	var opts []aws.Option
	if profile := cmd.String("profile"); profile != "" {
		opts = append(opts, aws.WithProfile(profile))
	}
	if region != "" {
		opts = append(opts, aws.WithRegion(region))
	}
	return aws.ResolveEnvironment(ctx, opts...)
}

// assemblePlatform builds the full application for the resolved environment:
// the per-stage component stacks and the pipeline stack, configured from the
// user's config file. envName overrides the Environment tag when the caller
// passed an OutDir::env spec; empty falls back to the config file.
func assemblePlatform(env synth.Environment, envName string) (*synth.App, *stacks.PipelineHandle, error) {
	if envName == "" {
		envName = envTag()
	}

	app := synth.NewApp(env)
	app.AddTag("Project", "AWSDrupalCDK")
	app.AddTag("Environment", strings.ToLower(envName))

	stage := stageProps()
	handle, err := stacks.NewPipelineStack(app, "Pipeline", stacks.PipelineProps{
		GitHubOwner: str("pipeline.github_owner"),
		GitHubRepo:  str("pipeline.github_repo"),
		Branch:      str("pipeline.branch"),
		Dev:         stage,
		Prod:        stage,
	})
	if err != nil {
		return nil, nil, err
	}

	log.Debugf("platform assembled: account=%s region=%s stacks=%d",
		env.Account, env.Region, len(app.Stacks()))
	return app, handle, nil
}

// stageProps maps config file keys onto component props. Missing keys fall
// through to the component defaults.
func stageProps() stacks.StageProps {
	return stacks.StageProps{
		Network: stacks.NetworkProps{
			MaxAZs:      num("network.max_azs"),
			CIDR:        str("network.cidr"),
			NATGateways: num("network.nat_gateways"),
		},
		Database: stacks.DatabaseProps{
			InstanceClass:         str("database.instance_class"),
			Instances:             num("database.instances"),
			BackupRetentionDays:   num("database.backup_retention_days"),
			PreferredBackupWindow: str("database.backup_window"),
			DatabaseName:          str("database.name"),
		},
		Registry: stacks.RegistryProps{
			RepositoryName: str("registry.repository"),
			MaxImageCount:  num("registry.max_image_count"),
			TagPrefix:      str("registry.tag_prefix"),
		},
		Service: stacks.ServiceProps{
			CPU:                        num("service.cpu"),
			MemoryMiB:                  num("service.memory"),
			DesiredCount:               num("service.desired_count"),
			MinCapacity:                num("service.min_capacity"),
			MaxCapacity:                num("service.max_capacity"),
			TargetUtilizationPercent:   num("service.target_utilization"),
			CooldownSeconds:            num("service.cooldown_seconds"),
			CertificateArn:             str("service.certificate_arn"),
			DomainName:                 str("service.domain_name"),
			HostedZoneID:               str("service.hosted_zone_id"),
			HealthCheckPath:            str("service.health_check_path"),
			HealthCheckIntervalSeconds: num("service.health_check_interval"),
			HealthCheckTimeoutSeconds:  num("service.health_check_timeout"),
			RedisEngineVersion:         str("service.redis_engine_version"),
			DrupalEnv:                  str("service.drupal_env"),
		},
		Backup: stacks.BackupProps{
			ScheduleExpression:      str("backup.schedule"),
			StartWindowMinutes:      num("backup.start_window_minutes"),
			CompletionWindowMinutes: num("backup.completion_window_minutes"),
			RetentionDays:           num("backup.retention_days"),
		},
	}
}

func envTag() string {
	v, err := config.GetString("environment")
	if err != nil {
		return "production"
	}
	return v
}

func str(key string) string {
	v, _ := config.GetString(key, "")
	return v
}

func num(key string) int {
	v, _ := config.GetInt(key, 0)
	return v
}
