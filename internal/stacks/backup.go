// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package stacks

import (
	"fmt"

	"github.com/drupalcloud/drupalctl/internal/synth"
)

// BackupProps configures the backup vault and plan.
type BackupProps struct {
	// Cron schedule for the daily backup. Defaults to 03:00 UTC.
	ScheduleExpression string

	// Window bounds in minutes. Defaults: start 60, completion 120.
	StartWindowMinutes      int
	CompletionWindowMinutes int

	// Recovery point lifetime. Defaults to 30 days.
	RetentionDays int
}

func (p *BackupProps) applyDefaults() {
	if p.ScheduleExpression == "" {
		p.ScheduleExpression = "cron(0 3 * * ? *)"
	}
	if p.StartWindowMinutes == 0 {
		p.StartWindowMinutes = 60
	}
	if p.CompletionWindowMinutes == 0 {
		p.CompletionWindowMinutes = 120
	}
	if p.RetentionDays == 0 {
		p.RetentionDays = 30
	}
}

// BackupHandle references the backup vault and plan.
type BackupHandle struct {
	Stack       *synth.Stack
	VaultExport string
}

// NewBackupStack declares a vault, a daily plan and a selection covering the
// database cluster and the shared filesystem. Both producer handles are
// required; declaring backups for resources that do not exist is an error,
// not a warning.
func NewBackupStack(app *synth.App, name string, database *DatabaseHandle, service *ServiceHandle,
	props BackupProps) (*BackupHandle, error) {
	props.applyDefaults()

	if database == nil {
		return nil, fmt.Errorf("backup stack %s: database handle is required", name)
	}
	if service == nil {
		return nil, fmt.Errorf("backup stack %s: service handle is required", name)
	}

	s := app.NewStack(name)
	s.Description = "Backup vault and daily plan for the Drupal database and filesystem"
	s.AddDependsOn(database.Stack)
	s.AddDependsOn(service.Stack)

	s.MustAddResource("DrupalBackupVault", &synth.Resource{
		Type: "AWS::Backup::BackupVault",
		Properties: map[string]any{
			"BackupVaultName": name + "-vault",
		},
		DeletionPolicy: synth.DeletionRetain,
	})

	s.MustAddResource("DrupalBackupPlan", &synth.Resource{
		Type: "AWS::Backup::BackupPlan",
		Properties: map[string]any{
			"BackupPlan": map[string]any{
				"BackupPlanName": name + "-plan",
				"BackupPlanRule": []any{
					map[string]any{
						"RuleName":                "DailyBackup",
						"TargetBackupVault":       synth.Ref("DrupalBackupVault"),
						"ScheduleExpression":      props.ScheduleExpression,
						"StartWindowMinutes":      props.StartWindowMinutes,
						"CompletionWindowMinutes": props.CompletionWindowMinutes,
						"Lifecycle": map[string]any{
							"DeleteAfterDays": props.RetentionDays,
						},
					},
				},
			},
		},
	})

	s.MustAddResource("BackupRole", &synth.Resource{
		Type: "AWS::IAM::Role",
		Properties: map[string]any{
			"AssumeRolePolicyDocument": map[string]any{
				"Version": "2012-10-17",
				"Statement": []any{
					map[string]any{
						"Effect":    "Allow",
						"Principal": map[string]any{"Service": "backup.amazonaws.com"},
						"Action":    "sts:AssumeRole",
					},
				},
			},
			"ManagedPolicyArns": []any{
				"arn:aws:iam::aws:policy/service-role/AWSBackupServiceRolePolicyForBackup",
			},
		},
	})

	s.MustAddResource("DrupalBackupSelection", &synth.Resource{
		Type: "AWS::Backup::BackupSelection",
		Properties: map[string]any{
			"BackupPlanId": synth.GetAtt("DrupalBackupPlan", "BackupPlanId"),
			"BackupSelection": map[string]any{
				"SelectionName": name + "-selection",
				"IamRoleArn":    synth.GetAtt("BackupRole", "Arn"),
				"Resources": []any{
					synth.ImportValue(database.ClusterArnExport),
					synth.ImportValue(service.FileSystemArnExport),
				},
			},
		},
	})

	handle := &BackupHandle{
		Stack:       s,
		VaultExport: name + "-VaultArn",
	}

	s.AddOutput("BackupVaultArn", synth.Output{
		Value:  synth.GetAtt("DrupalBackupVault", "BackupVaultArn"),
		Export: handle.VaultExport,
	})
	s.AddOutput("BackupPlanId", synth.Output{
		Value: synth.GetAtt("DrupalBackupPlan", "BackupPlanId"),
	})

	return handle, nil
}
