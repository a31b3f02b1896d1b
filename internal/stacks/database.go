// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package stacks

import (
	"fmt"

	"github.com/drupalcloud/drupalctl/internal/log"
	"github.com/drupalcloud/drupalctl/internal/synth"
)

// DatabaseProps configures the managed relational cluster.
type DatabaseProps struct {
	// InstanceClass is the shape of each cluster member. Defaults to
	// db.t3.medium.
	InstanceClass string

	// Instances is the cluster member count (writer plus replicas).
	// Defaults to 2.
	Instances int

	// BackupRetentionDays defaults to 7.
	BackupRetentionDays int

	// PreferredBackupWindow defaults to the 03:00-04:00 UTC window.
	PreferredBackupWindow string

	// DatabaseName defaults to "drupal".
	DatabaseName string
}

func (p *DatabaseProps) applyDefaults() {
	if p.InstanceClass == "" {
		p.InstanceClass = "db.t3.medium"
	}
	if p.Instances == 0 {
		p.Instances = 2
	}
	if p.BackupRetentionDays == 0 {
		p.BackupRetentionDays = 7
	}
	if p.PreferredBackupWindow == "" {
		p.PreferredBackupWindow = "03:00-04:00"
	}
	if p.DatabaseName == "" {
		p.DatabaseName = "drupal"
	}
}

// DatabaseHandle references the provisioned cluster: endpoint, ARN and the
// generated credential secret, all as export names.
type DatabaseHandle struct {
	Stack *synth.Stack

	EndpointExport   string
	ClusterArnExport string
	SecretExport     string
	DatabaseName     string
}

// NewDatabaseStack declares an Aurora MySQL cluster inside the network's
// private subnets. Credentials are generated into a Secrets Manager secret
// and referenced opaquely; nothing secret lands in the template. The cluster
// is retained on stack deletion and protected against deletion.
//
// The network handle must carry at least two private subnets (the subnet
// group spans AZs); anything less fails here, before any resource is emitted.
func NewDatabaseStack(app *synth.App, name string, network *NetworkHandle, props DatabaseProps) (*DatabaseHandle, error) {
	props.applyDefaults()

	if network == nil {
		return nil, fmt.Errorf("database stack %s: network handle is required", name)
	}
	if len(network.PrivateSubnetExports) < 2 {
		return nil, fmt.Errorf("database stack %s: network has %d private subnets, need at least 2",
			name, len(network.PrivateSubnetExports))
	}
	if props.Instances < 1 {
		return nil, fmt.Errorf("database stack %s: instance count must be at least 1, got %d", name, props.Instances)
	}

	s := app.NewStack(name)
	s.Description = "Aurora MySQL cluster for the Drupal platform"
	s.AddDependsOn(network.Stack)

	s.MustAddResource("DBSecurityGroup", &synth.Resource{
		Type: "AWS::EC2::SecurityGroup",
		Properties: map[string]any{
			"GroupDescription": "Security group for Drupal database",
			"VpcId":            synth.ImportValue(network.VPCExport),
			"SecurityGroupIngress": []any{
				map[string]any{
					"IpProtocol":  "tcp",
					"FromPort":    3306,
					"ToPort":      3306,
					"CidrIp":      network.CIDR,
					"Description": "MySQL from inside the VPC",
				},
			},
		},
	})

	// Credentials are generated, never hard-coded. The template only ever
	// carries the secret's reference.
	s.MustAddResource("DBCredentials", &synth.Resource{
		Type: "AWS::SecretsManager::Secret",
		Properties: map[string]any{
			"GenerateSecretString": map[string]any{
				"SecretStringTemplate": `{"username": "admin"}`,
				"GenerateStringKey":    "password",
				"ExcludePunctuation":   true,
				"IncludeSpace":         false,
			},
		},
	})

	subnetIDs := make([]any, 0, len(network.PrivateSubnetExports))
	for _, export := range network.PrivateSubnetExports {
		subnetIDs = append(subnetIDs, synth.ImportValue(export))
	}
	s.MustAddResource("DBSubnetGroup", &synth.Resource{
		Type: "AWS::RDS::DBSubnetGroup",
		Properties: map[string]any{
			"DBSubnetGroupDescription": "Private subnets for the Drupal database",
			"SubnetIds":                subnetIDs,
		},
	})

	s.MustAddResource("DrupalDB", &synth.Resource{
		Type: "AWS::RDS::DBCluster",
		Properties: map[string]any{
			"Engine":                "aurora-mysql",
			"EngineVersion":         "5.7.mysql_aurora.2.11.2",
			"DatabaseName":          props.DatabaseName,
			"MasterUsername":        synth.Sub("{{resolve:secretsmanager:${DBCredentials}:SecretString:username}}"),
			"MasterUserPassword":    synth.Sub("{{resolve:secretsmanager:${DBCredentials}:SecretString:password}}"),
			"DBSubnetGroupName":     synth.Ref("DBSubnetGroup"),
			"VpcSecurityGroupIds":   []any{synth.GetAtt("DBSecurityGroup", "GroupId")},
			"StorageEncrypted":      true,
			"DeletionProtection":    true,
			"BackupRetentionPeriod": props.BackupRetentionDays,
			"PreferredBackupWindow": props.PreferredBackupWindow,
		},
		DeletionPolicy: synth.DeletionRetain,
	})

	for i := 0; i < props.Instances; i++ {
		s.MustAddResource(fmt.Sprintf("DrupalDBInstance%d", i+1), &synth.Resource{
			Type: "AWS::RDS::DBInstance",
			Properties: map[string]any{
				"Engine":              "aurora-mysql",
				"DBInstanceClass":     props.InstanceClass,
				"DBClusterIdentifier": synth.Ref("DrupalDB"),
				"DBSubnetGroupName":   synth.Ref("DBSubnetGroup"),
			},
			DeletionPolicy: synth.DeletionRetain,
		})
	}

	s.MustAddResource("DBCredentialsAttachment", &synth.Resource{
		Type: "AWS::SecretsManager::SecretTargetAttachment",
		Properties: map[string]any{
			"SecretId":   synth.Ref("DBCredentials"),
			"TargetId":   synth.Ref("DrupalDB"),
			"TargetType": "AWS::RDS::DBCluster",
		},
	})

	handle := &DatabaseHandle{
		Stack:            s,
		EndpointExport:   name + "-ClusterEndpoint",
		ClusterArnExport: name + "-ClusterArn",
		SecretExport:     name + "-SecretArn",
		DatabaseName:     props.DatabaseName,
	}

	s.AddOutput("ClusterEndpoint", synth.Output{
		Value:       synth.GetAtt("DrupalDB", "Endpoint.Address"),
		Description: "Writer endpoint of the Drupal database cluster",
		Export:      handle.EndpointExport,
	})
	s.AddOutput("ClusterArn", synth.Output{
		Value:  synth.GetAtt("DrupalDB", "DBClusterArn"),
		Export: handle.ClusterArnExport,
	})
	s.AddOutput("SecretArn", synth.Output{
		Value:       synth.Ref("DBCredentials"),
		Description: "Reference to the generated database credentials",
		Export:      handle.SecretExport,
	})

	log.Debugf("database declared: instances=%d class=%s", props.Instances, props.InstanceClass)
	return handle, nil
}
