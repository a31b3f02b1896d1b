// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package stacks

import (
	"fmt"

	"github.com/drupalcloud/drupalctl/internal/log"
	"github.com/drupalcloud/drupalctl/internal/synth"
)

// ServiceProps configures the container service, its shared filesystem and
// its cache.
type ServiceProps struct {
	// Task shape. Defaults: 1024 CPU units, 2048 MiB, 30 GiB ephemeral.
	CPU          int
	MemoryMiB    int
	EphemeralGiB int

	// Replica bounds. Defaults: desired 2, min 2, max 6. The invariant
	// min <= desired <= max is enforced at assembly time.
	DesiredCount int
	MinCapacity  int
	MaxCapacity  int

	// Autoscaling target and cooldowns. Defaults: 75 percent, 300 seconds.
	TargetUtilizationPercent int
	CooldownSeconds          int

	// CertificateArn enables HTTPS on the public load balancer. When empty
	// the service falls back to plaintext HTTP and a warning is recorded.
	CertificateArn string

	// Optional DNS alias for the load balancer.
	DomainName   string
	HostedZoneID string

	// Container health check. Interval must exceed timeout.
	HealthCheckPath            string
	HealthCheckIntervalSeconds int
	HealthCheckTimeoutSeconds  int

	// Cache engine version. Defaults to 7.0.
	RedisEngineVersion string

	// DrupalEnv names the runtime environment exposed to the container.
	// Defaults to "production".
	DrupalEnv string
}

func (p *ServiceProps) applyDefaults() {
	if p.CPU == 0 {
		p.CPU = 1024
	}
	if p.MemoryMiB == 0 {
		p.MemoryMiB = 2048
	}
	if p.EphemeralGiB == 0 {
		p.EphemeralGiB = 30
	}
	if p.DesiredCount == 0 {
		p.DesiredCount = 2
	}
	if p.MinCapacity == 0 {
		p.MinCapacity = 2
	}
	if p.MaxCapacity == 0 {
		p.MaxCapacity = 6
	}
	if p.TargetUtilizationPercent == 0 {
		p.TargetUtilizationPercent = 75
	}
	if p.CooldownSeconds == 0 {
		p.CooldownSeconds = 300
	}
	if p.HealthCheckPath == "" {
		p.HealthCheckPath = "/health"
	}
	if p.HealthCheckIntervalSeconds == 0 {
		p.HealthCheckIntervalSeconds = 30
	}
	if p.HealthCheckTimeoutSeconds == 0 {
		p.HealthCheckTimeoutSeconds = 5
	}
	if p.RedisEngineVersion == "" {
		p.RedisEngineVersion = "7.0"
	}
	if p.DrupalEnv == "" {
		p.DrupalEnv = "production"
	}
}

// ServiceHandle references the running service: public endpoint, filesystem
// and cache endpoints, task definition.
type ServiceHandle struct {
	Stack *synth.Stack

	EndpointExport       string
	FileSystemExport     string
	FileSystemArnExport  string
	CacheEndpointExport  string
	TaskDefinitionExport string
	Protocol             string
}

// NewServiceStack declares the Drupal runtime: an ECS cluster, an encrypted
// shared filesystem, a Redis replication group, a Fargate task definition and
// a load-balanced service with autoscaling and alarms. It consumes the
// network, database and registry handles and fails fast when any is missing
// or inconsistent.
func NewServiceStack(app *synth.App, name string, network *NetworkHandle, database *DatabaseHandle,
	registry *RegistryHandle, props ServiceProps) (*ServiceHandle, error) {
	props.applyDefaults()

	if network == nil {
		return nil, fmt.Errorf("service stack %s: network handle is required", name)
	}
	if len(network.PrivateSubnetExports) < 2 {
		return nil, fmt.Errorf("service stack %s: network has %d private subnets, need at least 2",
			name, len(network.PrivateSubnetExports))
	}
	if database == nil {
		return nil, fmt.Errorf("service stack %s: database handle is required", name)
	}
	if registry == nil {
		return nil, fmt.Errorf("service stack %s: registry handle is required", name)
	}
	if props.MinCapacity > props.DesiredCount || props.DesiredCount > props.MaxCapacity {
		return nil, fmt.Errorf("service stack %s: replica bounds must satisfy min <= desired <= max, got %d <= %d <= %d",
			name, props.MinCapacity, props.DesiredCount, props.MaxCapacity)
	}
	if props.HealthCheckIntervalSeconds <= props.HealthCheckTimeoutSeconds {
		return nil, fmt.Errorf("service stack %s: health check interval (%ds) must exceed timeout (%ds)",
			name, props.HealthCheckIntervalSeconds, props.HealthCheckTimeoutSeconds)
	}

	s := app.NewStack(name)
	s.Description = "Drupal container service, shared filesystem and cache"
	s.AddDependsOn(network.Stack)
	s.AddDependsOn(database.Stack)
	s.AddDependsOn(registry.Stack)

	s.MustAddResource("DrupalCluster", &synth.Resource{
		Type: "AWS::ECS::Cluster",
		Properties: map[string]any{
			"ClusterSettings": []any{
				map[string]any{"Name": "containerInsights", "Value": "enabled"},
			},
		},
	})

	declareServiceSecurityGroups(s, network)
	declareFileSystem(s, network)
	declareCache(s, network, props)
	declareTaskDefinition(s, database, registry, props)
	protocol := declareLoadBalancedService(s, network, props)
	declareAutoscaling(s, props)
	declareAlarms(s)

	if props.DomainName != "" && props.HostedZoneID != "" {
		s.MustAddResource("DrupalAliasRecord", &synth.Resource{
			Type: "AWS::Route53::RecordSet",
			Properties: map[string]any{
				"HostedZoneId": props.HostedZoneID,
				"Name":         props.DomainName,
				"Type":         "A",
				"AliasTarget": map[string]any{
					"DNSName":      synth.GetAtt("DrupalALB", "DNSName"),
					"HostedZoneId": synth.GetAtt("DrupalALB", "CanonicalHostedZoneID"),
				},
			},
		})
	}

	handle := &ServiceHandle{
		Stack:                s,
		EndpointExport:       name + "-ServiceEndpoint",
		FileSystemExport:     name + "-FileSystemId",
		FileSystemArnExport:  name + "-FileSystemArn",
		CacheEndpointExport:  name + "-RedisEndpoint",
		TaskDefinitionExport: name + "-TaskDefinitionArn",
		Protocol:             protocol,
	}

	s.AddOutput("ServiceEndpoint", synth.Output{
		Value:       synth.GetAtt("DrupalALB", "DNSName"),
		Description: "Public endpoint of the Drupal service",
		Export:      handle.EndpointExport,
	})
	s.AddOutput("RedisEndpoint", synth.Output{
		Value:       synth.GetAtt("DrupalRedis", "PrimaryEndPoint.Address"),
		Description: "Primary endpoint of the Redis cache",
		Export:      handle.CacheEndpointExport,
	})
	s.AddOutput("EFSFileSystemId", synth.Output{
		Value:  synth.Ref("DrupalFiles"),
		Export: handle.FileSystemExport,
	})
	s.AddOutput("EFSFileSystemArn", synth.Output{
		Value:  synth.GetAtt("DrupalFiles", "Arn"),
		Export: handle.FileSystemArnExport,
	})
	s.AddOutput("TaskDefinitionArn", synth.Output{
		Value:  synth.Ref("DrupalTaskDef"),
		Export: handle.TaskDefinitionExport,
	})
	s.AddOutput("ClusterName", synth.Output{
		Value: synth.Ref("DrupalCluster"),
	})

	log.Debugf("service declared: desired=%d bounds=[%d,%d] protocol=%s",
		props.DesiredCount, props.MinCapacity, props.MaxCapacity, protocol)
	return handle, nil
}

func declareServiceSecurityGroups(s *synth.Stack, network *NetworkHandle) {
	s.MustAddResource("ALBSecurityGroup", &synth.Resource{
		Type: "AWS::EC2::SecurityGroup",
		Properties: map[string]any{
			"GroupDescription": "Security group for the public load balancer",
			"VpcId":            synth.ImportValue(network.VPCExport),
			"SecurityGroupIngress": []any{
				map[string]any{"IpProtocol": "tcp", "FromPort": 80, "ToPort": 80, "CidrIp": "0.0.0.0/0"},
				map[string]any{"IpProtocol": "tcp", "FromPort": 443, "ToPort": 443, "CidrIp": "0.0.0.0/0"},
			},
		},
	})

	s.MustAddResource("TaskSecurityGroup", &synth.Resource{
		Type: "AWS::EC2::SecurityGroup",
		Properties: map[string]any{
			"GroupDescription": "Security group for Drupal tasks",
			"VpcId":            synth.ImportValue(network.VPCExport),
			"SecurityGroupIngress": []any{
				map[string]any{
					"IpProtocol":            "tcp",
					"FromPort":              80,
					"ToPort":                80,
					"SourceSecurityGroupId": synth.GetAtt("ALBSecurityGroup", "GroupId"),
				},
			},
		},
	})

	s.MustAddResource("EFSSecurityGroup", &synth.Resource{
		Type: "AWS::EC2::SecurityGroup",
		Properties: map[string]any{
			"GroupDescription": "Security group for Drupal EFS",
			"VpcId":            synth.ImportValue(network.VPCExport),
			"SecurityGroupIngress": []any{
				map[string]any{
					"IpProtocol":            "tcp",
					"FromPort":              2049,
					"ToPort":                2049,
					"SourceSecurityGroupId": synth.GetAtt("TaskSecurityGroup", "GroupId"),
					"Description":           "Allow ECS tasks to access EFS",
				},
			},
		},
	})

	s.MustAddResource("RedisSecurityGroup", &synth.Resource{
		Type: "AWS::EC2::SecurityGroup",
		Properties: map[string]any{
			"GroupDescription": "Security group for Redis",
			"VpcId":            synth.ImportValue(network.VPCExport),
			"SecurityGroupIngress": []any{
				map[string]any{
					"IpProtocol":            "tcp",
					"FromPort":              6379,
					"ToPort":                6379,
					"SourceSecurityGroupId": synth.GetAtt("TaskSecurityGroup", "GroupId"),
				},
			},
		},
	})
}

func declareFileSystem(s *synth.Stack, network *NetworkHandle) {
	s.MustAddResource("DrupalFiles", &synth.Resource{
		Type: "AWS::EFS::FileSystem",
		Properties: map[string]any{
			"Encrypted":       true,
			"PerformanceMode": "generalPurpose",
			"LifecyclePolicies": []any{
				map[string]any{"TransitionToIA": "AFTER_14_DAYS"},
			},
			"BackupPolicy": map[string]any{"Status": "ENABLED"},
			"FileSystemTags": []any{
				map[string]any{"Key": "Name", "Value": "drupal-files"},
			},
		},
		DeletionPolicy: synth.DeletionRetain,
	})

	for i, export := range network.PrivateSubnetExports {
		s.MustAddResource(fmt.Sprintf("DrupalFilesMountTarget%d", i+1), &synth.Resource{
			Type: "AWS::EFS::MountTarget",
			Properties: map[string]any{
				"FileSystemId":   synth.Ref("DrupalFiles"),
				"SubnetId":       synth.ImportValue(export),
				"SecurityGroups": []any{synth.GetAtt("EFSSecurityGroup", "GroupId")},
			},
		})
	}
}

func declareCache(s *synth.Stack, network *NetworkHandle, props ServiceProps) {
	subnetIDs := make([]any, 0, len(network.PrivateSubnetExports))
	for _, export := range network.PrivateSubnetExports {
		subnetIDs = append(subnetIDs, synth.ImportValue(export))
	}

	s.MustAddResource("RedisCacheSubnetGroup", &synth.Resource{
		Type: "AWS::ElastiCache::SubnetGroup",
		Properties: map[string]any{
			"Description": "Subnet group for Redis cache",
			"SubnetIds":   subnetIDs,
		},
	})

	s.MustAddResource("DrupalRedis", &synth.Resource{
		Type: "AWS::ElastiCache::ReplicationGroup",
		Properties: map[string]any{
			"ReplicationGroupDescription": "Redis cache for Drupal",
			"Engine":                      "redis",
			"EngineVersion":               props.RedisEngineVersion,
			"CacheNodeType":               "cache.t3.medium",
			"NumCacheClusters":            2,
			"AutomaticFailoverEnabled":    true,
			"AutoMinorVersionUpgrade":     true,
			"CacheSubnetGroupName":        synth.Ref("RedisCacheSubnetGroup"),
			"SecurityGroupIds":            []any{synth.GetAtt("RedisSecurityGroup", "GroupId")},
			"AtRestEncryptionEnabled":     true,
			"TransitEncryptionEnabled":    true,
		},
	})
}

func declareTaskDefinition(s *synth.Stack, database *DatabaseHandle, registry *RegistryHandle, props ServiceProps) {
	s.MustAddResource("TaskRole", &synth.Resource{
		Type: "AWS::IAM::Role",
		Properties: map[string]any{
			"AssumeRolePolicyDocument": ecsAssumeRolePolicy(),
			"Policies": []any{
				map[string]any{
					"PolicyName":     "PullImages",
					"PolicyDocument": ecrPullPolicy(),
				},
			},
		},
	})
	s.MustAddResource("ExecutionRole", &synth.Resource{
		Type: "AWS::IAM::Role",
		Properties: map[string]any{
			"AssumeRolePolicyDocument": ecsAssumeRolePolicy(),
			"Policies": []any{
				map[string]any{
					"PolicyName":     "PullImages",
					"PolicyDocument": ecrPullPolicy(),
				},
				map[string]any{
					"PolicyName": "ReadDatabaseSecret",
					"PolicyDocument": map[string]any{
						"Version": "2012-10-17",
						"Statement": []any{
							map[string]any{
								"Effect":   "Allow",
								"Action":   "secretsmanager:GetSecretValue",
								"Resource": synth.ImportValue(database.SecretExport),
							},
						},
					},
				},
			},
		},
	})

	s.MustAddResource("DrupalLogGroup", &synth.Resource{
		Type: "AWS::Logs::LogGroup",
		Properties: map[string]any{
			"RetentionInDays": 30,
		},
	})

	image := synth.Join("", []any{synth.ImportValue(registry.RepositoryURIExport), ":latest"})

	s.MustAddResource("DrupalTaskDef", &synth.Resource{
		Type: "AWS::ECS::TaskDefinition",
		Properties: map[string]any{
			"RequiresCompatibilities": []any{"FARGATE"},
			"NetworkMode":             "awsvpc",
			"Cpu":                     fmt.Sprintf("%d", props.CPU),
			"Memory":                  fmt.Sprintf("%d", props.MemoryMiB),
			"EphemeralStorage":        map[string]any{"SizeInGiB": props.EphemeralGiB},
			"TaskRoleArn":             synth.GetAtt("TaskRole", "Arn"),
			"ExecutionRoleArn":        synth.GetAtt("ExecutionRole", "Arn"),
			"Volumes": []any{
				map[string]any{
					"Name": "drupal-files",
					"EFSVolumeConfiguration": map[string]any{
						"FilesystemId":      synth.Ref("DrupalFiles"),
						"RootDirectory":     "/",
						"TransitEncryption": "ENABLED",
					},
				},
			},
			"ContainerDefinitions": []any{
				map[string]any{
					"Name":      "drupal",
					"Image":     image,
					"Essential": true,
					"PortMappings": []any{
						map[string]any{"ContainerPort": 80, "Protocol": "tcp"},
					},
					"Environment": []any{
						map[string]any{"Name": "DB_HOST", "Value": synth.ImportValue(database.EndpointExport)},
						map[string]any{"Name": "DB_NAME", "Value": database.DatabaseName},
						map[string]any{"Name": "DRUPAL_ENV", "Value": props.DrupalEnv},
						map[string]any{"Name": "PHP_MAX_EXECUTION_TIME", "Value": "300"},
						map[string]any{"Name": "PHP_MAX_INPUT_VARS", "Value": "4000"},
						map[string]any{"Name": "PHP_MEMORY_LIMIT", "Value": "512M"},
						map[string]any{"Name": "PHP_POST_MAX_SIZE", "Value": "64M"},
						map[string]any{"Name": "PHP_UPLOAD_MAX_FILESIZE", "Value": "64M"},
						map[string]any{"Name": "REDIS_HOST", "Value": synth.GetAtt("DrupalRedis", "PrimaryEndPoint.Address")},
					},
					"Secrets": []any{
						map[string]any{
							"Name":      "DB_USER",
							"ValueFrom": synth.Join(":", []any{synth.ImportValue(database.SecretExport), "username", "", ""}),
						},
						map[string]any{
							"Name":      "DB_PASSWORD",
							"ValueFrom": synth.Join(":", []any{synth.ImportValue(database.SecretExport), "password", "", ""}),
						},
					},
					"MountPoints": []any{
						map[string]any{
							"SourceVolume":  "drupal-files",
							"ContainerPath": "/var/www/html/web/sites/default/files",
							"ReadOnly":      false,
						},
					},
					"HealthCheck": map[string]any{
						"Command":  []any{"CMD-SHELL", fmt.Sprintf("curl -f http://localhost%s || exit 1", props.HealthCheckPath)},
						"Interval": props.HealthCheckIntervalSeconds,
						"Timeout":  props.HealthCheckTimeoutSeconds,
						"Retries":  3,
					},
					"LogConfiguration": map[string]any{
						"LogDriver": "awslogs",
						"Options": map[string]any{
							"awslogs-group":         synth.Ref("DrupalLogGroup"),
							"awslogs-region":        synth.Ref("AWS::Region"),
							"awslogs-stream-prefix": "drupal",
							"mode":                  "non-blocking",
						},
					},
				},
			},
		},
	})
}

// declareLoadBalancedService emits the ALB, target group, listener and the
// ECS service. Returns the selected listener protocol. Without a certificate
// the listener deliberately falls back to plaintext HTTP; that choice is
// surfaced as a stack warning rather than silently accepted.
func declareLoadBalancedService(s *synth.Stack, network *NetworkHandle, props ServiceProps) string {
	publicSubnets := make([]any, 0, len(network.PublicSubnetExports))
	for _, export := range network.PublicSubnetExports {
		publicSubnets = append(publicSubnets, synth.ImportValue(export))
	}
	privateSubnets := make([]any, 0, len(network.PrivateSubnetExports))
	for _, export := range network.PrivateSubnetExports {
		privateSubnets = append(privateSubnets, synth.ImportValue(export))
	}

	s.MustAddResource("DrupalALB", &synth.Resource{
		Type: "AWS::ElasticLoadBalancingV2::LoadBalancer",
		Properties: map[string]any{
			"Type":           "application",
			"Scheme":         "internet-facing",
			"Subnets":        publicSubnets,
			"SecurityGroups": []any{synth.GetAtt("ALBSecurityGroup", "GroupId")},
		},
	})

	s.MustAddResource("DrupalTargetGroup", &synth.Resource{
		Type: "AWS::ElasticLoadBalancingV2::TargetGroup",
		Properties: map[string]any{
			"TargetType":                 "ip",
			"Protocol":                   "HTTP",
			"Port":                       80,
			"VpcId":                      synth.ImportValue(network.VPCExport),
			"HealthCheckPath":            props.HealthCheckPath,
			"HealthCheckIntervalSeconds": props.HealthCheckIntervalSeconds,
			"HealthCheckTimeoutSeconds":  props.HealthCheckTimeoutSeconds,
			"HealthyThresholdCount":      2,
			"UnhealthyThresholdCount":    3,
			"Matcher":                    map[string]any{"HttpCode": "200-299"},
		},
	})

	protocol := "HTTP"
	listener := map[string]any{
		"LoadBalancerArn": synth.Ref("DrupalALB"),
		"Protocol":        "HTTP",
		"Port":            80,
		"DefaultActions": []any{
			map[string]any{"Type": "forward", "TargetGroupArn": synth.Ref("DrupalTargetGroup")},
		},
	}
	if props.CertificateArn != "" {
		protocol = "HTTPS"
		listener["Protocol"] = "HTTPS"
		listener["Port"] = 443
		listener["Certificates"] = []any{
			map[string]any{"CertificateArn": props.CertificateArn},
		}
	} else {
		s.AddWarning("no TLS certificate supplied; public load balancer will serve plaintext HTTP")
	}
	s.MustAddResource("DrupalListener", &synth.Resource{
		Type:       "AWS::ElasticLoadBalancingV2::Listener",
		Properties: listener,
	})

	s.MustAddResource("DrupalService", &synth.Resource{
		Type: "AWS::ECS::Service",
		Properties: map[string]any{
			"Cluster":        synth.Ref("DrupalCluster"),
			"TaskDefinition": synth.Ref("DrupalTaskDef"),
			"LaunchType":     "FARGATE",
			"DesiredCount":   props.DesiredCount,
			"DeploymentConfiguration": map[string]any{
				"DeploymentCircuitBreaker": map[string]any{
					"Enable":   true,
					"Rollback": true,
				},
			},
			"NetworkConfiguration": map[string]any{
				"AwsvpcConfiguration": map[string]any{
					"AssignPublicIp": "DISABLED",
					"Subnets":        privateSubnets,
					"SecurityGroups": []any{synth.GetAtt("TaskSecurityGroup", "GroupId")},
				},
			},
			"LoadBalancers": []any{
				map[string]any{
					"ContainerName":  "drupal",
					"ContainerPort":  80,
					"TargetGroupArn": synth.Ref("DrupalTargetGroup"),
				},
			},
			"HealthCheckGracePeriodSeconds": 60,
		},
		DependsOn: []string{"DrupalListener"},
	})

	return protocol
}

func declareAutoscaling(s *synth.Stack, props ServiceProps) {
	s.MustAddResource("ScalingRole", &synth.Resource{
		Type: "AWS::IAM::Role",
		Properties: map[string]any{
			"AssumeRolePolicyDocument": map[string]any{
				"Version": "2012-10-17",
				"Statement": []any{
					map[string]any{
						"Effect":    "Allow",
						"Principal": map[string]any{"Service": "application-autoscaling.amazonaws.com"},
						"Action":    "sts:AssumeRole",
					},
				},
			},
			"Policies": []any{
				map[string]any{
					"PolicyName": "ScaleService",
					"PolicyDocument": map[string]any{
						"Version": "2012-10-17",
						"Statement": []any{
							map[string]any{
								"Effect": "Allow",
								"Action": []any{
									"ecs:UpdateService",
									"ecs:DescribeServices",
									"cloudwatch:DescribeAlarms",
								},
								"Resource": "*",
							},
						},
					},
				},
			},
		},
	})

	s.MustAddResource("ScalableTarget", &synth.Resource{
		Type: "AWS::ApplicationAutoScaling::ScalableTarget",
		Properties: map[string]any{
			"ServiceNamespace":  "ecs",
			"ScalableDimension": "ecs:service:DesiredCount",
			"MinCapacity":       props.MinCapacity,
			"MaxCapacity":       props.MaxCapacity,
			"RoleARN":           synth.GetAtt("ScalingRole", "Arn"),
			"ResourceId": synth.Join("/", []any{
				"service", synth.Ref("DrupalCluster"), synth.GetAtt("DrupalService", "Name"),
			}),
		},
	})

	for _, metric := range []struct {
		id     string
		metric string
	}{
		{"CpuScaling", "ECSServiceAverageCPUUtilization"},
		{"MemoryScaling", "ECSServiceAverageMemoryUtilization"},
	} {
		s.MustAddResource(metric.id, &synth.Resource{
			Type: "AWS::ApplicationAutoScaling::ScalingPolicy",
			Properties: map[string]any{
				"PolicyName":        metric.id,
				"PolicyType":        "TargetTrackingScaling",
				"ScalingTargetId":   synth.Ref("ScalableTarget"),
				"TargetTrackingScalingPolicyConfiguration": map[string]any{
					"PredefinedMetricSpecification": map[string]any{
						"PredefinedMetricType": metric.metric,
					},
					"TargetValue":      props.TargetUtilizationPercent,
					"ScaleInCooldown":  props.CooldownSeconds,
					"ScaleOutCooldown": props.CooldownSeconds,
				},
			},
		})
	}
}

func declareAlarms(s *synth.Stack) {
	s.MustAddResource("DrupalServiceHighCPU", &synth.Resource{
		Type: "AWS::CloudWatch::Alarm",
		Properties: map[string]any{
			"AlarmDescription":   "CPU utilization is too high",
			"Namespace":          "AWS/ECS",
			"MetricName":         "CPUUtilization",
			"Statistic":          "Average",
			"Period":             300,
			"EvaluationPeriods":  2,
			"Threshold":          90,
			"ComparisonOperator": "GreaterThanThreshold",
			"Dimensions": []any{
				map[string]any{"Name": "ClusterName", "Value": synth.Ref("DrupalCluster")},
				map[string]any{"Name": "ServiceName", "Value": synth.GetAtt("DrupalService", "Name")},
			},
		},
	})

	s.MustAddResource("DrupalService5XX", &synth.Resource{
		Type: "AWS::CloudWatch::Alarm",
		Properties: map[string]any{
			"AlarmDescription":   "Too many 5XX errors",
			"Namespace":          "AWS/ApplicationELB",
			"MetricName":         "HTTPCode_Target_5XX_Count",
			"Statistic":          "Sum",
			"Period":             300,
			"EvaluationPeriods":  2,
			"Threshold":          10,
			"ComparisonOperator": "GreaterThanThreshold",
			"Dimensions": []any{
				map[string]any{"Name": "LoadBalancer", "Value": synth.GetAtt("DrupalALB", "LoadBalancerFullName")},
			},
		},
	})

	s.MustAddResource("DrupalServiceSlowResponse", &synth.Resource{
		Type: "AWS::CloudWatch::Alarm",
		Properties: map[string]any{
			"AlarmDescription":   "p95 response time is too slow",
			"Namespace":          "AWS/ApplicationELB",
			"MetricName":         "TargetResponseTime",
			"ExtendedStatistic":  "p95",
			"Period":             300,
			"EvaluationPeriods":  2,
			"Threshold":          5,
			"ComparisonOperator": "GreaterThanThreshold",
			"Dimensions": []any{
				map[string]any{"Name": "LoadBalancer", "Value": synth.GetAtt("DrupalALB", "LoadBalancerFullName")},
			},
		},
	})

	s.MustAddResource("DrupalServiceUnhealthyHosts", &synth.Resource{
		Type: "AWS::CloudWatch::Alarm",
		Properties: map[string]any{
			"AlarmDescription":   "One or more targets is unhealthy",
			"Namespace":          "AWS/ApplicationELB",
			"MetricName":         "UnHealthyHostCount",
			"Statistic":          "Maximum",
			"Period":             60,
			"EvaluationPeriods":  1,
			"Threshold":          0,
			"ComparisonOperator": "GreaterThanThreshold",
			"Dimensions": []any{
				map[string]any{"Name": "TargetGroup", "Value": synth.GetAtt("DrupalTargetGroup", "TargetGroupFullName")},
				map[string]any{"Name": "LoadBalancer", "Value": synth.GetAtt("DrupalALB", "LoadBalancerFullName")},
			},
		},
	})
}

func ecsAssumeRolePolicy() map[string]any {
	return map[string]any{
		"Version": "2012-10-17",
		"Statement": []any{
			map[string]any{
				"Effect":    "Allow",
				"Principal": map[string]any{"Service": "ecs-tasks.amazonaws.com"},
				"Action":    "sts:AssumeRole",
			},
		},
	}
}

func ecrPullPolicy() map[string]any {
	return map[string]any{
		"Version": "2012-10-17",
		"Statement": []any{
			map[string]any{
				"Effect": "Allow",
				"Action": []any{
					"ecr:GetAuthorizationToken",
					"ecr:BatchCheckLayerAvailability",
					"ecr:GetDownloadUrlForLayer",
					"ecr:BatchGetImage",
				},
				"Resource": "*",
			},
		},
	}
}
