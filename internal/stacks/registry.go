// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package stacks

import (
	"encoding/json"
	"fmt"

	"github.com/drupalcloud/drupalctl/internal/log"
	"github.com/drupalcloud/drupalctl/internal/synth"
)

// RegistryProps configures the container image repository and its automated
// build.
type RegistryProps struct {
	// RepositoryName defaults to "drupal-repository".
	RepositoryName string

	// MaxImageCount bounds retained tagged images; oldest are evicted first.
	// Defaults to 5.
	MaxImageCount int

	// TagPrefix filters which tags the retention rule counts. Empty means
	// every tag. Defaults to "v".
	TagPrefix string

	// Source repository driving the image build.
	GitHubOwner string
	GitHubRepo  string
	Branch      string
}

func (p *RegistryProps) applyDefaults() {
	if p.RepositoryName == "" {
		p.RepositoryName = "drupal-repository"
	}
	if p.MaxImageCount == 0 {
		p.MaxImageCount = 5
	}
	if p.TagPrefix == "" {
		p.TagPrefix = "v"
	}
	if p.GitHubOwner == "" {
		p.GitHubOwner = "RobertCastro"
	}
	if p.GitHubRepo == "" {
		p.GitHubRepo = "AWSDrupalCDK"
	}
	if p.Branch == "" {
		p.Branch = "main"
	}
}

// RegistryHandle references the image repository.
type RegistryHandle struct {
	Stack *synth.Stack

	RepositoryName      string
	RepositoryURIExport string
	RepositoryArnExport string
}

// NewRegistryStack declares a mutable ECR repository with a bounded image
// retention rule, a CodeBuild image build triggered by pushes touching
// docker/* on the source branch, and a weekly scheduled rebuild. The build
// role carries a fixed push/pull and logging action list.
func NewRegistryStack(app *synth.App, name string, props RegistryProps) (*RegistryHandle, error) {
	props.applyDefaults()

	if props.MaxImageCount < 1 {
		return nil, fmt.Errorf("registry stack %s: max image count must be at least 1, got %d", name, props.MaxImageCount)
	}

	s := app.NewStack(name)
	s.Description = "Container image repository and build for the Drupal platform"

	lifecycle, err := lifecyclePolicyText(props.MaxImageCount, props.TagPrefix)
	if err != nil {
		return nil, fmt.Errorf("registry stack %s: %w", name, err)
	}

	s.MustAddResource("DrupalRepository", &synth.Resource{
		Type: "AWS::ECR::Repository",
		Properties: map[string]any{
			"RepositoryName":     props.RepositoryName,
			"ImageTagMutability": "MUTABLE",
			"ImageScanningConfiguration": map[string]any{
				"ScanOnPush": true,
			},
			"LifecyclePolicy": map[string]any{
				"LifecyclePolicyText": lifecycle,
			},
		},
		DeletionPolicy: synth.DeletionRetain,
	})

	s.MustAddResource("CodeBuildRole", &synth.Resource{
		Type: "AWS::IAM::Role",
		Properties: map[string]any{
			"AssumeRolePolicyDocument": map[string]any{
				"Version": "2012-10-17",
				"Statement": []any{
					map[string]any{
						"Effect":    "Allow",
						"Principal": map[string]any{"Service": "codebuild.amazonaws.com"},
						"Action":    "sts:AssumeRole",
					},
				},
			},
			"Policies": []any{
				map[string]any{
					"PolicyName": "ImageBuildPolicy",
					"PolicyDocument": map[string]any{
						"Version": "2012-10-17",
						"Statement": []any{
							map[string]any{
								"Effect": "Allow",
								"Action": []any{
									"ecr:GetAuthorizationToken",
									"ecr:BatchCheckLayerAvailability",
									"ecr:CompleteLayerUpload",
									"ecr:UploadLayerPart",
									"ecr:InitiateLayerUpload",
									"ecr:PutImage",
									"logs:CreateLogGroup",
									"logs:CreateLogStream",
									"logs:PutLogEvents",
								},
								"Resource": "*",
							},
						},
					},
				},
			},
		},
	})

	// The token itself never lands in the template, only the secret reference.
	s.MustAddResource("GitHubCredentials", &synth.Resource{
		Type: "AWS::CodeBuild::SourceCredential",
		Properties: map[string]any{
			"AuthType":   "PERSONAL_ACCESS_TOKEN",
			"ServerType": "GITHUB",
			"Token":      synth.Sub("{{resolve:secretsmanager:github-token}}"),
		},
	})

	s.MustAddResource("DrupalImageBuild", &synth.Resource{
		Type: "AWS::CodeBuild::Project",
		Properties: map[string]any{
			"ServiceRole": synth.GetAtt("CodeBuildRole", "Arn"),
			"Artifacts":   map[string]any{"Type": "NO_ARTIFACTS"},
			"Environment": map[string]any{
				"Type":           "LINUX_CONTAINER",
				"ComputeType":    "BUILD_GENERAL1_MEDIUM",
				"Image":          "aws/codebuild/standard:7.0",
				"PrivilegedMode": true,
				"EnvironmentVariables": []any{
					map[string]any{
						"Name": "ECR_REPO_URI",
						"Value": synth.Sub("${AWS::AccountId}.dkr.ecr.${AWS::Region}.amazonaws.com/" +
							props.RepositoryName),
					},
					map[string]any{"Name": "AWS_DEFAULT_REGION", "Value": synth.Ref("AWS::Region")},
					map[string]any{"Name": "AWS_ACCOUNT_ID", "Value": synth.Ref("AWS::AccountId")},
				},
			},
			"Source": map[string]any{
				"Type":      "GITHUB",
				"Location":  fmt.Sprintf("https://github.com/%s/%s.git", props.GitHubOwner, props.GitHubRepo),
				"BuildSpec": imageBuildSpec(),
			},
			"Triggers": map[string]any{
				"Webhook": true,
				"FilterGroups": []any{
					[]any{
						map[string]any{"Type": "EVENT", "Pattern": "PUSH"},
						map[string]any{"Type": "HEAD_REF", "Pattern": "refs/heads/" + props.Branch},
						map[string]any{"Type": "FILE_PATH", "Pattern": "docker/*"},
					},
				},
			},
		},
		DependsOn: []string{"GitHubCredentials"},
	})

	s.MustAddResource("WeeklyBuildRole", &synth.Resource{
		Type: "AWS::IAM::Role",
		Properties: map[string]any{
			"AssumeRolePolicyDocument": map[string]any{
				"Version": "2012-10-17",
				"Statement": []any{
					map[string]any{
						"Effect":    "Allow",
						"Principal": map[string]any{"Service": "events.amazonaws.com"},
						"Action":    "sts:AssumeRole",
					},
				},
			},
			"Policies": []any{
				map[string]any{
					"PolicyName": "StartBuild",
					"PolicyDocument": map[string]any{
						"Version": "2012-10-17",
						"Statement": []any{
							map[string]any{
								"Effect":   "Allow",
								"Action":   "codebuild:StartBuild",
								"Resource": synth.GetAtt("DrupalImageBuild", "Arn"),
							},
						},
					},
				},
			},
		},
	})

	// Weekly rebuild keeps the base image patched even without pushes.
	s.MustAddResource("WeeklyBuildRule", &synth.Resource{
		Type: "AWS::Events::Rule",
		Properties: map[string]any{
			"ScheduleExpression": "cron(0 0 ? * SUN *)",
			"State":              "ENABLED",
			"Targets": []any{
				map[string]any{
					"Id":      "WeeklyImageBuild",
					"Arn":     synth.GetAtt("DrupalImageBuild", "Arn"),
					"RoleArn": synth.GetAtt("WeeklyBuildRole", "Arn"),
				},
			},
		},
	})

	handle := &RegistryHandle{
		Stack:               s,
		RepositoryName:      props.RepositoryName,
		RepositoryURIExport: name + "-RepositoryUri",
		RepositoryArnExport: name + "-RepositoryArn",
	}

	s.AddOutput("RepositoryUri", synth.Output{
		Value:       synth.Sub("${AWS::AccountId}.dkr.ecr.${AWS::Region}.amazonaws.com/" + props.RepositoryName),
		Description: "URI of the image repository",
		Export:      handle.RepositoryURIExport,
	})
	s.AddOutput("RepositoryArn", synth.Output{
		Value:  synth.GetAtt("DrupalRepository", "Arn"),
		Export: handle.RepositoryArnExport,
	})
	s.AddOutput("BuildProjectName", synth.Output{
		Value:       synth.Ref("DrupalImageBuild"),
		Description: "Name of the image build project",
	})

	log.Debugf("registry declared: repo=%s max_images=%d prefix=%s",
		props.RepositoryName, props.MaxImageCount, props.TagPrefix)
	return handle, nil
}

// lifecyclePolicyText renders the ECR retention rule: keep at most max tagged
// images matching the prefix, evicting the oldest beyond that.
func lifecyclePolicyText(max int, tagPrefix string) (string, error) {
	selection := map[string]any{
		"tagStatus":   "tagged",
		"countType":   "imageCountMoreThan",
		"countNumber": max,
	}
	if tagPrefix != "" {
		selection["tagPrefixList"] = []string{tagPrefix}
	} else {
		selection["tagStatus"] = "any"
	}

	doc := map[string]any{
		"rules": []any{
			map[string]any{
				"rulePriority": 1,
				"description":  fmt.Sprintf("keep at most %d images", max),
				"selection":    selection,
				"action":       map[string]any{"type": "expire"},
			},
		},
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to render lifecycle policy: %w", err)
	}
	return string(raw), nil
}

// imageBuildSpec renders the docker build spec for the image build project.
func imageBuildSpec() string {
	doc := map[string]any{
		"version": "0.2",
		"phases": map[string]any{
			"pre_build": map[string]any{
				"commands": []string{
					"echo Logging in to Amazon ECR...",
					"aws ecr get-login-password --region $AWS_DEFAULT_REGION | docker login --username AWS --password-stdin $ECR_REPO_URI",
				},
			},
			"build": map[string]any{
				"commands": []string{
					"cd docker",
					"docker build --no-cache -t $ECR_REPO_URI:latest .",
				},
			},
			"post_build": map[string]any{
				"commands": []string{
					"docker push $ECR_REPO_URI:latest",
					`printf '{"ImageURI":"%s"}' $ECR_REPO_URI:latest > imageDefinitions.json`,
				},
			},
		},
		"artifacts": map[string]any{
			"files": []string{"imageDefinitions.json"},
		},
	}
	raw, _ := json.Marshal(doc)
	return string(raw)
}
