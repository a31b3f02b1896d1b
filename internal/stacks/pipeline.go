// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package stacks

import (
	"fmt"
	"strings"

	"github.com/drupalcloud/drupalctl/internal/log"
	"github.com/drupalcloud/drupalctl/internal/synth"
)

// StepKind discriminates pipeline steps. Command steps run a shell sequence;
// approval steps block until a human confirms.
type StepKind string

const (
	StepCommand  StepKind = "command"
	StepApproval StepKind = "approval"
)

// Step is one unit of pipeline work, executed before or after a stage's
// deployment.
type Step struct {
	Name     string
	Kind     StepKind
	Commands []string
	// Env binds stage outputs into the step's environment. Values are
	// output keys on the stage's service stack, resolved at run time.
	Env map[string]string
}

// Stage is one deployment environment. It owns a full set of component
// stacks, prefixed with the stage name, plus the steps that bracket its
// deployment.
type Stage struct {
	Name      string
	PreSteps  []Step
	PostSteps []Step

	Network  *NetworkHandle
	Database *DatabaseHandle
	Registry *RegistryHandle
	Service  *ServiceHandle
	Backup   *BackupHandle
}

// StackNames returns the stage's stack names in registration order.
func (st *Stage) StackNames() []string {
	return []string{
		st.Registry.Stack.Name,
		st.Network.Stack.Name,
		st.Database.Stack.Name,
		st.Service.Stack.Name,
		st.Backup.Stack.Name,
	}
}

// ApprovalSteps returns the approval steps among the stage's pre-steps.
func (st *Stage) ApprovalSteps() []Step {
	var out []Step
	for _, s := range st.PreSteps {
		if s.Kind == StepApproval {
			out = append(out, s)
		}
	}
	return out
}

// StageProps carries the per-stage component configuration.
type StageProps struct {
	Network  NetworkProps
	Database DatabaseProps
	Registry RegistryProps
	Service  ServiceProps
	Backup   BackupProps
}

// PipelineProps configures the pipeline stack and its stages.
type PipelineProps struct {
	// Source repository. Defaults match the registry component.
	GitHubOwner string
	GitHubRepo  string
	Branch      string

	Dev  StageProps
	Prod StageProps
}

func (p *PipelineProps) applyDefaults() {
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

// PipelineHandle references the pipeline stack and the planned stages.
type PipelineHandle struct {
	Stack  *synth.Stack
	Stages []*Stage
}

// Stage returns the named stage, or nil.
func (h *PipelineHandle) Stage(name string) *Stage {
	for _, st := range h.Stages {
		if st.Name == name {
			return st
		}
	}
	return nil
}

// NewPipelineStack plans the dev and prod stages, instantiating the full
// component set for each under stage-prefixed stack names, and declares the
// CodePipeline resources that mirror the plan. Dev runs unit tests and the
// image build before deploying and an integration test after; prod is gated
// behind exactly one manual approval and verified with a health probe.
func NewPipelineStack(app *synth.App, name string, props PipelineProps) (*PipelineHandle, error) {
	props.applyDefaults()

	dev, err := planStage(app, "Dev", props.Dev, props)
	if err != nil {
		return nil, err
	}
	prod, err := planStage(app, "Prod", props.Prod, props)
	if err != nil {
		return nil, err
	}

	dev.PreSteps = []Step{
		{
			Name: "UnitTest",
			Kind: StepCommand,
			Commands: []string{
				"composer install --no-interaction",
				"vendor/bin/phpunit --testsuite unit",
			},
		},
		{
			Name: "BuildAndPushImage",
			Kind: StepCommand,
			Commands: []string{
				"aws ecr get-login-password | docker login --username AWS --password-stdin $ECR_REPO_URI",
				"docker build -t $ECR_REPO_URI:v$(date +%Y%m%d%H%M%S) -t $ECR_REPO_URI:latest -f docker/Dockerfile .",
				"docker push --all-tags $ECR_REPO_URI",
			},
			Env: map[string]string{"ECR_REPO_URI": "RepositoryUri"},
		},
	}
	dev.PostSteps = []Step{
		{
			Name: "IntegrationTest",
			Kind: StepCommand,
			Commands: []string{
				"curl -Ssf $SERVICE_URL/health",
				"vendor/bin/phpunit --testsuite integration",
			},
			Env: map[string]string{"SERVICE_URL": "ServiceEndpoint"},
		},
	}

	prod.PreSteps = []Step{
		{Name: "PromoteToProd", Kind: StepApproval},
	}
	prod.PostSteps = []Step{
		{
			Name: "TestProdService",
			Kind: StepCommand,
			Commands: []string{
				"curl -Ssf $SERVICE_URL/health",
			},
			Env: map[string]string{"SERVICE_URL": "ServiceEndpoint"},
		},
	}

	s := app.NewStack(name)
	s.Description = "Continuous delivery pipeline for the Drupal platform"
	declarePipelineResources(s, props, []*Stage{dev, prod})

	s.AddOutput("PipelineConsoleUrl", synth.Output{
		Value: synth.Sub(fmt.Sprintf(
			"https://${AWS::Region}.console.aws.amazon.com/codesuite/codepipeline/pipelines/%s/view", name)),
		Description: "Console URL of the delivery pipeline",
	})

	log.Debugf("pipeline planned: stages=[%s, %s]", dev.Name, prod.Name)
	return &PipelineHandle{Stack: s, Stages: []*Stage{dev, prod}}, nil
}

// planStage instantiates the component set for one stage. Stack names are
// prefixed with the stage name so both stages can live in one assembly.
func planStage(app *synth.App, stage string, props StageProps, pp PipelineProps) (*Stage, error) {
	if props.Registry.GitHubOwner == "" {
		props.Registry.GitHubOwner = pp.GitHubOwner
	}
	if props.Registry.GitHubRepo == "" {
		props.Registry.GitHubRepo = pp.GitHubRepo
	}
	if props.Registry.Branch == "" {
		props.Registry.Branch = pp.Branch
	}
	if props.Registry.RepositoryName == "" {
		props.Registry.RepositoryName = "drupal-repository"
	}
	// Dev and prod share one props block, so the stage suffix applies to
	// configured names too: identical repository names collide at deploy time.
	props.Registry.RepositoryName += "-" + strings.ToLower(stage)

	registry, err := NewRegistryStack(app, stage+"-Registry", props.Registry)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", stage, err)
	}
	network, err := NewNetworkStack(app, stage+"-Network", props.Network)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", stage, err)
	}
	database, err := NewDatabaseStack(app, stage+"-Database", network, props.Database)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", stage, err)
	}
	service, err := NewServiceStack(app, stage+"-Service", network, database, registry, props.Service)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", stage, err)
	}
	backup, err := NewBackupStack(app, stage+"-Backup", database, service, props.Backup)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", stage, err)
	}

	return &Stage{
		Name:     strings.ToLower(stage),
		Network:  network,
		Database: database,
		Registry: registry,
		Service:  service,
		Backup:   backup,
	}, nil
}

func declarePipelineResources(s *synth.Stack, props PipelineProps, stages []*Stage) {
	s.MustAddResource("ArtifactBucket", &synth.Resource{
		Type: "AWS::S3::Bucket",
		Properties: map[string]any{
			"BucketEncryption": map[string]any{
				"ServerSideEncryptionConfiguration": []any{
					map[string]any{
						"ServerSideEncryptionByDefault": map[string]any{"SSEAlgorithm": "aws:kms"},
					},
				},
			},
			"PublicAccessBlockConfiguration": map[string]any{
				"BlockPublicAcls":       true,
				"BlockPublicPolicy":     true,
				"IgnorePublicAcls":      true,
				"RestrictPublicBuckets": true,
			},
		},
	})

	s.MustAddResource("PipelineRole", &synth.Resource{
		Type: "AWS::IAM::Role",
		Properties: map[string]any{
			"AssumeRolePolicyDocument": map[string]any{
				"Version": "2012-10-17",
				"Statement": []any{
					map[string]any{
						"Effect":    "Allow",
						"Principal": map[string]any{"Service": "codepipeline.amazonaws.com"},
						"Action":    "sts:AssumeRole",
					},
				},
			},
			"Policies": []any{
				map[string]any{
					"PolicyName": "PipelineAccess",
					"PolicyDocument": map[string]any{
						"Version": "2012-10-17",
						"Statement": []any{
							map[string]any{
								"Effect": "Allow",
								"Action": []any{
									"s3:GetObject",
									"s3:PutObject",
									"s3:GetBucketLocation",
								},
								"Resource": []any{
									synth.GetAtt("ArtifactBucket", "Arn"),
									synth.Join("", []any{synth.GetAtt("ArtifactBucket", "Arn"), "/*"}),
								},
							},
							map[string]any{
								"Effect": "Allow",
								"Action": []any{
									"codebuild:StartBuild",
									"codebuild:BatchGetBuilds",
								},
								"Resource": "*",
							},
						},
					},
				},
			},
		},
	})

	s.MustAddResource("SynthRole", &synth.Resource{
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
					"PolicyName": "SynthAccess",
					"PolicyDocument": map[string]any{
						"Version": "2012-10-17",
						"Statement": []any{
							map[string]any{
								"Effect": "Allow",
								"Action": []any{
									"logs:CreateLogGroup",
									"logs:CreateLogStream",
									"logs:PutLogEvents",
								},
								"Resource": "*",
							},
							map[string]any{
								"Effect": "Allow",
								"Action": []any{
									"s3:GetObject",
									"s3:PutObject",
								},
								"Resource": synth.Join("", []any{synth.GetAtt("ArtifactBucket", "Arn"), "/*"}),
							},
						},
					},
				},
			},
		},
	})

	s.MustAddResource("SynthProject", &synth.Resource{
		Type: "AWS::CodeBuild::Project",
		Properties: map[string]any{
			"ServiceRole": synth.GetAtt("SynthRole", "Arn"),
			"Environment": map[string]any{
				"Type":           "LINUX_CONTAINER",
				"ComputeType":    "BUILD_GENERAL1_MEDIUM",
				"Image":          "aws/codebuild/standard:7.0",
				"PrivilegedMode": true,
			},
			"Source": map[string]any{
				"Type":      "CODEPIPELINE",
				"BuildSpec": synthBuildSpec(),
			},
			"Artifacts": map[string]any{"Type": "CODEPIPELINE"},
		},
	})

	pipelineStages := []any{
		map[string]any{
			"Name": "Source",
			"Actions": []any{
				map[string]any{
					"Name": "GitHubSource",
					"ActionTypeId": map[string]any{
						"Category": "Source",
						"Owner":    "ThirdParty",
						"Provider": "GitHub",
						"Version":  "1",
					},
					"Configuration": map[string]any{
						"Owner":      props.GitHubOwner,
						"Repo":       props.GitHubRepo,
						"Branch":     props.Branch,
						"OAuthToken": synth.Sub("{{resolve:secretsmanager:github-token}}"),
					},
					"OutputArtifacts": []any{map[string]any{"Name": "SourceOutput"}},
				},
			},
		},
		map[string]any{
			"Name": "Synth",
			"Actions": []any{
				map[string]any{
					"Name": "Synth",
					"ActionTypeId": map[string]any{
						"Category": "Build",
						"Owner":    "AWS",
						"Provider": "CodeBuild",
						"Version":  "1",
					},
					"Configuration": map[string]any{
						"ProjectName": synth.Ref("SynthProject"),
					},
					"InputArtifacts":  []any{map[string]any{"Name": "SourceOutput"}},
					"OutputArtifacts": []any{map[string]any{"Name": "SynthOutput"}},
				},
			},
		},
	}
	for _, stage := range stages {
		pipelineStages = append(pipelineStages, pipelineStageActions(stage))
	}

	s.MustAddResource("DrupalPipeline", &synth.Resource{
		Type: "AWS::CodePipeline::Pipeline",
		Properties: map[string]any{
			"RoleArn":                  synth.GetAtt("PipelineRole", "Arn"),
			"RestartExecutionOnUpdate": true,
			"ArtifactStore": map[string]any{
				"Type":     "S3",
				"Location": synth.Ref("ArtifactBucket"),
			},
			"Stages": pipelineStages,
		},
	})
}

// pipelineStageActions renders one planned stage as a CodePipeline stage.
// Approval pre-steps become Approval actions; command steps are elided here
// because the hosted pipeline drives them through CodeBuild while the local
// runner executes them directly.
func pipelineStageActions(stage *Stage) map[string]any {
	actions := []any{}
	order := 1
	for _, step := range stage.PreSteps {
		if step.Kind != StepApproval {
			continue
		}
		actions = append(actions, map[string]any{
			"Name": step.Name,
			"ActionTypeId": map[string]any{
				"Category": "Approval",
				"Owner":    "AWS",
				"Provider": "Manual",
				"Version":  "1",
			},
			"RunOrder": order,
		})
		order++
	}
	for _, name := range stage.StackNames() {
		actions = append(actions, map[string]any{
			"Name": "Deploy-" + name,
			"ActionTypeId": map[string]any{
				"Category": "Deploy",
				"Owner":    "AWS",
				"Provider": "CloudFormation",
				"Version":  "1",
			},
			"Configuration": map[string]any{
				"ActionMode":   "CREATE_UPDATE",
				"StackName":    name,
				"TemplatePath": fmt.Sprintf("SynthOutput::%s.template.json", name),
				"Capabilities": "CAPABILITY_IAM",
			},
			"InputArtifacts": []any{map[string]any{"Name": "SynthOutput"}},
			"RunOrder":       order,
		})
		order++
	}
	return map[string]any{
		"Name":    titleCase(stage.Name),
		"Actions": actions,
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func synthBuildSpec() string {
	return `version: 0.2
phases:
  install:
    commands:
      - curl -sSL https://go.dev/dl/go1.24.0.linux-amd64.tar.gz | tar -C /usr/local -xz
      - export PATH=$PATH:/usr/local/go/bin
  build:
    commands:
      - go build -o drupalctl .
      - ./drupalctl synth cdk.out
artifacts:
  base-directory: cdk.out
  files:
    - '**/*'
`
}
