// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package stacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drupalcloud/drupalctl/internal/synth"
)

func buildPipeline(t *testing.T) (*synth.App, *PipelineHandle) {
	t.Helper()
	app := synth.NewApp(testEnv)
	h, err := NewPipelineStack(app, "Pipeline", PipelineProps{})
	require.NoError(t, err)
	return app, h
}

func TestPipelineStages(t *testing.T) {
	_, h := buildPipeline(t)

	require.Len(t, h.Stages, 2)
	assert.Equal(t, "dev", h.Stages[0].Name)
	assert.Equal(t, "prod", h.Stages[1].Name)
	assert.Nil(t, h.Stage("staging"))
	assert.Same(t, h.Stages[1], h.Stage("prod"))
}

func TestPipelineStageStacks(t *testing.T) {
	app, h := buildPipeline(t)

	dev := h.Stage("dev")
	assert.Equal(t, []string{
		"Dev-Registry", "Dev-Network", "Dev-Database", "Dev-Service", "Dev-Backup",
	}, dev.StackNames())

	asm, err := app.Synth()
	require.NoError(t, err)
	// Two full stage sets plus the pipeline stack itself.
	assert.Len(t, asm.Artifacts, 11)
}

func TestPipelineApprovalGate(t *testing.T) {
	_, h := buildPipeline(t)

	// Prod is gated behind exactly one approval; dev has none.
	assert.Len(t, h.Stage("prod").ApprovalSteps(), 1)
	assert.Empty(t, h.Stage("dev").ApprovalSteps())
}

func TestPipelineDevSteps(t *testing.T) {
	_, h := buildPipeline(t)
	dev := h.Stage("dev")

	require.Len(t, dev.PreSteps, 2)
	assert.Equal(t, "UnitTest", dev.PreSteps[0].Name)
	assert.Equal(t, "BuildAndPushImage", dev.PreSteps[1].Name)
	assert.Equal(t, "RepositoryUri", dev.PreSteps[1].Env["ECR_REPO_URI"])

	require.Len(t, dev.PostSteps, 1)
	integ := dev.PostSteps[0]
	assert.Equal(t, "IntegrationTest", integ.Name)
	assert.Equal(t, "ServiceEndpoint", integ.Env["SERVICE_URL"])
	assert.Contains(t, integ.Commands[0], "$SERVICE_URL/health")
}

func TestPipelineProdSteps(t *testing.T) {
	_, h := buildPipeline(t)
	prod := h.Stage("prod")

	require.Len(t, prod.PreSteps, 1)
	assert.Equal(t, StepApproval, prod.PreSteps[0].Kind)
	require.Len(t, prod.PostSteps, 1)
	assert.Equal(t, "TestProdService", prod.PostSteps[0].Name)
}

func TestPipelineTemplate(t *testing.T) {
	app, _ := buildPipeline(t)

	doc := template(t, app, "Pipeline")
	stages := doc.Get("Resources.DrupalPipeline.Properties.Stages")
	assert.Equal(t, "Source", stages.Get("0.Name").String())
	assert.Equal(t, "Synth", stages.Get("1.Name").String())
	assert.Equal(t, "Dev", stages.Get("2.Name").String())
	assert.Equal(t, "Prod", stages.Get("3.Name").String())

	// Source credentials resolve through the secret, never inline.
	token := stages.Get("0.Actions.0.Configuration.OAuthToken").Raw
	assert.Contains(t, token, "resolve:secretsmanager:github-token")

	// Prod opens with the manual approval action.
	prodActions := stages.Get("3.Actions")
	assert.Equal(t, "Approval", prodActions.Get("0.ActionTypeId.Category").String())
	assert.Equal(t, int64(1), prodActions.Get("0.RunOrder").Int())

	assert.Contains(t, doc.Get("Outputs.PipelineConsoleUrl.Value.Fn::Sub").String(), "codepipeline")
}

func TestPipelineSynthBuildSpec(t *testing.T) {
	app, _ := buildPipeline(t)

	doc := template(t, app, "Pipeline")
	spec := doc.Get("Resources.SynthProject.Properties.Source.BuildSpec").String()
	// synth takes its output directory as a positional argument.
	assert.Contains(t, spec, "./drupalctl synth cdk.out")
	assert.NotContains(t, spec, "--out")
	assert.Contains(t, spec, "base-directory: cdk.out")
}

func TestPipelineStageRegistriesDistinct(t *testing.T) {
	_, h := buildPipeline(t)
	assert.NotEqual(t,
		h.Stage("dev").Registry.RepositoryName,
		h.Stage("prod").Registry.RepositoryName)
}

func TestPipelineSuffixesConfiguredRegistryName(t *testing.T) {
	app := synth.NewApp(testEnv)
	h, err := NewPipelineStack(app, "Pipeline", PipelineProps{
		Dev:  StageProps{Registry: RegistryProps{RepositoryName: "cms-images"}},
		Prod: StageProps{Registry: RegistryProps{RepositoryName: "cms-images"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "cms-images-dev", h.Stage("dev").Registry.RepositoryName)
	assert.Equal(t, "cms-images-prod", h.Stage("prod").Registry.RepositoryName)
}
