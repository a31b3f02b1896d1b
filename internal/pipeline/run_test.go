// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drupalcloud/drupalctl/internal/stacks"
	"github.com/drupalcloud/drupalctl/internal/synth"
)

type fakeDeployer struct {
	deployed []string
	outputs  map[string]map[string]string
	failOn   string
}

func (f *fakeDeployer) Deploy(ctx context.Context, name string, template []byte) (map[string]string, error) {
	if name == f.failOn {
		return nil, fmt.Errorf("deploy of %s failed", name)
	}
	f.deployed = append(f.deployed, name)
	return f.outputs[name], nil
}

func (f *fakeDeployer) Outputs(ctx context.Context, name string) (map[string]string, error) {
	out, ok := f.outputs[name]
	if !ok {
		return nil, fmt.Errorf("stack %s not found", name)
	}
	return out, nil
}

type fakeRunner struct {
	scripts []string
	envs    []map[string]string
	failOn  string
}

func (f *fakeRunner) Execute(ctx context.Context, command ShellCommand) (string, error) {
	f.scripts = append(f.scripts, command.Script)
	f.envs = append(f.envs, command.Env)
	if f.failOn != "" && command.Script == f.failOn {
		return "", fmt.Errorf("exit status 1")
	}
	return "ok", nil
}

func testStages(t *testing.T) (*synth.Assembly, []*stacks.Stage) {
	t.Helper()
	app := synth.NewApp(synth.Environment{Account: "123456789012", Region: "us-east-1"})
	h, err := stacks.NewPipelineStack(app, "Pipeline", stacks.PipelineProps{})
	require.NoError(t, err)
	asm, err := app.Synth()
	require.NoError(t, err)
	return asm, h.Stages
}

func stageOutputs(stages []*stacks.Stage) map[string]map[string]string {
	outputs := map[string]map[string]string{}
	for _, stage := range stages {
		for _, name := range stage.StackNames() {
			outputs[name] = map[string]string{}
		}
		outputs[stage.Registry.Stack.Name]["RepositoryUri"] = "123456789012.dkr.ecr.us-east-1.amazonaws.com/drupal"
		outputs[stage.Service.Stack.Name]["ServiceEndpoint"] = "alb.example.org"
	}
	return outputs
}

func TestRunCompletesBothStages(t *testing.T) {
	asm, stages := testStages(t)
	deployer := &fakeDeployer{outputs: stageOutputs(stages)}
	runner := &fakeRunner{}

	results, err := Run(context.Background(), Options{
		Stages:      stages,
		Assembly:    asm,
		Deployer:    deployer,
		Runner:      runner,
		AutoApprove: true,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, StateComplete, results[0].State)
	assert.Equal(t, StateComplete, results[1].State)

	// Every stage stack deployed exactly once, dev before prod.
	assert.Len(t, deployer.deployed, 10)
	assert.Equal(t, "Dev-Registry", deployer.deployed[0])
	assert.Equal(t, "Prod-Backup", deployer.deployed[9])
}

func TestRunBindsStepEnv(t *testing.T) {
	asm, stages := testStages(t)
	deployer := &fakeDeployer{outputs: stageOutputs(stages)}
	runner := &fakeRunner{}

	_, err := Run(context.Background(), Options{
		Stages:      stages,
		Assembly:    asm,
		Deployer:    deployer,
		Runner:      runner,
		AutoApprove: true,
	})
	require.NoError(t, err)

	var bound bool
	for i, script := range runner.scripts {
		if script == "curl -Ssf $SERVICE_URL/health" {
			bound = true
			assert.Equal(t, "alb.example.org", runner.envs[i]["SERVICE_URL"])
		}
	}
	assert.True(t, bound, "health probe never ran")
}

func TestRunHaltsAtFirstFailingStep(t *testing.T) {
	asm, stages := testStages(t)
	deployer := &fakeDeployer{outputs: stageOutputs(stages)}
	runner := &fakeRunner{failOn: "vendor/bin/phpunit --testsuite unit"}

	results, err := Run(context.Background(), Options{
		Stages:      stages,
		Assembly:    asm,
		Deployer:    deployer,
		Runner:      runner,
		AutoApprove: true,
	})
	require.Error(t, err)
	assert.Equal(t, StateFailed, results[0].State)
	assert.Equal(t, "UnitTest", results[0].FailedStep)
	// Nothing deployed, prod never entered.
	assert.Empty(t, deployer.deployed)
	assert.Equal(t, StatePending, results[1].State)
}

func TestRunProdNotEnteredWhenDevDeployFails(t *testing.T) {
	asm, stages := testStages(t)
	deployer := &fakeDeployer{outputs: stageOutputs(stages), failOn: "Dev-Database"}
	runner := &fakeRunner{}

	results, err := Run(context.Background(), Options{
		Stages:      stages,
		Assembly:    asm,
		Deployer:    deployer,
		Runner:      runner,
		AutoApprove: true,
	})
	require.Error(t, err)
	assert.Equal(t, StateFailed, results[0].State)
	assert.Equal(t, StatePending, results[1].State)
}

func TestRunApprovalDeclined(t *testing.T) {
	asm, stages := testStages(t)
	deployer := &fakeDeployer{outputs: stageOutputs(stages)}
	runner := &fakeRunner{}

	results, err := Run(context.Background(), Options{
		Stages:   stages,
		Assembly: asm,
		Deployer: deployer,
		Runner:   runner,
		Approver: func(ctx context.Context, prompt string) (bool, error) {
			return false, nil
		},
	})
	require.Error(t, err)
	assert.Equal(t, StateComplete, results[0].State)
	assert.Equal(t, StateFailed, results[1].State)
	assert.Equal(t, "PromoteToProd", results[1].FailedStep)

	// Dev deployed, prod stacks untouched.
	for _, name := range deployer.deployed {
		assert.NotContains(t, name, "Prod-")
	}
}

func TestRunApprovalRequiredWithoutPrompt(t *testing.T) {
	asm, stages := testStages(t)
	deployer := &fakeDeployer{outputs: stageOutputs(stages)}

	results, err := Run(context.Background(), Options{
		Stages:   stages,
		Assembly: asm,
		Deployer: deployer,
		Runner:   &fakeRunner{},
	})
	require.Error(t, err)
	assert.Equal(t, StateFailed, results[1].State)
}

func TestRunRequiresDeployer(t *testing.T) {
	_, err := Run(context.Background(), Options{})
	assert.Error(t, err)
}
