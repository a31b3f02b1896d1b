// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/drupalcloud/drupalctl/internal/log"
	"github.com/drupalcloud/drupalctl/internal/stacks"
	"github.com/drupalcloud/drupalctl/internal/synth"
)

// State is the lifecycle position of a stage.
type State string

const (
	StatePending          State = "pending"
	StatePreSteps         State = "pre-steps"
	StateAwaitingApproval State = "awaiting-approval"
	StateDeploying        State = "deploying"
	StatePostSteps        State = "post-steps"
	StateComplete         State = "complete"
	StateFailed           State = "failed"
)

// Approver decides whether an approval step may pass.
type Approver func(ctx context.Context, prompt string) (bool, error)

// StageResult records where a stage ended up.
type StageResult struct {
	Stage      string
	State      State
	FailedStep string
	Outputs    map[string]string
}

// Options configures a pipeline run.
type Options struct {
	Stages   []*stacks.Stage
	Assembly *synth.Assembly
	Deployer Deployer
	Runner   Runner
	Approver Approver
	// AutoApprove passes approval steps without prompting.
	AutoApprove bool
	WorkDir     string
}

// Run drives each stage through its state machine in order. The first failed
// step fails its stage and the run; later stages are reported pending and
// never entered.
func Run(ctx context.Context, opts Options) ([]StageResult, error) {
	if opts.Deployer == nil {
		return nil, fmt.Errorf("no deployer configured")
	}
	if opts.Runner == nil {
		opts.Runner = NewShellRunner()
	}

	results := make([]StageResult, 0, len(opts.Stages))
	var failed error

	for _, stage := range opts.Stages {
		if failed != nil {
			results = append(results, StageResult{Stage: stage.Name, State: StatePending})
			continue
		}
		res := runStage(ctx, stage, opts)
		results = append(results, res)
		if res.State != StateComplete {
			failed = fmt.Errorf("stage %s %s", stage.Name, res.State)
			if res.FailedStep != "" {
				failed = fmt.Errorf("stage %s failed at step %s", stage.Name, res.FailedStep)
			}
		}
	}
	return results, failed
}

func runStage(ctx context.Context, stage *stacks.Stage, opts Options) StageResult {
	res := StageResult{Stage: stage.Name, State: StatePreSteps, Outputs: map[string]string{}}
	log.Infof("stage %s: %s", stage.Name, res.State)

	for _, step := range stage.PreSteps {
		if step.Kind == stacks.StepApproval {
			res.State = StateAwaitingApproval
			ok, err := approve(ctx, stage, step, opts)
			if err != nil || !ok {
				res.State = StateFailed
				res.FailedStep = step.Name
				return res
			}
			res.State = StatePreSteps
			continue
		}
		if err := runStep(ctx, stage, step, opts, res.Outputs); err != nil {
			log.WithError(err).Errorf("stage %s: step %s failed", stage.Name, step.Name)
			res.State = StateFailed
			res.FailedStep = step.Name
			return res
		}
	}

	res.State = StateDeploying
	log.Infof("stage %s: %s", stage.Name, res.State)
	if err := deployStage(ctx, stage, opts, res.Outputs); err != nil {
		log.WithError(err).Errorf("stage %s: deploy failed", stage.Name)
		res.State = StateFailed
		return res
	}

	res.State = StatePostSteps
	log.Infof("stage %s: %s", stage.Name, res.State)
	for _, step := range stage.PostSteps {
		if err := runStep(ctx, stage, step, opts, res.Outputs); err != nil {
			log.WithError(err).Errorf("stage %s: step %s failed", stage.Name, step.Name)
			res.State = StateFailed
			res.FailedStep = step.Name
			return res
		}
	}

	res.State = StateComplete
	log.Infof("stage %s: %s", stage.Name, res.State)
	return res
}

func approve(ctx context.Context, stage *stacks.Stage, step stacks.Step, opts Options) (bool, error) {
	if opts.AutoApprove {
		log.Infof("stage %s: approval %s passed (--yes)", stage.Name, step.Name)
		return true, nil
	}
	if opts.Approver == nil {
		return false, fmt.Errorf("approval step %s requires a prompt or --yes", step.Name)
	}
	prompt := fmt.Sprintf("Promote to stage %s?", stage.Name)
	ok, err := opts.Approver(ctx, prompt)
	if err != nil {
		return false, err
	}
	if !ok {
		log.Warnf("stage %s: approval %s declined", stage.Name, step.Name)
	}
	return ok, nil
}

// deployStage creates or updates the stage's stacks in dependency order,
// folding each stack's outputs into the shared output map.
func deployStage(ctx context.Context, stage *stacks.Stage, opts Options, outputs map[string]string) error {
	members := map[string]bool{}
	for _, name := range stage.StackNames() {
		members[name] = true
	}

	// Assembly artifact order is already topological.
	for _, artifact := range opts.Assembly.Artifacts {
		if !members[artifact.Name] {
			continue
		}
		out, err := opts.Deployer.Deploy(ctx, artifact.Name, artifact.Template)
		if err != nil {
			return errors.Wrapf(err, "failed to deploy %s", artifact.Name)
		}
		for k, v := range out {
			outputs[k] = v
		}
	}
	return nil
}

// runStep executes each of the step's commands in order, stopping at the
// first failure. Env bindings resolve against outputs already collected this
// run, falling back to outputs of the stage's deployed stacks.
func runStep(ctx context.Context, stage *stacks.Stage, step stacks.Step, opts Options,
	collected map[string]string) error {
	env, err := resolveStepEnv(ctx, stage, step, opts, collected)
	if err != nil {
		return err
	}

	log.Infof("stage %s: running step %s", stage.Name, step.Name)
	for _, script := range step.Commands {
		out, err := opts.Runner.Execute(ctx, ShellCommand{
			WorkDir: opts.WorkDir,
			Script:  script,
			Env:     env,
		})
		if strings.TrimSpace(out) != "" {
			log.Debugf("step %s output: %s", step.Name, strings.TrimSpace(out))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func resolveStepEnv(ctx context.Context, stage *stacks.Stage, step stacks.Step, opts Options,
	collected map[string]string) (map[string]string, error) {
	if len(step.Env) == 0 {
		return nil, nil
	}

	env := map[string]string{}
	for name, outputKey := range step.Env {
		if v, ok := collected[outputKey]; ok {
			env[name] = v
			continue
		}
		v, err := lookupStageOutput(ctx, stage, opts, outputKey)
		if err != nil {
			return nil, errors.Wrapf(err, "step %s: failed to bind %s", step.Name, name)
		}
		env[name] = v
	}
	return env, nil
}

// lookupStageOutput searches the stage's deployed stacks for an output key.
// Pre-steps use this to read outputs from a previous run's deployment.
func lookupStageOutput(ctx context.Context, stage *stacks.Stage, opts Options, key string) (string, error) {
	for _, name := range stage.StackNames() {
		out, err := opts.Deployer.Outputs(ctx, name)
		if err != nil {
			continue
		}
		if v, ok := out[key]; ok {
			return v, nil
		}
	}
	return "", fmt.Errorf("output %s not found in stage %s", key, stage.Name)
}
