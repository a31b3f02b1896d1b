// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"os"
	"os/exec"

	"github.com/pkg/errors"

	"github.com/drupalcloud/drupalctl/internal/log"
)

// ShellCommand is one shell line executed by a step, with extra environment
// bound from stack outputs.
type ShellCommand struct {
	WorkDir string
	Script  string
	Env     map[string]string
}

// Runner executes step commands.
type Runner interface {
	Execute(ctx context.Context, command ShellCommand) (string, error)
}

// NewShellRunner returns a Runner backed by the local shell.
func NewShellRunner() Runner {
	return &shellRunner{}
}

type shellRunner struct{}

func (r *shellRunner) Execute(ctx context.Context, command ShellCommand) (string, error) {
	if command.Script == "" {
		return "", errors.New("step command can not be empty")
	}
	// nolint:gosec
	cmd := exec.CommandContext(ctx, "sh", "-c", command.Script)
	cmd.Dir = command.WorkDir
	cmd.Env = os.Environ()
	for k, v := range command.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	log.Debugf("exec: %s", command.Script)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), errors.Wrapf(err, "command failed: %s", command.Script)
	}
	return string(out), nil
}
