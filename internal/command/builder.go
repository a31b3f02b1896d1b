// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/drupalcloud/drupalctl/internal/meta"
)

// AssemblyCommandBuilder constructs a cli.Command for the assembly
// subcommands (synth, validate, outputs, diff, deploy) using a consistent
// pattern. It accepts the command name, usage text, optional UsageText,
// custom flags, the action handler, and meta. The builder automatically
// wires metadata, adds the tldr flag, applies global flags, and sets up
// validators.
type AssemblyCommandBuilder struct {
	Name      string
	Usage     string
	UsageText string
	Flags     []cli.Flag
	Action    func(context.Context, *cli.Command) error
	Meta      meta.Meta
}

// Build returns a configured cli.Command from the builder.
func (acb *AssemblyCommandBuilder) Build() *cli.Command {
	return &cli.Command{
		Name:      acb.Name,
		Usage:     acb.Usage,
		UsageText: acb.UsageText,
		Metadata: map[string]any{
			"meta": acb.Meta,
		},
		Flags: append(acb.Flags, append([]cli.Flag{
			tldrFlag,
		}, NewGlobalFlags(acb.Name)...)...),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Action: acb.Action,
	}
}
