// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package meta

import (
	"context"

	"github.com/drupalcloud/drupalctl/internal/config"
)

// OutDirSpec holds the resolved assembly output directory and optional
// deployment environment override (e.g. "./out::prod").
type OutDirSpec struct {
	OutDir string
	Env    string
}

// Meta contains runtime metadata shared by commands. It carries CLI arguments,
// loaded configuration, context, the resolved output directory specification,
// and the starting working directory.
type Meta struct {
	Args    []string
	Config  config.Type
	Context context.Context
	OutDirSpec
	StartingDir string
}
