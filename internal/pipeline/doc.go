// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package pipeline runs planned delivery stages locally. Each stage walks a
// small state machine: pending, pre-steps, deploying, post-steps, complete.
// A failed step is terminal for the stage and for the run, and later stages
// are never entered. Approval steps block until confirmed.
package pipeline
