// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package stacks declares the Drupal platform's infrastructure components:
// network, database, image registry, service, backup and delivery pipeline.
// Each component constructor validates its inputs, emits resources into a
// synth.Stack and returns a typed handle holding the export names downstream
// components consume. Constructors fail fast: a missing or malformed upstream
// handle is an assembly-time error, never a deploy-time one.
package stacks
