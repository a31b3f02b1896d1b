// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package synth implements the in-memory assembly model: an App holding named
// Stacks of CloudFormation-shaped resource declarations, cross-stack exports,
// dependency ordering and deterministic template rendering. Assembly is a
// single synchronous pass; all structural validation happens before any
// template is emitted.
package synth
