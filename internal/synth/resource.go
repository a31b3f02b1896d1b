// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package synth

// DeletionPolicy values understood by the renderer.
const (
	DeletionRetain = "Retain"
	DeletionDelete = "Delete"
)

// Resource is a single CloudFormation-shaped resource declaration. Properties
// holds the raw property tree; intrinsic maps produced by Ref/GetAtt/
// ImportValue/Sub may appear anywhere inside it.
type Resource struct {
	Type           string
	Properties     map[string]any
	DependsOn      []string
	DeletionPolicy string
}

// Output is a named stack output, optionally exported for cross-stack
// consumption.
type Output struct {
	Value       any
	Description string
	Export      string
}
