// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package synth

import (
	"fmt"
	"sort"
	"strings"

	"github.com/drupalcloud/drupalctl/internal/log"
)

// Environment identifies the deployment target of a stack.
type Environment struct {
	Account string `json:"account" yaml:"account"`
	Region  string `json:"region" yaml:"region"`
}

// Stack is a named, independently deployable bundle of resource declarations.
// Stacks are created through App.NewStack so the app can order and render
// them. A stack owns its resources; consumers of what it provisions receive
// only export names.
type Stack struct {
	Name        string
	Env         Environment
	Description string

	resources map[string]*Resource
	outputs   map[string]Output
	dependsOn map[string]struct{}
	warnings  []string
}

func newStack(name string, env Environment) *Stack {
	return &Stack{
		Name:      name,
		Env:       env,
		resources: map[string]*Resource{},
		outputs:   map[string]Output{},
		dependsOn: map[string]struct{}{},
	}
}

// AddResource registers a resource under a unique logical ID.
func (s *Stack) AddResource(logicalID string, r *Resource) error {
	if logicalID == "" {
		return fmt.Errorf("stack %s: empty logical ID", s.Name)
	}
	if r == nil || r.Type == "" {
		return fmt.Errorf("stack %s: resource %s has no type", s.Name, logicalID)
	}
	if _, exists := s.resources[logicalID]; exists {
		return fmt.Errorf("stack %s: duplicate logical ID %s", s.Name, logicalID)
	}
	s.resources[logicalID] = r
	log.Tracef("resource added: stack=%s id=%s type=%s", s.Name, logicalID, r.Type)
	return nil
}

// MustAddResource is AddResource for construction paths where the logical ID
// is a compile-time constant; a collision there is a programming error.
func (s *Stack) MustAddResource(logicalID string, r *Resource) {
	if err := s.AddResource(logicalID, r); err != nil {
		panic(err)
	}
}

// AddOutput registers a named output. The export name, when set, must be
// unique across the app; App.Synth enforces that.
func (s *Stack) AddOutput(name string, o Output) {
	s.outputs[name] = o
}

// AddDependsOn records an explicit ordering edge: s deploys after other.
func (s *Stack) AddDependsOn(other *Stack) {
	if other == nil || other.Name == s.Name {
		return
	}
	s.dependsOn[other.Name] = struct{}{}
}

// AddWarning records an operator-facing note surfaced at synth time (e.g. the
// plaintext-HTTP fallback). Warnings never fail assembly.
func (s *Stack) AddWarning(format string, args ...any) {
	w := fmt.Sprintf(format, args...)
	s.warnings = append(s.warnings, w)
	log.Warnf("%s: %s", s.Name, w)
}

// Warnings returns the warnings recorded during construction.
func (s *Stack) Warnings() []string {
	return s.warnings
}

// Resource returns the resource registered under logicalID, or nil.
func (s *Stack) Resource(logicalID string) *Resource {
	return s.resources[logicalID]
}

// ResourceIDs returns the logical IDs in lexical order.
func (s *Stack) ResourceIDs() []string {
	ids := make([]string, 0, len(s.resources))
	for id := range s.resources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ResourcesOfType returns the logical IDs of resources with the given
// CloudFormation type, in lexical order.
func (s *Stack) ResourcesOfType(typ string) []string {
	var ids []string
	for id, r := range s.resources {
		if r.Type == typ {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Outputs returns the output names in lexical order.
func (s *Stack) Outputs() []string {
	names := make([]string, 0, len(s.outputs))
	for name := range s.outputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Output returns the named output and whether it exists.
func (s *Stack) Output(name string) (Output, bool) {
	o, ok := s.outputs[name]
	return o, ok
}

// DependsOn returns the names of stacks this stack must deploy after, in
// lexical order.
func (s *Stack) DependsOn() []string {
	deps := make([]string, 0, len(s.dependsOn))
	for name := range s.dependsOn {
		deps = append(deps, name)
	}
	sort.Strings(deps)
	return deps
}

// Validate checks structural invariants: every Ref/GetAtt target and every
// resource-level DependsOn must name a resource declared in this stack.
// Pseudo parameters (AWS::Region etc.) are exempt.
func (s *Stack) Validate() error {
	if len(s.resources) == 0 {
		return fmt.Errorf("stack %s: no resources declared", s.Name)
	}

	for id, r := range s.resources {
		targets := map[string]struct{}{}
		refTargets(r.Properties, targets)
		for target := range targets {
			if strings.HasPrefix(target, "AWS::") {
				continue
			}
			if _, ok := s.resources[target]; !ok {
				return fmt.Errorf("stack %s: resource %s references unknown logical ID %s", s.Name, id, target)
			}
		}
		for _, dep := range r.DependsOn {
			if _, ok := s.resources[dep]; !ok {
				return fmt.Errorf("stack %s: resource %s depends on unknown logical ID %s", s.Name, id, dep)
			}
		}
	}

	for name, o := range s.outputs {
		if o.Value == nil {
			return fmt.Errorf("stack %s: output %s has no value", s.Name, name)
		}
	}

	return nil
}
