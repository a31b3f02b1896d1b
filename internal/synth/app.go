// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package synth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/drupalcloud/drupalctl/internal/log"
)

// App is the root of one assembly run. Stacks register themselves on
// creation; Synth validates the whole graph, orders it and renders templates.
type App struct {
	env    Environment
	stacks []*Stack
	tags   map[string]string
}

// NewApp creates an empty app targeting the given environment.
func NewApp(env Environment) *App {
	return &App{
		env:  env,
		tags: map[string]string{},
	}
}

// Env returns the app's target environment.
func (a *App) Env() Environment {
	return a.env
}

// AddTag sets an app-wide tag applied to every stack at deploy time.
func (a *App) AddTag(key, value string) {
	a.tags[key] = value
}

// Tags returns the app-wide tags as a sorted key/value list.
func (a *App) Tags() []Tag {
	keys := make([]string, 0, len(a.tags))
	for k := range a.tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	tags := make([]Tag, 0, len(keys))
	for _, k := range keys {
		tags = append(tags, Tag{Key: k, Value: a.tags[k]})
	}
	return tags
}

// Tag is a deploy-time stack tag.
type Tag struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// NewStack creates a stack registered with the app. Stack names must be
// unique; a collision panics since names are compile-time constants in the
// component constructors.
func (a *App) NewStack(name string) *Stack {
	for _, s := range a.stacks {
		if s.Name == name {
			panic(fmt.Sprintf("duplicate stack name %s", name))
		}
	}
	s := newStack(name, a.env)
	a.stacks = append(a.stacks, s)
	log.Debugf("stack registered: name=%s", name)
	return s
}

// Stack returns the registered stack with the given name, or nil.
func (a *App) Stack(name string) *Stack {
	for _, s := range a.stacks {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Stacks returns the stacks in registration order.
func (a *App) Stacks() []*Stack {
	return a.stacks
}

// Artifact is one rendered stack template plus its deploy metadata, in
// dependency order within an Assembly.
type Artifact struct {
	Name      string      `json:"name" yaml:"name"`
	Env       Environment `json:"environment" yaml:"environment"`
	DependsOn []string    `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
	Tags      []Tag       `json:"tags,omitempty" yaml:"tags,omitempty"`
	Template  []byte      `json:"-" yaml:"-"`
	Warnings  []string    `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Assembly is the product of one Synth call: rendered templates in
// topological (deploy) order.
type Assembly struct {
	Artifacts []Artifact
}

// Synth validates every stack, checks cross-stack exports and dependencies,
// topologically orders the graph and renders one template per stack. No
// template is rendered unless the whole graph validates (fail-fast). Given
// identical input the rendered bytes are identical.
func (a *App) Synth() (*Assembly, error) {
	if len(a.stacks) == 0 {
		return nil, fmt.Errorf("app has no stacks")
	}

	// Validate each stack in isolation first.
	for _, s := range a.stacks {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}

	// Exports must be unique across the app, and every ImportValue must have
	// a matching export.
	exports := map[string]string{}
	for _, s := range a.stacks {
		for _, o := range s.outputs {
			if o.Export == "" {
				continue
			}
			if owner, dup := exports[o.Export]; dup {
				return nil, fmt.Errorf("export %s declared by both %s and %s", o.Export, owner, s.Name)
			}
			exports[o.Export] = s.Name
		}
	}
	for _, s := range a.stacks {
		for _, id := range s.ResourceIDs() {
			for _, imp := range importedValues(s.resources[id].Properties) {
				if _, ok := exports[imp]; !ok {
					return nil, fmt.Errorf("stack %s imports unknown export %s", s.Name, imp)
				}
			}
		}
		for _, name := range s.Outputs() {
			o, _ := s.Output(name)
			for _, imp := range importedValues(o.Value) {
				if _, ok := exports[imp]; !ok {
					return nil, fmt.Errorf("stack %s output %s imports unknown export %s", s.Name, name, imp)
				}
			}
		}
	}

	// Stack-level DependsOn must name registered stacks.
	byName := map[string]*Stack{}
	for _, s := range a.stacks {
		byName[s.Name] = s
	}
	for _, s := range a.stacks {
		for _, dep := range s.DependsOn() {
			if _, ok := byName[dep]; !ok {
				return nil, fmt.Errorf("stack %s depends on unknown stack %s", s.Name, dep)
			}
		}
	}

	ordered, err := a.order()
	if err != nil {
		return nil, err
	}

	asm := &Assembly{}
	for _, s := range ordered {
		doc, err := renderTemplate(s)
		if err != nil {
			return nil, fmt.Errorf("stack %s: %w", s.Name, err)
		}
		asm.Artifacts = append(asm.Artifacts, Artifact{
			Name:      s.Name,
			Env:       s.Env,
			DependsOn: s.DependsOn(),
			Tags:      a.Tags(),
			Template:  doc,
			Warnings:  s.Warnings(),
		})
	}
	log.Debugf("assembly complete: stacks=%d", len(asm.Artifacts))
	return asm, nil
}

// order performs a Kahn topological sort over the stack-level DependsOn
// edges. Ties break on registration order so output is deterministic.
func (a *App) order() ([]*Stack, error) {
	indegree := map[string]int{}
	for _, s := range a.stacks {
		indegree[s.Name] = len(s.dependsOn)
	}

	var ordered []*Stack
	placed := map[string]struct{}{}
	for len(ordered) < len(a.stacks) {
		progressed := false
		for _, s := range a.stacks {
			if _, done := placed[s.Name]; done {
				continue
			}
			if indegree[s.Name] != 0 {
				continue
			}
			ordered = append(ordered, s)
			placed[s.Name] = struct{}{}
			for _, other := range a.stacks {
				if _, dep := other.dependsOn[s.Name]; dep {
					indegree[other.Name]--
				}
			}
			progressed = true
		}
		if !progressed {
			var stuck []string
			for _, s := range a.stacks {
				if _, done := placed[s.Name]; !done {
					stuck = append(stuck, s.Name)
				}
			}
			sort.Strings(stuck)
			return nil, fmt.Errorf("dependency cycle among stacks: %v", stuck)
		}
	}
	return ordered, nil
}

// importedValues collects Fn::ImportValue export names from a property tree.
func importedValues(v any) []string {
	var out []string
	var walk func(any)
	walk = func(v any) {
		switch t := v.(type) {
		case map[string]any:
			if imp, ok := t["Fn::ImportValue"].(string); ok && len(t) == 1 {
				out = append(out, imp)
				return
			}
			for _, val := range t {
				walk(val)
			}
		case []any:
			for _, val := range t {
				walk(val)
			}
		}
	}
	walk(v)
	sort.Strings(out)
	return out
}

// renderTemplate renders a stack to canonical JSON. encoding/json sorts map
// keys, which is what makes repeated synths byte-identical.
func renderTemplate(s *Stack) ([]byte, error) {
	resources := map[string]any{}
	for id, r := range s.resources {
		doc := map[string]any{
			"Type": r.Type,
		}
		if len(r.Properties) > 0 {
			doc["Properties"] = r.Properties
		}
		if len(r.DependsOn) > 0 {
			deps := append([]string(nil), r.DependsOn...)
			sort.Strings(deps)
			doc["DependsOn"] = deps
		}
		if r.DeletionPolicy != "" {
			doc["DeletionPolicy"] = r.DeletionPolicy
			doc["UpdateReplacePolicy"] = r.DeletionPolicy
		}
		resources[id] = doc
	}

	outputs := map[string]any{}
	for name, o := range s.outputs {
		doc := map[string]any{
			"Value": o.Value,
		}
		if o.Description != "" {
			doc["Description"] = o.Description
		}
		if o.Export != "" {
			doc["Export"] = map[string]any{"Name": o.Export}
		}
		outputs[name] = doc
	}

	tmpl := map[string]any{
		"AWSTemplateFormatVersion": "2010-09-09",
		"Resources":                resources,
	}
	if s.Description != "" {
		tmpl["Description"] = s.Description
	}
	if len(outputs) > 0 {
		tmpl["Outputs"] = outputs
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tmpl); err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}
	return buf.Bytes(), nil
}

// TemplateYAML re-renders an artifact's JSON template as YAML for humans.
func TemplateYAML(template []byte) ([]byte, error) {
	var doc map[string]any
	if err := json.Unmarshal(template, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return yaml.Marshal(doc)
}
