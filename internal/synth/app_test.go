// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

var testEnv = Environment{Account: "123456789012", Region: "us-east-1"}

func minimalStack(app *App, name string) *Stack {
	s := app.NewStack(name)
	s.MustAddResource("Thing", &Resource{
		Type:       "AWS::SNS::Topic",
		Properties: map[string]any{"TopicName": name},
	})
	return s
}

func TestSynthEmptyApp(t *testing.T) {
	app := NewApp(testEnv)
	_, err := app.Synth()
	assert.Error(t, err)
}

func TestSynthSingleStack(t *testing.T) {
	app := NewApp(testEnv)
	s := minimalStack(app, "One")
	s.AddOutput("TopicRef", Output{Value: Ref("Thing"), Export: "One-TopicRef"})

	asm, err := app.Synth()
	require.NoError(t, err)
	require.Len(t, asm.Artifacts, 1)

	doc := gjson.ParseBytes(asm.Artifacts[0].Template)
	assert.Equal(t, "2010-09-09", doc.Get("AWSTemplateFormatVersion").String())
	assert.Equal(t, "AWS::SNS::Topic", doc.Get("Resources.Thing.Type").String())
	assert.Equal(t, "One-TopicRef", doc.Get("Outputs.TopicRef.Export.Name").String())
}

func TestSynthDeterministic(t *testing.T) {
	build := func() []byte {
		app := NewApp(testEnv)
		app.AddTag("Project", "AWSDrupalCDK")
		s := app.NewStack("One")
		for _, id := range []string{"Zed", "Alpha", "Mid"} {
			s.MustAddResource(id, &Resource{
				Type:       "AWS::SNS::Topic",
				Properties: map[string]any{"TopicName": id},
			})
		}
		asm, err := app.Synth()
		require.NoError(t, err)
		return asm.Artifacts[0].Template
	}

	assert.Equal(t, build(), build())
}

func TestSynthTopologicalOrder(t *testing.T) {
	app := NewApp(testEnv)
	c := minimalStack(app, "C")
	b := minimalStack(app, "B")
	a := minimalStack(app, "A")
	// A <- B <- C by dependency, registration order is C, B, A.
	b.AddDependsOn(a)
	c.AddDependsOn(b)

	asm, err := app.Synth()
	require.NoError(t, err)

	var names []string
	for _, art := range asm.Artifacts {
		names = append(names, art.Name)
	}
	assert.Equal(t, []string{"A", "B", "C"}, names)
}

func TestSynthCycleFails(t *testing.T) {
	app := NewApp(testEnv)
	a := minimalStack(app, "A")
	b := minimalStack(app, "B")
	a.AddDependsOn(b)
	b.AddDependsOn(a)

	_, err := app.Synth()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestSynthUnknownImportFails(t *testing.T) {
	app := NewApp(testEnv)
	s := app.NewStack("One")
	s.MustAddResource("Thing", &Resource{
		Type:       "AWS::SNS::Topic",
		Properties: map[string]any{"TopicName": ImportValue("nobody-exports-this")},
	})

	_, err := app.Synth()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown export")
}

func TestSynthDuplicateExportFails(t *testing.T) {
	app := NewApp(testEnv)
	a := minimalStack(app, "A")
	b := minimalStack(app, "B")
	a.AddOutput("Out", Output{Value: Ref("Thing"), Export: "shared-name"})
	b.AddOutput("Out", Output{Value: Ref("Thing"), Export: "shared-name"})

	_, err := app.Synth()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shared-name")
}

func TestSynthCrossStackImport(t *testing.T) {
	app := NewApp(testEnv)
	producer := minimalStack(app, "Producer")
	producer.AddOutput("TopicRef", Output{Value: Ref("Thing"), Export: "Producer-Topic"})

	consumer := app.NewStack("Consumer")
	consumer.MustAddResource("Sub", &Resource{
		Type:       "AWS::SNS::Subscription",
		Properties: map[string]any{"TopicArn": ImportValue("Producer-Topic")},
	})
	consumer.AddDependsOn(producer)

	asm, err := app.Synth()
	require.NoError(t, err)
	require.Len(t, asm.Artifacts, 2)
	assert.Equal(t, "Producer", asm.Artifacts[0].Name)
	assert.Equal(t, []string{"Producer"}, asm.Artifacts[1].DependsOn)
}

func TestStackValidateUnknownRef(t *testing.T) {
	app := NewApp(testEnv)
	s := app.NewStack("One")
	s.MustAddResource("Thing", &Resource{
		Type:       "AWS::SNS::Topic",
		Properties: map[string]any{"TopicName": Ref("Missing")},
	})

	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing")
}

func TestStackValidatePseudoParametersAllowed(t *testing.T) {
	app := NewApp(testEnv)
	s := app.NewStack("One")
	s.MustAddResource("Thing", &Resource{
		Type:       "AWS::SNS::Topic",
		Properties: map[string]any{"TopicName": Ref("AWS::Region")},
	})

	assert.NoError(t, s.Validate())
}

func TestStackDuplicateLogicalID(t *testing.T) {
	app := NewApp(testEnv)
	s := minimalStack(app, "One")
	err := s.AddResource("Thing", &Resource{Type: "AWS::SNS::Topic"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestResourceDeletionPolicyRendered(t *testing.T) {
	app := NewApp(testEnv)
	s := app.NewStack("One")
	s.MustAddResource("Keep", &Resource{
		Type:           "AWS::SNS::Topic",
		Properties:     map[string]any{"TopicName": "keep"},
		DeletionPolicy: DeletionRetain,
	})

	asm, err := app.Synth()
	require.NoError(t, err)

	doc := gjson.ParseBytes(asm.Artifacts[0].Template)
	assert.Equal(t, "Retain", doc.Get("Resources.Keep.DeletionPolicy").String())
	assert.Equal(t, "Retain", doc.Get("Resources.Keep.UpdateReplacePolicy").String())
}

func TestAppTagsSorted(t *testing.T) {
	app := NewApp(testEnv)
	app.AddTag("Environment", "Production")
	app.AddTag("Project", "AWSDrupalCDK")

	tags := app.Tags()
	require.Len(t, tags, 2)
	assert.Equal(t, "Environment", tags[0].Key)
	assert.Equal(t, "Project", tags[1].Key)
}

func TestTemplateYAML(t *testing.T) {
	app := NewApp(testEnv)
	minimalStack(app, "One")
	asm, err := app.Synth()
	require.NoError(t, err)

	y, err := TemplateYAML(asm.Artifacts[0].Template)
	require.NoError(t, err)
	assert.Contains(t, string(y), "AWS::SNS::Topic")
}
