// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package command

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"

	"github.com/drupalcloud/drupalctl/internal/config"
	"github.com/drupalcloud/drupalctl/internal/meta"
	"github.com/drupalcloud/drupalctl/internal/stacks"
	"github.com/drupalcloud/drupalctl/internal/synth"
)

func TestInitAppRegistersCommands(t *testing.T) {
	t.Setenv("DRUPALCTL_CFG_FILE", "/nonexistent/drupalctl.yaml")

	app, err := InitApp(context.Background(), []string{"drupalctl", "synth"})
	require.NoError(t, err)

	names := make([]string, 0, len(app.Commands))
	for _, c := range app.Commands {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t,
		[]string{"synth", "validate", "outputs", "diff", "deploy", "completion"},
		names)
}

func TestInitAppParsesOutDir(t *testing.T) {
	t.Setenv("DRUPALCTL_CFG_FILE", "/nonexistent/drupalctl.yaml")
	dir := t.TempDir()

	app, err := InitApp(context.Background(), []string{"drupalctl", "synth", dir + "::prod"})
	require.NoError(t, err)

	m := GetMeta(app.Commands[0])
	assert.Equal(t, dir, m.OutDir)
	assert.Equal(t, "prod", m.Env)
}

func TestInitAppRejectsFileAsOutDir(t *testing.T) {
	t.Setenv("DRUPALCTL_CFG_FILE", "/nonexistent/drupalctl.yaml")
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := InitApp(context.Background(), []string{"drupalctl", "synth", file})
	assert.Error(t, err)
}

func TestGetMetaMissing(t *testing.T) {
	assert.Equal(t, meta.Meta{}, GetMeta(nil))
}

func TestBuilderWiresGlobalFlags(t *testing.T) {
	acb := AssemblyCommandBuilder{
		Name:  "synth",
		Usage: "u",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return nil
		},
		Meta: meta.Meta{},
	}
	cmd := acb.Build()

	names := map[string]bool{}
	for _, f := range cmd.Flags {
		names[f.Names()[0]] = true
	}
	for _, want := range []string{"tldr", "color", "output", "padding", "sort", "titles"} {
		assert.True(t, names[want], "missing flag %s", want)
	}
}

func TestFlagValidators(t *testing.T) {
	assert.NoError(t, FlagValidators("json", OutputValidator))
	assert.Error(t, FlagValidators("xml", OutputValidator))
	assert.NoError(t, FlagValidators("dev", StageValidator))
	assert.NoError(t, FlagValidators("all", StageValidator))
	assert.Error(t, FlagValidators("staging", StageValidator))
}

func TestSelectStages(t *testing.T) {
	handle := &stacks.PipelineHandle{
		Stages: []*stacks.Stage{{Name: "Dev"}, {Name: "Prod"}},
	}

	assert.Len(t, selectStages(handle, "all"), 2)
	assert.Len(t, selectStages(handle, ""), 2)

	dev := selectStages(handle, "dev")
	require.Len(t, dev, 1)
	assert.Equal(t, "Dev", dev[0].Name)

	prod := selectStages(handle, "prod")
	require.Len(t, prod, 1)
	assert.Equal(t, "Prod", prod[0].Name)
}

func TestStagePropsMapsBackupConfig(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "drupalctl.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(
		"backup:\n  start_window_minutes: 90\n  completion_window_minutes: 240\n  retention_days: 14\n"), 0o644))

	t.Setenv("DRUPALCTL_CFG_FILE", cfgFile)
	_, err := config.Load()
	require.NoError(t, err)
	t.Cleanup(func() { config.Config = config.Type{} })

	props := stageProps()
	assert.Equal(t, 90, props.Backup.StartWindowMinutes)
	assert.Equal(t, 240, props.Backup.CompletionWindowMinutes)
	assert.Equal(t, 14, props.Backup.RetentionDays)
}

func TestResolveEnvironmentFromFlags(t *testing.T) {
	acb := AssemblyCommandBuilder{
		Name:  "validate",
		Usage: "u",
		Flags: []cli.Flag{
			NewAccountFlag(),
			NewRegionFlag(),
			NewProfileFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			env, err := resolveEnvironment(ctx, cmd)
			require.NoError(t, err)
			assert.Equal(t, synth.Environment{Account: "123456789012", Region: "eu-west-1"}, env)
			return nil
		},
		Meta: meta.Meta{},
	}
	cmd := acb.Build()

	err := cmd.Run(context.Background(),
		[]string{"validate", "--account", "123456789012", "--region", "eu-west-1"})
	require.NoError(t, err)
}

func TestSynthWritesTemplatesAndManifest(t *testing.T) {
	t.Setenv("DRUPALCTL_CFG_FILE", "/nonexistent/drupalctl.yaml")
	dir := t.TempDir()

	m := meta.Meta{OutDirSpec: meta.OutDirSpec{OutDir: dir}}
	cmd := synthCommandBuilder(m)

	err := cmd.Run(context.Background(), []string{
		"synth", "--account", "123456789012", "--region", "us-east-1", "--output", "json",
	})
	require.NoError(t, err)

	mbytes, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	require.NoError(t, err)

	var entries []manifestEntry
	require.NoError(t, json.Unmarshal(mbytes, &entries))
	require.NotEmpty(t, entries)

	// Deploy order: the dev registry leads and the pipeline trails.
	assert.Equal(t, "Dev-Registry", entries[0].Name)
	assert.Equal(t, "Pipeline", entries[len(entries)-1].Name)

	for _, e := range entries {
		template, err := os.ReadFile(filepath.Join(dir, e.TemplateFile))
		require.NoError(t, err)
		assert.True(t, gjson.GetBytes(template, "Resources").Exists(), e.Name)
		assert.Equal(t, "123456789012", e.Env.Account)
	}
}

func TestOutputsListsExports(t *testing.T) {
	t.Setenv("DRUPALCTL_CFG_FILE", "/nonexistent/drupalctl.yaml")
	dir := t.TempDir()

	m := meta.Meta{OutDirSpec: meta.OutDirSpec{OutDir: dir}}
	synthCmd := synthCommandBuilder(m)
	require.NoError(t, synthCmd.Run(context.Background(), []string{
		"synth", "--account", "123456789012", "--region", "us-east-1", "--output", "json",
	}))

	outputsCmd := outputsCommandBuilder(m)
	err := outputsCmd.Run(context.Background(), []string{
		"outputs", "--stack", "Dev-Network", "--output", "json",
	})
	require.NoError(t, err)
}

func TestOutputsRequiresSynth(t *testing.T) {
	t.Setenv("DRUPALCTL_CFG_FILE", "/nonexistent/drupalctl.yaml")

	m := meta.Meta{OutDirSpec: meta.OutDirSpec{OutDir: t.TempDir()}}
	cmd := outputsCommandBuilder(m)
	err := cmd.Run(context.Background(), []string{"outputs"})
	assert.ErrorContains(t, err, "run synth first")
}

func TestDiffRequiresStackOrFiles(t *testing.T) {
	t.Setenv("DRUPALCTL_CFG_FILE", "/nonexistent/drupalctl.yaml")

	cmd := diffCommandBuilder(meta.Meta{})
	err := cmd.Run(context.Background(), []string{"diff"})
	assert.ErrorContains(t, err, "--stack")
}

func TestDiffIdenticalFiles(t *testing.T) {
	t.Setenv("DRUPALCTL_CFG_FILE", "/nonexistent/drupalctl.yaml")
	dir := t.TempDir()

	template := []byte(`{"Resources":{"DrupalVPC":{"Type":"AWS::EC2::VPC"}}}`)
	a := filepath.Join(dir, "a.json")
	b := filepath.Join(dir, "b.json")
	require.NoError(t, os.WriteFile(a, template, 0o644))
	require.NoError(t, os.WriteFile(b, template, 0o644))

	cmd := diffCommandBuilder(meta.Meta{})
	err := cmd.Run(context.Background(), []string{"diff", a, b})
	assert.NoError(t, err)
}

func TestDiffFilterFlagReachesDiffer(t *testing.T) {
	t.Setenv("DRUPALCTL_CFG_FILE", "/nonexistent/drupalctl.yaml")
	dir := t.TempDir()

	template := []byte(`{"Resources":{"DrupalVPC":{"Type":"AWS::EC2::VPC"}}}`)
	a := filepath.Join(dir, "a.json")
	b := filepath.Join(dir, "b.json")
	require.NoError(t, os.WriteFile(a, template, 0o644))
	require.NoError(t, os.WriteFile(b, template, 0o644))

	// The differ reads the filter as a comma-separated string; a slice-valued
	// flag would come back empty.
	cmd := diffCommandBuilder(meta.Meta{})
	err := cmd.Run(context.Background(), []string{"diff", "--diff_filter", "Outputs,Parameters", a, b})
	require.NoError(t, err)
	assert.Equal(t, "Outputs,Parameters", cmd.String("diff_filter"))
}
