// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package stacks

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/drupalcloud/drupalctl/internal/synth"
)

var testEnv = synth.Environment{Account: "123456789012", Region: "us-east-1"}

// template synthesizes the app and returns the named stack's template.
func template(t *testing.T, app *synth.App, name string) gjson.Result {
	t.Helper()
	asm, err := app.Synth()
	require.NoError(t, err)
	for _, a := range asm.Artifacts {
		if a.Name == name {
			return gjson.ParseBytes(a.Template)
		}
	}
	t.Fatalf("no artifact named %s", name)
	return gjson.Result{}
}

// platform wires the full component set into one app.
type platform struct {
	app      *synth.App
	network  *NetworkHandle
	database *DatabaseHandle
	registry *RegistryHandle
	service  *ServiceHandle
	backup   *BackupHandle
}

func buildPlatform(t *testing.T, service ServiceProps) *platform {
	t.Helper()
	app := synth.NewApp(testEnv)

	network, err := NewNetworkStack(app, "Network", NetworkProps{})
	require.NoError(t, err)
	database, err := NewDatabaseStack(app, "Database", network, DatabaseProps{})
	require.NoError(t, err)
	registry, err := NewRegistryStack(app, "Registry", RegistryProps{})
	require.NoError(t, err)
	svc, err := NewServiceStack(app, "Service", network, database, registry, service)
	require.NoError(t, err)
	backup, err := NewBackupStack(app, "Backup", database, svc, BackupProps{})
	require.NoError(t, err)

	return &platform{
		app:      app,
		network:  network,
		database: database,
		registry: registry,
		service:  svc,
		backup:   backup,
	}
}
