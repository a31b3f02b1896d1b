// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

// setupTestConfig sets DRUPALCTL_CFG_FILE to point to a test config file.
// Returns cleanup function that should be deferred.
func setupTestConfig(t *testing.T, testdataFile string) (cleanup func()) {
	t.Helper()

	configPath := filepath.Join("testdata", testdataFile)
	absPath, err := filepath.Abs(configPath)
	assert.NoError(t, err, "failed to get absolute path for test config")

	t.Setenv("DRUPALCTL_CFG_FILE", absPath)

	// Reset the global Config to force reload
	Config = Type{}

	return func() {
		Config = Type{}
	}
}

// withConfig is a helper that sets up a test config and executes a test function.
func withConfig(t *testing.T, testFile string, fn func(t *testing.T)) {
	t.Helper()
	cleanup := setupTestConfig(t, testFile)
	defer cleanup()
	_, _ = Load()
	fn(t)
}

func TestLoad(t *testing.T) {
	withConfig(t, "simple.yaml", func(t *testing.T) {
		assert.NotEmpty(t, Config.Source)
		assert.Contains(t, Config.Data, "region")
		assert.Equal(t, "us-east-1", Config.Data["region"])
	})
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("DRUPALCTL_CFG_FILE", filepath.Join("testdata", "nope.yaml"))
	Config = Type{}
	_, err := Load()
	assert.Error(t, err)
}

func TestGetString(t *testing.T) {
	withConfig(t, "simple.yaml", func(t *testing.T) {
		v, err := GetString("region")
		assert.NoError(t, err)
		assert.Equal(t, "us-east-1", v)
	})
}

func TestGetStringDefault(t *testing.T) {
	withConfig(t, "simple.yaml", func(t *testing.T) {
		v, err := GetString("missing", "fallback")
		assert.NoError(t, err)
		assert.Equal(t, "fallback", v)
	})
}

func TestGetStringNested(t *testing.T) {
	withConfig(t, "nested.yaml", func(t *testing.T) {
		v, err := GetString("service.certificate_arn")
		assert.NoError(t, err)
		assert.Equal(t, "arn:aws:acm:us-east-1:123456789012:certificate/abc", v)
	})
}

func TestGetStringNamespaced(t *testing.T) {
	withConfig(t, "nested.yaml", func(t *testing.T) {
		Config.Namespace = "synth"
		defer func() { Config.Namespace = "" }()

		// "out_dir" only exists under the synth namespace.
		v, err := Config.get("out_dir")
		assert.NoError(t, err)
		assert.Equal(t, "cdk.out", v)
	})
}

func TestGetInt(t *testing.T) {
	withConfig(t, "nested.yaml", func(t *testing.T) {
		v, err := GetInt("network.max_azs")
		assert.NoError(t, err)
		assert.Equal(t, 2, v)
	})
}

func TestGetIntDefault(t *testing.T) {
	withConfig(t, "simple.yaml", func(t *testing.T) {
		v, err := GetInt("missing", 42)
		assert.NoError(t, err)
		assert.Equal(t, 42, v)
	})
}

func TestGetIntWrongType(t *testing.T) {
	withConfig(t, "simple.yaml", func(t *testing.T) {
		_, err := GetInt("region")
		assert.Error(t, err)
	})
}

func TestGetBool(t *testing.T) {
	withConfig(t, "nested.yaml", func(t *testing.T) {
		v, err := GetBool("service.container_insights")
		assert.NoError(t, err)
		assert.True(t, v)
	})
}

func TestGetStringSlice(t *testing.T) {
	withConfig(t, "nested.yaml", func(t *testing.T) {
		v, err := GetStringSlice("pipeline.unit_test_commands")
		assert.NoError(t, err)
		assert.Equal(t, []string{"go test ./..."}, v)
	})
}

func TestGetStringSliceDefault(t *testing.T) {
	withConfig(t, "simple.yaml", func(t *testing.T) {
		v, err := GetStringSlice("missing", []string{"a", "b"})
		assert.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, v)
	})
}
