// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package main

import (
	"reflect"
	"testing"
)

func TestHandleNakedCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "naked binary gets help",
			args:     []string{"drupalctl"},
			expected: []string{"drupalctl", "--help"},
		},
		{
			name:     "command present is untouched",
			args:     []string{"drupalctl", "synth"},
			expected: []string{"drupalctl", "synth"},
		},
		{
			name:     "flags preserved",
			args:     []string{"drupalctl", "deploy", "--stage", "dev"},
			expected: []string{"drupalctl", "deploy", "--stage", "dev"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := handleNakedCommand(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("handleNakedCommand() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestHandleVersion(t *testing.T) {
	if handleVersion([]string{"drupalctl", "synth"}) {
		t.Error("handleVersion() = true for plain command args")
	}
	if !handleVersion([]string{"drupalctl", "--version"}) {
		t.Error("handleVersion() = false for --version")
	}
	if !handleVersion([]string{"drupalctl", "-v"}) {
		t.Error("handleVersion() = false for -v")
	}
}

func TestProcessCommandArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "completion passes through",
			args:     []string{"drupalctl", "completion", "bash"},
			expected: []string{"drupalctl", "completion", "bash"},
		},
		{
			name:     "diff passes through",
			args:     []string{"drupalctl", "diff", "a.json", "b.json"},
			expected: []string{"drupalctl", "diff", "a.json", "b.json"},
		},
		{
			name:     "synth without set is untouched",
			args:     []string{"drupalctl", "synth", "--output", "json"},
			expected: []string{"drupalctl", "synth", "--output", "json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := processCommandArgs(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("processCommandArgs() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestProcessSetOnly(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "no set marker",
			args:     []string{"drupalctl", "synth", "--titles"},
			expected: []string{"drupalctl", "synth", "--titles"},
		},
		{
			// With no config file present the set expands to nothing, so the
			// marker is simply removed.
			name:     "unknown set removed",
			args:     []string{"drupalctl", "synth", "@nosuchset", "--titles"},
			expected: []string{"drupalctl", "synth", "--titles"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DRUPALCTL_CFG_FILE", "/nonexistent/drupalctl.yaml")
			got := processSetOnly(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("processSetOnly() = %v, want %v", got, tt.expected)
			}
		})
	}
}
