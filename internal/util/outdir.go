// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"os"
	"path/filepath"
	"strings"
)

// ParseOutDir parses an OutDir string and returns the absolute directory and
// any optional environment override (e.g. "./out::prod"). Unlike a source
// directory, the output directory does not have to exist yet; if it does
// exist it must be a directory.
func ParseOutDir(outDir string) (string, string, error) {

	if outDir == "" {
		return "", "", os.ErrInvalid
	}

	var dir, env string

	// First, split the path to see if there is an ::env override.
	parts := strings.Split(outDir, "::")
	if len(parts) > 1 {
		env = parts[1]
	}

	// Now determine if the actual directory (parts[0]) is absolute or
	// relative. If it is relative, make it absolute.
	if !strings.HasPrefix(parts[0], "/") {
		cwd, err := os.Getwd()
		if err != nil {
			return "", "", err
		}
		dir = filepath.Join(cwd, parts[0])
	} else {
		dir = parts[0]
	}

	// If the path exists but is not a directory, that's an error. A missing
	// path is fine; synth creates it.
	if r, err := os.Stat(dir); err == nil && !r.IsDir() {
		return "", "", os.ErrInvalid
	}

	return dir, env, nil
}
