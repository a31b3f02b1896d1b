// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

// Package differ compares synthesized templates, either two files on disk or
// a freshly assembled template against the last synthesized one.
package differ
