// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package differ

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"
	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"
)

// Diff compares two templates and writes a unified ascii diff to w. The
// second template is treated as the newer one. Identical templates produce a
// short notice instead.
func Diff(ctx context.Context, cmd *cli.Command, templates [][]byte, w io.Writer) error {
	log.Debugf(">> differ()")

	if w == nil {
		w = os.Stdout
	}
	if len(templates[0]) == 0 || len(templates[1]) == 0 {
		return nil
	}

	log.Debugf("len(templates): %d %d", len(templates[0]), len(templates[1]))

	differ := gojsondiff.New()

	delta, err := differ.Compare(templates[0], templates[1])
	if err != nil {
		return fmt.Errorf("failed to compare templates: %w", err)
	}

	if delta.Modified() {
		var jdoc map[string]interface{}
		if err := json.Unmarshal(templates[0], &jdoc); err != nil {
			return fmt.Errorf("failed to unmarshal template: %w", err)
		}

		filter := cmd.String("diff_filter")

		for _, key := range strings.Split(filter, ",") {
			if key != "" {
				delete(jdoc, key)
			}
		}

		config := formatter.AsciiFormatterConfig{
			ShowArrayIndex: false,
			Coloring:       true,
		}

		formatter := formatter.NewAsciiFormatter(jdoc, config)
		diffString, err := formatter.Format(delta)
		if err != nil {
			return err
		}

		fmt.Fprintln(w, diffString)
		return nil
	}

	fmt.Fprintln(w, "The templates are identical.")
	return nil
}
