// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package synth

// Intrinsic helpers. Each returns the CloudFormation intrinsic as a plain
// map so that it renders naturally through encoding/json.

// Ref returns a reference to another resource in the same stack.
func Ref(logicalID string) map[string]any {
	return map[string]any{"Ref": logicalID}
}

// GetAtt returns a runtime attribute of another resource in the same stack.
func GetAtt(logicalID, attr string) map[string]any {
	return map[string]any{"Fn::GetAtt": []string{logicalID, attr}}
}

// ImportValue consumes a named export from another stack. This is the only
// sanctioned way a stack reads a handle produced elsewhere.
func ImportValue(exportName string) map[string]any {
	return map[string]any{"Fn::ImportValue": exportName}
}

// Sub performs ${} substitution over the given template string.
func Sub(tmpl string) map[string]any {
	return map[string]any{"Fn::Sub": tmpl}
}

// Join concatenates values with the given delimiter.
func Join(delim string, values []any) map[string]any {
	return map[string]any{"Fn::Join": []any{delim, values}}
}

// refTargets walks a property tree and collects every logical ID referenced
// through Ref or Fn::GetAtt so the stack can verify they exist.
func refTargets(v any, out map[string]struct{}) {
	switch t := v.(type) {
	case map[string]any:
		if id, ok := t["Ref"].(string); ok && len(t) == 1 {
			out[id] = struct{}{}
			return
		}
		if att, ok := t["Fn::GetAtt"]; ok && len(t) == 1 {
			if parts, ok := att.([]string); ok && len(parts) == 2 {
				out[parts[0]] = struct{}{}
			}
			return
		}
		for _, val := range t {
			refTargets(val, out)
		}
	case []any:
		for _, val := range t {
			refTargets(val, out)
		}
	case []string, string, int, int64, float64, bool, nil:
		// Leaves carry no references.
	}
}
