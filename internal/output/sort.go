// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"sort"
	"strings"
)

// sortKey is one element of a --sort expression. A leading "-" reverses the
// order, a leading "!" makes string comparison case sensitive.
type sortKey struct {
	name          string
	descending    bool
	caseSensitive bool
}

func parseSortKeys(expr string) []sortKey {
	parts := strings.Split(expr, ",")
	keys := make([]sortKey, 0, len(parts))
	for _, part := range parts {
		k := sortKey{}
		if strings.HasPrefix(part, "-") {
			part = strings.TrimPrefix(part, "-")
			k.descending = true
		}
		if strings.HasPrefix(part, "!") {
			part = strings.TrimPrefix(part, "!")
			k.caseSensitive = true
		}
		k.name = part
		keys = append(keys, k)
	}
	return keys
}

// numeric widens the int and float shapes a result set row may carry.
func numeric(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// SortDataset sorts the result set in place by a comma-separated key
// expression. Numeric values compare numerically; everything else falls back
// to string comparison, which also handles bools.
func SortDataset(resultSet []map[string]interface{}, expr string) {
	keys := parseSortKeys(expr)

	sort.SliceStable(resultSet, func(one, two int) bool {
		for _, key := range keys {
			oneValue := resultSet[one][key.name]
			twoValue := resultSet[two][key.name]

			if oneNum, oneOk := numeric(oneValue); oneOk {
				if twoNum, twoOk := numeric(twoValue); twoOk {
					if oneNum != twoNum {
						if key.descending {
							return oneNum > twoNum
						}
						return oneNum < twoNum
					}
					continue
				}
			}

			oneStr := InterfaceToString(oneValue)
			twoStr := InterfaceToString(twoValue)
			if !key.caseSensitive {
				oneStr = strings.ToLower(oneStr)
				twoStr = strings.ToLower(twoStr)
			}

			if oneStr != twoStr {
				if key.descending {
					return oneStr > twoStr
				}
				return oneStr < twoStr
			}
		}
		return false
	})
}
