// Package stats collects seller account and listing statistics and exports
// them as carbon plaintext lines.
package stats

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
)

// Tree is a nested set of metric values keyed by path segment. Leaves are
// int64 or float64; inner nodes are Tree.
type Tree map[string]any

// Lines flattens t into carbon plaintext lines "path value timestamp",
// rooted at prefix and sorted by path.
func (t Tree) Lines(prefix string, ts int64) []string {
	var out []string
	t.flatten(prefix, strconv.FormatInt(ts, 10), &out)
	slices.Sort(out)
	return out
}

func (t Tree) flatten(path, ts string, out *[]string) {
	for _, key := range slices.Sorted(maps.Keys(t)) {
		p := key
		if path != "" {
			p = path + "." + key
		}
		switch v := t[key].(type) {
		case Tree:
			v.flatten(p, ts, out)
		default:
			*out = append(*out, p+" "+formatValue(v)+" "+ts)
		}
	}
}

func formatValue(v any) string {
	switch n := v.(type) {
	case int64:
		return strconv.FormatInt(n, 10)
	case int:
		return strconv.Itoa(n)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	default:
		return fmt.Sprint(n)
	}
}
