package docstore

import (
	"fmt"
	"reflect"
	"sort"
)

// ApplyUpdates applies updates to data in place. It is the reference semantics
// of the update transforms and is used by backends that evaluate writes locally.
func ApplyUpdates(data map[string]any, updates []Update) error {
	for _, u := range updates {
		switch op := u.Value.(type) {
		case IncrementOp:
			cur, err := toInt64(data[u.Field])
			if err != nil {
				return fmt.Errorf("increment %s: %w", u.Field, err)
			}
			data[u.Field] = cur + op.N
		case ArrayUnionOp:
			arr := toSlice(data[u.Field])
			for _, e := range op.Elems {
				if !containsValue(arr, e) {
					arr = append(arr, e)
				}
			}
			data[u.Field] = arr
		case ArrayRemoveOp:
			arr := toSlice(data[u.Field])
			kept := arr[:0]
			for _, v := range arr {
				if !containsValue(op.Elems, v) {
					kept = append(kept, v)
				}
			}
			data[u.Field] = kept
		default:
			data[u.Field] = CopyValue(u.Value)
		}
	}
	return nil
}

// Matches reports whether data satisfies every filter of q.
func Matches(q Query, data map[string]any) bool {
	for _, f := range q.Filters {
		if !equalValues(data[f.Field], f.Value) {
			return false
		}
	}
	return true
}

// SortAndLimit orders docs by q.OrderBy and truncates them to q.Limit.
// Ties keep document id order so results are deterministic.
func SortAndLimit(q Query, docs []Document) []Document {
	sort.SliceStable(docs, func(i, j int) bool {
		if q.OrderBy != "" {
			c := compareValues(docs[i].Data[q.OrderBy], docs[j].Data[q.OrderBy])
			if c != 0 {
				if q.Direction == Desc {
					return c > 0
				}
				return c < 0
			}
		}
		return docs[i].ID < docs[j].ID
	})
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs
}

// CopyData deep-copies document data.
func CopyData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = CopyValue(v)
	}
	return out
}

// CopyValue deep-copies maps and slices. Typed slices become []any.
func CopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CopyData(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CopyValue(e)
		}
		return out
	case nil, string, bool, int64, float64:
		return v
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		return toSlice(v)
	}
	return v
}

func toSlice(v any) []any {
	switch t := v.(type) {
	case nil:
		return []any{}
	case []any:
		return append([]any{}, t...)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func containsValue(arr []any, v any) bool {
	for _, e := range arr {
		if equalValues(e, v) {
			return true
		}
	}
	return false
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("field is %T, not a number", v)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func equalValues(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	return reflect.DeepEqual(a, b)
}

// compareValues orders numbers numerically and strings lexically. Missing
// values sort first.
func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	}
	return 0
}
