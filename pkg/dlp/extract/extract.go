package extract

import (
	"reflect"
)

// Flatten walks an arbitrary tree of maps, slices, and arrays and collects
// every leaf string in traversal order. Non-string, non-container leaves
// are ignored. Container identities are tracked so cyclic object graphs
// terminate: an already-visited container is skipped rather than recursed.
func Flatten(data interface{}) []string {
	var fragments []string
	visited := make(map[uintptr]struct{})
	flattenValue(reflect.ValueOf(data), visited, &fragments)
	return fragments
}

func flattenValue(v reflect.Value, visited map[uintptr]struct{}, out *[]string) {
	if !v.IsValid() {
		return
	}

	switch v.Kind() {
	case reflect.Interface, reflect.Ptr:
		if v.IsNil() {
			return
		}
		flattenValue(v.Elem(), visited, out)

	case reflect.String:
		*out = append(*out, v.String())

	case reflect.Map:
		if v.IsNil() || !markVisited(v, visited) {
			return
		}
		// Iterate keys in stable order so extraction is deterministic.
		keys := v.MapKeys()
		sortKeys(keys)
		for _, key := range keys {
			flattenValue(v.MapIndex(key), visited, out)
		}

	case reflect.Slice:
		if v.IsNil() || !markVisited(v, visited) {
			return
		}
		for i := 0; i < v.Len(); i++ {
			flattenValue(v.Index(i), visited, out)
		}

	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			flattenValue(v.Index(i), visited, out)
		}
	}
}

// Rewrite rebuilds a data tree, applying fn to every leaf string. New
// containers are always allocated: the result never shares a mutable
// container with the input. A failure from fn aborts the whole rewrite.
func Rewrite(data interface{}, fn func(string) (string, error)) (interface{}, error) {
	visited := make(map[uintptr]struct{})
	return rewriteValue(reflect.ValueOf(data), visited, fn)
}

func rewriteValue(v reflect.Value, visited map[uintptr]struct{}, fn func(string) (string, error)) (interface{}, error) {
	if !v.IsValid() {
		return nil, nil
	}

	switch v.Kind() {
	case reflect.Interface, reflect.Ptr:
		if v.IsNil() {
			return nil, nil
		}
		return rewriteValue(v.Elem(), visited, fn)

	case reflect.String:
		return fn(v.String())

	case reflect.Map:
		if v.IsNil() || !markVisited(v, visited) {
			return nil, nil
		}
		rebuilt := make(map[string]interface{}, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			key := keyString(iter.Key())
			child, err := rewriteValue(iter.Value(), visited, fn)
			if err != nil {
				return nil, err
			}
			rebuilt[key] = child
		}
		return rebuilt, nil

	case reflect.Slice:
		if v.IsNil() || !markVisited(v, visited) {
			return nil, nil
		}
		rebuilt := make([]interface{}, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			child, err := rewriteValue(v.Index(i), visited, fn)
			if err != nil {
				return nil, err
			}
			rebuilt = append(rebuilt, child)
		}
		return rebuilt, nil

	case reflect.Array:
		rebuilt := make([]interface{}, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			child, err := rewriteValue(v.Index(i), visited, fn)
			if err != nil {
				return nil, err
			}
			rebuilt = append(rebuilt, child)
		}
		return rebuilt, nil

	default:
		// Scalars pass through unchanged.
		return v.Interface(), nil
	}
}

func markVisited(v reflect.Value, visited map[uintptr]struct{}) bool {
	ptr := v.Pointer()
	if _, seen := visited[ptr]; seen {
		return false
	}
	visited[ptr] = struct{}{}
	return true
}

func keyString(v reflect.Value) string {
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	if v.Kind() == reflect.String {
		return v.String()
	}
	return formatKey(v)
}
