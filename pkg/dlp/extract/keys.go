package extract

import (
	"fmt"
	"reflect"
	"sort"
)

// sortKeys orders map keys for deterministic traversal. String keys sort
// lexically, everything else by formatted representation.
func sortKeys(keys []reflect.Value) {
	sort.Slice(keys, func(i, j int) bool {
		return keyString(keys[i]) < keyString(keys[j])
	})
}

func formatKey(v reflect.Value) string {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fmt.Sprintf("%d", v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fmt.Sprintf("%d", v.Uint())
	case reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%g", v.Float())
	case reflect.Bool:
		return fmt.Sprintf("%t", v.Bool())
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}
