package store

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// fieldIndexCache maps a struct type to its key -> field index table.
var fieldIndexCache sync.Map // map[reflect.Type]map[string][]int

// shallowCopy returns a copy of v that shares everything below the top level.
// Maps get a new map with the same entries, pointers to structs get a new
// pointer to a copy of the struct, everything else is copied by value.
func shallowCopy[S any](v S) S {
	return fromValue[S](shallowValue(reflect.ValueOf(&v).Elem()))
}

func shallowValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), iter.Value())
		}
		return out
	case reflect.Pointer:
		if v.IsNil() || v.Elem().Kind() != reflect.Struct {
			return v
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(v.Elem())
		return out
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(shallowValue(v.Elem()))
		return out
	default:
		return v
	}
}

// zeroLike returns the empty state of the same shape as v: an empty map for
// maps, a pointer to a zero struct for struct pointers, the zero value
// otherwise.
func zeroLike[S any](v S) S {
	return fromValue[S](zeroValue(reflect.ValueOf(&v).Elem()))
}

func zeroValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Map:
		return reflect.MakeMap(v.Type())
	case reflect.Pointer:
		if v.Type().Elem().Kind() == reflect.Struct {
			return reflect.New(v.Type().Elem())
		}
	case reflect.Interface:
		if !v.IsNil() {
			out := reflect.New(v.Type()).Elem()
			out.Set(zeroValue(v.Elem()))
			return out
		}
	}
	return reflect.Zero(v.Type())
}

// mergeFields writes fields into target. Target must already be a private
// copy; it is modified and returned.
func mergeFields[S any](target S, fields map[string]any) S {
	v := reflect.ValueOf(&target).Elem()
	setFields(v, fields)
	return target
}

func setFields(v reflect.Value, fields map[string]any) {
	switch v.Kind() {
	case reflect.Struct:
		index := fieldIndex(v.Type())
		for key, val := range fields {
			idx, ok := index[key]
			if !ok {
				panic(fmt.Sprintf("store: %s has no field %q", v.Type(), key))
			}
			fv := v.FieldByIndex(idx)
			fv.Set(assignable(val, fv.Type(), key))
		}
	case reflect.Map:
		if len(fields) == 0 {
			return
		}
		if v.IsNil() {
			v.Set(reflect.MakeMap(v.Type()))
		}
		keyType := v.Type().Key()
		for key, val := range fields {
			k := reflect.ValueOf(key)
			if !k.Type().AssignableTo(keyType) {
				if keyType.Kind() != reflect.String {
					panic(fmt.Sprintf("store: cannot use field key %q for %s", key, v.Type()))
				}
				k = k.Convert(keyType)
			}
			v.SetMapIndex(k, assignable(val, v.Type().Elem(), key))
		}
	case reflect.Pointer:
		if v.Type().Elem().Kind() != reflect.Struct {
			panic(fmt.Sprintf("store: cannot merge fields into %s", v.Type()))
		}
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}
		setFields(v.Elem(), fields)
	case reflect.Interface:
		if v.IsNil() {
			panic("store: cannot merge fields into a nil interface state")
		}
		inner := reflect.New(v.Elem().Type()).Elem()
		inner.Set(v.Elem())
		setFields(inner, fields)
		v.Set(inner)
	default:
		panic(fmt.Sprintf("store: cannot merge fields into %s", v.Type()))
	}
}

// fieldIndex returns the key table for a struct type: exported field names
// and json tag names, promoted fields included.
func fieldIndex(t reflect.Type) map[string][]int {
	if cached, ok := fieldIndexCache.Load(t); ok {
		return cached.(map[string][]int)
	}

	index := make(map[string][]int)
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() {
			continue
		}
		if _, taken := index[f.Name]; !taken {
			index[f.Name] = f.Index
		}
		tag := f.Tag.Get("json")
		if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
			if _, taken := index[name]; !taken {
				index[name] = f.Index
			}
		}
	}

	actual, _ := fieldIndexCache.LoadOrStore(t, index)
	return actual.(map[string][]int)
}

// assignable converts val for assignment to a value of type t.
// Numeric values convert between numeric kinds; anything else must be
// directly assignable.
func assignable(val any, t reflect.Type, key string) reflect.Value {
	if val == nil {
		return reflect.Zero(t)
	}
	rv := reflect.ValueOf(val)
	if rv.Type().AssignableTo(t) {
		return rv
	}
	if isNumeric(rv.Kind()) && isNumeric(t.Kind()) {
		return rv.Convert(t)
	}
	panic(fmt.Sprintf("store: cannot assign %s to %q of type %s", rv.Type(), key, t))
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// mergeWhole merges every key of next onto current.
// For maps that keeps current's keys that next lacks; for every other shape
// next already names all keys and wins outright.
func mergeWhole[S any](current, next S) S {
	cv := reflect.ValueOf(&current).Elem()
	nv := reflect.ValueOf(&next).Elem()
	return fromValue[S](mergeWholeValue(cv, nv))
}

func mergeWholeValue(current, next reflect.Value) reflect.Value {
	switch next.Kind() {
	case reflect.Map:
		if current.IsNil() {
			return next
		}
		out := shallowValue(current)
		iter := next.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), iter.Value())
		}
		return out
	case reflect.Interface:
		if current.IsNil() || next.IsNil() || current.Elem().Type() != next.Elem().Type() {
			return next
		}
		out := reflect.New(next.Type()).Elem()
		out.Set(mergeWholeValue(current.Elem(), next.Elem()))
		return out
	default:
		return next
	}
}

// fromValue copies v into a fresh S. It works for interface-typed S holding
// nil, where a type assertion would panic.
func fromValue[S any](v reflect.Value) S {
	var out S
	if v.IsValid() {
		reflect.ValueOf(&out).Elem().Set(v)
	}
	return out
}
