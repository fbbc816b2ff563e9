package store

import "reflect"

// ValueCategory classifies a value for cloning.
type ValueCategory int

const (
	// CategoryPrimitive covers booleans, numbers, complex numbers and strings.
	CategoryPrimitive ValueCategory = iota

	// CategoryFunction covers funcs, channels and unsafe pointers.
	CategoryFunction

	// CategoryArray covers slices and arrays.
	CategoryArray

	// CategoryPlainObject covers structs whose fields are all exported and
	// maps keyed by a string kind: the Go shapes of a record literal.
	CategoryPlainObject

	// CategoryOther is everything else: pointers, maps with non-string keys,
	// structs with unexported fields (time.Time, sync types, class-like
	// values) and nil interfaces.
	CategoryOther
)

// String returns a human-readable name for the category.
func (c ValueCategory) String() string {
	switch c {
	case CategoryPrimitive:
		return "primitive"
	case CategoryFunction:
		return "function"
	case CategoryArray:
		return "array"
	case CategoryPlainObject:
		return "plain-object"
	case CategoryOther:
		return "other"
	default:
		return "unknown"
	}
}

// Categorize returns the clone category of v. Interfaces are classified by
// their dynamic value.
func Categorize(v reflect.Value) ValueCategory {
	switch v.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.String:
		return CategoryPrimitive
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return CategoryFunction
	case reflect.Slice, reflect.Array:
		return CategoryArray
	case reflect.Map:
		if v.Type().Key().Kind() == reflect.String {
			return CategoryPlainObject
		}
		return CategoryOther
	case reflect.Struct:
		if isPlainStruct(v.Type()) {
			return CategoryPlainObject
		}
		return CategoryOther
	case reflect.Interface:
		if v.IsNil() {
			return CategoryOther
		}
		return Categorize(v.Elem())
	default:
		return CategoryOther
	}
}

func isPlainStruct(t reflect.Type) bool {
	for i := 0; i < t.NumField(); i++ {
		if !t.Field(i).IsExported() {
			return false
		}
	}
	return true
}

// CloneStrategy produces the draft handed to mutators by the Draft
// middleware. Clone must return a value of v's type.
type CloneStrategy interface {
	Clone(v reflect.Value) reflect.Value
}

// SafeClone is the default CloneStrategy. It follows this table:
//
//	primitive     returned as is
//	function      returned as is (same reference)
//	array         new slice or array, each element cloned recursively;
//	              nil slices stay nil
//	plain object  new struct or map, each field or entry cloned recursively;
//	              func-valued fields and entries are passed through
//	other         returned as is: not cloned
//
// The last row is deliberate. Anything reached through a pointer, a map
// with non-string keys, or a struct with unexported fields is shared between
// the draft and the original state, and mutating it inside a mutator
// mutates the original in place.
type SafeClone struct{}

// Clone implements CloneStrategy.
func (c SafeClone) Clone(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(c.Clone(v.Elem()))
		return out
	}

	switch Categorize(v) {
	case CategoryArray:
		return c.cloneArray(v)
	case CategoryPlainObject:
		if v.Kind() == reflect.Map {
			return c.cloneMap(v)
		}
		return c.cloneStruct(v)
	default:
		return v
	}
}

func (c SafeClone) cloneArray(v reflect.Value) reflect.Value {
	var out reflect.Value
	if v.Kind() == reflect.Slice {
		if v.IsNil() {
			return v
		}
		out = reflect.MakeSlice(v.Type(), v.Len(), v.Len())
	} else {
		out = reflect.New(v.Type()).Elem()
	}
	for i := 0; i < v.Len(); i++ {
		out.Index(i).Set(c.Clone(v.Index(i)))
	}
	return out
}

func (c SafeClone) cloneMap(v reflect.Value) reflect.Value {
	if v.IsNil() {
		return v
	}
	out := reflect.MakeMapWithSize(v.Type(), v.Len())
	iter := v.MapRange()
	for iter.Next() {
		val := iter.Value()
		if Categorize(val) == CategoryFunction {
			out.SetMapIndex(iter.Key(), val)
			continue
		}
		out.SetMapIndex(iter.Key(), c.Clone(val))
	}
	return out
}

func (c SafeClone) cloneStruct(v reflect.Value) reflect.Value {
	out := reflect.New(v.Type()).Elem()
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Kind() == reflect.Func {
			out.Field(i).Set(f)
			continue
		}
		out.Field(i).Set(c.Clone(f))
	}
	return out
}

// Clone applies strategy to value and returns the clone.
func Clone[T any](strategy CloneStrategy, value T) T {
	if strategy == nil {
		strategy = SafeClone{}
	}
	return fromValue[T](strategy.Clone(reflect.ValueOf(&value).Elem()))
}
