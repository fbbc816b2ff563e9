package store

import (
	"math"
	"reflect"
)

// Equality decides whether two selector outputs are the same.
// A selector subscription's listener only fires when it returns false.
type Equality[T any] func(a, b T) bool

// Is is the default equality. It follows reference semantics:
//
//   - booleans, integers and strings compare by value
//   - floats compare by value except that NaN is equal to NaN and +0 is not
//     equal to -0
//   - slices are equal when they share the same backing array, length and
//     capacity
//   - maps, pointers, channels and funcs compare by pointer
//   - structs, arrays and interfaces compare element-wise with these rules
//
// Two distinct maps with identical contents are therefore not equal. Use
// Shallow or DeepEqual when contents should be compared instead.
func Is[T any](a, b T) bool {
	return isValue(reflect.ValueOf(&a).Elem(), reflect.ValueOf(&b).Elem())
}

func isValue(a, b reflect.Value) bool {
	switch a.Kind() {
	case reflect.Float32, reflect.Float64:
		return sameFloat(a.Float(), b.Float())
	case reflect.Complex64, reflect.Complex128:
		x, y := a.Complex(), b.Complex()
		return sameFloat(real(x), real(y)) && sameFloat(imag(x), imag(y))
	case reflect.Slice:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}
		return a.Pointer() == b.Pointer() && a.Len() == b.Len() && a.Cap() == b.Cap()
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return a.Pointer() == b.Pointer()
	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() == b.IsNil()
		}
		if a.Elem().Type() != b.Elem().Type() {
			return false
		}
		return isValue(a.Elem(), b.Elem())
	case reflect.Struct:
		for i := 0; i < a.NumField(); i++ {
			if !isValue(a.Field(i), b.Field(i)) {
				return false
			}
		}
		return true
	case reflect.Array:
		for i := 0; i < a.Len(); i++ {
			if !isValue(a.Index(i), b.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Bool:
		return a.Bool() == b.Bool()
	case reflect.String:
		return a.String() == b.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return a.Int() == b.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return a.Uint() == b.Uint()
	default:
		return false
	}
}

func sameFloat(x, y float64) bool {
	if math.IsNaN(x) && math.IsNaN(y) {
		return true
	}
	return x == y && math.Signbit(x) == math.Signbit(y)
}

// Equal compares comparable values with ==.
func Equal[T comparable](a, b T) bool {
	return a == b
}

// DeepEqual compares values with reflect.DeepEqual.
func DeepEqual[T any](a, b T) bool {
	return reflect.DeepEqual(a, b)
}

// Shallow compares the top level of two values with Is: map entries, slice
// and array elements, or struct fields. Other values fall back to Is.
func Shallow[T any](a, b T) bool {
	av := reflect.ValueOf(&a).Elem()
	bv := reflect.ValueOf(&b).Elem()
	if av.Kind() == reflect.Interface {
		if av.IsNil() || bv.IsNil() {
			return av.IsNil() == bv.IsNil()
		}
		if av.Elem().Type() != bv.Elem().Type() {
			return false
		}
		av, bv = av.Elem(), bv.Elem()
	}

	switch av.Kind() {
	case reflect.Map:
		if av.IsNil() || bv.IsNil() {
			return av.IsNil() == bv.IsNil()
		}
		if av.Len() != bv.Len() {
			return false
		}
		iter := av.MapRange()
		for iter.Next() {
			other := bv.MapIndex(iter.Key())
			if !other.IsValid() || !isValue(iter.Value(), other) {
				return false
			}
		}
		return true
	case reflect.Slice, reflect.Array:
		if av.Kind() == reflect.Slice && (av.IsNil() || bv.IsNil()) {
			return av.IsNil() == bv.IsNil()
		}
		if av.Len() != bv.Len() {
			return false
		}
		for i := 0; i < av.Len(); i++ {
			if !isValue(av.Index(i), bv.Index(i)) {
				return false
			}
		}
		return true
	default:
		return isValue(av, bv)
	}
}
