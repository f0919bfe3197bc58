// Package layering merges configuration values ordered from strongest to
// weakest.
package layering

import "reflect"

// Merge composes values ordered from strongest to weakest. Structs merge
// field by field and maps merge key by key; otherwise a value set in a
// stronger layer wins. Zero scalars count as unset, so a stronger layer
// cannot reset a weaker one to false or ""; use a pointer field when that
// is needed. Slices are replaced as a whole.
func Merge[T any](layers ...T) T {
	var zero T
	if len(layers) == 0 {
		return zero
	}

	merged := clone(reflect.ValueOf(layers[len(layers)-1]))
	for i := len(layers) - 2; i >= 0; i-- {
		merged = merge(reflect.ValueOf(layers[i]), merged)
	}
	if !merged.IsValid() {
		return zero
	}
	target := reflect.TypeOf(zero)
	if target == nil {
		return merged.Interface().(T)
	}
	out := reflect.New(target).Elem()
	out.Set(merged.Convert(target))
	return out.Interface().(T)
}

func merge(strong, weak reflect.Value) reflect.Value {
	if !strong.IsValid() {
		return clone(weak)
	}
	if weak.IsValid() && weak.Type() != strong.Type() {
		weak = reflect.Value{}
	}

	switch strong.Kind() {
	case reflect.Pointer:
		if strong.IsNil() {
			return clone(weak)
		}
		// A set pointer to a scalar is explicit, even when it points at zero.
		if strong.Elem().Kind() != reflect.Struct {
			return clone(strong)
		}
		var weakElem reflect.Value
		if weak.IsValid() && !weak.IsNil() {
			weakElem = weak.Elem()
		}
		out := reflect.New(strong.Type().Elem())
		out.Elem().Set(merge(strong.Elem(), weakElem))
		return out
	case reflect.Interface:
		if strong.IsNil() {
			return clone(weak)
		}
		var weakElem reflect.Value
		if weak.IsValid() && !weak.IsNil() {
			weakElem = weak.Elem()
		}
		return merge(strong.Elem(), weakElem).Convert(strong.Type())
	case reflect.Struct:
		out := reflect.New(strong.Type()).Elem()
		for i := 0; i < strong.NumField(); i++ {
			field := out.Field(i)
			if !field.CanSet() {
				continue
			}
			var weakField reflect.Value
			if weak.IsValid() {
				weakField = weak.Field(i)
			}
			field.Set(merge(strong.Field(i), weakField))
		}
		return out
	case reflect.Map:
		if strong.IsNil() {
			return clone(weak)
		}
		out := clone(weak)
		if !out.IsValid() || out.IsNil() {
			out = reflect.MakeMapWithSize(strong.Type(), strong.Len())
		}
		entries := strong.MapRange()
		for entries.Next() {
			key := entries.Key()
			if existing := out.MapIndex(key); existing.IsValid() {
				out.SetMapIndex(key, merge(entries.Value(), existing))
				continue
			}
			out.SetMapIndex(key, clone(entries.Value()))
		}
		return out
	case reflect.Slice:
		if strong.IsNil() {
			return clone(weak)
		}
		return clone(strong)
	case reflect.Array:
		out := reflect.New(strong.Type()).Elem()
		for i := 0; i < strong.Len(); i++ {
			var weakElem reflect.Value
			if weak.IsValid() {
				weakElem = weak.Index(i)
			}
			out.Index(i).Set(merge(strong.Index(i), weakElem))
		}
		return out
	default:
		if strong.IsZero() && weak.IsValid() {
			return clone(weak)
		}
		return clone(strong)
	}
}

func clone(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(clone(v.Elem()))
		return out
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		return clone(v.Elem()).Convert(v.Type())
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			if field := out.Field(i); field.CanSet() {
				field.Set(clone(v.Field(i)))
			}
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		entries := v.MapRange()
		for entries.Next() {
			out.SetMapIndex(entries.Key(), clone(entries.Value()))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(clone(v.Index(i)))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(clone(v.Index(i)))
		}
		return out
	default:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		return out
	}
}
