// Package slices converts the list values received by the
// query builders into the flat lists that get bound.
package slices

import "reflect"

// ToInterfaceSlicer describes objects that
// can be converted to a list of interfaces
type ToInterfaceSlicer interface {
	ToInterfaceSlice() []interface{}
}

// IsList reports whether the value is a slice or array that should
// be bound element by element, []byte values are scalars.
func IsList(value interface{}) bool {
	if value == nil {
		return false
	}
	switch value.(type) {
	case []byte:
		return false
	case ToInterfaceSlicer:
		return true
	}

	kind := reflect.TypeOf(value).Kind()
	return kind == reflect.Slice || kind == reflect.Array
}

// Flatten returns the scalar leaves of a possibly nested list
// in depth first order.
func Flatten(list interface{}) []interface{} {
	var leaves []interface{}
	for _, item := range ToInterfaceSlice(list) {
		if IsList(item) {
			leaves = append(leaves, Flatten(item)...)
			continue
		}
		leaves = append(leaves, item)
	}
	return leaves
}

// ToInterfaceSlice converts any slice or array into a slice of empty interfaces.
//
// If the input argument is not a slice nor an array it panics.
func ToInterfaceSlice(slice interface{}) []interface{} {
	if iSlicer, ok := slice.(ToInterfaceSlicer); ok {
		return iSlicer.ToInterfaceSlice()
	}

	v := reflect.ValueOf(slice)
	if !IsList(slice) {
		panic("slices.ToInterfaceSlice() only works with a slice or an array as argument")
	}

	resp := make([]interface{}, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		resp = append(resp, v.Index(i).Interface())
	}
	return resp
}
