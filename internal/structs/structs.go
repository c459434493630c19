// Package structs converts the structs received by the
// insert operations into column/value maps.
package structs

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Field describes a struct attribute tagged with `kquery`.
type Field struct {
	AttrName string
	Column   string
	Index    int

	// OmitEmpty is set by the `,omitempty` tag option and makes
	// StructToMap ignore the field when it holds its zero value.
	OmitEmpty bool
}

// Layout lists the tagged fields of a struct type in declaration order.
type Layout []Field

// The number of struct types on a program is finite,
// so the cache never needs to evict anything.
var layoutCache sync.Map

// LayoutOf returns the Layout of a struct type, the
// result is cached for the lifetime of the program.
func LayoutOf(t reflect.Type) (Layout, error) {
	if cached, found := layoutCache.Load(t); found {
		return cached.(Layout), nil
	}

	layout, err := parseLayout(t)
	if err != nil {
		return nil, err
	}

	layoutCache.Store(t, layout)
	return layout, nil
}

// StructToMap converts a struct or struct pointer into a map
// keyed by the `kquery` tags of its attributes.
//
// Valid pointers are dereferenced and nil pointers are ignored.
func StructToMap(obj interface{}) (map[string]interface{}, error) {
	if obj == nil {
		return nil, fmt.Errorf("input must be a struct or struct pointer, but got nil")
	}

	v := reflect.ValueOf(obj)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, fmt.Errorf("input must be a struct or struct pointer, but got a nil %v", v.Type())
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("input must be a struct or struct pointer, but got %v", v.Type())
	}

	layout, err := LayoutOf(v.Type())
	if err != nil {
		return nil, err
	}

	m := make(map[string]interface{}, len(layout))
	for _, f := range layout {
		field := v.Field(f.Index)
		if f.OmitEmpty && field.IsZero() {
			continue
		}

		if field.Kind() == reflect.Ptr {
			if field.IsNil() {
				continue
			}
			field = field.Elem()
		}

		m[f.Column] = field.Interface()
	}

	return m, nil
}

func parseLayout(t reflect.Type) (Layout, error) {
	var layout Layout
	seen := map[string]bool{}
	for i := 0; i < t.NumField(); i++ {
		attr := t.Field(i)

		tag := attr.Tag.Get("kquery")
		if tag == "" {
			continue
		}

		if !attr.IsExported() {
			return nil, fmt.Errorf("all fields using the kquery tags must be exported, but %v is unexported", t)
		}

		options := strings.Split(tag, ",")
		f := Field{
			AttrName: attr.Name,
			Column:   options[0],
			Index:    i,
		}

		for _, option := range options[1:] {
			switch option {
			case "omitempty":
				f.OmitEmpty = true
			default:
				return nil, fmt.Errorf("unknown kquery tag option `%s` on attribute %s", option, attr.Name)
			}
		}

		if seen[f.Column] {
			return nil, fmt.Errorf("struct contains multiple attributes with the same kquery tag name: '%s'", f.Column)
		}
		seen[f.Column] = true

		layout = append(layout, f)
	}

	if len(layout) == 0 {
		return nil, fmt.Errorf("the struct must contain at least one attribute with the kquery tag")
	}

	return layout, nil
}
